package wasm

// Module represents a parsed WebAssembly module.
type Module struct {
	Types    []SubType // Flat type index space (rec groups expanded)
	Imports  []Import
	Funcs    []uint32 // Type indices for declared functions
	Tables   []TableType
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Elements []Element
	Code     []FuncBody
	Data     []DataSegment

	// DataCount holds the count from the DataCount section (ID 12).
	// Required when data indices appear in code (bulk memory operations).
	DataCount *uint32

	// Validated is set by an external validator. The compiler refuses
	// modules without it.
	Validated bool
}

// ValType represents a WebAssembly value type byte.
// See constants.go for ValI32, ValI64, ValF32, ValF64, etc.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValRefNull:
		return "ref null"
	case ValRef:
		return "ref"
	default:
		return "unknown"
	}
}

// IsRef reports whether the value type is a reference type.
func (v ValType) IsRef() bool {
	return v == ValRef || v == ValRefNull
}

// RefType carries the nullable flag and heap type of a reference type.
// The heap type is encoded as s33: negative for abstract heap types,
// non-negative for composite type indices.
type RefType struct {
	Nullable bool
	HeapType int64
}

// ValueType is a value type together with its heap type when the type is a
// reference. Non-reference types leave Ref zeroed.
type ValueType struct {
	Kind ValType
	Ref  RefType
}

// NumType returns a plain numeric/vector value type.
func NumType(v ValType) ValueType {
	return ValueType{Kind: v}
}

// RefValueType returns a reference value type with the given heap type.
func RefValueType(nullable bool, heapType int64) ValueType {
	kind := ValRef
	if nullable {
		kind = ValRefNull
	}
	return ValueType{Kind: kind, Ref: RefType{Nullable: nullable, HeapType: heapType}}
}

// FuncType represents a function signature.
type FuncType struct {
	Params  []ValueType
	Results []ValueType
}

// Equal reports whether two function types match exactly.
func (a FuncType) Equal(b FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

// StorageType represents a type that can be stored in a struct field or
// array element: a value type or a packed i8/i16.
type StorageType struct {
	Packed byte // 0, PackedI8, or PackedI16
	Val    ValueType
}

// FieldType represents a struct field or array element with mutability.
type FieldType struct {
	Type    StorageType
	Mutable bool
}

// StructType represents a GC struct type definition.
type StructType struct {
	Fields []FieldType
}

// ArrayType represents a GC array type definition.
type ArrayType struct {
	Element FieldType
}

// CompType is a composite type: func, struct, or array.
type CompType struct {
	Func   *FuncType
	Struct *StructType
	Array  *ArrayType
	Kind   byte
}

// Composite type kinds.
const (
	CompKindFunc   byte = FuncTypeByte   // 0x60
	CompKindStruct byte = StructTypeByte // 0x5F
	CompKindArray  byte = ArrayTypeByte  // 0x5E
)

// IsFunc reports whether the composite type is a function type.
func (c *CompType) IsFunc() bool {
	return c.Kind == CompKindFunc
}

// SubType is one entry of the flat type index space: a composite type plus
// its subtyping information.
type SubType struct {
	CompType CompType
	Parents  []uint32
	Final    bool
}

// Import represents an imported function, table, memory, or global.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
// Kind uses KindFunc, KindTable, KindMemory, or KindGlobal constants.
type ImportDesc struct {
	Table   *TableType
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx uint32
	Kind    byte
}

// TableType describes a table with element type and size limits.
type TableType struct {
	ElemType ValueType
	Limits   Limits
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max    *uint64
	Min    uint64
	Shared bool
}

// GlobalType describes a global variable's type and mutability.
type GlobalType struct {
	ValType ValueType
	Mutable bool
}

// Global represents a global variable with type and initialization.
type Global struct {
	Type GlobalType
	Init []byte // Raw init expression bytes
}

// Export describes an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// Element represents an element segment.
type Element struct {
	RefType  *RefType
	Offset   []byte
	FuncIdxs []uint32
	Exprs    [][]byte
	Flags    uint32
	TableIdx uint32
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
}

// LocalEntry represents a group of local variables with the same type.
type LocalEntry struct {
	Count uint32
	Type  ValueType
}

// FlatLocals expands the local groups into one ValueType per slot.
func (b *FuncBody) FlatLocals() []ValueType {
	var out []ValueType
	for _, l := range b.Locals {
		for i := uint32(0); i < l.Count; i++ {
			out = append(out, l.Type)
		}
	}
	return out
}

// DataSegment represents a data segment.
type DataSegment struct {
	Offset []byte
	Init   []byte
	Flags  uint32
	MemIdx uint32
}

// NumImportedFuncs returns the number of imported functions.
func (m *Module) NumImportedFuncs() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			count++
		}
	}
	return count
}

// NumImportedGlobals returns the number of imported globals.
func (m *Module) NumImportedGlobals() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindGlobal {
			count++
		}
	}
	return count
}

// CompositeType returns the composite type at the given flat type index.
func (m *Module) CompositeType(typeIdx uint32) *CompType {
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx].CompType
}

// FuncTypeAt returns the function type at the given type index, or nil when
// the index names a non-function composite type.
func (m *Module) FuncTypeAt(typeIdx uint32) *FuncType {
	ct := m.CompositeType(typeIdx)
	if ct == nil || !ct.IsFunc() {
		return nil
	}
	return ct.Func
}

// AddType appends a function type to the type index space and returns its
// index, reusing an existing equal entry.
func (m *Module) AddType(ft FuncType) uint32 {
	for i := range m.Types {
		ct := &m.Types[i].CompType
		if ct.IsFunc() && ct.Func.Equal(ft) {
			return uint32(i)
		}
	}
	idx := uint32(len(m.Types))
	m.Types = append(m.Types, SubType{
		CompType: CompType{Kind: CompKindFunc, Func: &ft},
		Final:    true,
	})
	return idx
}
