package wasm

// Binary format magic and version
const (
	Magic   uint32 = 0x6D736100
	Version uint32 = 0x01
)

// Section IDs
const (
	SectionCustom    byte = 0
	SectionType      byte = 1
	SectionImport    byte = 2
	SectionFunction  byte = 3
	SectionTable     byte = 4
	SectionMemory    byte = 5
	SectionGlobal    byte = 6
	SectionExport    byte = 7
	SectionStart     byte = 8
	SectionElement   byte = 9
	SectionCode      byte = 10
	SectionData      byte = 11
	SectionDataCount byte = 12
)

// External kinds for imports and exports
const (
	KindFunc   byte = 0x00
	KindTable  byte = 0x01
	KindMemory byte = 0x02
	KindGlobal byte = 0x03
)

// Value type bytes
const (
	ValI32  ValType = 0x7F // 32-bit integer
	ValI64  ValType = 0x7E // 64-bit integer
	ValF32  ValType = 0x7D // 32-bit float
	ValF64  ValType = 0x7C // 64-bit float
	ValV128 ValType = 0x7B // 128-bit vector (SIMD)

	ValRefNull ValType = 0x63 // (ref null ht) - nullable reference with heap type
	ValRef     ValType = 0x64 // (ref ht) - non-nullable reference with heap type
)

// Abstract heap types, encoded as negative s33 values. The comment gives the
// shorthand reference-type byte each abstract type also appears as.
const (
	HeapTypeNoFunc   int64 = -13 // 0x73 nullfuncref
	HeapTypeNoExtern int64 = -14 // 0x72 nullexternref
	HeapTypeNone     int64 = -15 // 0x71 nullref
	HeapTypeFunc     int64 = -16 // 0x70 funcref
	HeapTypeExtern   int64 = -17 // 0x6F externref
	HeapTypeAny      int64 = -18 // 0x6E anyref
	HeapTypeEq       int64 = -19 // 0x6D eqref
	HeapTypeI31      int64 = -20 // 0x6C i31ref
	HeapTypeStruct   int64 = -21 // 0x6B structref
	HeapTypeArray    int64 = -22 // 0x6A arrayref
)

// HeapTypeByte converts an abstract heap type (negative s33) to its encoded
// type byte (0x60 | (ht & 0x1F)).
func HeapTypeByte(ht int64) byte {
	return byte(ht & 0x7F)
}

// Control opcodes
const (
	OpUnreachable        byte = 0x00
	OpNop                byte = 0x01
	OpBlock              byte = 0x02
	OpLoop               byte = 0x03
	OpIf                 byte = 0x04
	OpElse               byte = 0x05
	OpTry                byte = 0x06 // Exception handling (rejected by the compiler)
	OpCatch              byte = 0x07 // Exception handling
	OpThrow              byte = 0x08 // Exception handling
	OpRethrow            byte = 0x09 // Exception handling
	OpThrowRef           byte = 0x0A // Exception handling
	OpEnd                byte = 0x0B
	OpBr                 byte = 0x0C
	OpBrIf               byte = 0x0D
	OpBrTable            byte = 0x0E
	OpReturn             byte = 0x0F
	OpCall               byte = 0x10
	OpCallIndirect       byte = 0x11
	OpReturnCall         byte = 0x12 // Tail call proposal
	OpReturnCallIndirect byte = 0x13 // Tail call proposal
	OpCallRef            byte = 0x14 // Typed function references
	OpReturnCallRef      byte = 0x15 // Typed function references
	OpDelegate           byte = 0x18 // Exception handling
	OpCatchAll           byte = 0x19 // Exception handling
	OpTryTable           byte = 0x1F // Exception handling (new)
)

// Reference opcodes
const (
	OpRefNull      byte = 0xD0
	OpRefIsNull    byte = 0xD1
	OpRefFunc      byte = 0xD2
	OpRefAsNonNull byte = 0xD3 // Typed function references
	OpRefEq        byte = 0xD4 // GC proposal
	OpBrOnNull     byte = 0xD5 // Typed function references
	OpBrOnNonNull  byte = 0xD6 // Typed function references
)

// Parametric opcodes
const (
	OpDrop       byte = 0x1A
	OpSelect     byte = 0x1B
	OpSelectType byte = 0x1C
)

// Variable opcodes
const (
	OpLocalGet  byte = 0x20
	OpLocalSet  byte = 0x21
	OpLocalTee  byte = 0x22
	OpGlobalGet byte = 0x23
	OpGlobalSet byte = 0x24
)

// Table opcodes
const (
	OpTableGet byte = 0x25
	OpTableSet byte = 0x26
)

// Memory load opcodes
const (
	OpI32Load    byte = 0x28
	OpI64Load    byte = 0x29
	OpF32Load    byte = 0x2A
	OpF64Load    byte = 0x2B
	OpI32Load8S  byte = 0x2C
	OpI32Load8U  byte = 0x2D
	OpI32Load16S byte = 0x2E
	OpI32Load16U byte = 0x2F
	OpI64Load8S  byte = 0x30
	OpI64Load8U  byte = 0x31
	OpI64Load16S byte = 0x32
	OpI64Load16U byte = 0x33
	OpI64Load32S byte = 0x34
	OpI64Load32U byte = 0x35
)

// Memory store opcodes
const (
	OpI32Store   byte = 0x36
	OpI64Store   byte = 0x37
	OpF32Store   byte = 0x38
	OpF64Store   byte = 0x39
	OpI32Store8  byte = 0x3A
	OpI32Store16 byte = 0x3B
	OpI64Store8  byte = 0x3C
	OpI64Store16 byte = 0x3D
	OpI64Store32 byte = 0x3E
)

// Memory size/grow opcodes
const (
	OpMemorySize byte = 0x3F
	OpMemoryGrow byte = 0x40
)

// Constant opcodes
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)

// i32 comparison opcodes
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32LtU byte = 0x49
	OpI32GtS byte = 0x4A
	OpI32GtU byte = 0x4B
	OpI32LeS byte = 0x4C
	OpI32LeU byte = 0x4D
	OpI32GeS byte = 0x4E
	OpI32GeU byte = 0x4F
)

// i64 comparison opcodes
const (
	OpI64Eqz byte = 0x50
	OpI64Eq  byte = 0x51
	OpI64Ne  byte = 0x52
	OpI64LtS byte = 0x53
	OpI64LtU byte = 0x54
	OpI64GtS byte = 0x55
	OpI64GtU byte = 0x56
	OpI64LeS byte = 0x57
	OpI64LeU byte = 0x58
	OpI64GeS byte = 0x59
	OpI64GeU byte = 0x5A
)

// f32 comparison opcodes
const (
	OpF32Eq byte = 0x5B
	OpF32Ne byte = 0x5C
	OpF32Lt byte = 0x5D
	OpF32Gt byte = 0x5E
	OpF32Le byte = 0x5F
	OpF32Ge byte = 0x60
)

// f64 comparison opcodes
const (
	OpF64Eq byte = 0x61
	OpF64Ne byte = 0x62
	OpF64Lt byte = 0x63
	OpF64Gt byte = 0x64
	OpF64Le byte = 0x65
	OpF64Ge byte = 0x66
)

// i32 numeric opcodes
const (
	OpI32Clz    byte = 0x67
	OpI32Ctz    byte = 0x68
	OpI32Popcnt byte = 0x69
	OpI32Add    byte = 0x6A
	OpI32Sub    byte = 0x6B
	OpI32Mul    byte = 0x6C
	OpI32DivS   byte = 0x6D
	OpI32DivU   byte = 0x6E
	OpI32RemS   byte = 0x6F
	OpI32RemU   byte = 0x70
	OpI32And    byte = 0x71
	OpI32Or     byte = 0x72
	OpI32Xor    byte = 0x73
	OpI32Shl    byte = 0x74
	OpI32ShrS   byte = 0x75
	OpI32ShrU   byte = 0x76
	OpI32Rotl   byte = 0x77
	OpI32Rotr   byte = 0x78
)

// i64 numeric opcodes
const (
	OpI64Clz    byte = 0x79
	OpI64Ctz    byte = 0x7A
	OpI64Popcnt byte = 0x7B
	OpI64Add    byte = 0x7C
	OpI64Sub    byte = 0x7D
	OpI64Mul    byte = 0x7E
	OpI64DivS   byte = 0x7F
	OpI64DivU   byte = 0x80
	OpI64RemS   byte = 0x81
	OpI64RemU   byte = 0x82
	OpI64And    byte = 0x83
	OpI64Or     byte = 0x84
	OpI64Xor    byte = 0x85
	OpI64Shl    byte = 0x86
	OpI64ShrS   byte = 0x87
	OpI64ShrU   byte = 0x88
	OpI64Rotl   byte = 0x89
	OpI64Rotr   byte = 0x8A
)

// f32 numeric opcodes
const (
	OpF32Abs      byte = 0x8B
	OpF32Neg      byte = 0x8C
	OpF32Ceil     byte = 0x8D
	OpF32Floor    byte = 0x8E
	OpF32Trunc    byte = 0x8F
	OpF32Nearest  byte = 0x90
	OpF32Sqrt     byte = 0x91
	OpF32Add      byte = 0x92
	OpF32Sub      byte = 0x93
	OpF32Mul      byte = 0x94
	OpF32Div      byte = 0x95
	OpF32Min      byte = 0x96
	OpF32Max      byte = 0x97
	OpF32Copysign byte = 0x98
)

// f64 numeric opcodes
const (
	OpF64Abs      byte = 0x99
	OpF64Neg      byte = 0x9A
	OpF64Ceil     byte = 0x9B
	OpF64Floor    byte = 0x9C
	OpF64Trunc    byte = 0x9D
	OpF64Nearest  byte = 0x9E
	OpF64Sqrt     byte = 0x9F
	OpF64Add      byte = 0xA0
	OpF64Sub      byte = 0xA1
	OpF64Mul      byte = 0xA2
	OpF64Div      byte = 0xA3
	OpF64Min      byte = 0xA4
	OpF64Max      byte = 0xA5
	OpF64Copysign byte = 0xA6
)

// Conversion opcodes
const (
	OpI32WrapI64        byte = 0xA7
	OpI32TruncF32S      byte = 0xA8
	OpI32TruncF32U      byte = 0xA9
	OpI32TruncF64S      byte = 0xAA
	OpI32TruncF64U      byte = 0xAB
	OpI64ExtendI32S     byte = 0xAC
	OpI64ExtendI32U     byte = 0xAD
	OpI64TruncF32S      byte = 0xAE
	OpI64TruncF32U      byte = 0xAF
	OpI64TruncF64S      byte = 0xB0
	OpI64TruncF64U      byte = 0xB1
	OpF32ConvertI32S    byte = 0xB2
	OpF32ConvertI32U    byte = 0xB3
	OpF32ConvertI64S    byte = 0xB4
	OpF32ConvertI64U    byte = 0xB5
	OpF32DemoteF64      byte = 0xB6
	OpF64ConvertI32S    byte = 0xB7
	OpF64ConvertI32U    byte = 0xB8
	OpF64ConvertI64S    byte = 0xB9
	OpF64ConvertI64U    byte = 0xBA
	OpF64PromoteF32     byte = 0xBB
	OpI32ReinterpretF32 byte = 0xBC
	OpI64ReinterpretF64 byte = 0xBD
	OpF32ReinterpretI32 byte = 0xBE
	OpF64ReinterpretI64 byte = 0xBF
)

// Sign extension opcodes (WASM 2.0)
const (
	OpI32Extend8S  byte = 0xC0
	OpI32Extend16S byte = 0xC1
	OpI64Extend8S  byte = 0xC2
	OpI64Extend16S byte = 0xC3
	OpI64Extend32S byte = 0xC4
)

// Multi-byte opcode prefixes indicate extended instruction sets.
// These are followed by a LEB128-encoded sub-opcode.
const (
	OpPrefixGC     byte = 0xFB // GC proposal: struct, array, ref operations
	OpPrefixMisc   byte = 0xFC // Misc: saturating trunc, bulk memory, table ops
	OpPrefixSIMD   byte = 0xFD // SIMD: 128-bit vector operations
	OpPrefixAtomic byte = 0xFE // Threads: atomic memory operations
)

// Misc opcodes (0xFC prefix)
const (
	MiscI32TruncSatF32S uint32 = 0x00
	MiscI32TruncSatF32U uint32 = 0x01
	MiscI32TruncSatF64S uint32 = 0x02
	MiscI32TruncSatF64U uint32 = 0x03
	MiscI64TruncSatF32S uint32 = 0x04
	MiscI64TruncSatF32U uint32 = 0x05
	MiscI64TruncSatF64S uint32 = 0x06
	MiscI64TruncSatF64U uint32 = 0x07
	MiscMemoryInit      uint32 = 0x08
	MiscDataDrop        uint32 = 0x09
	MiscMemoryCopy      uint32 = 0x0A
	MiscMemoryFill      uint32 = 0x0B
	MiscTableInit       uint32 = 0x0C
	MiscElemDrop        uint32 = 0x0D
	MiscTableCopy       uint32 = 0x0E
	MiscTableGrow       uint32 = 0x0F
	MiscTableSize       uint32 = 0x10
	MiscTableFill       uint32 = 0x11
)

// GC opcodes (0xFB prefix) - struct, array, and reference operations
const (
	GCStructNew        uint32 = 0x00
	GCStructNewDefault uint32 = 0x01
	GCStructGet        uint32 = 0x02
	GCStructGetS       uint32 = 0x03
	GCStructGetU       uint32 = 0x04
	GCStructSet        uint32 = 0x05
	GCArrayNew         uint32 = 0x06
	GCArrayNewDefault  uint32 = 0x07
	GCArrayNewFixed    uint32 = 0x08
	GCArrayNewData     uint32 = 0x09
	GCArrayNewElem     uint32 = 0x0A
	GCArrayGet         uint32 = 0x0B
	GCArrayGetS        uint32 = 0x0C
	GCArrayGetU        uint32 = 0x0D
	GCArraySet         uint32 = 0x0E
	GCArrayLen         uint32 = 0x0F
	GCArrayFill        uint32 = 0x10
	GCArrayCopy        uint32 = 0x11
	GCArrayInitData    uint32 = 0x12
	GCArrayInitElem    uint32 = 0x13
	GCRefTest          uint32 = 0x14
	GCRefTestNull      uint32 = 0x15
	GCRefCast          uint32 = 0x16
	GCRefCastNull      uint32 = 0x17
	GCBrOnCast         uint32 = 0x18
	GCBrOnCastFail     uint32 = 0x19
	GCAnyConvertExtern uint32 = 0x1A
	GCExternConvertAny uint32 = 0x1B
	GCRefI31           uint32 = 0x1C
	GCI31GetS          uint32 = 0x1D
	GCI31GetU          uint32 = 0x1E
)

// Cast flags for br_on_cast and br_on_cast_fail
const (
	CastFlagsNone       byte = 0x00 // neither type nullable
	CastFlagsFirstNull  byte = 0x01 // first type nullable
	CastFlagsSecondNull byte = 0x02 // second type nullable
	CastFlagsBothNull   byte = 0x03 // both types nullable
)

// Atomic opcodes (0xFE prefix)
const (
	AtomicNotify     uint32 = 0x00 // memory.atomic.notify
	AtomicWait32     uint32 = 0x01 // memory.atomic.wait32
	AtomicWait64     uint32 = 0x02 // memory.atomic.wait64
	AtomicFence      uint32 = 0x03 // atomic.fence
	AtomicI32Load    uint32 = 0x10 // i32.atomic.load
	AtomicI64Load    uint32 = 0x11 // i64.atomic.load
	AtomicI32Load8U  uint32 = 0x12 // i32.atomic.load8_u
	AtomicI32Load16U uint32 = 0x13 // i32.atomic.load16_u
	AtomicI64Load8U  uint32 = 0x14 // i64.atomic.load8_u
	AtomicI64Load16U uint32 = 0x15 // i64.atomic.load16_u
	AtomicI64Load32U uint32 = 0x16 // i64.atomic.load32_u
	AtomicI32Store   uint32 = 0x17 // i32.atomic.store
	AtomicI64Store   uint32 = 0x18 // i64.atomic.store
	AtomicI32Store8  uint32 = 0x19 // i32.atomic.store8
	AtomicI32Store16 uint32 = 0x1A // i32.atomic.store16
	AtomicI64Store8  uint32 = 0x1B // i64.atomic.store8
	AtomicI64Store16 uint32 = 0x1C // i64.atomic.store16
	AtomicI64Store32 uint32 = 0x1D // i64.atomic.store32

	AtomicI32RmwAdd        uint32 = 0x1E
	AtomicI64RmwAdd        uint32 = 0x1F
	AtomicI32Rmw8AddU      uint32 = 0x20
	AtomicI32Rmw16AddU     uint32 = 0x21
	AtomicI64Rmw8AddU      uint32 = 0x22
	AtomicI64Rmw16AddU     uint32 = 0x23
	AtomicI64Rmw32AddU     uint32 = 0x24
	AtomicI32RmwSub        uint32 = 0x25
	AtomicI64RmwSub        uint32 = 0x26
	AtomicI32Rmw8SubU      uint32 = 0x27
	AtomicI32Rmw16SubU     uint32 = 0x28
	AtomicI64Rmw8SubU      uint32 = 0x29
	AtomicI64Rmw16SubU     uint32 = 0x2A
	AtomicI64Rmw32SubU     uint32 = 0x2B
	AtomicI32RmwAnd        uint32 = 0x2C
	AtomicI64RmwAnd        uint32 = 0x2D
	AtomicI32Rmw8AndU      uint32 = 0x2E
	AtomicI32Rmw16AndU     uint32 = 0x2F
	AtomicI64Rmw8AndU      uint32 = 0x30
	AtomicI64Rmw16AndU     uint32 = 0x31
	AtomicI64Rmw32AndU     uint32 = 0x32
	AtomicI32RmwOr         uint32 = 0x33
	AtomicI64RmwOr         uint32 = 0x34
	AtomicI32Rmw8OrU       uint32 = 0x35
	AtomicI32Rmw16OrU      uint32 = 0x36
	AtomicI64Rmw8OrU       uint32 = 0x37
	AtomicI64Rmw16OrU      uint32 = 0x38
	AtomicI64Rmw32OrU      uint32 = 0x39
	AtomicI32RmwXor        uint32 = 0x3A
	AtomicI64RmwXor        uint32 = 0x3B
	AtomicI32Rmw8XorU      uint32 = 0x3C
	AtomicI32Rmw16XorU     uint32 = 0x3D
	AtomicI64Rmw8XorU      uint32 = 0x3E
	AtomicI64Rmw16XorU     uint32 = 0x3F
	AtomicI64Rmw32XorU     uint32 = 0x40
	AtomicI32RmwXchg       uint32 = 0x41
	AtomicI64RmwXchg       uint32 = 0x42
	AtomicI32Rmw8XchgU     uint32 = 0x43
	AtomicI32Rmw16XchgU    uint32 = 0x44
	AtomicI64Rmw8XchgU     uint32 = 0x45
	AtomicI64Rmw16XchgU    uint32 = 0x46
	AtomicI64Rmw32XchgU    uint32 = 0x47
	AtomicI32RmwCmpxchg    uint32 = 0x48
	AtomicI64RmwCmpxchg    uint32 = 0x49
	AtomicI32Rmw8CmpxchgU  uint32 = 0x4A
	AtomicI32Rmw16CmpxchgU uint32 = 0x4B
	AtomicI64Rmw8CmpxchgU  uint32 = 0x4C
	AtomicI64Rmw16CmpxchgU uint32 = 0x4D
	AtomicI64Rmw32CmpxchgU uint32 = 0x4E
)

// Limits flags
const (
	LimitsNoMax  byte = 0x00
	LimitsHasMax byte = 0x01
	LimitsShared byte = 0x03
)

// Type section encodings
const (
	FuncTypeByte   byte = 0x60 // func
	StructTypeByte byte = 0x5F // struct (GC)
	ArrayTypeByte  byte = 0x5E // array (GC)
	RecTypeByte    byte = 0x4E // rec (GC recursive types)
	SubTypeByte    byte = 0x50 // sub (GC subtyping)
	SubFinalByte   byte = 0x4F // sub final (GC subtyping, no further subtypes)
)

// Packed storage types for struct fields and array elements
const (
	PackedI8  byte = 0x78 // i8
	PackedI16 byte = 0x77 // i16
)

// Field mutability for GC struct/array fields
const (
	FieldImmutable byte = 0x00
	FieldMutable   byte = 0x01
)

// SIMD opcodes (0xFD prefix)
const (
	SimdV128Load        uint32 = 0x00
	SimdV128Load8x8S    uint32 = 0x01
	SimdV128Load8x8U    uint32 = 0x02
	SimdV128Load16x4S   uint32 = 0x03
	SimdV128Load16x4U   uint32 = 0x04
	SimdV128Load32x2S   uint32 = 0x05
	SimdV128Load32x2U   uint32 = 0x06
	SimdV128Load8Splat  uint32 = 0x07
	SimdV128Load16Splat uint32 = 0x08
	SimdV128Load32Splat uint32 = 0x09
	SimdV128Load64Splat uint32 = 0x0A
	SimdV128Store       uint32 = 0x0B
	SimdV128Const       uint32 = 0x0C
	SimdI8x16Shuffle    uint32 = 0x0D
	SimdI8x16Swizzle    uint32 = 0x0E
	SimdI8x16Splat      uint32 = 0x0F
	SimdI16x8Splat      uint32 = 0x10
	SimdI32x4Splat      uint32 = 0x11
	SimdI64x2Splat      uint32 = 0x12
	SimdF32x4Splat      uint32 = 0x13
	SimdF64x2Splat      uint32 = 0x14

	SimdI8x16ExtractLaneS uint32 = 0x15
	SimdI8x16ExtractLaneU uint32 = 0x16
	SimdI8x16ReplaceLane  uint32 = 0x17
	SimdI16x8ExtractLaneS uint32 = 0x18
	SimdI16x8ExtractLaneU uint32 = 0x19
	SimdI16x8ReplaceLane  uint32 = 0x1A
	SimdI32x4ExtractLane  uint32 = 0x1B
	SimdI32x4ReplaceLane  uint32 = 0x1C
	SimdI64x2ExtractLane  uint32 = 0x1D
	SimdI64x2ReplaceLane  uint32 = 0x1E
	SimdF32x4ExtractLane  uint32 = 0x1F
	SimdF32x4ReplaceLane  uint32 = 0x20
	SimdF64x2ExtractLane  uint32 = 0x21
	SimdF64x2ReplaceLane  uint32 = 0x22

	SimdI8x16Eq  uint32 = 0x23
	SimdI8x16Ne  uint32 = 0x24
	SimdI8x16LtS uint32 = 0x25
	SimdI8x16LtU uint32 = 0x26
	SimdI8x16GtS uint32 = 0x27
	SimdI8x16GtU uint32 = 0x28
	SimdI8x16LeS uint32 = 0x29
	SimdI8x16LeU uint32 = 0x2A
	SimdI8x16GeS uint32 = 0x2B
	SimdI8x16GeU uint32 = 0x2C
	SimdI16x8Eq  uint32 = 0x2D
	SimdI16x8Ne  uint32 = 0x2E
	SimdI16x8LtS uint32 = 0x2F
	SimdI16x8LtU uint32 = 0x30
	SimdI16x8GtS uint32 = 0x31
	SimdI16x8GtU uint32 = 0x32
	SimdI16x8LeS uint32 = 0x33
	SimdI16x8LeU uint32 = 0x34
	SimdI16x8GeS uint32 = 0x35
	SimdI16x8GeU uint32 = 0x36
	SimdI32x4Eq  uint32 = 0x37
	SimdI32x4Ne  uint32 = 0x38
	SimdI32x4LtS uint32 = 0x39
	SimdI32x4LtU uint32 = 0x3A
	SimdI32x4GtS uint32 = 0x3B
	SimdI32x4GtU uint32 = 0x3C
	SimdI32x4LeS uint32 = 0x3D
	SimdI32x4LeU uint32 = 0x3E
	SimdI32x4GeS uint32 = 0x3F
	SimdI32x4GeU uint32 = 0x40
	SimdF32x4Eq  uint32 = 0x41
	SimdF32x4Ne  uint32 = 0x42
	SimdF32x4Lt  uint32 = 0x43
	SimdF32x4Gt  uint32 = 0x44
	SimdF32x4Le  uint32 = 0x45
	SimdF32x4Ge  uint32 = 0x46
	SimdF64x2Eq  uint32 = 0x47
	SimdF64x2Ne  uint32 = 0x48
	SimdF64x2Lt  uint32 = 0x49
	SimdF64x2Gt  uint32 = 0x4A
	SimdF64x2Le  uint32 = 0x4B
	SimdF64x2Ge  uint32 = 0x4C

	SimdV128Not       uint32 = 0x4D
	SimdV128And       uint32 = 0x4E
	SimdV128AndNot    uint32 = 0x4F
	SimdV128Or        uint32 = 0x50
	SimdV128Xor       uint32 = 0x51
	SimdV128Bitselect uint32 = 0x52
	SimdV128AnyTrue   uint32 = 0x53

	SimdV128Load8Lane   uint32 = 0x54
	SimdV128Load16Lane  uint32 = 0x55
	SimdV128Load32Lane  uint32 = 0x56
	SimdV128Load64Lane  uint32 = 0x57
	SimdV128Store8Lane  uint32 = 0x58
	SimdV128Store16Lane uint32 = 0x59
	SimdV128Store32Lane uint32 = 0x5A
	SimdV128Store64Lane uint32 = 0x5B
	SimdV128Load32Zero  uint32 = 0x5C
	SimdV128Load64Zero  uint32 = 0x5D

	SimdF32x4DemoteF64x2Zero uint32 = 0x5E
	SimdF64x2PromoteLowF32x4 uint32 = 0x5F

	SimdI8x16Abs          uint32 = 0x60
	SimdI8x16Neg          uint32 = 0x61
	SimdI8x16Popcnt       uint32 = 0x62
	SimdI8x16AllTrue      uint32 = 0x63
	SimdI8x16Bitmask      uint32 = 0x64
	SimdI8x16NarrowI16x8S uint32 = 0x65
	SimdI8x16NarrowI16x8U uint32 = 0x66
	SimdF32x4Ceil         uint32 = 0x67
	SimdF32x4Floor        uint32 = 0x68
	SimdF32x4Trunc        uint32 = 0x69
	SimdF32x4Nearest      uint32 = 0x6A
	SimdI8x16Shl          uint32 = 0x6B
	SimdI8x16ShrS         uint32 = 0x6C
	SimdI8x16ShrU         uint32 = 0x6D
	SimdI8x16Add          uint32 = 0x6E
	SimdI8x16AddSatS      uint32 = 0x6F
	SimdI8x16AddSatU      uint32 = 0x70
	SimdI8x16Sub          uint32 = 0x71
	SimdI8x16SubSatS      uint32 = 0x72
	SimdI8x16SubSatU      uint32 = 0x73
	SimdF64x2Ceil         uint32 = 0x74
	SimdF64x2Floor        uint32 = 0x75
	SimdI8x16MinS         uint32 = 0x76
	SimdI8x16MinU         uint32 = 0x77
	SimdI8x16MaxS         uint32 = 0x78
	SimdI8x16MaxU         uint32 = 0x79
	SimdF64x2Trunc        uint32 = 0x7A
	SimdI8x16AvgrU        uint32 = 0x7B

	SimdI16x8ExtAddPairwiseI8x16S uint32 = 0x7C
	SimdI16x8ExtAddPairwiseI8x16U uint32 = 0x7D
	SimdI32x4ExtAddPairwiseI16x8S uint32 = 0x7E
	SimdI32x4ExtAddPairwiseI16x8U uint32 = 0x7F

	SimdI16x8Abs          uint32 = 0x80
	SimdI16x8Neg          uint32 = 0x81
	SimdI16x8Q15MulrSatS  uint32 = 0x82
	SimdI16x8AllTrue      uint32 = 0x83
	SimdI16x8Bitmask      uint32 = 0x84
	SimdI16x8NarrowI32x4S uint32 = 0x85
	SimdI16x8NarrowI32x4U uint32 = 0x86
	SimdI16x8ExtendLowS   uint32 = 0x87
	SimdI16x8ExtendHighS  uint32 = 0x88
	SimdI16x8ExtendLowU   uint32 = 0x89
	SimdI16x8ExtendHighU  uint32 = 0x8A
	SimdI16x8Shl          uint32 = 0x8B
	SimdI16x8ShrS         uint32 = 0x8C
	SimdI16x8ShrU         uint32 = 0x8D
	SimdI16x8Add          uint32 = 0x8E
	SimdI16x8AddSatS      uint32 = 0x8F
	SimdI16x8AddSatU      uint32 = 0x90
	SimdI16x8Sub          uint32 = 0x91
	SimdI16x8SubSatS      uint32 = 0x92
	SimdI16x8SubSatU      uint32 = 0x93
	SimdF64x2Nearest      uint32 = 0x94
	SimdI16x8Mul          uint32 = 0x95
	SimdI16x8MinS         uint32 = 0x96
	SimdI16x8MinU         uint32 = 0x97
	SimdI16x8MaxS         uint32 = 0x98
	SimdI16x8MaxU         uint32 = 0x99
	SimdI16x8AvgrU        uint32 = 0x9B
	SimdI16x8ExtMulLowS   uint32 = 0x9C
	SimdI16x8ExtMulHighS  uint32 = 0x9D
	SimdI16x8ExtMulLowU   uint32 = 0x9E
	SimdI16x8ExtMulHighU  uint32 = 0x9F

	SimdI32x4Abs         uint32 = 0xA0
	SimdI32x4Neg         uint32 = 0xA1
	SimdI32x4AllTrue     uint32 = 0xA3
	SimdI32x4Bitmask     uint32 = 0xA4
	SimdI32x4ExtendLowS  uint32 = 0xA7
	SimdI32x4ExtendHighS uint32 = 0xA8
	SimdI32x4ExtendLowU  uint32 = 0xA9
	SimdI32x4ExtendHighU uint32 = 0xAA
	SimdI32x4Shl         uint32 = 0xAB
	SimdI32x4ShrS        uint32 = 0xAC
	SimdI32x4ShrU        uint32 = 0xAD
	SimdI32x4Add         uint32 = 0xAE
	SimdI32x4Sub         uint32 = 0xB1
	SimdI32x4Mul         uint32 = 0xB5
	SimdI32x4MinS        uint32 = 0xB6
	SimdI32x4MinU        uint32 = 0xB7
	SimdI32x4MaxS        uint32 = 0xB8
	SimdI32x4MaxU        uint32 = 0xB9
	SimdI32x4DotI16x8S   uint32 = 0xBA
	SimdI32x4ExtMulLowS  uint32 = 0xBC
	SimdI32x4ExtMulHighS uint32 = 0xBD
	SimdI32x4ExtMulLowU  uint32 = 0xBE
	SimdI32x4ExtMulHighU uint32 = 0xBF

	SimdI64x2Abs         uint32 = 0xC0
	SimdI64x2Neg         uint32 = 0xC1
	SimdI64x2AllTrue     uint32 = 0xC3
	SimdI64x2Bitmask     uint32 = 0xC4
	SimdI64x2ExtendLowS  uint32 = 0xC7
	SimdI64x2ExtendHighS uint32 = 0xC8
	SimdI64x2ExtendLowU  uint32 = 0xC9
	SimdI64x2ExtendHighU uint32 = 0xCA
	SimdI64x2Shl         uint32 = 0xCB
	SimdI64x2ShrS        uint32 = 0xCC
	SimdI64x2ShrU        uint32 = 0xCD
	SimdI64x2Add         uint32 = 0xCE
	SimdI64x2Sub         uint32 = 0xD1
	SimdI64x2Mul         uint32 = 0xD5
	SimdI64x2Eq          uint32 = 0xD6
	SimdI64x2Ne          uint32 = 0xD7
	SimdI64x2LtS         uint32 = 0xD8
	SimdI64x2GtS         uint32 = 0xD9
	SimdI64x2LeS         uint32 = 0xDA
	SimdI64x2GeS         uint32 = 0xDB
	SimdI64x2ExtMulLowS  uint32 = 0xDC
	SimdI64x2ExtMulHighS uint32 = 0xDD
	SimdI64x2ExtMulLowU  uint32 = 0xDE
	SimdI64x2ExtMulHighU uint32 = 0xDF

	SimdF32x4Abs uint32 = 0xE0
	SimdF32x4Neg uint32 = 0xE1

	SimdF32x4Sqrt uint32 = 0xE3
	SimdF32x4Add  uint32 = 0xE4
	SimdF32x4Sub  uint32 = 0xE5
	SimdF32x4Mul  uint32 = 0xE6
	SimdF32x4Div  uint32 = 0xE7
	SimdF32x4Min  uint32 = 0xE8
	SimdF32x4Max  uint32 = 0xE9
	SimdF32x4PMin uint32 = 0xEA
	SimdF32x4PMax uint32 = 0xEB

	SimdF64x2Abs  uint32 = 0xEC
	SimdF64x2Neg  uint32 = 0xED
	SimdF64x2Sqrt uint32 = 0xEF
	SimdF64x2Add  uint32 = 0xF0
	SimdF64x2Sub  uint32 = 0xF1
	SimdF64x2Mul  uint32 = 0xF2
	SimdF64x2Div  uint32 = 0xF3
	SimdF64x2Min  uint32 = 0xF4
	SimdF64x2Max  uint32 = 0xF5
	SimdF64x2PMin uint32 = 0xF6
	SimdF64x2PMax uint32 = 0xF7

	SimdI32x4TruncSatF32x4S     uint32 = 0xF8
	SimdI32x4TruncSatF32x4U     uint32 = 0xF9
	SimdF32x4ConvertI32x4S      uint32 = 0xFA
	SimdF32x4ConvertI32x4U      uint32 = 0xFB
	SimdI32x4TruncSatF64x2SZero uint32 = 0xFC
	SimdI32x4TruncSatF64x2UZero uint32 = 0xFD
	SimdF64x2ConvertLowI32x4S   uint32 = 0xFE
	SimdF64x2ConvertLowI32x4U   uint32 = 0xFF

	// Relaxed SIMD proposal
	SimdI8x16RelaxedSwizzle           uint32 = 0x100
	SimdI32x4RelaxedTruncF32x4S       uint32 = 0x101
	SimdI32x4RelaxedTruncF32x4U       uint32 = 0x102
	SimdI32x4RelaxedTruncF64x2SZero   uint32 = 0x103
	SimdI32x4RelaxedTruncF64x2UZero   uint32 = 0x104
	SimdF32x4RelaxedMadd              uint32 = 0x105
	SimdF32x4RelaxedNmadd             uint32 = 0x106
	SimdF64x2RelaxedMadd              uint32 = 0x107
	SimdF64x2RelaxedNmadd             uint32 = 0x108
	SimdI8x16RelaxedLaneselect        uint32 = 0x109
	SimdI16x8RelaxedLaneselect        uint32 = 0x10A
	SimdI32x4RelaxedLaneselect        uint32 = 0x10B
	SimdI64x2RelaxedLaneselect        uint32 = 0x10C
	SimdF32x4RelaxedMin               uint32 = 0x10D
	SimdF32x4RelaxedMax               uint32 = 0x10E
	SimdF64x2RelaxedMin               uint32 = 0x10F
	SimdF64x2RelaxedMax               uint32 = 0x110
	SimdI16x8RelaxedQ15MulrS          uint32 = 0x111
	SimdI16x8RelaxedDotI8x16I7x16S    uint32 = 0x112
	SimdI32x4RelaxedDotI8x16I7x16AddS uint32 = 0x113
)
