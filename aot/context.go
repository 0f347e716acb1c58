package aot

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/metadata"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/wasm"
)

// binaryVersion is the value of the module-level "version" constant; the
// loader refuses objects with a mismatched version.
const binaryVersion = 1

// moduleFunc records one function of the module under compilation: its type
// index, its IR callee, and its body (nil for imports).
type moduleFunc struct {
	TypeIdx uint32
	Fn      *ir.Func
	FnTy    *types.FuncType
	Code    *wasm.FuncBody
}

// compileContext is the per-module state shared by all function
// translations: canonical IR types, the execution-context record layout,
// the intrinsics table, the composite-type table, and capability flags.
type compileContext struct {
	module   *ir.Module
	features Features

	int8Ty   *types.IntType
	int16Ty  *types.IntType
	int32Ty  *types.IntType
	int64Ty  *types.IntType
	int128Ty *types.IntType
	floatTy  *types.FloatType
	doubleTy *types.FloatType

	int8x16Ty  *types.VectorType
	int16x8Ty  *types.VectorType
	int32x4Ty  *types.VectorType
	int64x2Ty  *types.VectorType
	floatx4Ty  *types.VectorType
	doublex2Ty *types.VectorType

	i8PtrTy    *types.PointerType
	i8PtrPtrTy *types.PointerType
	i32PtrTy   *types.PointerType
	i64PtrTy   *types.PointerType
	i128PtrTy  *types.PointerType

	execCtxTy            *types.StructType
	execCtxPtrTy         *types.PointerType
	costTableTy          *types.ArrayType
	intrinsicsTableTy    *types.ArrayType
	intrinsicsTablePtrTy *types.PointerType

	intrinsicsTable *ir.Global
	trapFn          *ir.Func

	// Empty metadata node backing the invariant markers on context loads.
	invariantNode  *metadata.Tuple
	invariantLoad  *metadata.Attachment
	invariantGroup *metadata.Attachment

	compositeTypes []*wasm.CompType
	wrappers       []*ir.Func
	functions      []moduleFunc
	globals        []types.Type

	coreIntrinsics map[string]*ir.Func
}

func newCompileContext(m *ir.Module, features Features) *compileContext {
	c := &compileContext{
		module:   m,
		features: features,

		int8Ty:   types.I8,
		int16Ty:  types.I16,
		int32Ty:  types.I32,
		int64Ty:  types.I64,
		int128Ty: types.I128,
		floatTy:  types.Float,
		doubleTy: types.Double,

		coreIntrinsics: make(map[string]*ir.Func),
	}

	c.int8x16Ty = types.NewVector(16, c.int8Ty)
	c.int16x8Ty = types.NewVector(8, c.int16Ty)
	c.int32x4Ty = types.NewVector(4, c.int32Ty)
	c.int64x2Ty = types.NewVector(2, c.int64Ty)
	c.floatx4Ty = types.NewVector(4, c.floatTy)
	c.doublex2Ty = types.NewVector(2, c.doubleTy)

	c.i8PtrTy = types.NewPointer(c.int8Ty)
	c.i8PtrPtrTy = types.NewPointer(c.i8PtrTy)
	c.i32PtrTy = types.NewPointer(c.int32Ty)
	c.i64PtrTy = types.NewPointer(c.int64Ty)
	c.i128PtrTy = types.NewPointer(c.int128Ty)

	c.costTableTy = types.NewArray(65536, c.int64Ty)
	c.execCtxTy = types.NewStruct(
		c.i8PtrPtrTy,                    // memory base array
		types.NewPointer(c.i128PtrTy),   // global slots array
		c.i64PtrTy,                      // instruction counter
		types.NewPointer(c.costTableTy), // cost table
		c.i64PtrTy,                      // gas accumulator
		c.int64Ty,                       // gas limit
		c.i32PtrTy,                      // stop token
	)
	m.NewTypeDef("ExecCtx", c.execCtxTy)
	c.execCtxPtrTy = types.NewPointer(c.execCtxTy)

	c.intrinsicsTableTy = types.NewArray(uint64(IntrinsicCount), c.i8PtrTy)
	c.intrinsicsTablePtrTy = types.NewPointer(c.intrinsicsTableTy)

	// The intrinsics table pointer is an external relocation patched by the
	// loader; once set it never changes, hence the invariant markers.
	c.intrinsicsTable = m.NewGlobal("intrinsics", c.intrinsicsTablePtrTy)
	c.invariantNode = &metadata.Tuple{}
	m.MetadataDefs = append(m.MetadataDefs, c.invariantNode)
	c.invariantLoad = &metadata.Attachment{Name: "invariant.load", Node: c.invariantNode}
	c.invariantGroup = &metadata.Attachment{Name: "invariant.group", Node: c.invariantNode}

	versionGlobal := m.NewGlobalDef("version", constant.NewInt(c.int32Ty, binaryVersion))
	versionGlobal.Immutable = true

	c.trapFn = c.buildTrapHelper()

	return c
}

// buildTrapHelper emits the shared trap function: a private, no-return,
// cold helper that forwards the error code to the trap intrinsic.
func (c *compileContext) buildTrapHelper() *ir.Func {
	code := ir.NewParam("code", c.int32Ty)
	f := c.module.NewFunc("trap", types.Void, code)
	f.Linkage = enum.LinkagePrivate
	f.FuncAttrs = append(f.FuncAttrs,
		enum.FuncAttrNoReturn,
		enum.FuncAttrCold,
		enum.FuncAttrNoInline,
		ir.AttrString("no-stack-arg-probe"),
	)

	entry := f.NewBlock("entry")
	callee := c.getIntrinsic(entry, IntrinsicTrap, types.NewFunc(types.Void, c.int32Ty))
	call := entry.NewCall(callee, code)
	call.FuncAttrs = append(call.FuncAttrs, enum.FuncAttrNoReturn)
	entry.NewUnreachable()
	return f
}

// getMemory loads the base pointer of memory index i from the execution
// context. The load carries an invariant-group marker: the base pointer is
// immutable for the lifetime of the call.
func (c *compileContext) getMemory(b *ir.Block, execCtx value.Value, index uint32) value.Value {
	arr := b.NewExtractValue(execCtx, 0)
	gep := b.NewGetElementPtr(c.i8PtrTy, arr, constant.NewInt(c.int64Ty, int64(index)))
	gep.InBounds = true
	load := b.NewLoad(c.i8PtrTy, gep)
	load.Metadata = append(load.Metadata, c.invariantGroup)
	return load
}

// getGlobal resolves the slot pointer and IR type of global index i.
func (c *compileContext) getGlobal(b *ir.Block, execCtx value.Value, index uint32) (types.Type, value.Value) {
	ty := c.globals[index]
	arr := b.NewExtractValue(execCtx, 1)
	gep := b.NewGetElementPtr(c.i128PtrTy, arr, constant.NewInt(c.int64Ty, int64(index)))
	gep.InBounds = true
	load := b.NewLoad(c.i128PtrTy, gep)
	load.Metadata = append(load.Metadata, c.invariantGroup)
	ptr := b.NewBitCast(load, types.NewPointer(ty))
	return ty, ptr
}

func (c *compileContext) getInstrCount(b *ir.Block, execCtx value.Value) value.Value {
	return b.NewExtractValue(execCtx, 2)
}

func (c *compileContext) getCostTable(b *ir.Block, execCtx value.Value) value.Value {
	return b.NewExtractValue(execCtx, 3)
}

func (c *compileContext) getGas(b *ir.Block, execCtx value.Value) value.Value {
	return b.NewExtractValue(execCtx, 4)
}

func (c *compileContext) getGasLimit(b *ir.Block, execCtx value.Value) value.Value {
	return b.NewExtractValue(execCtx, 5)
}

func (c *compileContext) getStopToken(b *ir.Block, execCtx value.Value) value.Value {
	return b.NewExtractValue(execCtx, 6)
}

// getIntrinsic loads the function pointer for the given intrinsic kind from
// the process-wide table, typed with the expected signature.
func (c *compileContext) getIntrinsic(b *ir.Block, kind Intrinsic, fnTy *types.FuncType) value.Value {
	table := b.NewLoad(c.intrinsicsTablePtrTy, c.intrinsicsTable)
	table.Metadata = append(table.Metadata, c.invariantLoad)
	gep := b.NewGetElementPtr(c.intrinsicsTableTy, table,
		constant.NewInt(c.int64Ty, 0),
		constant.NewInt(c.int64Ty, int64(kind)))
	gep.InBounds = true
	ptrTy := types.NewPointer(fnTy)
	slot := b.NewBitCast(gep, types.NewPointer(ptrTy))
	return b.NewLoad(ptrTy, slot)
}

// resolveBlockType maps a block-type immediate to its parameter and result
// lists: empty block type to ([], []); value-type block type to ([], [v]);
// type-index block type to the composite function type.
func (c *compileContext) resolveBlockType(bt int64) ([]wasm.ValueType, []wasm.ValueType) {
	if bt == -64 { // 0x40: empty
		return nil, nil
	}
	if bt < 0 {
		code := wasm.ValType(bt & 0x7F)
		switch code {
		case wasm.ValI32, wasm.ValI64, wasm.ValF32, wasm.ValF64, wasm.ValV128:
			return nil, []wasm.ValueType{wasm.NumType(code)}
		default:
			// Abstract reference shorthand
			return nil, []wasm.ValueType{wasm.RefValueType(true, bt)}
		}
	}
	ft := c.compositeTypes[bt].Func
	return ft.Params, ft.Results
}

// coreIntrinsic declares (once) and returns a named LLVM intrinsic.
func (c *compileContext) coreIntrinsic(name string, retTy types.Type, paramTys ...types.Type) *ir.Func {
	if f, ok := c.coreIntrinsics[name]; ok {
		return f
	}
	params := make([]*ir.Param, len(paramTys))
	for i, t := range paramTys {
		params[i] = ir.NewParam(fmt.Sprintf("a%d", i), t)
	}
	f := c.module.NewFunc(name, retTy, params...)
	c.coreIntrinsics[name] = f
	return f
}

// likely wraps a condition with llvm.expect so trap and slow paths stay off
// the hot path.
func (c *compileContext) likely(b *ir.Block, cond value.Value) value.Value {
	expect := c.coreIntrinsic("llvm.expect.i1", types.I1, types.I1, types.I1)
	return b.NewCall(expect, cond, constant.NewBool(true))
}

// unlikely is the complementary hint.
func (c *compileContext) unlikely(b *ir.Block, cond value.Value) value.Value {
	expect := c.coreIntrinsic("llvm.expect.i1", types.I1, types.I1, types.I1)
	return b.NewCall(expect, cond, constant.NewBool(false))
}

// newValueArray allocates a scratch array of n boxed value slots and
// returns it as an i8 pointer.
func (c *compileContext) newValueArray(b *ir.Block, n int) value.Value {
	arrTy := types.NewArray(uint64(n*valSize), c.int8Ty)
	alloca := b.NewAlloca(arrTy)
	alloca.Align = ir.Align(16)
	return b.NewBitCast(alloca, c.i8PtrTy)
}

// valueArrayStore boxes vals into consecutive slots of a scratch array.
func (c *compileContext) valueArrayStore(b *ir.Block, vals []value.Value, arr value.Value) {
	for i, v := range vals {
		c.valuePtrStore(b, v, arr, i*valSize)
	}
}

// valueArrayLoad unboxes n values of the given types from a scratch array.
func (c *compileContext) valueArrayLoad(b *ir.Block, tys []types.Type, arr value.Value) []value.Value {
	out := make([]value.Value, len(tys))
	for i, ty := range tys {
		out[i] = c.valuePtrLoad(b, ty, arr, i*valSize)
	}
	return out
}

// valuePtrStore stores v at byte offset off behind an untyped pointer.
func (c *compileContext) valuePtrStore(b *ir.Block, v value.Value, ptr value.Value, off int) {
	p := c.bytePtr(b, ptr, off)
	cast := b.NewBitCast(p, types.NewPointer(v.Type()))
	b.NewStore(v, cast)
}

// valuePtrLoad loads a value of type ty at byte offset off behind an
// untyped pointer.
func (c *compileContext) valuePtrLoad(b *ir.Block, ty types.Type, ptr value.Value, off int) value.Value {
	p := c.bytePtr(b, ptr, off)
	cast := b.NewBitCast(p, types.NewPointer(ty))
	return b.NewLoad(ty, cast)
}

func (c *compileContext) bytePtr(b *ir.Block, ptr value.Value, off int) value.Value {
	raw := ptr
	if !raw.Type().Equal(c.i8PtrTy) {
		raw = b.NewBitCast(raw, c.i8PtrTy)
	}
	if off == 0 {
		return raw
	}
	gep := b.NewGetElementPtr(c.int8Ty, raw, constant.NewInt(c.int64Ty, int64(off)))
	gep.InBounds = true
	return gep
}
