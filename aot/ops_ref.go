package aot

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

// nullDescriptor down-scales a heap type to the bottom type of its
// hierarchy: nofunc, noextern, or none. Composite type indices map to
// nofunc or none depending on whether the type is a function type.
func (t *funcTranslator) nullDescriptor(heapType int64) uint64 {
	if heapType >= 0 {
		ct := t.ctx.compositeTypes[heapType]
		if ct.IsFunc() {
			return refDescriptor(true, wasm.HeapTypeNoFunc)
		}
		return refDescriptor(true, wasm.HeapTypeNone)
	}
	switch heapType {
	case wasm.HeapTypeNoFunc, wasm.HeapTypeFunc:
		return refDescriptor(true, wasm.HeapTypeNoFunc)
	case wasm.HeapTypeNoExtern, wasm.HeapTypeExtern:
		return refDescriptor(true, wasm.HeapTypeNoExtern)
	default:
		return refDescriptor(true, wasm.HeapTypeNone)
	}
}

// refPayload extracts the low 64 bits of the reference payload.
func (t *funcTranslator) refPayload(ref value.Value) value.Value {
	return t.cur.NewExtractElement(ref, constant.NewInt(t.ctx.int64Ty, 1))
}

func (t *funcTranslator) compileRefOp(instr *wasm.Instruction) {
	c := t.ctx

	switch instr.Opcode {
	case wasm.OpRefNull:
		imm := instr.Imm.(wasm.RefNullImm)
		t.push(c.constRef(t.nullDescriptor(imm.HeapType), 0))

	case wasm.OpRefIsNull:
		ref := t.bitCast(t.pop(), c.int64x2Ty)
		isNull := t.cur.NewICmp(enum.IPredEQ, t.refPayload(ref), constant.NewInt(c.int64Ty, 0))
		t.push(t.boolToI32(isNull))

	case wasm.OpRefFunc:
		imm := instr.Imm.(wasm.RefFuncImm)
		callee := c.getIntrinsic(t.cur, IntrinsicRefFunc,
			types.NewFunc(c.int64x2Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.FuncIdx))))

	case wasm.OpRefEq:
		rhs := t.bitCast(t.pop(), c.int64x2Ty)
		lhs := t.bitCast(t.pop(), c.int64x2Ty)
		eq := t.cur.NewICmp(enum.IPredEQ, t.refPayload(lhs), t.refPayload(rhs))
		t.push(t.boolToI32(eq))

	case wasm.OpRefAsNonNull:
		ref := t.refNullCheck(ErrCastNullToNonNull)
		t.push(ref)
	}
}

// targetDescriptor builds the i64 descriptor constant the RefTest/RefCast
// intrinsics take as the target type.
func (t *funcTranslator) targetDescriptor(nullable bool, heapType int64) value.Value {
	return constant.NewInt(t.ctx.int64Ty, int64(refDescriptor(nullable, heapType)))
}

func (t *funcTranslator) compileGCOp(imm wasm.GCImm) error {
	c := t.ctx

	switch imm.SubOpcode {
	case wasm.GCStructNew, wasm.GCStructNewDefault:
		ct := c.compositeTypes[imm.TypeIdx]
		var args value.Value = constant.NewNull(c.i8PtrTy)
		argSize := 0
		if imm.SubOpcode == wasm.GCStructNew {
			argSize = len(ct.Struct.Fields)
			vals := make([]value.Value, argSize)
			for i := argSize - 1; i >= 0; i-- {
				vals[i] = t.pop()
			}
			args = c.newValueArray(t.cur, argSize)
			c.valueArrayStore(t.cur, vals, args)
		}
		callee := c.getIntrinsic(t.cur, IntrinsicStructNew,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.i8PtrTy, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			args, constant.NewInt(c.int32Ty, int64(argSize))))

	case wasm.GCStructGet, wasm.GCStructGetS, wasm.GCStructGetU:
		ct := c.compositeTypes[imm.TypeIdx]
		storage := ct.Struct.Fields[imm.FieldIdx].Type
		ref := t.pop()
		signed := int64(0)
		if imm.SubOpcode == wasm.GCStructGetS {
			signed = 1
		}
		ret := t.cur.NewAlloca(c.int64x2Ty)
		callee := c.getIntrinsic(t.cur, IntrinsicStructGet,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.int8Ty, c.i8PtrTy))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			constant.NewInt(c.int32Ty, int64(imm.FieldIdx)),
			constant.NewInt(c.int8Ty, signed),
			t.cur.NewBitCast(ret, c.i8PtrTy))
		t.push(c.valuePtrLoad(t.cur, t.storageIRType(storage), ret, 0))

	case wasm.GCStructSet:
		val := t.pop()
		ref := t.pop()
		arg := t.cur.NewAlloca(c.int64x2Ty)
		c.valuePtrStore(t.cur, val, arg, 0)
		callee := c.getIntrinsic(t.cur, IntrinsicStructSet,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			constant.NewInt(c.int32Ty, int64(imm.FieldIdx)),
			t.cur.NewBitCast(arg, c.i8PtrTy))

	case wasm.GCArrayNew:
		length := t.pop()
		val := t.pop()
		arg := t.cur.NewAlloca(c.int64x2Ty)
		c.valuePtrStore(t.cur, val, arg, 0)
		callee := c.getIntrinsic(t.cur, IntrinsicArrayNew,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			length, t.cur.NewBitCast(arg, c.i8PtrTy), constant.NewInt(c.int32Ty, 1)))

	case wasm.GCArrayNewDefault:
		length := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicArrayNew,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			length, constant.NewNull(c.i8PtrTy), constant.NewInt(c.int32Ty, 0)))

	case wasm.GCArrayNewFixed:
		argSize := int(imm.Size)
		vals := make([]value.Value, argSize)
		for i := argSize - 1; i >= 0; i-- {
			vals[i] = t.pop()
		}
		args := c.newValueArray(t.cur, argSize)
		c.valueArrayStore(t.cur, vals, args)
		callee := c.getIntrinsic(t.cur, IntrinsicArrayNew,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			constant.NewInt(c.int32Ty, int64(argSize)),
			args, constant.NewInt(c.int32Ty, int64(argSize))))

	case wasm.GCArrayNewData, wasm.GCArrayNewElem:
		kind := IntrinsicArrayNewData
		srcIdx := imm.DataIdx
		if imm.SubOpcode == wasm.GCArrayNewElem {
			kind = IntrinsicArrayNewElem
			srcIdx = imm.ElemIdx
		}
		length := t.pop()
		start := t.pop()
		callee := c.getIntrinsic(t.cur, kind,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			constant.NewInt(c.int32Ty, int64(srcIdx)),
			start, length))

	case wasm.GCArrayGet, wasm.GCArrayGetS, wasm.GCArrayGetU:
		ct := c.compositeTypes[imm.TypeIdx]
		storage := ct.Array.Element.Type
		idx := t.pop()
		ref := t.pop()
		signed := int64(0)
		if imm.SubOpcode == wasm.GCArrayGetS {
			signed = 1
		}
		ret := t.cur.NewAlloca(c.int64x2Ty)
		callee := c.getIntrinsic(t.cur, IntrinsicArrayGet,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.int8Ty, c.i8PtrTy))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			idx,
			constant.NewInt(c.int8Ty, signed),
			t.cur.NewBitCast(ret, c.i8PtrTy))
		t.push(c.valuePtrLoad(t.cur, t.storageIRType(storage), ret, 0))

	case wasm.GCArraySet:
		val := t.pop()
		idx := t.pop()
		ref := t.pop()
		arg := t.cur.NewAlloca(c.int64x2Ty)
		c.valuePtrStore(t.cur, val, arg, 0)
		callee := c.getIntrinsic(t.cur, IntrinsicArraySet,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			idx,
			t.cur.NewBitCast(arg, c.i8PtrTy))

	case wasm.GCArrayLen:
		ref := t.bitCast(t.pop(), c.int64x2Ty)
		callee := c.getIntrinsic(t.cur, IntrinsicArrayLen,
			types.NewFunc(c.int32Ty, c.int64x2Ty))
		t.push(t.cur.NewCall(callee, ref))

	case wasm.GCArrayFill:
		length := t.pop()
		val := t.pop()
		start := t.pop()
		ref := t.pop()
		arg := t.cur.NewAlloca(c.int64x2Ty)
		c.valuePtrStore(t.cur, val, arg, 0)
		callee := c.getIntrinsic(t.cur, IntrinsicArrayFill,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.int32Ty))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			start,
			t.cur.NewBitCast(arg, c.i8PtrTy),
			length)

	case wasm.GCArrayCopy:
		length := t.pop()
		srcStart := t.pop()
		srcRef := t.pop()
		dstStart := t.pop()
		dstRef := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicArrayCopy,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int64x2Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			t.bitCast(dstRef, c.int64x2Ty), dstStart,
			t.bitCast(srcRef, c.int64x2Ty), srcStart,
			length)

	case wasm.GCArrayInitData, wasm.GCArrayInitElem:
		kind := IntrinsicArrayInitData
		srcIdx := imm.DataIdx
		if imm.SubOpcode == wasm.GCArrayInitElem {
			kind = IntrinsicArrayInitElem
			srcIdx = imm.ElemIdx
		}
		length := t.pop()
		srcOff := t.pop()
		dstOff := t.pop()
		ref := t.pop()
		callee := c.getIntrinsic(t.cur, kind,
			types.NewFunc(types.Void, c.int64x2Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			t.bitCast(ref, c.int64x2Ty),
			constant.NewInt(c.int32Ty, int64(imm.TypeIdx)),
			constant.NewInt(c.int32Ty, int64(srcIdx)),
			dstOff, srcOff, length)

	case wasm.GCRefTest, wasm.GCRefTestNull:
		ref := t.bitCast(t.pop(), c.int64x2Ty)
		target := t.targetDescriptor(imm.SubOpcode == wasm.GCRefTestNull, imm.HeapType)
		callee := c.getIntrinsic(t.cur, IntrinsicRefTest,
			types.NewFunc(c.int32Ty, c.int64x2Ty, c.int64Ty))
		t.push(t.cur.NewCall(callee, ref, target))

	case wasm.GCRefCast, wasm.GCRefCastNull:
		ref := t.bitCast(t.pop(), c.int64x2Ty)
		target := t.targetDescriptor(imm.SubOpcode == wasm.GCRefCastNull, imm.HeapType)
		callee := c.getIntrinsic(t.cur, IntrinsicRefCast,
			types.NewFunc(c.int64x2Ty, c.int64x2Ty, c.int64Ty))
		t.push(t.cur.NewCall(callee, ref, target))

	case wasm.GCBrOnCast, wasm.GCBrOnCastFail:
		ref := t.bitCast(t.top(), c.int64x2Ty)
		t.setTop(ref)
		target := t.targetDescriptor(imm.CastFlags&wasm.CastFlagsSecondNull != 0, imm.HeapType2)
		callee := c.getIntrinsic(t.cur, IntrinsicRefTest,
			types.NewFunc(c.int32Ty, c.int64x2Ty, c.int64Ty))
		test := t.cur.NewCall(callee, ref, target)
		var cond value.Value
		if imm.SubOpcode == wasm.GCBrOnCast {
			cond = t.cur.NewICmp(enum.IPredNE, test, constant.NewInt(c.int32Ty, 0))
		} else {
			cond = t.cur.NewICmp(enum.IPredEQ, test, constant.NewInt(c.int32Ty, 0))
		}
		t.branchJumpPHI(imm.LabelIdx)
		next := t.newBlock("br_on_cast_end")
		t.cur.NewCondBr(cond, t.getLabel(imm.LabelIdx), next)
		t.cur = next

	case wasm.GCAnyConvertExtern:
		t.compileAnyConvertExtern()

	case wasm.GCExternConvertAny:
		t.compileExternConvertAny()

	case wasm.GCRefI31:
		// Pack a 31-bit integer; the sign bit doubles as the non-null tag.
		desc := refDescriptor(false, wasm.HeapTypeI31)
		v := t.pop()
		val := t.cur.NewZExt(
			t.cur.NewOr(
				t.cur.NewAnd(v, constant.NewInt(c.int32Ty, 0x7FFFFFFF)),
				constant.NewInt(c.int32Ty, -0x80000000)),
			c.int64Ty)
		ref := c.constRef(desc, 0)
		t.push(t.cur.NewInsertElement(ref, val, constant.NewInt(c.int64Ty, 1)))

	case wasm.GCI31GetS:
		val := t.i31NullCheck()
		masked := t.cur.NewAnd(val, constant.NewInt(c.int32Ty, 0x7FFFFFFF))
		// Replicate bit 30 into bit 31 to sign extend from 31 bits.
		t.push(t.cur.NewOr(masked,
			t.cur.NewShl(
				t.cur.NewAnd(masked, constant.NewInt(c.int32Ty, 0x40000000)),
				constant.NewInt(c.int32Ty, 1))))

	case wasm.GCI31GetU:
		val := t.i31NullCheck()
		t.push(t.cur.NewAnd(val, constant.NewInt(c.int32Ty, 0x7FFFFFFF)))

	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Detail("gc sub-opcode 0x%02x", imm.SubOpcode).
			Build()
	}
	return nil
}

// i31NullCheck traps unless the i31 tag bit is set, returning the truncated
// payload word.
func (t *funcTranslator) i31NullCheck() value.Value {
	c := t.ctx
	ref := t.bitCast(t.pop(), c.int64x2Ty)
	val := t.cur.NewTrunc(t.refPayload(ref), c.int32Ty)
	okBB := t.newBlock("i31_get_ok")
	tagged := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE,
		t.cur.NewAnd(val, constant.NewInt(c.int32Ty, -0x80000000)),
		constant.NewInt(c.int32Ty, 0)))
	t.cur.NewCondBr(tagged, okBB, t.getTrapBlock(ErrAccessNullI31))
	t.cur = okBB
	return val
}

// compileAnyConvertExtern rewrites the descriptor from the external to the
// internal hierarchy, preserving null.
func (t *funcTranslator) compileAnyConvertExtern() {
	c := t.ctx
	ref := t.bitCast(t.pop(), c.int64x2Ty)
	payload := t.refPayload(ref)

	isNullBB := t.newBlock("any_conv_null")
	notNullBB := t.newBlock("any_conv_not_null")
	isExtBB := t.newBlock("any_conv_is_extref")
	endBB := t.newBlock("any_conv_end")

	isNull := t.cur.NewICmp(enum.IPredEQ, payload, constant.NewInt(c.int64Ty, 0))
	t.cur.NewCondBr(isNull, isNullBB, notNullBB)

	t.cur = isNullBB
	ret1 := c.constRef(refDescriptor(true, wasm.HeapTypeNone), 0)
	t.cur.NewBr(endBB)

	t.cur = notNullBB
	// Clear the external-space flag at descriptor byte 1.
	bytes := t.cur.NewBitCast(ref, c.int8x16Ty)
	cleared := t.cur.NewInsertElement(bytes,
		constant.NewInt(c.int8Ty, 0), constant.NewInt(c.int64Ty, 1))
	ret2 := t.cur.NewBitCast(cleared, c.int64x2Ty)
	heapByte := t.cur.NewExtractElement(
		t.cur.NewBitCast(ret2, c.int8x16Ty), constant.NewInt(c.int64Ty, 3))
	isExt := t.cur.NewOr(
		t.cur.NewICmp(enum.IPredEQ, heapByte,
			constant.NewInt(c.int8Ty, int64(wasm.HeapTypeByte(wasm.HeapTypeExtern)))),
		t.cur.NewICmp(enum.IPredEQ, heapByte,
			constant.NewInt(c.int8Ty, int64(wasm.HeapTypeByte(wasm.HeapTypeNoExtern)))))
	notNullPred := t.cur
	t.cur.NewCondBr(isExt, isExtBB, endBB)

	t.cur = isExtBB
	anyDesc := c.constRef(refDescriptor(false, wasm.HeapTypeAny), 0)
	ret3 := t.cur.NewInsertElement(anyDesc, payload, constant.NewInt(c.int64Ty, 1))
	t.cur.NewBr(endBB)

	t.cur = endBB
	phi := t.cur.NewPhi(
		ir.NewIncoming(ret1, isNullBB),
		ir.NewIncoming(ret2, notNullPred),
		ir.NewIncoming(ret3, isExtBB))
	t.push(phi)
}

// compileExternConvertAny is the inverse rewrite, mapping null to the
// noextern null.
func (t *funcTranslator) compileExternConvertAny() {
	c := t.ctx
	ref := t.bitCast(t.pop(), c.int64x2Ty)

	isNullBB := t.newBlock("extern_conv_null")
	notNullBB := t.newBlock("extern_conv_not_null")
	endBB := t.newBlock("extern_conv_end")

	isNull := t.cur.NewICmp(enum.IPredEQ, t.refPayload(ref), constant.NewInt(c.int64Ty, 0))
	t.cur.NewCondBr(isNull, isNullBB, notNullBB)

	t.cur = isNullBB
	ret1 := c.constRef(refDescriptor(true, wasm.HeapTypeNoExtern), 0)
	t.cur.NewBr(endBB)

	t.cur = notNullBB
	bytes := t.cur.NewBitCast(ref, c.int8x16Ty)
	flagged := t.cur.NewInsertElement(bytes,
		constant.NewInt(c.int8Ty, 1), constant.NewInt(c.int64Ty, 1))
	ret2 := t.cur.NewBitCast(flagged, c.int64x2Ty)
	t.cur.NewBr(endBB)

	t.cur = endBB
	phi := t.cur.NewPhi(
		ir.NewIncoming(ret1, isNullBB),
		ir.NewIncoming(ret2, notNullBB))
	t.push(phi)
}

// storageIRType maps a struct field or array element storage type to the
// IR type the getter pushes: packed fields widen to i32.
func (t *funcTranslator) storageIRType(st wasm.StorageType) types.Type {
	if st.Packed != 0 {
		return t.ctx.int32Ty
	}
	return t.ctx.toIRType(st.Val)
}
