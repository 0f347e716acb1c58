package aot

import (
	"math"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/wasm"
)

// isNumericOp reports whether the opcode is a single-byte numeric operator
// handled by compileNumericOp.
func isNumericOp(op byte) bool {
	return op >= wasm.OpI32Eqz && op <= wasm.OpI64Extend32S
}

func (t *funcTranslator) compileNumericOp(op byte) {
	c := t.ctx

	switch op {
	// Unary tests
	case wasm.OpI32Eqz:
		t.push(t.boolToI32(t.cur.NewICmp(enum.IPredEQ, t.pop(), constant.NewInt(c.int32Ty, 0))))
	case wasm.OpI64Eqz:
		t.push(t.boolToI32(t.cur.NewICmp(enum.IPredEQ, t.pop(), constant.NewInt(c.int64Ty, 0))))

	// Integer comparisons
	case wasm.OpI32Eq, wasm.OpI64Eq:
		t.intCmp(enum.IPredEQ)
	case wasm.OpI32Ne, wasm.OpI64Ne:
		t.intCmp(enum.IPredNE)
	case wasm.OpI32LtS, wasm.OpI64LtS:
		t.intCmp(enum.IPredSLT)
	case wasm.OpI32LtU, wasm.OpI64LtU:
		t.intCmp(enum.IPredULT)
	case wasm.OpI32GtS, wasm.OpI64GtS:
		t.intCmp(enum.IPredSGT)
	case wasm.OpI32GtU, wasm.OpI64GtU:
		t.intCmp(enum.IPredUGT)
	case wasm.OpI32LeS, wasm.OpI64LeS:
		t.intCmp(enum.IPredSLE)
	case wasm.OpI32LeU, wasm.OpI64LeU:
		t.intCmp(enum.IPredULE)
	case wasm.OpI32GeS, wasm.OpI64GeS:
		t.intCmp(enum.IPredSGE)
	case wasm.OpI32GeU, wasm.OpI64GeU:
		t.intCmp(enum.IPredUGE)

	// Float comparisons
	case wasm.OpF32Eq, wasm.OpF64Eq:
		t.floatCmp(enum.FPredOEQ)
	case wasm.OpF32Ne, wasm.OpF64Ne:
		t.floatCmp(enum.FPredUNE)
	case wasm.OpF32Lt, wasm.OpF64Lt:
		t.floatCmp(enum.FPredOLT)
	case wasm.OpF32Gt, wasm.OpF64Gt:
		t.floatCmp(enum.FPredOGT)
	case wasm.OpF32Le, wasm.OpF64Le:
		t.floatCmp(enum.FPredOLE)
	case wasm.OpF32Ge, wasm.OpF64Ge:
		t.floatCmp(enum.FPredOGE)

	// Integer unary
	case wasm.OpI32Clz:
		t.push(t.callCore("llvm.ctlz.i32", c.int32Ty, t.pop(), constant.NewBool(false)))
	case wasm.OpI64Clz:
		t.push(t.callCore("llvm.ctlz.i64", c.int64Ty, t.pop(), constant.NewBool(false)))
	case wasm.OpI32Ctz:
		t.push(t.callCore("llvm.cttz.i32", c.int32Ty, t.pop(), constant.NewBool(false)))
	case wasm.OpI64Ctz:
		t.push(t.callCore("llvm.cttz.i64", c.int64Ty, t.pop(), constant.NewBool(false)))
	case wasm.OpI32Popcnt:
		t.push(t.callCore("llvm.ctpop.i32", c.int32Ty, t.pop()))
	case wasm.OpI64Popcnt:
		t.push(t.callCore("llvm.ctpop.i64", c.int64Ty, t.pop()))

	// Float unary
	case wasm.OpF32Abs:
		t.push(t.callCore("llvm.fabs.f32", c.floatTy, t.pop()))
	case wasm.OpF64Abs:
		t.push(t.callCore("llvm.fabs.f64", c.doubleTy, t.pop()))
	case wasm.OpF32Neg, wasm.OpF64Neg:
		t.push(t.cur.NewFNeg(t.pop()))
	case wasm.OpF32Ceil:
		t.push(t.callCore("llvm.ceil.f32", c.floatTy, t.pop()))
	case wasm.OpF64Ceil:
		t.push(t.callCore("llvm.ceil.f64", c.doubleTy, t.pop()))
	case wasm.OpF32Floor:
		t.push(t.callCore("llvm.floor.f32", c.floatTy, t.pop()))
	case wasm.OpF64Floor:
		t.push(t.callCore("llvm.floor.f64", c.doubleTy, t.pop()))
	case wasm.OpF32Trunc:
		t.push(t.callCore("llvm.trunc.f32", c.floatTy, t.pop()))
	case wasm.OpF64Trunc:
		t.push(t.callCore("llvm.trunc.f64", c.doubleTy, t.pop()))
	case wasm.OpF32Nearest:
		t.compileNearest(c.floatTy)
	case wasm.OpF64Nearest:
		t.compileNearest(c.doubleTy)
	case wasm.OpF32Sqrt:
		t.push(t.callCore("llvm.sqrt.f32", c.floatTy, t.pop()))
	case wasm.OpF64Sqrt:
		t.push(t.callCore("llvm.sqrt.f64", c.doubleTy, t.pop()))

	// Integer binary
	case wasm.OpI32Add, wasm.OpI64Add:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewAdd(lhs, rhs))
	case wasm.OpI32Sub, wasm.OpI64Sub:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewSub(lhs, rhs))
	case wasm.OpI32Mul, wasm.OpI64Mul:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewMul(lhs, rhs))

	case wasm.OpI32DivS, wasm.OpI64DivS:
		t.compileSignedDiv(op == wasm.OpI32DivS)
	case wasm.OpI32DivU, wasm.OpI64DivU:
		t.compileUnsignedDiv(op == wasm.OpI32DivU)
	case wasm.OpI32RemS, wasm.OpI64RemS:
		t.compileSignedRem(op == wasm.OpI32RemS)
	case wasm.OpI32RemU, wasm.OpI64RemU:
		t.compileUnsignedRem(op == wasm.OpI32RemU)

	case wasm.OpI32And, wasm.OpI64And:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewAnd(lhs, rhs))
	case wasm.OpI32Or, wasm.OpI64Or:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewOr(lhs, rhs))
	case wasm.OpI32Xor, wasm.OpI64Xor:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewXor(lhs, rhs))

	// Shift amounts are masked modulo the bit width.
	case wasm.OpI32Shl:
		rhs := t.maskShift(t.pop(), 31)
		t.push(t.cur.NewShl(t.pop(), rhs))
	case wasm.OpI64Shl:
		rhs := t.maskShift(t.pop(), 63)
		t.push(t.cur.NewShl(t.pop(), rhs))
	case wasm.OpI32ShrS:
		rhs := t.maskShift(t.pop(), 31)
		t.push(t.cur.NewAShr(t.pop(), rhs))
	case wasm.OpI64ShrS:
		rhs := t.maskShift(t.pop(), 63)
		t.push(t.cur.NewAShr(t.pop(), rhs))
	case wasm.OpI32ShrU:
		rhs := t.maskShift(t.pop(), 31)
		t.push(t.cur.NewLShr(t.pop(), rhs))
	case wasm.OpI64ShrU:
		rhs := t.maskShift(t.pop(), 63)
		t.push(t.cur.NewLShr(t.pop(), rhs))

	case wasm.OpI32Rotl:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.fshl.i32", c.int32Ty, lhs, lhs, rhs))
	case wasm.OpI32Rotr:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.fshr.i32", c.int32Ty, lhs, lhs, rhs))
	case wasm.OpI64Rotl:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.fshl.i64", c.int64Ty, lhs, lhs, rhs))
	case wasm.OpI64Rotr:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.fshr.i64", c.int64Ty, lhs, lhs, rhs))

	// Float binary
	case wasm.OpF32Add, wasm.OpF64Add:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewFAdd(lhs, rhs))
	case wasm.OpF32Sub, wasm.OpF64Sub:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewFSub(lhs, rhs))
	case wasm.OpF32Mul, wasm.OpF64Mul:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewFMul(lhs, rhs))
	case wasm.OpF32Div, wasm.OpF64Div:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.cur.NewFDiv(lhs, rhs))

	case wasm.OpF32Min:
		t.compileFloatMin(c.floatTy, c.int32Ty, "llvm.minnum.f32")
	case wasm.OpF64Min:
		t.compileFloatMin(c.doubleTy, c.int64Ty, "llvm.minnum.f64")
	case wasm.OpF32Max:
		t.compileFloatMax(c.floatTy, c.int32Ty, "llvm.maxnum.f32")
	case wasm.OpF64Max:
		t.compileFloatMax(c.doubleTy, c.int64Ty, "llvm.maxnum.f64")

	case wasm.OpF32Copysign:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.copysign.f32", c.floatTy, lhs, rhs))
	case wasm.OpF64Copysign:
		rhs, lhs := t.pop(), t.pop()
		t.push(t.callCore("llvm.copysign.f64", c.doubleTy, lhs, rhs))

	// Conversions
	case wasm.OpI32WrapI64:
		t.push(t.cur.NewTrunc(t.pop(), c.int32Ty))
	case wasm.OpI32TruncF32S, wasm.OpI32TruncF64S:
		t.compileSignedTrunc(c.int32Ty)
	case wasm.OpI32TruncF32U, wasm.OpI32TruncF64U:
		t.compileUnsignedTrunc(c.int32Ty)
	case wasm.OpI64ExtendI32S:
		t.push(t.cur.NewSExt(t.pop(), c.int64Ty))
	case wasm.OpI64ExtendI32U:
		t.push(t.cur.NewZExt(t.pop(), c.int64Ty))
	case wasm.OpI64TruncF32S, wasm.OpI64TruncF64S:
		t.compileSignedTrunc(c.int64Ty)
	case wasm.OpI64TruncF32U, wasm.OpI64TruncF64U:
		t.compileUnsignedTrunc(c.int64Ty)
	case wasm.OpF32ConvertI32S, wasm.OpF32ConvertI64S:
		t.push(t.cur.NewSIToFP(t.pop(), c.floatTy))
	case wasm.OpF32ConvertI32U, wasm.OpF32ConvertI64U:
		t.push(t.cur.NewUIToFP(t.pop(), c.floatTy))
	case wasm.OpF64ConvertI32S, wasm.OpF64ConvertI64S:
		t.push(t.cur.NewSIToFP(t.pop(), c.doubleTy))
	case wasm.OpF64ConvertI32U, wasm.OpF64ConvertI64U:
		t.push(t.cur.NewUIToFP(t.pop(), c.doubleTy))
	case wasm.OpF32DemoteF64:
		t.push(t.cur.NewFPTrunc(t.pop(), c.floatTy))
	case wasm.OpF64PromoteF32:
		t.push(t.cur.NewFPExt(t.pop(), c.doubleTy))
	case wasm.OpI32ReinterpretF32:
		t.push(t.cur.NewBitCast(t.pop(), c.int32Ty))
	case wasm.OpI64ReinterpretF64:
		t.push(t.cur.NewBitCast(t.pop(), c.int64Ty))
	case wasm.OpF32ReinterpretI32:
		t.push(t.cur.NewBitCast(t.pop(), c.floatTy))
	case wasm.OpF64ReinterpretI64:
		t.push(t.cur.NewBitCast(t.pop(), c.doubleTy))

	case wasm.OpI32Extend8S:
		t.push(t.cur.NewSExt(t.cur.NewTrunc(t.pop(), c.int8Ty), c.int32Ty))
	case wasm.OpI32Extend16S:
		t.push(t.cur.NewSExt(t.cur.NewTrunc(t.pop(), c.int16Ty), c.int32Ty))
	case wasm.OpI64Extend8S:
		t.push(t.cur.NewSExt(t.cur.NewTrunc(t.pop(), c.int8Ty), c.int64Ty))
	case wasm.OpI64Extend16S:
		t.push(t.cur.NewSExt(t.cur.NewTrunc(t.pop(), c.int16Ty), c.int64Ty))
	case wasm.OpI64Extend32S:
		t.push(t.cur.NewSExt(t.cur.NewTrunc(t.pop(), c.int32Ty), c.int64Ty))
	}
}

func (t *funcTranslator) boolToI32(v value.Value) value.Value {
	return t.cur.NewZExt(v, t.ctx.int32Ty)
}

func (t *funcTranslator) intCmp(pred enum.IPred) {
	rhs, lhs := t.pop(), t.pop()
	t.push(t.boolToI32(t.cur.NewICmp(pred, lhs, rhs)))
}

func (t *funcTranslator) floatCmp(pred enum.FPred) {
	rhs, lhs := t.pop(), t.pop()
	t.push(t.boolToI32(t.cur.NewFCmp(pred, lhs, rhs)))
}

func (t *funcTranslator) maskShift(v value.Value, mask int64) value.Value {
	return t.cur.NewAnd(v, constant.NewInt(v.Type().(*types.IntType), mask))
}

// callCore declares the named LLVM intrinsic on first use and calls it. The
// parameter types are taken from the argument values.
func (t *funcTranslator) callCore(name string, retTy types.Type, args ...value.Value) value.Value {
	paramTys := make([]types.Type, len(args))
	for i, a := range args {
		paramTys[i] = a.Type()
	}
	fn := t.ctx.coreIntrinsic(name, retTy, paramTys...)
	vals := make([]value.Value, len(args))
	copy(vals, args)
	return t.cur.NewCall(fn, vals...)
}

// compileSignedDiv guards division by zero and INT_MIN/-1 overflow before
// emitting the quotient.
func (t *funcTranslator) compileSignedDiv(is32 bool) {
	c := t.ctx
	rhs, lhs := t.pop(), t.pop()
	intTy, minVal := c.int64Ty, int64(math.MinInt64)
	if is32 {
		intTy, minVal = c.int32Ty, int64(math.MinInt32)
	}
	zero := constant.NewInt(intTy, 0)
	minusOne := constant.NewInt(intTy, -1)
	minInt := constant.NewInt(intTy, minVal)

	noZeroBB := t.newBlock("div_nozero")
	okBB := t.newBlock("div_ok")

	notZero := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, rhs, zero))
	t.cur.NewCondBr(notZero, noZeroBB, t.getTrapBlock(ErrDivideByZero))
	t.cur = noZeroBB

	notOverflow := c.likely(t.cur, t.cur.NewOr(
		t.cur.NewICmp(enum.IPredNE, lhs, minInt),
		t.cur.NewICmp(enum.IPredNE, rhs, minusOne)))
	t.cur.NewCondBr(notOverflow, okBB, t.getTrapBlock(ErrIntegerOverflow))
	t.cur = okBB

	t.push(t.cur.NewSDiv(lhs, rhs))
}

func (t *funcTranslator) compileUnsignedDiv(is32 bool) {
	c := t.ctx
	rhs, lhs := t.pop(), t.pop()
	intTy := c.int64Ty
	if is32 {
		intTy = c.int32Ty
	}
	okBB := t.newBlock("div_ok")
	notZero := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, rhs, constant.NewInt(intTy, 0)))
	t.cur.NewCondBr(notZero, okBB, t.getTrapBlock(ErrDivideByZero))
	t.cur = okBB
	t.push(t.cur.NewUDiv(lhs, rhs))
}

// compileSignedRem guards division by zero, then handles INT_MIN % -1
// (which is 0, not a trap) with a dedicated branch.
func (t *funcTranslator) compileSignedRem(is32 bool) {
	c := t.ctx
	rhs, lhs := t.pop(), t.pop()
	intTy, minVal := c.int64Ty, int64(math.MinInt64)
	if is32 {
		intTy, minVal = c.int32Ty, int64(math.MinInt32)
	}
	zero := constant.NewInt(intTy, 0)
	minusOne := constant.NewInt(intTy, -1)
	minInt := constant.NewInt(intTy, minVal)

	okBB := t.newBlock("rem_ok")
	notZero := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, rhs, zero))
	t.cur.NewCondBr(notZero, okBB, t.getTrapBlock(ErrDivideByZero))
	t.cur = okBB

	noOverflowBB := t.newBlock("rem_no_overflow")
	endBB := t.newBlock("rem_end")
	currBB := t.cur

	notOverflow := c.likely(t.cur, t.cur.NewOr(
		t.cur.NewICmp(enum.IPredNE, lhs, minInt),
		t.cur.NewICmp(enum.IPredNE, rhs, minusOne)))
	t.cur.NewCondBr(notOverflow, noOverflowBB, endBB)

	t.cur = noOverflowBB
	rem := t.cur.NewSRem(lhs, rhs)
	t.cur.NewBr(endBB)

	t.cur = endBB
	phi := t.cur.NewPhi(ir.NewIncoming(rem, noOverflowBB), ir.NewIncoming(zero, currBB))
	t.push(phi)
}

func (t *funcTranslator) compileUnsignedRem(is32 bool) {
	c := t.ctx
	rhs, lhs := t.pop(), t.pop()
	intTy := c.int64Ty
	if is32 {
		intTy = c.int32Ty
	}
	okBB := t.newBlock("rem_ok")
	notZero := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, rhs, constant.NewInt(intTy, 0)))
	t.cur.NewCondBr(notZero, okBB, t.getTrapBlock(ErrDivideByZero))
	t.cur = okBB
	t.push(t.cur.NewURem(lhs, rhs))
}

// compileFloatMin lowers min with the NaN-propagation and signed-zero
// rules: equal operands bit-or to keep -0.0, unordered operands add to
// produce the canonical NaN, everything else uses minnum.
func (t *funcTranslator) compileFloatMin(fpTy *types.FloatType, intTy *types.IntType, minnum string) {
	rhs, lhs := t.pop(), t.pop()

	ueq := t.cur.NewFCmp(enum.FPredUEQ, lhs, rhs)
	uno := t.cur.NewFCmp(enum.FPredUNO, lhs, rhs)

	lhsInt := t.cur.NewBitCast(lhs, intTy)
	rhsInt := t.cur.NewBitCast(rhs, intTy)
	orFp := t.cur.NewBitCast(t.cur.NewOr(lhsInt, rhsInt), fpTy)

	addFp := t.cur.NewFAdd(lhs, rhs)
	minFp := t.callCore(minnum, fpTy, lhs, rhs)

	t.push(t.cur.NewSelect(ueq, t.cur.NewSelect(uno, addFp, orFp), minFp))
}

// compileFloatMax mirrors compileFloatMin with bit-and for the signed-zero
// rule.
func (t *funcTranslator) compileFloatMax(fpTy *types.FloatType, intTy *types.IntType, maxnum string) {
	rhs, lhs := t.pop(), t.pop()

	ueq := t.cur.NewFCmp(enum.FPredUEQ, lhs, rhs)
	uno := t.cur.NewFCmp(enum.FPredUNO, lhs, rhs)

	lhsInt := t.cur.NewBitCast(lhs, intTy)
	rhsInt := t.cur.NewBitCast(rhs, intTy)
	andFp := t.cur.NewBitCast(t.cur.NewAnd(lhsInt, rhsInt), fpTy)

	addFp := t.cur.NewFAdd(lhs, rhs)
	maxFp := t.callCore(maxnum, fpTy, lhs, rhs)

	t.push(t.cur.NewSelect(ueq, t.cur.NewSelect(uno, addFp, andFp), maxFp))
}

// compileNearest rounds to even: SSE4.1 roundss/roundsd with mode 8 when the
// host has SSE4.1, else NEON frintn, else the llvm.roundeven intrinsic.
// nearbyint is never emitted.
func (t *funcTranslator) compileNearest(fpTy *types.FloatType) {
	c := t.ctx
	isFloat := fpTy == c.floatTy
	v := t.pop()

	switch {
	case c.features.SSE41:
		vecSize := uint64(2)
		name := "llvm.x86.sse41.round.sd"
		if isFloat {
			vecSize = 4
			name = "llvm.x86.sse41.round.ss"
		}
		vecTy := types.NewVector(vecSize, fpTy)
		var vec value.Value = constant.NewUndef(vecTy)
		vec = t.cur.NewInsertElement(vec, v, constant.NewInt(c.int64Ty, 0))
		rounded := t.callCore(name, vecTy, vec, vec, constant.NewInt(c.int32Ty, 8))
		t.push(t.cur.NewExtractElement(rounded, constant.NewInt(c.int64Ty, 0)))

	case c.features.NEON:
		vecSize := uint64(2)
		name := "llvm.aarch64.neon.frintn.v2f64"
		if isFloat {
			vecSize = 4
			name = "llvm.aarch64.neon.frintn.v4f32"
		}
		vecTy := types.NewVector(vecSize, fpTy)
		var vec value.Value = constant.NewUndef(vecTy)
		vec = t.cur.NewInsertElement(vec, v, constant.NewInt(c.int64Ty, 0))
		rounded := t.callCore(name, vecTy, vec)
		t.push(t.cur.NewExtractElement(rounded, constant.NewInt(c.int64Ty, 0)))

	default:
		name := "llvm.roundeven.f64"
		if isFloat {
			name = "llvm.roundeven.f32"
		}
		t.push(t.callCore(name, fpTy, v))
	}
}

// truncBounds returns whether the integer range is exactly representable in
// the float type and the float constants bounding the conversion.
func truncBounds(intTy *types.IntType, fpTy *types.FloatType, signed bool) (precise bool, min, max float64) {
	mantissa := 52
	if fpTy.Kind == types.FloatKindFloat {
		mantissa = 23
	}
	bits := int(intTy.BitSize)
	precise = bits <= mantissa

	if signed {
		switch bits {
		case 32:
			return precise, math.MinInt32, math.MaxInt32
		default:
			return precise, math.MinInt64, math.MaxInt64
		}
	}
	switch bits {
	case 32:
		return precise, 0, math.MaxUint32
	default:
		return precise, 0, math.MaxUint64
	}
}

// compileSignedTrunc lowers trapping float-to-signed-int truncation: NaN
// traps with invalid conversion, out-of-range traps with integer overflow.
func (t *funcTranslator) compileSignedTrunc(intTy *types.IntType) {
	c := t.ctx
	v := t.pop()
	fpTy := v.Type().(*types.FloatType)
	precise, minF, maxF := truncBounds(intTy, fpTy, true)
	minFp := constant.NewFloat(fpTy, minF)
	maxFp := constant.NewFloat(fpTy, maxF)

	normBB := t.newBlock("strunc_norm")
	notMinBB := t.newBlock("strunc_notmin")
	notMaxBB := t.newBlock("strunc_notmax")

	notNan := c.likely(t.cur, t.cur.NewFCmp(enum.FPredORD, v, v))
	t.cur.NewCondBr(notNan, normBB, t.getTrapBlock(ErrInvalidConvToInt))
	t.cur = normBB

	truncName := "llvm.trunc.f64"
	if fpTy.Kind == types.FloatKindFloat {
		truncName = "llvm.trunc.f32"
	}
	trunc := t.callCore(truncName, fpTy, v)
	notUnderflow := c.likely(t.cur, t.cur.NewFCmp(enum.FPredOGE, trunc, minFp))
	t.cur.NewCondBr(notUnderflow, notMinBB, t.getTrapBlock(ErrIntegerOverflow))
	t.cur = notMinBB

	pred := enum.FPredOLT
	if precise {
		pred = enum.FPredOLE
	}
	notOverflow := c.likely(t.cur, t.cur.NewFCmp(pred, trunc, maxFp))
	t.cur.NewCondBr(notOverflow, notMaxBB, t.getTrapBlock(ErrIntegerOverflow))
	t.cur = notMaxBB

	t.push(t.cur.NewFPToSI(trunc, intTy))
}

func (t *funcTranslator) compileUnsignedTrunc(intTy *types.IntType) {
	c := t.ctx
	v := t.pop()
	fpTy := v.Type().(*types.FloatType)
	precise, minF, maxF := truncBounds(intTy, fpTy, false)
	minFp := constant.NewFloat(fpTy, minF)
	maxFp := constant.NewFloat(fpTy, maxF)

	normBB := t.newBlock("utrunc_norm")
	notMinBB := t.newBlock("utrunc_notmin")
	notMaxBB := t.newBlock("utrunc_notmax")

	notNan := c.likely(t.cur, t.cur.NewFCmp(enum.FPredORD, v, v))
	t.cur.NewCondBr(notNan, normBB, t.getTrapBlock(ErrInvalidConvToInt))
	t.cur = normBB

	truncName := "llvm.trunc.f64"
	if fpTy.Kind == types.FloatKindFloat {
		truncName = "llvm.trunc.f32"
	}
	trunc := t.callCore(truncName, fpTy, v)
	notUnderflow := c.likely(t.cur, t.cur.NewFCmp(enum.FPredOGE, trunc, minFp))
	t.cur.NewCondBr(notUnderflow, notMinBB, t.getTrapBlock(ErrIntegerOverflow))
	t.cur = notMinBB

	pred := enum.FPredOLT
	if precise {
		pred = enum.FPredOLE
	}
	notOverflow := c.likely(t.cur, t.cur.NewFCmp(pred, trunc, maxFp))
	t.cur.NewCondBr(notOverflow, notMaxBB, t.getTrapBlock(ErrIntegerOverflow))
	t.cur = notMaxBB

	t.push(t.cur.NewFPToUI(trunc, intTy))
}

// compileSignedTruncSat follows the same comparisons as the trapping form
// but produces zero, min, or max instead of trapping.
func (t *funcTranslator) compileSignedTruncSat(intTy *types.IntType) {
	c := t.ctx
	v := t.pop()
	fpTy := v.Type().(*types.FloatType)
	precise, minF, maxF := truncBounds(intTy, fpTy, true)
	minFp := constant.NewFloat(fpTy, minF)
	maxFp := constant.NewFloat(fpTy, maxF)
	minInt := constant.NewInt(intTy, int64(minF))
	var maxInt constant.Constant
	if intTy.BitSize == 32 {
		maxInt = constant.NewInt(intTy, math.MaxInt32)
	} else {
		maxInt = constant.NewInt(intTy, math.MaxInt64)
	}

	currBB := t.cur
	normBB := t.newBlock("ssat_norm")
	notMinBB := t.newBlock("ssat_notmin")
	notMaxBB := t.newBlock("ssat_notmax")
	endBB := t.newBlock("ssat_end")

	notNan := c.likely(t.cur, t.cur.NewFCmp(enum.FPredORD, v, v))
	t.cur.NewCondBr(notNan, normBB, endBB)
	t.cur = normBB

	truncName := "llvm.trunc.f64"
	if fpTy.Kind == types.FloatKindFloat {
		truncName = "llvm.trunc.f32"
	}
	trunc := t.callCore(truncName, fpTy, v)
	notUnderflow := c.likely(t.cur, t.cur.NewFCmp(enum.FPredOGE, trunc, minFp))
	t.cur.NewCondBr(notUnderflow, notMinBB, endBB)
	t.cur = notMinBB

	pred := enum.FPredOLT
	if precise {
		pred = enum.FPredOLE
	}
	notOverflow := c.likely(t.cur, t.cur.NewFCmp(pred, trunc, maxFp))
	t.cur.NewCondBr(notOverflow, notMaxBB, endBB)
	t.cur = notMaxBB

	converted := t.cur.NewFPToSI(trunc, intTy)
	t.cur.NewBr(endBB)

	t.cur = endBB
	phi := t.cur.NewPhi(
		ir.NewIncoming(constant.NewInt(intTy, 0), currBB),
		ir.NewIncoming(minInt, normBB),
		ir.NewIncoming(maxInt, notMinBB),
		ir.NewIncoming(converted, notMaxBB),
	)
	t.push(phi)
}

func (t *funcTranslator) compileUnsignedTruncSat(intTy *types.IntType) {
	c := t.ctx
	v := t.pop()
	fpTy := v.Type().(*types.FloatType)
	precise, minF, maxF := truncBounds(intTy, fpTy, false)
	minFp := constant.NewFloat(fpTy, minF)
	maxFp := constant.NewFloat(fpTy, maxF)
	var maxInt constant.Constant
	if intTy.BitSize == 32 {
		maxInt = constant.NewInt(intTy, int64(math.MaxUint32))
	} else {
		maxInt = constant.NewInt(intTy, -1) // all ones
	}

	currBB := t.cur
	normBB := t.newBlock("usat_norm")
	notMaxBB := t.newBlock("usat_notmax")
	endBB := t.newBlock("usat_end")

	truncName := "llvm.trunc.f64"
	if fpTy.Kind == types.FloatKindFloat {
		truncName = "llvm.trunc.f32"
	}
	trunc := t.callCore(truncName, fpTy, v)
	notUnderflow := c.likely(t.cur, t.cur.NewFCmp(enum.FPredOGE, trunc, minFp))
	t.cur.NewCondBr(notUnderflow, normBB, endBB)
	t.cur = normBB

	pred := enum.FPredOLT
	if precise {
		pred = enum.FPredOLE
	}
	notOverflow := c.likely(t.cur, t.cur.NewFCmp(pred, trunc, maxFp))
	t.cur.NewCondBr(notOverflow, notMaxBB, endBB)
	t.cur = notMaxBB

	converted := t.cur.NewFPToUI(trunc, intTy)
	t.cur.NewBr(endBB)

	t.cur = endBB
	phi := t.cur.NewPhi(
		ir.NewIncoming(constant.NewInt(intTy, 0), currBB),
		ir.NewIncoming(maxInt, normBB),
		ir.NewIncoming(converted, notMaxBB),
	)
	t.push(phi)
}
