package aot

import (
	"encoding/binary"

	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

// Vector stack values are canonically <2 x i64>; each operator reshapes to
// its lane type and reshapes back.

// vectorOp applies fn to the top of stack viewed as vecTy.
func (t *funcTranslator) vectorOp(vecTy *types.VectorType, fn func(v value.Value) value.Value) {
	v := t.bitCast(t.top(), vecTy)
	t.setTop(t.bitCast(fn(v), t.ctx.int64x2Ty))
}

// vectorBinOp applies fn to the top two stack values viewed as vecTy.
func (t *funcTranslator) vectorBinOp(vecTy *types.VectorType, fn func(lhs, rhs value.Value) value.Value) {
	rhs := t.bitCast(t.pop(), vecTy)
	lhs := t.bitCast(t.pop(), vecTy)
	t.push(t.bitCast(fn(lhs, rhs), t.ctx.int64x2Ty))
}

// splatZeroMask returns the <n x i32> zero shuffle mask used to replicate
// lane 0.
func splatZeroMask(n uint64) constant.Constant {
	maskTy := types.NewVector(n, types.I32)
	elems := make([]constant.Constant, n)
	for i := range elems {
		elems[i] = constant.NewInt(types.I32, 0)
	}
	return constant.NewVector(maskTy, elems...)
}

// shuffleMask builds a constant <n x i32> mask from lane indices.
func shuffleMask(lanes []int64) constant.Constant {
	maskTy := types.NewVector(uint64(len(lanes)), types.I32)
	elems := make([]constant.Constant, len(lanes))
	for i, l := range lanes {
		elems[i] = constant.NewInt(types.I32, l)
	}
	return constant.NewVector(maskTy, elems...)
}

// vectorSplat replicates a scalar into every lane of vecTy.
func (t *funcTranslator) vectorSplat(vecTy *types.VectorType, v value.Value) value.Value {
	var vec value.Value = constant.NewUndef(vecTy)
	vec = t.cur.NewInsertElement(vec, v, constant.NewInt(t.ctx.int64Ty, 0))
	return t.cur.NewShuffleVector(vec, constant.NewUndef(vecTy), splatZeroMask(vecTy.Len))
}

// compileSplat truncates the scalar to the lane type and replicates it.
func (t *funcTranslator) compileSplat(vecTy *types.VectorType) {
	elemTy := vecTy.ElemType
	v := t.pop()
	if _, ok := elemTy.(*types.IntType); ok {
		v = t.truncTo(v, elemTy.(*types.IntType))
	}
	t.push(t.bitCast(t.vectorSplat(vecTy, v), t.ctx.int64x2Ty))
}

func (t *funcTranslator) compileExtractLane(vecTy *types.VectorType, lane byte, extendTy *types.IntType, signed bool) {
	v := t.bitCast(t.pop(), vecTy)
	elem := t.cur.NewExtractElement(v, constant.NewInt(t.ctx.int64Ty, int64(lane)))
	if extendTy != nil {
		if signed {
			t.push(t.cur.NewSExt(elem, extendTy))
		} else {
			t.push(t.cur.NewZExt(elem, extendTy))
		}
		return
	}
	t.push(elem)
}

func (t *funcTranslator) compileReplaceLane(vecTy *types.VectorType, lane byte) {
	v := t.pop()
	if it, ok := vecTy.ElemType.(*types.IntType); ok {
		v = t.truncTo(v, it)
	}
	vec := t.bitCast(t.pop(), vecTy)
	res := t.cur.NewInsertElement(vec, v, constant.NewInt(t.ctx.int64Ty, int64(lane)))
	t.push(t.bitCast(res, t.ctx.int64x2Ty))
}

// compileVectorIntCmp produces a signed all-ones mask per lane.
func (t *funcTranslator) compileVectorIntCmp(vecTy *types.VectorType, pred enum.IPred) {
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		return t.cur.NewSExt(t.cur.NewICmp(pred, lhs, rhs), vecTy)
	})
}

func (t *funcTranslator) compileVectorFloatCmp(vecTy *types.VectorType, pred enum.FPred, resultTy *types.VectorType) {
	rhs := t.bitCast(t.pop(), vecTy)
	lhs := t.bitCast(t.pop(), vecTy)
	mask := t.cur.NewSExt(t.cur.NewFCmp(pred, lhs, rhs), resultTy)
	t.push(t.bitCast(mask, t.ctx.int64x2Ty))
}

// compileVectorShift masks the scalar amount modulo the lane width, splats
// it, and applies the shift.
func (t *funcTranslator) compileVectorShift(vecTy *types.VectorType, emit func(lhs, rhs value.Value) value.Value) {
	c := t.ctx
	elemTy := vecTy.ElemType.(*types.IntType)
	amount := t.cur.NewAnd(t.pop(), constant.NewInt(c.int32Ty, int64(elemTy.BitSize-1)))
	var lane value.Value
	if elemTy.BitSize < 32 {
		lane = t.cur.NewTrunc(amount, elemTy)
	} else if elemTy.BitSize > 32 {
		lane = t.cur.NewZExt(amount, elemTy)
	} else {
		lane = amount
	}
	splat := t.vectorSplat(vecTy, lane)
	v := t.bitCast(t.pop(), vecTy)
	t.push(t.bitCast(emit(v, splat), c.int64x2Ty))
}

// vectorSuffix returns the intrinsic type suffix (v16i8, v4f32, ...) for vecTy.
func vectorSuffix(vecTy *types.VectorType) string {
	switch elem := vecTy.ElemType.(type) {
	case *types.IntType:
		switch elem.BitSize {
		case 8:
			return "v16i8"
		case 16:
			return "v8i16"
		case 32:
			return "v4i32"
		default:
			return "v2i64"
		}
	case *types.FloatType:
		if elem.Kind == types.FloatKindFloat {
			return "v4f32"
		}
		return "v2f64"
	}
	return ""
}

// compileVectorAbs lowers integer lane abs with a compare-and-negate
// select.
func (t *funcTranslator) compileVectorAbs(vecTy *types.VectorType) {
	t.vectorOp(vecTy, func(v value.Value) value.Value {
		zero := constant.NewZeroInitializer(vecTy)
		neg := t.cur.NewSub(zero, v)
		isNeg := t.cur.NewICmp(enum.IPredSLT, v, zero)
		return t.cur.NewSelect(isNeg, neg, v)
	})
}

// compileVectorAvgr lowers the unsigned rounding average, preferring the
// SSE2 pavg instructions.
func (t *funcTranslator) compileVectorAvgr(vecTy *types.VectorType) {
	c := t.ctx
	elemTy := vecTy.ElemType.(*types.IntType)
	if c.features.SSE2 && elemTy.BitSize == 8 {
		t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.x86.sse2.pavg.b", vecTy, lhs, rhs)
		})
		return
	}
	if c.features.SSE2 && elemTy.BitSize == 16 {
		t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.x86.sse2.pavg.w", vecTy, lhs, rhs)
		})
		return
	}
	// Portable: widen, add, round up, shift back.
	extTy := types.NewVector(vecTy.Len, types.NewInt(elemTy.BitSize*2))
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		el := t.cur.NewZExt(lhs, extTy)
		er := t.cur.NewZExt(rhs, extTy)
		one := t.vectorSplatConst(extTy, 1)
		sum := t.cur.NewAdd(t.cur.NewAdd(el, er), one)
		return t.cur.NewTrunc(t.cur.NewLShr(sum, one), vecTy)
	})
}

// vectorSplatConst builds a constant vector with every lane set to v.
func (t *funcTranslator) vectorSplatConst(vecTy *types.VectorType, v int64) constant.Constant {
	elems := make([]constant.Constant, vecTy.Len)
	for i := range elems {
		elems[i] = constant.NewInt(vecTy.ElemType.(*types.IntType), v)
	}
	return constant.NewVector(vecTy, elems...)
}

// compileVectorSatArith lowers saturating add/sub through the generic
// saturating intrinsics.
func (t *funcTranslator) compileVectorSatArith(vecTy *types.VectorType, name string) {
	full := "llvm." + name + ".sat." + vectorSuffix(vecTy)
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		return t.callCore(full, vecTy, lhs, rhs)
	})
}

// compileVectorMinMax lowers integer lane min/max with compare-select.
func (t *funcTranslator) compileVectorMinMax(vecTy *types.VectorType, pred enum.IPred) {
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		cond := t.cur.NewICmp(pred, lhs, rhs)
		return t.cur.NewSelect(cond, lhs, rhs)
	})
}

// extendHalf shuffles the requested half of the vector and extends it.
func (t *funcTranslator) extendHalf(srcTy, dstTy *types.VectorType, v value.Value, high, signed bool) value.Value {
	n := dstTy.Len
	lanes := make([]int64, n)
	for i := uint64(0); i < n; i++ {
		if high {
			lanes[i] = int64(n + i)
		} else {
			lanes[i] = int64(i)
		}
	}
	half := t.cur.NewShuffleVector(v, constant.NewUndef(srcTy), shuffleMask(lanes))
	if signed {
		return t.cur.NewSExt(half, dstTy)
	}
	return t.cur.NewZExt(half, dstTy)
}

func (t *funcTranslator) compileVectorExtend(srcTy, dstTy *types.VectorType, high, signed bool) {
	t.vectorOp(srcTy, func(v value.Value) value.Value {
		return t.extendHalf(srcTy, dstTy, v, high, signed)
	})
}

func (t *funcTranslator) compileVectorExtMul(srcTy, dstTy *types.VectorType, high, signed bool) {
	rhs := t.bitCast(t.pop(), srcTy)
	lhs := t.bitCast(t.pop(), srcTy)
	el := t.extendHalf(srcTy, dstTy, lhs, high, signed)
	er := t.extendHalf(srcTy, dstTy, rhs, high, signed)
	t.push(t.bitCast(t.cur.NewMul(el, er), t.ctx.int64x2Ty))
}

// compileVectorExtAddPairwise adds adjacent lane pairs into the wider lane
// type.
func (t *funcTranslator) compileVectorExtAddPairwise(srcTy, dstTy *types.VectorType, signed bool) {
	t.vectorOp(srcTy, func(v value.Value) value.Value {
		n := dstTy.Len
		even := make([]int64, n)
		odd := make([]int64, n)
		for i := uint64(0); i < n; i++ {
			even[i] = int64(2 * i)
			odd[i] = int64(2*i + 1)
		}
		undef := constant.NewUndef(srcTy)
		evenHalf := t.cur.NewShuffleVector(v, undef, shuffleMask(even))
		oddHalf := t.cur.NewShuffleVector(v, undef, shuffleMask(odd))
		var ee, eo value.Value
		if signed {
			ee = t.cur.NewSExt(evenHalf, dstTy)
			eo = t.cur.NewSExt(oddHalf, dstTy)
		} else {
			ee = t.cur.NewZExt(evenHalf, dstTy)
			eo = t.cur.NewZExt(oddHalf, dstTy)
		}
		return t.cur.NewAdd(ee, eo)
	})
}

// compileVectorNarrow clamps both inputs to the narrow range and packs
// them into one vector.
func (t *funcTranslator) compileVectorNarrow(srcTy, dstTy *types.VectorType, signed bool) {
	c := t.ctx
	var minV, maxV int64
	if dstTy.ElemType.(*types.IntType).BitSize == 8 {
		if signed {
			minV, maxV = -128, 127
		} else {
			minV, maxV = 0, 255
		}
	} else {
		if signed {
			minV, maxV = -32768, 32767
		} else {
			minV, maxV = 0, 65535
		}
	}
	minC := t.vectorSplatConst(srcTy, minV)
	maxC := t.vectorSplatConst(srcTy, maxV)

	clamp := func(v value.Value) value.Value {
		overMin := t.cur.NewSelect(t.cur.NewICmp(enum.IPredSGT, v, minC), v, minC)
		return t.cur.NewSelect(t.cur.NewICmp(enum.IPredSLT, overMin, maxC), overMin, maxC)
	}

	rhs := t.bitCast(t.pop(), srcTy)
	lhs := t.bitCast(t.pop(), srcTy)
	halfTy := types.NewVector(srcTy.Len, dstTy.ElemType)
	lo := t.cur.NewTrunc(clamp(lhs), halfTy)
	hi := t.cur.NewTrunc(clamp(rhs), halfTy)

	lanes := make([]int64, dstTy.Len)
	for i := range lanes {
		lanes[i] = int64(i)
	}
	packed := t.cur.NewShuffleVector(lo, hi, shuffleMask(lanes))
	t.push(t.bitCast(packed, c.int64x2Ty))
}

// compileVectorQ15MulrSat lowers i16x8.q15mulr_sat_s, preferring the SSSE3
// pmulhrsw instruction.
func (t *funcTranslator) compileVectorQ15MulrSat() {
	c := t.ctx
	if c.features.SSSE3 {
		t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			// pmulhrsw matches q15mulr except for the single overflow case
			// 0x8000 * 0x8000, clamped afterwards.
			mul := t.callCore("llvm.x86.ssse3.pmul.hr.sw.128", c.int16x8Ty, lhs, rhs)
			minInt := t.vectorSplatConst(c.int16x8Ty, -32768)
			overflow := t.cur.NewAnd(
				t.cur.NewICmp(enum.IPredEQ, lhs, minInt),
				t.cur.NewICmp(enum.IPredEQ, rhs, minInt))
			maxInt := t.vectorSplatConst(c.int16x8Ty, 32767)
			return t.cur.NewSelect(overflow, maxInt, mul)
		})
		return
	}
	extTy := types.NewVector(8, c.int32Ty)
	t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
		el := t.cur.NewSExt(lhs, extTy)
		er := t.cur.NewSExt(rhs, extTy)
		mul := t.cur.NewMul(el, er)
		rounded := t.cur.NewAShr(
			t.cur.NewAdd(mul, t.vectorSplatConst(extTy, 0x4000)),
			t.vectorSplatConst(extTy, 15))
		maxC := t.vectorSplatConst(extTy, 32767)
		clamped := t.cur.NewSelect(t.cur.NewICmp(enum.IPredSLT, rounded, maxC), rounded, maxC)
		return t.cur.NewTrunc(clamped, c.int16x8Ty)
	})
}

// compileVectorDot lowers i32x4.dot_i16x8_s, preferring SSE2 pmaddwd.
func (t *funcTranslator) compileVectorDot() {
	c := t.ctx
	if c.features.SSE2 {
		t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.x86.sse2.pmadd.wd", c.int32x4Ty, lhs, rhs)
		})
		return
	}
	extTy := types.NewVector(8, c.int32Ty)
	t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
		el := t.cur.NewSExt(lhs, extTy)
		er := t.cur.NewSExt(rhs, extTy)
		mul := t.cur.NewMul(el, er)
		even := make([]int64, 4)
		odd := make([]int64, 4)
		for i := 0; i < 4; i++ {
			even[i] = int64(2 * i)
			odd[i] = int64(2*i + 1)
		}
		undef := constant.NewUndef(extTy)
		e := t.cur.NewShuffleVector(mul, undef, shuffleMask(even))
		o := t.cur.NewShuffleVector(mul, undef, shuffleMask(odd))
		return t.cur.NewAdd(e, o)
	})
}

// compileVectorSwizzle selects bytes of the first operand by the indices in
// the second; out-of-range indices produce zero. SSSE3 pshufb handles the
// tail directly because indices with bit 7 set already produce zero.
func (t *funcTranslator) compileVectorSwizzle() {
	c := t.ctx
	if c.features.SSSE3 {
		t.vectorBinOp(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			// Saturate indices >= 16 so bit 7 is set for every out-of-range
			// index before pshufb.
			limit := t.vectorSplatConst(c.int8x16Ty, 0x70)
			idx := t.callCore("llvm.uadd.sat.v16i8", c.int8x16Ty, rhs, limit)
			return t.callCore("llvm.x86.ssse3.pshuf.b.128", c.int8x16Ty, lhs, idx)
		})
		return
	}
	t.vectorBinOp(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
		var out value.Value = constant.NewZeroInitializer(c.int8x16Ty)
		sixteen := t.vectorSplatConst(c.int8x16Ty, 16)
		inRange := t.cur.NewICmp(enum.IPredULT, rhs, sixteen)
		masked := t.cur.NewAnd(rhs, t.vectorSplatConst(c.int8x16Ty, 15))
		for i := int64(0); i < 16; i++ {
			laneIdx := constant.NewInt(c.int64Ty, i)
			idx := t.cur.NewExtractElement(masked, laneIdx)
			v := t.cur.NewExtractElement(lhs, idx)
			ok := t.cur.NewExtractElement(inRange, laneIdx)
			sel := t.cur.NewSelect(ok, v, constant.NewInt(c.int8Ty, 0))
			out = t.cur.NewInsertElement(out, sel, laneIdx)
		}
		return out
	})
}

// compileVectorAnyTrue tests the whole 128 bits for a non-zero value.
func (t *funcTranslator) compileVectorAnyTrue() {
	c := t.ctx
	v := t.bitCast(t.pop(), c.int64x2Ty)
	whole := t.cur.NewBitCast(v, c.int128Ty)
	nz := t.cur.NewICmp(enum.IPredNE, whole, constant.NewInt(c.int128Ty, 0))
	t.push(t.boolToI32(nz))
}

// compileVectorAllTrue tests every lane for a non-zero value.
func (t *funcTranslator) compileVectorAllTrue(vecTy *types.VectorType) {
	v := t.bitCast(t.pop(), vecTy)
	zero := constant.NewZeroInitializer(vecTy)
	nz := t.cur.NewICmp(enum.IPredNE, v, zero)
	bitsTy := types.NewInt(vecTy.Len)
	bits := t.cur.NewBitCast(nz, bitsTy)
	all := t.cur.NewICmp(enum.IPredEQ, bits, constant.NewInt(bitsTy, -1))
	t.push(t.boolToI32(all))
}

// compileVectorBitmask collects the lane sign bits into an i32.
func (t *funcTranslator) compileVectorBitmask(vecTy *types.VectorType) {
	c := t.ctx
	v := t.bitCast(t.pop(), vecTy)
	zero := constant.NewZeroInitializer(vecTy)
	neg := t.cur.NewICmp(enum.IPredSLT, v, zero)
	bitsTy := types.NewInt(vecTy.Len)
	bits := t.cur.NewBitCast(neg, bitsTy)
	t.push(t.extendTo(bits, c.int32Ty, false))
}

// compileVectorFloatMinMax applies the scalar NaN and signed-zero rules
// lanewise.
func (t *funcTranslator) compileVectorFloatMinMax(vecTy *types.VectorType, intVecTy *types.VectorType, isMin bool) {
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		ueq := t.cur.NewFCmp(enum.FPredUEQ, lhs, rhs)
		uno := t.cur.NewFCmp(enum.FPredUNO, lhs, rhs)

		lhsInt := t.cur.NewBitCast(lhs, intVecTy)
		rhsInt := t.cur.NewBitCast(rhs, intVecTy)
		var zeroFix value.Value
		if isMin {
			zeroFix = t.cur.NewBitCast(t.cur.NewOr(lhsInt, rhsInt), vecTy)
		} else {
			zeroFix = t.cur.NewBitCast(t.cur.NewAnd(lhsInt, rhsInt), vecTy)
		}

		addFp := t.cur.NewFAdd(lhs, rhs)
		name := "llvm.maxnum." + vectorSuffix(vecTy)
		if isMin {
			name = "llvm.minnum." + vectorSuffix(vecTy)
		}
		sel := t.callCore(name, vecTy, lhs, rhs)

		return t.cur.NewSelect(ueq, t.cur.NewSelect(uno, addFp, zeroFix), sel)
	})
}

// compileVectorPMinMax lowers pseudo-min/max: pmin is rhs < lhs ? rhs :
// lhs, pmax is lhs < rhs ? rhs : lhs.
func (t *funcTranslator) compileVectorPMinMax(vecTy *types.VectorType, isMin bool) {
	t.vectorBinOp(vecTy, func(lhs, rhs value.Value) value.Value {
		var cond value.Value
		if isMin {
			cond = t.cur.NewFCmp(enum.FPredOLT, rhs, lhs)
		} else {
			cond = t.cur.NewFCmp(enum.FPredOLT, lhs, rhs)
		}
		return t.cur.NewSelect(cond, rhs, lhs)
	})
}

// compileVectorNearest rounds lanes to even, through SSE4.1 round with mode
// 8, NEON frintn, or roundeven.
func (t *funcTranslator) compileVectorNearest(vecTy *types.VectorType) {
	c := t.ctx
	isFloat := vecTy.ElemType.(*types.FloatType).Kind == types.FloatKindFloat
	switch {
	case c.features.SSE41:
		name := "llvm.x86.sse41.round.pd"
		if isFloat {
			name = "llvm.x86.sse41.round.ps"
		}
		t.vectorOp(vecTy, func(v value.Value) value.Value {
			return t.callCore(name, vecTy, v, constant.NewInt(c.int32Ty, 8))
		})
	case c.features.NEON:
		name := "llvm.aarch64.neon.frintn." + vectorSuffix(vecTy)
		t.vectorOp(vecTy, func(v value.Value) value.Value {
			return t.callCore(name, vecTy, v)
		})
	default:
		name := "llvm.roundeven." + vectorSuffix(vecTy)
		t.vectorOp(vecTy, func(v value.Value) value.Value {
			return t.callCore(name, vecTy, v)
		})
	}
}

func (t *funcTranslator) compileSIMDOp(imm wasm.SIMDImm) error {
	c := t.ctx

	switch imm.SubOpcode {
	// Memory
	case wasm.SimdV128Load:
		t.compileLoad(*imm.MemArg, c.int64x2Ty, imm.MemArg.Align)
	case wasm.SimdV128Load8x8S:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(8, c.int8Ty), c.int16x8Ty, true)
	case wasm.SimdV128Load8x8U:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(8, c.int8Ty), c.int16x8Ty, false)
	case wasm.SimdV128Load16x4S:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(4, c.int16Ty), c.int32x4Ty, true)
	case wasm.SimdV128Load16x4U:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(4, c.int16Ty), c.int32x4Ty, false)
	case wasm.SimdV128Load32x2S:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(2, c.int32Ty), c.int64x2Ty, true)
	case wasm.SimdV128Load32x2U:
		t.compileVectorExtendLoad(*imm.MemArg, types.NewVector(2, c.int32Ty), c.int64x2Ty, false)
	case wasm.SimdV128Load8Splat:
		t.compileLoad(*imm.MemArg, c.int8Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.vectorSplat(c.int8x16Ty, t.top()), c.int64x2Ty))
	case wasm.SimdV128Load16Splat:
		t.compileLoad(*imm.MemArg, c.int16Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.vectorSplat(c.int16x8Ty, t.top()), c.int64x2Ty))
	case wasm.SimdV128Load32Splat:
		t.compileLoad(*imm.MemArg, c.int32Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.vectorSplat(c.int32x4Ty, t.top()), c.int64x2Ty))
	case wasm.SimdV128Load64Splat:
		t.compileLoad(*imm.MemArg, c.int64Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.vectorSplat(c.int64x2Ty, t.top()), c.int64x2Ty))
	case wasm.SimdV128Load32Zero:
		t.compileLoad(*imm.MemArg, c.int32Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.cur.NewZExt(t.top(), c.int128Ty), c.int64x2Ty))
	case wasm.SimdV128Load64Zero:
		t.compileLoad(*imm.MemArg, c.int64Ty, imm.MemArg.Align)
		t.setTop(t.bitCast(t.cur.NewZExt(t.top(), c.int128Ty), c.int64x2Ty))
	case wasm.SimdV128Store:
		t.compileStore(*imm.MemArg, c.int64x2Ty, imm.MemArg.Align, false, true)

	case wasm.SimdV128Load8Lane:
		t.compileLoadLane(*imm.MemArg, *imm.LaneIdx, c.int8Ty, c.int8x16Ty)
	case wasm.SimdV128Load16Lane:
		t.compileLoadLane(*imm.MemArg, *imm.LaneIdx, c.int16Ty, c.int16x8Ty)
	case wasm.SimdV128Load32Lane:
		t.compileLoadLane(*imm.MemArg, *imm.LaneIdx, c.int32Ty, c.int32x4Ty)
	case wasm.SimdV128Load64Lane:
		t.compileLoadLane(*imm.MemArg, *imm.LaneIdx, c.int64Ty, c.int64x2Ty)
	case wasm.SimdV128Store8Lane:
		t.compileStoreLane(*imm.MemArg, *imm.LaneIdx, c.int8Ty, c.int8x16Ty)
	case wasm.SimdV128Store16Lane:
		t.compileStoreLane(*imm.MemArg, *imm.LaneIdx, c.int16Ty, c.int16x8Ty)
	case wasm.SimdV128Store32Lane:
		t.compileStoreLane(*imm.MemArg, *imm.LaneIdx, c.int32Ty, c.int32x4Ty)
	case wasm.SimdV128Store64Lane:
		t.compileStoreLane(*imm.MemArg, *imm.LaneIdx, c.int64Ty, c.int64x2Ty)

	// Constants and shuffles
	case wasm.SimdV128Const:
		lo := binary.LittleEndian.Uint64(imm.V128Bytes[:8])
		hi := binary.LittleEndian.Uint64(imm.V128Bytes[8:])
		t.push(c.constRef(lo, hi))

	case wasm.SimdI8x16Shuffle:
		rhs := t.bitCast(t.pop(), c.int8x16Ty)
		lhs := t.bitCast(t.pop(), c.int8x16Ty)
		lanes := make([]int64, 16)
		for i, b := range imm.V128Bytes {
			lanes[i] = int64(b)
		}
		t.push(t.bitCast(t.cur.NewShuffleVector(lhs, rhs, shuffleMask(lanes)), c.int64x2Ty))

	case wasm.SimdI8x16Swizzle, wasm.SimdI8x16RelaxedSwizzle:
		t.compileVectorSwizzle()

	// Splats
	case wasm.SimdI8x16Splat:
		t.compileSplat(c.int8x16Ty)
	case wasm.SimdI16x8Splat:
		t.compileSplat(c.int16x8Ty)
	case wasm.SimdI32x4Splat:
		t.compileSplat(c.int32x4Ty)
	case wasm.SimdI64x2Splat:
		t.compileSplat(c.int64x2Ty)
	case wasm.SimdF32x4Splat:
		t.compileSplat(c.floatx4Ty)
	case wasm.SimdF64x2Splat:
		t.compileSplat(c.doublex2Ty)

	// Lane access
	case wasm.SimdI8x16ExtractLaneS:
		t.compileExtractLane(c.int8x16Ty, *imm.LaneIdx, c.int32Ty, true)
	case wasm.SimdI8x16ExtractLaneU:
		t.compileExtractLane(c.int8x16Ty, *imm.LaneIdx, c.int32Ty, false)
	case wasm.SimdI16x8ExtractLaneS:
		t.compileExtractLane(c.int16x8Ty, *imm.LaneIdx, c.int32Ty, true)
	case wasm.SimdI16x8ExtractLaneU:
		t.compileExtractLane(c.int16x8Ty, *imm.LaneIdx, c.int32Ty, false)
	case wasm.SimdI32x4ExtractLane:
		t.compileExtractLane(c.int32x4Ty, *imm.LaneIdx, nil, false)
	case wasm.SimdI64x2ExtractLane:
		t.compileExtractLane(c.int64x2Ty, *imm.LaneIdx, nil, false)
	case wasm.SimdF32x4ExtractLane:
		t.compileExtractLane(c.floatx4Ty, *imm.LaneIdx, nil, false)
	case wasm.SimdF64x2ExtractLane:
		t.compileExtractLane(c.doublex2Ty, *imm.LaneIdx, nil, false)
	case wasm.SimdI8x16ReplaceLane:
		t.compileReplaceLane(c.int8x16Ty, *imm.LaneIdx)
	case wasm.SimdI16x8ReplaceLane:
		t.compileReplaceLane(c.int16x8Ty, *imm.LaneIdx)
	case wasm.SimdI32x4ReplaceLane:
		t.compileReplaceLane(c.int32x4Ty, *imm.LaneIdx)
	case wasm.SimdI64x2ReplaceLane:
		t.compileReplaceLane(c.int64x2Ty, *imm.LaneIdx)
	case wasm.SimdF32x4ReplaceLane:
		t.compileReplaceLane(c.floatx4Ty, *imm.LaneIdx)
	case wasm.SimdF64x2ReplaceLane:
		t.compileReplaceLane(c.doublex2Ty, *imm.LaneIdx)

	// Integer comparisons
	case wasm.SimdI8x16Eq:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredEQ)
	case wasm.SimdI8x16Ne:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredNE)
	case wasm.SimdI8x16LtS:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredSLT)
	case wasm.SimdI8x16LtU:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredULT)
	case wasm.SimdI8x16GtS:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredSGT)
	case wasm.SimdI8x16GtU:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredUGT)
	case wasm.SimdI8x16LeS:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredSLE)
	case wasm.SimdI8x16LeU:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredULE)
	case wasm.SimdI8x16GeS:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredSGE)
	case wasm.SimdI8x16GeU:
		t.compileVectorIntCmp(c.int8x16Ty, enum.IPredUGE)
	case wasm.SimdI16x8Eq:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredEQ)
	case wasm.SimdI16x8Ne:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredNE)
	case wasm.SimdI16x8LtS:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredSLT)
	case wasm.SimdI16x8LtU:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredULT)
	case wasm.SimdI16x8GtS:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredSGT)
	case wasm.SimdI16x8GtU:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredUGT)
	case wasm.SimdI16x8LeS:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredSLE)
	case wasm.SimdI16x8LeU:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredULE)
	case wasm.SimdI16x8GeS:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredSGE)
	case wasm.SimdI16x8GeU:
		t.compileVectorIntCmp(c.int16x8Ty, enum.IPredUGE)
	case wasm.SimdI32x4Eq:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredEQ)
	case wasm.SimdI32x4Ne:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredNE)
	case wasm.SimdI32x4LtS:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredSLT)
	case wasm.SimdI32x4LtU:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredULT)
	case wasm.SimdI32x4GtS:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredSGT)
	case wasm.SimdI32x4GtU:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredUGT)
	case wasm.SimdI32x4LeS:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredSLE)
	case wasm.SimdI32x4LeU:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredULE)
	case wasm.SimdI32x4GeS:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredSGE)
	case wasm.SimdI32x4GeU:
		t.compileVectorIntCmp(c.int32x4Ty, enum.IPredUGE)
	case wasm.SimdI64x2Eq:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredEQ)
	case wasm.SimdI64x2Ne:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredNE)
	case wasm.SimdI64x2LtS:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredSLT)
	case wasm.SimdI64x2GtS:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredSGT)
	case wasm.SimdI64x2LeS:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredSLE)
	case wasm.SimdI64x2GeS:
		t.compileVectorIntCmp(c.int64x2Ty, enum.IPredSGE)

	// Float comparisons
	case wasm.SimdF32x4Eq:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredOEQ, c.int32x4Ty)
	case wasm.SimdF32x4Ne:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredUNE, c.int32x4Ty)
	case wasm.SimdF32x4Lt:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredOLT, c.int32x4Ty)
	case wasm.SimdF32x4Gt:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredOGT, c.int32x4Ty)
	case wasm.SimdF32x4Le:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredOLE, c.int32x4Ty)
	case wasm.SimdF32x4Ge:
		t.compileVectorFloatCmp(c.floatx4Ty, enum.FPredOGE, c.int32x4Ty)
	case wasm.SimdF64x2Eq:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredOEQ, c.int64x2Ty)
	case wasm.SimdF64x2Ne:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredUNE, c.int64x2Ty)
	case wasm.SimdF64x2Lt:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredOLT, c.int64x2Ty)
	case wasm.SimdF64x2Gt:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredOGT, c.int64x2Ty)
	case wasm.SimdF64x2Le:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredOLE, c.int64x2Ty)
	case wasm.SimdF64x2Ge:
		t.compileVectorFloatCmp(c.doublex2Ty, enum.FPredOGE, c.int64x2Ty)

	// Bitwise
	case wasm.SimdV128Not:
		t.vectorOp(c.int64x2Ty, func(v value.Value) value.Value {
			return t.cur.NewXor(v, t.vectorSplatConst(c.int64x2Ty, -1))
		})
	case wasm.SimdV128And:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAnd(lhs, rhs)
		})
	case wasm.SimdV128AndNot:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAnd(lhs, t.cur.NewXor(rhs, t.vectorSplatConst(c.int64x2Ty, -1)))
		})
	case wasm.SimdV128Or:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewOr(lhs, rhs)
		})
	case wasm.SimdV128Xor:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewXor(lhs, rhs)
		})
	case wasm.SimdV128Bitselect:
		mask := t.bitCast(t.pop(), c.int64x2Ty)
		v2 := t.bitCast(t.pop(), c.int64x2Ty)
		v1 := t.bitCast(t.pop(), c.int64x2Ty)
		inv := t.cur.NewXor(mask, t.vectorSplatConst(c.int64x2Ty, -1))
		t.push(t.cur.NewOr(t.cur.NewAnd(v1, mask), t.cur.NewAnd(v2, inv)))
	case wasm.SimdV128AnyTrue:
		t.compileVectorAnyTrue()

	// Tests and masks
	case wasm.SimdI8x16AllTrue:
		t.compileVectorAllTrue(c.int8x16Ty)
	case wasm.SimdI16x8AllTrue:
		t.compileVectorAllTrue(c.int16x8Ty)
	case wasm.SimdI32x4AllTrue:
		t.compileVectorAllTrue(c.int32x4Ty)
	case wasm.SimdI64x2AllTrue:
		t.compileVectorAllTrue(c.int64x2Ty)
	case wasm.SimdI8x16Bitmask:
		t.compileVectorBitmask(c.int8x16Ty)
	case wasm.SimdI16x8Bitmask:
		t.compileVectorBitmask(c.int16x8Ty)
	case wasm.SimdI32x4Bitmask:
		t.compileVectorBitmask(c.int32x4Ty)
	case wasm.SimdI64x2Bitmask:
		t.compileVectorBitmask(c.int64x2Ty)

	// i8x16 arithmetic
	case wasm.SimdI8x16Abs:
		t.compileVectorAbs(c.int8x16Ty)
	case wasm.SimdI8x16Neg:
		t.vectorOp(c.int8x16Ty, func(v value.Value) value.Value {
			return t.cur.NewSub(constant.NewZeroInitializer(c.int8x16Ty), v)
		})
	case wasm.SimdI8x16Popcnt:
		t.vectorOp(c.int8x16Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.ctpop.v16i8", c.int8x16Ty, v)
		})
	case wasm.SimdI8x16NarrowI16x8S:
		t.compileVectorNarrow(c.int16x8Ty, c.int8x16Ty, true)
	case wasm.SimdI8x16NarrowI16x8U:
		t.compileVectorNarrow(c.int16x8Ty, c.int8x16Ty, false)
	case wasm.SimdI8x16Shl:
		t.compileVectorShift(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewShl(lhs, rhs)
		})
	case wasm.SimdI8x16ShrS:
		t.compileVectorShift(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAShr(lhs, rhs)
		})
	case wasm.SimdI8x16ShrU:
		t.compileVectorShift(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewLShr(lhs, rhs)
		})
	case wasm.SimdI8x16Add:
		t.vectorBinOp(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAdd(lhs, rhs)
		})
	case wasm.SimdI8x16AddSatS:
		t.compileVectorSatArith(c.int8x16Ty, "sadd")
	case wasm.SimdI8x16AddSatU:
		t.compileVectorSatArith(c.int8x16Ty, "uadd")
	case wasm.SimdI8x16Sub:
		t.vectorBinOp(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewSub(lhs, rhs)
		})
	case wasm.SimdI8x16SubSatS:
		t.compileVectorSatArith(c.int8x16Ty, "ssub")
	case wasm.SimdI8x16SubSatU:
		t.compileVectorSatArith(c.int8x16Ty, "usub")
	case wasm.SimdI8x16MinS:
		t.compileVectorMinMax(c.int8x16Ty, enum.IPredSLT)
	case wasm.SimdI8x16MinU:
		t.compileVectorMinMax(c.int8x16Ty, enum.IPredULT)
	case wasm.SimdI8x16MaxS:
		t.compileVectorMinMax(c.int8x16Ty, enum.IPredSGT)
	case wasm.SimdI8x16MaxU:
		t.compileVectorMinMax(c.int8x16Ty, enum.IPredUGT)
	case wasm.SimdI8x16AvgrU:
		t.compileVectorAvgr(c.int8x16Ty)

	// i16x8 arithmetic
	case wasm.SimdI16x8Abs:
		t.compileVectorAbs(c.int16x8Ty)
	case wasm.SimdI16x8Neg:
		t.vectorOp(c.int16x8Ty, func(v value.Value) value.Value {
			return t.cur.NewSub(constant.NewZeroInitializer(c.int16x8Ty), v)
		})
	case wasm.SimdI16x8Q15MulrSatS, wasm.SimdI16x8RelaxedQ15MulrS:
		t.compileVectorQ15MulrSat()
	case wasm.SimdI16x8NarrowI32x4S:
		t.compileVectorNarrow(c.int32x4Ty, c.int16x8Ty, true)
	case wasm.SimdI16x8NarrowI32x4U:
		t.compileVectorNarrow(c.int32x4Ty, c.int16x8Ty, false)
	case wasm.SimdI16x8ExtendLowS:
		t.compileVectorExtend(c.int8x16Ty, c.int16x8Ty, false, true)
	case wasm.SimdI16x8ExtendHighS:
		t.compileVectorExtend(c.int8x16Ty, c.int16x8Ty, true, true)
	case wasm.SimdI16x8ExtendLowU:
		t.compileVectorExtend(c.int8x16Ty, c.int16x8Ty, false, false)
	case wasm.SimdI16x8ExtendHighU:
		t.compileVectorExtend(c.int8x16Ty, c.int16x8Ty, true, false)
	case wasm.SimdI16x8Shl:
		t.compileVectorShift(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewShl(lhs, rhs)
		})
	case wasm.SimdI16x8ShrS:
		t.compileVectorShift(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAShr(lhs, rhs)
		})
	case wasm.SimdI16x8ShrU:
		t.compileVectorShift(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewLShr(lhs, rhs)
		})
	case wasm.SimdI16x8Add:
		t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAdd(lhs, rhs)
		})
	case wasm.SimdI16x8AddSatS:
		t.compileVectorSatArith(c.int16x8Ty, "sadd")
	case wasm.SimdI16x8AddSatU:
		t.compileVectorSatArith(c.int16x8Ty, "uadd")
	case wasm.SimdI16x8Sub:
		t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewSub(lhs, rhs)
		})
	case wasm.SimdI16x8SubSatS:
		t.compileVectorSatArith(c.int16x8Ty, "ssub")
	case wasm.SimdI16x8SubSatU:
		t.compileVectorSatArith(c.int16x8Ty, "usub")
	case wasm.SimdI16x8Mul:
		t.vectorBinOp(c.int16x8Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewMul(lhs, rhs)
		})
	case wasm.SimdI16x8MinS:
		t.compileVectorMinMax(c.int16x8Ty, enum.IPredSLT)
	case wasm.SimdI16x8MinU:
		t.compileVectorMinMax(c.int16x8Ty, enum.IPredULT)
	case wasm.SimdI16x8MaxS:
		t.compileVectorMinMax(c.int16x8Ty, enum.IPredSGT)
	case wasm.SimdI16x8MaxU:
		t.compileVectorMinMax(c.int16x8Ty, enum.IPredUGT)
	case wasm.SimdI16x8AvgrU:
		t.compileVectorAvgr(c.int16x8Ty)
	case wasm.SimdI16x8ExtAddPairwiseI8x16S:
		t.compileVectorExtAddPairwise(c.int8x16Ty, c.int16x8Ty, true)
	case wasm.SimdI16x8ExtAddPairwiseI8x16U:
		t.compileVectorExtAddPairwise(c.int8x16Ty, c.int16x8Ty, false)
	case wasm.SimdI16x8ExtMulLowS:
		t.compileVectorExtMul(c.int8x16Ty, c.int16x8Ty, false, true)
	case wasm.SimdI16x8ExtMulHighS:
		t.compileVectorExtMul(c.int8x16Ty, c.int16x8Ty, true, true)
	case wasm.SimdI16x8ExtMulLowU:
		t.compileVectorExtMul(c.int8x16Ty, c.int16x8Ty, false, false)
	case wasm.SimdI16x8ExtMulHighU:
		t.compileVectorExtMul(c.int8x16Ty, c.int16x8Ty, true, false)

	// i32x4 arithmetic
	case wasm.SimdI32x4Abs:
		t.compileVectorAbs(c.int32x4Ty)
	case wasm.SimdI32x4Neg:
		t.vectorOp(c.int32x4Ty, func(v value.Value) value.Value {
			return t.cur.NewSub(constant.NewZeroInitializer(c.int32x4Ty), v)
		})
	case wasm.SimdI32x4ExtendLowS:
		t.compileVectorExtend(c.int16x8Ty, c.int32x4Ty, false, true)
	case wasm.SimdI32x4ExtendHighS:
		t.compileVectorExtend(c.int16x8Ty, c.int32x4Ty, true, true)
	case wasm.SimdI32x4ExtendLowU:
		t.compileVectorExtend(c.int16x8Ty, c.int32x4Ty, false, false)
	case wasm.SimdI32x4ExtendHighU:
		t.compileVectorExtend(c.int16x8Ty, c.int32x4Ty, true, false)
	case wasm.SimdI32x4Shl:
		t.compileVectorShift(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewShl(lhs, rhs)
		})
	case wasm.SimdI32x4ShrS:
		t.compileVectorShift(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAShr(lhs, rhs)
		})
	case wasm.SimdI32x4ShrU:
		t.compileVectorShift(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewLShr(lhs, rhs)
		})
	case wasm.SimdI32x4Add:
		t.vectorBinOp(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAdd(lhs, rhs)
		})
	case wasm.SimdI32x4Sub:
		t.vectorBinOp(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewSub(lhs, rhs)
		})
	case wasm.SimdI32x4Mul:
		t.vectorBinOp(c.int32x4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewMul(lhs, rhs)
		})
	case wasm.SimdI32x4MinS:
		t.compileVectorMinMax(c.int32x4Ty, enum.IPredSLT)
	case wasm.SimdI32x4MinU:
		t.compileVectorMinMax(c.int32x4Ty, enum.IPredULT)
	case wasm.SimdI32x4MaxS:
		t.compileVectorMinMax(c.int32x4Ty, enum.IPredSGT)
	case wasm.SimdI32x4MaxU:
		t.compileVectorMinMax(c.int32x4Ty, enum.IPredUGT)
	case wasm.SimdI32x4DotI16x8S:
		t.compileVectorDot()
	case wasm.SimdI32x4ExtAddPairwiseI16x8S:
		t.compileVectorExtAddPairwise(c.int16x8Ty, c.int32x4Ty, true)
	case wasm.SimdI32x4ExtAddPairwiseI16x8U:
		t.compileVectorExtAddPairwise(c.int16x8Ty, c.int32x4Ty, false)
	case wasm.SimdI32x4ExtMulLowS:
		t.compileVectorExtMul(c.int16x8Ty, c.int32x4Ty, false, true)
	case wasm.SimdI32x4ExtMulHighS:
		t.compileVectorExtMul(c.int16x8Ty, c.int32x4Ty, true, true)
	case wasm.SimdI32x4ExtMulLowU:
		t.compileVectorExtMul(c.int16x8Ty, c.int32x4Ty, false, false)
	case wasm.SimdI32x4ExtMulHighU:
		t.compileVectorExtMul(c.int16x8Ty, c.int32x4Ty, true, false)

	// i64x2 arithmetic
	case wasm.SimdI64x2Abs:
		t.compileVectorAbs(c.int64x2Ty)
	case wasm.SimdI64x2Neg:
		t.vectorOp(c.int64x2Ty, func(v value.Value) value.Value {
			return t.cur.NewSub(constant.NewZeroInitializer(c.int64x2Ty), v)
		})
	case wasm.SimdI64x2ExtendLowS:
		t.compileVectorExtend(c.int32x4Ty, c.int64x2Ty, false, true)
	case wasm.SimdI64x2ExtendHighS:
		t.compileVectorExtend(c.int32x4Ty, c.int64x2Ty, true, true)
	case wasm.SimdI64x2ExtendLowU:
		t.compileVectorExtend(c.int32x4Ty, c.int64x2Ty, false, false)
	case wasm.SimdI64x2ExtendHighU:
		t.compileVectorExtend(c.int32x4Ty, c.int64x2Ty, true, false)
	case wasm.SimdI64x2Shl:
		t.compileVectorShift(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewShl(lhs, rhs)
		})
	case wasm.SimdI64x2ShrS:
		t.compileVectorShift(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAShr(lhs, rhs)
		})
	case wasm.SimdI64x2ShrU:
		t.compileVectorShift(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewLShr(lhs, rhs)
		})
	case wasm.SimdI64x2Add:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewAdd(lhs, rhs)
		})
	case wasm.SimdI64x2Sub:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewSub(lhs, rhs)
		})
	case wasm.SimdI64x2Mul:
		t.vectorBinOp(c.int64x2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewMul(lhs, rhs)
		})
	case wasm.SimdI64x2ExtMulLowS:
		t.compileVectorExtMul(c.int32x4Ty, c.int64x2Ty, false, true)
	case wasm.SimdI64x2ExtMulHighS:
		t.compileVectorExtMul(c.int32x4Ty, c.int64x2Ty, true, true)
	case wasm.SimdI64x2ExtMulLowU:
		t.compileVectorExtMul(c.int32x4Ty, c.int64x2Ty, false, false)
	case wasm.SimdI64x2ExtMulHighU:
		t.compileVectorExtMul(c.int32x4Ty, c.int64x2Ty, true, false)

	// f32x4 arithmetic
	case wasm.SimdF32x4Abs:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.fabs.v4f32", c.floatx4Ty, v)
		})
	case wasm.SimdF32x4Neg:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.cur.NewFNeg(v)
		})
	case wasm.SimdF32x4Sqrt:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.sqrt.v4f32", c.floatx4Ty, v)
		})
	case wasm.SimdF32x4Add:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFAdd(lhs, rhs)
		})
	case wasm.SimdF32x4Sub:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFSub(lhs, rhs)
		})
	case wasm.SimdF32x4Mul:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFMul(lhs, rhs)
		})
	case wasm.SimdF32x4Div:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFDiv(lhs, rhs)
		})
	case wasm.SimdF32x4Min:
		t.compileVectorFloatMinMax(c.floatx4Ty, c.int32x4Ty, true)
	case wasm.SimdF32x4Max:
		t.compileVectorFloatMinMax(c.floatx4Ty, c.int32x4Ty, false)
	case wasm.SimdF32x4PMin:
		t.compileVectorPMinMax(c.floatx4Ty, true)
	case wasm.SimdF32x4PMax:
		t.compileVectorPMinMax(c.floatx4Ty, false)
	case wasm.SimdF32x4Ceil:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.ceil.v4f32", c.floatx4Ty, v)
		})
	case wasm.SimdF32x4Floor:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.floor.v4f32", c.floatx4Ty, v)
		})
	case wasm.SimdF32x4Trunc:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.trunc.v4f32", c.floatx4Ty, v)
		})
	case wasm.SimdF32x4Nearest:
		t.compileVectorNearest(c.floatx4Ty)

	// f64x2 arithmetic
	case wasm.SimdF64x2Abs:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.fabs.v2f64", c.doublex2Ty, v)
		})
	case wasm.SimdF64x2Neg:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.cur.NewFNeg(v)
		})
	case wasm.SimdF64x2Sqrt:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.sqrt.v2f64", c.doublex2Ty, v)
		})
	case wasm.SimdF64x2Add:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFAdd(lhs, rhs)
		})
	case wasm.SimdF64x2Sub:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFSub(lhs, rhs)
		})
	case wasm.SimdF64x2Mul:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFMul(lhs, rhs)
		})
	case wasm.SimdF64x2Div:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.cur.NewFDiv(lhs, rhs)
		})
	case wasm.SimdF64x2Min:
		t.compileVectorFloatMinMax(c.doublex2Ty, c.int64x2Ty, true)
	case wasm.SimdF64x2Max:
		t.compileVectorFloatMinMax(c.doublex2Ty, c.int64x2Ty, false)
	case wasm.SimdF64x2PMin:
		t.compileVectorPMinMax(c.doublex2Ty, true)
	case wasm.SimdF64x2PMax:
		t.compileVectorPMinMax(c.doublex2Ty, false)
	case wasm.SimdF64x2Ceil:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.ceil.v2f64", c.doublex2Ty, v)
		})
	case wasm.SimdF64x2Floor:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.floor.v2f64", c.doublex2Ty, v)
		})
	case wasm.SimdF64x2Trunc:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.trunc.v2f64", c.doublex2Ty, v)
		})
	case wasm.SimdF64x2Nearest:
		t.compileVectorNearest(c.doublex2Ty)

	// Conversions
	case wasm.SimdI32x4TruncSatF32x4S, wasm.SimdI32x4RelaxedTruncF32x4S:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.fptosi.sat.v4i32.v4f32", c.int32x4Ty, v)
		})
	case wasm.SimdI32x4TruncSatF32x4U, wasm.SimdI32x4RelaxedTruncF32x4U:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			return t.callCore("llvm.fptoui.sat.v4i32.v4f32", c.int32x4Ty, v)
		})
	case wasm.SimdF32x4ConvertI32x4S:
		t.vectorOp(c.int32x4Ty, func(v value.Value) value.Value {
			return t.cur.NewSIToFP(v, c.floatx4Ty)
		})
	case wasm.SimdF32x4ConvertI32x4U:
		t.vectorOp(c.int32x4Ty, func(v value.Value) value.Value {
			return t.cur.NewUIToFP(v, c.floatx4Ty)
		})
	case wasm.SimdI32x4TruncSatF64x2SZero, wasm.SimdI32x4RelaxedTruncF64x2SZero:
		t.compileVectorTruncZero("llvm.fptosi.sat.v2i32.v2f64")
	case wasm.SimdI32x4TruncSatF64x2UZero, wasm.SimdI32x4RelaxedTruncF64x2UZero:
		t.compileVectorTruncZero("llvm.fptoui.sat.v2i32.v2f64")
	case wasm.SimdF64x2ConvertLowI32x4S:
		t.vectorOp(c.int32x4Ty, func(v value.Value) value.Value {
			low := t.cur.NewShuffleVector(v, constant.NewUndef(c.int32x4Ty), shuffleMask([]int64{0, 1}))
			return t.cur.NewSIToFP(low, c.doublex2Ty)
		})
	case wasm.SimdF64x2ConvertLowI32x4U:
		t.vectorOp(c.int32x4Ty, func(v value.Value) value.Value {
			low := t.cur.NewShuffleVector(v, constant.NewUndef(c.int32x4Ty), shuffleMask([]int64{0, 1}))
			return t.cur.NewUIToFP(low, c.doublex2Ty)
		})
	case wasm.SimdF32x4DemoteF64x2Zero:
		t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
			halfTy := types.NewVector(2, c.floatTy)
			demoted := t.cur.NewFPTrunc(v, halfTy)
			zero := constant.NewZeroInitializer(halfTy)
			return t.cur.NewShuffleVector(demoted, zero, shuffleMask([]int64{0, 1, 2, 3}))
		})
	case wasm.SimdF64x2PromoteLowF32x4:
		t.vectorOp(c.floatx4Ty, func(v value.Value) value.Value {
			low := t.cur.NewShuffleVector(v, constant.NewUndef(c.floatx4Ty), shuffleMask([]int64{0, 1}))
			return t.cur.NewFPExt(low, c.doublex2Ty)
		})

	// Relaxed SIMD: truncations reuse the strict saturating sequences, lane
	// selects lower to a bit select, the dot products to an exact signed
	// multiply and pairwise add; madd/nmadd lower to llvm.fma and min/max to
	// llvm.minnum/maxnum rather than the strict min/max lowering.
	case wasm.SimdF32x4RelaxedMadd:
		t.compileVectorFma(c.floatx4Ty, "llvm.fma.v4f32", false)
	case wasm.SimdF32x4RelaxedNmadd:
		t.compileVectorFma(c.floatx4Ty, "llvm.fma.v4f32", true)
	case wasm.SimdF64x2RelaxedMadd:
		t.compileVectorFma(c.doublex2Ty, "llvm.fma.v2f64", false)
	case wasm.SimdF64x2RelaxedNmadd:
		t.compileVectorFma(c.doublex2Ty, "llvm.fma.v2f64", true)
	case wasm.SimdI8x16RelaxedLaneselect, wasm.SimdI16x8RelaxedLaneselect,
		wasm.SimdI32x4RelaxedLaneselect, wasm.SimdI64x2RelaxedLaneselect:
		mask := t.bitCast(t.pop(), c.int64x2Ty)
		v2 := t.bitCast(t.pop(), c.int64x2Ty)
		v1 := t.bitCast(t.pop(), c.int64x2Ty)
		inv := t.cur.NewXor(mask, t.vectorSplatConst(c.int64x2Ty, -1))
		t.push(t.cur.NewOr(t.cur.NewAnd(v1, mask), t.cur.NewAnd(v2, inv)))
	case wasm.SimdF32x4RelaxedMin:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.minnum.v4f32", c.floatx4Ty, lhs, rhs)
		})
	case wasm.SimdF32x4RelaxedMax:
		t.vectorBinOp(c.floatx4Ty, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.maxnum.v4f32", c.floatx4Ty, lhs, rhs)
		})
	case wasm.SimdF64x2RelaxedMin:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.minnum.v2f64", c.doublex2Ty, lhs, rhs)
		})
	case wasm.SimdF64x2RelaxedMax:
		t.vectorBinOp(c.doublex2Ty, func(lhs, rhs value.Value) value.Value {
			return t.callCore("llvm.maxnum.v2f64", c.doublex2Ty, lhs, rhs)
		})
	case wasm.SimdI16x8RelaxedDotI8x16I7x16S:
		t.compileVectorRelaxedDot()
	case wasm.SimdI32x4RelaxedDotI8x16I7x16AddS:
		acc := t.pop()
		t.compileVectorRelaxedDot()
		dot := t.bitCast(t.pop(), c.int16x8Ty)
		t.push(t.bitCast(dot, c.int64x2Ty))
		t.compileVectorExtAddPairwise(c.int16x8Ty, c.int32x4Ty, true)
		sum := t.bitCast(t.pop(), c.int32x4Ty)
		t.push(t.bitCast(t.cur.NewAdd(sum, t.bitCast(acc, c.int32x4Ty)), c.int64x2Ty))

	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Detail("simd sub-opcode 0x%x", imm.SubOpcode).
			Build()
	}
	return nil
}

// compileVectorExtendLoad loads the narrow half vector and extends it.
func (t *funcTranslator) compileVectorExtendLoad(imm wasm.MemoryImm, loadTy, extendTy *types.VectorType, signed bool) {
	t.compileLoad(imm, loadTy, imm.Align)
	v := t.pop()
	if signed {
		t.push(t.bitCast(t.cur.NewSExt(v, extendTy), t.ctx.int64x2Ty))
	} else {
		t.push(t.bitCast(t.cur.NewZExt(v, extendTy), t.ctx.int64x2Ty))
	}
}

// compileLoadLane loads one scalar lane into an existing vector.
func (t *funcTranslator) compileLoadLane(imm wasm.MemoryImm, lane byte, loadTy types.Type, vecTy *types.VectorType) {
	c := t.ctx
	vec := t.pop()
	t.compileLoad(imm, loadTy, imm.Align)
	v := t.pop()
	res := t.cur.NewInsertElement(t.bitCast(vec, vecTy), v, constant.NewInt(c.int64Ty, int64(lane)))
	t.push(t.bitCast(res, c.int64x2Ty))
}

// compileStoreLane extracts one lane and stores it.
func (t *funcTranslator) compileStoreLane(imm wasm.MemoryImm, lane byte, storeTy types.Type, vecTy *types.VectorType) {
	c := t.ctx
	vec := t.bitCast(t.top(), vecTy)
	t.setTop(t.cur.NewExtractElement(vec, constant.NewInt(c.int64Ty, int64(lane))))
	t.compileStore(imm, storeTy, imm.Align, false, false)
}

// compileVectorTruncZero converts two f64 lanes to saturated i32 and
// widens with zero lanes.
func (t *funcTranslator) compileVectorTruncZero(name string) {
	c := t.ctx
	t.vectorOp(c.doublex2Ty, func(v value.Value) value.Value {
		halfTy := types.NewVector(2, c.int32Ty)
		low := t.callCore(name, halfTy, v)
		zero := constant.NewZeroInitializer(halfTy)
		return t.cur.NewShuffleVector(low, zero, shuffleMask([]int64{0, 1, 2, 3}))
	})
}

// compileVectorFma lowers the relaxed fused multiply-add forms.
func (t *funcTranslator) compileVectorFma(vecTy *types.VectorType, name string, negate bool) {
	c := t.ctx
	addend := t.bitCast(t.pop(), vecTy)
	b := t.bitCast(t.pop(), vecTy)
	a := t.bitCast(t.pop(), vecTy)
	if negate {
		a = t.cur.NewFNeg(a)
	}
	t.push(t.bitCast(t.callCore(name, vecTy, a, b, addend), c.int64x2Ty))
}

// compileVectorRelaxedDot multiplies signed i8 lanes by 7-bit lanes and
// adds adjacent pairs into i16 lanes.
func (t *funcTranslator) compileVectorRelaxedDot() {
	c := t.ctx
	extTy := types.NewVector(16, c.int16Ty)
	t.vectorBinOp(c.int8x16Ty, func(lhs, rhs value.Value) value.Value {
		el := t.cur.NewSExt(lhs, extTy)
		er := t.cur.NewSExt(rhs, extTy)
		mul := t.cur.NewMul(el, er)
		even := make([]int64, 8)
		odd := make([]int64, 8)
		for i := 0; i < 8; i++ {
			even[i] = int64(2 * i)
			odd[i] = int64(2*i + 1)
		}
		undef := constant.NewUndef(extTy)
		e := t.cur.NewShuffleVector(mul, undef, shuffleMask(even))
		o := t.cur.NewShuffleVector(mul, undef, shuffleMask(odd))
		return t.cur.NewAdd(e, o)
	})
}
