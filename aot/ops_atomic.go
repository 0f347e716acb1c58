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

// atomicAddress computes the 64-bit effective address without consuming the
// stack slot, then validates that it is aligned to the access width.
// Unaligned atomic access traps regardless of the static alignment
// annotation.
func (t *funcTranslator) atomicAddress(imm wasm.MemoryImm, targetTy *types.IntType) value.Value {
	c := t.ctx
	addr := t.cur.NewZExt(t.top(), c.int64Ty)
	var off value.Value = addr
	if imm.Offset != 0 {
		off = t.cur.NewAdd(addr, constant.NewInt(c.int64Ty, int64(imm.Offset)))
	}

	mask := int64(targetTy.BitSize/8) - 1
	masked := t.cur.NewAnd(off, constant.NewInt(c.int64Ty, mask))
	okBB := t.newBlock("align_ok")
	aligned := c.likely(t.cur, t.cur.NewICmp(enum.IPredEQ, masked, constant.NewInt(c.int64Ty, 0)))
	t.cur.NewCondBr(aligned, okBB, t.getTrapBlock(ErrUnalignedAtomicAccess))
	t.cur = okBB
	return off
}

func (t *funcTranslator) atomicPtr(imm wasm.MemoryImm, off value.Value, targetTy *types.IntType) value.Value {
	return t.memoryPtr(imm.MemIdx, off, targetTy)
}

func (t *funcTranslator) compileAtomicLoad(imm wasm.MemoryImm, intTy, targetTy *types.IntType, signed bool) {
	off := t.atomicAddress(imm, targetTy)
	t.pop() // address
	ptr := t.atomicPtr(imm, off, targetTy)
	load := t.cur.NewLoad(targetTy, ptr)
	load.Volatile = true
	load.Atomic = true
	load.Ordering = enum.AtomicOrderingSequentiallyConsistent
	load.Align = ir.Align(targetTy.BitSize / 8)
	if signed {
		t.push(t.extendTo(load, intTy, true))
	} else {
		t.push(t.extendTo(load, intTy, false))
	}
}

func (t *funcTranslator) compileAtomicStore(imm wasm.MemoryImm, targetTy *types.IntType) {
	v := t.pop()
	v = t.truncTo(v, targetTy)
	off := t.atomicAddress(imm, targetTy)
	t.pop() // address
	ptr := t.atomicPtr(imm, off, targetTy)
	store := t.cur.NewStore(v, ptr)
	store.Volatile = true
	store.Atomic = true
	store.Ordering = enum.AtomicOrderingSequentiallyConsistent
	store.Align = ir.Align(targetTy.BitSize / 8)
}

func (t *funcTranslator) compileAtomicRMW(imm wasm.MemoryImm, op enum.AtomicOp, intTy, targetTy *types.IntType) {
	v := t.truncTo(t.pop(), targetTy)
	off := t.atomicAddress(imm, targetTy)
	t.pop() // address
	ptr := t.atomicPtr(imm, off, targetTy)
	old := t.cur.NewAtomicRMW(op, ptr, v, enum.AtomicOrderingSequentiallyConsistent)
	t.push(t.extendTo(old, intTy, false))
}

func (t *funcTranslator) compileAtomicCmpXchg(imm wasm.MemoryImm, intTy, targetTy *types.IntType) {
	replacement := t.truncTo(t.pop(), targetTy)
	expected := t.truncTo(t.pop(), targetTy)
	off := t.atomicAddress(imm, targetTy)
	t.pop() // address
	ptr := t.atomicPtr(imm, off, targetTy)
	xchg := t.cur.NewCmpXchg(ptr, expected, replacement,
		enum.AtomicOrderingSequentiallyConsistent, enum.AtomicOrderingSequentiallyConsistent)
	old := t.cur.NewExtractValue(xchg, 0)
	t.push(t.extendTo(old, intTy, false))
}

// extendTo widens v to intTy; identity when the widths already match.
func (t *funcTranslator) extendTo(v value.Value, intTy *types.IntType, signed bool) value.Value {
	from := v.Type().(*types.IntType)
	if from.BitSize == intTy.BitSize {
		return v
	}
	if signed {
		return t.cur.NewSExt(v, intTy)
	}
	return t.cur.NewZExt(v, intTy)
}

// truncTo narrows v to targetTy; identity when the widths already match.
func (t *funcTranslator) truncTo(v value.Value, targetTy *types.IntType) value.Value {
	from := v.Type().(*types.IntType)
	if from.BitSize == targetTy.BitSize {
		return v
	}
	return t.cur.NewTrunc(v, targetTy)
}

func (t *funcTranslator) compileAtomicOp(imm wasm.AtomicImm) error {
	c := t.ctx

	if imm.SubOpcode == wasm.AtomicFence {
		t.cur.NewFence(enum.AtomicOrderingSequentiallyConsistent)
		return nil
	}

	mem := *imm.MemArg

	switch imm.SubOpcode {
	case wasm.AtomicNotify:
		count := t.pop()
		t.atomicAddress(mem, c.int32Ty)
		off := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemAtomicNotify,
			types.NewFunc(c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(mem.MemIdx)), off, count))

	case wasm.AtomicWait32, wasm.AtomicWait64:
		targetTy := c.int32Ty
		bitWidth := int64(32)
		if imm.SubOpcode == wasm.AtomicWait64 {
			targetTy = c.int64Ty
			bitWidth = 64
		}
		timeout := t.pop()
		expected := t.extendTo(t.pop(), c.int64Ty, false)
		t.atomicAddress(mem, targetTy)
		off := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemAtomicWait,
			types.NewFunc(c.int32Ty, c.int32Ty, c.int32Ty, c.int64Ty, c.int64Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(mem.MemIdx)),
			off, expected, timeout,
			constant.NewInt(c.int32Ty, bitWidth)))

	case wasm.AtomicI32Load:
		t.compileAtomicLoad(mem, c.int32Ty, c.int32Ty, false)
	case wasm.AtomicI64Load:
		t.compileAtomicLoad(mem, c.int64Ty, c.int64Ty, false)
	case wasm.AtomicI32Load8U:
		t.compileAtomicLoad(mem, c.int32Ty, c.int8Ty, false)
	case wasm.AtomicI32Load16U:
		t.compileAtomicLoad(mem, c.int32Ty, c.int16Ty, false)
	case wasm.AtomicI64Load8U:
		t.compileAtomicLoad(mem, c.int64Ty, c.int8Ty, false)
	case wasm.AtomicI64Load16U:
		t.compileAtomicLoad(mem, c.int64Ty, c.int16Ty, false)
	case wasm.AtomicI64Load32U:
		t.compileAtomicLoad(mem, c.int64Ty, c.int32Ty, false)

	case wasm.AtomicI32Store:
		t.compileAtomicStore(mem, c.int32Ty)
	case wasm.AtomicI64Store:
		t.compileAtomicStore(mem, c.int64Ty)
	case wasm.AtomicI32Store8, wasm.AtomicI64Store8:
		t.compileAtomicStore(mem, c.int8Ty)
	case wasm.AtomicI32Store16, wasm.AtomicI64Store16:
		t.compileAtomicStore(mem, c.int16Ty)
	case wasm.AtomicI64Store32:
		t.compileAtomicStore(mem, c.int32Ty)

	case wasm.AtomicI32RmwAdd:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwAdd:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8AddU:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16AddU:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8AddU:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16AddU:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32AddU:
		t.compileAtomicRMW(mem, enum.AtomicOpAdd, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwSub:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwSub:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8SubU:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16SubU:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8SubU:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16SubU:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32SubU:
		t.compileAtomicRMW(mem, enum.AtomicOpSub, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwAnd:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwAnd:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8AndU:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16AndU:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8AndU:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16AndU:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32AndU:
		t.compileAtomicRMW(mem, enum.AtomicOpAnd, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwOr:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwOr:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8OrU:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16OrU:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8OrU:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16OrU:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32OrU:
		t.compileAtomicRMW(mem, enum.AtomicOpOr, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwXor:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwXor:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8XorU:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16XorU:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8XorU:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16XorU:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32XorU:
		t.compileAtomicRMW(mem, enum.AtomicOpXor, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwXchg:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwXchg:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8XchgU:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16XchgU:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8XchgU:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16XchgU:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32XchgU:
		t.compileAtomicRMW(mem, enum.AtomicOpXChg, c.int64Ty, c.int32Ty)

	case wasm.AtomicI32RmwCmpxchg:
		t.compileAtomicCmpXchg(mem, c.int32Ty, c.int32Ty)
	case wasm.AtomicI64RmwCmpxchg:
		t.compileAtomicCmpXchg(mem, c.int64Ty, c.int64Ty)
	case wasm.AtomicI32Rmw8CmpxchgU:
		t.compileAtomicCmpXchg(mem, c.int32Ty, c.int8Ty)
	case wasm.AtomicI32Rmw16CmpxchgU:
		t.compileAtomicCmpXchg(mem, c.int32Ty, c.int16Ty)
	case wasm.AtomicI64Rmw8CmpxchgU:
		t.compileAtomicCmpXchg(mem, c.int64Ty, c.int8Ty)
	case wasm.AtomicI64Rmw16CmpxchgU:
		t.compileAtomicCmpXchg(mem, c.int64Ty, c.int16Ty)
	case wasm.AtomicI64Rmw32CmpxchgU:
		t.compileAtomicCmpXchg(mem, c.int64Ty, c.int32Ty)

	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Detail("atomic sub-opcode 0x%02x", imm.SubOpcode).
			Build()
	}
	return nil
}
