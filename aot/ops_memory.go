package aot

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

// Misalignment handling is not implemented in the runtime, so non-atomic
// access is always emitted with alignment 1.
const forceUnalignment = true

// memoryAddress zext's the 32-bit address to 64 bits and adds the static
// offset.
func (t *funcTranslator) memoryAddress(addr value.Value, offset uint64) value.Value {
	c := t.ctx
	off := t.cur.NewZExt(addr, c.int64Ty)
	if offset != 0 {
		return t.cur.NewAdd(off, constant.NewInt(c.int64Ty, int64(offset)))
	}
	return off
}

// memoryPtr computes the native pointer for a linear-memory access.
func (t *funcTranslator) memoryPtr(memIdx uint32, off value.Value, loadTy types.Type) value.Value {
	c := t.ctx
	base := c.getMemory(t.cur, t.execCtx, memIdx)
	gep := t.cur.NewGetElementPtr(c.int8Ty, base, off)
	gep.InBounds = true
	return t.cur.NewBitCast(gep, types.NewPointer(loadTy))
}

// compileLoad pops the address and pushes the loaded value.
func (t *funcTranslator) compileLoad(imm wasm.MemoryImm, loadTy types.Type, align uint32) value.Value {
	if forceUnalignment {
		align = 0
	}
	off := t.memoryAddress(t.pop(), imm.Offset)
	ptr := t.memoryPtr(imm.MemIdx, off, loadTy)
	load := t.cur.NewLoad(loadTy, ptr)
	load.Volatile = true
	load.Align = ir.Align(1 << align)
	t.push(load)
	return load
}

// compileExtendLoad performs a narrow load then extends to the stack type.
func (t *funcTranslator) compileExtendLoad(imm wasm.MemoryImm, loadTy, extendTy types.Type, signed bool) {
	t.compileLoad(imm, loadTy, imm.Align)
	v := t.pop()
	if signed {
		t.push(t.cur.NewSExt(v, extendTy))
	} else {
		t.push(t.cur.NewZExt(v, extendTy))
	}
}

// compileStore pops value then address and emits the store, truncating or
// bitcasting the value to the storage type first when requested.
func (t *funcTranslator) compileStore(imm wasm.MemoryImm, storeTy types.Type, align uint32, truncate, cast bool) {
	if forceUnalignment {
		align = 0
	}
	v := t.pop()
	off := t.memoryAddress(t.pop(), imm.Offset)
	if truncate {
		v = t.cur.NewTrunc(v, storeTy)
	}
	if cast {
		v = t.bitCast(v, storeTy)
	}
	ptr := t.memoryPtr(imm.MemIdx, off, storeTy)
	store := t.cur.NewStore(v, ptr)
	store.Volatile = true
	store.Align = ir.Align(1 << align)
}

func (t *funcTranslator) compileMemoryOp(instr *wasm.Instruction) {
	c := t.ctx

	switch instr.Opcode {
	case wasm.OpI32Load:
		t.compileLoad(instr.Imm.(wasm.MemoryImm), c.int32Ty, instr.Imm.(wasm.MemoryImm).Align)
	case wasm.OpI64Load:
		t.compileLoad(instr.Imm.(wasm.MemoryImm), c.int64Ty, instr.Imm.(wasm.MemoryImm).Align)
	case wasm.OpF32Load:
		t.compileLoad(instr.Imm.(wasm.MemoryImm), c.floatTy, instr.Imm.(wasm.MemoryImm).Align)
	case wasm.OpF64Load:
		t.compileLoad(instr.Imm.(wasm.MemoryImm), c.doubleTy, instr.Imm.(wasm.MemoryImm).Align)

	case wasm.OpI32Load8S:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int8Ty, c.int32Ty, true)
	case wasm.OpI32Load8U:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int8Ty, c.int32Ty, false)
	case wasm.OpI32Load16S:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int16Ty, c.int32Ty, true)
	case wasm.OpI32Load16U:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int16Ty, c.int32Ty, false)
	case wasm.OpI64Load8S:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int8Ty, c.int64Ty, true)
	case wasm.OpI64Load8U:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int8Ty, c.int64Ty, false)
	case wasm.OpI64Load16S:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int16Ty, c.int64Ty, true)
	case wasm.OpI64Load16U:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int16Ty, c.int64Ty, false)
	case wasm.OpI64Load32S:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int32Ty, c.int64Ty, true)
	case wasm.OpI64Load32U:
		t.compileExtendLoad(instr.Imm.(wasm.MemoryImm), c.int32Ty, c.int64Ty, false)

	case wasm.OpI32Store:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.int32Ty, instr.Imm.(wasm.MemoryImm).Align, false, false)
	case wasm.OpI64Store:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.int64Ty, instr.Imm.(wasm.MemoryImm).Align, false, false)
	case wasm.OpF32Store:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.floatTy, instr.Imm.(wasm.MemoryImm).Align, false, false)
	case wasm.OpF64Store:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.doubleTy, instr.Imm.(wasm.MemoryImm).Align, false, false)
	case wasm.OpI32Store8, wasm.OpI64Store8:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.int8Ty, instr.Imm.(wasm.MemoryImm).Align, true, false)
	case wasm.OpI32Store16, wasm.OpI64Store16:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.int16Ty, instr.Imm.(wasm.MemoryImm).Align, true, false)
	case wasm.OpI64Store32:
		t.compileStore(instr.Imm.(wasm.MemoryImm), c.int32Ty, instr.Imm.(wasm.MemoryImm).Align, true, false)

	case wasm.OpMemorySize:
		imm := instr.Imm.(wasm.MemoryIdxImm)
		callee := c.getIntrinsic(t.cur, IntrinsicMemSize,
			types.NewFunc(c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.MemIdx))))

	case wasm.OpMemoryGrow:
		imm := instr.Imm.(wasm.MemoryIdxImm)
		diff := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemGrow,
			types.NewFunc(c.int32Ty, c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.MemIdx)), diff))
	}
}

// compileMiscOp handles the 0xFC prefix: saturating truncation, bulk
// memory, and the table operations beyond get/set.
func (t *funcTranslator) compileMiscOp(imm wasm.MiscImm) error {
	c := t.ctx

	switch imm.SubOpcode {
	case wasm.MiscI32TruncSatF32S, wasm.MiscI32TruncSatF64S:
		t.compileSignedTruncSat(c.int32Ty)
	case wasm.MiscI32TruncSatF32U, wasm.MiscI32TruncSatF64U:
		t.compileUnsignedTruncSat(c.int32Ty)
	case wasm.MiscI64TruncSatF32S, wasm.MiscI64TruncSatF64S:
		t.compileSignedTruncSat(c.int64Ty)
	case wasm.MiscI64TruncSatF32U, wasm.MiscI64TruncSatF64U:
		t.compileUnsignedTruncSat(c.int64Ty)

	case wasm.MiscMemoryInit:
		dataIdx, memIdx := imm.Operands[0], imm.Operands[1]
		length := t.pop()
		src := t.pop()
		dst := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemInit,
			types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(memIdx)),
			constant.NewInt(c.int32Ty, int64(dataIdx)),
			dst, src, length)

	case wasm.MiscDataDrop:
		callee := c.getIntrinsic(t.cur, IntrinsicDataDrop,
			types.NewFunc(types.Void, c.int32Ty))
		t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.Operands[0])))

	case wasm.MiscMemoryCopy:
		dstMem, srcMem := imm.Operands[0], imm.Operands[1]
		length := t.pop()
		src := t.pop()
		dst := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemCopy,
			types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(dstMem)),
			constant.NewInt(c.int32Ty, int64(srcMem)),
			dst, src, length)

	case wasm.MiscMemoryFill:
		memIdx := imm.Operands[0]
		length := t.pop()
		val := t.cur.NewTrunc(t.pop(), c.int8Ty)
		off := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicMemFill,
			types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int8Ty, c.int32Ty))
		t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(memIdx)), off, val, length)

	case wasm.MiscTableInit:
		elemIdx, tableIdx := imm.Operands[0], imm.Operands[1]
		length := t.pop()
		src := t.pop()
		dst := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableInit,
			types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(tableIdx)),
			constant.NewInt(c.int32Ty, int64(elemIdx)),
			dst, src, length)

	case wasm.MiscElemDrop:
		callee := c.getIntrinsic(t.cur, IntrinsicElemDrop,
			types.NewFunc(types.Void, c.int32Ty))
		t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.Operands[0])))

	case wasm.MiscTableCopy:
		dstTable, srcTable := imm.Operands[0], imm.Operands[1]
		length := t.pop()
		src := t.pop()
		dst := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableCopy,
			types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty, c.int32Ty))
		t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(dstTable)),
			constant.NewInt(c.int32Ty, int64(srcTable)),
			dst, src, length)

	case wasm.MiscTableGrow:
		newSize := t.pop()
		val := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableGrow,
			types.NewFunc(c.int32Ty, c.int32Ty, c.int64x2Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.Operands[0])),
			t.bitCast(val, c.int64x2Ty), newSize))

	case wasm.MiscTableSize:
		callee := c.getIntrinsic(t.cur, IntrinsicTableSize,
			types.NewFunc(c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.Operands[0]))))

	case wasm.MiscTableFill:
		length := t.pop()
		val := t.pop()
		off := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableFill,
			types.NewFunc(c.int32Ty, c.int32Ty, c.int32Ty, c.int64x2Ty, c.int32Ty))
		t.cur.NewCall(callee,
			constant.NewInt(c.int32Ty, int64(imm.Operands[0])),
			off, t.bitCast(val, c.int64x2Ty), length)

	default:
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Detail("misc sub-opcode 0x%02x", imm.SubOpcode).
			Build()
	}
	return nil
}
