package wasm

import (
	"testing"
)

func TestDecodeInstructionsBasic(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpLocalGet, Imm: LocalImm{LocalIdx: 0}},
		{Opcode: OpI32Const, Imm: I32Imm{Value: -7}},
		{Opcode: OpI32Add},
		{Opcode: OpEnd},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(instrs) != 4 {
		t.Fatalf("got %d instructions, want 4", len(instrs))
	}
	if instrs[0].Opcode != OpLocalGet || instrs[0].Imm.(LocalImm).LocalIdx != 0 {
		t.Error("local.get decoded wrong")
	}
	if instrs[1].Imm.(I32Imm).Value != -7 {
		t.Errorf("i32.const = %d, want -7", instrs[1].Imm.(I32Imm).Value)
	}
}

func TestDecodeBlockTypes(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpBlock, Imm: BlockImm{Type: -64}},
		{Opcode: OpLoop, Imm: BlockImm{Type: -1}},
		{Opcode: OpIf, Imm: BlockImm{Type: 3}},
		{Opcode: OpEnd},
		{Opcode: OpEnd},
		{Opcode: OpEnd},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if instrs[0].Imm.(BlockImm).Type != -64 {
		t.Error("empty block type decoded wrong")
	}
	if instrs[1].Imm.(BlockImm).Type != -1 {
		t.Error("value block type decoded wrong")
	}
	if instrs[2].Imm.(BlockImm).Type != 3 {
		t.Error("type-index block type decoded wrong")
	}
}

func TestDecodeBrTable(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpBrTable, Imm: BrTableImm{Labels: []uint32{0, 1, 2}, Default: 3}},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	imm := instrs[0].Imm.(BrTableImm)
	if len(imm.Labels) != 3 || imm.Default != 3 {
		t.Errorf("br_table = %+v", imm)
	}
}

func TestDecodeMemArgMultiMemory(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpI32Load, Imm: MemoryImm{Align: 2, Offset: 16, MemIdx: 3}},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	imm := instrs[0].Imm.(MemoryImm)
	if imm.Align != 2 || imm.Offset != 16 || imm.MemIdx != 3 {
		t.Errorf("memarg = %+v", imm)
	}
}

func TestDecodeSIMDImmediates(t *testing.T) {
	lane := byte(5)
	shuffle := make([]byte, 16)
	for i := range shuffle {
		shuffle[i] = byte(i)
	}
	code := EncodeInstructions([]Instruction{
		{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdV128Load, MemArg: &MemoryImm{Align: 4}}},
		{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdI8x16Shuffle, V128Bytes: shuffle}},
		{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdF32x4ExtractLane, LaneIdx: &lane}},
		{Opcode: OpPrefixSIMD, Imm: SIMDImm{SubOpcode: SimdI8x16Add}},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if instrs[0].Imm.(SIMDImm).MemArg == nil {
		t.Error("v128.load should carry a memarg")
	}
	if len(instrs[1].Imm.(SIMDImm).V128Bytes) != 16 {
		t.Error("shuffle should carry 16 lane bytes")
	}
	if got := instrs[2].Imm.(SIMDImm).LaneIdx; got == nil || *got != 5 {
		t.Error("extract_lane should carry the lane index")
	}
	if instrs[3].Imm.(SIMDImm).MemArg != nil || instrs[3].Imm.(SIMDImm).LaneIdx != nil {
		t.Error("plain arithmetic op should carry no immediates")
	}
}

func TestDecodeGCImmediates(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpPrefixGC, Imm: GCImm{SubOpcode: GCStructGet, TypeIdx: 2, FieldIdx: 1}},
		{Opcode: OpPrefixGC, Imm: GCImm{SubOpcode: GCRefTest, HeapType: HeapTypeAny}},
		{Opcode: OpPrefixGC, Imm: GCImm{
			SubOpcode: GCBrOnCast, CastFlags: CastFlagsBothNull,
			LabelIdx: 1, HeapType: HeapTypeAny, HeapType2: HeapTypeStruct,
		}},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	sg := instrs[0].Imm.(GCImm)
	if sg.TypeIdx != 2 || sg.FieldIdx != 1 {
		t.Errorf("struct.get = %+v", sg)
	}
	if instrs[1].Imm.(GCImm).HeapType != HeapTypeAny {
		t.Error("ref.test heap type decoded wrong")
	}
	boc := instrs[2].Imm.(GCImm)
	if boc.CastFlags != CastFlagsBothNull || boc.LabelIdx != 1 || boc.HeapType2 != HeapTypeStruct {
		t.Errorf("br_on_cast = %+v", boc)
	}
}

func TestDecodeAtomicImmediates(t *testing.T) {
	code := EncodeInstructions([]Instruction{
		{Opcode: OpPrefixAtomic, Imm: AtomicImm{SubOpcode: AtomicI32Load, MemArg: &MemoryImm{Align: 2}}},
		{Opcode: OpPrefixAtomic, Imm: AtomicImm{SubOpcode: AtomicFence}},
	})
	instrs, err := DecodeInstructions(code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if instrs[0].Imm.(AtomicImm).MemArg == nil {
		t.Error("atomic load should carry a memarg")
	}
	if instrs[1].Imm.(AtomicImm).MemArg != nil {
		t.Error("fence should carry no memarg")
	}
}

func TestDecodeRejectsExceptionOps(t *testing.T) {
	for _, op := range []byte{OpTry, OpThrow, OpTryTable, OpRethrow} {
		if _, err := DecodeInstructions([]byte{op, 0x40}); err == nil {
			t.Errorf("opcode 0x%02x should be rejected", op)
		}
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	if _, err := DecodeInstructions([]byte{0xF5}); err == nil {
		t.Error("unknown opcode should be rejected")
	}
}
