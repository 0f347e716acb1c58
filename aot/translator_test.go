package aot

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

var (
	i32 = wasm.NumType(wasm.ValI32)
	i64 = wasm.NumType(wasm.ValI64)
	f32 = wasm.NumType(wasm.ValF32)
)

// singleFuncModule builds a validated one-function module whose function
// type is type index 0.
func singleFuncModule(params, results []wasm.ValueType, instrs []wasm.Instruction) *wasm.Module {
	m := &wasm.Module{Validated: true}
	m.AddType(wasm.FuncType{Params: params, Results: results})
	m.Funcs = []uint32{0}
	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions(instrs)}}
	return m
}

func mustCompile(t *testing.T, m *wasm.Module, opts ...Option) *ir.Module {
	t.Helper()
	irMod, err := New(opts...).Compile(m)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return irMod
}

func findFunc(t *testing.T, irMod *ir.Module, name string) *ir.Func {
	t.Helper()
	for _, f := range irMod.Funcs {
		if f.Name() == name {
			return f
		}
	}
	t.Fatalf("function %q not found", name)
	return nil
}

func blocksWithPrefix(f *ir.Func, prefix string) []*ir.Block {
	var out []*ir.Block
	for _, b := range f.Blocks {
		if strings.HasPrefix(b.Name(), prefix) {
			out = append(out, b)
		}
	}
	return out
}

// trapCodes extracts the error codes of a function's trap blocks in block
// order.
func trapCodes(t *testing.T, f *ir.Func) []int64 {
	t.Helper()
	var codes []int64
	for _, b := range blocksWithPrefix(f, "trap.") {
		for _, inst := range b.Insts {
			call, ok := inst.(*ir.InstCall)
			if !ok {
				continue
			}
			named, ok := call.Callee.(interface{ Name() string })
			if !ok || named.Name() != "trap" {
				continue
			}
			code, ok := call.Args[0].(*constant.Int)
			if !ok {
				t.Fatalf("trap call argument is not a constant")
			}
			codes = append(codes, code.X.Int64())
		}
		if _, ok := b.Term.(*ir.TermUnreachable); !ok {
			t.Errorf("trap block %s not terminated by unreachable", b.Name())
		}
	}
	return codes
}

func phisIn(b *ir.Block) []*ir.InstPhi {
	var out []*ir.InstPhi
	for _, inst := range b.Insts {
		if phi, ok := inst.(*ir.InstPhi); ok {
			out = append(out, phi)
		}
	}
	return out
}

func TestCompileEmptyFunction(t *testing.T) {
	m := singleFuncModule(nil, nil, []wasm.Instruction{
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m)
	f := findFunc(t, irMod, "f0")

	if got := len(blocksWithPrefix(f, "trap")); got != 0 {
		t.Errorf("expected no trap blocks, got %d", got)
	}
	entry := f.Blocks[0]
	if entry.Name() != "entry" {
		t.Fatalf("first block is %q, want entry", entry.Name())
	}
	br, ok := entry.Term.(*ir.TermBr)
	if !ok {
		t.Fatalf("entry terminator is %T, want br", entry.Term)
	}
	retBlock := br.Target.(*ir.Block)
	ret, ok := retBlock.Term.(*ir.TermRet)
	if !ok {
		t.Fatalf("return block terminator is %T, want ret", retBlock.Term)
	}
	if ret.X != nil {
		t.Errorf("expected void return, got %v", ret.X)
	}
}

func TestCompileIdentityI32(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m)
	f := findFunc(t, irMod, "f0")

	// Parameter slot: alloca, store, load in the entry block.
	entry := f.Blocks[0]
	var sawAlloca, sawStore, sawLoad bool
	for _, inst := range entry.Insts {
		switch inst.(type) {
		case *ir.InstAlloca:
			sawAlloca = true
		case *ir.InstStore:
			sawStore = true
		case *ir.InstLoad:
			sawLoad = true
		}
	}
	if !sawAlloca || !sawStore || !sawLoad {
		t.Errorf("entry block missing local slot traffic: alloca=%v store=%v load=%v",
			sawAlloca, sawStore, sawLoad)
	}

	br := entry.Term.(*ir.TermBr)
	ret := br.Target.(*ir.Block).Term.(*ir.TermRet)
	if ret.X == nil {
		t.Fatal("expected a non-void return")
	}
	if !ret.X.Type().Equal(types.I32) {
		t.Errorf("return type is %v, want i32", ret.X.Type())
	}
}

func TestSignedDivTraps(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32DivS},
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m)
	f := findFunc(t, irMod, "f0")

	codes := trapCodes(t, f)
	if len(codes) != 2 {
		t.Fatalf("expected 2 trap blocks, got %d (%v)", len(codes), codes)
	}
	if codes[0] != int64(ErrDivideByZero) || codes[1] != int64(ErrIntegerOverflow) {
		t.Errorf("trap codes = %v, want [%d %d]", codes,
			ErrDivideByZero, ErrIntegerOverflow)
	}

	// Success path produces an sdiv feeding the return.
	text := f.LLString()
	if !strings.Contains(text, "sdiv") {
		t.Error("missing sdiv on the success path")
	}
}

func TestUnsignedDivByZeroTrap(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32DivU},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	codes := trapCodes(t, f)
	if len(codes) != 1 || codes[0] != int64(ErrDivideByZero) {
		t.Errorf("trap codes = %v, want [divide-by-zero]", codes)
	}
}

func TestLoopWithBr(t *testing.T) {
	// Loop with an i32 parameter: the header carries a PHI fed by the entry
	// edge and the back edge; the loop end is unreachable.
	m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: 0}}, // block type = type index 0
		{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: 0}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m, WithInterruptible(true), WithGasMeasuring(true))
	f := findFunc(t, irMod, "f0")

	loops := blocksWithPrefix(f, "loop.")
	if len(loops) != 1 {
		t.Fatalf("expected one loop header, got %d", len(loops))
	}
	header := loops[0]
	phis := phisIn(header)
	if len(phis) != 1 {
		t.Fatalf("expected one header PHI, got %d", len(phis))
	}
	if len(phis[0].Incs) != 2 {
		t.Errorf("header PHI has %d incomings, want 2 (entry + back edge)", len(phis[0].Incs))
	}

	// Gas and stop-token polls at the back edge.
	if len(blocksWithPrefix(f, "not_stop")) == 0 {
		t.Error("missing stop-token poll")
	}
	if len(blocksWithPrefix(f, "gas_check")) == 0 {
		t.Error("missing gas check")
	}
	codes := trapCodes(t, f)
	want := map[int64]bool{int64(ErrCostLimitExceeded): true, int64(ErrInterrupted): true}
	for _, code := range codes {
		if !want[code] {
			t.Errorf("unexpected trap code %#x", code)
		}
	}
}

func TestIfElseMultiValue(t *testing.T) {
	// Block type [] -> [i32, i32]: the end block holds two PHIs, each
	// joining the then and else arms.
	m := &wasm.Module{Validated: true}
	m.AddType(wasm.FuncType{Results: []wasm.ValueType{i32, i32}})
	m.Funcs = []uint32{0}
	m.Code = []wasm.FuncBody{{Code: wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
		{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: 0}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 2}},
		{Opcode: wasm.OpElse},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 3}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 4}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})}}

	f := findFunc(t, mustCompile(t, m), "f0")
	ends := blocksWithPrefix(f, "if_end")
	if len(ends) != 1 {
		t.Fatalf("expected one if end block, got %d", len(ends))
	}
	phis := phisIn(ends[0])
	if len(phis) != 2 {
		t.Fatalf("expected two merge PHIs, got %d", len(phis))
	}
	for i, phi := range phis {
		if len(phi.Incs) != 2 {
			t.Errorf("PHI %d has %d incomings, want 2", i, len(phi.Incs))
		}
	}

	// Multi-value return packs a struct.
	if _, ok := f.Sig.RetType.(*types.StructType); !ok {
		t.Errorf("multi-value function returns %v, want struct", f.Sig.RetType)
	}
}

func TestIndirectCall(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 0}},
		{Opcode: wasm.OpCallIndirect, Imm: wasm.CallIndirectImm{TypeIdx: 0, TableIdx: 0}},
		{Opcode: wasm.OpEnd},
	})
	m.Tables = []wasm.TableType{{ElemType: wasm.RefValueType(true, wasm.HeapTypeFunc)}}

	f := findFunc(t, mustCompile(t, m), "f0")
	if len(blocksWithPrefix(f, "ci_not_null")) != 1 ||
		len(blocksWithPrefix(f, "ci_is_null")) != 1 {
		t.Fatal("missing fast/slow split blocks")
	}
	ends := blocksWithPrefix(f, "ci_end")
	if len(ends) != 1 {
		t.Fatalf("expected one join block, got %d", len(ends))
	}
	phis := phisIn(ends[0])
	if len(phis) != 1 || len(phis[0].Incs) != 2 {
		t.Fatalf("join block should hold one PHI with two incomings")
	}

	// The slow path marshals through scratch arrays.
	text := f.LLString()
	if !strings.Contains(text, "alloca") {
		t.Error("slow path should allocate scratch arrays")
	}
}

func TestTruncTrapsAndSaturation(t *testing.T) {
	trapping := singleFuncModule([]wasm.ValueType{f32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpI32TruncF32S},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, trapping), "f0")
	codes := trapCodes(t, f)
	if len(codes) != 2 {
		t.Fatalf("trapping trunc: got %d trap blocks, want 2", len(codes))
	}
	if codes[0] != int64(ErrInvalidConvToInt) || codes[1] != int64(ErrIntegerOverflow) {
		t.Errorf("trap codes = %#x, want [invalid-conversion integer-overflow]", codes)
	}

	saturating := singleFuncModule([]wasm.ValueType{f32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpPrefixMisc, Imm: wasm.MiscImm{SubOpcode: wasm.MiscI32TruncSatF32S}},
		{Opcode: wasm.OpEnd},
	})
	fs := findFunc(t, mustCompile(t, saturating), "f0")
	if got := len(trapCodes(t, fs)); got != 0 {
		t.Errorf("saturating trunc should not create trap blocks, got %d", got)
	}
	// The saturating merge PHI carries four incomings: NaN, underflow,
	// overflow, and the converted value.
	var satPhi *ir.InstPhi
	for _, b := range blocksWithPrefix(fs, "ssat_end") {
		if phis := phisIn(b); len(phis) == 1 {
			satPhi = phis[0]
		}
	}
	if satPhi == nil || len(satPhi.Incs) != 4 {
		t.Error("saturating trunc merge PHI should have 4 incomings")
	}
}

func TestShiftMasksAmount(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32Shl},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	text := f.LLString()
	if !strings.Contains(text, "and i32") || !strings.Contains(text, " 31") {
		t.Error("shift amount should be masked modulo the bit width")
	}
}

func TestFloatMinNaNAndSignedZero(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{f32, f32}, []wasm.ValueType{f32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpF32Min},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	text := f.LLString()
	for _, want := range []string{"fcmp ueq", "fcmp uno", "llvm.minnum.f32", "or i32", "select"} {
		if !strings.Contains(text, want) {
			t.Errorf("min lowering missing %q", want)
		}
	}
}

func TestUnalignedAtomicAccessTrap(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpPrefixAtomic, Imm: wasm.AtomicImm{
			SubOpcode: wasm.AtomicI32Load,
			MemArg:    &wasm.MemoryImm{Align: 2},
		}},
		{Opcode: wasm.OpEnd},
	})
	m.Memories = []wasm.MemoryType{{}}
	f := findFunc(t, mustCompile(t, m), "f0")
	codes := trapCodes(t, f)
	if len(codes) != 1 || codes[0] != int64(ErrUnalignedAtomicAccess) {
		t.Errorf("trap codes = %#x, want [unaligned-atomic-access]", codes)
	}
	if !strings.Contains(f.LLString(), "seq_cst") {
		t.Error("atomic load should be sequentially consistent")
	}
}

func TestRemSignedNoTrapOnMinDivMinusOne(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
		{Opcode: wasm.OpI32RemS},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	codes := trapCodes(t, f)
	// Signed remainder only traps on zero; INT_MIN % -1 folds to 0.
	if len(codes) != 1 || codes[0] != int64(ErrDivideByZero) {
		t.Errorf("trap codes = %#x, want [divide-by-zero]", codes)
	}
	var remPhi *ir.InstPhi
	for _, b := range blocksWithPrefix(f, "rem_end") {
		if phis := phisIn(b); len(phis) == 1 {
			remPhi = phis[0]
		}
	}
	if remPhi == nil || len(remPhi.Incs) != 2 {
		t.Error("signed rem should merge the overflow and normal paths")
	}
}

func TestCallFlushesCounters(t *testing.T) {
	m := &wasm.Module{Validated: true}
	m.AddType(wasm.FuncType{})
	m.Funcs = []uint32{0, 0}
	m.Code = []wasm.FuncBody{
		{Code: wasm.EncodeInstructions([]wasm.Instruction{
			{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: 1}},
			{Opcode: wasm.OpEnd},
		})},
		{Code: wasm.EncodeInstructions([]wasm.Instruction{
			{Opcode: wasm.OpEnd},
		})},
	}
	irMod := mustCompile(t, m, WithInstructionCounting(true))
	f := findFunc(t, irMod, "f0")
	text := f.LLString()
	if !strings.Contains(text, "atomicrmw add") {
		t.Error("call should flush the instruction counter with an atomic add")
	}
}

func TestGasUsesWeakCmpXchg(t *testing.T) {
	m := singleFuncModule(nil, nil, []wasm.Instruction{
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m, WithGasMeasuring(true))
	f := findFunc(t, irMod, "f0")
	text := f.LLString()
	if !strings.Contains(text, "cmpxchg weak") {
		t.Error("gas flush should use a weak compare-exchange loop")
	}
	if !strings.Contains(text, "monotonic") {
		t.Error("gas flush should use monotonic ordering")
	}
}

func TestUnreachableSkipsEmission(t *testing.T) {
	m := singleFuncModule(nil, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpUnreachable},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 2}},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	codes := trapCodes(t, f)
	if len(codes) != 1 || codes[0] != int64(ErrUnreachable) {
		t.Fatalf("trap codes = %#x, want [unreachable]", codes)
	}
	if strings.Contains(f.LLString(), "add i32") {
		t.Error("no IR should be emitted after an unconditional trap")
	}
}

func TestBrTableSwitch(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32}, nil, []wasm.Instruction{
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: -64}},
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: -64}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpBrTable, Imm: wasm.BrTableImm{Labels: []uint32{0, 1}, Default: 1}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})
	f := findFunc(t, mustCompile(t, m), "f0")
	found := false
	for _, b := range f.Blocks {
		if sw, ok := b.Term.(*ir.TermSwitch); ok {
			found = true
			if len(sw.Cases) != 2 {
				t.Errorf("switch has %d cases, want 2", len(sw.Cases))
			}
		}
	}
	if !found {
		t.Fatal("br_table should lower to a switch terminator")
	}
}

func TestConfigurationErrors(t *testing.T) {
	m := singleFuncModule(nil, nil, []wasm.Instruction{{Opcode: wasm.OpEnd}})

	_, err := New(WithExceptionHandling(true)).Compile(m)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseCompile, Kind: errors.KindUnsupported}) {
		t.Errorf("exception handling should be rejected at configuration time, got %v", err)
	}

	m.Validated = false
	_, err = New().Compile(m)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseValidate, Kind: errors.KindNotValidated}) {
		t.Errorf("unvalidated module should be rejected, got %v", err)
	}
}

func TestRecompileIsDeterministic(t *testing.T) {
	build := func() *wasm.Module {
		return singleFuncModule([]wasm.ValueType{i32, i32}, []wasm.ValueType{i32}, []wasm.Instruction{
			{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
			{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 1}},
			{Opcode: wasm.OpI32DivS},
			{Opcode: wasm.OpEnd},
		})
	}
	a := mustCompile(t, build(), WithGasMeasuring(true), WithInstructionCounting(true)).String()
	b := mustCompile(t, build(), WithGasMeasuring(true), WithInstructionCounting(true)).String()
	if a != b {
		t.Error("recompiling the same module should produce identical output")
	}
}

func TestEveryBlockTerminated(t *testing.T) {
	m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpIf, Imm: wasm.BlockImm{Type: -1}}, // single i32 result
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 1}},
		{Opcode: wasm.OpElse},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 2}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})
	irMod := mustCompile(t, m, WithGasMeasuring(true), WithInterruptible(true))
	for _, f := range irMod.Funcs {
		for _, b := range f.Blocks {
			if b.Term == nil {
				t.Errorf("%s: block %s has no terminator", f.Name(), b.Name())
			}
		}
	}
}

func TestMultipleModulesConcurrently(t *testing.T) {
	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			m := singleFuncModule([]wasm.ValueType{i32}, []wasm.ValueType{i32}, []wasm.Instruction{
				{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
				{Opcode: wasm.OpEnd},
			})
			_, err := New().Compile(m)
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-done; err != nil {
			t.Errorf("concurrent compile: %v", err)
		}
	}
}
