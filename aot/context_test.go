package aot

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/wippyai/wasm-aot/wasm"
)

func newTestContext() *compileContext {
	return newCompileContext(ir.NewModule(), Features{})
}

func TestResolveBlockType(t *testing.T) {
	ctx := newTestContext()
	ft := wasm.FuncType{
		Params:  []wasm.ValueType{wasm.NumType(wasm.ValI32), wasm.NumType(wasm.ValI64)},
		Results: []wasm.ValueType{wasm.NumType(wasm.ValF64)},
	}
	ctx.compositeTypes = []*wasm.CompType{{Kind: wasm.CompKindFunc, Func: &ft}}

	tests := []struct {
		name    string
		bt      int64
		params  int
		results int
	}{
		{"empty", -64, 0, 0},
		{"single i32", -1, 0, 1},
		{"single f64", -4, 0, 1},
		{"single funcref", wasm.HeapTypeFunc, 0, 1},
		{"type index", 0, 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params, results := ctx.resolveBlockType(tt.bt)
			if len(params) != tt.params || len(results) != tt.results {
				t.Errorf("resolveBlockType(%d) = (%d, %d), want (%d, %d)",
					tt.bt, len(params), len(results), tt.params, tt.results)
			}
		})
	}
}

func TestResolveBlockTypeValueKinds(t *testing.T) {
	ctx := newTestContext()
	_, results := ctx.resolveBlockType(-1)
	if results[0].Kind != wasm.ValI32 {
		t.Errorf("block type -1 resolves to %v, want i32", results[0].Kind)
	}
	_, results = ctx.resolveBlockType(-5)
	if results[0].Kind != wasm.ValV128 {
		t.Errorf("block type -5 resolves to %v, want v128", results[0].Kind)
	}
}

func TestExecCtxLayout(t *testing.T) {
	ctx := newTestContext()
	fields := ctx.execCtxTy.Fields
	if len(fields) != 7 {
		t.Fatalf("ExecCtx has %d fields, want 7", len(fields))
	}
	// Field 5 is the gas limit, a plain u64 value.
	if !fields[5].Equal(ctx.int64Ty) {
		t.Errorf("gas limit field is %v, want i64", fields[5])
	}
	// Field 3 is the cost table: 65536 u64 entries.
	want := "[65536 x i64]*"
	if got := fields[3].String(); got != want {
		t.Errorf("cost table field is %q, want %q", got, want)
	}
}

func TestModuleLevelSymbols(t *testing.T) {
	m := ir.NewModule()
	newCompileContext(m, Features{})
	text := m.String()
	if !strings.Contains(text, "@version") {
		t.Error("missing version constant")
	}
	if !strings.Contains(text, "@intrinsics") {
		t.Error("missing intrinsics table global")
	}
	if !strings.Contains(text, "noreturn") || !strings.Contains(text, "cold") ||
		!strings.Contains(text, "noinline") {
		t.Error("trap helper should be noreturn, cold, and noinline")
	}
}

func TestRefDescriptorLayout(t *testing.T) {
	desc := refDescriptor(true, wasm.HeapTypeFunc)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], desc)
	if buf[0] != byte(wasm.ValRefNull) {
		t.Errorf("byte 0 = %#x, want ref null code", buf[0])
	}
	if buf[1] != 0 {
		t.Errorf("funcref should be internal, flag = %d", buf[1])
	}
	if buf[3] != 0x70 {
		t.Errorf("heap byte = %#x, want 0x70", buf[3])
	}

	desc = refDescriptor(false, wasm.HeapTypeExtern)
	binary.LittleEndian.PutUint64(buf[:], desc)
	if buf[0] != byte(wasm.ValRef) {
		t.Errorf("byte 0 = %#x, want ref code", buf[0])
	}
	if buf[1] != 1 {
		t.Error("externref should carry the external flag")
	}
	if buf[3] != 0x6F {
		t.Errorf("heap byte = %#x, want 0x6F", buf[3])
	}

	// Composite type index: byte 3 clear, index in bytes 4..7.
	desc = refDescriptor(true, 42)
	binary.LittleEndian.PutUint64(buf[:], desc)
	if buf[3] != 0 {
		t.Error("type-index descriptor should not set the heap byte")
	}
	if idx := binary.LittleEndian.Uint32(buf[4:]); idx != 42 {
		t.Errorf("type index = %d, want 42", idx)
	}
}

func TestDetectFeaturesGeneric(t *testing.T) {
	f := detectFeatures(true)
	if f.SSE2 || f.SSE41 || f.SSSE3 || f.XOP || f.NEON {
		t.Error("generic binary mode must disable every capability flag")
	}
}

func TestOptLevelPipeline(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"0", "default<O0>,function(tailcallelim)"},
		{"1", "default<O1>,function(tailcallelim)"},
		{"2", "default<O2>"},
		{"3", "default<O3>"},
		{"s", "default<Os>"},
		{"z", "default<Oz>"},
		{"bogus", "default<O2>"},
	}
	for _, tt := range tests {
		if got := ParseOptLevel(tt.flag).PassPipeline(); got != tt.want {
			t.Errorf("ParseOptLevel(%q).PassPipeline() = %q, want %q", tt.flag, got, tt.want)
		}
	}
	if New().OptimizationLevel() != O2 {
		t.Error("default optimisation level should be O2")
	}
	if New(WithOptimizationLevel(Oz)).OptimizationLevel() != Oz {
		t.Error("WithOptimizationLevel should override the default")
	}
}

func TestVerifyModule(t *testing.T) {
	m := ir.NewModule()
	f := m.NewFunc("f0", types.Void)
	entry := f.NewBlock("entry")
	entry.NewRet(nil)
	dangling := f.NewBlock("dangling.1")
	_ = dangling // no terminator

	issues := verifyModule(m)
	if len(issues) != 1 || !strings.Contains(issues[0], "no terminator") {
		t.Errorf("verifyModule = %v, want one missing-terminator issue", issues)
	}

	entryLess := ir.NewModule()
	g := entryLess.NewFunc("f0", types.Void)
	b := g.NewBlock("block.1")
	b.NewRet(nil)
	issues = verifyModule(entryLess)
	if len(issues) != 1 || !strings.Contains(issues[0], "not entry") {
		t.Errorf("verifyModule = %v, want one missing-entry issue", issues)
	}

	if issues := verifyModule(ir.NewModule()); len(issues) != 0 {
		t.Errorf("empty module should verify cleanly, got %v", issues)
	}
}

func TestErrCodeStrings(t *testing.T) {
	known := []ErrCode{
		ErrDivideByZero, ErrIntegerOverflow, ErrInvalidConvToInt,
		ErrUnreachable, ErrUnalignedAtomicAccess, ErrCastNullToNonNull,
		ErrAccessNullFunc, ErrAccessNullI31, ErrCostLimitExceeded, ErrInterrupted,
	}
	for _, code := range known {
		if code.String() == "unknown" {
			t.Errorf("code %#x has no string", uint32(code))
		}
	}
	if ErrCode(0xFFFF).String() != "unknown" {
		t.Error("unknown codes should stringify as unknown")
	}
}
