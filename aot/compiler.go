package aot

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

// OptLevel selects the optimisation pipeline the produced module is meant
// to run through after emission.
type OptLevel int

const (
	O0 OptLevel = iota
	O1
	O2
	O3
	Os
	Oz
)

// PassPipeline returns the pass-pipeline description for the level, in the
// form the new pass manager accepts.
func (l OptLevel) PassPipeline() string {
	switch l {
	case O0:
		return "default<O0>,function(tailcallelim)"
	case O1:
		return "default<O1>,function(tailcallelim)"
	case O3:
		return "default<O3>"
	case Os:
		return "default<Os>"
	case Oz:
		return "default<Oz>"
	default:
		return "default<O2>"
	}
}

func (l OptLevel) String() string {
	switch l {
	case O0:
		return "O0"
	case O1:
		return "O1"
	case O3:
		return "O3"
	case Os:
		return "Os"
	case Oz:
		return "Oz"
	default:
		return "O2"
	}
}

// ParseOptLevel maps a -O flag value to its level; unknown values fall back
// to O2.
func ParseOptLevel(s string) OptLevel {
	switch s {
	case "0":
		return O0
	case "1":
		return O1
	case "3":
		return O3
	case "s":
		return Os
	case "z":
		return Oz
	default:
		return O2
	}
}

// Compiler lowers validated modules into IR modules. A Compiler may be
// reused; module-level emission is serialised by an internal mutex, so
// separate Compilers may run concurrently.
type Compiler struct {
	mu  sync.Mutex
	log *zap.Logger

	optLevel          OptLevel
	interruptible     bool
	instrCounting     bool
	gasMeasuring      bool
	genericBinary     bool
	exceptionHandling bool
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithInterruptible enables stop-token polling at block entries and loop
// back-edges.
func WithInterruptible(on bool) Option {
	return func(c *Compiler) { c.interruptible = on }
}

// WithInstructionCounting enables the per-function instruction counter.
func WithInstructionCounting(on bool) Option {
	return func(c *Compiler) { c.instrCounting = on }
}

// WithGasMeasuring enables gas accounting against the cost table and gas
// limit.
func WithGasMeasuring(on bool) Option {
	return func(c *Compiler) { c.gasMeasuring = on }
}

// WithGenericBinary disables host CPU feature detection so the emitted IR
// uses only portable sequences.
func WithGenericBinary(on bool) Option {
	return func(c *Compiler) { c.genericBinary = on }
}

// WithExceptionHandling requests the exception-handling proposal, which the
// compiler rejects at configuration time.
func WithExceptionHandling(on bool) Option {
	return func(c *Compiler) { c.exceptionHandling = on }
}

// WithOptimizationLevel sets the optimisation level the emitted module is
// prepared for; OptimizationLevel exposes it for the emission hand-off.
func WithOptimizationLevel(l OptLevel) Option {
	return func(c *Compiler) { c.optLevel = l }
}

// WithLogger sets the compiler's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Compiler with the given options. The optimisation level
// defaults to O2.
func New(opts ...Option) *Compiler {
	c := &Compiler{log: Logger(), optLevel: O2}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OptimizationLevel returns the configured optimisation level.
func (c *Compiler) OptimizationLevel() OptLevel {
	return c.optLevel
}

// CheckConfig validates the requested feature set.
func (c *Compiler) CheckConfig() error {
	if c.exceptionHandling {
		return errors.Unsupported(errors.PhaseCompile, "proposal ExceptionHandling is not supported")
	}
	return nil
}

// Compile lowers a validated module into an IR module. The input must have
// been validated by an external validator; the module is rejected otherwise.
func (c *Compiler) Compile(m *wasm.Module) (*ir.Module, error) {
	if err := c.CheckConfig(); err != nil {
		c.log.Error("invalid configuration", zap.Error(err))
		return nil, err
	}
	if !m.Validated {
		c.log.Error("module not validated")
		return nil, errors.NotValidated()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Info("compile start")

	irMod := ir.NewModule()
	irMod.TargetTriple = defaultTargetTriple()

	ctx := newCompileContext(irMod, detectFeatures(c.genericBinary))

	if err := c.compileTypes(ctx, m); err != nil {
		return nil, err
	}
	if err := c.compileImports(ctx, m); err != nil {
		return nil, err
	}
	c.compileGlobals(ctx, m)
	if err := c.compileFunctions(ctx, m); err != nil {
		return nil, err
	}

	// Verification and pass failures do not abort the compile; the module
	// is still handed off best-effort.
	c.log.Info("verify start")
	for _, issue := range verifyModule(irMod) {
		c.log.Error("verify", zap.String("issue", issue))
	}

	c.log.Info("compile done",
		zap.Int("functions", len(ctx.functions)),
		zap.Int("types", len(ctx.compositeTypes)),
		zap.Stringer("opt", c.optLevel))
	return irMod, nil
}

// defaultTargetTriple derives a triple for the host.
func defaultTargetTriple() string {
	arch := "x86_64"
	if runtime.GOARCH == "arm64" {
		arch = "aarch64"
	}
	sys := "unknown-linux-gnu"
	switch runtime.GOOS {
	case "darwin":
		sys = "apple-darwin"
	case "windows":
		sys = "pc-windows-msvc"
	}
	return arch + "-" + sys
}

// exportFuncAttrs applies the shared attribute set for externally visible
// functions.
func exportFuncAttrs(f *ir.Func) {
	f.FuncAttrs = append(f.FuncAttrs,
		enum.FuncAttrUwtable,
		ir.AttrString("no-stack-arg-probe"),
	)
	if len(f.Params) > 0 {
		f.Params[0].Attrs = append(f.Params[0].Attrs,
			enum.ParamAttrReadOnly, enum.ParamAttrNoAlias)
	}
}

// compileTypes walks the type section, emitting one t{j} argument
// marshalling wrapper per entry. Duplicate function types alias the first
// wrapper; non-function composite types get an empty wrapper.
func (c *Compiler) compileTypes(ctx *compileContext, m *wasm.Module) error {
	for i := range m.Types {
		ct := &m.Types[i].CompType
		name := fmt.Sprintf("t%d", len(ctx.compositeTypes))

		if ct.IsFunc() {
			dup := -1
			for j, prev := range ctx.compositeTypes {
				if prev.IsFunc() && prev.Func.Equal(*ct.Func) {
					dup = j
					break
				}
			}
			if dup >= 0 {
				wrapper := ctx.wrappers[dup]
				alias := ctx.module.NewAlias(name, wrapper)
				alias.Linkage = enum.LinkageExternal
				ctx.compositeTypes = append(ctx.compositeTypes, ctx.compositeTypes[dup])
				ctx.wrappers = append(ctx.wrappers, wrapper)
				continue
			}

			wrapper := c.buildTypeWrapper(ctx, name, ct.Func)
			ctx.wrappers = append(ctx.wrappers, wrapper)
		} else {
			// Non-function composite types still occupy a wrapper slot.
			f := ctx.module.NewFunc(name, types.Void,
				ir.NewParam("ctx", ctx.execCtxPtrTy),
				ir.NewParam("fn", ctx.i8PtrTy),
				ir.NewParam("args", ctx.i8PtrTy),
				ir.NewParam("rets", ctx.i8PtrTy))
			exportFuncAttrs(f)
			entry := f.NewBlock("entry")
			entry.NewRet(nil)
			ctx.wrappers = append(ctx.wrappers, f)
		}
		ctx.compositeTypes = append(ctx.compositeTypes, ct)
	}
	return nil
}

// buildTypeWrapper emits the t{j} wrapper: unbox each argument from the
// scratch array, call the raw function, box the results back.
func (c *Compiler) buildTypeWrapper(ctx *compileContext, name string, ft *wasm.FuncType) *ir.Func {
	execParam := ir.NewParam("ctx", ctx.execCtxPtrTy)
	fnParam := ir.NewParam("fn", ctx.i8PtrTy)
	argsParam := ir.NewParam("args", ctx.i8PtrTy)
	retsParam := ir.NewParam("rets", ctx.i8PtrTy)
	f := ctx.module.NewFunc(name, types.Void, execParam, fnParam, argsParam, retsParam)
	exportFuncAttrs(f)
	fnParam.Attrs = append(fnParam.Attrs, enum.ParamAttrNoAlias)
	argsParam.Attrs = append(argsParam.Attrs, enum.ParamAttrNoAlias)
	retsParam.Attrs = append(retsParam.Attrs, enum.ParamAttrNoAlias)

	entry := f.NewBlock("entry")
	fnTy := ctx.funcIRType(ft)
	rawFunc := entry.NewBitCast(fnParam, types.NewPointer(fnTy))

	args := make([]value.Value, 0, len(ft.Params)+1)
	args = append(args, execParam)
	for j, pt := range ft.Params {
		args = append(args, ctx.valuePtrLoad(entry, ctx.toIRType(pt), argsParam, j*valSize))
	}

	ret := entry.NewCall(rawFunc, args...)
	switch len(ft.Results) {
	case 0:
	case 1:
		ctx.valuePtrStore(entry, ret, retsParam, 0)
	default:
		ctx.valueArrayStore(entry, unpackStruct(entry, ret), retsParam)
	}
	entry.NewRet(nil)
	return f
}

// compileImports emits f{i} thunks for imported functions, boxing the
// arguments into a scratch array and calling the Call intrinsic; imported
// globals register their slot types.
func (c *Compiler) compileImports(ctx *compileContext, m *wasm.Module) error {
	for _, imp := range m.Imports {
		switch imp.Desc.Kind {
		case wasm.KindFunc:
			funcID := len(ctx.functions)
			typeIdx := imp.Desc.TypeIdx
			if int(typeIdx) >= len(ctx.compositeTypes) || !ctx.compositeTypes[typeIdx].IsFunc() {
				return errors.New(errors.PhaseCompile, errors.KindOutOfBounds).
					Path("import section").
					Detail("function type index %d", typeIdx).
					Build()
			}
			ft := ctx.compositeTypes[typeIdx].Func
			fnTy := ctx.funcIRType(ft)

			params := make([]*ir.Param, 0, len(ft.Params)+1)
			params = append(params, ir.NewParam("ctx", ctx.execCtxPtrTy))
			for _, pt := range ft.Params {
				params = append(params, ir.NewParam("", ctx.toIRType(pt)))
			}
			f := ctx.module.NewFunc(fmt.Sprintf("f%d", funcID), fnTy.RetType, params...)
			f.Linkage = enum.LinkageInternal
			exportFuncAttrs(f)

			entry := f.NewBlock("entry")
			argCount := len(ft.Params)
			retCount := len(ft.Results)
			scratchArgs := ctx.newValueArray(entry, argCount)
			scratchRets := ctx.newValueArray(entry, retCount)
			for i := 0; i < argCount; i++ {
				ctx.valuePtrStore(entry, f.Params[i+1], scratchArgs, i*valSize)
			}

			callee := ctx.getIntrinsic(entry, IntrinsicCall,
				types.NewFunc(types.Void, ctx.int32Ty, ctx.i8PtrTy, ctx.i8PtrTy))
			entry.NewCall(callee,
				constant.NewInt(ctx.int32Ty, int64(funcID)), scratchArgs, scratchRets)

			switch retCount {
			case 0:
				entry.NewRet(nil)
			case 1:
				entry.NewRet(ctx.valuePtrLoad(entry, fnTy.RetType, scratchRets, 0))
			default:
				aggregateRet(entry, fnTy.RetType, ctx.valueArrayLoad(entry, ctx.toIRTypes(ft.Results), scratchRets))
			}

			ctx.functions = append(ctx.functions, moduleFunc{TypeIdx: typeIdx, Fn: f, FnTy: fnTy})

		case wasm.KindGlobal:
			ctx.globals = append(ctx.globals, ctx.toIRType(imp.Desc.Global.ValType))
		}
	}
	return nil
}

// compileGlobals registers the IR types of module-defined globals after the
// imported ones.
func (c *Compiler) compileGlobals(ctx *compileContext, m *wasm.Module) {
	for _, g := range m.Globals {
		ctx.globals = append(ctx.globals, ctx.toIRType(g.Type.ValType))
	}
}

// compileFunctions declares every module function, then translates each
// body.
func (c *Compiler) compileFunctions(ctx *compileContext, m *wasm.Module) error {
	for i, typeIdx := range m.Funcs {
		if int(typeIdx) >= len(ctx.compositeTypes) || !ctx.compositeTypes[typeIdx].IsFunc() {
			return errors.New(errors.PhaseCompile, errors.KindOutOfBounds).
				Path("function section").
				Detail("type index %d", typeIdx).
				Build()
		}
		ft := ctx.compositeTypes[typeIdx].Func
		fnTy := ctx.funcIRType(ft)
		funcID := len(ctx.functions)

		params := make([]*ir.Param, 0, len(ft.Params)+1)
		params = append(params, ir.NewParam("ctx", ctx.execCtxPtrTy))
		for _, pt := range ft.Params {
			params = append(params, ir.NewParam("", ctx.toIRType(pt)))
		}
		f := ctx.module.NewFunc(fmt.Sprintf("f%d", funcID), fnTy.RetType, params...)
		exportFuncAttrs(f)

		var body *wasm.FuncBody
		if i < len(m.Code) {
			body = &m.Code[i]
		}
		ctx.functions = append(ctx.functions, moduleFunc{TypeIdx: typeIdx, Fn: f, FnTy: fnTy, Code: body})
	}

	for i := range ctx.functions {
		fn := ctx.functions[i]
		if fn.Code == nil {
			continue
		}
		c.log.Debug("translate function", zap.Int("index", i))
		ft := ctx.compositeTypes[fn.TypeIdx].Func
		tr := newFuncTranslator(ctx, fn, fn.Code.FlatLocals(),
			c.interruptible, c.instrCounting, c.gasMeasuring)
		if err := tr.compile(fn.Code, ft.Results); err != nil {
			return err
		}
	}
	return nil
}
