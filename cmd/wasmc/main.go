// Command wasmc compiles a WebAssembly module to LLVM-style textual IR.
//
// The input module is validated with wazero before compilation; the
// compiler itself assumes validated input.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-aot/aot"
	"github.com/wippyai/wasm-aot/wasm"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to the wasm module")
		outFile     = flag.String("o", "", "Output .ll file (default: stdout)")
		optLevel    = flag.String("O", "2", "Optimization level (0, 1, 2, 3, s, z)")
		gas         = flag.Bool("gas", false, "Enable gas metering")
		count       = flag.Bool("count", false, "Enable instruction counting")
		interrupt   = flag.Bool("interrupt", false, "Enable stop-token polling")
		generic     = flag.Bool("generic", false, "Emit a generic binary (no host CPU features)")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasmc -wasm <file.wasm> [-o out.ll] [-O level] [-gas] [-count] [-interrupt] [-generic]")
		fmt.Fprintln(os.Stderr, "       wasmc -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	level := aot.ParseOptLevel(*optLevel)

	if *verbose {
		log, err := zap.NewDevelopment()
		if err == nil {
			aot.SetLogger(log)
			defer log.Sync()
		}
	}

	if *interactive {
		if err := runInteractive(*wasmFile, level, *gas, *count, *interrupt, *generic); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, *outFile, level, *gas, *count, *interrupt, *generic); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// compile validates the module bytes with wazero, parses them, and lowers
// them to IR text.
func compile(wasmFile string, level aot.OptLevel, gas, count, interrupt, generic bool) (string, *wasm.Module, error) {
	data, err := os.ReadFile(wasmFile)
	if err != nil {
		return "", nil, fmt.Errorf("read file: %w", err)
	}

	ctx := context.Background()
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())
	defer rt.Close(ctx)
	compiled, err := rt.CompileModule(ctx, data)
	if err != nil {
		return "", nil, fmt.Errorf("validate: %w", err)
	}
	compiled.Close(ctx)

	mod, err := wasm.ParseModule(data)
	if err != nil {
		return "", nil, fmt.Errorf("parse: %w", err)
	}
	mod.Validated = true

	compiler := aot.New(
		aot.WithOptimizationLevel(level),
		aot.WithGasMeasuring(gas),
		aot.WithInstructionCounting(count),
		aot.WithInterruptible(interrupt),
		aot.WithGenericBinary(generic),
	)
	irMod, err := compiler.Compile(mod)
	if err != nil {
		return "", nil, fmt.Errorf("compile: %w", err)
	}
	return irMod.String(), mod, nil
}

func run(wasmFile, outFile string, level aot.OptLevel, gas, count, interrupt, generic bool) error {
	text, mod, err := compile(wasmFile, level, gas, count, interrupt, generic)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Module: %s\n", wasmFile)
	fmt.Fprintf(os.Stderr, "Types: %d, functions: %d, exports: %d\n",
		len(mod.Types), len(mod.Funcs), len(mod.Exports))

	if outFile == "" {
		_, err = os.Stdout.WriteString(text)
		return err
	}
	if !strings.HasSuffix(outFile, ".ll") {
		outFile += ".ll"
	}
	if err := os.WriteFile(outFile, []byte(text), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "optimize: opt -passes='%s' %s -o %s\n",
		level.PassPipeline(), outFile, strings.TrimSuffix(outFile, ".ll")+".bc")
	return nil
}
