// Package aot lowers validated WebAssembly modules into LLVM-style IR.
//
// For each WebAssembly function the compiler builds an IR function named
// f{i}; for each type-section entry it builds an argument-marshalling
// wrapper named t{j}. Every compiled function takes a pointer to the
// execution context record as its first parameter and reaches runtime
// services (memories, globals, tables, GC objects) through a process-wide
// intrinsics table resolved at load time.
//
// The heart of the package is the per-function instruction translator: a
// structured-stack-to-IR lowering engine that mirrors the validator's
// operand stack, maps structured control flow onto SSA basic blocks with
// PHI reconciliation, defers every runtime trap to one shared cold block
// per error kind, and weaves optional instruction counting, gas metering,
// and interrupt polling through calls and loop back-edges.
//
// Usage:
//
//	c := aot.New(aot.WithGasMeasuring(true))
//	mod, err := c.Compile(wasmModule) // *ir.Module, render with mod.String()
//
// The input module must be validated; the compiler only checks the
// Validated flag and otherwise assumes well-typed code.
package aot
