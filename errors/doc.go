// Package errors provides structured error types for the compiler.
//
// Errors carry a pipeline phase (load, validate, compile, optimize, emit),
// a kind, an optional path, and an optional cause. Configuration errors
// (unsupported proposals) and input errors (unvalidated modules) surface
// through this package; runtime traps never do — they are lowered into the
// generated IR as cold trap blocks.
//
// Construct errors with the builder:
//
//	errors.New(errors.PhaseCompile, errors.KindOutOfBounds).
//	    Path("type section").
//	    Detail("type index %d out of range", idx).
//	    Build()
//
// or with the convenience constructors (Unsupported, NotValidated, ...).
// Errors match with errors.Is by phase and kind.
package errors
