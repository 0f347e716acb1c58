// Package wasm models the WebAssembly binary format as consumed by the
// ahead-of-time compiler.
//
// The package provides value, reference, and composite type definitions, the
// opcode constant space (including the 0xFB GC, 0xFC misc, 0xFD SIMD, and
// 0xFE atomic prefixes), a LEB128 codec, an instruction decoder/encoder, and
// a binary module parser.
//
// # Parsing
//
// Parse a WebAssembly module from binary:
//
//	data, _ := os.ReadFile("module.wasm")
//	module, err := wasm.ParseModule(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// The parser performs structural decoding only. Full validation is the
// caller's responsibility; the compiler requires Module.Validated to be set
// before it accepts the module.
package wasm
