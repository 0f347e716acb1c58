package aot

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Features holds the platform capability flags consulted by SIMD lowerings
// to select intrinsics versus portable fallbacks. Computed once per module.
type Features struct {
	// x86-64
	XOP   bool
	SSE41 bool
	SSSE3 bool
	SSE2  bool
	// aarch64
	NEON bool
}

// detectFeatures probes the host CPU. In generic-binary mode every flag is
// off so the emitted IR uses only portable sequences.
func detectFeatures(genericBinary bool) Features {
	if genericBinary {
		return Features{}
	}
	var f Features
	switch runtime.GOARCH {
	case "amd64":
		f.SSE2 = true // baseline for x86-64
		f.SSSE3 = cpu.X86.HasSSSE3
		f.SSE41 = cpu.X86.HasSSE41
		// XOP is AMD-only and not exposed by x/sys/cpu; left off.
	case "arm64":
		f.NEON = true // baseline for aarch64
	}
	return f
}
