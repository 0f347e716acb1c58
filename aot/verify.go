package aot

import (
	"fmt"

	"github.com/llir/llvm/ir"
)

// verifyModule performs the structural checks the translator guarantees:
// every defined function has an entry block, every block has exactly one
// terminator, and every PHI has at least one incoming. Findings are
// reported, not fatal; the caller logs them and continues best-effort.
func verifyModule(m *ir.Module) []string {
	var issues []string
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue // declaration
		}
		if f.Blocks[0].Name() != "entry" {
			issues = append(issues, fmt.Sprintf("%s: first block is %q, not entry", f.Name(), f.Blocks[0].Name()))
		}
		for _, b := range f.Blocks {
			if b.Term == nil {
				issues = append(issues, fmt.Sprintf("%s: block %s has no terminator", f.Name(), b.Name()))
			}
			for _, inst := range b.Insts {
				phi, ok := inst.(*ir.InstPhi)
				if !ok {
					continue
				}
				if len(phi.Incs) == 0 {
					issues = append(issues, fmt.Sprintf("%s: block %s holds a PHI with no incomings", f.Name(), b.Name()))
				}
			}
		}
	}
	return issues
}
