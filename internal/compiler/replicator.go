package compiler

import "github.com/aretw0/setpoint/pkg/domain"

// Replicate appends loops verbatim copies of steps. The input is already
// expanded and validated, so nothing is recomputed.
func Replicate(steps []domain.CompiledStep, loops uint32) []domain.CompiledStep {
	out := make([]domain.CompiledStep, 0, len(steps)*(int(loops)+1))
	for i := 0; i <= int(loops); i++ {
		out = append(out, steps...)
	}
	return out
}
