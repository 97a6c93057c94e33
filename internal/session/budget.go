// File: internal/session/budget.go
package session

import "time"

// StageCeiling caps any single bounded sub-wait inside a multi-stage
// operation, no matter how generous the caller's overall budget is.
const StageCeiling = 10 * time.Second

// Budget derives sub-timeouts from a caller-supplied overall timeout. It is
// a policy, not a resource: derived per call, never persisted. The rule for
// an operation of N sequential bounded sub-waits plus one human-paced wait
// is that each bounded sub-wait receives min(ceiling, total/3) and the
// human-paced wait receives the full total, so the sum of concurrently
// active stage timeouts never exceeds the caller's budget.
type Budget struct {
	// Ceiling overrides StageCeiling when positive. Tests use this.
	Ceiling time.Duration
}

// Stage returns the bound for one machine-paced sub-wait.
func (b Budget) Stage(total time.Duration) time.Duration {
	ceiling := b.Ceiling
	if ceiling <= 0 {
		ceiling = StageCeiling
	}
	stage := total / 3
	if stage > ceiling {
		return ceiling
	}
	return stage
}

// Human returns the bound for the human-paced wait: the full caller budget,
// intentionally not sub-divided.
func (b Budget) Human(total time.Duration) time.Duration {
	return total
}
