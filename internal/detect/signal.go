// Package detect implements pluggable technology-stack detection over a
// file inventory. Detectors emit weighted evidence signals that are
// aggregated into a stack profile.
package detect

import "harvester/internal/inventory"

// Signal is one piece of evidence for a stack, produced by exactly one
// detector invocation. Confidence must lie in (0, 1].
type Signal struct {
	Stack      string
	Confidence float64
	Evidence   []string
}

// StackScore is the aggregated result for one detected stack.
type StackScore struct {
	Stack      string
	Confidence float64
	Signals    []Signal
}

// StackProfile holds every stack whose combined confidence cleared the
// detection threshold, sorted by descending confidence then stack name.
type StackProfile struct {
	Stacks []StackScore

	// Warnings records detectors that failed; detection continues
	// without their signals.
	Warnings []string
}

// Detected reports whether a stack cleared the threshold.
func (p *StackProfile) Detected(stack string) bool {
	_, ok := p.Score(stack)
	return ok
}

// Score returns the combined confidence for a stack.
func (p *StackProfile) Score(stack string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	for _, s := range p.Stacks {
		if s.Stack == stack {
			return s.Confidence, true
		}
	}
	return 0, false
}

// Detector inspects the inventory snapshot and emits zero or more
// signals. Implementations must be deterministic for a fixed inventory.
type Detector interface {
	Name() string
	Detect(inv *inventory.Inventory) ([]Signal, error)
}
