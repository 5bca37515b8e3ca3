package detect

import (
	"fmt"
	"log/slog"
	"sort"

	"harvester/internal/inventory"
	"harvester/internal/logging"
)

// DefaultMinConfidence is the threshold a stack's combined confidence
// must reach to count as detected.
const DefaultMinConfidence = 0.3

// Registry holds an ordered set of detectors. It is constructed
// explicitly and passed by reference; there is no process-wide instance.
type Registry struct {
	detectors []Detector
	logger    *slog.Logger
}

// NewRegistry returns an empty registry. A nil logger is replaced with a
// no-op logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logging.NewComponentLogger(logger, "detect")}
}

// NewDefaultRegistry returns a registry populated with the built-in
// detectors in their canonical order.
func NewDefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)
	r.Register(BuiltinDetectors()...)
	return r
}

// Register appends detectors; invocation order is registration order.
func (r *Registry) Register(detectors ...Detector) {
	r.detectors = append(r.detectors, detectors...)
}

// Clear removes all registered detectors. Used for test isolation.
func (r *Registry) Clear() {
	r.detectors = nil
}

// Len returns the number of registered detectors.
func (r *Registry) Len() int {
	return len(r.detectors)
}

// RunDetection invokes every registered detector once against the same
// inventory snapshot and combines their signals into a profile. A
// detector failure is a warning, not an abort: its signals are dropped
// and detection continues.
func (r *Registry) RunDetection(inv *inventory.Inventory, minConfidence float64) *StackProfile {
	if minConfidence <= 0 {
		minConfidence = DefaultMinConfidence
	}

	profile := &StackProfile{}
	grouped := make(map[string][]Signal)

	for _, det := range r.detectors {
		signals, err := runDetector(det, inv)
		if err != nil {
			warning := fmt.Sprintf("detector %s failed: %v", det.Name(), err)
			profile.Warnings = append(profile.Warnings, warning)
			r.logger.Warn("detector failed",
				logging.String("detector", det.Name()),
				logging.Error(err))
			continue
		}
		for _, sig := range signals {
			if sig.Stack == "" || sig.Confidence <= 0 || sig.Confidence > 1 {
				continue
			}
			grouped[sig.Stack] = append(grouped[sig.Stack], sig)
		}
	}

	for stack, signals := range grouped {
		combined := combineConfidences(signals)
		if combined < minConfidence {
			continue
		}
		profile.Stacks = append(profile.Stacks, StackScore{
			Stack:      stack,
			Confidence: combined,
			Signals:    signals,
		})
	}

	sort.Slice(profile.Stacks, func(i, j int) bool {
		a, b := profile.Stacks[i], profile.Stacks[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Stack < b.Stack
	})

	return profile
}

// runDetector isolates one detector call: a panicking detector is
// reported as an error rather than aborting stack profiling.
func runDetector(det Detector, inv *inventory.Inventory) (signals []Signal, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			signals = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return det.Detect(inv)
}

// combineConfidences applies complementary aggregation:
// combined = 1 - product(1 - c_i). The result stays in (0, 1), and
// multiple weak corroborating signals raise it toward 1.
func combineConfidences(signals []Signal) float64 {
	remainder := 1.0
	for _, sig := range signals {
		remainder *= 1 - sig.Confidence
	}
	return 1 - remainder
}
