package surface

import (
	"fmt"
	"log/slog"

	"harvester/internal/inventory"
	"harvester/internal/logging"
)

// Extractor produces the surfaces of one type from the inventory.
// Implementations must be deterministic for a fixed inventory and emit
// surfaces in the order they were found.
type Extractor interface {
	Type() Type
	Extract(inv *inventory.Inventory) ([]Surface, error)
}

// ExtractorSet holds extractors keyed by surface type. Construction is
// explicit; there is no process-wide instance.
type ExtractorSet struct {
	byType map[Type]Extractor
	logger *slog.Logger
}

// NewExtractorSet returns an empty set.
func NewExtractorSet(logger *slog.Logger) *ExtractorSet {
	return &ExtractorSet{
		byType: make(map[Type]Extractor, len(TypeOrder)),
		logger: logging.NewComponentLogger(logger, "extract"),
	}
}

// NewDefaultExtractorSet returns the built-in extractors.
func NewDefaultExtractorSet(logger *slog.Logger) *ExtractorSet {
	set := NewExtractorSet(logger)
	for _, ex := range builtinExtractors() {
		set.Register(ex)
	}
	return set
}

// Register installs an extractor, replacing any previous one of the
// same type.
func (s *ExtractorSet) Register(ex Extractor) {
	s.byType[ex.Type()] = ex
}

// Clear removes all extractors. Used for test isolation.
func (s *ExtractorSet) Clear() {
	s.byType = make(map[Type]Extractor, len(TypeOrder))
}

// Len returns the number of registered extractors.
func (s *ExtractorSet) Len() int {
	return len(s.byType)
}

// ExtractAll runs the extractors in the fixed type order and aggregates
// their output. One failing extractor degrades the collection and is
// recorded as a warning; the remaining types still extract.
func (s *ExtractorSet) ExtractAll(inv *inventory.Inventory) *Collection {
	collection := NewCollection()
	for _, t := range TypeOrder {
		ex, ok := s.byType[t]
		if !ok {
			continue
		}
		surfaces, err := runExtractor(ex, inv)
		if err != nil {
			warning := fmt.Sprintf("extractor %s failed: %v", t, err)
			collection.Warnings = append(collection.Warnings, warning)
			s.logger.Warn("extractor failed",
				logging.String("surface_type", string(t)),
				logging.Error(err))
			continue
		}
		collection.Add(surfaces...)
	}
	return collection
}

// runExtractor isolates one extractor call so a panic degrades the
// collection instead of aborting Stage C.
func runExtractor(ex Extractor, inv *inventory.Inventory) (surfaces []Surface, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			surfaces = nil
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return ex.Extract(inv)
}
