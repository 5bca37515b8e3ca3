package trace

import (
	"harvester/internal/inventory"
	"harvester/internal/surface"
)

// IntermediateCheck is the Stage D pre-bean pass: it verifies each
// surface is well-formed and its source references resolve against the
// inventory, before any bean exists.
type IntermediateCheck struct {
	SurfaceCount   int
	MissingRefs    int
	UnresolvedRefs int
}

// Intermediate inspects the collection against the inventory.
func Intermediate(collection *surface.Collection, inv *inventory.Inventory) IntermediateCheck {
	check := IntermediateCheck{}
	for _, s := range collection.Ordered() {
		check.SurfaceCount++
		if len(s.SourceRefs) == 0 {
			check.MissingRefs++
			continue
		}
		for _, ref := range s.SourceRefs {
			if inv != nil && !inv.Contains(ref.Path) {
				check.UnresolvedRefs++
				break
			}
		}
	}
	return check
}
