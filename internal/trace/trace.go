// Package trace cross-references surfaces and written beans to compute
// coverage gaps and the pass/fail gate.
package trace

import (
	"fmt"
	"strings"

	"harvester/internal/beans"
	"harvester/internal/inventory"
	"harvester/internal/surface"
)

// Entry is one row of the traceability matrix.
type Entry struct {
	BeanID        string
	SurfaceName   string
	SurfaceType   surface.Type
	HasBean       bool
	HasEnrichment bool
	RefsResolved  bool
	Gaps          []string
}

// Report is the coverage gate outcome. Zero-tolerance: the gate passes
// only when no gaps remain; there is no partial credit.
type Report struct {
	Entries        []Entry
	GapCount       int
	CoveragePassed bool
}

// Build cross-references each surface position with its written bean and
// the inventory. A gap is a surface lacking a bean, or a bean missing a
// title, type, or at least one source reference.
func Build(collection *surface.Collection, written []beans.WrittenBean, inv *inventory.Inventory) *Report {
	report := &Report{}
	surfaces := collection.Ordered()

	byNumber := make(map[int]beans.WrittenBean, len(written))
	for _, b := range written {
		byNumber[b.BeanNumber] = b
	}

	for i, s := range surfaces {
		n := i + 1
		entry := Entry{
			SurfaceName:   s.Name,
			SurfaceType:   s.Type,
			HasEnrichment: s.Enrichment != nil,
			RefsResolved:  true,
		}

		bean, ok := byNumber[n]
		if !ok {
			entry.Gaps = append(entry.Gaps, "surface has no bean")
		} else {
			entry.BeanID = bean.BeanID
			entry.HasBean = true
			if strings.TrimSpace(bean.Title) == "" {
				entry.Gaps = append(entry.Gaps, "bean has no title")
			}
			if bean.SurfaceType == "" {
				entry.Gaps = append(entry.Gaps, "bean has no type")
			}
		}
		if len(s.SourceRefs) == 0 {
			entry.Gaps = append(entry.Gaps, "no source references")
		}

		for _, ref := range s.SourceRefs {
			if inv != nil && !inv.Contains(ref.Path) {
				entry.RefsResolved = false
				break
			}
		}

		report.GapCount += len(entry.Gaps)
		report.Entries = append(report.Entries, entry)
	}

	report.CoveragePassed = report.GapCount == 0
	return report
}

// GapSummaries lists every gap with its bean context, in matrix order.
func (r *Report) GapSummaries() []string {
	var out []string
	for _, entry := range r.Entries {
		for _, gap := range entry.Gaps {
			label := entry.BeanID
			if label == "" {
				label = entry.SurfaceName
			}
			out = append(out, fmt.Sprintf("%s: %s", label, gap))
		}
	}
	return out
}
