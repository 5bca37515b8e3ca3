package trace

import (
	"strings"
	"testing"

	"harvester/internal/beans"
	"harvester/internal/inventory"
	"harvester/internal/surface"
)

func collectionOf(surfaces ...surface.Surface) *surface.Collection {
	c := surface.NewCollection()
	c.Add(surfaces...)
	return c
}

func beanFor(n int, s surface.Surface) beans.WrittenBean {
	return beans.WrittenBean{
		BeanNumber:  n,
		BeanID:      beans.BeanID(n),
		SurfaceType: s.Type,
		Title:       beans.Title(s),
	}
}

func TestBuildPassesWithFullCoverage(t *testing.T) {
	surfaces := []surface.Surface{
		{Name: "GET /users", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "src/routes.js", StartLine: 1, EndLine: 1}}},
		{Name: "User", Type: surface.TypeModel, SourceRefs: []surface.SourceRef{{Path: "src/models.js", StartLine: 1, EndLine: 1}}},
	}
	collection := collectionOf(surfaces...)

	var written []beans.WrittenBean
	for i, s := range collection.Ordered() {
		written = append(written, beanFor(i+1, s))
	}

	inv := inventory.New("/tmp/none", []inventory.FileRecord{
		{Path: "src/routes.js", Ext: ".js"},
		{Path: "src/models.js", Ext: ".js"},
	}, nil, nil, 0)

	report := Build(collection, written, inv)
	if report.GapCount != 0 {
		t.Fatalf("GapCount = %d, gaps: %v", report.GapCount, report.GapSummaries())
	}
	if !report.CoveragePassed {
		t.Fatal("gate should pass with zero gaps")
	}
	if len(report.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(report.Entries))
	}
}

func TestBuildFlagsMissingBean(t *testing.T) {
	collection := collectionOf(
		surface.Surface{Name: "GET /a", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "a.js", StartLine: 1, EndLine: 1}}},
		surface.Surface{Name: "GET /b", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "a.js", StartLine: 2, EndLine: 2}}},
	)
	written := []beans.WrittenBean{beanFor(1, collection.Ordered()[0])}

	report := Build(collection, written, nil)
	if report.GapCount != 1 {
		t.Fatalf("GapCount = %d, want 1", report.GapCount)
	}
	if report.CoveragePassed {
		t.Fatal("gate must fail with a missing bean")
	}

	summaries := report.GapSummaries()
	if len(summaries) != 1 || !strings.Contains(summaries[0], "no bean") {
		t.Fatalf("summaries = %v", summaries)
	}
}

func TestBuildFlagsMissingSourceRefs(t *testing.T) {
	s := surface.Surface{Name: "orphan", Type: surface.TypeConfig}
	collection := collectionOf(s)
	written := []beans.WrittenBean{beanFor(1, s)}

	report := Build(collection, written, nil)
	if report.GapCount != 1 {
		t.Fatalf("GapCount = %d, want 1", report.GapCount)
	}
	if report.CoveragePassed {
		t.Fatal("gate must fail when a surface has no source references")
	}
}

func TestBuildFlagsEmptyTitle(t *testing.T) {
	s := surface.Surface{Name: "x", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "a.js", StartLine: 1, EndLine: 1}}}
	collection := collectionOf(s)
	written := []beans.WrittenBean{{BeanNumber: 1, BeanID: "BEAN-001", SurfaceType: s.Type, Title: "  "}}

	report := Build(collection, written, nil)
	if report.GapCount != 1 {
		t.Fatalf("GapCount = %d, want 1", report.GapCount)
	}
}

func TestBuildTracksUnresolvedRefs(t *testing.T) {
	s := surface.Surface{Name: "x", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "gone.js", StartLine: 1, EndLine: 1}}}
	collection := collectionOf(s)
	written := []beans.WrittenBean{beanFor(1, s)}
	inv := inventory.New("/tmp/none", nil, nil, nil, 0)

	report := Build(collection, written, inv)
	if report.Entries[0].RefsResolved {
		t.Fatal("ref to a file outside the inventory should be unresolved")
	}
	// An unresolved ref degrades the entry but is not itself a gap.
	if report.GapCount != 0 {
		t.Fatalf("GapCount = %d, want 0", report.GapCount)
	}
}

func TestIntermediate(t *testing.T) {
	collection := collectionOf(
		surface.Surface{Name: "a", Type: surface.TypeRoute, SourceRefs: []surface.SourceRef{{Path: "a.js", StartLine: 1, EndLine: 1}}},
		surface.Surface{Name: "b", Type: surface.TypeRoute},
		surface.Surface{Name: "c", Type: surface.TypeModel, SourceRefs: []surface.SourceRef{{Path: "missing.js", StartLine: 1, EndLine: 1}}},
	)
	inv := inventory.New("/tmp/none", []inventory.FileRecord{{Path: "a.js", Ext: ".js"}}, nil, nil, 0)

	check := Intermediate(collection, inv)
	if check.SurfaceCount != 3 {
		t.Fatalf("SurfaceCount = %d, want 3", check.SurfaceCount)
	}
	if check.MissingRefs != 1 {
		t.Fatalf("MissingRefs = %d, want 1", check.MissingRefs)
	}
	if check.UnresolvedRefs != 1 {
		t.Fatalf("UnresolvedRefs = %d, want 1", check.UnresolvedRefs)
	}
}
