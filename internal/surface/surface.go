// Package surface models the typed units of behavior extracted from a
// repository and the ordered collection that downstream stages consume.
package surface

// Type tags the surface variants.
type Type string

const (
	TypeRoute        Type = "route"
	TypeComponent    Type = "component"
	TypeAPI          Type = "api"
	TypeModel        Type = "model"
	TypeAuth         Type = "auth"
	TypeConfig       Type = "config"
	TypeCrosscutting Type = "crosscutting"
)

// TypeOrder is the fixed iteration order of the collection. Bean
// numbering and resume correctness depend on it; never reorder.
var TypeOrder = []Type{
	TypeRoute,
	TypeComponent,
	TypeAPI,
	TypeModel,
	TypeAuth,
	TypeConfig,
	TypeCrosscutting,
}

// SourceRef points at the file region a surface was extracted from.
type SourceRef struct {
	Path      string
	StartLine int
	EndLine   int
}

// GivenWhenThen is one behavioral scenario attached by enrichment.
type GivenWhenThen struct {
	Given string `json:"given"`
	When  string `json:"when"`
	Then  string `json:"then"`
}

// Enrichment carries the optional LLM-provided fields. It is attached
// post-hoc and never required for core correctness.
type Enrichment struct {
	BehavioralDescription string          `json:"behavioral_description"`
	InferredIntent        string          `json:"inferred_intent"`
	GivenWhenThen         []GivenWhenThen `json:"given_when_then"`
	DataFlow              string          `json:"data_flow"`
	Priority              string          `json:"priority"`
	Dependencies          []string        `json:"dependencies"`
}

// ModelField describes one field of a data model surface.
type ModelField struct {
	Name      string
	FieldType string
	Required  bool
}

// Surface is one extracted unit of repository behavior. Name and Type
// are always set; Detail and Fields are variant payloads.
type Surface struct {
	Name       string
	Type       Type
	SourceRefs []SourceRef
	Enrichment *Enrichment

	// Detail holds variant-specific attributes: the HTTP method and
	// path for routes, endpoint shape for APIs, mechanism for auth.
	Detail map[string]string

	// Fields is populated for model surfaces only, in source order.
	Fields []ModelField
}

// Collection is an ordered sequence of surfaces with a fixed,
// deterministic iteration order: the TypeOrder sequence, and insertion
// order within a type. Two runs over byte-identical input must produce
// byte-identical collections.
type Collection struct {
	byType map[Type][]Surface

	// Warnings records extractors that failed; extraction continued
	// for the remaining types.
	Warnings []string
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{byType: make(map[Type][]Surface, len(TypeOrder))}
}

// Add appends surfaces under their own type tags, preserving the order
// they were found. Surfaces are never re-sorted by content.
func (c *Collection) Add(surfaces ...Surface) {
	for _, s := range surfaces {
		c.byType[s.Type] = append(c.byType[s.Type], s)
	}
}

// Ordered returns every surface in the fixed iteration order.
func (c *Collection) Ordered() []Surface {
	var out []Surface
	for _, t := range TypeOrder {
		out = append(out, c.byType[t]...)
	}
	return out
}

// Len returns the total number of surfaces.
func (c *Collection) Len() int {
	total := 0
	for _, t := range TypeOrder {
		total += len(c.byType[t])
	}
	return total
}

// CountByType returns how many surfaces carry the given type tag.
func (c *Collection) CountByType(t Type) int {
	return len(c.byType[t])
}
