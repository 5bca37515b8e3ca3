package beans

import (
	"fmt"
	"strings"

	"harvester/internal/surface"
)

// Title derives the bean heading from a surface.
func Title(s surface.Surface) string {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		name = "Unnamed"
	}
	return fmt.Sprintf("%s (%s)", name, s.Type)
}

// Render produces the markdown body for one surface. The switch is
// exhaustive over the surface kinds; adding a kind without a case here
// fails TestRenderAllTypes.
func Render(beanID string, s surface.Surface) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s: %s\n\n", beanID, Title(s))
	fmt.Fprintf(&b, "- **Type**: %s\n", s.Type)
	fmt.Fprintf(&b, "- **Status**: draft\n\n")

	switch s.Type {
	case surface.TypeRoute:
		renderRoute(&b, s)
	case surface.TypeComponent:
		renderComponent(&b, s)
	case surface.TypeAPI:
		renderAPI(&b, s)
	case surface.TypeModel:
		renderModel(&b, s)
	case surface.TypeAuth:
		renderAuth(&b, s)
	case surface.TypeConfig:
		renderConfig(&b, s)
	case surface.TypeCrosscutting:
		renderCrosscutting(&b, s)
	default:
		return "", fmt.Errorf("no renderer for surface type %q", s.Type)
	}

	renderSourceRefs(&b, s)
	renderEnrichment(&b, s)
	return b.String(), nil
}

func renderRoute(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Route\n\n")
	fmt.Fprintf(b, "- Method: %s\n", detail(s, "method"))
	fmt.Fprintf(b, "- Path: %s\n\n", detail(s, "path"))
	b.WriteString("## Requirement\n\nThe system shall expose this route and respond according to the behavior documented below.\n\n")
}

func renderComponent(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Component\n\n")
	fmt.Fprintf(b, "- Kind: %s\n\n", detail(s, "kind"))
	b.WriteString("## Requirement\n\nThe UI shall provide this component with the behavior documented below.\n\n")
}

func renderAPI(b *strings.Builder, s surface.Surface) {
	b.WriteString("## API Call\n\n")
	fmt.Fprintf(b, "- Endpoint: %s\n\n", detail(s, "endpoint"))
	b.WriteString("## Requirement\n\nThe client shall integrate with this endpoint as documented below.\n\n")
}

func renderModel(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Data Model\n\n")
	if kind := detail(s, "kind"); kind != "" {
		fmt.Fprintf(b, "- Kind: %s\n\n", kind)
	}
	if len(s.Fields) > 0 {
		b.WriteString("| Field | Type | Required |\n|---|---|---|\n")
		for _, f := range s.Fields {
			required := "no"
			if f.Required {
				required = "yes"
			}
			fmt.Fprintf(b, "| %s | %s | %s |\n", f.Name, f.FieldType, required)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Requirement\n\nThe system shall persist and validate this data model as documented below.\n\n")
}

func renderAuth(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Authentication\n\n")
	fmt.Fprintf(b, "- Mechanism: %s\n\n", detail(s, "mechanism"))
	b.WriteString("## Requirement\n\nThe system shall enforce this authentication behavior as documented below.\n\n")
}

func renderConfig(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(b, "- Format: %s\n", detail(s, "format"))
	if keys := detail(s, "keys"); keys != "" {
		fmt.Fprintf(b, "- Keys: %s\n", keys)
	}
	b.WriteString("\n## Requirement\n\nThe system shall honor this configuration surface as documented below.\n\n")
}

func renderCrosscutting(b *strings.Builder, s surface.Surface) {
	b.WriteString("## Crosscutting Concern\n\n")
	fmt.Fprintf(b, "- Concern: %s\n\n", detail(s, "concern"))
	b.WriteString("## Requirement\n\nThe system shall apply this crosscutting behavior as documented below.\n\n")
}

func renderSourceRefs(b *strings.Builder, s surface.Surface) {
	if len(s.SourceRefs) == 0 {
		return
	}
	b.WriteString("## Source References\n\n")
	for _, ref := range s.SourceRefs {
		if ref.StartLine == ref.EndLine {
			fmt.Fprintf(b, "- `%s:%d`\n", ref.Path, ref.StartLine)
		} else {
			fmt.Fprintf(b, "- `%s:%d-%d`\n", ref.Path, ref.StartLine, ref.EndLine)
		}
	}
	b.WriteString("\n")
}

func renderEnrichment(b *strings.Builder, s surface.Surface) {
	e := s.Enrichment
	if e == nil {
		return
	}
	b.WriteString("## Behavior\n\n")
	if e.BehavioralDescription != "" {
		fmt.Fprintf(b, "%s\n\n", e.BehavioralDescription)
	}
	if e.InferredIntent != "" {
		fmt.Fprintf(b, "**Intent**: %s\n\n", e.InferredIntent)
	}
	for _, gwt := range e.GivenWhenThen {
		fmt.Fprintf(b, "- **Given** %s, **when** %s, **then** %s\n", gwt.Given, gwt.When, gwt.Then)
	}
	if len(e.GivenWhenThen) > 0 {
		b.WriteString("\n")
	}
	if e.DataFlow != "" {
		fmt.Fprintf(b, "**Data flow**: %s\n\n", e.DataFlow)
	}
	if e.Priority != "" {
		fmt.Fprintf(b, "**Priority**: %s\n\n", e.Priority)
	}
	if len(e.Dependencies) > 0 {
		fmt.Fprintf(b, "**Dependencies**: %s\n\n", strings.Join(e.Dependencies, ", "))
	}
}

func detail(s surface.Surface, key string) string {
	if s.Detail == nil {
		return ""
	}
	return s.Detail[key]
}
