package beans

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"harvester/internal/surface"
)

// IndexFileName is the bean index inside the beans directory.
const IndexFileName = "_index.md"

// TemplatesDir receives one static description file per template key.
const TemplatesDir = "_templates"

// GenerateIndex writes beans/_index.md listing every bean, written or
// skipped, in the fixed order. The file is always fully regenerated.
func (w *Writer) GenerateIndex(written []WrittenBean) error {
	var b strings.Builder
	b.WriteString("# Requirement Beans\n\n")
	fmt.Fprintf(&b, "%d beans.\n\n", len(written))
	b.WriteString("| ID | Title | Type | Status |\n|---|---|---|---|\n")
	for _, bean := range written {
		fmt.Fprintf(&b, "| %s | %s | %s | draft |\n",
			bean.BeanID, bean.Title, bean.SurfaceType)
	}

	path := filepath.Join(w.outputDir, BeansDir, IndexFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write bean index: %w", err)
	}
	return nil
}

// TemplateKeys are the fixed template identifiers: the seven surface
// kinds plus the bean-only kinds the generator uses.
var TemplateKeys = []string{
	string(surface.TypeRoute),
	string(surface.TypeComponent),
	string(surface.TypeAPI),
	string(surface.TypeModel),
	string(surface.TypeAuth),
	string(surface.TypeConfig),
	string(surface.TypeCrosscutting),
	"architecture",
	"data-flow",
	"integration",
	"non-functional",
}

var templateDescriptions = map[string]string{
	string(surface.TypeRoute):        "One HTTP route: method, path, and expected response behavior.",
	string(surface.TypeComponent):    "One UI component: rendering contract and interactions.",
	string(surface.TypeAPI):          "One outbound API integration: endpoint and payload expectations.",
	string(surface.TypeModel):        "One data model: fields, types, and validation rules.",
	string(surface.TypeAuth):         "One authentication behavior: mechanism and enforcement points.",
	string(surface.TypeConfig):       "One configuration surface: format, keys, and defaults.",
	string(surface.TypeCrosscutting): "One crosscutting concern: middleware, logging, or error handling.",
	"architecture":                   "System-level architectural requirement spanning multiple surfaces.",
	"data-flow":                      "End-to-end data flow across components and stores.",
	"integration":                    "Third-party or cross-system integration contract.",
	"non-functional":                 "Performance, reliability, or operability requirement.",
}

// GenerateTemplatesDir emits one static description file per template
// key into beans/_templates/.
func (w *Writer) GenerateTemplatesDir() error {
	dir := filepath.Join(w.outputDir, BeansDir, TemplatesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create templates directory: %w", err)
	}
	for _, key := range TemplateKeys {
		var b strings.Builder
		fmt.Fprintf(&b, "# Template: %s\n\n%s\n", key, templateDescriptions[key])
		path := filepath.Join(dir, key+".md")
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return fmt.Errorf("write template %s: %w", key, err)
		}
	}
	return nil
}
