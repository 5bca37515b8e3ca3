package surface

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"harvester/internal/inventory"
)

func builtinExtractors() []Extractor {
	return []Extractor{
		routeExtractor{},
		componentExtractor{},
		apiExtractor{},
		modelExtractor{},
		authExtractor{},
		configExtractor{},
		crosscuttingExtractor{},
	}
}

var (
	jsRoutePattern     = regexp.MustCompile(`(?m)(?:app|router)\.(get|post|put|patch|delete)\(\s*['"]([^'"]+)['"]`)
	pyRoutePattern     = regexp.MustCompile(`(?m)@(?:app|blueprint|bp|router)\.(?:route|get|post|put|patch|delete)\(\s*['"]([^'"]+)['"]`)
	goRoutePattern     = regexp.MustCompile(`(?m)(?:HandleFunc|Handle|GET|POST|PUT|PATCH|DELETE)\(\s*"([^"]+)"`)
	fetchCallPattern   = regexp.MustCompile(`(?m)(?:fetch|axios(?:\.(?:get|post|put|patch|delete))?)\(\s*['"` + "`" + `](/[^'"` + "`" + `\s]*)`)
	goStructPattern    = regexp.MustCompile(`(?m)^type\s+(\w+)\s+struct\s*\{`)
	goFieldPattern     = regexp.MustCompile(`^\s*(\w+)\s+([*\[\]\w\.]+)`)
	sqlTablePattern    = regexp.MustCompile(`(?im)CREATE\s+TABLE(?:\s+IF\s+NOT\s+EXISTS)?\s+['"` + "`" + `]?(\w+)`)
	pyClassPattern     = regexp.MustCompile(`(?m)^class\s+(\w+)\s*[\(:]`)
	envAssignPattern   = regexp.MustCompile(`(?m)^([A-Z][A-Z0-9_]+)=`)
)

var sourceExts = map[string]struct{}{
	".js": {}, ".jsx": {}, ".ts": {}, ".tsx": {}, ".mjs": {},
	".py": {}, ".go": {}, ".rb": {}, ".java": {}, ".rs": {},
}

// routeExtractor finds HTTP route registrations in source files.
type routeExtractor struct{}

func (routeExtractor) Type() Type { return TypeRoute }

func (routeExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	for _, f := range inv.Files {
		if _, ok := sourceExts[f.Ext]; !ok {
			continue
		}
		content, err := readWorkingFile(inv, f.Path)
		if err != nil {
			continue
		}
		for _, m := range matchLines(content, jsRoutePattern) {
			out = append(out, routeSurface(strings.ToUpper(m.groups[0]), m.groups[1], f.Path, m.line))
		}
		for _, m := range matchLines(content, pyRoutePattern) {
			out = append(out, routeSurface("ANY", m.groups[0], f.Path, m.line))
		}
		if f.Ext == ".go" {
			for _, m := range matchLines(content, goRoutePattern) {
				if !strings.HasPrefix(m.groups[0], "/") {
					continue
				}
				out = append(out, routeSurface("ANY", m.groups[0], f.Path, m.line))
			}
		}
	}
	return out, nil
}

func routeSurface(method, path, file string, line int) Surface {
	return Surface{
		Name:       method + " " + path,
		Type:       TypeRoute,
		SourceRefs: []SourceRef{{Path: file, StartLine: line, EndLine: line}},
		Detail:     map[string]string{"method": method, "path": path},
	}
}

// componentExtractor treats UI component files as one surface each.
type componentExtractor struct{}

func (componentExtractor) Type() Type { return TypeComponent }

func (componentExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	for _, f := range inv.Files {
		switch f.Ext {
		case ".jsx", ".tsx", ".vue", ".svelte":
		default:
			continue
		}
		name := strings.TrimSuffix(filepath.Base(f.Path), f.Ext)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		out = append(out, Surface{
			Name:       name,
			Type:       TypeComponent,
			SourceRefs: []SourceRef{{Path: f.Path, StartLine: 1, EndLine: 1}},
			Detail:     map[string]string{"kind": strings.TrimPrefix(f.Ext, ".")},
		})
	}
	return out, nil
}

// apiExtractor finds outbound API call sites in client source.
type apiExtractor struct{}

func (apiExtractor) Type() Type { return TypeAPI }

func (apiExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	seen := make(map[string]struct{})
	for _, f := range inv.Files {
		switch f.Ext {
		case ".js", ".jsx", ".ts", ".tsx", ".mjs":
		default:
			continue
		}
		content, err := readWorkingFile(inv, f.Path)
		if err != nil {
			continue
		}
		for _, m := range matchLines(content, fetchCallPattern) {
			endpoint := m.groups[0]
			if _, dup := seen[endpoint]; dup {
				continue
			}
			seen[endpoint] = struct{}{}
			out = append(out, Surface{
				Name:       endpoint,
				Type:       TypeAPI,
				SourceRefs: []SourceRef{{Path: f.Path, StartLine: m.line, EndLine: m.line}},
				Detail:     map[string]string{"endpoint": endpoint},
			})
		}
	}
	return out, nil
}

// modelExtractor finds data model declarations: Go structs, SQL tables,
// and Python classes.
type modelExtractor struct{}

func (modelExtractor) Type() Type { return TypeModel }

func (modelExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	for _, f := range inv.Files {
		switch f.Ext {
		case ".go":
			content, err := readWorkingFile(inv, f.Path)
			if err != nil {
				continue
			}
			out = append(out, goStructs(content, f.Path)...)
		case ".sql":
			content, err := readWorkingFile(inv, f.Path)
			if err != nil {
				continue
			}
			for _, m := range matchLines(content, sqlTablePattern) {
				out = append(out, Surface{
					Name:       m.groups[0],
					Type:       TypeModel,
					SourceRefs: []SourceRef{{Path: f.Path, StartLine: m.line, EndLine: m.line}},
					Detail:     map[string]string{"kind": "table"},
				})
			}
		case ".py":
			if !strings.Contains(f.Path, "model") {
				continue
			}
			content, err := readWorkingFile(inv, f.Path)
			if err != nil {
				continue
			}
			for _, m := range matchLines(content, pyClassPattern) {
				out = append(out, Surface{
					Name:       m.groups[0],
					Type:       TypeModel,
					SourceRefs: []SourceRef{{Path: f.Path, StartLine: m.line, EndLine: m.line}},
					Detail:     map[string]string{"kind": "class"},
				})
			}
		}
	}
	return out, nil
}

func goStructs(content, path string) []Surface {
	var out []Surface
	lines := strings.Split(content, "\n")
	for _, m := range matchLines(content, goStructPattern) {
		surf := Surface{
			Name:       m.groups[0],
			Type:       TypeModel,
			SourceRefs: []SourceRef{{Path: path, StartLine: m.line, EndLine: m.line}},
			Detail:     map[string]string{"kind": "struct"},
		}
		for i := m.line; i < len(lines); i++ {
			trimmed := strings.TrimSpace(lines[i])
			if trimmed == "}" {
				surf.SourceRefs[0].EndLine = i + 1
				break
			}
			if fm := goFieldPattern.FindStringSubmatch(lines[i]); fm != nil {
				surf.Fields = append(surf.Fields, ModelField{
					Name:      fm[1],
					FieldType: fm[2],
					Required:  !strings.HasPrefix(fm[2], "*"),
				})
			}
		}
		out = append(out, surf)
	}
	return out
}

// authExtractor flags files whose paths suggest authentication concerns.
type authExtractor struct{}

func (authExtractor) Type() Type { return TypeAuth }

var authPathHints = []string{"auth", "login", "session", "jwt", "oauth"}

func (authExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	for _, f := range inv.Files {
		if _, ok := sourceExts[f.Ext]; !ok {
			continue
		}
		lower := strings.ToLower(f.Path)
		for _, hint := range authPathHints {
			if !strings.Contains(lower, hint) {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(f.Path), f.Ext)
			out = append(out, Surface{
				Name:       name,
				Type:       TypeAuth,
				SourceRefs: []SourceRef{{Path: f.Path, StartLine: 1, EndLine: 1}},
				Detail:     map[string]string{"mechanism": hint},
			})
			break
		}
	}
	return out, nil
}

// configExtractor surfaces configuration artifacts and their keys.
type configExtractor struct{}

func (configExtractor) Type() Type { return TypeConfig }

func (configExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	for _, f := range inv.Files {
		base := filepath.Base(f.Path)
		isEnv := base == ".env.example" || base == ".env.sample"
		isConfigFile := strings.HasPrefix(base, "config.") &&
			(f.Ext == ".json" || f.Ext == ".yaml" || f.Ext == ".yml" || f.Ext == ".toml")
		if !isEnv && !isConfigFile {
			continue
		}
		surf := Surface{
			Name:       base,
			Type:       TypeConfig,
			SourceRefs: []SourceRef{{Path: f.Path, StartLine: 1, EndLine: 1}},
			Detail:     map[string]string{"format": strings.TrimPrefix(f.Ext, ".")},
		}
		if isEnv {
			surf.Detail["format"] = "env"
			if content, err := readWorkingFile(inv, f.Path); err == nil {
				var keys []string
				for _, m := range matchLines(content, envAssignPattern) {
					keys = append(keys, m.groups[0])
				}
				if len(keys) > 0 {
					surf.Detail["keys"] = strings.Join(keys, ",")
				}
			}
		}
		out = append(out, surf)
	}
	return out, nil
}

// crosscuttingExtractor surfaces middleware, logging, and error-handling
// infrastructure directories.
type crosscuttingExtractor struct{}

func (crosscuttingExtractor) Type() Type { return TypeCrosscutting }

var crosscuttingDirs = []string{"middleware", "middlewares", "logging", "interceptors", "errors"}

func (crosscuttingExtractor) Extract(inv *inventory.Inventory) ([]Surface, error) {
	var out []Surface
	seen := make(map[string]struct{})
	for _, f := range inv.Files {
		if _, ok := sourceExts[f.Ext]; !ok {
			continue
		}
		parts := strings.Split(f.Path, "/")
		for _, part := range parts[:max(len(parts)-1, 0)] {
			matched := ""
			for _, dir := range crosscuttingDirs {
				if part == dir {
					matched = dir
					break
				}
			}
			if matched == "" {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(f.Path), f.Ext)
			key := matched + "/" + name
			if _, dup := seen[key]; dup {
				break
			}
			seen[key] = struct{}{}
			out = append(out, Surface{
				Name:       name,
				Type:       TypeCrosscutting,
				SourceRefs: []SourceRef{{Path: f.Path, StartLine: 1, EndLine: 1}},
				Detail:     map[string]string{"concern": matched},
			})
			break
		}
	}
	return out, nil
}

type lineMatch struct {
	line   int // 1-based
	groups []string
}

// matchLines returns every pattern match with its 1-based line number,
// in document order.
func matchLines(content string, pattern *regexp.Regexp) []lineMatch {
	var out []lineMatch
	locs := pattern.FindAllStringSubmatchIndex(content, -1)
	for _, loc := range locs {
		line := 1 + strings.Count(content[:loc[0]], "\n")
		groups := make([]string, 0, len(loc)/2-1)
		for g := 1; g < len(loc)/2; g++ {
			start, end := loc[2*g], loc[2*g+1]
			if start < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, content[start:end])
		}
		out = append(out, lineMatch{line: line, groups: groups})
	}
	return out
}

func readWorkingFile(inv *inventory.Inventory, rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(inv.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
