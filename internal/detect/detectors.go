package detect

import (
	"strings"

	"harvester/internal/inventory"
)

// BuiltinDetectors returns the built-in detector set in canonical order.
func BuiltinDetectors() []Detector {
	return []Detector{
		markerDetector{
			name: "node",
			rules: []markerRule{
				{base: "package.json", stack: "node", confidence: 0.7},
				{base: "package-lock.json", stack: "node", confidence: 0.3},
				{base: "yarn.lock", stack: "node", confidence: 0.3},
				{ext: ".ts", stack: "typescript", confidence: 0.5},
				{ext: ".tsx", stack: "typescript", confidence: 0.4},
			},
		},
		markerDetector{
			name: "python",
			rules: []markerRule{
				{base: "pyproject.toml", stack: "python", confidence: 0.6},
				{base: "requirements.txt", stack: "python", confidence: 0.5},
				{base: "setup.py", stack: "python", confidence: 0.5},
				{ext: ".py", stack: "python", confidence: 0.3},
			},
		},
		markerDetector{
			name: "go",
			rules: []markerRule{
				{base: "go.mod", stack: "go", confidence: 0.8},
				{ext: ".go", stack: "go", confidence: 0.3},
			},
		},
		markerDetector{
			name: "rust",
			rules: []markerRule{
				{base: "Cargo.toml", stack: "rust", confidence: 0.8},
				{ext: ".rs", stack: "rust", confidence: 0.3},
			},
		},
		markerDetector{
			name: "java",
			rules: []markerRule{
				{base: "pom.xml", stack: "java", confidence: 0.6},
				{base: "build.gradle", stack: "java", confidence: 0.6},
				{ext: ".java", stack: "java", confidence: 0.3},
				{ext: ".kt", stack: "kotlin", confidence: 0.5},
			},
		},
		markerDetector{
			name: "docker",
			rules: []markerRule{
				{base: "Dockerfile", stack: "docker", confidence: 0.7},
				{base: "docker-compose.yml", stack: "docker", confidence: 0.5},
				{base: "docker-compose.yaml", stack: "docker", confidence: 0.5},
			},
		},
		contentDetector{
			name:     "react",
			fileBase: "package.json",
			needles:  []string{`"react"`},
			stack:    "react",
			// A dependency entry is strong evidence on its own; the
			// 0.7 weight clears the default 0.3 threshold alone.
			confidence: 0.7,
		},
		contentDetector{
			name:       "django",
			fileBase:   "requirements.txt",
			needles:    []string{"django", "Django"},
			stack:      "django",
			confidence: 0.6,
		},
		contentDetector{
			name:       "flask",
			fileBase:   "requirements.txt",
			needles:    []string{"flask", "Flask"},
			stack:      "flask",
			confidence: 0.6,
		},
		contentDetector{
			name:       "spring",
			fileBase:   "pom.xml",
			needles:    []string{"springframework"},
			stack:      "spring",
			confidence: 0.6,
		},
		markerDetector{
			name: "database",
			rules: []markerRule{
				{ext: ".sql", stack: "database", confidence: 0.4},
				{base: "schema.sql", stack: "database", confidence: 0.4},
				{dirPart: "migrations", stack: "database", confidence: 0.4},
			},
		},
	}
}

type markerRule struct {
	base       string
	ext        string
	dirPart    string
	stack      string
	confidence float64
}

// markerDetector emits one signal per matched rule, carrying up to five
// matching paths as evidence.
type markerDetector struct {
	name  string
	rules []markerRule
}

func (d markerDetector) Name() string { return d.name }

func (d markerDetector) Detect(inv *inventory.Inventory) ([]Signal, error) {
	var signals []Signal
	for _, rule := range d.rules {
		var evidence []string
		for _, f := range inv.Files {
			if !rule.matches(f) {
				continue
			}
			if len(evidence) < 5 {
				evidence = append(evidence, f.Path)
			}
		}
		if len(evidence) == 0 {
			continue
		}
		signals = append(signals, Signal{
			Stack:      rule.stack,
			Confidence: rule.confidence,
			Evidence:   evidence,
		})
	}
	return signals, nil
}

func (r markerRule) matches(f inventory.FileRecord) bool {
	if r.base != "" {
		return baseName(f.Path) == r.base
	}
	if r.ext != "" {
		return f.Ext == r.ext
	}
	if r.dirPart != "" {
		for _, part := range strings.Split(f.Path, "/") {
			if part == r.dirPart {
				return true
			}
		}
	}
	return false
}

// contentDetector reads a marker file from the working tree and looks
// for dependency needles.
type contentDetector struct {
	name       string
	fileBase   string
	needles    []string
	stack      string
	confidence float64
}

func (d contentDetector) Name() string { return d.name }

func (d contentDetector) Detect(inv *inventory.Inventory) ([]Signal, error) {
	var signals []Signal
	for _, f := range inv.WithBase(d.fileBase) {
		content, err := readInventoryFile(inv, f.Path)
		if err != nil {
			continue
		}
		for _, needle := range d.needles {
			if strings.Contains(content, needle) {
				signals = append(signals, Signal{
					Stack:      d.stack,
					Confidence: d.confidence,
					Evidence:   []string{f.Path},
				})
				break
			}
		}
	}
	return signals, nil
}

func baseName(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}
