package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// fileSchema is the top-level structure of a classify.yaml file.
// Either section may be omitted; the built-in defaults are kept for it.
type fileSchema struct {
	NonHTTPPorts []int  `yaml:"non_http_ports,omitempty"`
	Rules        []Rule `yaml:"rules,omitempty"`
}

// Loader reads classification data from a YAML file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for the given file path.
func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Load parses the file and returns a Table. Sections missing from the
// file fall back to the built-in defaults, so a file may override just
// the port list or just the rules.
func (l *Loader) Load() (*Table, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var schema fileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to parse rules yaml: %w", err)
	}

	for i, r := range schema.Rules {
		if r.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		if len(r.Ports) == 0 && r.TitleContains == "" {
			return nil, fmt.Errorf("rule %d (%s): needs ports or title_contains", i, r.Name)
		}
	}

	rules := schema.Rules
	if rules == nil {
		rules = defaultRules
	}
	ports := schema.NonHTTPPorts
	if ports == nil {
		ports = defaultNonHTTPPorts
	}

	return NewTable(rules, ports), nil
}
