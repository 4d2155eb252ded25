package tuning

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ApplyOverrides assigns dotted-path overrides (e.g. "farm.pump_rate": 8)
// onto t. Each path is rebuilt as a nested document and merged through the
// YAML decoder so the same field names and coercions apply as when loading
// a file. Unknown paths are rejected.
func (t *Tuning) ApplyOverrides(overrides map[string]any) error {
	for path, value := range overrides {
		segs := strings.Split(path, ".")
		if len(segs) < 2 {
			return fmt.Errorf("override %q: want group.field", path)
		}
		doc := nest(segs, value)
		raw, err := yaml.Marshal(doc)
		if err != nil {
			return fmt.Errorf("override %q: %w", path, err)
		}
		var probe Tuning
		dec := yaml.NewDecoder(strings.NewReader(string(raw)))
		dec.KnownFields(true)
		if err := dec.Decode(&probe); err != nil {
			return fmt.Errorf("override %q: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, t); err != nil {
			return fmt.Errorf("override %q: %w", path, err)
		}
	}
	return nil
}

func nest(segs []string, value any) map[string]any {
	if len(segs) == 1 {
		return map[string]any{segs[0]: value}
	}
	return map[string]any{segs[0]: nest(segs[1:], value)}
}
