package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a catalogue file in JSON or YAML form.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes a catalogue document. JSON is tried first, then YAML; source is only used
// in error messages.
func Parse(data []byte, source string) (Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Catalog{}, fmt.Errorf("catalog: file %s is empty", source)
	}

	var cat Catalog
	if err := json.Unmarshal(data, &cat); err == nil {
		return cat, nil
	}

	cat = Catalog{}
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("catalog: parse %s: %w", source, err)
	}
	return cat, nil
}

// LoadValues reads a flat placeholder -> value mapping from a JSON or YAML file.
// Non-string scalars are rendered with their YAML text, so `WEIGHT: 12.5` becomes "12.5".
func LoadValues(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read values %s: %w", path, err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("catalog: parse values %s: %w", path, err)
	}
	values := make(Values)
	if len(node.Content) == 0 {
		return values, nil
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("catalog: values %s: expected a mapping", path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("catalog: values %s: %q is not a scalar", path, key.Value)
		}
		values[key.Value] = val.Value
	}
	return values, nil
}

// MarshalValues renders a value mapping as YAML with keys in sorted order.
func MarshalValues(values Values) ([]byte, error) {
	return yaml.Marshal(map[string]string(values))
}
