// Package specfile reads schedule envelopes from JSON or YAML files.
package specfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	yaml "go.yaml.in/yaml/v3"

	schedule "github.com/hariom-ql2/schedspec"
)

// Read loads the schedule envelope at path. Files ending in .yaml or .yml
// are YAML; anything else is JSON. defaultZone, when non-empty, fills in a
// missing schedule_data.timezone.
func Read(path, defaultZone string) (schedule.Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	spec, err := Decode(data, filepath.Ext(path), defaultZone)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return spec, nil
}

// Decode parses an envelope; ext selects the format as in Read.
func Decode(data []byte, ext, defaultZone string) (schedule.Spec, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "yaml unmarshal")
		}
		doc = normalizeYAML(doc)
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "json unmarshal")
		}
	}

	env, ok := doc.(map[string]any)
	if !ok {
		return nil, errors.New("schedule file must contain an object")
	}
	if defaultZone != "" {
		fillZone(env, defaultZone)
	}

	b, err := json.Marshal(env)
	if err != nil {
		return nil, errors.Wrap(err, "re-encode schedule")
	}
	return schedule.Unmarshal(b)
}

func fillZone(env map[string]any, zone string) {
	data, ok := env["schedule_data"].(map[string]any)
	if !ok {
		return
	}
	if tz, _ := data["timezone"].(string); tz == "" {
		data["timezone"] = zone
	}
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
