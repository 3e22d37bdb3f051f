package scenario

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"mirage/core"
)

// templateSchema validates externally supplied catalog files before any
// field is trusted. Durations are Go duration strings ("4h", "90m").
const templateSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["templates"],
  "properties": {
    "templates": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "type", "threat_actors", "stages", "overall"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "type": {"enum": ["apt", "ransomware", "insider", "supply_chain"]},
          "threat_actors": {"type": "array", "minItems": 1, "items": {"type": "string"}},
          "objectives": {"type": "array", "items": {"type": "string"}},
          "overall": {"$ref": "#/definitions/durationRange"},
          "stages": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["name", "tactic", "techniques", "duration"],
              "properties": {
                "name": {"type": "string", "minLength": 1},
                "tactic": {"type": "string", "pattern": "^TA[0-9]{4}$"},
                "techniques": {"type": "array", "minItems": 1, "items": {"type": "string", "pattern": "^T[0-9]{4}(\\.[0-9]{3})?$"}},
                "objectives": {"type": "array", "items": {"type": "string"}},
                "duration": {"$ref": "#/definitions/durationRange"}
              }
            }
          }
        }
      }
    }
  },
  "definitions": {
    "durationRange": {
      "type": "object",
      "required": ["min", "max"],
      "properties": {
        "min": {"type": "string", "pattern": "^[0-9]+(ns|us|ms|s|m|h)$"},
        "max": {"type": "string", "pattern": "^[0-9]+(ns|us|ms|s|m|h)$"}
      }
    }
  }
}`

// YAML-facing shapes. Durations stay strings until schema validation passes.
type catalogFile struct {
	Templates []templateFile `yaml:"templates" json:"templates"`
}

type templateFile struct {
	Name         string          `yaml:"name" json:"name"`
	Type         string          `yaml:"type" json:"type"`
	ThreatActors []string        `yaml:"threat_actors" json:"threat_actors"`
	Objectives   []string        `yaml:"objectives" json:"objectives,omitempty"`
	Overall      rangeFile       `yaml:"overall" json:"overall"`
	Stages       []stageFileSpec `yaml:"stages" json:"stages"`
}

type stageFileSpec struct {
	Name       string    `yaml:"name" json:"name"`
	Tactic     string    `yaml:"tactic" json:"tactic"`
	Techniques []string  `yaml:"techniques" json:"techniques"`
	Objectives []string  `yaml:"objectives" json:"objectives,omitempty"`
	Duration   rangeFile `yaml:"duration" json:"duration"`
}

type rangeFile struct {
	Min string `yaml:"min" json:"min"`
	Max string `yaml:"max" json:"max"`
}

// LoadFile parses a YAML catalog file, validates it against the template
// schema, and registers every template it contains into the catalog.
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}
	return c.Load(data)
}

// Load parses and registers templates from raw YAML
func (c *Catalog) Load(data []byte) error {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	// Validate the document shape before trusting any field
	doc, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to re-encode catalog for validation: %w", err)
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(templateSchema),
		gojsonschema.NewBytesLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("invalid catalog file: %s", strings.Join(problems, "; "))
	}

	for _, tf := range file.Templates {
		tmpl, err := tf.toTemplate()
		if err != nil {
			return err
		}
		c.Register(tmpl)
	}
	return nil
}

func (tf templateFile) toTemplate() (*Template, error) {
	overall, err := tf.Overall.toRange()
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", tf.Name, err)
	}
	tmpl := &Template{
		Name:         tf.Name,
		Type:         core.ScenarioType(tf.Type),
		ThreatActors: tf.ThreatActors,
		Objectives:   tf.Objectives,
		Overall:      overall,
	}
	for _, sf := range tf.Stages {
		dur, err := sf.Duration.toRange()
		if err != nil {
			return nil, fmt.Errorf("template %q stage %q: %w", tf.Name, sf.Name, err)
		}
		tmpl.Stages = append(tmpl.Stages, StageTemplate{
			Name:       sf.Name,
			Tactic:     sf.Tactic,
			Techniques: sf.Techniques,
			Objectives: sf.Objectives,
			Duration:   dur,
		})
	}
	return tmpl, nil
}

func (r rangeFile) toRange() (DurationRange, error) {
	min, err := time.ParseDuration(r.Min)
	if err != nil {
		return DurationRange{}, fmt.Errorf("bad min duration %q: %w", r.Min, err)
	}
	max, err := time.ParseDuration(r.Max)
	if err != nil {
		return DurationRange{}, fmt.Errorf("bad max duration %q: %w", r.Max, err)
	}
	if max < min {
		return DurationRange{}, fmt.Errorf("duration range max %q below min %q", r.Max, r.Min)
	}
	return DurationRange{Min: min, Max: max}, nil
}
