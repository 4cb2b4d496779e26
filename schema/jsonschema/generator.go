// Package jsonschema exports a merged parameter registry as a JSON Schema
// document, the form consumed by external CLI-flag builders and file-based
// override loaders.
package jsonschema

import (
	"strings"

	invopop "github.com/invopop/jsonschema"

	params "github.com/goliatone/go-params"
)

type generatorConfig struct {
	title          string
	description    string
	includeDerived bool
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		title: "Config Parameters",
	}
}

// GeneratorOption configures the JSON Schema generator behaviour.
type GeneratorOption func(*generatorConfig)

// WithTitle overrides the document title.
func WithTitle(title string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title == "" {
			return
		}
		cfg.title = title
	}
}

// WithDescription sets the optional document description.
func WithDescription(description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.description = description
	}
}

// WithDerived includes derived parameters as read-only properties. By
// default only suppliable parameters (stored and transient, not derived)
// are exported, since the document describes what a caller may override.
func WithDerived(include bool) GeneratorOption {
	return func(cfg *generatorConfig) {
		cfg.includeDerived = include
	}
}

type generator struct {
	cfg generatorConfig
}

// NewGenerator constructs a JSON Schema registry generator.
func NewGenerator(opts ...GeneratorOption) params.SchemaGenerator {
	cfg := defaultGeneratorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return generator{cfg: cfg}
}

func (g generator) Generate(registry *params.Registry) (params.SchemaDocument, error) {
	doc := params.SchemaDocument{Format: params.SchemaFormatJSONSchema}

	schema := &invopop.Schema{
		Version:     invopop.Version,
		Title:       g.cfg.title,
		Description: g.cfg.description,
		Type:        "object",
		Properties:  invopop.NewProperties(),
	}
	doc.Document = schema
	if registry == nil {
		return doc, nil
	}

	doc.Target = registry.Target()
	for _, spec := range registry.Specs() {
		if spec.Mode == params.ModeDerived && !g.cfg.includeDerived {
			continue
		}
		property := propertyFor(spec)
		schema.Properties.Set(spec.Name, property)
		if spec.Mode == params.ModeRequired {
			schema.Required = append(schema.Required, spec.Name)
		}
	}
	return doc, nil
}

func propertyFor(spec params.ParameterSpec) *invopop.Schema {
	property := kindSchema(spec.Type)
	property.Description = spec.Description
	if spec.Mode == params.ModeLiteral && spec.Factory == nil {
		property.Default = spec.Default
	}
	if spec.Mode == params.ModeDerived {
		property.ReadOnly = true
	}
	return property
}

func kindSchema(kind params.Kind) *invopop.Schema {
	parts := strings.Split(string(kind), "|")
	if len(parts) == 1 {
		return &invopop.Schema{Type: jsonType(parts[0])}
	}
	schema := &invopop.Schema{}
	for _, part := range parts {
		schema.AnyOf = append(schema.AnyOf, &invopop.Schema{Type: jsonType(part)})
	}
	return schema
}

func jsonType(tag string) string {
	switch params.Kind(strings.TrimSpace(tag)) {
	case params.KindInt:
		return "integer"
	case params.KindFloat:
		return "number"
	case params.KindString:
		return "string"
	case params.KindBool:
		return "boolean"
	case params.KindNested:
		return "object"
	default:
		return "string"
	}
}
