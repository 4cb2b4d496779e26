package jsonschema

import (
	"encoding/json"
	"strings"
	"testing"

	invopop "github.com/invopop/jsonschema"

	params "github.com/goliatone/go-params"
)

type service struct {
	params.Params
	Workers int
	Mode    string
	Rate    float64
}

func serviceSchema() *params.Schema {
	return params.NewSchema("service",
		params.RequiredField("workers", params.KindInt),
		params.String("mode", "batch"),
		params.Int("window", 30, params.Transient()),
		params.DerivedExpr("rate", params.KindFloat, "workers / 2", params.From("workers")),
		params.Literal("limit", params.Union(params.KindInt, params.KindFloat), 10),
	)
}

func boundRegistry(t *testing.T) *params.Registry {
	t.Helper()
	bound, err := params.Bind[service](serviceSchema())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	return bound.Registry()
}

func TestGenerateDocument(t *testing.T) {
	doc, err := NewGenerator().Generate(boundRegistry(t))
	if err != nil {
		t.Fatalf("unexpected generation error: %v", err)
	}
	if doc.Format != params.SchemaFormatJSONSchema {
		t.Fatalf("expected jsonschema format, got %q", doc.Format)
	}

	schema, ok := doc.Document.(*invopop.Schema)
	if !ok {
		t.Fatalf("expected *jsonschema.Schema document, got %T", doc.Document)
	}
	if schema.Type != "object" || schema.Title != "Config Parameters" {
		t.Fatalf("unexpected document shape: type=%q title=%q", schema.Type, schema.Title)
	}

	// Derived parameters are excluded by default; everything a caller may
	// supply, transient included, is present.
	if _, ok := schema.Properties.Get("rate"); ok {
		t.Fatalf("derived parameter must not be exported by default")
	}
	for _, name := range []string{"workers", "mode", "window", "limit"} {
		if _, ok := schema.Properties.Get(name); !ok {
			t.Fatalf("expected property %q", name)
		}
	}

	if len(schema.Required) != 1 || schema.Required[0] != "workers" {
		t.Fatalf("unexpected required list: %v", schema.Required)
	}

	workers, _ := schema.Properties.Get("workers")
	if workers.Type != "integer" {
		t.Fatalf("expected integer type, got %q", workers.Type)
	}
	mode, _ := schema.Properties.Get("mode")
	if mode.Type != "string" || mode.Default != "batch" {
		t.Fatalf("unexpected mode property: %+v", mode)
	}
	limit, _ := schema.Properties.Get("limit")
	if len(limit.AnyOf) != 2 {
		t.Fatalf("expected union kinds to map to anyOf, got %+v", limit)
	}
}

func TestGenerateIncludesDerivedWhenAsked(t *testing.T) {
	doc, err := NewGenerator(WithDerived(true), WithTitle("Service Config")).Generate(boundRegistry(t))
	if err != nil {
		t.Fatalf("unexpected generation error: %v", err)
	}
	schema := doc.Document.(*invopop.Schema)
	if schema.Title != "Service Config" {
		t.Fatalf("unexpected title: %q", schema.Title)
	}
	rate, ok := schema.Properties.Get("rate")
	if !ok {
		t.Fatalf("expected derived property when included")
	}
	if !rate.ReadOnly || rate.Type != "number" {
		t.Fatalf("expected read-only number property, got %+v", rate)
	}
}

func TestGenerateSerializesToDraft2020(t *testing.T) {
	doc, err := NewGenerator(WithDescription("tuning surface")).Generate(boundRegistry(t))
	if err != nil {
		t.Fatalf("unexpected generation error: %v", err)
	}
	payload, err := json.Marshal(doc.Document)
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	text := string(payload)
	if !strings.Contains(text, "$schema") {
		t.Fatalf("expected $schema marker in output:\n%s", text)
	}
	if !strings.Contains(text, "tuning surface") {
		t.Fatalf("expected description in output:\n%s", text)
	}
}

func TestGenerateHandlesNilRegistry(t *testing.T) {
	doc, err := NewGenerator().Generate(nil)
	if err != nil {
		t.Fatalf("unexpected generation error: %v", err)
	}
	schema := doc.Document.(*invopop.Schema)
	if schema.Properties.Len() != 0 {
		t.Fatalf("expected empty properties for nil registry")
	}
}
