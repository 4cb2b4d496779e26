package params

import (
	"errors"
	"testing"
)

func TestExtractClassifiesFields(t *testing.T) {
	schema := NewSchema("optimizer",
		RequiredField("seed", KindInt, Transient()),
		String("label", "label"),
		Float("rate", 0.5),
		DerivedExpr("ratio", KindFloat, "seed / 3", From("seed")),
	)

	specs, err := extract(schema)
	if err != nil {
		t.Fatalf("unexpected extraction error: %v", err)
	}
	if len(specs) != 4 {
		t.Fatalf("expected 4 specs, got %d", len(specs))
	}

	want := []struct {
		name    string
		mode    DefaultMode
		storage Storage
	}{
		{"seed", ModeRequired, StorageTransient},
		{"label", ModeLiteral, StorageStored},
		{"rate", ModeLiteral, StorageStored},
		{"ratio", ModeDerived, StorageStored},
	}
	for i, expected := range want {
		spec := specs[i]
		if spec.Name != expected.name {
			t.Fatalf("spec %d: expected name %q, got %q", i, expected.name, spec.Name)
		}
		if spec.Mode != expected.mode {
			t.Fatalf("spec %q: expected mode %s, got %s", spec.Name, expected.mode, spec.Mode)
		}
		if spec.Storage != expected.storage {
			t.Fatalf("spec %q: expected storage %s, got %s", spec.Name, expected.storage, spec.Storage)
		}
		if spec.Origin != "optimizer" {
			t.Fatalf("spec %q: expected origin optimizer, got %q", spec.Name, spec.Origin)
		}
	}
}

func TestExtractDocDescriptions(t *testing.T) {
	doc := `Optimizer parameters.

Parameters:
    seed: Base seed feeding derived values.
    label: Display label shown in summaries,
        wrapped onto a second line.
`
	schema := NewSchema("optimizer",
		RequiredField("seed", KindInt),
		String("label", "label"),
		Int("undocumented", 1),
	).Configure(WithSchemaDoc(doc))

	specs, err := extract(schema)
	if err != nil {
		t.Fatalf("unexpected extraction error: %v", err)
	}
	if got := specs[0].Description; got != "Base seed feeding derived values." {
		t.Fatalf("unexpected seed description: %q", got)
	}
	if got := specs[1].Description; got != "Display label shown in summaries, wrapped onto a second line." {
		t.Fatalf("expected continuation lines folded, got %q", got)
	}
	if got := specs[2].Description; got != "" {
		t.Fatalf("expected undocumented parameter to default to empty description, got %q", got)
	}
}

func TestExtractFieldDocWinsOverSchemaDoc(t *testing.T) {
	schema := NewSchema("optimizer",
		String("label", "label", WithFieldDoc("explicit doc")),
	).Configure(WithSchemaDoc("Parameters:\n    label: parsed doc\n"))

	specs, err := extract(schema)
	if err != nil {
		t.Fatalf("unexpected extraction error: %v", err)
	}
	if got := specs[0].Description; got != "explicit doc" {
		t.Fatalf("expected field doc to win, got %q", got)
	}
}

func TestExtractMalformedDocDegrades(t *testing.T) {
	schema := NewSchema("optimizer",
		RequiredField("seed", KindInt),
	).Configure(WithSchemaDoc("Parameters:\n    this line has no usable entry\n"))

	specs, err := extract(schema)
	if err != nil {
		t.Fatalf("malformed doc must not fail extraction: %v", err)
	}
	if specs[0].Description != "" {
		t.Fatalf("expected empty description, got %q", specs[0].Description)
	}
}

func TestExtractValidation(t *testing.T) {
	cases := []struct {
		name   string
		schema *Schema
	}{
		{"nil schema", nil},
		{"unnamed schema", NewSchema("", Int("n", 1))},
		{"no fields", NewSchema("empty")},
		{"empty field name", NewSchema("s", Int("", 1))},
		{"duplicate field", NewSchema("s", Int("n", 1), Int("n", 2))},
		{"derived without derivation", NewSchema("s", Derived("d", KindInt))},
		{"derived with expr and func", NewSchema("s",
			func() Field {
				f := DerivedExpr("d", KindInt, "1 + 1")
				f.derive = func(map[string]any) (any, error) { return 2, nil }
				return f
			}(),
		)},
		{"hook with undeclared source", NewSchema("s",
			Int("n", 1),
		).Configure(WithDeriveHook(func(map[string]any) (map[string]any, error) {
			return nil, nil
		}, "missing"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := extract(tc.schema)
			var invalid *InvalidSchemaError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidSchemaError, got %v", err)
			}
		})
	}
}

func TestExtractSchemaHookDerivedInheritsSources(t *testing.T) {
	schema := NewSchema("s",
		Int("base", 2),
		Derived("double", KindInt),
	).Configure(WithDeriveHook(func(src map[string]any) (map[string]any, error) {
		return map[string]any{"double": src["base"].(int) * 2}, nil
	}, "base"))

	specs, err := extract(schema)
	if err != nil {
		t.Fatalf("unexpected extraction error: %v", err)
	}
	if got := specs[1].Sources; len(got) != 1 || got[0] != "base" {
		t.Fatalf("expected hook sources to be inherited, got %v", got)
	}
}

func TestParseDocParams(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want map[string]string
	}{
		{"no block", "just prose\nno parameters here", nil},
		{"empty doc", "", nil},
		{
			"args heading",
			"Args:\n  n: count of things\n",
			map[string]string{"n": "count of things"},
		},
		{
			"block ends at blank line",
			"Parameters:\n  a: first\n\n  b: not parsed\n",
			map[string]string{"a": "first"},
		},
		{
			"name with space is skipped",
			"Parameters:\n  not a name: text\n  b: second\n",
			map[string]string{"b": "second"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseDocParams(tc.doc)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for name, text := range tc.want {
				if got[name] != text {
					t.Fatalf("param %q: expected %q, got %q", name, text, got[name])
				}
			}
		})
	}
}
