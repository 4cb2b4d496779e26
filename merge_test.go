package params

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMergeDisjointKeepsConcatenatedOrder(t *testing.T) {
	first := NewSchema("base",
		Int("alpha", 1),
		String("beta", "b"),
	)
	second := NewSchema("extra",
		Bool("gamma", true),
		Float("delta", 1.5),
	)

	registry, err := merge([]*Schema{first, second}, false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}

	want := []string{"alpha", "beta", "gamma", "delta"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("merged order mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeOverridesInPlace(t *testing.T) {
	first := NewSchema("base",
		Int("alpha", 1),
		String("beta", "original", WithFieldDoc("original doc")),
		Bool("gamma", false),
	)
	second := NewSchema("override",
		String("beta", "replaced"),
	)

	registry, err := merge([]*Schema{first, second}, false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}

	want := []string{"alpha", "beta", "gamma"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("override must not reorder (-want +got):\n%s", diff)
	}

	spec, ok := registry.Lookup("beta")
	if !ok {
		t.Fatalf("expected beta in merged registry")
	}
	if spec.Default != "replaced" {
		t.Fatalf("expected later default adopted, got %v", spec.Default)
	}
	if spec.Origin != "override" {
		t.Fatalf("expected origin override, got %q", spec.Origin)
	}
	// The override declared no description, so the original one is kept.
	if spec.Description != "original doc" {
		t.Fatalf("expected original description retained, got %q", spec.Description)
	}
}

func TestMergeStorageFlipConflicts(t *testing.T) {
	first := NewSchema("base", Int("alpha", 1))
	second := NewSchema("flip", Int("alpha", 2, Transient()))

	_, err := merge([]*Schema{first, second}, false)
	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SchemaConflictError, got %v", err)
	}
	if conflict.Param != "alpha" || conflict.Origin != "flip" {
		t.Fatalf("unexpected conflict metadata: %+v", conflict)
	}
}

func TestMergeUnknownDeriveSourceConflicts(t *testing.T) {
	schema := NewSchema("base",
		Int("alpha", 1),
		DerivedExpr("beta", KindInt, "alpha * nope", From("alpha", "nope")),
	)

	_, err := merge([]*Schema{schema}, false)
	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SchemaConflictError, got %v", err)
	}
}

func TestMergeDeriveSourceMayComeFromLaterSchema(t *testing.T) {
	// Source existence is checked against the final merged set: a later
	// schema may contribute the parameter an earlier derivation reads,
	// since literals resolve before any derivation runs.
	first := NewSchema("base",
		DerivedExpr("ratio", KindFloat, "seed / 2", From("seed")),
	)
	second := NewSchema("extra", Int("seed", 4))

	registry, err := merge([]*Schema{first, second}, false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}
	want := []string{"ratio", "seed"}
	if diff := cmp.Diff(want, registry.Names()); diff != "" {
		t.Fatalf("merged order mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeStrictModeRejectsDuplicates(t *testing.T) {
	first := NewSchema("base", Int("alpha", 1))
	second := NewSchema("dup", Int("alpha", 2))

	if _, err := merge([]*Schema{first, second}, false); err != nil {
		t.Fatalf("lenient merge should accept overrides: %v", err)
	}

	_, err := merge([]*Schema{first, second}, true)
	var conflict *SchemaConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SchemaConflictError in strict mode, got %v", err)
	}
}

func TestMergeTraceRecordsProvenance(t *testing.T) {
	first := NewSchema("base", Int("alpha", 1))
	second := NewSchema("override", Int("alpha", 2))

	registry, err := merge([]*Schema{first, second}, false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}

	trace, err := registry.Trace("alpha")
	if err != nil {
		t.Fatalf("unexpected trace error: %v", err)
	}
	if len(trace.Origins) != 2 {
		t.Fatalf("expected 2 provenance entries, got %d", len(trace.Origins))
	}
	if trace.Origins[0].Action != ProvenanceDeclared || trace.Origins[0].Origin != "base" {
		t.Fatalf("unexpected first provenance: %+v", trace.Origins[0])
	}
	if trace.Origins[1].Action != ProvenanceOverridden || trace.Origins[1].Origin != "override" {
		t.Fatalf("unexpected second provenance: %+v", trace.Origins[1])
	}

	if _, err := registry.Trace("missing"); err == nil {
		t.Fatalf("expected error tracing unknown parameter")
	}
}

func TestTraceJSONRoundTrip(t *testing.T) {
	trace := Trace{
		Param: "alpha",
		Origins: []Provenance{
			{Origin: "base", Position: 0, Action: ProvenanceDeclared, Mode: ModeLiteral},
			{Origin: "override", Position: 0, Action: ProvenanceOverridden, Mode: ModeLiteral},
		},
	}

	payload, err := trace.ToJSON()
	if err != nil {
		t.Fatalf("unexpected marshal error: %v", err)
	}
	restored, err := TraceFromJSON(payload)
	if err != nil {
		t.Fatalf("unexpected unmarshal error: %v", err)
	}
	if diff := cmp.Diff(trace, restored); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	build := func() []*Schema {
		return []*Schema{
			NewSchema("base", Int("alpha", 1), String("beta", "b")),
			NewSchema("extra", Float("gamma", 0.25), Int("alpha", 9)),
		}
	}

	first, err := merge(build(), false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}
	second, err := merge(build(), false)
	if err != nil {
		t.Fatalf("unexpected merge error: %v", err)
	}
	if diff := cmp.Diff(first.Names(), second.Names()); diff != "" {
		t.Fatalf("expected identical order across merges (-first +second):\n%s", diff)
	}
	if first.fingerprint != second.fingerprint {
		t.Fatalf("expected identical fingerprints")
	}
}
