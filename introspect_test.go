package params

import (
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type tuner struct {
	Params
	Rate  float64
	Label string
	Ratio float64
}

func tunerSchema() *Schema {
	return NewSchema("tuner",
		RequiredField("rate", KindFloat),
		String("label", "default-label"),
		Int("window", 5, Transient()),
		DerivedExpr("ratio", KindFloat, "rate * 2", From("rate")),
	).Configure(WithSchemaDoc(`Tuning knobs.

Parameters:
    rate: sampling rate in hertz
    label: human readable tag
    ratio: twice the sampling rate
`))
}

func TestShowConfigParamsClassLevel(t *testing.T) {
	defaultStore.reset()

	bound, err := Bind[tuner](tunerSchema())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	infos, err := ShowConfigParams(bound.Registry())
	if err != nil {
		t.Fatalf("unexpected introspection error: %v", err)
	}

	want := []ParamInfo{
		{Name: "rate", Type: KindFloat, Required: true, Description: "sampling rate in hertz"},
		{Name: "label", Type: KindString, Default: "default-label", Description: "human readable tag"},
		{Name: "ratio", Type: KindFloat, Derived: true, Description: "twice the sampling rate"},
	}
	if diff := cmp.Diff(want, infos); diff != "" {
		t.Fatalf("class-level view mismatch (-want +got):\n%s", diff)
	}
}

func TestShowConfigParamsInstanceLevel(t *testing.T) {
	defaultStore.reset()

	bound, err := Bind[tuner](tunerSchema())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}
	instance, err := bound.New(map[string]any{"rate": 2.5})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}

	classInfos, err := ShowConfigParams(bound.Registry())
	if err != nil {
		t.Fatalf("unexpected class introspection error: %v", err)
	}
	instanceInfos, err := ShowConfigParams(instance)
	if err != nil {
		t.Fatalf("unexpected instance introspection error: %v", err)
	}

	if len(instanceInfos) != len(classInfos) {
		t.Fatalf("expected identical parameter counts, got %d vs %d", len(instanceInfos), len(classInfos))
	}
	for i := range classInfos {
		if instanceInfos[i].Name != classInfos[i].Name {
			t.Fatalf("ordering differs at %d: %q vs %q", i, instanceInfos[i].Name, classInfos[i].Name)
		}
		if instanceInfos[i].Description != classInfos[i].Description {
			t.Fatalf("descriptions differ for %q", classInfos[i].Name)
		}
		if !instanceInfos[i].Resolved {
			t.Fatalf("expected %q to be resolved at instance level", instanceInfos[i].Name)
		}
	}

	byName := map[string]ParamInfo{}
	for _, info := range instanceInfos {
		byName[info.Name] = info
	}
	if byName["rate"].Value != 2.5 {
		t.Fatalf("unexpected rate value: %v", byName["rate"].Value)
	}
	if byName["ratio"].Value != 5.0 {
		t.Fatalf("unexpected ratio value: %v", byName["ratio"].Value)
	}
	if _, ok := byName["window"]; ok {
		t.Fatalf("transient parameters must not appear in the view")
	}
}

func TestShowConfigParamsNilPointerUsesClassView(t *testing.T) {
	defaultStore.reset()

	if _, err := Bind[tuner](tunerSchema()); err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	infos, err := ShowConfigParams((*tuner)(nil))
	if err != nil {
		t.Fatalf("unexpected introspection error: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 stored parameters, got %d", len(infos))
	}
	if infos[0].Resolved {
		t.Fatalf("class view must not report resolved values")
	}
}

func TestShowConfigParamsByReflectType(t *testing.T) {
	defaultStore.reset()

	if _, err := Bind[tuner](tunerSchema()); err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	infos, err := ShowConfigParams(reflect.TypeOf(tuner{}))
	if err != nil {
		t.Fatalf("unexpected introspection error: %v", err)
	}
	if len(infos) != 3 || infos[0].Name != "rate" {
		t.Fatalf("unexpected view: %+v", infos)
	}
}

func TestShowConfigParamsUnboundType(t *testing.T) {
	defaultStore.reset()

	type stranger struct{ Params }
	if _, err := ShowConfigParams((*stranger)(nil)); err == nil {
		t.Fatalf("expected error for unbound type")
	}
}

func TestFormatConfigParams(t *testing.T) {
	defaultStore.reset()

	bound, err := Bind[tuner](tunerSchema())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	text, err := FormatConfigParams(bound.Registry())
	if err != nil {
		t.Fatalf("unexpected format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	want := []string{
		"rate (float) = <required>  sampling rate in hertz",
		`label (string) = "default-label"  human readable tag`,
		"ratio (float) = <derived>  twice the sampling rate",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Fatalf("formatted view mismatch (-want +got):\n%s", diff)
	}

	instance, err := bound.New(map[string]any{"rate": 1.5, "label": "live"})
	if err != nil {
		t.Fatalf("unexpected construction error: %v", err)
	}
	text, err = FormatConfigParams(instance)
	if err != nil {
		t.Fatalf("unexpected format error: %v", err)
	}
	if !strings.Contains(text, `label (string) = "live"`) {
		t.Fatalf("expected instance value in output, got:\n%s", text)
	}
	if !strings.Contains(text, "ratio (float) = 3") {
		t.Fatalf("expected derived value in output, got:\n%s", text)
	}
}

func TestRegistryForLooksUpBoundTypes(t *testing.T) {
	defaultStore.reset()

	bound, err := Bind[tuner](tunerSchema())
	if err != nil {
		t.Fatalf("unexpected bind error: %v", err)
	}

	registry, ok := RegistryFor(&tuner{})
	if !ok {
		t.Fatalf("expected lookup to succeed for a bound type")
	}
	if registry != bound.Registry() {
		t.Fatalf("expected the shared class registry")
	}

	type unbound struct{}
	if _, ok := RegistryFor(unbound{}); ok {
		t.Fatalf("expected lookup to fail for an unbound type")
	}
}
