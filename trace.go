package params

import (
	"encoding/json"
	"fmt"
)

// Provenance actions recorded during merging.
const (
	ProvenanceDeclared   = "declared"
	ProvenanceOverridden = "overridden"
)

// Trace captures how the merged registry arrived at a parameter's spec:
// which schema declared it and which later schemas overrode it in place.
type Trace struct {
	Param   string       `json:"param"`
	Origins []Provenance `json:"origins"`
}

// Provenance details one schema's contribution to a traced parameter.
type Provenance struct {
	Origin   string      `json:"origin"`
	Position int         `json:"position"`
	Action   string      `json:"action"`
	Mode     DefaultMode `json:"mode"`
}

// Trace returns the merge provenance recorded for name.
func (r *Registry) Trace(name string) (Trace, error) {
	if r == nil {
		return Trace{}, fmt.Errorf("params: registry is nil")
	}
	origins, ok := r.traces[name]
	if !ok {
		return Trace{}, fmt.Errorf("params: parameter %q not in registry", name)
	}
	return Trace{
		Param:   name,
		Origins: append([]Provenance(nil), origins...),
	}, nil
}

// ToJSON serialises the trace for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a payload previously generated via ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
