package params

import (
	"fmt"
	"reflect"
	"strings"
)

// ParamInfo is the uniform, ordered description of one stored parameter as
// returned by ShowConfigParams and consumed by external CLI and file
// layers.
type ParamInfo struct {
	Name        string `json:"name"`
	Type        Kind   `json:"type"`
	Required    bool   `json:"required"`
	Derived     bool   `json:"derived"`
	Transient   bool   `json:"transient"`
	Default     any    `json:"default,omitempty"`
	Resolved    bool   `json:"resolved"`
	Value       any    `json:"value,omitempty"`
	Description string `json:"description,omitempty"`
}

// ShowConfigParams returns the ordered, described parameter list for a
// bound type or a constructed instance.
//
// Class level (a reflect.Type, a nil pointer, a *Registry, or a Bound
// handle): values are class defaults; required and derived entries have no
// concrete value. Instance level (a value embedding a populated Params):
// values are the instance snapshot's resolved values, always concrete.
// Only stored parameters are listed; ordering and descriptions are
// identical in both modes.
func ShowConfigParams(target any) ([]ParamInfo, error) {
	registry, values, err := introspectionState(target)
	if err != nil {
		return nil, err
	}

	infos := make([]ParamInfo, 0, registry.Len())
	for _, spec := range registry.specs {
		if spec.Storage != StorageStored {
			continue
		}
		info := ParamInfo{
			Name:        spec.Name,
			Type:        spec.Type,
			Required:    spec.Mode == ModeRequired,
			Derived:     spec.Mode == ModeDerived,
			Description: spec.Description,
		}
		if spec.Mode == ModeLiteral && spec.Factory == nil {
			info.Default = spec.Default
		}
		if values != nil {
			if value, ok := values[spec.Name]; ok {
				info.Resolved = true
				info.Value = value
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// FormatConfigParams renders the ShowConfigParams view as stable text, one
// parameter per line in registry order. Class-level required and derived
// entries show a placeholder instead of a concrete value.
func FormatConfigParams(target any) (string, error) {
	infos, err := ShowConfigParams(target)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, info := range infos {
		fmt.Fprintf(&b, "%s (%s) = %s", info.Name, info.Type, renderValue(info))
		if info.Description != "" {
			fmt.Fprintf(&b, "  %s", info.Description)
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func renderValue(info ParamInfo) string {
	if info.Resolved {
		return formatScalar(info.Value)
	}
	switch {
	case info.Required:
		return "<required>"
	case info.Derived:
		return "<derived>"
	case info.Default == nil:
		return "<factory>"
	default:
		return formatScalar(info.Default)
	}
}

func formatScalar(value any) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", value)
}

// registryHandle lets Bound values participate in introspection without
// the caller naming the type parameter.
type registryHandle interface {
	Registry() *Registry
}

func introspectionState(target any) (*Registry, map[string]any, error) {
	switch v := target.(type) {
	case nil:
		return nil, nil, fmt.Errorf("params: introspection target is nil")
	case *Registry:
		if v == nil {
			return nil, nil, fmt.Errorf("params: introspection target is nil")
		}
		return v, nil, nil
	case reflect.Type:
		registry, ok := defaultStore.lookup(derefType(v))
		if !ok {
			return nil, nil, fmt.Errorf("params: type %s is not bound", v)
		}
		return registry, nil, nil
	}

	if handle, ok := target.(registryHandle); ok {
		if registry := handle.Registry(); registry != nil {
			return registry, nil, nil
		}
	}

	rv := reflect.ValueOf(target)
	isNilPointer := rv.Kind() == reflect.Pointer && rv.IsNil()
	if !isNilPointer {
		if carrier, ok := target.(snapshotCarrier); ok && carrier.populated() {
			registry, values := carrier.snapshotState()
			return registry, values, nil
		}
	}

	t := derefType(reflect.TypeOf(target))
	registry, ok := defaultStore.lookup(t)
	if !ok {
		return nil, nil, fmt.Errorf("params: type %s is not bound", t)
	}
	return registry, nil, nil
}
