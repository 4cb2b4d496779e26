package params

import "fmt"

// extract normalizes one schema descriptor into an ordered ParameterSpec
// list. Declaration order is preserved; it fixes registry iteration order
// downstream. Shape violations surface as InvalidSchemaError at extraction
// time so binding fails before any registry entry exists.
func extract(s *Schema) ([]ParameterSpec, error) {
	if s == nil {
		return nil, &InvalidSchemaError{Reason: "schema is nil"}
	}
	if s.name == "" {
		return nil, &InvalidSchemaError{Reason: "schema must be named"}
	}
	if len(s.fields) == 0 {
		return nil, &InvalidSchemaError{Schema: s.name, Reason: "schema declares no parameters"}
	}

	descriptions := parseDocParams(s.doc)
	seen := make(map[string]struct{}, len(s.fields))
	specs := make([]ParameterSpec, 0, len(s.fields))

	for _, field := range s.fields {
		if field.name == "" {
			return nil, &InvalidSchemaError{Schema: s.name, Reason: "parameter with empty name"}
		}
		if _, dup := seen[field.name]; dup {
			return nil, &InvalidSchemaError{
				Schema: s.name,
				Reason: fmt.Sprintf("parameter %q declared twice", field.name),
			}
		}
		seen[field.name] = struct{}{}

		spec, err := classify(s, field)
		if err != nil {
			return nil, err
		}
		if spec.Description == "" {
			spec.Description = descriptions[spec.Name]
		}
		specs = append(specs, spec)
	}

	if s.hook != nil {
		for _, source := range s.hook.sources {
			if _, ok := seen[source]; !ok {
				return nil, &InvalidSchemaError{
					Schema: s.name,
					Reason: fmt.Sprintf("derive hook depends on undeclared parameter %q", source),
				}
			}
		}
	}

	return specs, nil
}

func classify(s *Schema, field Field) (ParameterSpec, error) {
	spec := ParameterSpec{
		Name:        field.name,
		Type:        field.kind,
		Mode:        field.mode,
		Default:     field.def,
		Factory:     field.factory,
		Sources:     append([]string(nil), field.sources...),
		Expr:        field.expr,
		Derive:      field.derive,
		Storage:     StorageStored,
		Description: field.doc,
		Origin:      s.name,
	}
	if field.transient {
		spec.Storage = StorageTransient
	}

	switch field.mode {
	case ModeRequired:
		// No default to carry.
	case ModeLiteral:
		if spec.Factory != nil {
			spec.Default = nil
		}
	case ModeDerived:
		if spec.Expr != "" && spec.Derive != nil {
			return ParameterSpec{}, &InvalidSchemaError{
				Schema: s.name,
				Reason: fmt.Sprintf("derived parameter %q declares both an expression and a func hook", field.name),
			}
		}
		if spec.Expr == "" && spec.Derive == nil {
			if s.hook == nil {
				return ParameterSpec{}, &InvalidSchemaError{
					Schema: s.name,
					Reason: fmt.Sprintf("derived parameter %q has no derivation and the schema has no derive hook", field.name),
				}
			}
			// Populated by the schema-level hook; dependencies come from the
			// hook's declared sources.
			if len(spec.Sources) == 0 {
				spec.Sources = append([]string(nil), s.hook.sources...)
			}
		}
	default:
		return ParameterSpec{}, &InvalidSchemaError{
			Schema: s.name,
			Reason: fmt.Sprintf("parameter %q has unknown default mode %q", field.name, field.mode),
		}
	}

	return spec, nil
}
