package params

import (
	"fmt"
	"reflect"
	"strings"
)

// Registry is the ordered, merged parameter mapping produced for one target
// type at bind time. It is written once by merge and read-only afterwards,
// so concurrent construction needs no locking.
type Registry struct {
	target      string
	origins     []string
	specs       []ParameterSpec
	index       map[string]int
	plan        []hookStep
	traces      map[string][]Provenance
	fingerprint string
}

// hookStep is one entry in the ordered derivation plan: either a per-field
// derivation (specIdx >= 0) or a schema-level hook.
type hookStep struct {
	specIdx int
	origin  string
	fn      SchemaDeriveFunc
	sources []string
}

// merge combines the ordered schema sequence into a single registry.
// First occurrence of a name fixes its position; later occurrences replace
// the spec in place. Storage flips and derivations over unknown sources are
// fatal here, before any instance exists.
func merge(schemas []*Schema, strict bool) (*Registry, error) {
	if len(schemas) == 0 {
		return nil, &InvalidSchemaError{Reason: "no schemas to merge"}
	}

	reg := &Registry{
		index:  map[string]int{},
		traces: map[string][]Provenance{},
	}

	type pendingHook struct {
		origin string
		hook   *schemaHook
	}
	var hooks []pendingHook

	for _, schema := range schemas {
		specs, err := extract(schema)
		if err != nil {
			return nil, err
		}
		reg.origins = append(reg.origins, schema.name)
		if schema.hook != nil {
			hooks = append(hooks, pendingHook{origin: schema.name, hook: schema.hook})
		}

		for _, spec := range specs {
			pos, seen := reg.index[spec.Name]
			if !seen {
				reg.index[spec.Name] = len(reg.specs)
				reg.specs = append(reg.specs, spec.clone())
				reg.traces[spec.Name] = append(reg.traces[spec.Name], Provenance{
					Origin:   spec.Origin,
					Position: len(reg.specs) - 1,
					Action:   ProvenanceDeclared,
					Mode:     spec.Mode,
				})
				continue
			}

			if strict {
				return nil, &SchemaConflictError{
					Param:  spec.Name,
					Origin: spec.Origin,
					Reason: fmt.Sprintf("already declared by %q (strict merge)", reg.specs[pos].Origin),
				}
			}

			existing := reg.specs[pos]
			if existing.Storage != spec.Storage {
				return nil, &SchemaConflictError{
					Param:  spec.Name,
					Origin: spec.Origin,
					Reason: fmt.Sprintf("storage %s from %q conflicts with %s", spec.Storage, existing.Origin, existing.Storage),
				}
			}

			// Override in place: position unchanged, later schema wins the
			// default, derivation, description, and origin.
			override := spec.clone()
			if override.Description == "" {
				override.Description = existing.Description
			}
			reg.specs[pos] = override
			reg.traces[spec.Name] = append(reg.traces[spec.Name], Provenance{
				Origin:   spec.Origin,
				Position: pos,
				Action:   ProvenanceOverridden,
				Mode:     spec.Mode,
			})
		}
	}

	// Every derivation source must name a member of the merged set.
	for _, spec := range reg.specs {
		if spec.Mode != ModeDerived {
			continue
		}
		for _, source := range spec.Sources {
			if _, ok := reg.index[source]; !ok {
				return nil, &SchemaConflictError{
					Param:  spec.Name,
					Origin: spec.Origin,
					Reason: fmt.Sprintf("derivation source %q is not in the merged set", source),
				}
			}
		}
	}
	for _, pending := range hooks {
		for _, source := range pending.hook.sources {
			if _, ok := reg.index[source]; !ok {
				return nil, &SchemaConflictError{
					Origin: pending.origin,
					Reason: fmt.Sprintf("derive hook source %q is not in the merged set", source),
				}
			}
		}
	}

	// Derivation plan: schemas in merge order, each schema's own field
	// derivations first (registry order), then its schema-level hook. An
	// overridden derivation runs at the slot of the schema that now owns it.
	hookByOrigin := map[string]*schemaHook{}
	for _, pending := range hooks {
		hookByOrigin[pending.origin] = pending.hook
	}
	for _, origin := range reg.origins {
		for idx, spec := range reg.specs {
			if spec.Mode != ModeDerived || spec.Origin != origin {
				continue
			}
			if spec.Expr == "" && spec.Derive == nil {
				continue
			}
			reg.plan = append(reg.plan, hookStep{specIdx: idx, origin: origin})
		}
		if hook, ok := hookByOrigin[origin]; ok {
			reg.plan = append(reg.plan, hookStep{
				specIdx: -1,
				origin:  origin,
				fn:      hook.fn,
				sources: hook.sources,
			})
		}
	}

	reg.fingerprint = fingerprintSchemas(schemas, strict)
	return reg, nil
}

// fingerprintSchemas produces a stable identity for a schema set so
// re-binding the same descriptors is recognized as idempotent. Everything
// that shapes the merged registry or its derivation plan participates:
// field shapes, doc text, and hook identity. Go funcs are identified by
// code pointer, so two distinct hook literals never fingerprint alike.
func fingerprintSchemas(schemas []*Schema, strict bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "strict=%t", strict)
	for _, schema := range schemas {
		fmt.Fprintf(&b, ";schema=%s;doc=%s", schema.Name(), schema.doc)
		for _, field := range schema.fields {
			fmt.Fprintf(&b, "|%s:%s:%s:%s:t=%t:src=%s:doc=%s",
				field.name, field.kind, field.mode, field.expr,
				field.transient, strings.Join(field.sources, ","), field.doc)
			if field.mode == ModeLiteral && field.factory == nil {
				fmt.Fprintf(&b, ":def=%v", field.def)
			}
			if field.factory != nil {
				fmt.Fprintf(&b, ":factory=%x", funcIdentity(field.factory))
			}
			if field.derive != nil {
				fmt.Fprintf(&b, ":fn=%x", funcIdentity(field.derive))
			}
		}
		if schema.hook != nil {
			fmt.Fprintf(&b, "|hook=%x:src=%s",
				funcIdentity(schema.hook.fn),
				strings.Join(schema.hook.sources, ","))
		}
	}
	return b.String()
}

func funcIdentity(fn any) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// Len returns the number of merged parameters.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.specs)
}

// Names returns parameter names in registry order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, len(r.specs))
	for i, spec := range r.specs {
		names[i] = spec.Name
	}
	return names
}

// Specs returns copies of the merged parameter specs in registry order.
func (r *Registry) Specs() []ParameterSpec {
	if r == nil {
		return nil
	}
	specs := make([]ParameterSpec, len(r.specs))
	for i, spec := range r.specs {
		specs[i] = spec.clone()
	}
	return specs
}

// Lookup returns the spec registered under name.
func (r *Registry) Lookup(name string) (ParameterSpec, bool) {
	if r == nil {
		return ParameterSpec{}, false
	}
	idx, ok := r.index[name]
	if !ok {
		return ParameterSpec{}, false
	}
	return r.specs[idx].clone(), true
}

// Target returns the label of the bound target type.
func (r *Registry) Target() string {
	if r == nil {
		return ""
	}
	return r.target
}

// Origins returns the schema names that contributed, in merge order.
func (r *Registry) Origins() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.origins...)
}
