package params

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-params/internal/coerce"
	"github.com/goliatone/go-params/internal/deepmerge"
	"github.com/goliatone/go-params/pkg/audit"
)

// New allocates a T, resolves the merged parameters against args, injects
// stored values as struct fields, forwards pass-through arguments to the
// target's own Init when implemented, and records the instance snapshot.
// All fatal errors surface before any attribute is set.
func (b *Bound[T]) New(args map[string]any) (*T, error) {
	target := new(T)
	if err := b.apply(target, args, audit.VerbConstruct); err != nil {
		return nil, err
	}
	return target, nil
}

// Apply performs the same injection as New on a caller-allocated target.
func (b *Bound[T]) Apply(target *T, args map[string]any) error {
	return b.apply(target, args, audit.VerbConstruct)
}

// Reapply is the explicit re-resolve: it discards the previous snapshot
// and resolves the instance again with the given arguments.
func (b *Bound[T]) Reapply(target *T, args map[string]any) error {
	return b.apply(target, args, audit.VerbReapply)
}

// Resolve runs partitioning and value resolution without touching any
// instance. It returns the full resolved mapping (stored and transient)
// and the pass-through remainder; external layers use it to stage override
// values at constructor precedence.
func (b *Bound[T]) Resolve(args map[string]any) (map[string]any, map[string]any, error) {
	recognized, passthrough := b.partition(args)
	resolved, err := b.resolveValues(recognized)
	if err != nil {
		return nil, nil, err
	}
	return resolved, passthrough, nil
}

func (b *Bound[T]) apply(target *T, args map[string]any, verb string) error {
	if b == nil || b.registry == nil {
		return &InvalidSchemaError{Reason: "bound handle is not initialized"}
	}
	if target == nil {
		return fmt.Errorf("params: target must not be nil")
	}

	recognized, passthrough := b.partition(args)

	// Unknown arguments must fail before any attribute is set.
	_, hasInit := any(target).(Initializer)
	if !hasInit && len(passthrough) > 0 {
		names := make([]string, 0, len(passthrough))
		for name := range passthrough {
			names = append(names, name)
		}
		sort.Strings(names)
		return fmt.Errorf("params: unknown arguments [%s] for %s",
			strings.Join(names, ", "), b.registry.Target())
	}

	resolved, err := b.resolveValues(recognized)
	if err != nil {
		return err
	}

	rv := reflect.ValueOf(target).Elem()
	if err := b.injectStored(rv, resolved); err != nil {
		return err
	}

	snapshotID := uuid.NewString()
	if carrier := paramsCarrier(rv); carrier != nil {
		carrier.setSnapshot(b.registry, snapshotID, snapshotValues(resolved))
	}

	if init, ok := any(target).(Initializer); ok {
		if err := init.Init(passthrough); err != nil {
			return err
		}
	}

	if b.cfg.auditHooks.Enabled() {
		_ = b.cfg.auditHooks.Notify(context.Background(), audit.Event{
			Verb:       verb,
			Target:     b.registry.Target(),
			Schemas:    b.registry.Origins(),
			SnapshotID: snapshotID,
		})
	}
	return nil
}

// partition splits args into registry-recognized names and pass-through
// arguments forwarded unchanged to the target's own initializer.
func (b *Bound[T]) partition(args map[string]any) (recognized, passthrough map[string]any) {
	recognized = map[string]any{}
	passthrough = map[string]any{}
	for name, value := range args {
		if _, ok := b.registry.index[name]; ok {
			recognized[name] = value
			continue
		}
		passthrough[name] = value
	}
	return recognized, passthrough
}

// resolveValues computes the resolved value for every registry parameter:
// supplied overrides first, then literals, then the ordered derivation
// plan. Required parameters missing a value fail before any hook runs.
func (b *Bound[T]) resolveValues(recognized map[string]any) (map[string]any, error) {
	values := make(map[string]any, b.registry.Len())
	supplied := make(map[string]struct{}, len(recognized))

	for _, spec := range b.registry.specs {
		if raw, ok := recognized[spec.Name]; ok {
			value, err := b.suppliedValue(spec, raw)
			if err != nil {
				return nil, err
			}
			values[spec.Name] = value
			supplied[spec.Name] = struct{}{}
			continue
		}

		switch spec.Mode {
		case ModeRequired:
			return nil, &MissingParameterError{
				Param:  spec.Name,
				Target: b.registry.Target(),
			}
		case ModeLiteral:
			value, err := literalValue(spec)
			if err != nil {
				return nil, err
			}
			values[spec.Name] = value
		case ModeDerived:
			// Deferred to the derivation plan.
		}
	}

	if err := b.runDerivations(values, supplied); err != nil {
		return nil, err
	}

	// Every derived parameter must have been produced by some hook.
	for _, spec := range b.registry.specs {
		if spec.Mode != ModeDerived {
			continue
		}
		if _, ok := values[spec.Name]; !ok {
			return nil, &SchemaConflictError{
				Param:  spec.Name,
				Origin: spec.Origin,
				Reason: "no derivation hook produced a value",
			}
		}
	}
	return values, nil
}

func (b *Bound[T]) suppliedValue(spec ParameterSpec, raw any) (any, error) {
	if spec.Type == KindNested && spec.Mode == ModeLiteral && spec.Default != nil {
		raw = deepmerge.Merge(raw, spec.Default)
	}
	value, err := coerce.To(raw, string(spec.Type))
	if err != nil {
		return nil, fmt.Errorf("params: argument %q for %s: %w", spec.Name, b.registry.Target(), err)
	}
	return value, nil
}

func literalValue(spec ParameterSpec) (any, error) {
	if spec.Factory != nil {
		return coerceDefault(spec, spec.Factory())
	}
	return coerceDefault(spec, deepmerge.Clone(spec.Default))
}

func coerceDefault(spec ParameterSpec, value any) (any, error) {
	out, err := coerce.To(value, string(spec.Type))
	if err != nil {
		return nil, fmt.Errorf("params: default for %q: %w", spec.Name, err)
	}
	return out, nil
}

// runDerivations executes the ordered hook plan: each schema's field
// derivations followed by its schema-level hook, in merge order. A source
// that is still unresolved at hook time is a circular or forward
// dependency and fails the construction.
func (b *Bound[T]) runDerivations(values map[string]any, supplied map[string]struct{}) error {
	for _, step := range b.registry.plan {
		if step.specIdx >= 0 {
			if err := b.runFieldDerivation(b.registry.specs[step.specIdx], values, supplied); err != nil {
				return err
			}
			continue
		}
		if err := b.runSchemaHook(step, values, supplied); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bound[T]) runFieldDerivation(spec ParameterSpec, values map[string]any, supplied map[string]struct{}) error {
	if _, ok := supplied[spec.Name]; ok {
		// Supplied overrides win; the hook is skipped.
		return nil
	}
	src, err := b.sourceValues(spec.Name, spec.Origin, spec.Sources, values)
	if err != nil {
		return err
	}

	var (
		result any
		engine string
	)
	start := time.Now()
	switch {
	case spec.Derive != nil:
		engine = "func"
		result, err = spec.Derive(src)
	default:
		engine = engineName(b.evaluator)
		ctx := DeriveContext{
			Params:   values,
			Target:   b.registry.Target(),
			Param:    spec.Name,
			Metadata: b.cfg.metadata,
		}
		if rule, ok := b.compiled[spec.Name]; ok {
			result, err = rule.Evaluate(ctx)
		} else {
			result, err = b.evaluator.Evaluate(ctx, spec.Expr)
		}
	}
	duration := time.Since(start)

	err = wrapDerivationError(engine, spec.Expr, spec.Name, b.registry.Target(), err)
	b.cfg.deriveLogger().LogDerivation(DeriveLogEvent{
		Engine:   engine,
		Expr:     spec.Expr,
		Param:    spec.Name,
		Target:   b.registry.Target(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return err
	}

	coerced, err := coerce.To(result, string(spec.Type))
	if err != nil {
		return wrapDerivationError(engine, spec.Expr, spec.Name, b.registry.Target(), err)
	}
	values[spec.Name] = coerced
	return nil
}

func (b *Bound[T]) runSchemaHook(step hookStep, values map[string]any, supplied map[string]struct{}) error {
	src, err := b.sourceValues("", step.origin, step.sources, values)
	if err != nil {
		return err
	}

	start := time.Now()
	out, err := step.fn(src)
	duration := time.Since(start)

	err = wrapDerivationError("func", "", "", b.registry.Target(), err)
	b.cfg.deriveLogger().LogDerivation(DeriveLogEvent{
		Engine:   "func",
		Target:   b.registry.Target(),
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return err
	}

	for name, value := range out {
		idx, ok := b.registry.index[name]
		if !ok || b.registry.specs[idx].Mode != ModeDerived {
			// Keys outside the registry's derived set are ignored.
			continue
		}
		if _, ok := supplied[name]; ok {
			continue
		}
		spec := b.registry.specs[idx]
		coerced, err := coerce.To(value, string(spec.Type))
		if err != nil {
			return wrapDerivationError("func", "", spec.Name, b.registry.Target(), err)
		}
		values[name] = coerced
	}
	return nil
}

func (b *Bound[T]) sourceValues(param, origin string, sources []string, values map[string]any) (map[string]any, error) {
	src := make(map[string]any, len(sources))
	for _, source := range sources {
		value, ok := values[source]
		if !ok {
			return nil, &SchemaConflictError{
				Param:  param,
				Origin: origin,
				Reason: fmt.Sprintf("derivation dependency %q is not resolved yet (circular or forward reference)", source),
			}
		}
		src[source] = value
	}
	if len(sources) == 0 {
		for name, value := range values {
			src[name] = value
		}
	}
	return src, nil
}

// injectStored sets every stored parameter as an attribute on the
// instance. Fields match by `param` tag first, then by case-insensitive
// name. Transient parameters are never injected. A stored parameter with
// no matching field still lives in the snapshot.
func (b *Bound[T]) injectStored(rv reflect.Value, values map[string]any) error {
	for _, spec := range b.registry.specs {
		if spec.Storage != StorageStored {
			continue
		}
		field, ok := findField(rv, spec.Name)
		if !ok {
			continue
		}
		if err := setField(field, values[spec.Name]); err != nil {
			return fmt.Errorf("params: inject %q into %s: %w", spec.Name, b.registry.Target(), err)
		}
	}
	return nil
}

func findField(rv reflect.Value, name string) (reflect.Value, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		ft := rt.Field(i)
		if !ft.IsExported() {
			continue
		}
		if tag, ok := ft.Tag.Lookup("param"); ok {
			if tag == name {
				return rv.Field(i), true
			}
			continue
		}
		if ft.Anonymous {
			continue
		}
		if strings.EqualFold(ft.Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

func setField(field reflect.Value, value any) error {
	if value == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	vv := reflect.ValueOf(value)
	switch {
	case vv.Type().AssignableTo(field.Type()):
		field.Set(vv)
	case vv.Type().ConvertibleTo(field.Type()):
		field.Set(vv.Convert(field.Type()))
	default:
		return fmt.Errorf("value of type %T does not fit field type %s", value, field.Type())
	}
	return nil
}

// paramsCarrier returns the embedded Params of the instance, if present.
func paramsCarrier(rv reflect.Value) *Params {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		switch {
		case field.Type() == reflect.TypeOf(Params{}) && field.CanAddr():
			return field.Addr().Interface().(*Params)
		case field.Type() == reflect.TypeOf((*Params)(nil)) && !field.IsNil():
			return field.Interface().(*Params)
		}
	}
	return nil
}

func snapshotValues(resolved map[string]any) map[string]any {
	out := make(map[string]any, len(resolved))
	for name, value := range resolved {
		out[name] = value
	}
	return out
}
