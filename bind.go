package params

import (
	"context"
	"reflect"

	"github.com/goliatone/go-params/pkg/audit"
)

// Bound is the handle returned by binding schemas to a target type. It
// wraps the immutable class-level registry together with the evaluator
// configuration used at construction time.
type Bound[T any] struct {
	registry  *Registry
	cfg       bindConfig
	evaluator Evaluator
	compiled  map[string]CompiledRule
	ttype     reflect.Type
}

// Bind merges the given schemas and binds the result to type T. With no
// schemas the target is expected to advertise its own descriptor via the
// SchemaProvider or MultiSchemaProvider convention.
func Bind[T any](schemas ...*Schema) (*Bound[T], error) {
	return BindWith[T](schemas)
}

// BindWith is Bind with binding options.
func BindWith[T any](schemas []*Schema, opts ...Option) (*Bound[T], error) {
	cfg := applyOptions(opts)
	ttype := reflect.TypeOf((*T)(nil)).Elem()
	if ttype.Kind() != reflect.Struct {
		return nil, &InvalidSchemaError{
			Schema: ttype.String(),
			Reason: "bind target must be a struct type",
		}
	}

	if len(schemas) == 0 {
		discovered, err := discoverSchemas[T](ttype)
		if err != nil {
			return nil, err
		}
		schemas = discovered
	}
	for _, schema := range schemas {
		if schema == nil {
			return nil, &InvalidSchemaError{Reason: "nil schema descriptor"}
		}
	}

	registry, created, err := defaultStore.bindType(ttype, schemas, cfg.strict)
	if err != nil {
		return nil, err
	}

	b := &Bound[T]{
		registry: registry,
		cfg:      cfg,
		ttype:    ttype,
	}
	b.evaluator = b.resolveEvaluator()

	if err := b.compileDerivations(); err != nil {
		return nil, err
	}

	if created && cfg.auditHooks.Enabled() {
		_ = cfg.auditHooks.Notify(context.Background(), audit.Event{
			Verb:    audit.VerbBind,
			Target:  registry.Target(),
			Schemas: registry.Origins(),
		})
	}
	return b, nil
}

// discoverSchemas resolves the descriptor set attached to the target by
// convention. Methods are checked on both the value and its pointer.
func discoverSchemas[T any](ttype reflect.Type) ([]*Schema, error) {
	probe := reflect.New(ttype).Interface()

	if provider, ok := probe.(MultiSchemaProvider); ok {
		schemas := provider.ConfigSchemas()
		if len(schemas) == 0 {
			return nil, &InvalidSchemaError{
				Schema: ttype.String(),
				Reason: "ConfigSchemas returned no descriptors",
			}
		}
		return schemas, nil
	}
	if provider, ok := probe.(SchemaProvider); ok {
		schema := provider.ConfigSchema()
		if schema == nil {
			return nil, &InvalidSchemaError{
				Schema: ttype.String(),
				Reason: "ConfigSchema returned nil",
			}
		}
		return []*Schema{schema}, nil
	}
	return nil, &InvalidSchemaError{
		Schema: ttype.String(),
		Reason: "no schemas given and target implements neither SchemaProvider nor MultiSchemaProvider",
	}
}

func (b *Bound[T]) resolveEvaluator() Evaluator {
	if b.cfg.evaluator != nil {
		return b.cfg.evaluator
	}
	var exprOpts []ExprEvaluatorOption
	if cache := b.cfg.programCache; cache != nil {
		exprOpts = append(exprOpts, ExprWithProgramCache(cache))
	}
	if registry := b.cfg.functions; registry != nil {
		exprOpts = append(exprOpts, ExprWithFunctionRegistry(registry))
	}
	return NewExprEvaluator(exprOpts...)
}

// compileDerivations compiles expression-backed derivations up front so
// malformed expressions fail at bind time, before any instance exists.
func (b *Bound[T]) compileDerivations() error {
	for _, step := range b.registry.plan {
		if step.specIdx < 0 {
			continue
		}
		spec := b.registry.specs[step.specIdx]
		if spec.Expr == "" {
			continue
		}
		rule, err := b.evaluator.Compile(spec.Expr)
		if err != nil {
			return wrapDerivationError(engineName(b.evaluator), spec.Expr, spec.Name, b.registry.Target(), err)
		}
		if b.compiled == nil {
			b.compiled = map[string]CompiledRule{}
		}
		b.compiled[spec.Name] = rule
	}
	return nil
}

// Registry returns the class-level registry bound to T.
func (b *Bound[T]) Registry() *Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

func engineName(e Evaluator) string {
	switch e.(type) {
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if e == nil {
			return "unknown"
		}
		return "custom"
	}
}
