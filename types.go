package params

import (
	"strings"
	"time"

	"github.com/goliatone/go-params/pkg/audit"
)

// Kind is the semantic type tag declared for a parameter.
type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
	KindBool   Kind = "bool"
	// KindNested tags parameters whose values are nested maps; supplied
	// overrides deep-merge over the literal default instead of replacing it.
	KindNested Kind = "nested"
)

// Union builds a composite kind tag from the provided alternatives.
func Union(kinds ...Kind) Kind {
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		if k == "" {
			continue
		}
		parts = append(parts, string(k))
	}
	return Kind(strings.Join(parts, "|"))
}

// Accepts reports whether k admits the candidate kind, honouring unions.
func (k Kind) Accepts(candidate Kind) bool {
	if k == candidate {
		return true
	}
	for _, part := range strings.Split(string(k), "|") {
		if Kind(part) == candidate {
			return true
		}
	}
	return false
}

// DefaultMode classifies how a parameter obtains its value when the caller
// does not supply one.
type DefaultMode string

const (
	// ModeRequired marks a parameter with no default; construction fails
	// unless a value is supplied.
	ModeRequired DefaultMode = "required"
	// ModeLiteral marks a parameter backed by a fixed value or factory.
	ModeLiteral DefaultMode = "literal"
	// ModeDerived marks a parameter computed from other resolved parameters
	// by a derivation hook.
	ModeDerived DefaultMode = "derived"
)

// Storage classifies whether a resolved parameter becomes a visible
// instance attribute.
type Storage string

const (
	// StorageStored parameters are injected as instance attributes.
	StorageStored Storage = "stored"
	// StorageTransient parameters only feed derivation hooks and are
	// discarded afterwards.
	StorageTransient Storage = "transient"
)

// DeriveFunc computes a single derived value from already-resolved source
// parameters.
type DeriveFunc func(src map[string]any) (any, error)

// SchemaDeriveFunc computes several derived values at once from its
// declared source values; with no declared sources it receives the full
// resolved snapshot. Returned keys that are not derived members of the
// merged registry are ignored.
type SchemaDeriveFunc func(src map[string]any) (map[string]any, error)

// ParameterSpec is the normalized description of one declared or derived
// parameter as produced by extraction and merging.
type ParameterSpec struct {
	Name        string
	Type        Kind
	Mode        DefaultMode
	Default     any
	Factory     func() any
	Sources     []string
	Expr        string
	Derive      DeriveFunc
	Storage     Storage
	Description string
	Origin      string
}

// clone returns a copy with detached slice state so merged registries never
// alias schema-owned data.
func (s ParameterSpec) clone() ParameterSpec {
	out := s
	if len(s.Sources) > 0 {
		out.Sources = append([]string(nil), s.Sources...)
	}
	return out
}

// DeriveContext carries the inputs available to a derivation hook
// evaluation.
type DeriveContext struct {
	// Params holds every parameter resolved so far, keyed by name. Stored
	// and transient values alike are visible to hooks.
	Params map[string]any
	// Target names the bound target type for diagnostics.
	Target string
	// Param names the derived field currently being computed, when known.
	Param    string
	Now      *time.Time
	Metadata map[string]any
}

func (ctx DeriveContext) withDefaultNow() DeriveContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx DeriveContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx DeriveContext) withDefaultMaps() DeriveContext {
	if ctx.Params == nil {
		ctx.Params = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx DeriveContext) targetLabel() string {
	if ctx.Target != "" {
		return ctx.Target
	}
	return "unknown"
}

// Evaluator executes derivation expressions against a derive context.
type Evaluator interface {
	Evaluate(ctx DeriveContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable derivation expression program.
type CompiledRule interface {
	Evaluate(ctx DeriveContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}

// Option configures schema binding.
type Option func(*bindConfig)

type bindConfig struct {
	evaluator    Evaluator
	programCache ProgramCache
	functions    *FunctionRegistry
	logger       DeriveLogger
	strict       bool
	metadata     map[string]any
	auditHooks   audit.Hooks
}

func applyOptions(opts []Option) bindConfig {
	cfg := bindConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg bindConfig) deriveLogger() DeriveLogger {
	if cfg.logger != nil {
		return cfg.logger
	}
	return noopDeriveLogger{}
}

// WithEvaluator configures the evaluator used for expression-backed
// derivation hooks. The default is the expr engine.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *bindConfig) {
		cfg.evaluator = e
	}
}

// WithStrictMerge turns duplicate parameter names across merged schemas
// into a SchemaConflictError instead of overriding in place.
func WithStrictMerge(strict bool) Option {
	return func(cfg *bindConfig) {
		cfg.strict = strict
	}
}

// WithMetadata attaches metadata made available to derivation expressions
// under the "metadata" binding.
func WithMetadata(metadata map[string]any) Option {
	return func(cfg *bindConfig) {
		if len(metadata) == 0 {
			return
		}
		cfg.metadata = copyMetadata(metadata)
	}
}

func copyMetadata(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return nil
	}
	out := make(map[string]any, len(metadata))
	for key, value := range metadata {
		out[key] = value
	}
	return out
}
