package params

// Field declares one parameter inside a schema descriptor. Fields are
// assembled with the constructor helpers below rather than filled in by
// hand so classification stays in one place.
type Field struct {
	name      string
	kind      Kind
	mode      DefaultMode
	def       any
	factory   func() any
	sources   []string
	expr      string
	derive    DeriveFunc
	transient bool
	doc       string
}

// FieldOption configures optional field behaviour.
type FieldOption func(*Field)

// Transient marks a field as init-only: consumed by derivation hooks and
// never injected as an instance attribute.
func Transient() FieldOption {
	return func(f *Field) {
		f.transient = true
	}
}

// From declares the source parameters a derived field depends on.
func From(sources ...string) FieldOption {
	return func(f *Field) {
		f.sources = append(f.sources, sources...)
	}
}

// WithFieldDoc sets the field description directly, taking precedence over
// any description parsed from the schema doc text.
func WithFieldDoc(text string) FieldOption {
	return func(f *Field) {
		f.doc = text
	}
}

// WithFactory replaces a literal default with a factory invoked once per
// construction, isolating mutable defaults between instances.
func WithFactory(factory func() any) FieldOption {
	return func(f *Field) {
		f.factory = factory
	}
}

func newField(name string, kind Kind, mode DefaultMode, def any, opts []FieldOption) Field {
	f := Field{
		name: name,
		kind: kind,
		mode: mode,
		def:  def,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&f)
		}
	}
	return f
}

// Int declares an int parameter with a literal default.
func Int(name string, def int, opts ...FieldOption) Field {
	return newField(name, KindInt, ModeLiteral, def, opts)
}

// Float declares a float parameter with a literal default.
func Float(name string, def float64, opts ...FieldOption) Field {
	return newField(name, KindFloat, ModeLiteral, def, opts)
}

// String declares a string parameter with a literal default.
func String(name string, def string, opts ...FieldOption) Field {
	return newField(name, KindString, ModeLiteral, def, opts)
}

// Bool declares a bool parameter with a literal default.
func Bool(name string, def bool, opts ...FieldOption) Field {
	return newField(name, KindBool, ModeLiteral, def, opts)
}

// Nested declares a nested map parameter. Supplied overrides deep-merge
// over def rather than replacing it wholesale.
func Nested(name string, def map[string]any, opts ...FieldOption) Field {
	return newField(name, KindNested, ModeLiteral, def, opts)
}

// Literal declares a parameter of an explicit kind with a literal default.
func Literal(name string, kind Kind, def any, opts ...FieldOption) Field {
	return newField(name, kind, ModeLiteral, def, opts)
}

// RequiredField declares a parameter with no default; construction fails
// unless the caller supplies a value.
func RequiredField(name string, kind Kind, opts ...FieldOption) Field {
	return newField(name, kind, ModeRequired, nil, opts)
}

// Derived declares a derived parameter with no hook of its own; the value
// must come from the schema-level derive hook.
func Derived(name string, kind Kind, opts ...FieldOption) Field {
	return newField(name, kind, ModeDerived, nil, opts)
}

// DerivedExpr declares a derived parameter computed by evaluating expr
// against the resolved snapshot. Declare dependencies with From.
func DerivedExpr(name string, kind Kind, expr string, opts ...FieldOption) Field {
	f := newField(name, kind, ModeDerived, nil, opts)
	f.expr = expr
	return f
}

// DerivedFunc declares a derived parameter computed by a Go hook. Declare
// dependencies with From.
func DerivedFunc(name string, kind Kind, fn DeriveFunc, opts ...FieldOption) Field {
	f := newField(name, kind, ModeDerived, nil, opts)
	f.derive = fn
	return f
}

// schemaHook is a schema-level derivation hook plus its declared
// dependencies.
type schemaHook struct {
	fn      SchemaDeriveFunc
	sources []string
}

// Schema is a named, ordered, read-only parameter descriptor. Authored once
// via NewSchema; the engine never mutates it afterwards.
type Schema struct {
	name   string
	fields []Field
	doc    string
	hook   *schemaHook
}

// SchemaOption configures schema construction.
type SchemaOption func(*Schema)

// WithSchemaDoc attaches free-text documentation. A Parameters:/Args: block
// inside it is parsed for per-parameter descriptions; malformed blocks
// degrade to empty descriptions.
func WithSchemaDoc(text string) SchemaOption {
	return func(s *Schema) {
		s.doc = text
	}
}

// WithDeriveHook attaches a schema-level derivation hook invoked once every
// required, literal, and supplied value is resolved. sources declares the
// parameters the hook reads.
func WithDeriveHook(fn SchemaDeriveFunc, sources ...string) SchemaOption {
	return func(s *Schema) {
		if fn == nil {
			return
		}
		s.hook = &schemaHook{
			fn:      fn,
			sources: append([]string(nil), sources...),
		}
	}
}

// NewSchema builds a schema descriptor from an ordered field list.
// Validation is deferred to extraction so descriptors can be assembled
// freely before binding.
func NewSchema(name string, fields ...Field) *Schema {
	return &Schema{
		name:   name,
		fields: append([]Field(nil), fields...),
	}
}

// Configure applies options to the schema and returns it for chaining.
func (s *Schema) Configure(opts ...SchemaOption) *Schema {
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Name returns the schema identifier used as parameter origin.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Doc returns the attached free-text documentation.
func (s *Schema) Doc() string {
	if s == nil {
		return ""
	}
	return s.doc
}

// Len returns the number of declared fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// SchemaProvider is the discovery convention used when Bind receives no
// schemas: the target type advertises its own descriptor.
type SchemaProvider interface {
	ConfigSchema() *Schema
}

// MultiSchemaProvider is the multi-descriptor discovery convention.
type MultiSchemaProvider interface {
	ConfigSchemas() []*Schema
}
