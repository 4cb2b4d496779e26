package params

// SchemaFormat identifies the representation a registry export encodes.
type SchemaFormat string

const (
	// SchemaFormatDescriptors represents the flat ordered parameter
	// descriptor list.
	SchemaFormatDescriptors SchemaFormat = "descriptors"
	// SchemaFormatJSONSchema represents JSON Schema documents.
	SchemaFormatJSONSchema SchemaFormat = "jsonschema"
)

// SchemaDocument encapsulates a generated registry export alongside its
// format identifier. Implementations must ensure Document is
// JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat
	Target   string
	Document any
}

// SchemaGenerator transforms a merged registry into an export document for
// external CLI-builders and file layers. Implementations MUST be safe for
// concurrent use and handle nil registries by returning an empty document.
type SchemaGenerator interface {
	Generate(registry *Registry) (SchemaDocument, error)
}

// DefaultSchemaGenerator returns the built-in descriptor-based generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(registry *Registry) (SchemaDocument, error) {
	doc := SchemaDocument{Format: SchemaFormatDescriptors}
	if registry == nil {
		doc.Document = []ParamInfo{}
		return doc, nil
	}
	infos, err := ShowConfigParams(registry)
	if err != nil {
		return SchemaDocument{}, err
	}
	doc.Target = registry.Target()
	doc.Document = infos
	return doc, nil
}

// Document runs generator against the registry, falling back to the
// descriptor generator when generator is nil.
func (r *Registry) Document(generator SchemaGenerator) (SchemaDocument, error) {
	if generator == nil {
		generator = DefaultSchemaGenerator()
	}
	return generator.Generate(r)
}
