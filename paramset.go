package params

// Params is the field-set a configurable target embeds to carry its
// resolved snapshot. The injector populates it at construction; there is no
// subtype relationship between the target and its schemas, only this
// composed state.
//
// The snapshot is written once per construction (or explicit Reapply) and
// read-only afterwards, so concurrent readers need no locking.
type Params struct {
	snapshotID string
	registry   *Registry
	values     map[string]any
}

// SnapshotID returns the identifier assigned to the current snapshot, or
// the empty string before injection.
func (p *Params) SnapshotID() string {
	if p == nil {
		return ""
	}
	return p.snapshotID
}

// Param returns the resolved value recorded for name. Transient parameters
// are visible here (they record what was supplied) even though they never
// become attributes and never appear in ShowConfigParams output.
func (p *Params) Param(name string) (any, bool) {
	if p == nil || p.values == nil {
		return nil, false
	}
	value, ok := p.values[name]
	return value, ok
}

// Snapshot returns a copy of every resolved value, stored and transient
// alike, in no particular order. Use ShowConfigParams for the ordered,
// stored-only view.
func (p *Params) Snapshot() map[string]any {
	if p == nil || p.values == nil {
		return nil
	}
	out := make(map[string]any, len(p.values))
	for name, value := range p.values {
		out[name] = value
	}
	return out
}

func (p *Params) setSnapshot(registry *Registry, snapshotID string, values map[string]any) {
	p.registry = registry
	p.snapshotID = snapshotID
	p.values = values
}

func (p *Params) snapshotState() (*Registry, map[string]any) {
	if p == nil {
		return nil, nil
	}
	return p.registry, p.values
}

func (p *Params) populated() bool {
	return p != nil && p.registry != nil
}

// snapshotCarrier is satisfied by any struct embedding Params; the
// introspector uses it to distinguish instances from bare types.
type snapshotCarrier interface {
	snapshotState() (*Registry, map[string]any)
	populated() bool
}

// Initializer is implemented by targets that accept pass-through
// construction arguments. The injector calls Init after stored parameters
// are set, with registry-recognized keywords already removed.
type Initializer interface {
	Init(args map[string]any) error
}
