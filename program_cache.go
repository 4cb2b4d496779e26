package params

import "sync"

// ProgramCache stores compiled derivation programs keyed by expression
// strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used when compiling
// derivation expressions.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *bindConfig) {
		cfg.programCache = cache
	}
}

// NewMemoryProgramCache returns an unbounded in-process ProgramCache safe
// for concurrent use. Expression sets are small and fixed per registry, so
// no eviction is needed.
func NewMemoryProgramCache() ProgramCache {
	return &memoryProgramCache{}
}

type memoryProgramCache struct {
	programs sync.Map
}

func (c *memoryProgramCache) Get(key string) (any, bool) {
	return c.programs.Load(key)
}

func (c *memoryProgramCache) Set(key string, value any) {
	c.programs.Store(key, value)
}
