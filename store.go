package params

import (
	"reflect"
	"sync"
)

// store is the process-wide registry of merged parameter specs keyed by
// target type identity. Entries are written exactly once per type; the
// mutex serializes concurrent decoration of the same type so a half-merged
// entry is never observable. Reads after binding are lock-free copies.
type store struct {
	mu      sync.Mutex
	entries map[reflect.Type]*Registry
}

var defaultStore = &store{entries: map[reflect.Type]*Registry{}}

// bindType creates or fetches the registry entry for t. Re-binding an
// identical schema set is idempotent and returns the existing entry;
// binding a different set to an already-bound type is a conflict because
// entries are immutable for the process lifetime.
func (s *store) bindType(t reflect.Type, schemas []*Schema, strict bool) (*Registry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fingerprint := fingerprintSchemas(schemas, strict)
	if existing, ok := s.entries[t]; ok {
		if existing.fingerprint == fingerprint {
			return existing, false, nil
		}
		return nil, false, &SchemaConflictError{
			Reason: "target " + t.String() + " already bound to a different schema set",
		}
	}

	registry, err := merge(schemas, strict)
	if err != nil {
		return nil, false, err
	}
	registry.target = t.String()
	s.entries[t] = registry
	return registry, true, nil
}

// lookup returns the registry bound to t, if any.
func (s *store) lookup(t reflect.Type) (*Registry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	registry, ok := s.entries[t]
	return registry, ok
}

// reset clears all entries. Test helper.
func (s *store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = map[reflect.Type]*Registry{}
}

// RegistryFor returns the class-level registry bound to the type of target.
// target may be a reflect.Type, a value, or a (possibly nil) pointer.
func RegistryFor(target any) (*Registry, bool) {
	t, ok := targetType(target)
	if !ok {
		return nil, false
	}
	return defaultStore.lookup(t)
}

func targetType(target any) (reflect.Type, bool) {
	switch v := target.(type) {
	case nil:
		return nil, false
	case reflect.Type:
		return derefType(v), true
	default:
		return derefType(reflect.TypeOf(target)), true
	}
}

func derefType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
