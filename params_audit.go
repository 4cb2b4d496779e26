package params

import "github.com/goliatone/go-params/pkg/audit"

// WithAuditHooks attaches lifecycle hooks notified on bind, construct, and
// reapply. Hooks are cloned and nil entries dropped to preserve
// immutability.
func WithAuditHooks(hooks audit.Hooks) Option {
	normalized := cloneAuditHooks(hooks)
	return func(cfg *bindConfig) {
		cfg.auditHooks = normalized
	}
}

// AuditHooks returns a cloned slice of the hooks configured on the
// binding. The returned slice can be safely mutated by the caller.
func (b *Bound[T]) AuditHooks() audit.Hooks {
	if b == nil {
		return nil
	}
	return cloneAuditHooks(b.cfg.auditHooks)
}

func cloneAuditHooks(hooks audit.Hooks) audit.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]audit.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return audit.Hooks(normalized)
}
