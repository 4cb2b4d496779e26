// Package audit fans out schema lifecycle events (bind, construct,
// reapply) to registered hooks.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Verbs emitted by the engine.
const (
	VerbBind      = "bind"
	VerbConstruct = "construct"
	VerbReapply   = "reapply"
)

// Event describes one schema lifecycle occurrence.
type Event struct {
	Verb       string
	Target     string
	Schemas    []string
	SnapshotID string
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized audit events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. Events missing a verb or target are dropped.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" || normalized.Target == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims whitespace, clones metadata, and ensures a
// timestamp is present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.Target = strings.TrimSpace(event.Target)
	normalized.SnapshotID = strings.TrimSpace(event.SnapshotID)
	normalized.Metadata = cloneMap(event.Metadata)
	if len(event.Schemas) > 0 {
		normalized.Schemas = append([]string{}, event.Schemas...)
	} else {
		normalized.Schemas = nil
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
