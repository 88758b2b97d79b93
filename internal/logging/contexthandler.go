package logging

import (
	"context"
	"log/slog"
	"sort"
	"sync"
)

// ContextProvider is a function that returns dynamic context attributes.
// It runs on every record, so it must not take locks the caller may hold.
type ContextProvider func() []slog.Attr

// ContextHandler wraps another handler and injects dynamic context attributes.
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
}

// NewContextHandler creates a handler that adds dynamic context to each record.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{
		inner:    inner,
		provider: provider,
	}
}

// Enabled delegates to the inner handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle adds dynamic context attributes and delegates to the inner handler.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider != nil {
		r.AddAttrs(h.provider()...)
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs returns a new ContextHandler with the given attributes.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{
		inner:    h.inner.WithAttrs(attrs),
		provider: h.provider,
	}
}

// WithGroup returns a new ContextHandler with the given group.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{
		inner:    h.inner.WithGroup(name),
		provider: h.provider,
	}
}

// Tags is a set of string attributes stamped on every record, such as the
// session ID and the loaded video. It has its own lock so logging never waits
// on session state.
type Tags struct {
	mu    sync.RWMutex
	attrs map[string]string
}

// NewTags creates an empty tag set.
func NewTags() *Tags {
	return &Tags{attrs: make(map[string]string)}
}

// Set adds or replaces a tag. An empty value removes it.
func (t *Tags) Set(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if value == "" {
		delete(t.attrs, key)
		return
	}
	t.attrs[key] = value
}

// Provider returns the tags as a ContextProvider, sorted by key.
func (t *Tags) Provider() ContextProvider {
	return func() []slog.Attr {
		t.mu.RLock()
		defer t.mu.RUnlock()
		keys := make([]string, 0, len(t.attrs))
		for k := range t.attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		attrs := make([]slog.Attr, len(keys))
		for i, k := range keys {
			attrs[i] = slog.String(k, t.attrs[k])
		}
		return attrs
	}
}
