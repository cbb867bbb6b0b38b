// Package label resolves short identifiers (Q.../P...) to display labels.
// Resolution is two-phase: normalizers register every identifier they meet
// and receive read-only handles; the pipeline forces one batched resolve
// before rendering. Handles never trigger resolution themselves.
package label

import (
	"context"
	"fmt"
)

// Labels maps a language tag to a label value. The reserved "mul" bucket
// holds the multilingual label used as the last fallback.
type Labels map[string]string

// ForLang picks a label for lang, then fallback, then "mul", else "".
func (ls Labels) ForLang(lang, fallback string) string {
	if ls == nil {
		return ""
	}
	if v := ls[lang]; v != "" {
		return v
	}
	if v := ls[fallback]; v != "" {
		return v
	}
	return ls["mul"]
}

// Resolver resolves a batch of identifiers to per-language labels. It must
// be idempotent and tolerate duplicate identifiers; identifiers it cannot
// resolve are simply absent from the result map.
type Resolver interface {
	ResolveBatch(ctx context.Context, ids []string) (map[string]Labels, error)
}

// FetchFunc adapts a function (typically the upstream API client) to Resolver.
type FetchFunc func(ctx context.Context, ids []string) (map[string]Labels, error)

func (f FetchFunc) ResolveBatch(ctx context.Context, ids []string) (map[string]Labels, error) {
	return f(ctx, ids)
}

// Registry collects identifiers during one graph build and serves resolved
// labels afterwards. It is not safe for concurrent use; each graph build
// owns its own instance.
type Registry struct {
	lang     string
	fallback string
	resolver Resolver
	pending  map[string]struct{}
	resolved map[string]Labels
}

// NewRegistry creates a registry for one graph build.
func NewRegistry(resolver Resolver, lang, fallback string) *Registry {
	return &Registry{
		lang:     lang,
		fallback: fallback,
		resolver: resolver,
		pending:  make(map[string]struct{}),
		resolved: make(map[string]Labels),
	}
}

// Handle registers an identifier for the next resolve and returns a
// read-only view of its label.
func (r *Registry) Handle(id string) Handle {
	if _, ok := r.resolved[id]; !ok {
		r.pending[id] = struct{}{}
	}
	return Handle{id: id, reg: r}
}

// Seed installs labels already present in the raw payload, so the batched
// resolve skips them.
func (r *Registry) Seed(id string, labels Labels) {
	if len(labels) == 0 {
		return
	}
	delete(r.pending, id)
	r.resolved[id] = labels
}

// ResolveAll flushes the pending set through the resolver. Identifiers the
// resolver does not know stay unresolved and read as "".
func (r *Registry) ResolveAll(ctx context.Context) error {
	if len(r.pending) == 0 || r.resolver == nil {
		return nil
	}
	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	got, err := r.resolver.ResolveBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("resolve labels: %w", err)
	}
	for id, labels := range got {
		r.resolved[id] = labels
	}
	r.pending = make(map[string]struct{})
	return nil
}

// Label reads a resolved label for the registry's language pair, "" when the
// identifier is unknown or still pending.
func (r *Registry) Label(id string) string {
	return r.resolved[id].ForLang(r.lang, r.fallback)
}

// Handle is a read-only view into the registry's resolved map. The zero
// Handle reads as "".
type Handle struct {
	id  string
	reg *Registry
}

// ID returns the identifier this handle stands for.
func (h Handle) ID() string { return h.id }

func (h Handle) String() string {
	if h.reg == nil {
		return ""
	}
	return h.reg.Label(h.id)
}
