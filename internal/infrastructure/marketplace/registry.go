package marketplace

import (
	"fmt"
	"sort"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

// Registry holds the configured platform adapters. Registration happens at
// startup; lookups after that are read-only.
type Registry struct {
	adapters map[integration.PlatformCode]integration.PlatformAdapter
}

// NewRegistry creates an empty adapter registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[integration.PlatformCode]integration.PlatformAdapter)}
}

// Register adds an adapter under its own platform code.
func (r *Registry) Register(adapter integration.PlatformAdapter) {
	r.adapters[adapter.PlatformCode()] = adapter
}

// Adapter returns the adapter for a platform code.
func (r *Registry) Adapter(code integration.PlatformCode) (integration.PlatformAdapter, error) {
	adapter, ok := r.adapters[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", integration.ErrPlatformNotConfigured, code)
	}
	return adapter, nil
}

// Adapters returns all registered adapters ordered by platform code.
func (r *Registry) Adapters() []integration.PlatformAdapter {
	out := make([]integration.PlatformAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PlatformCode() < out[j].PlatformCode()
	})
	return out
}

// NewRetrier builds the retrying client adapters share. It installs the
// transport-aware retry classification on top of the given options.
func NewRetrier(opts retry.Options, copts ...retry.ClientOption) *retry.Client {
	opts.ShouldRetry = shouldRetry
	return retry.NewClient(opts, copts...)
}

// Ensure Registry implements the port
var _ integration.Registry = (*Registry)(nil)
