// File: internal/platform/registry.go
package platform

import (
	"net/http"
	"sort"
	"time"

	"github.com/hdtickets/ticket-monitor/internal/config"
	"github.com/hdtickets/ticket-monitor/pkg/utils"
)

// Registry holds the configured marketplace adapters. The core depends only
// on the Adapter interface; concrete adapters are resolved here by name.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds adapters for every enabled platform in the configuration
func NewRegistry(platforms map[string]config.PlatformConfig) (*Registry, error) {
	// No per-client timeout: the orchestrator bounds every call with its
	// own per-platform context deadline.
	client := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     30 * time.Second,
		},
	}

	registry := &Registry{adapters: make(map[string]Adapter)}

	for name, cfg := range platforms {
		if !cfg.Enabled {
			continue
		}

		switch name {
		case Ticketmaster:
			registry.adapters[name] = NewTicketmasterAdapter(cfg, client)
		case StubHub:
			registry.adapters[name] = NewStubHubAdapter(cfg, client)
		case SeatGeek:
			registry.adapters[name] = NewSeatGeekAdapter(cfg, client)
		default:
			return nil, utils.NewAppError(utils.ErrCodeConfiguration,
				"Unsupported platform", name)
		}
	}

	if len(registry.adapters) == 0 {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"No platforms enabled", "")
	}

	return registry, nil
}

// Get returns the adapter for a platform name
func (r *Registry) Get(name string) (Adapter, error) {
	adapter, ok := r.adapters[name]
	if !ok {
		return nil, utils.NewAppError(utils.ErrCodeConfiguration,
			"Platform not enabled", name)
	}
	return adapter, nil
}

// Has reports whether a platform is enabled
func (r *Registry) Has(name string) bool {
	_, ok := r.adapters[name]
	return ok
}

// Enabled returns the enabled platform names, sorted
func (r *Registry) Enabled() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
