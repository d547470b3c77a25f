// Package registry constructs exchange adapters by configuration key.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/coachpo/cryptoarb/internal/infra/adapters/binance"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/exchange"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/kraken"
	"github.com/coachpo/cryptoarb/internal/infra/adapters/shared"
	"github.com/coachpo/cryptoarb/internal/infra/config"
)

// Factory builds one adapter.
type Factory func(opts shared.Options) (exchange.Adapter, error)

// Registry maps exchange keys to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{mu: sync.RWMutex{}, factories: make(map[string]Factory)}
}

// Default returns a registry with every implemented exchange registered.
func Default() *Registry {
	r := New()
	r.Register(config.ExchangeBinance, func(opts shared.Options) (exchange.Adapter, error) {
		return binance.New(opts)
	})
	r.Register(config.ExchangeKraken, func(opts shared.Options) (exchange.Adapter, error) {
		return kraken.New(opts)
	})
	return r
}

// Register adds or replaces the factory for key.
func (r *Registry) Register(key string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[normalizeKey(key)] = factory
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.factories))
	for key := range r.factories {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Create builds the adapter registered under key.
func (r *Registry) Create(key string, opts shared.Options) (exchange.Adapter, error) {
	r.mu.RLock()
	factory, ok := r.factories[normalizeKey(key)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: no adapter for exchange %q", key)
	}
	adapter, err := factory(opts)
	if err != nil {
		return nil, fmt.Errorf("registry: build %s: %w", key, err)
	}
	return adapter, nil
}

// Build constructs one adapter per entry, each with its own REST client
// configured from base.
func (r *Registry) Build(entries []config.ExchangeEntry, base shared.Options) ([]exchange.Adapter, error) {
	adapters := make([]exchange.Adapter, 0, len(entries))
	for _, entry := range entries {
		opts := base
		opts.Credentials = entry.Credentials
		opts.Client = nil
		adapter, err := r.Create(entry.Key, opts)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
