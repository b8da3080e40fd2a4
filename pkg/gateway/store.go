package gateway

import (
	"sync"
	"sync/atomic"
)

// Store holds the current configuration snapshot. Readers always see a
// complete, validated Config; updates install a new snapshot via an atomic
// pointer swap, so in-flight chat calls keep the snapshot they started with.
type Store struct {
	path string
	cfg  atomic.Pointer[Config]

	mu sync.Mutex // serializes updates
}

// Open loads the configuration at path and returns a Store bound to it.
// Updates are persisted back to the same file.
func Open(path string) (*Store, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path}
	s.cfg.Store(cfg)

	return s, nil
}

// NewStore wraps an already-validated Config without a backing file.
// Updates swap the in-memory snapshot only.
func NewStore(cfg *Config) *Store {
	s := &Store{}
	s.cfg.Store(cfg)
	return s
}

// Snapshot returns the current configuration. The returned value must be
// treated as read-only.
func (s *Store) Snapshot() *Config {
	return s.cfg.Load()
}

// UpdateProvider merges settings into the named provider, switches the
// default to it, persists the result when the store is file-backed, and
// swaps the snapshot. On any failure the previous snapshot stays installed.
func (s *Store) UpdateProvider(providerName string, settings ProviderSettings) (*Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.Snapshot().Update(providerName, settings)
	if err != nil {
		return nil, err
	}

	if s.path != "" {
		if err := Save(next, s.path); err != nil {
			return nil, err
		}
	}

	s.cfg.Store(next)

	return next, nil
}
