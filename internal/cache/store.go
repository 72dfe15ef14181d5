package cache

import (
	"context"
	"sync"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
	"github.com/negz/crcoach/internal/strategy/coach"
)

var _ coach.Source = &Source{}

// Upstream fetches per-player data.
type Upstream interface {
	GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error)
	GetPlayer(ctx context.Context, tag string) (*clash.Player, error)
}

// A Catalog loads the meta deck catalog.
type Catalog interface {
	Load(ctx context.Context) ([]meta.Deck, error)
}

// A Source serves per-player data from upstream and the meta catalog from
// memory. The catalog is loaded on first use; call Refresh after each sync to
// repopulate it.
type Source struct {
	upstream Upstream
	catalog  Catalog

	mu     sync.RWMutex // Protects everything below.
	decks  []meta.Deck
	loaded bool
}

// NewSource returns a Source that caches the meta catalog in memory.
func NewSource(u Upstream, c Catalog) *Source {
	return &Source{upstream: u, catalog: c}
}

// Refresh reloads the meta catalog. The cached catalog is kept if loading
// fails.
func (s *Source) Refresh(ctx context.Context) error {
	decks, err := s.catalog.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.decks = decks
	s.loaded = true

	return nil
}

// Loaded returns true if the meta catalog has been loaded.
func (s *Source) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Cached methods.

// GetMetaDecks returns the meta catalog from the cache, loading it first if
// needed.
func (s *Source) GetMetaDecks(ctx context.Context) ([]meta.Deck, error) {
	if !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decks, nil
}

// Passthrough methods.

// GetBattleLog passes through to upstream.
func (s *Source) GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error) {
	return s.upstream.GetBattleLog(ctx, tag)
}

// GetPlayer passes through to upstream.
func (s *Source) GetPlayer(ctx context.Context, tag string) (*clash.Player, error) {
	return s.upstream.GetPlayer(ctx, tag)
}
