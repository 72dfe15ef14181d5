package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
)

type MockUpstream struct {
	MockGetBattleLog func(ctx context.Context, tag string) ([]battle.Raw, error)
	MockGetPlayer    func(ctx context.Context, tag string) (*clash.Player, error)
}

func (m *MockUpstream) GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error) {
	return m.MockGetBattleLog(ctx, tag)
}

func (m *MockUpstream) GetPlayer(ctx context.Context, tag string) (*clash.Player, error) {
	return m.MockGetPlayer(ctx, tag)
}

type MockCatalog struct {
	MockLoad func(ctx context.Context) ([]meta.Deck, error)
}

func (m *MockCatalog) Load(ctx context.Context) ([]meta.Deck, error) {
	return m.MockLoad(ctx)
}

func TestGetMetaDecks(t *testing.T) {
	hog := []meta.Deck{{Title: "Hog 2.6", Cards: []string{"Hog Rider"}}}
	loon := []meta.Deck{{Title: "LumberLoon", Cards: []string{"Balloon"}}}
	errBoom := errors.New("boom")

	type want struct {
		decks []meta.Deck
		err   error
		loads int
	}

	cases := map[string]struct {
		reason string
		run    func(ctx context.Context, s *Source) ([]meta.Deck, error)
		load   func(calls int) ([]meta.Deck, error)
		want   want
	}{
		"LazyLoad": {
			reason: "The catalog should be loaded on first use and served from memory after.",
			run: func(ctx context.Context, s *Source) ([]meta.Deck, error) {
				if _, err := s.GetMetaDecks(ctx); err != nil {
					return nil, err
				}
				return s.GetMetaDecks(ctx)
			},
			load: func(_ int) ([]meta.Deck, error) { return hog, nil },
			want: want{decks: hog, loads: 1},
		},
		"Refresh": {
			reason: "Refresh should replace the cached catalog.",
			run: func(ctx context.Context, s *Source) ([]meta.Deck, error) {
				if _, err := s.GetMetaDecks(ctx); err != nil {
					return nil, err
				}
				if err := s.Refresh(ctx); err != nil {
					return nil, err
				}
				return s.GetMetaDecks(ctx)
			},
			load: func(calls int) ([]meta.Deck, error) {
				if calls == 1 {
					return hog, nil
				}
				return loon, nil
			},
			want: want{decks: loon, loads: 2},
		},
		"LoadError": {
			reason: "A failed first load should be returned as an error.",
			run: func(ctx context.Context, s *Source) ([]meta.Deck, error) {
				return s.GetMetaDecks(ctx)
			},
			load: func(_ int) ([]meta.Deck, error) { return nil, errBoom },
			want: want{err: errBoom, loads: 1},
		},
		"RefreshErrorKeepsCache": {
			reason: "A failed refresh should keep serving the previously loaded catalog.",
			run: func(ctx context.Context, s *Source) ([]meta.Deck, error) {
				if _, err := s.GetMetaDecks(ctx); err != nil {
					return nil, err
				}
				if err := s.Refresh(ctx); err == nil {
					return nil, errors.New("want refresh error")
				}
				return s.GetMetaDecks(ctx)
			},
			load: func(calls int) ([]meta.Deck, error) {
				if calls == 1 {
					return hog, nil
				}
				return nil, errBoom
			},
			want: want{decks: hog, loads: 2},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			loads := 0
			c := &MockCatalog{MockLoad: func(_ context.Context) ([]meta.Deck, error) {
				loads++
				return tc.load(loads)
			}}
			s := NewSource(&MockUpstream{}, c)

			got, err := tc.run(context.Background(), s)
			if diff := cmp.Diff(tc.want.err, err, cmpopts.EquateErrors()); diff != "" {
				t.Errorf("\n%s\nGetMetaDecks(...): -want error, +got error:\n%s", tc.reason, diff)
			}
			if diff := cmp.Diff(tc.want.decks, got); diff != "" {
				t.Errorf("\n%s\nGetMetaDecks(...): -want, +got:\n%s", tc.reason, diff)
			}
			if loads != tc.want.loads {
				t.Errorf("\n%s\nGetMetaDecks(...): want %d catalog loads, got %d", tc.reason, tc.want.loads, loads)
			}
		})
	}
}

func TestPassthrough(t *testing.T) {
	raws := []battle.Raw{{GameMode: "Ladder"}}
	player := &clash.Player{Name: "Alice", Tag: "#ABC"}

	u := &MockUpstream{
		MockGetBattleLog: func(_ context.Context, tag string) ([]battle.Raw, error) {
			if tag != "ABC" {
				t.Errorf("GetBattleLog(...): want tag %q, got %q", "ABC", tag)
			}
			return raws, nil
		},
		MockGetPlayer: func(_ context.Context, tag string) (*clash.Player, error) {
			if tag != "ABC" {
				t.Errorf("GetPlayer(...): want tag %q, got %q", "ABC", tag)
			}
			return player, nil
		},
	}
	s := NewSource(u, &MockCatalog{})

	gotRaws, err := s.GetBattleLog(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("GetBattleLog(...): unexpected error: %v", err)
	}
	if diff := cmp.Diff(raws, gotRaws); diff != "" {
		t.Errorf("GetBattleLog(...): -want, +got:\n%s", diff)
	}

	gotPlayer, err := s.GetPlayer(context.Background(), "ABC")
	if err != nil {
		t.Fatalf("GetPlayer(...): unexpected error: %v", err)
	}
	if diff := cmp.Diff(player, gotPlayer); diff != "" {
		t.Errorf("GetPlayer(...): -want, +got:\n%s", diff)
	}
}

func TestClientSource(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	file := filepath.Join(t.TempDir(), "meta.toml")
	if err := os.WriteFile(file, []byte("[[deck]]\ntitle = \"Hog\"\ncards = [\"Hog Rider\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	type want struct {
		player *clash.Player
		decks  []meta.Deck
	}

	cases := map[string]struct {
		reason string
		client *Client
		want   want
	}{
		"Demo": {
			reason: "Without a token the source should serve demo data and the embedded catalog.",
			client: &Client{Live: true},
			want:   want{player: clash.DemoPlayer("ABC"), decks: meta.Default()},
		},
		"MetaFile": {
			reason: "A configured meta file should be loaded when syncing.",
			client: &Client{MetaFile: file, ForceSync: true},
			want:   want{player: clash.DemoPlayer("ABC"), decks: []meta.Deck{{Title: "Hog", Cards: []string{"Hog Rider"}}}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := tc.client.SyncedSource(context.Background())
			if err != nil {
				t.Fatalf("\n%s\nSyncedSource(...): unexpected error: %v", tc.reason, err)
			}

			p, err := s.GetPlayer(context.Background(), "#abc")
			if err != nil {
				t.Fatalf("\n%s\nGetPlayer(...): unexpected error: %v", tc.reason, err)
			}
			if diff := cmp.Diff(tc.want.player, p); diff != "" {
				t.Errorf("\n%s\nGetPlayer(...): -want, +got:\n%s", tc.reason, diff)
			}

			decks, err := s.GetMetaDecks(context.Background())
			if err != nil {
				t.Fatalf("\n%s\nGetMetaDecks(...): unexpected error: %v", tc.reason, err)
			}
			if diff := cmp.Diff(tc.want.decks, decks); diff != "" {
				t.Errorf("\n%s\nGetMetaDecks(...): -want, +got:\n%s", tc.reason, diff)
			}

			again, err := tc.client.Source(context.Background())
			if err != nil {
				t.Fatalf("\n%s\nSource(...): unexpected error: %v", tc.reason, err)
			}
			if again != s {
				t.Errorf("\n%s\nSource(...): want the same source on every call", tc.reason)
			}
		})
	}
}
