package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
	"github.com/negz/crcoach/internal/strategy/coach"
	"github.com/negz/crcoach/internal/strategy/insights"
)

type MockSource struct {
	MockGetBattleLog func(ctx context.Context, tag string) ([]battle.Raw, error)
	MockGetPlayer    func(ctx context.Context, tag string) (*clash.Player, error)
	MockGetMetaDecks func(ctx context.Context) ([]meta.Deck, error)
}

func (m *MockSource) GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error) {
	return m.MockGetBattleLog(ctx, tag)
}

func (m *MockSource) GetPlayer(ctx context.Context, tag string) (*clash.Player, error) {
	return m.MockGetPlayer(ctx, tag)
}

func (m *MockSource) GetMetaDecks(ctx context.Context) ([]meta.Deck, error) {
	return m.MockGetMetaDecks(ctx)
}

// asJSON round trips v through JSON so it compares equal to a decoded
// response body.
func asJSON(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("json.Marshal(...): %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("json.Unmarshal(...): %v", err)
	}
	return out
}

func TestHandler(t *testing.T) {
	now := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	raws := clash.DemoBattleLog(now)
	matches := battle.NormalizeAll(raws)
	errBoom := errors.New("boom")

	source := func() *MockSource {
		return &MockSource{
			MockGetBattleLog: func(_ context.Context, tag string) ([]battle.Raw, error) {
				if tag != "ABC" {
					return nil, errors.New("unexpected tag " + tag)
				}
				return raws, nil
			},
			MockGetPlayer: func(_ context.Context, tag string) (*clash.Player, error) {
				return clash.DemoPlayer(tag), nil
			},
			MockGetMetaDecks: func(_ context.Context) ([]meta.Deck, error) {
				return meta.Default(), nil
			},
		}
	}

	type want struct {
		status int
		body   any
	}

	cases := map[string]struct {
		reason string
		method string
		path   string
		source func() *MockSource
		want   func(t *testing.T) want
	}{
		"MissingTag": {
			reason: "A request without a tag should be rejected.",
			path:   "/api/insights",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusBadRequest, body: asJSON(t, errorBody{Error: ErrMissingTag})}
			},
		},
		"BlankTag": {
			reason: "A tag that is only a hash should be rejected.",
			path:   "/api/coach?tag=%23",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusBadRequest, body: asJSON(t, errorBody{Error: ErrMissingTag})}
			},
		},
		"BattleLog": {
			reason: "The battle log should be returned as normalized matches for the normalized tag.",
			path:   "/api/battlelog?tag=%23abc",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, matches)}
			},
		},
		"BattleLogUnavailable": {
			reason: "A failed battle log fetch should be reported as a bad gateway.",
			path:   "/api/battlelog?tag=ABC",
			source: func() *MockSource {
				s := source()
				s.MockGetBattleLog = func(_ context.Context, _ string) ([]battle.Raw, error) { return nil, errBoom }
				return s
			},
			want: func(t *testing.T) want {
				return want{status: http.StatusBadGateway, body: asJSON(t, errorBody{Error: "fetch battle log: boom"})}
			},
		},
		"Player": {
			reason: "The player's profile should be returned.",
			path:   "/api/player?tag=ABC",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, clash.DemoPlayer("ABC"))}
			},
		},
		"PlayerUnavailable": {
			reason: "A failed profile fetch should be reported as a bad gateway.",
			path:   "/api/player?tag=ABC",
			source: func() *MockSource {
				s := source()
				s.MockGetPlayer = func(_ context.Context, _ string) (*clash.Player, error) { return nil, errBoom }
				return s
			},
			want: func(t *testing.T) want {
				return want{status: http.StatusBadGateway, body: asJSON(t, errorBody{Error: "fetch player: boom"})}
			},
		},
		"Insights": {
			reason: "Insights should be computed from the battle log.",
			path:   "/api/insights?tag=ABC",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, insights.Analyze(matches))}
			},
		},
		"Reco": {
			reason: "Recommendations should be computed from the battle log and meta catalog.",
			path:   "/api/reco?tag=ABC",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, coach.Recommend(matches, meta.Default()))}
			},
		},
		"RecoMetaUnavailable": {
			reason: "Recommendations need the meta catalog, so failing to load it should be a bad gateway.",
			path:   "/api/reco?tag=ABC",
			source: func() *MockSource {
				s := source()
				s.MockGetMetaDecks = func(_ context.Context) ([]meta.Deck, error) { return nil, errBoom }
				return s
			},
			want: func(t *testing.T) want {
				return want{status: http.StatusBadGateway, body: asJSON(t, errorBody{Error: "load meta decks: boom"})}
			},
		},
		"Coach": {
			reason: "The coach report should combine every section.",
			path:   "/api/coach?tag=abc",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, coach.Build(context.Background(), source(), "abc"))}
			},
		},
		"CoachDegraded": {
			reason: "The coach report should succeed with warnings when sources fail.",
			path:   "/api/coach?tag=abc",
			source: func() *MockSource {
				s := source()
				s.MockGetBattleLog = func(_ context.Context, _ string) ([]battle.Raw, error) { return nil, errBoom }
				return s
			},
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, &coach.Report{
					Tag:      "#ABC",
					Battles:  []battle.Match{},
					Warnings: []string{coach.WarningBattleLogNetworkError},
				})}
			},
		},
		"Meta": {
			reason: "The meta catalog should be returned under a decks key.",
			path:   "/api/meta",
			source: source,
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: asJSON(t, metaBody{Decks: meta.Default()})}
			},
		},
		"MetaEmpty": {
			reason: "An empty meta catalog should be an empty list, not null.",
			path:   "/api/meta",
			source: func() *MockSource {
				s := source()
				s.MockGetMetaDecks = func(_ context.Context) ([]meta.Deck, error) { return nil, nil }
				return s
			},
			want: func(t *testing.T) want {
				return want{status: http.StatusOK, body: map[string]any{"decks": []any{}}}
			},
		},
		"MethodNotAllowed": {
			reason: "The API should only serve GET requests.",
			method: http.MethodPost,
			path:   "/api/meta",
			source: source,
			want: func(_ *testing.T) want {
				return want{status: http.StatusMethodNotAllowed}
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			method := tc.method
			if method == "" {
				method = http.MethodGet
			}
			h := NewServer(tc.source(), slog.New(slog.DiscardHandler)).Handler()

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(method, tc.path, nil))

			w := tc.want(t)
			if rec.Code != w.status {
				t.Errorf("\n%s\n%s %s: want status %d, got %d", tc.reason, method, tc.path, w.status, rec.Code)
			}
			if w.body == nil {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("\n%s\n%s %s: want JSON content type, got %q", tc.reason, method, tc.path, ct)
			}
			var got any
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("\n%s\n%s %s: cannot decode body %q: %v", tc.reason, method, tc.path, rec.Body.String(), err)
			}
			if diff := cmp.Diff(w.body, got); diff != "" {
				t.Errorf("\n%s\n%s %s: -want, +got:\n%s", tc.reason, method, tc.path, diff)
			}
		})
	}
}

func TestWithRequestID(t *testing.T) {
	type want struct {
		header   string
		generate bool
	}

	cases := map[string]struct {
		reason string
		header string
		want   want
	}{
		"Supplied": {
			reason: "A client supplied request ID should be kept.",
			header: "abc-123",
			want:   want{header: "abc-123"},
		},
		"Generated": {
			reason: "A request ID should be generated when the client doesn't supply one.",
			want:   want{generate: true},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			h := WithRequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/meta", nil)
			if tc.header != "" {
				req.Header.Set(HeaderRequestID, tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get(HeaderRequestID)
			if got != seen {
				t.Errorf("\n%s\nWithRequestID(...): response ID %q doesn't match context ID %q", tc.reason, got, seen)
			}
			if tc.want.generate {
				if len(got) != 36 {
					t.Errorf("\n%s\nWithRequestID(...): want a generated UUID, got %q", tc.reason, got)
				}
				return
			}
			if diff := cmp.Diff(tc.want.header, got); diff != "" {
				t.Errorf("\n%s\nWithRequestID(...): -want, +got:\n%s", tc.reason, diff)
			}
		})
	}
}

func TestWithCacheControl(t *testing.T) {
	h := WithCacheControl(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}), "public, max-age=60")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/meta", nil))

	if diff := cmp.Diff("public, max-age=60", rec.Header().Get("Cache-Control")); diff != "" {
		t.Errorf("WithCacheControl(...): -want, +got:\n%s", diff)
	}
}

func TestWithCORS(t *testing.T) {
	h := WithCORS(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/api/meta", nil)
	req.Header.Set("Origin", "https://example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if diff := cmp.Diff("*", rec.Header().Get("Access-Control-Allow-Origin")); diff != "" {
		t.Errorf("WithCORS(...): cross-origin requests should be allowed from any origin: -want, +got:\n%s", diff)
	}
}

func TestWithLogging(t *testing.T) {
	h := WithLogging(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), slog.New(slog.DiscardHandler))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/meta", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("WithLogging(...): want status %d passed through, got %d", http.StatusTeapot, rec.Code)
	}
}

func TestSync(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	Sync(ctx, func(_ context.Context) error {
		calls++
		cancel()
		return errors.New("boom")
	}, time.Hour, slog.New(slog.DiscardHandler))

	if calls != 1 {
		t.Errorf("Sync(...): want 1 sync before the context is cancelled, got %d", calls)
	}
}
