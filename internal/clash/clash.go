// Package clash fetches battle logs and player profiles from the Clash Royale
// API.
package clash

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/negz/crcoach/internal/battle"
)

const (
	// DefaultBaseURL is the official Clash Royale API.
	DefaultBaseURL = "https://api.clashroyale.com/v1"

	// DefaultRateLimit paces requests well under the API's per-token quota.
	DefaultRateLimit = rate.Limit(10)

	defaultTimeout = 10 * time.Second
)

// ErrNoTag is returned when a player tag is empty after normalization.
var ErrNoTag = errors.New("missing player tag")

// A StatusError is returned when the API responds with a non-200 status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error: %d", e.Code)
	}
	return fmt.Sprintf("API error: %d: %s", e.Code, e.Body)
}

// NormalizeTag trims and upper-cases a player tag, and strips its leading #.
func NormalizeTag(tag string) string {
	return strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(tag)), "#")
}

// Clan is the clan a player belongs to.
type Clan struct {
	Name string `json:"name"`
	Tag  string `json:"tag"`
}

// Player is a player's profile.
type Player struct {
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Trophies     int    `json:"trophies"`
	BestTrophies int    `json:"bestTrophies"`
	Level        int    `json:"level"`
	Clan         *Clan  `json:"clan"` // Nil if the player isn't in a clan.
	Arena        string `json:"arena"`
	ArenaID      int    `json:"arenaId"`
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// WithToken sets the API bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLive enables requests to the API. Without it, or without a token, the
// client serves demo data.
func WithLive(live bool) Option {
	return func(c *Client) {
		c.live = live
	}
}

// WithRateLimit sets the maximum sustained request rate.
func WithRateLimit(l rate.Limit) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(l, 1)
	}
}

// WithClock sets the clock demo battle times are relative to.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// Client is a Clash Royale API client.
type Client struct {
	baseURL string
	token   string
	live    bool
	client  *fasthttp.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewClient creates a new Clash Royale API client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		client: &fasthttp.Client{
			MaxConnsPerHost:        16,
			ReadTimeout:            defaultTimeout,
			WriteTimeout:           defaultTimeout,
			MaxIdleConnDuration:    1 * time.Minute,
			DisablePathNormalizing: true, // Keep %23 in player paths.
		},
		limiter: rate.NewLimiter(DefaultRateLimit, 1),
		now:     time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Demo returns true if the client serves demo data.
func (c *Client) Demo() bool {
	return !c.live || c.token == ""
}

// GetBattleLog returns a player's recent battles, most recent first.
func (c *Client) GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return nil, ErrNoTag
	}
	if c.Demo() {
		return DemoBattleLog(c.now()), nil
	}

	body, err := c.get(ctx, c.playerURL(t)+"/battlelog")
	if err != nil {
		return nil, fmt.Errorf("get battle log: %w", err)
	}
	raws, err := battle.DecodeLog(body)
	if err != nil {
		return nil, fmt.Errorf("decode battle log: %w", err)
	}
	return raws, nil
}

// GetPlayer returns a player's profile.
func (c *Client) GetPlayer(ctx context.Context, tag string) (*Player, error) {
	t := NormalizeTag(tag)
	if t == "" {
		return nil, ErrNoTag
	}
	if c.Demo() {
		return DemoPlayer(t), nil
	}

	p, err := doRequest[apiPlayer](ctx, c, c.playerURL(t))
	if err != nil {
		return nil, fmt.Errorf("get player: %w", err)
	}
	return p.player(t), nil
}

func (c *Client) playerURL(tag string) string {
	return c.baseURL + "/players/%23" + url.PathEscape(tag)
}

func doRequest[T any](ctx context.Context, c *Client, u string) (*T, error) {
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for rate limiter: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(u)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultTimeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, err
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode(), Body: string(bytes.TrimSpace(resp.Body()))}
	}

	// The response body is only valid until the response is released.
	return bytes.Clone(resp.Body()), nil
}

type apiPlayer struct {
	Name         string `json:"name"`
	Tag          string `json:"tag"`
	Trophies     int    `json:"trophies"`
	BestTrophies int    `json:"bestTrophies"`
	ExpLevel     int    `json:"expLevel"`
	Clan         *Clan  `json:"clan"`
	Arena        *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"arena"`
}

func (p *apiPlayer) player(tag string) *Player {
	out := &Player{
		Name:         p.Name,
		Tag:          p.Tag,
		Trophies:     p.Trophies,
		BestTrophies: p.BestTrophies,
		Level:        p.ExpLevel,
		Clan:         p.Clan,
		Arena:        "Unknown Arena",
	}
	if out.Name == "" {
		out.Name = "Player"
	}
	if out.Tag == "" {
		out.Tag = "#" + tag
	}
	if p.Arena != nil {
		out.ArenaID = p.Arena.ID
		if p.Arena.Name != "" {
			out.Arena = p.Arena.Name
		}
	}
	return out
}
