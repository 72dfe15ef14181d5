// Package cache manages local Clash Royale data: the meta deck archive and a
// source that keeps the meta catalog in memory.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
)

// Dir returns the crcoach cache directory.
//
// It uses os.UserCacheDir, which respects XDG_CACHE_HOME on Linux, uses
// ~/Library/Caches on macOS, and %LocalAppData% on Windows. If the user cache
// directory can't be determined it falls back to the system temp directory.
func Dir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "crcoach")
	}
	return filepath.Join(base, "crcoach")
}

// Client provides access to Clash Royale data.
// It lazily builds its source on first use.
type Client struct {
	Token       string `env:"CR_TOKEN"                                       help:"Clash Royale API token."`
	Live        bool   `env:"USE_REAL_API"                                   help:"Query the live API instead of serving demo data."`
	APIURL      string `default:"https://api.clashroyale.com/v1"             help:"Clash Royale API base URL."                       hidden:"" name:"api-url"`
	MetaFile    string `help:"TOML meta deck catalog file."                  type:"path"`
	MetaArchive string `help:"Git repo URL of TOML meta deck catalogs."`
	ForceSync   bool   `help:"Sync the meta catalog before running command." name:"sync"                                             short:"s"`

	log    *slog.Logger
	source *Source
}

// SetLogger configures the logger for sync progress.
func (c *Client) SetLogger(log *slog.Logger) {
	c.log = log
}

// Source returns the data source, building it if needed. It does not load the
// meta catalog until first asked for it. Use SyncedSource when the caller
// needs a fresh catalog before proceeding.
func (c *Client) Source(_ context.Context) (*Source, error) {
	if c.source != nil {
		return c.source, nil
	}

	log := c.log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	archivePath := filepath.Join(Dir(), "meta-archive")
	if c.MetaArchive != "" {
		if err := os.MkdirAll(Dir(), 0o750); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	opts := []clash.Option{clash.WithToken(c.Token), clash.WithLive(c.Live)}
	if c.APIURL != "" {
		opts = append(opts, clash.WithBaseURL(c.APIURL))
	}
	upstream := clash.NewClient(opts...)
	if upstream.Demo() {
		log.Debug("Serving demo data", "live", c.Live, "token", c.Token != "")
	}

	catalog := meta.NewClient(archivePath,
		meta.WithRepoURL(c.MetaArchive),
		meta.WithFile(c.MetaFile),
		meta.WithLogger(log),
	)

	c.source = NewSource(upstream, catalog)
	return c.source, nil
}

// SyncedSource returns the data source, syncing the meta catalog first if
// ForceSync is set or it has never been loaded.
func (c *Client) SyncedSource(ctx context.Context) (*Source, error) {
	s, err := c.Source(ctx)
	if err != nil {
		return nil, err
	}

	if c.ForceSync || !s.Loaded() {
		if err := s.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("sync meta catalog: %w", err)
		}
	}

	return s, nil
}
