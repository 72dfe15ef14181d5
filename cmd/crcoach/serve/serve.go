// Package serve implements the serve command.
package serve

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/web"
)

// Command starts the crcoach JSON API server.
type Command struct {
	Addr         string        `default:":8080" help:"Address to listen on."`
	TZ           string        `default:"UTC"   help:"Time zone for hour-of-day windows."  name:"tz"`
	SyncInterval time.Duration `default:"15m"   help:"How often to sync the meta catalog."`
}

// Run executes the serve command.
func (c *Command) Run(d *cache.Client, _ *slog.Logger) error {
	ctx := context.Background()

	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	d.SetLogger(log)

	s, err := d.Source(ctx)
	if err != nil {
		return err
	}

	go web.Sync(ctx, s.Refresh, c.SyncInterval, log)

	log.Info("Starting web server", "addr", c.Addr)

	h := web.NewServer(s, log, web.WithLocation(loc)).Handler()
	srv := &http.Server{
		Addr:              c.Addr,
		Handler:           web.WithRequestID(web.WithLogging(web.WithCORS(web.WithCacheControl(h, "public, max-age=60")), log)),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv.ListenAndServe()
}
