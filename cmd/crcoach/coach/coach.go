// Package coach implements the coach command.
package coach

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/negz/crcoach/cmd/crcoach/insights"
	"github.com/negz/crcoach/cmd/crcoach/reco"
	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/output"
	"github.com/negz/crcoach/internal/strategy/coach"
)

// Command shows a player's profile, statistics, and recommendations.
type Command struct {
	Tag  string `arg:""                               help:"Player tag (e.g., #ABC123)."`
	TZ   string `default:"UTC"                        help:"Time zone for hour-of-day windows." name:"tz"`
	JSON bool   `help:"Print JSON instead of tables." name:"json"`
}

// Run executes the coach command.
func (c *Command) Run(d *cache.Client, log *slog.Logger) error {
	ctx := context.Background()

	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	s, err := d.Source(ctx)
	if err != nil {
		return err
	}
	// The report notes an unavailable catalog, so a failed sync isn't fatal.
	if d.ForceSync {
		if err := s.Refresh(ctx); err != nil {
			log.Warn("Cannot sync meta catalog", "err", err)
		}
	}

	r := coach.Build(ctx, s, c.Tag, coach.InLocation(loc))
	if c.JSON {
		return output.JSON(os.Stdout, r)
	}
	return Print(os.Stdout, r)
}

// Print writes a report as tables. Sections that couldn't be built are
// skipped and listed as warnings.
func Print(w io.Writer, r *coach.Report) error {
	if r.Player != nil {
		if err := output.Pairs(w, player(r.Player)); err != nil {
			return fmt.Errorf("write table: %w", err)
		}
	} else if _, err := fmt.Fprintf(w, "Player: %s\n", r.Tag); err != nil {
		return err
	}

	if r.Insights != nil {
		if err := output.Heading(w, "Insights"); err != nil {
			return err
		}
		if err := insights.Print(w, r.Insights); err != nil {
			return err
		}
	}

	if r.Reco != nil {
		if err := output.Heading(w, "Recommendations"); err != nil {
			return err
		}
		if err := reco.Print(w, r.Reco); err != nil {
			return err
		}
	}

	if len(r.Warnings) == 0 {
		return nil
	}
	if err := output.Heading(w, "Warnings"); err != nil {
		return err
	}
	for _, warn := range r.Warnings {
		if _, err := fmt.Fprintf(w, "- %s\n", warn); err != nil {
			return err
		}
	}
	return nil
}

func player(p *clash.Player) [][2]string {
	clan := output.None
	if p.Clan != nil {
		clan = fmt.Sprintf("%s (%s)", p.Clan.Name, p.Clan.Tag)
	}
	return [][2]string{
		{"Name", p.Name},
		{"Tag", p.Tag},
		{"Trophies", fmt.Sprintf("%d (best %d)", p.Trophies, p.BestTrophies)},
		{"Level", fmt.Sprint(p.Level)},
		{"Arena", p.Arena},
		{"Clan", clan},
	}
}
