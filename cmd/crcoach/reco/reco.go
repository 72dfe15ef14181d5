// Package reco implements the reco command.
package reco

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/negz/crcoach/cmd/crcoach/insights"
	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/output"
	"github.com/negz/crcoach/internal/strategy/coach"
)

// Command recommends card swaps against a player's most faced decks.
type Command struct {
	Tag  string `arg:""                               help:"Player tag (e.g., #ABC123)."`
	JSON bool   `help:"Print JSON instead of tables." name:"json"`
}

// Run executes the reco command.
func (c *Command) Run(d *cache.Client) error {
	ctx := context.Background()

	s, err := d.SyncedSource(ctx)
	if err != nil {
		return err
	}

	matches, err := coach.Matches(ctx, s, c.Tag)
	if err != nil {
		return fmt.Errorf("fetch battle log: %w", err)
	}

	decks, err := s.GetMetaDecks(ctx)
	if err != nil {
		return fmt.Errorf("load meta decks: %w", err)
	}

	r := coach.Recommend(matches, decks)
	if c.JSON {
		return output.JSON(os.Stdout, r)
	}
	return Print(os.Stdout, r)
}

// Print writes recommendations as tables.
func Print(w io.Writer, r *coach.Recommendations) error {
	if _, err := fmt.Fprintf(w, "My deck: %s\n", output.FormatDeck(r.MyDeck)); err != nil {
		return err
	}

	for _, it := range r.Items {
		if err := output.Heading(w, fmt.Sprintf("Faced %d times, %s winrate", it.FacedCount, output.FormatWinrate(it.Winrate))); err != nil {
			return err
		}

		nearest := output.None
		if it.NearestMetaMatch != nil {
			nearest = fmt.Sprintf("%s (%s)", it.NearestMetaMatch.Title, output.FormatMetaWinrate(it.NearestMetaMatch.Winrate))
		}
		if err := output.Pairs(w, [][2]string{
			{"Opponent", output.FormatDeck(it.OpponentDeck)},
			{"Nearest Meta", nearest},
		}); err != nil {
			return fmt.Errorf("write table: %w", err)
		}

		rows := make([][]string, len(it.Swaps))
		for i, sw := range it.Swaps {
			rows[i] = []string{output.FormatSwap(sw), sw.Reason}
		}
		if err := output.Table(w, []string{"Swap", "Reason"}, rows); err != nil {
			return fmt.Errorf("write table: %w", err)
		}

		for _, t := range it.Tips {
			if _, err := fmt.Fprintf(w, "- %s\n", t); err != nil {
				return err
			}
		}
	}

	return insights.Tips(w, r.Tips)
}
