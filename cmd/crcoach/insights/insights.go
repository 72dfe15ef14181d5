// Package insights implements the insights command.
package insights

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/output"
	"github.com/negz/crcoach/internal/strategy/coach"
	"github.com/negz/crcoach/internal/strategy/insights"
)

// Command shows match statistics and tips for a player.
type Command struct {
	Tag  string `arg:""                               help:"Player tag (e.g., #ABC123)."`
	TZ   string `default:"UTC"                        help:"Time zone for hour-of-day windows." name:"tz"`
	JSON bool   `help:"Print JSON instead of tables." name:"json"`
}

// Run executes the insights command.
func (c *Command) Run(d *cache.Client) error {
	ctx := context.Background()

	loc, err := time.LoadLocation(c.TZ)
	if err != nil {
		return fmt.Errorf("load time zone: %w", err)
	}

	s, err := d.Source(ctx)
	if err != nil {
		return err
	}

	matches, err := coach.Matches(ctx, s, c.Tag)
	if err != nil {
		return fmt.Errorf("fetch battle log: %w", err)
	}

	r := insights.Analyze(matches, insights.InLocation(loc))
	if c.JSON {
		return output.JSON(os.Stdout, r)
	}
	return Print(os.Stdout, r)
}

// Print writes an insights result as tables.
func Print(w io.Writer, r *insights.Result) error {
	top := output.None
	if r.TopDeck != nil {
		top = fmt.Sprintf("%d games, %s", r.TopDeck.Games, output.FormatWinrate(r.TopDeck.Winrate))
	}

	if err := output.Pairs(w, [][2]string{
		{"Matches", fmt.Sprint(r.Matches)},
		{"Record", output.FormatRecord(r.Wins, r.Losses, r.Draws)},
		{"Winrate", output.FormatWinrate(r.Winrate)},
		{"Streak", output.FormatStreak(r.Streak)},
		{"Best Window", output.FormatWindow(r.BestWindow)},
		{"Top Deck", top},
	}); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	if err := output.Heading(w, "Modes"); err != nil {
		return err
	}
	rows := make([][]string, len(r.Modes))
	for i, m := range r.Modes {
		rows[i] = []string{m.Name, fmt.Sprint(m.Games), output.FormatWinrate(m.Winrate)}
	}
	if err := output.Table(w, []string{"Mode", "Games", "Winrate"}, rows); err != nil {
		return fmt.Errorf("write table: %w", err)
	}

	return Tips(w, r.Tips)
}

// Tips writes a bulleted list of tips under a heading.
func Tips(w io.Writer, tips []string) error {
	if len(tips) == 0 {
		return nil
	}
	if err := output.Heading(w, "Tips"); err != nil {
		return err
	}
	for _, t := range tips {
		if _, err := fmt.Fprintf(w, "- %s\n", t); err != nil {
			return err
		}
	}
	return nil
}
