// Package battles implements the battles command.
package battles

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/output"
	"github.com/negz/crcoach/internal/strategy/coach"
)

// Command lists a player's recent battles.
type Command struct {
	Tag   string `arg:""                               help:"Player tag (e.g., #ABC123)."`
	TZ    string `default:"UTC"                        help:"Time zone for battle times." name:"tz"`
	Decks bool   `help:"Include the opponent's deck."  short:"d"`
	JSON  bool   `help:"Print JSON instead of tables." name:"json"`
}

// Run executes the battles command.
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

	if c.JSON {
		return output.JSON(os.Stdout, matches)
	}

	headers := []string{"Time", "Mode", "Opponent", "Result", "Crowns"}
	if c.Decks {
		headers = append(headers, "Opponent Deck")
	}

	rows := make([][]string, len(matches))
	for i, m := range matches {
		rows[i] = []string{
			output.FormatTime(m.Time, loc),
			m.Mode,
			output.Or(m.Opponent),
			string(m.Outcome()),
			output.FormatCrowns(m.TeamCrowns, m.OpponentCrowns),
		}
		if c.Decks {
			rows[i] = append(rows[i], output.FormatDeck(m.OpponentCards))
		}
	}

	return output.Table(os.Stdout, headers, rows)
}
