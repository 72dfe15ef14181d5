// Package list implements the meta list command.
package list

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/meta"
	"github.com/negz/crcoach/internal/output"
)

// Command lists the meta deck catalog.
type Command struct {
	Search string `arg:""                               help:"Search term (matches title or card)." optional:""`
	JSON   bool   `help:"Print JSON instead of tables." name:"json"`
}

// Run executes the meta list command.
func (c *Command) Run(d *cache.Client) error {
	ctx := context.Background()

	s, err := d.SyncedSource(ctx)
	if err != nil {
		return err
	}

	decks, err := s.GetMetaDecks(ctx)
	if err != nil {
		return fmt.Errorf("load meta decks: %w", err)
	}
	decks = filter(decks, c.Search)

	if c.JSON {
		return output.JSON(os.Stdout, decks)
	}

	rows := make([][]string, len(decks))
	for i, dk := range decks {
		rows[i] = []string{dk.Title, output.FormatMetaWinrate(dk.Winrate), output.FormatDeck(dk.Cards)}
	}
	return output.Table(os.Stdout, []string{"Deck", "Winrate", "Cards"}, rows)
}

func filter(decks []meta.Deck, search string) []meta.Deck {
	if search == "" {
		return decks
	}
	q := battle.Key(search)
	out := make([]meta.Deck, 0, len(decks))
	for _, dk := range decks {
		if strings.Contains(battle.Key(dk.Title), q) || strings.Contains(battle.Key(strings.Join(dk.Cards, " ")), q) {
			out = append(out, dk)
		}
	}
	return out
}
