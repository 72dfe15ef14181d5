// Package sync implements the meta sync command.
package sync

import (
	"context"
	"fmt"

	"github.com/negz/crcoach/internal/cache"
)

// Command syncs the meta deck catalog from its configured source.
type Command struct{}

// Run executes the meta sync command.
func (c *Command) Run(d *cache.Client) error {
	ctx := context.Background()

	s, err := d.Source(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Syncing meta deck catalog...")
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("sync meta catalog: %w", err)
	}

	decks, err := s.GetMetaDecks(ctx)
	if err != nil {
		return fmt.Errorf("load meta decks: %w", err)
	}

	fmt.Printf("Sync complete: %d meta decks.\n", len(decks))
	return nil
}
