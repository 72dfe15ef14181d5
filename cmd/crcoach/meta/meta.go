// Package meta implements the meta command group.
package meta

import (
	"github.com/negz/crcoach/cmd/crcoach/meta/list"
	"github.com/negz/crcoach/cmd/crcoach/meta/sync"
)

// Command groups meta deck catalog subcommands.
type Command struct {
	List list.Command `cmd:"" help:"List the meta deck catalog."`
	Sync sync.Command `cmd:"" help:"Sync the meta deck catalog."`
}
