// Package main implements the crcoach CLI for analyzing Clash Royale matches.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/negz/crcoach/cmd/crcoach/battles"
	"github.com/negz/crcoach/cmd/crcoach/coach"
	"github.com/negz/crcoach/cmd/crcoach/insights"
	"github.com/negz/crcoach/cmd/crcoach/meta"
	"github.com/negz/crcoach/cmd/crcoach/reco"
	"github.com/negz/crcoach/cmd/crcoach/serve"
	"github.com/negz/crcoach/internal/cache"
	"github.com/negz/crcoach/internal/version"
)

type cli struct {
	Client cache.Client `embed:""`

	Verbose bool             `help:"Log debug output."`
	Version kong.VersionFlag `help:"Print the version and exit."`

	Insights insights.Command `cmd:"" help:"Show match statistics and tips for a player."`
	Reco     reco.Command     `cmd:"" help:"Recommend card swaps against a player's most faced decks."`
	Coach    coach.Command    `cmd:"" help:"Show a player's profile, statistics, and recommendations."`
	Battles  battles.Command  `cmd:"" help:"List a player's recent battles."`
	Meta     meta.Command     `cmd:"" help:"Manage the meta deck catalog."`
	Serve    serve.Command    `cmd:"" help:"Start the JSON API server."`
}

func main() {
	// A .env file is optional.
	_ = godotenv.Load()

	c := &cli{}
	ctx := kong.Parse(c,
		kong.Name("crcoach"),
		kong.Description("Clash Royale match analytics and deck recommendations."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	c.Client.SetLogger(log)

	ctx.Bind(&c.Client, log)
	ctx.FatalIfErrorf(ctx.Run())
}
