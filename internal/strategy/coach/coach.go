// Package coach combines a player's profile, match statistics, and matchup
// recommendations into one report.
package coach

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/negz/crcoach/internal/battle"
	"github.com/negz/crcoach/internal/clash"
	"github.com/negz/crcoach/internal/meta"
	"github.com/negz/crcoach/internal/strategy/counter"
	"github.com/negz/crcoach/internal/strategy/insights"
)

const (
	// MaxBattles is the most recent battles a report considers.
	MaxBattles = 50

	// MaxItems is the number of most-faced opponent decks recommended
	// against.
	MaxItems = 3

	// MinOpponentCards is the fewest known cards an opponent deck needs to
	// count as an archetype.
	MinOpponentCards = 6
)

// Warnings mark report sections that couldn't be built.
const (
	WarningBattleLogUnavailable  = "BATTLELOG_UNAVAILABLE"
	WarningBattleLogNetworkError = "BATTLELOG_NETWORK_ERROR"
	WarningPlayerUnavailable     = "PLAYER_UNAVAILABLE"
	WarningMetaUnavailable       = "META_UNAVAILABLE"
)

// General recommendation tips.
const (
	TipUnknownDeck = "Play a match with the deck you want analyzed so its cards can be identified."
	TipNoOpponents = "No repeated opponent decks recognized yet. Play 3–5 more matches."
)

// A Source supplies the data a report is built from.
type Source interface {
	GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error)
	GetPlayer(ctx context.Context, tag string) (*clash.Player, error)
	GetMetaDecks(ctx context.Context) ([]meta.Deck, error)
}

// OpponentDeckStat is the player's record against one opponent deck.
type OpponentDeckStat struct {
	Signature   string
	FacedCount  int
	Wins        int
	Losses      int
	Draws       int
	SampleCards []string // Cards from the most recent match against the deck.
}

// Faced tallies the opponent decks in a batch of matches ordered most recent
// first. Decks with fewer than MinOpponentCards known cards are skipped. The
// result is sorted by FacedCount descending; decks faced equally often stay
// in the order first seen.
func Faced(matches []battle.Match) []OpponentDeckStat {
	bySig := make(map[string]*OpponentDeckStat)
	var order []string
	for _, m := range matches {
		if len(m.OpponentCards) < MinOpponentCards {
			continue
		}
		sig := battle.Signature(m.OpponentCards)
		s, ok := bySig[sig]
		if !ok {
			s = &OpponentDeckStat{Signature: sig, SampleCards: m.OpponentCards}
			bySig[sig] = s
			order = append(order, sig)
		}
		s.FacedCount++
		switch m.Outcome() {
		case battle.Win:
			s.Wins++
		case battle.Loss:
			s.Losses++
		case battle.Draw:
			s.Draws++
		}
	}

	out := make([]OpponentDeckStat, 0, len(order))
	for _, sig := range order {
		out = append(out, *bySig[sig])
	}
	slices.SortStableFunc(out, func(a, b OpponentDeckStat) int {
		return cmp.Compare(b.FacedCount, a.FacedCount)
	})
	return out
}

// An Item recommends how to play against one frequently faced opponent deck.
type Item struct {
	FacedCount       int            `json:"facedCount"`
	Winrate          int            `json:"myWinrateAgainstThisDeck"`
	OpponentDeck     []string       `json:"opponentDeck"`
	NearestMetaMatch *meta.Deck     `json:"nearestMetaMatch"` // Nil if no meta deck shares a card.
	Swaps            []counter.Swap `json:"swaps"`
	Tips             []string       `json:"tips"`
}

// Recommendations for a batch of matches.
type Recommendations struct {
	MyDeck []string `json:"myDeck"` // Empty if no recent match had a full deck.
	Items  []Item   `json:"items"`
	Tips   []string `json:"tips"`
}

// Recommend suggests how to play against the player's most frequently faced
// opponent decks, using the player's most recent full deck.
func Recommend(matches []battle.Match, catalog []meta.Deck) *Recommendations {
	r := &Recommendations{MyDeck: []string{}, Items: []Item{}, Tips: []string{}}
	if len(matches) == 0 {
		r.Tips = append(r.Tips, insights.TipNoMatches)
		return r
	}

	if i := slices.IndexFunc(matches, func(m battle.Match) bool { return battle.FullDeck(m.TeamCards) }); i >= 0 {
		r.MyDeck = matches[i].TeamCards
	}

	faced := Faced(matches)
	if len(faced) > MaxItems {
		faced = faced[:MaxItems]
	}
	for _, f := range faced {
		rec := counter.Recommend(r.MyDeck, f.SampleCards)
		r.Items = append(r.Items, Item{
			FacedCount:       f.FacedCount,
			Winrate:          insights.Pct(f.Wins, f.FacedCount),
			OpponentDeck:     f.SampleCards,
			NearestMetaMatch: meta.Nearest(f.SampleCards, catalog),
			Swaps:            rec.Swaps,
			Tips:             rec.Tips,
		})
	}

	if len(r.MyDeck) == 0 {
		r.Tips = append(r.Tips, TipUnknownDeck)
	}
	if len(r.Items) == 0 {
		r.Tips = append(r.Tips, TipNoOpponents)
	}
	return r
}

// A BattleLogSource supplies a player's battle log.
type BattleLogSource interface {
	GetBattleLog(ctx context.Context, tag string) ([]battle.Raw, error)
}

// Matches fetches a player's battle log and normalizes its most recent
// MaxBattles records.
func Matches(ctx context.Context, s BattleLogSource, tag string) ([]battle.Match, error) {
	raws, err := s.GetBattleLog(ctx, clash.NormalizeTag(tag))
	if err != nil {
		return nil, err
	}
	if len(raws) > MaxBattles {
		raws = raws[:MaxBattles]
	}
	return battle.NormalizeAll(raws), nil
}

// A Report is everything known about a player's recent play.
type Report struct {
	Tag      string           `json:"tag"`
	Player   *clash.Player    `json:"player"`
	Insights *insights.Result `json:"insights"`
	Reco     *Recommendations `json:"reco"`
	Battles  []battle.Match   `json:"battles"`
	Warnings []string         `json:"warnings"`
}

// Option configures a Build query.
type Option func(*Options)

// Options holds optional parameters for a Build query.
type Options struct {
	loc *time.Location
}

// InLocation buckets match times by the hour of day in the supplied location.
func InLocation(loc *time.Location) Option {
	return func(o *Options) {
		o.loc = loc
	}
}

// Build fetches a player's battle log and builds a report from it. It never
// fails. If the battle log is unavailable the report has only a tag and a
// warning. Otherwise the profile and meta catalog are fetched concurrently,
// and either being unavailable nulls its section and adds a warning.
func Build(ctx context.Context, s Source, tag string, opts ...Option) *Report {
	o := Options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	t := clash.NormalizeTag(tag)
	r := &Report{Tag: "#" + t, Battles: []battle.Match{}, Warnings: []string{}}

	matches, err := Matches(ctx, s, t)
	if err != nil {
		r.Warnings = append(r.Warnings, battleLogWarning(err))
		return r
	}
	r.Battles = matches

	var (
		player  *clash.Player
		catalog []meta.Deck
		perr    error
		merr    error
	)

	// A Group without a context never cancels, so both fetches always run to
	// completion. Wait only reports the first failure, so each fetch also
	// keeps its own error for its warning.
	g := &errgroup.Group{}
	g.Go(func() error {
		player, perr = s.GetPlayer(ctx, t)
		return perr
	})
	g.Go(func() error {
		catalog, merr = s.GetMetaDecks(ctx)
		return merr
	})
	_ = g.Wait() // Only the first error; perr and merr are checked below.

	r.Insights = insights.Analyze(r.Battles, insights.InLocation(o.loc))

	if perr != nil {
		r.Warnings = append(r.Warnings, WarningPlayerUnavailable)
	} else {
		r.Player = player
	}

	if merr != nil {
		r.Warnings = append(r.Warnings, WarningMetaUnavailable)
	} else {
		r.Reco = Recommend(r.Battles, catalog)
	}

	return r
}

// battleLogWarning distinguishes an upstream that answered with an error
// status from one that couldn't be reached or returned garbage.
func battleLogWarning(err error) string {
	var se *clash.StatusError
	if errors.As(err, &se) {
		return WarningBattleLogUnavailable
	}
	return WarningBattleLogNetworkError
}
