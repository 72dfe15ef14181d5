// Package insights derives descriptive statistics from a player's recent
// matches.
package insights

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/negz/crcoach/internal/battle"
)

const (
	// WindowHours is the width of the best time-of-day window.
	WindowHours = 3

	// MinWindowGames is the fewest games a window needs to be considered.
	MinWindowGames = 3

	// MinDeckGames is the fewest games a deck needs before it's praised.
	MinDeckGames = 3

	// TiltStreak is the loss streak length that triggers a tilt warning.
	TiltStreak = 3

	// WindowMargin is how many points above the overall winrate the best
	// window must be before suggesting a time of day.
	WindowMargin = 8

	// GoodDeckWinrate is the winrate at which the top deck is worth training.
	GoodDeckWinrate = 55
)

// Tips.
const (
	TipNoMatches   = "Not enough matches to analyze yet."
	TipTilt        = "Possible tilt: take a short break before your next match."
	TipWindow      = "You play best around %s–%s (3-hour windows)."
	TipTopDeck     = "Your most-used deck is performing well: keep training with it."
	TipConsistency = "Stay consistent: play short sessions, review your losses, and focus on the modes you play most."
)

// Streak is the run of identical outcomes at the start of a batch.
type Streak struct {
	Type  battle.Outcome `json:"type"` // Zero when there are no matches.
	Count int            `json:"count"`
}

// ModeStats is the player's record in one game mode.
type ModeStats struct {
	Name    string `json:"name"`
	Games   int    `json:"games"`
	Winrate int    `json:"winrate"`
}

// Window is a span of hours of the day, e.g. 21 to 0.
type Window struct {
	Start   int `json:"start"`
	End     int `json:"end"`
	Games   int `json:"games"`
	Winrate int `json:"winrate"`
}

// DeckStats is the player's record with one deck.
type DeckStats struct {
	Signature string `json:"signature"`
	Games     int    `json:"games"`
	Winrate   int    `json:"winrate"`
}

// Result is the output of an Analyze query.
type Result struct {
	Matches    int         `json:"matches"`
	Winrate    int         `json:"winrate"`
	Wins       int         `json:"wins"`
	Losses     int         `json:"losses"`
	Draws      int         `json:"draws"`
	Streak     Streak      `json:"streak"`
	Modes      []ModeStats `json:"modes"`      // Sorted by games descending.
	BestWindow Window      `json:"bestWindow"` // Hours [0, 3) with no games if no window qualifies.
	TopDeck    *DeckStats  `json:"topDeck"`    // Nil if no match had a full deck.
	Tips       []string    `json:"tips"`       // Never empty.
}

// Option configures an Analyze query.
type Option func(*Options)

// Options holds optional parameters for an Analyze query.
type Options struct {
	loc *time.Location
}

// InLocation buckets matches by the hour of day in the supplied location.
// The default is UTC.
func InLocation(loc *time.Location) Option {
	return func(o *Options) {
		o.loc = loc
	}
}

// Analyze computes statistics for a batch of matches ordered most recent
// first. It never fails; an empty batch yields zero values and a tip.
func Analyze(matches []battle.Match, opts ...Option) *Result {
	o := Options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Result{
		Matches:    len(matches),
		Modes:      modes(matches),
		BestWindow: bestWindow(matches, o.loc),
		TopDeck:    topDeck(matches),
		Streak:     streak(matches),
	}

	for _, m := range matches {
		switch m.Outcome() {
		case battle.Win:
			r.Wins++
		case battle.Loss:
			r.Losses++
		case battle.Draw:
			r.Draws++
		}
	}
	r.Winrate = Pct(r.Wins, r.Matches)
	r.Tips = tips(r)

	return r
}

// Pct returns a as a rounded percentage of b, or zero if b is zero.
func Pct(a, b int) int {
	if b == 0 {
		return 0
	}
	return int(math.Round(float64(a) / float64(b) * 100))
}

func streak(matches []battle.Match) Streak {
	var s Streak
	for _, m := range matches {
		o := m.Outcome()
		if s.Type != "" && o != s.Type {
			break
		}
		s.Type = o
		s.Count++
	}
	return s
}

type tally struct {
	games int
	wins  int
}

func (t *tally) add(m battle.Match) {
	t.games++
	if m.Outcome() == battle.Win {
		t.wins++
	}
}

func modes(matches []battle.Match) []ModeStats {
	byMode := make(map[string]*tally)
	var order []string
	for _, m := range matches {
		t, ok := byMode[m.Mode]
		if !ok {
			t = &tally{}
			byMode[m.Mode] = t
			order = append(order, m.Mode)
		}
		t.add(m)
	}

	out := make([]ModeStats, 0, len(order))
	for _, name := range order {
		t := byMode[name]
		out = append(out, ModeStats{Name: name, Games: t.games, Winrate: Pct(t.wins, t.games)})
	}

	// Stable, so modes with equal games stay in the order first seen.
	slices.SortStableFunc(out, func(a, b ModeStats) int {
		return cmp.Compare(b.Games, a.Games)
	})
	return out
}

func bestWindow(matches []battle.Match, loc *time.Location) Window {
	var hours [24]tally
	for _, m := range matches {
		if m.Time.IsZero() {
			continue
		}
		hours[m.Time.In(loc).Hour()].add(m)
	}

	best := Window{Start: 0, End: WindowHours}
	for s := range 24 {
		var w tally
		for i := range WindowHours {
			h := hours[(s+i)%24]
			w.games += h.games
			w.wins += h.wins
		}
		if w.games < MinWindowGames {
			continue
		}
		wr := Pct(w.wins, w.games)
		if wr > best.Winrate || (wr == best.Winrate && w.games > best.Games) {
			best = Window{Start: s, End: (s + WindowHours) % 24, Games: w.games, Winrate: wr}
		}
	}
	return best
}

func topDeck(matches []battle.Match) *DeckStats {
	byDeck := make(map[string]*tally)
	var order []string
	for _, m := range matches {
		if !battle.FullDeck(m.TeamCards) {
			continue
		}
		sig := battle.Signature(m.TeamCards)
		t, ok := byDeck[sig]
		if !ok {
			t = &tally{}
			byDeck[sig] = t
			order = append(order, sig)
		}
		t.add(m)
	}

	if len(order) == 0 {
		return nil
	}

	// Most games, then most wins. Stable, so the deck seen first (i.e. most
	// recently played) wins a full tie.
	slices.SortStableFunc(order, func(a, b string) int {
		ta, tb := byDeck[a], byDeck[b]
		if c := cmp.Compare(tb.games, ta.games); c != 0 {
			return c
		}
		return cmp.Compare(tb.wins, ta.wins)
	})

	t := byDeck[order[0]]
	return &DeckStats{Signature: order[0], Games: t.games, Winrate: Pct(t.wins, t.games)}
}

func tips(r *Result) []string {
	if r.Matches == 0 {
		return []string{TipNoMatches}
	}

	var tips []string
	if r.Streak.Type == battle.Loss && r.Streak.Count >= TiltStreak {
		tips = append(tips, TipTilt)
	}
	if r.BestWindow.Games >= MinWindowGames && r.BestWindow.Winrate >= r.Winrate+WindowMargin {
		tips = append(tips, fmt.Sprintf(TipWindow, FormatHour(r.BestWindow.Start), FormatHour(r.BestWindow.End)))
	}
	if r.TopDeck != nil && r.TopDeck.Games >= MinDeckGames && r.TopDeck.Winrate >= GoodDeckWinrate {
		tips = append(tips, TipTopDeck)
	}
	if len(tips) == 0 {
		tips = append(tips, TipConsistency)
	}
	return tips
}

// FormatHour formats an hour of the day, e.g. 9 as "09:00".
func FormatHour(h int) string {
	return fmt.Sprintf("%02d:00", h)
}
