package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/negz/crcoach/internal/strategy/counter"
	"github.com/negz/crcoach/internal/strategy/insights"
)

// None is printed in place of a missing value.
const None = "-"

// DeckSeparator separates cards in a formatted deck.
const DeckSeparator = " · "

// FormatWinrate formats a winrate percentage.
func FormatWinrate(pct int) string {
	return strconv.Itoa(pct) + "%"
}

// FormatRecord formats wins, losses, and draws, e.g. "5W 3L 1D".
func FormatRecord(wins, losses, draws int) string {
	return fmt.Sprintf("%dW %dL %dD", wins, losses, draws)
}

// FormatStreak formats a streak, e.g. "L3". An empty streak formats as None.
func FormatStreak(s insights.Streak) string {
	if s.Count == 0 {
		return None
	}
	return fmt.Sprintf("%s%d", s.Type, s.Count)
}

// FormatWindow formats a time-of-day window with its record. A window with no
// games formats as None.
func FormatWindow(w insights.Window) string {
	if w.Games == 0 {
		return None
	}
	return fmt.Sprintf("%s–%s (%d games, %s)",
		insights.FormatHour(w.Start), insights.FormatHour(w.End), w.Games, FormatWinrate(w.Winrate))
}

// FormatDeck formats a deck as a single line. An empty deck formats as None.
func FormatDeck(cards []string) string {
	if len(cards) == 0 {
		return None
	}
	return strings.Join(cards, DeckSeparator)
}

// FormatMetaWinrate formats an optional meta deck winrate, e.g. "53.5%".
func FormatMetaWinrate(wr *float64) string {
	if wr == nil {
		return None
	}
	return strconv.FormatFloat(*wr, 'f', -1, 64) + "%"
}

// FormatSwap formats a card swap, e.g. "-Skeletons +Cannon".
func FormatSwap(s counter.Swap) string {
	return fmt.Sprintf("-%s +%s", s.Remove, s.Add)
}

// FormatTime formats a battle time in the supplied location. The zero time
// formats as None.
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return None
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// FormatCrowns formats a battle's crowns, e.g. "3-1".
func FormatCrowns(team, opponent int) string {
	return fmt.Sprintf("%d-%d", team, opponent)
}

// Or returns s, or None if s is empty.
func Or(s string) string {
	if s == "" {
		return None
	}
	return s
}
