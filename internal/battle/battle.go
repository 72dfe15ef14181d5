// Package battle normalizes upstream battle log records into matches.
package battle

import (
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

// DeckSize is the number of cards in a complete deck.
const DeckSize = 8

// UnknownMode is the mode name used when a record doesn't have one.
const UnknownMode = "-"

// SignatureSeparator joins card keys in a deck signature.
const SignatureSeparator = " | "

// MaxCrowns caps crowns so out of range upstream values can't overflow.
const MaxCrowns = math.MaxInt32

// An Outcome is the result of a match from the player's point of view.
type Outcome string

// Match outcomes. The zero Outcome means there's no match to speak of, e.g.
// the type of an empty streak.
const (
	Win  Outcome = "W"
	Loss Outcome = "L"
	Draw Outcome = "D"
)

// MarshalJSON encodes the zero Outcome as null.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o == "" {
		return []byte("null"), nil
	}
	return []byte(`"` + string(o) + `"`), nil
}

// A Match is a normalized battle. Matches are immutable once normalized.
type Match struct {
	TeamCrowns     int       `json:"teamCrowns"`
	OpponentCrowns int       `json:"opponentCrowns"`
	Mode           string    `json:"mode"`
	Time           time.Time `json:"timestamp,omitzero"` // Zero if unknown.
	Opponent       string    `json:"opponent,omitempty"`
	TeamCards      []string  `json:"teamCards"`
	OpponentCards  []string  `json:"opponentCards"`
}

// Outcome derives the match outcome from the crowns.
func (m Match) Outcome() Outcome {
	switch {
	case m.TeamCrowns > m.OpponentCrowns:
		return Win
	case m.TeamCrowns < m.OpponentCrowns:
		return Loss
	default:
		return Draw
	}
}

// Normalize converts a raw battle record into a Match. It never fails;
// missing or malformed fields take default values.
func Normalize(r Raw) Match {
	m := Match{
		TeamCrowns:     crowns(r.TeamCrowns, side(r.Team).Crowns),
		OpponentCrowns: crowns(r.OpponentCrowns, side(r.Opponent).Crowns),
		Mode:           mode(r),
		Time:           parseTime(r.BattleTime),
		TeamCards:      cards(r.TeamCards, side(r.Team).Cards),
		OpponentCards:  cards(r.OpponentCards, side(r.Opponent).Cards),
	}

	opp := side(r.Opponent)
	switch {
	case r.OpponentName != "":
		m.Opponent = r.OpponentName
	case opp.Name != "":
		m.Opponent = opp.Name
	default:
		m.Opponent = opp.Tag
	}

	return m
}

// NormalizeAll normalizes a battle log, preserving its order.
func NormalizeAll(rs []Raw) []Match {
	out := make([]Match, len(rs))
	for i, r := range rs {
		out[i] = Normalize(r)
	}
	return out
}

func side(s []Side) Side {
	if len(s) == 0 {
		return Side{}
	}
	return s[0]
}

func crowns(flat, nested Number) int {
	n := nested
	if flat.Valid {
		n = flat
	}
	if !n.Valid || math.IsNaN(n.Value) || math.IsInf(n.Value, 0) || n.Value < 0 {
		return 0
	}
	if n.Value >= MaxCrowns {
		return MaxCrowns
	}
	return int(n.Value)
}

func mode(r Raw) string {
	switch {
	case strings.TrimSpace(r.GameMode) != "":
		return r.GameMode
	case strings.TrimSpace(r.Type) != "":
		return r.Type
	default:
		return UnknownMode
	}
}

func cards(flat, nested []string) []string {
	src := flat
	if len(src) == 0 {
		src = nested
	}
	out := make([]string, 0, len(src))
	for _, c := range src {
		if n := CardName(c); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// Time layouts seen in battle logs. The upstream API uses a compact ISO 8601
// form; demo data and proxies use RFC 3339.
var timeLayouts = []string{ //nolint:gochecknoglobals // Read-only table.
	"20060102T150405.000Z",
	"20060102T150405Z",
	time.RFC3339Nano,
	time.RFC3339,
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

var (
	evolutionSuffix = regexp.MustCompile(`(?i)\s*\(evolution[^)]*\)\s*`) //nolint:gochecknoglobals // Compiled once.
	whitespace      = regexp.MustCompile(`\s+`)                         //nolint:gochecknoglobals // Compiled once.
)

// CardName returns the display name of a card with any evolution suffix
// removed, e.g. "Cannon (Evolution)" becomes "Cannon". Evolved and base
// cards are the same card for deck identity.
func CardName(s string) string {
	s = evolutionSuffix.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Key returns the comparison key for a card name: lower-cased with
// whitespace collapsed.
func Key(card string) string {
	return strings.ToLower(strings.TrimSpace(whitespace.ReplaceAllString(card, " ")))
}

// Keys returns the comparison keys for a list of cards, preserving order.
func Keys(cards []string) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = Key(c)
	}
	return out
}

// Signature returns the canonical identity of a set of cards. Two decks are
// the same deck iff their signatures are equal.
func Signature(cards []string) string {
	keys := Keys(cards)
	slices.Sort(keys)
	return strings.Join(keys, SignatureSeparator)
}

// FullDeck reports whether cards is a complete deck. Incomplete decks are
// unknown for deck-based aggregation and are never partially signed.
func FullDeck(cards []string) bool {
	return len(cards) == DeckSize
}
