// Package meta loads reference "meta" decks and matches observed decks
// against them.
package meta

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/negz/crcoach/internal/battle"
)

// A Deck is a reference deck from the meta catalog.
type Deck struct {
	Title   string   `json:"title"          toml:"title"`
	Cards   []string `json:"cards"          toml:"cards"`
	Winrate *float64 `json:"winrate"        toml:"winrate"` // Nil if unknown.
	Link    string   `json:"link,omitempty" toml:"link"`
}

type catalogFile struct {
	Decks []Deck `toml:"deck"`
}

//go:embed default.toml
var defaultCatalog []byte

// Parse reads a TOML catalog of [[deck]] tables. Evolution suffixes are
// stripped from card names.
func Parse(data []byte) ([]Deck, error) {
	var f catalogFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	decks := make([]Deck, 0, len(f.Decks))
	for _, d := range f.Decks {
		cards := make([]string, 0, len(d.Cards))
		for _, c := range d.Cards {
			if n := battle.CardName(c); n != "" {
				cards = append(cards, n)
			}
		}
		d.Cards = cards
		if strings.TrimSpace(d.Title) == "" {
			d.Title = "Meta Deck"
		}
		decks = append(decks, d)
	}
	return decks, nil
}

// Default returns the embedded catalog of popular ladder decks.
func Default() []Deck {
	decks, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return decks
}

// Jaccard returns the Jaccard similarity of two card sets, comparing card
// keys. It is zero when both sets are empty.
func Jaccard(a, b []string) float64 {
	as := keySet(a)
	bs := keySet(b)

	union := len(as)
	inter := 0
	for k := range bs {
		if as[k] {
			inter++
			continue
		}
		union++
	}

	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Nearest returns the catalog deck most similar to cards, or nil if the
// catalog is empty or no deck shares a card. The first deck wins ties.
func Nearest(cards []string, catalog []Deck) *Deck {
	var best *Deck
	bestScore := 0.0
	for i := range catalog {
		if j := Jaccard(cards, catalog[i].Cards); j > bestScore {
			best = &catalog[i]
			bestScore = j
		}
	}
	return best
}

func keySet(cards []string) map[string]bool {
	s := make(map[string]bool, len(cards))
	for _, c := range cards {
		if k := battle.Key(c); k != "" {
			s[k] = true
		}
	}
	return s
}
