// Package counter suggests card swaps that counter an opponent's deck.
package counter

import (
	"slices"

	"github.com/negz/crcoach/internal/battle"
)

// MaxSwaps is the most swaps suggested for one opponent deck.
const MaxSwaps = 3

// TipGeneric is the only tip given when the player's deck is unknown.
const TipGeneric = "General tip: vs Hogs use a building (Cannon/Bomb Tower) and The Log; " +
	"vs Balloon keep a building plus air DPS; vs Giant/Golem use Inferno Tower/Dragon or Mini P.E.K.K.A."

// A Category is a fixed set of cards that serve the same role.
type Category struct {
	Name  string
	Cards []string
}

// Has returns true if the supplied card belongs to the category.
func (c Category) Has(card string) bool {
	k := battle.Key(card)
	for _, cc := range c.Cards {
		if battle.Key(cc) == k {
			return true
		}
	}
	return false
}

// Any returns true if any of the supplied cards belong to the category.
func (c Category) Any(cards []string) bool {
	return slices.ContainsFunc(cards, c.Has)
}

// Card categories.
//
//nolint:gochecknoglobals // Fixed reference sets.
var (
	Buildings = Category{
		Name:  "building",
		Cards: []string{"Cannon", "Bomb Tower", "Tesla", "Inferno Tower", "Goblin Cage", "Tombstone"},
	}
	AirDPS = Category{
		Name:  "air DPS",
		Cards: []string{"Musketeer", "Archers", "Mega Minion", "Tesla", "Inferno Dragon", "Minions", "Electro Wizard", "Phoenix", "Hunter"},
	}
	Splash = Category{
		Name:  "splash",
		Cards: []string{"Valkyrie", "Baby Dragon", "Wizard", "Executioner", "Bowler", "Bomb Tower", "Mother Witch"},
	}
	SmallSpells = Category{
		Name:  "small spell",
		Cards: []string{"The Log", "Arrows", "Barbarian Barrel", "Royal Delivery", "Snowball"},
	}
	BigSpells = Category{
		Name:  "big spell",
		Cards: []string{"Fireball", "Poison", "Rocket", "Lightning", "Earthquake"},
	}
	CheapCycle = Category{
		Name:  "cheap cycle",
		Cards: []string{"Skeletons", "Ice Spirit", "Fire Spirit", "Ice Golem", "Goblins", "Electro Spirit"},
	}
	Infernos = Category{
		Name:  "inferno",
		Cards: []string{"Inferno Tower", "Inferno Dragon"},
	}
	Poison = Category{
		Name:  "poison",
		Cards: []string{"Poison"},
	}
)

// A Rule fires when the opponent's deck contains any of its archetype cards.
// It suggests adding a card unless the player's deck already has a card in
// the Unless category. The swapped-out card preferably comes from the Remove
// category.
type Rule struct {
	Archetype []string
	Unless    Category
	Remove    Category
	Add       string
	Reason    string
	Tip       string // Given whenever the rule fires, even without a swap.
}

// Matches returns true if the supplied opponent deck triggers the rule.
func (r Rule) Matches(opponent []string) bool {
	return Category{Cards: r.Archetype}.Any(opponent)
}

// Tips shared by rules for the same archetype.
const (
	tipHog       = "Vs Hog: place a building in the center and save The Log to clear its support."
	tipRoyalHogs = "Vs Royal Hogs: play a central building and answer the weaker lane with splash."
	tipBalloon   = "Vs Balloon: keep a central building plus air DPS, and hold a response for Freeze."
	tipGraveyard = "Vs Graveyard: tank the King Tower and play Poison defensively before they push."
	tipTanks     = "Vs tanks: pressure the opposite lane when the opponent invests heavily behind the King Tower."
	tipXBow      = "Vs X-Bow: tank at the bridge plus a spell, and don't let them cycle for free."
)

// Rules are evaluated in order. Every rule is independent, so several may
// fire for one opponent deck.
//
//nolint:gochecknoglobals // Fixed rule table.
var Rules = []Rule{
	{
		Archetype: []string{"Hog Rider"},
		Unless:    Buildings,
		Remove:    CheapCycle,
		Add:       "Cannon",
		Reason:    "Vs Hog: a building pulls the Hog and limits tower damage.",
		Tip:       tipHog,
	},
	{
		Archetype: []string{"Hog Rider"},
		Unless:    SmallSpells,
		Remove:    CheapCycle,
		Add:       "The Log",
		Reason:    "Vs Hog: The Log clears its cheap support.",
		Tip:       tipHog,
	},
	{
		Archetype: []string{"Royal Hogs"},
		Unless:    Buildings,
		Remove:    CheapCycle,
		Add:       "Bomb Tower",
		Reason:    "Vs Royal Hogs: a splash building neutralizes split lanes.",
		Tip:       tipRoyalHogs,
	},
	{
		Archetype: []string{"Royal Hogs"},
		Unless:    SmallSpells,
		Remove:    CheapCycle,
		Add:       "The Log",
		Reason:    "Vs Royal Hogs: The Log cuts the support behind the hogs.",
		Tip:       tipRoyalHogs,
	},
	{
		Archetype: []string{"Balloon"},
		Unless:    Buildings,
		Remove:    CheapCycle,
		Add:       "Tesla",
		Reason:    "Vs Balloon: Tesla pulls the Balloon and buys time.",
		Tip:       tipBalloon,
	},
	{
		Archetype: []string{"Balloon"},
		Unless:    AirDPS,
		Remove:    CheapCycle,
		Add:       "Musketeer",
		Reason:    "Vs Balloon: consistent air DPS stops it reaching the tower.",
		Tip:       tipBalloon,
	},
	{
		Archetype: []string{"Graveyard"},
		Unless:    Splash,
		Remove:    CheapCycle,
		Add:       "Valkyrie",
		Reason:    "Vs Graveyard: splash on the King Tower clears the skeletons.",
		Tip:       tipGraveyard,
	},
	{
		Archetype: []string{"Graveyard"},
		Unless:    Poison,
		Remove:    BigSpells,
		Add:       "Poison",
		Reason:    "Vs Graveyard: Poison on the King Tower reduces damage and pressures the attacker.",
		Tip:       tipGraveyard,
	},
	{
		Archetype: []string{"Royal Giant", "Giant", "Golem"},
		Unless:    Infernos,
		Remove:    CheapCycle,
		Add:       "Inferno Tower",
		Reason:    "Vs tanks: Inferno melts tanks cost-effectively.",
		Tip:       tipTanks,
	},
	{
		Archetype: []string{"X-Bow"},
		Unless:    BigSpells,
		Remove:    CheapCycle,
		Add:       "Fireball",
		Reason:    "Vs X-Bow: a big spell resets or finishes the building.",
		Tip:       tipXBow,
	},
}

// A Swap suggests replacing one card in the player's deck with another.
type Swap struct {
	Remove string `json:"remove"`
	Add    string `json:"add"`
	Reason string `json:"reason"`
}

// Result is the output of a Recommend query.
type Result struct {
	Swaps []Swap   `json:"swaps"` // At most MaxSwaps, without duplicates.
	Tips  []string `json:"tips"`  // Without duplicates. Never empty if the deck is unknown.
}

// Recommend evaluates Rules against an opponent's deck and suggests swaps
// for the player's deck. An empty player deck yields only a generic tip.
func Recommend(mine, opponent []string) *Result {
	r := &Result{Swaps: []Swap{}, Tips: []string{}}

	if len(mine) == 0 {
		r.Tips = append(r.Tips, TipGeneric)
		return r
	}

	for _, rule := range Rules {
		if !rule.Matches(opponent) {
			continue
		}
		if !rule.Unless.Any(mine) {
			r.Swaps = appendUnique(r.Swaps, Swap{Remove: removal(mine, rule.Remove), Add: rule.Add, Reason: rule.Reason})
		}
		r.Tips = appendUnique(r.Tips, rule.Tip)
	}

	if len(r.Swaps) > MaxSwaps {
		r.Swaps = r.Swaps[:MaxSwaps]
	}
	return r
}

// removal picks the card to swap out: the first card in the preferred
// category, else the first cheap cycle card, else the first card.
func removal(deck []string, prefer Category) string {
	if i := slices.IndexFunc(deck, prefer.Has); i >= 0 {
		return deck[i]
	}

	best := 0
	for i, c := range deck {
		if score(c) < score(deck[best]) {
			best = i
		}
	}
	return deck[best]
}

func score(card string) int {
	if CheapCycle.Has(card) {
		return 0
	}
	return 1
}

func appendUnique[T comparable](s []T, v T) []T {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
