package clash

import (
	"time"

	"github.com/negz/crcoach/internal/battle"
)

// BattleTimeLayout is the API's battle timestamp format.
const BattleTimeLayout = "20060102T150405.000Z"

//nolint:gochecknoglobals // Read-only demo deck.
var demoDeck = []string{
	"Royal Hogs", "Mighty Miner", "Electro Spirit", "Cannon (Evolution)",
	"Skeletons", "The Log", "Baby Dragon", "Lightning",
}

// DemoBattleLog returns three ladder battles played one, two, and three
// hours before now: a win against Hog Rider, a loss against Royal Giant, and
// a draw against Balloon.
func DemoBattleLog(now time.Time) []battle.Raw {
	ago := func(h int) string {
		return now.Add(-time.Duration(h) * time.Hour).UTC().Format(BattleTimeLayout)
	}
	return []battle.Raw{
		{
			BattleTime:     ago(1),
			GameMode:       "1v1 Ladder",
			TeamCrowns:     battle.N(3),
			OpponentCrowns: battle.N(1),
			OpponentName:   "Rival_01",
			TeamCards:      demoDeck,
			OpponentCards:  []string{"Hog Rider", "Ice Golem", "Musketeer", "Cannon", "Fireball", "The Log", "Skeletons", "Ice Spirit"},
		},
		{
			BattleTime:     ago(2),
			GameMode:       "1v1 Ladder",
			TeamCrowns:     battle.N(0),
			OpponentCrowns: battle.N(1),
			OpponentName:   "Rival_02",
			TeamCards:      demoDeck,
			OpponentCards:  []string{"Royal Giant", "Fisherman", "Mother Witch", "Phoenix", "Lightning", "The Log", "Tombstone", "Hunter"},
		},
		{
			BattleTime:     ago(3),
			GameMode:       "1v1 Ladder",
			TeamCrowns:     battle.N(2),
			OpponentCrowns: battle.N(2),
			OpponentName:   "Rival_03",
			TeamCards:      demoDeck,
			OpponentCards:  []string{"Balloon", "Lumberjack", "Freeze", "Bowler", "Tornado", "Ice Golem", "Barbarians", "Baby Dragon"},
		},
	}
}

// DemoPlayer returns a demo profile for the supplied normalized tag.
func DemoPlayer(tag string) *Player {
	return &Player{
		Name:         "Demo Player",
		Tag:          "#" + tag,
		Trophies:     6400,
		BestTrophies: 6600,
		Level:        50,
		Clan:         &Clan{Name: "CR Coach", Tag: "#COACH"},
		Arena:        "Legendary Arena",
		ArenaID:      54000000,
	}
}
