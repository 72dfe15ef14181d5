package battle

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// A Raw battle record as returned by the upstream battle log or a proxy of
// it. Shapes vary: crowns may be flat fields or nested under the first team
// and opponent entries, and cards may be names or objects.
//
// Decoding a Raw from JSON never fails. Fields with an unexpected shape are
// left at their zero value and defaulted by Normalize.
type Raw struct {
	BattleTime     string
	Type           string
	GameMode       string // From gameMode.name, or gameMode if it's a string.
	TeamCrowns     Number
	OpponentCrowns Number
	OpponentName   string
	Team           []Side
	Opponent       []Side
	TeamCards      []string
	OpponentCards  []string
}

// A Side is one participant of a battle.
type Side struct {
	Tag    string
	Name   string
	Crowns Number
	Cards  []string
}

// A Number is a leniently decoded JSON number. Valid is false if the field
// was absent, null, or couldn't be coerced to a number.
type Number struct {
	Value float64
	Valid bool
}

// N returns a valid Number.
func N(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON decodes numbers, numeric strings, and booleans. It never
// returns an error.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = decodeNumber(b)
	return nil
}

// UnmarshalJSON decodes a raw battle record. It never returns an error; a
// value that isn't a JSON object decodes to the zero Raw.
func (r *Raw) UnmarshalJSON(b []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil {
		*r = Raw{}
		return nil //nolint:nilerr // Malformed records are defaulted, not rejected.
	}

	*r = Raw{
		BattleTime:     decodeString(obj["battleTime"]),
		Type:           decodeString(obj["type"]),
		GameMode:       decodeMode(obj["gameMode"]),
		TeamCrowns:     decodeNumber(obj["teamCrowns"]),
		OpponentCrowns: decodeNumber(obj["opponentCrowns"]),
		OpponentName:   decodeString(obj["opponentName"]),
		Team:           decodeSides(obj["team"]),
		Opponent:       decodeSides(obj["opponent"]),
		TeamCards:      decodeCards(obj["teamCards"]),
		OpponentCards:  decodeCards(obj["opponentCards"]),
	}
	return nil
}

// DecodeLog decodes a JSON array of raw battle records. Only a payload that
// isn't an array is an error; individual records never fail.
func DecodeLog(b []byte) ([]Raw, error) {
	var rs []Raw
	if err := json.Unmarshal(b, &rs); err != nil {
		return nil, err
	}
	return rs, nil
}

func decodeString(b json.RawMessage) string {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ""
	}
	return s
}

func decodeNumber(b json.RawMessage) Number {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return Number{}
	}

	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return Number{}
	}

	switch t := v.(type) {
	case float64:
		return N(t)
	case bool:
		if t {
			return N(1)
		}
		return N(0)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return N(0)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Number{}
		}
		return N(f)
	default:
		return Number{}
	}
}

func decodeMode(b json.RawMessage) string {
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(b, &obj); err == nil {
		return obj.Name
	}
	return decodeString(b)
}

func decodeSides(b json.RawMessage) []Side {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	out := make([]Side, 0, len(raw))
	for _, e := range raw {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(e, &obj); err != nil {
			out = append(out, Side{})
			continue
		}
		out = append(out, Side{
			Tag:    decodeString(obj["tag"]),
			Name:   decodeString(obj["name"]),
			Crowns: decodeNumber(obj["crowns"]),
			Cards:  decodeCards(obj["cards"]),
		})
	}
	return out
}

func decodeCards(b json.RawMessage) []string {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s := decodeString(e); s != "" {
			out = append(out, s)
			continue
		}
		var obj struct {
			Name json.RawMessage `json:"name"`
			Key  json.RawMessage `json:"key"`
		}
		if err := json.Unmarshal(e, &obj); err != nil {
			continue
		}
		name := decodeString(obj.Name)
		if name == "" {
			name = decodeString(obj.Key)
		}
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
