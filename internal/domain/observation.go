package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Observation is one scouter's record of one team in one match. Data is
// period-segmented (auto/teleop/endgame) and otherwise opaque; values are
// addressed by dotted field paths.
type Observation struct {
	ID            string         `json:"id"`
	MatchKey      string         `json:"match_key"`
	EventKey      string         `json:"event_key"`
	TeamNumber    int            `json:"team_number"`
	ScouterID     string         `json:"scouter_id"`
	SchemaVersion string         `json:"schema_version,omitempty"`
	Data          map[string]any `json:"data"`
	SubmittedAt   time.Time      `json:"submitted_at"`
}

// Lookup resolves a dotted field path against the observation's data.
func (o Observation) Lookup(path string) (any, bool) {
	return LookupPath(o.Data, path)
}

// LookupPath walks nested maps following the dot-separated segments of path.
func LookupPath(data map[string]any, path string) (any, bool) {
	if data == nil || path == "" {
		return nil, false
	}
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// GroundTruth is an authoritative set of values for one match, keyed by team
// number and then by field path.
type GroundTruth struct {
	MatchKey  string                 `json:"match_key"`
	Source    string                 `json:"source"`
	Values    map[int]map[string]any `json:"values"`
	FetchedAt time.Time              `json:"fetched_at"`
}

// Value returns the ground-truth value for team at path.
func (g *GroundTruth) Value(team int, path string) (any, bool) {
	if g == nil {
		return nil, false
	}
	fields, ok := g.Values[team]
	if !ok {
		return nil, false
	}
	v, ok := fields[path]
	return v, ok && v != nil
}

// Set stores a value for team at path.
func (g *GroundTruth) Set(team int, path string, v any) {
	if g.Values == nil {
		g.Values = make(map[int]map[string]any)
	}
	if g.Values[team] == nil {
		g.Values[team] = make(map[string]any)
	}
	g.Values[team][path] = v
}

// ValueKind is the comparison family of a scouted value.
type ValueKind string

const (
	KindNumeric     ValueKind = "numeric"
	KindBoolean     ValueKind = "boolean"
	KindCategorical ValueKind = "categorical"
)

// AsNumber converts numeric JSON-ish values to float64. NaN and infinities,
// including strings such as "NaN" or "Inf", are not numbers.
func AsNumber(v any) (float64, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool converts boolean-ish values. Numeric 0/1 and the strings
// "true"/"false"/"yes"/"no" are accepted.
func AsBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
		return false, false
	default:
		if n, ok := AsNumber(v); ok && (n == 0 || n == 1) {
			return n == 1, true
		}
		return false, false
	}
}

// FormatValue renders a value for the audit trail.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
