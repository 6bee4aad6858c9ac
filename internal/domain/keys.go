package domain

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	// eventKeyPattern matches event keys such as "2025txhou".
	eventKeyPattern = regexp.MustCompile(`^\d{4}[a-z0-9]+$`)
	// matchKeyPattern matches match keys such as "2025txhou_qm12",
	// "2025txhou_sf3m1" and "2025txhou_f1m2".
	matchKeyPattern = regexp.MustCompile(`^(\d{4}[a-z0-9]+)_(qm|qf|sf|f)\d+(m\d+)?$`)
)

// ValidateEventKey rejects malformed event keys with ErrInvalidInput.
func ValidateEventKey(key string) error {
	if !eventKeyPattern.MatchString(key) {
		return NewInputError("event_key", key, "must look like 2025txhou")
	}
	return nil
}

// ValidateMatchKey rejects malformed match keys with ErrInvalidInput.
func ValidateMatchKey(key string) error {
	if !matchKeyPattern.MatchString(key) {
		return NewInputError("match_key", key, "must look like 2025txhou_qm12")
	}
	return nil
}

// EventKeyOf returns the event portion of a match key.
func EventKeyOf(matchKey string) string {
	if i := strings.IndexByte(matchKey, '_'); i > 0 {
		return matchKey[:i]
	}
	return ""
}

var compLevelOrder = map[string]int{"qm": 0, "qf": 1, "sf": 2, "f": 3}

// matchPartsPattern splits the suffix of a match key into level, set and
// match numbers.
var matchPartsPattern = regexp.MustCompile(`_(qm|qf|sf|f)(\d+)(?:m(\d+))?$`)

type matchOrder struct {
	level, set, match int
}

func orderOf(key string) (matchOrder, bool) {
	m := matchPartsPattern.FindStringSubmatch(key)
	if m == nil {
		return matchOrder{}, false
	}
	set, _ := strconv.Atoi(m[2])
	match := 0
	if m[3] != "" {
		match, _ = strconv.Atoi(m[3])
	}
	return matchOrder{level: compLevelOrder[m[1]], set: set, match: match}, true
}

// CompareMatchKeys orders match keys the way they are played: qualification
// matches first, then quarterfinals, semifinals and finals, each by number.
// Keys that do not parse sort after valid ones, lexically.
func CompareMatchKeys(a, b string) int {
	oa, okA := orderOf(a)
	ob, okB := orderOf(b)
	switch {
	case !okA && !okB:
		return strings.Compare(a, b)
	case !okA:
		return 1
	case !okB:
		return -1
	}
	if c := cmp.Compare(oa.level, ob.level); c != 0 {
		return c
	}
	if c := cmp.Compare(oa.set, ob.set); c != 0 {
		return c
	}
	if c := cmp.Compare(oa.match, ob.match); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// SortMatchKeys sorts keys in play order and removes duplicates.
func SortMatchKeys(keys []string) []string {
	slices.SortFunc(keys, CompareMatchKeys)
	return slices.Compact(keys)
}
