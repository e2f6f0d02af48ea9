// Package sorting reorders accumulated upstream records by a caller-chosen
// field. Sorting never fails: an unknown field or resource type leaves the
// records in upstream order.
package sorting

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
)

// Order is the sort direction.
type Order string

const (
	// Asc sorts ascending.
	Asc Order = "asc"

	// Desc reverses the ascending result.
	Desc Order = "desc"
)

// ParseOrder normalizes raw input; anything other than "desc" is Asc.
func ParseOrder(raw string) Order {
	if Order(strings.ToLower(strings.TrimSpace(raw))) == Desc {
		return Desc
	}
	return Asc
}

// AllowedFields lists the sortable fields per resource type.
var AllowedFields = map[swapi.ResourceType][]string{
	swapi.People: {"name", "height", "mass", "birth_year"},
	swapi.Planets: {
		"name", "diameter", "rotation_period", "orbital_period",
		"population", "surface_water",
	},
	swapi.Starships: {
		"name", "length", "crew", "passengers", "cost_in_credits",
		"cargo_capacity", "max_atmosphering_speed", "hyperdrive_rating",
	},
	swapi.Films: {"title", "episode_id", "release_date"},
}

// IsAllowed reports whether field is sortable for rt.
func IsAllowed(rt swapi.ResourceType, field string) bool {
	for _, allowed := range AllowedFields[rt] {
		if field == allowed {
			return true
		}
	}
	return false
}

// Key tiers. Numbers come first, then strings, then missing values.
const (
	tierNumber = iota
	tierString
	tierMissing
)

type sortKey struct {
	tier int
	num  float64
	str  string
}

func (k sortKey) less(o sortKey) bool {
	if k.tier != o.tier {
		return k.tier < o.tier
	}
	switch k.tier {
	case tierNumber:
		return k.num < o.num
	case tierString:
		return k.str < o.str
	default:
		return false
	}
}

var missingValues = map[string]bool{
	"":        true,
	"unknown": true,
	"n/a":     true,
}

// Sort returns a reordered copy of records. Missing values end up last in
// ascending order and first in descending order, since desc reverses the
// whole stable ascending result.
func Sort(records []swapi.Record, field string, order Order, rt swapi.ResourceType) []swapi.Record {
	if !IsAllowed(rt, field) {
		log.Warn().
			Str("component", "sorting").
			Str("resource", string(rt)).
			Str("field", field).
			Strs("allowed", AllowedFields[rt]).
			Msg("Ignoring sort on field not allowed for resource")
		return records
	}

	fold := cases.Fold()
	type keyed struct {
		key    sortKey
		record swapi.Record
	}
	items := make([]keyed, len(records))
	for i, r := range records {
		items[i] = keyed{key: extractKey(r[field], fold), record: r}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].key.less(items[j].key)
	})

	sorted := make([]swapi.Record, len(items))
	for i, item := range items {
		sorted[i] = item.record
	}
	if order == Desc {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}
	return sorted
}

func extractKey(value any, fold cases.Caser) sortKey {
	if value == nil {
		return sortKey{tier: tierMissing}
	}

	raw := strings.TrimSpace(fmt.Sprint(value))
	if missingValues[strings.ToLower(raw)] {
		return sortKey{tier: tierMissing}
	}

	if n, ok := parseNumber(raw); ok {
		return sortKey{tier: tierNumber, num: n}
	}
	return sortKey{tier: tierString, str: fold.String(raw)}
}

// parseNumber strips thousands separators and a trailing "km" unit, then
// tries an integer before a float.
func parseNumber(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, ",", "")
	s = strings.TrimSpace(strings.TrimSuffix(s, "km"))
	if s == "" {
		return 0, false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
