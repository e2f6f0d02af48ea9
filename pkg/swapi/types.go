// Package swapi defines the data model shared by the upstream client, the
// pagination walker, the sorter and the HTTP gateway.
package swapi

import (
	"strings"
)

// ResourceType is one of the upstream record categories.
type ResourceType string

const (
	// People are the catalog characters.
	People ResourceType = "people"

	// Planets are the catalog planets.
	Planets ResourceType = "planets"

	// Starships are the catalog starships.
	Starships ResourceType = "starships"

	// Films are the catalog films.
	Films ResourceType = "films"
)

// ResourceTypes lists every supported resource type in display order.
var ResourceTypes = []ResourceType{People, Planets, Starships, Films}

// ParseResourceType normalizes raw input (trimmed, case-insensitive) and
// reports whether it names a supported resource type.
func ParseResourceType(raw string) (ResourceType, bool) {
	rt := ResourceType(strings.ToLower(strings.TrimSpace(raw)))
	if !rt.Valid() {
		return "", false
	}
	return rt, true
}

// Valid reports whether rt is one of the supported resource types.
func (rt ResourceType) Valid() bool {
	switch rt {
	case People, Planets, Starships, Films:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer.
func (rt ResourceType) String() string {
	return string(rt)
}

// ResourceTypeNames returns the supported resource types as plain strings.
func ResourceTypeNames() []string {
	names := make([]string, len(ResourceTypes))
	for i, rt := range ResourceTypes {
		names[i] = string(rt)
	}
	return names
}

// Record is an opaque upstream record. Its schema depends on the resource type
// and is never validated; fields are looked up by name only when needed.
type Record map[string]any

// String returns the named field when it holds a string.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// URLs returns the named field when it holds a list of strings (the upstream
// links related records that way). Non-string entries are skipped.
func (r Record) URLs(field string) []string {
	raw, ok := r[field].([]any)
	if !ok {
		return nil
	}
	urls := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			urls = append(urls, s)
		}
	}
	return urls
}

// Page is one upstream listing page.
type Page struct {
	Count    int      `json:"count"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous"`
	Results  []Record `json:"results"`
}

// NextURL returns the follow-up page link, or "" when this is the last page.
func (p *Page) NextURL() string {
	if p == nil || p.Next == nil {
		return ""
	}
	return *p.Next
}

// FetchResult is the accumulation of every page walked for one query.
// ReportedTotal is the first page's count and may exceed len(Records) when
// the walk stopped early.
type FetchResult struct {
	Records       []Record
	ReportedTotal int
	Pages         int
	Partial       bool
}
