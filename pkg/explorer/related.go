package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/client"
	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
)

// Relation names a list of links from one resource type to another.
type Relation struct {
	Parent swapi.ResourceType
	Field  string
}

// Relations served by the gateway.
var (
	FilmCharacters  = Relation{Parent: swapi.Films, Field: "characters"}
	PersonStarships = Relation{Parent: swapi.People, Field: "starships"}
	FilmPlanets     = Relation{Parent: swapi.Films, Field: "planets"}
)

// Related is the outcome of a related-record lookup.
type Related struct {
	ParentID   int
	ParentName string
	Records    []swapi.Record
	Partial    bool
}

// Related fetches the parent record and then each linked record in order.
// A linked record that cannot be fetched is skipped and the result is
// marked partial.
func (s *Service) Related(ctx context.Context, rel Relation, id int) (*Related, error) {
	start := time.Now()
	logger := s.logger.With().
		Str("resource", string(rel.Parent)).
		Str("relation", rel.Field).
		Int("id", id).
		Logger()

	parent, err := s.upstream.FetchRecord(ctx, rel.Parent, id)
	if err != nil {
		if client.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s %d", ErrNotFound, rel.Parent, id)
		}
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	result := &Related{
		ParentID:   id,
		ParentName: displayName(parent),
		Records:    []swapi.Record{},
	}

	links := parent.URLs(rel.Field)
	for _, link := range links {
		record, err := s.upstream.FetchRecordURL(ctx, link)
		if err != nil {
			result.Partial = true
			logger.Warn().
				Err(err).
				Str("link", link).
				Msg("Skipping related record")
			continue
		}
		result.Records = append(result.Records, record)
	}

	logger.Info().
		Int("links", len(links)).
		Int("records", len(result.Records)).
		Bool("partial", result.Partial).
		Dur("duration", time.Since(start)).
		Msg("Related lookup complete")

	return result, nil
}

// displayName is "title" for films and "name" for everything else.
func displayName(r swapi.Record) string {
	if title := r.String("title"); title != "" {
		return title
	}
	return r.String("name")
}
