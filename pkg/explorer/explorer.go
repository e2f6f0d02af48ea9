// Package explorer runs the fetch, sort and paginate pipeline over the
// upstream catalog and resolves related records.
package explorer

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/pagination"
	"github.com/Sternrassler/swapi-gateway/pkg/sorting"
	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Upstream is the part of the catalog client the service needs.
type Upstream interface {
	pagination.PageFetcher

	// FetchRecord fetches one record by id
	FetchRecord(ctx context.Context, rt swapi.ResourceType, id int) (swapi.Record, error)

	// FetchRecordURL fetches one record from a link in another record
	FetchRecordURL(ctx context.Context, rawURL string) (swapi.Record, error)
}

// Query is a validated listing request.
type Query struct {
	Type     swapi.ResourceType
	Term     string
	SortBy   string
	Order    sorting.Order
	Page     int
	PageSize int
}

// Listing is the outcome of Explore.
type Listing struct {
	Query         Query
	ReportedTotal int
	Page          pagination.PageResult
	Partial       bool
}

// Service runs catalog queries.
type Service struct {
	upstream Upstream
	walker   *pagination.Walker
	logger   zerolog.Logger
}

// NewService creates a new service.
func NewService(upstream Upstream, cfg pagination.Config) *Service {
	return &Service{
		upstream: upstream,
		walker:   pagination.NewWalker(upstream, cfg),
		logger:   log.With().Str("component", "explorer").Logger(),
	}
}

// Explore walks every upstream page matching q, sorts the accumulated
// records when q.SortBy is set, and returns the requested page.
// It returns ErrUpstream when the first page fails and ErrNoResults when
// nothing matched.
func (s *Service) Explore(ctx context.Context, q Query) (*Listing, error) {
	start := time.Now()

	params := url.Values{}
	if q.Term != "" {
		params.Set("search", q.Term)
	}

	fetched, err := s.walker.FetchAll(ctx, q.Type, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	if len(fetched.Records) == 0 {
		return nil, ErrNoResults
	}

	records := fetched.Records
	if q.SortBy != "" {
		records = sorting.Sort(records, q.SortBy, q.Order, q.Type)
	}

	listing := &Listing{
		Query:         q,
		ReportedTotal: fetched.ReportedTotal,
		Page:          pagination.Paginate(records, q.Page, q.PageSize),
		Partial:       fetched.Partial,
	}

	s.logger.Info().
		Str("resource", string(q.Type)).
		Str("term", q.Term).
		Str("sort_by", q.SortBy).
		Int("records", len(records)).
		Int("page", listing.Page.PageNumber).
		Int("total_pages", listing.Page.TotalPages).
		Bool("partial", fetched.Partial).
		Dur("duration", time.Since(start)).
		Msg("Explore complete")

	return listing, nil
}
