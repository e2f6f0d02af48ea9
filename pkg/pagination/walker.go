package pagination

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_pages_fetched_total",
		Help: "Total upstream listing pages fetched by resource",
	}, []string{"resource"})

	partialWalksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapi_partial_walks_total",
		Help: "Total pagination walks that stopped before the last page, by reason",
	}, []string{"reason"})
)

// Reasons a walk stops early.
const (
	StopPageFailed = "page_failed"
	StopMaxPages   = "max_pages"
	StopCycle      = "cycle"
)

// Config holds walker configuration.
type Config struct {
	// MaxPages caps the number of pages fetched for one query,
	// the first page included
	MaxPages int
}

// DefaultConfig returns the default walker configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages: 100,
	}
}

// PageFetcher is the part of the upstream client the walker needs.
type PageFetcher interface {
	// FetchResource fetches the first page of a resource listing
	FetchResource(ctx context.Context, rt swapi.ResourceType, params url.Values) (*swapi.Page, error)

	// FetchURL fetches a page from a next link
	FetchURL(ctx context.Context, rawURL string) (*swapi.Page, error)
}

// Walker follows next links sequentially until the listing is exhausted.
type Walker struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewWalker creates a new walker.
func NewWalker(fetcher PageFetcher, config Config) *Walker {
	if config.MaxPages <= 0 {
		config.MaxPages = DefaultConfig().MaxPages
	}

	return &Walker{
		fetcher: fetcher,
		config:  config,
		logger:  log.With().Str("component", "pagination").Logger(),
	}
}

// FetchAll fetches every page of a resource listing.
// Only a first-page failure is returned as an error; later failures end the
// walk and the records gathered so far are returned with Partial set.
func (w *Walker) FetchAll(ctx context.Context, rt swapi.ResourceType, params url.Values) (*swapi.FetchResult, error) {
	start := time.Now()
	logger := w.logger.With().Str("resource", string(rt)).Logger()

	first, err := w.fetcher.FetchResource(ctx, rt, params)
	if err != nil {
		return nil, fmt.Errorf("fetch first page: %w", err)
	}
	pagesFetchedTotal.WithLabelValues(string(rt)).Inc()

	result := &swapi.FetchResult{
		Records:       append([]swapi.Record(nil), first.Results...),
		ReportedTotal: first.Count,
		Pages:         1,
	}

	visited := map[string]bool{pageKey(rt, params): true}
	next := first.NextURL()
	for next != "" {
		if result.Pages >= w.config.MaxPages {
			w.stop(logger, result, StopMaxPages, next, nil)
			break
		}
		key := linkKey(next)
		if visited[key] {
			w.stop(logger, result, StopCycle, next, nil)
			break
		}
		visited[key] = true

		page, err := w.fetcher.FetchURL(ctx, next)
		if err != nil {
			w.stop(logger, result, StopPageFailed, next, err)
			break
		}
		pagesFetchedTotal.WithLabelValues(string(rt)).Inc()

		result.Records = append(result.Records, page.Results...)
		result.Pages++
		next = page.NextURL()
	}

	logger.Debug().
		Int("pages", result.Pages).
		Int("records", len(result.Records)).
		Int("reported_total", result.ReportedTotal).
		Bool("partial", result.Partial).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return result, nil
}

// stop marks result as partial and logs why the walk ended early.
func (w *Walker) stop(logger zerolog.Logger, result *swapi.FetchResult, reason, next string, err error) {
	result.Partial = true
	partialWalksTotal.WithLabelValues(reason).Inc()

	logger.Warn().
		Err(err).
		Str("reason", reason).
		Str("next", next).
		Int("pages", result.Pages).
		Int("records", len(result.Records)).
		Int("reported_total", result.ReportedTotal).
		Msg("Pagination stopped early - returning partial results")
}

// pageKey identifies a listing page regardless of host and parameter order.
// Empty parameters are dropped and a missing page means page 1.
func pageKey(rt swapi.ResourceType, query url.Values) string {
	q := url.Values{}
	for k, values := range query {
		for _, v := range values {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	if q.Get("page") == "" {
		q.Set("page", "1")
	}
	return string(rt) + "?" + q.Encode()
}

// linkKey is pageKey for a follow-up link. Links without a resource segment
// are keyed by their raw form.
func linkKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	for _, segment := range strings.Split(u.Path, "/") {
		if rt, ok := swapi.ParseResourceType(segment); ok {
			return pageKey(rt, u.Query())
		}
	}
	return rawURL
}
