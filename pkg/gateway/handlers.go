package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Sternrassler/swapi-gateway/pkg/explorer"
	"github.com/Sternrassler/swapi-gateway/pkg/pagination"
	"github.com/Sternrassler/swapi-gateway/pkg/sorting"
	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
)

type handlers struct {
	svc Explorer
}

// ListingResponse is the /explorar body.
type ListingResponse struct {
	Category      string         `json:"categoria"`
	TotalFound    int            `json:"total_encontrado"`
	TotalOnPage   int            `json:"total_na_pagina"`
	CurrentPage   int            `json:"pagina_atual"`
	TotalPages    int            `json:"total_paginas"`
	PageSizeLimit int            `json:"limite_por_pagina"`
	Term          string         `json:"termo,omitempty"`
	SortedBy      string         `json:"ordenado_por,omitempty"`
	Order         string         `json:"ordem,omitempty"`
	Results       []swapi.Record `json:"resultados"`
}

func health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

func (h *handlers) explore(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	rt, apiErr := parseResourceType(query)
	if apiErr != nil {
		Error(w, r, *apiErr, nil)
		return
	}

	term, apiErr := parseTerm(query)
	if apiErr != nil {
		Error(w, r, *apiErr, nil)
		return
	}

	q := explorer.Query{
		Type:     rt,
		Term:     term,
		SortBy:   strings.TrimSpace(query.Get("ordenar_por")),
		Order:    sorting.ParseOrder(query.Get("ordem")),
		Page:     pagination.ParsePage(query.Get("pagina")),
		PageSize: pagination.ParsePageSize(query.Get("limite")),
	}

	listing, err := h.svc.Explore(r.Context(), q)
	switch {
	case errors.Is(err, explorer.ErrNoResults):
		JSON(w, r, http.StatusNotFound, map[string]string{"mensagem": NoResultsMessage})
		return
	case err != nil:
		Error(w, r, ErrAPIUpstream, err)
		return
	}

	JSON(w, r, http.StatusOK, NewListingResponse(listing))
}

// NewListingResponse builds the response body of a listing.
func NewListingResponse(listing *explorer.Listing) ListingResponse {
	resp := ListingResponse{
		Category:      string(listing.Query.Type),
		TotalFound:    listing.ReportedTotal,
		TotalOnPage:   len(listing.Page.Records),
		CurrentPage:   listing.Page.PageNumber,
		TotalPages:    listing.Page.TotalPages,
		PageSizeLimit: listing.Page.PageSize,
		Term:          listing.Query.Term,
		Results:       listing.Page.Records,
	}
	if sorting.IsAllowed(listing.Query.Type, listing.Query.SortBy) {
		resp.SortedBy = listing.Query.SortBy
		resp.Order = string(listing.Query.Order)
	}
	return resp
}

// relatedRoute describes one related-record endpoint and its response keys.
type relatedRoute struct {
	relation  explorer.Relation
	idParam   string
	parentKey string
	totalKey  string
	listKey   string
	notFound  string
}

func (h *handlers) related(route relatedRoute) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, apiErr := parsePositiveID(r.URL.Query(), route.idParam)
		if apiErr != nil {
			Error(w, r, *apiErr, nil)
			return
		}

		related, err := h.svc.Related(r.Context(), route.relation, id)
		switch {
		case errors.Is(err, explorer.ErrNotFound):
			Error(w, r, APIError{Status: http.StatusNotFound, Message: route.notFound}, err)
			return
		case err != nil:
			Error(w, r, ErrAPIUpstream, err)
			return
		}

		JSON(w, r, http.StatusOK, map[string]any{
			route.parentKey: related.ParentName,
			route.idParam:   related.ParentID,
			route.totalKey:  len(related.Records),
			route.listKey:   related.Records,
		})
	}
}
