// Package gateway is the HTTP surface of the catalog explorer: routing,
// parameter validation, CORS, request ids and JSON rendering.
package gateway

import (
	"context"
	"net/http"

	"github.com/Sternrassler/swapi-gateway/pkg/explorer"
	"github.com/Sternrassler/swapi-gateway/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Endpoints lists the public routes, returned on unknown paths.
var Endpoints = []string{
	"/explorar?tipo=&termo=&ordenar_por=&ordem=&pagina=&limite=",
	"/personagens-filme?filme_id=",
	"/naves-personagem?personagem_id=",
	"/planetas-filme?filme_id=",
}

// Explorer runs catalog queries. *explorer.Service implements it.
type Explorer interface {
	Explore(ctx context.Context, q explorer.Query) (*explorer.Listing, error)
	Related(ctx context.Context, rel explorer.Relation, id int) (*explorer.Related, error)
}

// NewRouter wires the gateway routes and middleware.
func NewRouter(svc Explorer, logger zerolog.Logger) http.Handler {
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(requestID(logger))
	r.Use(instrument)
	r.Use(cors)
	r.Use(recoverer)

	r.Get("/health", health)
	r.Handle("/metrics", metrics.Handler())

	r.Get("/explorar", h.explore)
	r.Get("/personagens-filme", h.related(relatedRoute{
		relation:  explorer.FilmCharacters,
		idParam:   "filme_id",
		parentKey: "filme",
		totalKey:  "total_personagens",
		listKey:   "personagens",
		notFound:  "Filme não encontrado.",
	}))
	r.Get("/naves-personagem", h.related(relatedRoute{
		relation:  explorer.PersonStarships,
		idParam:   "personagem_id",
		parentKey: "personagem",
		totalKey:  "total_naves",
		listKey:   "naves",
		notFound:  "Personagem não encontrado.",
	}))
	r.Get("/planetas-filme", h.related(relatedRoute{
		relation:  explorer.FilmPlanets,
		idParam:   "filme_id",
		parentKey: "filme",
		totalKey:  "total_planetas",
		listKey:   "planetas",
		notFound:  "Filme não encontrado.",
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Error(w, r, ErrAPIRouteNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		Error(w, r, ErrAPIMethodNotAllowed, nil)
	})

	return r
}
