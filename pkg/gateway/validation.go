package gateway

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
)

// MaxTermLength bounds the search term after trimming.
const MaxTermLength = 100

var termPattern = regexp.MustCompile(`^[A-Za-z0-9\s\-_.]+$`)

// parseResourceType validates "tipo": required, trimmed, case-insensitive.
func parseResourceType(query url.Values) (swapi.ResourceType, *APIError) {
	raw := strings.TrimSpace(query.Get("tipo"))
	if raw == "" {
		return "", &ErrAPIMissingType
	}

	rt, ok := swapi.ParseResourceType(raw)
	if !ok {
		return "", &ErrAPIInvalidType
	}
	return rt, nil
}

// parseTerm validates "termo". An absent term means no search.
func parseTerm(query url.Values) (string, *APIError) {
	if !query.Has("termo") {
		return "", nil
	}
	return ValidateTerm(query.Get("termo"))
}

// ValidateTerm trims a search term and checks it is non-empty, at most
// MaxTermLength characters and made of allowed characters only.
func ValidateTerm(raw string) (string, *APIError) {
	term := strings.TrimSpace(raw)
	switch {
	case term == "":
		return "", &ErrAPIEmptyTerm
	case utf8.RuneCountInString(term) > MaxTermLength:
		return "", &ErrAPITermTooLong
	case !termPattern.MatchString(term):
		return "", &ErrAPITermInvalidChars
	}
	return term, nil
}

// parsePositiveID validates a required positive integer id parameter.
func parsePositiveID(query url.Values, param string) (int, *APIError) {
	raw := strings.TrimSpace(query.Get(param))
	if raw == "" {
		return 0, &APIError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Parâmetro '%s' é obrigatório.", param),
		}
	}

	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		return 0, &APIError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Parâmetro '%s' deve ser um número inteiro positivo.", param),
		}
	}
	return id, nil
}
