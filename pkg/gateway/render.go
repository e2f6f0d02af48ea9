package gateway

import (
	"net/http"

	"github.com/Sternrassler/swapi-gateway/pkg/swapi"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// APIError is a failed request as returned to the caller: the status code and
// a message rendered under "erro", plus optional extra fields.
type APIError struct {
	Status  int
	Message string
	Extra   map[string]any
}

var (
	// ErrAPIMissingType is returned when "tipo" is absent
	ErrAPIMissingType = APIError{
		Status:  http.StatusBadRequest,
		Message: "Parâmetro 'tipo' é obrigatório.",
		Extra:   map[string]any{"tipos_disponiveis": swapi.ResourceTypeNames()},
	}
	// ErrAPIInvalidType is returned when "tipo" is not a supported resource type
	ErrAPIInvalidType = APIError{
		Status:  http.StatusBadRequest,
		Message: "Parâmetro 'tipo' inválido.",
		Extra:   map[string]any{"tipos_disponiveis": swapi.ResourceTypeNames()},
	}
	ErrAPIEmptyTerm        = APIError{Status: http.StatusBadRequest, Message: "Parâmetro 'termo' não pode ser vazio."}
	ErrAPITermTooLong      = APIError{Status: http.StatusBadRequest, Message: "Parâmetro 'termo' excede o limite de 100 caracteres."}
	ErrAPITermInvalidChars = APIError{Status: http.StatusBadRequest, Message: "Parâmetro 'termo' contém caracteres inválidos."}

	// ErrAPIUpstream is returned when the catalog could not serve the request
	ErrAPIUpstream = APIError{Status: http.StatusBadGateway, Message: "Falha ao obter dados da fonte externa."}

	// ErrAPIInternal is returned when a handler fails unexpectedly
	ErrAPIInternal = APIError{Status: http.StatusInternalServerError, Message: "Erro interno do servidor."}

	ErrAPIMethodNotAllowed = APIError{Status: http.StatusMethodNotAllowed, Message: "Método não permitido."}
	ErrAPIRouteNotFound    = APIError{
		Status:  http.StatusNotFound,
		Message: "Endpoint não encontrado.",
		Extra:   map[string]any{"endpoints_disponiveis": Endpoints},
	}
)

// NoResultsMessage is rendered under "mensagem" when a valid query matched nothing.
const NoResultsMessage = "Nenhum registro encontrado para os critérios."

// Body returns the JSON body for the error.
func (e APIError) Body() map[string]any {
	body := make(map[string]any, len(e.Extra)+1)
	for k, v := range e.Extra {
		body[k] = v
	}
	body["erro"] = e.Message
	return body
}

// JSON encodes data with the given status.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	payload, err := jsonAPI.Marshal(data)
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Render JSON encode")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write response")
	}
}

// Error renders apiError. err, when set, is logged but never sent to the caller.
func Error(w http.ResponseWriter, r *http.Request, apiError APIError, err error) {
	if err != nil {
		logger := zerolog.Ctx(r.Context())
		event := logger.Warn()
		if apiError.Status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Err(err).Int("status", apiError.Status).Msg(apiError.Message)
	}
	JSON(w, r, apiError.Status, apiError.Body())
}
