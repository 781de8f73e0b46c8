package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/guildboard/internal/apperr"
	"github.com/soyeahso/guildboard/internal/service"
)

// Envelope is the uniform result of every operation, over HTTP and RPC.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
	Code    string `json:"code,omitempty"`
}

// newEnvelope maps an operation result to its envelope. Domain errors and
// invalid parameters are client errors; anything else is reported with the
// operation's fallback message so internals never leak.
func newEnvelope(op string, data any, err error) Envelope {
	if err == nil {
		return Envelope{Status: http.StatusOK, Message: "OK", Data: data}
	}

	var invalid *apperr.InvalidParams
	if errors.As(err, &invalid) {
		return Envelope{
			Status:  http.StatusBadRequest,
			Message: invalid.Error(),
			Code:    string(apperr.CodeInvalidParams),
		}
	}
	if e, ok := apperr.As(err); ok {
		return Envelope{
			Status:  http.StatusBadRequest,
			Message: e.Message,
			Code:    string(e.Code),
		}
	}
	return Envelope{
		Status:  http.StatusInternalServerError,
		Message: service.FallbackMessage(op),
	}
}

func writeEnvelope(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	json.NewEncoder(w).Encode(env)
}
