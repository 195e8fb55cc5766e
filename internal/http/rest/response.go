package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/ayilmaz/meetspot/internal/service"
	"github.com/ayilmaz/meetspot/util"
	"github.com/ayilmaz/meetspot/util/tracing"
	"github.com/ayilmaz/meetspot/util/values"
)

// ServerResponse is the envelope every handler returns.
type ServerResponse struct {
	Message    string      `json:"message"`
	Status     string      `json:"status"`
	StatusCode int         `json:"-"`
	Data       interface{} `json:"data,omitempty"`
}

func writeJSONResponse(w http.ResponseWriter, body []byte, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	log.Printf("request failed: %v", err)

	resp := ServerResponse{
		Message: message,
		Status:  status,
	}
	body, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		http.Error(w, message, http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, body, util.StatusCode(status))
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	log.Printf("[%s] %s: %v", tc.RequestID, message, err)
	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
	}
}

// respondWithServiceError maps a domain error to a response. Storage errors
// become a generic failure so persistence internals never leak to clients.
func respondWithServiceError(err error, tc *tracing.Context) *ServerResponse {
	status := values.Error
	message := values.InternalError

	switch service.KindOf(err) {
	case service.KindValidation:
		status, message = values.BadRequestBody, err.Error()
	case service.KindNotFound:
		status, message = values.NotFound, err.Error()
	case service.KindForbidden:
		status, message = values.NotAllowed, err.Error()
	case service.KindConflict:
		status, message = values.Conflict, err.Error()
	}

	return respondWithError(err, message, status, tc)
}
