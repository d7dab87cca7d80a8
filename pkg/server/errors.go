package server

import (
	"encoding/json"
	"net/http"

	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/orchestrator"
	"github.com/Texasdada13/juvenile-justice-langgraph/pkg/telemetry/logging"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	// Message is a human-readable error message.
	Message string `json:"message"`

	// Type categorizes the error.
	// Possible values: "invalid_request_error", "not_found",
	// "unprocessable", "server_error", "service_unavailable".
	Type string `json:"type"`

	// Kind is the evaluation failure kind for /v1/evaluate errors.
	Kind string `json:"kind,omitempty"`

	// Param names the offending field, if any.
	Param string `json:"param,omitempty"`

	// AuditEntryID is the error entry that recorded a failed evaluation.
	AuditEntryID string `json:"audit_entry_id,omitempty"`

	RequestID string `json:"request_id,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest     = "invalid_request_error"
	ErrorTypeNotFound           = "not_found"
	ErrorTypeUnprocessable      = "unprocessable"
	ErrorTypeServerError        = "server_error"
	ErrorTypeServiceUnavailable = "service_unavailable"
)

// evaluationStatus maps an evaluation failure kind to its status and type.
func evaluationStatus(kind string) (int, string) {
	switch kind {
	case orchestrator.KindInvalidSnapshot, orchestrator.KindInvalidOverride:
		return http.StatusBadRequest, ErrorTypeInvalidRequest
	case orchestrator.KindConfiguration, orchestrator.KindIncompleteReview:
		return http.StatusUnprocessableEntity, ErrorTypeUnprocessable
	default:
		return http.StatusInternalServerError, ErrorTypeServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail ErrorDetail) {
	detail.RequestID = logging.GetRequestID(r.Context())
	writeJSON(w, status, ErrorResponse{Error: detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
