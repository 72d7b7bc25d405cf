package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/carebridge/healthcare-portal/internal/assistant"
)

// chatHandler is the patient-facing health assistant. The completion
// service is opaque: message in, reply out.
func chatHandler(client *assistant.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := SessionFrom(r)
		if !sess.IsPatient() {
			writeError(w, http.StatusForbidden, "forbidden", "the assistant is available to patients")
			return
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeError(w, http.StatusUnprocessableEntity, "validation_failed", "message is required")
			return
		}

		reply, err := client.Complete(r.Context(), req.Message)
		if err != nil {
			if errors.Is(err, assistant.ErrDisabled) {
				writeError(w, http.StatusServiceUnavailable, "assistant_disabled", err.Error())
				return
			}
			writeError(w, http.StatusBadGateway, "assistant_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, ChatResponse{Reply: reply})
	}
}
