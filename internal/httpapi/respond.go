package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"bizcard/internal/logging"
	"bizcard/internal/services"
	"bizcard/internal/share"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeError maps err to a status code through its services marker. Unknown
// failures are logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, share.ErrInvalidToken):
		status = http.StatusUnauthorized
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		logging.WithContext(r.Context(), s.logger).Error("handler error", logging.Error(err))
		message = "internal error"
	}
	writeErrorMessage(w, status, message)
}
