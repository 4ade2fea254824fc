// Package response writes JSON bodies for the HTTP layer.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// ErrorBody is the body of every error produced outside the product
// handlers' bare status responses.
type ErrorBody struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path,omitempty"`
}

func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.WarnContext(r.Context(), "response encode failed", "error", err, "path", r.URL.Path)
	}
}

func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	JSON(w, r, status, ErrorBody{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
	})
}

// Status writes a bodiless response.
func Status(w http.ResponseWriter, status int) {
	w.WriteHeader(status)
}
