// internal/http/response.go
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
)

const maxBody = 1 << 20

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// UpstreamError reports a failed backend call. Backend 4xx answers keep
// their status and message; everything else becomes 502 with the fallback.
func UpstreamError(w http.ResponseWriter, err error, fallback string) {
	status := http.StatusBadGateway
	var apiErr *hoaapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		status = apiErr.Status
	}
	Error(w, status, hoaapi.UserMessage(err, fallback))
}

// Decode reads a single JSON value from the request body (1MB cap) and
// rejects trailing content.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("extra content after JSON value")
	}
	return nil
}

// WantsHTML reports whether the caller navigates (browser form post) rather
// than fetching JSON.
func WantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html") || r.URL.Query().Get("navigate") == "1"
}
