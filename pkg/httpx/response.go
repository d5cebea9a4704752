package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmehra2102/storefront/pkg/apperr"
)

const genericFailure = "Something went wrong!"

type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func OK(w http.ResponseWriter, message string, data any) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Data: data})
}

func Fail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// Error maps err onto the response envelope. Client errors carry their
// message; server errors are logged and answered generically.
func Error(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", "kind", apperr.KindOf(err), "err", err)
		Fail(w, status, genericFailure)
		return
	}
	log.Info(op+" rejected", "kind", apperr.KindOf(err), "code", apperr.CodeOf(err), "err", err)
	Fail(w, status, err.Error())
}

func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid_body", err)
	}
	return nil
}
