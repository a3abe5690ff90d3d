package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/notekeep/notekeep/internal/handler/dto"
)

// writeJSONError writes an error response in the API's flat error shape,
// matching what the handlers produce.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
