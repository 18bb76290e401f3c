package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform AJAX response shape.
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK wraps data in a success envelope.
func OK(w http.ResponseWriter, data any) {
	if data == nil {
		data = map[string]any{}
	}
	JSON(w, http.StatusOK, Envelope{Success: true, Data: data})
}

// Fail writes {success:false, data:{message, ...extra}}.
func Fail(w http.ResponseWriter, status int, message string, extra map[string]any) {
	data := map[string]any{"message": message}
	for k, v := range extra {
		data[k] = v
	}
	JSON(w, status, Envelope{Success: false, Data: data})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
