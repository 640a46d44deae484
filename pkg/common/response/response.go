package response

import (
	"encoding/json"
	"net/http"
)

type JsonResponse struct {
	Error   bool   `json:"error"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, data any, msg string) error {
	return JSONWithHeaders(w, status, data, msg, nil)
}

// Err writes an error response; the data field is always null.
func Err(w http.ResponseWriter, status int, msg string) error {
	return write(w, status, &JsonResponse{Error: true, Message: msg}, nil)
}

func JSONWithHeaders(w http.ResponseWriter, status int, data any, msg string, headers http.Header) error {
	return write(w, status, &JsonResponse{Data: data, Message: msg}, headers)
}

func write(w http.ResponseWriter, status int, body *JsonResponse, headers http.Header) error {
	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(body)
}
