package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// internalBody is returned on 500. Details is only filled in the dev stage.
type internalBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

var errEmptyBody = errors.New("empty body")

// decodeJSON reads a single JSON object from r's body into dst.
// An empty body yields errEmptyBody.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

const maxBodyBytes = 1 << 20
