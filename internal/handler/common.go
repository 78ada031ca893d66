package handler

import (
	"encoding/json"
	"net/http"
	"strings"
)

// The mobile clients only look at the "status" field, so every route answers
// with the same low-fidelity shapes regardless of what failed internally.
const (
	statusSuccessful = "successful"
	statusFailed     = "failed"
	statusDone       = "done"
)

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeStatus writes the uniform {status: ...} response, merging any extras
func writeStatus(w http.ResponseWriter, status string, extra map[string]interface{}) {
	body := map[string]interface{}{"status": status}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

// writeFailed writes the uniform failure response. Failures deliberately
// carry no detail and no distinct HTTP code.
func writeFailed(w http.ResponseWriter) {
	writeStatus(w, statusFailed, nil)
}

// parseFields reads the request body as either JSON or form-encoded data and
// flattens it to string fields. The legacy clients post urlencoded bodies;
// newer ones post JSON.
func parseFields(r *http.Request) (map[string]string, error) {
	fields := make(map[string]string)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
		return fields, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	for k := range r.PostForm {
		fields[k] = r.PostForm.Get(k)
	}
	return fields, nil
}
