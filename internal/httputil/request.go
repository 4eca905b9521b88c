package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"

	"atelier/internal/config"
)

// ParseJSON decodes a JSON request body into dest. The body size is
// capped so oversized payloads answer 413 instead of being buffered.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, config.MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
