package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/diengg/diengg/utils"
)

// Request bodies larger than this are rejected before decoding
const maxBodyBytes = 10 << 20

// decodeJSON decodes a JSON request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()

	decoder := json.NewDecoder(body)
	return decoder.Decode(dst)
}

// readBody reads the raw request body with the size cap applied
func readBody(r *http.Request) ([]byte, error) {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	defer body.Close()
	return io.ReadAll(body)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	_ = utils.WriteJSON(w, statusCode, data)
}
