package status

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// ErrMalformedRequest marks a request body that is not valid JSON.
// It travels on the transport tier: the handler returns it instead of
// answering, and the surrounding server decides the HTTP status. It is
// never folded into a success:false body.
var ErrMalformedRequest = errors.New("malformed status request body")

// Handler serves the hub status query. Body-tier outcomes — success and
// aggregation failure alike — are always HTTP 200 with a JSON envelope;
// clients branch on the envelope's success field.
type Handler struct {
	registry Registry
	log      zerolog.Logger
}

// NewHandler creates a status handler reading from the given registry.
func NewHandler(reg Registry, log zerolog.Logger) *Handler {
	return &Handler{registry: reg, log: log}
}

// Status handles GET requests against the status endpoint. The returned
// error is transport-tier only (malformed body, unreadable stream); the
// caller is expected to translate it into a non-200 response.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("reading status request body: %w", err)
	}

	var body *Request
	if len(bytes.TrimSpace(raw)) > 0 {
		body = new(Request)
		if err := json.Unmarshal(raw, body); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedRequest, err)
		}
	}

	queryParam, hasQuery := "", false
	if values, ok := r.URL.Query()["configuration"]; ok {
		hasQuery = true
		queryParam = values[0]
	}

	// A request carrying neither a body nor a configuration query
	// parameter gets the bare envelope and never touches the registry.
	if body == nil && !hasQuery {
		h.writeJSON(w, map[string]any{"success": true})
		return nil
	}

	fields := ResolveFieldSet(queryParam, body)

	snapshot, err := BuildSnapshot(h.registry, fields)
	if err != nil {
		h.log.Warn().Err(err).Msg("status aggregation failed")
		h.writeJSON(w, map[string]any{
			"success": false,
			"msg":     err.Error(),
		})
		return nil
	}

	snapshot["success"] = true
	h.writeJSON(w, snapshot)
	return nil
}

// writeJSON answers 200 with the given envelope. Encoding can only fail
// on a broken connection at this point, which is logged and dropped.
func (h *Handler) writeJSON(w http.ResponseWriter, envelope map[string]any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		h.log.Debug().Err(err).Msg("writing status response failed")
	}
}
