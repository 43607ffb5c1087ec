package status

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/gridhub/internal/grid"
)

func doStatus(t *testing.T, h *Handler, method, target string, body io.Reader) (*httptest.ResponseRecorder, error) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	err := h.Status(rec, req)
	return rec, err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

// TestStatusNoBody verifies the degenerate case: no body and no query
// parameter yields exactly {"success":true} without touching the
// registry.
func TestStatusNoBody(t *testing.T) {
	reg := twoNodeRegistry(t)
	h := NewHandler(reg, zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]any{"success": true}, decodeBody(t, rec))
	assert.Equal(t, 0, reg.proxyReads)
}

// TestStatusFullSnapshot verifies an unfiltered query (empty JSON body)
// returns every field.
func TestStatusFullSnapshot(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub", strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeBody(t, rec)
	assert.Equal(t, true, envelope["success"])
	for _, key := range []string{"timeout", "servlets", "newSessionRequestCount", "nodes", "browsers"} {
		assert.Contains(t, envelope, key)
	}
}

// TestStatusQueryFilter covers the reference scenario filtered to
// browsers via the query string.
func TestStatusQueryFilter(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub?configuration=browsers", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeBody(t, rec)
	assert.Equal(t, true, envelope["success"])
	assert.NotContains(t, envelope, "nodes")
	assert.NotContains(t, envelope, "timeout")

	browsers, ok := envelope["browsers"].([]any)
	require.True(t, ok)
	require.Len(t, browsers, 2)
	assert.Equal(t, map[string]any{"name": "CHROME", "total": float64(2), "free": float64(1)}, browsers[0])
	assert.Equal(t, map[string]any{"name": "FIREFOX", "total": float64(1), "free": float64(1)}, browsers[1])
}

// TestStatusBodyFilter covers the reference scenario filtered to nodes
// via the request body.
func TestStatusBodyFilter(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub",
		strings.NewReader(`{"configuration":["nodes"]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeBody(t, rec)
	assert.Equal(t, true, envelope["success"])
	assert.NotContains(t, envelope, "browsers")
	assert.Equal(t, []any{
		map[string]any{"host": "http://a:5555"},
		map[string]any{"host": "http://b:5555"},
	}, envelope["nodes"])
}

// TestStatusEmptyFilterEqualsNoFilter verifies the empty-set collapse
// end to end, for both filter forms.
func TestStatusEmptyFilterEqualsNoFilter(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	unfiltered, err := doStatus(t, h, http.MethodGet, "/grid/api/hub", strings.NewReader(`{}`))
	require.NoError(t, err)

	emptyBody, err := doStatus(t, h, http.MethodGet, "/grid/api/hub",
		strings.NewReader(`{"configuration":[]}`))
	require.NoError(t, err)

	emptyQuery, err := doStatus(t, h, http.MethodGet, "/grid/api/hub?configuration=", nil)
	require.NoError(t, err)

	want := decodeBody(t, unfiltered)
	assert.Equal(t, want, decodeBody(t, emptyBody))
	assert.Equal(t, want, decodeBody(t, emptyQuery))
}

// TestStatusQueryWinsOverBody verifies the precedence of the query
// parameter over the body array.
func TestStatusQueryWinsOverBody(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub?configuration=nodes",
		strings.NewReader(`{"configuration":["browsers"]}`))
	require.NoError(t, err)

	envelope := decodeBody(t, rec)
	assert.Contains(t, envelope, "nodes")
	assert.NotContains(t, envelope, "browsers")
}

// TestStatusUnknownFieldsDropped verifies unknown names return a bare
// success envelope rather than an error.
func TestStatusUnknownFieldsDropped(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub?configuration=bogus", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, map[string]any{"success": true}, decodeBody(t, rec))
}

// TestStatusMalformedBody verifies the transport tier: invalid JSON is
// returned as an error, not converted into a success:false body.
func TestStatusMalformedBody(t *testing.T) {
	reg := twoNodeRegistry(t)
	h := NewHandler(reg, zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub", strings.NewReader(`{not json`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRequest))

	// Nothing was written on the body tier and the registry was not read
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, 0, reg.proxyReads)
}

// TestStatusAggregationFailure verifies the body tier: an aggregation
// error yields 200 with success:false, a message, and no partial fields.
func TestStatusAggregationFailure(t *testing.T) {
	reg := twoNodeRegistry(t)
	reg.proxies = append(reg.proxies, grid.NewProxy("http://c:5555", []*grid.Slot{
		grid.NewSlot(grid.Capability{"platform": "LINUX"}),
	}))
	h := NewHandler(reg, zerolog.Nop())

	rec, err := doStatus(t, h, http.MethodGet, "/grid/api/hub", strings.NewReader(`{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeBody(t, rec)
	assert.Equal(t, false, envelope["success"])
	msg, ok := envelope["msg"].(string)
	require.True(t, ok)
	assert.Contains(t, msg, "http://c:5555")

	// The atomic-commit policy: no partial snapshot alongside the failure
	assert.Len(t, envelope, 2)
}

// TestStatusMethodNotAllowed verifies only GET is served.
func TestStatusMethodNotAllowed(t *testing.T) {
	h := NewHandler(twoNodeRegistry(t), zerolog.Nop())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec, err := doStatus(t, h, method, "/grid/api/hub", nil)
		require.NoError(t, err)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
	}
}
