package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/engine"
)

func statusServer(t *testing.T) (*HTTPServer, *book.Book) {
	t.Helper()
	b := book.New()
	return NewHTTPServer("127.0.0.1:0", "testnet", b, &engine.Metrics{}), b
}

func TestHandleStatus(t *testing.T) {
	srv, b := statusServer(t)

	payload, err := json.Marshal(map[string]any{
		"offer_id":       "0x1",
		"maker":          "0xm",
		"offer_asset":    "BASE",
		"want_asset":     "QUOTE",
		"initial_amount": 100,
		"min_price":      1,
		"max_price":      2,
		"fill_policy":    1,
		"expiry_ms":      uint64(time.Now().UnixMilli()) + 3_600_000,
	})
	require.NoError(t, err)
	b.Apply(chain.RawEvent{Type: "0xpkg::events::OfferCreatedV2", Payload: payload})

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var status Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "testnet", status.Network)
	assert.Equal(t, 1, status.CachedOffers)
	assert.Equal(t, 0, status.CachedIntents)
}

func TestHandleStatusRejectsNonGet(t *testing.T) {
	srv, _ := statusServer(t)

	rec := httptest.NewRecorder()
	srv.handleStatus(rec, httptest.NewRequest(http.MethodPost, "/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
