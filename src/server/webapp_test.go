package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stock-historian/src/logger"
	"stock-historian/src/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------
// Stubs
// -----------------------------------------------------------------------------

type stubSource struct {
	records []models.MPriceRecord
	err     error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchDailyHistory(ctx context.Context, symbol string, start, end time.Time) ([]models.MPriceRecord, error) {
	return s.records, s.err
}

type stubStore struct {
	saved   [][]models.MPriceRecord
	saveErr error
	aggs    []models.MAggregateRecord
	aggErr  error
}

func (s *stubStore) Initialize() error { return nil }
func (s *stubStore) Close() error      { return nil }

func (s *stubStore) SavePriceHistory(records []models.MPriceRecord) (int64, error) {
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	s.saved = append(s.saved, records)
	return int64(len(records)), nil
}

func (s *stubStore) AggregateDividends(symbol1, symbol2 string, start, end time.Time) ([]models.MAggregateRecord, error) {
	return s.aggs, s.aggErr
}

func (s *stubStore) ReadPriceHistory(symbol string, start, end time.Time) ([]models.MPriceRecord, error) {
	return nil, nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func newTestServer(store *stubStore, source *stubSource) *WebAppServer {
	gin.SetMode(gin.TestMode)
	cfg := &models.MConfig{
		Name:       "test",
		LogLevel:   "ERROR",
		DataSource: models.MDataSourceConfig{DefaultRangeYears: 10},
	}
	return NewWebAppServer(cfg, logger.NewLogger("ERROR", "test"), store, source)
}

func doJSON(t *testing.T, srv *WebAppServer, method, path, body, session string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: session})
	}

	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func sampleRecords() []models.MPriceRecord {
	date, _ := time.ParseInLocation("2006-01-02", "2023-01-03", time.UTC)
	return []models.MPriceRecord{{
		Date:      date,
		Open:      100.0,
		High:      105.0,
		Low:       99.0,
		Close:     102.0,
		Volume:    1000000,
		Dividends: 0.0,
	}}
}

const fetchBody = `{"symbol":"aapl","start":"2023-01-01","end":"2023-12-31"}`

// -----------------------------------------------------------------------------
// Collect screen
// -----------------------------------------------------------------------------

func TestCollectFetch_StoresPendingAndReportsRows(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{records: sampleRecords()})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["rows"])
	assert.Equal(t, "AAPL", resp["symbol"], "symbols are uppercased")

	pending := srv.Sessions.Get("sess1")
	require.NotNil(t, pending)
	assert.Equal(t, "AAPL", pending.Symbol)
	assert.Len(t, pending.Records, 1)
}

func TestCollectFetch_EmptyResultIsBenign(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{records: nil})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), resp["rows"])
	assert.NotEmpty(t, resp["note"])
	assert.Nil(t, srv.Sessions.Get("sess1"), "an empty fetch leaves nothing to save")
}

func TestCollectFetch_ProviderFailureIs502(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{err: errors.New("connection refused")})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, resp["error"], "fetch failed")
}

func TestCollectFetch_RejectsBadInput(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{})

	w, _ := doJSON(t, srv, http.MethodPost, "/api/collect/fetch",
		`{"symbol":"","start":"2023-01-01","end":"2023-12-31"}`, "sess1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = doJSON(t, srv, http.MethodPost, "/api/collect/fetch",
		`{"symbol":"AAA","start":"2023-12-31","end":"2023-01-01"}`, "sess1")
	assert.Equal(t, http.StatusBadRequest, w.Code, "inverted date range")
}

func TestCollectSave_WithoutFetchIsNoOp(t *testing.T) {
	store := &stubStore{}
	srv := newTestServer(store, &stubSource{})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/collect/save", `{}`, "sess1")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["saved"])
	assert.Equal(t, "No data to save.", resp["message"])
	assert.Empty(t, store.saved)
}

func TestCollectSave_WritesStampedRecordsOnce(t *testing.T) {
	store := &stubStore{}
	srv := newTestServer(store, &stubSource{records: sampleRecords()})

	doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	w, resp := doJSON(t, srv, http.MethodPost, "/api/collect/save", `{}`, "sess1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["saved"])
	assert.Equal(t, float64(1), resp["rows_written"])

	require.Len(t, store.saved, 1)
	assert.Equal(t, "AAPL", store.saved[0][0].Ticker, "ticker stamped before writing")

	// A second save without a new fetch must not double-insert.
	w, resp = doJSON(t, srv, http.MethodPost, "/api/collect/save", `{}`, "sess1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, resp["saved"])
	assert.Len(t, store.saved, 1)
}

func TestCollectSave_FailureKeepsPendingTable(t *testing.T) {
	store := &stubStore{saveErr: errors.New("constraint violation")}
	srv := newTestServer(store, &stubSource{records: sampleRecords()})

	doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	w, _ := doJSON(t, srv, http.MethodPost, "/api/collect/save", `{}`, "sess1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotNil(t, srv.Sessions.Get("sess1"), "a failed save can be retried after the cause is fixed")
}

func TestCollectSessions_AreIsolated(t *testing.T) {
	store := &stubStore{}
	srv := newTestServer(store, &stubSource{records: sampleRecords()})

	doJSON(t, srv, http.MethodPost, "/api/collect/fetch", fetchBody, "sess1")

	_, resp := doJSON(t, srv, http.MethodPost, "/api/collect/save", `{}`, "sess2")

	assert.Equal(t, false, resp["saved"], "another session's fetch is not visible")
}

// -----------------------------------------------------------------------------
// Visualize screen
// -----------------------------------------------------------------------------

func TestVisualize_ReturnsAggregates(t *testing.T) {
	store := &stubStore{aggs: []models.MAggregateRecord{
		{Ticker: "AAA", Year: 2020, TotalDividends: 3.01, AvgVolume: 2000.0},
	}}
	srv := newTestServer(store, &stubSource{})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/visualize",
		`{"symbol1":"aaa","symbol2":"bbb","start":"2020-01-01","end":"2021-12-31"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	records := resp["records"].([]interface{})
	require.Len(t, records, 1)
	first := records[0].(map[string]interface{})
	assert.Equal(t, "AAA", first["ticker"])
	assert.Equal(t, float64(2020), first["year"])
	assert.Equal(t, 3.01, first["total_dividends"])
}

func TestVisualize_EmptyResultWarnsWithoutChart(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{})

	w, resp := doJSON(t, srv, http.MethodPost, "/api/visualize",
		`{"symbol1":"AAA","symbol2":"","start":"2020-01-01","end":"2021-12-31"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp["records"])
	assert.Contains(t, resp["message"], "No data found")
}

func TestVisualize_QueryFailureIs500(t *testing.T) {
	store := &stubStore{aggErr: errors.New("connection reset")}
	srv := newTestServer(store, &stubSource{})

	w, _ := doJSON(t, srv, http.MethodPost, "/api/visualize",
		`{"symbol1":"AAA","symbol2":"","start":"2020-01-01","end":"2021-12-31"}`, "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// -----------------------------------------------------------------------------
// Misc endpoints
// -----------------------------------------------------------------------------

func TestGetConfig_ExposesDefaultRange(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{})

	w, resp := doJSON(t, srv, http.MethodGet, "/api/config", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(10), resp["default_range_years"])
}

func TestGetHealth(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{})

	w, resp := doJSON(t, srv, http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp["status"])
}

func TestGetIndex_ServesPage(t *testing.T) {
	srv := newTestServer(&stubStore{}, &stubSource{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	srv.Engine().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Collect Trade Data")
	assert.Contains(t, w.Body.String(), "Visualize Trade Data")
}
