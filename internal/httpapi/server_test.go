package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chat2carpool/carpoold/internal/extraction"
	"github.com/chat2carpool/carpoold/internal/match"
	"github.com/chat2carpool/carpoold/internal/metrics"
	"github.com/chat2carpool/carpoold/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	sessions := store.New(30*time.Minute, 0, nil)
	t.Cleanup(sessions.Close)

	engine := extraction.NewEngine(extraction.NewHeuristicExtractor(), 20, zap.NewNop(), m)

	srv, err := NewServer(Deps{
		Engine:   engine,
		Sessions: sessions,
		Matcher:  match.New(m),
		Metrics:  m,
		Registry: registry,
	}, zap.NewNop(), &Config{
		Host:           "localhost",
		Port:           0,
		RequestTimeout: 30 * time.Second,
	})
	require.NoError(t, err)
	return srv
}

func doJSON(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestExtractEndpoint(t *testing.T) {
	srv := newTestServer(t)

	t.Run("well-formed chat", func(t *testing.T) {
		chatText := "1/1/24, 10:00 AM - Alice: need a ride to downtown tomorrow 9am, 2 seats\n" +
			"1/1/24, 10:05 AM - Bob: hello everyone\n"
		body, _ := json.Marshal(ExtractRequest{ChatText: chatText})

		rec := doJSON(srv, http.MethodPost, "/api/v1/extract", string(body))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ExtractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.SessionID)
		assert.Equal(t, 2, resp.MessageCount)
		require.Len(t, resp.Records, 1)

		got := resp.Records[0]
		assert.Equal(t, extraction.KindRequest, got.Kind)
		assert.Equal(t, "downtown", got.Details.DropLocation)
		require.NotNil(t, got.Details.Passengers)
		assert.Equal(t, 2, *got.Details.Passengers)
		assert.Equal(t, "Alice", got.Source.Sender)
		assert.Empty(t, resp.Errors)
	})

	t.Run("malformed chat", func(t *testing.T) {
		body, _ := json.Marshal(ExtractRequest{ChatText: "garbage text"})

		rec := doJSON(srv, http.MethodPost, "/api/v1/extract", string(body))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "garbage text")
	})

	t.Run("empty chat text", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/v1/extract", `{"chat_text":""}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid json body", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/v1/extract", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("session reuse accumulates records", func(t *testing.T) {
		first, _ := json.Marshal(ExtractRequest{
			ChatText: "1/1/24, 10:00 AM - Alice: need a ride to downtown tomorrow 9am\n",
		})
		rec := doJSON(srv, http.MethodPost, "/api/v1/extract", string(first))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ExtractResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		sessionID := resp.SessionID

		second, _ := json.Marshal(ExtractRequest{
			ChatText:  "1/1/24, 11:00 AM - Bob: driving from uptown to downtown tomorrow 9am, 3 seats\n",
			SessionID: sessionID,
		})
		rec = doJSON(srv, http.MethodPost, "/api/v1/extract", string(second))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = doJSON(srv, http.MethodGet, "/api/v1/sessions/"+sessionID+"/records", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var records RecordsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records.Records, 2)
	})
}

func TestSessionRecordsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/api/v1/sessions/unknown/records", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionMatchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	chatText := "1/1/24, 10:00 AM - Alice: need a ride from uptown to downtown tomorrow 9am, 2 seats\n" +
		"1/1/24, 10:05 AM - Bob: driving from uptown to downtown tomorrow 9am, 3 seats\n"
	body, _ := json.Marshal(ExtractRequest{ChatText: chatText})

	rec := doJSON(srv, http.MethodPost, "/api/v1/extract", string(body))
	require.Equal(t, http.StatusOK, rec.Code)

	var extractResp ExtractResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &extractResp))

	rec = doJSON(srv, http.MethodPost, "/api/v1/sessions/"+extractResp.SessionID+"/match", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var matchResp MatchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &matchResp))
	require.Equal(t, 1, matchResp.Count)
	assert.Equal(t, match.TypeExact, matchResp.Matches[0].Type)
	assert.Equal(t, 3, matchResp.Matches[0].RemainingSeats)

	t.Run("unknown session", func(t *testing.T) {
		rec := doJSON(srv, http.MethodPost, "/api/v1/sessions/unknown/match", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	// A request first, so the HTTP counters have something to report.
	doJSON(srv, http.MethodGet, "/health", "")

	rec := doJSON(srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "carpoold_http_requests_total")
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(srv, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echoContentType), "text/html")
	assert.Contains(t, rec.Body.String(), "carpoold")
}

const echoContentType = "Content-Type"
