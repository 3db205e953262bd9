package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/db"
	"wellness-nudges-backend/internal/tasks"
)

func newTestRouter(t *testing.T, events *analytics.SQLRecorder) (http.Handler, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	var recorder analytics.Recorder
	var reader analytics.EventReader
	if events != nil {
		recorder, reader = events, events
	}

	clock := tasks.NewFakeClock(time.Date(2023, 12, 20, 15, 0, 0, 0, time.UTC))
	svc := tasks.NewService(nil, clock, recorder, logger)
	svc.Seed(context.Background())

	return NewRouter(svc, Options{
		CORSOrigins: []string{"http://localhost:3000"},
		Events:      reader,
		Logger:      logger,
	}), &buf
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_Index(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "POST /recommendations")
}

func TestRouter_NotFound(t *testing.T) {
	h, buf := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Endpoint not found","path":"/nope","method":"GET"}`, rec.Body.String())
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), `"path":"/nope"`)
}

func TestRouter_RecommendationFlow(t *testing.T) {
	h, buf := newTestRouter(t, nil)

	body := `{"metrics":{"water_ml":900,"steps":4000,"sleep_hours":6,"screen_time_min":150,"mood_1to5":2},"currentTime":"2023-12-20T15:00:00Z"}`
	rec := serve(h, http.MethodPost, "/recommendations", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tasks.RecommendationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 4)
	assert.Equal(t, "screen-break-10", resp.Tasks[0].ID)

	rec = serve(h, http.MethodPost, "/actions/complete", `{"taskId":"screen-break-10"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodPost, "/recommendations", body)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tasks, 4)
	assert.Equal(t, "sleep-winddown-15", resp.Tasks[0].ID)

	assert.Contains(t, buf.String(), `"msg":"http_request"`)
}

func TestRouter_CORS(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/recommendations", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_EventsEndpoint(t *testing.T) {
	database, err := db.Connect(db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Migrate(context.Background()))

	h, _ := newTestRouter(t, analytics.NewSQLRecorder(database))

	for range 2 {
		req := httptest.NewRequest(http.MethodPost, "/actions/dismiss", strings.NewReader(`{"taskId":"water-500"}`))
		req.Header.Set("Idempotency-Key", "dismiss-1")
		req.Header.Set("X-Platform", "ios")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(h, http.MethodGet, "/admin/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Enabled bool                    `json:"enabled"`
		Events  []analytics.StoredEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Enabled)

	var dismissals int
	for _, ev := range body.Events {
		if ev.Name == analytics.EventTaskDismissed {
			dismissals++
			assert.Equal(t, "ios", ev.Platform)
			assert.Equal(t, analytics.SourceHTTP, ev.Source)
			assert.NotEmpty(t, ev.RequestID)
		}
	}
	assert.Equal(t, 1, dismissals, "repeated idempotency key is stored once")
}

func TestRouter_EventsDisabled(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := serve(h, http.MethodGet, "/admin/events", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"enabled":false,"events":[]}`, rec.Body.String())
}
