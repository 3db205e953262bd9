package analytics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"wellness-nudges-backend/internal/logging"
)

type EventReader interface {
	Recent(ctx context.Context, limit int) ([]StoredEvent, error)
}

// RecentEventsHandler lists recorded events, newest first. A nil reader means
// recording is disabled and an empty list is returned.
func RecentEventsHandler(reader EventReader, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
			return
		default:
			writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
			return
		}

		if reader == nil {
			writeJSON(w, http.StatusOK, map[string]any{"enabled": false, "events": []StoredEvent{}})
			return
		}

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		events, err := reader.Recent(r.Context(), limit)
		if err != nil {
			logging.Error(logger, "analytics_query_failed", err, nil)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal server error"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"enabled": true, "events": events})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
