package analytics

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"wellness-nudges-backend/internal/db"
	"wellness-nudges-backend/internal/httpmw"
)

type CtxKey string

const ctxEnvelopeKey CtxKey = "analytics_envelope"

const (
	EventRecommendationsShown = "recommendations_shown"
	EventTaskCompleted        = "task_completed"
	EventTaskDismissed        = "task_dismissed"
	EventCatalogSeeded        = "catalog_seeded"
	EventDailyStateReset      = "daily_state_reset"
)

const (
	SourceHTTP = "http"
	SourceMCP  = "mcp"
	SourceTUI  = "tui"
	SourceCLI  = "cli"
)

// eventTimeLayout is fixed width so stored times sort lexically in SQLite.
const eventTimeLayout = "2006-01-02T15:04:05.000000Z07:00"

// Envelope is what we store with every event.
type Envelope struct {
	RequestID      string
	SessionID      string
	Platform       string
	AppVersion     string
	Source         string
	SourceEventKey string
}

// FromRequest extracts event envelope fields from request headers.
func FromRequest(r *http.Request) Envelope {
	platform := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Platform")))
	switch platform {
	case "ios", "android", "web":
	default:
		platform = "unknown"
	}

	return Envelope{
		RequestID:      httpmw.RequestIDFromContext(r.Context()),
		SessionID:      strings.TrimSpace(r.Header.Get("X-Session-Id")),
		Platform:       platform,
		AppVersion:     strings.TrimSpace(r.Header.Get("X-App-Version")),
		Source:         SourceHTTP,
		SourceEventKey: SourceEventKeyFromRequest(r),
	}
}

// SourceEventKeyFromRequest returns the client-provided idempotency key, if
// any. Duplicate keys are recorded once.
func SourceEventKeyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get("Idempotency-Key")); k != "" {
		return k
	}
	return strings.TrimSpace(r.Header.Get("X-Source-Event-Key"))
}

func WithEnvelope(ctx context.Context, env Envelope) context.Context {
	return context.WithValue(ctx, ctxEnvelopeKey, env)
}

func EnvelopeFromContext(ctx context.Context) (Envelope, bool) {
	env, ok := ctx.Value(ctxEnvelopeKey).(Envelope)
	return env, ok
}

// Event is one domain occurrence worth recording.
type Event struct {
	Name   string
	TaskID string
	Props  map[string]any
}

type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, Event) error { return nil }

// StoredEvent is an event as read back from the store.
type StoredEvent struct {
	ID         string          `json:"id"`
	Name       string          `json:"event_name"`
	Time       string          `json:"event_time"`
	RequestID  string          `json:"request_id,omitempty"`
	Platform   string          `json:"platform"`
	Source     string          `json:"source"`
	TaskID     string          `json:"task_id,omitempty"`
	Properties json.RawMessage `json:"properties"`
}

// SQLRecorder writes events to the nudge_events table.
type SQLRecorder struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLRecorder(database *db.DB) *SQLRecorder {
	return &SQLRecorder{db: database, now: time.Now}
}

// Open connects to the analytics store and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*SQLRecorder, error) {
	database, err := db.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return NewSQLRecorder(database), nil
}

func (r *SQLRecorder) Close() error {
	return r.db.Close()
}

func (r *SQLRecorder) Record(ctx context.Context, ev Event) error {
	if ev.Name == "" {
		return nil
	}

	env, _ := EnvelopeFromContext(ctx)
	if env.Platform == "" {
		env.Platform = "unknown"
	}
	if env.Source == "" {
		env.Source = SourceCLI
	}

	props := ev.Props
	if props == nil {
		props = map[string]any{}
	}
	b, err := json.Marshal(props)
	if err != nil {
		return fmt.Errorf("marshal event properties: %w", err)
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO nudge_events (
			id, event_name, event_time,
			request_id, session_id,
			platform, app_version, source,
			source_event_key, task_id,
			properties
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (source_event_key) DO NOTHING
	`),
		uuid.NewString(), ev.Name, r.now().UTC().Format(eventTimeLayout),
		nullIfEmpty(env.RequestID), nullIfEmpty(env.SessionID),
		env.Platform, nullIfEmpty(env.AppVersion), env.Source,
		nullIfEmpty(eventKey(env.SourceEventKey, ev.Name)), nullIfEmpty(ev.TaskID),
		string(b),
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", ev.Name, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (r *SQLRecorder) Recent(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(`
		SELECT id, event_name, event_time,
			COALESCE(request_id, ''), platform, source,
			COALESCE(task_id, ''), properties
		FROM nudge_events
		ORDER BY event_time DESC, id
		LIMIT $1
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := []StoredEvent{}
	for rows.Next() {
		var (
			ev    StoredEvent
			props string
		)
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.Time, &ev.RequestID, &ev.Platform, &ev.Source, &ev.TaskID, &props); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Properties = json.RawMessage(props)
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

// eventKey scopes a client key to one event name, so a request that records
// several events keeps all of them.
func eventKey(key, name string) string {
	if strings.TrimSpace(key) == "" {
		return ""
	}
	return key + ":" + name
}

func nullIfEmpty(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

// TierFromScore buckets a recommendation score for reporting.
func TierFromScore(score float64) string {
	switch {
	case score >= 2.0:
		return "P1"
	case score >= 1.5:
		return "P2"
	default:
		return "P3"
	}
}
