package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"wellness-nudges-backend/internal/analytics"
	"wellness-nudges-backend/internal/logging"
	"wellness-nudges-backend/internal/models"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc    *Service
	logger *log.Logger
}

func NewHandler(svc *Service, logger *log.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// -------------------------------
// HANDLERS
// -------------------------------

func (h *Handler) Recommendations() http.HandlerFunc {
	return allow(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body RecommendationRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		resp, err := h.svc.Recommend(withEnvelope(r), body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})
}

func (h *Handler) Complete() http.HandlerFunc {
	return allow(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		task, err := h.svc.Complete(withEnvelope(r), body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ActionResponse{
			Success: true,
			Message: fmt.Sprintf("Task %s marked as completed", task.ID),
			Task:    &task,
		})
	})
}

func (h *Handler) Dismiss() http.HandlerFunc {
	return allow(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		var body ActionRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}

		task, err := h.svc.Dismiss(withEnvelope(r), body)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		ignores := task.Ignores
		writeJSON(w, http.StatusOK, ActionResponse{
			Success: true,
			Message: fmt.Sprintf("Task %s dismissed (ignores: %d)", task.ID, ignores),
			Task:    &task,
			Ignores: &ignores,
		})
	})
}

func (h *Handler) Seed() http.HandlerFunc {
	return allow(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		all := h.svc.Seed(withEnvelope(r))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": fmt.Sprintf("Loaded %d seed tasks", len(all)),
			"tasks":   all,
		})
	})
}

func (h *Handler) ListTasks() http.HandlerFunc {
	return allow(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string][]models.Task{"tasks": h.svc.List(r.Context())})
	})
}

func (h *Handler) Reset() http.HandlerFunc {
	return allow(http.MethodPost, func(w http.ResponseWriter, r *http.Request) {
		h.svc.Reset(withEnvelope(r))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": "Daily state reset for all tasks",
		})
	})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsValidation(err):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	default:
		logging.Error(h.logger, "request_failed", err, map[string]any{"method": r.Method, "path": r.URL.Path})
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// validationMessage keeps the metrics message exactly as clients expect it.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidMetrics):
		return ErrInvalidMetrics.Error()
	case errors.Is(err, ErrMissingTaskID):
		return ErrMissingTaskID.Error()
	default:
		return err.Error()
	}
}

// allow routes OPTIONS to 200 and rejects other methods than method.
func allow(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case method:
			next(w, r)
		case http.MethodOptions:
			w.WriteHeader(http.StatusOK)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func withEnvelope(r *http.Request) context.Context {
	return analytics.WithEnvelope(r.Context(), analytics.FromRequest(r))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
