package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/starford/loggbok/internal/scheduler"
	"github.com/starford/loggbok/internal/settings"
)

// Handler holds API route handlers.
type Handler struct {
	sched *scheduler.Scheduler
	cfg   *settings.Store
}

// NewHandler creates a new Handler.
func NewHandler(sched *scheduler.Scheduler, cfg *settings.Store) *Handler {
	return &Handler{sched: sched, cfg: cfg}
}

// TriggerSync handles POST /api/sync: it enqueues a manual cycle.
// A request landing while a cycle runs is coalesced, so this always
// answers 202.
func (h *Handler) TriggerSync(w http.ResponseWriter, _ *http.Request) {
	h.sched.TriggerNow()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg.Get())
}

// PatchSettings handles PATCH /api/settings. Only fields present in
// the body change; an interval change reschedules the next sync
// immediately.
func (h *Handler) PatchSettings(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var patch SettingsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}

	updated, rescheduled, err := h.sched.UpdateSettings(patch.apply)
	if err != nil {
		slog.Error("patch settings failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"settings":    updated,
		"rescheduled": rescheduled,
	})
}

// GetStatus handles GET /api/status.
func (h *Handler) GetStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.sched.Status())
}
