package api

import (
	"bytes"
	"net/http"

	"github.com/okian/agentpulse/internal/adapters/repository"
	"github.com/okian/agentpulse/internal/domain/model"
)

type dashboardView struct {
	Total   int
	Results []model.Result
}

// dashboardHandler renders the recent analyses page.
type dashboardHandler struct {
	store repository.Store
	limit int
}

func newDashboardHandler(store repository.Store, limit int) *dashboardHandler {
	return &dashboardHandler{store: store, limit: limit}
}

// HandleDashboard handles GET /dashboard requests.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	results, err := h.store.List(r.Context(), h.limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	var buf bytes.Buffer
	view := dashboardView{Total: h.store.Count(r.Context()), Results: results}
	if err := dashboardTemplate.Execute(&buf, view); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
