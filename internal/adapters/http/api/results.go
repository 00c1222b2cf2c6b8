package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/agentpulse/internal/adapters/repository"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
)

type receiveResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// ResultsHandler receives mirrored results and serves them back.
type ResultsHandler struct {
	store  repository.Store
	secret string
	logger logger.Logger
}

// NewResultsHandler creates a new results handler. An empty secret disables auth.
func NewResultsHandler(store repository.Store, secret string, l logger.Logger) *ResultsHandler {
	return &ResultsHandler{store: store, secret: secret, logger: l}
}

// HandleReceive handles POST /webhook/results.
func (h *ResultsHandler) HandleReceive(w http.ResponseWriter, r *http.Request) {
	const op = "api.receive_result"
	if !h.authorized(r) {
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}
	var res model.Result
	if err := decodeBody(w, r, &res); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.store.Save(r.Context(), res)
	if errors.Is(err, repository.ErrInvalidResult) {
		writeError(w, http.StatusBadRequest, "invalid_result", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err != nil {
		h.logger.Error(r.Context(), "result not saved", logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	h.logger.Info(r.Context(), "result received",
		logger.String("jobId", saved.JobID),
		logger.String("service", saved.Service),
		logger.Float64("score", saved.Score),
	)
	writeJSON(w, http.StatusOK, receiveResponse{Success: true, Message: "Result received and saved", JobID: saved.JobID})
}

// HandleList handles GET /results?limit=N.
func (h *ResultsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_results"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	list, err := h.store.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleGet handles GET /results/{jobId}.
func (h *ResultsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_result"
	res, err := h.store.Find(r.Context(), r.PathValue("jobId"))
	if errors.Is(err, repository.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *ResultsHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) == 1
}
