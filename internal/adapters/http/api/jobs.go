package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/okian/agentpulse/internal/adapters/marketplace"
	service "github.com/okian/agentpulse/internal/app"
	"github.com/okian/agentpulse/internal/domain/model"
	"github.com/okian/agentpulse/pkg/logger"
)

// jobRequest is the body of every /jobs call.
type jobRequest struct {
	Requirements model.Requirements `json:"requirements"`
	Context      model.JobContext   `json:"context"`
}

type offeringResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type paymentResponse struct {
	Message string `json:"message"`
}

type executeResponse struct {
	Deliverable string `json:"deliverable"`
	Summary     string `json:"summary"`
}

// JobsHandler exposes the offerings over HTTP.
type JobsHandler struct {
	jobs   Jobs
	logger logger.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(jobs Jobs, l logger.Logger) *JobsHandler {
	return &JobsHandler{jobs: jobs, logger: l}
}

// HandleOfferings handles GET /offerings.
func (h *JobsHandler) HandleOfferings(w http.ResponseWriter, _ *http.Request) {
	list := h.jobs.Offerings()
	out := make([]offeringResponse, 0, len(list))
	for _, o := range list {
		out = append(out, offeringResponse{Name: o.Name(), Price: o.Price()})
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleValidate handles POST /jobs/{offering}/validate.
func (h *JobsHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_job"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	v, err := h.jobs.Validate(r.PathValue("offering"), req.Requirements)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// HandlePayment handles POST /jobs/{offering}/payment.
func (h *JobsHandler) HandlePayment(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_payment"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	msg, err := h.jobs.RequestPayment(r.PathValue("offering"), req.Requirements)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse{Message: msg})
}

// HandleExecute handles POST /jobs/{offering}/execute.
func (h *JobsHandler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	const op = "api.execute_job"
	req, ok := h.decode(w, r, op)
	if !ok {
		return
	}
	rep, err := h.jobs.Execute(r.Context(), r.PathValue("offering"), req.Requirements, req.Context)
	if err != nil {
		h.fail(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, executeResponse{Deliverable: rep.Deliverable, Summary: rep.HumanSummary})
}

func (h *JobsHandler) decode(w http.ResponseWriter, r *http.Request, op string) (jobRequest, bool) {
	var req jobRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return req, false
	}
	if req.Requirements == nil {
		req.Requirements = model.Requirements{}
	}
	return req, true
}

// fail maps offering errors onto HTTP statuses.
func (h *JobsHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "job request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "invalid_requirements"
	case errors.Is(err, service.ErrUnknownOffering):
		return http.StatusNotFound, "unknown_offering"
	case errors.Is(err, marketplace.ErrAgentNotFound):
		return http.StatusNotFound, "agent_not_found"
	case errors.Is(err, marketplace.ErrMetricsUnavailable), errors.Is(err, service.ErrNoAgentsAnalyzed):
		return http.StatusNotFound, "metrics_unavailable"
	case errors.Is(err, service.ErrLeaderboardUnavailable):
		return http.StatusBadGateway, "leaderboard_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
