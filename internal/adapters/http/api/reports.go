package api

import (
	"net/http"

	"github.com/okian/vacstat/pkg/logger"
)

// ReportsHandler handles report submission and retrieval.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandlePostReport handles POST /reports?profession=<substring> with a CSV body.
func (h *ReportsHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	body := http.MaxBytesReader(w, r.Body, h.deps.MaxUploadBytes())
	defer func() { _ = body.Close() }()

	profession := r.URL.Query().Get("profession")
	entry, err := h.deps.Submit(r.Context(), body, profession)
	if err != nil {
		logger.Get().Debug(r.Context(), "report rejected",
			logger.String("profession", profession),
			logger.Error(err),
		)
		writeClassified(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newReportResponse(entry))
}

// HandleGetReport handles GET /reports/{id}.
func (h *ReportsHandler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_report"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	entry, err := h.deps.GetReport(r.Context(), id)
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newReportResponse(entry))
}
