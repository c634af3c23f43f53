package api

import (
	"fmt"
	"net/http"
	"strconv"
)

// CitiesHandler serves ranked city views of stored reports.
type CitiesHandler struct {
	deps Dependencies
}

// NewCitiesHandler creates a new cities handler.
func NewCitiesHandler(deps Dependencies) *CitiesHandler {
	return &CitiesHandler{deps: deps}
}

// HandleGetCities handles GET /reports/{id}/cities?by=salary|share&limit=N.
// Without limit the view holds the configured number of top cities.
func (h *CitiesHandler) HandleGetCities(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_cities"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	q := r.URL.Query()
	by := q.Get("by")
	if by == "" {
		by = "salary"
	}
	if by != "salary" && by != "share" {
		writeError(w, http.StatusBadRequest, "bad_request",
			WrapKind(op, ErrBadRequest, fmt.Errorf("by must be salary or share, got %q", by)))
		return
	}

	maxLimit := h.deps.TopCities()
	n := maxLimit
	if limitStr := q.Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
	}

	entries, err := h.deps.Cities(r.Context(), r.PathValue("id"), by, n)
	if err != nil {
		writeClassified(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
