package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/yuletide/internal/store"
)

const (
	defaultTransitionLimit = 50
	maxTransitionLimit     = 1000
)

// TransitionHandler serves the transition journal.
type TransitionHandler struct {
	store *store.Store
}

// NewTransitionHandler creates a new TransitionHandler with the given store.
func NewTransitionHandler(s *store.Store) *TransitionHandler {
	return &TransitionHandler{store: s}
}

type transitionResponse struct {
	ID        string  `json:"id"`
	Source    string  `json:"source"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Rotation  float64 `json:"rotation"`
	CreatedAt string  `json:"created_at"`
}

type listTransitionsResponse struct {
	Transitions []transitionResponse `json:"transitions"`
	Total       int                  `json:"total"`
	BySource    map[string]int       `json:"by_source"`
}

// ServeHTTP handles GET /api/transitions?limit=N, newest first.
func (h *TransitionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := defaultTransitionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTransitionLimit)
	}

	transitions, err := h.store.Transitions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transitions")
		return
	}
	total, err := h.store.Transitions().Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count transitions")
		return
	}
	bySource, err := h.store.Transitions().CountBySource()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count transitions")
		return
	}

	response := listTransitionsResponse{
		Transitions: make([]transitionResponse, 0, len(transitions)),
		Total:       total,
		BySource:    bySource,
	}
	for _, t := range transitions {
		response.Transitions = append(response.Transitions, transitionResponse{
			ID:        t.ID,
			Source:    t.Source,
			From:      t.From,
			To:        t.To,
			Rotation:  t.Rotation,
			CreatedAt: t.CreatedAt.Format(timeFormat),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
