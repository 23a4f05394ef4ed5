package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
)

// GuidelineView is a guideline with the player actions that break it.
type GuidelineView struct {
	guideline.Guideline
	BreakingActions []guideline.PlayerAction `json:"breaking_actions,omitempty"`
}

type GuidelinesHandler struct {
	service *shift.Service
	logger  *slog.Logger
}

func NewGuidelinesHandler(service *shift.Service, logger *slog.Logger) *GuidelinesHandler {
	return &GuidelinesHandler{service: service, logger: logger}
}

// ServeHTTP handles guideline content
// Routes:
// GET /v1/guidelines       - List all guidelines
// GET /v1/guidelines/{id}  - Get one guideline
func (h *GuidelinesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	all, err := h.service.Guidelines(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	actions := guideline.ActionMapFor(all)

	idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/guidelines"), "/")
	if idStr == "" {
		views := make([]GuidelineView, len(all))
		for i, g := range all {
			views[i] = GuidelineView{Guideline: g, BreakingActions: actions.ActionsFor(g.ID)}
		}
		writeJSON(w, h.logger, http.StatusOK, "", views)
		return
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid guideline ID")
		return
	}
	g, ok := guideline.Find(all, id)
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Guideline not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, "", GuidelineView{Guideline: *g, BreakingActions: actions.ActionsFor(id)})
}
