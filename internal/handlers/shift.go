package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/google/uuid"
)

type RouteRequest struct {
	Route       passenger.RouteChoice  `json:"route"`
	RuleOutcome *passenger.RuleOutcome `json:"rule_outcome,omitempty"`
}

type ActionRequest struct {
	Action    guideline.PlayerAction `json:"action"`
	Reasoning string                 `json:"reasoning,omitempty"`
}

type EndRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ShiftHandler struct {
	service *shift.Service
	logger  *slog.Logger
}

func NewShiftHandler(service *shift.Service, logger *slog.Logger) *ShiftHandler {
	return &ShiftHandler{service: service, logger: logger}
}

// ServeHTTP handles shift lifecycle requests
// Routes:
// POST   /v1/shifts                     - Start a shift
// GET    /v1/shifts/{id}                - Read shift state
// DELETE /v1/shifts/{id}                - Discard a shift
// POST   /v1/shifts/{id}/passenger      - Pick up the next passenger
// POST   /v1/shifts/{id}/analyze        - Observe the passenger
// GET    /v1/shifts/{id}/routes         - List route options
// POST   /v1/shifts/{id}/route          - Drive a leg
// POST   /v1/shifts/{id}/decision       - Follow or break a guideline
// POST   /v1/shifts/{id}/action         - Perform a mid-ride action
// POST   /v1/shifts/{id}/complete-ride  - Drop the passenger off
// POST   /v1/shifts/{id}/end            - End the shift
// GET    /v1/shifts/{id}/difficulty     - Progression report
func (h *ShiftHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/shifts"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
			return
		}
		h.handleStart(w, r)
		return
	}

	idStr, op, _ := strings.Cut(path, "/")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid shift ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid shift ID format")
		return
	}

	route := r.Method + " " + op
	switch route {
	case "GET ":
		h.respond(w, r, "")(h.service.Get(r.Context(), id))
	case "DELETE ":
		if err := h.service.Delete(r.Context(), id); err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, "Shift deleted", nil)
	case "POST passenger":
		h.respond(w, r, "Passenger picked up")(h.service.RequestPassenger(r.Context(), id))
	case "POST analyze":
		h.respond(w, r, "")(h.service.Analyze(r.Context(), id))
	case "GET routes":
		h.respond(w, r, "")(h.service.Routes(r.Context(), id))
	case "POST route":
		var req RouteRequest
		if !h.decode(w, r, &req) {
			return
		}
		h.respond(w, r, "")(h.service.ChooseRoute(r.Context(), id, req.Route, req.RuleOutcome))
	case "POST decision":
		var req shift.DecisionRequest
		if !h.decode(w, r, &req) {
			return
		}
		h.respond(w, r, "Decision recorded")(h.service.Decide(r.Context(), id, req))
	case "POST action":
		var req ActionRequest
		if !h.decode(w, r, &req) {
			return
		}
		h.respond(w, r, "")(h.service.PerformAction(r.Context(), id, req.Action, req.Reasoning))
	case "POST complete-ride":
		h.respond(w, r, "Ride completed")(h.service.CompleteRide(r.Context(), id))
	case "POST end":
		var req EndRequest
		if !h.decode(w, r, &req) {
			return
		}
		h.respond(w, r, "Shift ended")(h.service.End(r.Context(), id, req.Reason))
	case "GET difficulty":
		h.respond(w, r, "")(h.service.Difficulty(r.Context(), id))
	default:
		h.logger.Warn("No route for shift request", "method", r.Method, "path", r.URL.Path)
		writeError(w, h.logger, http.StatusNotFound, fmt.Sprintf("No route for %s %s", r.Method, r.URL.Path))
	}
}

func (h *ShiftHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	gs, err := h.service.Start(r.Context())
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, "Shift started", gs)
}

// respond adapts a (value, error) service call into a response.
func (h *ShiftHandler) respond(w http.ResponseWriter, r *http.Request, message string) func(any, error) {
	return func(data any, err error) {
		if err != nil {
			writeServiceError(w, r, h.logger, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, message, data)
	}
}

func (h *ShiftHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeBody(r, v); err != nil {
		h.logger.Warn("Invalid request body", "path", r.URL.Path, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
