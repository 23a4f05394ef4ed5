package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/Kalaith/nightmare-shift-sub000/internal/handlers"
	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/google/uuid"
)

// envelope mirrors the API response wrapper with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	baseURL string
	client  *http.Client
}

func testConnection(c *apiClient) bool {
	resp, err := c.client.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// call sends a request and decodes the envelope's data into T.
func call[T any](c *apiClient, method, path string, body any) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return zero, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(raw))
	}
	if resp.StatusCode >= 300 || !env.Success {
		return zero, fmt.Errorf("%s (status %d)", env.Message, resp.StatusCode)
	}

	var out T
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return out, nil
}

func (c *apiClient) listGuidelines() ([]handlers.GuidelineView, error) {
	return call[[]handlers.GuidelineView](c, http.MethodGet, "/v1/guidelines", nil)
}

func (c *apiClient) startShift() (*state.GameState, error) {
	return call[*state.GameState](c, http.MethodPost, "/v1/shifts", nil)
}

func (c *apiClient) shiftPath(id uuid.UUID, op string) string {
	return fmt.Sprintf("/v1/shifts/%s/%s", id, op)
}

func (c *apiClient) requestPassenger(id uuid.UUID) (*state.GameState, error) {
	return call[*state.GameState](c, http.MethodPost, c.shiftPath(id, "passenger"), nil)
}

func (c *apiClient) analyze(id uuid.UUID) (*shift.AnalysisResult, error) {
	return call[*shift.AnalysisResult](c, http.MethodPost, c.shiftPath(id, "analyze"), nil)
}

// fallbackRoutes is offered when route options cannot be fetched.
var fallbackRoutes = []shift.RouteOption{
	{Route: passenger.RouteNormal, Cost: state.RouteCosts[passenger.RouteNormal]},
}

// routes lists route options, falling back to a plain detour on failure.
func (c *apiClient) routes(id uuid.UUID) ([]shift.RouteOption, error) {
	opts, err := call[[]shift.RouteOption](c, http.MethodGet, c.shiftPath(id, "routes"), nil)
	if err != nil || len(opts) == 0 {
		return fallbackRoutes, err
	}
	return opts, nil
}

func (c *apiClient) chooseRoute(id uuid.UUID, route passenger.RouteChoice) (*shift.RouteResult, error) {
	return call[*shift.RouteResult](c, http.MethodPost, c.shiftPath(id, "route"), handlers.RouteRequest{Route: route})
}

func (c *apiClient) decide(id uuid.UUID, req shift.DecisionRequest) (*shift.DecisionResult, error) {
	return call[*shift.DecisionResult](c, http.MethodPost, c.shiftPath(id, "decision"), req)
}

func (c *apiClient) performAction(id uuid.UUID, action guideline.PlayerAction) (*shift.ActionResult, error) {
	return call[*shift.ActionResult](c, http.MethodPost, c.shiftPath(id, "action"), handlers.ActionRequest{Action: action})
}

func (c *apiClient) completeRide(id uuid.UUID) (*shift.RideResult, error) {
	return call[*shift.RideResult](c, http.MethodPost, c.shiftPath(id, "complete-ride"), nil)
}

func (c *apiClient) endShift(id uuid.UUID) (*state.GameState, error) {
	return call[*state.GameState](c, http.MethodPost, c.shiftPath(id, "end"), handlers.EndRequest{Reason: "Driver clocked out"})
}
