package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/Kalaith/nightmare-shift-sub000/internal/services/events"
	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/internal/storage"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T) (*shift.Service, *storage.MockStorage) {
	t.Helper()
	store := storage.NewMockStorage()
	store.SetGuidelines([]guideline.Guideline{
		{
			ID:    1001,
			Title: "Never Make Eye Contact",
			Exceptions: []guideline.GuidelineException{{
				ID:             "eye_contact_lonely",
				Description:    "A lonely ghost needs to be seen",
				PassengerTypes: []string{"Ghost of former taxi passenger"},
				Conditions: []guideline.ExceptionCondition{
					{Type: guideline.ConditionPassengerDialogue, Value: "Why won't you look at me"},
				},
				BreakingSafer: true,
				Probability:   0.7,
			}},
			BreakConsequences: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceDeath, Value: 1, Description: "Its eyes were the last thing you saw", Probability: 0.6},
			},
		},
		{ID: 1002, Title: "Never Take Shortcuts"},
	})
	store.SetPassengers([]passenger.Passenger{{
		ID:           7,
		Name:         "Martha",
		Supernatural: "Ghost of former taxi passenger",
		Fare:         30,
		Dialogue:     []string{"Why won't you look at me?"},
		StressLevel:  0.8,
		RoutePreferences: []passenger.RoutePreference{
			{Route: passenger.RouteScenic, Preference: "loves", FareMultiplier: 1.5},
		},
	}})
	svc := shift.NewService(store, &events.Recorder{}, rng.Fixed(0.9), weather.NewGenerator(1), shift.Options{}, testLogger())
	return svc, store
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantHealth string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"storage down", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := storage.NewMockStorage()
			store.SetPingError(tt.pingErr)

			code, env := do(t, NewHealthHandler(store, testLogger()), http.MethodGet, "/health", "")
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, env.Success)

			var health HealthResponse
			require.NoError(t, json.Unmarshal(env.Data, &health))
			assert.Equal(t, tt.wantHealth, health.Status)
			assert.Equal(t, "nightmare-shift", health.Service)
		})
	}
}

func TestGuidelinesHandler(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewGuidelinesHandler(svc, testLogger())

	code, env := do(t, h, http.MethodGet, "/v1/guidelines", "")
	require.Equal(t, http.StatusOK, code)
	var list []GuidelineView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, []guideline.PlayerAction{guideline.ActionEyeContact}, list[0].BreakingActions)

	code, env = do(t, h, http.MethodGet, "/v1/guidelines/1002", "")
	require.Equal(t, http.StatusOK, code)
	var one GuidelineView
	require.NoError(t, json.Unmarshal(env.Data, &one))
	assert.Equal(t, "Never Take Shortcuts", one.Title)

	code, _ = do(t, h, http.MethodGet, "/v1/guidelines/4040", "")
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = do(t, h, http.MethodGet, "/v1/guidelines/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = do(t, h, http.MethodPost, "/v1/guidelines", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestShiftHandler_FullRide(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewShiftHandler(svc, testLogger())

	code, env := do(t, h, http.MethodPost, "/v1/shifts", "")
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, env.Success)
	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	base := "/v1/shifts/" + started.ID

	code, _ = do(t, h, http.MethodPost, base+"/analyze", "")
	assert.Equal(t, http.StatusConflict, code, "no passenger yet")

	code, _ = do(t, h, http.MethodPost, base+"/passenger", "")
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, h, http.MethodGet, base+"/routes", "")
	require.Equal(t, http.StatusOK, code)
	var routes []shift.RouteOption
	require.NoError(t, json.Unmarshal(env.Data, &routes))
	assert.Len(t, routes, 5)

	code, _ = do(t, h, http.MethodPost, base+"/route", `{"route": "scenic"}`)
	require.Equal(t, http.StatusOK, code)

	code, env = do(t, h, http.MethodPost, base+"/analyze", "")
	require.Equal(t, http.StatusOK, code)
	var analysis shift.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &analysis))

	code, _ = do(t, h, http.MethodPost, base+"/decision",
		`{"analysis_id": "`+analysis.Analysis.ID.String()+`", "guideline_id": 1001, "action": "break", "reasoning": "she asked"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodPost, base+"/decision",
		`{"analysis_id": "00000000-0000-0000-0000-000000000001", "guideline_id": 1001, "action": "break"}`)
	assert.Equal(t, http.StatusConflict, code, "stale analysis")

	code, env = do(t, h, http.MethodPost, base+"/action", `{"action": "turn_on_radio"}`)
	require.Equal(t, http.StatusOK, code)
	var action shift.ActionResult
	require.NoError(t, json.Unmarshal(env.Data, &action))
	assert.False(t, action.Breaking)

	code, env = do(t, h, http.MethodPost, base+"/complete-ride", "")
	require.Equal(t, http.StatusOK, code)
	var ride shift.RideResult
	require.NoError(t, json.Unmarshal(env.Data, &ride))
	assert.Equal(t, 45, ride.Fare)

	code, _ = do(t, h, http.MethodGet, base+"/difficulty", "")
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, h, http.MethodPost, base+"/end", `{"reason": "dawn"}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Shift ended", env.Message)

	code, env = do(t, h, http.MethodPost, base+"/passenger", "")
	assert.Equal(t, http.StatusConflict, code)
	assert.False(t, env.Success)

	code, _ = do(t, h, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = do(t, h, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestShiftHandler_BadRequests(t *testing.T) {
	svc, _ := newTestService(t)
	h := NewShiftHandler(svc, testLogger())

	code, _ := do(t, h, http.MethodGet, "/v1/shifts", "")
	assert.Equal(t, http.StatusMethodNotAllowed, code)

	code, _ = do(t, h, http.MethodGet, "/v1/shifts/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)

	_, env := do(t, h, http.MethodPost, "/v1/shifts", "")
	var started struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	base := "/v1/shifts/" + started.ID

	code, _ = do(t, h, http.MethodPost, base+"/passenger", "")
	require.Equal(t, http.StatusOK, code)

	code, _ = do(t, h, http.MethodPost, base+"/route", `{"route": "teleport"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, h, http.MethodPost, base+"/route", `{"rout": "scenic"}`)
	assert.Equal(t, http.StatusBadRequest, code, "unknown fields are rejected")

	code, _ = do(t, h, http.MethodPost, base+"/decision", `{"guideline_id": 1001, "action": "maybe"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = do(t, h, http.MethodPatch, base+"/wat", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.True(t, strings.HasPrefix(env.Message, "No route"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(shift.ErrShiftNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(shift.ErrStaleAnalysis))
	assert.Equal(t, http.StatusConflict, statusFor(shift.ErrAlreadyDecided))
	assert.Equal(t, http.StatusBadRequest, statusFor(shift.ErrUnknownGuideline))
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("redis exploded")))
}
