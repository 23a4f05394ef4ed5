package runner

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Kalaith/nightmare-shift-sub000/internal/handlers"
	"github.com/Kalaith/nightmare-shift-sub000/internal/services/events"
	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/internal/storage"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store := storage.NewMockStorage()
	store.SetGuidelines([]guideline.Guideline{{ID: 1001, Title: "Never Make Eye Contact"}})
	store.SetPassengers([]passenger.Passenger{{
		ID:           1,
		Name:         "Martha",
		Supernatural: "Ghost of former taxi passenger",
		Fare:         30,
		StressLevel:  0.4,
	}})
	svc := shift.NewService(store, &events.Recorder{}, rng.Fixed(0.9), weather.NewGenerator(1), shift.Options{}, logger)

	mux := http.NewServeMux()
	sh := handlers.NewShiftHandler(svc, logger)
	mux.Handle("/v1/shifts", sh)
	mux.Handle("/v1/shifts/", sh)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func ptr[T any](v T) *T { return &v }

func TestRunSuite_FullRide(t *testing.T) {
	srv := newTestServer(t)
	r := NewRunner(srv.URL + "/")
	r.Client = srv.Client()

	suite := TestSuite{
		Name: "ride",
		Steps: []TestStep{
			{Name: "pick up", Op: OpPassenger, Expectations: Expectations{HasPassenger: ptr(true)}},
			{Name: "observe", Op: OpAnalyze},
			{Name: "follow", Op: OpDecision, Body: map[string]any{"guideline_id": 1001, "action": "follow"},
				Expectations: Expectations{DecisionCount: ptr(1)}},
			{Name: "drop off", Op: OpCompleteRide, Expectations: Expectations{RidesCompleted: ptr(1), MinEarnings: ptr(30)}},
			{Name: "clock out", Op: OpEnd, Expectations: Expectations{GameOver: ptr(true)}},
			{Name: "closed", Op: OpPassenger, Expectations: Expectations{Status: ptr(http.StatusConflict)}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, len(suite.Steps))
	for _, sr := range result.Results {
		assert.True(t, sr.Success, "%s: %v", sr.StepName, sr.Error)
	}
	assert.NotEqual(t, uuid.Nil, result.ShiftID)
}

func TestRunSuite_ReportsFailures(t *testing.T) {
	srv := newTestServer(t)
	r := NewRunner(srv.URL)
	r.Client = srv.Client()

	suite := TestSuite{
		Name: "bad",
		Steps: []TestStep{
			{Name: "no passenger yet", Op: OpCompleteRide},
			{Name: "bogus op", Op: "teleport"},
			{Name: "still runs", Op: OpGet, Expectations: Expectations{ResponseContains: []string{"player_trust"}}},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	require.Len(t, result.Results, 3)
	assert.False(t, result.Results[0].Success)
	assert.Equal(t, http.StatusConflict, result.Results[0].Status)
	assert.False(t, result.Results[1].Success)
	assert.True(t, result.Results[2].Success)

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	jobs, err := LoadTestSuiteWithExpansion(filepath.Join("..", "cases", "sequences", "all.json"), filepath.Join("..", "cases"))
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "Full ride", jobs[0].Name)
	assert.NotEmpty(t, jobs[0].Suite.Steps)

	_, err = LoadTestSuiteWithExpansion("missing.json", ".")
	assert.Error(t, err)
}
