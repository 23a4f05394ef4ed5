package runner

import (
	"time"

	"github.com/google/uuid"
)

// Step operations map onto the shift endpoints.
const (
	OpGet          = "get"
	OpPassenger    = "passenger"
	OpAnalyze      = "analyze"
	OpRoutes       = "routes"
	OpRoute        = "route"
	OpDecision     = "decision"
	OpAction       = "action"
	OpCompleteRide = "complete-ride"
	OpEnd          = "end"
	OpDifficulty   = "difficulty"
	OpDelete       = "delete"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep is one call against the suite's shift.
// A decision body without analysis_id or passenger_id is filled in from the
// most recent analyze step.
type TestStep struct {
	Name         string         `json:"name,omitempty"`
	Op           string         `json:"op"`
	Body         map[string]any `json:"body,omitempty"`
	Expectations Expectations   `json:"expect"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	Status *int `json:"status,omitempty"` // defaults to any 2xx

	// Shift properties read back after the step
	GameOver       *bool    `json:"game_over,omitempty"`
	HasPassenger   *bool    `json:"has_passenger,omitempty"`
	RidesCompleted *int     `json:"rides_completed,omitempty"`
	MinEarnings    *int     `json:"min_earnings,omitempty"`
	DecisionCount  *int     `json:"decision_count,omitempty"`
	Inventory      []string `json:"inventory,omitempty"` // each item must be held

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
}

func (e Expectations) needsState() bool {
	return e.GameOver != nil || e.HasPassenger != nil || e.RidesCompleted != nil ||
		e.MinEarnings != nil || e.DecisionCount != nil || len(e.Inventory) > 0
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	Status       int
	ResponseText string
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	ShiftID  uuid.UUID
}
