package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/google/uuid"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running nightmare-shift API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...any)
	ErrorHandlingMode ErrorHandlingMode
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		Logger:            func(string, ...any) {},
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		subJobs, err := LoadTestSuiteWithExpansion(filepath.Join(casesDir, caseFile), casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}
		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// suiteRun carries what later steps need from earlier ones.
type suiteRun struct {
	shiftID  uuid.UUID
	analysis *state.Analysis
}

// RunSuite starts a fresh shift and executes every step against it
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job:     TestJob{Name: suite.Name, Suite: suite},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	gs, err := r.startShift(ctx)
	if err != nil {
		result.Error = fmt.Errorf("failed to start shift: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.ShiftID = gs.ID
	run := &suiteRun{shiftID: gs.ID}

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, run, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

func (r *Runner) startShift(ctx context.Context) (*state.GameState, error) {
	status, env, _, err := r.send(ctx, http.MethodPost, "/v1/shifts", nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusCreated {
		return nil, fmt.Errorf("start shift returned %d: %s", status, env.Message)
	}
	var gs state.GameState
	if err := json.Unmarshal(env.Data, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode shift: %w", err)
	}
	return &gs, nil
}

func (r *Runner) getShift(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	status, env, _, err := r.send(ctx, http.MethodGet, "/v1/shifts/"+id.String(), nil)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("get shift returned %d: %s", status, env.Message)
	}
	var gs state.GameState
	if err := json.Unmarshal(env.Data, &gs); err != nil {
		return nil, fmt.Errorf("failed to decode shift: %w", err)
	}
	return &gs, nil
}

// request resolves a step into a method, path and body.
func (run *suiteRun) request(step TestStep) (string, string, any, error) {
	base := "/v1/shifts/" + run.shiftID.String()
	switch step.Op {
	case OpGet:
		return http.MethodGet, base, nil, nil
	case OpDelete:
		return http.MethodDelete, base, nil, nil
	case OpRoutes, OpDifficulty:
		return http.MethodGet, base + "/" + step.Op, nil, nil
	case OpPassenger, OpAnalyze, OpCompleteRide:
		return http.MethodPost, base + "/" + step.Op, nil, nil
	case OpRoute, OpAction, OpEnd:
		return http.MethodPost, base + "/" + step.Op, step.Body, nil
	case OpDecision:
		body := map[string]any{}
		for k, v := range step.Body {
			body[k] = v
		}
		if run.analysis != nil {
			if _, ok := body["analysis_id"]; !ok {
				body["analysis_id"] = run.analysis.ID.String()
			}
			if _, ok := body["passenger_id"]; !ok {
				body["passenger_id"] = run.analysis.PassengerID
			}
		}
		return http.MethodPost, base + "/decision", body, nil
	default:
		return "", "", nil, fmt.Errorf("unknown op %q", step.Op)
	}
}

func (r *Runner) runStep(ctx context.Context, run *suiteRun, step TestStep) (result TestResult) {
	start := time.Now()
	result.StepName = step.Name
	defer func() { result.Duration = time.Since(start) }()

	stepCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	method, path, body, err := run.request(step)
	if err != nil {
		result.Error = err
		return result
	}

	status, env, raw, err := r.send(stepCtx, method, path, body)
	result.Status = status
	result.ResponseText = raw
	if err != nil {
		result.Error = err
		return result
	}

	if step.Op == OpAnalyze && status == http.StatusOK {
		var res shift.AnalysisResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			result.Error = fmt.Errorf("failed to decode analysis: %w", err)
			return result
		}
		run.analysis = &res.Analysis
	}

	if err := r.checkExpectations(stepCtx, run, step.Expectations, status, raw); err != nil {
		result.Error = err
		return result
	}

	result.Success = true
	return result
}

func (r *Runner) send(ctx context.Context, method, path string, body any) (int, envelope, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, envelope{}, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.BaseURL+path, reader)
	if err != nil {
		return 0, envelope{}, "", fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return 0, envelope{}, "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, envelope{}, "", fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, envelope{}, string(raw), fmt.Errorf("response is not an envelope: %s", string(raw))
	}
	return resp.StatusCode, env, string(raw), nil
}

func (r *Runner) checkExpectations(ctx context.Context, run *suiteRun, exp Expectations, status int, raw string) error {
	if exp.Status != nil {
		if status != *exp.Status {
			return fmt.Errorf("expected status %d, got %d: %s", *exp.Status, status, raw)
		}
	} else if status < 200 || status >= 300 {
		return fmt.Errorf("expected success, got %d: %s", status, raw)
	}

	lower := strings.ToLower(raw)
	for _, s := range exp.ResponseContains {
		if !strings.Contains(lower, strings.ToLower(s)) {
			return fmt.Errorf("response does not contain %q", s)
		}
	}
	for _, s := range exp.ResponseNotContains {
		if strings.Contains(lower, strings.ToLower(s)) {
			return fmt.Errorf("response unexpectedly contains %q", s)
		}
	}

	if !exp.needsState() {
		return nil
	}
	gs, err := r.getShift(ctx, run.shiftID)
	if err != nil {
		return fmt.Errorf("failed to read shift for expectations: %w", err)
	}

	if exp.GameOver != nil && gs.GameOver != *exp.GameOver {
		return fmt.Errorf("expected game_over=%v, got %v (%s)", *exp.GameOver, gs.GameOver, gs.GameOverReason)
	}
	if exp.HasPassenger != nil && gs.HasPassenger() != *exp.HasPassenger {
		return fmt.Errorf("expected has_passenger=%v, got %v", *exp.HasPassenger, gs.HasPassenger())
	}
	if exp.RidesCompleted != nil && gs.RidesCompleted != *exp.RidesCompleted {
		return fmt.Errorf("expected rides_completed=%d, got %d", *exp.RidesCompleted, gs.RidesCompleted)
	}
	if exp.MinEarnings != nil && gs.Earnings < *exp.MinEarnings {
		return fmt.Errorf("expected earnings >= %d, got %d", *exp.MinEarnings, gs.Earnings)
	}
	if exp.DecisionCount != nil && len(gs.DecisionHistory) != *exp.DecisionCount {
		return fmt.Errorf("expected %d decisions, got %d", *exp.DecisionCount, len(gs.DecisionHistory))
	}
	if len(exp.Inventory) > 0 {
		for _, item := range exp.Inventory {
			if !slices.Contains(gs.Inventory, item) {
				return fmt.Errorf("expected inventory to contain %q, got %v", item, gs.Inventory)
			}
		}
	}
	return nil
}
