// Package shift runs the decision cycle for one driver's shift: assign a
// passenger, observe them, drive, decide on guidelines and get paid. Every
// call loads the session, applies one transition and saves it back.
package shift

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/internal/services/events"
	"github.com/Kalaith/nightmare-shift-sub000/internal/storage"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/progression"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
	"github.com/google/uuid"
)

const defaultGuidelinesPerShift = 5

// Options tunes a Service.
type Options struct {
	GuidelinesPerShift int
	StrictConditions   bool
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service orchestrates shifts against storage and content.
type Service struct {
	store    storage.Storage
	events   events.Publisher
	rng      rng.Source
	weather  *weather.Generator
	detector *guideline.Detector
	resolver guideline.Resolver
	now      func() time.Time
	perShift int
	logger   *slog.Logger
}

// NewService wires a Service. pub may be nil to disable events.
func NewService(store storage.Storage, pub events.Publisher, src rng.Source, wg *weather.Generator, opts Options, logger *slog.Logger) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	perShift := opts.GuidelinesPerShift
	if perShift <= 0 {
		perShift = defaultGuidelinesPerShift
	}
	eval := guideline.Evaluator{StrictUnknown: opts.StrictConditions}

	detector := guideline.NewDetector(src).WithClock(now)
	detector.Evaluator = eval

	return &Service{
		store:    store,
		events:   pub,
		rng:      src,
		weather:  wg,
		detector: detector,
		resolver: guideline.Resolver{Evaluator: eval},
		now:      now,
		perShift: perShift,
		logger:   logger,
	}
}

// Guidelines returns all guideline content.
func (s *Service) Guidelines(ctx context.Context) ([]guideline.Guideline, error) {
	gs, err := s.store.ListGuidelines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load guidelines: %w", err)
	}
	return gs, nil
}

// Start opens a new shift with a random draw of guidelines.
func (s *Service) Start(ctx context.Context) (*state.GameState, error) {
	all, err := s.Guidelines(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int, len(all))
	for i, g := range all {
		ids[i] = g.ID
	}
	for i := len(ids) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
	if len(ids) > s.perShift {
		ids = ids[:s.perShift]
	}
	slices.Sort(ids)

	shiftNumber := s.rng.IntN(1 << 20)
	gs := state.NewGameState(ids, s.weather.At(shiftNumber, 0))
	gs.ShiftNumber = shiftNumber
	gs.StartedAt = s.now()

	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	s.logger.Info("Shift started", "shift_id", gs.ID, "guidelines", ids, "weather", gs.CurrentWeather.Type)
	s.publish(ctx, gs.ID, events.EventTypeShiftStarted, map[string]any{
		"guidelines": ids,
		"weather":    gs.CurrentWeather,
	})
	return gs, nil
}

// Get loads a shift.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := s.store.LoadShift(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load shift: %w", err)
	}
	if gs == nil {
		return nil, ErrShiftNotFound
	}
	return gs, nil
}

// Delete discards a shift.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteShift(ctx, id); err != nil {
		return fmt.Errorf("failed to delete shift: %w", err)
	}
	return nil
}

// RequestPassenger puts the next passenger in the car. Passengers already
// driven this shift are skipped until every passenger has ridden once.
func (s *Service) RequestPassenger(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.HasPassenger() {
		return nil, ErrRideInProgress
	}

	all, err := s.store.ListPassengers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load passengers: %w", err)
	}
	if len(all) == 0 {
		return nil, ErrNoPassengersLeft
	}

	pool := make([]passenger.Passenger, 0, len(all))
	for _, p := range all {
		if !slices.Contains(gs.UsedPassengerIDs, p.ID) {
			pool = append(pool, p)
		}
	}
	if len(pool) == 0 {
		pool = all
	}
	p := pool[s.rng.IntN(len(pool))]

	gs = state.AssignPassenger(gs, p)
	gs = state.WithWeather(gs, s.weather.At(gs.ShiftNumber, gs.MinutesElapsed()))
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	s.logger.Debug("Passenger assigned", "shift_id", id, "passenger_id", p.ID)
	s.publish(ctx, id, events.EventTypePassengerAssigned, map[string]any{
		"passenger_id": p.ID,
		"name":         p.Name,
		"pickup":       p.Pickup,
		"destination":  p.Destination,
	})
	return gs, nil
}

// AnalysisResult is what the driver perceives in one observation pass.
type AnalysisResult struct {
	Analysis          state.Analysis      `json:"analysis"`
	Noticed           []tell.DetectedTell `json:"noticed"`
	Dialogue          string              `json:"dialogue,omitempty"`
	ReadingDifficulty float64             `json:"reading_difficulty"`
}

// Analyze runs detection over the current passenger and records the pass.
// The recorded pass opens the decision window.
func (s *Service) Analyze(ctx context.Context, id uuid.UUID) (*AnalysisResult, error) {
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}
	active, err := s.activeGuidelines(ctx, gs)
	if err != nil {
		return nil, err
	}

	analysis := s.analyze(gs, active)
	gs = state.WithAnalysis(gs, analysis)
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	res := &AnalysisResult{
		Analysis:          analysis,
		Noticed:           tell.Noticed(analysis.Tells),
		ReadingDifficulty: progression.ReadingDifficulty(gs.CurrentPassenger, gs),
	}
	if line, ok := passenger.DialogueForStage(gs.NeedState, s.rng); ok {
		res.Dialogue = line
	}

	s.publish(ctx, id, events.EventTypeAnalysisCompleted, map[string]any{
		"analysis_id":       analysis.ID,
		"noticed":           len(res.Noticed),
		"decision_deadline": analysis.DecisionDeadline,
	})
	return res, nil
}

func (s *Service) analyze(gs *state.GameState, active []guideline.Guideline) state.Analysis {
	now := s.now()
	detected := s.detector.Analyze(gs.CurrentPassenger, gs, active)
	if progression.ShouldIntroduceFalseTells(gs, s.rng) {
		detected = append(detected, s.falseTell(gs, active, now)...)
	}

	window := progression.ObservationWindow(gs.PlayerTrust)
	ids := make([]int, len(active))
	for i, g := range active {
		ids[i] = g.ID
	}
	return state.Analysis{
		ID:                 uuid.New(),
		PassengerID:        gs.CurrentPassenger.ID,
		StartedAt:          now,
		ObservationEndsAt:  now.Add(window),
		DecisionDeadline:   now.Add(window + progression.DecisionTimeout),
		Tells:              detected,
		ActiveGuidelineIDs: ids,
	}
}

// falseTell pins a stock cue on a random active guideline with no exception
// behind it.
func (s *Service) falseTell(gs *state.GameState, active []guideline.Guideline, at time.Time) []tell.DetectedTell {
	names := tell.DefaultCatalog.Names()
	if len(active) == 0 || len(names) == 0 {
		return nil
	}
	t, _ := tell.DefaultCatalog.Get(names[s.rng.IntN(len(names))])
	g := active[s.rng.IntN(len(active))]
	return []tell.DetectedTell{{
		Tell:             t,
		PassengerID:      gs.CurrentPassenger.ID,
		DetectionTime:    at,
		PlayerNoticed:    s.rng.Float64() < guideline.NoticeProbability(t, gs.PlayerTrust),
		RelatedGuideline: g.ID,
	}}
}

// RouteOption is one route the driver can take for the current leg.
type RouteOption struct {
	Route      passenger.RouteChoice      `json:"route"`
	Cost       state.RouteCost            `json:"cost"`
	Preference *passenger.RoutePreference `json:"preference,omitempty"`
}

// Routes lists the route options for the current passenger.
func (s *Service) Routes(ctx context.Context, id uuid.UUID) ([]RouteOption, error) {
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}

	routes := []passenger.RouteChoice{
		passenger.RouteNormal, passenger.RouteFastest, passenger.RouteSafest,
		passenger.RouteScenic, passenger.RouteShortcut,
	}
	out := make([]RouteOption, 0, len(routes))
	for _, r := range routes {
		opt := RouteOption{Route: r, Cost: state.CostOf(r, gs.CurrentWeather)}
		if pref, ok := gs.CurrentPassenger.PreferenceFor(r); ok {
			opt.Preference = &pref
		}
		out = append(out, opt)
	}
	return out, nil
}

// RouteResult reports one driven leg.
type RouteResult struct {
	State    *state.GameState      `json:"state"`
	Route    passenger.RouteChoice `json:"route"`
	Surfaced []tell.Tell           `json:"surfaced_tells,omitempty"`
	Dialogue string                `json:"dialogue,omitempty"`
}

// ChooseRoute drives a leg on the chosen route.
func (s *Service) ChooseRoute(ctx context.Context, id uuid.UUID, route passenger.RouteChoice, outcome *passenger.RuleOutcome) (*RouteResult, error) {
	if !route.Valid() {
		return nil, fmt.Errorf("%w: unknown route %q", ErrInvalidInput, route)
	}
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}

	gs, surfaced := state.ApplyRoute(gs, route, outcome)
	gs = state.WithWeather(gs, s.weather.At(gs.ShiftNumber, gs.MinutesElapsed()))
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	res := &RouteResult{State: gs, Route: route, Surfaced: surfaced}
	if line, ok := passenger.DialogueForStage(gs.NeedState, s.rng); ok {
		res.Dialogue = line
	}

	data := map[string]any{"route": route, "fuel": gs.Fuel, "time_remaining": gs.TimeRemaining}
	if gs.NeedState != nil {
		data["need_stage"] = gs.NeedState.Stage
	}
	s.publish(ctx, id, events.EventTypeRouteChosen, data)
	if len(surfaced) > 0 {
		s.publish(ctx, id, events.EventTypeTellsSurfaced, map[string]any{"tells": surfaced})
	}
	s.publishIfOver(ctx, gs)
	return res, nil
}

// DecisionRequest is a follow/break choice on one guideline. AnalysisID and
// PassengerID, when set, must match the analysis on record.
type DecisionRequest struct {
	AnalysisID  uuid.UUID          `json:"analysis_id"`
	PassengerID int                `json:"passenger_id"`
	GuidelineID int                `json:"guideline_id"`
	Action      guideline.Decision `json:"action"`
	Reasoning   string             `json:"reasoning,omitempty"`
}

// DecisionResult reports a resolved decision.
type DecisionResult struct {
	State    *state.GameState            `json:"state"`
	Decision guideline.GuidelineDecision `json:"decision"`
	Outcome  state.ConsequenceDelta      `json:"outcome"`
	TimedOut bool                        `json:"timed_out"`
}

// Decide resolves a guideline decision against the recorded analysis. A
// decision arriving after the deadline is resolved as follow.
func (s *Service) Decide(ctx context.Context, id uuid.UUID, req DecisionRequest) (*DecisionResult, error) {
	if !req.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, req.Action)
	}
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}
	if err := checkAnalysis(gs, req); err != nil {
		return nil, err
	}
	active, err := s.activeGuidelines(ctx, gs)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, gs, active, req)
}

func checkAnalysis(gs *state.GameState, req DecisionRequest) error {
	a := gs.Analysis
	if a == nil || a.PassengerID != gs.CurrentPassenger.ID {
		return ErrStaleAnalysis
	}
	if req.AnalysisID != uuid.Nil && req.AnalysisID != a.ID {
		return ErrStaleAnalysis
	}
	if req.PassengerID != 0 && req.PassengerID != a.PassengerID {
		return ErrStaleAnalysis
	}
	return nil
}

func (s *Service) resolve(ctx context.Context, gs *state.GameState, active []guideline.Guideline, req DecisionRequest) (*DecisionResult, error) {
	if !gs.IsGuidelineActive(req.GuidelineID) {
		return nil, ErrUnknownGuideline
	}
	if _, ok := guideline.Find(active, req.GuidelineID); !ok {
		return nil, ErrUnknownGuideline
	}
	if gs.Analysis.HasResolved(req.GuidelineID) {
		return nil, ErrAlreadyDecided
	}

	now := s.now()
	action, reasoning, timedOut := req.Action, req.Reasoning, false
	if now.After(gs.Analysis.DecisionDeadline) {
		action, reasoning, timedOut = guideline.DecisionFollow, guideline.TimeoutReasoning, true
	}

	p := gs.CurrentPassenger
	consequences := s.resolver.Evaluate(req.GuidelineID, action, p, gs, active)
	decision := guideline.RecordDecision(req.GuidelineID, p.ID, action, consequences, gs.Analysis.Tells, reasoning, now)

	gs = state.MarkResolved(state.ApplyDecision(gs, decision), req.GuidelineID)
	gs, outcome := state.ApplyConsequences(gs, consequences, s.rng)
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	s.logger.Info("Decision resolved",
		"shift_id", gs.ID,
		"guideline_id", req.GuidelineID,
		"action", action,
		"was_correct", decision.WasCorrect,
		"timed_out", timedOut,
		"trust", gs.PlayerTrust,
	)
	s.publish(ctx, gs.ID, events.EventTypeDecisionResolved, map[string]any{
		"guideline_id": req.GuidelineID,
		"action":       action,
		"was_correct":  decision.WasCorrect,
		"timed_out":    timedOut,
		"trust":        gs.PlayerTrust,
	})
	s.publishIfOver(ctx, gs)

	return &DecisionResult{State: gs, Decision: decision, Outcome: outcome, TimedOut: timedOut}, nil
}

// ActionResult reports a mid-ride player action.
type ActionResult struct {
	Action      guideline.PlayerAction `json:"action"`
	Breaking    bool                   `json:"breaking"`
	GuidelineID int                    `json:"guideline_id,omitempty"`
	Decision    *DecisionResult        `json:"decision,omitempty"`
}

// PerformAction applies a player action. An action that breaks an active
// guideline is resolved as a break decision. Without a current, unexpired
// analysis one is taken on the spot.
func (s *Service) PerformAction(ctx context.Context, id uuid.UUID, action guideline.PlayerAction, reasoning string) (*ActionResult, error) {
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}
	active, err := s.activeGuidelines(ctx, gs)
	if err != nil {
		return nil, err
	}

	actions := guideline.ActionMapFor(active)
	if _, known := actions.GuidelineFor(action); !known {
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidInput, action)
	}

	res := &ActionResult{Action: action}
	gid, breaking := actions.Classify(action, gs.ActiveGuidelineIDs)
	if !breaking {
		s.publish(ctx, id, events.EventTypeActionPerformed, map[string]any{"action": action, "breaking": false})
		return res, nil
	}
	res.Breaking, res.GuidelineID = true, gid

	if a := gs.Analysis; a == nil || a.PassengerID != gs.CurrentPassenger.ID || s.now().After(a.DecisionDeadline) {
		gs = state.WithAnalysis(gs, s.analyze(gs, active))
	} else if a.HasResolved(gid) {
		return nil, ErrAlreadyDecided
	}

	s.publish(ctx, id, events.EventTypeActionPerformed, map[string]any{"action": action, "breaking": true, "guideline_id": gid})
	decision, err := s.resolve(ctx, gs, active, DecisionRequest{
		GuidelineID: gid,
		Action:      guideline.DecisionBreak,
		Reasoning:   reasoning,
	})
	if err != nil {
		return nil, err
	}
	res.Decision = decision
	return res, nil
}

// RideResult reports a finished ride.
type RideResult struct {
	State *state.GameState `json:"state"`
	Fare  int              `json:"fare"`
}

// CompleteRide drops the passenger off and collects the fare.
func (s *Service) CompleteRide(ctx context.Context, id uuid.UUID) (*RideResult, error) {
	gs, err := s.loadOpen(ctx, id)
	if err != nil {
		return nil, err
	}
	if !gs.HasPassenger() {
		return nil, ErrNoPassenger
	}

	passengerID := gs.CurrentPassenger.ID
	gs, fare := state.CompleteRide(gs)
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}

	s.publish(ctx, id, events.EventTypeRideCompleted, map[string]any{
		"passenger_id":    passengerID,
		"fare":            fare,
		"rides_completed": gs.RidesCompleted,
	})
	return &RideResult{State: gs, Fare: fare}, nil
}

// End closes the shift.
func (s *Service) End(ctx context.Context, id uuid.UUID, reason string) (*state.GameState, error) {
	gs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.GameOver {
		return gs, nil
	}

	gs = state.End(gs, reason, s.now())
	if err := s.save(ctx, gs); err != nil {
		return nil, err
	}
	s.publishIfOver(ctx, gs)
	return gs, nil
}

// Difficulty reports the progression signals for the shift.
func (s *Service) Difficulty(ctx context.Context, id uuid.UUID) (*progression.Report, error) {
	gs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r := progression.Assess(gs.CurrentPassenger, gs, s.rng)
	return &r, nil
}

func (s *Service) loadOpen(ctx context.Context, id uuid.UUID) (*state.GameState, error) {
	gs, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if gs.GameOver {
		return nil, ErrShiftOver
	}
	return gs, nil
}

func (s *Service) activeGuidelines(ctx context.Context, gs *state.GameState) ([]guideline.Guideline, error) {
	all, err := s.Guidelines(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]guideline.Guideline, 0, len(gs.ActiveGuidelineIDs))
	for _, g := range all {
		if gs.IsGuidelineActive(g.ID) {
			active = append(active, g)
		}
	}
	return active, nil
}

func (s *Service) save(ctx context.Context, gs *state.GameState) error {
	if err := s.store.SaveShift(ctx, gs.ID, gs); err != nil {
		return fmt.Errorf("failed to save shift: %w", err)
	}
	return nil
}

func (s *Service) publishIfOver(ctx context.Context, gs *state.GameState) {
	if !gs.GameOver {
		return
	}
	s.logger.Info("Shift ended", "shift_id", gs.ID, "reason", gs.GameOverReason, "earnings", gs.Earnings)
	s.publish(ctx, gs.ID, events.EventTypeShiftEnded, map[string]any{
		"reason":          gs.GameOverReason,
		"earnings":        gs.Earnings,
		"rides_completed": gs.RidesCompleted,
	})
}

// publish is best effort. A failed event never fails the request.
func (s *Service) publish(ctx context.Context, id uuid.UUID, t events.EventType, data map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, id, t, data); err != nil {
		s.logger.Warn("Failed to publish event", "shift_id", id, "event_type", t, "error", err)
	}
}
