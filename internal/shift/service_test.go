package shift

import (
	"context"
	"log/slog"
	"os"
	"testing"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testGuidelines() []guideline.Guideline {
	mirror, _ := tell.DefaultCatalog.Get("mirror_empty")
	return []guideline.Guideline{
		{
			ID:            1001,
			Title:         "Never Make Eye Contact",
			DefaultSafety: guideline.SafetySafe,
			Exceptions: []guideline.GuidelineException{{
				ID:             "eye_contact_lonely",
				Description:    "A lonely ghost needs to be seen",
				PassengerTypes: []string{"Ghost of former taxi passenger"},
				Conditions: []guideline.ExceptionCondition{
					{Type: guideline.ConditionPassengerDialogue, Value: "Why won't you look at me"},
					{Type: guideline.ConditionPassengerBehavior, Value: "0.6", Operator: guideline.OpGreaterThan},
				},
				Tells:         []tell.Tell{mirror},
				BreakingSafer: true,
				Probability:   0.7,
			}},
			FollowConsequences: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceReputation, Value: 5, Description: "A quiet ride", Probability: 1},
			},
			BreakConsequences: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceDeath, Value: 1, Description: "Its eyes were the last thing you saw", Probability: 0.6},
			},
			ExceptionRewards: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceMoney, Value: 40, Description: "A grateful tip", Probability: 1},
			},
		},
		{
			ID:            1002,
			Title:         "Never Take Shortcuts",
			DefaultSafety: guideline.SafetySafe,
			FollowConsequences: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceTime, Value: -10, Description: "The long way round", Probability: 1},
			},
			BreakConsequences: []guideline.GuidelineConsequence{
				{Type: guideline.ConsequenceFuel, Value: -20, Description: "The road doubles back on itself", Probability: 1},
			},
		},
	}
}

func martha() passenger.Passenger {
	return passenger.Passenger{
		ID:           7,
		Name:         "Martha",
		Supernatural: "Ghost of former taxi passenger",
		Pickup:       "Old Cemetery Gates",
		Destination:  "Riverside Diner",
		Fare:         30,
		Dialogue:     []string{"Cold night, isn't it?", "Why won't you look at me?"},
		StressLevel:  0.8,
		StateProfile: &passenger.StateProfile{
			NeedType:      "recognition",
			InitialLevel:  30,
			NeedChange:    passenger.NeedChange{Passive: 2, Obey: -3, Break: 25},
			StageDialogue: map[passenger.NeedStage][]string{passenger.StageCalm: {"Lovely evening."}},
		},
		RoutePreferences: []passenger.RoutePreference{
			{Route: passenger.RouteScenic, Preference: "loves", FareMultiplier: 1.5},
		},
	}
}

type fixture struct {
	svc    *Service
	store  *storage.MockStorage
	events *events.Recorder
	clock  *clock
}

func newFixture(t *testing.T, src rng.Source) *fixture {
	t.Helper()
	store := storage.NewMockStorage()
	store.SetGuidelines(testGuidelines())
	store.SetPassengers([]passenger.Passenger{martha()})

	rec := &events.Recorder{}
	c := &clock{t: time.Date(2025, 10, 31, 23, 0, 0, 0, time.UTC)}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	svc := NewService(store, rec, src, weather.NewGenerator(1), Options{Now: c.now}, logger)
	return &fixture{svc: svc, store: store, events: rec, clock: c}
}

// withRider starts a shift and seats Martha.
func (f *fixture) withRider(t *testing.T) *state.GameState {
	t.Helper()
	ctx := context.Background()
	gs, err := f.svc.Start(ctx)
	require.NoError(t, err)
	gs, err = f.svc.RequestPassenger(ctx, gs.ID)
	require.NoError(t, err)
	return gs
}

func TestStart(t *testing.T) {
	f := newFixture(t, rng.New(9))
	gs, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1001, 1002}, gs.ActiveGuidelineIDs)
	assert.Equal(t, state.StartingTrust, gs.PlayerTrust)
	assert.True(t, gs.CurrentWeather.Type.Valid())
	assert.Equal(t, []events.EventType{events.EventTypeShiftStarted}, f.events.Types())

	loaded, err := f.svc.Get(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, gs.ID, loaded.ID)
}

func TestStart_LimitsGuidelines(t *testing.T) {
	store := storage.NewMockStorage()
	store.SetGuidelines(testGuidelines())
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := NewService(store, nil, rng.New(3), weather.NewGenerator(1), Options{GuidelinesPerShift: 1}, logger)

	gs, err := svc.Start(context.Background())
	require.NoError(t, err)
	assert.Len(t, gs.ActiveGuidelineIDs, 1)
}

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t, rng.New(1))
	_, err := f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrShiftNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), uuid.New()), ErrShiftNotFound)
}

func TestRequestPassenger(t *testing.T) {
	f := newFixture(t, rng.New(1))
	gs := f.withRider(t)

	require.True(t, gs.HasPassenger())
	assert.Equal(t, 7, gs.CurrentPassenger.ID)
	require.NotNil(t, gs.NeedState)
	assert.Equal(t, passenger.StageCalm, gs.NeedState.Stage)

	_, err := f.svc.RequestPassenger(context.Background(), gs.ID)
	assert.ErrorIs(t, err, ErrRideInProgress)
}

func TestRequestPassenger_NoContent(t *testing.T) {
	f := newFixture(t, rng.New(1))
	f.store.SetPassengers(nil)
	gs, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	_, err = f.svc.RequestPassenger(context.Background(), gs.ID)
	assert.ErrorIs(t, err, ErrNoPassengersLeft)
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.1))
	gs := f.withRider(t)

	res, err := f.svc.Analyze(context.Background(), gs.ID)
	require.NoError(t, err)

	require.Len(t, res.Analysis.Tells, 1)
	d := res.Analysis.Tells[0]
	assert.Equal(t, 1001, d.RelatedGuideline)
	assert.Equal(t, "eye_contact_lonely", d.ExceptionID)
	assert.True(t, d.PlayerNoticed)
	assert.Len(t, res.Noticed, 1)
	assert.Equal(t, "Lovely evening.", res.Dialogue)
	assert.Equal(t, []int{1001, 1002}, res.Analysis.ActiveGuidelineIDs)

	start := f.clock.now()
	assert.Equal(t, start.Add(7500*time.Millisecond), res.Analysis.ObservationEndsAt)
	assert.Equal(t, start.Add(7500*time.Millisecond+progression.DecisionTimeout), res.Analysis.DecisionDeadline)

	saved, err := f.svc.Get(context.Background(), gs.ID)
	require.NoError(t, err)
	require.NotNil(t, saved.Analysis)
	assert.Equal(t, res.Analysis.ID, saved.Analysis.ID)
}

func TestAnalyze_NoPassenger(t *testing.T) {
	f := newFixture(t, rng.New(1))
	gs, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	_, err = f.svc.Analyze(context.Background(), gs.ID)
	assert.ErrorIs(t, err, ErrNoPassenger)
}

func TestDecide_ReadsExceptionCorrectly(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	a, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)

	res, err := f.svc.Decide(ctx, gs.ID, DecisionRequest{
		AnalysisID:  a.Analysis.ID,
		PassengerID: 7,
		GuidelineID: 1001,
		Action:      guideline.DecisionBreak,
		Reasoning:   "She keeps asking me to look at her",
	})
	require.NoError(t, err)

	assert.False(t, res.TimedOut)
	assert.True(t, res.Decision.WasCorrect)
	assert.Equal(t, guideline.DecisionBreak, res.Decision.Action)
	assert.Len(t, res.Decision.TellsPresent, 1)
	assert.InDelta(t, 0.6, res.State.PlayerTrust, 1e-9)
	assert.Equal(t, 40, res.State.Earnings)
	assert.Equal(t, 15.0, res.State.Reputation)
	assert.False(t, res.State.GameOver)
	assert.Contains(t, f.events.Types(), events.EventTypeDecisionResolved)
}

func TestDecide_OncePerAnalysis(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	a, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)
	req := DecisionRequest{AnalysisID: a.Analysis.ID, GuidelineID: 1001, Action: guideline.DecisionBreak}

	first, err := f.svc.Decide(ctx, gs.ID, req)
	require.NoError(t, err)
	assert.Equal(t, []int{1001}, first.State.Analysis.Resolved)

	for range 4 {
		_, err = f.svc.Decide(ctx, gs.ID, req)
		assert.ErrorIs(t, err, ErrAlreadyDecided)
	}
	_, err = f.svc.PerformAction(ctx, gs.ID, guideline.ActionEyeContact, "")
	assert.ErrorIs(t, err, ErrAlreadyDecided, "breaking by action counts as the same decision")

	saved, err := f.svc.Get(ctx, gs.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, saved.PlayerTrust, 1e-9)
	assert.Equal(t, 40, saved.Earnings)
	assert.Equal(t, 15.0, saved.Reputation)
	assert.Len(t, saved.DecisionHistory, 1)

	other, err := f.svc.Decide(ctx, gs.ID, DecisionRequest{GuidelineID: 1002, Action: guideline.DecisionFollow})
	require.NoError(t, err, "other guidelines stay open")
	assert.ElementsMatch(t, []int{1001, 1002}, other.State.Analysis.Resolved)

	fresh, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Analysis.Resolved)
	_, err = f.svc.Decide(ctx, gs.ID, DecisionRequest{AnalysisID: fresh.Analysis.ID, GuidelineID: 1001, Action: guideline.DecisionBreak})
	assert.NoError(t, err, "a new pass opens a new decision")
}

func TestDecide_StaleAnalysis(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	req := DecisionRequest{GuidelineID: 1001, Action: guideline.DecisionFollow}
	_, err := f.svc.Decide(ctx, gs.ID, req)
	assert.ErrorIs(t, err, ErrStaleAnalysis, "no analysis yet")

	_, err = f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)

	req.AnalysisID = uuid.New()
	_, err = f.svc.Decide(ctx, gs.ID, req)
	assert.ErrorIs(t, err, ErrStaleAnalysis)

	req.AnalysisID = uuid.Nil
	req.PassengerID = 99
	_, err = f.svc.Decide(ctx, gs.ID, req)
	assert.ErrorIs(t, err, ErrStaleAnalysis)
}

func TestDecide_AnalysisDiscardedWithPassenger(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	a, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)
	_, err = f.svc.CompleteRide(ctx, gs.ID)
	require.NoError(t, err)
	_, err = f.svc.RequestPassenger(ctx, gs.ID)
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, gs.ID, DecisionRequest{
		AnalysisID:  a.Analysis.ID,
		GuidelineID: 1001,
		Action:      guideline.DecisionBreak,
	})
	assert.ErrorIs(t, err, ErrStaleAnalysis)
}

func TestDecide_TimeoutFollows(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)
	f.clock.advance(time.Minute)

	res, err := f.svc.Decide(ctx, gs.ID, DecisionRequest{GuidelineID: 1001, Action: guideline.DecisionBreak, Reasoning: "too late"})
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Equal(t, guideline.DecisionFollow, res.Decision.Action)
	assert.Equal(t, guideline.TimeoutReasoning, res.Decision.PlayerReasoning)
	assert.False(t, res.Decision.WasCorrect, "following while the exception is live is a misread")
	assert.InDelta(t, 0.3, res.State.PlayerTrust, 1e-9)
	assert.False(t, res.State.GameOver, "0.9 draw survives the 0.7 death roll")
	assert.Equal(t, -10.0, res.State.Reputation)
}

func TestDecide_DeathEndsShift(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.1))
	gs := f.withRider(t)
	ctx := context.Background()

	_, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)

	res, err := f.svc.Decide(ctx, gs.ID, DecisionRequest{GuidelineID: 1001, Action: guideline.DecisionFollow})
	require.NoError(t, err)
	assert.True(t, res.State.GameOver)
	assert.True(t, res.Outcome.Died)
	assert.Contains(t, f.events.Types(), events.EventTypeShiftEnded)

	_, err = f.svc.Analyze(ctx, gs.ID)
	assert.ErrorIs(t, err, ErrShiftOver)
}

func TestDecide_Validation(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()
	_, err := f.svc.Analyze(ctx, gs.ID)
	require.NoError(t, err)

	_, err = f.svc.Decide(ctx, gs.ID, DecisionRequest{GuidelineID: 9999, Action: guideline.DecisionBreak})
	assert.ErrorIs(t, err, ErrUnknownGuideline)

	_, err = f.svc.Decide(ctx, gs.ID, DecisionRequest{GuidelineID: 1001, Action: "shrug"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChooseRoute(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.5))
	gs := f.withRider(t)
	ctx := context.Background()

	_, err := f.svc.ChooseRoute(ctx, gs.ID, "teleport", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := f.svc.ChooseRoute(ctx, gs.ID, passenger.RouteShortcut, nil)
	require.NoError(t, err)
	assert.Equal(t, passenger.RouteShortcut, res.State.CurrentRoute)
	assert.Less(t, res.State.Fuel, state.StartingFuel)
	assert.Less(t, res.State.TimeRemaining, state.StartingMinutes)
	assert.Equal(t, passenger.StageWarning, res.State.NeedState.Stage)
	assert.Contains(t, f.events.Types(), events.EventTypeRouteChosen)
}

func TestRoutes(t *testing.T) {
	f := newFixture(t, rng.New(1))
	gs := f.withRider(t)

	opts, err := f.svc.Routes(context.Background(), gs.ID)
	require.NoError(t, err)
	require.Len(t, opts, 5)
	for _, o := range opts {
		if o.Route == passenger.RouteScenic {
			require.NotNil(t, o.Preference)
			assert.Equal(t, "loves", o.Preference.Preference)
		} else {
			assert.Nil(t, o.Preference)
		}
		assert.Positive(t, o.Cost.Fuel)
	}
}

func TestPerformAction(t *testing.T) {
	f := newFixture(t, rng.Fixed(0.9))
	gs := f.withRider(t)
	ctx := context.Background()

	calm, err := f.svc.PerformAction(ctx, gs.ID, guideline.ActionTurnOnRadio, "")
	require.NoError(t, err)
	assert.False(t, calm.Breaking)
	assert.Nil(t, calm.Decision)

	_, err = f.svc.PerformAction(ctx, gs.ID, "dance", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	res, err := f.svc.PerformAction(ctx, gs.ID, guideline.ActionEyeContact, "I looked")
	require.NoError(t, err)
	assert.True(t, res.Breaking)
	assert.Equal(t, 1001, res.GuidelineID)
	require.NotNil(t, res.Decision)
	assert.Equal(t, guideline.DecisionBreak, res.Decision.Decision.Action)
	assert.True(t, res.Decision.Decision.WasCorrect)
}

func TestCompleteRideAndEnd(t *testing.T) {
	f := newFixture(t, rng.New(4))
	gs := f.withRider(t)
	ctx := context.Background()

	ride, err := f.svc.CompleteRide(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, ride.Fare)
	assert.Equal(t, 1, ride.State.RidesCompleted)

	_, err = f.svc.CompleteRide(ctx, gs.ID)
	assert.ErrorIs(t, err, ErrNoPassenger)

	again, err := f.svc.RequestPassenger(ctx, gs.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, again.CurrentPassenger.ID, "pool refills once everyone has ridden")

	ended, err := f.svc.End(ctx, gs.ID, "")
	require.NoError(t, err)
	assert.True(t, ended.GameOver)
	assert.Equal(t, state.ReasonEnded, ended.GameOverReason)

	_, err = f.svc.RequestPassenger(ctx, gs.ID)
	assert.ErrorIs(t, err, ErrShiftOver)

	same, err := f.svc.End(ctx, gs.ID, "twice")
	require.NoError(t, err)
	assert.Equal(t, state.ReasonEnded, same.GameOverReason)
}

func TestDifficulty(t *testing.T) {
	f := newFixture(t, rng.New(1))
	gs := f.withRider(t)

	r, err := f.svc.Difficulty(context.Background(), gs.ID)
	require.NoError(t, err)
	assert.Equal(t, progression.PhaseEarly, r.LearningPhase)
	assert.GreaterOrEqual(t, r.ReadingDifficulty, 0.1)
	assert.LessOrEqual(t, r.ReadingDifficulty, 0.9)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, rng.New(1))
	gs, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), gs.ID))
	_, err = f.svc.Get(context.Background(), gs.ID)
	assert.ErrorIs(t, err, ErrShiftNotFound)
}
