package passenger

import (
	"encoding/json"
	"testing"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPassenger() *Passenger {
	return &Passenger{
		ID:           7,
		Name:         "Mrs. Hollow",
		Supernatural: "Restless widow",
		Tells: []tell.Tell{
			{Description: "sighs", Intensity: tell.IntensitySubtle, Reliability: 0.5},
			{Description: "taps glass", Intensity: tell.IntensityModerate, Reliability: 0.7},
			{Description: "screams", Intensity: tell.IntensityObvious, Reliability: 0.9},
		},
		StateProfile: &StateProfile{
			NeedType:     "urgency",
			InitialLevel: 20,
			Thresholds:   Thresholds{Warning: 40, Critical: 70, Meltdown: 90},
			NeedChange:   NeedChange{Passive: 5, Obey: -2, Break: 25},
			StageDialogue: map[NeedStage][]string{
				StageWarning: {"Are we nearly there?", "Please hurry."},
			},
			ExceptionIDs: []string{"hollow_urgent"},
		},
	}
}

func TestInitialize(t *testing.T) {
	t.Run("no profile", func(t *testing.T) {
		assert.Nil(t, Initialize(&Passenger{ID: 1}))
		assert.Nil(t, Initialize(nil))
	})

	t.Run("calm start is not revealed", func(t *testing.T) {
		s := Initialize(testPassenger())
		require.NotNil(t, s)
		assert.Equal(t, StageCalm, s.Stage)
		assert.Equal(t, 20.0, s.Level)
		assert.InDelta(t, 0.8, s.Stability, 1e-9)
		assert.Empty(t, s.Revealed())
	})

	t.Run("non-calm start is revealed and clamped", func(t *testing.T) {
		p := testPassenger()
		p.StateProfile.InitialLevel = 140
		s := Initialize(p)
		require.NotNil(t, s)
		assert.Equal(t, 100.0, s.Level)
		assert.Equal(t, StageMeltdown, s.Stage)
		assert.Equal(t, []NeedStage{StageMeltdown}, s.Revealed())
	})
}

func TestStageFor_DefaultThresholds(t *testing.T) {
	p := &StateProfile{}
	assert.Equal(t, StageCalm, p.StageFor(39.9))
	assert.Equal(t, StageWarning, p.StageFor(40))
	assert.Equal(t, StageCritical, p.StageFor(70))
	assert.Equal(t, StageMeltdown, p.StageFor(90))
}

func TestApplyRouteChoice(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)

	// obey: 20 + 5 - 2 = 23, still calm; calm's subtle tells surface once
	s1, tells := ApplyRouteChoice(s, p, RouteNormal, nil)
	assert.Equal(t, 23.0, s1.Level)
	assert.Equal(t, StageCalm, s1.Stage)
	require.Len(t, tells, 1)
	assert.Equal(t, "sighs", tells[0].Description)

	// input state untouched
	assert.Equal(t, 20.0, s.Level)
	assert.Empty(t, s.Revealed())

	// shortcut: 23 + 5 + 25 = 53 -> warning
	s2, tells := ApplyRouteChoice(s1, p, RouteShortcut, nil)
	assert.Equal(t, 53.0, s2.Level)
	assert.Equal(t, StageWarning, s2.Stage)
	require.Len(t, tells, 1)
	assert.Equal(t, "taps glass", tells[0].Description)

	// rule outcome pushes into critical: 53 + 5 - 2 + 20 = 76
	s3, tells := ApplyRouteChoice(s2, p, RouteSafest, &RuleOutcome{NeedAdjustment: 20})
	assert.Equal(t, 76.0, s3.Level)
	assert.Equal(t, StageCritical, s3.Stage)
	require.Len(t, tells, 1)
	assert.Equal(t, "screams", tells[0].Description)
}

func TestApplyRouteChoice_SingleReveal(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)

	s, first := ApplyRouteChoice(s, p, RouteShortcut, nil) // 50 warning
	assert.Len(t, first, 1)

	// fall back to calm, then re-enter warning
	s, _ = ApplyRouteChoice(s, p, RouteNormal, &RuleOutcome{NeedAdjustment: -40}) // 13 calm
	assert.Equal(t, StageCalm, s.Stage)
	s, again := ApplyRouteChoice(s, p, RouteShortcut, nil) // 43 warning
	assert.Equal(t, StageWarning, s.Stage)
	assert.Empty(t, again, "warning tells must not surface twice")
}

func TestApplyRouteChoice_ClampInvariant(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)
	src := rng.New(99)
	routes := []RouteChoice{RouteNormal, RouteShortcut, RouteScenic, RouteFastest, RouteSafest}

	for i := 0; i < 500; i++ {
		outcome := &RuleOutcome{NeedAdjustment: src.Float64()*120 - 60}
		s, _ = ApplyRouteChoice(s, p, routes[src.IntN(len(routes))], outcome)
		assert.GreaterOrEqual(t, s.Level, 0.0)
		assert.LessOrEqual(t, s.Level, 100.0)
		assert.Equal(t, p.StateProfile.StageFor(s.Level), s.Stage)
		assert.InDelta(t, 1-s.Level/100, s.Stability, 1e-9)
	}
}

func TestApplyRouteChoice_NilState(t *testing.T) {
	next, tells := ApplyRouteChoice(nil, testPassenger(), RouteShortcut, nil)
	assert.Nil(t, next)
	assert.Nil(t, tells)
}

func TestIsExceptionActive(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)
	assert.False(t, IsExceptionActive(s, "hollow_urgent"), "calm never activates")

	s, _ = ApplyRouteChoice(s, p, RouteShortcut, nil)
	assert.True(t, IsExceptionActive(s, "hollow_urgent"))
	assert.False(t, IsExceptionActive(s, "other"))
	assert.False(t, IsExceptionActive(nil, "hollow_urgent"))
}

func TestDialogueForStage(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)

	_, ok := DialogueForStage(s, rng.Fixed(0.1))
	assert.False(t, ok, "no calm dialogue defined")

	s, _ = ApplyRouteChoice(s, p, RouteShortcut, nil)
	line, ok := DialogueForStage(s, rng.Fixed(0.9))
	assert.True(t, ok)
	assert.Equal(t, "Please hurry.", line)
}

func TestNeedState_JSONRoundTripKeepsRevealed(t *testing.T) {
	p := testPassenger()
	s := Initialize(p)
	s, _ = ApplyRouteChoice(s, p, RouteShortcut, nil)

	data, err := json.Marshal(s)
	require.NoError(t, err)

	var loaded NeedState
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, s.Revealed(), loaded.Revealed())

	_, tells := ApplyRouteChoice(&loaded, p, RouteNormal, nil) // stays warning
	assert.Empty(t, tells)
}

func TestPreferenceFor(t *testing.T) {
	p := testPassenger()
	p.RoutePreferences = []RoutePreference{{Route: RouteScenic, Preference: "loves"}}
	pref, ok := p.PreferenceFor(RouteScenic)
	assert.True(t, ok)
	assert.Equal(t, "loves", pref.Preference)
	_, ok = p.PreferenceFor(RouteShortcut)
	assert.False(t, ok)
}
