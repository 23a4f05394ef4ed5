package state

import (
	"slices"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
	"github.com/google/uuid"
)

const (
	StartingFuel    = 100.0
	StartingMinutes = 480.0
	StartingTrust   = 0.5
)

// Analysis is one observation pass over the current passenger. Decisions
// must cite the analysis of the passenger they are about.
type Analysis struct {
	ID                 uuid.UUID           `json:"id"`
	PassengerID        int                 `json:"passenger_id"`
	StartedAt          time.Time           `json:"started_at"`
	ObservationEndsAt  time.Time           `json:"observation_ends_at"`
	DecisionDeadline   time.Time           `json:"decision_deadline"`
	Tells              []tell.DetectedTell `json:"tells"`
	ActiveGuidelineIDs []int               `json:"active_guideline_ids,omitempty"`
	Resolved           []int               `json:"resolved,omitempty"` // guideline ids already decided
}

// HasResolved reports whether a decision on the guideline was already
// recorded against this pass.
func (a *Analysis) HasResolved(guidelineID int) bool {
	return a != nil && slices.Contains(a.Resolved, guidelineID)
}

// GameState is one driver's shift. It is persisted as a single JSON blob.
type GameState struct {
	ID                 uuid.UUID                     `json:"id"`
	ShiftNumber        int                           `json:"shift_number"`
	StartedAt          time.Time                     `json:"started_at"`
	PlayerTrust        float64                       `json:"player_trust"`
	DecisionHistory    []guideline.GuidelineDecision `json:"decision_history"`
	RidesCompleted     int                           `json:"rides_completed"`
	TimeRemaining      float64                       `json:"time_remaining"` // minutes
	CurrentWeather     weather.Conditions            `json:"current_weather"`
	Fuel               float64                       `json:"fuel"`
	Earnings           int                           `json:"earnings"`
	Reputation         float64                       `json:"reputation"`
	Inventory          []string                      `json:"inventory,omitempty"`
	UnlockedStories    []string                      `json:"unlocked_stories,omitempty"`
	ActiveGuidelineIDs []int                         `json:"active_guideline_ids"`
	CurrentPassenger   *passenger.Passenger          `json:"current_passenger,omitempty"`
	NeedState          *passenger.NeedState          `json:"need_state,omitempty"`
	CurrentRoute       passenger.RouteChoice         `json:"current_route,omitempty"`
	FareMultiplier     float64                       `json:"fare_multiplier,omitempty"`
	Analysis           *Analysis                     `json:"analysis,omitempty"`
	UsedPassengerIDs   []int                         `json:"used_passenger_ids,omitempty"`
	GameOver           bool                          `json:"game_over"`
	GameOverReason     string                        `json:"game_over_reason,omitempty"`
	EndedAt            *time.Time                    `json:"ended_at,omitempty"`
}

// NewGameState starts a shift with the given guidelines in force.
func NewGameState(guidelineIDs []int, w weather.Conditions) *GameState {
	ids := make([]int, len(guidelineIDs))
	copy(ids, guidelineIDs)
	return &GameState{
		ID:                 uuid.New(),
		StartedAt:          time.Now(),
		PlayerTrust:        StartingTrust,
		DecisionHistory:    make([]guideline.GuidelineDecision, 0),
		TimeRemaining:      StartingMinutes,
		CurrentWeather:     w,
		Fuel:               StartingFuel,
		ActiveGuidelineIDs: ids,
	}
}

func (gs *GameState) GetTimeRemaining() float64 { return gs.TimeRemaining }

func (gs *GameState) GetPlayerTrust() float64 { return gs.PlayerTrust }

func (gs *GameState) GetWeatherType() string { return string(gs.CurrentWeather.Type) }

func (gs *GameState) GetNeedState() *passenger.NeedState { return gs.NeedState }

func (gs *GameState) GetRidesCompleted() int { return gs.RidesCompleted }

// DecisionCount is the number of recorded guideline decisions.
func (gs *GameState) DecisionCount() int { return len(gs.DecisionHistory) }

// CorrectDecisionCount counts decisions marked correct.
func (gs *GameState) CorrectDecisionCount() int {
	n := 0
	for _, d := range gs.DecisionHistory {
		if d.WasCorrect {
			n++
		}
	}
	return n
}

// MinutesElapsed is how far into the shift the clock has run.
func (gs *GameState) MinutesElapsed() float64 {
	return StartingMinutes - gs.TimeRemaining
}

// HasPassenger reports whether a ride is in progress.
func (gs *GameState) HasPassenger() bool {
	return gs.CurrentPassenger != nil
}

// IsGuidelineActive reports whether id is one of the shift's guidelines.
func (gs *GameState) IsGuidelineActive(id int) bool {
	for _, g := range gs.ActiveGuidelineIDs {
		if g == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Passenger definitions and decision records are
// treated as immutable and copied by value.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.DecisionHistory = append(make([]guideline.GuidelineDecision, 0, len(gs.DecisionHistory)), gs.DecisionHistory...)
	c.Inventory = cloneSlice(gs.Inventory)
	c.UnlockedStories = cloneSlice(gs.UnlockedStories)
	c.ActiveGuidelineIDs = cloneSlice(gs.ActiveGuidelineIDs)
	c.UsedPassengerIDs = cloneSlice(gs.UsedPassengerIDs)
	if gs.CurrentPassenger != nil {
		p := *gs.CurrentPassenger
		c.CurrentPassenger = &p
	}
	c.NeedState = gs.NeedState.Clone()
	if gs.Analysis != nil {
		a := *gs.Analysis
		a.Tells = cloneSlice(gs.Analysis.Tells)
		a.ActiveGuidelineIDs = cloneSlice(gs.Analysis.ActiveGuidelineIDs)
		a.Resolved = cloneSlice(gs.Analysis.Resolved)
		c.Analysis = &a
	}
	return &c
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}
