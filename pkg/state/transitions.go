package state

import (
	"slices"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
)

// Game-over reasons.
const (
	ReasonOutOfFuel = "Ran out of fuel"
	ReasonOutOfTime = "The shift is over"
	ReasonEnded     = "Shift ended by driver"
)

// ApplyDecision records d and moves trust by its correctness. gs is left
// untouched.
func ApplyDecision(gs *GameState, d guideline.GuidelineDecision) *GameState {
	next := gs.Clone()
	next.PlayerTrust = guideline.AdjustTrust(next.PlayerTrust, d.WasCorrect)
	next.DecisionHistory = append(next.DecisionHistory, d)
	return next
}

// ConsequenceDelta summarizes what ApplyConsequences actually did.
type ConsequenceDelta struct {
	Applied  []guideline.GuidelineConsequence `json:"applied,omitempty"`
	Avoided  []guideline.GuidelineConsequence `json:"avoided,omitempty"`
	Died     bool                             `json:"died,omitempty"`
	Reason   string                           `json:"reason,omitempty"`
	Earnings int                              `json:"earnings,omitempty"`
}

// IsEmpty reports whether no consequence fired.
func (d *ConsequenceDelta) IsEmpty() bool {
	return d == nil || (len(d.Applied) == 0 && !d.Died)
}

// ApplyConsequences rolls each consequence against its probability and
// applies the ones that fire. A probability of zero or at least one always
// fires. A death that fires ends the shift and stops further processing.
func ApplyConsequences(gs *GameState, consequences []guideline.GuidelineConsequence, src rng.Source) (*GameState, ConsequenceDelta) {
	next := gs.Clone()
	var delta ConsequenceDelta

	for _, c := range consequences {
		if !fires(c.Probability, src) {
			delta.Avoided = append(delta.Avoided, c)
			continue
		}
		delta.Applied = append(delta.Applied, c)

		switch c.Type {
		case guideline.ConsequenceDeath:
			delta.Died = true
			delta.Reason = c.Description
			next.GameOver = true
			next.GameOverReason = c.Description
			return next, delta
		case guideline.ConsequenceReputation:
			next.Reputation += c.Value
		case guideline.ConsequenceMoney:
			next.Earnings += int(c.Value)
			delta.Earnings += int(c.Value)
		case guideline.ConsequenceFuel:
			next.Fuel = clamp(next.Fuel+c.Value, 0, StartingFuel)
		case guideline.ConsequenceTime:
			next.TimeRemaining = max(next.TimeRemaining+c.Value, 0)
		case guideline.ConsequenceItem:
			if c.Description != "" {
				next.Inventory = append(next.Inventory, c.Description)
			}
		case guideline.ConsequenceStoryUnlock:
			if c.Description != "" && !slices.Contains(next.UnlockedStories, c.Description) {
				next.UnlockedStories = append(next.UnlockedStories, c.Description)
			}
		}
	}

	checkExhaustion(next)
	if next.GameOver {
		delta.Reason = next.GameOverReason
	}
	return next, delta
}

func fires(p float64, src rng.Source) bool {
	if p <= 0 || p >= 1 {
		return true
	}
	return src.Float64() < p
}

// AssignPassenger puts p in the car and initializes its need state. Any
// previous analysis is discarded.
func AssignPassenger(gs *GameState, p passenger.Passenger) *GameState {
	next := gs.Clone()
	next.CurrentPassenger = &p
	next.NeedState = passenger.Initialize(&p)
	next.CurrentRoute = ""
	next.FareMultiplier = 1
	next.Analysis = nil
	if !slices.Contains(next.UsedPassengerIDs, p.ID) {
		next.UsedPassengerIDs = append(next.UsedPassengerIDs, p.ID)
	}
	return next
}

// RouteCost is the fuel and time a leg consumes.
type RouteCost struct {
	Fuel    float64 `json:"fuel"`
	Minutes float64 `json:"minutes"`
}

// RouteCosts is the base cost of each route type.
var RouteCosts = map[passenger.RouteChoice]RouteCost{
	passenger.RouteNormal:   {Fuel: 10, Minutes: 20},
	passenger.RouteFastest:  {Fuel: 14, Minutes: 12},
	passenger.RouteSafest:   {Fuel: 9, Minutes: 28},
	passenger.RouteScenic:   {Fuel: 12, Minutes: 35},
	passenger.RouteShortcut: {Fuel: 6, Minutes: 10},
}

// CostOf returns the route cost adjusted for weather. Storms and snow slow
// every route down.
func CostOf(route passenger.RouteChoice, w weather.Conditions) RouteCost {
	c, ok := RouteCosts[route]
	if !ok {
		c = RouteCosts[passenger.RouteNormal]
	}
	switch w.Type {
	case weather.Storm, weather.Snow:
		c.Minutes *= 1 + 0.5*w.Intensity
		c.Fuel *= 1 + 0.2*w.Intensity
	case weather.Rain, weather.Fog:
		c.Minutes *= 1 + 0.2*w.Intensity
	}
	return c
}

// ApplyRoute drives one leg. It advances the need state, applies the
// passenger's route preference to stress and fare, and charges fuel and
// time. The returned tells are those surfaced by the need state.
func ApplyRoute(gs *GameState, route passenger.RouteChoice, outcome *passenger.RuleOutcome) (*GameState, []tell.Tell) {
	next := gs.Clone()
	if next.CurrentPassenger == nil {
		return next, nil
	}

	var surfaced []tell.Tell
	next.NeedState, surfaced = passenger.ApplyRouteChoice(next.NeedState, next.CurrentPassenger, route, outcome)
	next.CurrentRoute = route

	if pref, ok := next.CurrentPassenger.PreferenceFor(route); ok {
		p := next.CurrentPassenger.WithStress(next.CurrentPassenger.StressLevel + pref.StressDelta)
		next.CurrentPassenger = &p
		if pref.FareMultiplier > 0 {
			next.FareMultiplier = pref.FareMultiplier
		}
	}

	cost := CostOf(route, next.CurrentWeather)
	next.Fuel = clamp(next.Fuel-cost.Fuel, 0, StartingFuel)
	next.TimeRemaining = max(next.TimeRemaining-cost.Minutes, 0)
	checkExhaustion(next)

	return next, surfaced
}

// CompleteRide pays the fare and empties the car.
func CompleteRide(gs *GameState) (*GameState, int) {
	next := gs.Clone()
	if next.CurrentPassenger == nil {
		return next, 0
	}
	mult := next.FareMultiplier
	if mult <= 0 {
		mult = 1
	}
	fare := int(float64(next.CurrentPassenger.Fare)*mult + 0.5)

	next.Earnings += fare
	next.RidesCompleted++
	next.CurrentPassenger = nil
	next.NeedState = nil
	next.CurrentRoute = ""
	next.FareMultiplier = 0
	next.Analysis = nil
	return next, fare
}

// WithAnalysis attaches an analysis pass to the state.
func WithAnalysis(gs *GameState, a Analysis) *GameState {
	next := gs.Clone()
	next.Analysis = &a
	return next
}

// MarkResolved records a decided guideline on the current analysis. Without
// an analysis the state is returned unchanged.
func MarkResolved(gs *GameState, guidelineID int) *GameState {
	next := gs.Clone()
	if next.Analysis != nil && !next.Analysis.HasResolved(guidelineID) {
		next.Analysis.Resolved = append(next.Analysis.Resolved, guidelineID)
	}
	return next
}

// WithWeather replaces the current weather.
func WithWeather(gs *GameState, w weather.Conditions) *GameState {
	next := gs.Clone()
	next.CurrentWeather = w
	return next
}

// End closes the shift. An already finished shift keeps its reason.
func End(gs *GameState, reason string, at time.Time) *GameState {
	next := gs.Clone()
	if next.GameOver {
		return next
	}
	if reason == "" {
		reason = ReasonEnded
	}
	next.GameOver = true
	next.GameOverReason = reason
	next.EndedAt = &at
	return next
}

func checkExhaustion(gs *GameState) {
	if gs.GameOver {
		return
	}
	switch {
	case gs.Fuel <= 0:
		gs.GameOver = true
		gs.GameOverReason = ReasonOutOfFuel
	case gs.TimeRemaining <= 0:
		gs.GameOver = true
		gs.GameOverReason = ReasonOutOfTime
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
