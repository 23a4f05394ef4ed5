// Package passenger holds passenger definitions and the per-ride need-stage
// state machine that escalates as the driver makes route choices.
package passenger

import (
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
)

// RouteChoice is the route the driver picks for a leg of the ride.
type RouteChoice string

const (
	RouteNormal   RouteChoice = "normal"
	RouteFastest  RouteChoice = "fastest"
	RouteSafest   RouteChoice = "safest"
	RouteScenic   RouteChoice = "scenic"
	RouteShortcut RouteChoice = "shortcut"
)

// Valid reports whether r is a known route.
func (r RouteChoice) Valid() bool {
	switch r {
	case RouteNormal, RouteFastest, RouteSafest, RouteScenic, RouteShortcut:
		return true
	}
	return false
}

// RoutePreference is how a passenger feels about a route type.
type RoutePreference struct {
	Route          RouteChoice `json:"route"`
	Preference     string      `json:"preference"` // "loves" | "likes" | "dislikes" | "fears"
	FareMultiplier float64     `json:"fare_multiplier,omitempty"`
	StressDelta    float64     `json:"stress_delta,omitempty"`
	Reason         string      `json:"reason,omitempty"`
}

// Passenger is a static passenger definition loaded from content.
type Passenger struct {
	ID                  int               `json:"id"`
	Name                string            `json:"name"`
	Description         string            `json:"description,omitempty"`
	Supernatural        string            `json:"supernatural"` // type tag, e.g. "Ghost of former taxi passenger"
	Pickup              string            `json:"pickup,omitempty"`
	Destination         string            `json:"destination,omitempty"`
	Fare                int               `json:"fare"`
	Dialogue            []string          `json:"dialogue,omitempty"`
	StressLevel         float64           `json:"stress_level"`    // [0,1]
	DeceptionLevel      float64           `json:"deception_level"` // [0,1]
	GuidelineExceptions []string          `json:"guideline_exceptions,omitempty"`
	Tells               []tell.Tell       `json:"tells,omitempty"`
	StateProfile        *StateProfile     `json:"state_profile,omitempty"`
	RoutePreferences    []RoutePreference `json:"route_preferences,omitempty"`
}

// PreferenceFor returns the passenger's stated preference for a route.
func (p *Passenger) PreferenceFor(route RouteChoice) (RoutePreference, bool) {
	if p == nil {
		return RoutePreference{}, false
	}
	for _, rp := range p.RoutePreferences {
		if rp.Route == route {
			return rp, true
		}
	}
	return RoutePreference{}, false
}

// WithStress returns a copy of the passenger with the stress level replaced,
// clamped to [0,1].
func (p Passenger) WithStress(stress float64) Passenger {
	p.StressLevel = clamp(stress, 0, 1)
	return p
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
