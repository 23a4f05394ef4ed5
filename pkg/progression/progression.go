// Package progression derives difficulty signals from a player's track record.
package progression

import (
	"math"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
)

// View is the player history the modulator reads.
type View interface {
	GetPlayerTrust() float64
	GetRidesCompleted() int
	DecisionCount() int
	CorrectDecisionCount() int
}

// Phase classifies how far along a player is.
type Phase string

const (
	PhaseEarly  Phase = "early"
	PhaseMid    Phase = "mid"
	PhaseLate   Phase = "late"
	PhaseExpert Phase = "expert"
)

const (
	// DecisionTimeout is how long a guideline prompt waits before
	// auto-resolving as follow.
	DecisionTimeout = 30 * time.Second

	minObservation = 5 * time.Second
	maxObservation = 10 * time.Second
)

// SkillRatio is correct decisions per completed ride, 0 with no rides.
func SkillRatio(v View) float64 {
	rides := v.GetRidesCompleted()
	if rides <= 0 {
		return 0
	}
	return float64(v.CorrectDecisionCount()) / float64(rides)
}

// ProgressiveModifier is the extra difficulty earned by experienced players.
// It is zero until ten rides are complete.
func ProgressiveModifier(v View) float64 {
	rides := v.GetRidesCompleted()
	if rides < 10 {
		return 0
	}

	mod := 0.0
	skill := SkillRatio(v)
	switch {
	case skill > 0.8:
		mod += 0.2
	case skill > 0.6:
		mod += 0.1
	case skill < 0.3:
		mod -= 0.1
	}
	if rides > 25 {
		mod += math.Min(0.15, float64(rides)*0.002)
	}
	return mod
}

// ReadingDifficulty estimates how hard the passenger is to read, in [0.1, 0.9].
func ReadingDifficulty(p *passenger.Passenger, v View) float64 {
	deception := 0.0
	if p != nil {
		deception = p.DeceptionLevel
	}
	d := 0.5 +
		deception*0.3 -
		v.GetPlayerTrust()*0.2 -
		math.Min(0.3, float64(v.DecisionCount())*0.01) +
		ProgressiveModifier(v)
	return clamp(d, 0.1, 0.9)
}

// LearningPhase classifies the player for content selection.
func LearningPhase(v View) Phase {
	rides := v.GetRidesCompleted()
	switch {
	case rides < 5:
		return PhaseEarly
	case rides < 15:
		return PhaseMid
	case rides < 30 || SkillRatio(v) < 0.6:
		return PhaseLate
	default:
		return PhaseExpert
	}
}

// FalseTellChance is the probability content generation should mix in
// misleading tells. The higher tier wins when both apply.
func FalseTellChance(v View) float64 {
	rides := v.GetRidesCompleted()
	skill := SkillRatio(v)
	switch {
	case rides > 35 && skill > 0.6:
		return 0.5
	case rides > 20 && skill > 0.7:
		return 0.3
	default:
		return 0
	}
}

// ShouldIntroduceFalseTells rolls FalseTellChance.
func ShouldIntroduceFalseTells(v View, src rng.Source) bool {
	chance := FalseTellChance(v)
	if chance <= 0 {
		return false
	}
	return src.Float64() < chance
}

// ObservationWindow shrinks from 10s to 5s as trust grows.
func ObservationWindow(trust float64) time.Duration {
	trust = clamp(trust, 0, 1)
	return maxObservation - time.Duration(trust*float64(maxObservation-minObservation))
}

// Report bundles the signals for API consumers.
type Report struct {
	ReadingDifficulty float64       `json:"reading_difficulty"`
	LearningPhase     Phase         `json:"learning_phase"`
	SkillRatio        float64       `json:"skill_ratio"`
	FalseTellChance   float64       `json:"false_tell_chance"`
	FalseTells        bool          `json:"false_tells"`
	ObservationWindow time.Duration `json:"observation_window_ns"`
	DecisionTimeout   time.Duration `json:"decision_timeout_ns"`
}

// Assess builds a Report for the passenger currently in the car.
func Assess(p *passenger.Passenger, v View, src rng.Source) Report {
	return Report{
		ReadingDifficulty: ReadingDifficulty(p, v),
		LearningPhase:     LearningPhase(v),
		SkillRatio:        SkillRatio(v),
		FalseTellChance:   FalseTellChance(v),
		FalseTells:        ShouldIntroduceFalseTells(v, src),
		ObservationWindow: ObservationWindow(v.GetPlayerTrust()),
		DecisionTimeout:   DecisionTimeout,
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
