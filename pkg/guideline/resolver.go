package guideline

import (
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
)

// Decision is the player's response to a guideline.
type Decision string

const (
	DecisionFollow Decision = "follow"
	DecisionBreak  Decision = "break"
)

// Valid reports whether d is follow or break.
func (d Decision) Valid() bool {
	return d == DecisionFollow || d == DecisionBreak
}

const (
	// TimeoutReasoning is recorded when the decision window closes unanswered.
	TimeoutReasoning = "No decision made in time - defaulted to following the guideline"

	exceptionReputationGain = 15
	misreadReputationLoss   = -10
	defaultMisreadDeathRisk = 0.5

	trustGain = 0.1
	trustLoss = 0.2
)

// GuidelineDecision is an immutable record of one follow/break choice.
type GuidelineDecision struct {
	GuidelineID     int                    `json:"guideline_id"`
	PassengerID     int                    `json:"passenger_id"`
	Action          Decision               `json:"action"`
	Consequences    []GuidelineConsequence `json:"consequences"`
	WasCorrect      bool                   `json:"was_correct"`
	TellsPresent    []tell.DetectedTell    `json:"tells_present,omitempty"`
	PlayerReasoning string                 `json:"player_reasoning,omitempty"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Resolver turns a follow/break choice into consequences.
type Resolver struct {
	Evaluator Evaluator
}

// Evaluate resolves with the default fail-open evaluator.
func Evaluate(guidelineID int, action Decision, p *passenger.Passenger, gs GameStateView, guidelines []Guideline) []GuidelineConsequence {
	return Resolver{}.Evaluate(guidelineID, action, p, gs, guidelines)
}

// Evaluate returns the consequence list for acting on a guideline. An
// unknown guideline yields no consequences.
//
//	active exception | action | breaking safer | result
//	no               | follow | -              | follow consequences
//	no               | break  | -              | break consequences
//	yes              | break  | true           | survival + reputation gain
//	yes              | follow | false          | follow consequences
//	yes              | other combinations      | death risk + reputation loss
func (r Resolver) Evaluate(guidelineID int, action Decision, p *passenger.Passenger, gs GameStateView, guidelines []Guideline) []GuidelineConsequence {
	g, ok := Find(guidelines, guidelineID)
	if !ok {
		return []GuidelineConsequence{}
	}

	ex := r.Evaluator.ActiveException(*g, p, gs)
	if ex == nil {
		if action == DecisionBreak {
			return copyConsequences(g.BreakConsequences)
		}
		return copyConsequences(g.FollowConsequences)
	}

	switch {
	case action == DecisionBreak && ex.BreakingSafer:
		return positiveConsequences(*g, *ex)
	case action == DecisionFollow && !ex.BreakingSafer:
		return copyConsequences(g.FollowConsequences)
	default:
		return negativeConsequences(*ex)
	}
}

func positiveConsequences(g Guideline, ex GuidelineException) []GuidelineConsequence {
	out := []GuidelineConsequence{
		{
			Type:        ConsequenceSurvival,
			Value:       1,
			Description: "You read the signs correctly: " + ex.Description,
			Probability: 1,
		},
		{
			Type:        ConsequenceReputation,
			Value:       exceptionReputationGain,
			Description: "Word spreads that you know when the rules bend",
			Probability: 1,
		},
	}
	return append(out, g.ExceptionRewards...)
}

func negativeConsequences(ex GuidelineException) []GuidelineConsequence {
	risk := ex.Probability
	if risk <= 0 {
		risk = defaultMisreadDeathRisk
	}
	return []GuidelineConsequence{
		{
			Type:        ConsequenceDeath,
			Value:       1,
			Description: "You misread the situation: " + ex.Description,
			Probability: risk,
		},
		{
			Type:        ConsequenceReputation,
			Value:       misreadReputationLoss,
			Description: "Your passenger will not forget this ride",
			Probability: 1,
		},
	}
}

func copyConsequences(in []GuidelineConsequence) []GuidelineConsequence {
	out := make([]GuidelineConsequence, len(in))
	copy(out, in)
	return out
}

// WasCorrect reports whether the consequences include survival or a
// reputation gain.
func WasCorrect(consequences []GuidelineConsequence) bool {
	for _, c := range consequences {
		if c.Type == ConsequenceSurvival {
			return true
		}
		if c.Type == ConsequenceReputation && c.Value > 0 {
			return true
		}
	}
	return false
}

// RecordDecision builds the decision record. Applying it to game state is
// the caller's job (see state.ApplyDecision).
func RecordDecision(guidelineID, passengerID int, action Decision, consequences []GuidelineConsequence, tells []tell.DetectedTell, reasoning string, at time.Time) GuidelineDecision {
	present := make([]tell.DetectedTell, len(tells))
	copy(present, tells)
	return GuidelineDecision{
		GuidelineID:     guidelineID,
		PassengerID:     passengerID,
		Action:          action,
		Consequences:    copyConsequences(consequences),
		WasCorrect:      WasCorrect(consequences),
		TellsPresent:    present,
		PlayerReasoning: reasoning,
		Timestamp:       at,
	}
}

// AdjustTrust applies +0.1 for a correct decision and -0.2 otherwise,
// clamped to [0,1].
func AdjustTrust(trust float64, correct bool) float64 {
	if correct {
		return clampUnit(trust + trustGain)
	}
	return clampUnit(trust - trustLoss)
}
