// Package guideline implements the guideline decision engine: exception
// condition evaluation, tell detection, and follow/break resolution.
package guideline

import (
	"encoding/json"
	"strconv"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
)

// ConditionType selects which fact a condition inspects.
type ConditionType string

const (
	ConditionPassengerDialogue ConditionType = "passenger_dialogue"
	ConditionPassengerBehavior ConditionType = "passenger_behavior"
	ConditionEnvironmental     ConditionType = "environmental"
	ConditionTimeBased         ConditionType = "time_based"
	ConditionWeather           ConditionType = "weather"
)

// Operator is the comparison applied by a condition.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
)

// ConditionValue is a comparison operand. Content may write it as a JSON
// string or a JSON number.
type ConditionValue string

// UnmarshalJSON accepts strings and numbers.
func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ConditionValue(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = ConditionValue(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// MarshalJSON writes numeric operands back as numbers.
func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if f, ok := v.Float(); ok {
		return json.Marshal(f)
	}
	return json.Marshal(string(v))
}

// Float returns the operand as a number if it parses as one.
func (v ConditionValue) Float() (float64, bool) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ExceptionCondition is a stateless predicate over passenger and game facts.
type ExceptionCondition struct {
	Type        ConditionType  `json:"type"`
	Value       ConditionValue `json:"value"`
	Operator    Operator       `json:"operator,omitempty"` // defaults to equals
	Description string         `json:"description,omitempty"`
}

// GuidelineException is a named override on a guideline. All conditions
// must hold for it to be active.
type GuidelineException struct {
	ID             string               `json:"id"`
	Description    string               `json:"description,omitempty"`
	PassengerIDs   []int                `json:"passenger_ids,omitempty"`
	PassengerTypes []string             `json:"passenger_types,omitempty"`
	Conditions     []ExceptionCondition `json:"conditions,omitempty"`
	Tells          []tell.Tell          `json:"tells,omitempty"`
	BreakingSafer  bool                 `json:"breaking_safer"`
	Probability    float64              `json:"probability,omitempty"`
	RequiredStage  passenger.NeedStage  `json:"required_stage,omitempty"`
}

// Safety is a guideline's baseline risk rating.
type Safety string

const (
	SafetySafe      Safety = "safe"
	SafetyRisky     Safety = "risky"
	SafetyDangerous Safety = "dangerous"
)

// ConsequenceType names what a consequence affects.
type ConsequenceType string

const (
	ConsequenceDeath       ConsequenceType = "death"
	ConsequenceSurvival    ConsequenceType = "survival"
	ConsequenceReputation  ConsequenceType = "reputation"
	ConsequenceMoney       ConsequenceType = "money"
	ConsequenceFuel        ConsequenceType = "fuel"
	ConsequenceTime        ConsequenceType = "time"
	ConsequenceItem        ConsequenceType = "item"
	ConsequenceStoryUnlock ConsequenceType = "story_unlock"
)

// GuidelineConsequence is one possible effect of a choice. Callers roll
// Probability to decide whether it fires.
type GuidelineConsequence struct {
	Type        ConsequenceType `json:"type"`
	Value       float64         `json:"value"`
	Description string          `json:"description"`
	Probability float64         `json:"probability"`
}

// Guideline is a soft rule with conditional exceptions.
type Guideline struct {
	ID                 int                    `json:"id"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description"`
	DefaultSafety      Safety                 `json:"default_safety"`
	Exceptions         []GuidelineException   `json:"exceptions,omitempty"`
	FollowConsequences []GuidelineConsequence `json:"follow_consequences"`
	BreakConsequences  []GuidelineConsequence `json:"break_consequences"`
	ExceptionRewards   []GuidelineConsequence `json:"exception_rewards,omitempty"`
	RelatedActions     []PlayerAction         `json:"related_actions,omitempty"`
}

// Find returns the guideline with the given id.
func Find(guidelines []Guideline, id int) (*Guideline, bool) {
	for i := range guidelines {
		if guidelines[i].ID == id {
			return &guidelines[i], true
		}
	}
	return nil, false
}

// GameStateView is the slice of game state the engine reads. It keeps this
// package free of a dependency on the state package.
type GameStateView interface {
	GetTimeRemaining() float64
	GetPlayerTrust() float64
	GetWeatherType() string
	GetNeedState() *passenger.NeedState
}
