package guideline

import (
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
)

type fakeState struct {
	timeRemaining float64
	trust         float64
	weather       string
	needState     *passenger.NeedState
}

func (f fakeState) GetTimeRemaining() float64 { return f.timeRemaining }
func (f fakeState) GetPlayerTrust() float64 { return f.trust }
func (f fakeState) GetWeatherType() string { return f.weather }
func (f fakeState) GetNeedState() *passenger.NeedState { return f.needState }

const ghostType = "Ghost of former taxi passenger"

func eyeContactGuideline() Guideline {
	return Guideline{
		ID:            1001,
		Title:         "Never Make Eye Contact",
		Description:   "Keep your eyes on the road.",
		DefaultSafety: SafetySafe,
		Exceptions: []GuidelineException{
			{
				ID:             "eye_contact_lonely",
				Description:    "A lonely ghost only wants to be seen",
				PassengerTypes: []string{ghostType},
				Conditions: []ExceptionCondition{
					{Type: ConditionPassengerDialogue, Value: "Why won't you look at me"},
					{Type: ConditionPassengerBehavior, Value: "0.6", Operator: OpGreaterThan},
				},
				Tells: []tell.Tell{
					{Type: tell.TypeVerbal, Intensity: tell.IntensityModerate, Description: "repeats the question", Reliability: 0.85},
					{Type: tell.TypeVisual, Intensity: tell.IntensitySubtle, Description: "cold breath", Reliability: 0.8},
				},
				BreakingSafer: true,
				Probability:   0.7,
			},
		},
		FollowConsequences: []GuidelineConsequence{
			{Type: ConsequenceSurvival, Value: 1, Description: "You arrive safely", Probability: 0.9},
		},
		BreakConsequences: []GuidelineConsequence{
			{Type: ConsequenceDeath, Value: 1, Description: "Their eyes were the last thing you saw", Probability: 0.8},
		},
		ExceptionRewards: []GuidelineConsequence{
			{Type: ConsequenceMoney, Value: 40, Description: "A grateful tip", Probability: 1},
		},
	}
}

func ghost(stress float64) *passenger.Passenger {
	return &passenger.Passenger{
		ID:           42,
		Name:         "Eleanor",
		Supernatural: ghostType,
		Dialogue:     []string{"It's so cold tonight.", "Why won't you look at me?"},
		StressLevel:  stress,
	}
}
