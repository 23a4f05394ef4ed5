package guideline

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"golang.org/x/text/cases"
)

const floatTolerance = 1e-9

// Evaluator decides whether exceptions apply. The zero value treats unknown
// condition types as satisfied; set StrictUnknown to make them fail instead.
type Evaluator struct {
	StrictUnknown bool
}

// DefaultEvaluator is the fail-open evaluator used by the package-level helpers.
var DefaultEvaluator = Evaluator{}

// Matches reports whether the exception applies to this passenger by id,
// by supernatural type, or because the passenger lists the exception.
func Matches(p *passenger.Passenger, ex GuidelineException) bool {
	if p == nil {
		return false
	}
	if slices.Contains(ex.PassengerIDs, p.ID) {
		return true
	}
	if p.Supernatural != "" && slices.Contains(ex.PassengerTypes, p.Supernatural) {
		return true
	}
	return slices.Contains(p.GuidelineExceptions, ex.ID)
}

// ConditionsHold evaluates all of the exception's conditions with the
// default evaluator.
func ConditionsHold(ex GuidelineException, gs GameStateView, p *passenger.Passenger) bool {
	return DefaultEvaluator.ConditionsHold(ex, gs, p)
}

// ConditionsHold reports whether every condition on the exception holds.
// An exception with no conditions always holds.
func (e Evaluator) ConditionsHold(ex GuidelineException, gs GameStateView, p *passenger.Passenger) bool {
	for _, c := range ex.Conditions {
		if !e.ConditionHolds(c, gs, p) {
			return false
		}
	}
	return true
}

// ConditionHolds evaluates a single condition.
func (e Evaluator) ConditionHolds(c ExceptionCondition, gs GameStateView, p *passenger.Passenger) bool {
	switch c.Type {
	case ConditionPassengerDialogue:
		if p == nil {
			return false
		}
		return dialogueContains(p.Dialogue, string(c.Value))

	case ConditionPassengerBehavior:
		if p == nil {
			return false
		}
		return compare(p.StressLevel, c.Operator, c.Value)

	case ConditionTimeBased:
		if gs == nil {
			return false
		}
		return compare(gs.GetTimeRemaining(), c.Operator, c.Value)

	case ConditionEnvironmental, ConditionWeather:
		if gs == nil {
			return false
		}
		return c.Value != "" && gs.GetWeatherType() == string(c.Value)

	default:
		return !e.StrictUnknown
	}
}

// StageEligible reports whether the passenger's need stage satisfies the
// exception's minimum stage, if it has one.
func (e Evaluator) StageEligible(ex GuidelineException, gs GameStateView) bool {
	if ex.RequiredStage == "" {
		return true
	}
	if gs == nil {
		return false
	}
	ns := gs.GetNeedState()
	if ns == nil {
		return false
	}
	return ns.Stage.AtLeast(ex.RequiredStage)
}

// IsActive reports whether the exception is live for this passenger right
// now: matched (directly or through the need-state profile), stage-eligible,
// and with all conditions holding.
func (e Evaluator) IsActive(ex GuidelineException, p *passenger.Passenger, gs GameStateView) bool {
	matched := Matches(p, ex)
	if !matched && gs != nil {
		matched = passenger.IsExceptionActive(gs.GetNeedState(), ex.ID)
	}
	if !matched {
		return false
	}
	return e.StageEligible(ex, gs) && e.ConditionsHold(ex, gs, p)
}

// ActiveException returns the first active exception in declaration order.
func (e Evaluator) ActiveException(g Guideline, p *passenger.Passenger, gs GameStateView) *GuidelineException {
	for i := range g.Exceptions {
		if e.IsActive(g.Exceptions[i], p, gs) {
			return &g.Exceptions[i]
		}
	}
	return nil
}

// dialogueContains never matches an empty needle.
func dialogueContains(lines []string, needle string) bool {
	if strings.TrimSpace(needle) == "" {
		return false
	}
	folded := cases.Fold().String(needle)
	for _, line := range lines {
		if strings.Contains(cases.Fold().String(line), folded) {
			return true
		}
	}
	return false
}

func compare(actual float64, op Operator, value ConditionValue) bool {
	switch op {
	case OpContains:
		return strings.Contains(strconv.FormatFloat(actual, 'f', -1, 64), string(value))
	case OpGreaterThan:
		v, ok := value.Float()
		return ok && actual > v
	case OpLessThan:
		v, ok := value.Float()
		return ok && actual < v
	default:
		v, ok := value.Float()
		return ok && math.Abs(actual-v) < floatTolerance
	}
}
