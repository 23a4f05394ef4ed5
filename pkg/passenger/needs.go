package passenger

import (
	"encoding/json"
	"slices"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/zyedidia/generic/mapset"
)

// NeedStage is a passenger's escalation level. Stages are totally ordered.
type NeedStage string

const (
	StageCalm     NeedStage = "calm"
	StageWarning  NeedStage = "warning"
	StageCritical NeedStage = "critical"
	StageMeltdown NeedStage = "meltdown"
)

// Stages lists every stage in ascending severity.
var Stages = []NeedStage{StageCalm, StageWarning, StageCritical, StageMeltdown}

// Rank returns the stage's position in the severity order, or -1 if unknown.
func (s NeedStage) Rank() int {
	return slices.Index(Stages, s)
}

// AtLeast reports whether s is as severe as other.
func (s NeedStage) AtLeast(other NeedStage) bool {
	return s.Rank() >= other.Rank()
}

// Valid reports whether s is a known stage.
func (s NeedStage) Valid() bool {
	return s.Rank() >= 0
}

// Thresholds are the need levels at which each stage begins.
type Thresholds struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
	Meltdown float64 `json:"meltdown"`
}

// DefaultThresholds apply when a profile leaves its thresholds unset.
var DefaultThresholds = Thresholds{Warning: 40, Critical: 70, Meltdown: 90}

func (t Thresholds) isZero() bool {
	return t == Thresholds{}
}

// NeedChange holds per-choice need deltas.
type NeedChange struct {
	Passive float64 `json:"passive"` // applied on every route choice
	Obey    float64 `json:"obey"`    // applied for non-shortcut routes
	Break   float64 `json:"break"`   // applied for shortcuts
}

// StateProfile parameterises a passenger's need escalation. Immutable.
type StateProfile struct {
	NeedType        string                         `json:"need_type"`
	InitialLevel    float64                        `json:"initial_level"`
	Thresholds      Thresholds                     `json:"thresholds"`
	NeedChange      NeedChange                     `json:"need_change"`
	TellIntensities map[NeedStage][]tell.Intensity `json:"tell_intensities,omitempty"`
	StageDialogue   map[NeedStage][]string         `json:"stage_dialogue,omitempty"`
	ExceptionIDs    []string                       `json:"exception_ids,omitempty"`
}

// DefaultTellIntensities maps stages to the tell intensities they surface
// when a profile does not override them.
var DefaultTellIntensities = map[NeedStage][]tell.Intensity{
	StageCalm:     {tell.IntensitySubtle},
	StageWarning:  {tell.IntensityModerate},
	StageCritical: {tell.IntensityObvious},
	StageMeltdown: {tell.IntensityObvious},
}

func (p *StateProfile) thresholds() Thresholds {
	if p == nil || p.Thresholds.isZero() {
		return DefaultThresholds
	}
	return p.Thresholds
}

// StageFor derives the stage for a level under this profile's thresholds.
func (p *StateProfile) StageFor(level float64) NeedStage {
	t := p.thresholds()
	switch {
	case level >= t.Meltdown:
		return StageMeltdown
	case level >= t.Critical:
		return StageCritical
	case level >= t.Warning:
		return StageWarning
	default:
		return StageCalm
	}
}

func (p *StateProfile) intensitiesFor(stage NeedStage) []tell.Intensity {
	if p != nil {
		if in, ok := p.TellIntensities[stage]; ok {
			return in
		}
	}
	return DefaultTellIntensities[stage]
}

// RuleOutcome carries the need adjustment from a rule resolved on this leg.
type RuleOutcome struct {
	NeedAdjustment float64 `json:"need_adjustment"`
	Reason         string  `json:"reason,omitempty"`
}

// NeedState is the mutable-by-replacement need state of one passenger
// instance. Every transition returns a new value.
type NeedState struct {
	NeedType       string
	Level          float64
	Stage          NeedStage
	Stability      float64
	LastUpdated    time.Time
	RevealedStages mapset.Set[NeedStage]
	Profile        *StateProfile
}

// Initialize creates the need state for a newly assigned passenger.
// It returns nil when the passenger has no state profile.
func Initialize(p *Passenger) *NeedState {
	if p == nil || p.StateProfile == nil {
		return nil
	}
	profile := p.StateProfile
	level := clamp(profile.InitialLevel, 0, 100)
	stage := profile.StageFor(level)

	revealed := mapset.New[NeedStage]()
	if stage != StageCalm {
		revealed.Put(stage)
	}

	return &NeedState{
		NeedType:       profile.NeedType,
		Level:          level,
		Stage:          stage,
		Stability:      1 - level/100,
		LastUpdated:    time.Now(),
		RevealedStages: revealed,
		Profile:        profile,
	}
}

// ApplyRouteChoice advances the state by one route decision and returns the
// new state with any tells surfaced by entering a not-yet-revealed stage.
// Each stage reveals its tells at most once per passenger instance.
func ApplyRouteChoice(s *NeedState, p *Passenger, route RouteChoice, outcome *RuleOutcome) (*NeedState, []tell.Tell) {
	if s == nil {
		return nil, nil
	}
	next := s.Clone()
	change := next.Profile.needChange()

	level := next.Level + change.Passive
	if route == RouteShortcut {
		level += change.Break
	} else {
		level += change.Obey
	}
	if outcome != nil {
		level += outcome.NeedAdjustment
	}

	next.Level = clamp(level, 0, 100)
	next.Stage = next.Profile.StageFor(next.Level)
	next.Stability = 1 - next.Level/100
	next.LastUpdated = time.Now()

	var surfaced []tell.Tell
	if !next.RevealedStages.Has(next.Stage) {
		if p != nil {
			surfaced = tell.WithIntensity(p.Tells, next.Profile.intensitiesFor(next.Stage)...)
		}
		next.RevealedStages.Put(next.Stage)
	}
	return next, surfaced
}

func (p *StateProfile) needChange() NeedChange {
	if p == nil {
		return NeedChange{}
	}
	return p.NeedChange
}

// IsExceptionActive reports whether the profile gates the named exception
// and the passenger has escalated to at least the warning stage.
func IsExceptionActive(s *NeedState, exceptionID string) bool {
	if s == nil || s.Profile == nil {
		return false
	}
	if !slices.Contains(s.Profile.ExceptionIDs, exceptionID) {
		return false
	}
	return s.Stage.AtLeast(StageWarning)
}

// DialogueForStage picks a random line from the profile's pool for the
// current stage.
func DialogueForStage(s *NeedState, src rng.Source) (string, bool) {
	if s == nil || s.Profile == nil {
		return "", false
	}
	lines := s.Profile.StageDialogue[s.Stage]
	if len(lines) == 0 {
		return "", false
	}
	return lines[src.IntN(len(lines))], true
}

// Revealed returns the revealed stages in severity order.
func (s *NeedState) Revealed() []NeedStage {
	var out []NeedStage
	if s == nil {
		return out
	}
	for _, st := range Stages {
		if s.RevealedStages.Has(st) {
			out = append(out, st)
		}
	}
	return out
}

// Clone returns a copy that shares the immutable profile but owns its
// revealed-stage set.
func (s *NeedState) Clone() *NeedState {
	if s == nil {
		return nil
	}
	c := *s
	c.RevealedStages = mapset.New[NeedStage]()
	s.RevealedStages.Each(func(st NeedStage) {
		c.RevealedStages.Put(st)
	})
	return &c
}

type needStateJSON struct {
	NeedType       string        `json:"need_type"`
	Level          float64       `json:"level"`
	Stage          NeedStage     `json:"stage"`
	Stability      float64       `json:"stability"`
	LastUpdated    time.Time     `json:"last_updated"`
	RevealedStages []NeedStage   `json:"revealed_stages"`
	Profile        *StateProfile `json:"profile,omitempty"`
}

// MarshalJSON writes the revealed-stage set as an ordered list.
func (s *NeedState) MarshalJSON() ([]byte, error) {
	return json.Marshal(needStateJSON{
		NeedType:       s.NeedType,
		Level:          s.Level,
		Stage:          s.Stage,
		Stability:      s.Stability,
		LastUpdated:    s.LastUpdated,
		RevealedStages: s.Revealed(),
		Profile:        s.Profile,
	})
}

// UnmarshalJSON rebuilds the revealed-stage set.
func (s *NeedState) UnmarshalJSON(data []byte) error {
	var aux needStateJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.NeedType = aux.NeedType
	s.Level = aux.Level
	s.Stage = aux.Stage
	s.Stability = aux.Stability
	s.LastUpdated = aux.LastUpdated
	s.Profile = aux.Profile
	s.RevealedStages = mapset.New[NeedStage]()
	for _, st := range aux.RevealedStages {
		s.RevealedStages.Put(st)
	}
	return nil
}
