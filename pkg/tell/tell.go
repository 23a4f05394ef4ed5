// Package tell defines the observable cues passengers give off and the
// runtime records of which cues a player picked up.
package tell

import "time"

// TellType categorises how a cue is observed.
type TellType string

const (
	TypeVerbal        TellType = "verbal"
	TypeBehavioral    TellType = "behavioral"
	TypeVisual        TellType = "visual"
	TypeEnvironmental TellType = "environmental"
)

// Intensity is how strongly a cue presents.
type Intensity string

const (
	IntensitySubtle   Intensity = "subtle"
	IntensityModerate Intensity = "moderate"
	IntensityObvious  Intensity = "obvious"
)

// Valid reports whether i is one of the known intensities.
func (i Intensity) Valid() bool {
	switch i {
	case IntensitySubtle, IntensityModerate, IntensityObvious:
		return true
	}
	return false
}

// Multiplier scales a tell's reliability when computing notice probability.
// Unknown intensities are treated as subtle.
func (i Intensity) Multiplier() float64 {
	switch i {
	case IntensityObvious:
		return 1.0
	case IntensityModerate:
		return 0.7
	default:
		return 0.3
	}
}

// Tell is an observable cue. Catalog entries are never mutated.
type Tell struct {
	Type          TellType  `json:"type"`
	Intensity     Intensity `json:"intensity"`
	Description   string    `json:"description"`
	TriggerPhrase string    `json:"trigger_phrase,omitempty"`
	AnimationCue  string    `json:"animation_cue,omitempty"`
	AudioCue      string    `json:"audio_cue,omitempty"`
	Reliability   float64   `json:"reliability"` // probability the cue is genuine, [0,1]
}

// DetectedTell pairs a tell with the context of one analysis pass.
// DetectionTime is the pass timestamp, shared by every tell of that pass.
type DetectedTell struct {
	Tell             Tell      `json:"tell"`
	PassengerID      int       `json:"passenger_id"`
	DetectionTime    time.Time `json:"detection_time"`
	PlayerNoticed    bool      `json:"player_noticed"`
	RelatedGuideline int       `json:"related_guideline"`
	ExceptionID      string    `json:"exception_id,omitempty"`
}

// WithIntensity returns the tells whose intensity is in the given list,
// preserving declaration order.
func WithIntensity(tells []Tell, intensities ...Intensity) []Tell {
	if len(tells) == 0 || len(intensities) == 0 {
		return nil
	}
	var out []Tell
	for _, t := range tells {
		for _, i := range intensities {
			if t.Intensity == i {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// Noticed filters detections down to those the player perceived.
func Noticed(detected []DetectedTell) []DetectedTell {
	var out []DetectedTell
	for _, d := range detected {
		if d.PlayerNoticed {
			out = append(out, d)
		}
	}
	return out
}
