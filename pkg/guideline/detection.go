package guideline

import (
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
)

// Detector samples which exception tells the player perceives.
type Detector struct {
	Evaluator Evaluator
	rng       rng.Source
	now       func() time.Time
}

// NewDetector returns a detector drawing from src.
func NewDetector(src rng.Source) *Detector {
	return &Detector{rng: src, now: time.Now}
}

// WithClock replaces the detection timestamp source.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// NoticeProbability is reliability x intensity multiplier x (0.5 + trust/2).
func NoticeProbability(t tell.Tell, trust float64) float64 {
	return t.Reliability * t.Intensity.Multiplier() * (0.5 + clampUnit(trust)*0.5)
}

// Analyze emits one detection per tell on every active exception of every
// guideline. Each tell gets an independent draw and all of them share the
// pass timestamp. Inputs are not modified.
func (d *Detector) Analyze(p *passenger.Passenger, gs GameStateView, guidelines []Guideline) []tell.DetectedTell {
	if p == nil || gs == nil {
		return nil
	}
	trust := gs.GetPlayerTrust()
	now := d.now()

	var detected []tell.DetectedTell
	for _, g := range guidelines {
		for _, ex := range g.Exceptions {
			if !d.Evaluator.IsActive(ex, p, gs) {
				continue
			}
			for _, t := range ex.Tells {
				detected = append(detected, tell.DetectedTell{
					Tell:             t,
					PassengerID:      p.ID,
					DetectionTime:    now,
					PlayerNoticed:    d.rng.Float64() < NoticeProbability(t, trust),
					RelatedGuideline: g.ID,
					ExceptionID:      ex.ID,
				})
			}
		}
	}
	return detected
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
