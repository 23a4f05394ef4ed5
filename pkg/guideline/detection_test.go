package guideline

import (
	"testing"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/tell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoticeProbability(t *testing.T) {
	obvious := tell.Tell{Intensity: tell.IntensityObvious, Reliability: 1}
	assert.InDelta(t, 0.5, NoticeProbability(obvious, 0), 1e-9)
	assert.InDelta(t, 1.0, NoticeProbability(obvious, 1), 1e-9)
	assert.InDelta(t, 1.0, NoticeProbability(obvious, 3), 1e-9, "trust is clamped")

	subtle := tell.Tell{Intensity: tell.IntensitySubtle, Reliability: 0.8}
	assert.InDelta(t, 0.8*0.3*0.75, NoticeProbability(subtle, 0.5), 1e-9)
}

func TestAnalyze_ScriptedDraws(t *testing.T) {
	fixed := time.Date(2024, 10, 31, 23, 0, 0, 0, time.UTC)
	d := NewDetector(rng.Fixed(0.3, 0.3)).WithClock(func() time.Time { return fixed })
	gs := fakeState{trust: 0.5}

	detected := d.Analyze(ghost(0.8), gs, []Guideline{eyeContactGuideline()})
	require.Len(t, detected, 2)

	// moderate 0.85 -> 0.446, subtle 0.8 -> 0.18
	assert.True(t, detected[0].PlayerNoticed)
	assert.False(t, detected[1].PlayerNoticed)
	for _, dt := range detected {
		assert.Equal(t, 42, dt.PassengerID)
		assert.Equal(t, 1001, dt.RelatedGuideline)
		assert.Equal(t, "eye_contact_lonely", dt.ExceptionID)
		assert.Equal(t, fixed, dt.DetectionTime)
	}
	assert.Equal(t, "repeats the question", detected[0].Tell.Description)
}

func TestAnalyze_OneTimestampPerPass(t *testing.T) {
	tick := time.Date(2024, 10, 31, 23, 0, 0, 0, time.UTC)
	calls := 0
	d := NewDetector(rng.New(5)).WithClock(func() time.Time {
		calls++
		tick = tick.Add(time.Second)
		return tick
	})

	detected := d.Analyze(ghost(0.8), fakeState{trust: 0.5}, []Guideline{eyeContactGuideline()})
	require.Len(t, detected, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, detected[0].DetectionTime, detected[1].DetectionTime)
}

func TestAnalyze_InactiveExceptionEmitsNothing(t *testing.T) {
	d := NewDetector(rng.New(1))
	assert.Empty(t, d.Analyze(ghost(0.4), fakeState{trust: 0.5}, []Guideline{eyeContactGuideline()}))
	assert.Empty(t, d.Analyze(nil, fakeState{}, []Guideline{eyeContactGuideline()}))
}

func TestAnalyze_DoesNotMutateInputs(t *testing.T) {
	g := eyeContactGuideline()
	p := ghost(0.8)
	before := *p
	NewDetector(rng.New(3)).Analyze(p, fakeState{trust: 0.9}, []Guideline{g})
	assert.Equal(t, before, *p)
	assert.Equal(t, eyeContactGuideline(), g)
}

func TestAnalyze_IntensityMonotonicity(t *testing.T) {
	const trials = 20000
	g := Guideline{
		ID: 1,
		Exceptions: []GuidelineException{{
			ID:           "always",
			PassengerIDs: []int{42},
			Tells: []tell.Tell{
				{Intensity: tell.IntensitySubtle, Reliability: 0.9},
				{Intensity: tell.IntensityModerate, Reliability: 0.9},
				{Intensity: tell.IntensityObvious, Reliability: 0.9},
			},
		}},
	}
	d := NewDetector(rng.New(2024))
	gs := fakeState{trust: 0.5}

	var counts [3]int
	for i := 0; i < trials; i++ {
		for j, dt := range d.Analyze(ghost(0.8), gs, []Guideline{g}) {
			if dt.PlayerNoticed {
				counts[j]++
			}
		}
	}
	assert.Greater(t, counts[2], counts[1], "obvious should beat moderate")
	assert.Greater(t, counts[1], counts[0], "moderate should beat subtle")
}
