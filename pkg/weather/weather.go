// Package weather generates the night's weather from layered simplex noise.
// A shift seed fixes the whole forecast so replays see the same sky.
package weather

import (
	"math/rand/v2"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Type is the weather kind environmental conditions compare against.
type Type string

const (
	Clear Type = "clear"
	Fog   Type = "fog"
	Rain  Type = "rain"
	Storm Type = "storm"
	Snow  Type = "snow"
)

// Types lists every kind in ascending severity.
var Types = []Type{Clear, Fog, Rain, Storm, Snow}

// Valid reports whether t is a known weather kind.
func (t Type) Valid() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// Conditions is the weather at one moment of a shift.
type Conditions struct {
	Type      Type    `json:"type"`
	Intensity float64 `json:"intensity"`
}

// Band edges on the normalized wetness field.
const (
	fogAt   = 0.48
	rainAt  = 0.56
	stormAt = 0.70
	snowAt  = 0.62 // cold threshold that turns rain into snow
)

// Generator samples two independent noise fields, wetness and cold.
type Generator struct {
	seed int64
	wet  opensimplex.Noise
	cold opensimplex.Noise
}

// NewGenerator builds a generator. A zero seed picks a random one.
func NewGenerator(seed int64) *Generator {
	if seed == 0 {
		seed = rand.Int64()
	}
	return &Generator{
		seed: seed,
		wet:  opensimplex.NewNormalized(seed),
		cold: opensimplex.NewNormalized(seed + 1),
	}
}

// Seed returns the seed the generator was built with.
func (g *Generator) Seed() int64 {
	return g.seed
}

// At returns the weather for a shift number at a minute into the shift.
func (g *Generator) At(shift int, minute float64) Conditions {
	x := minute / 60
	y := float64(shift) * 3.7

	wet := octaveNoise(g.wet, x, y, 3, 0.35, 0.5)
	cold := octaveNoise(g.cold, x, y, 2, 0.2, 0.5)

	return classify(wet, cold)
}

// Forecast samples the weather at the top of each hour of a shift.
func (g *Generator) Forecast(shift, hours int) []Conditions {
	out := make([]Conditions, 0, hours)
	for h := 0; h < hours; h++ {
		out = append(out, g.At(shift, float64(h*60)))
	}
	return out
}

func classify(wet, cold float64) Conditions {
	switch {
	case wet < fogAt:
		return Conditions{Type: Clear, Intensity: 0}
	case wet < rainAt:
		return Conditions{Type: Fog, Intensity: band(wet, fogAt, rainAt)}
	case cold >= snowAt:
		return Conditions{Type: Snow, Intensity: band(wet, rainAt, 1)}
	case wet >= stormAt:
		return Conditions{Type: Storm, Intensity: band(wet, stormAt, 1)}
	default:
		return Conditions{Type: Rain, Intensity: band(wet, rainAt, stormAt)}
	}
}

// band maps v within [lo, hi) to (0, 1].
func band(v, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	f := (v - lo) / (hi - lo)
	if f < 0.05 {
		f = 0.05
	}
	if f > 1 {
		f = 1
	}
	return f
}

// octaveNoise layers frequencies for smoother transitions between hours.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}
