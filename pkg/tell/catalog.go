package tell

import "sort"

// Catalog is a read-only lookup of named tells shared between content files.
type Catalog map[string]Tell

// Get returns the named tell.
func (c Catalog) Get(name string) (Tell, bool) {
	t, ok := c[name]
	return t, ok
}

// Resolve looks up each name, skipping names the catalog does not know.
func (c Catalog) Resolve(names ...string) []Tell {
	var out []Tell
	for _, n := range names {
		if t, ok := c[n]; ok {
			out = append(out, t)
		}
	}
	return out
}

// Names returns the catalog keys in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for n := range c {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DefaultCatalog holds the stock cues used by the bundled content.
var DefaultCatalog = Catalog{
	"cold_breath": {
		Type:        TypeVisual,
		Intensity:   IntensitySubtle,
		Description: "Their breath fogs the air even though the heater is on",
		Reliability: 0.8,
	},
	"mirror_empty": {
		Type:         TypeVisual,
		Intensity:    IntensityObvious,
		Description:  "The rear-view mirror shows an empty back seat",
		AnimationCue: "mirror_flicker",
		Reliability:  0.95,
	},
	"repeats_question": {
		Type:          TypeVerbal,
		Intensity:     IntensityModerate,
		Description:   "They keep asking the same question, louder each time",
		TriggerPhrase: "Why won't you look at me",
		Reliability:   0.85,
	},
	"fidgeting": {
		Type:        TypeBehavioral,
		Intensity:   IntensitySubtle,
		Description: "Fingers drumming against the door handle",
		Reliability: 0.6,
	},
	"radio_static": {
		Type:        TypeEnvironmental,
		Intensity:   IntensityModerate,
		Description: "The radio crackles into static whenever they speak",
		AudioCue:    "static_burst",
		Reliability: 0.7,
	},
	"windows_frost": {
		Type:        TypeEnvironmental,
		Intensity:   IntensityObvious,
		Description: "Frost creeps across the inside of the windows",
		Reliability: 0.9,
	},
	"checks_watch": {
		Type:        TypeBehavioral,
		Intensity:   IntensityModerate,
		Description: "They check a watch that has no hands",
		Reliability: 0.75,
	},
	"pleading_tone": {
		Type:          TypeVerbal,
		Intensity:     IntensityObvious,
		Description:   "Their voice cracks into a desperate plea",
		TriggerPhrase: "Please, I'm running out of time",
		Reliability:   0.9,
	},
}
