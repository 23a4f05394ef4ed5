package guideline

import (
	"slices"
	"sort"
)

// PlayerAction is something the driver can do mid-ride that may break a
// guideline.
type PlayerAction string

const (
	ActionEyeContact   PlayerAction = "eye_contact"
	ActionTakeShortcut PlayerAction = "take_shortcut"
	ActionSpeakFirst   PlayerAction = "speak_first"
	ActionOpenWindow   PlayerAction = "open_window"
	ActionAcceptItem   PlayerAction = "accept_item"
	ActionStopCar      PlayerAction = "stop_car"
	ActionTurnOnRadio  PlayerAction = "turn_on_radio"
	ActionLookInMirror PlayerAction = "look_in_mirror"
)

// ActionMap maps each player action to the guideline it breaks.
type ActionMap map[PlayerAction]int

// DefaultActionMap covers the bundled guidelines.
var DefaultActionMap = ActionMap{
	ActionEyeContact:   1001,
	ActionTakeShortcut: 1002,
	ActionSpeakFirst:   1003,
	ActionOpenWindow:   1004,
	ActionAcceptItem:   1005,
	ActionStopCar:      1006,
	ActionTurnOnRadio:  1007,
	ActionLookInMirror: 1008,
}

// ActionMapFor layers the guidelines' RelatedActions over the defaults.
func ActionMapFor(guidelines []Guideline) ActionMap {
	m := make(ActionMap, len(DefaultActionMap))
	for a, id := range DefaultActionMap {
		m[a] = id
	}
	for _, g := range guidelines {
		for _, a := range g.RelatedActions {
			m[a] = g.ID
		}
	}
	return m
}

// GuidelineFor returns the guideline id the action maps to.
func (m ActionMap) GuidelineFor(a PlayerAction) (int, bool) {
	id, ok := m[a]
	return id, ok
}

// Classify reports which active guideline the action breaks. Actions that
// map to an inactive guideline, or to none, are not breaking.
func (m ActionMap) Classify(a PlayerAction, activeGuidelineIDs []int) (int, bool) {
	id, ok := m[a]
	if !ok || !slices.Contains(activeGuidelineIDs, id) {
		return 0, false
	}
	return id, true
}

// ActionsFor lists the actions that break the given guideline, sorted.
func (m ActionMap) ActionsFor(guidelineID int) []PlayerAction {
	var out []PlayerAction
	for a, id := range m {
		if id == guidelineID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
