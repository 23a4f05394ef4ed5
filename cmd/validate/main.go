package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Kalaith/nightmare-shift-sub000/internal/storage"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data_dir>\n", os.Args[0])
		os.Exit(1)
	}

	validator := &ContentValidator{}
	if err := validator.validateDir(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Content is valid!")
}

// ContentValidator collects problems across every guideline and passenger
// file before failing, so one run reports everything.
type ContentValidator struct {
	errors     []string
	guidelines map[int]string
	exceptions map[string]bool
	passengers map[int]string
}

func (v *ContentValidator) validateDir(dataDir string) error {
	v.errors = nil
	v.guidelines = map[int]string{}
	v.exceptions = map[string]bool{}
	v.passengers = map[int]string{}

	guidelineFiles, err := filepath.Glob(filepath.Join(dataDir, "guidelines", "*.json"))
	if err != nil {
		return err
	}
	passengerFiles, err := filepath.Glob(filepath.Join(dataDir, "passengers", "*.json"))
	if err != nil {
		return err
	}
	if len(guidelineFiles) == 0 {
		return fmt.Errorf("no guideline files under %s", filepath.Join(dataDir, "guidelines"))
	}

	var all []passenger.Passenger
	for _, f := range guidelineFiles {
		fmt.Printf("Validating %s...\n", f)
		if !v.checkFilename(f) {
			continue
		}
		gs, err := storage.DecodeFile[guideline.Guideline](f, true)
		if err != nil {
			v.addError(err.Error())
			continue
		}
		for i := range gs {
			v.validateGuideline(&gs[i], f)
		}
	}

	for _, f := range passengerFiles {
		fmt.Printf("Validating %s...\n", f)
		if !v.checkFilename(f) {
			continue
		}
		ps, err := storage.DecodeFile[passenger.Passenger](f, true)
		if err != nil {
			v.addError(err.Error())
			continue
		}
		all = append(all, ps...)
	}
	// Exception references are checked once every guideline is known.
	for i := range all {
		v.validatePassenger(&all[i])
	}

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors:\n%s", strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *ContentValidator) checkFilename(path string) bool {
	name := strings.TrimSuffix(filepath.Base(path), ".json")
	if !validFilenameRegex.MatchString(name) {
		v.addError(fmt.Sprintf("filename '%s' must be lowercase snake_case", filepath.Base(path)))
		return false
	}
	return true
}

func (v *ContentValidator) validateGuideline(g *guideline.Guideline, file string) {
	ctx := fmt.Sprintf("guideline %d (%s)", g.ID, filepath.Base(file))

	if g.ID <= 0 {
		v.addError(fmt.Sprintf("%s must have a positive id", ctx))
	}
	if prev, dup := v.guidelines[g.ID]; dup {
		v.addError(fmt.Sprintf("%s duplicates id declared in %s", ctx, prev))
	}
	v.guidelines[g.ID] = filepath.Base(file)

	if strings.TrimSpace(g.Title) == "" {
		v.addError(fmt.Sprintf("%s has no title", ctx))
	}
	switch g.DefaultSafety {
	case guideline.SafetySafe, guideline.SafetyRisky, guideline.SafetyDangerous:
	default:
		v.addError(fmt.Sprintf("%s has unknown default_safety '%s'", ctx, g.DefaultSafety))
	}

	for _, c := range g.FollowConsequences {
		v.validateConsequence(c, ctx+" follow consequence")
	}
	for _, c := range g.BreakConsequences {
		v.validateConsequence(c, ctx+" break consequence")
	}
	for _, c := range g.ExceptionRewards {
		v.validateConsequence(c, ctx+" exception reward")
	}

	for _, ex := range g.Exceptions {
		v.validateException(ex, ctx)
	}
}

func (v *ContentValidator) validateException(ex guideline.GuidelineException, ctx string) {
	if !validIDRegex.MatchString(ex.ID) {
		v.addError(fmt.Sprintf("%s exception id '%s' should be lowercase snake_case", ctx, ex.ID))
	}
	if v.exceptions[ex.ID] {
		v.addError(fmt.Sprintf("%s reuses exception id '%s'", ctx, ex.ID))
	}
	v.exceptions[ex.ID] = true

	exCtx := fmt.Sprintf("%s exception %s", ctx, ex.ID)
	if ex.Probability < 0 || ex.Probability > 1 {
		v.addError(fmt.Sprintf("%s probability %.2f is outside [0,1]", exCtx, ex.Probability))
	}
	if ex.RequiredStage != "" && !ex.RequiredStage.Valid() {
		v.addError(fmt.Sprintf("%s has unknown required_stage '%s'", exCtx, ex.RequiredStage))
	}
	if len(ex.PassengerIDs) == 0 && len(ex.PassengerTypes) == 0 {
		v.addError(fmt.Sprintf("%s names no passenger ids or types", exCtx))
	}
	for _, c := range ex.Conditions {
		switch c.Type {
		case guideline.ConditionPassengerDialogue, guideline.ConditionPassengerBehavior,
			guideline.ConditionEnvironmental, guideline.ConditionTimeBased, guideline.ConditionWeather:
		default:
			v.addError(fmt.Sprintf("%s has unknown condition type '%s'", exCtx, c.Type))
		}
		switch c.Operator {
		case "", guideline.OpEquals, guideline.OpContains, guideline.OpGreaterThan, guideline.OpLessThan:
		default:
			v.addError(fmt.Sprintf("%s has unknown operator '%s'", exCtx, c.Operator))
		}
		switch c.Type {
		case guideline.ConditionPassengerDialogue, guideline.ConditionEnvironmental, guideline.ConditionWeather:
			if strings.TrimSpace(string(c.Value)) == "" {
				v.addError(fmt.Sprintf("%s has an empty %s value", exCtx, c.Type))
			}
		}
		if c.Operator == guideline.OpGreaterThan || c.Operator == guideline.OpLessThan {
			if _, ok := c.Value.Float(); !ok {
				v.addError(fmt.Sprintf("%s compares against non-numeric value '%s'", exCtx, c.Value))
			}
		}
	}
	for _, t := range ex.Tells {
		if !t.Intensity.Valid() {
			v.addError(fmt.Sprintf("%s tell '%s' has unknown intensity '%s'", exCtx, t.Description, t.Intensity))
		}
		if t.Reliability < 0 || t.Reliability > 1 {
			v.addError(fmt.Sprintf("%s tell '%s' reliability is outside [0,1]", exCtx, t.Description))
		}
	}
}

func (v *ContentValidator) validateConsequence(c guideline.GuidelineConsequence, ctx string) {
	switch c.Type {
	case guideline.ConsequenceDeath, guideline.ConsequenceSurvival, guideline.ConsequenceReputation,
		guideline.ConsequenceMoney, guideline.ConsequenceFuel, guideline.ConsequenceTime,
		guideline.ConsequenceItem, guideline.ConsequenceStoryUnlock:
	default:
		v.addError(fmt.Sprintf("%s has unknown type '%s'", ctx, c.Type))
	}
	if c.Probability < 0 || c.Probability > 1 {
		v.addError(fmt.Sprintf("%s '%s' probability is outside [0,1]", ctx, c.Description))
	}
}

func (v *ContentValidator) validatePassenger(p *passenger.Passenger) {
	ctx := fmt.Sprintf("passenger %d (%s)", p.ID, p.Name)

	if prev, dup := v.passengers[p.ID]; dup {
		v.addError(fmt.Sprintf("%s duplicates id used by %s", ctx, prev))
	}
	v.passengers[p.ID] = p.Name

	if p.StressLevel < 0 || p.StressLevel > 1 {
		v.addError(fmt.Sprintf("%s stress_level is outside [0,1]", ctx))
	}
	if p.DeceptionLevel < 0 || p.DeceptionLevel > 1 {
		v.addError(fmt.Sprintf("%s deception_level is outside [0,1]", ctx))
	}
	for _, id := range p.GuidelineExceptions {
		if !v.exceptions[id] {
			v.addError(fmt.Sprintf("%s references unknown exception '%s'", ctx, id))
		}
	}
	for _, t := range p.Tells {
		if !t.Intensity.Valid() {
			v.addError(fmt.Sprintf("%s tell '%s' has unknown intensity '%s'", ctx, t.Description, t.Intensity))
		}
	}
	for _, rp := range p.RoutePreferences {
		if !rp.Route.Valid() {
			v.addError(fmt.Sprintf("%s has preference for unknown route '%s'", ctx, rp.Route))
		}
	}
	if sp := p.StateProfile; sp != nil {
		t := sp.Thresholds
		if t != (passenger.Thresholds{}) && !(t.Warning < t.Critical && t.Critical < t.Meltdown) {
			v.addError(fmt.Sprintf("%s thresholds must ascend warning < critical < meltdown", ctx))
		}
		for stage := range sp.TellIntensities {
			if !stage.Valid() {
				v.addError(fmt.Sprintf("%s tell_intensities uses unknown stage '%s'", ctx, stage))
			}
		}
		for stage := range sp.StageDialogue {
			if !stage.Valid() {
				v.addError(fmt.Sprintf("%s stage_dialogue uses unknown stage '%s'", ctx, stage))
			}
		}
		for _, id := range sp.ExceptionIDs {
			if !v.exceptions[id] {
				v.addError(fmt.Sprintf("%s state profile references unknown exception '%s'", ctx, id))
			}
		}
	}
}

func (v *ContentValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9_]*[a-z0-9]$|^[a-z0-9]$`)
)
