package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/internal/handlers"
	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/guideline"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/passenger"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/progression"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/state"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "Type a command (/help)..."

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	api          *apiClient
	gameState    *state.GameState
	guidelines   map[int]handlers.GuidelineView
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	countdown    progress.Model
	entries      []string
	ready        bool
	width        int
	height       int
	loading      bool
	now          time.Time

	// Decision window state
	analysis     *shift.AnalysisResult
	target       int
	decisionSent bool

	routes []shift.RouteOption

	showQuitModal bool
}

type guidelinesMsg struct {
	guidelines []handlers.GuidelineView
	err        error
}

type shiftMsg struct {
	gameState *state.GameState
	note      string
	err       error
}

type analysisMsg struct {
	result *shift.AnalysisResult
	err    error
}

type routesMsg struct {
	routes []shift.RouteOption
	err    error
}

type routeMsg struct {
	result *shift.RouteResult
	err    error
}

type decisionMsg struct {
	result *shift.DecisionResult
	err    error
}

type actionMsg struct {
	result *shift.ActionResult
	err    error
}

type rideMsg struct {
	result *shift.RideResult
	err    error
}

type tickMsg time.Time

var (
	logPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(3)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	passengerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	tellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

const helpText = `Commands:
• /pickup          - Pick up the next passenger
• /look            - Observe the passenger again
• /target <id>     - Choose which guideline to decide on
• /follow [why]    - Follow the target guideline
• /break [why]     - Break the target guideline
• /routes          - List route options
• /route <name|n>  - Drive a leg
• /act <action>    - Do something (eye_contact, open_window, ...)
• /drop            - Drop the passenger off
• /rules           - Show tonight's guidelines
• /copy            - Copy the shift ID
• /end             - Clock out
• Ctrl+C           - Quit`

func NewConsoleUI(api *apiClient) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 300
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	return ConsoleUI{
		api:          api,
		guidelines:   map[int]handlers.GuidelineView{},
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: viewport.New(20, 20),
		countdown:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		loading:      true,
		now:          time.Now(),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadGuidelines(), m.startShift(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" || m.loading {
				return m, nil
			}
			return m.handleCommand(input)
		}

	case tickMsg:
		m.now = time.Time(msg)
		cmd := m.checkDeadline()
		m.metaViewport.SetContent(m.writeMetadata())
		return m, tea.Batch(cmd, tick())

	case guidelinesMsg:
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		for _, g := range msg.guidelines {
			m.guidelines[g.ID] = g
		}
		m.refresh()

	case shiftMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.gameState = msg.gameState
		if msg.note != "" {
			m.log(msg.note)
		}
		if m.gameState.GameOver {
			m.resetRide()
			m.checkGameOver()
			break
		}
		if m.gameState.CurrentPassenger != nil && m.analysis == nil {
			m.introducePassenger()
			m.loading = true
			return m, m.analyze()
		}
		m.refresh()

	case analysisMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.showAnalysis(msg.result)

	case routesMsg:
		m.routes = msg.routes
		if msg.err != nil {
			m.log(warnStyle.Render("Dispatch is down. Only the usual detour is available."))
		}
		m.logRoutes()

	case routeMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.gameState = msg.result.State
		m.log(userStyle.Render("You take the "+string(msg.result.Route)+" route."))
		if msg.result.Dialogue != "" {
			m.say(msg.result.Dialogue)
		}
		for _, t := range msg.result.Surfaced {
			m.log(tellStyle.Render("• " + t.Description))
		}
		m.checkGameOver()

	case decisionMsg:
		m.loading = false
		if msg.err != nil {
			m.decisionSent = false
			m.logError(msg.err)
			break
		}
		m.showDecision(msg.result)

	case actionMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		if !msg.result.Breaking {
			m.log(promptStyle.Render("Nothing happens."))
			break
		}
		m.showDecision(msg.result.Decision)

	case rideMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			break
		}
		m.gameState = msg.result.State
		m.log(fmt.Sprintf("Fare collected: $%d. Rides tonight: %d.", msg.result.Fare, m.gameState.RidesCompleted))
		m.resetRide()
		m.checkGameOver()
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd)
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	if m.gameState == nil && cmd != "/help" {
		m.log(warnStyle.Render("The shift has not started yet."))
		return m, nil
	}

	switch strings.ToLower(cmd) {
	case "/help":
		m.log(titleStyle.Render("Help") + "\n" + helpText)

	case "/pickup":
		m.loading = true
		m.resetRide()
		return m, m.requestPassenger()

	case "/look":
		m.loading = true
		return m, m.analyze()

	case "/target":
		id, err := strconv.Atoi(arg)
		if err != nil || !slices.Contains(m.gameState.ActiveGuidelineIDs, id) {
			m.log(warnStyle.Render("That guideline is not in force tonight."))
			break
		}
		m.target = id
		m.log("Deciding on: " + m.guidelineTitle(id))

	case "/follow", "/break":
		if m.analysis == nil || m.target == 0 {
			m.log(warnStyle.Render("Look at your passenger first."))
			break
		}
		action := guideline.DecisionFollow
		if cmd == "/break" {
			action = guideline.DecisionBreak
		}
		m.loading = true
		m.decisionSent = true
		return m, m.decide(action, arg)

	case "/routes":
		return m, m.loadRoutes()

	case "/route":
		route, ok := m.pickRoute(arg)
		if !ok {
			m.log(warnStyle.Render("Unknown route. Try /routes."))
			break
		}
		m.loading = true
		return m, m.chooseRoute(route)

	case "/act":
		if arg == "" {
			m.log(warnStyle.Render("Do what?"))
			break
		}
		m.loading = true
		return m, m.performAction(guideline.PlayerAction(arg))

	case "/drop":
		m.loading = true
		return m, m.completeRide()

	case "/rules":
		m.logRules()

	case "/copy":
		if err := clipboard.WriteAll(m.gameState.ID.String()); err != nil {
			m.logError(fmt.Errorf("failed to copy shift ID: %w", err))
			break
		}
		m.log(promptStyle.Render("Shift ID copied to clipboard."))

	case "/end":
		m.loading = true
		return m, m.endShift()

	default:
		m.log(warnStyle.Render("Unknown command. Type /help."))
	}

	return m, nil
}

// checkDeadline follows the target guideline once the decision window
// closes without an answer.
func (m *ConsoleUI) checkDeadline() tea.Cmd {
	if m.analysis == nil || m.decisionSent || m.target == 0 {
		return nil
	}
	if m.now.Before(m.analysis.Analysis.DecisionDeadline) {
		return nil
	}
	m.decisionSent = true
	m.loading = true
	m.log(warnStyle.Render("You hesitate too long. Habit takes over."))
	return m.decide(guideline.DecisionFollow, "")
}

func (m *ConsoleUI) introducePassenger() {
	p := m.gameState.CurrentPassenger
	m.log(separatorStyle.Render(strings.Repeat("─", 20)))
	m.log(passengerStyle.Render(p.Name) + " gets in at " + p.Pickup + ".")
	if p.Description != "" {
		m.log(p.Description)
	}
	if p.Destination != "" {
		m.log(promptStyle.Render("Destination: " + p.Destination))
	}
}

func (m *ConsoleUI) showAnalysis(res *shift.AnalysisResult) {
	m.analysis = res
	m.decisionSent = false
	if res.Dialogue != "" {
		m.say(res.Dialogue)
	}
	if len(res.Noticed) == 0 {
		m.log(promptStyle.Render("You notice nothing unusual."))
	}
	for _, dt := range res.Noticed {
		m.log(tellStyle.Render("• " + dt.Tell.Description))
	}

	m.target = 0
	for _, dt := range res.Noticed {
		if slices.Contains(m.gameState.ActiveGuidelineIDs, dt.RelatedGuideline) {
			m.target = dt.RelatedGuideline
			break
		}
	}
	if m.target == 0 && len(m.gameState.ActiveGuidelineIDs) > 0 {
		m.target = m.gameState.ActiveGuidelineIDs[0]
	}
	if m.target != 0 {
		m.log(fmt.Sprintf("Deciding on: %s. /follow or /break before time runs out.", m.guidelineTitle(m.target)))
	}
	m.refresh()
}

func (m *ConsoleUI) showDecision(res *shift.DecisionResult) {
	if res == nil {
		return
	}
	m.gameState = res.State
	m.analysis = nil

	verb := "follow"
	if res.Decision.Action == guideline.DecisionBreak {
		verb = "break"
	}
	line := fmt.Sprintf("You %s \"%s\".", verb, m.guidelineTitle(res.Decision.GuidelineID))
	if res.TimedOut {
		line += " (timed out)"
	}
	m.log(userStyle.Render(line))

	if res.Decision.WasCorrect {
		m.log(tellStyle.Render("It was the right call."))
	} else {
		m.log(warnStyle.Render("Something feels wrong."))
	}
	for _, c := range res.Outcome.Applied {
		m.log("  " + c.Description)
	}
	m.checkGameOver()
}

func (m *ConsoleUI) checkGameOver() {
	if m.gameState != nil && m.gameState.GameOver {
		m.log(errorStyle.Render("SHIFT OVER: " + m.gameState.GameOverReason))
		m.log(fmt.Sprintf("Earnings $%d, %d rides, trust %.0f%%.",
			m.gameState.Earnings, m.gameState.RidesCompleted, m.gameState.PlayerTrust*100))
	}
	m.refresh()
}

func (m *ConsoleUI) resetRide() {
	m.analysis = nil
	m.target = 0
	m.routes = nil
	m.decisionSent = false
}

func (m *ConsoleUI) pickRoute(arg string) (passenger.RouteChoice, bool) {
	if n, err := strconv.Atoi(arg); err == nil && n >= 1 && n <= len(m.routes) {
		return m.routes[n-1].Route, true
	}
	r := passenger.RouteChoice(strings.ToLower(arg))
	return r, r.Valid()
}

func (m *ConsoleUI) logRoutes() {
	m.log(titleStyle.Render("Routes"))
	for i, opt := range m.routes {
		line := fmt.Sprintf("%d. %-9s %3.0f fuel %3.0f min", i+1, opt.Route, opt.Cost.Fuel, opt.Cost.Minutes)
		if opt.Preference != nil {
			line += fmt.Sprintf(" (passenger %s it)", opt.Preference.Preference)
		}
		m.log(line)
	}
}

func (m *ConsoleUI) logRules() {
	m.log(titleStyle.Render("Tonight's guidelines"))
	for _, id := range m.gameState.ActiveGuidelineIDs {
		g, ok := m.guidelines[id]
		if !ok {
			m.log(fmt.Sprintf("%d. (unknown)", id))
			continue
		}
		line := fmt.Sprintf("%d. %s - %s", g.ID, g.Title, g.Description)
		if len(g.BreakingActions) > 0 {
			acts := make([]string, len(g.BreakingActions))
			for i, a := range g.BreakingActions {
				acts[i] = string(a)
			}
			line += promptStyle.Render(" [" + strings.Join(acts, ", ") + "]")
		}
		m.log(line)
	}
}

func (m *ConsoleUI) guidelineTitle(id int) string {
	if g, ok := m.guidelines[id]; ok {
		return g.Title
	}
	return fmt.Sprintf("guideline %d", id)
}

func (m *ConsoleUI) say(line string) {
	name := "Passenger"
	if m.gameState != nil && m.gameState.CurrentPassenger != nil {
		name = m.gameState.CurrentPassenger.Name
	}
	m.log(passengerStyle.Render(name+":") + " " + line)
}

func (m *ConsoleUI) log(entry string) {
	m.entries = append(m.entries, entry)
	m.refresh()
}

func (m *ConsoleUI) logError(err error) {
	m.log(errorStyle.Render("Error: " + err.Error()))
}

// refresh rewraps the log for the current width and redraws both panels.
func (m *ConsoleUI) refresh() {
	if !m.ready {
		return
	}
	width := m.logViewport.Width - 2
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("NIGHTMARE SHIFT") + "\n\n")
	for _, e := range m.entries {
		content.WriteString(wordwrap.String(e, width) + "\n")
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()
	m.metaViewport.SetContent(m.writeMetadata())
}

func (m *ConsoleUI) resize() {
	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	m.logViewport.Width = logWidth - 2
	m.logViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 3
	m.textarea.SetWidth(logWidth - 4)
	m.countdown.Width = logWidth - 4
}

func (m ConsoleUI) writeMetadata() string {
	gs := m.gameState
	if gs == nil {
		return titleStyle.Render("SHIFT") + "\n\nClocking in..."
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("SHIFT") + "\n\n")
	content.WriteString(fmt.Sprintf("ID: %s...\n", gs.ID.String()[:8]))
	content.WriteString(fmt.Sprintf("Night #%d\n\n", gs.ShiftNumber))
	content.WriteString(fmt.Sprintf("Time left: %.0f min\n", gs.TimeRemaining))
	content.WriteString(fmt.Sprintf("Fuel:      %.0f%%\n", gs.Fuel))
	content.WriteString(fmt.Sprintf("Earnings:  $%d\n", gs.Earnings))
	content.WriteString(fmt.Sprintf("Rep:       %.0f\n", gs.Reputation))
	content.WriteString(fmt.Sprintf("Trust:     %.0f%%\n", gs.PlayerTrust*100))
	content.WriteString(fmt.Sprintf("Rides:     %d\n", gs.RidesCompleted))
	content.WriteString(fmt.Sprintf("Weather:   %s\n\n", gs.CurrentWeather.Type))

	if p := gs.CurrentPassenger; p != nil {
		content.WriteString("Passenger:\n" + p.Name + "\n")
		if gs.NeedState != nil {
			content.WriteString(fmt.Sprintf("Mood: %s\n", gs.NeedState.Stage))
		}
		if gs.CurrentRoute != "" {
			content.WriteString(fmt.Sprintf("Route: %s\n", gs.CurrentRoute))
		}
		content.WriteString("\n")
	}

	if len(gs.Inventory) > 0 {
		content.WriteString("Carrying:\n")
		for _, item := range gs.Inventory {
			content.WriteString("• " + item + "\n")
		}
	}
	return content.String()
}

// renderCountdown draws the observation or decision bar for the open analysis.
func (m ConsoleUI) renderCountdown() string {
	if m.analysis == nil || m.decisionSent {
		return ""
	}
	a := m.analysis.Analysis
	if m.now.Before(a.ObservationEndsAt) {
		window := a.ObservationEndsAt.Sub(a.StartedAt)
		elapsed := m.now.Sub(a.StartedAt)
		return promptStyle.Render("Observing...") + "\n" + m.countdown.ViewAs(ratio(elapsed, window))
	}
	left := a.DecisionDeadline.Sub(m.now)
	label := fmt.Sprintf("Decide: %ds", int(left.Seconds()))
	return warnStyle.Render(label) + "\n" + m.countdown.ViewAs(ratio(left, progression.DecisionTimeout))
}

func ratio(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	r := float64(part) / float64(whole)
	return max(0, min(1, r))
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Clock Out?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the cab? Your shift stays on the server until it expires.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to keep driving"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 2).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			m.renderCountdown(),
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 1))),
			m.textarea.View(),
		),
	)
	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(m.metaViewport.View())

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

func (m ConsoleUI) loadGuidelines() tea.Cmd {
	return func() tea.Msg {
		gs, err := m.api.listGuidelines()
		return guidelinesMsg{gs, err}
	}
}

func (m ConsoleUI) startShift() tea.Cmd {
	return func() tea.Msg {
		gs, err := m.api.startShift()
		return shiftMsg{gs, "Your shift begins. Type /rules to read tonight's guidelines, /pickup when ready.", err}
	}
}

func (m ConsoleUI) requestPassenger() tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		gs, err := m.api.requestPassenger(id)
		return shiftMsg{gs, "", err}
	}
}

func (m ConsoleUI) analyze() tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		res, err := m.api.analyze(id)
		return analysisMsg{res, err}
	}
}

func (m ConsoleUI) loadRoutes() tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		routes, err := m.api.routes(id)
		return routesMsg{routes, err}
	}
}

func (m ConsoleUI) chooseRoute(route passenger.RouteChoice) tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		res, err := m.api.chooseRoute(id, route)
		return routeMsg{res, err}
	}
}

func (m ConsoleUI) decide(action guideline.Decision, reasoning string) tea.Cmd {
	id := m.gameState.ID
	req := shift.DecisionRequest{
		AnalysisID:  m.analysis.Analysis.ID,
		PassengerID: m.analysis.Analysis.PassengerID,
		GuidelineID: m.target,
		Action:      action,
		Reasoning:   reasoning,
	}
	return func() tea.Msg {
		res, err := m.api.decide(id, req)
		return decisionMsg{res, err}
	}
}

func (m ConsoleUI) performAction(action guideline.PlayerAction) tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		res, err := m.api.performAction(id, action)
		return actionMsg{res, err}
	}
}

func (m ConsoleUI) completeRide() tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		res, err := m.api.completeRide(id)
		return rideMsg{res, err}
	}
}

func (m ConsoleUI) endShift() tea.Cmd {
	id := m.gameState.ID
	return func() tea.Msg {
		gs, err := m.api.endShift(id)
		return shiftMsg{gs, "You clock out.", err}
	}
}
