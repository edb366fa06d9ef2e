// Package tui provides the terminal dashboard for a running swarm.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelworks/swarm/internal/llm"
	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/pkg/models"
)

// Tab constants for navigation.
const (
	TabWorkers = iota
	TabResults
	TabEvents
)

// tickMsg drives the polling loop.
type tickMsg time.Time

// ResultEntry is one collected result displayed in the results tab.
type ResultEntry struct {
	Result models.Result
	SeenAt time.Time
}

// App is the main bubbletea model for the swarm dashboard. Each tick it
// drives the orchestrator's assignment and collection loops, then
// renders the snapshot.
type App struct {
	// orch is the orchestrator being driven and displayed.
	orch *orchestrator.Orchestrator
	// refresh is the polling interval.
	refresh time.Duration
	// tokens reports LLM usage in the header. Nil for backends that do
	// not meter tokens.
	tokens *llm.TokenTracker

	// currentTab is the currently selected tab.
	currentTab int
	// snapshot is the latest orchestrator status.
	snapshot orchestrator.Snapshot
	// health is the latest health verdicts keyed by worker ID.
	health map[string]orchestrator.HealthState
	// results holds recently collected results, newest last.
	results []ResultEntry
	// events holds recent orchestrator events, newest last.
	events []orchestrator.Event

	spin     spinner.Model
	width    int
	height   int
	quitting bool
}

// maxRows caps the results and events tabs.
const maxRows = 200

// New creates a dashboard over the given orchestrator. tokens may be
// nil when the LLM backend does not track usage.
func New(orch *orchestrator.Orchestrator, refresh time.Duration, tokens *llm.TokenTracker) *App {
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &App{
		orch:    orch,
		refresh: refresh,
		tokens:  tokens,
		health:  make(map[string]orchestrator.HealthState),
		spin:    sp,
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.tick(), a.spin.Tick)
}

// tick schedules the next polling cycle.
func (a *App) tick() tea.Cmd {
	return tea.Tick(a.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			a.quitting = true
			a.orch.Shutdown()
			return a, tea.Quit
		case "tab":
			a.currentTab = (a.currentTab + 1) % 3
		case "1":
			a.currentTab = TabWorkers
		case "2":
			a.currentTab = TabResults
		case "3":
			a.currentTab = TabEvents
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case tickMsg:
		a.poll()
		if a.orch.Stopped() {
			a.quitting = true
			return a, tea.Quit
		}
		return a, a.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd
	}

	return a, nil
}

// poll runs one orchestration cycle and refreshes the displayed state.
func (a *App) poll() {
	a.orch.ProcessPending()

	now := time.Now()
	for _, res := range a.orch.CollectResults() {
		a.results = append(a.results, ResultEntry{Result: res, SeenAt: now})
	}
	if len(a.results) > maxRows {
		a.results = a.results[len(a.results)-maxRows:]
	}

	a.drainEvents()

	a.snapshot = a.orch.Status()
	a.health = a.orch.HealthCheck()
}

// drainEvents moves everything currently buffered on the event channel
// into the events tab without blocking.
func (a *App) drainEvents() {
	for {
		select {
		case ev, ok := <-a.orch.Events():
			if !ok {
				return
			}
			a.events = append(a.events, ev)
			if len(a.events) > maxRows {
				a.events = a.events[len(a.events)-maxRows:]
			}
		default:
			return
		}
	}
}

// View implements tea.Model.
func (a *App) View() string {
	if a.quitting {
		return "Swarm stopped.\n"
	}

	var content string
	switch a.currentTab {
	case TabWorkers:
		content = a.viewWorkers()
	case TabResults:
		content = a.viewResults()
	case TabEvents:
		content = a.viewEvents()
	}

	return fmt.Sprintf("%s\n\n%s\n\n%s", a.viewHeader(), content, a.viewFooter())
}
