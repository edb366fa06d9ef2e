package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelworks/swarm/internal/llm"
	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/pkg/models"
)

func testApp(t *testing.T) (*App, *orchestrator.Orchestrator) {
	t.Helper()
	orch := orchestrator.New(orchestrator.Config{
		Registry: orchestrator.RegistryConfig{
			MaxWorkers:    4,
			WarmupTimeout: time.Second,
			GracePeriod:   100 * time.Millisecond,
			TaskTimeout:   time.Second,
		},
	})
	t.Cleanup(func() { orch.Shutdown() })
	return New(orch, 10*time.Millisecond, nil), orch
}

func echo(ctx context.Context, task *models.Task) (string, error) {
	if p, ok := task.Payload.(*models.RawPayload); ok {
		return p.Text, nil
	}
	return "", nil
}

func TestTabSwitching(t *testing.T) {
	a, _ := testApp(t)

	if a.currentTab != TabWorkers {
		t.Fatalf("expected workers tab initially, got %d", a.currentTab)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("2")})
	if a.currentTab != TabResults {
		t.Errorf("expected results tab, got %d", a.currentTab)
	}

	a.Update(tea.KeyMsg{Type: tea.KeyTab})
	if a.currentTab != TabEvents {
		t.Errorf("expected events tab after tab key, got %d", a.currentTab)
	}
}

func TestTickPollsOrchestrator(t *testing.T) {
	a, orch := testApp(t)

	if _, err := orch.RegisterWorker("w", "echo", echo, []string{"x"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := orch.SubmitTask(&models.RawPayload{Text: "hello"}, "x", 0); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Drive ticks until the result shows up in the dashboard.
	deadline := time.Now().Add(2 * time.Second)
	for len(a.results) == 0 && time.Now().Before(deadline) {
		a.Update(tickMsg(time.Now()))
		time.Sleep(5 * time.Millisecond)
	}

	if len(a.results) != 1 {
		t.Fatalf("expected 1 result in dashboard, got %d", len(a.results))
	}
	if a.results[0].Result.Content != "hello" {
		t.Errorf("unexpected result content: %q", a.results[0].Result.Content)
	}
	if a.snapshot.TasksCompleted != 1 {
		t.Errorf("expected snapshot refreshed, got %+v", a.snapshot)
	}
	if len(a.events) == 0 {
		t.Error("expected events drained into dashboard")
	}
}

func TestQuitShutsDownOrchestrator(t *testing.T) {
	a, orch := testApp(t)

	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if !orch.Stopped() {
		t.Error("expected orchestrator stopped on quit")
	}
}

func TestViewRendersTokenUsage(t *testing.T) {
	a, _ := testApp(t)

	// No tracker: header must not show a usage segment.
	if strings.Contains(a.View(), "tokens") {
		t.Error("expected no token segment without a tracker")
	}

	a.tokens = llm.NewTokenTracker()
	if strings.Contains(a.View(), "tokens") {
		t.Error("expected no token segment before the first call")
	}

	a.tokens.Add(1200, 340)
	view := a.View()
	if !strings.Contains(view, "tokens 1200 in / 340 out") {
		t.Errorf("expected token counts in header:\n%s", view)
	}
	if !strings.Contains(view, "$") {
		t.Errorf("expected cost estimate in header:\n%s", view)
	}
}

func TestViewRendersWorkers(t *testing.T) {
	a, orch := testApp(t)

	if _, err := orch.RegisterWorker("coder", "echo", echo, []string{"code_generation"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	a.Update(tickMsg(time.Now()))

	view := a.View()
	if !strings.Contains(view, "coder") {
		t.Errorf("expected worker name in view:\n%s", view)
	}
	if !strings.Contains(view, "idle") {
		t.Errorf("expected worker status in view:\n%s", view)
	}
}
