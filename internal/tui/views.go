package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/pkg/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("34"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// viewHeader renders the title line, tab bar, and counters.
func (a *App) viewHeader() string {
	title := titleStyle.Render("swarm") + " " + a.spin.View()

	tabs := []string{"Workers", "Results", "Events"}
	var bar strings.Builder
	for i, tab := range tabs {
		label := fmt.Sprintf(" %d:%s ", i+1, tab)
		if i == a.currentTab {
			bar.WriteString(tabActiveStyle.Render("[" + label + "]"))
		} else {
			bar.WriteString(tabInactiveStyle.Render("  " + label + " "))
		}
	}

	s := a.snapshot
	counters := labelStyle.Render(fmt.Sprintf(
		"up %s  submitted %d  completed %d  failed %d  pending %d  assigned %d",
		formatDuration(time.Since(s.StartedAt)),
		s.TasksSubmitted, s.TasksCompleted, s.TasksFailed,
		s.PendingTasks, s.AssignedTasks,
	))
	if a.tokens != nil && a.tokens.Calls() > 0 {
		in, out := a.tokens.Total()
		counters += labelStyle.Render(fmt.Sprintf(
			"  tokens %d in / %d out  $%.4f", in, out, a.tokens.Cost()))
	}

	return title + "\n" + bar.String() + "\n" + counters
}

// viewWorkers renders the worker pool with health verdicts.
func (a *App) viewWorkers() string {
	if len(a.snapshot.Workers) == 0 {
		return dimStyle.Render("  no workers registered")
	}

	var b strings.Builder
	for _, w := range a.snapshot.Workers {
		b.WriteString(fmt.Sprintf("  %-22s %-10s %-14s %s\n",
			w.Name,
			a.renderStatus(w.Status),
			a.renderHealth(a.health[w.ID]),
			labelStyle.Render(fmt.Sprintf("done %d  failed %d  %s",
				w.Metrics.TasksCompleted, w.Metrics.TasksFailed,
				strings.Join(w.Capabilities, ","))),
		))
		if w.CurrentTaskID != "" {
			b.WriteString(dimStyle.Render(fmt.Sprintf("    task %s\n", shortID(w.CurrentTaskID))))
		}
	}
	return b.String()
}

// viewResults renders recently collected results, newest first.
func (a *App) viewResults() string {
	if len(a.results) == 0 {
		return dimStyle.Render("  no results yet")
	}

	var b strings.Builder
	for i := len(a.results) - 1; i >= 0; i-- {
		e := a.results[i]
		status := okStyle.Render(string(e.Result.Status))
		if e.Result.Status == models.ResultFailed {
			status = errStyle.Render(string(e.Result.Status))
		}
		b.WriteString(fmt.Sprintf("  %s  %-9s  %s  %s\n",
			e.SeenAt.Format("15:04:05"),
			status,
			shortID(e.Result.TaskID),
			truncate(e.Result.Content, 60),
		))
	}
	return b.String()
}

// viewEvents renders the orchestrator event feed, newest first.
func (a *App) viewEvents() string {
	if len(a.events) == 0 {
		return dimStyle.Render("  no events yet")
	}

	var b strings.Builder
	for i := len(a.events) - 1; i >= 0; i-- {
		ev := a.events[i]
		b.WriteString(fmt.Sprintf("  %s  %-18s %s\n",
			ev.Timestamp.Format("15:04:05"),
			string(ev.Type),
			truncate(ev.Message, 60),
		))
	}
	return b.String()
}

// viewFooter renders the key hints.
func (a *App) viewFooter() string {
	return dimStyle.Render("  tab/1-3 switch view  •  q quit")
}

func (a *App) renderStatus(s models.WorkerStatus) string {
	switch s {
	case models.WorkerStatusIdle:
		return okStyle.Render(string(s))
	case models.WorkerStatusBusy:
		return warnStyle.Render(string(s))
	case models.WorkerStatusError, models.WorkerStatusStopped:
		return errStyle.Render(string(s))
	default:
		return dimStyle.Render(string(s))
	}
}

func (a *App) renderHealth(h orchestrator.HealthState) string {
	switch h {
	case orchestrator.HealthHealthy:
		return okStyle.Render(string(h))
	case orchestrator.HealthUnresponsive:
		return warnStyle.Render(string(h))
	case orchestrator.HealthDead:
		return errStyle.Render(string(h))
	default:
		return dimStyle.Render("unknown")
	}
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate cuts s to at most n runes on a single line.
func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}

// formatDuration renders a duration in compact h/m/s form.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
}
