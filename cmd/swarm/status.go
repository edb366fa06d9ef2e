package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrelworks/swarm/internal/config"
	"github.com/kestrelworks/swarm/internal/history"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show task history",
	Long: `Display totals and recent task results from the history database.

The history is written by a running swarm; this command only reads it,
so it works whether or not a pool is currently up.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "How many recent results to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	path := cfg.History.Path
	if path == "" {
		path = history.DefaultPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No history yet. Run 'swarm run' to start a pool.")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	counts, err := store.CountByStatus()
	if err != nil {
		return fmt.Errorf("count history: %w", err)
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("History: %s\n", path)
	fmt.Printf("  Completed: %s\n", green(fmt.Sprintf("%d", counts["completed"])))
	fmt.Printf("  Failed:    %s\n", red(fmt.Sprintf("%d", counts["failed"])))

	entries, err := store.Recent(statusLimit)
	if err != nil {
		return fmt.Errorf("read recent history: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	fmt.Println("\nRecent results:")
	for _, e := range entries {
		tag := green("done")
		if e.Status == "failed" {
			tag = red("fail")
		}
		kind := e.TaskKind
		if kind == "" {
			kind = "-"
		}
		fmt.Printf("  %s  %s  %-16s worker=%s  (%s ago)\n",
			tag, shortID(e.TaskID), kind, e.WorkerID, formatAge(time.Since(e.CreatedAt)))
	}
	return nil
}

// shortID truncates a UUID for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatAge formats a duration in a compact human-readable way.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	}
}
