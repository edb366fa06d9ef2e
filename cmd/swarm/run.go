package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kestrelworks/swarm/internal/agents"
	"github.com/kestrelworks/swarm/internal/config"
	"github.com/kestrelworks/swarm/internal/history"
	"github.com/kestrelworks/swarm/internal/llm"
	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/internal/tui"
	"github.com/kestrelworks/swarm/internal/watch"
	"github.com/kestrelworks/swarm/pkg/models"
)

var (
	runConfigPath string
	runSpoolDir   string
	runPlain      bool
	runDebugLog   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the worker pool",
	Long: `Start the worker pool described by the agents manifest and process
tasks until interrupted.

Tasks are read from the spool directory as YAML files. Each file names a
capability, an optional priority, and a payload; processed files are
renamed to .done or .rejected in place.

By default a live dashboard is shown. Use --plain for line-oriented
output suitable for logs and non-interactive terminals.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Load configuration from a specific file")
	runCmd.Flags().StringVar(&runSpoolDir, "spool", "", "Spool directory to watch for task files")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "Line-oriented output instead of the dashboard")
	runCmd.Flags().StringVar(&runDebugLog, "debug-log", "", "Write orchestrator debug output to this file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	spoolDir := cfg.Spool.Dir
	if runSpoolDir != "" {
		spoolDir = runSpoolDir
	}

	debugLogger, err := orchestrator.NewDebugLogger(runDebugLog)
	if err != nil {
		return fmt.Errorf("open debug log: %w", err)
	}
	defer debugLogger.Close()

	historyPath := cfg.History.Path
	if historyPath == "" {
		historyPath = history.DefaultPath()
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	gen, err := llm.New(llm.Config{
		Backend:       cfg.LLM.Backend,
		Model:         cfg.LLM.Model,
		APIKey:        cfg.LLM.APIKey,
		BaseURL:       cfg.LLM.BaseURL,
		Timeout:       cfg.LLM.Timeout,
		UseAWSBedrock: cfg.LLM.UseAWSBedrock,
		AWSRegion:     cfg.LLM.AWSRegion,
		AWSProfile:    cfg.LLM.AWSProfile,
	})
	if err != nil {
		return fmt.Errorf("configure llm backend: %w", err)
	}

	orch := orchestrator.New(orchestrator.Config{
		Registry: orchestrator.RegistryConfig{
			MaxWorkers:    cfg.Pool.MaxWorkers,
			WarmupTimeout: cfg.Pool.WarmupTimeout,
			GracePeriod:   cfg.Pool.GracePeriod,
			TaskTimeout:   cfg.LLM.Timeout,
		},
		ActivityTimeout: cfg.Pool.ActivityTimeout,
		History:         store,
		Logger:          debugLogger,
	})
	defer orch.Shutdown()

	if err := registerAgents(orch, cfg, gen); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if spoolDir != "" {
		watcher, err := watch.New(spoolDir, orch, nil)
		if err != nil {
			return fmt.Errorf("start spool watcher: %w", err)
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "spool watcher stopped: %v\n", err)
			}
		}()
	}

	// The Anthropic backend meters tokens; Ollama has nothing to report.
	var tokens *llm.TokenTracker
	if ac, ok := gen.(*llm.AnthropicClient); ok {
		tokens = ac.Tracker()
	}

	if runPlain {
		return runPlainLoop(ctx, orch, cfg.TUI.RefreshRate, tokens)
	}

	app := tui.New(orch, cfg.TUI.RefreshRate, tokens)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard failed: %w", err)
	}
	return nil
}

// registerAgents spins up the manifest's workers, expanding Count.
func registerAgents(orch *orchestrator.Orchestrator, cfg *config.Config, gen llm.Generator) error {
	manifest := cfg.Agents
	if len(manifest) == 0 {
		manifest = config.DefaultAgents()
	}

	for _, spec := range manifest {
		handler, err := agents.Handler(spec.Type, gen, spec.Model)
		if err != nil {
			return fmt.Errorf("agent %s: %w", spec.Name, err)
		}
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			if _, err := orch.RegisterWorker(spec.Name, spec.Type, handler, spec.Capabilities); err != nil {
				return fmt.Errorf("register %s: %w", spec.Name, err)
			}
		}
	}
	return nil
}

// runPlainLoop drives the orchestrator and prints results line by line
// until SIGINT or SIGTERM. Token usage, when metered, is summarized on
// the way out.
func runPlainLoop(ctx context.Context, orch *orchestrator.Orchestrator, refresh time.Duration, tokens *llm.TokenTracker) error {
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	st := orch.Status()
	fmt.Printf("swarm running with %d workers, ctrl+c to stop\n", len(st.Workers))

	ticker := time.NewTicker(refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			printTokenUsage(tokens)
			return orch.Shutdown()
		case sig := <-sigs:
			fmt.Printf("\nreceived %s, shutting down\n", sig)
			printTokenUsage(tokens)
			return orch.Shutdown()
		case <-ticker.C:
			orch.ProcessPending()
			for _, res := range orch.CollectResults() {
				tag := green("done")
				if res.Status == models.ResultFailed {
					tag = red("fail")
				}
				fmt.Printf("%s  %s  worker=%s  %s\n",
					res.Timestamp.Format("15:04:05"), tag, res.WorkerID, firstLine(res.Content))
			}
		}
	}
}

// printTokenUsage reports cumulative LLM usage for metered backends.
func printTokenUsage(tokens *llm.TokenTracker) {
	if tokens == nil || tokens.Calls() == 0 {
		return
	}
	in, out := tokens.Total()
	fmt.Printf("llm usage: %d calls, %d in / %d out tokens, $%.4f\n",
		tokens.Calls(), in, out, tokens.Cost())
}

// firstLine returns the first line of s, trimmed for log output.
func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}

// loadConfig honors the --config flag, falling back to layered loading.
func loadConfig() (*config.Config, error) {
	if runConfigPath != "" {
		cfg, err := config.LoadFromPath(runConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
