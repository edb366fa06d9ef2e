package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kestrelworks/swarm/internal/config"
	"github.com/kestrelworks/swarm/internal/watch"
)

var (
	submitCapability string
	submitPriority   int
	submitKind       string
	submitLanguage   string
	submitSpoolDir   string
)

var submitCmd = &cobra.Command{
	Use:   "submit <description>",
	Short: "Drop a task into the spool directory",
	Long: `Write a task file into the spool directory for a running swarm to
pick up. The description becomes the task payload; capability and
priority control matching and ordering.

Examples:
  swarm submit "write a fibonacci function" --capability code_generation
  swarm submit "fix the nil deref in parser.go" --capability debugging --priority 8`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().StringVar(&submitCapability, "capability", "code_generation", "Required worker capability")
	submitCmd.Flags().IntVar(&submitPriority, "priority", 0, "Task priority, higher runs first")
	submitCmd.Flags().StringVar(&submitKind, "kind", "", "Payload kind (defaults to the capability when it names one)")
	submitCmd.Flags().StringVar(&submitLanguage, "language", "", "Target language for code generation")
	submitCmd.Flags().StringVar(&submitSpoolDir, "spool", "", "Spool directory (defaults to configured spool.dir)")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	dir := submitSpoolDir
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		dir = cfg.Spool.Dir
	}
	if dir == "" {
		return fmt.Errorf("no spool directory configured; set spool.dir or pass --spool")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create spool directory: %w", err)
	}

	kind := submitKind
	if kind == "" {
		kind = defaultKindFor(submitCapability)
	}

	doc := map[string]any{
		"capability": submitCapability,
		"priority":   submitPriority,
		"kind":       kind,
	}
	switch kind {
	case "code_generation":
		doc["description"] = args[0]
		if submitLanguage != "" {
			doc["language"] = submitLanguage
		}
	case "debugging":
		doc["code"] = args[0]
	case "file_management":
		return fmt.Errorf("file_management tasks need op/path fields; write the spool file directly")
	default:
		doc["text"] = args[0]
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	// Validate what we are about to spool so a typo fails here, not in
	// the watcher.
	if _, _, _, err := watch.ParseTask(data); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	name := fmt.Sprintf("task-%d.yaml", time.Now().UnixNano())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write task file: %w", err)
	}

	fmt.Printf("spooled %s\n", path)
	return nil
}

// defaultKindFor picks the payload kind implied by a capability.
func defaultKindFor(capability string) string {
	switch capability {
	case "code_generation", "code_refactoring", "code_analysis":
		return "code_generation"
	case "debugging":
		return "debugging"
	case "file_management":
		return "file_management"
	default:
		return "raw"
	}
}
