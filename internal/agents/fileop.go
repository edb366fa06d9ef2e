package agents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/pkg/models"
)

// FileOp returns a handler for local file management tasks. It runs
// entirely on the local filesystem and never touches the LLM.
func FileOp() orchestrator.TaskHandler {
	return func(ctx context.Context, task *models.Task) (string, error) {
		p, ok := task.Payload.(*models.FileOpPayload)
		if !ok {
			return "", fmt.Errorf("unsupported payload kind %q for file management", task.Payload.Kind())
		}
		if p.Path == "" {
			return "", fmt.Errorf("file operation requires a path")
		}

		switch strings.ToLower(p.Op) {
		case "read":
			data, err := os.ReadFile(p.Path)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", p.Path, err)
			}
			return string(data), nil

		case "write":
			if err := os.MkdirAll(filepath.Dir(p.Path), 0o755); err != nil {
				return "", fmt.Errorf("create parent dir for %s: %w", p.Path, err)
			}
			if err := os.WriteFile(p.Path, []byte(p.Content), 0o644); err != nil {
				return "", fmt.Errorf("write %s: %w", p.Path, err)
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(p.Content), p.Path), nil

		case "list":
			entries, err := os.ReadDir(p.Path)
			if err != nil {
				return "", fmt.Errorf("list %s: %w", p.Path, err)
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			return strings.Join(names, "\n"), nil

		case "delete":
			if err := os.Remove(p.Path); err != nil {
				return "", fmt.Errorf("delete %s: %w", p.Path, err)
			}
			return fmt.Sprintf("deleted %s", p.Path), nil

		default:
			return "", fmt.Errorf("unknown file operation %q", p.Op)
		}
	}
}
