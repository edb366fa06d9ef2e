// Package watch submits tasks dropped as YAML files into a spool
// directory. Files are renamed to .done once submitted or .rejected
// when they cannot be parsed, so a file is never submitted twice.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/kestrelworks/swarm/pkg/models"
)

// Submitter accepts parsed tasks. The orchestrator satisfies this.
type Submitter interface {
	SubmitTask(payload models.Payload, capability string, priority int) (string, error)
}

// taskFile is the YAML shape of a spooled task.
type taskFile struct {
	Capability string `yaml:"capability"`
	Priority   int    `yaml:"priority"`
	Kind       string `yaml:"kind"`

	// code_generation fields
	Description string `yaml:"description"`
	Language    string `yaml:"language"`
	Context     string `yaml:"context"`

	// debugging fields
	Code      string `yaml:"code"`
	ErrorKind string `yaml:"error"`

	// file_management fields
	Op      string `yaml:"op"`
	Path    string `yaml:"path"`
	Content string `yaml:"content"`

	// raw fields
	Text string `yaml:"text"`
}

// ParseTask parses a spooled task file into a payload, capability, and
// priority.
func ParseTask(data []byte) (models.Payload, string, int, error) {
	var tf taskFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, "", 0, fmt.Errorf("parse task file: %w", err)
	}
	if tf.Capability == "" {
		return nil, "", 0, fmt.Errorf("task file missing capability")
	}

	var payload models.Payload
	switch tf.Kind {
	case models.KindCodeGen:
		if tf.Description == "" {
			return nil, "", 0, fmt.Errorf("code_generation task missing description")
		}
		payload = &models.CodeGenPayload{Description: tf.Description, Language: tf.Language, Context: tf.Context}
	case models.KindDebug:
		if tf.Code == "" {
			return nil, "", 0, fmt.Errorf("debugging task missing code")
		}
		payload = &models.DebugPayload{Code: tf.Code, ErrorKind: tf.ErrorKind}
	case models.KindFileOp:
		if tf.Op == "" {
			return nil, "", 0, fmt.Errorf("file_management task missing op")
		}
		payload = &models.FileOpPayload{Op: tf.Op, Path: tf.Path, Content: tf.Content}
	case models.KindRaw, "":
		payload = &models.RawPayload{Text: tf.Text}
	default:
		return nil, "", 0, fmt.Errorf("unknown task kind %q", tf.Kind)
	}

	return payload, tf.Capability, tf.Priority, nil
}

// Watcher watches a spool directory and submits task files.
type Watcher struct {
	dir    string
	sub    Submitter
	logger *log.Logger
}

// New creates a watcher for the given spool directory, creating it if
// needed.
func New(dir string, sub Submitter, logger *log.Logger) (*Watcher, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create spool directory: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{dir: dir, sub: sub, logger: logger}, nil
}

// Run watches the spool directory until ctx is cancelled. Files already
// present at start are submitted first.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	// Drain anything spooled before we started watching.
	if err := w.Sweep(); err != nil {
		w.logger.Printf("initial spool sweep: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !isTaskFile(ev.Name) {
				continue
			}
			w.handleFile(ev.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("spool watch error: %v", err)
		}
	}
}

// Sweep submits every task file currently in the spool directory.
func (w *Watcher) Sweep() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read spool directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := filepath.Join(w.dir, e.Name())
		if !isTaskFile(name) {
			continue
		}
		w.handleFile(name)
	}
	return nil
}

func (w *Watcher) handleFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		// Editors rename through temp files; the path may be gone.
		if os.IsNotExist(err) {
			return
		}
		w.logger.Printf("read spooled task %s: %v", path, err)
		return
	}

	payload, capability, priority, err := ParseTask(data)
	if err != nil {
		w.logger.Printf("rejecting %s: %v", path, err)
		w.mark(path, ".rejected")
		return
	}

	id, err := w.sub.SubmitTask(payload, capability, priority)
	if err != nil {
		w.logger.Printf("rejecting %s: %v", path, err)
		w.mark(path, ".rejected")
		return
	}

	w.logger.Printf("submitted %s as task %s", filepath.Base(path), id)
	w.mark(path, ".done")
}

func (w *Watcher) mark(path, suffix string) {
	if err := os.Rename(path, path+suffix); err != nil {
		w.logger.Printf("mark %s%s: %v", path, suffix, err)
	}
}

// isTaskFile reports whether the path looks like an unprocessed task
// file.
func isTaskFile(path string) bool {
	switch {
	case strings.HasSuffix(path, ".done"), strings.HasSuffix(path, ".rejected"):
		return false
	case strings.HasPrefix(filepath.Base(path), "."):
		return false
	}
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}
