package watch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kestrelworks/swarm/pkg/models"
)

// fakeSubmitter records submitted tasks.
type fakeSubmitter struct {
	payloads     []models.Payload
	capabilities []string
	priorities   []int
	err          error
}

func (f *fakeSubmitter) SubmitTask(payload models.Payload, capability string, priority int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payloads = append(f.payloads, payload)
	f.capabilities = append(f.capabilities, capability)
	f.priorities = append(f.priorities, priority)
	return "task-1", nil
}

func TestParseTaskCodeGen(t *testing.T) {
	data := []byte(`
capability: code_generation
priority: 5
kind: code_generation
description: write a fibonacci function
language: Go
`)
	payload, capability, priority, err := ParseTask(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if capability != "code_generation" || priority != 5 {
		t.Errorf("unexpected capability/priority: %s/%d", capability, priority)
	}
	p, ok := payload.(*models.CodeGenPayload)
	if !ok {
		t.Fatalf("expected CodeGenPayload, got %T", payload)
	}
	if p.Description != "write a fibonacci function" || p.Language != "Go" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestParseTaskDebug(t *testing.T) {
	data := []byte(`
capability: debugging
kind: debugging
code: "x := xs[len(xs)]"
error: index out of range
`)
	payload, _, _, err := ParseTask(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	p, ok := payload.(*models.DebugPayload)
	if !ok {
		t.Fatalf("expected DebugPayload, got %T", payload)
	}
	if p.ErrorKind != "index out of range" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestParseTaskFileOp(t *testing.T) {
	data := []byte(`
capability: file_management
kind: file_management
op: write
path: /tmp/out.txt
content: hello
`)
	payload, _, _, err := ParseTask(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	p, ok := payload.(*models.FileOpPayload)
	if !ok {
		t.Fatalf("expected FileOpPayload, got %T", payload)
	}
	if p.Op != "write" || p.Path != "/tmp/out.txt" {
		t.Errorf("unexpected payload: %+v", p)
	}
}

func TestParseTaskDefaultsToRaw(t *testing.T) {
	data := []byte("capability: coordination\ntext: ping\n")
	payload, _, _, err := ParseTask(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	p, ok := payload.(*models.RawPayload)
	if !ok {
		t.Fatalf("expected RawPayload, got %T", payload)
	}
	if p.Text != "ping" {
		t.Errorf("unexpected text: %q", p.Text)
	}
}

func TestParseTaskErrors(t *testing.T) {
	cases := map[string]string{
		"missing capability":  "kind: raw\ntext: x\n",
		"missing description": "capability: code_generation\nkind: code_generation\n",
		"missing code":        "capability: debugging\nkind: debugging\n",
		"missing op":          "capability: file_management\nkind: file_management\n",
		"unknown kind":        "capability: x\nkind: teleport\n",
		"bad yaml":            "::not yaml::",
	}
	for name, data := range cases {
		if _, _, _, err := ParseTask([]byte(data)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestSweepSubmitsAndMarksDone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "task1.yaml")
	content := "capability: code_generation\nkind: code_generation\ndescription: do it\npriority: 3\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write task file: %v", err)
	}

	sub := &fakeSubmitter{}
	w, err := New(dir, sub, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	if err := w.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(sub.payloads) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(sub.payloads))
	}
	if sub.priorities[0] != 3 {
		t.Errorf("expected priority 3, got %d", sub.priorities[0])
	}
	if _, err := os.Stat(path + ".done"); err != nil {
		t.Errorf("expected file renamed to .done: %v", err)
	}
}

func TestSweepRejectsBadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("kind: teleport\n"), 0644); err != nil {
		t.Fatalf("write task file: %v", err)
	}

	sub := &fakeSubmitter{}
	w, err := New(dir, sub, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(sub.payloads) != 0 {
		t.Errorf("expected no submissions, got %d", len(sub.payloads))
	}
	if _, err := os.Stat(path + ".rejected"); err != nil {
		t.Errorf("expected file renamed to .rejected: %v", err)
	}
}

func TestSweepIgnoresProcessedFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml.done", "b.yaml.rejected", ".hidden.yaml", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("capability: x\n"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	sub := &fakeSubmitter{}
	w, err := New(dir, sub, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Sweep(); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if len(sub.payloads) != 0 {
		t.Errorf("expected no submissions, got %d", len(sub.payloads))
	}
}
