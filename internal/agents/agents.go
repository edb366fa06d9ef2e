// Package agents builds the task handlers that workers run. Each agent
// type maps a task payload to a prompt (or a local action) and turns
// the outcome into result content.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/kestrelworks/swarm/internal/llm"
	"github.com/kestrelworks/swarm/internal/orchestrator"
	"github.com/kestrelworks/swarm/pkg/models"
)

// Handler builds the orchestrator task handler for the given agent
// type. LLM-backed types receive gen; fileop and echo ignore it.
func Handler(agentType string, gen llm.Generator, model string) (orchestrator.TaskHandler, error) {
	switch strings.ToLower(agentType) {
	case "codegen":
		return CodeGen(gen, model), nil
	case "debug":
		return Debug(gen, model), nil
	case "fileop":
		return FileOp(), nil
	case "echo":
		return Echo(), nil
	default:
		return nil, fmt.Errorf("unknown agent type %q", agentType)
	}
}

// CodeGen returns a handler that asks the model to write or rework code
// from a CodeGenPayload description.
func CodeGen(gen llm.Generator, model string) orchestrator.TaskHandler {
	return func(ctx context.Context, task *models.Task) (string, error) {
		prompt, err := codeGenPrompt(task)
		if err != nil {
			return "", err
		}
		out, err := gen.Generate(ctx, prompt, model)
		if err != nil {
			return "", fmt.Errorf("code generation failed: %w", err)
		}
		return out, nil
	}
}

func codeGenPrompt(task *models.Task) (string, error) {
	var b strings.Builder
	switch p := task.Payload.(type) {
	case *models.CodeGenPayload:
		lang := p.Language
		if lang == "" {
			lang = "Go"
		}
		fmt.Fprintf(&b, "Write %s code for the following task. Respond with code only, no commentary.\n\nTask: %s\n", lang, p.Description)
		if p.Context != "" {
			fmt.Fprintf(&b, "\nExisting code for context:\n%s\n", p.Context)
		}
	case *models.RawPayload:
		b.WriteString(p.Text)
	default:
		return "", fmt.Errorf("unsupported payload kind %q for code generation", task.Payload.Kind())
	}
	return b.String(), nil
}

// Debug returns a handler that asks the model to diagnose and fix a
// failing snippet from a DebugPayload.
func Debug(gen llm.Generator, model string) orchestrator.TaskHandler {
	return func(ctx context.Context, task *models.Task) (string, error) {
		prompt, err := debugPrompt(task)
		if err != nil {
			return "", err
		}
		out, err := gen.Generate(ctx, prompt, model)
		if err != nil {
			return "", fmt.Errorf("debugging failed: %w", err)
		}
		return out, nil
	}
}

func debugPrompt(task *models.Task) (string, error) {
	var b strings.Builder
	switch p := task.Payload.(type) {
	case *models.DebugPayload:
		b.WriteString("Find and fix the bug in the following code. Explain the root cause in one sentence, then give the corrected code.\n\n")
		if p.ErrorKind != "" {
			fmt.Fprintf(&b, "Reported error: %s\n\n", p.ErrorKind)
		}
		fmt.Fprintf(&b, "Code:\n%s\n", p.Code)
	case *models.RawPayload:
		b.WriteString(p.Text)
	default:
		return "", fmt.Errorf("unsupported payload kind %q for debugging", task.Payload.Kind())
	}
	return b.String(), nil
}

// Echo returns a handler that reports the task payload back as the
// result content. Useful for smoke tests and pipeline checks.
func Echo() orchestrator.TaskHandler {
	return func(ctx context.Context, task *models.Task) (string, error) {
		switch p := task.Payload.(type) {
		case *models.RawPayload:
			return p.Text, nil
		case nil:
			return "", nil
		default:
			return fmt.Sprintf("kind=%s", p.Kind()), nil
		}
	}
}
