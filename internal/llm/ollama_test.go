package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOllamaGenerate(t *testing.T) {
	var gotPath string
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "package main"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 5*time.Second)
	out, err := c.Generate(context.Background(), "write hello world", "codellama")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if out != "package main" {
		t.Errorf("expected response text, got %q", out)
	}
	if gotPath != "/api/generate" {
		t.Errorf("expected /api/generate, got %s", gotPath)
	}
	if gotReq.Model != "codellama" {
		t.Errorf("expected model codellama, got %s", gotReq.Model)
	}
	if gotReq.Stream {
		t.Error("expected non-streaming request")
	}
}

func TestOllamaGenerateDefaultModel(t *testing.T) {
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotReq)
		json.NewEncoder(w).Encode(generateResponse{Response: "ok"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 5*time.Second)
	if _, err := c.Generate(context.Background(), "hi", ""); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotReq.Model != defaultOllamaModel {
		t.Errorf("expected default model %s, got %s", defaultOllamaModel, gotReq.Model)
	}
}

func TestOllamaGenerateServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 5*time.Second)
	_, err := c.Generate(context.Background(), "hi", "nope")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("expected status code in error, got %v", err)
	}
}

func TestOllamaGenerateErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "out of memory"})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 5*time.Second)
	_, err := c.Generate(context.Background(), "hi", "")
	if err == nil {
		t.Fatal("expected error when response carries an error field")
	}
	if !strings.Contains(err.Error(), "out of memory") {
		t.Errorf("expected server error message, got %v", err)
	}
}

func TestOllamaGenerateContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server's background read starts and the
		// request context is cancelled when the client disconnects;
		// otherwise this handler never returns and srv.Close deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewOllamaClient(srv.URL, 5*time.Second)
	_, err := c.Generate(ctx, "hi", "")
	if err == nil {
		t.Fatal("expected error when context deadline passes")
	}
}

func TestNewBackendSelection(t *testing.T) {
	g, err := New(Config{Backend: "ollama"})
	if err != nil {
		t.Fatalf("ollama backend: %v", err)
	}
	if _, ok := g.(*OllamaClient); !ok {
		t.Errorf("expected *OllamaClient, got %T", g)
	}

	if _, err := New(Config{Backend: "gpt4all"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestTokenTracker(t *testing.T) {
	tr := NewTokenTracker()
	tr.Add(1000, 500)
	tr.Add(2000, 1500)

	in, out := tr.Total()
	if in != 3000 || out != 2000 {
		t.Errorf("expected totals 3000/2000, got %d/%d", in, out)
	}
	if tr.Calls() != 2 {
		t.Errorf("expected 2 calls, got %d", tr.Calls())
	}
	if tr.Cost() <= 0 {
		t.Error("expected positive cost estimate")
	}
}
