// Package orchestrator coordinates a pool of capability-tagged workers.
// It owns the priority task queue and the worker registry, assigns
// pending tasks to idle workers, drains worker output into a unified
// result stream, and handles health checking and graceful shutdown.
package orchestrator
