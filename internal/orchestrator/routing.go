package orchestrator

// Backend selects how RouteTask dispatches a capability. The original
// system ran two parallel orchestrators for this; here it collapses to
// a single policy function consulted at routing time.
type Backend int

const (
	// BackendQueue always enqueues; assignment happens in ProcessPending.
	BackendQueue Backend = iota
	// BackendDirect attempts immediate assignment to an idle worker,
	// falling back to the queue when none is available.
	BackendDirect
)

// RoutingPolicy decides the backend for a capability.
type RoutingPolicy func(capability string) Backend

// DefaultRoutingPolicy routes compute-heavy task kinds through the
// queue and lightweight coordination kinds to direct dispatch.
func DefaultRoutingPolicy(capability string) Backend {
	switch capability {
	case "code_generation", "code_refactoring", "code_analysis", "debugging":
		return BackendQueue
	case "file_management", "coordination", "monitoring":
		return BackendDirect
	default:
		return BackendDirect
	}
}
