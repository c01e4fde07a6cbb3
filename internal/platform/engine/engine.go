// Package engine hosts vendor logic engines in isolated bridge subprocesses
// and marshals values across the process boundary. Each engine bundle runs
// in its own process so the engines' internal class graphs cannot collide;
// the host speaks newline-delimited JSON on the child's stdin/stdout.
package engine

import "context"

// Bridge operations understood by the subprocess host.
const (
	OpPing        = "ping"
	OpNewInstance = "new_instance"
	OpConfigure   = "configure"
	OpInvoke      = "invoke"
	OpDescribe    = "describe"
	OpShutdown    = "shutdown"
)

// Request is one call into a bridge subprocess. Instance and Method are
// set for operations addressing an already-constructed engine object.
type Request struct {
	ID       string                 `json:"id"`
	Op       string                 `json:"op"`
	Engine   string                 `json:"engine"`
	Instance string                 `json:"instance,omitempty"`
	Method   string                 `json:"method,omitempty"`
	Payload  map[string]interface{} `json:"payload,omitempty"`
}

// Response is the bridge's answer, matched to its request by id.
type Response struct {
	ID     string                 `json:"id"`
	OK     bool                   `json:"ok"`
	Result map[string]interface{} `json:"result,omitempty"`
	Error  *BridgeError           `json:"error,omitempty"`
}

// BridgeError carries the engine-side fault detail. Raw vendor exception
// types never cross the boundary; only these three strings do.
type BridgeError struct {
	Class   string `json:"class,omitempty"`
	Message string `json:"message,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// Runner invokes operations on one engine isolate. Implementations must be
// safe for concurrent use.
type Runner interface {
	Invoke(ctx context.Context, req Request) (map[string]interface{}, error)
}
