// Package enginetest provides an in-process Runner for module client tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/librepps/gopps/internal/platform/engine"
)

// Fake is a scripted Runner. Invoke answers from Handle when set, otherwise
// from Results keyed by op, and records every request it sees. The zero
// value answers every call with an empty result.
type Fake struct {
	Handle  func(req engine.Request) (map[string]interface{}, error)
	Results map[string]map[string]interface{}
	Err     error

	mu    sync.Mutex
	calls []engine.Request
}

func (f *Fake) Invoke(_ context.Context, req engine.Request) (map[string]interface{}, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.Handle != nil {
		return f.Handle(req)
	}
	if res, ok := f.Results[req.Op]; ok {
		return res, nil
	}
	return map[string]interface{}{}, nil
}

// Calls returns a copy of every request seen so far.
func (f *Fake) Calls() []engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Request, len(f.calls))
	copy(out, f.calls)
	return out
}

// LastPayload returns the payload of the most recent request with the given
// op, or nil when none was made.
func (f *Fake) LastPayload(op string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].Op == op {
			return f.calls[i].Payload
		}
	}
	return nil
}
