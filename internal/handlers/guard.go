package handlers

import (
	"sync"

	contextutils "studyapp/internal/utils"
)

// OperationGuard prevents concurrent duplicate submissions of the same
// logical operation. Keys are operation-scoped, e.g. "grade:<contentID>".
type OperationGuard struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func NewOperationGuard() *OperationGuard {
	return &OperationGuard{inFlight: make(map[string]bool)}
}

// begin marks the operation as in flight. Returns ErrOperationInFlight if it
// already is; callers must translate that to a conflict response.
func (g *OperationGuard) begin(key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight[key] {
		return contextutils.WrapError(contextutils.ErrOperationInFlight, "operation already in progress: "+key)
	}
	g.inFlight[key] = true
	return nil
}

func (g *OperationGuard) end(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inFlight, key)
}
