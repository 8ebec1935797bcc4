package projection

import (
	"context"
	"sync"

	"github.com/murkotick/product-projections/internal/pkg/transaction"
)

// SyncHook projects the events of a unit of work through the synchronous
// projectors right before it commits. Synchronous projectors may raise more
// events; the hook reports pending work until every buffered event has been
// projected, and the coordinator keeps re-running it until then.
type SyncHook struct {
	work     Work
	executor Executor

	mu     sync.Mutex
	cursor int
}

func NewSyncHook(work Work, executor Executor) *SyncHook {
	return &SyncHook{work: work, executor: executor}
}

func (h *SyncHook) Role() transaction.Role {
	return transaction.RoleSyncProjection
}

// OnBeforeCommit projects the events appended since the previous pass.
func (h *SyncHook) OnBeforeCommit(ctx context.Context) error {
	if h.work == nil {
		return nil
	}

	h.mu.Lock()
	fresh := h.work.EventBuffer().Since(h.cursor)
	h.cursor += len(fresh)
	h.mu.Unlock()

	if len(fresh) == 0 {
		return nil
	}
	return h.executor.ExecuteProjections(ctx, fresh, h.work, Options{Synchronous: true})
}

// HasPendingWork reports whether the buffer grew past the projected prefix.
func (h *SyncHook) HasPendingWork() bool {
	if h.work == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor < h.work.EventBuffer().Len()
}

// Projected returns how many buffered events have been handed to the projectors.
func (h *SyncHook) Projected() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cursor
}

func (h *SyncHook) OnCommitSucceeded(context.Context) error {
	h.reset()
	return nil
}

func (h *SyncHook) OnCommitFailed(context.Context) error {
	h.reset()
	return nil
}

func (h *SyncHook) reset() {
	h.mu.Lock()
	h.cursor = 0
	h.mu.Unlock()
}
