// Package operation serializes motion commands: at most one blocking
// operation runs at a time, and a stop request from another goroutine can
// cancel whatever is in flight.
package operation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.viam.com/utils"
)

// SingleOperationManager ensures only one operation happens at a time.
// Operations can be nested: a sub-call made under an existing operation's
// context joins it instead of cancelling it.
type SingleOperationManager struct {
	mu        sync.Mutex
	currentOp *anOp
}

type somCtxKey byte

const somCtxKeySingleOp = somCtxKey(iota)

// New starts a new operation, cancelling any previous one, and returns a
// derived context plus a function to call when done.
func (sm *SingleOperationManager) New(ctx context.Context) (context.Context, func()) {
	// handle nested ops
	if ctx.Value(somCtxKeySingleOp) != nil {
		return ctx, func() {}
	}

	sm.mu.Lock()
	sm.cancelInLock(ctx)

	theOp := &anOp{id: uuid.New()}
	ctx = context.WithValue(ctx, somCtxKeySingleOp, theOp)
	theOp.ctx, theOp.cancelFunc = context.WithCancel(ctx)
	sm.currentOp = theOp
	sm.mu.Unlock()

	return theOp.ctx, func() {
		sm.mu.Lock()
		if theOp == sm.currentOp {
			sm.currentOp = nil
		}
		sm.mu.Unlock()
	}
}

// CancelRunning cancels the current operation unless it is the caller's own.
func (sm *SingleOperationManager) CancelRunning(ctx context.Context) {
	if ctx.Value(somCtxKeySingleOp) != nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.cancelInLock(ctx)
}

// OpRunning returns whether an operation is in flight.
func (sm *SingleOperationManager) OpRunning() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentOp != nil
}

// CurrentOpID returns the ID of the in-flight operation, if any.
func (sm *SingleOperationManager) CurrentOpID() (uuid.UUID, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.currentOp == nil {
		return uuid.UUID{}, false
	}
	return sm.currentOp.id, true
}

// NewTimedWaitOp waits for the given duration as an operation, returning
// true if the wait completed and false if it was cancelled.
func (sm *SingleOperationManager) NewTimedWaitOp(ctx context.Context, dur time.Duration) bool {
	ctx, finish := sm.New(ctx)
	defer finish()

	return utils.SelectContextOrWait(ctx, dur)
}

func (sm *SingleOperationManager) cancelInLock(ctx context.Context) {
	myOp := ctx.Value(somCtxKeySingleOp)
	op := sm.currentOp
	if op == nil || myOp == op {
		return
	}
	op.cancelFunc()
	sm.currentOp = nil
}

type anOp struct {
	id         uuid.UUID
	ctx        context.Context
	cancelFunc context.CancelFunc
}
