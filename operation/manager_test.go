package operation

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.viam.com/test"
)

func TestSingleOperationManager(t *testing.T) {
	ctx := context.Background()
	som := SingleOperationManager{}

	test.That(t, som.NewTimedWaitOp(ctx, time.Millisecond), test.ShouldBeTrue)

	t.Run("nested operation does not cancel parent", func(t *testing.T) {
		ctx1, close1 := som.New(ctx)
		defer close1()
		_, close2 := som.New(ctx1)
		defer close2()
		test.That(t, ctx1.Err(), test.ShouldBeNil)
	})

	t.Run("cancelling from a different context works", func(t *testing.T) {
		res := int32(0)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			if som.NewTimedWaitOp(context.Background(), 10*time.Second) {
				atomic.StoreInt32(&res, 1)
			}
		}()

		for !som.OpRunning() {
			time.Sleep(time.Millisecond)
		}

		som.CancelRunning(ctx)

		wg.Wait()
		test.That(t, res, test.ShouldEqual, 0)
		test.That(t, som.OpRunning(), test.ShouldBeFalse)
	})

	t.Run("op IDs are tracked while running", func(t *testing.T) {
		_, ok := som.CurrentOpID()
		test.That(t, ok, test.ShouldBeFalse)

		opCtx, finish := som.New(ctx)
		id, ok := som.CurrentOpID()
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, id.String(), test.ShouldNotEqual, "")
		test.That(t, opCtx.Err(), test.ShouldBeNil)
		finish()

		_, ok = som.CurrentOpID()
		test.That(t, ok, test.ShouldBeFalse)
	})
}
