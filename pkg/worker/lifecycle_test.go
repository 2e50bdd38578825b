package worker

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	cerrors "github.com/c360/boundedbuffer/errors"
	"github.com/c360/boundedbuffer/testutil"
)

// PoolLifecycleSuite exercises Start/Stop transitions on a fresh pool per test
type PoolLifecycleSuite struct {
	suite.Suite
	proc   *testutil.MockProcessor[testWork]
	pool   *Pool[testWork]
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *PoolLifecycleSuite) SetupTest() {
	s.proc = testutil.NewMockProcessor[testWork]()

	pool, err := NewPool(2, 8, s.proc.Process)
	s.Require().NoError(err)
	s.pool = pool

	s.ctx, s.cancel = context.WithTimeout(context.Background(), 10*time.Second)
}

func (s *PoolLifecycleSuite) TearDownTest() {
	s.cancel()
	s.NoError(s.pool.Stop(5 * time.Second))
}

func TestPoolLifecycleSuite(t *testing.T) {
	suite.Run(t, new(PoolLifecycleSuite))
}

func (s *PoolLifecycleSuite) TestStartStop() {
	s.Require().NoError(s.pool.Start(s.ctx))
	s.ErrorIs(s.pool.Start(s.ctx), ErrPoolAlreadyStarted)

	for i := 0; i < 5; i++ {
		s.Require().NoError(s.pool.SubmitWait(s.ctx, testWork{id: i}))
	}

	s.Require().NoError(s.pool.Stop(5 * time.Second))
	s.Equal(5, s.proc.CallCount())

	s.ErrorIs(s.pool.Submit(testWork{id: 999}), ErrPoolStopped)
	s.NoError(s.pool.Stop(time.Second), "second Stop is a no-op")
}

func (s *PoolLifecycleSuite) TestSubmitBeforeStart() {
	s.ErrorIs(s.pool.Submit(testWork{}), ErrPoolNotStarted)
	s.ErrorIs(s.pool.SubmitWait(s.ctx, testWork{}), ErrPoolNotStarted)
	s.NoError(s.pool.Stop(time.Second), "Stop before Start is a no-op")
	s.Zero(s.proc.CallCount())
}

func (s *PoolLifecycleSuite) TestSubmitWaitAfterStop() {
	s.Require().NoError(s.pool.Start(s.ctx))
	s.Require().NoError(s.pool.Stop(time.Second))

	s.ErrorIs(s.pool.SubmitWait(s.ctx, testWork{}), ErrPoolStopped)
}

func (s *PoolLifecycleSuite) TestSentinelsCarrySharedErrors() {
	s.ErrorIs(ErrPoolNotStarted, cerrors.ErrNotStarted)
	s.ErrorIs(ErrPoolAlreadyStarted, cerrors.ErrAlreadyStarted)
	s.ErrorIs(ErrPoolStopped, cerrors.ErrAlreadyStopped)
	s.ErrorIs(ErrQueueFull, cerrors.ErrQueueFull)
	s.ErrorIs(ErrStopTimeout, cerrors.ErrTimeout)

	s.True(cerrors.IsInvalid(ErrPoolNotStarted))
	s.True(cerrors.IsInvalid(ErrPoolAlreadyStarted))
	s.True(cerrors.IsInvalid(ErrPoolStopped))
	s.True(cerrors.IsTransient(ErrQueueFull))
	s.True(cerrors.IsTransient(ErrStopTimeout))
}

func (s *PoolLifecycleSuite) TestIdleWorkersAreCheap() {
	before := runtime.NumGoroutine()
	s.Require().NoError(s.pool.Start(s.ctx))

	s.Require().Eventually(func() bool {
		_, consumers := s.pool.queue.Waiting()
		return consumers == s.pool.workers
	}, time.Second, time.Millisecond)

	// Parked workers hold no helper goroutine for their idle deadline.
	s.LessOrEqual(runtime.NumGoroutine(), before+s.pool.workers)

	elapsed := testutil.Measure(func() {
		s.Require().NoError(s.pool.Stop(5 * time.Second))
	})
	s.Less(elapsed, idleWait+200*time.Millisecond)
}
