package idempotency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type DoSuite struct {
	suite.Suite
	ctx   context.Context
	store *MemoryStore
}

func (s *DoSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewMemoryStore()
}

func (s *DoSuite) TestExecutesOnceAndReplays() {
	calls := 0
	fn := func(context.Context) (string, error) {
		calls++
		return `{"payment_id":"p-1"}`, nil
	}

	first, err := Do(s.ctx, s.store, "order-1", "tenant-A", time.Hour, fn)
	require.NoError(s.T(), err)
	assert.True(s.T(), first.Executed)
	assert.Equal(s.T(), NewCompleted(`{"payment_id":"p-1"}`), first.Record)

	second, err := Do(s.ctx, s.store, "order-1", "tenant-A", time.Hour, fn)
	require.NoError(s.T(), err)
	assert.False(s.T(), second.Executed)
	assert.Equal(s.T(), first.Record, second.Record)
	assert.Equal(s.T(), 1, calls)
}

func (s *DoSuite) TestFailureReleasesClaim() {
	fnErr := errors.New("downstream unavailable")

	result, err := Do(s.ctx, s.store, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
		return "", fnErr
	})
	require.ErrorIs(s.T(), err, fnErr)
	assert.True(s.T(), result.Executed)
	assert.Equal(s.T(), 0, s.store.Len())

	result, err = Do(s.ctx, s.store, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
		return "ok", nil
	})
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Executed)
}

func (s *DoSuite) TestInFlightDuplicateDoesNotRun() {
	claim, err := s.store.Exists(s.ctx, "order-1", "tenant-A")
	require.NoError(s.T(), err)
	require.True(s.T(), claim.Created())

	result, err := Do(s.ctx, s.store, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
		s.T().Fatal("must not run while another caller holds the key")
		return "", nil
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), result.Executed)
	assert.Equal(s.T(), StatusInProgress, result.Record.Status)
}

func (s *DoSuite) TestConcurrentCallersRunOnce() {
	const callers = 16

	var (
		wg    sync.WaitGroup
		runs  atomic.Int32
		start = make(chan struct{})
		gate  = make(chan struct{})
	)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, _ = Do(s.ctx, s.store, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
				runs.Add(1)
				<-gate
				return "done", nil
			})
		}()
	}

	close(start)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.EqualValues(s.T(), 1, runs.Load())
}

func (s *DoSuite) TestClaimErrorIsReturned() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := Do(ctx, s.store, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
		return "", nil
	})
	assert.ErrorIs(s.T(), err, ErrConnectivity)
}

func (s *DoSuite) TestNilStore() {
	_, err := Do(s.ctx, nil, "order-1", "tenant-A", 0, func(context.Context) (string, error) {
		return "", nil
	})
	require.Error(s.T(), err)
}

func TestDoSuite(t *testing.T) {
	suite.Run(t, new(DoSuite))
}
