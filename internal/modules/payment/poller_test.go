package payment

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPollerStopsWhenTickIsDone(t *testing.T) {
	p := NewPoller(5 * time.Millisecond)
	defer p.Close()
	key := uuid.New()

	var n int32
	p.Start(key, func(context.Context) bool { return atomic.AddInt32(&n, 1) == 3 })

	assert.Eventually(t, func() bool { return !p.Active(key) }, time.Second, 5*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int32(3), atomic.LoadInt32(&n))
}

func TestPollerReplaceCancelsPrevious(t *testing.T) {
	p := NewPoller(5 * time.Millisecond)
	defer p.Close()
	key := uuid.New()

	var first, second int32
	firstCtx := make(chan context.Context, 1)
	p.Start(key, func(ctx context.Context) bool {
		select {
		case firstCtx <- ctx:
		default:
		}
		atomic.AddInt32(&first, 1)
		return false
	})
	ctx := <-firstCtx
	p.Start(key, func(context.Context) bool { atomic.AddInt32(&second, 1); return false })

	assert.Eventually(t, func() bool { return ctx.Err() != nil }, time.Second, time.Millisecond)
	before := atomic.LoadInt32(&first)
	time.Sleep(30 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&first), before+1)
	assert.Greater(t, atomic.LoadInt32(&second), int32(0))
	assert.True(t, p.Active(key))
}

func TestPollerCloseWaitsAndRefusesNewWork(t *testing.T) {
	p := NewPoller(time.Millisecond)
	var running int32
	for i := 0; i < 5; i++ {
		p.Start(uuid.New(), func(ctx context.Context) bool {
			atomic.AddInt32(&running, 1)
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return false
		})
	}
	time.Sleep(10 * time.Millisecond)
	p.Close()
	assert.Equal(t, int32(0), atomic.LoadInt32(&running))

	key := uuid.New()
	p.Start(key, func(context.Context) bool { return false })
	assert.False(t, p.Active(key))
}
