package payment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Poller runs at most one periodic task per key. Starting a task for a key
// that already has one cancels the old task first.
type Poller struct {
	interval time.Duration

	mu     sync.Mutex
	polls  map[uuid.UUID]*poll
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type poll struct {
	cancel context.CancelFunc
}

func NewPoller(interval time.Duration) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		interval: interval,
		polls:    make(map[uuid.UUID]*poll),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start calls tick every interval until it returns true or the task is
// cancelled. The ctx passed to tick is cancelled when the task is replaced.
func (p *Poller) Start(key uuid.UUID, tick func(ctx context.Context) (done bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		return
	}
	if old, ok := p.polls[key]; ok {
		old.cancel()
	}
	ctx, cancel := context.WithCancel(p.ctx)
	me := &poll{cancel: cancel}
	p.polls[key] = me

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.release(key, me)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if ctx.Err() != nil || tick(ctx) {
					return
				}
			}
		}
	}()
}

// Stop cancels the task for key. It does not wait for a tick in progress.
func (p *Poller) Stop(key uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cur, ok := p.polls[key]; ok {
		cur.cancel()
		delete(p.polls, key)
	}
}

// Active reports whether key has a running task.
func (p *Poller) Active(key uuid.UUID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.polls[key]
	return ok
}

// Close cancels every task and waits for them to return.
func (p *Poller) Close() {
	p.mu.Lock()
	p.cancel()
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) release(key uuid.UUID, me *poll) {
	me.cancel()
	p.mu.Lock()
	if p.polls[key] == me {
		delete(p.polls, key)
	}
	p.mu.Unlock()
}
