package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"telegram-ai-relay/internal/infra/logging"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("worker pool stopped")

type Task func(ctx context.Context) error

// Pool runs tasks on a fixed set of workers. Tasks submitted with the same
// key always land on the same worker, so they run one at a time and in
// submission order.
type Pool struct {
	wg     sync.WaitGroup
	queues []chan Task
	quit   chan struct{}
	once   sync.Once
	log    *zerolog.Logger
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = logging.Nop()
	}
	p := &Pool{queues: make([]chan Task, workers), quit: make(chan struct{}), log: logger}
	for i := range p.queues {
		p.queues[i] = make(chan Task, queueSize)
	}
	return p
}

func (p *Pool) Size() int { return len(p.queues) }

func (p *Pool) Start(ctx context.Context) {
	for i, q := range p.queues {
		p.wg.Add(1)
		go func(id int, q <-chan Task) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-q:
					p.run(ctx, id, task)
				}
			}
		}(i, q)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Int("worker", id).Err(err).Msg("task error")
	}
}

// Stop signals the workers and waits for the running tasks to return.
// Queued tasks are discarded.
func (p *Pool) Stop() {
	p.once.Do(func() { close(p.quit) })
	p.wg.Wait()
}

// Submit queues task on the worker owning key. It blocks while that queue is
// full: dropping would reorder a conversation.
func (p *Pool) Submit(ctx context.Context, key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.queues[p.shard(key)] <- task:
		return nil
	case <-p.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) shard(key int64) int {
	// group chat ids are negative
	if key < 0 {
		key = -key
	}
	return int(key % int64(len(p.queues)))
}
