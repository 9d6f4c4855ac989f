package threadpool

import (
	"sync"

	"go.uber.org/zap"
)

// MaxThreads and MaxTasks mirror thread_pool.c's TPOOL_MAX_THREADS/
// TPOOL_MAX_TASKS compile-time bounds.
const (
	MaxThreads = 20
	MaxTasks   = 1 << 20
)

// Pool is a fixed-capacity worker pool with lazy worker spawning and a FIFO
// task queue, grounded on thread_pool.c's struct thread_pool and
// worker_loop, restyled after internal/infrastructure/processmgr/
// slot_pool.go's sync.Cond-gated capacity primitive: the pool's
// "threads_busy == threads_created" lazy-spawn condition is evaluated under
// the same lock it mutates, exactly the shape slotPool uses for its
// usage-vs-capacity gate.
type Pool struct {
	mu           sync.Mutex
	taskReady    *sync.Cond
	allDone      *sync.Cond
	wg           sync.WaitGroup
	log          *zap.Logger
	maxThreads   int
	threadsMade  int
	threadsBusy  int
	queueHead    *Task
	queueTail    *Task
	queueLen     int
	shuttingDown bool
}

// New validates 1 <= maxThreads <= MaxThreads and returns a pool with no
// workers spawned yet, grounded on thread_pool_new.
func New(maxThreads int, log *zap.Logger) (*Pool, error) {
	if maxThreads <= 0 || maxThreads > MaxThreads {
		return nil, ErrInvalidArgument
	}
	p := &Pool{maxThreads: maxThreads, log: log}
	p.taskReady = sync.NewCond(&p.mu)
	p.allDone = sync.NewCond(&p.mu)
	return p, nil
}

// ThreadCount returns the number of workers spawned so far, grounded on
// thread_pool_thread_count.
func (p *Pool) ThreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threadsMade
}

// QueueLen returns the number of tasks currently queued (not yet running),
// exposed for the control plane's read-only stats (SPEC_FULL §3.2).
func (p *Pool) QueueLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queueLen
}

// BusyCount returns the number of workers currently running a task.
func (p *Pool) BusyCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.threadsBusy
}

// Push enqueues task, lazily spawning one more worker if every existing
// worker is occupied and the pool hasn't hit maxThreads, grounded on
// thread_pool_push_task.
func (p *Pool) Push(t *Task) error {
	if t == nil {
		return ErrInvalidArgument
	}

	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return ErrInvalidArgument
	}
	if p.queueLen >= MaxTasks {
		p.mu.Unlock()
		return ErrTooManyTasks
	}

	t.mu.Lock()
	if t.state != stateNew && t.state != stateDone {
		t.mu.Unlock()
		p.mu.Unlock()
		return ErrTaskInPool
	}
	t.state = stateQueued
	t.owner = p
	t.next = nil
	t.detached = false
	t.mu.Unlock()

	if p.queueHead == nil {
		p.queueHead = t
		p.queueTail = t
	} else {
		p.queueTail.next = t
		p.queueTail = t
	}
	p.queueLen++

	if p.threadsMade < p.maxThreads && p.threadsBusy == p.threadsMade {
		p.threadsMade++
		p.wg.Add(1)
		go p.workerLoop()
	}

	p.taskReady.Signal()
	p.mu.Unlock()
	return nil
}

// workerLoop pulls tasks off the queue until shutdown, grounded on
// worker_loop: it never holds a task's lock while holding the pool's lock
// (and vice versa), per spec.md §5's lock-discipline invariant.
func (p *Pool) workerLoop() {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		for !p.shuttingDown && p.queueHead == nil {
			p.taskReady.Wait()
		}
		if p.shuttingDown {
			p.threadsMade--
			p.mu.Unlock()
			return
		}

		task := p.queueHead
		p.queueHead = task.next
		if p.queueHead == nil {
			p.queueTail = nil
		}
		p.queueLen--
		p.threadsBusy++
		p.mu.Unlock()

		task.mu.Lock()
		task.state = stateRunning
		task.mu.Unlock()

		result := task.fn()

		task.mu.Lock()
		task.result = result
		task.state = stateDone
		task.cond.Broadcast()
		task.mu.Unlock()

		p.mu.Lock()
		p.threadsBusy--
		if p.queueLen == 0 && p.threadsBusy == 0 {
			p.allDone.Broadcast()
		}
		p.mu.Unlock()
	}
}

// Delete refuses while any task is queued or running, then signals every
// worker to exit and waits for them, grounded on thread_pool_delete.
func (p *Pool) Delete() error {
	p.mu.Lock()
	if p.queueLen > 0 || p.threadsBusy > 0 {
		p.mu.Unlock()
		return ErrHasTasks
	}
	p.shuttingDown = true
	p.taskReady.Broadcast()
	p.mu.Unlock()

	p.wg.Wait()
	if p.log != nil {
		p.log.Debug("thread pool shut down")
	}
	return nil
}
