package threadpool

import (
	"sync"
	"time"
)

type taskState int

const (
	stateNew taskState = iota
	stateQueued
	stateRunning
	stateDone
)

// TaskFunc is the unit of work a Task runs, matching thread_task_f's single
// void*-in/void*-out shape via Go's interface{}.
type TaskFunc func() interface{}

// Task is one unit of work with its own mutex+condvar guarding result and
// the state transition to DONE, grounded on thread_pool.c's struct
// thread_task. A Task may be pushed, run to completion, and pushed again
// (NEW/DONE -> QUEUED is legal; QUEUED/RUNNING is not), matching
// thread_pool_push_task's resubmission rule.
type Task struct {
	fn       TaskFunc
	result   interface{}
	owner    *Pool
	next     *Task
	state    taskState
	detached bool

	mu   sync.Mutex
	cond *sync.Cond
}

// NewTask wraps fn for submission to a Pool.
func NewTask(fn TaskFunc) *Task {
	t := &Task{fn: fn, state: stateNew}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// IsFinished reports whether the task has reached DONE.
func (t *Task) IsFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateDone
}

// IsRunning reports whether a worker currently owns the task.
func (t *Task) IsRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateRunning
}

// Join blocks until the task reaches DONE and returns its result, grounded
// on thread_task_join.
func (t *Task) Join() (interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateNew || t.owner == nil {
		return nil, ErrTaskNotPushed
	}
	if t.detached {
		return nil, ErrTaskDetached
	}
	for t.state != stateDone {
		t.cond.Wait()
	}
	return t.result, nil
}

// TimedJoin blocks until the task reaches DONE or timeout elapses,
// implemented for real rather than stubbed NOT_IMPLEMENTED — see
// SPEC_FULL §4 on the NEED_TIMED_JOIN build flag. sync.Cond has no native
// deadline, so a one-shot timer wakes the waiter by broadcasting once
// timeout elapses; the loop then observes the deadline has passed and
// returns ErrTimedOut instead of looping forever.
func (t *Task) TimedJoin(timeout time.Duration) (interface{}, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateNew || t.owner == nil {
		return nil, ErrTaskNotPushed
	}
	if t.detached {
		return nil, ErrTaskDetached
	}

	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, func() {
		t.mu.Lock()
		t.cond.Broadcast()
		t.mu.Unlock()
	})
	defer timer.Stop()

	for t.state != stateDone {
		if !time.Now().Before(deadline) {
			return nil, ErrTimedOut
		}
		t.cond.Wait()
	}
	return t.result, nil
}

// Detach marks the task fire-and-forget: the caller gives up the right (and
// need) to Join it. Implemented for real per SPEC_FULL §4 rather than the
// original's NEED_DETACH stub.
func (t *Task) Detach() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateNew || t.owner == nil {
		return ErrTaskNotPushed
	}
	t.detached = true
	return nil
}

// Delete releases a task, grounded on thread_task_delete: refused with
// ErrTaskInPool while the task is QUEUED or RUNNING (a pool worker may still
// be holding a reference to it), allowed for NEW and DONE. A deleted task is
// reset to its zero-owner state; Go's GC reclaims it once the caller drops
// its own reference, standing in for thread_task_delete's explicit free().
func (t *Task) Delete() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == stateQueued || t.state == stateRunning {
		return ErrTaskInPool
	}
	t.owner = nil
	t.next = nil
	t.result = nil
	t.detached = false
	t.state = stateNew
	return nil
}
