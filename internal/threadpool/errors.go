package threadpool

import "errors"

// PoolError values mirror thread_pool.c's enum of TPOOL_ERR_* return codes.
var (
	ErrInvalidArgument = errors.New("threadpool: invalid argument")
	ErrTooManyTasks    = errors.New("threadpool: queue already holds the maximum number of tasks")
	ErrTaskInPool      = errors.New("threadpool: task is already queued or running")
	ErrTaskNotPushed   = errors.New("threadpool: task has never been pushed to a pool")
	ErrHasTasks        = errors.New("threadpool: pool still has queued or running tasks")
	ErrTaskDetached    = errors.New("threadpool: task was detached and can no longer be joined")
	ErrTimedOut        = errors.New("threadpool: join timed out before the task finished")
)
