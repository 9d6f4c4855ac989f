package threadpool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDelete_AllowedBeforePush(t *testing.T) {
	task := NewTask(func() interface{} { return nil })
	require.NoError(t, task.Delete())
}

func TestDelete_AllowedAfterDone(t *testing.T) {
	p, err := New(1, zap.NewNop())
	require.NoError(t, err)

	task := NewTask(func() interface{} { return nil })
	require.NoError(t, p.Push(task))
	_, err = task.Join()
	require.NoError(t, err)

	require.NoError(t, task.Delete())
	deleteWhenIdle(t, p)
}

func TestDelete_RefusedWhileQueuedOrRunning(t *testing.T) {
	p, err := New(1, zap.NewNop())
	require.NoError(t, err)

	release := make(chan struct{})
	blocker := NewTask(func() interface{} {
		<-release
		return nil
	})
	require.NoError(t, p.Push(blocker))

	queued := NewTask(func() interface{} { return nil })
	require.NoError(t, p.Push(queued))

	require.Eventually(t, func() bool {
		return p.QueueLen() == 1
	}, time.Second, 2*time.Millisecond)

	require.ErrorIs(t, queued.Delete(), ErrTaskInPool)
	require.ErrorIs(t, blocker.Delete(), ErrTaskInPool)

	close(release)
	_, err = blocker.Join()
	require.NoError(t, err)
	_, err = queued.Join()
	require.NoError(t, err)

	deleteWhenIdle(t, p)
}

func TestDelete_AllowsResubmission(t *testing.T) {
	p, err := New(1, zap.NewNop())
	require.NoError(t, err)

	task := NewTask(func() interface{} { return 1 })
	require.NoError(t, p.Push(task))
	_, err = task.Join()
	require.NoError(t, err)
	require.NoError(t, task.Delete())

	require.NoError(t, p.Push(task))
	res, err := task.Join()
	require.NoError(t, err)
	require.Equal(t, 1, res)

	deleteWhenIdle(t, p)
}
