package control

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/oleg-sysprog/unixlab/internal/shellexec"
	"github.com/oleg-sysprog/unixlab/internal/threadpool"
	"github.com/oleg-sysprog/unixlab/internal/userfs"
)

func registerRoutes(r *gin.Engine, shell *shellexec.Shell, fs *userfs.FS, pool *threadpool.Pool) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/v1/threadpool", func(c *gin.Context) {
		c.JSON(http.StatusOK, threadPoolStats(pool))
	})

	r.GET("/v1/userfs", func(c *gin.Context) {
		c.JSON(http.StatusOK, fs.Snapshot())
	})

	r.GET("/v1/shell/background", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"pids": shell.Background()})
	})

	// /v1/status collects all three cores' stats concurrently with
	// errgroup.Group, the way the teacher's summary service fans out
	// concurrent reads (SPEC_FULL §3.4) rather than querying them serially.
	r.GET("/v1/status", func(c *gin.Context) {
		var (
			tp  gin.H
			ufs userfs.Stats
			bg  []int
		)
		var g errgroup.Group
		g.Go(func() error { tp = threadPoolStats(pool); return nil })
		g.Go(func() error { ufs = fs.Snapshot(); return nil })
		g.Go(func() error { bg = shell.Background(); return nil })
		_ = g.Wait()

		c.JSON(http.StatusOK, gin.H{
			"threadpool": tp,
			"userfs":     ufs,
			"background": bg,
		})
	})
}

func threadPoolStats(pool *threadpool.Pool) gin.H {
	return gin.H{
		"max_threads":     threadpool.MaxThreads,
		"threads_created": pool.ThreadCount(),
		"threads_busy":    pool.BusyCount(),
		"queued_tasks":    pool.QueueLen(),
	}
}
