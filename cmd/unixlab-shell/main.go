// Command unixlab-shell runs the shell executor's stdin-driven read loop,
// optionally fronted by the read-only control-plane HTTP API and an audit
// sink, grounded on original_source/2/solution.c's main() and
// cmd/zmux-server/main.go's explicit service-construction style.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/oleg-sysprog/unixlab/internal/audit"
	"github.com/oleg-sysprog/unixlab/internal/config"
	"github.com/oleg-sysprog/unixlab/internal/control"
	"github.com/oleg-sysprog/unixlab/internal/logging"
	"github.com/oleg-sysprog/unixlab/internal/shellexec"
	"github.com/oleg-sysprog/unixlab/internal/threadpool"
	"github.com/oleg-sysprog/unixlab/internal/userfs"
)

func main() {
	cfg := config.Load()

	log := logging.New(cfg.Env)
	defer log.Sync()
	log = log.Named("main")

	pool, err := threadpool.New(cfg.MaxThreads, log.Named("threadpool"))
	if err != nil {
		log.Fatal("thread pool creation failed", zap.Error(err))
	}
	fs := userfs.New(log.Named("userfs"))

	var sink *audit.Sink
	var driverAudit shellexec.AuditSink
	if cfg.AuditRedisAddr != "" {
		sink = audit.New(cfg.AuditRedisAddr, log)
		driverAudit = sink
		defer sink.Close()
	}

	driver := shellexec.NewDriver(log.Named("shell"), driverAudit, cfg.StdinChunk)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cfg.ValidateControlAddr(); err != nil {
		log.Warn("control addr invalid, control server disabled", zap.Error(err))
		cfg.ControlAddr = ""
	}

	if cfg.ControlAddr != "" {
		srv := control.New(cfg.ControlAddr, log, driver.Shell(), fs, pool)
		go func() {
			if err := srv.Run(); err != nil {
				log.Error("control server stopped", zap.Error(err))
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	code := driver.Run(ctx, os.Stdin)

	fs.Destroy()
	if err := pool.Delete(); err != nil {
		log.Warn("thread pool had outstanding tasks at shutdown", zap.Error(err))
	}

	os.Exit(code)
}
