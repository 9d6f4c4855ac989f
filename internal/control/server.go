// Package control is a small read-only introspection HTTP API over the
// live state of the shell, filesystem, and thread pool — an observability
// surface the original C course project has no equivalent of, but that
// nothing in spec.md's Non-goals excludes (those bind shell/fs/pool
// features, not ambient operability). Built the way cmd/zmux-server/main.go
// builds its Gin engine.
package control

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/oleg-sysprog/unixlab/internal/shellexec"
	"github.com/oleg-sysprog/unixlab/internal/threadpool"
	"github.com/oleg-sysprog/unixlab/internal/userfs"
)

// Server wraps an http.Server running the Gin engine.
type Server struct {
	http *http.Server
	log  *zap.Logger
}

// New builds the control-plane server bound to addr. It is never started
// implicitly — the caller decides when to ListenAndServe (cmd/*/main.go
// only does so when UNIXLAB_CONTROL_ADDR is set, per SPEC_FULL §3.2).
func New(addr string, log *zap.Logger, shell *shellexec.Shell, fs *userfs.FS, pool *threadpool.Pool) *Server {
	log = log.Named("control")
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	_ = r.SetTrustedProxies([]string{"127.0.0.1"})

	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	}))
	r.Use(requestID())
	r.Use(zapLogger(log))

	registerRoutes(r, shell, fs, pool)

	return &Server{
		http: &http.Server{Addr: addr, Handler: r},
		log:  log,
	}
}

// Run blocks serving HTTP until the server is shut down or fails.
func (s *Server) Run() error {
	s.log.Info("control server listening", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
