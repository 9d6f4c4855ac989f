// Package config resolves process configuration from environment variables
// once at startup, the way cmd/zmux-server/main.go reads os.Getenv("ENV")
// directly rather than through a generic parsing framework: explicit,
// typed Go values with documented defaults, resolved exactly once in
// cmd/*/main.go (spec.md §9's "explicit init/teardown").
package config

import (
	"os"
	"strconv"

	"github.com/oleg-sysprog/unixlab/internal/netaddr"
)

// Config holds every environment-sourced setting the binaries need.
type Config struct {
	// MaxThreads bounds the thread pool (UNIXLAB_MAX_THREADS). Unset,
	// unparsable or non-positive values fall back to defaultMaxThreads.
	// No upper bound is checked here; a value above threadpool.MaxThreads
	// is passed through and rejected by threadpool.New.
	MaxThreads int
	// StdinChunk is the read buffer size the shell driver feeds to the
	// parser per read (UNIXLAB_STDIN_CHUNK).
	StdinChunk int
	// ControlAddr, if non-empty, starts the read-only control-plane HTTP
	// server on this address (UNIXLAB_CONTROL_ADDR, e.g. "127.0.0.1:8080").
	// Left empty, no control server is started.
	ControlAddr string
	// AuditRedisAddr, if non-empty, enables the best-effort command audit
	// sink against this Redis address (UNIXLAB_AUDIT_REDIS_ADDR).
	AuditRedisAddr string
	// Env selects "dev" or "prod" logging/Gin behavior (UNIXLAB_ENV).
	Env string
}

const (
	defaultMaxThreads = 4
	defaultStdinChunk = 4096
	defaultEnv        = "dev"
)

// Load reads the process environment once and returns a fully-resolved
// Config, falling back to documented defaults for anything missing or
// unparsable.
func Load() Config {
	return Config{
		MaxThreads:     envInt("UNIXLAB_MAX_THREADS", defaultMaxThreads),
		StdinChunk:     envInt("UNIXLAB_STDIN_CHUNK", defaultStdinChunk),
		ControlAddr:    os.Getenv("UNIXLAB_CONTROL_ADDR"),
		AuditRedisAddr: os.Getenv("UNIXLAB_AUDIT_REDIS_ADDR"),
		Env:            envOr("UNIXLAB_ENV", defaultEnv),
	}
}

// ValidateControlAddr reports whether ControlAddr, if set, is a well-formed
// host:port pair. main.go calls this before starting the control server and
// disables it (rather than crashing the whole process) on a bad address.
func (c Config) ValidateControlAddr() error {
	if c.ControlAddr == "" {
		return nil
	}
	return netaddr.ValidateHostPort(c.ControlAddr)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
