// Package audit is an optional, best-effort sink that appends one JSON
// record per completed shell command line to a Redis list, grounded on
// redis/client.go's *redis.Client wrapper (dial/read/write timeouts,
// ping-at-construction diagnostics, .Named("Redis") logger) and
// internal/infrastructure/datastore's append-oriented use of Redis as a
// system of record.
//
// This is explicitly NOT the user filesystem's backing store — spec.md's
// "no persistence" non-goal for the filesystem stands; this is a
// side-channel trail for the shell only, and a failure here is logged at
// Warn and dropped, never surfaced as a pipeline's exit code.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// listKey is the Redis list every audit record is RPUSH'd onto.
const listKey = "unixlab:shell:audit"

// record is one audited command line.
type record struct {
	Line       string    `json:"line"`
	ExitCode   int       `json:"exit_code"`
	Background bool      `json:"background"`
	Timestamp  time.Time `json:"ts"`
}

// Sink appends audit records to Redis. It satisfies internal/shellexec's
// AuditSink interface structurally.
type Sink struct {
	client *redis.Client
	log    *zap.Logger
}

// New dials addr and returns a ready Sink. It pings once at construction
// and logs the outcome with its ping_rtt through an "audit.redis" child
// logger; a failed ping is logged at Warn and the Sink is still returned.
func New(addr string, log *zap.Logger) *Sink {
	log = log.Named("audit.redis")
	opts := &redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
	}
	client := redis.NewClient(opts)

	s := &Sink{client: client, log: log}
	s.ping()
	return s
}

func (s *Sink) ping() {
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := s.client.Ping(ctx).Err()
	elapsed := time.Since(start)
	if err != nil {
		s.log.Warn("connection failed", zap.Error(err), zap.Duration("ping_rtt", elapsed))
		return
	}
	s.log.Info("connection established", zap.Duration("ping_rtt", elapsed))
}

// Record appends one audit entry, best-effort: any failure is logged at
// Warn and otherwise ignored, matching the teacher's treatment of
// non-critical side-channel I/O.
func (s *Sink) Record(line string, exitCode int, background bool) {
	rec := record{Line: line, ExitCode: exitCode, Background: background, Timestamp: time.Now()}
	payload, err := json.Marshal(rec)
	if err != nil {
		s.log.Warn("audit record marshal failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.client.RPush(ctx, listKey, payload).Err(); err != nil {
		s.log.Warn("audit record append failed", zap.Error(err))
	}
}

// Close releases the underlying Redis client.
func (s *Sink) Close() error {
	return s.client.Close()
}
