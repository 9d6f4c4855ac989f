package shellexec

import (
	"bufio"
	"context"
	"io"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/oleg-sysprog/unixlab/internal/shellexec/parser"
)

// AuditSink is the shell's one outward collaborator beyond its own state: a
// best-effort recorder of completed command lines. internal/audit.Sink
// satisfies this structurally; the shell package never imports internal/audit
// to avoid a dependency in the direction that matters least.
type AuditSink interface {
	Record(line string, code int, background bool)
}

// Driver owns the read-eval loop original_source/2/solution.c's main()
// implements directly: feed stdin to the parser, pop and execute complete
// command lines, and sweep background PIDs for exit once each command line
// finishes (spec.md §4.1 "Background reaping" runs the sweep synchronously
// after every command line, not on an independent timer).
type Driver struct {
	shell     *Shell
	parser    *parser.Parser
	log       *zap.Logger
	audit     AuditSink
	chunkSize int
}

// NewDriver returns a ready-to-run Driver. audit may be nil (no audit sink
// configured). chunkSize is the read buffer size fed to the parser per
// Feed call (spec.md §6 treats this as an implementation detail of the
// driver, not the parser contract).
func NewDriver(log *zap.Logger, audit AuditSink, chunkSize int) *Driver {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	return &Driver{
		shell:     New(log),
		parser:    parser.New(),
		log:       log,
		audit:     audit,
		chunkSize: chunkSize,
	}
}

// Shell exposes the underlying Shell for read-only collaborators (the
// control plane's stats endpoints).
func (d *Driver) Shell() *Shell {
	return d.shell
}

// Run reads from r until EOF or a command line triggers exit, reaping any
// now-dead background processes synchronously after each command line. It
// returns the process exit status: either an explicit `exit N` or 0 on EOF.
func (d *Driver) Run(_ context.Context, r io.Reader) int {
	reader := bufio.NewReader(r)
	buf := make([]byte, d.chunkSize)

	for {
		n, readErr := reader.Read(buf)
		if n > 0 {
			d.parser.Feed(buf[:n])
			if code, done := d.drainReady(); done {
				return code
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				d.log.Error("stdin read failed", zap.Error(readErr))
				return 1
			}
			return 0
		}
	}
}

// drainReady executes every command line the parser has fully buffered,
// returning the exit status and true as soon as an `exit` builtin fires.
func (d *Driver) drainReady() (int, bool) {
	for {
		line, cl, perr := d.parser.PopNext()
		if cl == nil && perr == parser.ErrNone {
			return 0, false
		}
		if perr != parser.ErrNone {
			d.log.Error("parse error", zap.String("line", line), zap.String("reason", perr.String()))
			continue
		}

		res := d.shell.Execute(cl)
		if d.audit != nil {
			d.audit.Record(line, res.Code, cl.Background)
		}
		d.reapOnce()
		if res.NeedExit {
			return res.ExitCode, true
		}
	}
}

// reapOnce sweeps every PID the shell's non-waited pipelines have handed
// over with a single non-blocking wait4 each, fanned out concurrently via
// errgroup.Group the way the control plane's stat collection does
// (SPEC_FULL §3.4) rather than serially. Called synchronously at the end of
// each command line (spec.md §4.1 step 5), not on a timer.
func (d *Driver) reapOnce() {
	pids := d.shell.Background()
	if len(pids) == 0 {
		return
	}

	var mu sync.Mutex
	var g errgroup.Group
	for _, pid := range pids {
		pid := pid
		g.Go(func() error {
			var ws syscall.WaitStatus
			wpid, err := syscall.Wait4(pid, &ws, syscall.WNOHANG, nil)
			if err != nil || wpid != pid {
				return nil
			}
			mu.Lock()
			d.shell.ReapBackground(pid)
			mu.Unlock()
			d.log.Info("background process reaped", zap.Int("pid", pid))
			return nil
		})
	}
	_ = g.Wait()
}
