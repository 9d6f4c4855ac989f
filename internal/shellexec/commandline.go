package shellexec

import (
	"go.uber.org/zap"

	"github.com/oleg-sysprog/unixlab/internal/shellexec/parser"
)

// Shell holds the state the driver needs across command lines: its logger
// and the set of still-running background PIDs handed over by non-waiting
// pipelines. It carries no parser state — parser.Parser is owned by driver.go.
type Shell struct {
	log *zap.Logger
	bg  *registry
}

// New returns a Shell ready to execute parsed command lines.
func New(log *zap.Logger) *Shell {
	return &Shell{log: log, bg: newRegistry()}
}

// LineResult is what executing one CommandLine produced: its reported exit
// status, whether the driver should now terminate, and that status's value.
type LineResult struct {
	Code     int
	NeedExit bool
	ExitCode int
}

// splitSegments walks a CommandLine's expression list and partitions it into
// pipeline segments separated by AND/OR operators, mirroring the walk
// execute_command_line performs over the same linked list in
// original_source/2/solution.c.
func splitSegments(head *parser.Expr) (segments [][]parser.Command, ops []parser.ExprType) {
	var cur []parser.Command
	for e := head; e != nil; e = e.Next {
		switch e.Type {
		case parser.ExprCommand:
			cur = append(cur, e.Cmd)
		case parser.ExprPipe:
			// Carries no payload; segment membership only.
		case parser.ExprAnd, parser.ExprOr:
			segments = append(segments, cur)
			ops = append(ops, e.Type)
			cur = nil
		}
	}
	segments = append(segments, cur)
	return segments, ops
}

// Execute runs a fully parsed command line: each pipeline segment in turn,
// gated on the previous segment's result by any intervening &&/|| operator,
// exactly as execute_command_line does. Only the last segment is "terminal"
// — it alone receives the line's out-file/out-type/background disposition
// and is eligible for cd/exit builtin handling.
func (sh *Shell) Execute(cl *parser.CommandLine) LineResult {
	if cl == nil || cl.Head == nil {
		return LineResult{}
	}

	segments, ops := splitSegments(cl.Head)
	result := LineResult{}

	prevCode := 0
	ranFirst := false
	for i, seg := range segments {
		if ranFirst {
			op := ops[i-1]
			if op == parser.ExprAnd && prevCode != 0 {
				continue
			}
			if op == parser.ExprOr && prevCode == 0 {
				continue
			}
		}

		isTerminal := i == len(segments)-1
		wait := !(isTerminal && cl.Background)

		var outcome segmentOutcome
		if isTerminal {
			outcome = sh.executeSegment(seg, cl.OutFile, cl.OutType, wait, true)
		} else {
			outcome = sh.executeSegment(seg, "", parser.OutputStdout, true, false)
		}

		prevCode = outcome.code
		ranFirst = true

		if outcome.needExit {
			result.NeedExit = true
			result.ExitCode = outcome.exitCode
			result.Code = outcome.exitCode
			return result
		}
		if len(outcome.bgPIDs) > 0 {
			sh.bg.Merge(outcome.bgPIDs)
		}
	}

	result.Code = prevCode
	return result
}

// Background returns a snapshot of PIDs from non-waited pipelines that the
// driver's reap sweep (driver.go) has not yet confirmed dead.
func (sh *Shell) Background() []int {
	return sh.bg.Snapshot()
}

// ReapBackground removes pid from the tracked background set once the
// driver's reap sweep observes it has exited.
func (sh *Shell) ReapBackground(pid int) {
	sh.bg.RemoveValue(pid)
}
