package shellexec

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/oleg-sysprog/unixlab/internal/shellexec/parser"
)

// segmentOutcome is the result of running one pipeline segment to completion
// (or to background hand-off), mirroring execute_pipeline's assembled
// execution outcome in original_source/2/solution.c.
type segmentOutcome struct {
	code     int
	bgPIDs   []int
	needExit bool
	exitCode int
}

// executeSegment runs the pipe-connected chain of commands, wiring each
// non-terminal stage's stdout to the next stage's stdin via os.Pipe, exactly
// as processmgr/process.go wires exec.Cmd pipes before Start(). outType/
// outFile apply only to the segment's last command, and only when
// isTerminalSegment is true (interior segments of a command line always
// write to the real stdout, per spec.md §4.1).
func (sh *Shell) executeSegment(commands []parser.Command, outFile string, outType parser.OutputType, wait bool, isTerminalSegment bool) segmentOutcome {
	if len(commands) == 0 {
		sh.log.Error("empty pipeline segment")
		return segmentOutcome{code: 1}
	}

	if isTerminalSegment && len(commands) == 1 {
		if outcome, handled := sh.runBuiltin(commands[0]); handled {
			return outcome
		}
	}

	reg := newRegistry()
	var cmds []*exec.Cmd
	var prevRead *os.File
	forkFailed := false

	n := len(commands)
	for i, cmd := range commands {
		isLast := i == n-1

		if cmd.Exe == "exit" && !isLast {
			// A non-last exit is skipped; the pipeline continues without it.
			continue
		}

		var stdin *os.File
		switch {
		case prevRead != nil:
			stdin = prevRead
		case !wait && i == 0:
			// Background pipeline, first stage, no predecessor: stdin is
			// not inherited. os/exec connects a nil Stdin to the null
			// device, so the stage reads EOF; the descriptor is not closed.
			stdin = nil
		default:
			stdin = os.Stdin
		}

		var pipeWrite, nextRead *os.File
		if !isLast {
			r, w, err := os.Pipe()
			if err != nil {
				sh.log.Error("pipe creation failed", zap.Error(err), zap.String("exe", cmd.Exe))
				forkFailed = true
				break
			}
			nextRead, pipeWrite = r, w
		}

		var stdout *os.File
		var openedOutFile *os.File
		switch {
		case !isLast:
			stdout = pipeWrite
		case isTerminalSegment && outType != parser.OutputStdout:
			f, err := openOutputFile(outFile, outType)
			if err != nil {
				sh.log.Error("output file open failed", zap.Error(err), zap.String("file", outFile))
				if pipeWrite != nil {
					pipeWrite.Close()
				}
				if nextRead != nil {
					nextRead.Close()
				}
				forkFailed = true
			} else {
				stdout = f
				openedOutFile = f
			}
		default:
			stdout = os.Stdout
		}
		if forkFailed {
			break
		}

		execCmd := exec.Command(cmd.Exe, cmd.Args...)
		execCmd.Stdin = stdin
		execCmd.Stdout = stdout
		execCmd.Stderr = os.Stderr
		execCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

		if err := execCmd.Start(); err != nil {
			sh.log.Error("process creation failed", zap.Error(err), zap.String("exe", cmd.Exe))
			if pipeWrite != nil {
				pipeWrite.Close()
			}
			if nextRead != nil {
				nextRead.Close()
			}
			if openedOutFile != nil {
				openedOutFile.Close()
			}
			forkFailed = true
			break
		}

		sh.log.Info("process started", zap.Int("pid", execCmd.Process.Pid), zap.String("exe", cmd.Exe))
		reg.Register(execCmd.Process.Pid)
		cmds = append(cmds, execCmd)

		// Parent closes the copies it no longer needs, mirroring
		// process.go's pattern of closing pipe ends right after Start().
		if prevRead != nil {
			prevRead.Close()
		}
		if pipeWrite != nil {
			pipeWrite.Close()
		}
		if openedOutFile != nil {
			openedOutFile.Close()
		}

		prevRead = nextRead
	}
	if prevRead != nil {
		prevRead.Close()
	}

	if !wait && !forkFailed {
		return segmentOutcome{bgPIDs: reg.Snapshot()}
	}

	code := 0
	for _, c := range cmds {
		err := c.Wait()
		var exitErr *exec.ExitError
		switch {
		case err == nil:
			code = 0
		case errors.As(err, &exitErr) && exitErr.ProcessState.Exited():
			code = exitErr.ProcessState.ExitCode()
		default:
			sh.log.Warn("child did not exit normally", zap.Error(err))
		}
	}
	reg.Release()

	if forkFailed {
		return segmentOutcome{code: 1}
	}
	return segmentOutcome{code: code}
}

func openOutputFile(path string, outType parser.OutputType) (*os.File, error) {
	flags := os.O_CREATE | os.O_WRONLY
	switch outType {
	case parser.OutputFileAppend:
		flags |= os.O_APPEND
	default:
		flags |= os.O_TRUNC
	}
	return os.OpenFile(path, flags, 0o777)
}

// runBuiltin handles cd/exit without forking, only valid for the sole
// command of a terminal pipeline segment (spec.md §4.1 step 2).
func (sh *Shell) runBuiltin(cmd parser.Command) (segmentOutcome, bool) {
	switch cmd.Exe {
	case "cd":
		if len(cmd.Args) != 1 {
			sh.log.Error("cd: expected exactly one argument")
			return segmentOutcome{code: 1}, true
		}
		if err := os.Chdir(cmd.Args[0]); err != nil {
			sh.log.Error("cd: change directory failed", zap.Error(err), zap.String("dir", cmd.Args[0]))
			return segmentOutcome{code: 1}, true
		}
		return segmentOutcome{code: 0}, true

	case "exit":
		code := 0
		if len(cmd.Args) > 0 {
			if n, err := strconv.Atoi(cmd.Args[0]); err == nil {
				code = n
			}
		}
		return segmentOutcome{needExit: true, exitCode: code}, true
	}
	return segmentOutcome{}, false
}
