package shellexec

import "errors"

// Transient shell errors. These are reported to standard error and abort
// only the current pipeline (spec.md §7) — they never terminate the shell.
var (
	ErrPipeCreation    = errors.New("pipe creation failed")
	ErrForkFailed      = errors.New("process creation failed")
	ErrOutputFileOpen  = errors.New("output file open failed")
	ErrBadCdUsage      = errors.New("cd: expected exactly one argument")
	ErrChdirFailed     = errors.New("cd: change directory failed")
	ErrEmptyCommand    = errors.New("pipeline has no commands")
	ErrBadExitArgument = errors.New("exit: argument is not a valid integer")
)
