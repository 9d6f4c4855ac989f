// Package parser turns raw shell input into parsed command lines.
//
// It stands in for the "external parser abstraction" that spec.md treats as
// a collaborator of the shell executor: feed it bytes incrementally, pop
// complete command lines off the front as newlines arrive. It deliberately
// implements none of a real POSIX shell's lexing (no quoting, no escapes, no
// globbing, no shell variables) — see the Non-goals in spec.md.
package parser

import "strings"

// ExprType is the kind of a single expression node in a command line.
type ExprType int

const (
	ExprCommand ExprType = iota
	ExprAnd
	ExprOr
	ExprPipe
)

// Command is the exe+argv pair carried by a COMMAND expression.
type Command struct {
	Exe  string
	Args []string
}

// Expr is one node of the linked expression list that makes up a CommandLine.
// PIPE nodes are placeholders between two COMMAND nodes of the same pipeline
// segment; they carry no payload and are skipped when walking commands but
// still occupy a list position (so "is the next node an operator" checks
// work the same way the original parser's list does).
type Expr struct {
	Type ExprType
	Cmd  Command
	Next *Expr
}

// OutputType is the terminal output disposition of a command line.
type OutputType int

const (
	OutputStdout OutputType = iota
	OutputFileNew
	OutputFileAppend
)

// CommandLine is one parsed line: an expression list plus the line's overall
// output redirection and background flag (spec.md §3.1).
type CommandLine struct {
	Head       *Expr
	OutFile    string
	OutType    OutputType
	Background bool
}

// Error is a parser failure, reported numerically to match spec.md §6
// ("Parser errors are numeric; the shell prints them and continues").
type Error int

const (
	ErrNone Error = iota
	ErrEmptyCommand
	ErrDanglingOperator
	ErrMissingRedirectTarget
	ErrDuplicateRedirect
)

func (e Error) String() string {
	switch e {
	case ErrNone:
		return "no error"
	case ErrEmptyCommand:
		return "empty command"
	case ErrDanglingOperator:
		return "operator with no following command"
	case ErrMissingRedirectTarget:
		return "redirection operator with no target file"
	case ErrDuplicateRedirect:
		return "more than one redirection target"
	default:
		return "unknown parser error"
	}
}

// Parser accumulates fed bytes and yields complete command lines as newlines
// are seen. It is not safe for concurrent use.
type Parser struct {
	buf   strings.Builder
	lines []string
}

// New returns a ready-to-use Parser.
func New() *Parser {
	return &Parser{}
}

// Feed appends raw input bytes, splitting out any newline-terminated lines
// into the pending queue. A trailing partial line is retained for the next
// Feed call.
func (p *Parser) Feed(data []byte) {
	p.buf.Write(data)
	pending := p.buf.String()
	p.buf.Reset()

	for {
		idx := strings.IndexByte(pending, '\n')
		if idx < 0 {
			break
		}
		p.lines = append(p.lines, pending[:idx])
		pending = pending[idx+1:]
	}
	p.buf.WriteString(pending)
}

// PopNext returns the next queued command line, or (nil, ErrNone) if none is
// queued yet. A malformed line is consumed and reported as a non-nil error
// with a nil CommandLine; the caller (the shell driver) prints it and moves
// on to the next line, per spec.md §6. The raw source line is returned
// alongside so callers (the audit sink) can record it verbatim.
func (p *Parser) PopNext() (string, *CommandLine, Error) {
	if len(p.lines) == 0 {
		return "", nil, ErrNone
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	cl, err := parseLine(line)
	return line, cl, err
}

func parseLine(line string) (*CommandLine, Error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return &CommandLine{}, ErrNone
	}

	cl := &CommandLine{OutType: OutputStdout}

	if tokens[len(tokens)-1] == "&" {
		cl.Background = true
		tokens = tokens[:len(tokens)-1]
	}

	for {
		redirIdx := -1
		for i, t := range tokens {
			if t == ">" || t == ">>" {
				redirIdx = i
				break
			}
		}
		if redirIdx < 0 {
			break
		}
		if cl.OutFile != "" {
			return nil, ErrDuplicateRedirect
		}
		if redirIdx == len(tokens)-1 {
			return nil, ErrMissingRedirectTarget
		}
		if tokens[redirIdx] == ">" {
			cl.OutType = OutputFileNew
		} else {
			cl.OutType = OutputFileAppend
		}
		cl.OutFile = tokens[redirIdx+1]
		tokens = append(tokens[:redirIdx], tokens[redirIdx+2:]...)
	}

	if len(tokens) == 0 {
		return nil, ErrEmptyCommand
	}

	var head, tail *Expr
	appendExpr := func(e *Expr) {
		if head == nil {
			head, tail = e, e
			return
		}
		tail.Next = e
		tail = e
	}

	var cur []string
	flushCommand := func() Error {
		if len(cur) == 0 {
			return ErrEmptyCommand
		}
		appendExpr(&Expr{Type: ExprCommand, Cmd: Command{Exe: cur[0], Args: append([]string(nil), cur[1:]...)}})
		cur = nil
		return ErrNone
	}

	for _, t := range tokens {
		switch t {
		case "|":
			if e := flushCommand(); e != ErrNone {
				return nil, e
			}
			appendExpr(&Expr{Type: ExprPipe})
		case "&&":
			if e := flushCommand(); e != ErrNone {
				return nil, e
			}
			appendExpr(&Expr{Type: ExprAnd})
		case "||":
			if e := flushCommand(); e != ErrNone {
				return nil, e
			}
			appendExpr(&Expr{Type: ExprOr})
		default:
			cur = append(cur, t)
		}
	}
	if len(cur) == 0 {
		// Only a trailing |, && or || leaves no pending command here.
		return nil, ErrDanglingOperator
	}
	if e := flushCommand(); e != ErrNone {
		return nil, e
	}

	cl.Head = head
	return cl, ErrNone
}

// IsOperator reports whether e is an AND/OR operator expression — the only
// expressions that terminate a pipeline segment (spec.md §3.1).
func IsOperator(e *Expr) bool {
	return e != nil && (e.Type == ExprAnd || e.Type == ExprOr)
}
