package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFeedPopNext_SingleCommand(t *testing.T) {
	p := New()
	p.Feed([]byte("echo hello\n"))

	line, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)
	require.Equal(t, "echo hello", line)
	require.NotNil(t, cl.Head)
	require.Equal(t, ExprCommand, cl.Head.Type)
	require.Equal(t, "echo", cl.Head.Cmd.Exe)
	require.Equal(t, []string{"hello"}, cl.Head.Cmd.Args)
	require.False(t, cl.Background)
	require.Equal(t, OutputStdout, cl.OutType)

	_, cl2, err2 := p.PopNext()
	require.Nil(t, cl2)
	require.Equal(t, ErrNone, err2)
}

func TestFeed_PartialLineBuffered(t *testing.T) {
	p := New()
	p.Feed([]byte("ec"))
	p.Feed([]byte("ho hi\n"))

	_, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)
	require.Equal(t, "echo", cl.Head.Cmd.Exe)
}

func TestParse_Pipeline(t *testing.T) {
	p := New()
	p.Feed([]byte("cat file | grep foo | wc -l\n"))

	_, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)

	var commands []Command
	for e := cl.Head; e != nil; e = e.Next {
		if e.Type == ExprCommand {
			commands = append(commands, e.Cmd)
		}
	}
	require.Len(t, commands, 3)
	require.Equal(t, "cat", commands[0].Exe)
	require.Equal(t, "grep", commands[1].Exe)
	require.Equal(t, "wc", commands[2].Exe)
}

func TestParse_AndOrSequencing(t *testing.T) {
	p := New()
	p.Feed([]byte("true && echo ok || echo bad\n"))

	_, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)

	var types []ExprType
	for e := cl.Head; e != nil; e = e.Next {
		types = append(types, e.Type)
	}
	require.Equal(t, []ExprType{ExprCommand, ExprAnd, ExprCommand, ExprOr, ExprCommand}, types)
}

func TestParse_Background(t *testing.T) {
	p := New()
	p.Feed([]byte("sleep 10 &\n"))

	_, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)
	require.True(t, cl.Background)
	require.Equal(t, "sleep", cl.Head.Cmd.Exe)
}

func TestParse_RedirectionNewAndAppend(t *testing.T) {
	p := New()
	p.Feed([]byte("echo hi > out.txt\n"))
	_, cl, err := p.PopNext()
	require.Equal(t, ErrNone, err)
	require.Equal(t, OutputFileNew, cl.OutType)
	require.Equal(t, "out.txt", cl.OutFile)

	p.Feed([]byte("echo hi >> out.txt\n"))
	_, cl2, err2 := p.PopNext()
	require.Equal(t, ErrNone, err2)
	require.Equal(t, OutputFileAppend, cl2.OutType)
}

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		line string
		want Error
	}{
		{"", ErrNone},
		{"| echo hi", ErrEmptyCommand},
		{"echo hi &&", ErrDanglingOperator},
		{"echo hi >", ErrMissingRedirectTarget},
		{"echo hi > a > b", ErrDuplicateRedirect},
	}
	for _, tc := range cases {
		p := New()
		p.Feed([]byte(tc.line + "\n"))
		_, _, err := p.PopNext()
		require.Equal(t, tc.want, err, "line %q", tc.line)
	}
}

func TestIsOperator(t *testing.T) {
	require.False(t, IsOperator(nil))
	require.False(t, IsOperator(&Expr{Type: ExprCommand}))
	require.True(t, IsOperator(&Expr{Type: ExprAnd}))
	require.True(t, IsOperator(&Expr{Type: ExprOr}))
	require.False(t, IsOperator(&Expr{Type: ExprPipe}))
}
