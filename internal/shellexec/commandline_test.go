package shellexec

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oleg-sysprog/unixlab/internal/shellexec/parser"
)

func testShell(t *testing.T) *Shell {
	t.Helper()
	return New(zap.NewNop())
}

func parseOne(t *testing.T, line string) *parser.CommandLine {
	t.Helper()
	p := parser.New()
	p.Feed([]byte(line + "\n"))
	_, cl, err := p.PopNext()
	require.Equal(t, parser.ErrNone, err)
	require.NotNil(t, cl)
	return cl
}

func TestSplitSegments_PipesAndOperators(t *testing.T) {
	cl := parseOne(t, "a | b && c || d")
	segments, ops := splitSegments(cl.Head)

	require.Len(t, segments, 3)
	require.Equal(t, []string{"a", "b"}, []string{segments[0][0].Exe, segments[0][1].Exe})
	require.Equal(t, "c", segments[1][0].Exe)
	require.Equal(t, "d", segments[2][0].Exe)
	require.Equal(t, []parser.ExprType{parser.ExprAnd, parser.ExprOr}, ops)
}

func TestExecute_SimpleCommandSucceeds(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "true"))
	require.Equal(t, 0, res.Code)
	require.False(t, res.NeedExit)
}

func TestExecute_AndShortCircuitsOnFailure(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "false && true"))
	require.NotEqual(t, 0, res.Code)
}

func TestExecute_OrRunsOnlyOnFailure(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "false || true"))
	require.Equal(t, 0, res.Code)
}

func TestExecute_ExitBuiltinSoleCommand(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "exit 7"))
	require.True(t, res.NeedExit)
	require.Equal(t, 7, res.ExitCode)
}

// TestExecute_ExitOutsideTerminalSegmentIsNotABuiltin exercises spec.md §4.1
// step 2's rule precisely: cd/exit are only special-cased when they are the
// sole command of the command line's terminal (last) pipeline segment. Here
// "exit" is segment 0 of a two-segment "&&" line, so it is never the
// terminal segment and runBuiltin (pipeline.go) is never reached — it is
// exec'd as a literal external command instead, which does not exist on
// PATH, so the segment fails (code 1) and the "&&" short-circuits before
// "true" ever runs. NeedExit stays false: the line never triggers the real
// exit builtin at all.
func TestExecute_ExitOutsideTerminalSegmentIsNotABuiltin(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "exit && true"))
	require.False(t, res.NeedExit)
	require.Equal(t, 1, res.Code)
}

// TestExecute_ExitAsNonSoleCommandOfTerminalSegmentIsNotABuiltin covers the
// other half of the same rule: "exit" is the last command of the terminal
// segment here, but the segment has two commands (a pipe), so the
// len(commands)==1 gate in runBuiltin still isn't met and "exit" is exec'd
// literally, failing the same way.
func TestExecute_ExitAsNonSoleCommandOfTerminalSegmentIsNotABuiltin(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "true | exit"))
	require.False(t, res.NeedExit)
	require.Equal(t, 1, res.Code)
}

func TestExecute_CdChangesDirectory(t *testing.T) {
	sh := testShell(t)
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(orig) })

	res := sh.Execute(parseOne(t, "cd "+dir))
	require.Equal(t, 0, res.Code)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	resolved, _ := filepath.EvalSymlinks(dir)
	resolvedCwd, _ := filepath.EvalSymlinks(cwd)
	require.Equal(t, resolved, resolvedCwd)
}

func TestExecute_OutputRedirection(t *testing.T) {
	sh := testShell(t)
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.txt")

	res := sh.Execute(parseOne(t, "echo hello > "+outFile))
	require.Equal(t, 0, res.Code)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(data))
}

func TestExecute_BackgroundTracksPID(t *testing.T) {
	sh := testShell(t)
	res := sh.Execute(parseOne(t, "sleep 1 &"))
	require.Equal(t, 0, res.Code)

	require.Eventually(t, func() bool {
		return len(sh.Background()) == 1
	}, time.Second, 10*time.Millisecond)
}
