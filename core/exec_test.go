package core

import (
	"bytes"
	"io"
	"os/exec"
	"strconv"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

type testLauncher struct {
	*Launcher
	out bytes.Buffer
	err bytes.Buffer
}

func newTestLauncher(fs afero.Fs) *testLauncher {
	tl := &testLauncher{}
	tl.Launcher = NewLauncher(fs, nil, &tl.out, &tl.err, NewReaper())
	return tl
}

// drainReaper polls until at least one completion is announced.
func drainReaper(t *testing.T, r *Reaper, w *bytes.Buffer) ExitStatus {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if st, reaped := r.Reap(w); reaped {
			return st
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for a background child to be reaped")
	return ExitStatus{}
}

func TestRunInputRedirectMissing(t *testing.T) {
	l := newTestLauncher(afero.NewMemMapFs())

	st, completed := l.Run(&Command{Argv: []string{"cat"}, InputPath: "missing.txt"}, true)

	assert.True(t, completed)
	assert.Equal(t, Exited(1), st)
	assert.Equal(t, "missing.txt: no such file or directory\n", l.out.String())
}

func TestRunOutputRedirectFailure(t *testing.T) {
	l := newTestLauncher(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	st, completed := l.Run(&Command{Argv: []string{"echo"}, OutputPath: "out.txt"}, true)

	assert.True(t, completed)
	assert.Equal(t, Exited(1), st)
	assert.Equal(t, "cannot open out.txt\n", l.out.String())
}

func TestRunUnknownCommand(t *testing.T) {
	l := newTestLauncher(afero.NewMemMapFs())

	st, completed := l.Run(&Command{Argv: []string{"badcmd2e18a7"}}, true)

	assert.True(t, completed)
	assert.Equal(t, Exited(1), st)
	assert.Equal(t, "badcmd2e18a7 is an invalid command\n", l.out.String())
}

func TestRunForegroundExitCode(t *testing.T) {
	requireShell(t)
	l := newTestLauncher(afero.NewOsFs())

	st, completed := l.Run(&Command{Argv: []string{"sh", "-c", "exit 7"}}, true)

	assert.True(t, completed)
	assert.Equal(t, Exited(7), st)
}

func TestRunForegroundChildInterruptible(t *testing.T) {
	requireShell(t)
	// With the shell's own interrupt handling active, a foreground child
	// still dies from the terminal's interrupt signal.
	m := NewSignalManager(io.Discard)
	m.Start()
	defer m.Stop()

	l := newTestLauncher(afero.NewOsFs())
	st, completed := l.Run(&Command{Argv: []string{"sh", "-c", "kill -INT $$; exit 0"}}, true)

	assert.True(t, completed)
	assert.Equal(t, Signaled(2), st)
}

func TestRunForegroundSignal(t *testing.T) {
	requireShell(t)
	l := newTestLauncher(afero.NewOsFs())

	st, completed := l.Run(&Command{Argv: []string{"sh", "-c", "kill -TERM $$"}}, true)

	assert.True(t, completed)
	assert.Equal(t, Signaled(15), st)
}

func TestRunOutputRedirect(t *testing.T) {
	requireShell(t)
	fs := afero.NewMemMapFs()
	l := newTestLauncher(fs)

	st, completed := l.Run(&Command{
		Argv:       []string{"sh", "-c", "echo redirected"},
		OutputPath: "out.txt",
	}, true)

	require.True(t, completed)
	assert.Equal(t, Exited(0), st)

	content, err := afero.ReadFile(fs, "out.txt")
	require.NoError(t, err)
	assert.Equal(t, "redirected\n", string(content))
	assert.Empty(t, l.out.String(), "child output went to the file, not the terminal")
}

func TestRunInputRedirect(t *testing.T) {
	requireShell(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "in.txt", []byte("a\nb\nc\n"), 0o644))
	l := newTestLauncher(fs)

	st, completed := l.Run(&Command{Argv: []string{"wc", "-l"}, InputPath: "in.txt"}, true)

	require.True(t, completed)
	assert.Equal(t, Exited(0), st)
	assert.Contains(t, l.out.String(), "3")
}

func TestRunBackground(t *testing.T) {
	requireShell(t)
	l := newTestLauncher(afero.NewOsFs())

	_, completed := l.Run(&Command{Argv: []string{"sh", "-c", "exit 3"}, Background: true}, false)

	assert.False(t, completed, "a background launch reports no status")
	assert.Contains(t, l.out.String(), "background pid is ")

	st := drainReaper(t, l.reaper, &l.out)
	assert.Equal(t, Exited(3), st)
	assert.Contains(t, l.out.String(), "is done: exit value 3")
}

func TestReaperReportsAllFinishedChildren(t *testing.T) {
	requireShell(t)
	r := NewReaper()

	first := exec.Command("sh", "-c", "exit 1")
	require.NoError(t, first.Start())
	r.Watch(first)

	second := exec.Command("sh", "-c", "exit 2")
	require.NoError(t, second.Start())
	r.Watch(second)

	var out bytes.Buffer
	seen := map[int]bool{}
	var last ExitStatus
	deadline := time.Now().Add(10 * time.Second)
	for len(seen) < 2 && time.Now().Before(deadline) {
		if st, reaped := r.Reap(&out); reaped {
			last = st
		}
		for _, c := range []*exec.Cmd{first, second} {
			if bytes.Contains(out.Bytes(), []byte(formatDonePID(c.Process.Pid))) {
				seen[c.Process.Pid] = true
			}
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Len(t, seen, 2, "both background children are announced")
	assert.Contains(t, out.String(), "is done: exit value 1")
	assert.Contains(t, out.String(), "is done: exit value 2")
	assert.False(t, last.Signaled)
	assert.Contains(t, []int{1, 2}, last.Code, "last writer wins")
}

func formatDonePID(pid int) string {
	return "background pid " + strconv.Itoa(pid) + " is done"
}
