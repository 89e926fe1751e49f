package core

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// Launcher starts external programs. It is the single seam over the OS
// process-creation primitive: callers hand it a parsed Command and get back
// either a blocking completion status (foreground) or an announced pid
// (background). Redirection targets are opened through an afero filesystem
// so the failure paths can be exercised in memory.
type Launcher struct {
	fs     afero.Fs
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	reaper *Reaper
}

func NewLauncher(fs afero.Fs, stdin io.Reader, stdout, stderr io.Writer, reaper *Reaper) *Launcher {
	return &Launcher{
		fs:     fs,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		reaper: reaper,
	}
}

// Run launches cmd. When foreground is true it blocks until exactly that
// child completes. The returned status is meaningful only when ok is true:
// redirection and lookup failures yield a synthetic Exited(1) without the
// program ever starting, a successful background launch reports its pid
// instead of a status, and a failed process creation is reported on stderr
// so the caller leaves the last recorded status untouched.
func (l *Launcher) Run(cmd *Command, foreground bool) (status ExitStatus, ok bool) {
	child := exec.Command(cmd.Argv[0], cmd.Argv[1:]...)
	child.Stdout = l.stdout
	child.Stderr = l.stderr
	if foreground {
		// Foreground children stay in the shell's process group with
		// default dispositions, so the terminal's interrupt reaches them.
		child.Stdin = l.stdin
	} else {
		// Background children get their own process group so an interrupt
		// aimed at foreground work never reaches them; their stop
		// disposition is left alone. Without a redirect their stdin is the
		// null device since readline owns the terminal.
		child.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	var redirects []io.Closer
	if cmd.InputPath != "" {
		in, err := l.fs.Open(cmd.InputPath)
		if err != nil {
			fmt.Fprintf(l.stdout, "%s: no such file or directory\n", cmd.InputPath)
			return Exited(1), true
		}
		redirects = append(redirects, in)
		child.Stdin = in
	}
	if cmd.OutputPath != "" {
		out, err := l.fs.OpenFile(cmd.OutputPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o777)
		if err != nil {
			closeAll(redirects)
			fmt.Fprintf(l.stdout, "cannot open %s\n", cmd.OutputPath)
			return Exited(1), true
		}
		redirects = append(redirects, out)
		child.Stdout = out
	}

	if _, err := exec.LookPath(cmd.Argv[0]); err != nil {
		closeAll(redirects)
		fmt.Fprintf(l.stdout, "%s is an invalid command\n", cmd.Argv[0])
		return Exited(1), true
	}

	if err := child.Start(); err != nil {
		// The fork equivalent failed, so there is no child to attribute a
		// status to. Report it and keep the shell running.
		closeAll(redirects)
		fmt.Fprintf(l.stderr, "smallsh: %v\n", err)
		return ExitStatus{}, false
	}

	if !foreground {
		fmt.Fprintf(l.stdout, "background pid is %d\n", child.Process.Pid)
		l.reaper.Watch(child, redirects...)
		return ExitStatus{}, false
	}

	_ = child.Wait()
	closeAll(redirects)
	return waitStatus(child.ProcessState), true
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

// waitStatus decodes how a completed child ended.
func waitStatus(state *os.ProcessState) ExitStatus {
	if ws, isUnix := state.Sys().(syscall.WaitStatus); isUnix {
		if uws := unix.WaitStatus(ws); uws.Signaled() {
			return Signaled(int(uws.Signal()))
		}
	}
	return Exited(state.ExitCode())
}
