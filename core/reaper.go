package core

import (
	"fmt"
	"io"
	"os/exec"
)

// completion records one finished background child.
type completion struct {
	pid    int
	status ExitStatus
}

// Reaper collects finished background children. Each watched child gets a
// goroutine performing the blocking wait; Reap drains the results without
// ever blocking, so a completion is announced no later than the next prompt
// cycle after it happens.
type Reaper struct {
	completions chan completion
}

func NewReaper() *Reaper {
	return &Reaper{completions: make(chan completion, 64)}
}

// Watch takes ownership of a started child along with any files opened for
// its redirections, which stay open until the child is done with them.
func (r *Reaper) Watch(child *exec.Cmd, redirects ...io.Closer) {
	pid := child.Process.Pid
	go func() {
		_ = child.Wait()
		closeAll(redirects)
		r.completions <- completion{pid: pid, status: waitStatus(child.ProcessState)}
	}()
}

// Reap announces every child that has finished since the last call, one
// line per child, and returns the status of whichever was collected last.
func (r *Reaper) Reap(w io.Writer) (last ExitStatus, reaped bool) {
	for {
		select {
		case c := <-r.completions:
			fmt.Fprintf(w, "background pid %d is done: %s\n", c.pid, c.status)
			last, reaped = c.status, true
		default:
			return last, reaped
		}
	}
}
