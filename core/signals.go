package core

import (
	"io"
	"os"
	"os/signal"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// Fixed notifications written by the terminal-stop handler. Kept as byte
// slices so the handler path does no formatting or allocation.
var (
	enterForegroundOnlyMsg = []byte("\nEntering foreground-only mode (& is now ignored)\n")
	exitForegroundOnlyMsg  = []byte("\nExiting foreground-only mode\n")
)

// SignalManager owns the shell's signal dispositions and the foreground-only
// flag toggled by the terminal-stop signal.
//
// The watcher goroutine is this shell's stand-in for an asynchronous signal
// handler, and it is held to the same discipline: flip the atomic flag and
// issue one direct write of a fixed byte string, nothing more. The notify
// writer must be unbuffered since the write can land between any two writes
// of the main loop.
type SignalManager struct {
	foregroundOnly atomic.Bool
	notify         io.Writer
	ch             chan os.Signal
	done           chan struct{}
}

func NewSignalManager(notify io.Writer) *SignalManager {
	return &SignalManager{notify: notify}
}

// Start makes the shell process itself immune to the interrupt signal and
// begins watching for terminal-stop. Interrupt is consumed through a
// handler rather than SIG_IGN: an ignored disposition would survive execve
// and leave every child uninterruptible, while a handler resets to default
// across exec, so foreground children can still be killed from the
// terminal.
func (m *SignalManager) Start() {
	m.ch = make(chan os.Signal, 1)
	m.done = make(chan struct{})
	signal.Notify(m.ch, os.Interrupt, unix.SIGTSTP)

	go func() {
		defer close(m.done)
		for sig := range m.ch {
			if sig == unix.SIGTSTP {
				m.toggle()
			}
			// Interrupt is dropped; the prompt loop never dies from it.
		}
	}()
}

// Stop unregisters the terminal-stop watcher and waits for it to drain.
func (m *SignalManager) Stop() {
	if m.ch == nil {
		return
	}
	signal.Stop(m.ch)
	close(m.ch)
	<-m.done
	m.ch = nil
}

// ForegroundOnly reports whether background requests are currently ignored.
func (m *SignalManager) ForegroundOnly() bool {
	return m.foregroundOnly.Load()
}

func (m *SignalManager) toggle() {
	if m.foregroundOnly.CompareAndSwap(false, true) {
		m.notify.Write(enterForegroundOnlyMsg)
		return
	}
	m.foregroundOnly.Store(false)
	m.notify.Write(exitForegroundOnlyMsg)
}
