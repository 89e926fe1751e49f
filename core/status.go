package core

import "fmt"

// ExitStatus records how the most recently waited-on child resolved. The
// shell keeps exactly one of these; every completed wait, foreground or
// background, overwrites it. The zero value reads "exit value 0", which is
// what the status builtin reports before any command has run.
type ExitStatus struct {
	// Signaled is true when the child was terminated by a signal. Code then
	// holds the signal number rather than an exit code.
	Signaled bool
	Code     int
}

// Exited builds the status of a child that returned an exit code.
func Exited(code int) ExitStatus {
	return ExitStatus{Code: code}
}

// Signaled builds the status of a child killed by a signal.
func Signaled(sig int) ExitStatus {
	return ExitStatus{Signaled: true, Code: sig}
}

func (s ExitStatus) String() string {
	if s.Signaled {
		return fmt.Sprintf("terminated by signal %d", s.Code)
	}
	return fmt.Sprintf("exit value %d", s.Code)
}
