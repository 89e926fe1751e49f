package core

import (
	"fmt"
	"os"
)

// builtinCd changes the working directory, falling back to $HOME when no
// operand is given. A failed chdir is deliberately silent and leaves the
// working directory unchanged; surfacing it is a documented non-feature of
// this shell.
func (s *Shell) builtinCd(args []string) {
	dir := os.Getenv("HOME")
	if len(args) > 1 {
		dir = args[1]
	}
	_ = os.Chdir(dir)
}

// builtinStatus reports how the most recent wait resolved, foreground or
// background. Before any command has completed it reports "exit value 0".
func (s *Shell) builtinStatus() {
	fmt.Fprintln(s.rl, s.lastStatus)
}
