package core

import (
	"fmt"
	"io"
	"os"

	"github.com/abiosoft/readline"
	"github.com/spf13/afero"
)

// Prompt is the fixed marker printed before each read.
const Prompt = ": "

// ShellConfig wires a Shell to its terminal and filesystem.
type ShellConfig struct {
	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer
	// FS is used to open redirection targets. Defaults to the host
	// filesystem.
	FS afero.Fs
	// IsTerminal overrides readline's terminal detection; tests use it to
	// run scripted sessions over plain readers.
	IsTerminal func() bool
}

// Shell is the interactive command interpreter: it reads lines, expands the
// self-reference variable, dispatches builtins, and launches everything else
// as child processes.
type Shell struct {
	rl       *readline.Instance
	out      io.Writer
	signals  *SignalManager
	launcher *Launcher
	reaper   *Reaper
	pid      int

	// lastStatus is the single shared completion cell: every resolved wait,
	// foreground or background, overwrites it. Writes happen only on the
	// main loop, at dispatch and reap points.
	lastStatus ExitStatus
}

func NewShell(cfg ShellConfig) (*Shell, error) {
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}

	rlCfg := &readline.Config{
		Prompt:         Prompt,
		Stdin:          readline.NewCancelableStdin(cfg.Stdin),
		Stdout:         cfg.Stdout,
		Stderr:         cfg.Stderr,
		FuncIsTerminal: cfg.IsTerminal,
	}
	if err := rlCfg.Init(); err != nil {
		return nil, err
	}
	rl, err := readline.NewEx(rlCfg)
	if err != nil {
		return nil, err
	}

	// Foreground children get the terminal descriptor when there is one.
	// Any other reader belongs to readline alone: sharing it with a child
	// through a pipe would let the child siphon off the shell's own input.
	var childStdin io.Reader
	if f, isFile := cfg.Stdin.(*os.File); isFile {
		childStdin = f
	}

	reaper := NewReaper()
	sh := &Shell{
		rl:      rl,
		out:     cfg.Stdout,
		signals: NewSignalManager(cfg.Stdout),
		reaper:  reaper,
		pid:     os.Getpid(),
	}
	sh.launcher = NewLauncher(cfg.FS, childStdin, cfg.Stdout, cfg.Stderr, reaper)
	return sh, nil
}

// Run reads and dispatches commands until the exit builtin or end of input.
// Background completions are collected at the end of every cycle, dispatch
// or no dispatch.
func (s *Shell) Run() error {
	s.signals.Start()
	defer s.signals.Stop()

	for {
		line, err := s.rl.Readline()
		switch {
		case err == io.EOF:
			return nil
		case err == readline.ErrInterrupt:
			continue
		case err != nil:
			return err
		}

		cmd, err := Parse(line, s.pid)
		switch {
		case err != nil:
			fmt.Fprintln(s.rl, err)
		case cmd.Empty():
			// Blank line or comment.
		default:
			if s.dispatch(cmd) {
				return nil
			}
		}

		if st, reaped := s.reaper.Reap(s.out); reaped {
			s.lastStatus = st
		}
	}
}

// dispatch runs one parsed command and reports whether the shell should
// exit. A background request is ignored while foreground-only mode is
// active.
func (s *Shell) dispatch(cmd *Command) (quit bool) {
	switch cmd.Argv[0] {
	case "exit":
		return true
	case "cd":
		s.builtinCd(cmd.Argv)
	case "status":
		s.builtinStatus()
	default:
		foreground := !cmd.Background || s.signals.ForegroundOnly()
		if st, completed := s.launcher.Run(cmd, foreground); completed {
			s.lastStatus = st
		}
	}
	return false
}

func (s *Shell) Close() error {
	return s.rl.Close()
}
