package core

import (
	"errors"
	"strconv"
	"strings"

	"github.com/anmitsu/go-shlex"
)

// Input bounds carried over from the classic smallsh buffer sizes. Lines
// and argument vectors beyond these are rejected rather than truncated.
const (
	maxLineLen = 2048
	maxArgs    = 512
)

var (
	errLineTooLong = errors.New("smallsh: command line too long")
	errTooManyArgs = errors.New("smallsh: too many arguments")
	errSyntax      = errors.New("smallsh: syntax error")
)

// Command is the parsed form of one input line. It lives for a single
// prompt cycle and is discarded after dispatch.
type Command struct {
	Argv       []string
	InputPath  string
	OutputPath string
	Background bool
}

// Empty reports whether the line was blank or a full-line comment, in which
// case the cycle dispatches nothing.
func (c *Command) Empty() bool {
	return len(c.Argv) == 0
}

// Parse turns a raw line into a Command. Argument tokens have every
// non-overlapping "$$" replaced with the decimal digits of pid. The tokens
// following "<" and ">" are captured verbatim as the input and output paths
// and never appear in Argv. A final "&" marks the command for background
// execution and is always stripped, whether or not the request will be
// honored.
func Parse(line string, pid int) (*Command, error) {
	if len(line) >= maxLineLen {
		return nil, errLineTooLong
	}

	// Blank lines and full-line comments are discarded before any
	// tokenization, whatever else they contain.
	cmd := &Command{}
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return cmd, nil
	}

	tokens, err := shlex.Split(line, true)
	if err != nil {
		// The base contract is plain whitespace splitting; lines shlex
		// cannot parse (a lone apostrophe, an unterminated quote) get
		// exactly that.
		tokens = strings.Fields(line)
	}
	if len(tokens) == 0 {
		return cmd, nil
	}

	for i := 0; i < len(tokens); i++ {
		switch tok := tokens[i]; tok {
		case "<":
			i++
			if i == len(tokens) {
				return nil, errSyntax
			}
			cmd.InputPath = tokens[i]
		case ">":
			i++
			if i == len(tokens) {
				return nil, errSyntax
			}
			cmd.OutputPath = tokens[i]
		default:
			if tok == "&" && i == len(tokens)-1 {
				cmd.Background = true
				continue
			}
			if len(cmd.Argv) == maxArgs {
				return nil, errTooManyArgs
			}
			cmd.Argv = append(cmd.Argv, expandPID(tok, pid))
		}
	}

	return cmd, nil
}

// expandPID replaces each non-overlapping "$$" in tok with the decimal
// digits of pid.
func expandPID(tok string, pid int) string {
	if !strings.Contains(tok, "$$") {
		return tok
	}
	return strings.ReplaceAll(tok, "$$", strconv.Itoa(pid))
}
