package interp

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// Subprocess runs each execution as one interpreter process, feeding
// the source on stdin. The default command is the groovy launcher
// reading a script from stdin.
type Subprocess struct {
	Command string
	Args    []string
}

// NewSubprocess builds a subprocess executor, defaulting to `groovy -`.
func NewSubprocess(command string, args []string) Subprocess {
	if command == "" {
		command = "groovy"
		args = []string{"-"}
	}
	return Subprocess{Command: command, Args: args}
}

func (s Subprocess) Execute(ctx context.Context, source string) (Result, error) {
	cmd := exec.CommandContext(ctx, s.Command, s.Args...)
	cmd.Stdin = strings.NewReader(source)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	switch {
	case err == nil:
		res.OK = true
	case ctx.Err() != nil:
		res.ErrName = "InterruptedException"
		res.ErrMessage = "execution interrupted"
	default:
		res.ErrName = errName(err)
		res.ErrMessage = err.Error()
		res.Traceback = tracebackFromStderr(res.Stderr)
	}
	return res, nil
}

func errName(err error) string {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return "ProcessExitError"
	}
	return "ExecutorFailure"
}

// tracebackFromStderr keeps stderr lines as the textual trace shown to
// the client.
func tracebackFromStderr(stderr string) []string {
	if strings.TrimSpace(stderr) == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(stderr, "\n"), "\n")
}
