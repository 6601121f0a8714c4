// Package executor runs shell commands configured in valhalla.yml.
package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Shell is the interpreter used for every command.
const Shell = "/bin/bash"

// Result is the outcome of a finished command.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner runs a shell command and captures its output.
type Runner interface {
	Run(ctx context.Context, command string) (Result, error)
}

// Compile-time check that Executor implements Runner.
var _ Runner = (*Executor)(nil)

// Executor runs commands through bash in Dir.
type Executor struct {
	log *zap.SugaredLogger
	// Dir is the working directory, empty means the current one.
	Dir string
}

// New creates an Executor.
func New(log *zap.SugaredLogger) *Executor {
	return &Executor{log: log}
}

// Run executes command with bash -c. A non-zero exit status is reported in
// Result.ExitCode and is not an error; failing to start the process is.
func (e *Executor) Run(ctx context.Context, command string) (Result, error) {
	cmd := exec.CommandContext(ctx, Shell, "-c", command)
	cmd.Dir = e.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{Stdout: stdout.String(), Stderr: stderr.String()}

	if result.Stdout != "" {
		e.log.Infof("Output for command '%s':\n%s", command, strings.TrimRight(result.Stdout, "\n"))
	}
	if result.Stderr != "" {
		e.log.Warnf("Error output for command '%s':\n%s", command, strings.TrimRight(result.Stderr, "\n"))
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		e.log.Errorf("Error executing command '%s': %v", command, err)
		return result, fmt.Errorf("running %q: %w", command, err)
	}

	return result, nil
}
