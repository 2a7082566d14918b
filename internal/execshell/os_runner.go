package execshell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner starts real processes through os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run starts the command and waits for it. A non-zero exit is reported through ExecutionResult.ExitCode;
// the error is reserved for processes that could not be started or awaited.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var capturedOutput, capturedError bytes.Buffer
	process.Stdout = streamAndCapture(&capturedOutput, command.Details.StandardOutputWriter)
	process.Stderr = streamAndCapture(&capturedError, command.Details.StandardErrorWriter)

	exitCode := 0
	if runError := process.Run(); runError != nil {
		var exitError *exec.ExitError
		if !errors.As(runError, &exitError) {
			return ExecutionResult{}, runError
		}
		exitCode = exitError.ExitCode()
	}

	return ExecutionResult{
		StandardOutput: capturedOutput.String(),
		StandardError:  capturedError.String(),
		ExitCode:       exitCode,
	}, nil
}

// mergeEnvironment appends overrides to base. A nil result keeps the parent environment.
func mergeEnvironment(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	merged := make([]string, 0, len(base)+len(overrides))
	merged = append(merged, base...)
	for variableName, variableValue := range overrides {
		merged = append(merged, variableName+environmentAssignmentSeparatorConstant+variableValue)
	}
	return merged
}

func streamAndCapture(capture *bytes.Buffer, stream io.Writer) io.Writer {
	if stream == nil {
		return capture
	}
	return io.MultiWriter(capture, stream)
}
