package workflow

import (
	"context"
	"strings"

	"github.com/tylerslaton/olmsync/internal/execshell"
)

const (
	runScriptOperationNameConstant = "run-sync-script"
	pathSeparatorsConstant         = `/\`
)

// RunScriptOperation runs the external sync script in the working directory and streams its output.
type RunScriptOperation struct{}

// Name identifies the operation.
func (operation *RunScriptOperation) Name() string {
	return runScriptOperationNameConstant
}

// Execute advances the run to StageSynced. A non-zero exit stops the run before anything is published.
func (operation *RunScriptOperation) Execute(executionContext context.Context, environment *Environment, state *State) error {
	configuredScriptPath := environment.Configuration.ScriptPath
	reportProgress(environment, ProgressEvent{Kind: ProgressRunningScript, Subject: configuredScriptPath})

	commandDetails := execshell.CommandDetails{
		WorkingDirectory:     state.WorkingDirectory,
		StandardOutputWriter: environment.Output,
		StandardErrorWriter:  environment.Errors,
	}
	scriptPath := resolveScriptPath(environment, state.WorkingDirectory, configuredScriptPath)
	if _, scriptError := environment.ScriptExecutor.ExecuteScript(executionContext, scriptPath, commandDetails); scriptError != nil {
		return newStepError(OriginSubprocess, state, scriptError)
	}

	state.Stage = StageSynced
	return nil
}

// resolveScriptPath anchors paths to the working directory. Bare executable names are left for PATH lookup.
func resolveScriptPath(environment *Environment, workingDirectory string, scriptPath string) string {
	trimmedScriptPath := strings.TrimSpace(scriptPath)
	if !strings.ContainsAny(trimmedScriptPath, pathSeparatorsConstant) {
		return trimmedScriptPath
	}
	return environment.PathResolver.Resolve(workingDirectory, trimmedScriptPath)
}
