package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/githubauth"
	pathutils "github.com/tylerslaton/olmsync/internal/utils/path"
)

const (
	workflowExecutionErrorTemplateConstant = "workflow operation %s failed: %w"
	hostingClientMissingMessageConstant    = "workflow executor requires a hosting client"
	gitCommandsMissingMessageConstant      = "workflow executor requires git commands"
	locatorMissingMessageConstant          = "workflow executor requires a repository locator"
	scriptExecutorMissingMessageConstant   = "workflow executor requires a script executor"
	loggerMissingMessageConstant           = "workflow executor requires a logger"
	runFinishedMessageConstant             = "Sync run finished"
	runIncompleteMessageConstant           = "workflow operations ended before the run published or completed as a no-op"
	logFieldBranchConstant                 = "branch"
	logFieldCommitCountConstant            = "commit_count"
	logFieldRepositoryRootConstant         = "repository_root"
	logFieldPullRequestURLConstant         = "pull_request_url"
)

var (
	// ErrHostingClientNotConfigured indicates the executor was built without a hosting client.
	ErrHostingClientNotConfigured = errors.New(hostingClientMissingMessageConstant)
	// ErrGitCommandsNotConfigured indicates the executor was built without git commands.
	ErrGitCommandsNotConfigured = errors.New(gitCommandsMissingMessageConstant)
	// ErrRepositoryLocatorNotConfigured indicates the executor was built without a repository locator.
	ErrRepositoryLocatorNotConfigured = errors.New(locatorMissingMessageConstant)
	// ErrScriptExecutorNotConfigured indicates the executor was built without a script executor.
	ErrScriptExecutorNotConfigured = errors.New(scriptExecutorMissingMessageConstant)
	// ErrLoggerNotConfigured indicates the executor was built without a logger.
	ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)
	// ErrRunIncomplete indicates every operation succeeded without the run reaching a terminal stage.
	ErrRunIncomplete = errors.New(runIncompleteMessageConstant)
)

// Dependencies configures shared collaborators for workflow execution.
type Dependencies struct {
	HostingClient    HostingClient
	GitCommands      GitCommands
	LocateRepository RepositoryLocator
	ScriptExecutor   ScriptExecutor
	Clock            Clock
	Progress         ProgressReporter
	PathResolver     *pathutils.PathResolver
	Output           io.Writer
	Errors           io.Writer
	Logger           *zap.Logger
}

// RunOptions captures the inputs of a single run.
type RunOptions struct {
	Configuration    Configuration
	Token            string
	WorkingDirectory string
}

// Result summarizes a finished run.
type Result struct {
	Stage              Stage
	RepositoryRoot     string
	BranchName         string
	CommitCount        int
	CreatedRemotes     []string
	PullRequest        *githubapi.PullRequest
	PullRequestOutcome PullRequestOutcome
}

// Executor coordinates workflow operation execution.
type Executor struct {
	operations   []Operation
	dependencies Dependencies
}

// DefaultOperations returns the sync steps in execution order.
func DefaultOperations() []Operation {
	return []Operation{
		&PrepareRepositoryOperation{},
		&SyncRemotesOperation{},
		&CreateBranchOperation{},
		&RunScriptOperation{},
		&PublishOperation{},
	}
}

// NewExecutor constructs an Executor instance.
func NewExecutor(operations []Operation, dependencies Dependencies) (*Executor, error) {
	switch {
	case dependencies.HostingClient == nil:
		return nil, ErrHostingClientNotConfigured
	case dependencies.GitCommands == nil:
		return nil, ErrGitCommandsNotConfigured
	case dependencies.LocateRepository == nil:
		return nil, ErrRepositoryLocatorNotConfigured
	case dependencies.ScriptExecutor == nil:
		return nil, ErrScriptExecutorNotConfigured
	case dependencies.Logger == nil:
		return nil, ErrLoggerNotConfigured
	}

	if dependencies.Clock == nil {
		dependencies.Clock = SystemClock{}
	}
	if dependencies.Progress == nil {
		dependencies.Progress = discardProgressReporter{}
	}
	if dependencies.PathResolver == nil {
		dependencies.PathResolver = pathutils.NewPathResolver()
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	if dependencies.Errors == nil {
		dependencies.Errors = io.Discard
	}

	return &Executor{operations: append([]Operation{}, operations...), dependencies: dependencies}, nil
}

// Execute runs every operation in order and stops at the first failure. Failures are logged once here and
// returned as StepError values.
func (executor *Executor) Execute(executionContext context.Context, options RunOptions) (Result, error) {
	state := &State{
		Stage:            StageStart,
		RunDate:          executor.dependencies.Clock.Now(),
		WorkingDirectory: executor.dependencies.PathResolver.ExpandHome(strings.TrimSpace(options.WorkingDirectory)),
	}

	environment, environmentError := executor.buildEnvironment(options, state)
	if environmentError != nil {
		LogFailure(executor.dependencies.Logger, environmentError)
		return resultFromState(state), environmentError
	}

	for operationIndex := range executor.operations {
		operation := executor.operations[operationIndex]
		if operation == nil {
			continue
		}
		if executeError := operation.Execute(executionContext, environment, state); executeError != nil {
			failure := asStepError(executeError, state)
			LogFailure(executor.dependencies.Logger, failure)
			return resultFromState(state), fmt.Errorf(workflowExecutionErrorTemplateConstant, operation.Name(), failure)
		}
	}

	if !state.Stage.Terminal() {
		failure := newStepError(OriginWorkflow, state, ErrRunIncomplete)
		LogFailure(executor.dependencies.Logger, failure)
		return resultFromState(state), failure
	}

	result := resultFromState(state)
	finishedFields := []zap.Field{
		zap.String(logFieldStageConstant, string(result.Stage)),
		zap.String(logFieldRepositoryRootConstant, result.RepositoryRoot),
		zap.String(logFieldBranchConstant, result.BranchName),
		zap.Int(logFieldCommitCountConstant, result.CommitCount),
	}
	if result.PullRequest != nil {
		finishedFields = append(finishedFields, zap.String(logFieldPullRequestURLConstant, result.PullRequest.URL))
	}
	executor.dependencies.Logger.Info(runFinishedMessageConstant, finishedFields...)

	return result, nil
}

func (executor *Executor) buildEnvironment(options RunOptions, state *State) (*Environment, error) {
	token := strings.TrimSpace(options.Token)
	if len(token) == 0 {
		return nil, newStepError(OriginCredential, state, githubauth.MissingTokenError{VariableName: githubauth.EnvGitHubToken})
	}

	configuration := options.Configuration.Sanitize()
	if validationError := configuration.Validate(); validationError != nil {
		return nil, newStepError(OriginConfiguration, state, validationError)
	}

	canonicalRepository, identifierError := configuration.CanonicalRepositoryIdentifier()
	if identifierError != nil {
		return nil, newStepError(OriginConfiguration, state, identifierError)
	}

	remoteTable, tableError := configuration.RemoteTable()
	if tableError != nil {
		return nil, newStepError(OriginConfiguration, state, tableError)
	}

	return &Environment{
		Configuration:       configuration,
		Token:               token,
		CanonicalRepository: canonicalRepository,
		RemoteTable:         remoteTable,
		HostingClient:       executor.dependencies.HostingClient,
		GitCommands:         executor.dependencies.GitCommands,
		LocateRepository:    executor.dependencies.LocateRepository,
		ScriptExecutor:      executor.dependencies.ScriptExecutor,
		PathResolver:        executor.dependencies.PathResolver,
		Progress:            executor.dependencies.Progress,
		Output:              executor.dependencies.Output,
		Errors:              executor.dependencies.Errors,
		Logger:              executor.dependencies.Logger,
	}, nil
}

func asStepError(executeError error, state *State) StepError {
	var stepError StepError
	if errors.As(executeError, &stepError) {
		return stepError
	}
	return StepError{Origin: OriginWorkflow, Stage: state.Stage, Cause: executeError}
}

func resultFromState(state *State) Result {
	return Result{
		Stage:              state.Stage,
		RepositoryRoot:     state.RepositoryRoot(),
		BranchName:         state.BranchName,
		CommitCount:        state.CommitCount,
		CreatedRemotes:     append([]string(nil), state.CreatedRemotes...),
		PullRequest:        state.PullRequest,
		PullRequestOutcome: state.PullRequestOutcome,
	}
}
