package workflow

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/execshell"
	"github.com/tylerslaton/olmsync/internal/githubauth"
	"github.com/tylerslaton/olmsync/internal/gitrepo"
	"github.com/tylerslaton/olmsync/internal/ui"
	"github.com/tylerslaton/olmsync/internal/utils"
	"github.com/tylerslaton/olmsync/internal/utils/flags"
	"github.com/tylerslaton/olmsync/internal/workflow"
)

const (
	commandUseConstant                    = "sync"
	commandShortDescriptionConstant       = "Synchronize the downstream OLM repository with its upstream sources"
	commandLongDescriptionConstant        = "sync adds the operator-framework remotes, fetches them, creates a dated candidate branch, runs the sync script, and opens a pull request when the branch is ahead of upstream/master."
	workingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	shellExecutorErrorTemplateConstant    = "unable to construct shell executor: %w"
	commandManagerErrorTemplateConstant   = "unable to construct git command manager: %w"
	hostingClientErrorTemplateConstant    = "unable to construct GitHub client: %w"
	workflowExecutorErrorTemplateConstant = "unable to construct workflow executor: %w"
	runStartingMessageConstant            = "Sync run starting"
	logFieldConfigurationFileConstant     = "config_file"
	logFieldLogFileConstant               = "log_file"
	logFieldWorkingDirectoryConstant      = "working_directory"
)

// CommandBuilder assembles the sync command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	HumanReadableLoggingProvider func() bool
	ConfigurationProvider        func() workflow.Configuration
	EnvironmentLookup            githubauth.EnvironmentLookup
	WorkingDirectoryProvider     WorkingDirectoryProvider
	CommandRunner                execshell.CommandRunner
	HostingClientFactory         HostingClientFactory
	RepositoryLocator            workflow.RepositoryLocator
	Clock                        workflow.Clock
}

// Build constructs the sync command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.NoArgs,
	}

	defaults := workflow.DefaultConfiguration()
	flagValues := flags.BindSyncFlags(
		command,
		flags.SyncFlagValues{
			CloneRepository:     defaults.CloneRepository,
			ScriptPath:          defaults.ScriptPath,
			ExistingPullRequest: string(defaults.ExistingPullRequest),
		},
		flags.SyncFlagDefinition{ExistingPullRequestChoices: workflow.ExistingPullRequestPolicies()},
	)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		return builder.run(command, flagValues)
	}

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, flagValues *flags.SyncFlagValues) error {
	logger := resolveLogger(builder.LoggerProvider)

	token, tokenError := githubauth.RequireToken(builder.EnvironmentLookup)
	if tokenError != nil {
		failure := workflow.StepError{Origin: workflow.OriginCredential, Stage: workflow.StageStart, Cause: tokenError}
		workflow.LogFailure(logger, failure)
		return failure
	}

	configuration := builder.resolveConfiguration()
	if command.Flags().Changed(flags.CloneRepositoryFlagName) {
		configuration.CloneRepository = flagValues.CloneRepository
	}
	if command.Flags().Changed(flags.ScriptPathFlagName) {
		configuration.ScriptPath = flagValues.ScriptPath
	}
	if command.Flags().Changed(flags.ExistingPullRequestFlagName) {
		configuration.ExistingPullRequest = workflow.ExistingPullRequestPolicy(flagValues.ExistingPullRequest)
	}

	workingDirectory, workingDirectoryError := builder.resolveWorkingDirectory()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorTemplateConstant, workingDirectoryError)
	}

	runSettings, _ := utils.NewCommandContextAccessor().RunSettings(command.Context())
	logger.Debug(
		runStartingMessageConstant,
		zap.String(logFieldConfigurationFileConstant, runSettings.ConfigurationFile),
		zap.String(logFieldLogFileConstant, runSettings.LogFile),
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
	)

	shellExecutor, shellExecutorError := execshell.NewShellExecutor(logger, builder.resolveCommandRunner())
	if shellExecutorError != nil {
		return fmt.Errorf(shellExecutorErrorTemplateConstant, shellExecutorError)
	}

	commandManager, managerError := gitrepo.NewCommandManager(shellExecutor)
	if managerError != nil {
		return fmt.Errorf(commandManagerErrorTemplateConstant, managerError)
	}

	hostingClient, hostingClientError := builder.resolveHostingClientFactory()(token, configuration)
	if hostingClientError != nil {
		return fmt.Errorf(hostingClientErrorTemplateConstant, hostingClientError)
	}

	workflowDependencies := workflow.Dependencies{
		HostingClient:    hostingClient,
		GitCommands:      commandManager,
		LocateRepository: builder.resolveRepositoryLocator(),
		ScriptExecutor:   shellExecutor,
		Clock:            builder.Clock,
		Output:           command.OutOrStdout(),
		Errors:           command.ErrOrStderr(),
		Logger:           logger,
	}
	if builder.HumanReadableLoggingProvider != nil && builder.HumanReadableLoggingProvider() {
		workflowDependencies.Progress = ui.NewConsoleProgressReporter(logger)
	}

	executor, executorError := workflow.NewExecutor(workflow.DefaultOperations(), workflowDependencies)
	if executorError != nil {
		return fmt.Errorf(workflowExecutorErrorTemplateConstant, executorError)
	}

	parentContext := command.Context()
	if parentContext == nil {
		parentContext = context.Background()
	}
	executionContext, stopSignals := signal.NotifyContext(parentContext, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	_, runError := executor.Execute(executionContext, workflow.RunOptions{
		Configuration:    configuration,
		Token:            token,
		WorkingDirectory: workingDirectory,
	})
	return runError
}

func (builder *CommandBuilder) resolveConfiguration() workflow.Configuration {
	if builder.ConfigurationProvider == nil {
		return workflow.DefaultConfiguration()
	}

	provided := builder.ConfigurationProvider()
	return provided.Sanitize()
}

func (builder *CommandBuilder) resolveWorkingDirectory() (string, error) {
	if builder.WorkingDirectoryProvider != nil {
		return builder.WorkingDirectoryProvider()
	}
	return os.Getwd()
}

func (builder *CommandBuilder) resolveCommandRunner() execshell.CommandRunner {
	if builder.CommandRunner != nil {
		return builder.CommandRunner
	}
	return execshell.NewOSCommandRunner()
}

func (builder *CommandBuilder) resolveHostingClientFactory() HostingClientFactory {
	if builder.HostingClientFactory != nil {
		return builder.HostingClientFactory
	}
	return NewGitHubHostingClient
}

func (builder *CommandBuilder) resolveRepositoryLocator() workflow.RepositoryLocator {
	if builder.RepositoryLocator != nil {
		return builder.RepositoryLocator
	}
	return workflow.LocateGitRepository
}
