package workflow_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	workflowcmd "github.com/tylerslaton/olmsync/cmd/cli/workflow"
	"github.com/tylerslaton/olmsync/internal/execshell"
	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/githubauth"
	"github.com/tylerslaton/olmsync/internal/gitrepo"
	"github.com/tylerslaton/olmsync/internal/workflow"
)

const (
	testTokenConstant            = "ghp_secret_value"
	testLoginConstant            = "alice"
	testWorkingDirectoryConstant = "/work/olm"
	testGitCloneArgument         = "clone"
	testGitPushArgument          = "push"
	testScriptCommandConstant    = "/work/olm/scripts/sync.sh"
	testRunFailedMessageConstant = "Sync run failed"
)

type recordingCommandRunner struct {
	commands  []execshell.ShellCommand
	exitCodes map[string]int
}

func (runner *recordingCommandRunner) Run(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.commands = append(runner.commands, command)
	return execshell.ExecutionResult{ExitCode: runner.exitCodes[string(command.Name)]}, nil
}

func (runner *recordingCommandRunner) gitSubcommands() []string {
	var subcommands []string
	for _, command := range runner.commands {
		if command.Name == execshell.CommandGit && len(command.Details.Arguments) > 0 {
			subcommands = append(subcommands, command.Details.Arguments[0])
		}
	}
	return subcommands
}

func (runner *recordingCommandRunner) scriptNames() []string {
	var names []string
	for _, command := range runner.commands {
		if command.Name != execshell.CommandGit {
			names = append(names, string(command.Name))
		}
	}
	return names
}

type stubHostingClient struct {
	pullRequests []githubapi.NewPullRequest
}

func (client *stubHostingClient) AuthenticatedLogin(context.Context) (string, error) {
	return testLoginConstant, nil
}

func (client *stubHostingClient) ResolveRepository(_ context.Context, repository gitrepo.RepositoryIdentifier) (githubapi.RepositoryMetadata, error) {
	return githubapi.RepositoryMetadata{FullName: repository.String(), Fork: true}, nil
}

func (client *stubHostingClient) CreatePullRequest(_ context.Context, _ gitrepo.RepositoryIdentifier, request githubapi.NewPullRequest) (githubapi.PullRequest, error) {
	client.pullRequests = append(client.pullRequests, request)
	return githubapi.PullRequest{Number: 1, URL: "https://github.com/openshift/operator-framework-olm/pull/1", Title: request.Title, Head: request.Head}, nil
}

func (client *stubHostingClient) FindOpenPullRequest(context.Context, gitrepo.RepositoryIdentifier, string, string) (githubapi.PullRequest, bool, error) {
	return githubapi.PullRequest{}, false, nil
}

func (client *stubHostingClient) UpdatePullRequest(context.Context, gitrepo.RepositoryIdentifier, int, string, string) (githubapi.PullRequest, error) {
	return githubapi.PullRequest{}, nil
}

type stubRepository struct {
	commitCount int
}

func (repository *stubRepository) Root() string {
	return testWorkingDirectoryConstant
}

func (repository *stubRepository) RemoteNames() ([]string, error) {
	return []string{"api", "operator-lifecycle-manager", "operator-registry", "origin", "upstream"}, nil
}

func (repository *stubRepository) CreateRemote(string, string) error {
	return nil
}

func (repository *stubRepository) CountCommits(context.Context, string, string) (int, error) {
	return repository.commitCount, nil
}

type commandFixture struct {
	runner         *recordingCommandRunner
	hostingClient  *stubHostingClient
	repository     *stubRepository
	environment    map[string]string
	configuration  workflow.Configuration
	factoryCalls   int
	locatedPaths   []string
	observedLogs   *observer.ObservedLogs
	logger         *zap.Logger
	standardOutput *bytes.Buffer
}

func newCommandFixture() *commandFixture {
	observedCore, observedLogs := observer.New(zapcore.DebugLevel)
	return &commandFixture{
		runner:         &recordingCommandRunner{exitCodes: map[string]int{}},
		hostingClient:  &stubHostingClient{},
		repository:     &stubRepository{commitCount: 1},
		environment:    map[string]string{githubauth.EnvGitHubToken: testTokenConstant},
		configuration:  workflow.DefaultConfiguration(),
		observedLogs:   observedLogs,
		logger:         zap.New(observedCore),
		standardOutput: &bytes.Buffer{},
	}
}

func (fixture *commandFixture) execute(testInstance *testing.T, arguments ...string) error {
	testInstance.Helper()

	builder := workflowcmd.CommandBuilder{
		LoggerProvider:               func() *zap.Logger { return fixture.logger },
		HumanReadableLoggingProvider: func() bool { return true },
		ConfigurationProvider:        func() workflow.Configuration { return fixture.configuration },
		EnvironmentLookup:            githubauth.MapLookup(fixture.environment),
		WorkingDirectoryProvider:     func() (string, error) { return testWorkingDirectoryConstant, nil },
		CommandRunner:                fixture.runner,
		HostingClientFactory: func(string, workflow.Configuration) (workflow.HostingClient, error) {
			fixture.factoryCalls++
			return fixture.hostingClient, nil
		},
		RepositoryLocator: func(startDirectory string) (workflow.Repository, error) {
			fixture.locatedPaths = append(fixture.locatedPaths, startDirectory)
			return fixture.repository, nil
		},
		Clock: workflow.ClockFunc(func() time.Time {
			return time.Date(2024, time.May, 1, 10, 0, 0, 0, time.Local)
		}),
	}

	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetArgs(arguments)
	command.SetOut(fixture.standardOutput)
	command.SetErr(&bytes.Buffer{})
	command.SilenceUsage = true
	command.SilenceErrors = true
	command.SetContext(context.Background())
	return command.Execute()
}

func TestSyncCommandRequiresTokenBeforeAnyWork(testInstance *testing.T) {
	testCases := []struct {
		name        string
		environment map[string]string
	}{
		{name: "token_absent", environment: map[string]string{}},
		{name: "token_blank", environment: map[string]string{githubauth.EnvGitHubToken: "   "}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCommandFixture()
			fixture.environment = testCase.environment

			executionError := fixture.execute(testInstance)
			require.Error(testInstance, executionError)

			var missingTokenError githubauth.MissingTokenError
			require.ErrorAs(testInstance, executionError, &missingTokenError)
			var stepError workflow.StepError
			require.ErrorAs(testInstance, executionError, &stepError)
			require.Equal(testInstance, workflow.OriginCredential, stepError.Origin)

			require.Zero(testInstance, fixture.factoryCalls)
			require.Empty(testInstance, fixture.runner.commands)
			require.Empty(testInstance, fixture.locatedPaths)
			require.Len(testInstance, fixture.observedLogs.FilterMessage(testRunFailedMessageConstant).All(), 1)
		})
	}
}

func TestSyncCommandClonesOnlyForLiteralTrue(testInstance *testing.T) {
	testCases := []struct {
		name        string
		arguments   []string
		expectClone bool
	}{
		{name: "literal_true", arguments: []string{"--clone-repository", "true"}, expectClone: true},
		{name: "literal_true_equals_form", arguments: []string{"--clone-repository=true"}, expectClone: true},
		{name: "capitalized_true", arguments: []string{"--clone-repository", "True"}, expectClone: false},
		{name: "numeric_one", arguments: []string{"--clone-repository", "1"}, expectClone: false},
		{name: "yes", arguments: []string{"--clone-repository", "yes"}, expectClone: false},
		{name: "flag_absent", arguments: nil, expectClone: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCommandFixture()

			require.NoError(testInstance, fixture.execute(testInstance, testCase.arguments...))

			cloned := false
			for _, subcommand := range fixture.runner.gitSubcommands() {
				if subcommand == testGitCloneArgument {
					cloned = true
				}
			}
			require.Equal(testInstance, testCase.expectClone, cloned)

			expectedLocatedPath := testWorkingDirectoryConstant
			if testCase.expectClone {
				expectedLocatedPath = testWorkingDirectoryConstant + "/sync-dir"
			}
			require.Equal(testInstance, []string{expectedLocatedPath}, fixture.locatedPaths)
		})
	}
}

func TestSyncCommandNeverLogsTheToken(testInstance *testing.T) {
	fixture := newCommandFixture()

	require.NoError(testInstance, fixture.execute(testInstance, "--clone-repository", "true"))

	var cloneCommand *execshell.ShellCommand
	for commandIndex := range fixture.runner.commands {
		command := fixture.runner.commands[commandIndex]
		if command.Name == execshell.CommandGit && command.Details.Arguments[0] == testGitCloneArgument {
			cloneCommand = &command
		}
	}
	require.NotNil(testInstance, cloneCommand)
	require.Contains(testInstance, cloneCommand.Details.Arguments[1], testTokenConstant)
	require.Equal(testInstance, "0", cloneCommand.Details.EnvironmentVariables["GIT_TERMINAL_PROMPT"])

	require.NotEmpty(testInstance, fixture.observedLogs.All())
	for _, entry := range fixture.observedLogs.All() {
		require.NotContains(testInstance, entry.Message, testTokenConstant)
		require.NotContains(testInstance, fmt.Sprint(entry.ContextMap()), testTokenConstant)
	}
}

func TestSyncCommandFlagsOverrideConfiguration(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		configuredScriptPath string
		arguments            []string
		expectedScript       string
	}{
		{
			name:                 "configuration_applies_without_flags",
			configuredScriptPath: "./hack/olm-sync.sh",
			expectedScript:       "/work/olm/hack/olm-sync.sh",
		},
		{
			name:                 "flag_overrides_configuration",
			configuredScriptPath: "./hack/olm-sync.sh",
			arguments:            []string{"--script-path", "./scripts/custom.sh"},
			expectedScript:       "/work/olm/scripts/custom.sh",
		},
		{
			name:           "default_script",
			expectedScript: testScriptCommandConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newCommandFixture()
			fixture.configuration.ScriptPath = testCase.configuredScriptPath

			require.NoError(testInstance, fixture.execute(testInstance, testCase.arguments...))
			require.Equal(testInstance, []string{testCase.expectedScript}, fixture.runner.scriptNames())
		})
	}
}

func TestSyncCommandPublishesWithDatedBranch(testInstance *testing.T) {
	fixture := newCommandFixture()
	fixture.repository.commitCount = 4

	require.NoError(testInstance, fixture.execute(testInstance))

	var checkoutArguments, pushArguments []string
	for _, command := range fixture.runner.commands {
		if command.Name != execshell.CommandGit {
			continue
		}
		switch command.Details.Arguments[0] {
		case "checkout":
			checkoutArguments = command.Details.Arguments
		case testGitPushArgument:
			pushArguments = command.Details.Arguments
		}
	}
	require.Equal(testInstance, []string{"checkout", "-b", "sync-2024-05-01"}, checkoutArguments)
	require.Equal(testInstance, []string{"push", "--set-upstream", "origin", "sync-2024-05-01"}, pushArguments)

	require.Len(testInstance, fixture.hostingClient.pullRequests, 1)
	require.Equal(testInstance, "alice:sync-2024-05-01", fixture.hostingClient.pullRequests[0].Head)
	require.Equal(testInstance, "Sync 2024-05-01", fixture.hostingClient.pullRequests[0].Title)
}

func TestSyncCommandStopsWhenScriptFails(testInstance *testing.T) {
	fixture := newCommandFixture()
	fixture.runner.exitCodes[testScriptCommandConstant] = 1

	executionError := fixture.execute(testInstance)
	require.Error(testInstance, executionError)

	var stepError workflow.StepError
	require.ErrorAs(testInstance, executionError, &stepError)
	require.Equal(testInstance, workflow.OriginSubprocess, stepError.Origin)

	require.NotContains(testInstance, fixture.runner.gitSubcommands(), testGitPushArgument)
	require.Empty(testInstance, fixture.hostingClient.pullRequests)
}

func TestSyncCommandRejectsUnknownExistingPullRequestPolicy(testInstance *testing.T) {
	fixture := newCommandFixture()

	executionError := fixture.execute(testInstance, "--existing-pull-request", "merge")
	require.Error(testInstance, executionError)
	require.Zero(testInstance, fixture.factoryCalls)
	require.Empty(testInstance, fixture.runner.commands)
}

func TestSyncCommandRejectsPositionalArguments(testInstance *testing.T) {
	fixture := newCommandFixture()

	require.Error(testInstance, fixture.execute(testInstance, "unexpected"))
	require.Empty(testInstance, fixture.runner.commands)
}
