package workflow_test

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/execshell"
	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/gitrepo"
	"github.com/tylerslaton/olmsync/internal/workflow"
)

const (
	testLoginConstant            = "alice"
	testTokenConstant            = "ghp_secret"
	testWorkingDirectoryConstant = "/work/olm"
	testRepositoryRootConstant   = "/work/olm"
	testPullRequestURLConstant   = "https://github.com/openshift/operator-framework-olm/pull/7"
	testPullRequestNumberConst   = 7
	testCloneCallTemplate        = "clone %s %s %s"
	testFetchCallTemplate        = "fetch %s %s"
	testBranchCallTemplate       = "branch %s %s"
	testPushCallTemplate         = "push %s %s %s"
	testCountRangeTemplate       = "%s..%s"
	testOperationClone           = "clone"
	testOperationFetch           = "fetch"
	testOperationBranch          = "branch"
	testOperationPush            = "push"
)

var testRunMoment = time.Date(2024, time.May, 1, 9, 30, 0, 0, time.Local)

type pullRequestUpdate struct {
	repository gitrepo.RepositoryIdentifier
	number     int
	title      string
	body       string
}

type fakeHostingClient struct {
	login                string
	loginError           error
	resolveError         error
	resolvedRepositories []gitrepo.RepositoryIdentifier
	createdPullRequest   githubapi.PullRequest
	createError          error
	createdRepositories  []gitrepo.RepositoryIdentifier
	createdRequests      []githubapi.NewPullRequest
	openPullRequest      githubapi.PullRequest
	openPullRequestFound bool
	findError            error
	findCalls            int
	updateError          error
	updates              []pullRequestUpdate
	calls                int
}

func (client *fakeHostingClient) AuthenticatedLogin(context.Context) (string, error) {
	client.calls++
	return client.login, client.loginError
}

func (client *fakeHostingClient) ResolveRepository(_ context.Context, repository gitrepo.RepositoryIdentifier) (githubapi.RepositoryMetadata, error) {
	client.calls++
	client.resolvedRepositories = append(client.resolvedRepositories, repository)
	if client.resolveError != nil {
		return githubapi.RepositoryMetadata{}, client.resolveError
	}
	return githubapi.RepositoryMetadata{FullName: repository.String(), DefaultBranch: "master", Fork: true}, nil
}

func (client *fakeHostingClient) CreatePullRequest(_ context.Context, repository gitrepo.RepositoryIdentifier, request githubapi.NewPullRequest) (githubapi.PullRequest, error) {
	client.calls++
	client.createdRepositories = append(client.createdRepositories, repository)
	client.createdRequests = append(client.createdRequests, request)
	if client.createError != nil {
		return githubapi.PullRequest{}, client.createError
	}
	return client.createdPullRequest, nil
}

func (client *fakeHostingClient) FindOpenPullRequest(context.Context, gitrepo.RepositoryIdentifier, string, string) (githubapi.PullRequest, bool, error) {
	client.calls++
	client.findCalls++
	return client.openPullRequest, client.openPullRequestFound, client.findError
}

func (client *fakeHostingClient) UpdatePullRequest(_ context.Context, repository gitrepo.RepositoryIdentifier, number int, title string, body string) (githubapi.PullRequest, error) {
	client.calls++
	client.updates = append(client.updates, pullRequestUpdate{repository: repository, number: number, title: title, body: body})
	if client.updateError != nil {
		return githubapi.PullRequest{}, client.updateError
	}
	updated := client.openPullRequest
	updated.Title = title
	return updated, nil
}

type fakeGitCommands struct {
	calls    []string
	failures map[string]error
}

func (commands *fakeGitCommands) Clone(_ context.Context, parentDirectory string, cloneURL string, destination string) error {
	commands.calls = append(commands.calls, fmt.Sprintf(testCloneCallTemplate, parentDirectory, cloneURL, destination))
	return commands.failures[testOperationClone]
}

func (commands *fakeGitCommands) Fetch(_ context.Context, repositoryPath string, remoteName string) error {
	commands.calls = append(commands.calls, fmt.Sprintf(testFetchCallTemplate, repositoryPath, remoteName))
	return commands.failures[testOperationFetch]
}

func (commands *fakeGitCommands) CreateBranch(_ context.Context, repositoryPath string, branchName string) error {
	commands.calls = append(commands.calls, fmt.Sprintf(testBranchCallTemplate, repositoryPath, branchName))
	return commands.failures[testOperationBranch]
}

func (commands *fakeGitCommands) PushWithUpstream(_ context.Context, repositoryPath string, remoteName string, branchName string) error {
	commands.calls = append(commands.calls, fmt.Sprintf(testPushCallTemplate, repositoryPath, remoteName, branchName))
	return commands.failures[testOperationPush]
}

type fakeRepository struct {
	root          string
	remoteNames   []string
	createError   error
	commitCount   int
	countError    error
	countedRanges []string
}

func (repository *fakeRepository) Root() string {
	return repository.root
}

func (repository *fakeRepository) RemoteNames() ([]string, error) {
	return append([]string(nil), repository.remoteNames...), nil
}

func (repository *fakeRepository) CreateRemote(name string, _ string) error {
	if repository.createError != nil {
		return repository.createError
	}
	repository.remoteNames = append(repository.remoteNames, name)
	return nil
}

func (repository *fakeRepository) CountCommits(_ context.Context, baseRevision string, headRevision string) (int, error) {
	repository.countedRanges = append(repository.countedRanges, fmt.Sprintf(testCountRangeTemplate, baseRevision, headRevision))
	return repository.commitCount, repository.countError
}

type scriptInvocation struct {
	scriptPath string
	details    execshell.CommandDetails
}

type fakeScriptExecutor struct {
	invocations []scriptInvocation
	failure     error
}

func (executor *fakeScriptExecutor) ExecuteScript(_ context.Context, scriptPath string, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.invocations = append(executor.invocations, scriptInvocation{scriptPath: scriptPath, details: details})
	if executor.failure != nil {
		return execshell.ExecutionResult{}, executor.failure
	}
	return execshell.ExecutionResult{}, nil
}

type recordingProgressReporter struct {
	events []workflow.ProgressEvent
}

func (reporter *recordingProgressReporter) Report(event workflow.ProgressEvent) {
	reporter.events = append(reporter.events, event)
}

func (reporter *recordingProgressReporter) kinds() []workflow.ProgressEventKind {
	kinds := make([]workflow.ProgressEventKind, 0, len(reporter.events))
	for _, event := range reporter.events {
		kinds = append(kinds, event.Kind)
	}
	return kinds
}

type workflowHarness struct {
	hostingClient  *fakeHostingClient
	gitCommands    *fakeGitCommands
	repository     *fakeRepository
	scriptExecutor *fakeScriptExecutor
	progress       *recordingProgressReporter
	locatedPaths   []string
	locateError    error
	logger         *zap.Logger
}

func newWorkflowHarness() *workflowHarness {
	return &workflowHarness{
		hostingClient: &fakeHostingClient{
			login:              testLoginConstant,
			createdPullRequest: githubapi.PullRequest{Number: testPullRequestNumberConst, URL: testPullRequestURLConstant},
		},
		gitCommands:    &fakeGitCommands{failures: map[string]error{}},
		repository:     &fakeRepository{root: testRepositoryRootConstant, remoteNames: []string{"origin"}, commitCount: 2},
		scriptExecutor: &fakeScriptExecutor{},
		progress:       &recordingProgressReporter{},
		logger:         zap.NewNop(),
	}
}

func (harness *workflowHarness) locate(startDirectory string) (workflow.Repository, error) {
	harness.locatedPaths = append(harness.locatedPaths, startDirectory)
	if harness.locateError != nil {
		return nil, harness.locateError
	}
	return harness.repository, nil
}

func (harness *workflowHarness) dependencies() workflow.Dependencies {
	return workflow.Dependencies{
		HostingClient:    harness.hostingClient,
		GitCommands:      harness.gitCommands,
		LocateRepository: harness.locate,
		ScriptExecutor:   harness.scriptExecutor,
		Clock:            workflow.ClockFunc(func() time.Time { return testRunMoment }),
		Progress:         harness.progress,
		Logger:           harness.logger,
	}
}

func (harness *workflowHarness) runOptions(configure func(configuration *workflow.Configuration)) workflow.RunOptions {
	configuration := workflow.DefaultConfiguration()
	if configure != nil {
		configure(&configuration)
	}
	return workflow.RunOptions{
		Configuration:    configuration,
		Token:            testTokenConstant,
		WorkingDirectory: testWorkingDirectoryConstant,
	}
}
