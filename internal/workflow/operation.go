package workflow

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/execshell"
	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/gitrepo"
	"github.com/tylerslaton/olmsync/internal/remotes"
	pathutils "github.com/tylerslaton/olmsync/internal/utils/path"
)

// Operation coordinates a single step of a sync run.
type Operation interface {
	Name() string
	Execute(executionContext context.Context, environment *Environment, state *State) error
}

// HostingClient is the subset of the GitHub API a run needs.
type HostingClient interface {
	AuthenticatedLogin(executionContext context.Context) (string, error)
	ResolveRepository(executionContext context.Context, repository gitrepo.RepositoryIdentifier) (githubapi.RepositoryMetadata, error)
	CreatePullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, request githubapi.NewPullRequest) (githubapi.PullRequest, error)
	FindOpenPullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, head string, base string) (githubapi.PullRequest, bool, error)
	UpdatePullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, number int, title string, body string) (githubapi.PullRequest, error)
}

// GitCommands runs the git porcelain commands that need the git executable.
type GitCommands interface {
	Clone(executionContext context.Context, parentDirectory string, cloneURL string, destination string) error
	Fetch(executionContext context.Context, repositoryPath string, remoteName string) error
	CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error
	PushWithUpstream(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error
}

// Repository exposes the repository inspection a run performs in-process.
type Repository interface {
	Root() string
	RemoteNames() ([]string, error)
	CreateRemote(name string, remoteURL string) error
	CountCommits(executionContext context.Context, baseRevision string, headRevision string) (int, error)
}

// RepositoryLocator finds the repository enclosing a directory.
type RepositoryLocator func(startDirectory string) (Repository, error)

// LocateGitRepository discovers a repository with go-git by walking up from startDirectory.
func LocateGitRepository(startDirectory string) (Repository, error) {
	repository, locateError := gitrepo.Locate(startDirectory)
	if locateError != nil {
		return nil, locateError
	}
	return repository, nil
}

// ScriptExecutor runs the external sync script.
type ScriptExecutor interface {
	ExecuteScript(executionContext context.Context, scriptPath string, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Environment exposes shared dependencies and validated settings to operations.
type Environment struct {
	Configuration       Configuration
	Token               string
	CanonicalRepository gitrepo.RepositoryIdentifier
	RemoteTable         remotes.Table
	HostingClient       HostingClient
	GitCommands         GitCommands
	LocateRepository    RepositoryLocator
	ScriptExecutor      ScriptExecutor
	PathResolver        *pathutils.PathResolver
	Progress            ProgressReporter
	Output              io.Writer
	Errors              io.Writer
	Logger              *zap.Logger
}

// PullRequestOutcome records how publishing obtained its pull request.
type PullRequestOutcome string

// Pull request outcomes.
const (
	PullRequestNone     PullRequestOutcome = ""
	PullRequestCreated  PullRequestOutcome = "created"
	PullRequestExisting PullRequestOutcome = "existing"
	PullRequestUpdated  PullRequestOutcome = "updated"
)

// State tracks the progress of a single run. RunDate is read once so the branch name and pull request
// title always agree.
type State struct {
	Stage              Stage
	RunDate            time.Time
	WorkingDirectory   string
	Login              string
	Fork               gitrepo.RepositoryIdentifier
	Repository         Repository
	BranchName         string
	CreatedRemotes     []string
	FetchedRemotes     []string
	CommitCount        int
	PullRequest        *githubapi.PullRequest
	PullRequestOutcome PullRequestOutcome
}

// RepositoryRoot returns the located repository root, or an empty string before preparation.
func (state *State) RepositoryRoot() string {
	if state == nil || state.Repository == nil {
		return ""
	}
	return state.Repository.Root()
}
