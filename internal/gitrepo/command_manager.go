package gitrepo

import (
	"context"
	"errors"
	"strings"

	"github.com/tylerslaton/olmsync/internal/execshell"
)

const (
	gitCloneSubcommandConstant                  = "clone"
	gitFetchSubcommandConstant                  = "fetch"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCreateBranchFlagConstant                 = "-b"
	gitPushSubcommandConstant                   = "push"
	gitSetUpstreamFlagConstant                  = "--set-upstream"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	cloneURLRequiredMessageConstant             = "clone url must be provided"
	destinationRequiredMessageConstant          = "clone destination must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
)

// ErrGitExecutorNotConfigured indicates the git executor dependency was missing.
var ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)

// ErrCloneURLRequired indicates the clone URL was empty.
var ErrCloneURLRequired = errors.New(cloneURLRequiredMessageConstant)

// ErrDestinationRequired indicates the clone destination was empty.
var ErrDestinationRequired = errors.New(destinationRequiredMessageConstant)

// ErrBranchNameRequired indicates the branch name was empty.
var ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)

// GitExecutor exposes the ability to execute git commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandManager runs git CLI operations that touch the network or the worktree. Prompts are disabled so that
// missing credentials fail instead of blocking.
type CommandManager struct {
	executor GitExecutor
}

// NewCommandManager constructs a CommandManager.
func NewCommandManager(executor GitExecutor) (*CommandManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &CommandManager{executor: executor}, nil
}

// Clone clones cloneURL into destination, resolved relative to parentDirectory.
func (manager *CommandManager) Clone(executionContext context.Context, parentDirectory string, cloneURL string, destination string) error {
	if len(strings.TrimSpace(cloneURL)) == 0 {
		return ErrCloneURLRequired
	}
	if len(strings.TrimSpace(destination)) == 0 {
		return ErrDestinationRequired
	}
	return manager.run(executionContext, parentDirectory, gitCloneSubcommandConstant, cloneURL, destination)
}

// Fetch fetches a single remote.
func (manager *CommandManager) Fetch(executionContext context.Context, repositoryPath string, remoteName string) error {
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	return manager.run(executionContext, repositoryPath, gitFetchSubcommandConstant, remoteName)
}

// CreateBranch creates and checks out branchName from HEAD. It fails when the branch already exists.
func (manager *CommandManager) CreateBranch(executionContext context.Context, repositoryPath string, branchName string) error {
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	return manager.run(executionContext, repositoryPath, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, branchName)
}

// PushWithUpstream pushes branchName to remoteName and records it as the upstream branch.
func (manager *CommandManager) PushWithUpstream(executionContext context.Context, repositoryPath string, remoteName string, branchName string) error {
	if len(strings.TrimSpace(remoteName)) == 0 {
		return ErrRemoteNameRequired
	}
	if len(strings.TrimSpace(branchName)) == 0 {
		return ErrBranchNameRequired
	}
	return manager.run(executionContext, repositoryPath, gitPushSubcommandConstant, gitSetUpstreamFlagConstant, remoteName, branchName)
}

func (manager *CommandManager) run(executionContext context.Context, workingDirectory string, arguments ...string) error {
	_, executionError := manager.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: workingDirectory,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	})
	return executionError
}
