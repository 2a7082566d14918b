package workflow

import (
	"context"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/gitrepo"
)

const (
	prepareRepositoryOperationNameConstant = "prepare-repository"
	repositoryPreparedMessageConstant      = "Repository prepared"
	logFieldForkConstant                   = "fork"
	logFieldWorkingDirectoryConstant       = "working_directory"
	logFieldClonedConstant                 = "cloned"
	forkResolvedMessageConstant            = "Fork resolved"
	logFieldDefaultBranchConstant          = "default_branch"
	logFieldIsForkConstant                 = "is_fork"
)

// PrepareRepositoryOperation resolves the fork, optionally clones it and locates the working repository.
type PrepareRepositoryOperation struct{}

// Name identifies the operation.
func (operation *PrepareRepositoryOperation) Name() string {
	return prepareRepositoryOperationNameConstant
}

// Execute advances the run to StagePrepared.
func (operation *PrepareRepositoryOperation) Execute(executionContext context.Context, environment *Environment, state *State) error {
	login, loginError := environment.HostingClient.AuthenticatedLogin(executionContext)
	if loginError != nil {
		return newStepError(OriginIdentity, state, loginError)
	}

	state.Login = login
	state.Fork = gitrepo.RepositoryIdentifier{Owner: login, Name: environment.Configuration.ForkRepositoryName}

	workingDirectory := state.WorkingDirectory
	if environment.Configuration.CloneRepository {
		clonedDirectory, cloneError := operation.cloneFork(executionContext, environment, state)
		if cloneError != nil {
			return newStepError(OriginClone, state, cloneError)
		}
		workingDirectory = clonedDirectory
	}

	repository, locateError := environment.LocateRepository(workingDirectory)
	if locateError != nil {
		return newStepError(OriginRepository, state, locateError)
	}

	state.WorkingDirectory = workingDirectory
	state.Repository = repository
	state.Stage = StagePrepared

	environment.Logger.Info(
		repositoryPreparedMessageConstant,
		zap.String(logFieldForkConstant, state.Fork.String()),
		zap.String(logFieldRepositoryRootConstant, repository.Root()),
		zap.String(logFieldWorkingDirectoryConstant, workingDirectory),
		zap.Bool(logFieldClonedConstant, environment.Configuration.CloneRepository),
	)
	return nil
}

// cloneFork verifies the fork is reachable with the token, clones it below the working directory and returns
// the clone path, which replaces the working directory for the rest of the run.
func (operation *PrepareRepositoryOperation) cloneFork(executionContext context.Context, environment *Environment, state *State) (string, error) {
	reportProgress(environment, ProgressEvent{Kind: ProgressCloningRepository, Subject: state.Fork.String()})

	forkMetadata, resolveError := environment.HostingClient.ResolveRepository(executionContext, state.Fork)
	if resolveError != nil {
		return "", resolveError
	}
	environment.Logger.Info(
		forkResolvedMessageConstant,
		zap.String(logFieldForkConstant, forkMetadata.FullName),
		zap.String(logFieldDefaultBranchConstant, forkMetadata.DefaultBranch),
		zap.Bool(logFieldIsForkConstant, forkMetadata.Fork),
	)

	cloneURL, urlError := gitrepo.FormatAuthenticatedHTTPSURL(environment.Configuration.GitHubHost, state.Fork, state.Login, environment.Token)
	if urlError != nil {
		return "", urlError
	}

	cloneDirectory := environment.PathResolver.Resolve(state.WorkingDirectory, environment.Configuration.CloneDirectory)
	if cloneError := environment.GitCommands.Clone(executionContext, state.WorkingDirectory, cloneURL, cloneDirectory); cloneError != nil {
		return "", cloneError
	}

	return cloneDirectory, nil
}
