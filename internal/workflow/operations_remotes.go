package workflow

import (
	"context"

	"github.com/tylerslaton/olmsync/internal/remotes"
)

const syncRemotesOperationNameConstant = "sync-remotes"

// SyncRemotesOperation adds missing table remotes and fetches every configured remote.
type SyncRemotesOperation struct{}

// Name identifies the operation.
func (operation *SyncRemotesOperation) Name() string {
	return syncRemotesOperationNameConstant
}

// Execute advances the run to StageRemotesReady.
func (operation *SyncRemotesOperation) Execute(executionContext context.Context, environment *Environment, state *State) error {
	remoteExecutor, executorError := remotes.NewExecutor(remotes.Dependencies{
		Repository: state.Repository,
		Fetcher:    environment.GitCommands,
		Logger:     environment.Logger,
	})
	if executorError != nil {
		return newStepError(OriginRemoteSetup, state, executorError)
	}

	reportProgress(environment, ProgressEvent{Kind: ProgressAddingRemotes, Count: len(environment.RemoteTable.Definitions())})
	ensureResult, ensureError := remoteExecutor.EnsureRemotes(executionContext, environment.RemoteTable)
	state.CreatedRemotes = ensureResult.Created
	if ensureError != nil {
		return newStepError(OriginRemoteSetup, state, ensureError)
	}

	reportProgress(environment, ProgressEvent{Kind: ProgressFetchingRemotes})
	fetchedRemotes, fetchError := remoteExecutor.FetchRemotes(executionContext, state.RepositoryRoot())
	state.FetchedRemotes = fetchedRemotes
	if fetchError != nil {
		return newStepError(OriginFetch, state, fetchError)
	}

	state.Stage = StageRemotesReady
	return nil
}
