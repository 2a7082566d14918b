package workflow

import (
	"context"
)

const createBranchOperationNameConstant = "create-branch"

// CreateBranchOperation checks out a new dated candidate branch from HEAD. A branch left over from an
// earlier run on the same day fails the operation.
type CreateBranchOperation struct{}

// Name identifies the operation.
func (operation *CreateBranchOperation) Name() string {
	return createBranchOperationNameConstant
}

// Execute advances the run to StageBranchCreated.
func (operation *CreateBranchOperation) Execute(executionContext context.Context, environment *Environment, state *State) error {
	branchName := BranchName(environment.Configuration.BranchPrefix, state.RunDate)
	reportProgress(environment, ProgressEvent{Kind: ProgressCreatingBranch, Subject: branchName})

	if branchError := environment.GitCommands.CreateBranch(executionContext, state.RepositoryRoot(), branchName); branchError != nil {
		return newStepError(OriginBranchCreation, state, branchError)
	}

	state.BranchName = branchName
	state.Stage = StageBranchCreated
	return nil
}
