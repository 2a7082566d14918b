package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/githubapi"
)

const (
	publishOperationNameConstant       = "publish"
	headRevisionConstant               = "HEAD"
	existingPullRequestMissingTemplate = "no open pull request found for %s after creation was rejected: %w"
	commitsCountedMessageConstant      = "Counted commits ahead of baseline"
	pullRequestReadyMessageConstant    = "Pull request ready"
	logFieldBaselineConstant           = "baseline"
	logFieldPullRequestNumberConstant  = "pull_request_number"
	logFieldPullRequestOutcomeConstant = "pull_request_outcome"
)

// PublishOperation pushes the candidate branch and opens a pull request when it carries commits the
// baseline lacks.
type PublishOperation struct{}

// Name identifies the operation.
func (operation *PublishOperation) Name() string {
	return publishOperationNameConstant
}

// Execute advances the run to StagePublished, or to StageNoOpComplete when nothing is ahead of the baseline.
func (operation *PublishOperation) Execute(executionContext context.Context, environment *Environment, state *State) error {
	baselineRef := environment.Configuration.BaselineRef
	reportProgress(environment, ProgressEvent{Kind: ProgressCheckingCommits, Subject: baselineRef})

	commitCount, countError := state.Repository.CountCommits(executionContext, baselineRef, headRevisionConstant)
	if countError != nil {
		return newStepError(OriginCommitCount, state, countError)
	}

	state.CommitCount = commitCount
	environment.Logger.Debug(
		commitsCountedMessageConstant,
		zap.String(logFieldBaselineConstant, baselineRef),
		zap.Int(logFieldCommitCountConstant, commitCount),
	)
	reportProgress(environment, ProgressEvent{Kind: ProgressCommitsCounted, Subject: baselineRef, Count: commitCount})

	if commitCount == 0 {
		reportProgress(environment, ProgressEvent{Kind: ProgressNothingToPublish, Subject: baselineRef})
		state.Stage = StageNoOpComplete
		return nil
	}

	reportProgress(environment, ProgressEvent{Kind: ProgressPushingBranch, Subject: state.BranchName, Detail: state.Fork.String()})
	pushRemote := environment.Configuration.PushRemote
	if pushError := environment.GitCommands.PushWithUpstream(executionContext, state.RepositoryRoot(), pushRemote, state.BranchName); pushError != nil {
		return newStepError(OriginPush, state, pushError)
	}

	pullRequest, outcome, pullRequestError := operation.openPullRequest(executionContext, environment, state)
	if pullRequestError != nil {
		return newStepError(OriginPullRequest, state, pullRequestError)
	}

	state.PullRequest = &pullRequest
	state.PullRequestOutcome = outcome
	state.Stage = StagePublished

	environment.Logger.Info(
		pullRequestReadyMessageConstant,
		zap.Int(logFieldPullRequestNumberConstant, pullRequest.Number),
		zap.String(logFieldPullRequestURLConstant, pullRequest.URL),
		zap.String(logFieldPullRequestOutcomeConstant, string(outcome)),
	)
	return nil
}

func (operation *PublishOperation) openPullRequest(executionContext context.Context, environment *Environment, state *State) (githubapi.PullRequest, PullRequestOutcome, error) {
	title := PullRequestTitle(state.RunDate)
	head := githubapi.FormatHead(state.Login, state.BranchName)
	baseBranch := environment.Configuration.BaseBranch

	reportProgress(environment, ProgressEvent{Kind: ProgressCreatingPullRequest, Subject: title, Detail: environment.CanonicalRepository.String()})
	createdPullRequest, createError := environment.HostingClient.CreatePullRequest(executionContext, environment.CanonicalRepository, githubapi.NewPullRequest{
		Title: title,
		Body:  title,
		Head:  head,
		Base:  baseBranch,
	})
	if createError == nil {
		reportProgress(environment, ProgressEvent{Kind: ProgressPullRequestCreated, Subject: title, Detail: createdPullRequest.URL})
		return createdPullRequest, PullRequestCreated, nil
	}

	var existsError githubapi.PullRequestExistsError
	policy := environment.Configuration.ExistingPullRequest
	if !errors.As(createError, &existsError) || policy == ExistingPullRequestFail {
		return githubapi.PullRequest{}, PullRequestNone, createError
	}

	existingPullRequest, found, findError := environment.HostingClient.FindOpenPullRequest(executionContext, environment.CanonicalRepository, head, baseBranch)
	if findError != nil {
		return githubapi.PullRequest{}, PullRequestNone, findError
	}
	if !found {
		return githubapi.PullRequest{}, PullRequestNone, fmt.Errorf(existingPullRequestMissingTemplate, head, createError)
	}

	if policy == ExistingPullRequestSkip {
		reportProgress(environment, ProgressEvent{Kind: ProgressPullRequestSkipped, Subject: existingPullRequest.Title, Detail: existingPullRequest.URL})
		return existingPullRequest, PullRequestExisting, nil
	}

	if policy != ExistingPullRequestUpdate {
		return githubapi.PullRequest{}, PullRequestNone, createError
	}

	updatedPullRequest, updateError := environment.HostingClient.UpdatePullRequest(executionContext, environment.CanonicalRepository, existingPullRequest.Number, title, title)
	if updateError != nil {
		return githubapi.PullRequest{}, PullRequestNone, updateError
	}
	reportProgress(environment, ProgressEvent{Kind: ProgressPullRequestUpdated, Subject: title, Detail: updatedPullRequest.URL})
	return updatedPullRequest, PullRequestUpdated, nil
}
