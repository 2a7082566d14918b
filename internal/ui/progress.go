package ui

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/workflow"
)

const (
	cloningRepositoryTemplateConstant     = "Cloning the repository %s"
	addingRemotesMessageConstant          = "Adding repository remotes"
	fetchingRemotesMessageConstant        = "Fetching upstream remotes"
	creatingBranchTemplateConstant        = "Creating new candidate %s branch"
	runningScriptTemplateConstant         = "Running the syncing script %s"
	checkingCommitsMessageConstant        = "Checking whether a sync PR should be created"
	commitsCountedTemplateConstant        = "Found %d commits ahead of %s"
	nothingToPublishTemplateConstant      = "Nothing ahead of %s, no pull request needed"
	pushingBranchTemplateConstant         = "Pushing %s"
	creatingPullRequestTemplateConstant   = "Creating pull request %s"
	pullRequestCreatedTemplateConstant    = "Pull request created with name %s"
	pullRequestSkippedTemplateConstant    = "Pull request %s is already open"
	pullRequestUpdatedTemplateConstant    = "Pull request updated with name %s"
	pushDestinationSuffixTemplateConstant = " to %s"
	repositorySuffixTemplateConstant      = " on %s"
	urlSuffixTemplateConstant             = ": %s"
)

// ProgressFormatter renders workflow milestones as console messages.
type ProgressFormatter struct{}

// BuildMessage formats a single milestone.
func (formatter ProgressFormatter) BuildMessage(event workflow.ProgressEvent) string {
	switch event.Kind {
	case workflow.ProgressCloningRepository:
		return fmt.Sprintf(cloningRepositoryTemplateConstant, event.Subject)
	case workflow.ProgressAddingRemotes:
		return addingRemotesMessageConstant
	case workflow.ProgressFetchingRemotes:
		return fetchingRemotesMessageConstant
	case workflow.ProgressCreatingBranch:
		return fmt.Sprintf(creatingBranchTemplateConstant, event.Subject)
	case workflow.ProgressRunningScript:
		return fmt.Sprintf(runningScriptTemplateConstant, event.Subject)
	case workflow.ProgressCheckingCommits:
		return checkingCommitsMessageConstant
	case workflow.ProgressCommitsCounted:
		return fmt.Sprintf(commitsCountedTemplateConstant, event.Count, event.Subject)
	case workflow.ProgressNothingToPublish:
		return fmt.Sprintf(nothingToPublishTemplateConstant, event.Subject)
	case workflow.ProgressPushingBranch:
		return fmt.Sprintf(pushingBranchTemplateConstant, event.Subject) + formatter.suffix(pushDestinationSuffixTemplateConstant, event.Detail)
	case workflow.ProgressCreatingPullRequest:
		return fmt.Sprintf(creatingPullRequestTemplateConstant, event.Subject) + formatter.suffix(repositorySuffixTemplateConstant, event.Detail)
	case workflow.ProgressPullRequestCreated:
		return fmt.Sprintf(pullRequestCreatedTemplateConstant, event.Subject) + formatter.suffix(urlSuffixTemplateConstant, event.Detail)
	case workflow.ProgressPullRequestSkipped:
		return fmt.Sprintf(pullRequestSkippedTemplateConstant, event.Subject) + formatter.suffix(urlSuffixTemplateConstant, event.Detail)
	case workflow.ProgressPullRequestUpdated:
		return fmt.Sprintf(pullRequestUpdatedTemplateConstant, event.Subject) + formatter.suffix(urlSuffixTemplateConstant, event.Detail)
	default:
		return string(event.Kind)
	}
}

func (formatter ProgressFormatter) suffix(template string, value string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return ""
	}
	return fmt.Sprintf(template, trimmedValue)
}

// ConsoleProgressReporter renders workflow milestones using a zap logger configured for human-readable output.
type ConsoleProgressReporter struct {
	logger    *zap.Logger
	formatter ProgressFormatter
}

// NewConsoleProgressReporter constructs a reporter backed by the provided zap logger.
func NewConsoleProgressReporter(logger *zap.Logger) *ConsoleProgressReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleProgressReporter{logger: logger, formatter: ProgressFormatter{}}
}

// Report implements workflow.ProgressReporter by logging the formatted milestone.
func (reporter *ConsoleProgressReporter) Report(event workflow.ProgressEvent) {
	if reporter == nil {
		return
	}
	reporter.logger.Info(reporter.formatter.BuildMessage(event))
}
