package workflow

// ProgressEventKind identifies a user-facing milestone of a run.
type ProgressEventKind string

// Progress milestones in the order a publishing run emits them.
const (
	ProgressCloningRepository   ProgressEventKind = "cloning-repository"
	ProgressAddingRemotes       ProgressEventKind = "adding-remotes"
	ProgressFetchingRemotes     ProgressEventKind = "fetching-remotes"
	ProgressCreatingBranch      ProgressEventKind = "creating-branch"
	ProgressRunningScript       ProgressEventKind = "running-script"
	ProgressCheckingCommits     ProgressEventKind = "checking-commits"
	ProgressCommitsCounted      ProgressEventKind = "commits-counted"
	ProgressNothingToPublish    ProgressEventKind = "nothing-to-publish"
	ProgressPushingBranch       ProgressEventKind = "pushing-branch"
	ProgressCreatingPullRequest ProgressEventKind = "creating-pull-request"
	ProgressPullRequestCreated  ProgressEventKind = "pull-request-created"
	ProgressPullRequestSkipped  ProgressEventKind = "pull-request-skipped"
	ProgressPullRequestUpdated  ProgressEventKind = "pull-request-updated"
)

// ProgressEvent describes a milestone. Subject names what the milestone acts on, such as a branch or
// repository; Detail carries a secondary value such as a pull request URL.
type ProgressEvent struct {
	Kind    ProgressEventKind
	Subject string
	Detail  string
	Count   int
}

// ProgressReporter receives milestones as a run advances.
type ProgressReporter interface {
	Report(event ProgressEvent)
}

type discardProgressReporter struct{}

func (discardProgressReporter) Report(ProgressEvent) {}

func reportProgress(environment *Environment, event ProgressEvent) {
	if environment == nil || environment.Progress == nil {
		return
	}
	environment.Progress.Report(event)
}
