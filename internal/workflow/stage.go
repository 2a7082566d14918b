package workflow

// Stage names a point reached by a sync run.
type Stage string

// Stages in the order a run reaches them.
const (
	StageStart         Stage = "start"
	StagePrepared      Stage = "prepared"
	StageRemotesReady  Stage = "remotes-ready"
	StageBranchCreated Stage = "branch-created"
	StageSynced        Stage = "synced"
	StagePublished     Stage = "published"
	StageNoOpComplete  Stage = "no-op-complete"
)

// Terminal reports whether the stage ends a successful run.
func (stage Stage) Terminal() bool {
	return stage == StagePublished || stage == StageNoOpComplete
}
