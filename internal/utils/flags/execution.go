// Package flags provides helpers for binding standardized sync flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
)

const (
	// CloneRepositoryFlagName exposes the clone toggle flag name.
	CloneRepositoryFlagName = "clone-repository"
	// CloneRepositoryFlagUsage describes the clone toggle flag purpose.
	CloneRepositoryFlagUsage = "Clone the fork into the clone directory before syncing (only the literal true enables it)"
	// ScriptPathFlagName exposes the sync script flag name.
	ScriptPathFlagName = "script-path"
	// ScriptPathFlagUsage describes the sync script flag purpose.
	ScriptPathFlagUsage = "Path to the sync script, relative to the repository working directory"
	// ExistingPullRequestFlagName exposes the existing pull request policy flag name.
	ExistingPullRequestFlagName = "existing-pull-request"
	// ExistingPullRequestFlagUsage describes the existing pull request policy flag purpose.
	ExistingPullRequestFlagUsage = "How to handle an already open pull request for the sync branch"
)

// SyncFlagValues stores sync flag values.
type SyncFlagValues struct {
	CloneRepository     bool
	ScriptPath          string
	ExistingPullRequest string
}

// SyncFlagDefinition captures the configurable parts of the sync flags.
type SyncFlagDefinition struct {
	ExistingPullRequestChoices []string
}

// BindSyncFlags attaches the sync flags to the provided command using local scope.
func BindSyncFlags(command *cobra.Command, defaults SyncFlagValues, definition SyncFlagDefinition) *SyncFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	AddLiteralToggleFlag(flagSet, &values.CloneRepository, CloneRepositoryFlagName, defaults.CloneRepository, CloneRepositoryFlagUsage)
	flagSet.StringVar(&values.ScriptPath, ScriptPathFlagName, defaults.ScriptPath, ScriptPathFlagUsage)
	if len(definition.ExistingPullRequestChoices) > 0 {
		AddChoiceFlag(flagSet, &values.ExistingPullRequest, ExistingPullRequestFlagName, defaults.ExistingPullRequest, definition.ExistingPullRequestChoices, ExistingPullRequestFlagUsage)
	}

	return &values
}
