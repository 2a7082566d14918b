// Package workflow runs the upstream/downstream sync as an ordered list of operations.
//
// A run moves through the stages start, prepared, remotes-ready, branch-created and synced, and ends
// either published (a pull request exists for the candidate branch) or no-op-complete (nothing ahead of
// the baseline). Every failure is returned as a StepError carrying its origin and the last stage reached.
package workflow
