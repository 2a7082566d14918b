package workflow

import (
	"fmt"
	"time"
)

const (
	runDateLayoutConstant            = "2006-01-02"
	pullRequestTitleTemplateConstant = "Sync %s"
)

// Clock supplies the moment a run starts.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns the function result.
func (clockFunc ClockFunc) Now() time.Time {
	return clockFunc()
}

// SystemClock reads the local wall clock.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FormatRunDate renders the calendar date used in branch names and pull request titles.
func FormatRunDate(moment time.Time) string {
	return moment.Format(runDateLayoutConstant)
}

// BranchName builds the candidate branch name, for example sync-2024-05-01.
func BranchName(prefix string, moment time.Time) string {
	return prefix + FormatRunDate(moment)
}

// PullRequestTitle builds the pull request title, which doubles as its body.
func PullRequestTitle(moment time.Time) string {
	return fmt.Sprintf(pullRequestTitleTemplateConstant, FormatRunDate(moment))
}
