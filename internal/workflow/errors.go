package workflow

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

const (
	stepErrorTemplateConstant   = "%s failed after stage %s: %v"
	runFailedMessageConstant    = "Sync run failed"
	logFieldOriginConstant      = "origin"
	logFieldStageConstant       = "stage"
	unknownCauseMessageConstant = "unknown error"
)

// ErrorOrigin identifies the step of the run that produced a failure.
type ErrorOrigin string

// Failure origins.
const (
	OriginConfiguration  ErrorOrigin = "configuration"
	OriginCredential     ErrorOrigin = "credential"
	OriginIdentity       ErrorOrigin = "identity"
	OriginClone          ErrorOrigin = "clone"
	OriginRepository     ErrorOrigin = "repository"
	OriginRemoteSetup    ErrorOrigin = "remote-setup"
	OriginFetch          ErrorOrigin = "fetch"
	OriginBranchCreation ErrorOrigin = "branch-creation"
	OriginSubprocess     ErrorOrigin = "subprocess"
	OriginCommitCount    ErrorOrigin = "commit-count"
	OriginPush           ErrorOrigin = "push"
	OriginPullRequest    ErrorOrigin = "pull-request"
	OriginWorkflow       ErrorOrigin = "workflow"
)

// StepError reports a failed run together with where it failed.
type StepError struct {
	Origin ErrorOrigin
	Stage  Stage
	Cause  error
}

// Error describes the failure.
func (stepError StepError) Error() string {
	var cause any = unknownCauseMessageConstant
	if stepError.Cause != nil {
		cause = stepError.Cause
	}
	return fmt.Sprintf(stepErrorTemplateConstant, stepError.Origin, stepError.Stage, cause)
}

// Unwrap exposes the underlying cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

func newStepError(origin ErrorOrigin, state *State, cause error) error {
	stage := StageStart
	if state != nil {
		stage = state.Stage
	}
	return StepError{Origin: origin, Stage: stage, Cause: cause}
}

// LogFailure records a failed run once, with its origin and stage as structured fields.
func LogFailure(logger *zap.Logger, failure error) {
	if logger == nil || failure == nil {
		return
	}

	fields := []zap.Field{zap.Error(failure)}
	var stepError StepError
	if errors.As(failure, &stepError) {
		fields = append(fields,
			zap.String(logFieldOriginConstant, string(stepError.Origin)),
			zap.String(logFieldStageConstant, string(stepError.Stage)),
		)
	}
	logger.Error(runFailedMessageConstant, fields...)
}
