package utils

import "context"

type runSettingsContextKey struct{}

// RunSettings records where the settings of the current invocation came from.
type RunSettings struct {
	ConfigurationFile string
	LogFile           string
}

// CommandContextAccessor stores and retrieves RunSettings on command contexts.
type CommandContextAccessor struct{}

// NewCommandContextAccessor constructs a CommandContextAccessor instance.
func NewCommandContextAccessor() CommandContextAccessor {
	return CommandContextAccessor{}
}

// WithRunSettings returns a child of parentContext carrying settings.
func (accessor CommandContextAccessor) WithRunSettings(parentContext context.Context, settings RunSettings) context.Context {
	if parentContext == nil {
		parentContext = context.Background()
	}
	return context.WithValue(parentContext, runSettingsContextKey{}, settings)
}

// RunSettings returns the settings attached by WithRunSettings, if any.
func (accessor CommandContextAccessor) RunSettings(executionContext context.Context) (RunSettings, bool) {
	if executionContext == nil {
		return RunSettings{}, false
	}
	settings, available := executionContext.Value(runSettingsContextKey{}).(RunSettings)
	return settings, available
}
