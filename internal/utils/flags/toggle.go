package flags

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

const (
	literalToggleTrueValueConstant          = "true"
	literalToggleFalseValueConstant         = "false"
	literalToggleTypeConstant               = "bool"
	literalToggleTruePlaceholderConstant    = "<TRUE|false>"
	literalToggleFalsePlaceholderConstant   = "<true|FALSE>"
	literalToggleUsageEmptyTemplateConstant = "`%s`"
	literalToggleUsageFullTemplateConstant  = "`%s` %s"
)

// AddLiteralToggleFlag registers a boolean flag that always takes a value and only turns on for the exact
// literal "true". Any other value, including "True", "1", or "yes", turns it off without error.
func AddLiteralToggleFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil {
		return
	}
	if len(name) == 0 {
		return
	}

	flagSet.Var(newLiteralToggleValue(defaultValue, target), name, formatLiteralToggleUsage(usage, defaultValue))
}

// ParseLiteralToggle reports whether rawValue is exactly the literal "true".
func ParseLiteralToggle(rawValue string) bool {
	return rawValue == literalToggleTrueValueConstant
}

func formatLiteralToggleUsage(description string, defaultValue bool) string {
	placeholder := literalToggleFalsePlaceholderConstant
	if defaultValue {
		placeholder = literalToggleTruePlaceholderConstant
	}
	trimmedDescription := strings.TrimSpace(description)
	if len(trimmedDescription) == 0 {
		return fmt.Sprintf(literalToggleUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(literalToggleUsageFullTemplateConstant, placeholder, trimmedDescription)
}

type literalToggleValue struct {
	currentValue bool
	target       *bool
}

func newLiteralToggleValue(defaultValue bool, target *bool) *literalToggleValue {
	if target != nil {
		*target = defaultValue
	}
	return &literalToggleValue{currentValue: defaultValue, target: target}
}

func (value *literalToggleValue) Set(rawValue string) error {
	value.currentValue = ParseLiteralToggle(rawValue)
	if value.target != nil {
		*value.target = value.currentValue
	}
	return nil
}

func (value *literalToggleValue) String() string {
	if value == nil || !value.currentValue {
		return literalToggleFalseValueConstant
	}
	return literalToggleTrueValueConstant
}

func (value *literalToggleValue) Type() string {
	return literalToggleTypeConstant
}
