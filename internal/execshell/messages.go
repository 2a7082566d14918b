package execshell

import (
	"fmt"
	"net/url"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	redactedCredentialConstant              = "REDACTED"
	urlSchemeSeparatorConstant              = "://"
)

const (
	gitCloneSubcommandNameConstant    = "clone"
	gitCheckoutSubcommandNameConstant = "checkout"
	gitFetchSubcommandNameConstant    = "fetch"
	gitPushSubcommandNameConstant     = "push"
	gitCreateBranchFlagConstant       = "-b"
)

const (
	gitCloneStartTemplateConstant                   = "Cloning %s into %s"
	gitCloneSuccessTemplateConstant                 = "Cloned %s into %s"
	gitCloneFailureTemplateConstant                 = "Failed to clone %s into %s (exit code %d%s)"
	gitCloneExecutionFailureTemplateConstant        = "Unable to clone %s into %s: %s"
	gitCreateBranchStartTemplateConstant            = "Creating branch %s in %s"
	gitCreateBranchSuccessTemplateConstant          = "Created branch %s in %s"
	gitCreateBranchFailureTemplateConstant          = "Failed to create branch %s in %s (exit code %d%s)"
	gitCreateBranchExecutionFailureTemplateConstant = "Unable to create branch %s in %s: %s"
	gitFetchStartTemplateConstant                   = "Fetching from %s in %s"
	gitFetchSuccessTemplateConstant                 = "Fetched from %s in %s"
	gitFetchFailureTemplateConstant                 = "Failed to fetch from %s in %s (exit code %d%s)"
	gitFetchExecutionFailureTemplateConstant        = "Unable to fetch from %s in %s: %s"
	gitFetchAllRemotesLabelConstant                 = "all remotes"
	gitPushStartTemplateConstant                    = "Pushing %s to %s from %s"
	gitPushSuccessTemplateConstant                  = "Pushed %s to %s from %s"
	gitPushFailureTemplateConstant                  = "Failed to push %s to %s from %s (exit code %d%s)"
	gitPushExecutionFailureTemplateConstant         = "Unable to push %s to %s from %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

// messageTemplates holds the four lifecycle templates of one command shape. Every template starts with the
// same subjects; failure templates append the exit code and stderr suffix, execution failure templates the cause.
type messageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	genericMessageTemplates = messageTemplates{
		start:            genericStartTemplateConstant,
		success:          genericSuccessTemplateConstant,
		failure:          genericFailureTemplateConstant,
		executionFailure: genericExecutionFailureTemplateConstant,
	}
	gitCloneMessageTemplates = messageTemplates{
		start:            gitCloneStartTemplateConstant,
		success:          gitCloneSuccessTemplateConstant,
		failure:          gitCloneFailureTemplateConstant,
		executionFailure: gitCloneExecutionFailureTemplateConstant,
	}
	gitCreateBranchMessageTemplates = messageTemplates{
		start:            gitCreateBranchStartTemplateConstant,
		success:          gitCreateBranchSuccessTemplateConstant,
		failure:          gitCreateBranchFailureTemplateConstant,
		executionFailure: gitCreateBranchExecutionFailureTemplateConstant,
	}
	gitFetchMessageTemplates = messageTemplates{
		start:            gitFetchStartTemplateConstant,
		success:          gitFetchSuccessTemplateConstant,
		failure:          gitFetchFailureTemplateConstant,
		executionFailure: gitFetchExecutionFailureTemplateConstant,
	}
	gitPushMessageTemplates = messageTemplates{
		start:            gitPushStartTemplateConstant,
		success:          gitPushSuccessTemplateConstant,
		failure:          gitPushFailureTemplateConstant,
		executionFailure: gitPushExecutionFailureTemplateConstant,
	}
)

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	redactedCommand := command
	redactedCommand.Details.Arguments = RedactArguments(command.Details.Arguments)

	templates, subjects := formatter.describeCommand(redactedCommand)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subjects...)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subjects...)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, append(subjects, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))...)
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, append(subjects, formatter.describeFailure(failure))...)
	default:
		return emptyStringConstant
	}
}

// describeCommand selects the templates for the git subcommands the sync issues and falls back to the
// full command line for everything else.
func (formatter CommandMessageFormatter) describeCommand(command ShellCommand) (messageTemplates, []any) {
	arguments := command.Details.Arguments
	if command.Name != CommandGit || len(arguments) == 0 {
		return genericMessageTemplates, []any{formatter.formatCommandLabel(command)}
	}

	positionalArguments := formatter.positionalArguments(arguments[1:])
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitCloneSubcommandNameConstant:
		source := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))
		destination := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 1))
		return gitCloneMessageTemplates, []any{source, destination}
	case gitCheckoutSubcommandNameConstant:
		if !containsArgument(arguments, gitCreateBranchFlagConstant) {
			return genericMessageTemplates, []any{formatter.formatCommandLabel(command)}
		}
		branchName := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, len(positionalArguments)-1))
		return gitCreateBranchMessageTemplates, []any{branchName, workingDirectory}
	case gitFetchSubcommandNameConstant:
		remoteName := formatter.argumentAtIndex(positionalArguments, 0)
		if len(remoteName) == 0 {
			remoteName = gitFetchAllRemotesLabelConstant
		}
		return gitFetchMessageTemplates, []any{remoteName, workingDirectory}
	case gitPushSubcommandNameConstant:
		remoteName := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 0))
		branchReference := formatter.ensureValue(formatter.argumentAtIndex(positionalArguments, 1))
		return gitPushMessageTemplates, []any{branchReference, remoteName, workingDirectory}
	default:
		return genericMessageTemplates, []any{formatter.formatCommandLabel(command)}
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := formatter.formatWorkingDirectorySuffix(command)
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index >= 0 && index < len(arguments) {
		return strings.TrimSpace(arguments[index])
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) positionalArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, "-") {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

// RedactArguments returns a copy of arguments with URL credentials replaced.
// Clone URLs carry the GitHub token in their user info section.
func RedactArguments(arguments []string) []string {
	if arguments == nil {
		return nil
	}
	redacted := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		redacted = append(redacted, redactURLCredentials(argument))
	}
	return redacted
}

func redactURLCredentials(argument string) string {
	if !strings.Contains(argument, urlSchemeSeparatorConstant) {
		return argument
	}
	parsedURL, parseError := url.Parse(argument)
	if parseError != nil || parsedURL.User == nil {
		return argument
	}
	if _, hasPassword := parsedURL.User.Password(); hasPassword {
		parsedURL.User = url.UserPassword(parsedURL.User.Username(), redactedCredentialConstant)
	} else {
		parsedURL.User = url.User(redactedCredentialConstant)
	}
	return parsedURL.String()
}
