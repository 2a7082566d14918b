package remotes

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/gitrepo"
)

const (
	repositoryMissingMessageConstant = "remote repository accessor not configured"
	fetcherMissingMessageConstant    = "remote fetcher not configured"
	loggerMissingMessageConstant     = "remote executor logger not configured"
	listRemotesTemplateConstant      = "failed to list remotes: %w"
	createRemoteTemplateConstant     = "failed to add remote %s: %v"
	fetchRemoteTemplateConstant      = "failed to fetch remote %s: %v"
	remoteCreatedMessageConstant     = "Added remote"
	remoteExistingMessageConstant    = "Remote already configured"
	remoteFetchedMessageConstant     = "Fetched remote"
	ensuringRemotesMessageConstant   = "Ensuring remotes"
	logFieldRemoteNamesConstant      = "remotes"
	logFieldRemoteNameConstant       = "remote"
	logFieldRemoteURLConstant        = "url"
	logFieldRepositoryPathConstant   = "repository_path"
)

// ErrRepositoryNotConfigured indicates the executor was built without a repository accessor.
var ErrRepositoryNotConfigured = errors.New(repositoryMissingMessageConstant)

// ErrFetcherNotConfigured indicates the executor was built without a fetcher.
var ErrFetcherNotConfigured = errors.New(fetcherMissingMessageConstant)

// ErrLoggerNotConfigured indicates the executor was built without a logger.
var ErrLoggerNotConfigured = errors.New(loggerMissingMessageConstant)

// RepositoryRemotes lists and creates remotes of a single repository.
type RepositoryRemotes interface {
	RemoteNames() ([]string, error)
	CreateRemote(name string, remoteURL string) error
}

// RemoteFetcher fetches a named remote.
type RemoteFetcher interface {
	Fetch(executionContext context.Context, repositoryPath string, remoteName string) error
}

// SetupError reports a remote that could not be added.
type SetupError struct {
	RemoteName string
	Cause      error
}

// Error describes the setup failure.
func (setupError SetupError) Error() string {
	return fmt.Sprintf(createRemoteTemplateConstant, setupError.RemoteName, setupError.Cause)
}

// Unwrap exposes the underlying cause.
func (setupError SetupError) Unwrap() error {
	return setupError.Cause
}

// FetchError reports a remote that could not be fetched.
type FetchError struct {
	RemoteName string
	Cause      error
}

// Error describes the fetch failure.
func (fetchError FetchError) Error() string {
	return fmt.Sprintf(fetchRemoteTemplateConstant, fetchError.RemoteName, fetchError.Cause)
}

// Unwrap exposes the underlying cause.
func (fetchError FetchError) Unwrap() error {
	return fetchError.Cause
}

// Dependencies captures collaborators required to manage remotes.
type Dependencies struct {
	Repository RepositoryRemotes
	Fetcher    RemoteFetcher
	Logger     *zap.Logger
}

// EnsureResult lists which table entries were added and which were already present.
type EnsureResult struct {
	Created  []string
	Existing []string
}

// Executor ensures and fetches repository remotes.
type Executor struct {
	dependencies Dependencies
}

// NewExecutor constructs an Executor from the provided dependencies.
func NewExecutor(dependencies Dependencies) (*Executor, error) {
	if dependencies.Repository == nil {
		return nil, ErrRepositoryNotConfigured
	}
	if dependencies.Fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}
	if dependencies.Logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	return &Executor{dependencies: dependencies}, nil
}

// EnsureRemotes adds every table entry whose name is not yet configured. Existing remotes are left untouched,
// including their URLs, so repeated runs never create duplicates.
func (executor *Executor) EnsureRemotes(executionContext context.Context, table Table) (EnsureResult, error) {
	executor.dependencies.Logger.Debug(ensuringRemotesMessageConstant, zap.Strings(logFieldRemoteNamesConstant, table.Names()))

	configuredNames, listError := executor.dependencies.Repository.RemoteNames()
	if listError != nil {
		return EnsureResult{}, fmt.Errorf(listRemotesTemplateConstant, listError)
	}

	configuredNameSet := make(map[string]struct{}, len(configuredNames))
	for _, configuredName := range configuredNames {
		configuredNameSet[configuredName] = struct{}{}
	}

	result := EnsureResult{}
	for _, definition := range table.Definitions() {
		if contextError := executionContext.Err(); contextError != nil {
			return result, contextError
		}

		if _, alreadyConfigured := configuredNameSet[definition.Name]; alreadyConfigured {
			executor.dependencies.Logger.Debug(remoteExistingMessageConstant, zap.String(logFieldRemoteNameConstant, definition.Name))
			result.Existing = append(result.Existing, definition.Name)
			continue
		}

		createError := executor.dependencies.Repository.CreateRemote(definition.Name, definition.URL)
		var existsError gitrepo.RemoteExistsError
		if errors.As(createError, &existsError) {
			result.Existing = append(result.Existing, definition.Name)
			continue
		}
		if createError != nil {
			return result, SetupError{RemoteName: definition.Name, Cause: createError}
		}

		executor.dependencies.Logger.Info(
			remoteCreatedMessageConstant,
			zap.String(logFieldRemoteNameConstant, definition.Name),
			zap.String(logFieldRemoteURLConstant, definition.URL),
		)
		configuredNameSet[definition.Name] = struct{}{}
		result.Created = append(result.Created, definition.Name)
	}

	return result, nil
}

// FetchRemotes fetches every remote configured in the repository, including ones outside the table such as
// origin, in sorted name order. The first failure stops the sequence.
func (executor *Executor) FetchRemotes(executionContext context.Context, repositoryPath string) ([]string, error) {
	configuredNames, listError := executor.dependencies.Repository.RemoteNames()
	if listError != nil {
		return nil, fmt.Errorf(listRemotesTemplateConstant, listError)
	}

	remoteNames := append([]string(nil), configuredNames...)
	sort.Strings(remoteNames)

	fetchedNames := make([]string, 0, len(remoteNames))
	for _, remoteName := range remoteNames {
		if fetchError := executor.dependencies.Fetcher.Fetch(executionContext, repositoryPath, remoteName); fetchError != nil {
			return fetchedNames, FetchError{RemoteName: remoteName, Cause: fetchError}
		}
		executor.dependencies.Logger.Debug(
			remoteFetchedMessageConstant,
			zap.String(logFieldRemoteNameConstant, remoteName),
			zap.String(logFieldRepositoryPathConstant, repositoryPath),
		)
		fetchedNames = append(fetchedNames, remoteName)
	}

	return fetchedNames, nil
}
