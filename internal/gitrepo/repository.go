package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	repositoryNotFoundTemplateConstant    = "no git repository found at or above %s: %v"
	repositoryOpenTemplateConstant        = "failed to open repository %s: %w"
	worktreeResolveTemplateConstant       = "failed to resolve worktree for %s: %w"
	remoteListTemplateConstant            = "failed to list remotes: %w"
	remoteCreateTemplateConstant          = "failed to create remote %s: %w"
	revisionResolveTemplateConstant       = "failed to resolve revision %s: %w"
	commitLoadTemplateConstant            = "failed to load commit %s: %w"
	commitWalkTemplateConstant            = "failed to walk history from %s: %w"
	remoteNameRequiredMessageConstant     = "remote name must be provided"
	remoteURLRequiredMessageConstant      = "remote url must be provided"
	startDirectoryRequiredMessageConstant = "start directory must be provided"
	remoteAlreadyExistsTemplateConstant   = "remote %s already exists"
	commitRangeDisplayTemplateConstant    = "%s..%s"
)

// ErrRemoteNameRequired indicates a remote name was empty.
var ErrRemoteNameRequired = errors.New(remoteNameRequiredMessageConstant)

// ErrRemoteURLRequired indicates a remote URL was empty.
var ErrRemoteURLRequired = errors.New(remoteURLRequiredMessageConstant)

// ErrStartDirectoryRequired indicates repository discovery had no starting directory.
var ErrStartDirectoryRequired = errors.New(startDirectoryRequiredMessageConstant)

// RepositoryNotFoundError indicates no .git directory exists at or above the start directory.
type RepositoryNotFoundError struct {
	StartDirectory string
	Cause          error
}

// Error describes the missing repository.
func (notFoundError RepositoryNotFoundError) Error() string {
	return fmt.Sprintf(repositoryNotFoundTemplateConstant, notFoundError.StartDirectory, notFoundError.Cause)
}

// Unwrap exposes the underlying go-git error.
func (notFoundError RepositoryNotFoundError) Unwrap() error {
	return notFoundError.Cause
}

// RemoteExistsError indicates a remote with the requested name is already configured.
type RemoteExistsError struct {
	Name string
}

// Error describes the duplicate remote.
func (existsError RemoteExistsError) Error() string {
	return fmt.Sprintf(remoteAlreadyExistsTemplateConstant, existsError.Name)
}

// Repository exposes go-git backed queries for a located working repository. Each query opens a fresh handle
// so that objects written by git subprocesses (fetches, the sync script) are always visible.
type Repository struct {
	rootPath string
}

// Locate searches startDirectory and its ancestors for a .git directory and returns the enclosing repository.
func Locate(startDirectory string) (*Repository, error) {
	trimmedDirectory := strings.TrimSpace(startDirectory)
	if len(trimmedDirectory) == 0 {
		return nil, ErrStartDirectoryRequired
	}

	repository, openError := gogit.PlainOpenWithOptions(trimmedDirectory, &gogit.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, RepositoryNotFoundError{StartDirectory: trimmedDirectory, Cause: openError}
	}

	worktree, worktreeError := repository.Worktree()
	if worktreeError != nil {
		return nil, fmt.Errorf(worktreeResolveTemplateConstant, trimmedDirectory, worktreeError)
	}

	return &Repository{rootPath: worktree.Filesystem.Root()}, nil
}

// Root returns the repository worktree root.
func (repository *Repository) Root() string {
	return repository.rootPath
}

// RemoteNames lists configured remote names in sorted order.
func (repository *Repository) RemoteNames() ([]string, error) {
	gitRepository, openError := repository.open()
	if openError != nil {
		return nil, openError
	}

	configuredRemotes, remotesError := gitRepository.Remotes()
	if remotesError != nil {
		return nil, fmt.Errorf(remoteListTemplateConstant, remotesError)
	}

	remoteNames := make([]string, 0, len(configuredRemotes))
	for _, configuredRemote := range configuredRemotes {
		remoteNames = append(remoteNames, configuredRemote.Config().Name)
	}
	sort.Strings(remoteNames)
	return remoteNames, nil
}

// CreateRemote adds a remote with a single fetch URL and the default fetch refspec.
func (repository *Repository) CreateRemote(name string, remoteURL string) error {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return ErrRemoteNameRequired
	}
	trimmedURL := strings.TrimSpace(remoteURL)
	if len(trimmedURL) == 0 {
		return ErrRemoteURLRequired
	}

	gitRepository, openError := repository.open()
	if openError != nil {
		return openError
	}

	_, createError := gitRepository.CreateRemote(&config.RemoteConfig{Name: trimmedName, URLs: []string{trimmedURL}})
	if errors.Is(createError, gogit.ErrRemoteExists) {
		return RemoteExistsError{Name: trimmedName}
	}
	if createError != nil {
		return fmt.Errorf(remoteCreateTemplateConstant, trimmedName, createError)
	}
	return nil
}

// CountCommits counts commits reachable from headRevision and not from baseRevision, matching
// `git rev-list --count base..head`.
func (repository *Repository) CountCommits(executionContext context.Context, baseRevision string, headRevision string) (int, error) {
	gitRepository, openError := repository.open()
	if openError != nil {
		return 0, openError
	}

	baseCommit, baseError := resolveCommit(gitRepository, baseRevision)
	if baseError != nil {
		return 0, baseError
	}
	headCommit, headError := resolveCommit(gitRepository, headRevision)
	if headError != nil {
		return 0, headError
	}

	baseAncestors := make(map[plumbing.Hash]bool)
	baseIterator := object.NewCommitPreorderIter(baseCommit, nil, nil)
	baseWalkError := baseIterator.ForEach(func(commit *object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		baseAncestors[commit.Hash] = true
		return nil
	})
	if baseWalkError != nil {
		return 0, fmt.Errorf(commitWalkTemplateConstant, baseRevision, baseWalkError)
	}

	commitCount := 0
	headIterator := object.NewCommitPreorderIter(headCommit, baseAncestors, nil)
	headWalkError := headIterator.ForEach(func(commit *object.Commit) error {
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		commitCount++
		return nil
	})
	if headWalkError != nil {
		return 0, fmt.Errorf(commitWalkTemplateConstant, fmt.Sprintf(commitRangeDisplayTemplateConstant, baseRevision, headRevision), headWalkError)
	}

	return commitCount, nil
}

func (repository *Repository) open() (*gogit.Repository, error) {
	gitRepository, openError := gogit.PlainOpen(repository.rootPath)
	if openError != nil {
		return nil, fmt.Errorf(repositoryOpenTemplateConstant, repository.rootPath, openError)
	}
	return gitRepository, nil
}

func resolveCommit(gitRepository *gogit.Repository, revision string) (*object.Commit, error) {
	hash, resolveError := gitRepository.ResolveRevision(plumbing.Revision(strings.TrimSpace(revision)))
	if resolveError != nil {
		return nil, fmt.Errorf(revisionResolveTemplateConstant, revision, resolveError)
	}

	commit, commitError := gitRepository.CommitObject(*hash)
	if commitError != nil {
		return nil, fmt.Errorf(commitLoadTemplateConstant, hash.String(), commitError)
	}
	return commit, nil
}
