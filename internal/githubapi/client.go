package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/tylerslaton/olmsync/internal/gitrepo"
)

const (
	tokenRequiredMessageConstant             = "github token must be provided"
	requiredValueMessageConstant             = "value required"
	invalidBaseURLMessageConstant            = "invalid api base url"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	repositoryNotFoundTemplateConstant       = "repository %s not found or not accessible with the provided token"
	pullRequestExistsTemplateConstant        = "a pull request for %s already exists on %s"
	pullRequestHeadTemplateConstant          = "%s:%s"
	pullRequestOpenStateConstant             = "open"
	alreadyExistsFragmentConstant            = "already exists"
	baseURLPathSuffixConstant                = "/"
	headFieldNameConstant                    = "head"
	baseFieldNameConstant                    = "base"
	titleFieldNameConstant                   = "title"
	numberFieldNameConstant                  = "number"
	repositoryFieldNameConstant              = "repository"
	baseURLFieldNameConstant                 = "base_url"
	missingLoginMessageConstant              = "authenticated user has no login"
	authenticatedLoginOperationNameConstant  = OperationName("ResolveAuthenticatedLogin")
	resolveRepositoryOperationNameConstant   = OperationName("ResolveRepository")
	createPullRequestOperationNameConstant   = OperationName("CreatePullRequest")
	findOpenPullRequestOperationNameConstant = OperationName("FindOpenPullRequest")
	updatePullRequestOperationNameConstant   = OperationName("UpdatePullRequest")
	pullRequestListPageSizeConstant          = 1
)

// OperationName describes a named GitHub API call supported by the client.
type OperationName string

// ErrTokenRequired indicates the client was constructed without a token.
var ErrTokenRequired = errors.New(tokenRequiredMessageConstant)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps failures returned by the GitHub API.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// RepositoryNotFoundError indicates the repository lookup returned 404.
type RepositoryNotFoundError struct {
	Repository gitrepo.RepositoryIdentifier
}

// Error describes the missing repository.
func (notFoundError RepositoryNotFoundError) Error() string {
	return fmt.Sprintf(repositoryNotFoundTemplateConstant, notFoundError.Repository)
}

// PullRequestExistsError indicates GitHub rejected a pull request because one is already open for the head.
type PullRequestExistsError struct {
	Repository gitrepo.RepositoryIdentifier
	Head       string
	Cause      error
}

// Error describes the duplicate pull request.
func (existsError PullRequestExistsError) Error() string {
	return fmt.Sprintf(pullRequestExistsTemplateConstant, existsError.Head, existsError.Repository)
}

// Unwrap exposes the underlying API error.
func (existsError PullRequestExistsError) Unwrap() error {
	return existsError.Cause
}

// RepositoryMetadata contains key details resolved from GitHub.
type RepositoryMetadata struct {
	FullName      string
	DefaultBranch string
	Fork          bool
}

// PullRequest represents the pull request details olmsync reports.
type PullRequest struct {
	Number int
	URL    string
	Title  string
	Head   string
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// FormatHead renders the cross-repository head reference "login:branch".
func FormatHead(login string, branchName string) string {
	return fmt.Sprintf(pullRequestHeadTemplateConstant, login, branchName)
}

type clientSettings struct {
	baseURL    string
	httpClient *http.Client
}

// ClientOption customizes client construction.
type ClientOption func(settings *clientSettings)

// WithBaseURL points the client at an alternative REST endpoint such as a GitHub Enterprise API root.
func WithBaseURL(baseURL string) ClientOption {
	return func(settings *clientSettings) {
		settings.baseURL = baseURL
	}
}

// WithHTTPClient supplies the transport wrapped by the oauth2 token source.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(settings *clientSettings) {
		settings.httpClient = httpClient
	}
}

// Client issues authenticated GitHub REST API calls.
type Client struct {
	apiClient *github.Client
}

// NewClient constructs a Client authenticating every request with token.
func NewClient(token string, options ...ClientOption) (*Client, error) {
	trimmedToken := strings.TrimSpace(token)
	if len(trimmedToken) == 0 {
		return nil, ErrTokenRequired
	}

	settings := clientSettings{}
	for _, option := range options {
		if option != nil {
			option(&settings)
		}
	}

	oauthContext := context.Background()
	if settings.httpClient != nil {
		oauthContext = context.WithValue(oauthContext, oauth2.HTTPClient, settings.httpClient)
	}
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: trimmedToken})
	apiClient := github.NewClient(oauth2.NewClient(oauthContext, tokenSource))

	if len(strings.TrimSpace(settings.baseURL)) > 0 {
		baseURL, parseError := parseBaseURL(settings.baseURL)
		if parseError != nil {
			return nil, parseError
		}
		apiClient.BaseURL = baseURL
	}

	return &Client{apiClient: apiClient}, nil
}

// AuthenticatedLogin returns the login of the user owning the token.
func (client *Client) AuthenticatedLogin(executionContext context.Context) (string, error) {
	user, _, requestError := client.apiClient.Users.Get(executionContext, "")
	if requestError != nil {
		return "", OperationError{Operation: authenticatedLoginOperationNameConstant, Cause: requestError}
	}

	login := strings.TrimSpace(user.GetLogin())
	if len(login) == 0 {
		return "", OperationError{Operation: authenticatedLoginOperationNameConstant, Cause: errors.New(missingLoginMessageConstant)}
	}
	return login, nil
}

// ResolveRepository fetches repository metadata, reporting RepositoryNotFoundError when GitHub answers 404.
func (client *Client) ResolveRepository(executionContext context.Context, repository gitrepo.RepositoryIdentifier) (RepositoryMetadata, error) {
	if validationError := repository.Validate(); validationError != nil {
		return RepositoryMetadata{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: validationError.Error()}
	}

	resolvedRepository, _, requestError := client.apiClient.Repositories.Get(executionContext, repository.Owner, repository.Name)
	if requestError != nil {
		if hasStatus(requestError, http.StatusNotFound) {
			return RepositoryMetadata{}, RepositoryNotFoundError{Repository: repository}
		}
		return RepositoryMetadata{}, OperationError{Operation: resolveRepositoryOperationNameConstant, Cause: requestError}
	}

	return RepositoryMetadata{
		FullName:      resolvedRepository.GetFullName(),
		DefaultBranch: resolvedRepository.GetDefaultBranch(),
		Fork:          resolvedRepository.GetFork(),
	}, nil
}

// CreatePullRequest opens a pull request on repository. A duplicate head is reported as PullRequestExistsError.
func (client *Client) CreatePullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, request NewPullRequest) (PullRequest, error) {
	if validationError := validatePullRequestRequest(repository, request); validationError != nil {
		return PullRequest{}, validationError
	}

	createdPullRequest, _, requestError := client.apiClient.PullRequests.Create(executionContext, repository.Owner, repository.Name, &github.NewPullRequest{
		Title: github.String(request.Title),
		Body:  github.String(request.Body),
		Head:  github.String(request.Head),
		Base:  github.String(request.Base),
	})
	if requestError != nil {
		if isAlreadyExistsError(requestError) {
			return PullRequest{}, PullRequestExistsError{Repository: repository, Head: request.Head, Cause: requestError}
		}
		return PullRequest{}, OperationError{Operation: createPullRequestOperationNameConstant, Cause: requestError}
	}

	return toPullRequest(createdPullRequest), nil
}

// FindOpenPullRequest looks up the open pull request for head against base. The boolean reports whether one exists.
func (client *Client) FindOpenPullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, head string, base string) (PullRequest, bool, error) {
	if validationError := repository.Validate(); validationError != nil {
		return PullRequest{}, false, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: validationError.Error()}
	}
	if len(strings.TrimSpace(head)) == 0 {
		return PullRequest{}, false, InvalidInputError{FieldName: headFieldNameConstant, Message: requiredValueMessageConstant}
	}

	pullRequests, _, requestError := client.apiClient.PullRequests.List(executionContext, repository.Owner, repository.Name, &github.PullRequestListOptions{
		State:       pullRequestOpenStateConstant,
		Head:        head,
		Base:        base,
		ListOptions: github.ListOptions{PerPage: pullRequestListPageSizeConstant},
	})
	if requestError != nil {
		return PullRequest{}, false, OperationError{Operation: findOpenPullRequestOperationNameConstant, Cause: requestError}
	}
	if len(pullRequests) == 0 {
		return PullRequest{}, false, nil
	}

	return toPullRequest(pullRequests[0]), true, nil
}

// UpdatePullRequest rewrites the title and body of an existing pull request.
func (client *Client) UpdatePullRequest(executionContext context.Context, repository gitrepo.RepositoryIdentifier, number int, title string, body string) (PullRequest, error) {
	if validationError := repository.Validate(); validationError != nil {
		return PullRequest{}, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: validationError.Error()}
	}
	if number <= 0 {
		return PullRequest{}, InvalidInputError{FieldName: numberFieldNameConstant, Message: requiredValueMessageConstant}
	}

	editedPullRequest, _, requestError := client.apiClient.PullRequests.Edit(executionContext, repository.Owner, repository.Name, number, &github.PullRequest{
		Title: github.String(title),
		Body:  github.String(body),
	})
	if requestError != nil {
		return PullRequest{}, OperationError{Operation: updatePullRequestOperationNameConstant, Cause: requestError}
	}

	return toPullRequest(editedPullRequest), nil
}

func validatePullRequestRequest(repository gitrepo.RepositoryIdentifier, request NewPullRequest) error {
	if validationError := repository.Validate(); validationError != nil {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: validationError.Error()}
	}
	if len(strings.TrimSpace(request.Title)) == 0 {
		return InvalidInputError{FieldName: titleFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Head)) == 0 {
		return InvalidInputError{FieldName: headFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(request.Base)) == 0 {
		return InvalidInputError{FieldName: baseFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

func toPullRequest(pullRequest *github.PullRequest) PullRequest {
	if pullRequest == nil {
		return PullRequest{}
	}
	return PullRequest{
		Number: pullRequest.GetNumber(),
		URL:    pullRequest.GetHTMLURL(),
		Title:  pullRequest.GetTitle(),
		Head:   pullRequest.GetHead().GetLabel(),
	}
}

func parseBaseURL(rawBaseURL string) (*url.URL, error) {
	trimmedBaseURL := strings.TrimSpace(rawBaseURL)
	if !strings.HasSuffix(trimmedBaseURL, baseURLPathSuffixConstant) {
		trimmedBaseURL += baseURLPathSuffixConstant
	}

	parsedURL, parseError := url.Parse(trimmedBaseURL)
	if parseError != nil || len(parsedURL.Scheme) == 0 || len(parsedURL.Host) == 0 {
		return nil, InvalidInputError{FieldName: baseURLFieldNameConstant, Message: invalidBaseURLMessageConstant}
	}
	return parsedURL, nil
}

func hasStatus(requestError error, statusCode int) bool {
	var errorResponse *github.ErrorResponse
	if !errors.As(requestError, &errorResponse) || errorResponse.Response == nil {
		return false
	}
	return errorResponse.Response.StatusCode == statusCode
}

func isAlreadyExistsError(requestError error) bool {
	if !hasStatus(requestError, http.StatusUnprocessableEntity) {
		return false
	}

	var errorResponse *github.ErrorResponse
	errors.As(requestError, &errorResponse)
	if strings.Contains(strings.ToLower(errorResponse.Message), alreadyExistsFragmentConstant) {
		return true
	}
	for _, detail := range errorResponse.Errors {
		if strings.Contains(strings.ToLower(detail.Message), alreadyExistsFragmentConstant) {
			return true
		}
	}
	return false
}
