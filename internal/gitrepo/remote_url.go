package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	schemeDelimiterConstant             = "://"
	scpUserDelimiterConstant            = "@"
	scpPathDelimiterConstant            = ":"
	pathSeparatorConstant               = "/"
	gitSuffixConstant                   = ".git"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	unknownProtocolMessageConstant      = "unsupported remote protocol"
	ownerAndNameRequiredMessageConstant = "expected host/owner/name"
	requiredValueMessageConstant        = "value required"
	tokenFieldLabelConstant             = "token"
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL is a parsed git remote pointing at a hosted owner/name repository.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// Identifier returns the owner/name pair of the remote.
func (remote RemoteURL) Identifier() RepositoryIdentifier {
	return RepositoryIdentifier{Owner: remote.Owner, Name: remote.Repository}
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

// ParseRemoteURL accepts https://, ssh:// and scp-style git@host:owner/name remotes. Credentials embedded
// in https remotes are discarded.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	if !strings.Contains(trimmedRemote, schemeDelimiterConstant) {
		return parseSCPRemote(trimmedRemote)
	}

	parsedURL, parseError := url.Parse(trimmedRemote)
	if parseError != nil {
		return RemoteURL{}, RemoteURLParseError{Input: redactedRemote(trimmedRemote), Message: invalidRemoteURLMessageConstant}
	}

	var protocol RemoteProtocol
	switch strings.ToLower(parsedURL.Scheme) {
	case string(RemoteProtocolHTTPS):
		protocol = RemoteProtocolHTTPS
	case string(RemoteProtocolSSH):
		protocol = RemoteProtocolSSH
	default:
		return RemoteURL{}, RemoteURLParseError{Input: parsedURL.Scheme, Message: unknownProtocolMessageConstant}
	}

	return buildRemoteURL(protocol, parsedURL.Hostname(), parsedURL.Path, redactedRemote(trimmedRemote))
}

func parseSCPRemote(remote string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, scpUserDelimiterConstant)
	pathSplitIndex := strings.Index(remote, scpPathDelimiterConstant)
	if userSplitIndex == -1 || pathSplitIndex < userSplitIndex {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
	return buildRemoteURL(RemoteProtocolSSH, remote[userSplitIndex+1:pathSplitIndex], remote[pathSplitIndex+1:], remote)
}

func buildRemoteURL(protocol RemoteProtocol, host string, path string, input string) (RemoteURL, error) {
	segments := strings.Split(strings.Trim(path, pathSeparatorConstant), pathSeparatorConstant)
	if len(host) == 0 || len(segments) != 2 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: ownerAndNameRequiredMessageConstant}
	}

	owner := segments[0]
	repository := strings.TrimSuffix(segments[1], gitSuffixConstant)
	if len(owner) == 0 || len(repository) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: input, Message: ownerAndNameRequiredMessageConstant}
	}

	return RemoteURL{Protocol: protocol, Host: host, Owner: owner, Repository: repository}, nil
}

// redactedRemote drops user info so parse errors never echo credentials.
func redactedRemote(remote string) string {
	parsedURL, parseError := url.Parse(remote)
	if parseError != nil || parsedURL.User == nil {
		return remote
	}
	parsedURL.User = nil
	return parsedURL.String()
}

// FormatAuthenticatedHTTPSURL renders an https clone URL carrying login and token as user info. The result is a
// credential and must only reach git through command arguments that the command logger redacts.
func FormatAuthenticatedHTTPSURL(host string, repository RepositoryIdentifier, login string, token string) (string, error) {
	if len(strings.TrimSpace(host)) == 0 {
		return "", RemoteURLParseError{Input: host, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(login)) == 0 {
		return "", RemoteURLParseError{Input: login, Message: requiredValueMessageConstant}
	}
	if len(strings.TrimSpace(token)) == 0 {
		return "", RemoteURLParseError{Input: tokenFieldLabelConstant, Message: requiredValueMessageConstant}
	}
	if validationError := repository.Validate(); validationError != nil {
		return "", validationError
	}

	cloneURL := url.URL{
		Scheme: string(RemoteProtocolHTTPS),
		User:   url.UserPassword(login, token),
		Host:   host,
		Path:   pathSeparatorConstant + repository.String(),
	}
	return cloneURL.String(), nil
}
