package gitrepo

import (
	"strings"
)

const (
	repositoryIdentifierInvalidMessageConstant = "expected owner/name"
)

// RepositoryIdentifier names a hosted repository by owner and name.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// ParseRepositoryIdentifier parses an "owner/name" string.
func ParseRepositoryIdentifier(fullName string) (RepositoryIdentifier, error) {
	trimmedName := strings.TrimSpace(fullName)
	segments := strings.Split(trimmedName, pathSeparatorConstant)
	if len(segments) != 2 {
		return RepositoryIdentifier{}, RemoteURLParseError{Input: fullName, Message: repositoryIdentifierInvalidMessageConstant}
	}

	identifier := RepositoryIdentifier{Owner: strings.TrimSpace(segments[0]), Name: strings.TrimSpace(segments[1])}
	if validationError := identifier.Validate(); validationError != nil {
		return RepositoryIdentifier{}, RemoteURLParseError{Input: fullName, Message: repositoryIdentifierInvalidMessageConstant}
	}
	return identifier, nil
}

// Validate ensures both owner and name are present.
func (identifier RepositoryIdentifier) Validate() error {
	if len(strings.TrimSpace(identifier.Owner)) == 0 || len(strings.TrimSpace(identifier.Name)) == 0 {
		return RemoteURLParseError{Input: identifier.String(), Message: repositoryIdentifierInvalidMessageConstant}
	}
	return nil
}

// String renders the identifier as "owner/name".
func (identifier RepositoryIdentifier) String() string {
	return identifier.Owner + pathSeparatorConstant + identifier.Name
}
