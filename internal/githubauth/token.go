package githubauth

import (
	"fmt"
	"os"
	"strings"
)

// EnvGitHubToken names the environment variable carrying the GitHub personal access token.
const EnvGitHubToken = "GITHUB_TOKEN"

const missingTokenErrorTemplateConstant = "%s must be set to a GitHub token with repository scope"

// EnvironmentLookup retrieves an environment variable value and reports whether it was present.
type EnvironmentLookup func(key string) (string, bool)

// MissingTokenError indicates the required token variable is absent or blank.
type MissingTokenError struct {
	VariableName string
}

// Error describes the missing token.
func (missingTokenError MissingTokenError) Error() string {
	return fmt.Sprintf(missingTokenErrorTemplateConstant, missingTokenError.VariableName)
}

// RequireToken returns the trimmed GITHUB_TOKEN value observed through lookup, falling back to the process
// environment when lookup is nil. A missing or blank value yields MissingTokenError.
func RequireToken(lookup EnvironmentLookup) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	value, exists := lookup(EnvGitHubToken)
	if !exists {
		return "", MissingTokenError{VariableName: EnvGitHubToken}
	}

	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return "", MissingTokenError{VariableName: EnvGitHubToken}
	}

	return trimmedValue, nil
}

// MapLookup adapts a static environment map to EnvironmentLookup.
func MapLookup(environment map[string]string) EnvironmentLookup {
	return func(key string) (string, bool) {
		if environment == nil {
			return "", false
		}
		value, exists := environment[key]
		return value, exists
	}
}
