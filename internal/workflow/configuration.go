package workflow

import (
	"fmt"
	"strings"

	"github.com/tylerslaton/olmsync/internal/gitrepo"
	"github.com/tylerslaton/olmsync/internal/remotes"
)

const (
	defaultCloneDirectoryConstant        = "sync-dir"
	defaultScriptPathConstant            = "./scripts/sync.sh"
	defaultBranchPrefixConstant          = "sync-"
	defaultBaselineRefConstant           = "upstream/master"
	defaultPushRemoteConstant            = "origin"
	defaultForkRepositoryNameConstant    = "operator-framework-olm"
	defaultCanonicalRepositoryConstant   = "openshift/operator-framework-olm"
	defaultBaseBranchConstant            = "master"
	defaultGitHubHostConstant            = "github.com"
	configurationKeySeparatorConstant    = "."
	cloneRepositoryKeyConstant           = "clone_repository"
	cloneDirectoryKeyConstant            = "clone_directory"
	scriptPathKeyConstant                = "script_path"
	branchPrefixKeyConstant              = "branch_prefix"
	baselineRefKeyConstant               = "baseline_ref"
	pushRemoteKeyConstant                = "push_remote"
	forkRepositoryNameKeyConstant        = "fork_repository_name"
	canonicalRepositoryKeyConstant       = "canonical_repository"
	baseBranchKeyConstant                = "base_branch"
	gitHubHostKeyConstant                = "github_host"
	apiBaseURLKeyConstant                = "api_base_url"
	existingPullRequestKeyConstant       = "existing_pull_request"
	remotesKeyConstant                   = "remotes"
	remoteNameKeyConstant                = "name"
	remoteURLKeyConstant                 = "url"
	invalidConfigurationTemplateConstant = "invalid configuration value for %s: %s"
	unknownPolicyTemplateConstant        = "%q is not one of %s"
	requiredValueMessageConstant         = "value required"
	policyChoicesSeparatorConstant       = ", "
)

// ExistingPullRequestPolicy controls what publishing does when the canonical repository already has an
// open pull request for the candidate branch.
type ExistingPullRequestPolicy string

// Supported existing pull request policies.
const (
	ExistingPullRequestFail   ExistingPullRequestPolicy = "fail"
	ExistingPullRequestSkip   ExistingPullRequestPolicy = "skip"
	ExistingPullRequestUpdate ExistingPullRequestPolicy = "update"
)

// ExistingPullRequestPolicies lists the accepted policy names in display order.
func ExistingPullRequestPolicies() []string {
	return []string{
		string(ExistingPullRequestFail),
		string(ExistingPullRequestSkip),
		string(ExistingPullRequestUpdate),
	}
}

// ParseExistingPullRequestPolicy resolves a policy name case-insensitively. An empty value selects fail.
func ParseExistingPullRequestPolicy(rawPolicy string) (ExistingPullRequestPolicy, error) {
	normalizedPolicy := strings.ToLower(strings.TrimSpace(rawPolicy))
	if len(normalizedPolicy) == 0 {
		return ExistingPullRequestFail, nil
	}

	for _, candidate := range ExistingPullRequestPolicies() {
		if normalizedPolicy == candidate {
			return ExistingPullRequestPolicy(candidate), nil
		}
	}

	return "", InvalidConfigurationError{
		Key:     existingPullRequestKeyConstant,
		Message: fmt.Sprintf(unknownPolicyTemplateConstant, rawPolicy, strings.Join(ExistingPullRequestPolicies(), policyChoicesSeparatorConstant)),
	}
}

// UnmarshalText lets configuration decoding validate the policy.
func (policy *ExistingPullRequestPolicy) UnmarshalText(text []byte) error {
	parsedPolicy, parseError := ParseExistingPullRequestPolicy(string(text))
	if parseError != nil {
		return parseError
	}
	*policy = parsedPolicy
	return nil
}

// InvalidConfigurationError reports a configuration value that cannot be used.
type InvalidConfigurationError struct {
	Key     string
	Message string
}

// Error describes the invalid value.
func (configurationError InvalidConfigurationError) Error() string {
	return fmt.Sprintf(invalidConfigurationTemplateConstant, configurationError.Key, configurationError.Message)
}

// Configuration captures the settings of a sync run.
type Configuration struct {
	CloneRepository     bool                      `mapstructure:"clone_repository"`
	CloneDirectory      string                    `mapstructure:"clone_directory"`
	ScriptPath          string                    `mapstructure:"script_path"`
	BranchPrefix        string                    `mapstructure:"branch_prefix"`
	BaselineRef         string                    `mapstructure:"baseline_ref"`
	PushRemote          string                    `mapstructure:"push_remote"`
	ForkRepositoryName  string                    `mapstructure:"fork_repository_name"`
	CanonicalRepository string                    `mapstructure:"canonical_repository"`
	BaseBranch          string                    `mapstructure:"base_branch"`
	GitHubHost          string                    `mapstructure:"github_host"`
	APIBaseURL          string                    `mapstructure:"api_base_url"`
	ExistingPullRequest ExistingPullRequestPolicy `mapstructure:"existing_pull_request"`
	Remotes             []remotes.Definition      `mapstructure:"remotes"`
}

// DefaultConfiguration returns the settings used when no configuration overrides them.
func DefaultConfiguration() Configuration {
	return Configuration{
		CloneRepository:     false,
		CloneDirectory:      defaultCloneDirectoryConstant,
		ScriptPath:          defaultScriptPathConstant,
		BranchPrefix:        defaultBranchPrefixConstant,
		BaselineRef:         defaultBaselineRefConstant,
		PushRemote:          defaultPushRemoteConstant,
		ForkRepositoryName:  defaultForkRepositoryNameConstant,
		CanonicalRepository: defaultCanonicalRepositoryConstant,
		BaseBranch:          defaultBaseBranchConstant,
		GitHubHost:          defaultGitHubHostConstant,
		ExistingPullRequest: ExistingPullRequestFail,
		Remotes:             remotes.DefaultDefinitions(),
	}
}

// DefaultConfigurationValues exposes the defaults as flattened keys under the provided prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	remoteValues := make([]map[string]any, 0, len(defaults.Remotes))
	for _, definition := range defaults.Remotes {
		remoteValues = append(remoteValues, map[string]any{
			remoteNameKeyConstant: definition.Name,
			remoteURLKeyConstant:  definition.URL,
		})
	}

	return map[string]any{
		prefixedKey(prefix, cloneRepositoryKeyConstant):     defaults.CloneRepository,
		prefixedKey(prefix, cloneDirectoryKeyConstant):      defaults.CloneDirectory,
		prefixedKey(prefix, scriptPathKeyConstant):          defaults.ScriptPath,
		prefixedKey(prefix, branchPrefixKeyConstant):        defaults.BranchPrefix,
		prefixedKey(prefix, baselineRefKeyConstant):         defaults.BaselineRef,
		prefixedKey(prefix, pushRemoteKeyConstant):          defaults.PushRemote,
		prefixedKey(prefix, forkRepositoryNameKeyConstant):  defaults.ForkRepositoryName,
		prefixedKey(prefix, canonicalRepositoryKeyConstant): defaults.CanonicalRepository,
		prefixedKey(prefix, baseBranchKeyConstant):          defaults.BaseBranch,
		prefixedKey(prefix, gitHubHostKeyConstant):          defaults.GitHubHost,
		prefixedKey(prefix, apiBaseURLKeyConstant):          defaults.APIBaseURL,
		prefixedKey(prefix, existingPullRequestKeyConstant): string(defaults.ExistingPullRequest),
		prefixedKey(prefix, remotesKeyConstant):             remoteValues,
	}
}

// Sanitize trims values, restores defaults for blank required settings and canonicalizes the existing pull
// request policy. An unknown policy is kept as given so Validate can report it.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.CloneDirectory = valueOrDefault(configuration.CloneDirectory, defaults.CloneDirectory)
	sanitized.ScriptPath = valueOrDefault(configuration.ScriptPath, defaults.ScriptPath)
	sanitized.BranchPrefix = valueOrDefault(configuration.BranchPrefix, defaults.BranchPrefix)
	sanitized.BaselineRef = valueOrDefault(configuration.BaselineRef, defaults.BaselineRef)
	sanitized.PushRemote = valueOrDefault(configuration.PushRemote, defaults.PushRemote)
	sanitized.ForkRepositoryName = valueOrDefault(configuration.ForkRepositoryName, defaults.ForkRepositoryName)
	sanitized.CanonicalRepository = valueOrDefault(configuration.CanonicalRepository, defaults.CanonicalRepository)
	sanitized.BaseBranch = valueOrDefault(configuration.BaseBranch, defaults.BaseBranch)
	sanitized.GitHubHost = valueOrDefault(configuration.GitHubHost, defaults.GitHubHost)
	sanitized.APIBaseURL = strings.TrimSpace(configuration.APIBaseURL)
	if parsedPolicy, policyError := ParseExistingPullRequestPolicy(string(configuration.ExistingPullRequest)); policyError == nil {
		sanitized.ExistingPullRequest = parsedPolicy
	}

	if len(configuration.Remotes) == 0 {
		sanitized.Remotes = defaults.Remotes
	} else {
		sanitized.Remotes = make([]remotes.Definition, 0, len(configuration.Remotes))
		for _, definition := range configuration.Remotes {
			sanitized.Remotes = append(sanitized.Remotes, remotes.Definition{
				Name: strings.TrimSpace(definition.Name),
				URL:  strings.TrimSpace(definition.URL),
			})
		}
	}

	return sanitized
}

// CanonicalRepositoryIdentifier parses the repository pull requests are opened against.
func (configuration Configuration) CanonicalRepositoryIdentifier() (gitrepo.RepositoryIdentifier, error) {
	identifier, parseError := gitrepo.ParseRepositoryIdentifier(configuration.CanonicalRepository)
	if parseError != nil {
		return gitrepo.RepositoryIdentifier{}, InvalidConfigurationError{Key: canonicalRepositoryKeyConstant, Message: parseError.Error()}
	}
	return identifier, nil
}

// RemoteTable validates the configured remotes.
func (configuration Configuration) RemoteTable() (remotes.Table, error) {
	return remotes.NewTable(configuration.Remotes)
}

// Validate reports the first setting that would make a run fail before it starts.
func (configuration Configuration) Validate() error {
	if _, policyError := ParseExistingPullRequestPolicy(string(configuration.ExistingPullRequest)); policyError != nil {
		return policyError
	}
	if len(strings.TrimSpace(configuration.ScriptPath)) == 0 {
		return InvalidConfigurationError{Key: scriptPathKeyConstant, Message: requiredValueMessageConstant}
	}
	if _, identifierError := configuration.CanonicalRepositoryIdentifier(); identifierError != nil {
		return identifierError
	}
	if _, tableError := configuration.RemoteTable(); tableError != nil {
		return tableError
	}
	return nil
}

func valueOrDefault(value string, defaultValue string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return defaultValue
	}
	return trimmedValue
}

func prefixedKey(prefix string, key string) string {
	trimmedPrefix := strings.TrimSpace(prefix)
	if len(trimmedPrefix) == 0 {
		return key
	}
	return trimmedPrefix + configurationKeySeparatorConstant + key
}
