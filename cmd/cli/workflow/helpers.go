package workflow

import (
	"go.uber.org/zap"

	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/workflow"
)

// LoggerProvider yields a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// HostingClientFactory constructs the GitHub client for a run once the token is known.
type HostingClientFactory func(token string, configuration workflow.Configuration) (workflow.HostingClient, error)

// WorkingDirectoryProvider reports the directory a run starts from.
type WorkingDirectoryProvider func() (string, error)

// NewGitHubHostingClient builds the go-github backed client, honoring a configured API base URL.
func NewGitHubHostingClient(token string, configuration workflow.Configuration) (workflow.HostingClient, error) {
	var clientOptions []githubapi.ClientOption
	if len(configuration.APIBaseURL) > 0 {
		clientOptions = append(clientOptions, githubapi.WithBaseURL(configuration.APIBaseURL))
	}

	client, clientError := githubapi.NewClient(token, clientOptions...)
	if clientError != nil {
		return nil, clientError
	}
	return client, nil
}

func resolveLogger(provider LoggerProvider) *zap.Logger {
	if provider == nil {
		return zap.NewNop()
	}
	logger := provider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
