package utils_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tylerslaton/olmsync/internal/utils"
)

const (
	loaderTestEnvironmentPrefixConstant = "LOADERTEST"
	loaderTestConfigurationNameConstant = "olmsync"
	loaderTestConfigurationTypeConstant = "yaml"
	loaderTestFileNameConstant          = "olmsync.yaml"
	loaderTestEmbeddedContentConstant   = `common:
  log_level: info
sync:
  base_branch: master
  script_path: ./scripts/sync.sh
  remotes:
    - name: upstream
      url: https://github.com/openshift/operator-framework-olm
`
)

type loaderTestPolicy string

func (policy *loaderTestPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "fail", "skip":
		*policy = loaderTestPolicy(text)
		return nil
	default:
		return errors.New("unknown policy " + string(text))
	}
}

type loaderTestRemote struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type loaderTestConfiguration struct {
	Common struct {
		LogLevel string `mapstructure:"log_level"`
	} `mapstructure:"common"`
	Sync struct {
		BaseBranch string             `mapstructure:"base_branch"`
		ScriptPath string             `mapstructure:"script_path"`
		Policy     loaderTestPolicy   `mapstructure:"policy"`
		Remotes    []loaderTestRemote `mapstructure:"remotes"`
	} `mapstructure:"sync"`
}

func loaderTestDefaults() map[string]any {
	return map[string]any{
		"common.log_level": "error",
		"sync.base_branch": "main",
		"sync.script_path": "sync.sh",
		"sync.policy":      "fail",
	}
}

func writeLoaderTestFile(testInstance *testing.T, directory string, content string) string {
	testInstance.Helper()
	configurationPath := filepath.Join(directory, loaderTestFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(content), 0o600))
	return configurationPath
}

func TestConfigurationLoaderLayersSources(testInstance *testing.T) {
	testCases := []struct {
		name               string
		embedded           bool
		fileContent        string
		environment        map[string]string
		expectedLogLevel   string
		expectedBaseBranch string
		expectedScriptPath string
	}{
		{
			name:               "defaults_only",
			expectedLogLevel:   "error",
			expectedBaseBranch: "main",
			expectedScriptPath: "sync.sh",
		},
		{
			name:               "embedded_over_defaults",
			embedded:           true,
			expectedLogLevel:   "info",
			expectedBaseBranch: "master",
			expectedScriptPath: "./scripts/sync.sh",
		},
		{
			name:               "file_over_embedded",
			embedded:           true,
			fileContent:        "sync:\n  base_branch: release-4.17\n",
			expectedLogLevel:   "info",
			expectedBaseBranch: "release-4.17",
			expectedScriptPath: "./scripts/sync.sh",
		},
		{
			name:        "environment_over_file",
			embedded:    true,
			fileContent: "common:\n  log_level: warn\nsync:\n  script_path: ./hack/sync.sh\n",
			environment: map[string]string{
				loaderTestEnvironmentPrefixConstant + "_COMMON_LOG_LEVEL": "debug",
			},
			expectedLogLevel:   "debug",
			expectedBaseBranch: "master",
			expectedScriptPath: "./hack/sync.sh",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			for variableName, variableValue := range testCase.environment {
				testInstance.Setenv(variableName, variableValue)
			}

			configurationPath := ""
			if len(testCase.fileContent) > 0 {
				configurationPath = writeLoaderTestFile(testInstance, testInstance.TempDir(), testCase.fileContent)
			}

			loader := utils.NewConfigurationLoader(loaderTestConfigurationNameConstant, loaderTestConfigurationTypeConstant, loaderTestEnvironmentPrefixConstant, nil)
			if testCase.embedded {
				loader.SetEmbeddedConfiguration([]byte(loaderTestEmbeddedContentConstant), loaderTestConfigurationTypeConstant)
			}

			configuration := loaderTestConfiguration{}
			loaded, loadError := loader.LoadConfiguration(configurationPath, loaderTestDefaults(), &configuration)
			require.NoError(testInstance, loadError)

			require.Equal(testInstance, testCase.expectedLogLevel, configuration.Common.LogLevel)
			require.Equal(testInstance, testCase.expectedBaseBranch, configuration.Sync.BaseBranch)
			require.Equal(testInstance, testCase.expectedScriptPath, configuration.Sync.ScriptPath)
			require.Equal(testInstance, configurationPath, loaded.ConfigFileUsed)
		})
	}
}

func TestConfigurationLoaderKeepsEmbeddedRemotesWhenFileOmitsThem(testInstance *testing.T) {
	configurationPath := writeLoaderTestFile(testInstance, testInstance.TempDir(), "sync:\n  policy: skip\n")

	loader := utils.NewConfigurationLoader(loaderTestConfigurationNameConstant, loaderTestConfigurationTypeConstant, loaderTestEnvironmentPrefixConstant, nil)
	loader.SetEmbeddedConfiguration([]byte(loaderTestEmbeddedContentConstant), loaderTestConfigurationTypeConstant)

	configuration := loaderTestConfiguration{}
	_, loadError := loader.LoadConfiguration(configurationPath, loaderTestDefaults(), &configuration)
	require.NoError(testInstance, loadError)

	require.Equal(testInstance, loaderTestPolicy("skip"), configuration.Sync.Policy)
	require.Equal(testInstance, []loaderTestRemote{{Name: "upstream", URL: "https://github.com/openshift/operator-framework-olm"}}, configuration.Sync.Remotes)
}

func TestConfigurationLoaderDiscoversFileInSearchPath(testInstance *testing.T) {
	emptyDirectory := testInstance.TempDir()
	workingDirectory := testInstance.TempDir()
	configurationPath := writeLoaderTestFile(testInstance, workingDirectory, "sync:\n  base_branch: release-4.18\n")

	loader := utils.NewConfigurationLoader(
		loaderTestConfigurationNameConstant,
		loaderTestConfigurationTypeConstant,
		loaderTestEnvironmentPrefixConstant,
		[]string{emptyDirectory, workingDirectory},
	)

	configuration := loaderTestConfiguration{}
	loaded, loadError := loader.LoadConfiguration("", loaderTestDefaults(), &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "release-4.18", configuration.Sync.BaseBranch)
	require.Equal(testInstance, configurationPath, loaded.ConfigFileUsed)
}

func TestConfigurationLoaderToleratesMissingDiscoveredFile(testInstance *testing.T) {
	loader := utils.NewConfigurationLoader(
		loaderTestConfigurationNameConstant,
		loaderTestConfigurationTypeConstant,
		loaderTestEnvironmentPrefixConstant,
		[]string{testInstance.TempDir()},
	)

	configuration := loaderTestConfiguration{}
	loaded, loadError := loader.LoadConfiguration("", loaderTestDefaults(), &configuration)
	require.NoError(testInstance, loadError)
	require.Empty(testInstance, loaded.ConfigFileUsed)
	require.Equal(testInstance, "main", configuration.Sync.BaseBranch)
}

func TestConfigurationLoaderRejectsInvalidSources(testInstance *testing.T) {
	testCases := []struct {
		name              string
		configurationPath func(testInstance *testing.T) string
	}{
		{
			name: "explicit_file_missing",
			configurationPath: func(testInstance *testing.T) string {
				return filepath.Join(testInstance.TempDir(), "absent.yaml")
			},
		},
		{
			name: "malformed_yaml",
			configurationPath: func(testInstance *testing.T) string {
				return writeLoaderTestFile(testInstance, testInstance.TempDir(), "sync: [unterminated\n")
			},
		},
		{
			name: "policy_rejected_by_text_unmarshaler",
			configurationPath: func(testInstance *testing.T) string {
				return writeLoaderTestFile(testInstance, testInstance.TempDir(), "sync:\n  policy: sometimes\n")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			loader := utils.NewConfigurationLoader(loaderTestConfigurationNameConstant, loaderTestConfigurationTypeConstant, loaderTestEnvironmentPrefixConstant, nil)

			configuration := loaderTestConfiguration{}
			_, loadError := loader.LoadConfiguration(testCase.configurationPath(testInstance), loaderTestDefaults(), &configuration)
			require.Error(testInstance, loadError)
		})
	}
}

func TestConfigurationLoaderSetEmbeddedConfigurationCopiesData(testInstance *testing.T) {
	embeddedData := []byte(loaderTestEmbeddedContentConstant)

	loader := utils.NewConfigurationLoader(loaderTestConfigurationNameConstant, loaderTestConfigurationTypeConstant, loaderTestEnvironmentPrefixConstant, nil)
	loader.SetEmbeddedConfiguration(embeddedData, loaderTestConfigurationTypeConstant)
	for index := range embeddedData {
		embeddedData[index] = ' '
	}

	configuration := loaderTestConfiguration{}
	_, loadError := loader.LoadConfiguration("", loaderTestDefaults(), &configuration)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, "master", configuration.Sync.BaseBranch)
}
