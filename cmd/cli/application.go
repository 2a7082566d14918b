package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	workflowcmd "github.com/tylerslaton/olmsync/cmd/cli/workflow"
	"github.com/tylerslaton/olmsync/internal/utils"
	"github.com/tylerslaton/olmsync/internal/workflow"
)

const (
	applicationNameConstant                 = "olmsync"
	applicationShortDescriptionConstant     = "Synchronize the downstream OLM repository with its upstream operator-framework sources"
	applicationLongDescriptionConstant      = "olmsync prepares a checkout of the operator-framework-olm fork, fetches the upstream operator-framework remotes, runs the sync script on a dated branch, and opens a pull request against the canonical repository when the branch carries new commits.\n\nGITHUB_TOKEN must be set."
	applicationVersionTemplateConstant      = "{{.Name}} version: {{.Version}}\n"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	logFileFlagNameConstant                 = "log-file"
	logFileFlagUsageConstant                = "Also write JSON logs to a rotating file at this path."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	commonLogFileConfigKeyConstant          = commonConfigurationKeyConstant + ".log_file"
	commonLogFileMaxSizeConfigKeyConstant   = commonConfigurationKeyConstant + ".log_file_max_size_mb"
	syncConfigurationKeyConstant            = "sync"
	defaultLogFileMaxSizeMegabytesConstant  = 10
	environmentPrefixConstant               = "OLMSYNC"
	configurationNameConstant               = "olmsync"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationLogFileFieldConstant       = "log_file"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	loggerCloseErrorTemplateConstant        = "unable to close log file: %w"
	defaultConfigurationSearchPathConstant  = "."
)

// applicationVersion is replaced at build time through -ldflags.
var applicationVersion = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Sync   workflow.Configuration         `mapstructure:"sync"`
}

// ApplicationCommonConfiguration stores logging configuration.
type ApplicationCommonConfiguration struct {
	LogLevel                string `mapstructure:"log_level"`
	LogFormat               string `mapstructure:"log_format"`
	LogFile                 string `mapstructure:"log_file"`
	LogFileMaxSizeMegabytes int    `mapstructure:"log_file_max_size_mb"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	loggerOutputs          utils.LoggerOutputs
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	logFileFlagValue       string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	return newApplication(workflowcmd.CommandBuilder{})
}

func newApplication(syncBuilder workflowcmd.CommandBuilder) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		configuration:          ApplicationConfiguration{Sync: workflow.DefaultConfiguration()},
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}

	syncBuilder.LoggerProvider = func() *zap.Logger {
		return application.logger
	}
	syncBuilder.HumanReadableLoggingProvider = application.humanReadableLoggingEnabled
	syncBuilder.ConfigurationProvider = func() workflow.Configuration {
		return application.configuration.Sync
	}

	cobraCommand, buildError := syncBuilder.Build()
	if buildError != nil {
		cobraCommand = &cobra.Command{}
	}

	cobraCommand.Use = applicationNameConstant
	cobraCommand.Short = applicationShortDescriptionConstant
	cobraCommand.Long = applicationLongDescriptionConstant
	cobraCommand.Version = applicationVersion
	cobraCommand.SilenceUsage = true
	cobraCommand.SilenceErrors = true
	cobraCommand.PersistentPreRunE = func(command *cobra.Command, arguments []string) error {
		return application.initializeConfiguration(command)
	}
	cobraCommand.SetVersionTemplate(applicationVersionTemplateConstant)
	cobraCommand.SetContext(context.Background())

	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFileFlagValue, logFileFlagNameConstant, "", logFileFlagUsageConstant)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the root command, then flushes the logger and closes any log file.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerSyncErrorTemplateConstant, syncError))
	}
	if closeError := application.loggerOutputs.Close(); closeError != nil {
		return errors.Join(executionError, fmt.Errorf(loggerCloseErrorTemplateConstant, closeError))
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

// initializeConfiguration resolves settings in increasing precedence: embedded defaults, configuration file,
// environment, then explicitly set persistent flags. It then builds the logger the run will use.
func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	application.applyLoggingFlagOverrides(command)

	if loggerError := application.configureLogger(); loggerError != nil {
		return loggerError
	}

	application.attachRunSettings(command)
	return nil
}

func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:       string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:      string(utils.LogFormatConsole),
		commonLogFileConfigKeyConstant:        "",
		commonLogFileMaxSizeConfigKeyConstant: defaultLogFileMaxSizeMegabytesConstant,
	}
	for configurationKey, configurationValue := range workflow.DefaultConfigurationValues(syncConfigurationKeyConstant) {
		defaultValues[configurationKey] = configurationValue
	}
	return defaultValues
}

func (application *Application) applyLoggingFlagOverrides(command *cobra.Command) {
	overrides := []struct {
		flagName string
		value    string
		target   *string
	}{
		{flagName: logLevelFlagNameConstant, value: application.logLevelFlagValue, target: &application.configuration.Common.LogLevel},
		{flagName: logFormatFlagNameConstant, value: application.logFormatFlagValue, target: &application.configuration.Common.LogFormat},
		{flagName: logFileFlagNameConstant, value: application.logFileFlagValue, target: &application.configuration.Common.LogFile},
	}
	for _, override := range overrides {
		if application.persistentFlagChanged(command, override.flagName) {
			*override.target = override.value
		}
	}
}

func (application *Application) configureLogger() error {
	commonConfiguration := application.configuration.Common
	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(commonConfiguration.LogLevel),
		utils.LogFormat(commonConfiguration.LogFormat),
		utils.LogFileOptions{
			Path:             commonConfiguration.LogFile,
			MaxSizeMegabytes: commonConfiguration.LogFileMaxSizeMegabytes,
		},
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.loggerOutputs = loggerOutputs
	application.logger = loggerOutputs.DiagnosticLogger
	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, commonConfiguration.LogLevel),
		zap.String(configurationLogFormatFieldConstant, commonConfiguration.LogFormat),
		zap.String(configurationLogFileFieldConstant, loggerOutputs.LogFilePath()),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	return nil
}

func (application *Application) attachRunSettings(command *cobra.Command) {
	if command == nil {
		return
	}

	updatedContext := application.commandContextAccessor.WithRunSettings(command.Context(), utils.RunSettings{
		ConfigurationFile: application.configurationMetadata.ConfigFileUsed,
		LogFile:           application.loggerOutputs.LogFilePath(),
	})
	command.SetContext(updatedContext)
	if rootCommand := command.Root(); rootCommand != nil {
		rootCommand.SetContext(updatedContext)
	}
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

// flushLogger syncs the logger, ignoring the errors terminals and pipes report for fsync.
func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
