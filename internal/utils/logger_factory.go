package utils

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logLevelDebugStringConstant          = "debug"
	logLevelInfoStringConstant           = "info"
	logLevelWarnStringConstant           = "warn"
	logLevelErrorStringConstant          = "error"
	logFormatStructuredStringConstant    = "structured"
	logFormatConsoleStringConstant       = "console"
	jsonZapEncodingStringConstant        = "json"
	consoleZapEncodingStringConstant     = "console"
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
	invalidLogFileSizeTemplateConstant   = "log file size must be positive: %d"
	defaultLogFileMaxSizeMegabytes       = 10
	defaultLogFileMaxBackups             = 3
	defaultLogFileMaxAgeDays             = 30
)

// LogLevel enumerates supported logging granularities.
type LogLevel string

// Exported log level constants for reuse across packages.
const (
	LogLevelDebug LogLevel = LogLevel(logLevelDebugStringConstant)
	LogLevelInfo  LogLevel = LogLevel(logLevelInfoStringConstant)
	LogLevelWarn  LogLevel = LogLevel(logLevelWarnStringConstant)
	LogLevelError LogLevel = LogLevel(logLevelErrorStringConstant)
)

// LogFormat enumerates supported logger output encodings.
type LogFormat string

// Exported log format constants for reuse across packages.
const (
	LogFormatStructured LogFormat = LogFormat(logFormatStructuredStringConstant)
	LogFormatConsole    LogFormat = LogFormat(logFormatConsoleStringConstant)
)

// LogFileOptions configures the optional rotating log file sink.
type LogFileOptions struct {
	Path             string
	MaxSizeMegabytes int
	MaxBackups       int
	MaxAgeDays       int
}

// Enabled reports whether a log file path has been configured.
func (options LogFileOptions) Enabled() bool {
	return len(strings.TrimSpace(options.Path)) > 0
}

// LoggerOutputs bundles the diagnostic logger with the resources backing it.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	fileSink         *lumberjack.Logger
}

// LogFilePath returns the rotating log file path, or an empty string when no file sink is attached.
func (outputs LoggerOutputs) LogFilePath() string {
	if outputs.fileSink == nil {
		return ""
	}
	return outputs.fileSink.Filename
}

// Close releases the rotating log file when one is attached.
func (outputs LoggerOutputs) Close() error {
	if outputs.fileSink == nil {
		return nil
	}
	return outputs.fileSink.Close()
}

// LoggerFactory builds zap.Logger instances with consistent configuration.
type LoggerFactory struct{}

var logLevelMapping = map[LogLevel]zapcore.Level{
	LogLevelDebug: zapcore.DebugLevel,
	LogLevelInfo:  zapcore.InfoLevel,
	LogLevelWarn:  zapcore.WarnLevel,
	LogLevelError: zapcore.ErrorLevel,
}

var logFormatEncodingMapping = map[LogFormat]string{
	LogFormatStructured: jsonZapEncodingStringConstant,
	LogFormatConsole:    consoleZapEncodingStringConstant,
}

// NewLoggerFactory constructs a new logger factory.
func NewLoggerFactory() *LoggerFactory {
	return &LoggerFactory{}
}

// CreateLogger produces a zap.Logger writing to standard error with the requested level and format.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	loggerOutputs, creationError := factory.CreateLoggerOutputs(requestedLogLevel, requestedLogFormat, LogFileOptions{})
	if creationError != nil {
		return nil, creationError
	}
	return loggerOutputs.DiagnosticLogger, nil
}

// CreateLoggerOutputs produces a logger writing to standard error and, when fileOptions names a path,
// tees JSON entries into a lumberjack-rotated log file.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat, fileOptions LogFileOptions) (LoggerOutputs, error) {
	zapLogLevel, levelExists := logLevelMapping[LogLevel(strings.ToLower(strings.TrimSpace(string(requestedLogLevel))))]
	if !levelExists {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogLevelTemplateConstant, requestedLogLevel)
	}

	encoding, formatExists := logFormatEncodingMapping[LogFormat(strings.ToLower(strings.TrimSpace(string(requestedLogFormat))))]
	if !formatExists {
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, requestedLogFormat)
	}

	atomicLevel := zap.NewAtomicLevelAt(zapLogLevel)
	configuration := zap.NewProductionConfig()
	configuration.Level = atomicLevel
	configuration.Encoding = encoding
	if encoding == consoleZapEncodingStringConstant {
		configuration.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		configuration.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	logger, buildError := configuration.Build()
	if buildError != nil {
		return LoggerOutputs{}, buildError
	}

	if !fileOptions.Enabled() {
		return LoggerOutputs{DiagnosticLogger: logger}, nil
	}

	fileSink, sinkError := newRotatingFileSink(fileOptions)
	if sinkError != nil {
		return LoggerOutputs{}, sinkError
	}

	fileEncoderConfiguration := zap.NewProductionEncoderConfig()
	fileEncoderConfiguration.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfiguration), zapcore.AddSync(fileSink), atomicLevel)

	teedLogger := logger.WithOptions(zap.WrapCore(func(standardErrorCore zapcore.Core) zapcore.Core {
		return zapcore.NewTee(standardErrorCore, fileCore)
	}))

	return LoggerOutputs{DiagnosticLogger: teedLogger, fileSink: fileSink}, nil
}

func newRotatingFileSink(fileOptions LogFileOptions) (*lumberjack.Logger, error) {
	maxSize := fileOptions.MaxSizeMegabytes
	if maxSize == 0 {
		maxSize = defaultLogFileMaxSizeMegabytes
	}
	if maxSize < 0 {
		return nil, fmt.Errorf(invalidLogFileSizeTemplateConstant, fileOptions.MaxSizeMegabytes)
	}

	maxBackups := fileOptions.MaxBackups
	if maxBackups <= 0 {
		maxBackups = defaultLogFileMaxBackups
	}

	maxAge := fileOptions.MaxAgeDays
	if maxAge <= 0 {
		maxAge = defaultLogFileMaxAgeDays
	}

	return &lumberjack.Logger{
		Filename:   strings.TrimSpace(fileOptions.Path),
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		MaxAge:     maxAge,
		Compress:   false,
	}, nil
}
