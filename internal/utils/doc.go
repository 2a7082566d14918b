// Package utils exposes reusable helpers consumed by the olmsync command.
//
// It houses the ConfigurationLoader and LoggerFactory abstractions that
// integrate Viper, environment variables, zap logging, and the optional
// lumberjack-rotated log file.
package utils
