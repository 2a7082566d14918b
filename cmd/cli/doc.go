// Package cli builds the olmsync command-line application. The sync workflow is the root command;
// this package layers the embedded default configuration, the viper-backed loader, and zap logging
// around it.
package cli
