// Package ui provides helpers for formatting human-readable console output.
//
// The helpers translate workflow milestones into the short progress lines an operator
// watches during a sync, while detailed telemetry continues to flow through structured loggers.
package ui
