// Package logs reads the bot's daily log files for the CLI: the last N lines
// of the newest file and a polling follow mode that survives truncation.
package logs
