// Package logger provides structured logging for ChatVault.
//
// It wraps log/slog to provide structured JSON logging with optional
// redaction of conversation content, context-aware attempt id
// propagation, and dynamic level adjustment.
package logger
