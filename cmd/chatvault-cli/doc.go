// Package main provides the entry point for chatvault-cli.
//
// chatvault-cli is the command-line management tool for ChatVault:
// listing, inspecting, creating, deleting, and restoring conversation
// backups against a running chatvault-server.
package main
