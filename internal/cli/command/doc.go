// Package command defines the chatvault-cli commands on top of
// urfave/cli: backup listing and inspection, manual backup, restore,
// delete, and server status.
package command
