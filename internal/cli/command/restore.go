package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// RestoreCommand returns the restore command.
func RestoreCommand() *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Replay a backup into a fresh conversation in the host",
		ArgsUsage: "IDENTITY SNAPSHOT_TIME",
		Action:    restoreRun,
	}
}

func restoreRun(c *cli.Context) error {
	identity, snapshotTime, err := recordKeyArgs(c)
	if err != nil {
		return err
	}

	prompt := fmt.Sprintf("Restore %s @ %s? The host's current conversation view will be replaced",
		identity, formatSnapshotTime(snapshotTime))
	if !confirm(c, prompt) {
		fmt.Fprintln(c.App.Writer, "Aborted")
		return nil
	}

	ctx, cancel := requestContext()
	defer cancel()

	var result struct {
		Restored bool `json:"restored"`
	}
	err = apiClient(c).Post(ctx, "/v1/backups/restore", map[string]any{
		"conversation_identity": identity,
		"snapshot_time":         snapshotTime,
	}, &result)
	if err != nil {
		return err
	}
	if !result.Restored {
		return fmt.Errorf("restore failed; the conversation was not replaced")
	}
	fmt.Fprintln(c.App.Writer, "Conversation restored")
	return nil
}
