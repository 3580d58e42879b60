package command

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"
)

// backupSummary mirrors the server's record summary for display.
type backupSummary struct {
	ConversationIdentity string `json:"conversation_identity"`
	SnapshotTime         int64  `json:"snapshot_time" table:"-"`
	Taken                string `json:"taken,omitempty"`
	EntityLabel          string `json:"entity_label"`
	ConversationLabel    string `json:"conversation_label"`
	MessageCount         int    `json:"message_count"`
	LastMessageIndex     int    `json:"last_message_index" table:"wide"`
	LastMessagePreview   string `json:"last_message_preview" table:"wide"`
}

// BackupCommand returns the backup subcommand group.
func BackupCommand() *cli.Command {
	return &cli.Command{
		Name:    "backup",
		Aliases: []string{"bkp"},
		Usage:   "Manage conversation backups",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List backups, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "identity",
						Aliases: []string{"i"},
						Usage:   "Only backups of this conversation identity",
					},
				},
				Action: backupList,
			},
			{
				Name:      "show",
				Usage:     "Show one backup record including messages",
				ArgsUsage: "IDENTITY SNAPSHOT_TIME",
				Action:    backupShow,
			},
			{
				Name:   "create",
				Usage:  "Back up the host's current conversation now",
				Action: backupCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete one backup record",
				ArgsUsage: "IDENTITY SNAPSHOT_TIME",
				Action:    backupDelete,
			},
		},
	}
}

func backupList(c *cli.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	path := "/v1/backups"
	if identity := c.String("identity"); identity != "" {
		path += "?identity=" + url.QueryEscape(identity)
	}

	var result struct {
		Items []backupSummary `json:"items"`
		Total int             `json:"total"`
	}
	if err := apiClient(c).Get(ctx, path, &result); err != nil {
		return err
	}

	for i := range result.Items {
		result.Items[i].Taken = formatSnapshotTime(result.Items[i].SnapshotTime)
	}
	if err := formatter(c).Format(c.App.Writer, result.Items); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "\nTotal: %d backups\n", result.Total)
	return nil
}

func backupShow(c *cli.Context) error {
	identity, snapshotTime, err := recordKeyArgs(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext()
	defer cancel()

	var record map[string]any
	if err := apiClient(c).Get(ctx, recordPath(identity, snapshotTime), &record); err != nil {
		return err
	}
	return formatter(c).Format(c.App.Writer, record)
}

func backupCreate(c *cli.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	var result struct {
		Status    string         `json:"status"`
		AttemptID string         `json:"attempt_id"`
		Record    *backupSummary `json:"record"`
	}
	if err := apiClient(c).Post(ctx, "/v1/backups", nil, &result); err != nil {
		return err
	}

	switch result.Status {
	case "created":
		fmt.Fprintf(c.App.Writer, "Backup created (%s)\n", result.AttemptID)
		if result.Record != nil {
			result.Record.Taken = formatSnapshotTime(result.Record.SnapshotTime)
			return formatter(c).Format(c.App.Writer, result.Record)
		}
	case "skipped":
		fmt.Fprintln(c.App.Writer, "Backup skipped: an equal or newer snapshot already exists at this point")
	default:
		fmt.Fprintln(c.App.Writer, "Nothing to back up: no conversation is open")
	}
	return nil
}

func backupDelete(c *cli.Context) error {
	identity, snapshotTime, err := recordKeyArgs(c)
	if err != nil {
		return err
	}

	if !confirm(c, fmt.Sprintf("Delete backup %s @ %s?", identity, formatSnapshotTime(snapshotTime))) {
		fmt.Fprintln(c.App.Writer, "Aborted")
		return nil
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := apiClient(c).Delete(ctx, recordPath(identity, snapshotTime)); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Backup deleted")
	return nil
}

// recordKeyArgs parses the IDENTITY SNAPSHOT_TIME argument pair.
func recordKeyArgs(c *cli.Context) (string, int64, error) {
	identity := c.Args().Get(0)
	rawTime := c.Args().Get(1)
	if identity == "" || rawTime == "" {
		return "", 0, fmt.Errorf("usage: %s IDENTITY SNAPSHOT_TIME", c.Command.Name)
	}
	snapshotTime, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("SNAPSHOT_TIME must be a unix millisecond timestamp: %w", err)
	}
	return identity, snapshotTime, nil
}

func recordPath(identity string, snapshotTime int64) string {
	return fmt.Sprintf("/v1/backups/%s/%d", url.PathEscape(identity), snapshotTime)
}

func formatSnapshotTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04:05")
}
