package command

import (
	"github.com/urfave/cli/v2"
)

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show server status and build information",
		Action: statusRun,
	}
}

type statusResult struct {
	Backups    int          `json:"backups"`
	MaxPerChat int          `json:"max_per_chat"`
	Build      buildDetails `json:"build"`
}

type buildDetails struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

func statusRun(c *cli.Context) error {
	ctx, cancel := requestContext()
	defer cancel()

	var result statusResult
	if err := apiClient(c).Get(ctx, "/v1/status", &result); err != nil {
		return err
	}
	return formatter(c).Format(c.App.Writer, map[string]any{
		"server":       apiClient(c).BaseURL(),
		"backups":      result.Backups,
		"max_per_chat": result.MaxPerChat,
		"version":      result.Build.Version,
		"commit":       result.Build.Commit,
		"go_version":   result.Build.GoVersion,
	})
}
