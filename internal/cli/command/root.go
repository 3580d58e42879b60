package command

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chatvault/chatvault-go/internal/cli/client"
	"github.com/chatvault/chatvault-go/internal/cli/output"
	"github.com/chatvault/chatvault-go/internal/infra/buildinfo"
)

// DefaultServer is the address chatvault-server listens on by default.
const DefaultServer = "127.0.0.1:5580"

const requestTimeout = 30 * time.Second

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "chatvault-cli",
		Usage:   "ChatVault backup management tool",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			BackupCommand(),
			RestoreCommand(),
			StatusCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "chatvault-server address (e.g. 127.0.0.1:5580)",
			EnvVars: []string{"CHATVAULT_SERVER"},
			Value:   DefaultServer,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "force",
			Aliases: []string{"f"},
			Usage:   "Skip confirmation prompts",
		},
	}
}

// apiClient builds the API client from the global flags.
func apiClient(c *cli.Context) *client.Client {
	return client.New(c.String("server"))
}

// formatter builds the output formatter from the global flags.
func formatter(c *cli.Context) output.Formatter {
	return output.NewFormatter(output.Format(c.String("output")), c.Bool("wide"))
}

// requestContext returns a context bounded by the standard request
// timeout.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// confirm prompts unless --force is set. Any answer other than y/yes
// aborts.
func confirm(c *cli.Context, prompt string) bool {
	if c.Bool("force") {
		return true
	}
	fmt.Fprintf(c.App.Writer, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
