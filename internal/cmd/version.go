package cmd

import (
	"github.com/zcatalyst/catalyst-go-sdk/transport"
)

type VersionCommand struct {
	*Command
}

func (c *VersionCommand) Synopsis() string {
	return "Print the SDK version"
}

func (c *VersionCommand) Help() string {
	return `Usage: catalyst version

  Prints the version of the SDK this CLI was built from.`
}

func (c *VersionCommand) Run(args []string) int {
	c.UI.Output(transport.Version)
	return 0
}

// normalizeArgs maps a lone -version or -v flag onto the version command.
func normalizeArgs(args []string) []string {
	if len(args) == 2 && (args[1] == "-version" || args[1] == "-v" || args[1] == "--version") {
		return []string{args[0], "version"}
	}
	return args
}
