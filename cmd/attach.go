package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var attach = cli.Command{
	Name:      "attach",
	Usage:     "attach to a process and open an interactive terminal",
	ArgsUsage: "<pid>",
	Action:    pidCommand(Attach, 1, utils.ExactArgs),
}
