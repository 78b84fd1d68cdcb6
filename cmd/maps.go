package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var maps = cli.Command{
	Name:      "maps",
	Usage:     "list the memory regions of a process",
	ArgsUsage: "<pid> [filter]",
	Action: func(context *cli.Context) error {
		if context.NArg() > 2 {
			return utils.CheckArgs(context, 2, utils.MaxArgs, nil)
		}
		return pidCommand(Maps, 1, utils.MinArgs)(context)
	},
}
