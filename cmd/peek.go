package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var peek = cli.Command{
	Name:      "peek",
	Usage:     "dump raw memory of a process",
	ArgsUsage: "<pid> <addr> <len> [kind]",
	Action: func(context *cli.Context) error {
		if context.NArg() > 4 {
			return utils.CheckArgs(context, 4, utils.MaxArgs, nil)
		}
		return pidCommand(Peek, 3, utils.MinArgs)(context)
	},
}
