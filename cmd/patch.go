package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var patch = cli.Command{
	Name:  "patch",
	Usage: "replace every occurrence of a value in a region of a process",
	ArgsUsage: `<pid> <region> <kind> <from> <to>

   Prints how many writes were applied and the addresses that failed.`,
	Action: pidCommand(Patch, 5, utils.ExactArgs),
}
