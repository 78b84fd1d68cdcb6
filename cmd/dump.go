package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var dump = cli.Command{
	Name:      "dump",
	Usage:     "write a zstd compressed snapshot of a region to a file",
	ArgsUsage: "<pid> <region> <file>",
	Action:    pidCommand(Dump, 3, utils.ExactArgs),
}
