package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var serve = cli.Command{
	Name:      "serve",
	Usage:     "serve find/patch/peek requests for a process until interrupted",
	ArgsUsage: "<pid>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "addr, a",
			Usage: "listen address, overrides server.addr of the configuration",
		},
	},
	Action: pidCommand(Serve, 1, utils.ExactArgs),
}
