package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

// pidCommand checks the argument count, validates the leading pid and
// runs et against it.
func pidCommand(et ExecType, expected, checkType int) cli.ActionFunc {
	return func(context *cli.Context) error {
		var pid int
		check := func(args cli.Args) (err error) {
			pid, err = utils.CheckPid(args.First())
			return err
		}

		if err := utils.CheckArgs(context, expected, checkType, check); err != nil {
			return err
		}
		return exec(et, pid, context)
	}
}
