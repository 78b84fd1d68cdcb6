package cmd

import (
	"prowl/utils"

	"github.com/urfave/cli"
)

var find = cli.Command{
	Name:  "find",
	Usage: "search a region of a process for a value",
	ArgsUsage: `<pid> <region> <kind> <value>

   <region> is heap, stack, a mapping label, a file name or #<n> from maps.
   <kind> is one of u8 u16 u32 u64 i8 i16 i32 i64 f32 f64 str hex.`,
	Action: pidCommand(Find, 4, utils.ExactArgs),
}
