package terminal

import (
	"errors"
	"fmt"
	"prowl/pkg/value"
	"prowl/service"
	"strings"
	"text/tabwriter"
)

type cmdFn func(term *Term, args string) error

type command struct {
	aliases []string
	fn      cmdFn
	help    string
}

func (c command) match(cmdstr string) bool {
	for _, v := range c.aliases {
		if v == cmdstr {
			return true
		}
	}
	return false
}

type Commands struct {
	cmds   []command
	client service.Client
}

func kindList() string {
	kinds := make([]string, len(value.Kinds))
	for i, k := range value.Kinds {
		kinds[i] = string(k)
	}
	return strings.Join(kinds, " ")
}

func NewCommands(client service.Client) *Commands {
	c := &Commands{
		client: client,
	}

	c.cmds = []command{
		{
			aliases: []string{"help", "h"},
			fn:      c.help,
			help: `Prints the help message.

	help [command]

Type "help" followed by the name of a command for more information about it.`},
		{
			aliases: []string{"maps", "m"},
			fn:      remote(service.Maps),
			help: `List the memory regions of the target.

	maps [filter]

The filter fuzzy matches region labels. The "#<n>" column can be used as a
region name in find and patch.`},
		{
			aliases: []string{"find", "f"},
			fn:      remote(service.Find),
			help: `Search a region for a value.

	find <region> <kind> <value>

<region> is heap, stack, a mapping label, a file name or #<n>.
<kind> is one of: ` + kindList() + `.
Quote str values containing spaces.

The region is read in steps of the value's width, so a value is only found
at offsets from the region start that are a multiple of its width. A str of
5 bytes at offset 3 is not reported.`},
		{
			aliases: []string{"patch", "p"},
			fn:      remote(service.Patch),
			help: `Replace every occurrence of a value in a region.

	patch <region> <kind> <from> <to>

The region is scanned again before writing; the matches found are
overwritten even if the target changed them in between. Matching steps by
the width of <from> as in find, so unaligned occurrences are not patched.`},
		{
			aliases: []string{"peek", "x"},
			fn:      remote(service.Peek),
			help: `Dump raw memory.

	peek <addr> <len> [kind]

With a kind the bytes are also decoded as that value.`},
		{
			aliases: []string{"transcript"},
			fn:      transcript,
			help: `Appends command output to a file.

	transcript [-t] <output file>
	transcript -off

Output of commands is appended to the specified output file. If -t is
specified the file is truncated first. Use -off to stop.`},
		{
			aliases: []string{"exit", "quit", "q"},
			fn:      exit,
			help:    "Exit the terminal.",
		},
	}
	return c
}

// Find will look up the command function for the given command input.
// If it cannot find the command it will default to noCmdAvailable().
func (c *Commands) Find(cmdstr string) command {
	if cmdstr == "" {
		return command{aliases: []string{"nullcmd"}, fn: nullCommand}
	}

	for _, v := range c.cmds {
		if v.match(cmdstr) {
			return v
		}
	}

	return command{aliases: []string{"nocmd"}, fn: noCmdAvailable}
}

func (c *Commands) Call(cmdStr string, t *Term) error {
	cmd, argStr, _ := strings.Cut(strings.TrimSpace(cmdStr), " ")

	return c.Find(cmd).fn(t, strings.TrimSpace(argStr))
}

// Aliases returns every name a command answers to.
func (c *Commands) Aliases() []string {
	var names []string
	for _, cmd := range c.cmds {
		names = append(names, cmd.aliases...)
	}
	return names
}

func (c *Commands) help(t *Term, args string) error {
	if args != "" {
		cmd := c.Find(args)
		if cmd.aliases[0] == "nocmd" {
			return errNoCmd
		}
		_, err := fmt.Fprintln(t.stdout, cmd.help)
		return err
	}

	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, '-', 0)
	for _, cmd := range c.cmds {
		h := cmd.help
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(t.stdout)
	fmt.Fprintln(t.stdout, "Type help followed by a command for full documentation.")
	return nil
}

// remote forwards the command to the server and prints what it returns.
func remote(cmdType service.CmdType) cmdFn {
	return func(t *Term, args string) error {
		out, err := t.client.SendExpr(cmdType, args)
		if err != nil {
			return err
		}

		t.stdout.Output(out)
		return nil
	}
}

func transcript(t *Term, args string) error {
	var (
		truncate bool
		path     string
	)
	for _, arg := range strings.Fields(args) {
		switch arg {
		case "-off":
			return t.stdout.CloseTranscript()
		case "-t":
			truncate = true
		default:
			if path != "" {
				return errors.New("too many arguments")
			}
			path = arg
		}
	}

	if path == "" {
		return errors.New("not enough arguments")
	}
	return t.stdout.OpenTranscript(path, !truncate)
}

type ExitRequestError struct{}

func (ere ExitRequestError) Error() string {
	return ""
}

func exit(t *Term, args string) error {
	return ExitRequestError{}
}

var errNoCmd = errors.New("command not available")

func noCmdAvailable(t *Term, args string) error {
	return errNoCmd
}

func nullCommand(t *Term, args string) error {
	return nil
}
