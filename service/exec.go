package service

import (
	"fmt"
	e "prowl/error"
	"prowl/pkg/prowler"
	"prowl/pkg/region"
	"prowl/pkg/value"
	"prowl/utils"
	"strconv"
	"strings"

	"github.com/google/shlex"
)

var usages = map[CmdType]string{
	Maps:  "maps [filter]",
	Find:  "find <region> <kind> <value>",
	Patch: "patch <region> <kind> <from> <to>",
	Peek:  "peek <addr> <len> [kind]",
}

func Usage(cmd CmdType) string {
	return usages[cmd]
}

// Resolve splits expr into its command and arguments. Quoted arguments keep
// their spaces, so text values can be searched for.
func Resolve(expr string) (CmdType, []string, error) {
	fields, err := shlex.Split(expr)
	if err != nil {
		return 0, nil, fmt.Errorf("%q: %v: %w", expr, err, e.InvalidExpression)
	}
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty expression: %w", e.InvalidExpression)
	}

	cmd, ok := ParseCmdType(fields[0])
	if !ok {
		return 0, nil, fmt.Errorf("unknown command %q: %w", fields[0], e.InvalidExpression)
	}
	return cmd, fields[1:], nil
}

// Exec runs one command against p and renders its result as text.
func Exec(p *prowler.Prowler, cmd CmdType, args []string) (string, error) {
	switch cmd {
	case Maps:
		return maps(p, args)
	case Find:
		return find(p, args)
	case Patch:
		return patch(p, args)
	case Peek:
		return peek(p, args)
	}
	return "", fmt.Errorf("unknown command %s: %w", cmd, e.InvalidExpression)
}

// ExecExpr resolves and runs expr.
func ExecExpr(p *prowler.Prowler, expr string) (string, error) {
	cmd, args, err := Resolve(expr)
	if err != nil {
		return "", err
	}
	return Exec(p, cmd, args)
}

func usageErr(cmd CmdType) error {
	return fmt.Errorf("usage: %s: %w", usages[cmd], e.InvalidExpression)
}

func maps(p *prowler.Prowler, args []string) (string, error) {
	if len(args) > 1 {
		return "", usageErr(Maps)
	}

	keep := func(region.Region) bool { return true }
	if len(args) == 1 {
		matched := make(map[string]bool)
		for _, label := range p.ListFuzzy(args[0]) {
			matched[label] = true
		}
		keep = func(r region.Region) bool { return matched[r.Label()] }
	}

	return utils.FormatRegions(p.Regions(), keep), nil
}

func encodeValue(kind, s string) ([]byte, error) {
	k, err := value.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, e.InvalidExpression)
	}
	b, err := value.Encode(k, s)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, e.InvalidExpression)
	}
	return b, nil
}

func find(p *prowler.Prowler, args []string) (string, error) {
	if len(args) != 3 {
		return "", usageErr(Find)
	}

	pattern, err := encodeValue(args[1], args[2])
	if err != nil {
		return "", err
	}

	addrs, err := p.Find(args[0], pattern)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d match(es) in %s\n", len(addrs), args[0])
	b.WriteString(utils.FormatAddrs(addrs))
	return b.String(), nil
}

func patch(p *prowler.Prowler, args []string) (string, error) {
	if len(args) != 4 {
		return "", usageErr(Patch)
	}

	from, err := encodeValue(args[1], args[2])
	if err != nil {
		return "", err
	}
	to, err := encodeValue(args[1], args[3])
	if err != nil {
		return "", err
	}

	res, err := p.ReplaceValue(args[0], from, to)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s\n", res, args[0])
	if len(res.Failed) > 0 {
		b.WriteString("failed:\n")
		b.WriteString(utils.FormatAddrs(res.Failed))
	}
	return b.String(), nil
}

func peek(p *prowler.Prowler, args []string) (string, error) {
	if len(args) != 2 && len(args) != 3 {
		return "", usageErr(Peek)
	}

	addr, err := strconv.ParseUint(args[0], 0, 64)
	if err != nil {
		return "", fmt.Errorf("address %q: %w", args[0], e.InvalidExpression)
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return "", fmt.Errorf("length %q: %w", args[1], e.InvalidExpression)
	}
	if n > prowler.MaxPeek {
		return "", fmt.Errorf("length %d above %d: %w", n, prowler.MaxPeek, e.InvalidExpression)
	}

	data, err := p.Peek(addr, n)
	if err != nil {
		return "", err
	}

	out := utils.HexDump(addr, data)
	if len(args) == 3 {
		k, err := value.ParseKind(args[2])
		if err != nil {
			return "", fmt.Errorf("%v: %w", err, e.InvalidExpression)
		}
		out += fmt.Sprintf("%s: %s\n", k, value.Decode(k, data))
	}
	return out, nil
}
