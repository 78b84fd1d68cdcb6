package service

import (
	"fmt"
	"strings"
)

type CmdType int

const (
	Maps CmdType = iota
	Find
	Patch
	Peek
)

var cmdNames = [...]string{
	Maps:  "maps",
	Find:  "find",
	Patch: "patch",
	Peek:  "peek",
}

func (c CmdType) String() string {
	if c < 0 || int(c) >= len(cmdNames) {
		return fmt.Sprintf("CmdType(%d)", int(c))
	}
	return cmdNames[c]
}

func ParseCmdType(s string) (CmdType, bool) {
	s = strings.ToLower(s)
	for i, name := range cmdNames {
		if name == s {
			return CmdType(i), true
		}
	}
	return 0, false
}

// Expr joins cmd and its raw argument string into one expression.
func Expr(cmd CmdType, args string) string {
	return strings.TrimSpace(cmd.String() + " " + args)
}

// Client sends command expressions to a running prowl server.
type Client interface {
	SendExpr(cmdType CmdType, args string) (string, error)
	IsProwlServer() bool
	Close() error
}
