package utils

import (
	"fmt"
	"io"
	"os"
	"prowl/pkg/region"
	"regexp"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	colorAddr  = "\033[36m"
	colorError = "\033[31m"
	colorReset = "\033[0m"
)

var addrPattern = regexp.MustCompile(`0x[0-9a-f]+`)

// Stdout is a writer that understands ANSI escapes on every platform.
func Stdout() io.Writer {
	return colorable.NewColorableStdout()
}

func ColorEnabled() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Highlight colors the hex addresses in s.
func Highlight(s string) string {
	return addrPattern.ReplaceAllString(s, colorAddr+"$0"+colorReset)
}

// PrintOutput writes command output, highlighted when stdout is a terminal.
func PrintOutput(w io.Writer, out string, color bool) {
	out = strings.TrimRight(out, "\n")
	if color {
		out = Highlight(out)
	}
	fmt.Fprintln(w, out)
}

func PrintError(w io.Writer, err error, color bool) {
	if color {
		fmt.Fprintf(w, "%s%v%s\n", colorError, err, colorReset)
		return
	}
	fmt.Fprintln(w, err)
}

func PrintStringLine(s ...string) {
	for _, str := range s {
		fmt.Println(str)
	}
}

// FormatRegions renders one line per region kept by keep, numbered by its
// position in set so it can be selected with "#<n>".
func FormatRegions(set region.Set, keep func(region.Region) bool) string {
	var b strings.Builder
	for i, r := range set {
		if !keep(r) {
			continue
		}
		fmt.Fprintf(&b, "#%-3d %-5s %#014x-%#014x %10d %s %s\n", i, r.Tag, r.Start, r.End, r.Size(), r.Perms, r.Label())
	}
	return b.String()
}

func FormatAddrs(addrs []uint64) string {
	var b strings.Builder
	for _, addr := range addrs {
		fmt.Fprintf(&b, "%#x\n", addr)
	}
	return b.String()
}

// HexDump renders data 16 bytes per line, each line prefixed with its
// address in the target.
func HexDump(addr uint64, data []byte) string {
	var b strings.Builder
	for off := 0; off < len(data); off += 16 {
		line := data[off:min(off+16, len(data))]

		fmt.Fprintf(&b, "%#014x ", addr+uint64(off))
		for i := 0; i < 16; i++ {
			if i < len(line) {
				fmt.Fprintf(&b, " %02x", line[i])
			} else {
				b.WriteString("   ")
			}
		}

		b.WriteString("  |")
		for _, c := range line {
			if c < 0x20 || c > 0x7e {
				c = '.'
			}
			b.WriteByte(c)
		}
		b.WriteString("|\n")
	}
	return b.String()
}
