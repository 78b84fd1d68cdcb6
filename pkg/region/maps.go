package region

import (
	"bufio"
	"fmt"
	"io"
	"os"
	e "prowl/error"
	"strconv"
	"strings"
)

// Discover parses /proc/<pid>/maps.
func Discover(pid int) (Set, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, fmt.Errorf("pid %d: %w: %w", pid, e.NoSuchProcess, err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads a maps description. Each line is either the kernel format
//
//	start-end perms offset dev inode [label]
//
// or the short form "start-end [label]". A single malformed line fails the
// whole parse.
func Parse(r io.Reader) (Set, error) {
	var regions Set

	scan := bufio.NewScanner(r)
	lineNo := 0
	for scan.Scan() {
		lineNo++
		line := strings.TrimSpace(scan.Text())
		if line == "" {
			continue
		}

		region, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d %q: %w", lineNo, line, err)
		}
		regions = append(regions, region)
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("reading maps: %w", err)
	}

	return regions, nil
}

func parseLine(line string) (Region, error) {
	fields := strings.Fields(line)

	startHex, endHex, ok := strings.Cut(fields[0], "-")
	if !ok {
		return Region{}, fmt.Errorf("%w: missing '-' in address range", e.MalformedMapEntry)
	}

	start, err := strconv.ParseUint(startHex, 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("%w: start: %w", e.MalformedMapEntry, err)
	}

	end, err := strconv.ParseUint(endHex, 16, 64)
	if err != nil {
		return Region{}, fmt.Errorf("%w: end: %w", e.MalformedMapEntry, err)
	}

	if start > end {
		return Region{}, fmt.Errorf("%w: start %#x after end %#x", e.MalformedMapEntry, start, end)
	}

	region := Region{Start: start, End: end}

	rest := fields[1:]
	if isKernelFormat(rest) {
		region.Perms = parsePerms(rest[0])
		if region.Offset, err = strconv.ParseUint(rest[1], 16, 64); err != nil {
			return Region{}, fmt.Errorf("%w: offset: %w", e.MalformedMapEntry, err)
		}
		region.Device = rest[2]
		if region.Inode, err = strconv.ParseUint(rest[3], 10, 64); err != nil {
			return Region{}, fmt.Errorf("%w: inode: %w", e.MalformedMapEntry, err)
		}
		rest = rest[4:]
	}

	region.Name = strings.Join(rest, " ")
	switch region.Name {
	case heapLabel:
		region.Tag = Heap
	case stackLabel:
		region.Tag = Stack
	default:
		region.Tag = Other
	}

	return region, nil
}

func isKernelFormat(fields []string) bool {
	if len(fields) < 4 || len(fields[0]) != 4 {
		return false
	}
	for _, c := range fields[0] {
		if !strings.ContainsRune("rwxsp-", c) {
			return false
		}
	}
	return strings.Contains(fields[2], ":")
}

func parsePerms(s string) Permission {
	var perms Permission
	if strings.ContainsRune(s, 'r') {
		perms |= PermissionRead
	}
	if strings.ContainsRune(s, 'w') {
		perms |= PermissionWrite
	}
	if strings.ContainsRune(s, 'x') {
		perms |= PermissionExecute
	}
	if strings.ContainsRune(s, 's') {
		perms |= PermissionShared
	}
	if strings.ContainsRune(s, 'p') {
		perms |= PermissionPrivate
	}
	return perms
}
