package utils

import (
	"fmt"
	"strconv"

	"github.com/shirou/gopsutil/v4/process"
)

// CheckPid parses pid and makes sure a process with that id is running.
func CheckPid(pid string) (int, error) {
	n, err := strconv.ParseInt(pid, 10, 32)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid pid %q", pid)
	}

	exists, err := process.PidExists(int32(n))
	if err != nil {
		return 0, fmt.Errorf("checking pid %d: %w", n, err)
	}
	if !exists {
		return 0, fmt.Errorf("process %d does not exist", n)
	}
	return int(n), nil
}

// Describe returns "name (user)" for pid, or an empty string when the
// process cannot be inspected.
func Describe(pid int) string {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return ""
	}

	name, err := p.Name()
	if err != nil {
		return ""
	}
	if user, err := p.Username(); err == nil {
		return fmt.Sprintf("%s (%s)", name, user)
	}
	return name
}
