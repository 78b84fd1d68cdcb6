package proc

import (
	"bytes"
	"fmt"
	"os"
	e "prowl/error"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sys/unix"
)

const (
	stopPollInterval = 5 * time.Millisecond
	stopPollAttempts = 200
)

// Freeze stops pid with SIGSTOP and waits until the kernel reports it as
// stopped. The returned thaw resumes it with SIGCONT. A target that is
// already stopped is left alone and its thaw does nothing.
func Freeze(pid int) (thaw func() error, err error) {
	if pid == os.Getpid() {
		return nil, e.FreezeSelf
	}

	state, err := State(pid)
	if err != nil {
		return nil, err
	}
	if stopped(state) {
		return func() error { return nil }, nil
	}

	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		if err == unix.ESRCH {
			return nil, fmt.Errorf("pid %d: %w", pid, e.NoSuchProcess)
		}
		return nil, fmt.Errorf("stopping pid %d: %w", pid, err)
	}

	thaw = func() error {
		if err := unix.Kill(pid, unix.SIGCONT); err != nil {
			return fmt.Errorf("resuming pid %d: %w", pid, err)
		}
		return nil
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(stopPollInterval), stopPollAttempts)
	err = backoff.Retry(func() error {
		state, err := State(pid)
		if err != nil {
			return backoff.Permanent(err)
		}
		if !stopped(state) {
			return fmt.Errorf("pid %d in state %c, waiting for stop", pid, state)
		}
		return nil
	}, b)
	if err != nil {
		_ = thaw()
		return nil, err
	}

	return thaw, nil
}

// State returns the single letter process state from /proc/<pid>/stat.
func State(pid int) (byte, error) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, fmt.Errorf("pid %d: %w", pid, e.NoSuchProcess)
	}

	// comm may contain spaces and parentheses, the state follows the last ')'.
	i := bytes.LastIndexByte(data, ')')
	if i < 0 || i+2 >= len(data) {
		return 0, fmt.Errorf("unexpected stat format for pid %d", pid)
	}
	return data[i+2], nil
}

func stopped(state byte) bool {
	return state == 'T' || state == 't'
}
