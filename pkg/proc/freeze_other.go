//go:build !linux

package proc

import (
	e "prowl/error"
)

func Freeze(pid int) (thaw func() error, err error) {
	return nil, e.Unsupported
}

func State(pid int) (byte, error) {
	return 0, e.Unsupported
}
