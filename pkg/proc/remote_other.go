//go:build !linux

package proc

import (
	e "prowl/error"
)

type Remote struct {
	pid int
}

func NewRemote(pid int) (*Remote, error) {
	return nil, e.Unsupported
}

func (r *Remote) Pid() int {
	return r.pid
}

func (r *Remote) ReadMemory(buf []byte, addr uint64) (int, error) {
	return 0, e.Unsupported
}

func (r *Remote) WriteMemory(addr uint64, data []byte) (int, error) {
	return 0, e.Unsupported
}

func (r *Remote) ReadVector(bufs [][]byte, addrs []uint64) (int, error) {
	return 0, e.Unsupported
}
