package proc

import (
	"errors"
	"fmt"
	e "prowl/error"

	"golang.org/x/sys/unix"
)

// Remote accesses the memory of another process through
// process_vm_readv(2) and process_vm_writev(2).
type Remote struct {
	pid int
}

func NewRemote(pid int) (*Remote, error) {
	return &Remote{pid: pid}, nil
}

func (r *Remote) Pid() int {
	return r.pid
}

func (r *Remote) ReadMemory(buf []byte, addr uint64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	n, err := readMemory(r.pid, buf, uintptr(addr))
	if err != nil {
		return n, remoteErr(e.RemoteReadFailed, r.pid, addr, err)
	}
	return n, nil
}

func (r *Remote) WriteMemory(addr uint64, data []byte) (int, error) {
	if len(data) == 0 {
		return 0, nil
	}

	n, err := writeMemory(r.pid, data, uintptr(addr))
	if err != nil {
		return n, remoteErr(e.RemoteWriteFailed, r.pid, addr, err)
	}
	return n, nil
}

func (r *Remote) ReadVector(bufs [][]byte, addrs []uint64) (int, error) {
	if len(bufs) != len(addrs) {
		return 0, fmt.Errorf("vector length mismatch: %d buffers, %d addresses", len(bufs), len(addrs))
	}
	if len(bufs) == 0 {
		return 0, nil
	}

	localIov := make([]unix.Iovec, 0, len(bufs))
	remoteIov := make([]unix.RemoteIovec, 0, len(bufs))
	for i, b := range bufs {
		if len(b) == 0 {
			continue
		}
		iov := unix.Iovec{Base: &b[0]}
		iov.SetLen(len(b))
		localIov = append(localIov, iov)
		remoteIov = append(remoteIov, unix.RemoteIovec{Base: uintptr(addrs[i]), Len: len(b)})
	}

	n, err := unix.ProcessVMReadv(r.pid, localIov, remoteIov, 0)
	if err != nil {
		return n, remoteErr(e.RemoteReadFailed, r.pid, addrs[0], err)
	}
	return n, nil
}

func readMemory(pid int, data []byte, ptr uintptr) (int, error) {
	localIov := []unix.Iovec{
		{Base: &data[0]},
	}
	localIov[0].SetLen(len(data))

	remoteIov := []unix.RemoteIovec{
		{
			Base: ptr,
			Len:  len(data),
		},
	}

	return unix.ProcessVMReadv(pid, localIov, remoteIov, 0)
}

func writeMemory(pid int, data []byte, ptr uintptr) (int, error) {
	localIov := []unix.Iovec{
		{Base: &data[0]},
	}
	localIov[0].SetLen(len(data))

	remoteIov := []unix.RemoteIovec{
		{
			Base: ptr,
			Len:  len(data),
		},
	}

	return unix.ProcessVMWritev(pid, localIov, remoteIov, 0)
}

// remoteErr keeps the errno reachable through errors.Is and folds ESRCH
// into NoSuchProcess.
func remoteErr(kind error, pid int, addr uint64, errno error) error {
	if errors.Is(errno, unix.ESRCH) {
		kind = e.NoSuchProcess
	}
	return fmt.Errorf("pid %d addr %#x: %w: %w", pid, addr, kind, errno)
}
