package scanner

import (
	"fmt"
	e "prowl/error"
)

// fakeMemory is a flat byte range at base. Reads touching a bad address or
// leaving the range fail.
type fakeMemory struct {
	base  uint64
	data  []byte
	bad   map[uint64]bool
	gone  bool
	flaky map[uint64]int

	reads   int
	vectors int
}

func newFakeMemory(base uint64, size int) *fakeMemory {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return &fakeMemory{base: base, data: data, bad: map[uint64]bool{}, flaky: map[uint64]int{}}
}

func (m *fakeMemory) check(addr uint64, n int) error {
	if m.gone {
		return e.NoSuchProcess
	}
	for a := addr; a < addr+uint64(n); a++ {
		if m.bad[a] {
			return fmt.Errorf("addr %#x: %w", addr, e.RemoteReadFailed)
		}
	}
	if addr < m.base || addr+uint64(n) > m.base+uint64(len(m.data)) {
		return fmt.Errorf("addr %#x: %w", addr, e.RemoteReadFailed)
	}
	return nil
}

func (m *fakeMemory) ReadMemory(buf []byte, addr uint64) (int, error) {
	m.reads++
	if left := m.flaky[addr]; left > 0 {
		m.flaky[addr] = left - 1
		return 0, e.RemoteReadFailed
	}
	if err := m.check(addr, len(buf)); err != nil {
		return 0, err
	}
	return copy(buf, m.data[addr-m.base:]), nil
}

// vectorMemory adds ReadVector with process_vm_readv partial semantics.
type vectorMemory struct {
	*fakeMemory
}

func (m vectorMemory) ReadVector(bufs [][]byte, addrs []uint64) (int, error) {
	m.vectors++
	n := 0
	for i, b := range bufs {
		if err := m.check(addrs[i], len(b)); err != nil {
			if n == 0 {
				return -1, err
			}
			return n, nil
		}
		n += copy(b, m.data[addrs[i]-m.base:])
	}
	return n, nil
}
