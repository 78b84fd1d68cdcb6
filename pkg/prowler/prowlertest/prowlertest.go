// Package prowlertest provides a prowler backed by in-memory heap and stack
// regions, for tests of the layers built on top of it.
package prowlertest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	e "prowl/error"
	"prowl/pkg/prowler"
	"prowl/pkg/region"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	Pid        = 4242
	HeapStart  = 0x55d0_0000
	StackStart = 0x7ffc_0000
	// ReadOnly is a mapped region whose writes always fail.
	ReadOnly = 0x7f00_0000
)

// Target is the fake process memory. The heap holds a zero u32 at
// HeapStart+8 among 0xff bytes; the stack holds 1000000000 at
// StackStart+4 among 0x11 bytes; ReadOnly holds 1000000000 at offset 0.
type Target struct {
	mu       sync.Mutex
	segments map[uint64][]byte
}

func NewTarget() *Target {
	heap := bytes.Repeat([]byte{0xff}, 16)
	binary.NativeEndian.PutUint32(heap[8:], 0)
	stack := bytes.Repeat([]byte{0x11}, 16)
	binary.NativeEndian.PutUint32(stack[4:], 1000000000)
	ro := make([]byte, 8)
	binary.NativeEndian.PutUint32(ro, 1000000000)

	return &Target{segments: map[uint64][]byte{
		HeapStart:  heap,
		StackStart: stack,
		ReadOnly:   ro,
	}}
}

func (t *Target) locate(addr uint64, n int) (uint64, []byte, bool) {
	for start, data := range t.segments {
		if addr >= start && addr+uint64(n) <= start+uint64(len(data)) {
			return start, data[addr-start:], true
		}
	}
	return 0, nil, false
}

func (t *Target) ReadMemory(buf []byte, addr uint64) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, src, ok := t.locate(addr, len(buf))
	if !ok {
		return 0, fmt.Errorf("addr %#x: %w", addr, e.RemoteReadFailed)
	}
	return copy(buf, src), nil
}

func (t *Target) WriteMemory(addr uint64, data []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	start, dst, ok := t.locate(addr, len(data))
	if !ok || start == ReadOnly {
		return 0, fmt.Errorf("addr %#x: %w", addr, e.RemoteWriteFailed)
	}
	return copy(dst, data), nil
}

// Uint32 reads the native-endian word at addr.
func (t *Target) Uint32(addr uint64) uint32 {
	buf := make([]byte, 4)
	if _, err := t.ReadMemory(buf, addr); err != nil {
		panic(err)
	}
	return binary.NativeEndian.Uint32(buf)
}

func (t *Target) Regions() region.Set {
	perms := region.PermissionRead | region.PermissionWrite | region.PermissionPrivate
	return region.Set{
		{Start: 0x40_0000, End: 0x40_1000, Name: "/usr/bin/target", Perms: region.PermissionRead | region.PermissionExecute | region.PermissionPrivate},
		{Start: HeapStart, End: HeapStart + 16, Tag: region.Heap, Name: "[heap]", Perms: perms},
		{Start: ReadOnly, End: ReadOnly + 8, Name: "/usr/lib/libc.so.6", Perms: region.PermissionRead | region.PermissionPrivate},
		{Start: StackStart, End: StackStart + 16, Tag: region.Stack, Name: "[stack]", Perms: perms},
	}
}

// New returns a prowler over a fresh Target.
func New(tb testing.TB, opts ...prowler.Option) (*prowler.Prowler, *Target) {
	tb.Helper()

	target := NewTarget()
	opts = append([]prowler.Option{
		prowler.WithMemory(target),
		prowler.WithDiscover(func(int) (region.Set, error) { return target.Regions(), nil }),
		prowler.WithLogger(zap.NewNop().Sugar()),
	}, opts...)

	p, err := prowler.NewProwler(Pid, opts...)
	require.NoError(tb, err)
	return p, target
}
