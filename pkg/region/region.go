// Package region turns a process memory-map description into address
// ranges tagged heap, stack or other.
package region

import (
	"fmt"
	"path/filepath"
	"strings"
)

type Tag int

const (
	Other Tag = iota
	Heap
	Stack
)

const (
	heapLabel  = "[heap]"
	stackLabel = "[stack]"
)

func (t Tag) String() string {
	switch t {
	case Heap:
		return "heap"
	case Stack:
		return "stack"
	default:
		return "other"
	}
}

type Permission uint8

const (
	PermissionRead Permission = 1 << iota
	PermissionWrite
	PermissionExecute
	PermissionShared
	PermissionPrivate
)

func (p Permission) String() string {
	b := []byte("----")
	if p&PermissionRead != 0 {
		b[0] = 'r'
	}
	if p&PermissionWrite != 0 {
		b[1] = 'w'
	}
	if p&PermissionExecute != 0 {
		b[2] = 'x'
	}
	if p&PermissionShared != 0 {
		b[3] = 's'
	} else if p&PermissionPrivate != 0 {
		b[3] = 'p'
	}
	return string(b)
}

type Region struct {
	Start  uint64
	End    uint64
	Tag    Tag
	Name   string
	Perms  Permission
	Offset uint64
	Device string
	Inode  uint64
}

// Absent reports a zero-length region. Such a region must be skipped, not
// scanned.
func (r Region) Absent() bool {
	return r.Start == r.End
}

func (r Region) Size() uint64 {
	return r.End - r.Start
}

func (r Region) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// Label is the name shown to users: the tag for heap and stack, the
// mapping label otherwise.
func (r Region) Label() string {
	if r.Tag != Other {
		return r.Tag.String()
	}
	if r.Name == "" {
		return "[anon]"
	}
	return r.Name
}

func (r Region) String() string {
	return fmt.Sprintf("%#x-%#x %s %s (size %d)", r.Start, r.End, r.Perms, r.Label(), r.Size())
}

// Set is the region list of one discovery pass, in map order.
type Set []Region

// Heap returns the [heap] region, or a zero region tagged Heap if the
// target has none.
func (s Set) Heap() Region {
	return s.first(Heap)
}

// Stack returns the [stack] region, or a zero region tagged Stack if the
// target has none.
func (s Set) Stack() Region {
	return s.first(Stack)
}

func (s Set) first(t Tag) Region {
	for _, r := range s {
		if r.Tag == t {
			return r
		}
	}
	return Region{Tag: t}
}

// Find looks a region up by "heap", "stack", its exact label, or the base
// name of a file backed mapping. The first match in map order wins.
func (s Set) Find(name string) (Region, bool) {
	switch strings.ToLower(name) {
	case Heap.String():
		r := s.Heap()
		return r, true
	case Stack.String():
		r := s.Stack()
		return r, true
	}

	for _, r := range s {
		if r.Name == name {
			return r, true
		}
	}
	for _, r := range s {
		if strings.HasPrefix(r.Name, "/") && filepath.Base(r.Name) == name {
			return r, true
		}
	}
	return Region{}, false
}

// Writable returns the regions mapped both readable and writable.
func (s Set) Writable() Set {
	var out Set
	rw := PermissionRead | PermissionWrite
	for _, r := range s {
		if r.Perms&rw == rw {
			out = append(out, r)
		}
	}
	return out
}

// Labels returns the distinct labels of the set, heap and stack first.
func (s Set) Labels() []string {
	seen := make(map[string]bool)
	labels := []string{Heap.String(), Stack.String()}
	for _, r := range s {
		if r.Tag != Other || r.Name == "" || seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		labels = append(labels, r.Name)
	}
	return labels
}
