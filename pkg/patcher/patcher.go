// Package patcher writes replacement chunks back to the addresses a
// snapshot recorded them at.
//
// Nothing re-checks that the target still holds the snapshotted bytes
// before writing: if the target changed that location since the scan, the
// write lands on whatever is there now.
package patcher

import (
	"bytes"
	"fmt"
	e "prowl/error"
	"prowl/pkg/logflags"
	"prowl/pkg/proc"
	"prowl/pkg/scanner"
)

type Request struct {
	Addr uint64 `json:"addr"`
	Data []byte `json:"data"`
}

type Result struct {
	Attempted int      `json:"attempted"`
	Applied   int      `json:"applied"`
	Failed    []uint64 `json:"failed,omitempty"`
}

// Partial reports whether some requested writes were not applied.
func (r Result) Partial() bool {
	return r.Applied != r.Attempted
}

func (r Result) String() string {
	return fmt.Sprintf("%d/%d applied", r.Applied, r.Attempted)
}

// Matcher decides whether a chunk is a hit.
type Matcher func(chunk []byte) bool

// Transform computes the replacement for a matched chunk. It receives a
// copy and must return exactly len(chunk) bytes.
type Transform func(chunk []byte) []byte

// Equal matches chunks equal to pattern byte for byte.
func Equal(pattern []byte) Matcher {
	p := bytes.Clone(pattern)
	return func(chunk []byte) bool {
		return bytes.Equal(chunk, p)
	}
}

// Constant replaces every match with b.
func Constant(b []byte) Transform {
	c := bytes.Clone(b)
	return func([]byte) []byte {
		return bytes.Clone(c)
	}
}

// Matches returns the addresses of the entries match accepts.
func Matches(snap scanner.Snapshot, match Matcher) []uint64 {
	var addrs []uint64
	for _, entry := range snap.Entries {
		if match(entry.Data) {
			addrs = append(addrs, entry.Addr)
		}
	}
	return addrs
}

// Plan builds one request per matching entry.
func Plan(snap scanner.Snapshot, match Matcher, transform Transform) ([]Request, error) {
	var reqs []Request
	for _, entry := range snap.Entries {
		if !match(entry.Data) {
			continue
		}

		replacement := transform(bytes.Clone(entry.Data))
		if len(replacement) != snap.ChunkSize {
			return nil, fmt.Errorf("addr %#x: got %d bytes, want %d: %w", entry.Addr, len(replacement), snap.ChunkSize, e.ReplacementSize)
		}
		reqs = append(reqs, Request{Addr: entry.Addr, Data: replacement})
	}
	return reqs, nil
}

type options struct {
	logger logflags.Logger
}

type Option func(*options)

func WithLogger(l logflags.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Patch issues one remote write per request. A failed write is recorded
// and the remaining requests are still attempted.
func Patch(mem proc.MemoryWriter, reqs []Request, opts ...Option) Result {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var res Result
	for _, req := range reqs {
		res.Attempted++

		n, err := mem.WriteMemory(req.Addr, req.Data)
		if err == nil && n == len(req.Data) {
			res.Applied++
			continue
		}

		res.Failed = append(res.Failed, req.Addr)
		if o.logger != nil {
			if err == nil {
				err = fmt.Errorf("short write %d/%d: %w", n, len(req.Data), e.RemoteWriteFailed)
			}
			o.logger.Warnf("patch %#x: %v", req.Addr, err)
		}
	}

	if o.logger != nil {
		o.logger.Debugf("patched %s", res)
	}
	return res
}
