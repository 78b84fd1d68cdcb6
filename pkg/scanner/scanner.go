// Package scanner snapshots a region of a remote process in fixed-size
// chunks. A chunk that cannot be read is left out of the snapshot; a scan
// as a whole never fails.
package scanner

import (
	"errors"
	e "prowl/error"
	"prowl/pkg/logflags"
	"prowl/pkg/proc"
	"prowl/pkg/region"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultChunkSize matches the native word of the values usually searched.
const DefaultChunkSize = 4

type Entry struct {
	Addr uint64 `json:"addr"`
	Data []byte `json:"data"`
}

type Snapshot struct {
	Region    region.Region `json:"region"`
	ChunkSize int           `json:"chunk_size"`
	Entries   []Entry       `json:"entries"`
	// Failed counts the chunks left out.
	Failed int `json:"failed"`
}

// Lookup returns the entry recorded for addr.
func (s Snapshot) Lookup(addr uint64) (Entry, bool) {
	lo, hi := 0, len(s.Entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case s.Entries[mid].Addr == addr:
			return s.Entries[mid], true
		case s.Entries[mid].Addr < addr:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return Entry{}, false
}

type options struct {
	chunkSize  int
	batch      int
	retries    uint64
	retryDelay time.Duration
	logger     logflags.Logger
}

type Option func(*options)

func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithBatch transfers up to n chunks per vectored call when the reader
// supports it.
func WithBatch(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		if n > proc.MaxVectors {
			n = proc.MaxVectors
		}
		o.batch = n
	}
}

// WithRetry retries a failed chunk up to n times, delay apart.
func WithRetry(n int, delay time.Duration) Option {
	return func(o *options) {
		if n > 0 {
			o.retries = uint64(n)
			o.retryDelay = delay
		}
	}
}

func WithLogger(l logflags.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Scan reads r from Start to End in steps of the chunk size. Every chunk
// is ChunkSize bytes, so the last one may extend past End.
func Scan(mem proc.MemoryReader, r region.Region, opts ...Option) Snapshot {
	o := options{chunkSize: DefaultChunkSize, batch: 1}
	for _, opt := range opts {
		opt(&o)
	}

	s := &scan{mem: mem, opts: o}
	s.snap = Snapshot{Region: r, ChunkSize: o.chunkSize}

	if vr, ok := mem.(proc.VectorReader); ok && o.batch > 1 {
		s.batched(vr, r)
	} else {
		s.single(r)
	}

	if o.logger != nil {
		o.logger.Debugf("scanned %s: %d entries, %d failed", r, len(s.snap.Entries), s.snap.Failed)
	}
	return s.snap
}

type scan struct {
	mem  proc.MemoryReader
	opts options
	snap Snapshot
}

func chunks(r region.Region, size int) uint64 {
	c := uint64(size)
	return (r.Size() + c - 1) / c
}

func (s *scan) single(r region.Region) {
	c := uint64(s.opts.chunkSize)
	for addr := r.Start; addr < r.End; addr += c {
		buf := make([]byte, c)
		err := s.read(buf, addr)
		if err == nil {
			s.snap.Entries = append(s.snap.Entries, Entry{Addr: addr, Data: buf})
			continue
		}

		if errors.Is(err, e.NoSuchProcess) {
			// Nothing after this point can be read either.
			s.snap.Failed += int(chunks(region.Region{Start: addr, End: r.End}, s.opts.chunkSize))
			return
		}
		s.snap.Failed++
	}
}

func (s *scan) batched(vr proc.VectorReader, r region.Region) {
	c := uint64(s.opts.chunkSize)
	total := chunks(r, s.opts.chunkSize)

	for i := uint64(0); i < total; {
		n := total - i
		if n > uint64(s.opts.batch) {
			n = uint64(s.opts.batch)
		}

		bufs := make([][]byte, n)
		addrs := make([]uint64, n)
		for k := range bufs {
			bufs[k] = make([]byte, c)
			addrs[k] = r.Start + (i+uint64(k))*c
		}

		read, err := vr.ReadVector(bufs, addrs)
		done := uint64(0)
		if read > 0 {
			done = uint64(read) / c
		}
		for k := uint64(0); k < done; k++ {
			s.snap.Entries = append(s.snap.Entries, Entry{Addr: addrs[k], Data: bufs[k]})
		}
		if done == n {
			i += n
			continue
		}

		// The first chunk not transferred in full gets the single chunk path,
		// so retries apply, and the batch resumes after it.
		failed := addrs[done]
		buf := make([]byte, c)
		if errors.Is(err, e.NoSuchProcess) {
			s.snap.Failed += int(total - (i + done))
			return
		}
		if rerr := s.read(buf, failed); rerr == nil {
			s.snap.Entries = append(s.snap.Entries, Entry{Addr: failed, Data: buf})
		} else {
			s.snap.Failed++
			if errors.Is(rerr, e.NoSuchProcess) {
				s.snap.Failed += int(total - (i + done + 1))
				return
			}
		}
		i += done + 1
	}
}

// read fills buf from addr, retrying per the options. A short read is a
// failure.
func (s *scan) read(buf []byte, addr uint64) error {
	read := func() error {
		n, err := s.mem.ReadMemory(buf, addr)
		if err != nil {
			return err
		}
		if n != len(buf) {
			return e.RemoteReadFailed
		}
		return nil
	}

	if s.opts.retries == 0 {
		return read()
	}

	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(s.opts.retryDelay), s.opts.retries)
	return backoff.Retry(func() error {
		err := read()
		if errors.Is(err, e.NoSuchProcess) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
