package prowler

import (
	"fmt"
	"io"
	e "prowl/error"
	"prowl/pkg/logflags"
	"prowl/pkg/patcher"
	"prowl/pkg/proc"
	"prowl/pkg/region"
	"prowl/pkg/scanner"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/derekparker/trie"
)

// Prowler is one session against a target process: the region set found at
// start (or at the last Refresh) plus the remote accessor used to scan and
// patch it.
type Prowler struct {
	pid     int
	mem     proc.MemoryReadWriter
	regions region.Set
	trie    *trie.Trie
	mu      sync.Mutex
	opts    options
}

type options struct {
	mem        proc.MemoryReadWriter
	discover   func(pid int) (region.Set, error)
	freezer    func(pid int) (func() error, error)
	chunkSize  int
	batch      int
	retries    int
	retryDelay time.Duration
	freeze     bool
	logger     logflags.Logger
}

type Option func(*options)

// WithMemory replaces the process_vm accessor.
func WithMemory(mem proc.MemoryReadWriter) Option {
	return func(o *options) {
		o.mem = mem
	}
}

// WithDiscover replaces the /proc/<pid>/maps reader.
func WithDiscover(discover func(pid int) (region.Set, error)) Option {
	return func(o *options) {
		o.discover = discover
	}
}

// WithFreezer replaces proc.Freeze.
func WithFreezer(freezer func(pid int) (func() error, error)) Option {
	return func(o *options) {
		o.freezer = freezer
	}
}

func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

func WithBatch(n int) Option {
	return func(o *options) {
		o.batch = n
	}
}

func WithRetry(n int, delay time.Duration) Option {
	return func(o *options) {
		o.retries = n
		o.retryDelay = delay
	}
}

// WithFreeze stops the target for the duration of every patch pass.
func WithFreeze(freeze bool) Option {
	return func(o *options) {
		o.freeze = freeze
	}
}

func WithLogger(l logflags.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func NewProwler(pid int, opts ...Option) (*Prowler, error) {
	o := options{
		discover:  region.Discover,
		freezer:   proc.Freeze,
		chunkSize: scanner.DefaultChunkSize,
		batch:     1,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logflags.ProwlerLogger()
	}

	p := &Prowler{
		pid:  pid,
		mem:  o.mem,
		opts: o,
	}
	if p.mem == nil {
		remote, err := proc.NewRemote(pid)
		if err != nil {
			return nil, err
		}
		p.mem = remote
	}

	if err := p.Refresh(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Prowler) Pid() int {
	return p.pid
}

// Refresh discards the current region set and reads the target's maps
// again. Snapshots taken before a refresh keep their old bounds.
func (p *Prowler) Refresh() error {
	regions, err := p.opts.discover(p.pid)
	if err != nil {
		return err
	}

	t := trie.New()
	for i, r := range regions {
		label := r.Label()
		if _, ok := t.Find(label); ok {
			continue
		}
		t.Add(label, i)
	}

	p.mu.Lock()
	p.regions = regions
	p.trie = t
	p.mu.Unlock()

	p.opts.logger.Debugf("pid %d: %d regions, heap %s, stack %s", p.pid, len(regions), regions.Heap(), regions.Stack())
	return nil
}

// Regions returns a copy of the current region set.
func (p *Prowler) Regions() region.Set {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append(region.Set(nil), p.regions...)
}

// Region resolves name to a region: "#<n>" indexes the map listing,
// anything else goes through region.Set.Find. A zero-length result is
// reported as RegionAbsent so it is never scanned.
func (p *Prowler) Region(name string) (region.Region, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.region(name)
}

func (p *Prowler) region(name string) (region.Region, error) {
	var (
		r     region.Region
		found bool
	)

	if idx, ok := strings.CutPrefix(name, "#"); ok {
		i, err := strconv.Atoi(idx)
		if err != nil || i < 0 || i >= len(p.regions) {
			return region.Region{}, fmt.Errorf("%s: %w", name, e.RegionNotFound)
		}
		r, found = p.regions[i], true
	} else if node, ok := p.trie.Find(name); ok {
		r, found = p.regions[node.Meta().(int)], true
	} else {
		r, found = p.regions.Find(name)
	}

	if !found {
		return region.Region{}, fmt.Errorf("%s: %w", name, e.RegionNotFound)
	}
	if r.Absent() {
		return r, fmt.Errorf("%s: %w", name, e.RegionAbsent)
	}
	return r, nil
}

func (p *Prowler) scanOptions(chunkSize int) []scanner.Option {
	if chunkSize <= 0 {
		chunkSize = p.opts.chunkSize
	}
	return []scanner.Option{
		scanner.WithChunkSize(chunkSize),
		scanner.WithBatch(p.opts.batch),
		scanner.WithRetry(p.opts.retries, p.opts.retryDelay),
		scanner.WithLogger(p.opts.logger),
	}
}

// Scan snapshots the named region. A chunkSize of zero uses the session
// default.
func (p *Prowler) Scan(name string, chunkSize int) (scanner.Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.region(name)
	if err != nil {
		return scanner.Snapshot{}, err
	}
	return scanner.Scan(p.mem, r, p.scanOptions(chunkSize)...), nil
}

// Find returns the addresses in the named region holding pattern, scanning
// in chunks of len(pattern). Only offsets that are a multiple of
// len(pattern) from the region start are compared.
func (p *Prowler) Find(name string, pattern []byte) ([]uint64, error) {
	if len(pattern) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}

	snap, err := p.Scan(name, len(pattern))
	if err != nil {
		return nil, err
	}

	addrs := patcher.Matches(snap, patcher.Equal(pattern))
	p.opts.logger.Debugf("find %s: %d matches in %d entries", name, len(addrs), len(snap.Entries))
	return addrs, nil
}

// Replace scans the named region in chunks of chunkSize, then patches every
// entry match accepts with transform applied to it.
func (p *Prowler) Replace(name string, chunkSize int, match patcher.Matcher, transform patcher.Transform) (patcher.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r, err := p.region(name)
	if err != nil {
		return patcher.Result{}, err
	}

	thaw, err := p.freeze()
	if err != nil {
		return patcher.Result{}, err
	}
	defer thaw()

	snap := scanner.Scan(p.mem, r, p.scanOptions(chunkSize)...)
	reqs, err := patcher.Plan(snap, match, transform)
	if err != nil {
		return patcher.Result{}, err
	}

	res := patcher.Patch(p.mem, reqs, patcher.WithLogger(p.opts.logger))
	p.opts.logger.Infof("replace %s: %s", name, res)
	return res, nil
}

// ReplaceValue replaces every occurrence of from in the named region with
// to. Both must be the same length.
func (p *Prowler) ReplaceValue(name string, from, to []byte) (patcher.Result, error) {
	if len(from) == 0 {
		return patcher.Result{}, fmt.Errorf("empty pattern")
	}
	if len(from) != len(to) {
		return patcher.Result{}, fmt.Errorf("replace %d bytes with %d: %w", len(from), len(to), e.ReplacementSize)
	}
	return p.Replace(name, len(from), patcher.Equal(from), patcher.Constant(to))
}

// Patch applies reqs as they are, without scanning first.
func (p *Prowler) Patch(reqs []patcher.Request) (patcher.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	thaw, err := p.freeze()
	if err != nil {
		return patcher.Result{}, err
	}
	defer thaw()

	return patcher.Patch(p.mem, reqs, patcher.WithLogger(p.opts.logger)), nil
}

// MaxPeek bounds a single Peek.
const MaxPeek = 1 << 20

// Peek reads n bytes at addr. n must be in 1..MaxPeek.
func (p *Prowler) Peek(addr uint64, n int) ([]byte, error) {
	if n <= 0 || n > MaxPeek {
		return nil, fmt.Errorf("invalid length %d", n)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	buf := make([]byte, n)
	read, err := p.mem.ReadMemory(buf, addr)
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, fmt.Errorf("addr %#x: read %d of %d bytes: %w", addr, read, n, e.RemoteReadFailed)
	}
	return buf, nil
}

// Dump writes a compressed snapshot of the named region to w.
func (p *Prowler) Dump(name string, w io.Writer) (scanner.Snapshot, error) {
	snap, err := p.Scan(name, 0)
	if err != nil {
		return snap, err
	}
	return snap, scanner.Export(w, snap)
}

// ListFuzzy returns the region labels fuzzy matching expr, sorted.
func (p *Prowler) ListFuzzy(expr string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	labels := p.trie.FuzzySearch(expr)
	sort.Strings(labels)
	return labels
}

// Labels returns the selectable region names, heap and stack first.
func (p *Prowler) Labels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.regions.Labels()
}

// Contains reports which region of the current set holds addr.
func (p *Prowler) Contains(addr uint64) (region.Region, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, r := range p.regions {
		if r.Contains(addr) {
			return r, true
		}
	}
	return region.Region{}, false
}

func (p *Prowler) freeze() (func(), error) {
	if !p.opts.freeze {
		return func() {}, nil
	}

	thaw, err := p.opts.freezer(p.pid)
	if err != nil {
		return nil, fmt.Errorf("freeze: %w", err)
	}
	p.opts.logger.Debugf("pid %d stopped", p.pid)

	return func() {
		if err := thaw(); err != nil {
			p.opts.logger.Errorf("thaw pid %d: %v", p.pid, err)
			return
		}
		p.opts.logger.Debugf("pid %d resumed", p.pid)
	}, nil
}
