package proc

// MemoryReader is like io.ReaderAt, but the offset is a uint64 so that it
// can address all of 64-bit memory.
type MemoryReader interface {
	// ReadMemory is just like io.ReaderAt.ReadAt.
	ReadMemory(buf []byte, addr uint64) (n int, err error)
}

// MemoryWriter writes into the target's memory.
type MemoryWriter interface {
	WriteMemory(addr uint64, data []byte) (written int, err error)
}

// MemoryReadWriter is an interface for reading or writing to
// the targets memory.
type MemoryReadWriter interface {
	MemoryReader
	MemoryWriter
}

// VectorReader fills bufs[i] from addrs[i] in a single transfer.
// The returned count is the total number of bytes transferred; a transfer
// stops at the first element that cannot be read in full.
type VectorReader interface {
	ReadVector(bufs [][]byte, addrs []uint64) (n int, err error)
}

// MaxVectors is the kernel's IOV_MAX.
const MaxVectors = 1024
