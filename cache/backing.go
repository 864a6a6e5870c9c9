package cache

import (
	"github.com/sarchlab/cachesim/memory"
)

// MemoryBacking wraps memory.Memory as a BackingStore.
type MemoryBacking struct {
	memory *memory.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(m *memory.Memory) *MemoryBacking {
	return &MemoryBacking{memory: m}
}

// Size returns the capacity of the backing memory.
func (m *MemoryBacking) Size() int {
	return m.memory.Size()
}

// Read fetches data from the backing memory. The cache only issues
// block-aligned reads inside the memory, so a failure is a bug.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data, err := m.memory.ReadBlock(addr, size)
	if err != nil {
		panic(err)
	}
	return data
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	if err := m.memory.WriteBlock(addr, data); err != nil {
		panic(err)
	}
}
