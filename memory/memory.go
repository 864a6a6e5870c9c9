// Package memory provides the byte-addressable backing store that sits behind
// the simulated cache.
package memory

import (
	"errors"
	"fmt"
)

// MaxSize is the largest backing store the 8-bit address model can reach.
const MaxSize = 256

// DefaultSize is the backing store size used when none is configured.
const DefaultSize = 256

// ErrAddressOutOfRange is returned when an access falls outside the store.
var ErrAddressOutOfRange = errors.New("address out of range")

// Memory is a fixed-capacity, linearly addressed byte array. Its length is a
// power of two and never changes after construction.
type Memory struct {
	data []byte
}

// New creates a memory of the given capacity. The initial bytes are copied
// in at address 0 and the remainder is zero-filled.
func New(capacity int, initial []byte) (*Memory, error) {
	if capacity <= 0 || capacity > MaxSize {
		return nil, fmt.Errorf("memory size %d must be in [1, %d]", capacity, MaxSize)
	}
	if capacity&(capacity-1) != 0 {
		return nil, fmt.Errorf("memory size %d is not a power of two", capacity)
	}
	if len(initial) > capacity {
		return nil, fmt.Errorf("initial image of %d bytes does not fit in %d bytes of memory",
			len(initial), capacity)
	}

	m := &Memory{data: make([]byte, capacity)}
	copy(m.data, initial)

	return m, nil
}

// Size returns the capacity in bytes.
func (m *Memory) Size() int {
	return len(m.data)
}

// CheckAddress reports whether [addr, addr+size) lies inside the memory.
func (m *Memory) CheckAddress(addr uint64, size int) error {
	if size < 0 || addr >= uint64(len(m.data)) || addr+uint64(size) > uint64(len(m.data)) {
		return fmt.Errorf("%w: 0x%02X (+%d) in %d bytes", ErrAddressOutOfRange, addr, size, len(m.data))
	}
	return nil
}

// Read8 reads a single byte.
func (m *Memory) Read8(addr uint64) (byte, error) {
	if err := m.CheckAddress(addr, 1); err != nil {
		return 0, err
	}
	return m.data[addr], nil
}

// Write8 writes a single byte.
func (m *Memory) Write8(addr uint64, value byte) error {
	if err := m.CheckAddress(addr, 1); err != nil {
		return err
	}
	m.data[addr] = value
	return nil
}

// ReadBlock returns a copy of size bytes starting at addr.
func (m *Memory) ReadBlock(addr uint64, size int) ([]byte, error) {
	if err := m.CheckAddress(addr, size); err != nil {
		return nil, err
	}

	block := make([]byte, size)
	copy(block, m.data[addr:])

	return block, nil
}

// WriteBlock copies data into the memory starting at addr.
func (m *Memory) WriteBlock(addr uint64, data []byte) error {
	if err := m.CheckAddress(addr, len(data)); err != nil {
		return err
	}
	copy(m.data[addr:], data)
	return nil
}

// Snapshot returns a copy of the whole memory.
func (m *Memory) Snapshot() []byte {
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out
}
