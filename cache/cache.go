// Package cache models a set-associative data cache in front of a
// byte-addressable backing store. Tags and valid/dirty state live in an Akita
// cache directory; the replacement and write policies are chosen once, when
// the cache is built.
package cache

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/cachesim/memory"
)

// NoLine marks an outcome field that does not apply, such as the evicted
// line of a hit.
const NoLine = -1

// ErrNoBackingStore is returned by New when no backing store is given.
var ErrNoBackingStore = errors.New("cache needs a backing store")

// Statistics holds cache access counters.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// HitRate returns hits over all accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the memory the cache fills from and writes back to.
type BackingStore interface {
	// Size returns the number of addressable bytes.
	Size() int
	// Read fetches size bytes starting at addr.
	Read(addr uint64, size int) []byte
	// Write stores data starting at addr.
	Write(addr uint64, data []byte)
}

// ReadOutcome describes a completed read.
type ReadOutcome struct {
	Hit      bool
	SetIndex int
	Tag      uint8
	// EvictedLine is the way that was refilled on a miss, NoLine on a hit.
	EvictedLine int
	// FillAddress is the address that triggered the fill, NoLine on a hit.
	FillAddress int
	Data        byte
}

// WriteOutcome describes a completed write.
type WriteOutcome struct {
	Hit      bool
	SetIndex int
	Tag      uint8
	// EvictedLine is the way that was refilled by write-allocate, otherwise
	// NoLine.
	EvictedLine int
	// Dirty is the dirty bit of the written line (0 or 1), or NoLine when
	// the write bypassed the cache.
	Dirty int
	Data  byte
}

// Cache is a single-level set-associative cache. It is not safe for
// concurrent use.
type Cache struct {
	config   Config
	geometry Geometry

	directory *akitacache.DirectoryImpl

	// Indexed by setID*associativity + wayID.
	dataStore [][]byte
	usage     *usageTable

	replacement replacementPolicy
	writeHit    writeHitHandler
	writeMiss   writeMissHandler

	stats   Statistics
	backing BackingStore
}

// New validates the configuration and builds a cold cache in front of the
// backing store.
func New(config Config, backing BackingStore) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if backing == nil {
		return nil, ErrNoBackingStore
	}
	if backing.Size() < config.BlockSize || backing.Size() > memory.MaxSize {
		return nil, configError("block_size", strconv.Itoa(config.BlockSize),
			fmt.Sprintf("does not fit a %d byte backing store", backing.Size()))
	}

	geometry := config.Geometry()
	totalBlocks := geometry.NumSets * geometry.Associativity

	dataStore := make([][]byte, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]byte, config.BlockSize)
	}

	c := &Cache{
		config:    config,
		geometry:  geometry,
		dataStore: dataStore,
		usage:     newUsageTable(geometry.NumSets, geometry.Associativity),
		backing:   backing,
	}

	c.replacement = c.newReplacementPolicy()
	c.writeHit = newWriteHitHandler(config.WriteHit)
	c.writeMiss = newWriteMissHandler(config.WriteMiss)

	c.directory = akitacache.NewDirectory(
		geometry.NumSets,
		geometry.Associativity,
		config.BlockSize,
		c.replacement,
	)

	return c, nil
}

func (c *Cache) newReplacementPolicy() replacementPolicy {
	switch c.config.Replacement {
	case RandomReplacement:
		seed := c.config.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		return newRandomVictimFinder(rand.New(rand.NewSource(seed)))
	case LeastRecentlyUsed:
		return newLRUVictimFinder(c.usage)
	case LeastFrequentlyUsed:
		return newLFUVictimFinder(c.usage)
	default:
		panic(fmt.Sprintf("unknown replacement policy %d", c.config.Replacement))
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Geometry returns the address layout of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) checkAddress(addr uint8) error {
	if int(addr) >= c.backing.Size() {
		return fmt.Errorf("%w: 0x%02X beyond %d byte backing store",
			memory.ErrAddressOutOfRange, addr, c.backing.Size())
	}
	return nil
}

// blockIndex computes the index into dataStore for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.geometry.Associativity + block.WayID
}

func (c *Cache) blockData(block *akitacache.Block) []byte {
	return c.dataStore[c.blockIndex(block)]
}

func (c *Cache) set(block *akitacache.Block) *akitacache.Set {
	sets := c.directory.GetSets()
	return &sets[block.SetID]
}

// lookup returns the valid block caching addr, or nil.
func (c *Cache) lookup(addr uint8) *akitacache.Block {
	blockAddr := uint64(c.geometry.BlockAddress(addr))

	block := c.directory.Lookup(0, blockAddr)
	if block == nil || !block.IsValid {
		return nil
	}

	return block
}

// Read performs a cache read of one byte.
func (c *Cache) Read(addr uint8) (ReadOutcome, error) {
	if err := c.checkAddress(addr); err != nil {
		return ReadOutcome{}, err
	}

	c.stats.Reads++
	decoded := c.geometry.Decode(addr)

	result := ReadOutcome{
		SetIndex:    decoded.SetIndex,
		Tag:         decoded.Tag,
		EvictedLine: NoLine,
		FillAddress: NoLine,
	}

	if block := c.lookup(addr); block != nil {
		c.stats.Hits++
		c.usage.touch(c.set(block), block)

		result.Hit = true
		result.Data = c.blockData(block)[decoded.Offset]

		return result, nil
	}

	c.stats.Misses++
	victim := c.fill(addr)

	result.EvictedLine = victim.WayID
	result.FillAddress = int(addr)
	result.Data = c.blockData(victim)[decoded.Offset]

	return result, nil
}

// Flush returns every line to the cold state. Dirty data is dropped, not
// written back. Statistics are cleared unless FlushKeepsStats is set.
func (c *Cache) Flush() {
	c.directory.Reset()

	for _, data := range c.dataStore {
		clear(data)
	}

	c.usage.reset()

	if !c.config.FlushKeepsStats {
		c.stats = Statistics{}
	}
}
