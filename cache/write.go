package cache

import (
	"fmt"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// writeHitHandler applies a write to a block that holds the address.
type writeHitHandler interface {
	writeHit(c *Cache, block *akitacache.Block, addr uint8, offset int, value byte)
}

// writeMissHandler handles a write whose address is not cached. It returns
// the block that now holds the address, or nil if the cache was bypassed.
type writeMissHandler interface {
	writeMiss(c *Cache, addr uint8, offset int, value byte) *akitacache.Block
}

func newWriteHitHandler(policy WriteHitPolicy) writeHitHandler {
	switch policy {
	case WriteThrough:
		return writeThrough{}
	case WriteBack:
		return writeBack{}
	default:
		panic(fmt.Sprintf("unknown write hit policy %d", policy))
	}
}

func newWriteMissHandler(policy WriteMissPolicy) writeMissHandler {
	switch policy {
	case WriteAllocate:
		return writeAllocate{}
	case NoWriteAllocate:
		return noWriteAllocate{}
	default:
		panic(fmt.Sprintf("unknown write miss policy %d", policy))
	}
}

// writeThrough updates the line and the backing store. The dirty bit is
// left as it is.
type writeThrough struct{}

func (writeThrough) writeHit(c *Cache, block *akitacache.Block, addr uint8, offset int, value byte) {
	c.blockData(block)[offset] = value
	c.backing.Write(uint64(addr), []byte{value})
}

// writeBack updates only the line and marks it dirty.
type writeBack struct{}

func (writeBack) writeHit(c *Cache, block *akitacache.Block, _ uint8, offset int, value byte) {
	c.blockData(block)[offset] = value
	block.IsDirty = true
}

// writeAllocate fills the block and then writes it with the hit policy.
type writeAllocate struct{}

func (writeAllocate) writeMiss(c *Cache, addr uint8, offset int, value byte) *akitacache.Block {
	block := c.fill(addr)
	c.writeHit.writeHit(c, block, addr, offset, value)
	return block
}

// noWriteAllocate writes the byte to the backing store only.
type noWriteAllocate struct{}

func (noWriteAllocate) writeMiss(c *Cache, addr uint8, _ int, value byte) *akitacache.Block {
	c.backing.Write(uint64(addr), []byte{value})
	return nil
}

func dirtyBit(block *akitacache.Block) int {
	if block.IsDirty {
		return 1
	}
	return 0
}

// Write performs a cache write of one byte.
func (c *Cache) Write(addr uint8, value byte) (WriteOutcome, error) {
	if err := c.checkAddress(addr); err != nil {
		return WriteOutcome{}, err
	}

	c.stats.Writes++
	decoded := c.geometry.Decode(addr)

	result := WriteOutcome{
		SetIndex:    decoded.SetIndex,
		Tag:         decoded.Tag,
		EvictedLine: NoLine,
		Dirty:       NoLine,
		Data:        value,
	}

	if block := c.lookup(addr); block != nil {
		c.stats.Hits++
		c.writeHit.writeHit(c, block, addr, decoded.Offset, value)

		result.Hit = true
		result.Dirty = dirtyBit(block)

		return result, nil
	}

	c.stats.Misses++
	if block := c.writeMiss.writeMiss(c, addr, decoded.Offset, value); block != nil {
		result.EvictedLine = block.WayID
		result.Dirty = dirtyBit(block)
	}

	return result, nil
}
