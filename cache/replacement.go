package cache

import (
	"math/rand"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// lineUsage is the eviction bookkeeping of one line.
type lineUsage struct {
	// frequency counts accesses since the line was last filled.
	frequency uint64
	// recency is a per-set token; higher means more recently used.
	recency uint64
}

// usageTable holds lineUsage for every block, indexed like the data store.
type usageTable struct {
	ways  int
	lines []lineUsage
}

func newUsageTable(numSets, ways int) *usageTable {
	return &usageTable{
		ways:  ways,
		lines: make([]lineUsage, numSets*ways),
	}
}

func (t *usageTable) of(block *akitacache.Block) *lineUsage {
	return &t.lines[block.SetID*t.ways+block.WayID]
}

func (t *usageTable) maxRecency(set *akitacache.Set) uint64 {
	var highest uint64
	for _, b := range set.Blocks {
		if r := t.of(b).recency; r > highest {
			highest = r
		}
	}
	return highest
}

// markRecent makes block the most recently used line of its set.
func (t *usageTable) markRecent(set *akitacache.Set, block *akitacache.Block) {
	t.of(block).recency = t.maxRecency(set) + 1
}

// touch records a hit on block.
func (t *usageTable) touch(set *akitacache.Set, block *akitacache.Block) {
	t.of(block).frequency++
	t.markRecent(set, block)
}

func (t *usageTable) reset() {
	clear(t.lines)
}

// replacementPolicy is an Akita victim finder that also gets to update its
// bookkeeping after the victim has been refilled.
type replacementPolicy interface {
	akitacache.VictimFinder
	onFill(set *akitacache.Set, block *akitacache.Block)
}

var (
	_ replacementPolicy = (*randomVictimFinder)(nil)
	_ replacementPolicy = (*lruVictimFinder)(nil)
	_ replacementPolicy = (*lfuVictimFinder)(nil)
)

func firstInvalid(set *akitacache.Set) *akitacache.Block {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
	}
	return nil
}

// randomVictimFinder fills invalid lines first and otherwise evicts a
// uniformly random way.
type randomVictimFinder struct {
	rng *rand.Rand
}

func newRandomVictimFinder(rng *rand.Rand) *randomVictimFinder {
	return &randomVictimFinder{rng: rng}
}

// FindVictim returns the first invalid block, or a random one.
func (f *randomVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	if block := firstInvalid(set); block != nil {
		return block
	}
	return set.Blocks[f.rng.Intn(len(set.Blocks))]
}

func (f *randomVictimFinder) onFill(*akitacache.Set, *akitacache.Block) {}

// lruVictimFinder evicts the block with the smallest recency token. Ties,
// including the all-zero cold state, go to the lowest way.
type lruVictimFinder struct {
	usage *usageTable
}

func newLRUVictimFinder(usage *usageTable) *lruVictimFinder {
	return &lruVictimFinder{usage: usage}
}

// FindVictim returns the least recently used block in a set.
func (f *lruVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if f.usage.of(block).recency < f.usage.of(victim).recency {
			victim = block
		}
	}
	return victim
}

func (f *lruVictimFinder) onFill(set *akitacache.Set, block *akitacache.Block) {
	f.usage.markRecent(set, block)
}

// lfuVictimFinder evicts the block with the smallest access count, ties to
// the lowest way.
type lfuVictimFinder struct {
	usage *usageTable
}

func newLFUVictimFinder(usage *usageTable) *lfuVictimFinder {
	return &lfuVictimFinder{usage: usage}
}

// FindVictim returns the least frequently used block in a set.
func (f *lfuVictimFinder) FindVictim(set *akitacache.Set) *akitacache.Block {
	victim := set.Blocks[0]
	for _, block := range set.Blocks[1:] {
		if f.usage.of(block).frequency < f.usage.of(victim).frequency {
			victim = block
		}
	}
	return victim
}

// onFill counts the access that caused the fill.
func (f *lfuVictimFinder) onFill(_ *akitacache.Set, block *akitacache.Block) {
	f.usage.of(block).frequency = 1
}

// fill brings the block holding addr into the cache, writing the victim back
// first when it is dirty, and returns the refilled block.
func (c *Cache) fill(addr uint8) *akitacache.Block {
	blockAddr := uint64(c.geometry.BlockAddress(addr))

	victim := c.directory.FindVictim(blockAddr)
	victimData := c.blockData(victim)

	if victim.IsValid {
		c.stats.Evictions++

		// Tag stores the block-aligned address the line was filled from.
		if victim.IsDirty {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, victimData)
		}
	}

	copy(victimData, c.backing.Read(blockAddr, c.config.BlockSize))

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	c.replacement.onFill(c.set(victim), victim)

	return victim
}
