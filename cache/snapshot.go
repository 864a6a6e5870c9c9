package cache

// LineSnapshot is a read-only copy of one cache line.
type LineSnapshot struct {
	Valid bool
	Dirty bool
	Tag   uint8
	Data  []byte

	Frequency uint64
	Recency   uint64

	// FillAddress is the block-aligned address the line was filled from.
	FillAddress uint8
}

// Snapshot is a read-only copy of the whole cache, for rendering.
type Snapshot struct {
	Config Config
	Stats  Statistics
	// Sets holds the lines of every set in way order.
	Sets [][]LineSnapshot
}

// Snapshot copies the current cache state.
func (c *Cache) Snapshot() Snapshot {
	snap := Snapshot{
		Config: c.config,
		Stats:  c.stats,
		Sets:   make([][]LineSnapshot, 0, c.geometry.NumSets),
	}

	for _, set := range c.directory.GetSets() {
		lines := make([]LineSnapshot, len(set.Blocks))

		for _, block := range set.Blocks {
			usage := c.usage.of(block)
			data := make([]byte, c.config.BlockSize)
			copy(data, c.blockData(block))

			line := LineSnapshot{
				Valid:     block.IsValid,
				Dirty:     block.IsDirty,
				Data:      data,
				Frequency: usage.frequency,
				Recency:   usage.recency,
			}
			if block.IsValid {
				line.FillAddress = uint8(block.Tag)
				line.Tag = c.geometry.Decode(line.FillAddress).Tag
			}

			lines[block.WayID] = line
		}

		snap.Sets = append(snap.Sets, lines)
	}

	return snap
}

// Line returns a copy of one line.
func (s Snapshot) Line(setIndex, way int) LineSnapshot {
	return s.Sets[setIndex][way]
}
