package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/cache"
)

func geometryOf(size, blockSize, associativity int) cache.Geometry {
	config := cache.Config{
		Size:          size,
		BlockSize:     blockSize,
		Associativity: associativity,
		Replacement:   cache.LeastRecentlyUsed,
		WriteHit:      cache.WriteThrough,
		WriteMiss:     cache.WriteAllocate,
	}
	Expect(config.Validate()).To(Succeed())
	return config.Geometry()
}

var _ = Describe("Geometry", func() {
	It("should split a direct-mapped address into tag, set and offset", func() {
		g := geometryOf(16, 4, 1)
		Expect(g.NumSets).To(Equal(4))
		Expect(g.OffsetBits).To(Equal(2))
		Expect(g.IndexBits).To(Equal(2))
		Expect(g.TagBits).To(Equal(4))

		// 1011 01 11
		Expect(g.Decode(0xB7)).To(Equal(cache.Address{Tag: 0xB, SetIndex: 1, Offset: 3}))
	})

	It("should always use set 0 when fully associative", func() {
		g := geometryOf(16, 4, 4)
		Expect(g.NumSets).To(Equal(1))
		Expect(g.IndexBits).To(Equal(0))

		Expect(g.Decode(0xB7)).To(Equal(cache.Address{Tag: 0x2D, SetIndex: 0, Offset: 3}))
		Expect(g.Decode(0x00).SetIndex).To(Equal(0))
	})

	It("should always use offset 0 for one-byte blocks", func() {
		g := geometryOf(8, 1, 2)
		Expect(g.NumSets).To(Equal(4))

		Expect(g.Decode(0xB7)).To(Equal(cache.Address{Tag: 0x2D, SetIndex: 3, Offset: 0}))
	})

	It("should handle a single block covering the whole address space", func() {
		g := geometryOf(256, 256, 1)
		Expect(g.TagBits).To(Equal(0))
		Expect(g.Decode(0xFF)).To(Equal(cache.Address{Tag: 0, SetIndex: 0, Offset: 0xFF}))
		Expect(g.BlockAddress(0xFF)).To(Equal(uint8(0)))
	})

	It("should handle one-byte blocks across 256 sets", func() {
		g := geometryOf(256, 1, 1)
		Expect(g.Decode(0xAB)).To(Equal(cache.Address{Tag: 0, SetIndex: 0xAB, Offset: 0}))
	})

	It("should clear the offset bits for the block address", func() {
		g := geometryOf(16, 4, 1)
		Expect(g.BlockAddress(0xB7)).To(Equal(uint8(0xB4)))
	})

	It("should never touch cache state", func() {
		g := geometryOf(32, 8, 2)
		first := g.Decode(0x5A)
		second := g.Decode(0x5A)
		Expect(first).To(Equal(second))
	})
})
