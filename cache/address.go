package cache

// Geometry is the address layout derived from a validated Config.
// Addresses split, from most to least significant bit, into
// [tag][set index][block offset].
type Geometry struct {
	BlockSize     int
	Associativity int
	NumSets       int

	OffsetBits int
	IndexBits  int
	TagBits    int
}

// Address is a decoded address.
type Address struct {
	Tag      uint8
	SetIndex int
	Offset   int
}

// Decode splits an address into tag, set index and block offset. A fully
// associative cache always yields set 0 and a one-byte block always yields
// offset 0.
func (g Geometry) Decode(addr uint8) Address {
	offsetMask := uint8(1)<<g.OffsetBits - 1
	indexMask := uint8(1)<<g.IndexBits - 1

	return Address{
		Tag:      uint8(uint(addr) >> (g.OffsetBits + g.IndexBits)),
		SetIndex: int((addr >> g.OffsetBits) & indexMask),
		Offset:   int(addr & offsetMask),
	}
}

// BlockAddress clears the offset bits of addr.
func (g Geometry) BlockAddress(addr uint8) uint8 {
	return addr &^ (uint8(1)<<g.OffsetBits - 1)
}
