package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AddressBits is the width of every address in this model.
const AddressBits = 8

// Limits on the configurable cache size.
const (
	MinSize = 8
	MaxSize = 256
)

// ReplacementPolicy selects which line of a full set is evicted on a miss.
type ReplacementPolicy int

const (
	// RandomReplacement evicts a uniformly random line once the set is full.
	RandomReplacement ReplacementPolicy = iota + 1
	// LeastRecentlyUsed evicts the line with the oldest recency token.
	LeastRecentlyUsed
	// LeastFrequentlyUsed evicts the line with the fewest accesses since fill.
	LeastFrequentlyUsed
)

var replacementNames = map[ReplacementPolicy]string{
	RandomReplacement:   "random_replacement",
	LeastRecentlyUsed:   "least_recently_used",
	LeastFrequentlyUsed: "least_frequently_used",
}

func (p ReplacementPolicy) String() string {
	if name, ok := replacementNames[p]; ok {
		return name
	}
	return fmt.Sprintf("ReplacementPolicy(%d)", int(p))
}

// ParseReplacementPolicy accepts the policy name, a short alias (random, lru,
// lfu) or the menu number 1-3.
func ParseReplacementPolicy(s string) (ReplacementPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "random", "random_replacement":
		return RandomReplacement, nil
	case "2", "lru", "least_recently_used":
		return LeastRecentlyUsed, nil
	case "3", "lfu", "least_frequently_used":
		return LeastFrequentlyUsed, nil
	}
	return 0, fmt.Errorf("unknown replacement policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p ReplacementPolicy) MarshalText() ([]byte, error) {
	if _, ok := replacementNames[p]; !ok {
		return nil, fmt.Errorf("unknown replacement policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *ReplacementPolicy) UnmarshalText(text []byte) error {
	v, err := ParseReplacementPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// WriteHitPolicy decides where a write that hits in the cache goes.
type WriteHitPolicy int

const (
	// WriteThrough updates the line and the backing store.
	WriteThrough WriteHitPolicy = iota + 1
	// WriteBack updates only the line and marks it dirty.
	WriteBack
)

var writeHitNames = map[WriteHitPolicy]string{
	WriteThrough: "write_through",
	WriteBack:    "write_back",
}

func (p WriteHitPolicy) String() string {
	if name, ok := writeHitNames[p]; ok {
		return name
	}
	return fmt.Sprintf("WriteHitPolicy(%d)", int(p))
}

// ParseWriteHitPolicy accepts the policy name, a short alias or the menu
// number 1-2.
func ParseWriteHitPolicy(s string) (WriteHitPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "through", "write_through", "write-through":
		return WriteThrough, nil
	case "2", "back", "write_back", "write-back":
		return WriteBack, nil
	}
	return 0, fmt.Errorf("unknown write hit policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p WriteHitPolicy) MarshalText() ([]byte, error) {
	if _, ok := writeHitNames[p]; !ok {
		return nil, fmt.Errorf("unknown write hit policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *WriteHitPolicy) UnmarshalText(text []byte) error {
	v, err := ParseWriteHitPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// WriteMissPolicy decides whether a write miss brings the block into the
// cache.
type WriteMissPolicy int

const (
	// WriteAllocate fills the block first and then writes it like a hit.
	WriteAllocate WriteMissPolicy = iota + 1
	// NoWriteAllocate writes straight to the backing store.
	NoWriteAllocate
)

var writeMissNames = map[WriteMissPolicy]string{
	WriteAllocate:   "write_allocate",
	NoWriteAllocate: "no_write_allocate",
}

func (p WriteMissPolicy) String() string {
	if name, ok := writeMissNames[p]; ok {
		return name
	}
	return fmt.Sprintf("WriteMissPolicy(%d)", int(p))
}

// ParseWriteMissPolicy accepts the policy name, a short alias or the menu
// number 1-2.
func ParseWriteMissPolicy(s string) (WriteMissPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "allocate", "write_allocate", "write-allocate":
		return WriteAllocate, nil
	case "2", "no-allocate", "no_write_allocate", "no-write-allocate":
		return NoWriteAllocate, nil
	}
	return 0, fmt.Errorf("unknown write miss policy %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p WriteMissPolicy) MarshalText() ([]byte, error) {
	if _, ok := writeMissNames[p]; !ok {
		return nil, fmt.Errorf("unknown write miss policy %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *WriteMissPolicy) UnmarshalText(text []byte) error {
	v, err := ParseWriteMissPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes, a power of two in [8, 256].
	Size int `json:"cache_size"`

	// BlockSize in bytes (cache line size). Must not exceed Size.
	BlockSize int `json:"block_size"`

	// Associativity is the number of ways per set: 1, 2 or 4.
	Associativity int `json:"associativity"`

	Replacement ReplacementPolicy `json:"replacement_policy"`
	WriteHit    WriteHitPolicy    `json:"write_hit_policy"`
	WriteMiss   WriteMissPolicy   `json:"write_miss_policy"`

	// Seed drives the random replacement policy. Zero picks a seed from the
	// clock.
	Seed int64 `json:"seed,omitempty"`

	// FlushKeepsStats carries hit/miss counters across a flush instead of
	// resetting them.
	FlushKeepsStats bool `json:"flush_keeps_stats,omitempty"`
}

// DefaultConfig returns a small direct-mapped write-through cache.
func DefaultConfig() Config {
	return Config{
		Size:          16,
		BlockSize:     4,
		Associativity: 1,
		Replacement:   LeastRecentlyUsed,
		WriteHit:      WriteThrough,
		WriteMiss:     WriteAllocate,
	}
}

func isPowerOfTwo(v int) bool {
	return v > 0 && v&(v-1) == 0
}

func log2(v int) int {
	n := 0
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// Validate checks the geometry and policy invariants.
func (c Config) Validate() error {
	if c.Size < MinSize || c.Size > MaxSize {
		return configError("cache_size", strconv.Itoa(c.Size),
			fmt.Sprintf("must be between %d and %d", MinSize, MaxSize))
	}
	if !isPowerOfTwo(c.Size) {
		return configError("cache_size", strconv.Itoa(c.Size), "must be a power of two")
	}
	if !isPowerOfTwo(c.BlockSize) {
		return configError("block_size", strconv.Itoa(c.BlockSize), "must be a power of two")
	}
	if c.BlockSize > c.Size {
		return configError("block_size", strconv.Itoa(c.BlockSize),
			"cannot be bigger than the cache itself")
	}
	if c.Associativity != 1 && c.Associativity != 2 && c.Associativity != 4 {
		return configError("associativity", strconv.Itoa(c.Associativity), "must be 1, 2 or 4")
	}

	numSets := c.Size / c.BlockSize / c.Associativity
	if !isPowerOfTwo(numSets) {
		return configError("associativity", strconv.Itoa(c.Associativity),
			fmt.Sprintf("leaves %d sets, need a power of two", numSets))
	}

	if _, ok := replacementNames[c.Replacement]; !ok {
		return configError("replacement_policy", strconv.Itoa(int(c.Replacement)), "must be 1, 2 or 3")
	}
	if _, ok := writeHitNames[c.WriteHit]; !ok {
		return configError("write_hit_policy", strconv.Itoa(int(c.WriteHit)), "must be 1 or 2")
	}
	if _, ok := writeMissNames[c.WriteMiss]; !ok {
		return configError("write_miss_policy", strconv.Itoa(int(c.WriteMiss)), "must be 1 or 2")
	}

	return nil
}

// NumSets returns the number of sets the configuration describes.
func (c Config) NumSets() int {
	if c.BlockSize <= 0 || c.Associativity <= 0 {
		return 0
	}
	return c.Size / c.BlockSize / c.Associativity
}

// Geometry derives the address layout. The configuration must be valid.
func (c Config) Geometry() Geometry {
	numSets := c.NumSets()
	offsetBits := log2(c.BlockSize)
	indexBits := log2(numSets)

	return Geometry{
		BlockSize:     c.BlockSize,
		Associativity: c.Associativity,
		NumSets:       numSets,
		OffsetBits:    offsetBits,
		IndexBits:     indexBits,
		TagBits:       AddressBits - indexBits - offsetBits,
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// SaveConfig writes the Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}
