// Package report renders cache and memory snapshots as text.
package report

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sarchlab/cachesim/cache"
)

// BytesPerRow is the number of memory bytes shown on one memory-view row.
const BytesPerRow = 8

// WriteCacheView prints the configuration, the hit and miss counters and
// every line as "valid dirty tag data...".
func WriteCacheView(w io.Writer, snap cache.Snapshot) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "cache_size:%d\n", snap.Config.Size)
	fmt.Fprintf(bw, "data_block_size:%d\n", snap.Config.BlockSize)
	fmt.Fprintf(bw, "associativity:%d\n", snap.Config.Associativity)
	fmt.Fprintf(bw, "replacement_policy:%s\n", snap.Config.Replacement)
	fmt.Fprintf(bw, "write_hit_policy:%s\n", snap.Config.WriteHit)
	fmt.Fprintf(bw, "write_miss_policy:%s\n", snap.Config.WriteMiss)
	fmt.Fprintf(bw, "number_of_cache_hits:%d\n", snap.Stats.Hits)
	fmt.Fprintf(bw, "number_of_cache_misses:%d\n", snap.Stats.Misses)
	fmt.Fprintln(bw, "cache_content:")

	for _, set := range snap.Sets {
		for _, line := range set {
			fmt.Fprintf(bw, "%d %d %02X ", bit(line.Valid), bit(line.Dirty), line.Tag)
			writeBytes(bw, line.Data)
			fmt.Fprintln(bw)
		}
	}

	return bw.Flush()
}

// WriteMemoryView prints the memory size followed by rows of BytesPerRow
// bytes, each prefixed with the row address.
func WriteMemoryView(w io.Writer, image []byte) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "memory_size:%d\n", len(image))
	fmt.Fprintln(bw, "memory_content:")
	fmt.Fprintln(bw, "address:data")

	for row := 0; row < len(image); row += BytesPerRow {
		end := min(row+BytesPerRow, len(image))

		fmt.Fprintf(bw, "0x%02X:", row)
		writeBytes(bw, image[row:end])
		fmt.Fprintln(bw)
	}

	return bw.Flush()
}

// WriteCacheDump writes the data of every line, one line per row, in set
// and way order.
func WriteCacheDump(w io.Writer, snap cache.Snapshot) error {
	bw := bufio.NewWriter(w)

	for _, set := range snap.Sets {
		for _, line := range set {
			writeBytes(bw, line.Data)
			fmt.Fprintln(bw)
		}
	}

	return bw.Flush()
}

// WriteMemoryDump writes every memory byte on its own row.
func WriteMemoryDump(w io.Writer, image []byte) error {
	bw := bufio.NewWriter(w)

	for _, b := range image {
		fmt.Fprintf(bw, "%02X\n", b)
	}

	return bw.Flush()
}

func writeBytes(w io.Writer, data []byte) {
	for _, b := range data {
		fmt.Fprintf(w, "%02X ", b)
	}
}

func bit(v bool) int {
	if v {
		return 1
	}
	return 0
}
