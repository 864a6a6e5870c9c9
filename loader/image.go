// Package loader reads backing-store images for the cache simulator.
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/cachesim/memory"
)

// LoadImage reads a memory image file. The file holds one hexadecimal byte
// per line, optionally prefixed with 0x.
func LoadImage(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory image: %w", err)
	}
	defer func() { _ = f.Close() }()

	image, err := ParseImage(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return image, nil
}

// ParseImage parses an image from r. Blank lines are skipped. The image
// cannot be larger than the address space.
func ParseImage(r io.Reader) ([]byte, error) {
	var image []byte

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		token := strings.TrimSpace(scanner.Text())
		if token == "" {
			continue
		}

		b, err := parseByte(token)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if len(image) == memory.MaxSize {
			return nil, fmt.Errorf("line %d: image exceeds %d bytes", lineNo, memory.MaxSize)
		}
		image = append(image, b)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory image: %w", err)
	}

	return image, nil
}

func parseByte(token string) (byte, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")
	if digits == "" || len(digits) > 2 {
		return 0, fmt.Errorf("invalid byte %q", token)
	}

	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", token)
	}

	return byte(v), nil
}

// ParseRange parses an "init-ram 0x00 0xFF" style range and returns the
// number of bytes it covers. The range must start at 0.
func ParseRange(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) > 0 && fields[0] == "init-ram" {
		fields = fields[1:]
	}
	if len(fields) != 2 {
		return 0, fmt.Errorf("invalid memory range %q", s)
	}

	lo, err := parseAddress(fields[0])
	if err != nil {
		return 0, err
	}
	hi, err := parseAddress(fields[1])
	if err != nil {
		return 0, err
	}

	if lo != 0 {
		return 0, fmt.Errorf("memory range must start at 0x00, got 0x%02X", lo)
	}
	if hi < lo {
		return 0, fmt.Errorf("invalid memory range %q", s)
	}

	return int(hi) + 1, nil
}

func parseAddress(token string) (uint64, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")

	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", token)
	}

	return v, nil
}

// Truncate keeps the first n bytes of image. Missing bytes are not padded;
// memory.New fills them with zero.
func Truncate(image []byte, n int) []byte {
	if n < 0 {
		n = 0
	}
	if n > len(image) {
		n = len(image)
	}

	out := make([]byte, n)
	copy(out, image[:n])

	return out
}
