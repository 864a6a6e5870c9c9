package session

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a simulator command.
type Kind int

// Commands understood by ParseCommand.
const (
	CacheRead Kind = iota + 1
	CacheWrite
	CacheFlush
	CacheView
	MemoryView
	CacheDump
	MemoryDump
	Quit
)

var kindNames = map[Kind]string{
	CacheRead:  "cache-read",
	CacheWrite: "cache-write",
	CacheFlush: "cache-flush",
	CacheView:  "cache-view",
	MemoryView: "memory-view",
	CacheDump:  "cache-dump",
	MemoryDump: "memory-dump",
	Quit:       "quit",
}

var kindArgs = map[Kind]int{
	CacheRead:  1,
	CacheWrite: 2,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ErrUnknownCommand is returned for input that names no command.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one parsed line of input.
type Command struct {
	Kind    Kind
	Address uint8
	Value   uint8
}

func (c Command) String() string {
	switch c.Kind {
	case CacheRead:
		return fmt.Sprintf("%s 0x%02X", c.Kind, c.Address)
	case CacheWrite:
		return fmt.Sprintf("%s 0x%02X 0x%02X", c.Kind, c.Address, c.Value)
	}
	return c.Kind.String()
}

// ParseCommand parses lines such as "cache-read 0x1A" or
// "cache-write 0x1A 0xFF". Numbers are hexadecimal, the 0x prefix is
// optional.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	kind, ok := lookupKind(fields[0])
	if !ok {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownCommand, fields[0])
	}

	args := fields[1:]
	if len(args) != kindArgs[kind] {
		return Command{}, fmt.Errorf("%s takes %d argument(s), got %d",
			kind, kindArgs[kind], len(args))
	}

	cmd := Command{Kind: kind}

	var err error
	if len(args) > 0 {
		if cmd.Address, err = parseHexByte(args[0]); err != nil {
			return Command{}, fmt.Errorf("%s: address: %w", kind, err)
		}
	}
	if len(args) > 1 {
		if cmd.Value, err = parseHexByte(args[1]); err != nil {
			return Command{}, fmt.Errorf("%s: data: %w", kind, err)
		}
	}

	return cmd, nil
}

func lookupKind(name string) (Kind, bool) {
	name = strings.ToLower(name)
	for kind, n := range kindNames {
		if n == name {
			return kind, true
		}
	}
	return 0, false
}

func parseHexByte(token string) (uint8, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(token, "0x"), "0X")

	v, err := strconv.ParseUint(digits, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", token)
	}

	return uint8(v), nil
}
