// Package session drives a cache and its backing memory from text
// commands, printing results in the simulator's line-oriented format.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/logging"
	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/trace"
)

// Dump file names, created inside the dump directory.
const (
	CacheDumpFile  = "cache.txt"
	MemoryDumpFile = "ram.txt"
)

// InvalidCommandMessage is printed when Run reads a line it cannot parse.
const InvalidCommandMessage = "Please enter a valid command"

// Option is a functional option for configuring a Session.
type Option func(*Session)

// WithOutput sets where command results are printed. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.out = w
	}
}

// WithRecorder traces every read and write.
func WithRecorder(r trace.Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithDumpDir sets the directory that receives cache.txt and ram.txt.
func WithDumpDir(dir string) Option {
	return func(s *Session) {
		s.dumpDir = dir
	}
}

// WithID overrides the generated session ID.
func WithID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithPrompt sets a function Run calls before reading each command.
func WithPrompt(prompt func(w io.Writer)) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// Session executes commands against one cache and its memory.
type Session struct {
	id      string
	cache   *cache.Cache
	memory  *memory.Memory
	out     io.Writer
	dumpDir string
	prompt  func(w io.Writer)

	recorder trace.Recorder
	logger   zerolog.Logger
	seq      uint64
}

// New creates a session. The cache must be backed by m.
func New(c *cache.Cache, m *memory.Memory, opts ...Option) *Session {
	s := &Session{
		id:       logging.NewSessionID(),
		cache:    c,
		memory:   m,
		out:      os.Stdout,
		dumpDir:  ".",
		recorder: trace.NopRecorder{},
		logger:   zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With().Str("session", s.id).Logger()

	return s
}

// ID returns the session identifier written to every trace record.
func (s *Session) ID() string {
	return s.id
}

// Cache returns the simulated cache.
func (s *Session) Cache() *cache.Cache {
	return s.cache
}

// Execute runs a single command. Quit is a no-op here; Run handles it.
func (s *Session) Execute(ctx context.Context, cmd Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.logger.Debug().Str("command", cmd.String()).Msg("execute")

	switch cmd.Kind {
	case CacheRead:
		return s.read(cmd.Address)
	case CacheWrite:
		return s.write(cmd.Address, cmd.Value)
	case CacheFlush:
		s.cache.Flush()
		_, err := fmt.Fprintln(s.out, "cache_cleared")
		return err
	case CacheView:
		return report.WriteCacheView(s.out, s.cache.Snapshot())
	case MemoryView:
		return report.WriteMemoryView(s.out, s.memory.Snapshot())
	case CacheDump:
		return s.dump(CacheDumpFile, func(w io.Writer) error {
			return report.WriteCacheDump(w, s.cache.Snapshot())
		})
	case MemoryDump:
		return s.dump(MemoryDumpFile, func(w io.Writer) error {
			return report.WriteMemoryDump(w, s.memory.Snapshot())
		})
	case Quit:
		return nil
	}

	return fmt.Errorf("%w %s", ErrUnknownCommand, cmd.Kind)
}

func (s *Session) read(addr uint8) error {
	result, err := s.cache.Read(addr)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Uint8("address", addr).
		Bool("hit", result.Hit).
		Int("set", result.SetIndex).
		Int("evicted", result.EvictedLine).
		Msg("read")

	if err := s.record(trace.Access{
		Op:          trace.OpRead,
		Address:     addr,
		Value:       result.Data,
		Hit:         result.Hit,
		SetIndex:    result.SetIndex,
		Tag:         result.Tag,
		EvictedLine: result.EvictedLine,
		Dirty:       cache.NoLine,
	}); err != nil {
		return err
	}

	ramAddress := "-1"
	if !result.Hit {
		ramAddress = fmt.Sprintf("0x%02X", result.FillAddress)
	}

	_, err = fmt.Fprintf(s.out,
		"set:%d\ntag:%02X\nhit:%s\neviction_line:%d\nram_address:%s\ndata:0x%02X\n",
		result.SetIndex, result.Tag, yesNo(result.Hit), result.EvictedLine,
		ramAddress, result.Data)

	return err
}

func (s *Session) write(addr, value uint8) error {
	result, err := s.cache.Write(addr, value)
	if err != nil {
		return err
	}

	s.logger.Debug().
		Uint8("address", addr).
		Uint8("value", value).
		Bool("hit", result.Hit).
		Int("set", result.SetIndex).
		Int("evicted", result.EvictedLine).
		Msg("write")

	if err := s.record(trace.Access{
		Op:          trace.OpWrite,
		Address:     addr,
		Value:       value,
		Hit:         result.Hit,
		SetIndex:    result.SetIndex,
		Tag:         result.Tag,
		EvictedLine: result.EvictedLine,
		Dirty:       result.Dirty,
	}); err != nil {
		return err
	}

	_, err = fmt.Fprintf(s.out,
		"set:%d\ntag:%02X\nwrite_hit:%s\neviction_line:%d\nram_address:0x%02X\ndata:0x%02X\ndirty_bit:%d\n",
		result.SetIndex, result.Tag, yesNo(result.Hit), result.EvictedLine,
		addr, value, result.Dirty)

	return err
}

func (s *Session) record(access trace.Access) error {
	s.seq++
	access.Session = s.id
	access.Seq = s.seq

	if err := s.recorder.Record(access); err != nil {
		return fmt.Errorf("failed to record access: %w", err)
	}

	return nil
}

func (s *Session) dump(name string, write func(w io.Writer) error) error {
	path := filepath.Join(s.dumpDir, name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dump file: %w", err)
	}

	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := f.Close(); err != nil {
		return err
	}

	s.logger.Info().Str("path", path).Msg("dump written")

	return nil
}

// Run reads commands from r until quit, end of input or context
// cancellation. Lines that fail to parse print InvalidCommandMessage and
// the loop continues; failures while executing a command end the run.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)

	for {
		if s.prompt != nil {
			s.prompt(s.out)
		}

		if !scanner.Scan() {
			break
		}

		cmd, err := ParseCommand(scanner.Text())
		if err != nil {
			s.logger.Warn().Err(err).Str("line", scanner.Text()).Msg("invalid command")
			fmt.Fprintln(s.out, InvalidCommandMessage)
			continue
		}

		if cmd.Kind == Quit {
			return s.recorder.Flush()
		}

		if err := s.Execute(ctx, cmd); err != nil {
			if errors.Is(err, memory.ErrAddressOutOfRange) {
				fmt.Fprintf(s.out, "error: %v\n", err)
				continue
			}
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read commands: %w", err)
	}

	return s.recorder.Flush()
}

// Close closes the trace recorder.
func (s *Session) Close() error {
	return s.recorder.Close()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
