package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/loader"
	"github.com/sarchlab/cachesim/logging"
	"github.com/sarchlab/cachesim/memory"
	"github.com/sarchlab/cachesim/session"
	"github.com/sarchlab/cachesim/trace"
)

// options holds the flags shared by every subcommand.
type options struct {
	configPath  string
	memoryPath  string
	memoryRange string
	tracePath   string
	dumpDir     string
	logLevel    string
	logFormat   string

	size          int
	blockSize     int
	associativity int
	replacement   string
	writeHit      string
	writeMiss     string
	seed          int64
	keepStats     bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "cachesim",
		Short: "Set-associative CPU data cache simulator",
		Long: `cachesim simulates a small set-associative data cache in front of a
byte-addressable memory of up to 256 bytes.

The cache is configured from a JSON file (--config), from flags, or both;
flags win. The memory is initialised from a file holding one hex byte per
line (--memory).

Examples:
  cachesim run --memory input.txt --cache-size 32 --associativity 2
  cachesim exec --replacement lfu "cache-read 0x10" "cache-view"
  cachesim config --write cache.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "cache configuration JSON file")
	flags.StringVar(&opts.memoryPath, "memory", "", "memory image, one hex byte per line")
	flags.StringVar(&opts.memoryRange, "memory-range", "0x00 0xFF", "bytes of the image to load, as \"0x00 0xNN\"")
	flags.StringVar(&opts.tracePath, "trace", "", "record accesses to a .csv or .sqlite3 file")
	flags.StringVar(&opts.dumpDir, "dump-dir", ".", "directory for cache.txt and ram.txt")
	flags.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn, error or off")
	flags.StringVar(&opts.logFormat, "log-format", "", "console or json")

	defaults := cache.DefaultConfig()
	flags.IntVar(&opts.size, "cache-size", defaults.Size, "cache size in bytes (8-256)")
	flags.IntVar(&opts.blockSize, "block-size", defaults.BlockSize, "data block size in bytes")
	flags.IntVar(&opts.associativity, "associativity", defaults.Associativity, "ways per set (1, 2 or 4)")
	flags.StringVar(&opts.replacement, "replacement", defaults.Replacement.String(),
		"replacement policy: 1/random, 2/lru, 3/lfu")
	flags.StringVar(&opts.writeHit, "write-hit", defaults.WriteHit.String(),
		"write hit policy: 1/write_through, 2/write_back")
	flags.StringVar(&opts.writeMiss, "write-miss", defaults.WriteMiss.String(),
		"write miss policy: 1/write_allocate, 2/no_write_allocate")
	flags.Int64Var(&opts.seed, "seed", 0, "random replacement seed, 0 uses the clock")
	flags.BoolVar(&opts.keepStats, "flush-keeps-stats", false, "keep hit and miss counts across cache-flush")

	root.AddCommand(
		newRunCmd(opts),
		newExecCmd(opts),
		newConfigCmd(opts),
	)

	return root
}

// cacheConfig merges the config file and any explicitly set flags.
func (o *options) cacheConfig(cmd *cobra.Command) (cache.Config, error) {
	config := cache.DefaultConfig()
	if o.configPath != "" {
		var err error
		if config, err = cache.LoadConfig(o.configPath); err != nil {
			return cache.Config{}, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("cache-size") {
		config.Size = o.size
	}
	if flags.Changed("block-size") {
		config.BlockSize = o.blockSize
	}
	if flags.Changed("associativity") {
		config.Associativity = o.associativity
	}
	if flags.Changed("replacement") {
		p, err := cache.ParseReplacementPolicy(o.replacement)
		if err != nil {
			return cache.Config{}, err
		}
		config.Replacement = p
	}
	if flags.Changed("write-hit") {
		p, err := cache.ParseWriteHitPolicy(o.writeHit)
		if err != nil {
			return cache.Config{}, err
		}
		config.WriteHit = p
	}
	if flags.Changed("write-miss") {
		p, err := cache.ParseWriteMissPolicy(o.writeMiss)
		if err != nil {
			return cache.Config{}, err
		}
		config.WriteMiss = p
	}
	if flags.Changed("seed") {
		config.Seed = o.seed
	}
	if flags.Changed("flush-keeps-stats") {
		config.FlushKeepsStats = o.keepStats
	}

	if err := config.Validate(); err != nil {
		return cache.Config{}, err
	}

	return config, nil
}

func (o *options) loggingConfig() (logging.Config, error) {
	cfg := logging.ConfigFromEnv(logging.DefaultConfig())

	if o.logLevel != "" {
		level, ok := logging.ParseLevel(o.logLevel)
		if !ok {
			return logging.Config{}, fmt.Errorf("unknown log level %q", o.logLevel)
		}
		cfg.Level = level
	}

	switch o.logFormat {
	case "":
	case "json", "console":
		cfg.Format = o.logFormat
	default:
		return logging.Config{}, fmt.Errorf("unknown log format %q", o.logFormat)
	}

	return cfg, nil
}

func (o *options) loadMemory() (*memory.Memory, error) {
	n, err := loader.ParseRange(o.memoryRange)
	if err != nil {
		return nil, err
	}

	var image []byte
	if o.memoryPath != "" {
		if image, err = loader.LoadImage(o.memoryPath); err != nil {
			return nil, err
		}
	}

	return memory.New(memory.DefaultSize, loader.Truncate(image, n))
}

// newSession wires memory, cache, logger and trace recorder together. The
// caller owns the returned session and must Close it.
func (o *options) newSession(
	ctx context.Context,
	cmd *cobra.Command,
	extra ...session.Option,
) (context.Context, *session.Session, error) {
	logCfg, err := o.loggingConfig()
	if err != nil {
		return ctx, nil, err
	}
	logger := logging.New(logCfg, cmd.ErrOrStderr())

	config, err := o.cacheConfig(cmd)
	if err != nil {
		return ctx, nil, err
	}

	m, err := o.loadMemory()
	if err != nil {
		return ctx, nil, err
	}

	c, err := cache.New(config, cache.NewMemoryBacking(m))
	if err != nil {
		return ctx, nil, err
	}

	recorder, err := trace.New(o.tracePath)
	if err != nil {
		return ctx, nil, err
	}

	id := logging.NewSessionID()
	ctx = logging.WithSession(logging.WithContext(ctx, logger), id)

	opts := []session.Option{
		session.WithID(id),
		session.WithOutput(cmd.OutOrStdout()),
		session.WithRecorder(recorder),
		session.WithLogger(*logging.FromContext(ctx)),
		session.WithDumpDir(o.dumpDir),
	}
	s := session.New(c, m, append(opts, extra...)...)

	logging.FromContext(ctx).Info().
		Stringer("replacement", config.Replacement).
		Stringer("write_hit", config.WriteHit).
		Stringer("write_miss", config.WriteMiss).
		Int("cache_size", config.Size).
		Int("block_size", config.BlockSize).
		Int("associativity", config.Associativity).
		Str("trace", o.tracePath).
		Msg("session started")

	return ctx, s, nil
}

func closeSession(s *session.Session, err error) error {
	if closeErr := s.Close(); err == nil {
		err = closeErr
	}
	return err
}

func discardPrompt(io.Writer) {}
