package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/session"
)

func newRunCmd(opts *options) *cobra.Command {
	var (
		scriptPath string
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interactive command loop",
		Long: `Read commands from stdin, or from --script, until quit or end of input.

Commands:
  cache-read 0xAA          read one byte
  cache-write 0xAA 0xBB    write one byte
  cache-flush              invalidate every line
  cache-view               print configuration, counters and lines
  memory-view              print memory
  cache-dump               write line data to cache.txt
  memory-dump              write memory to ram.txt
  quit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if scriptPath != "" {
				f, err := os.Open(scriptPath)
				if err != nil {
					return fmt.Errorf("failed to open script: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
				quiet = true
			}

			prompt := printMenu
			if quiet {
				prompt = discardPrompt
			}

			ctx, s, err := opts.newSession(cmd.Context(), cmd, session.WithPrompt(prompt))
			if err != nil {
				return err
			}

			if !quiet {
				fmt.Fprintln(cmd.OutOrStdout(), renderBanner())
			}

			return closeSession(s, s.Run(ctx, in))
		},
	}

	cmd.Flags().StringVar(&scriptPath, "script", "", "read commands from a file instead of stdin")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the banner and menu")

	return cmd
}
