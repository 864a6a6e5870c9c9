package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/session"
)

func newExecCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "exec COMMAND...",
		Short: "Execute commands given as arguments",
		Long: `Execute each argument as one command, in order, against a fresh cache.

Example:
  cachesim exec "cache-write 0x10 0xFF" "cache-read 0x10" cache-view`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			commands := make([]session.Command, 0, len(args))
			for _, arg := range args {
				c, err := session.ParseCommand(arg)
				if err != nil {
					return err
				}
				commands = append(commands, c)
			}

			ctx, s, err := opts.newSession(cmd.Context(), cmd)
			if err != nil {
				return err
			}

			for _, c := range commands {
				if c.Kind == session.Quit {
					break
				}
				if err := s.Execute(ctx, c); err != nil {
					return closeSession(s, fmt.Errorf("%s: %w", c, err))
				}
			}

			return closeSession(s, nil)
		},
	}
}
