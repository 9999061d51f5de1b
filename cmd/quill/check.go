package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "parse and analyze scripts, reporting every diagnostic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.writeMetrics()

			units, err := s.readUnits(args)
			if err != nil {
				return err
			}

			results, err := s.compiler.CompileAll(cmd.Context(), units)
			if err != nil {
				s.log.Error().Err(err).Msg("compilation aborted")
			}
			if s.report(cmd, results) {
				return errUnitsRejected
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d unit(s) ok\n", len(units))
			return nil
		},
	}
}
