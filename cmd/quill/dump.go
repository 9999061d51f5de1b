package main

import (
	"github.com/spf13/cobra"

	"github.com/quill-lang/quill/internal/compiler"
	"github.com/quill-lang/quill/internal/printer"
	"github.com/quill-lang/quill/internal/sema"
)

func newDumpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "print the decorated syntax tree of a script",
		Args:  cobra.ExactArgs(1),
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
			result, err := s.compiler.Compile(units[0])
			if err != nil {
				return err
			}
			failed := s.report(cmd, []*compiler.Result{result})

			if result.Script != nil {
				var view sema.View
				if result.Store != nil {
					view = result.Store
				}
				if err := printer.Fprint(cmd.OutOrStdout(), result.Script, view); err != nil {
					return err
				}
			}
			if failed {
				return errUnitsRejected
			}
			return nil
		},
	}
}
