package main

import (
	"github.com/spf13/cobra"

	"github.com/quill-lang/quill/internal/lsp"
)

func newLSPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "serve the language server protocol over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}
			defer s.writeMetrics()

			s.log.Info().Msg("language server started")
			return lsp.NewServer(s.compiler, s.log).Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
