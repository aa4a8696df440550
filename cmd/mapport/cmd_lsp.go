package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/mapport/lsp"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start a language server for mapping files",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewLSPServer(version)
			return server.RunStdio()
		},
	}
}
