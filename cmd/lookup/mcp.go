package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/lookup-erp/lookup/pkg/mcp"
	"github.com/lookup-erp/lookup/pkg/models"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the ERP searches as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer a.Close()

			serverOpts := []mcp.Option{
				mcp.WithCaches(
					resultCache[models.Invoice](a),
					resultCache[models.Client](a),
					resultCache[models.Product](a),
				),
			}
			if a.cache != nil {
				serverOpts = append(serverOpts, mcp.WithStats(a.cache))
			}

			srv := mcp.New(a.client, a.cfg.Search.Policy(), version, a.log, serverOpts...)
			return srv.Run(cmd.Context(), os.Stdin, cmd.OutOrStdout())
		},
	}
}
