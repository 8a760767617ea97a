package main

import (
	"errors"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/catalogapp/catalog-server/internal/service"
)

func newIndexCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Maintain the search index",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.run(cmd, func(i do.Injector) error {
				searchService := do.MustInvoke[*service.SearchService](i)
				if searchService == nil {
					return errors.New("search is disabled")
				}
				n, err := searchService.Reindex(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d entries\n", n)
				return nil
			})
		},
	})
	return cmd
}
