package main

import (
	"encoding/json"
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/catalogapp/catalog-server/internal/service"
)

func newTagCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Manage tags",
	}
	cmd.AddCommand(newTagAddCmd(root), newTagListCmd(root))
	return cmd
}

func newTagAddCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME...",
		Short: "Create tags, leaving existing ones untouched",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.run(cmd, func(i do.Injector) error {
				tagService := do.MustInvoke[*service.TagService](i)
				for _, name := range args {
					tag, created, err := tagService.CreateOrGet(cmd.Context(), service.TagRequest{Name: name})
					if err != nil {
						return fmt.Errorf("tag %q: %w", name, err)
					}
					state := "exists"
					if created {
						state = "created"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", state, tag.Name, tag.ID)
				}
				return nil
			})
		},
	}
}

func newTagListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.run(cmd, func(i do.Injector) error {
				tags, err := do.MustInvoke[*service.TagService](i).List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(tags)
				}
				for _, t := range tags {
					fmt.Fprintln(cmd.OutOrStdout(), t.Name)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
