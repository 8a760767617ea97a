package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/catalogapp/catalog-server/internal/domain"
	"github.com/catalogapp/catalog-server/internal/filter"
	"github.com/catalogapp/catalog-server/internal/service"
)

func newEntryCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entry",
		Short: "Inspect entries",
	}
	cmd.AddCommand(newEntryAddCmd(root), newEntryListCmd(root))
	return cmd
}

func newEntryAddCmd(root *rootOptions) *cobra.Command {
	var (
		req  service.EntryRequest
		tags string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an entry carrying existing tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			req.Tags = filter.ParseTags(tags)
			return root.run(cmd, func(i do.Injector) error {
				e, err := do.MustInvoke[*service.EntryService](i).Create(cmd.Context(), req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created entry %s (%s)\n", e.Name, e.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tag names; each must exist")
	cmd.Flags().StringVar(&req.WebsiteURL, "website", "", "website URL")
	cmd.Flags().StringVar(&req.GitHubURL, "github", "", "GitHub URL")
	return cmd
}

func newEntryListCmd(root *rootOptions) *cobra.Command {
	var (
		name   string
		tags   string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, optionally filtered by name and tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.run(cmd, func(i do.Injector) error {
				entries, err := do.MustInvoke[*service.EntryService](i).List(cmd.Context(), service.ListEntriesQuery{
					Name: name,
					Tags: filter.ParseTags(tags),
				})
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				return writeEntryTable(cmd, entries)
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "case-insensitive name substring")
	cmd.Flags().StringVar(&tags, "tags", "", "comma-separated tags an entry must all carry")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeEntryTable(cmd *cobra.Command, entries []*domain.EntryWithTags) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTAGS\tWEBSITE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Name, strings.Join(e.TagNames(), ","), e.WebsiteURL)
	}
	return tw.Flush()
}
