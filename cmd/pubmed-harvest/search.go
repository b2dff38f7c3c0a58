// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-harvest/internal/pubmed"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search PubMed and print matching PMIDs",
	Long: `Search runs an ESearch query and prints the upstream match count and the
returned PMIDs. Nothing is fetched or stored; use process for that.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("max-results", pubmed.DefaultMaxResults, "maximum number of PMIDs to return")
	searchCmd.Flags().String("format", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	if maxResults < 0 {
		return fmt.Errorf("--max-results must not be negative")
	}

	a, err := newClientApp()
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.client.Search(cmd.Context(), strings.Join(args, " "), maxResults)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if ok, err := writeStructured(w, format, res); ok {
		return err
	}
	for _, id := range res.IDs {
		fmt.Fprintln(w, id)
	}
	fmt.Fprintf(w, "\n%d found, %d returned\n", res.Count, len(res.IDs))
	if res.QueryTranslation != "" {
		fmt.Fprintf(w, "Translated query: %s\n", res.QueryTranslation)
	}
	return nil
}
