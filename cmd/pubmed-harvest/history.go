// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-harvest/internal/catalog"
	"github.com/pdiddy/pubmed-harvest/internal/config"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs recorded in the catalog",
	Long: `History lists past process and fetch runs, newest first, from the SQLite
catalog. With --pmid it shows the latest recorded outcome for one article.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().String("pmid", "", "show the latest outcome for this article")
	historyCmd.Flags().String("format", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	pmid, _ := cmd.Flags().GetString("pmid")
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.Storage.CatalogPath == "" {
		return fmt.Errorf("the run catalog is disabled (%s=%s)", config.KeyCatalogPath, config.CatalogDisabled)
	}
	cat, err := catalog.Open(cfg.Storage.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	w := cmd.OutOrStdout()
	if pmid != "" {
		a, err := cat.Article(cmd.Context(), pmid)
		if err != nil {
			return err
		}
		if ok, err := writeStructured(w, format, a); ok {
			return err
		}
		status := "stored"
		if !a.Succeeded {
			status = "failed: " + a.Error
		}
		fmt.Fprintf(w, "%s %s\n  status: %s\n  last run: %s (%s)\n",
			a.PMID, a.Title, status, a.LastRun, a.UpdatedAt.Format("2006-01-02 15:04:05"))
		for _, p := range []string{a.XMLPath, a.SummaryPath, a.PDFPath} {
			if p != "" {
				fmt.Fprintf(w, "  %s\n", p)
			}
		}
		return nil
	}

	runs, err := cat.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if ok, err := writeStructured(w, format, runs); ok {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSEARCH ID\tFOUND\tOK\tFAILED\tPDFS\tQUERY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ProcessedAt.Local().Format("2006-01-02 15:04"), r.SearchID,
			r.TotalFound, r.Succeeded, r.Failed, r.PDFs, r.Query)
	}
	return tw.Flush()
}
