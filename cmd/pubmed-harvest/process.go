// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pubmed-harvest/internal/pubmed"
)

var processCmd = &cobra.Command{
	Use:   "process [query...]",
	Short: "Search PubMed and store metadata and PDFs for each result",
	Long: `Process searches PubMed, then for each returned PMID fetches the summary
and full XML record, stores them, and downloads the PubMed Central PDF when
one exists. PDF downloads are retried up to MAX_RETRIES times.

A failing article is reported and counted but does not stop the run. The
run summary is written to metadata/searches/ and recorded in the catalog.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().Int("max-results", pubmed.DefaultMaxResults, "maximum number of articles to process")
	processCmd.Flags().Bool("no-pdf", false, "skip full-text PDF downloads")
	processCmd.Flags().String("format", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max-results")
	noPDF, _ := cmd.Flags().GetBool("no-pdf")
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}
	if maxResults < 0 {
		return fmt.Errorf("--max-results must not be negative")
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.processor(!noPDF).SearchAndProcess(cmd.Context(), strings.Join(args, " "), maxResults)
	if sum.SearchID != "" && (err == nil || sum.Returned > 0) {
		if werr := writeSummary(cmd.OutOrStdout(), sum, format); werr != nil {
			return werr
		}
	}
	return err
}
