// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [pmids...]",
	Short: "Fetch and store specific articles by PMID",
	Long: `Fetch stores metadata, XML and PDFs for the given articles without
searching. Identifiers may be bare PMIDs, "PMID:" prefixed, or PubMed URLs.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("no-pdf", false, "skip full-text PDF downloads")
	fetchCmd.Flags().String("format", formatText, "output format: text, json or yaml")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	noPDF, _ := cmd.Flags().GetBool("no-pdf")
	format, _ := cmd.Flags().GetString("format")
	if err := checkFormat(format); err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sum, err := a.processor(!noPDF).ProcessIDs(cmd.Context(), args)
	if werr := writeSummary(cmd.OutOrStdout(), sum, format); werr != nil {
		return werr
	}
	if err != nil {
		return err
	}
	if sum.HasFailures() {
		return fmt.Errorf("%d article(s) failed", sum.FailedProcessing)
	}
	return nil
}
