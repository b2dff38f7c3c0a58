// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pubmed-harvest/pkg/types"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func checkFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// writeStructured encodes v as JSON or YAML. It reports false for text.
func writeStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

// writeSummary prints a run summary in the requested format.
func writeSummary(w io.Writer, sum types.ProcessSummary, format string) error {
	if ok, err := writeStructured(w, format, sum); ok {
		return err
	}

	for _, a := range sum.Articles {
		switch {
		case !a.Succeeded:
			fmt.Fprintf(w, "failed:  %s (%s)\n", a.PMID, a.Error)
		case a.HasPDF():
			fmt.Fprintf(w, "stored:  %s %s [pdf]\n", a.PMID, truncate(a.Title, 70))
		default:
			fmt.Fprintf(w, "stored:  %s %s\n", a.PMID, truncate(a.Title, 70))
		}
	}
	if sum.Query != "" {
		fmt.Fprintf(w, "\nQuery: %s (search %s)\n", sum.Query, sum.SearchID)
	}
	fmt.Fprintf(w, "Summary: %d found, %d processed, %d failed, %d PDFs saved\n",
		sum.TotalArticlesFound, sum.SuccessfullyProcessed, sum.FailedProcessing, sum.PDFsSaved)
	if len(sum.FailedIDs) > 0 {
		fmt.Fprintf(w, "Failed PMIDs: %s\n", strings.Join(sum.FailedIDs, ", "))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
