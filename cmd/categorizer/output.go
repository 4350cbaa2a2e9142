package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/schollz/progressbar/v3"
)

const spinnerInterval = 100 * time.Millisecond

// withSpinner shows an indeterminate spinner on w while fn runs
func withSpinner(w io.Writer, visible bool, description string, fn func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription(description),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(spinnerInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = bar.Add(1)
			case <-done:
				return
			}
		}
	}()

	err := fn()
	close(done)
	_ = bar.Finish()
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResult(w io.Writer, r *core.AnalysisResult) {
	fmt.Fprintf(w, "\n=== %s ===\n", r.URL)
	if r.Status == core.StatusFailed {
		fmt.Fprintf(w, "Status: failed\n")
		fmt.Fprintf(w, "Error: %s\n", r.Error)
		return
	}

	a := r.Analysis
	fmt.Fprintf(w, "Status: success\n")
	fmt.Fprintf(w, "From cache: %t\n", r.Cached())
	if a == nil {
		return
	}
	fmt.Fprintf(w, "Main category: %s (%.0f%%)\n", a.MainCategory, a.Confidence*100)
	if len(a.SubCategories) > 0 {
		fmt.Fprintf(w, "Sub categories:\n")
		for _, sub := range a.SubCategories {
			fmt.Fprintf(w, "  - %s (%.0f%%)\n", sub.Name, sub.Confidence*100)
		}
	}
	if a.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", a.Description)
	}
	if a.TargetAudience != "" {
		fmt.Fprintf(w, "Target audience: %s\n", a.TargetAudience)
	}
	if a.ValueProposition != "" {
		fmt.Fprintf(w, "Value proposition: %s\n", a.ValueProposition)
	}
}

func printBatch(w io.Writer, b *core.BatchResult) {
	for _, r := range b.Results {
		printResult(w, r)
	}
	fmt.Fprintf(w, "\n=== Results ===\n")
	fmt.Fprintf(w, "Total: %d\n", b.Total)
	fmt.Fprintf(w, "Success: %d\n", b.Success)
	fmt.Fprintf(w, "Failed: %d\n", b.Failed)
}

func printHistory(w io.Writer, page *core.HistoryPage) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTIMESTAMP\tSTATUS\tCATEGORY\tCONFIDENCE\tURL\n")
	for _, item := range page.Items {
		confidence := "-"
		if item.Confidence != nil {
			confidence = fmt.Sprintf("%.0f%%", *item.Confidence*100)
		}
		category := item.MainCategory
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			item.ID,
			item.Timestamp.Local().Format(time.DateTime),
			item.Status,
			category,
			confidence,
			item.URL)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nPage %d of %d (%d items)\n", page.Page, page.Pages, page.Total)
	return nil
}

func printRecord(w io.Writer, rec *core.HistoryRecord) {
	fmt.Fprintf(w, "ID: %s\n", rec.ID)
	fmt.Fprintf(w, "Timestamp: %s\n", rec.Timestamp.Local().Format(time.RFC3339))
	if rec.IsBatch {
		fmt.Fprintf(w, "Batch: %s\n", rec.BatchID)
	}
	printResult(w, &core.AnalysisResult{
		URL:      rec.URL,
		Status:   rec.Status,
		Analysis: rec.Analysis,
		Error:    rec.Error,
	})
}

func printCategories(w io.Writer, categories core.Categories) {
	for _, main := range sortedKeys(categories) {
		fmt.Fprintf(w, "%s\n", main)
		printSubCategories(w, categories[main], "  ")
	}
}

func printSubCategories(w io.Writer, subs map[string][]string, indent string) {
	for _, sub := range sortedKeys(subs) {
		fmt.Fprintf(w, "%s%s: %s\n", indent, sub, strings.Join(subs[sub], ", "))
	}
}

func printList(w io.Writer, items []string) {
	for _, item := range items {
		fmt.Fprintln(w, item)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
