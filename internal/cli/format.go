package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/evcraddock/visitlog/internal/kiosk"
	"github.com/evcraddock/visitlog/internal/report"
	"github.com/evcraddock/visitlog/internal/visit"
)

// printJSON marshals v as indented JSON and writes it to w.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printRatioTable prints one ratio table with a title row.
func printRatioTable(w io.Writer, title string, rows []report.Ratio) error {
	if _, err := fmt.Fprintf(w, "%s\n", title); err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "  No data.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		value := r.Value
		if value == "" {
			value = "(blank)"
		}
		if _, err := fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\n", truncate(value, 40), r.Count, r.Percent); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}
	return nil
}

// printReport prints the summary lines, the daily series and every ratio
// table.
func printReport(w io.Writer, rep *report.Report) error {
	for _, line := range rep.Daily.Summary.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)

	if len(rep.Daily.Series) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		if _, err := fmt.Fprintln(tw, "DATE\tVISITORS"); err != nil {
			return fmt.Errorf("writing table header: %w", err)
		}
		for _, d := range rep.Daily.Series {
			if _, err := fmt.Fprintf(tw, "%s\t%d\n", d.Date, d.Count); err != nil {
				return fmt.Errorf("writing table row: %w", err)
			}
		}
		if err := tw.Flush(); err != nil {
			return fmt.Errorf("flushing table: %w", err)
		}
		fmt.Fprintln(w)
	}

	tables := []struct {
		title string
		rows  []report.Ratio
	}{
		{"Purpose", rep.Purpose},
		{"Gender", rep.Gender},
		{"Age", rep.AgeGroup},
		{"Residence", rep.Residence},
		{"Visit type", rep.VisitType},
	}
	for _, t := range tables {
		if err := printRatioTable(w, t.title, t.rows); err != nil {
			return err
		}
	}
	return nil
}

// printRecordTable prints records as a formatted table.
func printRecordTable(w io.Writer, records []*visit.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ID\tDATE\tGENDER\tAGE\tRESIDENCE\tPURPOSE\tVISIT"); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.VisitDate, r.Gender, r.AgeGroup, r.Residence, truncate(r.Purpose, 40), r.VisitType); err != nil {
			return fmt.Errorf("writing table row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing table: %w", err)
	}

	_, err := fmt.Fprintf(w, "\nTotal: %d records\n", len(records))
	return err
}

// printEditForm prints a single record in text format.
func printEditForm(w io.Writer, f *kiosk.EditForm) {
	fmt.Fprintf(w, "Record #%d\n", f.ID)
	fmt.Fprintf(w, "  Date:       %s\n", f.VisitDate)
	fmt.Fprintf(w, "  Gender:     %s\n", f.Gender)
	fmt.Fprintf(w, "  Age:        %s\n", f.AgeGroup)
	fmt.Fprintf(w, "  Residence:  %s\n", f.Residence)
	fmt.Fprintf(w, "  Purpose:    %s\n", strings.Join(f.Purposes, ", "))
	if f.OtherText != "" {
		fmt.Fprintf(w, "  Other:      %s\n", f.OtherText)
	}
	fmt.Fprintf(w, "  Visit type: %s\n", f.VisitType)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
