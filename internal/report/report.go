// Package report renders insertion records for the output layer in the
// three supported styles: a plain tab-delimited table, an
// alignment-annotated listing, and a per-segment interval format driven by
// each record's fragment provenance.
package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"genofab/internal/model"
)

type Style string

const (
	StyleTable     Style = "table"
	StyleAlignment Style = "alignment"
	StyleInterval  Style = "interval"
)

// Styles lists the accepted style names for flag help.
func Styles() []Style {
	return []Style{StyleTable, StyleAlignment, StyleInterval}
}

// Render writes records in the requested style.
func Render(w io.Writer, style Style, records []model.InsertionRecord) error {
	switch style {
	case StyleTable, "":
		return renderTable(w, records)
	case StyleAlignment:
		return renderAlignment(w, records)
	case StyleInterval:
		return renderInterval(w, records)
	default:
		return fmt.Errorf("unknown report style: %s", style)
	}
}

func renderTable(w io.Writer, records []model.InsertionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 8, 1, '\t', 0)
	fmt.Fprintln(tw, "serial\tstart\tend\tlabel\tdiv%\tins%\tdel%\tlength")
	for _, rec := range records {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%.1f\t%.1f\t%.1f\t%d\n",
			rec.Serial, rec.Start, rec.End, rec.Label,
			rec.DivergencePct, rec.InsertionPct, rec.DeletionPct,
			rec.End-rec.Start)
	}
	return tw.Flush()
}

func renderAlignment(w io.Writer, records []model.InsertionRecord) error {
	for _, rec := range records {
		if _, err := fmt.Fprintf(w, ">%d %s %d-%d div=%.1f ins=%.1f del=%.1f\n%s\n%s\n%s\n",
			rec.Serial, rec.Label, rec.Start, rec.End,
			rec.DivergencePct, rec.InsertionPct, rec.DeletionPct,
			rec.Alignment.Consensus, rec.Alignment.Match, rec.Alignment.Mutated); err != nil {
			return err
		}
	}
	return nil
}

// renderInterval decomposes each insertion into its fragment spans, in
// final-sequence coordinates.
func renderInterval(w io.Writer, records []model.InsertionRecord) error {
	for _, rec := range records {
		pos := rec.Start
		for _, frag := range rec.Fragments {
			if _, err := fmt.Fprintf(w, "%d\t%d\t%d\t%s\n",
				rec.Serial, pos, pos+frag.Length, frag.Label); err != nil {
				return err
			}
			pos += frag.Length
		}
	}
	return nil
}
