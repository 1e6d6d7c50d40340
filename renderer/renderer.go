// Copyright (c) 2025 Michael D Henderson. All rights reserved.

// Package renderer writes recorded runs as text tables.
package renderer

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mdhender/forester/model"
)

type Renderer struct {
	style  table.Style
	border bool
	now    func() time.Time
}

func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		style: table.StyleLight,
		now:   time.Now,
	}
	for _, option := range options {
		err := option(r)
		if err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Renderer) newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(r.style)
	tbl.Style().Options.DrawBorder = r.border
	tbl.Style().Options.SeparateRows = r.border
	tbl.Style().Options.SeparateColumns = r.border
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

// Runs writes one row per run, newest first as given.
func (r *Renderer) Runs(w io.Writer, runs []*model.Run) error {
	tbl := r.newTable()
	tbl.AppendHeader(table.Row{"Run", "Started", "Root", "Grammar", "Files", "Unambiguous", "Ambiguous", "Partial", "Failed", "Elapsed", "Status"})
	now := r.now()
	for _, run := range runs {
		elapsed, status := "", "ok"
		if run.ErrorCode != "" {
			status = run.ErrorCode
		} else if run.FinishedAt.IsZero() {
			status = "running"
		}
		if !run.FinishedAt.IsZero() {
			elapsed = run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
		}
		tbl.AppendRow(table.Row{
			run.ID,
			humanize.RelTime(run.StartedAt, now, "ago", "from now"),
			run.Root,
			run.Grammar,
			humanize.Comma(int64(run.Total)),
			percent(run.Unambiguous, run.Total),
			percent(run.Ambiguous, run.Total),
			percent(run.Partial, run.Total),
			percent(run.Failed, run.Total),
			elapsed,
			status,
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d runs", len(runs))})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

// Results writes the file results of one run.
func (r *Renderer) Results(w io.Writer, results []*model.FileResult) error {
	tbl := r.newTable()
	tbl.AppendHeader(table.Row{"Path", "Category", "Bytes", "Tokens", "Elapsed"})
	var bytes uint64
	for _, fr := range results {
		bytes += uint64(fr.Bytes)
		tbl.AppendRow(table.Row{
			fr.Path,
			fr.Category,
			humanize.Bytes(uint64(fr.Bytes)),
			humanize.Comma(int64(fr.Tokens)),
			fr.Elapsed.Round(time.Microsecond).String(),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d files", len(results)), "", humanize.Bytes(bytes)})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

// Changes writes the files whose category differs between two runs.
func (r *Renderer) Changes(w io.Writer, changes []*model.Change) error {
	if len(changes) == 0 {
		_, err := fmt.Fprintln(w, "no changes")
		return err
	}
	tbl := r.newTable()
	tbl.AppendHeader(table.Row{"Path", "From", "To", "Modified"})
	for _, c := range changes {
		modified := ""
		if c.Modified {
			modified = "yes"
		}
		tbl.AppendRow(table.Row{c.Path, orDash(c.From), orDash(c.To), modified})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d changed", len(changes))})
	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}

func percent(n, total int) string {
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d (%.1f%%)", n, 100*float64(n)/float64(total))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
