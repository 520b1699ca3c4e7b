//
// Copyright (c) 2024-2025 DORAM Authors
//
// All rights reserved.
//

// Package stats renders per-phase timing reports for a single online
// operation, in the style of the upstream circuit evaluation profiler.
package stats

import (
	"fmt"
	"os"
	"time"

	"github.com/markkurossi/tabulate"

	"github.com/oblivious-ram/duoram/wire"
)

// sample is one named phase completed since the previous mark.
type sample struct {
	label string
	start time.Time
	end   time.Time
}

// Report accumulates named phase samples across one online operation
// and renders them as a table of durations and shares of the total.
type Report struct {
	start   time.Time
	samples []sample
}

// New starts a report, timestamped at creation.
func New() *Report {
	return &Report{start: time.Now()}
}

// Mark records that the named phase just completed, running from the
// previous mark (or Report creation, for the first phase) until now.
func (r *Report) Mark(label string) {
	start := r.start
	if len(r.samples) > 0 {
		start = r.samples[len(r.samples)-1].end
	}
	r.samples = append(r.samples, sample{label: label, start: start, end: time.Now()})
}

// Print renders the phase-by-phase breakdown, including the session's
// wire I/O totals, to standard output.
func (r *Report) Print(stats wire.IOStats) {
	if len(r.samples) == 0 {
		return
	}

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Phase").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)

	total := r.samples[len(r.samples)-1].end.Sub(r.start)
	for _, s := range r.samples {
		row := tab.Row()
		row.Column(s.label)
		d := s.end.Sub(s.start)
		row.Column(d.String())
		row.Column(fmt.Sprintf("%.2f%%", float64(d)/float64(total)*100))
	}

	row := tab.Row()
	row.Column("Total").SetFormat(tabulate.FmtBold)
	row.Column(total.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)

	row = tab.Row()
	row.Column("Sent").SetFormat(tabulate.FmtItalic)
	row.Column(fmt.Sprintf("%d B", stats.Sent.Load())).SetFormat(tabulate.FmtItalic)
	row.Column("")

	row = tab.Row()
	row.Column("Rcvd").SetFormat(tabulate.FmtItalic)
	row.Column(fmt.Sprintf("%d B", stats.Recvd.Load())).SetFormat(tabulate.FmtItalic)
	row.Column("")

	tab.Print(os.Stdout)
}
