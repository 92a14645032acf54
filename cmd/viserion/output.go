package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/jrsteele09/viserion/popup"
	"github.com/jrsteele09/viserion/providers"
	"github.com/jrsteele09/viserion/resources"
	"github.com/jrsteele09/viserion/syncer"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

func header(cols ...string) table.Row {
	row := make(table.Row, 0, len(cols))
	for _, c := range cols {
		row = append(row, text.FgHiCyan.Sprint(c))
	}
	return row
}

func renderResources(out io.Writer, p providers.Provider, kind providers.EntityKind, items []resources.Resource) {
	if len(items) == 0 {
		fmt.Fprintf(out, "%s\n", text.FgYellow.Sprintf("No %s %s cached", p, kind))
		return
	}

	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%s %s", p, kind))
	t.AppendHeader(header("ID", "NAME"))
	for _, item := range items {
		t.AppendRow(table.Row{string(item.ID), item.DisplayName()})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d total", len(items))})
	t.Render()
}

func renderReports(out io.Writer, reports []*syncer.Report) {
	t := newTable(out)
	t.AppendHeader(header("PROVIDER", "RESULT", "COLLECTIONS", "TOOK"))
	for _, r := range reports {
		t.AppendRow(table.Row{string(r.Provider), reportResult(r), outcomeSummary(r), r.Duration().Round(time.Millisecond)})
	}
	t.Render()
}

func reportResult(r *syncer.Report) string {
	switch {
	case r.Skipped:
		return text.FgYellow.Sprint("not logged in")
	case r.Err != nil:
		return text.FgRed.Sprint(r.Err.Error())
	case r.OK():
		return text.FgGreen.Sprint("ok")
	default:
		return text.FgRed.Sprintf("%d failed", len(r.Failed()))
	}
}

func outcomeSummary(r *syncer.Report) string {
	parts := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Persisted {
			parts = append(parts, fmt.Sprintf("%s=%d", o.Kind, o.Count))
		} else {
			parts = append(parts, fmt.Sprintf("%s=failed", o.Kind))
		}
	}
	return strings.Join(parts, " ")
}

func renderStatus(out io.Writer, status []popup.ProviderStatus) {
	t := newTable(out)
	t.AppendHeader(header("PROVIDER", "LOGGED IN", "COLLECTION", "COUNT", "UPDATED"))
	for _, ps := range status {
		loggedIn := text.FgYellow.Sprint("no")
		if ps.LoggedIn {
			loggedIn = text.FgGreen.Sprint("yes")
		}
		for _, e := range ps.Entities {
			updated := "-"
			if e.UpdatedAt != nil {
				updated = e.UpdatedAt.Local().Format(time.DateTime)
			}
			t.AppendRow(table.Row{string(ps.Provider), loggedIn, e.Kind, e.Count, updated})
		}
		t.AppendSeparator()
	}
	t.Render()
}
