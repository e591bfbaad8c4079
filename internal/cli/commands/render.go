package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/eventlight-labs/eventql/internal/state"
	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/query"
)

// renderValue renders a query result. Event slices get a table in table
// mode; everything else is rendered as JSON.
func renderValue(w io.Writer, v query.Value, format string) error {
	if format == "table" {
		if host, ok := v.(query.Host); ok {
			if events, ok := host.V.([]core.Event); ok {
				return renderEvents(w, events)
			}
		}
	}
	return renderJSON(w, v.Native())
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderEvents(w io.Writer, events []core.Event) error {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "(0 events)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Timestamp", "Duration", "Data"})

	for _, e := range events {
		data, err := json.Marshal(e.Data)
		if err != nil {
			return err
		}
		t.AppendRow(table.Row{
			e.Timestamp.Format(time.RFC3339),
			e.Duration.Round(time.Millisecond),
			string(data),
		})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d events)\n", len(events))
	return nil
}

func renderBuckets(w io.Writer, buckets []core.Bucket, format string) error {
	if format == "json" {
		return renderJSON(w, buckets)
	}
	if len(buckets) == 0 {
		_, _ = fmt.Fprintln(w, "(0 buckets)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Type", "Client", "Hostname", "Created"})
	for _, b := range buckets {
		t.AppendRow(table.Row{b.ID, b.Type, b.Client, b.Hostname, b.Created.Format(time.RFC3339)})
	}
	t.Render()
	return nil
}

func renderRuns(w io.Writer, runs []*state.Run, format string) error {
	if format == "json" {
		return renderJSON(w, runs)
	}
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "(0 runs)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Status", "Started", "Duration", "Error"})
	for _, r := range runs {
		duration := ""
		if r.CompletedAt != nil {
			duration = r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{r.ID[:8], r.Name, r.Status, r.StartedAt.Format(time.RFC3339), duration, r.Error})
	}
	t.Render()
	return nil
}
