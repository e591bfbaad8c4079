// Package transform provides pure functions over event slices: filtering,
// merging, sorting and splitting. These back the standard query function
// library and never touch the datastore.
package transform

import (
	"net/url"
	"sort"
	"time"

	"github.com/eventlight-labs/eventql/pkg/core"
)

// FilterKeyvals keeps events whose Data[key] equals any of vals. With
// exclude set the selection is inverted: matching events are dropped.
func FilterKeyvals(events []core.Event, key string, vals []string, exclude bool) []core.Event {
	out := make([]core.Event, 0, len(events))
	for _, e := range events {
		match := false
		if v, ok := e.Data[key]; ok {
			if s, ok := v.(string); ok {
				for _, want := range vals {
					if s == want {
						match = true
						break
					}
				}
			}
		}
		if match != exclude {
			out = append(out, e)
		}
	}
	return out
}

// FilterPeriodIntersect keeps the portions of events that intersect any
// filter event's period. An event overlapping a filter event is clamped to
// the overlap; an event overlapping several filter events yields one
// clamped event per overlap. The result is ordered by timestamp.
func FilterPeriodIntersect(events, filterEvents []core.Event) []core.Event {
	var out []core.Event
	for _, e := range events {
		for _, f := range filterEvents {
			start := laterOf(e.Timestamp, f.Timestamp)
			end := earlierOf(e.End(), f.End())
			if end.After(start) {
				clamped := e
				clamped.Timestamp = start
				clamped.Duration = end.Sub(start)
				out = append(out, clamped)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// LimitEvents returns at most n events from the front of the slice.
func LimitEvents(events []core.Event, n int) []core.Event {
	if n < 0 {
		n = 0
	}
	if n > len(events) {
		n = len(events)
	}
	return events[:n]
}

// MergeEventsByKeys merges events that share the same Data values for all
// of keys. A merged event keeps the earliest timestamp, sums durations, and
// carries only the grouped keys in its Data. Groups appear in first-seen
// order.
func MergeEventsByKeys(events []core.Event, keys []string) []core.Event {
	if len(keys) == 0 {
		return events
	}

	type group struct {
		index int
		event core.Event
	}
	groups := make(map[string]*group)
	var order []string

	for _, e := range events {
		groupKey := ""
		data := make(map[string]any, len(keys))
		for _, k := range keys {
			if v, ok := e.Data[k]; ok {
				if s, ok := v.(string); ok {
					groupKey += k + "=" + s + "\x00"
					data[k] = s
				}
			}
		}
		g, ok := groups[groupKey]
		if !ok {
			groups[groupKey] = &group{
				index: len(order),
				event: core.Event{Timestamp: e.Timestamp, Duration: e.Duration, Data: data},
			}
			order = append(order, groupKey)
			continue
		}
		if e.Timestamp.Before(g.event.Timestamp) {
			g.event.Timestamp = e.Timestamp
		}
		g.event.Duration += e.Duration
	}

	out := make([]core.Event, 0, len(order))
	for _, k := range order {
		out = append(out, groups[k].event)
	}
	return out
}

// SortByTimestamp sorts events by ascending timestamp.
func SortByTimestamp(events []core.Event) []core.Event {
	out := append([]core.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// SortByDuration sorts events by descending duration.
func SortByDuration(events []core.Event) []core.Event {
	out := append([]core.Event(nil), events...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}

// SplitURLEvents parses each event's "url" Data entry and adds "protocol",
// "domain", "path" and "params" entries. Events without a url, or with one
// that does not parse, pass through unchanged.
func SplitURLEvents(events []core.Event) []core.Event {
	out := make([]core.Event, 0, len(events))
	for _, e := range events {
		raw, ok := e.Data["url"].(string)
		if !ok {
			out = append(out, e)
			continue
		}
		u, err := url.Parse(raw)
		if err != nil {
			out = append(out, e)
			continue
		}
		data := make(map[string]any, len(e.Data)+4)
		for k, v := range e.Data {
			data[k] = v
		}
		data["protocol"] = u.Scheme
		data["domain"] = u.Hostname()
		data["path"] = u.Path
		data["params"] = u.RawQuery
		e.Data = data
		out = append(out, e)
	}
	return out
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
