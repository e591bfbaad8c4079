package query

import (
	"context"
	"time"

	"github.com/araddon/dateparse"

	"github.com/eventlight-labs/eventql/pkg/core"
	"github.com/eventlight-labs/eventql/pkg/datastore"
	"github.com/eventlight-labs/eventql/pkg/transform"
)

// StdRegistry returns a registry populated with the standard query
// function library: datastore access, event filtering, merging, sorting
// and splitting.
func StdRegistry() *Registry {
	r := NewRegistry()
	r.Register("nop", stdNop)
	r.Register("query_bucket", stdQueryBucket)
	r.Register("query_bucket_period", stdQueryBucketPeriod)
	r.Register("query_bucket_eventcount", stdQueryBucketEventcount)
	r.Register("filter_keyvals", stdFilterKeyvals)
	r.Register("exclude_keyvals", stdExcludeKeyvals)
	r.Register("filter_period_intersect", stdFilterPeriodIntersect)
	r.Register("limit_events", stdLimitEvents)
	r.Register("merge_events_by_keys", stdMergeEventsByKeys)
	r.Register("sort_by_timestamp", stdSortByTimestamp)
	r.Register("sort_by_duration", stdSortByDuration)
	r.Register("split_url_events", stdSplitURLEvents)
	return r
}

// nop() ignores the datastore and returns 1. Useful for testing.
func stdNop(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 0 {
		return nil, &ArityError{Func: "nop", Want: "no", Got: len(args)}
	}
	return Int(1), nil
}

// query_bucket(bucketname) fetches events within the run's
// STARTTIME/ENDTIME window.
func stdQueryBucket(ctx context.Context, ds datastore.Datastore, ns Namespace, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, &ArityError{Func: "query_bucket", Want: "exactly 1", Got: len(args)}
	}
	bucket, err := argString("query_bucket", args, 0)
	if err != nil {
		return nil, err
	}
	start, end, err := windowFromNamespace(ns)
	if err != nil {
		return nil, err
	}
	return fetchEvents(ctx, ds, bucket, start, end)
}

// query_bucket_period(bucketname, starttime, endtime) fetches events within
// an explicit window instead of the run's STARTTIME/ENDTIME.
func stdQueryBucketPeriod(ctx context.Context, ds datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 3 {
		return nil, &ArityError{Func: "query_bucket_period", Want: "exactly 3", Got: len(args)}
	}
	bucket, err := argString("query_bucket_period", args, 0)
	if err != nil {
		return nil, err
	}
	startStr, err := argString("query_bucket_period", args, 1)
	if err != nil {
		return nil, err
	}
	endStr, err := argString("query_bucket_period", args, 2)
	if err != nil {
		return nil, err
	}
	start, err := dateparse.ParseAny(startStr)
	if err != nil {
		return nil, errorf("unable to parse starttime %q", startStr)
	}
	end, err := dateparse.ParseAny(endStr)
	if err != nil {
		return nil, errorf("unable to parse endtime %q", endStr)
	}
	return fetchEvents(ctx, ds, bucket, start, end)
}

// query_bucket_eventcount(bucketname) counts events within the run's
// window.
func stdQueryBucketEventcount(ctx context.Context, ds datastore.Datastore, ns Namespace, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, &ArityError{Func: "query_bucket_eventcount", Want: "exactly 1", Got: len(args)}
	}
	bucket, err := argString("query_bucket_eventcount", args, 0)
	if err != nil {
		return nil, err
	}
	start, end, err := windowFromNamespace(ns)
	if err != nil {
		return nil, err
	}
	if err := verifyBucket(ctx, ds, bucket); err != nil {
		return nil, err
	}
	count, err := ds.EventCount(ctx, bucket, start, end)
	if err != nil {
		return nil, err
	}
	return Int(count), nil
}

// filter_keyvals(events, key, val...) keeps events whose Data[key] matches
// any val.
func stdFilterKeyvals(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	return filterKeyvals("filter_keyvals", args, false)
}

// exclude_keyvals(events, key, val...) drops events whose Data[key] matches
// any val.
func stdExcludeKeyvals(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	return filterKeyvals("exclude_keyvals", args, true)
}

func filterKeyvals(fn string, args []Value, exclude bool) (Value, error) {
	if len(args) < 3 {
		return nil, &ArityError{Func: fn, Want: "at least 3", Got: len(args)}
	}
	events, err := argEvents(fn, args, 0)
	if err != nil {
		return nil, err
	}
	key, err := argString(fn, args, 1)
	if err != nil {
		return nil, err
	}
	vals := make([]string, 0, len(args)-2)
	for i := 2; i < len(args); i++ {
		v, err := argString(fn, args, i)
		if err != nil {
			return nil, err
		}
		vals = append(vals, v)
	}
	return Host{V: transform.FilterKeyvals(events, key, vals, exclude)}, nil
}

// filter_period_intersect(events, filterevents) clamps events to the
// periods covered by filterevents.
func stdFilterPeriodIntersect(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, &ArityError{Func: "filter_period_intersect", Want: "exactly 2", Got: len(args)}
	}
	events, err := argEvents("filter_period_intersect", args, 0)
	if err != nil {
		return nil, err
	}
	filterEvents, err := argEvents("filter_period_intersect", args, 1)
	if err != nil {
		return nil, err
	}
	return Host{V: transform.FilterPeriodIntersect(events, filterEvents)}, nil
}

// limit_events(events, count) truncates the event list.
func stdLimitEvents(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, &ArityError{Func: "limit_events", Want: "exactly 2", Got: len(args)}
	}
	events, err := argEvents("limit_events", args, 0)
	if err != nil {
		return nil, err
	}
	count, err := argInt("limit_events", args, 1)
	if err != nil {
		return nil, err
	}
	return Host{V: transform.LimitEvents(events, int(count))}, nil
}

// merge_events_by_keys(events, key...) merges events sharing Data values
// for all keys.
func stdMergeEventsByKeys(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) < 2 {
		return nil, &ArityError{Func: "merge_events_by_keys", Want: "at least 2", Got: len(args)}
	}
	events, err := argEvents("merge_events_by_keys", args, 0)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		k, err := argString("merge_events_by_keys", args, i)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return Host{V: transform.MergeEventsByKeys(events, keys)}, nil
}

// sort_by_timestamp(events) sorts ascending by timestamp.
func stdSortByTimestamp(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, &ArityError{Func: "sort_by_timestamp", Want: "exactly 1", Got: len(args)}
	}
	events, err := argEvents("sort_by_timestamp", args, 0)
	if err != nil {
		return nil, err
	}
	return Host{V: transform.SortByTimestamp(events)}, nil
}

// sort_by_duration(events) sorts descending by duration.
func stdSortByDuration(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, &ArityError{Func: "sort_by_duration", Want: "exactly 1", Got: len(args)}
	}
	events, err := argEvents("sort_by_duration", args, 0)
	if err != nil {
		return nil, err
	}
	return Host{V: transform.SortByDuration(events)}, nil
}

// split_url_events(events) derives protocol/domain/path/params entries from
// each event's url.
func stdSplitURLEvents(_ context.Context, _ datastore.Datastore, _ Namespace, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, &ArityError{Func: "split_url_events", Want: "exactly 1", Got: len(args)}
	}
	events, err := argEvents("split_url_events", args, 0)
	if err != nil {
		return nil, err
	}
	return Host{V: transform.SplitURLEvents(events)}, nil
}

// ---------- helpers ----------

func fetchEvents(ctx context.Context, ds datastore.Datastore, bucket string, start, end time.Time) (Value, error) {
	if err := verifyBucket(ctx, ds, bucket); err != nil {
		return nil, err
	}
	events, err := ds.GetEvents(ctx, bucket, start, end, 0)
	if err != nil {
		return nil, err
	}
	return Host{V: events}, nil
}

func verifyBucket(ctx context.Context, ds datastore.Datastore, bucket string) error {
	if ds == nil {
		return errorf("no datastore to query")
	}
	if _, err := ds.GetBucket(ctx, bucket); err != nil {
		return errorf("there's no bucket named %q", bucket)
	}
	return nil
}

// windowFromNamespace reads the run's time window from the STARTTIME and
// ENDTIME bindings. The bindings hold text so scripts may overwrite them.
func windowFromNamespace(ns Namespace) (time.Time, time.Time, error) {
	startStr, ok := ns["STARTTIME"].(Str)
	if !ok {
		return time.Time{}, time.Time{}, errorf("STARTTIME is not bound to a string")
	}
	endStr, ok := ns["ENDTIME"].(Str)
	if !ok {
		return time.Time{}, time.Time{}, errorf("ENDTIME is not bound to a string")
	}
	start, err := dateparse.ParseAny(string(startStr))
	if err != nil {
		return time.Time{}, time.Time{}, errorf("unable to parse STARTTIME %q", string(startStr))
	}
	end, err := dateparse.ParseAny(string(endStr))
	if err != nil {
		return time.Time{}, time.Time{}, errorf("unable to parse ENDTIME %q", string(endStr))
	}
	return start, end, nil
}

// argString returns args[i] as a string, or an ArityError if the argument
// has the wrong kind. Kind mismatches count as invalid arguments, same as a
// wrong argument count.
func argString(fn string, args []Value, i int) (string, error) {
	s, ok := args[i].(Str)
	if !ok {
		return "", &ArityError{Func: fn, Want: "string", Got: len(args)}
	}
	return string(s), nil
}

func argInt(fn string, args []Value, i int) (int64, error) {
	n, ok := args[i].(Int)
	if !ok {
		return 0, &ArityError{Func: fn, Want: "integer", Got: len(args)}
	}
	return int64(n), nil
}

func argEvents(fn string, args []Value, i int) ([]core.Event, error) {
	h, ok := args[i].(Host)
	if !ok {
		return nil, &ArityError{Func: fn, Want: "events", Got: len(args)}
	}
	events, ok := h.V.([]core.Event)
	if !ok {
		return nil, &ArityError{Func: fn, Want: "events", Got: len(args)}
	}
	return events, nil
}
