package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-chi/chi/v5"

	"github.com/eventlight-labs/eventql/internal/engine"
	"github.com/eventlight-labs/eventql/pkg/core"
)

type queryRequest struct {
	Name        string   `json:"name"`
	Timeperiods []string `json:"timeperiods"`
	Query       []string `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if len(req.Timeperiods) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("no timeperiods given"))
		return
	}

	periods := make([]engine.Period, 0, len(req.Timeperiods))
	for _, tp := range req.Timeperiods {
		p, err := parsePeriod(tp)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		periods = append(periods, p)
	}

	script := strings.Join(req.Query, "\n")
	results, err := s.engine.RunPeriods(r.Context(), req.Name, script, periods)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	out := make([]any, len(results))
	for i, res := range results {
		out[i] = res.Value.Native()
	}
	writeJSON(w, http.StatusOK, out)
}

// parsePeriod parses a "start/end" timeperiod string.
func parsePeriod(tp string) (engine.Period, error) {
	startStr, endStr, ok := strings.Cut(tp, "/")
	if !ok {
		return engine.Period{}, fmt.Errorf("invalid timeperiod %q, expected start/end", tp)
	}
	start, err := dateparse.ParseAny(startStr)
	if err != nil {
		return engine.Period{}, fmt.Errorf("invalid timeperiod start %q: %w", startStr, err)
	}
	end, err := dateparse.ParseAny(endStr)
	if err != nil {
		return engine.Period{}, fmt.Errorf("invalid timeperiod end %q: %w", endStr, err)
	}
	return engine.Period{Start: start, End: end}, nil
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.ds.Buckets(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

func (s *Server) handleGetBucket(w http.ResponseWriter, r *http.Request) {
	bucket, err := s.ds.GetBucket(r.Context(), chi.URLParam(r, "bucketID"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var bucket core.Bucket
	if err := json.NewDecoder(r.Body).Decode(&bucket); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	bucket.ID = chi.URLParam(r, "bucketID")
	if bucket.Created.IsZero() {
		bucket.Created = time.Now().UTC()
	}
	if err := s.ds.CreateBucket(r.Context(), bucket); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, bucket)
}

func (s *Server) handleDeleteBucket(w http.ResponseWriter, r *http.Request) {
	if err := s.ds.DeleteBucket(r.Context(), chi.URLParam(r, "bucketID")); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	bucketID := chi.URLParam(r, "bucketID")

	start := time.Time{}
	end := time.Now().UTC().Add(24 * time.Hour)
	limit := 0

	q := r.URL.Query()
	if v := q.Get("start"); v != "" {
		t, err := dateparse.ParseAny(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid start %q: %w", v, err))
			return
		}
		start = t
	}
	if v := q.Get("end"); v != "" {
		t, err := dateparse.ParseAny(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid end %q: %w", v, err))
			return
		}
		end = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	events, err := s.ds.GetEvents(r.Context(), bucketID, start, end, limit)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if events == nil {
		events = []core.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// handleInsertEvents accepts either a single event object or an array
// of events.
func (s *Server) handleInsertEvents(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	var events []core.Event
	if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if err := json.Unmarshal(raw, &events); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid events: %w", err))
			return
		}
	} else {
		var e core.Event
		if err := json.Unmarshal(raw, &e); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid event: %w", err))
			return
		}
		events = []core.Event{e}
	}

	bucketID := chi.URLParam(r, "bucketID")
	if err := s.ds.InsertEvents(r.Context(), bucketID, events); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
