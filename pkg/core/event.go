// Package core defines the shared domain types for EventQL:
// buckets and the timestamped events they contain.
package core

import (
	"encoding/json"
	"time"
)

// Event is a single timestamped entry in a bucket. Duration is the length
// of the period the event covers; Data carries arbitrary key-value payload.
type Event struct {
	ID        int64          `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"-"`
	Data      map[string]any `json:"data"`
}

// End returns the end of the event's period.
func (e Event) End() time.Time {
	return e.Timestamp.Add(e.Duration)
}

// eventJSON is the wire representation; duration travels as seconds.
type eventJSON struct {
	ID        int64          `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  float64        `json:"duration"`
	Data      map[string]any `json:"data"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Duration:  e.Duration.Seconds(),
		Data:      e.Data,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.ID = w.ID
	e.Timestamp = w.Timestamp
	e.Duration = time.Duration(w.Duration * float64(time.Second))
	e.Data = w.Data
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	return nil
}

// Bucket groups events produced by one client on one host.
type Bucket struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Client   string    `json:"client"`
	Hostname string    `json:"hostname"`
	Name     string    `json:"name,omitempty"`
	Created  time.Time `json:"created"`
}
