// Package event defines the vendor-neutral event model produced by data
// fetchers once a document has passed its filters.
package event

import (
	"encoding/json"
	"time"
)

// Kind identifies the source record type of an event.
type Kind string

const (
	KindPullRequest Kind = "pull_request"
	KindPRComment   Kind = "pr_comment"
	KindPREvent     Kind = "pr_event"
)

// Event is one matched record. RawData carries the source document as
// fetched, for callers that need fields beyond the common ones.
type Event struct {
	Kind          Kind            `json:"kind"`
	ID            string          `json:"id"`
	ParentEventID string          `json:"parent_event_id,omitempty"`
	Name          string          `json:"name"`
	Link          string          `json:"link,omitempty"`
	Date          *time.Time      `json:"date,omitempty"`
	Priority      int             `json:"priority"`
	RawData       json.RawMessage `json:"raw_data,omitempty"`
}
