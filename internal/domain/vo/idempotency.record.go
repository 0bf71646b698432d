package vo

import "time"

// RecordView is the API shape of a stored record. Status is one of
// "none", "in_progress" or "completed".
type RecordView struct {
	Status   string `json:"status"`
	Response string `json:"response"`
}

type ClaimResult struct {
	Created bool       `json:"created"`
	Record  RecordView `json:"record"`
}

// CompleteRecord finalizes a claimed key. A zero TTL keeps the store default.
type CompleteRecord struct {
	Status   string
	Response string
	TTL      time.Duration
}
