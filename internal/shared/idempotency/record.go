package idempotency

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// KeyDelimiter separates the application id from the caller key in a composite key.
const KeyDelimiter = ":"

// Status is the lifecycle state of an idempotency record.
// The numeric values are part of the stored wire format.
type Status int

const (
	// StatusNone means no record exists. It is never persisted.
	StatusNone Status = 0

	// StatusInProgress means the record was claimed and the protected operation is running.
	StatusInProgress Status = 1

	// StatusCompleted means the protected operation finished and Response holds its outcome.
	StatusCompleted Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Valid reports whether s is one of the known status codes.
func (s Status) Valid() bool {
	return s == StatusNone || s == StatusInProgress || s == StatusCompleted
}

// ParseStatus converts the textual form produced by String back into a Status.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "none":
		return StatusNone, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusNone, fmt.Errorf("idempotency: unknown status %q", value)
	}
}

// Record is the state stored per composite key.
// Values returned by a Store are snapshots; re-query to observe later changes.
type Record struct {
	Status   Status `json:"status"`
	Response string `json:"response"`
}

// NewInProgress returns the record written by a successful claim.
func NewInProgress() Record {
	return Record{Status: StatusInProgress}
}

// NewCompleted returns a finalized record carrying response.
func NewCompleted(response string) Record {
	return Record{Status: StatusCompleted, Response: response}
}

// Terminal reports whether the record must not be claimed again within its TTL.
func (r Record) Terminal() bool {
	return r.Status == StatusCompleted
}

// CombineKey builds the composite storage key for key scoped by appID.
// Every adapter and caller must use it; app ids containing KeyDelimiter
// can collide with other (appID, key) pairs.
func CombineKey(key, appID string) string {
	return appID + KeyDelimiter + key
}

// EncodeRecord serializes r into the opaque blob stored by backends without native columns.
func EncodeRecord(r Record) ([]byte, error) {
	if !r.Status.Valid() {
		return nil, fmt.Errorf("idempotency: cannot encode record with %s", r.Status)
	}

	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("idempotency: failed to encode record: %w", err)
	}

	return payload, nil
}

// DecodeRecord parses a blob produced by EncodeRecord. Unknown fields and
// unknown status codes are rejected instead of being coerced to a default.
func DecodeRecord(payload []byte) (Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()

	var wire struct {
		Status   *Status `json:"status"`
		Response *string `json:"response"`
	}
	if err := decoder.Decode(&wire); err != nil {
		return Record{}, fmt.Errorf("idempotency: failed to decode record: %w", err)
	}
	if decoder.More() {
		return Record{}, fmt.Errorf("idempotency: trailing data after stored record")
	}

	if wire.Status == nil || wire.Response == nil {
		return Record{}, fmt.Errorf("idempotency: stored record is missing status or response")
	}

	if !wire.Status.Valid() {
		return Record{}, fmt.Errorf("idempotency: stored record has unknown %s", *wire.Status)
	}

	return Record{Status: *wire.Status, Response: *wire.Response}, nil
}
