package segment

import (
	"time"

	"github.com/google/uuid"
)

// OperationRecord is one submitted operation.
type OperationRecord struct {
	ID        string         `json:"operation_id"`
	Kind      string         `json:"operation_type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
	Applied   bool           `json:"applied"`
}

// NewRecord stamps an operation with a fresh id and the current time.
func NewRecord(kind string, data map[string]any) OperationRecord {
	return OperationRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// Journal is the ordered, append-only operation history of one segment.
// It is not safe for concurrent use; the registry entry that owns it
// serialises access.
type Journal struct {
	records []OperationRecord
}

// Append adds r at the end.
func (j *Journal) Append(r OperationRecord) {
	j.records = append(j.records, r)
}

// Len returns the number of records.
func (j *Journal) Len() int { return len(j.records) }

// Records returns a copy of all records in submission order.
func (j *Journal) Records() []OperationRecord {
	out := make([]OperationRecord, len(j.records))
	copy(out, j.records)
	return out
}

// Pending returns the records not yet applied, in submission order.
func (j *Journal) Pending() []OperationRecord {
	var out []OperationRecord
	for _, r := range j.records {
		if !r.Applied {
			out = append(out, r)
		}
	}
	return out
}

// MarkApplied flags the records with the given ids as applied.
func (j *Journal) MarkApplied(ids ...string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range j.records {
		if _, ok := set[j.records[i].ID]; ok {
			j.records[i].Applied = true
		}
	}
}
