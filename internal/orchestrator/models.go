package orchestrator

import (
	"time"

	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/timeline"
)

// Scope names a registry instance.
type Scope string

const (
	ScopeDraft   Scope = "draft"
	ScopeSegment Scope = "segment"
)

// KindDraft is the object kind of every draft-scope entry.
const KindDraft = "draft"

// Mode selects how operations reach a segment.
type Mode string

const (
	// ModeImmediate applies each operation as it is submitted.
	ModeImmediate Mode = "immediate"
	// ModeDeferred journals operations and replays them when the segment is
	// attached to a draft.
	ModeDeferred Mode = "deferred"
)

// ParseMode validates a mode name. The empty string is immediate.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case "", ModeImmediate:
		return ModeImmediate, true
	case ModeDeferred:
		return ModeDeferred, true
	}
	return "", false
}

// Object is a value held by a Registry.
type Object interface {
	ObjectKind() string
}

// SegmentEntry is a built segment that has not been attached to a draft yet.
type SegmentEntry struct {
	ID        string
	Kind      string // kind requested at creation, e.g. "image"
	Segment   timeline.Segment
	Journal   segment.Journal
	CreatedAt time.Time
}

// ObjectKind is the runtime kind of the segment.
func (e *SegmentEntry) ObjectKind() string { return string(e.Segment.Kind()) }

// DraftEntry is a draft project.
type DraftEntry struct {
	ID        string
	Script    *timeline.Script
	CreatedAt time.Time
}

// ObjectKind implements Object.
func (e *DraftEntry) ObjectKind() string { return KindDraft }
