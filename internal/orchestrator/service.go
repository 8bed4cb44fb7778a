package orchestrator

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"draft-orchestrator/internal/segment"
	"draft-orchestrator/internal/timeline"
	"draft-orchestrator/internal/variant"

	"github.com/google/uuid"
)

// Service is the boundary of the engine: it builds segments, applies
// operations, and moves segments into drafts, keeping both kinds of object
// in their registries.
type Service struct {
	engine    *segment.Engine
	drafts    *Registry
	segments  *Registry
	resources ResourceResolver
	mode      Mode
	log       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithMode sets the apply mode. The default is ModeImmediate.
func WithMode(m Mode) Option {
	return func(s *Service) { s.mode = m }
}

// WithResources sets how media references become local materials. The
// default is a LocalResolver without a root.
func WithResources(r ResourceResolver) Option {
	return func(s *Service) { s.resources = r }
}

// NewService returns a Service over the given registries.
func NewService(engine *segment.Engine, drafts, segments *Registry, log *slog.Logger, opts ...Option) *Service {
	s := &Service{
		engine:    engine,
		drafts:    drafts,
		segments:  segments,
		resources: LocalResolver{},
		mode:      ModeImmediate,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode returns the apply mode.
func (s *Service) Mode() Mode { return s.mode }

// ResolveResource maps the media reference in cfg to a local material. It
// returns nil without error for kinds that take no resource.
func (s *Service) ResolveResource(kind string, cfg map[string]any) (*timeline.Material, error) {
	if !segment.IsMediaKind(kind) {
		return nil, nil
	}
	return s.resources.Resolve(kind, resourceRef(cfg))
}

// CreateSegment builds a segment and registers it. A failed build registers
// nothing.
func (s *Service) CreateSegment(kind string, cfg map[string]any, res *timeline.Material) (string, error) {
	seg, err := s.engine.Build(kind, cfg, res)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.segments.Put(id, &SegmentEntry{
		ID:        id,
		Kind:      kind,
		Segment:   seg,
		CreatedAt: time.Now().UTC(),
	})
	s.log.Debug("segment created",
		slog.String("segment_id", id),
		slog.String("kind", kind))
	return id, nil
}

// ApplyOperation submits one operation to a segment. In immediate mode it is
// applied at once and recorded as applied only if it succeeds. In deferred
// mode the kind is validated and the record is journaled for replay at
// attach time. kinds, when given, restricts the segment kinds accepted.
func (s *Service) ApplyOperation(segmentID, opKind string, data map[string]any, kinds ...string) (segment.OperationRecord, error) {
	rec := segment.NewRecord(opKind, data)
	err := s.segments.Update(segmentID, func(obj Object) error {
		if err := checkKind(segmentID, obj, kinds); err != nil {
			return err
		}
		entry, err := asSegment(segmentID, obj)
		if err != nil {
			return err
		}
		if s.mode == ModeDeferred {
			if err := segment.ValidateOperation(opKind); err != nil {
				return err
			}
			entry.Journal.Append(rec)
			return nil
		}
		if err := s.engine.Apply(entry.Segment, opKind, data); err != nil {
			return err
		}
		rec.Applied = true
		entry.Journal.Append(rec)
		return nil
	})
	if err != nil {
		return segment.OperationRecord{}, err
	}
	s.log.Debug("operation recorded",
		slog.String("segment_id", segmentID),
		slog.String("operation", opKind),
		slog.String("operation_id", rec.ID),
		slog.Bool("applied", rec.Applied))
	return rec, nil
}

// CreateDraft registers an empty draft.
func (s *Service) CreateDraft(name string, width, height, fps int) (string, error) {
	script, err := timeline.NewScript(name, width, height, fps)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.drafts.Put(id, &DraftEntry{ID: id, Script: script, CreatedAt: time.Now().UTC()})
	s.log.Debug("draft created", slog.String("draft_id", id), slog.String("name", name))
	return id, nil
}

// AddTrack appends a track to a draft and returns its name.
func (s *Service) AddTrack(draftID, trackType, name string) (string, error) {
	typ, ok := timeline.ParseKind(trackType)
	if !ok {
		return "", &segment.UnsupportedKindError{Category: "track", Kind: trackType}
	}
	var created string
	err := s.drafts.Update(draftID, func(obj Object) error {
		d, err := asDraft(draftID, obj)
		if err != nil {
			return err
		}
		t, err := d.Script.AddTrack(typ, name)
		if err != nil {
			return err
		}
		created = t.Name
		return nil
	})
	return created, err
}

// TrackSelector picks the track a segment is attached to. The zero value
// lets the draft choose the only track of the segment's kind.
type TrackSelector struct {
	Name  string `json:"track_name,omitempty"`
	Index *int   `json:"track_index,omitempty"`
}

// AttachResult describes a completed attach.
type AttachResult struct {
	Track  string         `json:"track"`
	Replay segment.Report `json:"replay"`
}

// AttachSegment moves a segment into a draft. Journaled operations are
// replayed first; a failing record is logged and skipped. On success the
// segment leaves the segment registry, so a second attach reports
// NotFoundError.
func (s *Service) AttachSegment(draftID, segmentID string, sel TrackSelector) (AttachResult, error) {
	var res AttachResult
	// Lock order: segment entry, then draft entry.
	err := s.segments.Update(segmentID, func(obj Object) error {
		entry, err := asSegment(segmentID, obj)
		if err != nil {
			return err
		}
		err = s.drafts.Update(draftID, func(obj Object) error {
			d, err := asDraft(draftID, obj)
			if err != nil {
				return err
			}
			trackName, err := sel.trackName(d.Script)
			if err != nil {
				return err
			}
			if pending := entry.Journal.Pending(); len(pending) > 0 {
				res.Replay = s.engine.ApplyAll(segmentID, entry.Segment, pending)
				entry.Journal.MarkApplied(res.Replay.Applied...)
			}
			t, err := d.Script.AddSegment(entry.Segment, trackName)
			if err != nil {
				return err
			}
			res.Track = t.Name
			return nil
		})
		if err != nil {
			return err
		}
		return s.segments.Remove(segmentID)
	})
	if err != nil {
		return AttachResult{}, err
	}
	s.log.Info("segment attached",
		slog.String("draft_id", draftID),
		slog.String("segment_id", segmentID),
		slog.String("track", res.Track),
		slog.Int("replay_failures", len(res.Replay.Failures)))
	return res, nil
}

func (sel TrackSelector) trackName(script *timeline.Script) (string, error) {
	if sel.Name != "" || sel.Index == nil {
		return sel.Name, nil
	}
	t, err := script.TrackAt(*sel.Index)
	if err != nil {
		return "", err
	}
	return t.Name, nil
}

// ResolveVariant resolves raw against a named catalog set.
func (s *Service) ResolveVariant(setName, raw, label string) (variant.Variant, error) {
	return s.engine.Library().Resolve(setName, raw, label)
}

// DeleteSegment drops an unattached segment.
func (s *Service) DeleteSegment(id string) error {
	return s.segments.Remove(id)
}

// DeleteDraft drops a draft from the registry.
func (s *Service) DeleteDraft(id string) error {
	return s.drafts.Remove(id)
}

// SegmentView is a point-in-time copy of a registered segment.
type SegmentView struct {
	ID         string                    `json:"segment_id"`
	Kind       string                    `json:"segment_type"`
	CreatedAt  time.Time                 `json:"created_at"`
	Segment    json.RawMessage           `json:"segment"`
	Operations []segment.OperationRecord `json:"operations"`
}

// GetSegment returns a snapshot of a segment and its journal.
func (s *Service) GetSegment(id string) (SegmentView, error) {
	var v SegmentView
	err := s.segments.View(id, func(obj Object) error {
		entry, err := asSegment(id, obj)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(entry.Segment)
		if err != nil {
			return fmt.Errorf("encode segment %s: %w", id, err)
		}
		v = SegmentView{
			ID:         id,
			Kind:       entry.Kind,
			CreatedAt:  entry.CreatedAt,
			Segment:    raw,
			Operations: entry.Journal.Records(),
		}
		return nil
	})
	return v, err
}

// Operations returns the journal of a segment in submission order.
func (s *Service) Operations(segmentID string) ([]segment.OperationRecord, error) {
	var out []segment.OperationRecord
	err := s.segments.View(segmentID, func(obj Object) error {
		entry, err := asSegment(segmentID, obj)
		if err != nil {
			return err
		}
		out = entry.Journal.Records()
		return nil
	})
	return out, err
}

// DraftInfo is the listing form of a draft.
type DraftInfo struct {
	ID        string    `json:"draft_id"`
	Name      string    `json:"name"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	FPS       int       `json:"fps"`
	Tracks    int       `json:"tracks"`
	Segments  int       `json:"segments"`
	Duration  int64     `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

// DraftView is a point-in-time copy of a draft including its tracks.
type DraftView struct {
	DraftInfo
	Script json.RawMessage `json:"script"`
}

func draftInfo(d *DraftEntry) DraftInfo {
	return DraftInfo{
		ID:        d.ID,
		Name:      d.Script.Name,
		Width:     d.Script.Width,
		Height:    d.Script.Height,
		FPS:       d.Script.FPS,
		Tracks:    len(d.Script.Tracks),
		Segments:  d.Script.SegmentCount(),
		Duration:  d.Script.Duration(),
		CreatedAt: d.CreatedAt,
	}
}

// GetDraft returns a snapshot of a draft.
func (s *Service) GetDraft(id string) (DraftView, error) {
	var v DraftView
	err := s.drafts.View(id, func(obj Object) error {
		d, err := asDraft(id, obj)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(d.Script)
		if err != nil {
			return fmt.Errorf("encode draft %s: %w", id, err)
		}
		v = DraftView{DraftInfo: draftInfo(d), Script: raw}
		return nil
	})
	return v, err
}

// ListDrafts lists the registered drafts from least to most recently used.
// Listing does not touch them.
func (s *Service) ListDrafts() []DraftInfo {
	ids := s.drafts.IDs()
	out := make([]DraftInfo, 0, len(ids))
	for _, id := range ids {
		// An id evicted or removed since IDs was taken is skipped.
		_ = s.drafts.View(id, func(obj Object) error {
			d, err := asDraft(id, obj)
			if err != nil {
				return err
			}
			out = append(out, draftInfo(d))
			return nil
		})
	}
	return out
}

// Summary renders a draft as plain text.
func (s *Service) Summary(draftID string) (string, error) {
	var out string
	err := s.InspectDraft(draftID, func(script *timeline.Script) error {
		out = BuildSummary(script)
		return nil
	})
	return out, err
}

// InspectDraft runs fn on a draft's script under the draft's lock. fn must
// not keep the script or mutate it.
func (s *Service) InspectDraft(draftID string, fn func(*timeline.Script) error) error {
	return s.drafts.View(draftID, func(obj Object) error {
		d, err := asDraft(draftID, obj)
		if err != nil {
			return err
		}
		return fn(d.Script)
	})
}

// RegistryLens returns the entry counts of the draft and segment registries.
func (s *Service) RegistryLens() (drafts, segments int) {
	return s.drafts.Len(), s.segments.Len()
}

func asSegment(id string, obj Object) (*SegmentEntry, error) {
	e, ok := obj.(*SegmentEntry)
	if !ok {
		return nil, &KindMismatchError{ID: id, Expected: []string{"segment"}, Actual: obj.ObjectKind()}
	}
	return e, nil
}

func asDraft(id string, obj Object) (*DraftEntry, error) {
	d, ok := obj.(*DraftEntry)
	if !ok {
		return nil, &KindMismatchError{ID: id, Expected: []string{KindDraft}, Actual: obj.ObjectKind()}
	}
	return d, nil
}
