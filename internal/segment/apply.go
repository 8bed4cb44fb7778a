package segment

import (
	"fmt"
	"log/slog"
	"sort"

	"draft-orchestrator/internal/timeline"
	"draft-orchestrator/internal/variant"
)

// Operation kinds accepted by Apply.
const (
	OpAddFade              = "add_fade"
	OpAddAnimation         = "add_animation"
	OpAddTransition        = "add_transition"
	OpAddBackgroundFilling = "add_background_filling"
	OpAddBubble            = "add_bubble"
	OpAddEffect            = "add_effect"
	OpAddAudioEffect       = "add_audio_effect"
	OpAddFilter            = "add_filter"
	OpAddKeyframe          = "add_keyframe"
	OpAddMask              = "add_mask"
)

type applyFunc func(e *Engine, seg timeline.Segment, data map[string]any) error

var operations = map[string]applyFunc{
	OpAddFade:              (*Engine).applyFade,
	OpAddAnimation:         (*Engine).applyAnimation,
	OpAddTransition:        (*Engine).applyTransition,
	OpAddBackgroundFilling: (*Engine).applyBackgroundFilling,
	OpAddBubble:            (*Engine).applyBubble,
	OpAddEffect:            (*Engine).applyEffect,
	OpAddAudioEffect:       (*Engine).applyAudioEffect,
	OpAddFilter:            (*Engine).applyFilter,
	OpAddKeyframe:          (*Engine).applyKeyframe,
	OpAddMask:              (*Engine).applyMask,
}

// OperationKinds returns the supported operation kinds, sorted.
func OperationKinds() []string {
	out := make([]string, 0, len(operations))
	for k := range operations {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidateOperation reports an UnsupportedKindError for an unknown kind.
func ValidateOperation(kind string) error {
	if _, ok := operations[kind]; !ok {
		return &UnsupportedKindError{Category: "operation", Kind: kind}
	}
	return nil
}

// Apply runs one operation against seg. Dispatch is by operation kind first
// and then, where signatures differ, by the runtime kind of seg.
func (e *Engine) Apply(seg timeline.Segment, kind string, data map[string]any) error {
	fn, ok := operations[kind]
	if !ok {
		return &UnsupportedKindError{Category: "operation", Kind: kind}
	}
	if err := fn(e, seg, data); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}

// Failure is one operation that ApplyAll skipped.
type Failure struct {
	OperationID string `json:"operation_id"`
	Kind        string `json:"operation_type"`
	Err         error  `json:"-"`
	Message     string `json:"error"`
}

// Report summarises an ApplyAll run.
type Report struct {
	Applied  []string  `json:"applied"`
	Failures []Failure `json:"failures"`
}

// ApplyAll applies records to seg in order. A failing record is logged and
// skipped; later records still run.
func (e *Engine) ApplyAll(segmentID string, seg timeline.Segment, records []OperationRecord) Report {
	var rep Report
	for _, r := range records {
		if err := e.Apply(seg, r.Kind, r.Data); err != nil {
			e.log.Warn("operation failed",
				slog.String("segment_id", segmentID),
				slog.String("operation", r.Kind),
				slog.String("operation_id", r.ID),
				slog.String("error", err.Error()))
			rep.Failures = append(rep.Failures, Failure{
				OperationID: r.ID,
				Kind:        r.Kind,
				Err:         err,
				Message:     err.Error(),
			})
			continue
		}
		rep.Applied = append(rep.Applied, r.ID)
	}
	return rep
}

func unsupportedOn(seg timeline.Segment) error {
	return fmt.Errorf("%w: %s segment", timeline.ErrUnsupported, kindOf(seg))
}

type fadeOp struct {
	InDuration  Micros `json:"in_duration"`
	OutDuration Micros `json:"out_duration"`
}

func (e *Engine) applyFade(seg timeline.Segment, data map[string]any) error {
	var op fadeOp
	if err := decode(data, &op); err != nil {
		return err
	}
	switch s := seg.(type) {
	case *timeline.AudioSegment:
		return s.AddFade(int64(op.InDuration), int64(op.OutDuration))
	case *timeline.VideoSegment:
		return s.AddFade(int64(op.InDuration), int64(op.OutDuration))
	default:
		return unsupportedOn(seg)
	}
}

type animationOp struct {
	AnimationType string  `json:"animation_type"`
	Duration      *Micros `json:"duration"`
}

func (e *Engine) applyAnimation(seg timeline.Segment, data map[string]any) error {
	var op animationOp
	if err := decode(data, &op); err != nil {
		return err
	}
	dur := int64(pick(0, op.Duration))
	switch s := seg.(type) {
	case *timeline.TextSegment:
		v, err := variant.Resolve(e.textAnims, op.AnimationType, "animation_type")
		if err != nil {
			return err
		}
		return s.AddAnimation(v, dur)
	case *timeline.VideoSegment:
		v, err := variant.Resolve(e.videoAnims, op.AnimationType, "animation_type")
		if err != nil {
			return err
		}
		return s.AddAnimation(v, dur)
	default:
		return unsupportedOn(seg)
	}
}

type transitionOp struct {
	TransitionType string  `json:"transition_type"`
	Duration       *Micros `json:"duration"`
}

func (e *Engine) applyTransition(seg timeline.Segment, data map[string]any) error {
	var op transitionOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.VideoSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	v, err := variant.Resolve(e.transitions, op.TransitionType, "transition_type")
	if err != nil {
		return err
	}
	return s.AddTransition(v, int64(pick(0, op.Duration)))
}

type backgroundFillingOp struct {
	FillType *string  `json:"fill_type"`
	Blur     *float64 `json:"blur"`
	Color    *string  `json:"color"`
}

func (e *Engine) applyBackgroundFilling(seg timeline.Segment, data map[string]any) error {
	var op backgroundFillingOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.VideoSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	return s.AddBackgroundFilling(
		pick(timeline.FillBlur, op.FillType),
		pick(0.0625, op.Blur),
		pick("#00000000", op.Color),
	)
}

type bubbleOp struct {
	EffectID   string `json:"effect_id"`
	ResourceID string `json:"resource_id"`
}

func (e *Engine) applyBubble(seg timeline.Segment, data map[string]any) error {
	var op bubbleOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.TextSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	return s.AddBubble(op.EffectID, op.ResourceID)
}

type effectOp struct {
	EffectID   string     `json:"effect_id"`
	EffectType string     `json:"effect_type"`
	Params     []*float64 `json:"params"`
}

// name prefers effect_type and falls back to effect_id.
func (op effectOp) name() string {
	if op.EffectType != "" {
		return op.EffectType
	}
	return op.EffectID
}

func (e *Engine) applyEffect(seg timeline.Segment, data map[string]any) error {
	var op effectOp
	if err := decode(data, &op); err != nil {
		return err
	}
	switch s := seg.(type) {
	case *timeline.TextSegment:
		return s.AddEffect(op.EffectID)
	case *timeline.VideoSegment:
		v, err := variant.Resolve(e.videoEffects, op.name(), "effect_type")
		if err != nil {
			return err
		}
		return s.AddEffect(v, op.Params)
	case *timeline.AudioSegment:
		return e.addAudioEffect(s, op)
	default:
		return unsupportedOn(seg)
	}
}

func (e *Engine) applyAudioEffect(seg timeline.Segment, data map[string]any) error {
	var op effectOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.AudioSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	return e.addAudioEffect(s, op)
}

func (e *Engine) addAudioEffect(s *timeline.AudioSegment, op effectOp) error {
	v, err := variant.Resolve(e.audioEffects, op.name(), "effect_type")
	if err != nil {
		return err
	}
	return s.AddEffect(v, op.Params)
}

type filterOp struct {
	FilterType string   `json:"filter_type"`
	Intensity  *float64 `json:"intensity"`
}

func (e *Engine) applyFilter(seg timeline.Segment, data map[string]any) error {
	var op filterOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.VideoSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	v, err := variant.Resolve(e.filters, op.FilterType, "filter_type")
	if err != nil {
		return err
	}
	return s.AddFilter(v, pick(100.0, op.Intensity))
}

type keyframeOp struct {
	Property string   `json:"property"`
	Offset   Micros   `json:"offset"`
	Value    *float64 `json:"value"`
}

// keyframeTarget is satisfied by every segment with property keyframes.
type keyframeTarget interface {
	AddKeyframe(prop variant.Variant, offset int64, value float64) error
}

func (e *Engine) applyKeyframe(seg timeline.Segment, data map[string]any) error {
	var op keyframeOp
	if err := decode(data, &op); err != nil {
		return err
	}
	switch s := seg.(type) {
	case *timeline.AudioSegment:
		return s.AddKeyframe(int64(op.Offset), pick(1.0, op.Value))
	case keyframeTarget:
		if op.Property == "" {
			return invalidf("keyframe requires property")
		}
		prop, err := variant.Resolve(e.keyframes, op.Property, "property")
		if err != nil {
			return err
		}
		return s.AddKeyframe(prop, int64(op.Offset), pick(0.0, op.Value))
	default:
		return unsupportedOn(seg)
	}
}

type maskOp struct {
	MaskTypeName *string  `json:"mask_type_name"`
	CenterX      float64  `json:"center_x"`
	CenterY      float64  `json:"center_y"`
	Size         *float64 `json:"size"`
	Rotation     float64  `json:"rotation"`
	Feather      float64  `json:"feather"`
	Invert       bool     `json:"invert"`
	RectWidth    *float64 `json:"rect_width"`
	RoundCorner  *float64 `json:"round_corner"`
}

func (e *Engine) applyMask(seg timeline.Segment, data map[string]any) error {
	var op maskOp
	if err := decode(data, &op); err != nil {
		return err
	}
	s, ok := seg.(*timeline.VideoSegment)
	if !ok {
		return unsupportedOn(seg)
	}
	v, err := variant.Resolve(e.masks, pick("线性", op.MaskTypeName), "mask_type_name")
	if err != nil {
		return err
	}
	return s.AddMask(timeline.Mask{
		Type:        v.String(),
		CenterX:     op.CenterX,
		CenterY:     op.CenterY,
		Size:        pick(0.5, op.Size),
		Rotation:    op.Rotation,
		Feather:     op.Feather,
		Invert:      op.Invert,
		RectWidth:   op.RectWidth,
		RoundCorner: op.RoundCorner,
	})
}
