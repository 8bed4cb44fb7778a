package timeline

import (
	"fmt"
	"strings"

	"draft-orchestrator/internal/variant"
)

// Kind is the runtime kind of a segment and the type of the track it lives on.
type Kind string

const (
	KindAudio   Kind = "audio"
	KindVideo   Kind = "video"
	KindText    Kind = "text"
	KindSticker Kind = "sticker"
	KindEffect  Kind = "effect"
	KindFilter  Kind = "filter"
)

// Kinds lists every segment kind in track order.
var Kinds = []Kind{KindVideo, KindAudio, KindText, KindSticker, KindEffect, KindFilter}

// ParseKind validates a track or segment kind name.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Segment is a time-ranged unit of a track.
type Segment interface {
	Kind() Kind
	Target() Timerange
}

// MediaOptions are the optional arguments of audio and video segments.
type MediaOptions struct {
	Source      *Timerange
	Speed       *float64
	Volume      float64
	ChangePitch bool
}

// Media holds what audio and video segments share.
type Media struct {
	Material        Material   `json:"material"`
	TargetTimerange Timerange  `json:"target_timerange"`
	SourceTimerange Timerange  `json:"source_timerange"`
	Speed           float64    `json:"speed"`
	Volume          float64    `json:"volume"`
	ChangePitch     bool       `json:"change_pitch"`
	Fade            *Fade      `json:"fade,omitempty"`
	Keyframes       []Keyframe `json:"keyframes,omitempty"`
}

// newMedia derives whichever of source range and speed was not given.
// When both are given the target duration follows from them.
func newMedia(m Material, target Timerange, opts MediaOptions) (Media, error) {
	if target.Duration <= 0 {
		return Media{}, fmt.Errorf("%w: target duration must be positive", ErrInvalidTime)
	}
	if opts.Speed != nil && *opts.Speed <= 0 {
		return Media{}, fmt.Errorf("%w: speed must be positive, got %g", ErrInvalidValue, *opts.Speed)
	}
	if opts.Volume < 0 {
		return Media{}, fmt.Errorf("%w: volume must not be negative, got %g", ErrInvalidValue, opts.Volume)
	}

	md := Media{
		Material:        m,
		TargetTimerange: target,
		Volume:          opts.Volume,
		ChangePitch:     opts.ChangePitch,
	}
	switch {
	case opts.Source != nil && opts.Speed != nil:
		md.SourceTimerange = *opts.Source
		md.Speed = *opts.Speed
		md.TargetTimerange.Duration = int64(float64(opts.Source.Duration) / *opts.Speed)
	case opts.Source != nil:
		md.SourceTimerange = *opts.Source
		md.Speed = float64(opts.Source.Duration) / float64(target.Duration)
	default:
		md.Speed = 1
		if opts.Speed != nil {
			md.Speed = *opts.Speed
		}
		md.SourceTimerange = Timerange{Duration: int64(float64(target.Duration) * md.Speed)}
	}
	return md, nil
}

// Target implements Segment.
func (m *Media) Target() Timerange { return m.TargetTimerange }

// AddFade sets the fade-in and fade-out lengths. A segment has at most one fade.
func (m *Media) AddFade(in, out int64) error {
	if m.Fade != nil {
		return fmt.Errorf("%w: fade", ErrFeatureExists)
	}
	if in < 0 || out < 0 || in+out > m.TargetTimerange.Duration {
		return fmt.Errorf("%w: fade %s+%s exceeds segment length %s",
			ErrInvalidTime, FormatTime(in), FormatTime(out), FormatTime(m.TargetTimerange.Duration))
	}
	m.Fade = &Fade{In: in, Out: out}
	return nil
}

// AudioSegment plays an audio material.
type AudioSegment struct {
	Media
	Effects []Effect `json:"effects,omitempty"`
}

// NewAudioSegment builds an audio segment on material m.
func NewAudioSegment(m Material, target Timerange, opts MediaOptions) (*AudioSegment, error) {
	md, err := newMedia(m, target, opts)
	if err != nil {
		return nil, err
	}
	return &AudioSegment{Media: md}, nil
}

// Kind implements Segment.
func (s *AudioSegment) Kind() Kind { return KindAudio }

// AddKeyframe pins the volume at offset.
func (s *AudioSegment) AddKeyframe(offset int64, volume float64) error {
	if offset < 0 {
		return fmt.Errorf("%w: keyframe offset %d", ErrInvalidTime, offset)
	}
	s.Keyframes = append(s.Keyframes, Keyframe{Property: "volume", Offset: offset, Value: volume})
	return nil
}

// AddEffect adds an audio effect. Only one effect per catalog is allowed.
func (s *AudioSegment) AddEffect(v variant.Variant, params []*float64) error {
	for _, e := range s.Effects {
		if catalogOf(e.Type) == v.Catalog {
			return fmt.Errorf("%w: audio effect of type %s", ErrFeatureExists, v.Catalog)
		}
	}
	e, err := newEffect(v, params)
	if err != nil {
		return err
	}
	s.Effects = append(s.Effects, e)
	return nil
}

// VideoSegment shows a video or photo material.
type VideoSegment struct {
	Media
	Clip              *ClipSettings      `json:"clip,omitempty"`
	Mask              *Mask              `json:"mask,omitempty"`
	Transition        *Transition        `json:"transition,omitempty"`
	Animations        animations         `json:"animations,omitempty"`
	Effects           []Effect           `json:"effects,omitempty"`
	Filters           []Filter           `json:"filters,omitempty"`
	BackgroundFilling *BackgroundFilling `json:"background_filling,omitempty"`
}

// NewVideoSegment builds a video segment on material m. clip may be nil.
func NewVideoSegment(m Material, target Timerange, opts MediaOptions, clip *ClipSettings) (*VideoSegment, error) {
	md, err := newMedia(m, target, opts)
	if err != nil {
		return nil, err
	}
	return &VideoSegment{Media: md, Clip: clip}, nil
}

// Kind implements Segment.
func (s *VideoSegment) Kind() Kind { return KindVideo }

// AddKeyframe pins a visual property, or the volume, at offset.
func (s *VideoSegment) AddKeyframe(prop variant.Variant, offset int64, value float64) error {
	kfs, err := addKeyframe(s.Keyframes, prop, offset, value, true)
	if err != nil {
		return err
	}
	s.Keyframes = kfs
	return nil
}

// AddMask sets the segment mask.
func (s *VideoSegment) AddMask(m Mask) error {
	if s.Mask != nil {
		return fmt.Errorf("%w: mask", ErrFeatureExists)
	}
	if m.Size < 0 || m.Feather < 0 || m.Feather > 100 {
		return fmt.Errorf("%w: mask size %g feather %g", ErrInvalidValue, m.Size, m.Feather)
	}
	s.Mask = &m
	return nil
}

// AddTransition sets the transition into the next segment. A zero duration
// takes the transition's default length.
func (s *VideoSegment) AddTransition(v variant.Variant, duration int64) error {
	if s.Transition != nil {
		return fmt.Errorf("%w: transition", ErrFeatureExists)
	}
	if duration <= 0 {
		duration = v.Member.Duration
	}
	s.Transition = &Transition{Type: v.String(), Duration: duration}
	return nil
}

// AddAnimation places an intro, outro or group animation.
func (s *VideoSegment) AddAnimation(v variant.Variant, duration int64) error {
	f, ok := videoFamilies[v.Catalog]
	if !ok {
		return fmt.Errorf("%w: %s is not a video animation", ErrUnsupported, v)
	}
	a, err := s.Animations.place(v, f, duration, s.TargetTimerange.Duration)
	if err != nil {
		return err
	}
	s.Animations = append(s.Animations, a)
	return nil
}

// AddEffect adds a scene or character effect.
func (s *VideoSegment) AddEffect(v variant.Variant, params []*float64) error {
	e, err := newEffect(v, params)
	if err != nil {
		return err
	}
	s.Effects = append(s.Effects, e)
	return nil
}

// AddFilter adds a filter with intensity in 0-100.
func (s *VideoSegment) AddFilter(v variant.Variant, intensity float64) error {
	f, err := newFilter(v, intensity)
	if err != nil {
		return err
	}
	s.Filters = append(s.Filters, f)
	return nil
}

// AddBackgroundFilling sets how uncovered canvas is filled.
func (s *VideoSegment) AddBackgroundFilling(fillType string, blur float64, color string) error {
	switch fillType {
	case FillBlur:
		if blur < 0 || blur > 1 {
			return fmt.Errorf("%w: blur must be within 0-1, got %g", ErrInvalidValue, blur)
		}
	case FillColor:
	default:
		return fmt.Errorf("%w: background filling type %q", ErrInvalidValue, fillType)
	}
	s.BackgroundFilling = &BackgroundFilling{Type: fillType, Blur: blur, Color: color}
	return nil
}

// TextSegment is a styled caption.
type TextSegment struct {
	Text            string          `json:"text"`
	Font            string          `json:"font"`
	TargetTimerange Timerange       `json:"target_timerange"`
	Style           TextStyle       `json:"style"`
	Clip            *ClipSettings   `json:"clip,omitempty"`
	Border          *TextBorder     `json:"border,omitempty"`
	Shadow          *TextShadow     `json:"shadow,omitempty"`
	Background      *TextBackground `json:"background,omitempty"`
	Animations      animations      `json:"animations,omitempty"`
	Bubble          *Bubble         `json:"bubble,omitempty"`
	Effect          *TextEffect     `json:"effect,omitempty"`
	Keyframes       []Keyframe      `json:"keyframes,omitempty"`
}

// TextOptions are the optional decorations of a text segment.
type TextOptions struct {
	Clip       *ClipSettings
	Border     *TextBorder
	Shadow     *TextShadow
	Background *TextBackground
}

// NewTextSegment builds a text segment.
func NewTextSegment(text string, font variant.Variant, target Timerange, style TextStyle, opts TextOptions) (*TextSegment, error) {
	if target.Duration <= 0 {
		return nil, fmt.Errorf("%w: target duration must be positive", ErrInvalidTime)
	}
	return &TextSegment{
		Text:            text,
		Font:            font.Name(),
		TargetTimerange: target,
		Style:           style,
		Clip:            opts.Clip,
		Border:          opts.Border,
		Shadow:          opts.Shadow,
		Background:      opts.Background,
	}, nil
}

// Kind implements Segment.
func (s *TextSegment) Kind() Kind { return KindText }

// Target implements Segment.
func (s *TextSegment) Target() Timerange { return s.TargetTimerange }

// AddKeyframe pins a visual property at offset.
func (s *TextSegment) AddKeyframe(prop variant.Variant, offset int64, value float64) error {
	kfs, err := addKeyframe(s.Keyframes, prop, offset, value, false)
	if err != nil {
		return err
	}
	s.Keyframes = kfs
	return nil
}

// AddAnimation places a text intro, outro or loop animation.
func (s *TextSegment) AddAnimation(v variant.Variant, duration int64) error {
	f, ok := textFamilies[v.Catalog]
	if !ok {
		return fmt.Errorf("%w: %s is not a text animation", ErrUnsupported, v)
	}
	a, err := s.Animations.place(v, f, duration, s.TargetTimerange.Duration)
	if err != nil {
		return err
	}
	s.Animations = append(s.Animations, a)
	return nil
}

// AddEffect sets the decorative text effect.
func (s *TextSegment) AddEffect(effectID string) error {
	if effectID == "" {
		return fmt.Errorf("%w: empty effect id", ErrInvalidValue)
	}
	s.Effect = &TextEffect{EffectID: effectID}
	return nil
}

// AddBubble sets the speech bubble.
func (s *TextSegment) AddBubble(effectID, resourceID string) error {
	if effectID == "" || resourceID == "" {
		return fmt.Errorf("%w: bubble needs effect and resource ids", ErrInvalidValue)
	}
	s.Bubble = &Bubble{EffectID: effectID, ResourceID: resourceID}
	return nil
}

// StickerSegment shows a sticker resource.
type StickerSegment struct {
	ResourceID      string       `json:"resource_id"`
	TargetTimerange Timerange    `json:"target_timerange"`
	Clip            ClipSettings `json:"clip"`
	Keyframes       []Keyframe   `json:"keyframes,omitempty"`
}

// NewStickerSegment builds a sticker segment.
func NewStickerSegment(resourceID string, target Timerange, clip ClipSettings) (*StickerSegment, error) {
	if resourceID == "" {
		return nil, fmt.Errorf("%w: empty sticker resource id", ErrInvalidValue)
	}
	if target.Duration <= 0 {
		return nil, fmt.Errorf("%w: target duration must be positive", ErrInvalidTime)
	}
	return &StickerSegment{ResourceID: resourceID, TargetTimerange: target, Clip: clip}, nil
}

// Kind implements Segment.
func (s *StickerSegment) Kind() Kind { return KindSticker }

// Target implements Segment.
func (s *StickerSegment) Target() Timerange { return s.TargetTimerange }

// AddKeyframe pins a visual property at offset.
func (s *StickerSegment) AddKeyframe(prop variant.Variant, offset int64, value float64) error {
	kfs, err := addKeyframe(s.Keyframes, prop, offset, value, false)
	if err != nil {
		return err
	}
	s.Keyframes = kfs
	return nil
}

// EffectSegment is a standalone effect on an effect track.
type EffectSegment struct {
	Effect          Effect    `json:"effect"`
	TargetTimerange Timerange `json:"target_timerange"`
}

// NewEffectSegment builds an effect segment.
func NewEffectSegment(v variant.Variant, target Timerange, params []*float64) (*EffectSegment, error) {
	if target.Duration <= 0 {
		return nil, fmt.Errorf("%w: target duration must be positive", ErrInvalidTime)
	}
	e, err := newEffect(v, params)
	if err != nil {
		return nil, err
	}
	return &EffectSegment{Effect: e, TargetTimerange: target}, nil
}

// Kind implements Segment.
func (s *EffectSegment) Kind() Kind { return KindEffect }

// Target implements Segment.
func (s *EffectSegment) Target() Timerange { return s.TargetTimerange }

// FilterSegment is a standalone filter on a filter track.
type FilterSegment struct {
	Filter          Filter    `json:"filter"`
	TargetTimerange Timerange `json:"target_timerange"`
}

// NewFilterSegment builds a filter segment with intensity in 0-100.
func NewFilterSegment(v variant.Variant, target Timerange, intensity float64) (*FilterSegment, error) {
	if target.Duration <= 0 {
		return nil, fmt.Errorf("%w: target duration must be positive", ErrInvalidTime)
	}
	f, err := newFilter(v, intensity)
	if err != nil {
		return nil, err
	}
	return &FilterSegment{Filter: f, TargetTimerange: target}, nil
}

// Kind implements Segment.
func (s *FilterSegment) Kind() Kind { return KindFilter }

// Target implements Segment.
func (s *FilterSegment) Target() Timerange { return s.TargetTimerange }

// addKeyframe appends a keyframe for prop. uniform_scale expands into
// scale_x and scale_y; volume is only accepted where the segment has sound.
func addKeyframe(kfs []Keyframe, prop variant.Variant, offset int64, value float64, withVolume bool) ([]Keyframe, error) {
	if offset < 0 {
		return kfs, fmt.Errorf("%w: keyframe offset %d", ErrInvalidTime, offset)
	}
	switch prop.Name() {
	case "volume":
		if !withVolume {
			return kfs, fmt.Errorf("%w: volume keyframe", ErrUnsupported)
		}
	case "uniform_scale":
		return append(kfs,
			Keyframe{Property: "scale_x", Offset: offset, Value: value},
			Keyframe{Property: "scale_y", Offset: offset, Value: value},
		), nil
	}
	return append(kfs, Keyframe{Property: prop.Name(), Offset: offset, Value: value}), nil
}

func catalogOf(qualified string) string {
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		return qualified[:i]
	}
	return qualified
}
