package segment

import (
	"errors"
	"log/slog"

	"draft-orchestrator/internal/timeline"
	"draft-orchestrator/internal/variant"
)

// Segment kinds accepted by Build. "image" builds a video segment on a
// photo material.
const (
	KindAudio   = "audio"
	KindVideo   = "video"
	KindImage   = "image"
	KindText    = "text"
	KindSticker = "sticker"
	KindEffect  = "effect"
	KindFilter  = "filter"
)

// Engine builds segments and applies operations to them. It holds only the
// immutable variant library and a logger, so one Engine may be shared by all
// request paths.
type Engine struct {
	lib *variant.Library
	log *slog.Logger

	fonts        variant.Set
	keyframes    variant.Set
	masks        variant.Set
	filters      variant.Set
	transitions  variant.Set
	videoAnims   variant.Set
	textAnims    variant.Set
	videoEffects variant.Set
	audioEffects variant.Set
}

// NewEngine binds the sets the engine needs from lib. It fails if lib lacks
// any of the built-in set names.
func NewEngine(lib *variant.Library, log *slog.Logger) (*Engine, error) {
	e := &Engine{lib: lib, log: log}
	bind := []struct {
		dst  *variant.Set
		name string
	}{
		{&e.fonts, variant.SetFonts},
		{&e.keyframes, variant.SetKeyframeProperties},
		{&e.masks, variant.SetMasks},
		{&e.filters, variant.SetFilters},
		{&e.transitions, variant.SetTransitions},
		{&e.videoAnims, variant.SetVideoAnimations},
		{&e.textAnims, variant.SetTextAnimations},
		{&e.videoEffects, variant.SetVideoEffects},
		{&e.audioEffects, variant.SetAudioEffects},
	}
	for _, b := range bind {
		s, err := lib.Set(b.name)
		if err != nil {
			return nil, err
		}
		*b.dst = s
	}
	return e, nil
}

// Library returns the variant library the engine resolves against.
func (e *Engine) Library() *variant.Library { return e.lib }

// IsMediaKind reports whether kind needs a local resource to be built.
func IsMediaKind(kind string) bool {
	return kind == KindAudio || kind == KindVideo || kind == KindImage
}

// Build decodes raw for the given kind and constructs the segment. Media
// kinds need res; other kinds ignore it. On error no segment is returned.
func (e *Engine) Build(kind string, raw map[string]any, res *timeline.Material) (timeline.Segment, error) {
	switch kind {
	case KindAudio, KindVideo, KindImage:
		if res == nil || res.Path == "" {
			return nil, &MissingResourceError{Kind: kind}
		}
		cfg, err := DecodeMediaConfig(raw)
		if err != nil {
			return nil, err
		}
		if kind == KindAudio {
			return built(e.BuildAudio(cfg, *res))
		}
		m := *res
		if kind == KindImage {
			m.Kind = timeline.MaterialPhoto
		}
		return built(e.BuildVideo(cfg, m))
	case KindText:
		cfg, err := DecodeTextConfig(raw)
		if err != nil {
			return nil, err
		}
		return built(e.BuildText(cfg))
	case KindSticker:
		cfg, err := DecodeStickerConfig(raw)
		if err != nil {
			return nil, err
		}
		return built(e.BuildSticker(cfg))
	case KindEffect:
		cfg, err := DecodeEffectConfig(raw)
		if err != nil {
			return nil, err
		}
		return built(e.BuildEffect(cfg))
	case KindFilter:
		cfg, err := DecodeFilterConfig(raw)
		if err != nil {
			return nil, err
		}
		return built(e.BuildFilter(cfg))
	default:
		return nil, &UnsupportedKindError{Category: "segment", Kind: kind}
	}
}

// built keeps a failed constructor from leaking a typed nil segment.
func built[S timeline.Segment](s S, err error) (timeline.Segment, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

// BuildAudio constructs an audio segment on m.
func (e *Engine) BuildAudio(cfg MediaConfig, m timeline.Material) (*timeline.AudioSegment, error) {
	return timeline.NewAudioSegment(m, cfg.Target, mediaOptions(cfg))
}

// BuildVideo constructs a video segment on m, attaching crop settings to
// the material when configured.
func (e *Engine) BuildVideo(cfg MediaConfig, m timeline.Material) (*timeline.VideoSegment, error) {
	if cfg.Crop != nil {
		crop := *cfg.Crop
		m.Crop = &crop
	}
	return timeline.NewVideoSegment(m, cfg.Target, mediaOptions(cfg), cfg.Clip)
}

func mediaOptions(cfg MediaConfig) timeline.MediaOptions {
	return timeline.MediaOptions{
		Source:      cfg.Source,
		Speed:       cfg.Speed,
		Volume:      cfg.Volume,
		ChangePitch: cfg.ChangePitch,
	}
}

// BuildText constructs a text segment. An unknown font falls back to DefaultFont.
func (e *Engine) BuildText(cfg TextConfig) (*timeline.TextSegment, error) {
	font, err := variant.Resolve(e.fonts, cfg.Font, "font_family")
	if err != nil {
		font, err = variant.Resolve(e.fonts, DefaultFont, "font_family")
		if err != nil {
			return nil, err
		}
	}
	return timeline.NewTextSegment(cfg.Content, font, cfg.Target, cfg.Style, timeline.TextOptions{
		Clip:       cfg.Clip,
		Border:     cfg.Border,
		Shadow:     cfg.Shadow,
		Background: cfg.Background,
	})
}

// BuildSticker constructs a sticker segment.
func (e *Engine) BuildSticker(cfg StickerConfig) (*timeline.StickerSegment, error) {
	return timeline.NewStickerSegment(cfg.ResourceID, cfg.Target, cfg.Clip)
}

// BuildEffect constructs a standalone effect segment.
func (e *Engine) BuildEffect(cfg EffectConfig) (*timeline.EffectSegment, error) {
	v, err := variant.Resolve(e.videoEffects, cfg.EffectType, "effect_type")
	if err != nil {
		return nil, err
	}
	return timeline.NewEffectSegment(v, cfg.Target, cfg.Params)
}

// BuildFilter constructs a standalone filter segment.
func (e *Engine) BuildFilter(cfg FilterConfig) (*timeline.FilterSegment, error) {
	v, err := variant.Resolve(e.filters, cfg.FilterType, "filter_type")
	if err != nil {
		return nil, err
	}
	return timeline.NewFilterSegment(v, cfg.Target, cfg.Intensity)
}

// IsCallerError reports whether err stems from bad input rather than an
// internal fault.
func IsCallerError(err error) bool {
	var (
		re *variant.ResolutionError
		ue *UnsupportedKindError
		me *MissingResourceError
	)
	switch {
	case errors.As(err, &re), errors.As(err, &ue), errors.As(err, &me):
		return true
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, timeline.ErrInvalidTime),
		errors.Is(err, timeline.ErrInvalidValue),
		errors.Is(err, timeline.ErrUnsupported),
		errors.Is(err, timeline.ErrFeatureExists):
		return true
	}
	return false
}

func kindOf(seg timeline.Segment) string {
	if seg == nil {
		return "<nil>"
	}
	return string(seg.Kind())
}
