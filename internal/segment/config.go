package segment

import (
	"draft-orchestrator/internal/timeline"
)

// MediaConfig configures audio, video and image segments.
type MediaConfig struct {
	MaterialURL string
	Target      timeline.Timerange
	Source      *timeline.Timerange
	Speed       *float64
	Volume      float64
	ChangePitch bool
	Clip        *timeline.ClipSettings
	Crop        *timeline.CropSettings
}

type mediaWire struct {
	MaterialURL     string         `json:"material_url"`
	TargetTimerange *timerangeWire `json:"target_timerange"`
	SourceTimerange *timerangeWire `json:"source_timerange"`
	Speed           *float64       `json:"speed"`
	Volume          *float64       `json:"volume"`
	ChangePitch     *bool          `json:"change_pitch"`
	ClipSettings    *clipWire      `json:"clip_settings"`
	CropSettings    *cropWire      `json:"crop_settings"`
}

// DecodeMediaConfig decodes an audio, video or image configuration map.
func DecodeMediaConfig(raw map[string]any) (MediaConfig, error) {
	var w mediaWire
	if err := decode(raw, &w); err != nil {
		return MediaConfig{}, err
	}
	cfg := MediaConfig{
		MaterialURL: w.MaterialURL,
		Target:      w.TargetTimerange.timerange(),
		Speed:       w.Speed,
		Volume:      pick(1.0, w.Volume),
		ChangePitch: pick(false, w.ChangePitch),
		Clip:        w.ClipSettings.settings(),
		Crop:        w.CropSettings.settings(),
	}
	if w.SourceTimerange != nil && w.SourceTimerange.Duration != nil && *w.SourceTimerange.Duration != 0 {
		src := w.SourceTimerange.timerange()
		cfg.Source = &src
	}
	return cfg, nil
}

// TextConfig configures a text segment.
type TextConfig struct {
	Target     timeline.Timerange
	Content    string
	Font       string
	Style      timeline.TextStyle
	Clip       *timeline.ClipSettings
	Border     *timeline.TextBorder
	Shadow     *timeline.TextShadow
	Background *timeline.TextBackground
}

// DefaultFont is used when a text configuration names no font or an unknown one.
const DefaultFont = "文轩体"

type textStyleWire struct {
	FontSize      *float64 `json:"font_size"`
	Bold          *bool    `json:"bold"`
	Italic        *bool    `json:"italic"`
	Underline     *bool    `json:"underline"`
	Color         *Color   `json:"color"`
	Alpha         *float64 `json:"alpha"`
	Align         *int     `json:"align"`
	Vertical      *bool    `json:"vertical"`
	LetterSpacing *int     `json:"letter_spacing"`
	LineSpacing   *int     `json:"line_spacing"`
	AutoWrapping  *bool    `json:"auto_wrapping"`
	MaxLineWidth  *float64 `json:"max_line_width"`
}

type borderWire struct {
	Alpha *float64 `json:"alpha"`
	Color *Color   `json:"color"`
	Width *float64 `json:"width"`
}

type shadowWire struct {
	Alpha    *float64 `json:"alpha"`
	Color    *Color   `json:"color"`
	Diffuse  *float64 `json:"diffuse"`
	Distance *float64 `json:"distance"`
	Angle    *float64 `json:"angle"`
}

type backgroundWire struct {
	Color            *string  `json:"color"`
	Style            *int     `json:"style"`
	Alpha            *float64 `json:"alpha"`
	RoundRadius      *float64 `json:"round_radius"`
	Height           *float64 `json:"height"`
	Width            *float64 `json:"width"`
	HorizontalOffset *float64 `json:"horizontal_offset"`
	VerticalOffset   *float64 `json:"vertical_offset"`
}

// textWire accepts both shapes: the nested text_style / text_border /
// text_shadow / text_background objects, and the flat top-level keys
// embedded below.
type textWire struct {
	textStyleWire

	TargetTimerange *timerangeWire `json:"target_timerange"`
	TextContent     string         `json:"text_content"`
	FontFamily      string         `json:"font_family"`
	TextColor       *Color         `json:"text_color"`
	Alignment       *int           `json:"alignment"`
	ClipSettings    *clipWire      `json:"clip_settings"`

	TextStyle *textStyleWire `json:"text_style"`

	TextBorder  *borderWire `json:"text_border"`
	Border      *borderWire `json:"border"`
	BorderColor *Color      `json:"border_color"`
	BorderAlpha *float64    `json:"border_alpha"`
	BorderWidth *float64    `json:"border_width"`

	TextShadow *shadowWire `json:"text_shadow"`
	Shadow     *shadowWire `json:"shadow"`

	TextBackground *backgroundWire `json:"text_background"`
	Background     *backgroundWire `json:"background"`
}

var (
	white = Color{1, 1, 1}
	black = Color{0, 0, 0}
)

// DecodeTextConfig decodes a text configuration map. Nested style fields win
// over flat keys, which win over defaults.
func DecodeTextConfig(raw map[string]any) (TextConfig, error) {
	var w textWire
	if err := decode(raw, &w); err != nil {
		return TextConfig{}, err
	}
	n := w.TextStyle
	if n == nil {
		n = &textStyleWire{}
	}
	f := &w.textStyleWire

	cfg := TextConfig{
		Target:  w.TargetTimerange.timerange(),
		Content: w.TextContent,
		Font:    w.FontFamily,
		Clip:    w.ClipSettings.settings(),
		Style: timeline.TextStyle{
			Size:          pick(8.0, n.FontSize, f.FontSize),
			Bold:          pick(false, n.Bold, f.Bold),
			Italic:        pick(false, n.Italic, f.Italic),
			Underline:     pick(false, n.Underline, f.Underline),
			Color:         timeline.RGB(pick(white, n.Color, w.TextColor, f.Color)),
			Alpha:         pick(1.0, n.Alpha, f.Alpha),
			Align:         pick(0, n.Align, w.Alignment, f.Align),
			Vertical:      pick(false, n.Vertical, f.Vertical),
			LetterSpacing: pick(0, n.LetterSpacing, f.LetterSpacing),
			LineSpacing:   pick(0, n.LineSpacing, f.LineSpacing),
			AutoWrapping:  pick(false, n.AutoWrapping, f.AutoWrapping),
			MaxLineWidth:  pick(0.82, n.MaxLineWidth, f.MaxLineWidth),
		},
	}
	if cfg.Font == "" {
		cfg.Font = DefaultFont
	}

	switch b := firstNonNil(w.TextBorder, w.Border); {
	case b != nil:
		cfg.Border = &timeline.TextBorder{
			Alpha: pick(1.0, b.Alpha),
			Color: timeline.RGB(pick(black, b.Color)),
			Width: pick(40.0, b.Width),
		}
	case w.BorderColor != nil:
		cfg.Border = &timeline.TextBorder{
			Alpha: pick(1.0, w.BorderAlpha),
			Color: timeline.RGB(*w.BorderColor),
			Width: pick(40.0, w.BorderWidth),
		}
	}

	if s := firstNonNil(w.TextShadow, w.Shadow); s != nil {
		cfg.Shadow = &timeline.TextShadow{
			Alpha:    pick(0.9, s.Alpha),
			Color:    timeline.RGB(pick(black, s.Color)),
			Diffuse:  pick(15.0, s.Diffuse),
			Distance: pick(5.0, s.Distance),
			Angle:    pick(-45.0, s.Angle),
		}
	}

	if bg := firstNonNil(w.TextBackground, w.Background); bg != nil {
		color := pick("#000000", bg.Color)
		if _, err := ParseHexColor(color); err != nil {
			return TextConfig{}, invalidf("text_background.color: %v", err)
		}
		cfg.Background = &timeline.TextBackground{
			Color:            color,
			Style:            pick(1, bg.Style),
			Alpha:            pick(1.0, bg.Alpha),
			RoundRadius:      pick(0.0, bg.RoundRadius),
			Height:           pick(0.14, bg.Height),
			Width:            pick(0.14, bg.Width),
			HorizontalOffset: pick(0.5, bg.HorizontalOffset),
			VerticalOffset:   pick(0.5, bg.VerticalOffset),
		}
	}
	return cfg, nil
}

func firstNonNil[T any](vals ...*T) *T {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// StickerConfig configures a sticker segment.
type StickerConfig struct {
	ResourceID string
	Target     timeline.Timerange
	Clip       timeline.ClipSettings
}

type stickerWire struct {
	ResourceID      string         `json:"resource_id"`
	MaterialURL     string         `json:"material_url"`
	TargetTimerange *timerangeWire `json:"target_timerange"`
	ClipSettings    *clipWire      `json:"clip_settings"`

	PositionX      *float64 `json:"position_x"`
	PositionY      *float64 `json:"position_y"`
	ScaleX         *float64 `json:"scale_x"`
	ScaleY         *float64 `json:"scale_y"`
	Rotation       *float64 `json:"rotation"`
	Opacity        *float64 `json:"opacity"`
	FlipHorizontal *bool    `json:"flip_horizontal"`
	FlipVertical   *bool    `json:"flip_vertical"`
}

// DecodeStickerConfig decodes a sticker configuration map. material_url is
// accepted as an alias of resource_id; placement comes from clip_settings or,
// failing that, from the flat position keys.
func DecodeStickerConfig(raw map[string]any) (StickerConfig, error) {
	var w stickerWire
	if err := decode(raw, &w); err != nil {
		return StickerConfig{}, err
	}
	cfg := StickerConfig{
		ResourceID: w.ResourceID,
		Target:     w.TargetTimerange.timerange(),
	}
	if cfg.ResourceID == "" {
		cfg.ResourceID = w.MaterialURL
	}
	if cfg.ResourceID == "" {
		return StickerConfig{}, invalidf("sticker requires resource_id")
	}
	if clip := w.ClipSettings.settings(); clip != nil {
		cfg.Clip = *clip
	} else {
		cfg.Clip = timeline.ClipSettings{
			Alpha:          pick(1.0, w.Opacity),
			Rotation:       pick(0.0, w.Rotation),
			ScaleX:         pick(1.0, w.ScaleX),
			ScaleY:         pick(1.0, w.ScaleY),
			TransformX:     pick(0.0, w.PositionX),
			TransformY:     pick(0.0, w.PositionY),
			FlipHorizontal: pick(false, w.FlipHorizontal),
			FlipVertical:   pick(false, w.FlipVertical),
		}
	}
	return cfg, nil
}

// EffectConfig configures a standalone effect segment.
type EffectConfig struct {
	EffectType string
	Target     timeline.Timerange
	Params     []*float64
}

type effectWire struct {
	EffectType      string         `json:"effect_type"`
	TargetTimerange *timerangeWire `json:"target_timerange"`
	Params          []*float64     `json:"params"`
}

// DecodeEffectConfig decodes an effect configuration map.
func DecodeEffectConfig(raw map[string]any) (EffectConfig, error) {
	var w effectWire
	if err := decode(raw, &w); err != nil {
		return EffectConfig{}, err
	}
	if w.EffectType == "" {
		return EffectConfig{}, invalidf("effect segment requires effect_type")
	}
	return EffectConfig{
		EffectType: w.EffectType,
		Target:     w.TargetTimerange.timerange(),
		Params:     w.Params,
	}, nil
}

// FilterConfig configures a standalone filter segment. Intensity is 0-100.
type FilterConfig struct {
	FilterType string
	Target     timeline.Timerange
	Intensity  float64
}

type filterWire struct {
	FilterType      string         `json:"filter_type"`
	TargetTimerange *timerangeWire `json:"target_timerange"`
	Intensity       *float64       `json:"intensity"`
}

// DecodeFilterConfig decodes a filter configuration map.
func DecodeFilterConfig(raw map[string]any) (FilterConfig, error) {
	var w filterWire
	if err := decode(raw, &w); err != nil {
		return FilterConfig{}, err
	}
	if w.FilterType == "" {
		return FilterConfig{}, invalidf("filter segment requires filter_type")
	}
	return FilterConfig{
		FilterType: w.FilterType,
		Target:     w.TargetTimerange.timerange(),
		Intensity:  pick(100.0, w.Intensity),
	}, nil
}
