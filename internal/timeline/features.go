package timeline

import (
	"fmt"

	"draft-orchestrator/internal/variant"
)

// Fade is an audio fade-in/fade-out pair.
type Fade struct {
	In  int64 `json:"in"`
	Out int64 `json:"out"`
}

// Keyframe is a property value pinned at an offset from the segment start.
type Keyframe struct {
	Property string  `json:"property"`
	Offset   int64   `json:"offset"`
	Value    float64 `json:"value"`
}

// EffectParam is an effect parameter after mapping into its native range.
type EffectParam struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Effect is a video or audio effect with its parameters.
type Effect struct {
	Type   string        `json:"type"`
	Params []EffectParam `json:"params,omitempty"`
}

// newEffect maps caller params (each 0-100, nil meaning default) onto the
// member's declared parameter ranges.
func newEffect(v variant.Variant, params []*float64) (Effect, error) {
	declared := v.Member.Params
	if len(params) > len(declared) {
		return Effect{}, fmt.Errorf("%w: %s takes %d params, got %d",
			ErrInvalidValue, v, len(declared), len(params))
	}
	e := Effect{Type: v.String()}
	for i, p := range declared {
		value := p.Default
		if i < len(params) && params[i] != nil {
			pct := *params[i]
			if pct < 0 || pct > 100 {
				return Effect{}, fmt.Errorf("%w: %s param %q must be within 0-100, got %g",
					ErrInvalidValue, v, p.Name, pct)
			}
			value = p.Min + (p.Max-p.Min)*pct/100
		}
		e.Params = append(e.Params, EffectParam{Name: p.Name, Value: value})
	}
	return e, nil
}

// Filter is a colour filter. Intensity stays in 0-100.
type Filter struct {
	Type      string  `json:"type"`
	Intensity float64 `json:"intensity"`
}

func newFilter(v variant.Variant, intensity float64) (Filter, error) {
	if intensity < 0 || intensity > 100 {
		return Filter{}, fmt.Errorf("%w: filter intensity must be within 0-100, got %g", ErrInvalidValue, intensity)
	}
	return Filter{Type: v.String(), Intensity: intensity}, nil
}

// Mask is a shape mask over a video segment.
type Mask struct {
	Type        string   `json:"type"`
	CenterX     float64  `json:"center_x"`
	CenterY     float64  `json:"center_y"`
	Size        float64  `json:"size"`
	Rotation    float64  `json:"rotation"`
	Feather     float64  `json:"feather"`
	Invert      bool     `json:"invert"`
	RectWidth   *float64 `json:"rect_width,omitempty"`
	RoundCorner *float64 `json:"round_corner,omitempty"`
}

// Transition joins a video segment to the next one on its track.
type Transition struct {
	Type     string `json:"type"`
	Duration int64  `json:"duration"`
}

// AnimationFamily groups animations that occupy the same slot on a segment.
type AnimationFamily string

const (
	FamilyIntro AnimationFamily = "intro"
	FamilyOutro AnimationFamily = "outro"
	FamilyGroup AnimationFamily = "group"
	FamilyLoop  AnimationFamily = "loop"
)

var videoFamilies = map[string]AnimationFamily{
	"IntroType":          FamilyIntro,
	"OutroType":          FamilyOutro,
	"GroupAnimationType": FamilyGroup,
}

var textFamilies = map[string]AnimationFamily{
	"TextIntro":    FamilyIntro,
	"TextOutro":    FamilyOutro,
	"TextLoopAnim": FamilyLoop,
}

// Animation is placed relative to the segment start.
type Animation struct {
	Type     string          `json:"type"`
	Family   AnimationFamily `json:"family"`
	Start    int64           `json:"start"`
	Duration int64           `json:"duration"`
}

type animations []Animation

func (as animations) find(f AnimationFamily) (Animation, bool) {
	for _, a := range as {
		if a.Family == f {
			return a, true
		}
	}
	return Animation{}, false
}

// place positions an animation of family f on a segment of length total.
// Intro starts at 0, outro ends at the segment end, group spans from 0, and
// loop fills the gap between intro and outro.
func (as animations) place(v variant.Variant, f AnimationFamily, duration, total int64) (Animation, error) {
	if _, ok := as.find(f); ok {
		return Animation{}, fmt.Errorf("%w: %s animation", ErrFeatureExists, f)
	}
	if duration <= 0 {
		duration = v.Member.Duration
	}
	a := Animation{Type: v.String(), Family: f, Duration: duration}
	switch f {
	case FamilyOutro:
		a.Start = total - duration
	case FamilyLoop:
		if intro, ok := as.find(FamilyIntro); ok {
			a.Start = intro.Duration
		}
		end := total
		if outro, ok := as.find(FamilyOutro); ok {
			end = outro.Start
		}
		a.Duration = end - a.Start
	case FamilyGroup:
		if a.Duration <= 0 {
			a.Duration = total
		}
	}
	if a.Duration <= 0 || a.Start < 0 || a.Start+a.Duration > total {
		return Animation{}, fmt.Errorf("%w: %s animation %s does not fit a %s segment",
			ErrInvalidValue, f, FormatTime(a.Duration), FormatTime(total))
	}
	return a, nil
}

// Background filling modes.
const (
	FillBlur  = "blur"
	FillColor = "color"
)

// BackgroundFilling fills the canvas area a video segment does not cover.
type BackgroundFilling struct {
	Type  string  `json:"type"`
	Blur  float64 `json:"blur"`
	Color string  `json:"color"`
}

// Bubble is a speech-bubble decoration on a text segment.
type Bubble struct {
	EffectID   string `json:"effect_id"`
	ResourceID string `json:"resource_id"`
}

// TextEffect is a decorative ("flower") text effect.
type TextEffect struct {
	EffectID string `json:"effect_id"`
}
