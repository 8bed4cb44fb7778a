package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"draft-orchestrator/internal/timeline"
)

// decode re-encodes a wire map and decodes it into dst, so that map values
// of any numeric representation land in typed fields.
func decode(raw map[string]any, dst any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return invalidf("%v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return invalidf("%v", err)
	}
	return nil
}

// Micros is a time value that decodes from a microsecond number or a
// duration string.
type Micros int64

// UnmarshalJSON implements json.Unmarshaler.
func (m *Micros) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	us, err := timeline.ParseTime(v)
	if err != nil {
		return err
	}
	*m = Micros(us)
	return nil
}

// Color decodes from a [r, g, b] triple in [0, 1] or a "#RRGGBB" / "#RGB" string.
type Color timeline.RGB

// UnmarshalJSON implements json.Unmarshaler.
func (c *Color) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		rgb, err := ParseHexColor(s)
		if err != nil {
			return err
		}
		*c = Color(rgb)
		return nil
	}
	var triple []float64
	if err := json.Unmarshal(b, &triple); err != nil || len(triple) != 3 {
		return fmt.Errorf("color must be a hex string or [r, g, b], got %s", b)
	}
	for _, v := range triple {
		if v < 0 || v > 1 {
			return fmt.Errorf("color channel %g outside 0-1", v)
		}
	}
	*c = Color{triple[0], triple[1], triple[2]}
	return nil
}

// ParseHexColor converts "#RRGGBB" or "#RGB" into channels in [0, 1].
// The short form doubles each digit.
func ParseHexColor(s string) (timeline.RGB, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return timeline.RGB{}, fmt.Errorf("invalid hex color %q", s)
	}
	var rgb timeline.RGB
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return timeline.RGB{}, fmt.Errorf("invalid hex color %q", s)
		}
		rgb[i] = float64(n) / 255
	}
	return rgb, nil
}

func pick[T any](def T, vals ...*T) T {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return def
}

type timerangeWire struct {
	Start    *Micros `json:"start"`
	Duration *Micros `json:"duration"`
}

// DefaultDuration applies when a time range omits its duration.
const DefaultDuration = timeline.Second

func (w *timerangeWire) timerange() timeline.Timerange {
	if w == nil {
		return timeline.Timerange{Duration: DefaultDuration}
	}
	return timeline.Timerange{
		Start:    int64(pick(0, w.Start)),
		Duration: int64(pick(Micros(DefaultDuration), w.Duration)),
	}
}

type clipWire struct {
	Alpha          *float64 `json:"alpha"`
	Rotation       *float64 `json:"rotation"`
	ScaleX         *float64 `json:"scale_x"`
	ScaleY         *float64 `json:"scale_y"`
	TransformX     *float64 `json:"transform_x"`
	TransformY     *float64 `json:"transform_y"`
	FlipHorizontal *bool    `json:"flip_horizontal"`
	FlipVertical   *bool    `json:"flip_vertical"`
}

func (w *clipWire) settings() *timeline.ClipSettings {
	if w == nil {
		return nil
	}
	d := timeline.DefaultClipSettings()
	return &timeline.ClipSettings{
		Alpha:          pick(d.Alpha, w.Alpha),
		Rotation:       pick(d.Rotation, w.Rotation),
		ScaleX:         pick(d.ScaleX, w.ScaleX),
		ScaleY:         pick(d.ScaleY, w.ScaleY),
		TransformX:     pick(d.TransformX, w.TransformX),
		TransformY:     pick(d.TransformY, w.TransformY),
		FlipHorizontal: pick(d.FlipHorizontal, w.FlipHorizontal),
		FlipVertical:   pick(d.FlipVertical, w.FlipVertical),
	}
}

type cropWire struct {
	UpperLeftX  *float64 `json:"upper_left_x"`
	UpperLeftY  *float64 `json:"upper_left_y"`
	UpperRightX *float64 `json:"upper_right_x"`
	UpperRightY *float64 `json:"upper_right_y"`
	LowerLeftX  *float64 `json:"lower_left_x"`
	LowerLeftY  *float64 `json:"lower_left_y"`
	LowerRightX *float64 `json:"lower_right_x"`
	LowerRightY *float64 `json:"lower_right_y"`
}

func (w *cropWire) settings() *timeline.CropSettings {
	if w == nil {
		return nil
	}
	d := timeline.DefaultCropSettings()
	return &timeline.CropSettings{
		UpperLeftX:  pick(d.UpperLeftX, w.UpperLeftX),
		UpperLeftY:  pick(d.UpperLeftY, w.UpperLeftY),
		UpperRightX: pick(d.UpperRightX, w.UpperRightX),
		UpperRightY: pick(d.UpperRightY, w.UpperRightY),
		LowerLeftX:  pick(d.LowerLeftX, w.LowerLeftX),
		LowerLeftY:  pick(d.LowerLeftY, w.LowerLeftY),
		LowerRightX: pick(d.LowerRightX, w.LowerRightX),
		LowerRightY: pick(d.LowerRightY, w.LowerRightY),
	}
}
