package timeline

import "path/filepath"

// RGB is a colour with each channel in [0, 1].
type RGB [3]float64

// MaterialKind classifies a local media file.
type MaterialKind string

const (
	MaterialAudio MaterialKind = "audio"
	MaterialVideo MaterialKind = "video"
	MaterialPhoto MaterialKind = "photo"
)

// Material is a local media file referenced by audio and video segments.
type Material struct {
	Kind MaterialKind  `json:"kind"`
	Path string        `json:"path"`
	Name string        `json:"name"`
	Crop *CropSettings `json:"crop,omitempty"`
}

// NewMaterial returns a material for path named after its base name.
func NewMaterial(kind MaterialKind, path string) Material {
	return Material{Kind: kind, Path: path, Name: filepath.Base(path)}
}

// ClipSettings positions a visual segment on the canvas.
type ClipSettings struct {
	Alpha          float64 `json:"alpha"`
	Rotation       float64 `json:"rotation"`
	ScaleX         float64 `json:"scale_x"`
	ScaleY         float64 `json:"scale_y"`
	TransformX     float64 `json:"transform_x"`
	TransformY     float64 `json:"transform_y"`
	FlipHorizontal bool    `json:"flip_horizontal"`
	FlipVertical   bool    `json:"flip_vertical"`
}

// DefaultClipSettings is the identity placement.
func DefaultClipSettings() ClipSettings {
	return ClipSettings{Alpha: 1, ScaleX: 1, ScaleY: 1}
}

// CropSettings are the four corners of the visible region, normalised to [0, 1].
type CropSettings struct {
	UpperLeftX  float64 `json:"upper_left_x"`
	UpperLeftY  float64 `json:"upper_left_y"`
	UpperRightX float64 `json:"upper_right_x"`
	UpperRightY float64 `json:"upper_right_y"`
	LowerLeftX  float64 `json:"lower_left_x"`
	LowerLeftY  float64 `json:"lower_left_y"`
	LowerRightX float64 `json:"lower_right_x"`
	LowerRightY float64 `json:"lower_right_y"`
}

// DefaultCropSettings keeps the full frame.
func DefaultCropSettings() CropSettings {
	return CropSettings{
		UpperRightX: 1,
		LowerLeftY:  1,
		LowerRightX: 1,
		LowerRightY: 1,
	}
}

// TextStyle is the character styling of a text segment.
type TextStyle struct {
	Size          float64 `json:"size"`
	Bold          bool    `json:"bold"`
	Italic        bool    `json:"italic"`
	Underline     bool    `json:"underline"`
	Color         RGB     `json:"color"`
	Alpha         float64 `json:"alpha"`
	Align         int     `json:"align"`
	Vertical      bool    `json:"vertical"`
	LetterSpacing int     `json:"letter_spacing"`
	LineSpacing   int     `json:"line_spacing"`
	AutoWrapping  bool    `json:"auto_wrapping"`
	MaxLineWidth  float64 `json:"max_line_width"`
}

// TextBorder is a stroke around glyphs.
type TextBorder struct {
	Alpha float64 `json:"alpha"`
	Color RGB     `json:"color"`
	Width float64 `json:"width"`
}

// TextShadow is a drop shadow behind glyphs.
type TextShadow struct {
	Alpha    float64 `json:"alpha"`
	Color    RGB     `json:"color"`
	Diffuse  float64 `json:"diffuse"`
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// TextBackground is a filled box behind the text. Color is a hex string.
type TextBackground struct {
	Color            string  `json:"color"`
	Style            int     `json:"style"`
	Alpha            float64 `json:"alpha"`
	RoundRadius      float64 `json:"round_radius"`
	Height           float64 `json:"height"`
	Width            float64 `json:"width"`
	HorizontalOffset float64 `json:"horizontal_offset"`
	VerticalOffset   float64 `json:"vertical_offset"`
}
