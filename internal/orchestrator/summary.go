package orchestrator

import (
	"fmt"
	"strings"

	"draft-orchestrator/internal/timeline"
)

// BuildSummary renders a draft as plain text: one header line, then each
// track with its segments in timeline order.
//
//	draft "demo" 1920x1080@30fps duration=5.000s tracks=1 segments=1
//	track audio_0 (audio) segments=1
//	  [0.000s, 5.000s) audio a.mp3 fade=1.000s/0.000s
func BuildSummary(s *timeline.Script) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("draft %q %dx%d@%dfps duration=%s tracks=%d segments=%d\n",
		s.Name, s.Width, s.Height, s.FPS,
		timeline.FormatTime(s.Duration()), len(s.Tracks), s.SegmentCount()))

	for _, t := range s.Tracks {
		b.WriteString(fmt.Sprintf("track %s (%s) segments=%d\n", t.Name, t.Type, len(t.Segments)))
		for _, seg := range t.Segments {
			b.WriteString("  ")
			b.WriteString(seg.Target().String())
			b.WriteString(" ")
			b.WriteString(describeSegment(seg))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// describeSegment names a segment by its content and lists its decorations.
func describeSegment(seg timeline.Segment) string {
	parts := []string{string(seg.Kind())}

	switch s := seg.(type) {
	case *timeline.AudioSegment:
		parts = append(parts, s.Material.Name)
		parts = appendMedia(parts, &s.Media)
		parts = appendCount(parts, "effects", len(s.Effects))
	case *timeline.VideoSegment:
		parts = append(parts, s.Material.Name)
		parts = appendMedia(parts, &s.Media)
		if s.Mask != nil {
			parts = append(parts, "mask="+s.Mask.Type)
		}
		if s.Transition != nil {
			parts = append(parts, "transition="+s.Transition.Type)
		}
		parts = appendAnimations(parts, s.Animations)
		parts = appendCount(parts, "effects", len(s.Effects))
		parts = appendCount(parts, "filters", len(s.Filters))
	case *timeline.TextSegment:
		parts = append(parts, fmt.Sprintf("%q", s.Text), "font="+s.Font)
		parts = appendAnimations(parts, s.Animations)
		parts = appendCount(parts, "keyframes", len(s.Keyframes))
	case *timeline.StickerSegment:
		parts = append(parts, s.ResourceID)
		parts = appendCount(parts, "keyframes", len(s.Keyframes))
	case *timeline.EffectSegment:
		parts = append(parts, s.Effect.Type)
	case *timeline.FilterSegment:
		parts = append(parts, fmt.Sprintf("%s intensity=%g", s.Filter.Type, s.Filter.Intensity))
	}

	return strings.Join(parts, " ")
}

func appendMedia(parts []string, m *timeline.Media) []string {
	if m.Speed != 1 {
		parts = append(parts, fmt.Sprintf("speed=%g", m.Speed))
	}
	if m.Fade != nil {
		parts = append(parts, fmt.Sprintf("fade=%s/%s", timeline.FormatTime(m.Fade.In), timeline.FormatTime(m.Fade.Out)))
	}
	return appendCount(parts, "keyframes", len(m.Keyframes))
}

func appendAnimations(parts []string, as []timeline.Animation) []string {
	for _, a := range as {
		parts = append(parts, fmt.Sprintf("%s=%s", a.Family, a.Type))
	}
	return parts
}

func appendCount(parts []string, label string, n int) []string {
	if n == 0 {
		return parts
	}
	return append(parts, fmt.Sprintf("%s=%d", label, n))
}
