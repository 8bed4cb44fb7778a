package timeline

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Track is an ordered lane of non-overlapping segments of one kind.
type Track struct {
	Name     string
	Type     Kind
	Segments []Segment
}

// End returns the end of the last segment on the track.
func (t *Track) End() int64 {
	var end int64
	for _, s := range t.Segments {
		if e := s.Target().End(); e > end {
			end = e
		}
	}
	return end
}

func (t *Track) add(seg Segment) error {
	r := seg.Target()
	for _, existing := range t.Segments {
		if existing.Target().Overlaps(r) {
			return fmt.Errorf("%w: %s on track %q collides with %s",
				ErrOverlap, r, t.Name, existing.Target())
		}
	}
	t.Segments = append(t.Segments, seg)
	sort.SliceStable(t.Segments, func(i, j int) bool {
		return t.Segments[i].Target().Start < t.Segments[j].Target().Start
	})
	return nil
}

type segmentJSON struct {
	Kind Kind    `json:"kind"`
	Data Segment `json:"data"`
}

// MarshalJSON renders segments tagged with their kind.
func (t *Track) MarshalJSON() ([]byte, error) {
	segs := make([]segmentJSON, len(t.Segments))
	for i, s := range t.Segments {
		segs[i] = segmentJSON{Kind: s.Kind(), Data: s}
	}
	return json.Marshal(struct {
		Name     string        `json:"name"`
		Type     Kind          `json:"type"`
		Segments []segmentJSON `json:"segments"`
	}{t.Name, t.Type, segs})
}

// Script is a draft project: canvas settings plus tracks in creation order.
type Script struct {
	Name   string   `json:"name"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	FPS    int      `json:"fps"`
	Tracks []*Track `json:"tracks"`
}

// NewScript validates the canvas and returns an empty project.
func NewScript(name string, width, height, fps int) (*Script, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: canvas %dx%d", ErrInvalidValue, width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps %d", ErrInvalidValue, fps)
	}
	return &Script{Name: name, Width: width, Height: height, FPS: fps}, nil
}

// Track returns the track with the given name.
func (s *Script) Track(name string) (*Track, bool) {
	for _, t := range s.Tracks {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// TrackAt returns the track at index i in creation order.
func (s *Script) TrackAt(i int) (*Track, error) {
	if i < 0 || i >= len(s.Tracks) {
		return nil, fmt.Errorf("%w: index %d", ErrTrackNotFound, i)
	}
	return s.Tracks[i], nil
}

// AddTrack appends a track. An empty name becomes "<type>_<n>", n counting
// existing tracks of that type.
func (s *Script) AddTrack(typ Kind, name string) (*Track, error) {
	if _, ok := ParseKind(string(typ)); !ok {
		return nil, fmt.Errorf("%w: track type %q", ErrInvalidValue, typ)
	}
	if name == "" {
		n := len(s.tracksOfType(typ))
		name = fmt.Sprintf("%s_%d", typ, n)
		for {
			if _, taken := s.Track(name); !taken {
				break
			}
			n++
			name = fmt.Sprintf("%s_%d", typ, n)
		}
	}
	if _, taken := s.Track(name); taken {
		return nil, fmt.Errorf("%w: %q", ErrTrackExists, name)
	}
	t := &Track{Name: name, Type: typ}
	s.Tracks = append(s.Tracks, t)
	return t, nil
}

// AddSegment places seg on the named track, or on the only track of its
// kind when trackName is empty. With no track of that kind, one is created.
func (s *Script) AddSegment(seg Segment, trackName string) (*Track, error) {
	var t *Track
	if trackName != "" {
		var ok bool
		if t, ok = s.Track(trackName); !ok {
			return nil, fmt.Errorf("%w: %q", ErrTrackNotFound, trackName)
		}
	} else {
		switch matches := s.tracksOfType(seg.Kind()); len(matches) {
		case 0:
			created, err := s.AddTrack(seg.Kind(), "")
			if err != nil {
				return nil, err
			}
			t = created
		case 1:
			t = matches[0]
		default:
			return nil, fmt.Errorf("%w: %d %s tracks", ErrAmbiguousTrack, len(matches), seg.Kind())
		}
	}
	if t.Type != seg.Kind() {
		return nil, fmt.Errorf("%w: %s segment on %s track %q", ErrTrackTypeMismatch, seg.Kind(), t.Type, t.Name)
	}
	if err := t.add(seg); err != nil {
		return nil, err
	}
	return t, nil
}

// Duration is the end of the latest segment on any track.
func (s *Script) Duration() int64 {
	var d int64
	for _, t := range s.Tracks {
		if e := t.End(); e > d {
			d = e
		}
	}
	return d
}

// SegmentCount returns the number of segments across all tracks.
func (s *Script) SegmentCount() int {
	n := 0
	for _, t := range s.Tracks {
		n += len(t.Segments)
	}
	return n
}

func (s *Script) tracksOfType(k Kind) []*Track {
	var out []*Track
	for _, t := range s.Tracks {
		if t.Type == k {
			out = append(out, t)
		}
	}
	return out
}
