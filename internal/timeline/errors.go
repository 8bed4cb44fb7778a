package timeline

import "errors"

var (
	// ErrInvalidTime is returned for negative or unparseable time values.
	ErrInvalidTime = errors.New("invalid time value")

	// ErrInvalidValue is returned when a numeric argument is out of range.
	ErrInvalidValue = errors.New("value out of range")

	// ErrUnsupported is returned when a segment kind lacks a capability, or a
	// variant belongs to a family the segment cannot take.
	ErrUnsupported = errors.New("operation not supported by segment")

	// ErrFeatureExists is returned when a single-instance feature (fade, mask,
	// transition, animation of one family, audio effect category) is added twice.
	ErrFeatureExists = errors.New("feature already present on segment")

	// ErrTrackExists is returned when adding a track whose name is taken.
	ErrTrackExists = errors.New("track already exists")

	// ErrTrackNotFound is returned when a named or indexed track is missing.
	ErrTrackNotFound = errors.New("track not found")

	// ErrTrackTypeMismatch is returned when a segment is placed on a track
	// of another type.
	ErrTrackTypeMismatch = errors.New("segment kind does not match track type")

	// ErrAmbiguousTrack is returned when no track is named and several
	// tracks of the segment's type exist.
	ErrAmbiguousTrack = errors.New("several tracks match; a track name is required")

	// ErrOverlap is returned when a segment overlaps another on its track.
	ErrOverlap = errors.New("segment overlaps an existing segment on the track")
)
