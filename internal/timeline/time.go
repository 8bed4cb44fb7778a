package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Second is one second in timeline units (microseconds).
const Second int64 = 1_000_000

// Timerange is a half-open span [Start, Start+Duration) in microseconds.
type Timerange struct {
	Start    int64 `json:"start"`
	Duration int64 `json:"duration"`
}

// End returns the first microsecond after the range.
func (t Timerange) End() int64 { return t.Start + t.Duration }

// Overlaps reports whether t and o share at least one microsecond.
func (t Timerange) Overlaps(o Timerange) bool {
	return t.Start < o.End() && o.Start < t.End()
}

func (t Timerange) String() string {
	return fmt.Sprintf("[%s, %s)", FormatTime(t.Start), FormatTime(t.End()))
}

// ParseTime converts a caller-supplied time into microseconds. Numbers are
// taken as microseconds; strings are either a bare integer (microseconds) or
// a Go duration such as "1s", "1.5s", "500ms" or "1m2s".
func ParseTime(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return checkTime(int64(x), v)
	case int64:
		return checkTime(x, v)
	case float64:
		return checkTime(int64(math.Round(x)), v)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return checkTime(n, v)
		}
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, x.String())
		}
		return checkTime(int64(math.Round(f)), v)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return checkTime(n, v)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
		return checkTime(d.Microseconds(), v)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidTime, v)
	}
}

func checkTime(us int64, raw any) (int64, error) {
	if us < 0 {
		return 0, fmt.Errorf("%w: negative value %v", ErrInvalidTime, raw)
	}
	return us, nil
}

// FormatTime renders microseconds as seconds with millisecond precision.
func FormatTime(us int64) string {
	return strconv.FormatFloat(float64(us)/float64(Second), 'f', 3, 64) + "s"
}
