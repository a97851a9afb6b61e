package repair

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const secondsPerDay = 24 * 60 * 60

// TimeOfDay is a wall-clock time as seconds since local midnight.
// The zero value means the time is absent.
type TimeOfDay struct {
	secs  int
	valid bool
}

// At returns the TimeOfDay for secs seconds after midnight.
func At(secs int) (TimeOfDay, error) {
	if secs < 0 || secs >= secondsPerDay {
		return TimeOfDay{}, fmt.Errorf("%w: %d seconds out of range", ErrInvalidTimeFormat, secs)
	}
	return TimeOfDay{secs: secs, valid: true}, nil
}

// Clock builds a TimeOfDay from its components. It panics on out-of-range
// input and is meant for fixtures and tests.
func Clock(h, m, s int) TimeOfDay {
	t, err := At(h*3600 + m*60 + s)
	if err != nil || h > 23 || m > 59 || s > 59 {
		panic(fmt.Sprintf("repair: invalid clock %02d:%02d:%02d", h, m, s))
	}
	return t
}

// ParseTimeOfDay accepts "HH:mm:ss" or "HH:mm". An empty (or all-space)
// string yields an absent TimeOfDay and no error.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeOfDay{}, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
	}

	limits := []int{23, 59, 59}
	var fields [3]int
	for i, p := range parts {
		n, ok := parseComponent(p)
		if !ok || n > limits[i] {
			return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, s)
		}
		fields[i] = n
	}

	return TimeOfDay{secs: fields[0]*3600 + fields[1]*60 + fields[2], valid: true}, nil
}

// parseComponent reads one or two ASCII digits.
func parseComponent(p string) (int, bool) {
	if len(p) == 0 || len(p) > 2 {
		return 0, false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(p)
	return n, err == nil
}

// IsSet reports whether the time is present.
func (t TimeOfDay) IsSet() bool {
	return t.valid
}

// Seconds returns seconds since midnight and whether the time is present.
func (t TimeOfDay) Seconds() (int, bool) {
	return t.secs, t.valid
}

// String formats as "HH:mm:ss", or "" when absent.
func (t TimeOfDay) String() string {
	if !t.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.secs/3600, (t.secs/60)%60, t.secs%60)
}

// HourMinute formats as "HH:mm", or "" when absent.
func (t TimeOfDay) HourMinute() string {
	if !t.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.secs/3600, (t.secs/60)%60)
}

// Compare orders two present times; absent times sort after present ones.
func (t TimeOfDay) Compare(o TimeOfDay) int {
	switch {
	case !t.valid && !o.valid:
		return 0
	case !t.valid:
		return 1
	case !o.valid:
		return -1
	case t.secs < o.secs:
		return -1
	case t.secs > o.secs:
		return 1
	}
	return 0
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	if !t.valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = TimeOfDay{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimeFormat, data)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
