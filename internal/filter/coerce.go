package filter

import (
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// Comparison coerces both sides with the same precedence: numeric first,
// then RFC 3339 date, then plain string. A coercion only wins when it
// succeeds on both sides; disagreement falls back to string comparison.

func equal(a, b string) bool {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			return an == bn
		}
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Equal(bt)
		}
	}
	return a == b
}

// ordered returns the sign of a compared to b under numeric or date
// ordering. It reports false when neither coercion succeeds on both
// sides; ordering has no string fallback.
func ordered(a, b string) (int, bool) {
	if an, ok := toNumber(a); ok {
		if bn, ok := toNumber(b); ok {
			switch {
			case an > bn:
				return 1, true
			case an < bn:
				return -1, true
			default:
				return 0, true
			}
		}
	}
	if at, ok := toTime(a); ok {
		if bt, ok := toTime(b); ok {
			return at.Compare(bt), true
		}
	}
	log.Debug().Str("left", a).Str("right", b).Msgf("%v: values are not orderable", ErrUnsupported)
	return 0, false
}

func toNumber(s string) (float64, bool) {
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func toTime(s string) (time.Time, bool) {
	value, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return value, true
}
