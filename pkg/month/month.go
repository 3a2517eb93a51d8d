// Package month converts the month notations accepted by the API (calendar
// keys, M-notation, bare ordinals) into a canonical project-relative index.
package month

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// MinIndex and MaxIndex bound the project-relative month index. Values
	// computed outside the range saturate to the boundary instead of failing;
	// the Resolution is marked Degraded so callers can flag suspect data.
	MinIndex = 1
	MaxIndex = 60

	keyLayout = "2006-01"
)

// Resolution is the outcome of resolving a month input. Degraded marks a
// fallback resolution (missing start date, saturated index) as opposed to a
// confident one, so callers and tests can tell the two apart.
type Resolution struct {
	// CalendarKey is the YYYY-MM key, empty when it cannot be derived.
	CalendarKey string
	// Index is the project-relative month ordinal, always within [MinIndex, MaxIndex].
	Index    int
	Degraded bool
	Reason   string
}

// Key formats t as a YYYY-MM calendar key.
func Key(t time.Time) string {
	return t.Format(keyLayout)
}

// ParseKey parses a YYYY-MM calendar key into the first day of that month (UTC).
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(keyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid calendar month key %q: %w", key, err)
	}
	return t, nil
}

// AddMonths returns the first day of the month n-1 months after start, so
// n=1 is start's own month.
func AddMonths(start time.Time, n int) time.Time {
	return time.Date(start.Year(), start.Month()+time.Month(n-1), 1, 0, 0, 0, 0, time.UTC)
}

// Resolve converts any accepted month input into a canonical calendar key and
// clamped project-relative index. Accepted forms: "YYYY-MM", "M<n>", and a
// bare ordinal ("7"). Pure and deterministic; the read and write paths must
// both go through it or forecasts drift between the two.
func Resolve(input string, projectStart *time.Time) (Resolution, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Resolution{}, fmt.Errorf("empty month input")
	}

	if n, ok := parseOrdinal(input); ok {
		if n < MinIndex {
			return Resolution{}, fmt.Errorf("month ordinal must be positive, got %d", n)
		}
		return ResolveOrdinal(n, projectStart), nil
	}

	keyTime, err := ParseKey(input)
	if err != nil {
		return Resolution{}, err
	}
	return resolveCalendarKey(keyTime, projectStart), nil
}

// ResolveOrdinal resolves an already-numeric month ordinal (M-notation with
// the prefix stripped, or a bare integer field).
func ResolveOrdinal(n int, projectStart *time.Time) Resolution {
	index, saturated := clamp(n)
	resolution := Resolution{Index: index}
	if saturated {
		resolution.Degraded = true
		resolution.Reason = fmt.Sprintf("ordinal %d saturated to [%d,%d]", n, MinIndex, MaxIndex)
	}
	if projectStart == nil {
		resolution.Degraded = true
		resolution.Reason = "no project start date, calendar key unknown"
		return resolution
	}
	resolution.CalendarKey = Key(AddMonths(*projectStart, index))
	return resolution
}

func resolveCalendarKey(keyTime time.Time, projectStart *time.Time) Resolution {
	key := Key(keyTime)
	if projectStart == nil {
		// Documented degradation: without a start date the index falls back
		// to the calendar month-of-year.
		return Resolution{
			CalendarKey: key,
			Index:       int(keyTime.Month()),
			Degraded:    true,
			Reason:      "no project start date, index is month-of-year",
		}
	}

	distance := (keyTime.Year()-projectStart.Year())*12 + int(keyTime.Month()-projectStart.Month()) + 1
	index, saturated := clamp(distance)
	resolution := Resolution{CalendarKey: key, Index: index}
	if saturated {
		resolution.Degraded = true
		resolution.Reason = fmt.Sprintf("month distance %d saturated to [%d,%d]", distance, MinIndex, MaxIndex)
	}
	return resolution
}

func parseOrdinal(input string) (int, bool) {
	trimmed := input
	if strings.HasPrefix(input, "M") || strings.HasPrefix(input, "m") {
		trimmed = input[1:]
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, false
	}
	return n, true
}

func clamp(n int) (int, bool) {
	if n < MinIndex {
		return MinIndex, true
	}
	if n > MaxIndex {
		return MaxIndex, true
	}
	return n, false
}
