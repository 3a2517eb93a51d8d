package month

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startDate(year int, m time.Month) *time.Time {
	t := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		projectStart *time.Time
		wantKey      string
		wantIndex    int
		wantDegraded bool
		wantErr      bool
	}{
		{
			name:         "calendar key with start date",
			input:        "2026-11",
			projectStart: startDate(2025, time.June),
			wantKey:      "2026-11",
			wantIndex:    18,
		},
		{
			name:         "calendar key of the start month itself",
			input:        "2025-06",
			projectStart: startDate(2025, time.June),
			wantKey:      "2025-06",
			wantIndex:    1,
		},
		{
			name:         "M-notation with start date",
			input:        "M3",
			projectStart: startDate(2025, time.June),
			wantKey:      "2025-08",
			wantIndex:    3,
		},
		{
			name:         "bare ordinal with start date",
			input:        "13",
			projectStart: startDate(2025, time.June),
			wantKey:      "2026-06",
			wantIndex:    13,
		},
		{
			name:         "calendar key without start date falls back to month-of-year",
			input:        "2026-11",
			projectStart: nil,
			wantKey:      "2026-11",
			wantIndex:    11,
			wantDegraded: true,
		},
		{
			name:         "ordinal without start date has no calendar key",
			input:        "M7",
			projectStart: nil,
			wantKey:      "",
			wantIndex:    7,
			wantDegraded: true,
		},
		{
			name:         "far future key saturates to 60",
			input:        "2032-01",
			projectStart: startDate(2020, time.January),
			wantKey:      "2032-01",
			wantIndex:    60,
			wantDegraded: true,
		},
		{
			name:         "key before project start saturates to 1",
			input:        "2024-12",
			projectStart: startDate(2025, time.June),
			wantKey:      "2024-12",
			wantIndex:    1,
			wantDegraded: true,
		},
		{
			name:         "ordinal above 60 saturates",
			input:        "M99",
			projectStart: startDate(2025, time.June),
			wantIndex:    60,
			wantKey:      "2030-05",
			wantDegraded: true,
		},
		{
			name:    "zero ordinal is rejected",
			input:   "M0",
			wantErr: true,
		},
		{
			name:    "garbage input is rejected",
			input:   "November",
			wantErr: true,
		},
		{
			name:    "empty input is rejected",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.input, tt.projectStart)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, got.CalendarKey)
			assert.Equal(t, tt.wantIndex, got.Index)
			assert.Equal(t, tt.wantDegraded, got.Degraded)
		})
	}
}

// Resolving an ordinal to a calendar key and resolving that key back must
// return the same index, for any start date. Otherwise the write path and the
// read path disagree about which cell a month belongs to.
func TestResolve_InverseProperty(t *testing.T) {
	starts := []*time.Time{
		startDate(2023, time.January),
		startDate(2025, time.June),
		startDate(2024, time.December),
	}
	for _, start := range starts {
		for n := MinIndex; n <= MaxIndex; n++ {
			forward := ResolveOrdinal(n, start)
			require.NotEmpty(t, forward.CalendarKey)

			back, err := Resolve(forward.CalendarKey, start)
			require.NoError(t, err)
			assert.Equal(t, n, back.Index,
				fmt.Sprintf("start=%s n=%d key=%s", Key(*start), n, forward.CalendarKey))
		}
	}
}

func TestResolveOrdinal_NoStartDate(t *testing.T) {
	got := ResolveOrdinal(18, nil)

	assert.Equal(t, 18, got.Index)
	assert.Empty(t, got.CalendarKey)
	assert.True(t, got.Degraded)
}

func TestAddMonths(t *testing.T) {
	start := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-06", Key(AddMonths(start, 1)))
	assert.Equal(t, "2026-11", Key(AddMonths(start, 18)))
	assert.Equal(t, "2026-01", Key(AddMonths(start, 8)))
}
