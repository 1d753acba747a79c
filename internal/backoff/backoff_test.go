package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	var tests = []struct {
		name     string
		attempt  int
		base     time.Duration
		max      time.Duration
		expected time.Duration
	}{
		{
			name:     "first attempt returns base",
			attempt:  0,
			base:     time.Second,
			max:      8 * time.Second,
			expected: time.Second,
		},
		{
			name:     "doubles per attempt",
			attempt:  2,
			base:     time.Second,
			max:      time.Minute,
			expected: 4 * time.Second,
		},
		{
			name:     "caps at max",
			attempt:  10,
			base:     time.Second,
			max:      8 * time.Second,
			expected: 8 * time.Second,
		},
		{
			name:     "survives shift overflow",
			attempt:  80,
			base:     time.Second,
			max:      5 * time.Minute,
			expected: 5 * time.Minute,
		},
		{
			name:     "base above max is clamped",
			attempt:  0,
			base:     time.Minute,
			max:      time.Second,
			expected: time.Second,
		},
		{
			name:     "zero base yields no delay",
			attempt:  3,
			base:     0,
			max:      time.Minute,
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Next(tt.attempt, tt.base, tt.max))
		})
	}
}

func TestNext_MonitorSchedule(t *testing.T) {
	// Three consecutive probe failures with base 1s and cap 8s widen the
	// poll interval to 2s, 4s, 8s and stay capped afterwards.
	base := time.Second
	max := 8 * time.Second

	assert.Equal(t, 2*time.Second, Next(1, base, max))
	assert.Equal(t, 4*time.Second, Next(2, base, max))
	assert.Equal(t, 8*time.Second, Next(3, base, max))
	assert.Equal(t, 8*time.Second, Next(4, base, max))
}
