package clock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in   string
		want TimeOfDay
		ok   bool
	}{
		{"9:05", 9*60 + 5, true},
		{"09:05", 9*60 + 5, true},
		{"23:59:00", 23*60 + 59, true},
		{"00:00", 0, true},
		{"24:00", 0, false},
		{"12:30:15", 0, false},
		{"9h", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEndOfDay(t *testing.T) {
	got, err := ParseEndOfDay(" 24:00 ")
	require.NoError(t, err)
	assert.Equal(t, EndOfDay, got)
	assert.Equal(t, "24:00", got.String())

	got, err = ParseEndOfDay("17:30")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay(17*60+30), got)

	_, err = ParseEndOfDay("24:01")
	assert.ErrorIs(t, err, ErrInvalidTimeOfDay)
}

func TestTimeOfDay_JSONRoundTripsMidnightEnd(t *testing.T) {
	data, err := json.Marshal(EndOfDay)
	require.NoError(t, err)
	assert.Equal(t, `"24:00"`, string(data))

	var back TimeOfDay
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, EndOfDay, back)
}
