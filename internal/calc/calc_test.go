package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{"  -75.5 ", -75.5},
		{"", 0},
		{"   ", 0},
		{"1e3", 1000},
		{".5", 0.5},
		{"0x10", 16},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseNumber(tt.in), "ParseNumber(%q)", tt.in)
	}

	for _, in := range []string{"abc", "12abc", "inf", "NaN", "1_000", "0xZZ", "1,5"} {
		assert.True(t, math.IsNaN(ParseNumber(in)), "ParseNumber(%q) should be NaN", in)
	}
}

func TestDistance(t *testing.T) {
	// Same point is always zero.
	assert.Equal(t, 0.0, Distance(10, 20, 10, 20))

	// Formula evaluated directly on degree values.
	inLat, inLon, lat, lon := 40.0, -74.0, 42.2456, 75.6789
	a := math.Pow(math.Sin((inLat-lat)/2), 2) +
		math.Cos(lat)*math.Cos(inLat)*math.Pow(math.Sin((inLon-lon)/2), 2)
	want := 2 * 6371 * math.Asin(math.Sqrt(a))
	assert.InDelta(t, want, Distance(inLat, inLon, lat, lon), 1e-9)

	assert.True(t, math.IsNaN(DistanceFromStrings("north", "0", 1, 1)))
}

func TestPower(t *testing.T) {
	assert.InDelta(t, 300.0, Power(2, 0.15, 1000), 1e-9)
	assert.InDelta(t, 300.0, PowerFromStrings("2", "0.15", "1000"), 1e-9)
	assert.Equal(t, 0.0, PowerFromStrings("", "0.2", "1000"))
	assert.True(t, math.IsNaN(PowerFromStrings("two", "0.2", "1000")))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "300", FormatNumber(300))
	assert.Equal(t, "NaN", FormatNumber(math.NaN()))
	assert.Equal(t, "0.1", FormatNumber(0.1))
}
