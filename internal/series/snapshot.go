package series

import (
	"math"
	"time"

	json "github.com/goccy/go-json"
)

// Sample is one (timestamp, value) observation. Timestamp is epoch milliseconds.
type Sample struct {
	Timestamp int64   `json:"t"`
	Value     float64 `json:"v"`
}

// Snapshot is a read-only copy of a Record at one moment.
// Times, Speed and Altitude have equal length, most recent last.
type Snapshot struct {
	Times    []int64   `json:"times"`
	Speed    []float64 `json:"speed"`
	Altitude []float64 `json:"altitude"`
}

// Len returns the number of samples in the snapshot.
func (s Snapshot) Len() int {
	return len(s.Times)
}

// SpeedSamples pairs each timestamp with its speed value.
func (s Snapshot) SpeedSamples() []Sample {
	return zip(s.Times, s.Speed)
}

// AltitudeSamples pairs each timestamp with its altitude value.
func (s Snapshot) AltitudeSamples() []Sample {
	return zip(s.Times, s.Altitude)
}

// TimeValues converts the millisecond timestamps to time.Time.
func (s Snapshot) TimeValues() []time.Time {
	out := make([]time.Time, len(s.Times))
	for i, ms := range s.Times {
		out[i] = time.UnixMilli(ms)
	}
	return out
}

func zip(times []int64, values []float64) []Sample {
	out := make([]Sample, len(times))
	for i := range times {
		out[i] = Sample{Timestamp: times[i], Value: values[i]}
	}
	return out
}

// MarshalJSON writes missing (NaN or infinite) values as null, since JSON
// has no representation for them.
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Timestamp int64    `json:"t"`
		Value     *float64 `json:"v"`
	}{s.Timestamp, finite(s.Value)})
}

// MarshalJSON writes missing values as null and empty series as [].
func (s Snapshot) MarshalJSON() ([]byte, error) {
	times := s.Times
	if times == nil {
		times = []int64{}
	}
	return json.Marshal(struct {
		Times    []int64    `json:"times"`
		Speed    []*float64 `json:"speed"`
		Altitude []*float64 `json:"altitude"`
	}{times, nullable(s.Speed), nullable(s.Altitude)})
}

func nullable(vs []float64) []*float64 {
	out := make([]*float64, len(vs))
	for i, v := range vs {
		out[i] = finite(v)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
