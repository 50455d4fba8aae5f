// Package series turns a history window into chart-ready parallel sequences.
// Everything here is pure: the same input always yields the same output and
// nothing is retained between calls.
package series

import (
	"math"
	"time"

	"github.com/rileyhilliard/fleetwatch/internal/model"
)

// LabelLayout formats x-axis labels as local time of day.
const LabelLayout = "15:04:05"

// Series holds three equal-length sequences in history order.
// MemPercent holds NaN where a point has no memory total.
type Series struct {
	Labels     []string
	CPU        []float64
	MemPercent []float64
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Labels)
}

// Derive builds a Series using the process-local time zone for labels.
func Derive(h model.History) Series {
	return DeriveIn(h, time.Local)
}

// DeriveIn builds a Series with labels rendered in loc. Empty input yields
// three empty, non-nil slices.
func DeriveIn(h model.History, loc *time.Location) Series {
	if loc == nil {
		loc = time.Local
	}
	s := Series{
		Labels:     make([]string, len(h)),
		CPU:        make([]float64, len(h)),
		MemPercent: make([]float64, len(h)),
	}
	for i, p := range h {
		s.Labels[i] = p.Timestamp.In(loc).Format(LabelLayout)
		s.CPU[i] = p.CPUUsage
		s.MemPercent[i] = p.MemoryPercent()
	}
	return s
}

// Stat summarizes one sequence. All fields are NaN when no finite value exists.
type Stat struct {
	Min, Max, Avg, Last float64
	Count               int
}

// Stats summarizes the CPU and memory sequences for chart captions.
func (s Series) Stats() (cpu, mem Stat) {
	return summarize(s.CPU), summarize(s.MemPercent)
}

func summarize(values []float64) Stat {
	st := Stat{Min: math.NaN(), Max: math.NaN(), Avg: math.NaN(), Last: math.NaN()}
	var sum float64
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if st.Count == 0 || v < st.Min {
			st.Min = v
		}
		if st.Count == 0 || v > st.Max {
			st.Max = v
		}
		sum += v
		st.Last = v
		st.Count++
	}
	if st.Count > 0 {
		st.Avg = sum / float64(st.Count)
	}
	return st
}

// Finite returns values with NaN and Inf entries removed, for renderers that
// cannot draw gaps.
func Finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
