package model

import (
	"encoding/json"
	"sort"
)

// HistoryPoint is the subset of a snapshot needed for charting.
type HistoryPoint struct {
	Timestamp   Timestamp `json:"timestamp" yaml:"timestamp"`
	CPUUsage    float64   `json:"cpu_usage" yaml:"cpu_usage"`
	MemoryUsed  float64   `json:"memory_used" yaml:"memory_used"`
	MemoryTotal float64   `json:"memory_total" yaml:"memory_total"`
}

// MemoryPercent mirrors Snapshot.MemoryPercent.
func (p HistoryPoint) MemoryPercent() float64 {
	return memoryPercent(p.MemoryUsed, p.MemoryTotal)
}

// PointOf reduces a snapshot to a history point.
func PointOf(s Snapshot) HistoryPoint {
	return HistoryPoint{
		Timestamp:   s.Timestamp,
		CPUUsage:    s.CPUUsage,
		MemoryUsed:  s.MemoryUsed,
		MemoryTotal: s.MemoryTotal,
	}
}

// History is a window of points ordered by non-decreasing timestamp.
// Points with equal timestamps keep their arrival order.
type History []HistoryPoint

// Normalize returns a copy sorted oldest-first. The sort is stable so ties
// keep their arrival order. The receiver is not modified, and the result is
// never nil.
func (h History) Normalize() History {
	out := make(History, len(h))
	copy(out, h)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp.Time)
	})
	return out
}

// Sorted reports whether timestamps never decrease.
func (h History) Sorted() bool {
	for i := 1; i < len(h); i++ {
		if h[i].Timestamp.Before(h[i-1].Timestamp.Time) {
			return false
		}
	}
	return true
}

// Last returns the newest point, if any.
func (h History) Last() (HistoryPoint, bool) {
	if len(h) == 0 {
		return HistoryPoint{}, false
	}
	return h[len(h)-1], true
}

// MarshalJSON encodes a nil history as [] rather than null.
func (h History) MarshalJSON() ([]byte, error) {
	if h == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]HistoryPoint(h))
}
