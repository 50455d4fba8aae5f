// Package model defines the host, snapshot and history records served by the
// metrics service. Values are decoded once per fetch and replaced wholesale;
// nothing in this package mutates a record after it is built.
package model

import (
	"math"
	"sort"
)

// Host is a monitored machine as registered with the metrics service.
type Host struct {
	ID         int       `json:"id" yaml:"id"`
	Hostname   string    `json:"hostname" yaml:"hostname"`
	IPAddress  string    `json:"ip_address" yaml:"ip_address"`
	MACAddress string    `json:"mac_address" yaml:"mac_address"`
	OSInfo     string    `json:"os_info" yaml:"os_info"`
	CreatedAt  Timestamp `json:"created_at" yaml:"created_at"`
	LastSeen   Timestamp `json:"last_seen" yaml:"last_seen"`
}

// Snapshot is one sample of a host's resource usage.
type Snapshot struct {
	ID        int       `json:"id" yaml:"id"`
	HostID    int       `json:"computer_id" yaml:"computer_id"`
	Timestamp Timestamp `json:"timestamp" yaml:"timestamp"`

	// CPUUsage is a percentage in [0, 100].
	CPUUsage float64 `json:"cpu_usage" yaml:"cpu_usage"`

	// Memory figures are in gigabytes.
	MemoryUsed  float64 `json:"memory_used" yaml:"memory_used"`
	MemoryTotal float64 `json:"memory_total" yaml:"memory_total"`

	RunningProcesses []ProcessEntry       `json:"running_processes" yaml:"running_processes"`
	DiskUsage        map[string]DiskUsage `json:"disk_usage" yaml:"disk_usage"`
	NetworkStats     NetworkStats         `json:"network_stats" yaml:"network_stats"`
}

// MemoryPercent returns used/total as a percentage, or NaN when the total is
// zero so callers can tell "no data" apart from "0% used".
func (s Snapshot) MemoryPercent() float64 {
	return memoryPercent(s.MemoryUsed, s.MemoryTotal)
}

// ProcessEntry is one row of the top-processes list. Entries are not
// correlated between snapshots.
type ProcessEntry struct {
	PID           int     `json:"pid" yaml:"pid"`
	Name          string  `json:"name" yaml:"name"`
	CPUPercent    float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent" yaml:"memory_percent"`
}

// TopProcesses returns the n entries with the highest CPU share, ties broken
// by PID. A negative n keeps every entry. The input is left untouched.
func TopProcesses(entries []ProcessEntry, n int) []ProcessEntry {
	sorted := append([]ProcessEntry{}, entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CPUPercent != sorted[j].CPUPercent {
			return sorted[i].CPUPercent > sorted[j].CPUPercent
		}
		return sorted[i].PID < sorted[j].PID
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// DiskUsage describes one mounted filesystem, sizes in gigabytes.
type DiskUsage struct {
	Total   float64 `json:"total" yaml:"total"`
	Used    float64 `json:"used" yaml:"used"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// NetworkStats are cumulative interface counters since boot.
type NetworkStats struct {
	BytesSent   uint64 `json:"bytes_sent" yaml:"bytes_sent"`
	BytesRecv   uint64 `json:"bytes_recv" yaml:"bytes_recv"`
	PacketsSent uint64 `json:"packets_sent" yaml:"packets_sent"`
	PacketsRecv uint64 `json:"packets_recv" yaml:"packets_recv"`
}

func memoryPercent(used, total float64) float64 {
	if total == 0 {
		return math.NaN()
	}
	return used / total * 100
}
