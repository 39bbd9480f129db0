// internal/model/stats.go
package model

import "time"

// Sample is one observation of host-wide resource usage
type Sample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// CPU and memory usage, 0-100
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent float64 `json:"mem_percent" yaml:"mem_percent"`

	// Network counters are cumulative since boot
	NetSent uint64 `json:"net_sent" yaml:"net_sent"` // Total bytes sent
	NetRecv uint64 `json:"net_recv" yaml:"net_recv"` // Total bytes received

	// Processes currently visible to this user
	Processes int `json:"processes" yaml:"processes"`
}

// NetTotal returns sent+received bytes
func (s Sample) NetTotal() uint64 {
	return s.NetSent + s.NetRecv
}

// Record is a persisted Sample with its surrogate row id
type Record struct {
	ID     int64 `json:"id" yaml:"id"`
	Sample `yaml:",inline"`
}
