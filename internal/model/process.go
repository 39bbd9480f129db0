package model

import "time"

// ProcessInfo represents a running process in the process list
type ProcessInfo struct {
	PID        int32   `json:"pid" yaml:"pid"`
	Name       string  `json:"name" yaml:"name"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent float64 `json:"mem_percent" yaml:"mem_percent"`
}

// ProcessDetail holds the extended fields shown when inspecting one process
type ProcessDetail struct {
	PID        int32     `json:"pid" yaml:"pid"`
	Name       string    `json:"name" yaml:"name"`
	Exe        string    `json:"exe" yaml:"exe"`
	Cmdline    []string  `json:"cmdline" yaml:"cmdline"`
	Status     string    `json:"status" yaml:"status"`
	Username   string    `json:"username" yaml:"username"`
	CreateTime time.Time `json:"create_time" yaml:"create_time"`
	CPUPercent float64   `json:"cpu_percent" yaml:"cpu_percent"`
	MemPercent float64   `json:"mem_percent" yaml:"mem_percent"`
}
