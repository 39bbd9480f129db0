package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestSource() *SystemSource {
	return &SystemSource{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		now: func() time.Time {
			return time.Date(2024, 1, 15, 10, 30, 45, 123456789, time.UTC)
		},
		cpuPercent: func(context.Context) (float64, error) { return 12.5, nil },
		memPercent: func(context.Context) (float64, error) { return 40.25, nil },
		netCounters: func(context.Context) (uint64, uint64, error) {
			return 1000, 2000, nil
		},
		pids: func(context.Context) ([]int32, error) {
			return []int32{1, 2, 3}, nil
		},
		processCount: func(context.Context) (int, error) { return 99, nil },
	}
}

func TestTakeSnapshot(t *testing.T) {
	s := newTestSource()

	sample, err := s.TakeSnapshot(context.Background())
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}

	if sample.CPUPercent != 12.5 {
		t.Errorf("CPUPercent = %v, want 12.5", sample.CPUPercent)
	}
	if sample.MemPercent != 40.25 {
		t.Errorf("MemPercent = %v, want 40.25", sample.MemPercent)
	}
	if sample.NetSent != 1000 || sample.NetRecv != 2000 {
		t.Errorf("net = %d/%d, want 1000/2000", sample.NetSent, sample.NetRecv)
	}
	if sample.Processes != 3 {
		t.Errorf("Processes = %d, want 3", sample.Processes)
	}
	if sample.Timestamp.Nanosecond()%1000 != 0 {
		t.Errorf("timestamp %v not truncated to microseconds", sample.Timestamp)
	}
}

func TestTakeSnapshotProcessCountFallback(t *testing.T) {
	s := newTestSource()
	s.pids = func(context.Context) ([]int32, error) {
		return nil, errors.New("pids unavailable")
	}

	sample, err := s.TakeSnapshot(context.Background())
	if err != nil {
		t.Fatalf("TakeSnapshot: %v", err)
	}
	if sample.Processes != 99 {
		t.Errorf("Processes = %d, want fallback count 99", sample.Processes)
	}
}

func TestTakeSnapshotUnavailable(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		breakFn func(s *SystemSource)
	}{
		{"cpu", func(s *SystemSource) {
			s.cpuPercent = func(context.Context) (float64, error) { return 0, boom }
		}},
		{"memory", func(s *SystemSource) {
			s.memPercent = func(context.Context) (float64, error) { return 0, boom }
		}},
		{"network", func(s *SystemSource) {
			s.netCounters = func(context.Context) (uint64, uint64, error) { return 0, 0, boom }
		}},
		{"processes", func(s *SystemSource) {
			s.pids = func(context.Context) ([]int32, error) { return nil, boom }
			s.processCount = func(context.Context) (int, error) { return 0, boom }
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSource()
			tt.breakFn(s)

			_, err := s.TakeSnapshot(context.Background())
			if !errors.Is(err, ErrSourceUnavailable) {
				t.Fatalf("err = %v, want ErrSourceUnavailable", err)
			}
			if !errors.Is(err, boom) {
				t.Errorf("err = %v, want it to wrap the cause", err)
			}
		})
	}
}

func TestNewSourceReadsHost(t *testing.T) {
	s := NewSource(DefaultConfig(), nil)

	sample, err := s.TakeSnapshot(context.Background())
	if err != nil {
		t.Skipf("host metrics unavailable here: %v", err)
	}
	if sample.CPUPercent < 0 || sample.CPUPercent > 100 {
		t.Errorf("CPUPercent = %v, want 0..100", sample.CPUPercent)
	}
	if sample.MemPercent < 0 || sample.MemPercent > 100 {
		t.Errorf("MemPercent = %v, want 0..100", sample.MemPercent)
	}
	if sample.Processes < 1 {
		t.Errorf("Processes = %d, want at least this test process", sample.Processes)
	}
}
