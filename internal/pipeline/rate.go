package pipeline

import (
	"time"

	"github.com/rusenback/hostmon/internal/model"
)

// RateEstimator turns cumulative network counters into a throughput figure
type RateEstimator struct {
	prevBytes uint64
	prevTime  time.Time
	hasPrev   bool
}

// Update returns the combined sent+received rate in KB/s since the previous
// sample and remembers s for the next call. It returns 0 on the first call and
// whenever the elapsed time is not positive. A counter reset gives a negative rate.
func (r *RateEstimator) Update(s model.Sample) float64 {
	total := s.NetTotal()
	defer func() {
		r.prevBytes = total
		r.prevTime = s.Timestamp
		r.hasPrev = true
	}()

	if !r.hasPrev {
		return 0
	}

	dt := s.Timestamp.Sub(r.prevTime).Seconds()
	if dt <= 0 {
		return 0
	}

	delta := int64(total - r.prevBytes)
	return float64(delta) / dt / 1024
}

// Reset forgets the previous sample
func (r *RateEstimator) Reset() {
	*r = RateEstimator{}
}
