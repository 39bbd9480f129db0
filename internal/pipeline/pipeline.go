package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/rusenback/hostmon/internal/collector"
	"github.com/rusenback/hostmon/internal/model"
)

// Store is where every sample is appended
type Store interface {
	Insert(ctx context.Context, s model.Sample) (int64, error)
}

// Result is what one tick produced
type Result struct {
	Point Point
	// ID is the row id assigned by the store, 0 if the insert failed
	ID int64
	// History is a copy of the buffer after the push
	History []Point
}

// Pipeline runs the sample, rate, push, insert sequence.
// Ticks are serialized; callers may invoke Tick from any goroutine.
type Pipeline struct {
	source  collector.SnapshotSource
	store   Store
	logger  *zap.Logger
	mu      sync.Mutex
	rate    RateEstimator
	history *History
}

// New creates a Pipeline. store may be nil, in which case samples are not persisted.
func New(source collector.SnapshotSource, store Store, historySize int, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		source:  source,
		store:   store,
		logger:  logger,
		history: NewHistory(historySize),
	}
}

// Tick runs the pipeline once.
//
// When the source is unavailable nothing is recorded and the error wraps
// collector.ErrSourceUnavailable. When only the insert fails the returned
// Result is still valid, the point is in the history, and the error is the
// store's.
func (p *Pipeline) Tick(ctx context.Context) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	sample, err := p.source.TakeSnapshot(ctx)
	if err != nil {
		p.logger.Warn("sample skipped", zap.Error(err))
		return Result{}, err
	}

	rate := p.rate.Update(sample)
	p.history.Push(sample, rate)

	res := Result{
		Point:   Point{Sample: sample, RateKBps: rate},
		History: p.history.Snapshot(),
	}

	if p.store == nil {
		return res, nil
	}

	id, err := p.store.Insert(ctx, sample)
	if err != nil {
		p.logger.Error("persisting sample failed", zap.Error(err))
		return res, err
	}
	res.ID = id

	p.logger.Debug("sample recorded",
		zap.Int64("id", id),
		zap.Float64("cpu", sample.CPUPercent),
		zap.Float64("mem", sample.MemPercent),
		zap.Float64("rate_kbps", rate),
	)
	return res, nil
}

// History returns a copy of the buffered points, oldest first
func (p *Pipeline) History() []Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Snapshot()
}
