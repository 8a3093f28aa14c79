package logging

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultProgressInterval is the minimum time between two progress lines.
const DefaultProgressInterval = 2 * time.Second

// Progress reports how far a loop has gotten at the debug level. Lines are
// throttled so that tight loops do not flood the log. A nil *Progress
// ignores every call.
type Progress struct {
	name  string
	total int

	every rate.Sometimes
	log   *zap.Logger
}

// NewProgress creates a Progress for a loop over total items.
func NewProgress(name string, total int, interval time.Duration) *Progress {
	return &Progress{
		name:  name,
		total: total,
		every: rate.Sometimes{First: 1, Interval: interval},
		log:   Log(),
	}
}

// Step records that done items have been completed.
func (p *Progress) Step(done int) {
	if p == nil {
		return
	}

	if done >= p.total {
		p.log.Debug("progress", zap.String("loop", p.name),
			zap.Int("done", done), zap.Int("total", p.total))
		return
	}

	p.every.Do(func() {
		p.log.Debug("progress", zap.String("loop", p.name),
			zap.Int("done", done), zap.Int("total", p.total),
			zap.Float64("percent", 100*float64(done)/float64(p.total)))
	})
}
