package defarr

import (
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/microlens/deflect/lens"
)

// Stats summarizes the work done by a single call.
type Stats struct {
	// Evaluations is the number of pointwise deflection evaluations.
	Evaluations int64 `yaml:"evaluations"`
	// Reused is the number of block corners read back from the field
	// instead of being evaluated again.
	Reused int64 `yaml:"reused"`
	// Interpolated is the number of nodes written by interpolation.
	Interpolated int64 `yaml:"interpolated"`

	Counts  lens.Counts   `yaml:"counts"`
	Workers int           `yaml:"workers"`
	Elapsed time.Duration `yaml:"elapsed"`
}

func (s *Stats) add(o Stats) {
	s.Evaluations += o.Evaluations
	s.Reused += o.Reused
	s.Interpolated += o.Interpolated
	s.Counts.Add(o.Counts)
}

// MarshalLogObject lets Stats be logged with zap.Object.
func (s Stats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("evaluations", s.Evaluations)
	enc.AddInt64("reused", s.Reused)
	enc.AddInt64("interpolated", s.Interpolated)
	enc.AddInt64("cells", s.Counts.Cells)
	enc.AddInt64("stars", s.Counts.Stars)
	enc.AddInt("workers", s.Workers)
	enc.AddDuration("elapsed", s.Elapsed)
	return nil
}
