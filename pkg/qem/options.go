package qem

import (
	"fmt"
	"runtime"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Options controls a simplification run.
type Options struct {
	// TargetCount is the live vertex count at which the main loop stops.
	TargetCount int `yaml:"target_count"`
	// Aggressiveness is the threshold growth exponent. 5..8 work well.
	Aggressiveness float64 `yaml:"aggressiveness"`
	// PreserveBorder keeps open boundaries on their original polyline.
	PreserveBorder bool `yaml:"preserve_border"`
	MaxIterations  int  `yaml:"max_iterations"`
	// ThresholdLossless is the fixed error bound of the cleanup passes.
	ThresholdLossless float64 `yaml:"threshold_lossless"`
	Lossless          bool    `yaml:"lossless"`
	// UpdateRate is the number of collapses between border flag refreshes.
	UpdateRate int     `yaml:"update_rate"`
	Alpha      float64 `yaml:"alpha"`
	// K weights the fold-plane penalty added to border vertices.
	K float64 `yaml:"k"`

	// FlipThreshold is the minimum dot product between a moved triangle's
	// normal and its original normal.
	FlipThreshold float64 `yaml:"flip_threshold"`
	// BorderTolerance bounds how far a preserved border vertex may leave its
	// boundary, as a squared fraction of the mesh bounding box diagonal.
	BorderTolerance float64 `yaml:"border_tolerance"`
	// Workers caps the goroutines of the parallel error refresh.
	Workers int `yaml:"workers"`
	// ParallelMin is the number of dirty triangles below which the refresh
	// runs on the calling goroutine.
	ParallelMin int `yaml:"parallel_min"`

	Logger *zap.Logger `yaml:"-"`
}

// DefaultOptions returns the settings that work well for most models.
func DefaultOptions() Options {
	return Options{
		TargetCount:       0,
		Aggressiveness:    7,
		PreserveBorder:    false,
		MaxIterations:     100,
		ThresholdLossless: 1e-4,
		Lossless:          false,
		UpdateRate:        5,
		Alpha:             1e-9,
		K:                 3,
		FlipThreshold:     0.2,
		BorderTolerance:   1e-6,
		Workers:           runtime.GOMAXPROCS(0),
		ParallelMin:       2048,
	}
}

// Validate reports every out-of-range field at once.
func (o Options) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: %s", ErrInvalidOptions, fmt.Sprintf(format, args...)))
		}
	}
	check(o.TargetCount >= 0, "target_count must be >= 0, got %d", o.TargetCount)
	check(o.Aggressiveness > 0, "aggressiveness must be > 0, got %g", o.Aggressiveness)
	check(o.MaxIterations >= 0, "max_iterations must be >= 0, got %d", o.MaxIterations)
	check(o.ThresholdLossless >= 0, "threshold_lossless must be >= 0, got %g", o.ThresholdLossless)
	check(o.UpdateRate > 0, "update_rate must be > 0, got %d", o.UpdateRate)
	check(o.Alpha > 0, "alpha must be > 0, got %g", o.Alpha)
	check(o.K >= 0, "k must be >= 0, got %g", o.K)
	check(o.FlipThreshold >= -1 && o.FlipThreshold <= 1, "flip_threshold must be in [-1, 1], got %g", o.FlipThreshold)
	check(o.BorderTolerance >= 0, "border_tolerance must be >= 0, got %g", o.BorderTolerance)
	check(o.Workers >= 0, "workers must be >= 0, got %d", o.Workers)
	check(o.ParallelMin >= 0, "parallel_min must be >= 0, got %d", o.ParallelMin)
	return err
}

// logger returns the configured logger or a no-op one.
func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// workers returns the effective parallelism.
func (o Options) workers() int {
	if o.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return o.Workers
}
