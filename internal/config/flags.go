package config

import "flag"

// Flags holds command-line overrides registered on a FlagSet. Only flags
// the user actually set are applied.
type Flags struct {
	fs *flag.FlagSet

	config         string
	debug          bool
	target         int
	ratio          float64
	aggressiveness float64
	preserveBorder bool
	lossless       bool
	maxIterations  int
	workers        int
	logFile        string
	logFormat      string
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.config, "config", "", "Path to config file")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.target, "target", 0, "Target vertex count")
	fs.Float64Var(&f.ratio, "ratio", 0, "Fraction of vertices to keep when -target is 0")
	fs.Float64Var(&f.aggressiveness, "aggressiveness", 0, "Threshold growth exponent")
	fs.BoolVar(&f.preserveBorder, "preserve-border", false, "Keep open boundaries in place")
	fs.BoolVar(&f.lossless, "lossless", false, "Run lossless cleanup passes")
	fs.IntVar(&f.maxIterations, "max-iterations", 0, "Iteration budget")
	fs.IntVar(&f.workers, "workers", 0, "Goroutines for error refresh (0 = GOMAXPROCS)")
	fs.StringVar(&f.logFile, "log-file", "", "Also write logs to this file")
	fs.StringVar(&f.logFormat, "log-format", "", "Log format: console or json")
	return f
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	f.fs.Visit(func(fl *flag.Flag) {
		s := &cfg.Simplify
		switch fl.Name {
		case "debug":
			if f.debug {
				cfg.Logging.Level = "debug"
			}
		case "target":
			s.TargetCount = f.target
			s.TargetRatio = 0
		case "ratio":
			s.TargetRatio = f.ratio
			s.TargetCount = 0
		case "aggressiveness":
			s.Aggressiveness = f.aggressiveness
		case "preserve-border":
			s.PreserveBorder = f.preserveBorder
		case "lossless":
			s.Lossless = f.lossless
		case "max-iterations":
			s.MaxIterations = f.maxIterations
		case "workers":
			s.Workers = f.workers
		case "log-file":
			cfg.Logging.LogFile = f.logFile
		case "log-format":
			cfg.Logging.Format = f.logFormat
		}
	})
}
