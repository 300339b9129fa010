package config

import "flag"

// Flags holds the command-line overrides shared by every subcommand.
type Flags struct {
	Config   string
	Debug    bool
	Budget   int
	Ceiling  int
	Workers  int
	Strategy string
	Out      string
}

// Register declares the shared flags on fs.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVar(&f.Budget, "budget", 0, "Soft vertex budget per group")
	fs.IntVar(&f.Ceiling, "ceiling", 0, "Hard vertex ceiling per fragment")
	fs.IntVar(&f.Workers, "workers", 0, "Fragments processed in parallel")
	fs.StringVar(&f.Strategy, "strategy", "", "Partition strategy (material or grid)")
	fs.StringVar(&f.Out, "out", "", "Output directory")
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Budget > 0 {
		cfg.Partition.Budget = f.Budget
	}
	if f.Ceiling > 0 {
		cfg.Resolve.HardCeiling = f.Ceiling
	}
	if f.Workers > 0 {
		cfg.Runtime.Workers = f.Workers
	}
	if f.Strategy != "" {
		cfg.Partition.Strategy = f.Strategy
	}
	if f.Out != "" {
		cfg.Output.Dir = f.Out
	}
}
