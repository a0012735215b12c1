package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/cargotrack/internal/flagx"
)

// parseFlags overlays cfg with the flags listed in the package doc. Other
// arguments are filtered out with flagx.FilterArgs first. Parse errors
// panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-b", "-d", "-a", "-m", "-i", "-t", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Backend, "b", cfg.Backend, "remote backend (graph, firestore, memory)")
	fs.StringVar(&cfg.StorageDSN, "d", cfg.StorageDSN, "session storage DSN")
	fs.StringVar(&cfg.GRPCAddr, "a", cfg.GRPCAddr, "gRPC listen address")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")
	syncInterval := fs.Int("i", 0, "sync interval (in seconds)")
	syncTimeout := fs.Int("t", 0, "sync timeout (in seconds, 0 disables)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level (debug, info, warn, error)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Only flags given on the command line override, so sub-second values
	// from JSON or env survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			cfg.SyncInterval = time.Duration(*syncInterval) * time.Second
		case "t":
			cfg.SyncTimeout = time.Duration(*syncTimeout) * time.Second
		}
	})
}
