package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/echochat/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the backend REST API
//	-w string   websocket URL of the realtime gateway
//	-r int      local retention window in days
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-r"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIEndpointURL, "a", cfg.APIEndpointURL, "base URL of the backend REST API")
	fs.StringVar(&cfg.StreamEndpointURL, "w", cfg.StreamEndpointURL, "websocket URL of the realtime gateway")
	fs.IntVar(&cfg.RetentionDays, "r", cfg.RetentionDays, "local retention window (in days)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
