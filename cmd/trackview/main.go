// Command trackview runs the track stream pipeline against the configured
// upstream feed and serves metrics and a small timeline control API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/AngelP17/HARPY-sub000/internal/config"
	"github.com/AngelP17/HARPY-sub000/internal/monitoring"
	"github.com/AngelP17/HARPY-sub000/internal/version"
)

type options struct {
	configPath  string
	logLevel    string
	showVersion bool
}

func parseFlags(fs *flag.FlagSet, args []string) (options, error) {
	var o options
	fs.StringVar(&o.configPath, "config", "", "YAML config file (default $"+config.PathEnvVar+")")
	fs.StringVar(&o.logLevel, "log-level", "", "Override log.level")
	fs.BoolVar(&o.showVersion, "version", false, "Print version and exit")
	err := fs.Parse(args)
	return o, err
}

func main() {
	opts, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		printVersion(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "trackview: %v\n", err)
		os.Exit(1)
	}
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "trackview %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	monitoring.Init(monitoring.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	log := monitoring.Component("main")
	log.Info().
		Str("version", version.Version).
		Str("git_sha", version.GitSHA).
		Str("transport", cfg.Feed.Transport).
		Msg("starting trackview")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	err = a.Serve(ctx)
	if ctx.Err() != nil {
		log.Info().Msg("trackview stopped")
		return nil
	}
	return err
}
