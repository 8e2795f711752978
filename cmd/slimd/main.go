// Command slimd runs a standalone SLIM server: it accepts the
// connection FitNesse (or any SLIM-speaking client) opens for a test
// run, executes each batch of instructions it sends, and reports the
// results back over the same connection.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fitnesse-go/slimd/internal/config"
	"github.com/fitnesse-go/slimd/internal/fixture"
	"github.com/fitnesse-go/slimd/internal/fixturewatch"
	"github.com/fitnesse-go/slimd/internal/slimlog"
	"github.com/fitnesse-go/slimd/responder"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("slimd", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	host := fs.String("host", "", "address to listen on (overrides config)")
	port := fs.Int("port", 0, "port to listen on (overrides config)")
	keepalive := fs.Bool("keepalive", false, "keep accepting connections after the first one completes")
	verbose := fs.Bool("verbose", false, "log every state transition and instruction batch at debug level")
	maxConnections := fs.Int("max-connections", 0, "cap concurrent sessions (0 = unbounded)")
	fixturePaths := fs.String("fixtures", "", "comma-separated fixture search paths to pre-register")
	watch := fs.Bool("watch-fixtures", false, "hot-reload fixture source when a registered path changes")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "slimd:", err)
		return 1
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *keepalive {
		cfg.Keepalive = true
	}
	if *verbose {
		cfg.Verbose = true
	}
	if *maxConnections != 0 {
		cfg.MaxConnections = *maxConnections
	}
	if *fixturePaths != "" {
		cfg.FixturePaths = append(cfg.FixturePaths, strings.Split(*fixturePaths, ",")...)
	}

	log := slimlog.New(os.Stderr, cfg.Verbose)
	loader := fixture.NewLoader()

	opts := []responder.Option{
		responder.WithHost(cfg.Host),
		responder.WithPort(cfg.Port),
		responder.WithKeepalive(cfg.Keepalive),
		responder.WithVerbose(cfg.Verbose),
		responder.WithMaxConnections(cfg.MaxConnections),
		responder.WithFixtureLoader(loader),
		responder.WithLogger(log),
	}
	for _, p := range cfg.FixturePaths {
		opts = append(opts, responder.WithImportPath(p))
	}

	server, err := responder.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "slimd:", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *watch && len(cfg.FixturePaths) > 0 {
		watcher, err := fixturewatch.New(loader, log)
		if err != nil {
			fmt.Fprintln(os.Stderr, "slimd: fixture watcher:", err)
			return 1
		}
		defer watcher.Close()
		for _, p := range cfg.FixturePaths {
			if err := watcher.Add(p); err != nil {
				log.Warn("could not watch fixture path", "path", p, "err", err)
			}
		}
		go watcher.Run()
	}

	if err := server.Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "slimd:", err)
		return 1
	}
	return 0
}
