// File: cmd/coopd/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// coopd serves delayed responses from one cooperative scheduler:
// "GET /<n>" is answered after n seconds.

package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-coop/adapters"
	"github.com/momentics/hioload-coop/api"
	"github.com/momentics/hioload-coop/control"
	"github.com/momentics/hioload-coop/server"
)

const (
	envPort     = "COOPD_PORT"
	envLogLevel = "COOPD_LOG_LEVEL"
)

// parseConfig layers defaults, then environment, then flags.
func parseConfig(args []string, getenv func(string) string, stderr io.Writer) (*server.Config, error) {
	cfg := server.DefaultConfig()
	if v := getenv(envPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%s=%q: %w", envPort, v, api.ErrInvalidArgument)
		}
		cfg.Port = port
	}
	if v := getenv(envLogLevel); v != "" {
		cfg.LogLevel = v
	}

	fs := flag.NewFlagSet("coopd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.Host, "host", cfg.Host, "IPv4 address to bind (empty for all)")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "TCP port to listen on")
	fs.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "listen backlog")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fs.IntVar(&cfg.QueueCapacity, "queue-capacity", cfg.QueueCapacity, "max waiting tasks, oldest evicted beyond it (0 = unbounded)")
	fs.DurationVar(&cfg.PollTimeout, "poll-timeout", cfg.PollTimeout, "readiness wait per listener step (max 100ms)")
	fs.IntVar(&cfg.CPU, "cpu", cfg.CPU, "pin the scheduler thread to this CPU (-1 = no pinning)")
	fs.BoolVar(&cfg.IsolateFailures, "isolate", cfg.IsolateFailures, "keep serving when one responder fails")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func main() {
	cfg, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		log.Fatalln("config error:", err)
	}

	level, _ := control.ParseLevel(cfg.LogLevel)
	logger := control.NewLogger(os.Stderr, level)

	ctrl := adapters.NewControlAdapter()
	ctrl.SetConfig(cfg.Map())
	ctrl.OnReload(func() {
		lvl, err := control.ParseLevel(ctrl.Config().String(server.KeyLogLevel, cfg.LogLevel))
		if err != nil {
			logger.Warnf("reload: %v", err)
			return
		}
		logger.SetLevel(lvl)
	})

	srv, err := server.New(cfg, server.WithLogger(logger), server.WithControl(ctrl))
	if err != nil {
		log.Fatalln("server startup error:", err)
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve() }()

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)

	for {
		select {
		case err := <-errc:
			if err != nil {
				logger.Errorf("scheduler stopped: %v", err)
				os.Exit(1)
			}
			return
		case sig := <-sigC:
			if sig == unix.SIGHUP {
				if v := os.Getenv(envLogLevel); v != "" {
					ctrl.SetConfig(map[string]any{server.KeyLogLevel: v})
				}
				continue
			}
			logger.Infof("%s received. Shutting down...", sig)
			srv.Shutdown()
			select {
			case <-srv.Closed():
			case <-time.After(time.Second):
				logger.Warnf("listener did not stop in time")
			}
			dumpStats(logger, ctrl.Stats())
			return
		}
	}
}

func dumpStats(logger api.Logger, stats map[string]any) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		logger.Infof("stat %s=%v", k, stats[k])
	}
}
