package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"conkers/game"
	"conkers/logging"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "YAML config file layered over the defaults")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [width height]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	config := game.DefaultConfig()
	if *configPath != "" {
		loaded, err := game.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		config = loaded
	}
	if *logLevel != "" {
		config.Log.Level = *logLevel
	}
	if *metricsAddr != "" {
		config.Metrics.Addr = *metricsAddr
	}
	if flag.NArg() == 2 {
		config.Window.Width = windowSize(flag.Arg(0))
		config.Window.Height = windowSize(flag.Arg(1))
	}

	logger, err := logging.New(config.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	rt, err := game.NewRuntime(config, logger)
	if err != nil {
		logger.Fatal("failed to set up game", zap.Error(err))
	}
	if err := rt.Start(); err != nil {
		logger.Fatal("failed to start simulation", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return rt.ServeMetrics(ctx) })

	ebiten.SetWindowSize(config.Window.Width, config.Window.Height)
	ebiten.SetWindowTitle(config.Window.Title)
	runErr := ebiten.RunGame(game.NewGame(config, rt.World, rt.Loop))

	cancel()
	if err := rt.Stop(); err != nil {
		logger.Fatal("failed to stop simulation", zap.Error(err))
	}
	if err := g.Wait(); err != nil {
		logger.Error("metrics server failed", zap.Error(err))
	}
	if runErr != nil {
		logger.Fatal("game loop failed", zap.Error(runErr))
	}
}

// windowSize parses a window edge, never going below the minimum
func windowSize(arg string) int {
	n, _ := strconv.Atoi(arg)
	return max(n, game.MinWindowSize)
}
