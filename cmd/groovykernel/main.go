package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/albertocavalcante/groovy-lsp-sub007/internal/config"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/connection"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/interp"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/kernel"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/logging"
	"github.com/albertocavalcante/groovy-lsp-sub007/internal/observability"
)

func main() {
	os.Exit(run())
}

func run() int {
	optionsPath := flag.String("options", "", "path to optional kernel options file (TOML)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [-options kernel.toml] <connection-file>\n", os.Args[0])
		return 2
	}

	logging.ConfigureRuntime()
	logger := observability.InitLogger("groovykernel")

	desc, err := connection.Load(flag.Arg(0))
	if err != nil {
		logger.Error().Err(err).Msg("connection file rejected")
		return 1
	}

	opts := config.DefaultKernelOptions()
	if *optionsPath != "" {
		opts, err = config.LoadKernelOptions(*optionsPath)
		if err != nil {
			logger.Error().Err(err).Msg("options file rejected")
			return 1
		}
	}
	if opts.LogLevel != "" {
		logging.SetLevel(opts.LogLevel)
	}

	srv, err := kernel.NewServer(desc, kernel.Options{
		Banner:   opts.Banner,
		Executor: interp.NewSubprocess(opts.Executor.Command, opts.Executor.Args),
		Logger:   logger,
	})
	if err != nil {
		logger.Error().Err(err).Msg("kernel construction failed")
		return 1
	}

	if err := srv.Bind(); err != nil {
		logger.Error().Err(err).Msg("socket bind failed")
		return 1
	}

	if opts.DebugAddr != "" {
		go observability.ServeDebug(opts.DebugAddr, "groovykernel", logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("transport", desc.Transport).
		Str("ip", desc.IP).
		Msg("kernel starting")

	if err := srv.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("kernel loop failed")
		return 1
	}
	return 0
}
