package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"codeberg.org/mutker/thermosense/internal/config"
	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
	"github.com/spf13/pflag"
)

const defaultLogFile = "thermosense.log"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	out, closeLog, err := logOutput(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	logger.Init(cfg.LogLevel, logger.IsService(), out)
	logger.Debug().Msg("Config loaded")

	a, err := newApp(cfg)
	if err != nil {
		logAndExit(err, "Failed to initialize")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	if cfg.Monitor {
		err = runMonitor(ctx, a)
	} else {
		err = runDashboard(ctx, a)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Error while running")
	}

	a.close()
	logger.Info().Msg("Exiting...")
}

// logOutput returns where logs go. The dashboard owns the terminal, so it
// always logs to a file.
func logOutput(cfg *config.Config) (io.Writer, func(), error) {
	path := cfg.LogFile
	if path == "" && !cfg.Monitor {
		path = filepath.Join(os.TempDir(), defaultLogFile)
	}
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}

	return f, func() { f.Close() }, nil
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}

func logAndExit(err error, msg string) {
	var coded errors.Error
	if errors.As(err, &coded) {
		logger.FatalWithCode(coded).Msg(msg)
	}
	logger.Fatal().Err(err).Msg(msg)
}
