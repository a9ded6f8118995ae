package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/cli"
	"github.com/redis/go-redis/v9"

	catalyst "github.com/zcatalyst/catalyst-go-sdk"
	"github.com/zcatalyst/catalyst-go-sdk/nearcache"
	"github.com/zcatalyst/catalyst-go-sdk/outbox"
	"github.com/zcatalyst/catalyst-go-sdk/storage"
	"github.com/zcatalyst/catalyst-go-sdk/telemetry"
	"github.com/zcatalyst/catalyst-go-sdk/transport"
)

// envFileVar names the variable pointing at an alternate .env file.
const envFileVar = "CATALYST_ENV_FILE"

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := filepath.Base(args[0])

	if err := loadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load env file: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := telemetry.Init(ctx, telemetry.NewConfigFromEnv()); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize telemetry: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to flush telemetry: %v\n", err)
		}
	}()

	args = normalizeArgs(args)

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	base := &Command{
		UI:        ui,
		Log:       telemetry.L(),
		Context:   ctx,
		NewApp:    appFromEnv,
		NewBucket: bucketFromEnv,
		NewRedis:  redisFromEnv,
		NewOutbox: outboxFromEnv,
	}

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  transport.Version,
		Commands: Commands(base),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}
	return exitCode
}

// loadEnv reads CATALYST_ENV_FILE, or ./.env when unset. A missing default
// file is not an error.
func loadEnv() error {
	path, explicit := os.LookupEnv(envFileVar)
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func appFromEnv(ctx context.Context) (*catalyst.App, error) {
	cfg, err := transport.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	observer, err := telemetry.NewMeterObserver(nil)
	if err != nil {
		return nil, err
	}
	cfg.WithObserver(observer).WithLogger(telemetry.L())

	t, err := transport.New(cfg)
	if err != nil {
		return nil, err
	}
	return catalyst.New(telemetry.NewTracingRequester(t, nil)), nil
}

func bucketFromEnv() (*storage.Bucket, error) {
	return storage.New(storage.NewConfigFromEnv())
}

func redisFromEnv(ctx context.Context) (*redis.Client, *nearcache.Config, error) {
	cfg, err := nearcache.NewConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	client, err := nearcache.NewClient(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return client, cfg, nil
}

func outboxFromEnv() (*outbox.Client, error) {
	cfg, err := outbox.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}
	return outbox.NewClient(cfg)
}
