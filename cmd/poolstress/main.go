package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"src.userspace.com.au/logger"

	"github.com/pavanmanishd/blockpool/internal/stress"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    appName,
		Usage:   "hammer a fixed-block pool from many goroutines",
		Version: version,
		Writer:  out,
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "run one stress pass and report violations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "number of goroutines"},
					&cli.IntFlag{Name: "blocks", Aliases: []string{"n"}, Usage: "pool capacity in blocks"},
					&cli.IntFlag{Name: "block-size", Aliases: []string{"s"}, Usage: "block size in bytes"},
					&cli.IntFlag{Name: "ops", Usage: "operations per worker"},
					&cli.Float64Flag{Name: "rate", Usage: "operations per second over all workers (0 = unlimited)"},
					&cli.BoolFlag{Name: "mmap", Usage: "place the pool in an anonymous mapping"},
					&cli.BoolFlag{Name: "pin", Usage: "mlock the mapping (implies --mmap)"},
					&cli.BoolFlag{Name: "unchecked", Usage: "disable handle validation"},
					&cli.Uint64Flag{Name: "seed", Usage: "random seed"},
					&cli.BoolFlag{Name: "debug", Usage: "show debug output"},
				},
				Action: func(ctx *cli.Context) error {
					c, err := LoadConfig()
					if err != nil {
						return err
					}
					applyFlags(ctx, c)
					return run(ctx.Context, out, c)
				},
			},
		},
	}
}

// applyFlags overrides c with flags given on the command line.
func applyFlags(ctx *cli.Context, c *Config) {
	if ctx.IsSet("workers") {
		c.Workers = ctx.Int("workers")
	}
	if ctx.IsSet("blocks") {
		c.Blocks = ctx.Int("blocks")
	}
	if ctx.IsSet("block-size") {
		c.BlockSize = ctx.Int("block-size")
	}
	if ctx.IsSet("ops") {
		c.Ops = ctx.Int("ops")
	}
	if ctx.IsSet("rate") {
		c.Rate = ctx.Float64("rate")
	}
	if ctx.IsSet("mmap") {
		c.Mmap = ctx.Bool("mmap")
	}
	if ctx.IsSet("pin") {
		c.Pin = ctx.Bool("pin")
	}
	if ctx.IsSet("unchecked") {
		c.Unchecked = ctx.Bool("unchecked")
	}
	if ctx.IsSet("seed") {
		c.Seed = ctx.Uint64("seed")
	}
	if ctx.IsSet("debug") {
		c.Debug = ctx.Bool("debug")
	}
}

func run(ctx context.Context, out io.Writer, c *Config) error {
	logOpts := &logger.Options{
		Name:  appName,
		Level: logger.Info,
	}
	if c.Debug {
		logOpts.Level = logger.Debug
	}
	log := logger.New(logOpts)
	log.Debug("configuration", "config", fmt.Sprintf("%+v", *c))

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	report, err := stress.Run(ctx, c.Stress(), log)
	if report.RunID == uuid.Nil {
		return err
	}
	fmt.Fprintf(out, "run %s: %d allocs, %d frees, %d exhausted, peak %d/%d live, %d violations in %s\n",
		report.RunID, report.Allocs, report.Frees, report.Exhausted,
		report.PeakLive, c.Blocks, report.Violations, report.Duration)
	return err
}
