// File: cmd/orderline/main.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// orderline runs the producer/consumer pipeline and, as a hidden subcommand,
// the courier process it spawns.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/momentics/orderline/facade"
	"github.com/momentics/orderline/internal/courier"
	"github.com/momentics/orderline/internal/logging"
	"github.com/momentics/orderline/internal/worker"
	"github.com/momentics/orderline/transport"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "orderline",
		Short:         "Bounded producer/consumer pipeline with an out-of-process courier",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flagsToEnv(cmd); err != nil {
				return err
			}
			return runPipeline()
		},
	}

	// Flags are exported as ORDERLINE_* variables so the courier process,
	// which inherits the environment, sees the same settings.
	f := rootCmd.Flags()
	f.Int("producers", 0, "number of producers (ORDERLINE_PRODUCERS)")
	f.Int("consumers", 0, "number of consumers (ORDERLINE_CONSUMERS)")
	f.Int("capacity", 0, "queue capacity (ORDERLINE_QUEUE_CAPACITY)")
	f.String("courier", "", "courier mode: process|inline (ORDERLINE_COURIER_MODE)")
	f.String("on-write-failure", "", "fatal|drop (ORDERLINE_WRITE_FAILURE_POLICY)")
	f.String("metrics-addr", "", "serve /metrics on this address (ORDERLINE_METRICS_ADDR)")
	f.String("log-level", "", "debug|info|warn|error (ORDERLINE_LOG_LEVEL)")

	rootCmd.AddCommand(newCourierCmd())
	return rootCmd
}

var flagEnv = map[string]string{
	"producers":        "ORDERLINE_PRODUCERS",
	"consumers":        "ORDERLINE_CONSUMERS",
	"capacity":         "ORDERLINE_QUEUE_CAPACITY",
	"courier":          "ORDERLINE_COURIER_MODE",
	"on-write-failure": "ORDERLINE_WRITE_FAILURE_POLICY",
	"metrics-addr":     "ORDERLINE_METRICS_ADDR",
	"log-level":        "ORDERLINE_LOG_LEVEL",
}

func flagsToEnv(cmd *cobra.Command) error {
	for name, env := range flagEnv {
		fl := cmd.Flags().Lookup(name)
		if fl == nil || !fl.Changed {
			continue
		}
		if err := os.Setenv(env, fl.Value.String()); err != nil {
			return err
		}
	}
	return nil
}

func runPipeline() error {
	cfg, err := facade.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "orderline:", err)
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "orderline:", err)
		return err
	}
	defer logger.Sync()

	p, err := facade.New(cfg, facade.WithLogger(logger))
	if err != nil {
		logger.Error("pipeline setup failed", zap.Error(err))
		return err
	}

	ctx, cancel := interruptContext(context.Background())
	defer cancel()
	if err := p.Run(ctx); err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		return err
	}
	return nil
}

// interruptContext is cancelled by the first SIGINT or SIGTERM. The handler
// is released right away, so a second signal during the drain terminates
// the process with the default action.
func interruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	context.AfterFunc(ctx, stop)
	return ctx, stop
}

func newCourierCmd() *cobra.Command {
	var fd int
	cmd := &cobra.Command{
		Use:    "courier",
		Short:  "Run the courier on an inherited pipe descriptor",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCourier(fd)
		},
	}
	cmd.Flags().IntVar(&fd, "fd", courier.InheritedFD, "inherited read end of the delivery pipe")
	return cmd
}

func runCourier(fd int) error {
	cfg, err := facade.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "orderline courier:", err)
		return err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, "orderline courier:", err)
		return err
	}
	defer logger.Sync()

	// A terminal interrupt reaches the whole process group. The courier keeps
	// delivering until the parent closes the pipe.
	signal.Ignore(os.Interrupt)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	r, err := transport.OpenInherited(uintptr(fd), "delivery-pipe-"+strconv.Itoa(fd))
	if err != nil {
		logger.Error("open delivery channel", zap.Int("fd", fd), zap.Error(err))
		return err
	}
	rx := transport.NewReceiver(r)
	defer rx.Close()

	c := &courier.Courier{
		Receiver: rx,
		Delay:    worker.Delay{Min: cfg.DeliverDelay, Max: cfg.DeliverDelay},
		Logger:   logger,
	}
	if err := c.Run(ctx); err != nil {
		logger.Error("courier failed", zap.Error(err))
		return err
	}
	return nil
}
