// File: facade/pipeline.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Pipeline aggregates the queue, the worker pools, the delivery channel and
// the courier behind a single facade.

package facade

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/concurrency"
	"github.com/momentics/orderline/internal/courier"
	"github.com/momentics/orderline/internal/worker"
	"github.com/momentics/orderline/transport"
)

// Pipeline is one run of producers, consumers and a courier.
// It implements api.GracefulShutdown.
type Pipeline struct {
	cfg      *Config
	policy   worker.WriteFailurePolicy
	logger   *zap.Logger
	launcher courier.Launcher
	generate worker.Generator
	metrics  *control.Metrics
	maxItems int

	queue   *concurrency.BoundedQueue[api.WorkItem]
	control *control.Control
	runID   string

	mu      sync.Mutex
	started bool
	stop    context.CancelFunc
	done    chan struct{}
}

// Ensure compliance with api.GracefulShutdown.
var _ api.GracefulShutdown = (*Pipeline)(nil)

// New validates cfg and wires the pipeline. Nothing runs until Run.
func New(cfg *Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, _ := worker.ParsePolicy(cfg.WriteFailurePolicy)

	p := &Pipeline{
		cfg:      cfg,
		policy:   policy,
		logger:   zap.NewNop(),
		generate: worker.Uniform(1, 100),
		runID:    uuid.NewString(),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = control.NewMetrics(nil)
	}
	if p.launcher == nil {
		p.launcher = p.defaultLauncher()
	}

	p.queue = concurrency.NewBoundedQueue[api.WorkItem](cfg.QueueCapacity)
	p.metrics.ObserveQueue(p.queue.Stats)

	snapshot := cfg.Map()
	snapshot["run_id"] = p.runID
	p.control = control.New(snapshot, p.metrics)
	p.control.RegisterDebugProbe("queue.len", func() any { return p.queue.Len() })
	return p, nil
}

func (p *Pipeline) defaultLauncher() courier.Launcher {
	if p.cfg.CourierMode == CourierInline {
		return &courier.InlineLauncher{Courier: courier.Courier{
			Delay:   worker.Delay{Min: p.cfg.DeliverDelay, Max: p.cfg.DeliverDelay},
			Logger:  p.logger,
			Metrics: p.metrics,
		}}
	}
	// the child reloads its settings from the inherited environment
	return &courier.ProcessLauncher{}
}

// Control exposes config, metrics and debug probes of this run.
func (p *Pipeline) Control() *control.Control {
	return p.control
}

// Queue returns the bounded buffer between producers and consumers.
func (p *Pipeline) Queue() api.Queue[api.WorkItem] {
	return p.queue
}

// Run starts every component and blocks until the pipeline stops.
//
// Cancelling ctx begins a graceful stop: producers finish, the queue closes,
// consumers drain what is left (bounded by ShutdownTimeout), their writer
// handles close and the courier exits after end-of-stream. Run returns nil
// on such a stop and the first fatal error otherwise.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return api.NewError(api.ErrCodeInternal, "pipeline already started")
	}
	p.started = true
	ctx, stop := context.WithCancel(ctx)
	p.stop = stop
	p.mu.Unlock()
	defer close(p.done)
	defer stop()

	log := p.logger.Named("pipeline").With(zap.String("run_id", p.runID))

	var metricsSrv *control.MetricsServer
	if p.cfg.MetricsAddr != "" {
		srv, err := control.ListenMetrics(p.cfg.MetricsAddr, p.metrics, log)
		if err != nil {
			return api.Wrap(api.ErrCodeResourceCreation, "listen metrics", err).
				WithContext("addr", p.cfg.MetricsAddr)
		}
		metricsSrv = srv
	}

	pipe, err := transport.NewPipe()
	if err != nil {
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
		return err
	}
	pipeCap := transport.PipeCapacity(pipe.W)
	p.control.RegisterDebugProbe("pipe.capacity", func() any { return pipeCap })

	// The courier outlives a graceful stop; it ends on end-of-stream.
	courierCtx, abortCourier := context.WithCancel(context.WithoutCancel(ctx))
	defer abortCourier()
	handle, err := p.launcher.Launch(courierCtx, pipe.R)
	if err != nil {
		_ = pipe.Close()
		if metricsSrv != nil {
			_ = metricsSrv.Close()
		}
		return err
	}
	p.control.RegisterDebugProbe("courier.pid", func() any { return handle.Pid() })

	root := transport.NewSender(pipe.W)
	cons := &worker.Consumer{
		Queue:   p.queue,
		Delay:   worker.Delay{Min: p.cfg.ProcessMin, Max: p.cfg.ProcessMax},
		Policy:  p.policy,
		Metrics: p.metrics,
		Logger:  p.logger,
	}
	attachErr := cons.Attach(p.cfg.ConsumerCount, func() (api.Sender, error) { return root.Handle() })
	_ = root.Close()
	if attachErr != nil {
		return errors.Join(attachErr, handle.Wait())
	}
	p.control.RegisterDebugProbe("sender", func() any { return root.Stats() })

	log.Info("pipeline started",
		zap.Int("pid", os.Getpid()),
		zap.Int("courier_pid", handle.Pid()),
		zap.Int("producers", p.cfg.ProducerCount),
		zap.Int("consumers", p.cfg.ConsumerCount),
		zap.Int("queue_capacity", p.cfg.QueueCapacity),
		zap.Int("pipe_capacity", pipeCap))

	auxCtx, stopAux := context.WithCancel(context.WithoutCancel(ctx))
	defer stopAux()
	aux, auxCtx := errgroup.WithContext(auxCtx)
	if metricsSrv != nil {
		aux.Go(func() error { return metricsSrv.Serve(auxCtx) })
	}
	if p.cfg.StatsInterval > 0 {
		aux.Go(func() error {
			p.reportStats(auxCtx, log.Named("stats"))
			return nil
		})
	}

	prod := &worker.Producer{
		Queue:    p.queue,
		Generate: p.generate,
		Delay:    worker.Delay{Min: p.cfg.ProduceMin, Max: p.cfg.ProduceMax},
		Metrics:  p.metrics,
		Logger:   p.logger,
		MaxItems: p.maxItems,
	}
	producers := concurrency.NewWorkerGroup(ctx, "producer")
	producers.Go(p.cfg.ProducerCount, prod.Run)

	drainCtx, cancelDrain := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelDrain()
	consumers := concurrency.NewWorkerGroup(drainCtx, "consumer")
	consumers.Go(p.cfg.ConsumerCount, cons.Run)

	producersDone := make(chan error, 1)
	go func() { producersDone <- producers.Wait() }()
	consumersDone := make(chan error, 1)
	go func() { consumersDone <- consumers.Wait() }()

	var producerErr, consumerErr error
	select {
	case producerErr = <-producersDone:
		p.queue.Close()
		log.Info("producers stopped, draining queue", zap.Int("queue_len", p.queue.Len()))
		timer := time.AfterFunc(p.cfg.ShutdownTimeout, func() {
			log.Warn("shutdown timeout, abandoning queued items", zap.Int("queue_len", p.queue.Len()))
			cancelDrain()
		})
		consumerErr = <-consumersDone
		timer.Stop()
	case consumerErr = <-consumersDone:
		log.Error("consumers stopped early", zap.Error(consumerErr))
		stop()
		producerErr = <-producersDone
		p.queue.Close()
	}

	// every writer handle is closed now, so the courier sees end-of-stream
	courierErr := handle.Wait()
	if courierErr != nil {
		courierErr = fmt.Errorf("courier: %w", courierErr)
	}
	stopAux()
	auxErr := aux.Wait()

	// items still buffered or lost mid-processing never reach the courier
	st := p.queue.Stats()
	p.metrics.Abandoned.Add(float64(st.Len))
	inFlight := cons.Abandoned()
	log.Info("pipeline stopped",
		zap.Int64("inserted", st.Inserted),
		zap.Int64("removed", st.Removed),
		zap.Int64("abandoned", int64(st.Len)+inFlight),
		zap.Int("abandoned_queued", st.Len),
		zap.Int64("abandoned_in_flight", inFlight),
		zap.Int64("records_sent", root.Stats().Records))
	return errors.Join(producerErr, consumerErr, courierErr, auxErr)
}

// Shutdown requests a graceful stop and waits for Run to return.
func (p *Pipeline) Shutdown() error {
	p.mu.Lock()
	started, stop := p.started, p.stop
	p.mu.Unlock()
	if !started {
		return nil
	}
	stop()

	timer := time.NewTimer(2 * p.cfg.ShutdownTimeout)
	defer timer.Stop()
	select {
	case <-p.done:
		return nil
	case <-timer.C:
		return api.NewError(api.ErrCodeInternal, "pipeline did not stop in time").
			WithContext("timeout", p.cfg.ShutdownTimeout.String())
	}
}

func (p *Pipeline) reportStats(ctx context.Context, log *zap.Logger) {
	ticker := time.NewTicker(p.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		p.logStats(log)
	}
}

// logStats emits one line with queue occupancy plus the full control
// snapshot: metrics and every registered debug probe.
func (p *Pipeline) logStats(log *zap.Logger) {
	st := p.queue.Stats()
	log.Info("stats",
		zap.Int("len", st.Len),
		zap.Int("cap", st.Cap),
		zap.Int64("inserted", st.Inserted),
		zap.Int64("removed", st.Removed),
		zap.Int64("blocked_producers", st.WaitingInsert),
		zap.Int64("blocked_consumers", st.WaitingRemove),
		zap.Any("control", p.control.Stats()))
}
