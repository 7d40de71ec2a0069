// File: internal/worker/producer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package worker

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/logging"
)

// Producer manufactures work items and inserts them into the queue.
type Producer struct {
	Queue    api.Queue[api.WorkItem]
	Generate Generator
	Delay    Delay
	Metrics  *control.Metrics
	Logger   *zap.Logger

	// MaxItems stops each producer after that many inserts; 0 runs forever.
	MaxItems int
}

// Run is the loop of producer id. Cancellation and queue close end it cleanly.
func (p *Producer) Run(ctx context.Context, id int) error {
	log := logging.Role(p.Logger, "producer", id)
	gen := p.Generate
	if gen == nil {
		gen = Uniform(1, 100)
	}
	label := strconv.Itoa(id)

	for n := 0; p.MaxItems == 0 || n < p.MaxItems; n++ {
		item := api.WorkItem{
			Number:    gen(),
			Ticket:    uuid.NewString(),
			Producer:  id,
			CreatedAt: time.Now(),
		}
		if err := Sleep(ctx, p.Delay.Next()); err != nil {
			return nil
		}

		start := time.Now()
		if err := p.Queue.Insert(ctx, item); err != nil {
			if isStop(err) {
				log.Debug("producer stopping", zap.Error(err))
				return nil
			}
			return err
		}
		p.Metrics.InsertWait.Observe(time.Since(start).Seconds())
		p.Metrics.Produced.WithLabelValues(label).Inc()
		log.Info("item enqueued",
			zap.Int("item", item.Number),
			zap.String("ticket", item.Ticket),
			zap.Int("queue_len", p.Queue.Len()))
	}
	return nil
}

// isStop reports errors that end a worker loop without failing the group.
func isStop(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, api.ErrQueueClosed)
}
