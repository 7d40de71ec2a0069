// File: internal/courier/courier.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Courier is the downstream receiver. It shares no memory with producers or
// consumers; everything it knows arrives over the delivery channel.

package courier

import (
	"context"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/logging"
	"github.com/momentics/orderline/internal/worker"
)

// Courier drains the delivery channel until end-of-stream.
type Courier struct {
	Receiver api.Receiver
	Delay    worker.Delay
	Logger   *zap.Logger
	// Metrics is optional; a courier process keeps its own registry.
	Metrics *control.Metrics
	// OnDeliver, when set, runs after each delivery.
	OnDeliver func(api.WorkItem)
}

// Run receives, simulates delivery latency and logs, item by item.
// It returns nil once every writer has closed the channel.
func (c *Courier) Run(ctx context.Context) error {
	log := logging.Role(c.Logger, "courier", 0).With(zap.Int("pid", os.Getpid()))
	log.Info("courier ready")
	delivered := 0

	for {
		item, err := c.Receiver.Receive(ctx)
		if errors.Is(err, api.ErrEndOfStream) {
			log.Info("end of stream", zap.Int("delivered", delivered))
			return nil
		}
		if err != nil {
			return err
		}
		log.Info("item picked up", zap.Int("item", item.Number), zap.String("ticket", item.Ticket))

		if err := worker.Sleep(ctx, c.Delay.Next()); err != nil {
			return err
		}
		delivered++
		if c.Metrics != nil {
			c.Metrics.Delivered.Inc()
		}
		if c.OnDeliver != nil {
			c.OnDeliver(item)
		}
		log.Info("item delivered",
			zap.Int("item", item.Number),
			zap.String("ticket", item.Ticket),
			zap.Int("producer", item.Producer),
			zap.Int("consumer", item.Consumer))
	}
}
