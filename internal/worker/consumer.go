// File: internal/worker/consumer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package worker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/orderline/api"
	"github.com/momentics/orderline/control"
	"github.com/momentics/orderline/internal/logging"
)

// WriteFailurePolicy selects what a consumer does when the delivery write fails.
type WriteFailurePolicy string

const (
	// PolicyFatal stops the consumer and fails the pipeline.
	PolicyFatal WriteFailurePolicy = "fatal"
	// PolicyDrop logs the failure, counts the item as dropped and carries on.
	PolicyDrop WriteFailurePolicy = "drop"
)

// ParsePolicy validates a policy name.
func ParsePolicy(s string) (WriteFailurePolicy, error) {
	switch p := WriteFailurePolicy(strings.ToLower(s)); p {
	case PolicyFatal, PolicyDrop:
		return p, nil
	}
	return "", fmt.Errorf("%w: write failure policy %q", api.ErrInvalidArgument, s)
}

// Consumer drains the queue, processes items and forwards them downstream.
type Consumer struct {
	Queue   api.Queue[api.WorkItem]
	Delay   Delay
	Policy  WriteFailurePolicy
	Metrics *control.Metrics
	Logger  *zap.Logger

	senders   []api.Sender
	abandoned atomic.Int64
}

// Attach opens one writer handle per consumer up front, so the delivery
// channel stays open until the last consumer has exited.
func (c *Consumer) Attach(n int, open func() (api.Sender, error)) error {
	for range n {
		tx, err := open()
		if err != nil {
			c.Detach()
			return err
		}
		c.senders = append(c.senders, tx)
	}
	return nil
}

// Detach closes every handle not yet released by a running consumer.
func (c *Consumer) Detach() {
	for _, tx := range c.senders {
		_ = tx.Close()
	}
}

// Run is the loop of consumer id. It owns writer handle id and closes it on return.
func (c *Consumer) Run(ctx context.Context, id int) error {
	if id < 1 || id > len(c.senders) {
		return fmt.Errorf("%w: consumer %d has no writer handle", api.ErrInvalidArgument, id)
	}
	tx := c.senders[id-1]
	defer tx.Close()

	log := logging.Role(c.Logger, "consumer", id)
	label := strconv.Itoa(id)

	for {
		start := time.Now()
		item, err := c.Queue.Remove(ctx)
		if err != nil {
			if isStop(err) {
				log.Debug("consumer stopping", zap.Error(err))
				return nil
			}
			return err
		}
		c.Metrics.RemoveWait.Observe(time.Since(start).Seconds())
		c.Metrics.Consumed.WithLabelValues(label).Inc()
		log.Info("item dequeued", zap.Int("item", item.Number), zap.String("ticket", item.Ticket))

		// the slot is already free; processing time never holds queue capacity
		if err := Sleep(ctx, c.Delay.Next()); err != nil {
			c.abandon()
			log.Warn("processing interrupted", zap.Int("item", item.Number), zap.String("ticket", item.Ticket))
			return nil
		}

		item.Consumer = id
		if err := tx.Send(ctx, item); err != nil {
			if ctx.Err() != nil {
				c.abandon()
				log.Warn("send interrupted", zap.Int("item", item.Number), zap.String("ticket", item.Ticket))
				return nil
			}
			if c.Policy == PolicyDrop {
				c.Metrics.Dropped.Inc()
				log.Warn("item dropped", zap.Int("item", item.Number), zap.String("ticket", item.Ticket), zap.Error(err))
				continue
			}
			return fmt.Errorf("consumer %d: %w", id, err)
		}
		c.Metrics.Sent.Inc()
		log.Info("item sent", zap.Int("item", item.Number), zap.String("ticket", item.Ticket))
	}
}

// Abandoned returns how many removed items were lost because a consumer was
// stopped before it could send them.
func (c *Consumer) Abandoned() int64 {
	return c.abandoned.Load()
}

func (c *Consumer) abandon() {
	c.abandoned.Add(1)
	c.Metrics.Abandoned.Inc()
}
