package event

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

type MessageHandler func(ctx context.Context, d amqp.Delivery)

type ConsumerOptions struct {
	Exchange    string
	Queue       string
	RoutingKey  string
	ConsumerTag string
	Prefetch    int
}

// Consumer reads deliveries from durable queue bound to topic exchange and hands them to handler one by one
type Consumer struct {
	channel     *amqp.Channel
	queue       string
	consumerTag string
	handler     MessageHandler
	logger      logrus.FieldLogger
	wg          sync.WaitGroup
	cancelFunc  context.CancelFunc
}

func NewConsumer(conn *amqp.Connection, opts ConsumerOptions, handler MessageHandler, logger logrus.FieldLogger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open amqp channel - %w", err)
	}

	logger.WithFields(logrus.Fields{"exchange": opts.Exchange, "type": amqp.ExchangeTopic}).Info("declaring exchange")
	if err := ch.ExchangeDeclare(opts.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare exchange %s - %w", opts.Exchange, err)
	}

	logger.WithField("queue", opts.Queue).Info("declaring queue")
	q, err := ch.QueueDeclare(opts.Queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %s - %w", opts.Queue, err)
	}

	logger.WithFields(logrus.Fields{"queue": q.Name, "exchange": opts.Exchange, "key": opts.RoutingKey}).Info("binding queue")
	if err := ch.QueueBind(q.Name, opts.RoutingKey, opts.Exchange, false, nil); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to bind queue %s with key %s - %w", q.Name, opts.RoutingKey, err)
	}

	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to set qos - %w", err)
	}

	return &Consumer{
		channel:     ch,
		queue:       q.Name,
		consumerTag: opts.ConsumerTag,
		handler:     handler,
		logger:      logger.WithFields(logrus.Fields{"component": "consumer", "queue": q.Name}),
	}, nil
}

// Start registers consumer and processes deliveries in background until ctx is done or Stop is called
func (c *Consumer) Start(ctx context.Context) error {
	deliveries, err := c.channel.Consume(c.queue, c.consumerTag, false, false, false, false, nil)
	if err != nil {
		_ = c.channel.Close()
		return fmt.Errorf("failed to register consumer - %w", err)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Info("consuming deliveries")

		for {
			select {
			case <-loopCtx.Done():
				c.logger.Info("consumer context cancelled, exiting consumption loop")
				return
			case d, ok := <-deliveries:
				if !ok {
					c.logger.Warn("delivery channel closed unexpectedly")
					return
				}
				c.handler(loopCtx, d)
			}
		}
	}()

	return nil
}

// Done is closed once consumption loop exits
func (c *Consumer) Done() <-chan struct{} {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	return done
}

func (c *Consumer) Stop() {
	if c.cancelFunc == nil {
		c.logger.Warn("consumer stop called before start")
		return
	}

	c.cancelFunc()

	if err := c.channel.Cancel(c.consumerTag, false); err != nil {
		c.logger.WithError(err).WithField("tag", c.consumerTag).Warn("failed to cancel consumer")
	}

	c.wg.Wait()

	if err := c.channel.Close(); err != nil {
		c.logger.WithError(err).Error("failed to close consumer channel")
	}
	c.logger.Info("consumer stopped")
}
