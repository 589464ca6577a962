package infra

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"github.com/umalmyha/customersync/internal/config"
)

// Amqp dials broker, unexpected connection loss is logged
func Amqp(cfg config.AmqpCfg, logger logrus.FieldLogger) (*amqp.Connection, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to amqp broker - %w", err)
	}

	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if err, ok := <-closeCh; ok && err != nil {
			logger.WithError(err).Error("amqp connection closed unexpectedly")
		}
	}()

	return conn, nil
}
