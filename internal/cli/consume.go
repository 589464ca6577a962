package cli

import (
	"context"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/umalmyha/customersync/internal/event"
	"github.com/umalmyha/customersync/internal/infra"
)

func newConsumeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Consume external customer feed and serve http api alongside",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			svcs, err := infra.BuildServices(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer svcs.Close(context.Background(), logger)

			conn, err := infra.Amqp(cfg.AmqpCfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(); err != nil {
					logger.WithError(err).Error("failed to close amqp connection")
				}
			}()

			consumerTag := cfg.AmqpCfg.ConsumerTag
			if consumerTag == "" {
				consumerTag = "customersync-" + uuid.NewString()
			}

			handler := event.NewSyncEventHandler(svcs.SyncSvc, logger)
			consumer, err := event.NewConsumer(conn, event.ConsumerOptions{
				Exchange:    cfg.AmqpCfg.Exchange,
				Queue:       cfg.AmqpCfg.Queue,
				RoutingKey:  cfg.AmqpCfg.RoutingKey,
				ConsumerTag: consumerTag,
				Prefetch:    cfg.AmqpCfg.Prefetch,
			}, handler.HandleDelivery, logger)
			if err != nil {
				return err
			}

			if err := consumer.Start(cmd.Context()); err != nil {
				return err
			}
			defer consumer.Stop()

			return serveHTTP(cmd.Context(), cfg, svcs, logger, consumer.Done())
		},
	}
}
