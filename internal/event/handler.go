package event

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	apperrors "github.com/umalmyha/customersync/internal/errors"
	"github.com/umalmyha/customersync/internal/monitoring"
	"github.com/umalmyha/customersync/internal/service"
)

const (
	outcomeSynced    = "synced"
	outcomeMalformed = "malformed"
	outcomeRejected  = "rejected"
	outcomeRequeued  = "requeued"
	outcomeFailed    = "failed"
	outcomeUnknown   = "unknown_routing_key"
)

// SyncEventHandler syncs every external customer received from the feed
type SyncEventHandler struct {
	syncSvc service.CustomerSyncService
	logger  logrus.FieldLogger
}

func NewSyncEventHandler(syncSvc service.CustomerSyncService, logger logrus.FieldLogger) *SyncEventHandler {
	return &SyncEventHandler{
		syncSvc: syncSvc,
		logger:  logger.WithField("component", "SyncEventHandler"),
	}
}

// HandleDelivery acks synced messages. Malformed messages and conflicts are dropped,
// store failures are requeued once and dropped on redelivery.
func (h *SyncEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	log := h.logger.WithFields(logrus.Fields{"deliveryTag": d.DeliveryTag, "routingKey": d.RoutingKey})

	if d.RoutingKey != RoutingKeyExternalCustomerUpserted {
		log.Warn("received message with unknown routing key, discarding")
		h.settle(log, outcomeUnknown, d.Reject(false))
		return
	}

	var event ExternalCustomerUpsertedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		log.WithError(err).WithField("body", string(d.Body)).Error("failed to decode external customer event")
		h.settle(log, outcomeMalformed, d.Nack(false, false))
		return
	}

	log = log.WithField("externalId", event.Payload.ExternalID)

	action, err := h.syncSvc.Sync(ctx, event.Payload)
	if err == nil {
		log.WithField("action", action).Info("external customer synced")
		h.settle(log, outcomeSynced, d.Ack(false))
		return
	}

	var businessErr *apperrors.BusinessErr
	switch {
	case apperrors.IsConflict(err), errors.As(err, &businessErr):
		log.WithError(err).Warn("external customer rejected")
		h.settle(log, outcomeRejected, d.Nack(false, false))
	case errors.Is(err, context.Canceled) || !d.Redelivered:
		log.WithError(err).Error("failed to sync external customer, requeueing")
		h.settle(log, outcomeRequeued, d.Nack(false, true))
	default:
		log.WithError(err).Error("failed to sync redelivered external customer, dropping")
		h.settle(log, outcomeFailed, d.Nack(false, false))
	}
}

func (h *SyncEventHandler) settle(log logrus.FieldLogger, outcome string, err error) {
	monitoring.RecordFeedMessage(outcome)
	if err != nil {
		log.WithError(err).Error("failed to settle delivery")
	}
}
