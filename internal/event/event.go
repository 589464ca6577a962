package event

import (
	"time"

	"github.com/umalmyha/customersync/internal/model"
)

const RoutingKeyExternalCustomerUpserted = "customer.external.upserted"

// ExternalCustomerUpsertedEvent is published by upstream feed every time external customer changes
type ExternalCustomerUpsertedEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	Payload   model.ExternalCustomer `json:"payload"`
}
