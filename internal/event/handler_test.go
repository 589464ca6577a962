package event

import (
	"context"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/umalmyha/customersync/internal/cache"
	"github.com/umalmyha/customersync/internal/model"
	"github.com/umalmyha/customersync/internal/repository"
	"github.com/umalmyha/customersync/internal/service"
)

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	rejected bool
	requeue  bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

type syncServiceMock struct {
	mock.Mock
}

func (m *syncServiceMock) Sync(ctx context.Context, ext model.ExternalCustomer) (model.Action, error) {
	ret := m.Called(ctx, ext)
	return ret.Get(0).(model.Action), ret.Error(1)
}

type handlerTestSuite struct {
	suite.Suite
	ctx        context.Context
	customerDB *repository.InMemoryCustomerRepository
	handler    *SyncEventHandler
}

func (s *handlerTestSuite) SetupTest() {
	logger, _ := test.NewNullLogger()
	s.ctx = context.Background()
	s.customerDB = repository.NewInMemoryCustomerRepository()
	syncSvc := service.NewCustomerSyncService(s.customerDB, cache.NewNopCustomerCache(), logger)
	s.handler = NewSyncEventHandler(syncSvc, logger)
}

func (s *handlerTestSuite) delivery(body string) (amqp.Delivery, *fakeAcknowledger) {
	ack := &fakeAcknowledger{}
	return amqp.Delivery{
		Acknowledger: ack,
		DeliveryTag:  1,
		RoutingKey:   RoutingKeyExternalCustomerUpserted,
		Body:         []byte(body),
	}, ack
}

func (s *handlerTestSuite) TestSyncedMessageAcked() {
	d, ack := s.delivery(`{"timestamp":"2024-01-02T15:04:05Z","payload":{"externalId":"12345","companyNumber":"470813-8895","name":"Acme Inc.","shoppingLists":[{"products":["milk"]}]}}`)

	s.T().Log("valid event is synced and acked")
	{
		s.handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.acked, "message must be acked")

		c, err := s.customerDB.FindByExternalID(s.ctx, "12345")
		s.Require().NoError(err)
		s.Require().NotNil(c, "customer must be synced")
		s.Assert().Equal(model.CustomerTypeCompany, c.CustomerType)
		s.Assert().Equal([]model.ShoppingList{model.NewShoppingList("milk")}, c.ShoppingLists)
	}
}

func (s *handlerTestSuite) TestMalformedMessageDropped() {
	d, ack := s.delivery(`{"payload":`)

	s.T().Log("malformed event is dropped")
	{
		s.handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.nacked, "message must be nacked")
		s.Assert().False(ack.requeue, "malformed message must not be requeued")
	}
}

func (s *handlerTestSuite) TestInvalidMessageDropped() {
	d, ack := s.delivery(`{"payload":{"name":"Joe"}}`)

	s.T().Log("event without external id is dropped")
	{
		s.handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.nacked, "message must be nacked")
		s.Assert().False(ack.requeue, "invalid message must not be requeued")
	}
}

func (s *handlerTestSuite) TestConflictDropped() {
	s.customerDB.Add(model.Customer{
		InternalID:   model.Ptr("45435"),
		ExternalID:   model.Ptr("12345"),
		CustomerType: model.CustomerTypePerson,
	})
	d, ack := s.delivery(`{"payload":{"externalId":"12345","companyNumber":"470813-8895","name":"Acme Inc."}}`)

	s.T().Log("conflicting event is dropped")
	{
		s.handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.nacked, "message must be nacked")
		s.Assert().False(ack.requeue, "conflict must not be requeued")
	}
}

func (s *handlerTestSuite) TestUnknownRoutingKeyRejected() {
	d, ack := s.delivery(`{}`)
	d.RoutingKey = "customer.deleted"

	s.T().Log("event with unknown routing key is rejected")
	{
		s.handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.rejected, "message must be rejected")
		s.Assert().False(ack.requeue)
	}
}

func (s *handlerTestSuite) TestStoreFailureRequeuedOnce() {
	logger, _ := test.NewNullLogger()
	syncMock := &syncServiceMock{}
	syncMock.Test(s.T())
	syncMock.On("Sync", s.ctx, mock.AnythingOfType("model.ExternalCustomer")).Return(model.Action(""), errors.New("connection refused"))
	handler := NewSyncEventHandler(syncMock, logger)

	s.T().Log("store failure is requeued on first delivery")
	{
		d, ack := s.delivery(`{"payload":{"externalId":"12345","name":"Joe"}}`)
		handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.nacked, "message must be nacked")
		s.Assert().True(ack.requeue, "message must be requeued")
	}

	s.T().Log("store failure of redelivered message is dropped")
	{
		d, ack := s.delivery(`{"payload":{"externalId":"12345","name":"Joe"}}`)
		d.Redelivered = true
		handler.HandleDelivery(s.ctx, d)
		s.Assert().True(ack.nacked, "message must be nacked")
		s.Assert().False(ack.requeue, "redelivered message must not be requeued again")
	}
}

func TestSyncEventHandler(t *testing.T) {
	suite.Run(t, new(handlerTestSuite))
}
