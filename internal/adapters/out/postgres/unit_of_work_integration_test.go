package postgres_test

import (
	"context"
	"testing"
	"time"

	postgres_adapter "orderflow/internal/adapters/out/postgres"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gorm_postgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// UnitOfWorkIntegrationTestSuite exercises transaction boundaries against a
// real PostgreSQL database.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	container *postgres.PostgresContainer
	db        *gorm.DB
	factory   ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2)),
	)
	suite.Require().NoError(err)
	suite.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(gorm_postgres.Open(dsn), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(postgres_adapter.Migrate(db))

	suite.factory = postgres_adapter.NewGormUnitOfWorkFactory(db)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	err := suite.db.Exec("TRUNCATE TABLE orders, order_status_history").Error
	suite.Require().NoError(err)
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		err := suite.container.Terminate(context.Background())
		suite.Require().NoError(err)
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWorkFactory_Create() {
	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()

	suite.NotSame(uow1, uow2, "Factory should create separate instances")
	suite.NotNil(uow1.OrderRepository())
	suite.NotNil(uow2.OrderRepository())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionLifecycle() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Begin(ctx), "Multiple begin calls should be safe")
	suite.Require().NoError(uow.Commit(ctx))

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_TransactionErrors() {
	ctx := context.Background()
	uow := suite.factory.Create()

	suite.Require().ErrorIs(uow.Commit(ctx), gorm.ErrInvalidTransaction)
	suite.Require().ErrorIs(uow.Rollback(ctx), gorm.ErrInvalidTransaction)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_CommitPersistsOrderAndHistory() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	_, err := testOrder.TransitionTo(order.Confirmed, adminActor(), "", time.Now().UTC())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.OrderRepository().Update(ctx, testOrder))
	suite.Require().NoError(uow.Commit(ctx))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, retrieved.Status())
	suite.Len(retrieved.History(), 2)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RollbackDiscardsOrderAndHistory() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder()

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))
	_, err := uow.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Require().NoError(uow.Rollback(ctx))

	_, err = suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)

	var history int64
	suite.Require().NoError(suite.db.Table("order_status_history").Count(&history).Error)
	suite.Zero(history)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_RepositoryIsolation() {
	ctx := context.Background()

	uow1 := suite.factory.Create()
	uow2 := suite.factory.Create()
	order1 := createTestOrder()
	order2 := createTestOrder()

	suite.Require().NoError(uow1.Begin(ctx))
	suite.Require().NoError(uow2.Begin(ctx))

	suite.Require().NoError(uow1.OrderRepository().Add(ctx, order1))
	suite.Require().NoError(uow2.OrderRepository().Add(ctx, order2))

	_, err := uow1.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "UOW1 should not see order2")
	_, err = uow2.OrderRepository().Get(ctx, order1.ID())
	suite.Require().Error(err, "UOW2 should not see order1")

	suite.Require().NoError(uow1.Commit(ctx))
	suite.Require().NoError(uow2.Rollback(ctx))

	newUow := suite.factory.Create()
	_, err = newUow.OrderRepository().Get(ctx, order1.ID())
	suite.Require().NoError(err, "Order1 should persist after commit")
	_, err = newUow.OrderRepository().Get(ctx, order2.ID())
	suite.Require().Error(err, "Order2 should not persist after rollback")
}

// Two writers read the same pending order; only the first conditional
// write lands.
func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_LostRaceRollsBack() {
	ctx := context.Background()
	testOrder := createTestOrder()
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, testOrder))

	winner := suite.factory.Create()
	loser := suite.factory.Create()
	suite.Require().NoError(winner.Begin(ctx))
	suite.Require().NoError(loser.Begin(ctx))

	wOrder, err := winner.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	lOrder, err := loser.OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)

	now := time.Now().UTC()
	_, err = wOrder.TransitionTo(order.Confirmed, adminActor(), "", now)
	suite.Require().NoError(err)
	suite.Require().NoError(winner.OrderRepository().Update(ctx, wOrder))
	suite.Require().NoError(winner.Commit(ctx))

	_, err = lOrder.TransitionTo(order.Cancelled, adminActor(), "", now)
	suite.Require().NoError(err)
	err = loser.OrderRepository().Update(ctx, lOrder)
	suite.Require().ErrorIs(err, errs.ErrConcurrentUpdate)
	suite.Require().NoError(loser.Rollback(ctx))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Confirmed, retrieved.Status())
	suite.Len(retrieved.History(), 2)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestUnitOfWork_WithoutTransaction() {
	ctx := context.Background()
	uow := suite.factory.Create()
	testOrder := createTestOrder()

	suite.Require().NoError(uow.OrderRepository().Add(ctx, testOrder))

	retrieved, err := suite.factory.Create().OrderRepository().Get(ctx, testOrder.ID())
	suite.Require().NoError(err)
	suite.True(testOrder.ID().IsEqual(retrieved.ID()))
}

func createTestOrder() *order.Order {
	testOrder, _ := order.NewOrder(order.Draft{
		ID:           kernel.NewUUID(),
		Number:       7,
		Type:         order.TypePickup,
		BranchID:     kernel.NewUUID(),
		CustomerID:   kernel.NewUUID(),
		CustomerName: "Aziz",
		Total:        25000,
	}, time.Now().UTC())
	return testOrder
}

func adminActor() order.Actor {
	a, _ := order.NewActor(kernel.NewUUID(), order.RoleAdmin)
	return a
}

func TestUnitOfWorkIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
