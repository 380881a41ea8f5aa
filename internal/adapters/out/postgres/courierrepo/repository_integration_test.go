package courierrepo_test

import (
	"context"
	"testing"
	"time"

	"orderflow/internal/adapters/out/postgres/courierrepo"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	postgresdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type CourierRepositoryIntegrationTestSuite struct {
	suite.Suite
	container  *postgres.PostgresContainer
	db         *gorm.DB
	repository *courierrepo.GormCourierRepository
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	suite.Require().NoError(err)
	suite.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	suite.Require().NoError(err)

	db, err := gorm.Open(postgresdriver.Open(connStr), &gorm.Config{})
	suite.Require().NoError(err)
	suite.db = db

	suite.Require().NoError(db.AutoMigrate(&courierrepo.CourierDTO{}))
}

func (suite *CourierRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.db.Exec("TRUNCATE TABLE couriers").Error)
	suite.repository = courierrepo.NewGormCourierRepository(suite.db)
}

func (suite *CourierRepositoryIntegrationTestSuite) TearDownSuite() {
	if suite.container != nil {
		suite.Require().NoError(suite.container.Terminate(context.Background()))
	}
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAddAndGet() {
	ctx := context.Background()
	branchID := kernel.NewUUID()
	profile := ports.CourierProfile{
		ID:          kernel.NewUUID(),
		Name:        "Bekzod",
		BranchID:    &branchID,
		IsAvailable: true,
		UpdatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}

	suite.Require().NoError(suite.repository.Add(ctx, profile))

	got, err := suite.repository.Get(ctx, profile.ID)
	suite.Require().NoError(err)
	suite.Equal("Bekzod", got.Name)
	suite.Require().NotNil(got.BranchID)
	suite.True(got.BranchID.IsEqual(branchID))
	suite.Nil(got.Location)
	suite.False(got.IsOnline)
	suite.True(got.IsAvailable)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestAdd_RequiresName() {
	err := suite.repository.Add(context.Background(), ports.CourierProfile{ID: kernel.NewUUID()})

	suite.Require().ErrorIs(err, errs.ErrValueIsRequired)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestGet_Unknown_ReturnsNotFound() {
	_, err := suite.repository.Get(context.Background(), kernel.NewUUID())

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestReportPresence_UpdatesLocationAndOnline() {
	ctx := context.Background()
	id := kernel.NewUUID()
	suite.Require().NoError(suite.repository.Add(ctx, ports.CourierProfile{
		ID: id, Name: "Bekzod", IsAvailable: true, UpdatedAt: time.Now().UTC(),
	}))

	loc, err := kernel.NewLocation(41.311, 69.240)
	suite.Require().NoError(err)
	busy := false
	reportedAt := time.Now().UTC().Truncate(time.Microsecond)

	got, err := suite.repository.ReportPresence(ctx, ports.CourierPresence{
		CourierID:   id,
		Location:    loc,
		IsAvailable: &busy,
		ReportedAt:  reportedAt,
	})
	suite.Require().NoError(err)

	suite.True(got.IsOnline)
	suite.False(got.IsAvailable)
	suite.Require().NotNil(got.Location)
	suite.InDelta(41.311, got.Location.Lat(), 1e-9)
	suite.WithinDuration(reportedAt, got.UpdatedAt, time.Millisecond)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestReportPresence_NilAvailabilityKeepsFlag() {
	ctx := context.Background()
	id := kernel.NewUUID()
	suite.Require().NoError(suite.repository.Add(ctx, ports.CourierProfile{
		ID: id, Name: "Bekzod", IsAvailable: true, UpdatedAt: time.Now().UTC(),
	}))
	loc, err := kernel.NewLocation(41.311, 69.240)
	suite.Require().NoError(err)

	got, err := suite.repository.ReportPresence(ctx, ports.CourierPresence{
		CourierID: id, Location: loc, ReportedAt: time.Now().UTC(),
	})
	suite.Require().NoError(err)

	suite.True(got.IsAvailable)
}

func (suite *CourierRepositoryIntegrationTestSuite) TestReportPresence_Unknown_ReturnsNotFound() {
	loc, err := kernel.NewLocation(41.311, 69.240)
	suite.Require().NoError(err)

	_, err = suite.repository.ReportPresence(context.Background(), ports.CourierPresence{
		CourierID: kernel.NewUUID(), Location: loc, ReportedAt: time.Now().UTC(),
	})

	suite.Require().ErrorIs(err, errs.ErrObjectNotFound)
}

func TestCourierRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(CourierRepositoryIntegrationTestSuite))
}
