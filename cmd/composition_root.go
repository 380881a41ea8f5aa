package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"orderflow/internal/adapters/in/bot"
	httpadapter "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/broadcast"
	"orderflow/internal/adapters/out/cache"
	"orderflow/internal/adapters/out/messaging"
	"orderflow/internal/adapters/out/postgres"
	"orderflow/internal/adapters/out/postgres/branchrepo"
	"orderflow/internal/adapters/out/postgres/courierrepo"
	"orderflow/internal/adapters/out/postgres/sessionrepo"
	"orderflow/internal/core/application/events"
	"orderflow/internal/core/application/notifications"
	"orderflow/internal/core/application/tracking"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/ports"
	"orderflow/internal/jobs"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// CompositionRoot owns every long-lived collaborator. It is built once at
// startup and torn down by Close.
type CompositionRoot struct {
	cfg        Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	uowFactory *postgres.GormUnitOfWorkFactory

	origin     string
	hub        *broadcast.Hub
	bridge     *broadcast.PGListenBridge
	amqpRelay  *broadcast.AMQPRelay
	redis      *redis.Client
	couriers   *courierrepo.GormCourierRepository
	branches   ports.BranchDirectory
	tracking   *tracking.Manager
	hooks      *commands.PostCommitHooks
	jobManager *jobs.JobManager
	limiter    *httpadapter.IPRateLimiter
}

func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		origin:     broadcast.NewOrigin(),
		couriers:   courierrepo.NewGormCourierRepository(gormDB),
		limiter:    httpadapter.NewIPRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}

	hubOpts, err := c.relaySinks()
	if err != nil {
		return nil, err
	}
	c.hub = broadcast.NewHub(logger, hubOpts...)
	if cfg.PGNotifyChannel != "" {
		c.bridge = broadcast.NewPGListenBridge(c.hub, cfg.DSN(), cfg.PGNotifyChannel, c.origin, logger)
	}

	c.branches = branchrepo.NewGormBranchRepository(gormDB)
	if cfg.RedisAddr != "" {
		c.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c.branches = cache.NewBranchLocations(c.branches, c.redis, cfg.BranchCacheTTL, logger)
	}

	var sender ports.MessageSender = messaging.NewLogSender(logger)
	if cfg.FCMCredentialsFile != "" {
		fcm, fcmErr := messaging.NewFCMSender(ctx, cfg.FCMCredentialsFile, logger)
		if fcmErr != nil {
			return nil, fmt.Errorf("initializing fcm sender: %w", fcmErr)
		}
		sender = fcm
	}

	dispatcher := notifications.NewDispatcher(sender, c.couriers, logger)
	c.tracking = tracking.NewManager(dispatcher, c.hub, sessionrepo.NewGormSessionArchive(gormDB), logger)
	c.hooks = commands.NewPostCommitHooks(logger,
		events.NewBroadcaster(c.hub, c.couriers, logger),
		dispatcher,
		c.tracking,
	)

	scheduler := jobs.NewPickupCompletionScheduler(c.CreateCompletePickupOrderCommandHandler(), cfg.PickupCompletionDelay, logger)
	c.hooks.Register(scheduler)
	c.jobManager = jobs.NewJobManager(
		jobs.NewTrackingSweepJob(c.tracking, jobs.TrackingSweepSpec, logger),
		scheduler,
	)

	return c, nil
}

func (c *CompositionRoot) relaySinks() ([]broadcast.HubOption, error) {
	var opts []broadcast.HubOption

	if c.cfg.PGNotifyChannel != "" {
		sqlDB, err := c.gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sql.DB: %w", err)
		}
		opts = append(opts, broadcast.WithSink(broadcast.NewPGNotifyRelay(sqlDB, c.cfg.PGNotifyChannel, c.origin)))
	}

	if c.cfg.AMQPURL != "" {
		relay, err := broadcast.NewAMQPRelay(c.cfg.AMQPURL, c.cfg.AMQPExchange)
		if err != nil {
			// Rooms keep working in-process without the relay.
			c.logger.Warn("amqp relay disabled", "error", err)
		} else {
			c.amqpRelay = relay
			opts = append(opts, broadcast.WithSink(relay))
		}
	}

	return opts, nil
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.hooks)
}

func (c *CompositionRoot) CreateTransitionOrderStatusCommandHandler() commands.TransitionOrderStatusCommandHandler {
	return commands.NewTransitionOrderStatusCommandHandler(c.orderUoWFactory(), c.branches, c.hooks, c.logger)
}

func (c *CompositionRoot) CreateAssignCourierCommandHandler() commands.AssignCourierCommandHandler {
	return commands.NewAssignCourierCommandHandler(c.orderUoWFactory(), c.couriers, c.hooks)
}

func (c *CompositionRoot) CreateMarkCustomerArrivedCommandHandler() commands.MarkCustomerArrivedCommandHandler {
	return commands.NewMarkCustomerArrivedCommandHandler(c.orderUoWFactory(), c.hooks)
}

func (c *CompositionRoot) CreateUpdateCourierLocationCommandHandler() commands.UpdateCourierLocationCommandHandler {
	return commands.NewUpdateCourierLocationCommandHandler(c.orderUoWFactory(), c.couriers, c.hub, c.hooks, c.logger)
}

func (c *CompositionRoot) CreateCompletePickupOrderCommandHandler() commands.CompletePickupOrderCommandHandler {
	return commands.NewCompletePickupOrderCommandHandler(c.orderUoWFactory(), c.hooks)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetActiveOrdersQueryHandler() queries.GetActiveOrdersQueryHandler {
	return queries.NewGetActiveOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateBotHandler() *bot.Handler {
	return bot.NewHandler(c.CreateTransitionOrderStatusCommandHandler(), c.CreateAssignCourierCommandHandler(), c.logger)
}

// Router builds the echo instance serving the REST and SSE endpoints.
func (c *CompositionRoot) Router() (*echo.Echo, error) {
	server := httpadapter.NewServer(httpadapter.Handlers{
		CreateOrder:    c.CreateCreateOrderCommandHandler(),
		Transition:     c.CreateTransitionOrderStatusCommandHandler(),
		AssignCourier:  c.CreateAssignCourierCommandHandler(),
		MarkArrived:    c.CreateMarkCustomerArrivedCommandHandler(),
		ReportLocation: c.CreateUpdateCourierLocationCommandHandler(),
		GetOrder:       c.CreateGetOrderQueryHandler(),
		ActiveOrders:   c.CreateGetActiveOrdersQueryHandler(),
		Tracking:       c.tracking,
		Bot:            c.CreateBotHandler(),
		Rooms:          c.hub,
	}, c.logger)

	return httpadapter.NewRouter(server, c.limiter, c.logger)
}

func (c *CompositionRoot) Jobs() *jobs.JobManager {
	return c.jobManager
}

func (c *CompositionRoot) RateLimiter() *httpadapter.IPRateLimiter {
	return c.limiter
}

// Bridge is nil when cross-process rooms are disabled.
func (c *CompositionRoot) Bridge() *broadcast.PGListenBridge {
	return c.bridge
}

// Close releases relay and cache connections. Jobs are stopped separately.
func (c *CompositionRoot) Close() {
	if c.amqpRelay != nil {
		c.amqpRelay.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("closing redis client", "error", err)
		}
	}
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
