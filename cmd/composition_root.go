package cmd

import (
	"log/slog"

	inkafka "ingestion/internal/adapters/in/kafkabus"
	"ingestion/internal/adapters/out/kafkabus"
	"ingestion/internal/adapters/out/logistics"
	"ingestion/internal/adapters/out/postgres"
	"ingestion/internal/adapters/out/postgres/orderrepo"
	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/core/application/usecases/queries"
	"ingestion/internal/core/ports"
	"ingestion/internal/jobs"
	"ingestion/internal/pkg/retry"

	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use cases. All construction is
// explicit; handlers are created on demand so each gets fresh
// transaction-scoped dependencies.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	uowFactory postgres.GormUnitOfWorkFactory
	publisher  *kafkabus.Publisher
	policy     retry.Policy
	logger     *slog.Logger
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (CompositionRoot, error) {
	policy, err := retry.NewPolicy(
		config.RetryMaxAttempts,
		config.RetryMinDelay,
		config.RetryMaxDelay,
		config.RetryMultiplier,
	)
	if err != nil {
		return CompositionRoot{}, err
	}

	publisher := kafkabus.NewPublisher(
		[]string{config.KafkaHost},
		config.KafkaOrderCreatedTopic,
		logger,
	)

	return CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		uowFactory: *postgres.NewGormUnitOfWorkFactory(gormDB),
		publisher:  publisher,
		policy:     policy,
		logger:     logger,
	}, nil
}

// Close releases resources owned by the root.
func (c *CompositionRoot) Close() error {
	return c.publisher.Close()
}

func (c *CompositionRoot) newOrderRepository() ports.OrderRepository {
	// Non-transactional path: status transitions and idempotency reads are
	// single statements and need no unit of work.
	return orderrepo.NewGormOrderRepository(c.gormDB, noopTracker{})
}

func (c *CompositionRoot) CreateIngestOrderCommandHandler() commands.IngestOrderCommandHandler {
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})

	orders := c.newOrderRepository()
	return commands.NewIngestOrderCommandHandler(
		commands.NewIdempotencyGuard(orders),
		f,
		orders,
		c.publisher,
		c.logger,
	)
}

func (c *CompositionRoot) CreateFulfillOrderCommandHandler() (commands.FulfillOrderCommandHandler, error) {
	gateway, err := logistics.NewSimulatedGateway(
		c.config.GatewayLatency,
		c.config.GatewayFailureRate,
		c.logger,
	)
	if err != nil {
		return commands.FulfillOrderCommandHandler{}, err
	}

	return commands.NewFulfillOrderCommandHandler(
		c.newOrderRepository(),
		logistics.WithTimeout(gateway, c.config.GatewayTimeout),
		c.logger,
	), nil
}

func (c *CompositionRoot) CreateRepublishPendingOrdersCommandHandler() commands.RepublishPendingOrdersCommandHandler {
	return commands.NewRepublishPendingOrdersCommandHandler(
		c.newOrderRepository(),
		c.publisher,
		c.logger,
	)
}

func (c *CompositionRoot) CreateGetOrderByIDQueryHandler() queries.GetOrderByIDQueryHandler {
	return queries.NewGetOrderByIDQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateConsumer() (*inkafka.Consumer, error) {
	fulfillHandler, err := c.CreateFulfillOrderCommandHandler()
	if err != nil {
		return nil, err
	}

	return inkafka.NewConsumer(
		[]string{c.config.KafkaHost},
		c.config.KafkaOrderCreatedTopic,
		c.config.KafkaConsumerGroup,
		c.config.KafkaDeadLetterTopic,
		&fulfillHandler,
		c.policy,
		c.logger,
	), nil
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateRepublishPendingOrdersCommandHandler(),
		c.config.RepublishSchedule,
		c.config.RepublishStaleAfter,
		c.logger,
	)
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}

type noopTracker struct{}

func (noopTracker) TrackAggregate(int64, any) {}
