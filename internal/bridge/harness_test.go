package bridge_test

import (
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bridge/internal/bridge"
	"github.com/spec-kit/ticket-bridge/internal/config"
	"github.com/spec-kit/ticket-bridge/internal/domain"
	"github.com/spec-kit/ticket-bridge/internal/observability"
)

func testGatewayConfig() config.GatewayConfig {
	return config.GatewayConfig{
		Enabled:      true,
		Token:        "test-token",
		GuildID:      "guild-1",
		ChannelID:    "chan-1",
		SegmentLimit: 1900,
	}
}

// fixture wires the bridge components against in-memory fakes.
type fixture struct {
	gw       *fakeGateway
	tickets  *fakeTicketRepo
	mappings *fakeMappingRepo
	messages *fakeMessageRepo
	users    *fakeUserRepo
	metrics  *observability.Metrics

	registry  *bridge.Registry
	lifecycle *bridge.Lifecycle
	router    *bridge.Router
}

func newFixture(tickets ...*domain.Ticket) *fixture {
	logger := zap.NewNop()
	cfg := testGatewayConfig()

	f := &fixture{
		gw:       newFakeGateway(),
		tickets:  newFakeTicketRepo(tickets...),
		mappings: newFakeMappingRepo(),
		messages: &fakeMessageRepo{},
		users:    &fakeUserRepo{admins: []domain.User{{ID: "admin-1", Name: "Ops"}}},
		metrics:  observability.NewMetrics(),
	}
	f.registry = bridge.NewRegistry(f.tickets, f.mappings, logger)
	f.lifecycle = bridge.NewLifecycle(cfg, bridge.LifecycleDependencies{
		Client:      f.gw,
		Registry:    f.registry,
		TicketRepo:  f.tickets,
		MappingRepo: f.mappings,
		Metrics:     f.metrics,
		Logger:      logger,
	})
	f.router = bridge.NewRouter(cfg, bridge.RouterDependencies{
		Client:      f.gw,
		Registry:    f.registry,
		Lifecycle:   f.lifecycle,
		TicketRepo:  f.tickets,
		MessageRepo: f.messages,
		UserRepo:    f.users,
		Sender:      bridge.NewChunkedSender(cfg.SegmentLimit, 0),
		Metrics:     f.metrics,
		Logger:      logger,
	})
	return f
}

func (f *fixture) dispatcher(asker bridge.Asker) *bridge.Dispatcher {
	return bridge.NewDispatcher(testGatewayConfig(), bridge.DispatcherDependencies{
		Client:     f.gw,
		Registry:   f.registry,
		Lifecycle:  f.lifecycle,
		Router:     f.router,
		TicketRepo: f.tickets,
		Assistant:  asker,
		Sender:     bridge.NewChunkedSender(1900, 0),
		Logger:     zap.NewNop(),
	})
}
