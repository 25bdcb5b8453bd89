package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/workdesk/workdesk/pkg/channels/kafka"
	"github.com/workdesk/workdesk/pkg/clock"
	"github.com/workdesk/workdesk/pkg/cmd"
	"github.com/workdesk/workdesk/pkg/config"
	"github.com/workdesk/workdesk/pkg/eventbus"
	"github.com/workdesk/workdesk/pkg/otelhelper"
	"github.com/workdesk/workdesk/pkg/persistence"
	"github.com/workdesk/workdesk/pkg/workflow"
	cli "github.com/urfave/cli/v3"
)

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Persistence URL (file://, memory://, postgres://, redis://)",
			Value:   "file://./data",
			Sources: cli.EnvVars("DATABASE_URL"),
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the workdesk YAML file with roles and calendar",
			Sources: cli.EnvVars("WORKDESK_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "event-bus",
			Usage:   "Event bus type (gochannel, kafka)",
			Value:   "gochannel",
			Sources: cli.EnvVars("EVENT_BUS_TYPE"),
		},
		&cli.StringSliceFlag{
			Name:    "kafka-brokers",
			Usage:   "Kafka brokers for the kafka event bus",
			Value:   []string{"localhost:9092"},
			Sources: cli.EnvVars("KAFKA_BROKERS"),
		},
		&cli.BoolFlag{
			Name:    "tracing",
			Usage:   "Export traces over OTLP/HTTP (endpoint from OTEL_EXPORTER_OTLP_ENDPOINT)",
			Sources: cli.EnvVars("TRACING_ENABLED"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Value:   "info",
			Sources: cli.EnvVars("LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format (text, json)",
			Value:   "text",
			Sources: cli.EnvVars("LOG_FORMAT"),
		},
	}
}

// app holds the dependencies shared by the subcommands.
type app struct {
	config config.Config
	store  persistence.Persistence
	bus    eventbus.EventBus
	router *workflow.Router
	clock  *clock.System

	closers []func(context.Context) error
}

func setup(ctx context.Context, command *cli.Command, logger *slog.Logger, service string) (*app, error) {
	a := &app{}

	cfg, err := config.LoadConfigOrDefault(command.String("config"))
	if err != nil {
		return nil, err
	}

	a.config = cfg

	calendar, err := cfg.ClockCalendar()
	if err != nil {
		return nil, err
	}

	a.clock = clock.NewSystem(calendar)

	reg, err := cmd.NewRegistry(logger)
	if err != nil {
		return nil, err
	}

	a.store, err = cmd.NewPersistence(ctx, logger, command.String("database-url"))
	if err != nil {
		return nil, err
	}

	a.closers = append(a.closers, a.store.Close)

	a.bus, err = cmd.NewEventBus(command.String("event-bus"), kafka.Config{
		Brokers:       command.StringSlice("kafka-brokers"),
		ConsumerGroup: "cg-" + service,
	}, logger)
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	a.closers = append(a.closers, func(context.Context) error { return a.bus.Close() })

	authorizer, err := cmd.NewAuthorizer(ctx, a.store, cfg.Roles, logger)
	if err != nil {
		return nil, errors.Join(err, a.close(ctx))
	}

	opts := []workflow.Option{
		workflow.WithClock(a.clock),
		workflow.WithPublisher(a.bus),
		workflow.WithAdminRole(cfg.AdminRole),
	}

	if locker := cmd.NewLocker(a.store, logger); locker != nil {
		opts = append(opts, workflow.WithLocker(locker))
	}

	if command.Bool("tracing") {
		tracer, shutdown, err := otelhelper.NewTracer(ctx, service)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("init tracer: %w", err), a.close(ctx))
		}

		a.closers = append(a.closers, shutdown)
		opts = append(opts, workflow.WithTracer(tracer))
	}

	a.router = workflow.NewRouter(reg, a.store, authorizer, logger, opts...)

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error

	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}

	a.closers = nil

	return errors.Join(errs...)
}
