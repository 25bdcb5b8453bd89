package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/workdesk/workdesk/pkg/log"
	"github.com/workdesk/workdesk/pkg/sla"
	cli "github.com/urfave/cli/v3"
)

func RunSLAWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "sla-watch",
		Usage: "Publish an event for every input node past its deadline",
		Flags: append(commonFlags(),
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron schedule of the scan; overrides sla.schedule from the config file",
				Sources: cli.EnvVars("SLA_SCHEDULE"),
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "Scan once and exit",
			},
		),
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))
			logger := log.WithModule("sla-watch")

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps, err := setup(ctx, command, logger, "workdesk-sla")
			if err != nil {
				return err
			}

			defer func() {
				if err := deps.close(context.WithoutCancel(ctx)); err != nil {
					logger.ErrorContext(ctx, "Failed to release resources", "error", err)
				}
			}()

			schedule := deps.config.SLA.Schedule
			if s := command.String("schedule"); s != "" {
				schedule = s
			}

			watcher, err := sla.NewWatcher(deps.store, deps.bus, deps.clock, logger, schedule)
			if err != nil {
				return err
			}

			if command.Bool("once") {
				n, err := watcher.Scan(ctx)
				logger.InfoContext(ctx, "SLA scan finished", "breaches", n)

				return err
			}

			if err := watcher.Start(ctx); err != nil {
				return err
			}

			<-ctx.Done()
			watcher.Stop()

			return nil
		},
	}
}
