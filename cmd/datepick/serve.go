package main

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"datepick/internal/ics"
	appLog "datepick/internal/log"
	"datepick/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the picker API and keep annotation feeds fresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			return a.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}

	store := &ics.Store{}
	loader := ics.NewLoader(nil)
	if err := a.refreshAnnotations(ctx, store, loader); err != nil {
		// Serve without marks rather than refusing to start.
		appLog.Error("initial annotation refresh failed", err)
	}

	pc, err := a.newController(store, nil)
	if err != nil {
		return err
	}

	appLog.Info("effective config",
		"listen", a.cfg.Listen,
		"timezone", loc.String(),
		"week_start", a.cfg.WeekStart,
		"military_time", a.cfg.MilitaryTime,
		"deselectable", a.cfg.Deselectable,
		"ics_count", len(a.cfg.ICS),
		"refresh", a.cfg.RefreshCron,
	)

	g, ctx := errgroup.WithContext(ctx)

	sched := cron.New(cron.WithLocation(loc))
	if len(a.cfg.ICS) > 0 {
		if _, err := sched.AddFunc(a.cfg.RefreshCron, func() {
			if err := a.refreshAnnotations(ctx, store, loader); err != nil {
				appLog.Error("scheduled annotation refresh failed", err)
			}
		}); err != nil {
			return err
		}
	}

	g.Go(func() error {
		sched.Start()
		<-ctx.Done()
		<-sched.Stop().Done()
		return nil
	})

	srv := web.NewServer(a.cfg, pc)
	g.Go(func() error {
		return srv.ListenAndServe(ctx, a.cfg.Listen)
	})

	err = g.Wait()
	appLog.Info("datepick exiting")
	return err
}
