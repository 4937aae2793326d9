package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"datepick/internal/config"
	"datepick/internal/ics"
	appLog "datepick/internal/log"
	"datepick/internal/picker"
)

const version = "0.1.0"

type app struct {
	configPath string
	cfg        *config.Config
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		appLog.Error("datepick failed", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "datepick",
		Short:        "Month sheets and bounded date/time selection",
		Version:      version,
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Print the sheet for February 2024
  datepick month --date 2024-02

  # Serve the picker API
  datepick serve --listen 127.0.0.1:8080
`),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
			appLog.Debug("config loaded", "path", a.configPath, "week_start", cfg.WeekStart, "timezone", cfg.Timezone)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", defaultConfigPath(), "Path to config file")

	cmd.AddCommand(newMonthCmd(a))
	cmd.AddCommand(newServeCmd(a))
	return cmd
}

func defaultConfigPath() string {
	if p := os.Getenv("DATEPICK_CONFIG"); p != "" {
		return p
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return dir + "/datepick/config.yaml"
	}
	return "./datepick.yaml"
}

// newController builds the picker from config, attaching the annotation
// store and a logging observer.
func (a *app) newController(store *ics.Store, current *time.Time) (*picker.Controller, error) {
	pcfg, err := a.cfg.PickerConfig()
	if err != nil {
		return nil, err
	}
	if current != nil {
		pcfg.Current = current
	}
	if store != nil {
		pcfg.Annotator = store
	}
	pcfg.OnChange = func(sel *time.Time) {
		if sel == nil {
			appLog.Info("selection cleared")
			return
		}
		appLog.Info("selection changed", "selected", sel.Format(time.RFC3339))
	}
	return picker.New(pcfg)
}

// refreshAnnotations rebuilds the store from the configured feeds.
func (a *app) refreshAnnotations(ctx context.Context, store *ics.Store, loader *ics.Loader) error {
	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	return store.Refresh(ctx, loader, ics.RefreshConfig{
		Sources:  a.cfg.Sources(),
		Location: loc,
		Horizon:  a.cfg.Horizon(),
		Now:      time.Now().In(loc),
	})
}
