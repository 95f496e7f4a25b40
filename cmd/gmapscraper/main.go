// Command gmapscraper harvests place listings from a map-search results feed
// into a CSV file and enriches them with e-mail addresses found on the
// listed websites.
package main

import (
	"context"
	"log/slog"
	"os"
	"syscall"
	"time"

	"charm.land/fang/v2"
	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/Rituraj200000/googlemapscraper/api"
	"github.com/Rituraj200000/googlemapscraper/api/handler"
	"github.com/Rituraj200000/googlemapscraper/config"
	"github.com/Rituraj200000/googlemapscraper/webhook"
)

// stopSignals cancel the running command; rows already written are kept.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithNotifySignal(stopSignals...),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:     "gmapscraper",
		Short:   "Harvest map-search listings and enrich them with e-mail addresses",
		Version: handler.Version,
		Example: `  # Prompt for a query or URL, then harvest
  gmapscraper harvest

  # Harvest a query without prompting
  gmapscraper harvest --query "coffee in Brooklyn"

  # Add e-mail addresses to the harvested listings
  gmapscraper enrich --input gmaps_data.csv`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			*cfg = *config.Load()
			initLogger(cfg.Log)
		},
	}

	root.AddCommand(newHarvestCmd(cfg), newEnrichCmd(cfg))
	return root
}

// initLogger configures slog based on the LogConfig. Logs go to stderr so
// prompts and the final tally stay readable on stdout.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	var charmLevel charmlog.Level
	switch cfg.Level {
	case "debug":
		level, charmLevel = slog.LevelDebug, charmlog.DebugLevel
	case "warn":
		level, charmLevel = slog.LevelWarn, charmlog.WarnLevel
	case "error":
		level, charmLevel = slog.LevelError, charmlog.ErrorLevel
	default:
		level, charmLevel = slog.LevelInfo, charmlog.InfoLevel
	}

	var h slog.Handler
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		h = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			Level:           charmLevel,
			ReportTimestamp: true,
			TimeFormat:      time.TimeOnly,
		})
	}

	slog.SetDefault(slog.New(h))
}

// startStatus serves progress from tracker until ctx is done. It does
// nothing when no address is configured.
func startStatus(ctx context.Context, cfg config.StatusConfig, tracker *handler.Tracker) {
	if cfg.Addr == "" {
		return
	}
	api.Serve(ctx, cfg.Addr, api.NewRouter(cfg, tracker, time.Now()))
}

// notify posts a completion event and waits for the delivery to finish,
// retries included.
func notify(cfg config.WebhookConfig, eventType, runID string, data any) {
	if cfg.URL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	<-webhook.DeliverAsync(ctx, cfg.URL, cfg.Secret, webhook.NewEvent(eventType, runID, data))
}
