package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpapi "github.com/earth-module/tem-dashboard/internal/http"
	"github.com/earth-module/tem-dashboard/internal/http/handlers"
	"github.com/earth-module/tem-dashboard/internal/logging"
	"github.com/earth-module/tem-dashboard/internal/mqttpub"
	"github.com/earth-module/tem-dashboard/internal/storage"
)

var (
	serveAddr      string
	serveStaticDir string
	serveDBPath    string
	serveMQTT      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Poll the module and serve the dashboard API",
	Long: "serve polls the module continuously and exposes the dashboard over " +
		"HTTP with a WebSocket live feed. History recording and the MQTT state " +
		"feed start when a database path or broker is configured.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		if flags.Changed("addr") {
			cfg.HTTP.Addr = serveAddr
		}
		if flags.Changed("static-dir") {
			cfg.HTTP.StaticDir = serveStaticDir
		}
		if flags.Changed("db") {
			cfg.History.DBPath = serveDBPath
		}
		if flags.Changed("mqtt-broker") {
			cfg.MQTT.Broker = serveMQTT
		}
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (default :8099)")
	serveCmd.Flags().StringVar(&serveStaticDir, "static-dir", "", "directory with frontend assets")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "SQLite history database; empty disables history")
	serveCmd.Flags().StringVar(&serveMQTT, "mqtt-broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
}

func runServe(parent context.Context) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logger := logging.New(cfg.LogLevel(), cfg.Log.Format)
	a := newApp(cfg, logger)
	logger.Info("polling module", "base_url", a.client.BaseURL(), "interval", cfg.Device.PollInterval.String(), "layout", cfg.Device.Layout)

	var history handlers.History
	if cfg.HistoryEnabled() {
		if err := os.MkdirAll(cfg.DBDir(), 0o755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
		repo, err := storage.New(ctx, cfg.History.DBPath, logger)
		if err != nil {
			return fmt.Errorf("initialize storage: %w", err)
		}
		defer repo.Close()
		history = repo

		recorder := storage.NewRecorder(repo, a.store, storage.RecorderOptions{
			SampleInterval: cfg.History.SampleInterval,
			Retention:      cfg.History.Retention,
		}, logger)
		go recorder.Run(ctx)
	}

	if cfg.MQTTEnabled() {
		transport, err := mqttpub.Connect(mqttpub.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      1,
			Retain:   cfg.MQTT.Retain,
		}, logger)
		if err != nil {
			// The dashboard stays useful without the feed.
			logger.Warn("mqtt feed disabled", "err", err)
		} else {
			defer transport.Close()
			go mqttpub.NewFeed(transport, a.store, cfg.MQTT.Topic, logger).Run(ctx)
		}
	}

	live := handlers.NewLiveHub(a.store, logger)
	go live.Run(ctx)

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		a.poller.Run(ctx)
	}()

	api := handlers.New(a.service, a.store, a.poller, history, live, logger, cfg.HTTP.StaticDir)
	server := httpapi.NewServer(cfg.HTTP.Addr, httpapi.NewRouter(api, live))

	logger.Info("server starting", "addr", server.Addr)
	err := httpapi.RunServer(ctx, server, logger)
	cancel()
	<-pollDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server terminated: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
