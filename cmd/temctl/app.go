package main

import (
	"log/slog"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/config"
	"github.com/earth-module/tem-dashboard/internal/poller"
	"github.com/earth-module/tem-dashboard/internal/service"
	"github.com/earth-module/tem-dashboard/internal/state"
	"github.com/earth-module/tem-dashboard/internal/temapi"
)

// app is the object graph shared by every command.
type app struct {
	client  *temapi.Client
	store   *state.Store
	poller  *poller.Poller
	service *service.Service
}

func newApp(c config.Config, logger *slog.Logger) *app {
	client := temapi.NewClient(c.Device.Endpoint)
	store := state.New(catalog.Default(), state.Options{
		Layout:           c.OutputLayout(),
		OfflineThreshold: c.Device.OfflineThreshold,
	})
	p := poller.New(client, store, poller.Options{
		Interval:         c.Device.PollInterval,
		UpdateCheckDelay: c.Device.UpdateCheckDelay,
		SkipUpdateCheck:  c.Device.SkipUpdateCheck,
	}, logger)
	return &app{
		client:  client,
		store:   store,
		poller:  p,
		service: service.New(client, store, p, logger),
	}
}
