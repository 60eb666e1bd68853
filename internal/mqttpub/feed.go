// Package mqttpub mirrors the dashboard state onto an MQTT broker so home
// automation can react to module readings and output levels.
package mqttpub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/earth-module/tem-dashboard/internal/catalog"
	"github.com/earth-module/tem-dashboard/internal/dashboard"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const DefaultTopic = "tem"

// Source is implemented by *state.Store.
type Source interface {
	Subscribe() (<-chan state.Snapshot, func())
	Catalog() *catalog.Catalog
}

// Feed publishes:
//
//	<prefix>/state               full dashboard view (JSON)
//	<prefix>/connection          connected | offline
//	<prefix>/outputs/<channel>   rendered output card (JSON)
type Feed struct {
	transport Transport
	source    Source
	prefix    string
	logger    *slog.Logger

	lastConnection state.Connection
	lastOutputs    map[string]string
}

func NewFeed(transport Transport, source Source, prefix string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultTopic
	}
	return &Feed{
		transport:   transport,
		source:      source,
		prefix:      prefix,
		logger:      logger.With("component", "mqtt_feed"),
		lastOutputs: map[string]string{},
	}
}

// Run publishes every store change until ctx is done. Publish failures are
// logged; the next change is attempted regardless.
func (f *Feed) Run(ctx context.Context) {
	updates, cancel := f.source.Subscribe()
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			if err := f.Publish(snap); err != nil {
				f.logger.Warn("mqtt publish failed", "revision", snap.Revision, "err", err)
			}
		}
	}
}

// Publish sends one snapshot. The connection and per-output topics are only
// written when their content changed.
func (f *Feed) Publish(snap state.Snapshot) error {
	view := dashboard.Build(snap, f.source.Catalog())

	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("marshal view: %w", err)
	}
	if err := f.transport.Publish(f.topic("state"), payload); err != nil {
		return err
	}

	if snap.Connection != f.lastConnection {
		if err := f.transport.Publish(f.topic("connection"), []byte(snap.Connection)); err != nil {
			return err
		}
		f.lastConnection = snap.Connection
	}

	for _, card := range view.Cards {
		body, err := json.Marshal(outputMessage{
			ParamID:    card.ParamID,
			ParamLabel: card.ParamLabel,
			Actual:     card.Actual,
			Text:       card.Output.Text,
			Percent:    card.Output.Bar,
			High:       card.Output.High,
		})
		if err != nil {
			return fmt.Errorf("marshal %s: %w", card.Channel, err)
		}
		if f.lastOutputs[card.Channel] == string(body) {
			continue
		}
		if err := f.transport.Publish(f.topic("outputs/"+card.Channel), body); err != nil {
			return err
		}
		f.lastOutputs[card.Channel] = string(body)
	}
	return nil
}

type outputMessage struct {
	ParamID    int     `json:"param_id"`
	ParamLabel string  `json:"param_label"`
	Actual     string  `json:"actual"`
	Text       string  `json:"text"`
	Percent    float64 `json:"percent"`
	High       bool    `json:"high"`
}

func (f *Feed) topic(suffix string) string {
	return f.prefix + "/" + suffix
}
