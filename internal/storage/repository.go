package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/earth-module/tem-dashboard/internal/model"
	"github.com/earth-module/tem-dashboard/internal/state"
)

const defaultListLimit = 500

// Sample is one recorded environmental reading.
type Sample struct {
	RecordedAt time.Time `json:"recorded_at"`
	Field      string    `json:"field"`
	Value      float64   `json:"value"`
}

// OutputSample is one recorded output level.
type OutputSample struct {
	RecordedAt time.Time `json:"recorded_at"`
	Channel    string    `json:"channel"`
	ParamID    int       `json:"param_id"`
	Level      float64   `json:"level"`
}

// Event is a notable device occurrence such as a connection change.
type Event struct {
	RecordedAt time.Time `json:"recorded_at"`
	Kind       string    `json:"kind"`
	Detail     string    `json:"detail"`
}

// InsertSamples stores every numeric environment field and every reported
// output level at time at. Placeholders and textual values are skipped.
func (r *Repository) InsertSamples(ctx context.Context, at time.Time, env model.Environment, outputs []state.Channel) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stamp := formatTime(at)
	envStmt, err := tx.PrepareContext(ctx, `INSERT INTO env_samples (recorded_at, field, value) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer envStmt.Close()

	fields := make([]string, 0, len(env))
	for field := range env {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		v, ok := env[field].Float()
		if !ok {
			continue
		}
		if _, err := envStmt.ExecContext(ctx, stamp, field, v); err != nil {
			return fmt.Errorf("insert sample %s: %w", field, err)
		}
	}

	outStmt, err := tx.PrepareContext(ctx, `INSERT INTO output_samples (recorded_at, channel, param_id, level) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer outStmt.Close()
	for _, ch := range outputs {
		if ch.Level == nil {
			continue
		}
		level, ok := model.Number(*ch.Level).Float()
		if !ok {
			continue
		}
		if _, err := outStmt.ExecContext(ctx, stamp, ch.Name, ch.ParamID, level); err != nil {
			return fmt.Errorf("insert output %s: %w", ch.Name, err)
		}
	}
	return tx.Commit()
}

// ListSamples returns readings of field recorded at or after since, oldest
// first.
func (r *Repository) ListSamples(ctx context.Context, field string, since time.Time, limit int) ([]Sample, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT recorded_at, field, value FROM (
			SELECT id, recorded_at, field, value
			FROM env_samples
			WHERE field = ? AND recorded_at >= ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, field, formatTime(since), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Sample
	for rows.Next() {
		var (
			item       Sample
			recordedAt string
		)
		if err := rows.Scan(&recordedAt, &item.Field, &item.Value); err != nil {
			return nil, err
		}
		item.RecordedAt = parseTime(recordedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// ListOutputSamples returns levels of channel recorded at or after since,
// oldest first.
func (r *Repository) ListOutputSamples(ctx context.Context, channel string, since time.Time, limit int) ([]OutputSample, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT recorded_at, channel, param_id, level FROM (
			SELECT id, recorded_at, channel, param_id, level
			FROM output_samples
			WHERE channel = ? AND recorded_at >= ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`, channel, formatTime(since), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OutputSample
	for rows.Next() {
		var (
			item       OutputSample
			recordedAt string
		)
		if err := rows.Scan(&recordedAt, &item.Channel, &item.ParamID, &item.Level); err != nil {
			return nil, err
		}
		item.RecordedAt = parseTime(recordedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *Repository) InsertEvent(ctx context.Context, event Event) error {
	if event.RecordedAt.IsZero() {
		event.RecordedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO device_events (recorded_at, kind, detail) VALUES (?, ?, ?)`,
		formatTime(event.RecordedAt), event.Kind, event.Detail)
	return err
}

// ListEvents returns the most recent events, newest first.
func (r *Repository) ListEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT recorded_at, kind, detail FROM device_events
		ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Event
	for rows.Next() {
		var (
			item       Event
			recordedAt string
		)
		if err := rows.Scan(&recordedAt, &item.Kind, &item.Detail); err != nil {
			return nil, err
		}
		item.RecordedAt = parseTime(recordedAt)
		items = append(items, item)
	}
	return items, rows.Err()
}

// Prune deletes history older than before and returns the number of rows
// removed.
func (r *Repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var total int64
	cutoff := formatTime(before)
	for _, table := range []string{"env_samples", "output_samples", "device_events"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE recorded_at < ?", cutoff)
		if err != nil {
			return 0, fmt.Errorf("prune %s: %w", table, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			total += n
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return total, nil
}
