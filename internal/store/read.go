package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded batch with its item tallies.
type Run struct {
	ID         string `json:"id"`
	ConfigHash string `json:"config_hash"`
	Amount     int    `json:"amount"`
	Seq        int64  `json:"started_seq"`
	Status     string `json:"status"`
	Items      int    `json:"items"`
	Composited int    `json:"composited"`
	Failed     int    `json:"failed"`
}

// Item is one recorded item.
type Item struct {
	Index       int    `json:"index"`
	Fingerprint string `json:"fingerprint"`
	Source      string `json:"source"`
	Retries     int    `json:"retries"`
	ImageStatus string `json:"image_status"`
	Error       string `json:"error,omitempty"`
}

const runColumns = `
	r.id, r.config_hash, r.amount, r.started_seq, r.status,
	COUNT(i.item_index),
	COALESCE(SUM(i.image_status = 'ok'), 0),
	COALESCE(SUM(i.image_status = 'failed'), 0)
`

// ListRuns returns every run, oldest first.
//
// Returns an empty slice (not nil) if the ledger is empty.
func (l *Ledger) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r LEFT JOIN items i ON i.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run, or ErrRunNotFound.
func (l *Ledger) GetRun(ctx context.Context, id string) (Run, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs r LEFT JOIN items i ON i.run_id = r.id
		WHERE r.id = ?
		GROUP BY r.id
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// ListItems returns the items of a run in index order.
func (l *Ledger) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT item_index, fingerprint, source, retries, image_status, error
		FROM items
		WHERE run_id = ?
		ORDER BY item_index ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		var msg sql.NullString
		if err := rows.Scan(&it.Index, &it.Fingerprint, &it.Source, &it.Retries, &it.ImageStatus, &msg); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		it.Error = msg.String
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var r Run
	err := s.Scan(&r.ID, &r.ConfigHash, &r.Amount, &r.Seq, &r.Status, &r.Items, &r.Composited, &r.Failed)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
