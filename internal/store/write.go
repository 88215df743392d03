package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/resin/internal/engine"
)

// Image statuses stored in items.image_status.
const (
	ImagePending = "pending"
	ImageOK      = "ok"
	ImageFailed  = "failed"
)

var _ engine.Recorder = (*Ledger)(nil)

// BeginRun inserts a running run and returns its id. The run's
// started_seq is one past the highest recorded so far.
func (l *Ledger) BeginRun(ctx context.Context, info engine.RunInfo) (string, error) {
	id := l.ids.Generate()

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO runs (id, config_hash, amount, started_seq, status)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(started_seq), 0) + 1 FROM runs), ?)
	`,
		id,
		info.ConfigHash,
		info.Amount,
		string(engine.RunRunning),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordItem inserts an emitted item with a pending image.
// Re-recording the same index replaces the row.
func (l *Ledger) RecordItem(ctx context.Context, runID string, item engine.ItemInfo) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO items (run_id, item_index, fingerprint, source, retries, image_status)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (run_id, item_index) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			source = excluded.source,
			retries = excluded.retries,
			image_status = excluded.image_status,
			error = NULL
	`,
		runID,
		item.Index,
		item.Fingerprint,
		string(item.Source),
		item.Retries,
		ImagePending,
	)
	if err != nil {
		return fmt.Errorf("record item %d: %w", item.Index, err)
	}
	return nil
}

// RecordImage sets an item's image status. A nil imageErr marks success.
//
// Items composited from an existing output (skip-metadata runs) have no
// row yet; they are inserted with an empty fingerprint.
func (l *Ledger) RecordImage(ctx context.Context, runID string, index int, imageErr error) error {
	status := ImageOK
	var msg sql.NullString
	if imageErr != nil {
		status = ImageFailed
		msg = sql.NullString{String: imageErr.Error(), Valid: true}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO items (run_id, item_index, fingerprint, source, image_status, error)
		VALUES (?, ?, '', ?, ?, ?)
		ON CONFLICT (run_id, item_index) DO UPDATE SET
			image_status = excluded.image_status,
			error = excluded.error
	`,
		runID,
		index,
		string(engine.SourceExisting),
		status,
		msg,
	)
	if err != nil {
		return fmt.Errorf("record image %d: %w", index, err)
	}
	return nil
}

// FinishRun sets a run's final status.
func (l *Ledger) FinishRun(ctx context.Context, runID string, status engine.RunStatus) error {
	res, err := l.db.ExecContext(ctx, `UPDATE runs SET status = ? WHERE id = ?`, string(status), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish run: unknown run %q", runID)
	}
	return nil
}
