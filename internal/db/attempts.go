package db

import (
	"fmt"
	"time"
)

type AttemptEvent struct {
	UserID     string
	Square     string
	Correct    bool
	Mode       string
	AnsweredAt time.Time
}

func (d *DB) RecordAttempt(ev AttemptEvent) error {
	_, err := d.conn.Exec(`
		INSERT INTO attempt_events (user_id, square, correct, mode, answered_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ev.UserID, ev.Square, ev.Correct, ev.Mode, ev.AnsweredAt)
	if err != nil {
		return fmt.Errorf("recording attempt: %w", err)
	}
	return nil
}

func (d *DB) BatchRecordAttempts(events []AttemptEvent) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO attempt_events (user_id, square, correct, mode, answered_at)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, ev := range events {
		if _, err := stmt.Exec(ev.UserID, ev.Square, ev.Correct, ev.Mode, ev.AnsweredAt); err != nil {
			return fmt.Errorf("recording attempt in batch: %w", err)
		}
	}

	return tx.Commit()
}
