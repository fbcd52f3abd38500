package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type uploadRepo struct {
	db *sql.DB
}

func (r *uploadRepo) Has(ctx context.Context, name string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `SELECT id FROM uploaded_files WHERE file_name = ?`, name).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup upload: %w", err)
	}
	return true, nil
}

func (r *uploadRepo) Bytes(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT file_data FROM uploaded_file_sources WHERE file_name = ?`, name,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && data == nil) {
		return nil, fmt.Errorf("uploaded source %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}

func (r *uploadRepo) SaveWithQuestions(ctx context.Context, name string, data []byte, model string, qs []QuestionData) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := upsertUpload(ctx, tx, name, data); err != nil {
		return 0, err
	}
	if err := insertQuestions(ctx, tx, name, model, qs); err != nil {
		return 0, err
	}
	total, err := countQuestions(ctx, tx, name)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return total, nil
}

func upsertUpload(ctx context.Context, q querier, name string, data []byte) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO uploaded_files (file_name) VALUES (?)
		ON CONFLICT(file_name) DO UPDATE SET updated_at = CURRENT_TIMESTAMP`, name)
	if err != nil {
		return fmt.Errorf("upsert upload: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO uploaded_file_sources (file_name, file_data) VALUES (?, ?)
		ON CONFLICT(file_name) DO UPDATE SET
			file_data = excluded.file_data,
			updated_at = CURRENT_TIMESTAMP`, name, data)
	if err != nil {
		return fmt.Errorf("upsert upload source: %w", err)
	}
	return nil
}
