package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type questionRepo struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *questionRepo) Count(ctx context.Context, source string) (int, error) {
	return countQuestions(ctx, r.db, source)
}

func countQuestions(ctx context.Context, q querier, source string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generated_questions WHERE source_file = ?`, source,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

func insertQuestions(ctx context.Context, q querier, source, model string, qs []QuestionData) error {
	for _, question := range qs {
		body, err := json.Marshal(question)
		if err != nil {
			return fmt.Errorf("marshal question: %w", err)
		}
		_, err = q.ExecContext(ctx,
			`INSERT INTO generated_questions (source_file, model, question_json) VALUES (?, ?, ?)`,
			source, model, string(body),
		)
		if err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}
	return nil
}

func (r *questionRepo) Append(ctx context.Context, source, model string, qs []QuestionData) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertQuestions(ctx, tx, source, model, qs); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *questionRepo) AppendCapped(ctx context.Context, source, model string, qs []QuestionData, capacity int) (int, int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	current, err := countQuestions(ctx, tx, source)
	if err != nil {
		return 0, 0, err
	}

	room := capacity - current
	if room <= 0 {
		return 0, current, nil
	}
	if len(qs) > room {
		qs = qs[:room]
	}

	if err := insertQuestions(ctx, tx, source, model, qs); err != nil {
		return 0, current, err
	}
	if err := tx.Commit(); err != nil {
		return 0, current, fmt.Errorf("commit: %w", err)
	}
	return len(qs), current + len(qs), nil
}

func (r *questionRepo) ListBySource(ctx context.Context, source string, limit int) ([]QuestionRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_file, model, question_json, created_at
		FROM generated_questions
		WHERE source_file = ?
		ORDER BY id DESC
		LIMIT ?`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var out []QuestionRecord
	for rows.Next() {
		var (
			rec  QuestionRecord
			body string
		)
		if err := rows.Scan(&rec.ID, &rec.SourceFile, &rec.Model, &body, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		// Rows with unreadable JSON are listed with empty fields.
		rec.CorrectIndex = -1
		_ = json.Unmarshal([]byte(body), &rec.QuestionData)
		if rec.Options == nil {
			rec.Options = []string{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *questionRepo) Collections(ctx context.Context) ([]QuestionCollection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			gq.source_file,
			COALESCE(uf.created_at, MIN(gq.created_at)) AS date_created,
			COUNT(*)
		FROM generated_questions gq
		LEFT JOIN uploaded_files uf ON uf.file_name = gq.source_file
		WHERE gq.source_file IS NOT NULL AND TRIM(gq.source_file) != ''
		GROUP BY gq.source_file
		ORDER BY date_created DESC`)
	if err != nil {
		return nil, fmt.Errorf("query question collections: %w", err)
	}
	defer rows.Close()

	var out []QuestionCollection
	for rows.Next() {
		var c QuestionCollection
		if err := rows.Scan(&c.SourceFile, &c.DateCreated, &c.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan question collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *questionRepo) DeleteCollection(ctx context.Context, source string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM generated_questions WHERE source_file = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}
	return res.RowsAffected()
}
