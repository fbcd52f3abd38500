package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

type wrongAnswerRepo struct {
	db *sql.DB
}

func (r *wrongAnswerRepo) Add(ctx context.Context, data WrongAnswerData) error {
	opts, err := json.Marshal(data.Options)
	if err != nil {
		return fmt.Errorf("marshal options: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO wrong_answers
			(source_file, question, options_json, correct_index, selected_index, model)
		VALUES (?, ?, ?, ?, ?, ?)`,
		data.SourceFile, data.Question, string(opts), data.CorrectIndex, data.SelectedIndex, data.Model,
	)
	if err != nil {
		return fmt.Errorf("insert wrong answer: %w", err)
	}
	return nil
}

func (r *wrongAnswerRepo) List(ctx context.Context, source string, limit int) ([]WrongAnswerRecord, error) {
	query := `
		SELECT id, COALESCE(source_file, ''), question, options_json,
			correct_index, selected_index, COALESCE(model, ''), created_at
		FROM wrong_answers`
	args := []any{}
	if source != "" {
		query += ` WHERE source_file = ?`
		args = append(args, source)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wrong answers: %w", err)
	}
	defer rows.Close()

	var out []WrongAnswerRecord
	for rows.Next() {
		var (
			rec  WrongAnswerRecord
			opts string
		)
		err := rows.Scan(&rec.ID, &rec.SourceFile, &rec.Question, &opts,
			&rec.CorrectIndex, &rec.SelectedIndex, &rec.Model, &rec.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan wrong answer: %w", err)
		}
		if opts != "" {
			_ = json.Unmarshal([]byte(opts), &rec.Options)
		}
		if rec.Options == nil {
			rec.Options = []string{}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *wrongAnswerRepo) Collections(ctx context.Context) ([]WrongAnswerCollection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			wa.source_file,
			COALESCE(uf.created_at, MIN(wa.created_at)) AS date_uploaded,
			COUNT(*)
		FROM wrong_answers wa
		LEFT JOIN uploaded_files uf ON uf.file_name = wa.source_file
		WHERE wa.source_file IS NOT NULL AND TRIM(wa.source_file) != ''
		GROUP BY wa.source_file
		ORDER BY date_uploaded DESC`)
	if err != nil {
		return nil, fmt.Errorf("query wrong answer collections: %w", err)
	}
	defer rows.Close()

	var out []WrongAnswerCollection
	for rows.Next() {
		var c WrongAnswerCollection
		if err := rows.Scan(&c.SourceFile, &c.DateUploaded, &c.WrongCount); err != nil {
			return nil, fmt.Errorf("scan wrong answer collection: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *wrongAnswerRepo) DeleteCollection(ctx context.Context, source string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wrong_answers WHERE source_file = ?`, source)
	if err != nil {
		return 0, fmt.Errorf("delete wrong answers: %w", err)
	}
	return res.RowsAffected()
}
