package assessment

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLStore) Close() error                   { return s.db.Close() }

// PutCondition inserts a condition at the end of the catalog, or replaces
// the questions of an existing one without moving it.
func (s *SQLStore) PutCondition(ctx context.Context, c Condition) error {
	qj, err := json.Marshal(c.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO conditions (name,position,questions_json)
		VALUES ($1,(SELECT COALESCE(MAX(position),-1)+1 FROM conditions),$2)
		ON CONFLICT (name) DO UPDATE SET questions_json=EXCLUDED.questions_json`,
		c.Name, string(qj))
	return err
}

func (s *SQLStore) ListConditions(ctx context.Context) ([]Condition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name,questions_json FROM conditions ORDER BY position, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Condition{}
	for rows.Next() {
		var c Condition
		var qjson string
		if err := rows.Scan(&c.Name, &qjson); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(qjson), &c.Questions); err != nil {
			return nil, fmt.Errorf("condition %q: %w", c.Name, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetCondition(ctx context.Context, name string) (Condition, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name,questions_json FROM conditions WHERE name=$1`, name)
	var c Condition
	var qjson string
	if err := row.Scan(&c.Name, &qjson); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Condition{}, fmt.Errorf("condition %q: %w", name, ErrNotFound)
		}
		return Condition{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &c.Questions); err != nil {
		return Condition{}, fmt.Errorf("condition %q: %w", name, err)
	}
	return c, nil
}

func (s *SQLStore) UpsertSubmission(ctx context.Context, sub Submission) (Submission, error) {
	args, err := submissionArgs(sub)
	if err != nil {
		return Submission{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO submissions
		(id,name,email,gender,condition_name,answers_json,structured_json,results_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, email=EXCLUDED.email, gender=EXCLUDED.gender,
			condition_name=EXCLUDED.condition_name, answers_json=EXCLUDED.answers_json,
			structured_json=EXCLUDED.structured_json, results_json=EXCLUDED.results_json,
			updated_at=EXCLUDED.updated_at`,
		args...)
	if err != nil {
		return Submission{}, err
	}
	return s.GetSubmission(ctx, sub.ID)
}

func (s *SQLStore) InsertSubmission(ctx context.Context, sub Submission) (Submission, error) {
	args, err := submissionArgs(sub)
	if err != nil {
		return Submission{}, err
	}
	res, err := s.db.ExecContext(ctx, `INSERT INTO submissions
		(id,name,email,gender,condition_name,answers_json,structured_json,results_json,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO NOTHING`,
		args...)
	if err != nil {
		return Submission{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Submission{}, fmt.Errorf("submission %q: %w", sub.ID, ErrAlreadyExists)
	}
	return s.GetSubmission(ctx, sub.ID)
}

const submissionCols = `id,name,email,gender,condition_name,answers_json,structured_json,results_json,created_at,updated_at`

func (s *SQLStore) GetSubmission(ctx context.Context, id string) (Submission, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+submissionCols+` FROM submissions WHERE id=$1`, id)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, fmt.Errorf("submission %q: %w", id, ErrNotFound)
		}
		return Submission{}, err
	}
	return sub, nil
}

func (s *SQLStore) ListSubmissions(ctx context.Context, opts ListOpts) ([]Submission, error) {
	var q strings.Builder
	args := []any{}
	q.WriteString(`SELECT ` + submissionCols + ` FROM submissions`)
	if opts.Condition != "" {
		args = append(args, opts.Condition)
		fmt.Fprintf(&q, ` WHERE condition_name=$%d`, len(args))
	}
	q.WriteString(` ORDER BY updated_at DESC, id ASC`)
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		fmt.Fprintf(&q, ` LIMIT $%d`, len(args))
		if opts.Offset > 0 {
			args = append(args, opts.Offset)
			fmt.Fprintf(&q, ` OFFSET $%d`, len(args))
		}
	}

	rows, err := s.db.QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		return page(out, 0, opts.Offset), nil
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(r rowScanner) (Submission, error) {
	var sub Submission
	var answers, structured, results string
	var created, updated int64
	if err := r.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Gender, &sub.Condition,
		&answers, &structured, &results, &created, &updated); err != nil {
		return Submission{}, err
	}
	if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		return Submission{}, fmt.Errorf("submission %q answers: %w", sub.ID, err)
	}
	if err := json.Unmarshal([]byte(structured), &sub.Structured); err != nil {
		return Submission{}, fmt.Errorf("submission %q structured answers: %w", sub.ID, err)
	}
	if err := json.Unmarshal([]byte(results), &sub.Results); err != nil {
		return Submission{}, fmt.Errorf("submission %q results: %w", sub.ID, err)
	}
	sub.CreatedAt = time.UnixMilli(created).UTC()
	sub.UpdatedAt = time.UnixMilli(updated).UTC()
	return sub, nil
}

func submissionArgs(sub Submission) ([]any, error) {
	aj, err := json.Marshal(sub.Answers)
	if err != nil {
		return nil, err
	}
	structured := sub.Structured
	if structured == nil {
		structured = []StructuredAnswer{}
	}
	sj, err := json.Marshal(structured)
	if err != nil {
		return nil, err
	}
	rj, err := json.Marshal(sub.Results)
	if err != nil {
		return nil, err
	}
	return []any{
		sub.ID, sub.Name, sub.Email, sub.Gender, sub.Condition,
		string(aj), string(sj), string(rj),
		sub.CreatedAt.UnixMilli(), sub.UpdatedAt.UnixMilli(),
	}, nil
}
