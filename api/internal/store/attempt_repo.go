package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schemaSQL string

// Attempt is one completed grading round.
type Attempt struct {
	RoundID    uuid.UUID
	CreatedAt  time.Time
	UserID     int64
	DishName   string
	Engine     string
	Model      string
	Answer     string
	Evaluation string
	Failed     bool
	Duration   time.Duration
}

type AttemptRepo struct{ DB *sql.DB }

func NewAttemptRepo(db *sql.DB) *AttemptRepo { return &AttemptRepo{DB: db} }

// Migrate creates the attempts table if needed.
func (r *AttemptRepo) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("store: apply schema: %w", err)
	}
	return nil
}

func (r *AttemptRepo) Record(ctx context.Context, a Attempt) error {
	const q = `
insert into quiz_attempts(round_id, user_id, dish_name, engine, model, answer, evaluation, failed, duration_ms)
values ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.DB.ExecContext(ctx, q, a.RoundID, a.UserID, a.DishName, a.Engine, a.Model,
		a.Answer, a.Evaluation, a.Failed, a.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("store: insert attempt: %w", err)
	}
	return nil
}

// recent returns the user's latest attempts, newest first.
func (r *AttemptRepo) recent(ctx context.Context, userID int64, limit int) ([]Attempt, error) {
	const q = `
select round_id, created_at, user_id, dish_name, engine, model, answer, evaluation, failed, duration_ms
from quiz_attempts
where user_id = $1
order by created_at desc, id desc
limit $2`
	rows, err := r.DB.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query attempts: %w", err)
	}
	defer rows.Close()

	var out []Attempt
	for rows.Next() {
		var (
			a  Attempt
			ms int64
		)
		if err := rows.Scan(&a.RoundID, &a.CreatedAt, &a.UserID, &a.DishName, &a.Engine, &a.Model,
			&a.Answer, &a.Evaluation, &a.Failed, &ms); err != nil {
			return nil, fmt.Errorf("store: scan attempt: %w", err)
		}
		a.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, a)
	}
	return out, rows.Err()
}

// Ping checks the connection within ctx.
func (r *AttemptRepo) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
