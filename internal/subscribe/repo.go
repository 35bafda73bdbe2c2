package subscribe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inspirewall/pkg/models"
)

// Repo keeps the audit trail of subscription attempts.
type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) Record(ctx context.Context, email, source string, upstreamStatus int) (models.SubscriptionAttempt, error) {
	a := models.SubscriptionAttempt{
		ID:             uuid.NewString(),
		Email:          email,
		Source:         source,
		UpstreamStatus: upstreamStatus,
		CreatedAt:      time.Now().UTC(),
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO subscription_attempts (id, email, source, upstream_status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.Email, a.Source, a.UpstreamStatus, a.CreatedAt)
	if err != nil {
		return models.SubscriptionAttempt{}, fmt.Errorf("record attempt: %w", err)
	}
	return a, nil
}

type ListQuery struct {
	Email  string
	Limit  int
	Offset int
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.SubscriptionAttempt, error) {
	if q.Limit <= 0 || q.Limit > 500 {
		q.Limit = 100
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	query := `
		SELECT id, email, source, upstream_status, created_at
		FROM subscription_attempts`
	args := []any{}
	if q.Email != "" {
		query += ` WHERE LOWER(email) = LOWER(?)`
		args = append(args, q.Email)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := []models.SubscriptionAttempt{}
	for rows.Next() {
		var a models.SubscriptionAttempt
		if err := rows.Scan(&a.ID, &a.Email, &a.Source, &a.UpstreamStatus, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM subscription_attempts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}
