package repository

import (
	"context"
	"strconv"

	"github.com/campushq/campusgate/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthEventRepository handles the auth audit trail.
type AuthEventRepository struct {
	pool *pgxpool.Pool
}

// NewAuthEventRepository creates a new AuthEventRepository.
func NewAuthEventRepository(pool *pgxpool.Pool) *AuthEventRepository {
	return &AuthEventRepository{pool: pool}
}

// Insert records a single auth event.
func (r *AuthEventRepository) Insert(ctx context.Context, e *model.AuthEvent) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO auth_events (user_id, username, event, client_ip)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.UserID, e.Username, e.Event, e.ClientIP,
	).Scan(&e.ID, &e.CreatedAt)
}

// ListPaginated retrieves audit events, newest first, with an optional
// user filter.
func (r *AuthEventRepository) ListPaginated(ctx context.Context, userID *int, limit, offset int) ([]model.AuthEvent, int, error) {
	countQuery := `SELECT COUNT(*) FROM auth_events`
	var countArgs []interface{}
	if userID != nil {
		countQuery += ` WHERE user_id = $1`
		countArgs = append(countArgs, *userID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT id, user_id, username, event, client_ip, created_at FROM auth_events`
	var args []interface{}
	argIdx := 1

	if userID != nil {
		query += ` WHERE user_id = $1`
		args = append(args, *userID)
		argIdx++
	}

	query += ` ORDER BY id DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []model.AuthEvent
	for rows.Next() {
		var e model.AuthEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.Username, &e.Event, &e.ClientIP, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}
