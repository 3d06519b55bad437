package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/phbpx/leadsync"
)

// lib/pq errorCodeNames
// https://github.com/lib/pq/blob/master/error.go#L178
const uniqueViolation = "23505"

type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{
		db: db,
	}
}

func (ls LeadStore) FindByUserID(ctx context.Context, userID string) (leadsync.Lead, error) {
	query := `
	SELECT
		user_id,
		name,
		gym_name,
		phone_number,
		status,
		created_at
	FROM leads
	WHERE user_id=$1`

	var lead leadsync.Lead
	err := ls.db.QueryRowContext(ctx, query, userID).Scan(
		&lead.UserID,
		&lead.Name,
		&lead.GymName,
		&lead.PhoneNumber,
		&lead.Status,
		&lead.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return leadsync.Lead{}, leadsync.ErrLeadNotFound
		}
		return leadsync.Lead{}, fmt.Errorf("%w: find lead %q: %w", leadsync.ErrStore, userID, err)
	}

	lead.CreatedAt = lead.CreatedAt.UTC()
	return lead, nil
}

func (ls LeadStore) Insert(ctx context.Context, lead leadsync.Lead) error {
	query := `
	INSERT INTO leads (
		user_id, name, gym_name, phone_number, status, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6
	)`

	_, err := ls.db.ExecContext(ctx, query,
		lead.UserID,
		lead.Name,
		lead.GymName,
		lead.PhoneNumber,
		lead.Status,
		lead.CreatedAt,
	)

	if err != nil {
		var pqerr *pq.Error
		if errors.As(err, &pqerr) && pqerr.Code == uniqueViolation {
			return leadsync.ErrDuplicatedLead
		}
		return fmt.Errorf("%w: insert lead %q: %w", leadsync.ErrStore, lead.UserID, err)
	}

	return nil
}

func (ls LeadStore) Update(ctx context.Context, lead leadsync.Lead) error {
	query := `
	UPDATE leads SET
		name = $2,
		gym_name = $3,
		phone_number = $4,
		status = $5
	WHERE user_id = $1`

	res, err := ls.db.ExecContext(ctx, query,
		lead.UserID,
		lead.Name,
		lead.GymName,
		lead.PhoneNumber,
		lead.Status,
	)
	if err != nil {
		return fmt.Errorf("%w: update lead %q: %w", leadsync.ErrStore, lead.UserID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update lead %q: %w", leadsync.ErrStore, lead.UserID, err)
	}
	if n == 0 {
		return leadsync.ErrLeadNotFound
	}
	return nil
}

func (ls LeadStore) Count(ctx context.Context, statuses ...string) (int, error) {
	var (
		n   int
		err error
	)

	if len(statuses) == 0 {
		err = ls.db.QueryRowContext(ctx, `SELECT count(*) FROM leads`).Scan(&n)
	} else {
		err = ls.db.QueryRowContext(ctx,
			`SELECT count(*) FROM leads WHERE status = ANY($1)`,
			pq.Array(statuses),
		).Scan(&n)
	}

	if err != nil {
		return 0, fmt.Errorf("%w: count leads: %w", leadsync.ErrStore, err)
	}
	return n, nil
}

func (ls LeadStore) List(ctx context.Context, limit int) ([]leadsync.Lead, error) {
	query := `
	SELECT
		user_id,
		name,
		gym_name,
		phone_number,
		status,
		created_at
	FROM leads
	ORDER BY created_at DESC
	LIMIT $1`

	rows, err := ls.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
	}
	defer rows.Close()

	leads := []leadsync.Lead{}
	for rows.Next() {
		var lead leadsync.Lead
		if err := rows.Scan(
			&lead.UserID,
			&lead.Name,
			&lead.GymName,
			&lead.PhoneNumber,
			&lead.Status,
			&lead.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
		}
		lead.CreatedAt = lead.CreatedAt.UTC()
		leads = append(leads, lead)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list leads: %w", leadsync.ErrStore, err)
	}
	return leads, nil
}
