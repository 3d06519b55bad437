package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/phbpx/leadsync"
)

type StatusCheckStore struct {
	db *sql.DB
}

func NewStatusCheckStore(db *sql.DB) *StatusCheckStore {
	return &StatusCheckStore{
		db: db,
	}
}

func (ss StatusCheckStore) Create(ctx context.Context, check leadsync.StatusCheck) error {
	query := `
	INSERT INTO status_checks (
		id, client_name, checked_at
	) VALUES (
		$1, $2, $3
	)`

	if _, err := ss.db.ExecContext(ctx, query, check.ID, check.ClientName, check.Timestamp); err != nil {
		return fmt.Errorf("%w: insert status check: %w", leadsync.ErrStore, err)
	}
	return nil
}

func (ss StatusCheckStore) List(ctx context.Context, limit int) ([]leadsync.StatusCheck, error) {
	query := `
	SELECT id, client_name, checked_at
	FROM status_checks
	ORDER BY checked_at
	LIMIT $1`

	rows, err := ss.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list status checks: %w", leadsync.ErrStore, err)
	}
	defer rows.Close()

	checks := []leadsync.StatusCheck{}
	for rows.Next() {
		var c leadsync.StatusCheck
		if err := rows.Scan(&c.ID, &c.ClientName, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: list status checks: %w", leadsync.ErrStore, err)
		}
		c.Timestamp = c.Timestamp.UTC()
		checks = append(checks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list status checks: %w", leadsync.ErrStore, err)
	}
	return checks, nil
}
