package leadsync

import (
	"context"
	"time"
)

// StatusCheck is a named, timestamped health-check record. It is independent
// of leads.
type StatusCheck struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

type StatusCheckStore interface {
	Create(ctx context.Context, check StatusCheck) error
	List(ctx context.Context, limit int) ([]StatusCheck, error)
}
