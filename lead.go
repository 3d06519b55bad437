package leadsync

import (
	"context"
	"errors"
	"time"
)

var (
	ErrDuplicatedLead = errors.New("user id already in use")
	ErrLeadNotFound   = errors.New("lead not found")

	// ErrTransport reports that the feed could not be reached or answered
	// with a non-2xx status.
	ErrTransport = errors.New("feed transport error")

	// ErrInvalidFormat reports a feed body whose top-level value is not a
	// JSON array.
	ErrInvalidFormat = errors.New("invalid feed format")

	// ErrStore wraps any failure of the underlying record store.
	ErrStore = errors.New("record store error")
)

// Recognized lead statuses. Any other value may still be stored.
const (
	StatusNew       = "new"
	StatusQualified = "qualified"
	StatusContacted = "contacted"
	StatusConverted = "converted"
	StatusLost      = "lost"
)

// ListLimit caps every listing endpoint.
const ListLimit = 1000

type Lead struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	GymName     string    `json:"gym_name"`
	PhoneNumber string    `json:"phone_number"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type Stats struct {
	Total     int `json:"total_leads"`
	New       int `json:"new_leads"`
	Qualified int `json:"qualified_leads"`
	Converted int `json:"converted_leads"`
	Lost      int `json:"lost_leads"`
}

// LeadStore is the record store leads are reconciled against.
//
// FindByUserID returns ErrLeadNotFound when no lead carries the key. Update
// rewrites name, gym name, phone number and status of the lead with the same
// user id and never touches CreatedAt. Count with no statuses counts every
// lead, otherwise the leads whose status is one of the given values. List
// returns leads newest CreatedAt first.
type LeadStore interface {
	FindByUserID(ctx context.Context, userID string) (Lead, error)
	Insert(ctx context.Context, lead Lead) error
	Update(ctx context.Context, lead Lead) error
	Count(ctx context.Context, statuses ...string) (int, error)
	List(ctx context.Context, limit int) ([]Lead, error)
}
