// Package memory keeps leads and status checks in process memory. Nothing
// survives a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/phbpx/leadsync"
)

type LeadStore struct {
	mu    sync.RWMutex
	leads map[string]leadsync.Lead
}

func NewLeadStore() *LeadStore {
	return &LeadStore{leads: make(map[string]leadsync.Lead)}
}

func (s *LeadStore) FindByUserID(ctx context.Context, userID string) (leadsync.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.leads[userID]
	if !ok {
		return leadsync.Lead{}, leadsync.ErrLeadNotFound
	}
	return lead, nil
}

func (s *LeadStore) Insert(ctx context.Context, lead leadsync.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.leads[lead.UserID]; ok {
		return leadsync.ErrDuplicatedLead
	}
	s.leads[lead.UserID] = lead
	return nil
}

func (s *LeadStore) Update(ctx context.Context, lead leadsync.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.leads[lead.UserID]
	if !ok {
		return leadsync.ErrLeadNotFound
	}
	stored.Name = lead.Name
	stored.GymName = lead.GymName
	stored.PhoneNumber = lead.PhoneNumber
	stored.Status = lead.Status
	s.leads[lead.UserID] = stored
	return nil
}

func (s *LeadStore) Count(ctx context.Context, statuses ...string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(statuses) == 0 {
		return len(s.leads), nil
	}

	n := 0
	for _, lead := range s.leads {
		for _, st := range statuses {
			if lead.Status == st {
				n++
				break
			}
		}
	}
	return n, nil
}

func (s *LeadStore) List(ctx context.Context, limit int) ([]leadsync.Lead, error) {
	s.mu.RLock()
	leads := make([]leadsync.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		leads = append(leads, lead)
	}
	s.mu.RUnlock()

	sort.Slice(leads, func(i, j int) bool {
		if leads[i].CreatedAt.Equal(leads[j].CreatedAt) {
			return leads[i].UserID < leads[j].UserID
		}
		return leads[i].CreatedAt.After(leads[j].CreatedAt)
	})

	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	return leads, nil
}

type StatusCheckStore struct {
	mu     sync.RWMutex
	checks []leadsync.StatusCheck
}

func NewStatusCheckStore() *StatusCheckStore {
	return &StatusCheckStore{}
}

func (s *StatusCheckStore) Create(ctx context.Context, check leadsync.StatusCheck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checks = append(s.checks, check)
	return nil
}

// List returns checks in insertion order.
func (s *StatusCheckStore) List(ctx context.Context, limit int) ([]leadsync.StatusCheck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.checks)
	if limit > 0 && n > limit {
		n = limit
	}
	checks := make([]leadsync.StatusCheck, n)
	copy(checks, s.checks[:n])
	return checks, nil
}
