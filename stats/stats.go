// Package stats counts stored leads per status category.
package stats

import (
	"context"
	"fmt"

	"github.com/phbpx/leadsync"
)

// Counter is the slice of leadsync.LeadStore the aggregator needs.
type Counter interface {
	Count(ctx context.Context, statuses ...string) (int, error)
}

type Aggregator struct {
	store Counter
}

func NewAggregator(store Counter) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate runs one count per bucket. "qualified" covers both the qualified
// and contacted statuses. Leads with other statuses only count towards Total.
func (a *Aggregator) Aggregate(ctx context.Context) (leadsync.Stats, error) {
	var s leadsync.Stats

	buckets := []struct {
		name     string
		dst      *int
		statuses []string
	}{
		{"total", &s.Total, nil},
		{"new", &s.New, []string{leadsync.StatusNew}},
		{"qualified", &s.Qualified, []string{leadsync.StatusQualified, leadsync.StatusContacted}},
		{"converted", &s.Converted, []string{leadsync.StatusConverted}},
		{"lost", &s.Lost, []string{leadsync.StatusLost}},
	}

	for _, b := range buckets {
		n, err := a.store.Count(ctx, b.statuses...)
		if err != nil {
			return leadsync.Stats{}, fmt.Errorf("%w: counting %s leads: %w", leadsync.ErrStore, b.name, err)
		}
		*b.dst = n
	}

	return s, nil
}
