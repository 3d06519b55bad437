package reconcile

import "github.com/phbpx/leadsync"

// Kind classifies what happened to one feed record.
type Kind string

const (
	Inserted Kind = "inserted"
	Updated  Kind = "updated"
	Skipped  Kind = "skipped"
	Failed   Kind = "failed"
)

// Outcome is the result for the record at Index in the input batch. Lead is
// the post-write lead for Inserted and Updated; Err is set for Skipped and
// Failed.
type Outcome struct {
	Index  int
	UserID string
	Kind   Kind
	Lead   leadsync.Lead
	Err    error
}

// Report lists one Outcome per input record, in input order.
type Report struct {
	Outcomes []Outcome
}

// Leads returns the leads written by the batch, in input order.
func (r Report) Leads() []leadsync.Lead {
	leads := make([]leadsync.Lead, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Kind == Inserted || o.Kind == Updated {
			leads = append(leads, o.Lead)
		}
	}
	return leads
}

func (r Report) Count(kind Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}
