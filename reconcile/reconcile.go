// Package reconcile upserts raw feed records into the lead store by user id.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/phbpx/leadsync"
	"github.com/phbpx/leadsync/metrics"
	"go.opentelemetry.io/otel"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
)

type Reconciler struct {
	store   leadsync.LeadStore
	headers HeaderMap
	log     *otelzap.SugaredLogger
	now     func() time.Time
}

func New(store leadsync.LeadStore, log *otelzap.SugaredLogger) *Reconciler {
	return &Reconciler{
		store:   store,
		headers: defaultHeaders,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile processes records in order. A record never aborts the batch:
// incomplete records are skipped, malformed records and per-record store
// failures are logged and reported as Failed.
func (r *Reconciler) Reconcile(ctx context.Context, records []json.RawMessage) Report {
	ctx, span := otel.GetTracerProvider().Tracer("").Start(ctx, "reconcile.batch")
	defer span.End()

	log := r.log.Ctx(ctx)
	report := Report{Outcomes: make([]Outcome, 0, len(records))}
	for i, raw := range records {
		o := r.reconcileOne(ctx, raw)
		o.Index = i

		switch o.Kind {
		case Inserted:
			log.Infow("reconcile", "status", "inserted lead", "user_id", o.UserID, "name", o.Lead.Name)
		case Updated:
			log.Infow("reconcile", "status", "updated lead", "user_id", o.UserID, "name", o.Lead.Name)
		case Skipped:
			log.Debugw("reconcile", "status", "skipped record", "index", i, "reason", o.Err.Error())
		case Failed:
			log.Errorw("reconcile", "status", "record failed", "index", i, "user_id", o.UserID, "error", o.Err.Error())
		}
		metrics.RecordReconcile(string(o.Kind))

		report.Outcomes = append(report.Outcomes, o)
	}

	span.SetAttributes(
		attribute.Int("reconcile.records", len(records)),
		attribute.Int("reconcile.inserted", report.Count(Inserted)),
		attribute.Int("reconcile.updated", report.Count(Updated)),
		attribute.Int("reconcile.skipped", report.Count(Skipped)),
		attribute.Int("reconcile.failed", report.Count(Failed)),
	)
	return report
}

func (r *Reconciler) reconcileOne(ctx context.Context, raw json.RawMessage) Outcome {
	lead, err := r.headers.Normalize(raw)
	if err != nil {
		return Outcome{Kind: Failed, Err: err}
	}
	if lead.Name == "" || lead.PhoneNumber == "" {
		return Outcome{UserID: lead.UserID, Kind: Skipped, Err: ErrIncompleteRecord}
	}

	existing, err := r.store.FindByUserID(ctx, lead.UserID)
	switch {
	case errors.Is(err, leadsync.ErrLeadNotFound):
		lead.CreatedAt = r.now().Truncate(time.Millisecond)
		if err := r.store.Insert(ctx, lead); err != nil {
			return Outcome{UserID: lead.UserID, Kind: Failed, Err: fmt.Errorf("inserting lead: %w", err)}
		}
		return Outcome{UserID: lead.UserID, Kind: Inserted, Lead: lead}

	case err != nil:
		return Outcome{UserID: lead.UserID, Kind: Failed, Err: fmt.Errorf("finding lead: %w", err)}
	}

	lead.CreatedAt = existing.CreatedAt
	if err := r.store.Update(ctx, lead); err != nil {
		return Outcome{UserID: lead.UserID, Kind: Failed, Err: fmt.Errorf("updating lead: %w", err)}
	}
	return Outcome{UserID: lead.UserID, Kind: Updated, Lead: lead}
}
