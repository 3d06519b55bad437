package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/phbpx/leadsync"
	"github.com/phbpx/leadsync/reconcile"
	"github.com/phbpx/leadsync/stats"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

// sampleSize is how many raw records the connection test echoes back.
const sampleSize = 2

// Fetcher retrieves the raw feed records. An empty url selects the default
// endpoint.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]json.RawMessage, error)
}

type SyncRequest struct {
	APIURL string `json:"api_url"`
}

type SyncResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	TotalLeads *int   `json:"total_leads"`
}

type ConnectionResponse struct {
	Success      bool              `json:"success"`
	Message      string            `json:"message"`
	SampleData   []json.RawMessage `json:"sample_data"`
	TotalRecords int               `json:"total_records"`
}

type RefreshResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Stats   *leadsync.Stats `json:"stats,omitempty"`
}

type LeadHandler struct {
	feed       Fetcher
	reconciler *reconcile.Reconciler
	aggregator *stats.Aggregator
	leads      leadsync.LeadStore
	log        *otelzap.SugaredLogger
}

func NewLeadHandler(
	feed Fetcher,
	reconciler *reconcile.Reconciler,
	aggregator *stats.Aggregator,
	leads leadsync.LeadStore,
	log *otelzap.SugaredLogger,
) *LeadHandler {
	return &LeadHandler{
		feed:       feed,
		reconciler: reconciler,
		aggregator: aggregator,
		leads:      leads,
		log:        log,
	}
}

func (lh LeadHandler) Root(rw http.ResponseWriter, r *http.Request) {
	respond(r.Context(), rw, http.StatusOK, map[string]string{"message": "Lead Sync API"})
}

// Sync pulls the feed at the requested url and reconciles it.
func (lh LeadHandler) Sync(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SyncRequest
	if err := decode(r, &req); err != nil {
		lh.log.Ctx(ctx).Errorw("Sync", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}

	records, err := lh.feed.Fetch(ctx, req.APIURL)
	if err != nil {
		lh.log.Ctx(ctx).Errorw("Sync", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, fmt.Errorf("failed to sync leads: %w", err))
		return
	}

	if len(records) == 0 {
		zero := 0
		respond(ctx, rw, http.StatusOK, SyncResponse{
			Success:    false,
			Message:    "No data found in feed",
			TotalLeads: &zero,
		})
		return
	}

	report := lh.reconciler.Reconcile(ctx, records)
	synced := len(report.Leads())
	lh.log.Ctx(ctx).Infow("Sync", "records", len(records), "synced", synced,
		"skipped", report.Count(reconcile.Skipped), "failed", report.Count(reconcile.Failed))

	respond(ctx, rw, http.StatusOK, SyncResponse{
		Success:    true,
		Message:    fmt.Sprintf("Successfully synced %d leads from feed", synced),
		TotalLeads: &synced,
	})
}

// TestConnection fetches the feed without storing anything. Failures are
// reported in the body, never as an HTTP error.
func (lh LeadHandler) TestConnection(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := lh.feed.Fetch(ctx, r.URL.Query().Get("api_url"))
	if err != nil {
		lh.log.Ctx(ctx).Warnw("TestConnection", "error", err.Error())
		respond(ctx, rw, http.StatusOK, ConnectionResponse{
			Success:    false,
			Message:    err.Error(),
			SampleData: []json.RawMessage{},
		})
		return
	}

	sample := records
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	respond(ctx, rw, http.StatusOK, ConnectionResponse{
		Success:      true,
		Message:      "Connection successful",
		SampleData:   sample,
		TotalRecords: len(records),
	})
}

func (lh LeadHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := lh.leads.List(ctx, leadsync.ListLimit)
	if err != nil {
		lh.log.Ctx(ctx).Errorw("List", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, fmt.Errorf("failed to fetch leads: %w", err))
		return
	}

	respond(ctx, rw, http.StatusOK, leads)
}

func (lh LeadHandler) Stats(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	s, err := lh.aggregator.Aggregate(ctx)
	if err != nil {
		lh.log.Ctx(ctx).Errorw("Stats", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, fmt.Errorf("failed to calculate stats: %w", err))
		return
	}

	respond(ctx, rw, http.StatusOK, s)
}

// Refresh syncs the default feed and returns the updated stats.
func (lh LeadHandler) Refresh(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	records, err := lh.feed.Fetch(ctx, "")
	if err != nil {
		lh.log.Ctx(ctx).Errorw("Refresh", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, fmt.Errorf("failed to refresh data: %w", err))
		return
	}

	if len(records) == 0 {
		respond(ctx, rw, http.StatusOK, RefreshResponse{
			Success: false,
			Message: "No data found in feed",
		})
		return
	}

	report := lh.reconciler.Reconcile(ctx, records)

	s, err := lh.aggregator.Aggregate(ctx)
	if err != nil {
		lh.log.Ctx(ctx).Errorw("Refresh", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, fmt.Errorf("failed to refresh data: %w", err))
		return
	}

	respond(ctx, rw, http.StatusOK, RefreshResponse{
		Success: true,
		Message: fmt.Sprintf("Data refreshed successfully. %d leads processed.", len(report.Leads())),
		Stats:   &s,
	})
}
