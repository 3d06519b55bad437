package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phbpx/leadsync"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

type StatusCheckRequest struct {
	ClientName string `json:"client_name"`
}

type StatusHandler struct {
	store leadsync.StatusCheckStore
	log   *otelzap.SugaredLogger
}

func NewStatusHandler(store leadsync.StatusCheckStore, log *otelzap.SugaredLogger) *StatusHandler {
	return &StatusHandler{
		store: store,
		log:   log,
	}
}

func (sh StatusHandler) Create(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req StatusCheckRequest
	if err := decode(r, &req); err != nil {
		sh.log.Ctx(ctx).Errorw("CreateStatus", "error", err.Error())
		respondErr(ctx, rw, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.ClientName) == "" {
		respondErr(ctx, rw, http.StatusBadRequest, errors.New("client_name is required"))
		return
	}

	check := leadsync.StatusCheck{
		ID:         uuid.NewString(),
		ClientName: req.ClientName,
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
	}

	if err := sh.store.Create(ctx, check); err != nil {
		sh.log.Ctx(ctx).Errorw("CreateStatus", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	respond(ctx, rw, http.StatusOK, check)
}

func (sh StatusHandler) List(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks, err := sh.store.List(ctx, leadsync.ListLimit)
	if err != nil {
		sh.log.Ctx(ctx).Errorw("ListStatus", "error", err.Error())
		respondErr(ctx, rw, http.StatusInternalServerError, err)
		return
	}

	respond(ctx, rw, http.StatusOK, checks)
}
