package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/astrozeneka/review-dashboard-flex-living/internal/service"
	"github.com/astrozeneka/review-dashboard-flex-living/pkg/httputil"
)

// SyncRunner triggers a Google review sync. Implemented by
// service.SyncService.
type SyncRunner interface {
	Run(ctx context.Context) (*service.SyncReport, error)
}

// SyncHandler serves the Google review sync trigger.
type SyncHandler struct {
	sync   SyncRunner
	logger *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(sync SyncRunner, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{sync: sync, logger: logger}
}

type syncResponse struct {
	Status string              `json:"status"`
	Report *service.SyncReport `json:"report"`
}

// Run handles POST /places/sync. The run is synchronous: the response
// reports per-mapping outcomes, and partial failure still returns 200 with
// the failures listed in the report.
func (h *SyncHandler) Run(w http.ResponseWriter, r *http.Request) {
	report, err := h.sync.Run(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, syncResponse{
		Status: "success",
		Report: report,
	})
}
