package consol

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/stockledger/stockledger/internal/platform/httpx"
)

// Handler wires HTTP endpoints for consolidated reporting.
type Handler struct {
	logger  *slog.Logger
	service *Service
	group   singleflight.Group
}

// NewHandler constructs the consolidation handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers consolidation routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/consolidation", h.handleConsolidation)
	r.Get("/consolidation.csv", h.handleConsolidationCSV)
}

func (h *Handler) consolidate(ctx context.Context, filters Filters) ([]Row, error) {
	key := filters.From.Format("2006-01-02") + ":" + filters.To.Format("2006-01-02") + ":" + filters.Query
	resultChan := h.group.DoChan(key, func() (interface{}, error) {
		return h.service.Consolidate(ctx, filters)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Row), nil
	}
}

func (h *Handler) parseFilters(r *http.Request) (Filters, string) {
	q := r.URL.Query()
	filters := Filters{Query: q.Get("q")}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filters{}, "invalid from date"
		}
		filters.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return Filters{}, "invalid to date"
		}
		filters.To = t.Add(24*time.Hour - time.Nanosecond)
	}
	return filters, ""
}

func (h *Handler) handleConsolidation(w http.ResponseWriter, r *http.Request) {
	filters, problem := h.parseFilters(r)
	if problem != "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", problem)
		return
	}
	rows, err := h.consolidate(r.Context(), filters)
	if err != nil {
		h.logger.Error("consolidate", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if rows == nil {
		rows = []Row{}
	}
	httpx.JSON(w, http.StatusOK, rows)
}

func (h *Handler) handleConsolidationCSV(w http.ResponseWriter, r *http.Request) {
	filters, problem := h.parseFilters(r)
	if problem != "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", problem)
		return
	}
	rows, err := h.consolidate(r.Context(), filters)
	if err != nil {
		h.logger.Error("consolidate csv", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="consolidation.csv"`)
	if err := WriteCSV(w, rows); err != nil {
		h.logger.Error("write consolidation csv", slog.Any("error", err))
	}
}
