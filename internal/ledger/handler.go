package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stockledger/stockledger/internal/observability"
	"github.com/stockledger/stockledger/internal/platform/httpx"
	"github.com/stockledger/stockledger/internal/shared"
)

// Handler wires HTTP endpoints for the transaction ledger.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler constructs the ledger handler.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleRecord)
	r.Get("/", h.handleListAll)
	r.Get("/item/{id}", h.handleListByItem)
	r.Get("/item/{id}/quantity", h.handleQuantity)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	var req RecordMovementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.metrics.RecordRejected("validation")
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	movement, err := h.service.Record(r.Context(), RecordInput{
		ItemID:    req.ItemID,
		Type:      MovementType(req.Type),
		Direction: Direction(req.Direction),
		Quantity:  req.Quantity,
		Supplier:  req.Supplier,
		Operator:  req.Operator,
		Note:      req.Note,
		RefID:     req.RefID,
	})
	if err != nil {
		h.respondRecordError(w, err)
		return
	}
	h.metrics.MovementRecorded(string(movement.Type))
	httpx.JSON(w, http.StatusCreated, movement)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}
	q := r.URL.Query()
	var parseErr string
	if v := q.Get("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			parseErr = "invalid from date"
		}
		filter.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			parseErr = "invalid to date"
		} else {
			// end of day, window is inclusive
			filter.To = t.Add(24*time.Hour - time.Nanosecond)
		}
	}
	if parseErr != "" {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", parseErr)
		return
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	movements, err := h.service.ListAll(r.Context(), filter)
	if err != nil {
		h.logger.Error("list movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) handleListByItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	movements, err := h.service.ListByItem(r.Context(), id)
	if err != nil {
		h.respondRecordError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, movements)
}

func (h *Handler) handleQuantity(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid item id")
		return
	}
	onHand, err := h.service.QuantityOf(r.Context(), id)
	if err != nil {
		h.respondRecordError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, QuantityResponse{ItemID: id, OnHand: onHand})
}

func (h *Handler) respondRecordError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInsufficientStock):
		h.metrics.RecordRejected("insufficient_stock")
		httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidMovement):
		h.metrics.RecordRejected("validation")
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnknownItem):
		h.metrics.RecordRejected("unknown_item")
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrInactiveItem):
		h.metrics.RecordRejected("inactive_item")
		httpx.Problem(w, http.StatusConflict, "Conflict", "item is inactive")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, httpx.ErrValidation):
		h.metrics.RecordRejected("validation")
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("record movement failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "movement not recorded")
	}
}
