package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/makki24/mybusiness-core/internal/backend"
	"github.com/makki24/mybusiness-core/internal/ledger"
	"github.com/makki24/mybusiness-core/internal/reconcile"
	"github.com/makki24/mybusiness-core/internal/wizard"
)

// coreHandler holds the wizard store, the reconciliation engine and the
// backend client, and implements the HTTP handlers for both flows.
// Dates cross this boundary as RFC 3339 strings and are parsed back into
// time.Time by the JSON layer, so they survive the round trip verbatim.
type coreHandler struct {
	store  *wizard.Store
	engine *reconcile.Engine
	client backend.Client
	logger *zap.Logger
}

// NewCoreHandler creates the handler set.
func NewCoreHandler(store *wizard.Store, engine *reconcile.Engine, client backend.Client, logger *zap.Logger) *coreHandler {
	return &coreHandler{
		store:  store,
		engine: engine,
		client: client,
		logger: logger,
	}
}

// respondError maps the error taxonomy onto HTTP statuses: validation
// 400, illegal step or busy 409, backend failure 502, the rest 500.
func (h *coreHandler) respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, wizard.ErrInvalidStep),
		errors.Is(err, wizard.ErrSubmitInFlight),
		errors.Is(err, reconcile.ErrNoPreview),
		errors.Is(err, reconcile.ErrApplyInFlight):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, backend.ErrBackend):
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *coreHandler) handleChooseSender(ctx *gin.Context) {
	var req struct {
		User ledger.UserRef `json:"user"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.User.ID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.store.ChooseSender(req.User); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleChooseType(ctx *gin.Context) {
	var req struct {
		WorkType ledger.WorkTypeRef `json:"work_type"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.WorkType.ID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.store.ChooseType(req.WorkType); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleChooseReceiver(ctx *gin.Context) {
	var req struct {
		User ledger.UserRef `json:"user"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.User.ID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.store.ChooseReceiver(req.User); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleAttendance(ctx *gin.Context) {
	var req struct {
		Receiver ledger.UserRef           `json:"receiver"`
		Entries  []wizard.AttendanceEntry `json:"entries"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil || req.Receiver.ID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if err := h.store.ApplyAttendance(req.Receiver, req.Entries); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleEnterDetails(ctx *gin.Context) {
	var req wizard.Details
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now()
	}
	if err := h.store.EnterDetails(req); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleSubmit(ctx *gin.Context) {
	result, err := h.store.Submit(ctx.Request.Context())
	if err != nil {
		h.logger.Warn("submit rejected", zap.Error(err))
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, result)
}

func (h *coreHandler) handleAddMoreWork(ctx *gin.Context) {
	if err := h.store.AddMoreWork(); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleReset(ctx *gin.Context) {
	if err := h.store.Reset(); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.snapshot(ctx)
}

func (h *coreHandler) handleGetWizard(ctx *gin.Context) {
	h.snapshot(ctx)
}

func (h *coreHandler) snapshot(ctx *gin.Context) {
	step, draft := h.store.Snapshot()
	ctx.JSON(http.StatusOK, gin.H{"step": step.String(), "draft": draft})
}

func (h *coreHandler) handleReconcilePreview(ctx *gin.Context) {
	var req struct {
		Query           reconcile.Query `json:"query"`
		NewPricePerUnit float64         `json:"new_price_per_unit"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload"})
		return
	}
	preview, err := h.engine.Preview(ctx.Request.Context(), req.Query, req.NewPricePerUnit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, preview)
}

func (h *coreHandler) handleReconcileApply(ctx *gin.Context) {
	result, err := h.engine.Apply(ctx.Request.Context())
	if err != nil {
		if errors.Is(err, reconcile.ErrPartialApply) {
			ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
			return
		}
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

func (h *coreHandler) handleListWorkTypes(ctx *gin.Context) {
	types, err := h.client.ListWorkTypes(ctx.Request.Context())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, types)
}

func (h *coreHandler) handleListUsers(ctx *gin.Context) {
	users, err := h.client.ListUsers(ctx.Request.Context())
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}
