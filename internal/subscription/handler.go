package subscription

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/anishchandragiri369/studio-sub001/internal/api"
	"github.com/anishchandragiri369/studio-sub001/internal/auth"
	"github.com/anishchandragiri369/studio-sub001/internal/delivery"
	"github.com/anishchandragiri369/studio-sub001/internal/logger"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type RecordDeliveryRequest struct {
	DeliveredAt string `json:"delivered_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (h *Handler) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Plans())
}

// Quote prices a prospective order without storing anything.
func (h *Handler) Quote(c *gin.Context) {
	var req QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}

	pricing, err := h.service.Quote(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, pricing)
}

func (h *Handler) Create(c *gin.Context) {
	email, ok := auth.GetUserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	if errs := api.ValidateStruct(req); len(errs) > 0 {
		api.RespondWithValidationErrors(c, errs)
		return
	}
	req.CustomerEmail = email

	sub, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

func (h *Handler) Get(c *gin.Context) {
	sub, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Schedule(c *gin.Context) {
	sub, ok := h.loadOwned(c)
	if !ok {
		return
	}

	view, err := h.service.Schedule(c.Request.Context(), sub.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (h *Handler) NextDelivery(c *gin.Context) {
	sub, ok := h.loadOwned(c)
	if !ok {
		return
	}

	next, err := h.service.NextDelivery(c.Request.Context(), sub.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.NextDeliveryResponse{
		SubscriptionID: sub.ID,
		NextDelivery:   next.Format(time.RFC3339),
	})
}

func (h *Handler) Status(c *gin.Context) {
	sub, ok := h.loadOwned(c)
	if !ok {
		return
	}

	status, err := h.service.Status(c.Request.Context(), sub.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.StatusResponse{SubscriptionID: sub.ID, Status: string(status)})
}

func (h *Handler) Pause(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.service.Pause(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

func (h *Handler) Reactivate(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	sub, err := h.service.Reactivate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// RecordDelivery marks a delivery as made. Without a body the delivery is
// recorded at the current time.
func (h *Handler) RecordDelivery(c *gin.Context) {
	id, ok := subscriptionID(c)
	if !ok {
		return
	}

	var req RecordDeliveryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		if errs := api.ValidateStruct(req); len(errs) > 0 {
			api.RespondWithValidationErrors(c, errs)
			return
		}
	}

	deliveredAt := time.Now()
	if req.DeliveredAt != "" {
		t, err := time.Parse(time.RFC3339, req.DeliveredAt)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "delivered_at must be RFC3339"})
			return
		}
		deliveredAt = t
	}

	sub, err := h.service.RecordDelivery(c.Request.Context(), id, deliveredAt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// loadOwned fetches the subscription named in the path and checks that the
// caller owns it. Admins may read any subscription.
func (h *Handler) loadOwned(c *gin.Context) (*Subscription, bool) {
	id, ok := subscriptionID(c)
	if !ok {
		return nil, false
	}

	email, ok := auth.GetUserEmail(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return nil, false
	}

	sub, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}

	if sub.CustomerEmail != email && !auth.IsAdmin(c) {
		writeError(c, ErrForbidden)
		return nil, false
	}

	return sub, true
}

func subscriptionID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid subscription ID"})
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, delivery.ErrValidation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSubscriptionNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Subscription not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "You can only access your own subscriptions"})
	case errors.Is(err, ErrAlreadyPaused),
		errors.Is(err, ErrNotPaused),
		errors.Is(err, ErrInactive),
		errors.Is(err, ErrNoDeliveriesLeft),
		errors.Is(err, ErrSubscriptionStateChanged):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
	default:
		logger.WithError(err).Error("Subscription request failed", "path", c.FullPath())
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Internal server error"})
	}
}
