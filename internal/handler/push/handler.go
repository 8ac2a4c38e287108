package push

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefbook/chefbook-api/internal/handler"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/repository"
)

// Handler manages the push targets a user has registered: web-push
// subscriptions and FCM device tokens.
type Handler struct {
	subs repository.PushSubscriptionRepository
}

func NewHandler(subs repository.PushSubscriptionRepository) *Handler {
	return &Handler{subs: subs}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	push := r.Group("/push")
	{
		push.POST("/subscriptions", h.CreateSubscription)
		push.DELETE("/subscriptions", h.DeleteSubscription)
		push.POST("/tokens", h.CreateDeviceToken)
		push.DELETE("/tokens", h.DeleteDeviceToken)
	}
}

type subscriptionRequest struct {
	Endpoint   string `json:"endpoint" binding:"required,url"`
	P256dhKey  string `json:"p256dh_key" binding:"required"`
	AuthKey    string `json:"auth_key" binding:"required"`
	DeviceName string `json:"device_name"`
}

func (h *Handler) CreateSubscription(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req subscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	sub := &model.PushSubscription{
		UserID:     userID,
		Endpoint:   req.Endpoint,
		P256dhKey:  req.P256dhKey,
		AuthKey:    req.AuthKey,
		DeviceName: req.DeviceName,
	}
	if err := h.subs.Create(c.Request.Context(), sub); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(sub))
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

func (h *Handler) DeleteSubscription(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.subs.DeleteByEndpoint(c.Request.Context(), userID, req.Endpoint); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

type deviceTokenRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"required,oneof=ios android"`
}

func (h *Handler) CreateDeviceToken(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req deviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	token := &model.DeviceToken{
		UserID:   userID,
		Token:    req.Token,
		Platform: req.Platform,
	}
	if err := h.subs.CreateDeviceToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(token))
}

type deleteDeviceTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *Handler) DeleteDeviceToken(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	var req deleteDeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.subs.DeleteDeviceToken(c.Request.Context(), userID, req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
