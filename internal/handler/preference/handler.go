package preference

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chefbook/chefbook-api/internal/handler"
	"github.com/chefbook/chefbook-api/internal/model"
	"github.com/chefbook/chefbook-api/internal/service/preference"
)

type Handler struct {
	service preference.Service
}

func NewHandler(service preference.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	prefs := r.Group("/preferences")
	{
		prefs.GET("", h.GetAllPreferences)
		prefs.PUT("/:type", h.UpdatePreference)
		prefs.POST("/reset", h.ResetPreferences)
		prefs.POST("/initialize", h.InitializePreferences)
	}
}

func (h *Handler) GetAllPreferences(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	prefs, err := h.service.GetAllPreferences(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(prefs))
}

func (h *Handler) UpdatePreference(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	notificationType := model.NotificationType(c.Param("type"))

	var update model.ChannelPreferencesUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	if err := h.service.UpdateNotificationPreference(c.Request.Context(), userID, notificationType, &update); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(
		h.service.GetPreferencesForType(c.Request.Context(), userID, notificationType),
	))
}

func (h *Handler) ResetPreferences(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.service.ResetPreferencesToDefaults(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) InitializePreferences(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	if err := h.service.InitializeUserPreferences(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
