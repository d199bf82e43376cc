package v1

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes регистрирует все маршруты API v1
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	// Маршруты чек-инов безопасности
	checkins := api.Group("/checkins")
	{
		checkins.POST("", h.scheduleCheckIn)
		checkins.POST("/confirm", h.confirmCheckIn)
		checkins.GET("/:user_id", h.getPendingCheckIn)
		checkins.DELETE("/:user_id", h.cancelCheckIn)
	}

	// Маршруты экстренных оповещений
	alerts := api.Group("/alerts")
	{
		alerts.POST("/trigger", h.triggerAlert)
		alerts.GET("/stats", h.getStats)
		alerts.GET("/:id", h.getAlert)
		alerts.POST("/:id/resolve", h.resolveAlert)
		alerts.POST("/:id/segments", h.attachSegment)
	}

	// Маршрут приема детекций угроз
	api.POST("/threats", h.reportThreat)

	// Маршрут репорта состояния устройства
	api.POST("/device/state", h.reportDeviceState)

	// Маршруты экстренных контактов
	contacts := api.Group("/contacts")
	{
		contacts.POST("", h.createContact)
		contacts.GET("", h.listContacts)
		contacts.PUT("/:id", h.updateContact)
		contacts.DELETE("/:id", h.deleteContact)
	}

	// Маршрут Health-check
	api.GET("/system/health", h.healthCheck)
}
