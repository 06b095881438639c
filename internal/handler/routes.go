package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/middleware"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

// Routes groups what RegisterRoutes mounts. Idempotency may be nil.
type Routes struct {
	Outpass     *OutpassHandler
	Risk        *RiskHandler
	Auth        gin.HandlerFunc
	Idempotency gin.HandlerFunc
}

// RegisterRoutes mounts the outpass API under api.
func RegisterRoutes(api *gin.RouterGroup, routes Routes) {
	if routes.Outpass != nil {
		api.GET("/gate-passes/:token", routes.Outpass.DownloadGatePass)
	}

	secured := api.Group("")
	if routes.Auth != nil {
		secured.Use(routes.Auth)
	}

	if routes.Outpass != nil {
		h := routes.Outpass
		outpasses := secured.Group("/outpasses")

		submit := []gin.HandlerFunc{middleware.RequireRoles(models.RoleStudent)}
		if routes.Idempotency != nil {
			submit = append(submit, routes.Idempotency)
		}
		outpasses.POST("", append(submit, h.Submit)...)
		outpasses.GET("/mine", middleware.RequireRoles(models.RoleStudent), h.Mine)
		outpasses.GET("/pending", middleware.RequireStaff(), h.Pending)
		outpasses.GET("/:id", h.Get)
		outpasses.GET("/:id/history", h.History)
		outpasses.GET("/:id/gate-pass", h.GatePass)
		outpasses.GET("/:id/gate-pass/link", h.GatePassLink)
		outpasses.POST("/:id/stages/:stage/:action", middleware.RequireStaff(), h.Act)

		secured.GET("/students/:id/outpasses", middleware.RequireStaff(), h.ListForStudent)
	}

	if routes.Risk != nil {
		secured.POST("/outpasses/risk-check", middleware.RequireStaff(), routes.Risk.Check)
	}
}
