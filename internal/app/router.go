package app

import (
	"career_path_backend/docs"
	"career_path_backend/internal/config"
	"career_path_backend/internal/middleware"
	"career_path_backend/internal/model"
	"career_path_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		a.registerCareerRoutes(authGroup, c)
		a.registerRoadmapRoutes(authGroup, c)
	}

	// 管理员相关接口
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.Admin))
	{
		admin.POST("/roadmap-assessments/generate", c.adminAssessment.PreGenerate)
		admin.PATCH("/roadmap-assessments/:id/deactivate", c.adminAssessment.Deactivate)
	}
}

func (a *App) registerCareerRoutes(rg *gin.RouterGroup, c *controllers) {
	career := rg.Group("/career-assessments")
	{
		career.POST("", c.careerAssessment.Start)
		career.GET("/current", c.careerAssessment.Current)
		career.POST("/:sessionId/answers", c.careerAssessment.SubmitAnswer)
		career.GET("/:sessionId/result", c.careerAssessment.Result)
	}
}

func (a *App) registerRoadmapRoutes(rg *gin.RouterGroup, c *controllers) {
	roadmaps := rg.Group("/roadmaps/:roadmapId")
	{
		roadmaps.GET("/progress", c.roadmapAssessment.Progress)
		roadmaps.PATCH("/steps/:step", c.roadmapAssessment.UpdateStep)
		roadmaps.GET("/steps/:step/assessment", c.roadmapAssessment.GetAssessment)
		roadmaps.POST("/steps/:step/assessment/submit", c.roadmapAssessment.Submit)
		roadmaps.GET("/steps/:step/assessment/history", c.roadmapAssessment.History)
	}
}
