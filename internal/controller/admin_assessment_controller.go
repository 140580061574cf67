package controller

import (
	"career_path_backend/internal/service"
	"career_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AdminAssessmentController struct {
	Cache *service.AssessmentCacheService
	Gate  *service.RoadmapGateService
}

func NewAdminAssessmentController(cache *service.AssessmentCacheService, gate *service.RoadmapGateService) *AdminAssessmentController {
	return &AdminAssessmentController{Cache: cache, Gate: gate}
}

type PreGenerateRequest struct {
	Career string `json:"career" binding:"required"`
}

// @Summary 批量预生成路线测验
// @Description 顺序生成职业路线所有步骤的测验，已存在的跳过，单步失败不影响其他步骤
// @Tags 管理-路线测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body PreGenerateRequest true "职业名称"
// @Success 200 {object} util.Response{data=service.BatchSummary}
// @Router /api/admin/roadmap-assessments/generate [post]
func (c *AdminAssessmentController) PreGenerate(ctx *gin.Context) {
	var req PreGenerateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	summary, err := c.Cache.PreGenerate(ctx.Request.Context(), req.Career)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// @Summary 停用路线测验
// @Tags 管理-路线测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response
// @Router /api/admin/roadmap-assessments/{id}/deactivate [patch]
func (c *AdminAssessmentController) Deactivate(ctx *gin.Context) {
	id, err := util.ParseUint(ctx.Param("id"))
	if err != nil {
		util.BadRequest(ctx, "invalid id")
		return
	}

	if err := c.Gate.DeactivateAssessment(ctx.Request.Context(), id); err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id, "isActive": false})
}
