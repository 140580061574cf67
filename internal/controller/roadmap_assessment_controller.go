package controller

import (
	"career_path_backend/internal/service"
	"career_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type RoadmapAssessmentController struct {
	Gate *service.RoadmapGateService
}

func NewRoadmapAssessmentController(gate *service.RoadmapGateService) *RoadmapAssessmentController {
	return &RoadmapAssessmentController{Gate: gate}
}

type UpdateStepRequest struct {
	Done *bool `json:"done" binding:"required"`
}

// stepParams 解析路径中的 roadmapId 和 step
func stepParams(ctx *gin.Context) (uint, int, bool) {
	roadmapID, err := util.ParseUint(ctx.Param("roadmapId"))
	if err != nil {
		util.BadRequest(ctx, "invalid roadmap id")
		return 0, 0, false
	}
	step, err := util.ParsePositiveInt(ctx.Param("step"))
	if err != nil {
		util.BadRequest(ctx, "invalid step number")
		return 0, 0, false
	}
	return roadmapID, step, true
}

// @Summary 获取路线进度
// @Tags 路线测验
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId path int true "路线ID"
// @Success 200 {object} util.Response{data=service.RoadmapProgress}
// @Router /api/roadmaps/{roadmapId}/progress [get]
func (c *RoadmapAssessmentController) Progress(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	roadmapID, err := util.ParseUint(ctx.Param("roadmapId"))
	if err != nil {
		util.BadRequest(ctx, "invalid roadmap id")
		return
	}

	progress, err := c.Gate.GetRoadmapProgress(ctx.Request.Context(), user.UserID, roadmapID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// @Summary 获取步骤测验
// @Description 前一步未完成时返回 403 和需要完成的步骤；首次访问时生成测验。返回内容不含答案
// @Tags 路线测验
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId path int true "路线ID"
// @Param step path int true "步骤序号"
// @Success 200 {object} util.Response{data=service.StepAssessmentView}
// @Router /api/roadmaps/{roadmapId}/steps/{step}/assessment [get]
func (c *RoadmapAssessmentController) GetAssessment(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	roadmapID, step, ok := stepParams(ctx)
	if !ok {
		return
	}

	view, err := c.Gate.GetStepAssessment(ctx.Request.Context(), user.UserID, roadmapID, step)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 提交步骤测验
// @Tags 路线测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId path int true "路线ID"
// @Param step path int true "步骤序号"
// @Param body body service.SubmitAssessmentRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmissionResult}
// @Router /api/roadmaps/{roadmapId}/steps/{step}/assessment/submit [post]
func (c *RoadmapAssessmentController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	roadmapID, step, ok := stepParams(ctx)
	if !ok {
		return
	}

	var req service.SubmitAssessmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Gate.SubmitStepAssessment(ctx.Request.Context(), user.UserID, roadmapID, step, req)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// @Summary 获取测验提交历史
// @Tags 路线测验
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId path int true "路线ID"
// @Param step path int true "步骤序号"
// @Success 200 {object} util.Response{data=service.AssessmentHistory}
// @Router /api/roadmaps/{roadmapId}/steps/{step}/assessment/history [get]
func (c *RoadmapAssessmentController) History(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	roadmapID, step, ok := stepParams(ctx)
	if !ok {
		return
	}

	history, err := c.Gate.GetAssessmentHistory(ctx.Request.Context(), user.UserID, roadmapID, step)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// @Summary 手动标记步骤完成状态
// @Description 存在测验的步骤必须先通过测验
// @Tags 路线测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param roadmapId path int true "路线ID"
// @Param step path int true "步骤序号"
// @Param body body UpdateStepRequest true "完成状态"
// @Success 200 {object} util.Response{data=model.RoadmapStepState}
// @Router /api/roadmaps/{roadmapId}/steps/{step} [patch]
func (c *RoadmapAssessmentController) UpdateStep(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	roadmapID, step, ok := stepParams(ctx)
	if !ok {
		return
	}

	var req UpdateStepRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := c.Gate.SetStepDone(ctx.Request.Context(), user.UserID, roadmapID, step, *req.Done)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, state)
}
