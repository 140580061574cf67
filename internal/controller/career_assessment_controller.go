package controller

import (
	"career_path_backend/internal/service"
	"career_path_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CareerAssessmentController struct {
	Service *service.CareerSessionService
}

func NewCareerAssessmentController(svc *service.CareerSessionService) *CareerAssessmentController {
	return &CareerAssessmentController{Service: svc}
}

type SubmitCareerAnswerRequest struct {
	QuestionID     int    `json:"questionId" binding:"required,min=1"`
	SelectedOption string `json:"selectedOption" binding:"required"`
}

// @Summary 开始职业测评
// @Description 作废进行中的会话并开始新的测评，返回会话ID和第一题
// @Tags 职业测评
// @Produce json
// @Security ApiKeyAuth
// @Success 201 {object} util.Response{data=service.SessionView}
// @Router /api/career-assessments [post]
func (c *CareerAssessmentController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.StartSession(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Created(ctx, view)
}

// @Summary 获取进行中的职业测评
// @Tags 职业测评
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.SessionView}
// @Router /api/career-assessments/current [get]
func (c *CareerAssessmentController) Current(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.Service.GetActiveSession(ctx.Request.Context(), user.UserID)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 提交测评答案
// @Description 按顺序提交下一题的答案；达到置信度阈值或题数上限时返回最终推荐
// @Tags 职业测评
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "会话ID"
// @Param body body SubmitCareerAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=service.AnswerOutcome}
// @Router /api/career-assessments/{sessionId}/answers [post]
func (c *CareerAssessmentController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req SubmitCareerAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	out, err := c.Service.SubmitAnswer(ctx.Request.Context(), user.UserID, ctx.Param("sessionId"), req.QuestionID, req.SelectedOption)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, out)
}

// @Summary 获取测评结果
// @Tags 职业测评
// @Produce json
// @Security ApiKeyAuth
// @Param sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=service.CareerResultView}
// @Router /api/career-assessments/{sessionId}/result [get]
func (c *CareerAssessmentController) Result(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.Service.GetResult(ctx.Request.Context(), user.UserID, ctx.Param("sessionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}
