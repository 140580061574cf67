package service

import (
	"career_path_backend/internal/model"
	"context"
)

// CareerSessionStore 职业测评会话的持久化，RecordAnswer / CompleteSession 需保证原子性，
// 版本号不匹配或唯一键冲突时返回 repository.ErrConflict
type CareerSessionStore interface {
	StartSession(ctx context.Context, session *model.CareerSession) error
	FindSession(ctx context.Context, id string) (*model.CareerSession, error)
	FindActiveSession(ctx context.Context, userID uint) (*model.CareerSession, error)
	ListAnswers(ctx context.Context, sessionID string) ([]model.CareerAnswer, error)
	RecordAnswer(ctx context.Context, session *model.CareerSession, expectedVersion int, answer *model.CareerAnswer) error
	CompleteSession(ctx context.Context, session *model.CareerSession, expectedVersion int, answer *model.CareerAnswer, result *model.CareerResult) error
	FindResult(ctx context.Context, sessionID string) (*model.CareerResult, error)
}

type RoadmapStore interface {
	FindRoadmap(ctx context.Context, id uint) (*model.Roadmap, error)
	FindRoadmapByCareer(ctx context.Context, career string) (*model.Roadmap, error)
	FindStepState(ctx context.Context, roadmapID, userID uint, step int) (*model.RoadmapStepState, error)
	ListStepStates(ctx context.Context, roadmapID, userID uint) ([]model.RoadmapStepState, error)
	UpsertStepState(ctx context.Context, state *model.RoadmapStepState) error
}

// RoadmapAssessmentStore 测验与提交记录，CreateAssessment 冲突时返回 repository.ErrConflict
type RoadmapAssessmentStore interface {
	FindAssessment(ctx context.Context, roadmapID uint, step int) (*model.RoadmapAssessment, error)
	FindAssessmentByID(ctx context.Context, id uint) (*model.RoadmapAssessment, error)
	CreateAssessment(ctx context.Context, a *model.RoadmapAssessment) error
	ListAssessments(ctx context.Context, roadmapID uint) ([]model.RoadmapAssessment, error)
	SetAssessmentActive(ctx context.Context, id uint, active bool) error
	ListAttempts(ctx context.Context, userID, assessmentID uint) ([]model.AssessmentAttempt, error)
	FindPassingAttempt(ctx context.Context, userID, assessmentID uint) (*model.AssessmentAttempt, error)
	CountAttempts(ctx context.Context, userID, assessmentID uint) (int, error)
	PassedAssessmentIDs(ctx context.Context, userID uint, assessmentIDs []uint) (map[uint]bool, error)
	RecordAttempt(ctx context.Context, attempt *model.AssessmentAttempt, completion *model.RoadmapStepState) error
}

// Archiver 生成内容的归档，失败不影响主流程
type Archiver interface {
	Archive(ctx context.Context, key string, body []byte) (string, error)
}
