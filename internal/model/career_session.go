package model

import (
	"time"

	"gorm.io/datatypes"
)

type SessionStatus string

const (
	SessionActive      SessionStatus = "active"
	SessionTerminated  SessionStatus = "terminated"
	SessionInvalidated SessionStatus = "invalidated"
)

// UndecidedCareer 尚未确定职业方向时的占位
const UndecidedCareer = "Undecided"

// CareerSession 职业发现测评会话。
// ActiveUserID 仅在 active 状态时等于 UserID，唯一索引保证每个用户最多一个进行中的会话。
type CareerSession struct {
	UUIDBase
	UserID        uint                               `gorm:"index;not null" json:"userId"`
	ActiveUserID  *uint                              `gorm:"uniqueIndex" json:"-"`
	CurrentCareer string                             `gorm:"size:100;not null;default:'Undecided'" json:"currentCareer"`
	CareerHistory datatypes.JSONType[map[string]int] `json:"careerHistory"`
	AnswerCount   int                                `gorm:"not null;default:0" json:"answerCount"`
	Status        SessionStatus                      `gorm:"size:20;not null;default:'active'" json:"status"`
	Version       int                                `gorm:"not null;default:0" json:"-"`
	TerminatedAt  *time.Time                         `json:"terminatedAt,omitempty"`
}

func (CareerSession) TableName() string {
	return "career_sessions"
}

// Confidence 当前领先职业的置信度
func (s *CareerSession) Confidence() int {
	return s.CareerHistory.Data()[s.CurrentCareer]
}

// CareerAnswer 会话中的一次作答，只追加不修改
type CareerAnswer struct {
	BaseModel
	SessionID      string `gorm:"type:varchar(36);not null;uniqueIndex:idx_career_answer_session_question" json:"sessionId"`
	QuestionID     int    `gorm:"not null;uniqueIndex:idx_career_answer_session_question" json:"questionId"`
	SelectedOption string `gorm:"size:255;not null" json:"selectedOption"`
}

func (CareerAnswer) TableName() string {
	return "career_answers"
}

type RecommendationSource string

const (
	SourceAI       RecommendationSource = "ai"
	SourceFallback RecommendationSource = "fallback"
)

// RankedCareer 排序后的职业建议
type RankedCareer struct {
	Career string  `json:"career"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// CareerResult 会话结束时的最终推荐
type CareerResult struct {
	BaseModel
	SessionID        string                             `gorm:"type:varchar(36);not null;uniqueIndex" json:"sessionId"`
	UserID           uint                               `gorm:"index;not null" json:"userId"`
	CareerSuggestion string                             `gorm:"size:100;not null" json:"careerSuggestion"`
	Score            float64                            `gorm:"type:decimal(5,2)" json:"score"`
	Recommendations  datatypes.JSONType[[]RankedCareer] `json:"recommendations"`
	Source           RecommendationSource               `gorm:"size:20;not null" json:"source"`
}

func (CareerResult) TableName() string {
	return "career_results"
}
