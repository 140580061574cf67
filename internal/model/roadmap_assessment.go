package model

import (
	"time"

	"gorm.io/datatypes"
)

// QuizQuestion 生成题目的存储格式，与 AI 输出字段保持一致
type QuizQuestion struct {
	QuestionID    int      `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// RoadmapAssessment 路线步骤测验，生成后不再覆盖，只能停用
type RoadmapAssessment struct {
	BaseModel
	RoadmapID        uint           `gorm:"not null;uniqueIndex:idx_roadmap_assessment_step" json:"roadmapId"`
	StepNumber       int            `gorm:"not null;uniqueIndex:idx_roadmap_assessment_step" json:"stepNumber"`
	Title            string         `gorm:"size:255;not null" json:"title"`
	Description      string         `gorm:"type:text" json:"description"`
	Questions        datatypes.JSON `gorm:"not null" json:"questions"`
	PassingScore     int            `gorm:"not null;default:70" json:"passingScore"`
	TimeLimitMinutes int            `gorm:"not null;default:30" json:"timeLimitMinutes"`
	IsActive         bool           `gorm:"not null;default:true" json:"isActive"`
	GeneratedBy      string         `gorm:"size:100" json:"generatedBy,omitempty"`
}

func (RoadmapAssessment) TableName() string {
	return "roadmap_assessments"
}

type AttemptStatus string

const (
	AttemptPass       AttemptStatus = "pass"
	AttemptFail       AttemptStatus = "fail"
	AttemptInProgress AttemptStatus = "in_progress"
)

// AssessmentAttempt 用户的一次测验提交，只追加
type AssessmentAttempt struct {
	BaseModel
	UserID              uint           `gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number" json:"userId"`
	RoadmapAssessmentID uint           `gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number" json:"roadmapAssessmentId"`
	AttemptNumber       int            `gorm:"not null;uniqueIndex:idx_attempt_user_assessment_number" json:"attemptNumber"`
	Score               float64        `gorm:"type:decimal(5,2);not null" json:"score"`
	Status              AttemptStatus  `gorm:"size:20;not null" json:"status"`
	Answers             datatypes.JSON `json:"answers"`
	TimeTakenSeconds    *int           `json:"timeTakenSeconds,omitempty"`
	StartedAt           time.Time      `json:"startedAt"`
	CompletedAt         *time.Time     `json:"completedAt,omitempty"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}
