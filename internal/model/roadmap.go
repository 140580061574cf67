package model

import "time"

// Roadmap 职业学习路线，按 catalog 初始化
type Roadmap struct {
	BaseModel
	CareerName  string `gorm:"size:100;not null;uniqueIndex" json:"careerName"`
	Title       string `gorm:"size:255" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	TotalSteps  int    `gorm:"not null" json:"totalSteps"`
}

func (Roadmap) TableName() string {
	return "roadmaps"
}

// RoadmapStepState 用户在某一步骤上的完成状态
type RoadmapStepState struct {
	BaseModel
	RoadmapID   uint       `gorm:"not null;uniqueIndex:idx_step_state_roadmap_user_step" json:"roadmapId"`
	UserID      uint       `gorm:"not null;uniqueIndex:idx_step_state_roadmap_user_step" json:"userId"`
	StepNumber  int        `gorm:"not null;uniqueIndex:idx_step_state_roadmap_user_step" json:"stepNumber"`
	Title       string     `gorm:"size:255" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Duration    string     `gorm:"size:50" json:"duration"`
	IsDone      bool       `gorm:"not null;default:false" json:"isDone"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (RoadmapStepState) TableName() string {
	return "roadmap_step_states"
}
