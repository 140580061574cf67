package repository

import (
	"career_path_backend/internal/model"
	"context"

	"gorm.io/gorm"
)

type RoadmapAssessmentRepository struct {
	DB *gorm.DB
}

func NewRoadmapAssessmentRepository(db *gorm.DB) *RoadmapAssessmentRepository {
	return &RoadmapAssessmentRepository{DB: db}
}

func (r *RoadmapAssessmentRepository) FindAssessment(ctx context.Context, roadmapID uint, step int) (*model.RoadmapAssessment, error) {
	var a model.RoadmapAssessment
	err := r.DB.WithContext(ctx).
		Where("roadmap_id = ? AND step_number = ?", roadmapID, step).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *RoadmapAssessmentRepository) FindAssessmentByID(ctx context.Context, id uint) (*model.RoadmapAssessment, error) {
	var a model.RoadmapAssessment
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// CreateAssessment 同一路线步骤已有测验时返回 ErrConflict
func (r *RoadmapAssessmentRepository) CreateAssessment(ctx context.Context, a *model.RoadmapAssessment) error {
	return translate(r.DB.WithContext(ctx).Create(a).Error)
}

func (r *RoadmapAssessmentRepository) ListAssessments(ctx context.Context, roadmapID uint) ([]model.RoadmapAssessment, error) {
	var list []model.RoadmapAssessment
	err := r.DB.WithContext(ctx).
		Select("id", "roadmap_id", "step_number", "title", "passing_score", "is_active", "created_at", "updated_at").
		Where("roadmap_id = ?", roadmapID).
		Order("step_number asc").
		Find(&list).Error
	return list, err
}

func (r *RoadmapAssessmentRepository) SetAssessmentActive(ctx context.Context, id uint, active bool) error {
	res := r.DB.WithContext(ctx).
		Model(&model.RoadmapAssessment{}).
		Where("id = ?", id).
		Update("is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *RoadmapAssessmentRepository) ListAttempts(ctx context.Context, userID, assessmentID uint) ([]model.AssessmentAttempt, error) {
	var attempts []model.AssessmentAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND roadmap_assessment_id = ?", userID, assessmentID).
		Order("attempt_number asc").
		Find(&attempts).Error
	return attempts, err
}

func (r *RoadmapAssessmentRepository) FindPassingAttempt(ctx context.Context, userID, assessmentID uint) (*model.AssessmentAttempt, error) {
	var attempt model.AssessmentAttempt
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND roadmap_assessment_id = ? AND status = ?", userID, assessmentID, model.AttemptPass).
		Order("attempt_number asc").
		First(&attempt).Error
	if err != nil {
		return nil, translate(err)
	}
	return &attempt, nil
}

func (r *RoadmapAssessmentRepository) CountAttempts(ctx context.Context, userID, assessmentID uint) (int, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&model.AssessmentAttempt{}).
		Where("user_id = ? AND roadmap_assessment_id = ?", userID, assessmentID).
		Count(&count).Error
	return int(count), err
}

// PassedAssessmentIDs 返回用户已通过的测验 ID 集合
func (r *RoadmapAssessmentRepository) PassedAssessmentIDs(ctx context.Context, userID uint, assessmentIDs []uint) (map[uint]bool, error) {
	passed := make(map[uint]bool)
	if len(assessmentIDs) == 0 {
		return passed, nil
	}

	var ids []uint
	err := r.DB.WithContext(ctx).
		Model(&model.AssessmentAttempt{}).
		Distinct("roadmap_assessment_id").
		Where("user_id = ? AND status = ? AND roadmap_assessment_id IN ?", userID, model.AttemptPass, assessmentIDs).
		Pluck("roadmap_assessment_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		passed[id] = true
	}
	return passed, nil
}

// RecordAttempt 保存提交记录，通过时在同一事务中标记步骤完成
func (r *RoadmapAssessmentRepository) RecordAttempt(ctx context.Context, attempt *model.AssessmentAttempt, completion *model.RoadmapStepState) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return translate(err)
		}
		if completion == nil {
			return nil
		}
		return upsertStepState(tx, completion)
	})
}
