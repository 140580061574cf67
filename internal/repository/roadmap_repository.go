package repository

import (
	"career_path_backend/internal/model"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoadmapRepository struct {
	DB *gorm.DB
}

func NewRoadmapRepository(db *gorm.DB) *RoadmapRepository {
	return &RoadmapRepository{DB: db}
}

func (r *RoadmapRepository) FindRoadmap(ctx context.Context, id uint) (*model.Roadmap, error) {
	var roadmap model.Roadmap
	if err := r.DB.WithContext(ctx).First(&roadmap, id).Error; err != nil {
		return nil, translate(err)
	}
	return &roadmap, nil
}

func (r *RoadmapRepository) FindRoadmapByCareer(ctx context.Context, career string) (*model.Roadmap, error) {
	var roadmap model.Roadmap
	if err := r.DB.WithContext(ctx).Where("career_name = ?", career).First(&roadmap).Error; err != nil {
		return nil, translate(err)
	}
	return &roadmap, nil
}

func (r *RoadmapRepository) FindStepState(ctx context.Context, roadmapID, userID uint, step int) (*model.RoadmapStepState, error) {
	var state model.RoadmapStepState
	err := r.DB.WithContext(ctx).
		Where("roadmap_id = ? AND user_id = ? AND step_number = ?", roadmapID, userID, step).
		First(&state).Error
	if err != nil {
		return nil, translate(err)
	}
	return &state, nil
}

func (r *RoadmapRepository) ListStepStates(ctx context.Context, roadmapID, userID uint) ([]model.RoadmapStepState, error) {
	var states []model.RoadmapStepState
	err := r.DB.WithContext(ctx).
		Where("roadmap_id = ? AND user_id = ?", roadmapID, userID).
		Order("step_number asc").
		Find(&states).Error
	return states, err
}

func (r *RoadmapRepository) UpsertStepState(ctx context.Context, state *model.RoadmapStepState) error {
	return upsertStepState(r.DB.WithContext(ctx), state)
}

func upsertStepState(tx *gorm.DB, state *model.RoadmapStepState) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "roadmap_id"}, {Name: "user_id"}, {Name: "step_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "duration", "is_done", "completed_at", "updated_at",
		}),
	}).Create(state).Error
}
