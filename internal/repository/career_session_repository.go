package repository

import (
	"career_path_backend/internal/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type CareerSessionRepository struct {
	DB *gorm.DB
}

func NewCareerSessionRepository(db *gorm.DB) *CareerSessionRepository {
	return &CareerSessionRepository{DB: db}
}

// StartSession 作废用户之前的进行中会话并创建新会话
func (r *CareerSessionRepository) StartSession(ctx context.Context, session *model.CareerSession) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.CareerSession{}).
			Where("active_user_id = ?", session.UserID).
			Updates(map[string]interface{}{
				"status":         model.SessionInvalidated,
				"active_user_id": nil,
			}).Error
		if err != nil {
			return err
		}

		userID := session.UserID
		session.ActiveUserID = &userID
		session.Status = model.SessionActive
		return translate(tx.Create(session).Error)
	})
}

func (r *CareerSessionRepository) FindSession(ctx context.Context, id string) (*model.CareerSession, error) {
	var s model.CareerSession
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *CareerSessionRepository) FindActiveSession(ctx context.Context, userID uint) (*model.CareerSession, error) {
	var s model.CareerSession
	if err := r.DB.WithContext(ctx).Where("active_user_id = ?", userID).First(&s).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *CareerSessionRepository) ListAnswers(ctx context.Context, sessionID string) ([]model.CareerAnswer, error) {
	var answers []model.CareerAnswer
	err := r.DB.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_id asc").
		Find(&answers).Error
	return answers, err
}

// RecordAnswer 写入答案并按版本号更新会话，两者在同一事务中
func (r *CareerSessionRepository) RecordAnswer(ctx context.Context, session *model.CareerSession, expectedVersion int, answer *model.CareerAnswer) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(answer).Error; err != nil {
			return translate(err)
		}
		return updateVersioned(tx, session, expectedVersion, map[string]interface{}{
			"current_career": session.CurrentCareer,
			"career_history": session.CareerHistory,
			"answer_count":   session.AnswerCount,
		})
	})
}

// CompleteSession 写入最后一个答案、结束会话并保存推荐结果
func (r *CareerSessionRepository) CompleteSession(ctx context.Context, session *model.CareerSession, expectedVersion int, answer *model.CareerAnswer, result *model.CareerResult) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(answer).Error; err != nil {
			return translate(err)
		}

		now := time.Now()
		err := updateVersioned(tx, session, expectedVersion, map[string]interface{}{
			"current_career": session.CurrentCareer,
			"career_history": session.CareerHistory,
			"answer_count":   session.AnswerCount,
			"status":         model.SessionTerminated,
			"active_user_id": nil,
			"terminated_at":  now,
		})
		if err != nil {
			return err
		}
		session.Status = model.SessionTerminated
		session.ActiveUserID = nil
		session.TerminatedAt = &now

		return translate(tx.Create(result).Error)
	})
}

func updateVersioned(tx *gorm.DB, session *model.CareerSession, expectedVersion int, fields map[string]interface{}) error {
	fields["version"] = expectedVersion + 1
	res := tx.Model(&model.CareerSession{}).
		Where("id = ? AND version = ? AND status = ?", session.ID, expectedVersion, model.SessionActive).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	session.Version = expectedVersion + 1
	return nil
}

func (r *CareerSessionRepository) FindResult(ctx context.Context, sessionID string) (*model.CareerResult, error) {
	var result model.CareerResult
	if err := r.DB.WithContext(ctx).Where("session_id = ?", sessionID).First(&result).Error; err != nil {
		return nil, translate(err)
	}
	return &result, nil
}
