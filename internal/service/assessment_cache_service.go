package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/model"
	"career_path_backend/internal/repository"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/events"
	"career_path_backend/pkg/logger"
	"career_path_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

// AssessmentGeneratedEvent 新测验落库后发布
type AssessmentGeneratedEvent struct {
	AssessmentID uint   `json:"assessmentId"`
	RoadmapID    uint   `json:"roadmapId"`
	Career       string `json:"career"`
	StepNumber   int    `json:"stepNumber"`
	Questions    int    `json:"questions"`
	GeneratedBy  string `json:"generatedBy,omitempty"`
}

// StepFailure 批量生成中失败的步骤
type StepFailure struct {
	Step   int    `json:"step"`
	Reason string `json:"reason"`
}

// BatchSummary 批量预生成的逐步结果
type BatchSummary struct {
	Career    string        `json:"career"`
	RoadmapID uint          `json:"roadmapId"`
	Generated []int         `json:"generated"`
	Skipped   []int         `json:"skipped"`
	Failed    []StepFailure `json:"failed"`
}

// AssessmentCacheService 测验的 get-or-generate：已存在的测验永不重新生成，
// 并发首次访问以数据库唯一键为准，输家读取赢家写入的记录
type AssessmentCacheService struct {
	Store     RoadmapAssessmentStore
	Roadmaps  RoadmapStore
	Catalog   *catalog.Catalog
	Generator QuizGenerator
	Policy    PolicyReader
	Events    events.Publisher
	Redis     *redis.Client // 可选
	Archive   Archiver      // 可选
}

// GetOrGenerate 返回 (roadmapID, step) 的测验，generated 表示本次调用触发了生成
func (s *AssessmentCacheService) GetOrGenerate(ctx context.Context, roadmapID uint, step int, career string) (*model.RoadmapAssessment, bool, error) {
	if cached := s.readRedis(ctx, roadmapID, step); cached != nil {
		monitoring.AssessmentCache.WithLabelValues("redis_hit").Inc()
		return cached, false, nil
	}

	existing, err := s.Store.FindAssessment(ctx, roadmapID, step)
	if err == nil {
		monitoring.AssessmentCache.WithLabelValues("hit").Inc()
		s.writeRedis(ctx, existing)
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	monitoring.AssessmentCache.WithLabelValues("miss").Inc()
	content, err := s.Catalog.StepContent(career, step)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", util.ErrInvalidStep, err)
	}

	gen, err := s.Generator.Generate(ctx, NewStepContent(career, content))
	if err != nil {
		return nil, false, err
	}

	questions, err := json.Marshal(gen.Questions)
	if err != nil {
		return nil, false, fmt.Errorf("marshal generated questions: %w", err)
	}
	a := &model.RoadmapAssessment{
		RoadmapID:        roadmapID,
		StepNumber:       step,
		Title:            gen.Title,
		Description:      gen.Description,
		Questions:        datatypes.JSON(questions),
		PassingScore:     gen.PassingScore,
		TimeLimitMinutes: gen.TimeLimitMinutes,
		IsActive:         true,
		GeneratedBy:      gen.GeneratedBy,
	}

	if err := s.Store.CreateAssessment(ctx, a); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, false, err
		}
		// 并发生成时另一请求先写入，以已落库的为准
		monitoring.AssessmentCache.WithLabelValues("conflict").Inc()
		winner, findErr := s.Store.FindAssessment(ctx, roadmapID, step)
		if findErr != nil {
			return nil, false, findErr
		}
		logger.Log.Info("Assessment generated concurrently, using stored copy",
			zap.Uint("roadmapId", roadmapID), zap.Int("step", step), zap.Uint("assessmentId", winner.ID))
		return winner, false, nil
	}

	s.afterCreate(ctx, career, a, len(gen.Questions))
	return a, true, nil
}

func (s *AssessmentCacheService) afterCreate(ctx context.Context, career string, a *model.RoadmapAssessment, count int) {
	s.writeRedis(ctx, a)

	if s.Archive != nil {
		key := fmt.Sprintf("assessments/roadmap-%d/step-%d.json", a.RoadmapID, a.StepNumber)
		if _, err := s.Archive.Archive(ctx, key, a.Questions); err != nil {
			logger.Log.Warn("Archive generated assessment failed", zap.String("key", key), zap.Error(err))
		}
	}

	if s.Events != nil {
		evt := AssessmentGeneratedEvent{
			AssessmentID: a.ID,
			RoadmapID:    a.RoadmapID,
			Career:       career,
			StepNumber:   a.StepNumber,
			Questions:    count,
			GeneratedBy:  a.GeneratedBy,
		}
		if err := s.Events.Publish(ctx, events.RoadmapAssessmentGenerated, evt); err != nil {
			logger.Log.Warn("Publish assessment generated event failed", zap.Uint("assessmentId", a.ID), zap.Error(err))
		}
	}
}

// PreGenerate 顺序生成职业路线所有步骤的测验，已存在的跳过，
// 相邻两次生成之间按 batch_delay_ms 限速，单步失败不影响其余步骤
func (s *AssessmentCacheService) PreGenerate(ctx context.Context, career string) (*BatchSummary, error) {
	roadmap, err := s.Roadmaps.FindRoadmapByCareer(ctx, career)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", util.ErrRoadmapNotFound, career)
		}
		return nil, err
	}

	summary := &BatchSummary{
		Career:    career,
		RoadmapID: roadmap.ID,
		Generated: []int{},
		Skipped:   []int{},
		Failed:    []StepFailure{},
	}

	delay := s.Policy.Get().BatchDelay()
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	logger.Log.Info("Pre-generating roadmap assessments",
		zap.String("career", career), zap.Int("steps", roadmap.TotalSteps), zap.Duration("delay", delay))

	for step := 1; step <= roadmap.TotalSteps; step++ {
		_, err := s.Store.FindAssessment(ctx, roadmap.ID, step)
		if err == nil {
			summary.Skipped = append(summary.Skipped, step)
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			summary.Failed = append(summary.Failed, StepFailure{Step: step, Reason: err.Error()})
			continue
		}

		if err := limiter.Wait(ctx); err != nil {
			summary.Failed = append(summary.Failed, StepFailure{Step: step, Reason: err.Error()})
			continue
		}

		_, generated, err := s.GetOrGenerate(ctx, roadmap.ID, step, career)
		switch {
		case err != nil:
			logger.Log.Warn("Pre-generation step failed",
				zap.String("career", career), zap.Int("step", step), zap.Error(err))
			summary.Failed = append(summary.Failed, StepFailure{Step: step, Reason: err.Error()})
		case generated:
			summary.Generated = append(summary.Generated, step)
		default:
			summary.Skipped = append(summary.Skipped, step)
		}
	}

	logger.Log.Info("Pre-generation finished",
		zap.String("career", career),
		zap.Int("generated", len(summary.Generated)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failed)))
	return summary, nil
}

// Invalidate 清除 Redis 中的副本，测验状态变化后调用
func (s *AssessmentCacheService) Invalidate(ctx context.Context, roadmapID uint, step int) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, assessmentCacheKey(roadmapID, step)).Err(); err != nil {
		logger.Log.Warn("Redis delete failed", zap.Uint("roadmapId", roadmapID), zap.Int("step", step), zap.Error(err))
	}
}

func assessmentCacheKey(roadmapID uint, step int) string {
	return fmt.Sprintf("roadmap_assessment:%d:%d", roadmapID, step)
}

func (s *AssessmentCacheService) readRedis(ctx context.Context, roadmapID uint, step int) *model.RoadmapAssessment {
	if s.Redis == nil {
		return nil
	}
	data, err := s.Redis.Get(ctx, assessmentCacheKey(roadmapID, step)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Redis read failed, falling back to database", zap.Error(err))
		}
		return nil
	}
	var a model.RoadmapAssessment
	if err := json.Unmarshal(data, &a); err != nil {
		return nil
	}
	return &a
}

func (s *AssessmentCacheService) writeRedis(ctx context.Context, a *model.RoadmapAssessment) {
	if s.Redis == nil {
		return
	}
	ttl := s.Policy.Get().CacheTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, assessmentCacheKey(a.RoadmapID, a.StepNumber), data, ttl).Err(); err != nil {
		logger.Log.Warn("Redis write failed", zap.Error(err))
	}
}
