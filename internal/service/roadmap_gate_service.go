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

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// PublicQuestion 返回给用户的题目，不含答案和解析
type PublicQuestion struct {
	QuestionID int      `json:"questionId"`
	Question   string   `json:"question"`
	Options    []string `json:"options"`
}

type StepAssessmentView struct {
	AssessmentID     uint             `json:"assessmentId"`
	RoadmapID        uint             `json:"roadmapId"`
	StepNumber       int              `json:"stepNumber"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Questions        []PublicQuestion `json:"questions"`
	TotalQuestions   int              `json:"totalQuestions"`
	PassingScore     int              `json:"passingScore"`
	TimeLimitMinutes int              `json:"timeLimitMinutes"`
	HasPassed        bool             `json:"hasPassed"`
	AttemptCount     int              `json:"attemptCount"`
	BestScore        float64          `json:"bestScore"`
	CanRetake        bool             `json:"canRetake"`
	JustGenerated    bool             `json:"justGenerated"`
}

type SubmitAssessmentRequest struct {
	Answers          []SubmittedAnswer `json:"answers" binding:"required"`
	TimeTakenSeconds *int              `json:"timeTakenSeconds"`
	StartedAt        *time.Time        `json:"startedAt"`
}

// SubmissionResult 提交结果。AlreadyPassed 为 true 时返回的是此前的通过记录，本次未保存
type SubmissionResult struct {
	AttemptID      uint             `json:"attemptId"`
	AttemptNumber  int              `json:"attemptNumber"`
	Score          float64          `json:"score"`
	Passed         bool             `json:"passed"`
	PassingScore   int              `json:"passingScore"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results,omitempty"`
	StepCompleted  bool             `json:"stepCompleted"`
	AlreadyPassed  bool             `json:"alreadyPassed"`
	Message        string           `json:"message"`
}

type AttemptView struct {
	AttemptID        uint                `json:"attemptId"`
	AttemptNumber    int                 `json:"attemptNumber"`
	Score            float64             `json:"score"`
	Status           model.AttemptStatus `json:"status"`
	TimeTakenSeconds *int                `json:"timeTakenSeconds,omitempty"`
	CompletedAt      *time.Time          `json:"completedAt,omitempty"`
}

type AssessmentHistory struct {
	AssessmentID  uint          `json:"assessmentId"`
	StepNumber    int           `json:"stepNumber"`
	Attempts      []AttemptView `json:"attempts"`
	TotalAttempts int           `json:"totalAttempts"`
	BestScore     float64       `json:"bestScore"`
	HasPassed     bool          `json:"hasPassed"`
}

type StepProgress struct {
	StepNumber       int        `json:"stepNumber"`
	Title            string     `json:"title"`
	IsDone           bool       `json:"isDone"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	IsLocked         bool       `json:"isLocked"`
	HasAssessment    bool       `json:"hasAssessment"`
	AssessmentPassed bool       `json:"assessmentPassed"`
}

type RoadmapProgress struct {
	RoadmapID       uint           `json:"roadmapId"`
	Career          string         `json:"career"`
	TotalSteps      int            `json:"totalSteps"`
	CompletedSteps  int            `json:"completedSteps"`
	ProgressPercent float64        `json:"progressPercent"`
	Steps           []StepProgress `json:"steps"`
}

type StepCompletedEvent struct {
	UserID     uint    `json:"userId"`
	RoadmapID  uint    `json:"roadmapId"`
	Career     string  `json:"career"`
	StepNumber int     `json:"stepNumber"`
	Score      float64 `json:"score,omitempty"`
	Via        string  `json:"via"`
}

// RoadmapGateService 路线步骤的顺序解锁：第 N 步的测验需要第 N-1 步已完成，
// 存在测验的步骤只有通过测验后才能标记完成
type RoadmapGateService struct {
	Roadmaps    RoadmapStore
	Assessments RoadmapAssessmentStore
	Cache       *AssessmentCacheService
	Catalog     *catalog.Catalog
	Events      events.Publisher
	Now         func() time.Time
}

func (s *RoadmapGateService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *RoadmapGateService) roadmap(ctx context.Context, roadmapID uint) (*model.Roadmap, error) {
	r, err := s.Roadmaps.FindRoadmap(ctx, roadmapID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrRoadmapNotFound
		}
		return nil, err
	}
	return r, nil
}

func checkStepRange(r *model.Roadmap, step int) error {
	if step < 1 || step > r.TotalSteps {
		return fmt.Errorf("%w: %d not in 1..%d", util.ErrInvalidStep, step, r.TotalSteps)
	}
	return nil
}

// checkUnlocked 校验步骤范围和前置步骤
func (s *RoadmapGateService) checkUnlocked(ctx context.Context, userID uint, r *model.Roadmap, step int) error {
	if err := checkStepRange(r, step); err != nil {
		return err
	}
	if step == 1 {
		return nil
	}
	prev, err := s.Roadmaps.FindStepState(ctx, r.ID, userID, step-1)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if prev == nil || !prev.IsDone {
		return &util.StepLockedError{Step: step, RequiredStep: step - 1}
	}
	return nil
}

// GetStepAssessment 获取步骤测验，首次访问时生成
func (s *RoadmapGateService) GetStepAssessment(ctx context.Context, userID, roadmapID uint, step int) (*StepAssessmentView, error) {
	r, err := s.roadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnlocked(ctx, userID, r, step); err != nil {
		return nil, err
	}

	a, generated, err := s.Cache.GetOrGenerate(ctx, r.ID, step, r.CareerName)
	if err != nil {
		return nil, err
	}
	if !a.IsActive {
		return nil, util.ErrAssessmentInactive
	}

	questions, err := decodeQuestions(a)
	if err != nil {
		return nil, err
	}
	attempts, err := s.Assessments.ListAttempts(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	best, passed := summarizeAttempts(attempts)

	public := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, PublicQuestion{QuestionID: q.QuestionID, Question: q.Question, Options: q.Options})
	}

	return &StepAssessmentView{
		AssessmentID:     a.ID,
		RoadmapID:        a.RoadmapID,
		StepNumber:       a.StepNumber,
		Title:            a.Title,
		Description:      a.Description,
		Questions:        public,
		TotalQuestions:   len(public),
		PassingScore:     a.PassingScore,
		TimeLimitMinutes: a.TimeLimitMinutes,
		HasPassed:        passed,
		AttemptCount:     len(attempts),
		BestScore:        best,
		CanRetake:        !passed,
		JustGenerated:    generated,
	}, nil
}

// SubmitStepAssessment 评分并保存提交。已通过的测验直接返回原通过成绩，
// 不受前置步骤状态影响；只有新的提交需要步骤已解锁
func (s *RoadmapGateService) SubmitStepAssessment(ctx context.Context, userID, roadmapID uint, step int, req SubmitAssessmentRequest) (*SubmissionResult, error) {
	r, err := s.roadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	if err := checkStepRange(r, step); err != nil {
		return nil, err
	}

	a, err := s.Assessments.FindAssessment(ctx, r.ID, step)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}
	if !a.IsActive {
		return nil, util.ErrAssessmentInactive
	}

	existing, err := s.Assessments.FindPassingAttempt(ctx, userID, a.ID)
	if err == nil {
		// 步骤可能在通过后被手动取消完成，按存储的状态返回
		done, err := s.stepDone(ctx, userID, r.ID, step)
		if err != nil {
			return nil, err
		}
		return &SubmissionResult{
			AttemptID:     existing.ID,
			AttemptNumber: existing.AttemptNumber,
			Score:         existing.Score,
			Passed:        true,
			PassingScore:  a.PassingScore,
			StepCompleted: done,
			AlreadyPassed: true,
			Message:       "You have already passed this assessment",
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if err := s.checkUnlocked(ctx, userID, r, step); err != nil {
		return nil, err
	}

	questions, err := decodeQuestions(a)
	if err != nil {
		return nil, err
	}
	scored, err := ScoreAttempt(questions, req.Answers, a.PassingScore)
	if err != nil {
		return nil, err
	}

	prior, err := s.Assessments.CountAttempts(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}

	answers, err := json.Marshal(req.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	now := s.now()
	startedAt := now
	if req.StartedAt != nil {
		startedAt = *req.StartedAt
	} else if req.TimeTakenSeconds != nil {
		startedAt = now.Add(-time.Duration(*req.TimeTakenSeconds) * time.Second)
	}

	attempt := &model.AssessmentAttempt{
		UserID:              userID,
		RoadmapAssessmentID: a.ID,
		AttemptNumber:       prior + 1,
		Score:               scored.Score,
		Status:              model.AttemptFail,
		Answers:             datatypes.JSON(answers),
		TimeTakenSeconds:    req.TimeTakenSeconds,
		StartedAt:           startedAt,
		CompletedAt:         &now,
	}

	var completion *model.RoadmapStepState
	if scored.Passed {
		attempt.Status = model.AttemptPass
		completion, err = s.doneState(ctx, userID, r, step, now)
		if err != nil {
			return nil, err
		}
	}

	if err := s.Assessments.RecordAttempt(ctx, attempt, completion); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, util.ErrConcurrentUpdate
		}
		return nil, err
	}
	monitoring.AttemptOutcomes.WithLabelValues(string(attempt.Status)).Inc()

	logger.Log.Info("Roadmap assessment submitted",
		zap.Uint("userId", userID),
		zap.Uint("assessmentId", a.ID),
		zap.Int("attempt", attempt.AttemptNumber),
		zap.Float64("score", scored.Score),
		zap.Bool("passed", scored.Passed))

	message := fmt.Sprintf("You scored %.2f%%. You need %d%% to pass.", scored.Score, a.PassingScore)
	if scored.Passed {
		message = fmt.Sprintf("Congratulations! You passed with %.2f%%.", scored.Score)
		s.publishStepCompleted(ctx, StepCompletedEvent{
			UserID:     userID,
			RoadmapID:  r.ID,
			Career:     r.CareerName,
			StepNumber: step,
			Score:      scored.Score,
			Via:        "assessment",
		})
	}

	return &SubmissionResult{
		AttemptID:      attempt.ID,
		AttemptNumber:  attempt.AttemptNumber,
		Score:          scored.Score,
		Passed:         scored.Passed,
		PassingScore:   a.PassingScore,
		CorrectCount:   scored.CorrectCount,
		TotalQuestions: scored.TotalQuestions,
		Results:        scored.Results,
		StepCompleted:  scored.Passed,
		Message:        message,
	}, nil
}

// SetStepDone 手动切换步骤完成状态。标记完成同样要求前置步骤已完成，且存在测验时必须已通过
func (s *RoadmapGateService) SetStepDone(ctx context.Context, userID, roadmapID uint, step int, done bool) (*model.RoadmapStepState, error) {
	r, err := s.roadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}

	if !done {
		if err := checkStepRange(r, step); err != nil {
			return nil, err
		}
		state := s.stepSnapshot(userID, r, step)
		if err := s.Roadmaps.UpsertStepState(ctx, state); err != nil {
			return nil, err
		}
		return state, nil
	}

	if err := s.checkUnlocked(ctx, userID, r, step); err != nil {
		return nil, err
	}

	a, err := s.Assessments.FindAssessment(ctx, r.ID, step)
	switch {
	case err == nil:
		if _, err := s.Assessments.FindPassingAttempt(ctx, userID, a.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, util.ErrPassRequired
			}
			return nil, err
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	state, err := s.doneState(ctx, userID, r, step, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.Roadmaps.UpsertStepState(ctx, state); err != nil {
		return nil, err
	}

	s.publishStepCompleted(ctx, StepCompletedEvent{
		UserID:     userID,
		RoadmapID:  r.ID,
		Career:     r.CareerName,
		StepNumber: step,
		Via:        "manual",
	})
	return state, nil
}

func (s *RoadmapGateService) stepDone(ctx context.Context, userID, roadmapID uint, step int) (bool, error) {
	state, err := s.Roadmaps.FindStepState(ctx, roadmapID, userID, step)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return state.IsDone, nil
}

// doneState 完成状态的快照，已完成的步骤保留原完成时间
func (s *RoadmapGateService) doneState(ctx context.Context, userID uint, r *model.Roadmap, step int, now time.Time) (*model.RoadmapStepState, error) {
	state := s.stepSnapshot(userID, r, step)
	state.IsDone = true
	state.CompletedAt = &now

	existing, err := s.Roadmaps.FindStepState(ctx, r.ID, userID, step)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.IsDone && existing.CompletedAt != nil {
		state.CompletedAt = existing.CompletedAt
	}
	return state, nil
}

func (s *RoadmapGateService) stepSnapshot(userID uint, r *model.Roadmap, step int) *model.RoadmapStepState {
	state := &model.RoadmapStepState{RoadmapID: r.ID, UserID: userID, StepNumber: step}
	if content, err := s.Catalog.StepContent(r.CareerName, step); err == nil {
		state.Title = content.Title
		state.Description = content.Description
		state.Duration = content.Duration
	}
	return state
}

// GetAssessmentHistory 用户在某步骤测验上的全部提交
func (s *RoadmapGateService) GetAssessmentHistory(ctx context.Context, userID, roadmapID uint, step int) (*AssessmentHistory, error) {
	r, err := s.roadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}
	a, err := s.Assessments.FindAssessment(ctx, r.ID, step)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrAssessmentNotFound
		}
		return nil, err
	}

	attempts, err := s.Assessments.ListAttempts(ctx, userID, a.ID)
	if err != nil {
		return nil, err
	}
	best, passed := summarizeAttempts(attempts)

	views := make([]AttemptView, 0, len(attempts))
	for _, at := range attempts {
		views = append(views, AttemptView{
			AttemptID:        at.ID,
			AttemptNumber:    at.AttemptNumber,
			Score:            at.Score,
			Status:           at.Status,
			TimeTakenSeconds: at.TimeTakenSeconds,
			CompletedAt:      at.CompletedAt,
		})
	}
	return &AssessmentHistory{
		AssessmentID:  a.ID,
		StepNumber:    step,
		Attempts:      views,
		TotalAttempts: len(views),
		BestScore:     best,
		HasPassed:     passed,
	}, nil
}

// GetRoadmapProgress 用户在路线上的整体进度
func (s *RoadmapGateService) GetRoadmapProgress(ctx context.Context, userID, roadmapID uint) (*RoadmapProgress, error) {
	r, err := s.roadmap(ctx, roadmapID)
	if err != nil {
		return nil, err
	}

	states, err := s.Roadmaps.ListStepStates(ctx, r.ID, userID)
	if err != nil {
		return nil, err
	}
	stateByStep := make(map[int]model.RoadmapStepState, len(states))
	for _, st := range states {
		stateByStep[st.StepNumber] = st
	}

	assessments, err := s.Assessments.ListAssessments(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	assessmentByStep := make(map[int]uint, len(assessments))
	ids := make([]uint, 0, len(assessments))
	for _, a := range assessments {
		assessmentByStep[a.StepNumber] = a.ID
		ids = append(ids, a.ID)
	}
	passed, err := s.Assessments.PassedAssessmentIDs(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	progress := &RoadmapProgress{
		RoadmapID:  r.ID,
		Career:     r.CareerName,
		TotalSteps: r.TotalSteps,
		Steps:      make([]StepProgress, 0, r.TotalSteps),
	}
	for step := 1; step <= r.TotalSteps; step++ {
		st, ok := stateByStep[step]
		sp := StepProgress{StepNumber: step, Title: st.Title}
		if !ok || sp.Title == "" {
			if content, err := s.Catalog.StepContent(r.CareerName, step); err == nil {
				sp.Title = content.Title
			}
		}
		if ok && st.IsDone {
			sp.IsDone = true
			sp.CompletedAt = st.CompletedAt
			progress.CompletedSteps++
		}
		if step > 1 {
			prev, ok := stateByStep[step-1]
			sp.IsLocked = !ok || !prev.IsDone
		}
		if id, ok := assessmentByStep[step]; ok {
			sp.HasAssessment = true
			sp.AssessmentPassed = passed[id]
		}
		progress.Steps = append(progress.Steps, sp)
	}
	if r.TotalSteps > 0 {
		progress.ProgressPercent = util.Round2(100 * float64(progress.CompletedSteps) / float64(r.TotalSteps))
	}
	return progress, nil
}

// DeactivateAssessment 停用测验，停用后不能再访问或提交，已有记录保留
func (s *RoadmapGateService) DeactivateAssessment(ctx context.Context, assessmentID uint) error {
	a, err := s.Assessments.FindAssessmentByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return util.ErrAssessmentNotFound
		}
		return err
	}
	if err := s.Assessments.SetAssessmentActive(ctx, a.ID, false); err != nil {
		return err
	}
	if s.Cache != nil {
		s.Cache.Invalidate(ctx, a.RoadmapID, a.StepNumber)
	}
	logger.Log.Info("Roadmap assessment deactivated", zap.Uint("assessmentId", a.ID))
	return nil
}

func (s *RoadmapGateService) publishStepCompleted(ctx context.Context, evt StepCompletedEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.Publish(ctx, events.RoadmapStepCompleted, evt); err != nil {
		logger.Log.Warn("Publish step completed event failed",
			zap.Uint("roadmapId", evt.RoadmapID), zap.Int("step", evt.StepNumber), zap.Error(err))
	}
}

func decodeQuestions(a *model.RoadmapAssessment) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	if err := json.Unmarshal(a.Questions, &questions); err != nil {
		return nil, fmt.Errorf("decode assessment %d questions: %w", a.ID, err)
	}
	return questions, nil
}

func summarizeAttempts(attempts []model.AssessmentAttempt) (best float64, passed bool) {
	for _, at := range attempts {
		if at.Score > best {
			best = at.Score
		}
		if at.Status == model.AttemptPass {
			passed = true
		}
	}
	return best, passed
}
