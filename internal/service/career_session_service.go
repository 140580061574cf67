package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/model"
	"career_path_backend/internal/repository"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/events"
	"career_path_backend/pkg/logger"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// 会话结束原因
const (
	TerminatedByConfidence   = "confidence_threshold"
	TerminatedByMaxQuestions = "max_questions"
)

type SessionView struct {
	SessionID     string              `json:"sessionId"`
	Status        model.SessionStatus `json:"status"`
	CurrentCareer string              `json:"currentCareer"`
	Confidence    int                 `json:"confidence"`
	AnswerCount   int                 `json:"answerCount"`
	CareerHistory map[string]int      `json:"careerHistory"`
	NextQuestion  *catalog.Question   `json:"nextQuestion,omitempty"`
}

type CareerResultView struct {
	SessionID       string                     `json:"sessionId"`
	TopCareer       string                     `json:"topCareer"`
	TopScore        float64                    `json:"topScore"`
	Recommendations []model.RankedCareer       `json:"recommendations"`
	Source          model.RecommendationSource `json:"source"`
	CompletedAt     time.Time                  `json:"completedAt"`
}

// AnswerOutcome 一次作答的结果，Completed 为 true 时 Result 非空
type AnswerOutcome struct {
	SessionView
	Transition        TransitionKind    `json:"transition"`
	Feedback          string            `json:"feedback"`
	Completed         bool              `json:"completed"`
	TerminationReason string            `json:"terminationReason,omitempty"`
	Result            *CareerResultView `json:"result,omitempty"`
}

type CareerSessionCompletedEvent struct {
	SessionID string                     `json:"sessionId"`
	UserID    uint                       `json:"userId"`
	TopCareer string                     `json:"topCareer"`
	TopScore  float64                    `json:"topScore"`
	Source    model.RecommendationSource `json:"source"`
	Answers   int                        `json:"answers"`
}

// CareerSessionService 职业发现测评：逐题累积置信度，达到阈值或题数上限时结束并生成推荐
type CareerSessionService struct {
	Store     CareerSessionStore
	Rules     *catalog.Rules
	Finalizer *RecommendationService
	Policy    PolicyReader
	Events    events.Publisher
}

// StartSession 开始新的测评，用户之前进行中的会话被作废（已记录的答案保留）
func (s *CareerSessionService) StartSession(ctx context.Context, userID uint) (*SessionView, error) {
	session := &model.CareerSession{
		UserID:        userID,
		CurrentCareer: model.UndecidedCareer,
		CareerHistory: datatypes.NewJSONType(map[string]int{}),
	}
	if err := s.Store.StartSession(ctx, session); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, util.ErrConcurrentUpdate
		}
		return nil, err
	}

	logger.Log.Info("Career session started", zap.Uint("userId", userID), zap.String("sessionId", session.ID))
	return s.view(session), nil
}

// GetActiveSession 用户当前进行中的会话
func (s *CareerSessionService) GetActiveSession(ctx context.Context, userID uint) (*SessionView, error) {
	session, err := s.Store.FindActiveSession(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return s.view(session), nil
}

// SubmitAnswer 按顺序提交下一题的答案。会话结束后的任何提交都返回 ErrSessionInvalidated
func (s *CareerSessionService) SubmitAnswer(ctx context.Context, userID uint, sessionID string, questionID int, option string) (*AnswerOutcome, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionActive {
		return nil, util.ErrSessionInvalidated
	}

	option = strings.TrimSpace(option)
	if option == "" {
		return nil, util.ErrOptionRequired
	}
	if expected := session.AnswerCount + 1; questionID != expected {
		return nil, fmt.Errorf("%w: expected question %d, got %d", util.ErrAnswerOutOfOrder, expected, questionID)
	}

	policy := s.Policy.Get()
	t := NewAccumulator(s.Rules, s.Policy).Step(CareerState{
		CurrentCareer: session.CurrentCareer,
		History:       session.CareerHistory.Data(),
		AnswerCount:   session.AnswerCount,
	}, questionID, option)

	expectedVersion := session.Version
	session.CurrentCareer = t.State.CurrentCareer
	session.CareerHistory = datatypes.NewJSONType(t.State.History)
	session.AnswerCount = t.State.AnswerCount
	answer := &model.CareerAnswer{SessionID: session.ID, QuestionID: questionID, SelectedOption: option}

	outcome := &AnswerOutcome{Transition: t.Kind, Feedback: t.Feedback}
	switch {
	case t.State.History[t.State.CurrentCareer] >= policy.ConfidenceThreshold && t.State.CurrentCareer != model.UndecidedCareer:
		outcome.TerminationReason = TerminatedByConfidence
	case t.State.AnswerCount >= policy.MaxQuestions || t.State.AnswerCount >= s.Rules.QuestionCount():
		outcome.TerminationReason = TerminatedByMaxQuestions
	}

	if outcome.TerminationReason == "" {
		if err := s.Store.RecordAnswer(ctx, session, expectedVersion, answer); err != nil {
			return nil, translateSessionWriteError(err)
		}
		outcome.SessionView = *s.view(session)
		return outcome, nil
	}

	result, err := s.complete(ctx, session, expectedVersion, answer)
	if err != nil {
		return nil, err
	}
	outcome.Completed = true
	outcome.SessionView = *s.view(session)
	outcome.Result = result
	return outcome, nil
}

// complete 生成推荐并在同一事务中写入最后一个答案、结束会话、保存结果
func (s *CareerSessionService) complete(ctx context.Context, session *model.CareerSession, expectedVersion int, last *model.CareerAnswer) (*CareerResultView, error) {
	answers, err := s.Store.ListAnswers(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	answers = append(answers, *last)

	rec := s.Finalizer.Finalize(ctx, answers)
	top := rec.Top()
	result := &model.CareerResult{
		SessionID:        session.ID,
		UserID:           session.UserID,
		CareerSuggestion: top.Career,
		Score:            top.Score,
		Recommendations:  datatypes.NewJSONType(rec.Careers),
		Source:           rec.Source,
	}

	if err := s.Store.CompleteSession(ctx, session, expectedVersion, last, result); err != nil {
		return nil, translateSessionWriteError(err)
	}

	logger.Log.Info("Career session completed",
		zap.String("sessionId", session.ID),
		zap.Uint("userId", session.UserID),
		zap.String("career", top.Career),
		zap.Float64("score", top.Score),
		zap.String("source", string(rec.Source)))

	if s.Events != nil {
		evt := CareerSessionCompletedEvent{
			SessionID: session.ID,
			UserID:    session.UserID,
			TopCareer: top.Career,
			TopScore:  top.Score,
			Source:    rec.Source,
			Answers:   len(answers),
		}
		if err := s.Events.Publish(ctx, events.CareerSessionCompleted, evt); err != nil {
			logger.Log.Warn("Publish session completed event failed", zap.String("sessionId", session.ID), zap.Error(err))
		}
	}
	return resultView(result), nil
}

// GetResult 已结束会话的推荐结果
func (s *CareerSessionService) GetResult(ctx context.Context, userID uint, sessionID string) (*CareerResultView, error) {
	session, err := s.ownedSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionTerminated {
		return nil, util.ErrResultNotReady
	}

	result, err := s.Store.FindResult(ctx, session.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrResultNotReady
		}
		return nil, err
	}
	return resultView(result), nil
}

// ownedSession 他人的会话按不存在处理
func (s *CareerSessionService) ownedSession(ctx context.Context, userID uint, sessionID string) (*model.CareerSession, error) {
	session, err := s.Store.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if session.UserID != userID {
		return nil, util.ErrSessionNotFound
	}
	return session, nil
}

func (s *CareerSessionService) view(session *model.CareerSession) *SessionView {
	history := session.CareerHistory.Data()
	if history == nil {
		history = map[string]int{}
	}
	v := &SessionView{
		SessionID:     session.ID,
		Status:        session.Status,
		CurrentCareer: session.CurrentCareer,
		Confidence:    capConfidence(session.Confidence()),
		AnswerCount:   session.AnswerCount,
		CareerHistory: history,
	}
	if session.Status == model.SessionActive {
		if q, ok := s.Rules.Question(session.AnswerCount + 1); ok {
			v.NextQuestion = q
		}
	}
	return v
}

func resultView(r *model.CareerResult) *CareerResultView {
	return &CareerResultView{
		SessionID:       r.SessionID,
		TopCareer:       r.CareerSuggestion,
		TopScore:        r.Score,
		Recommendations: r.Recommendations.Data(),
		Source:          r.Source,
		CompletedAt:     r.CreatedAt,
	}
}

func translateSessionWriteError(err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return util.ErrConcurrentUpdate
	}
	return err
}
