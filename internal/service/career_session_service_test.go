package service

import (
	"career_path_backend/internal/model"
	"career_path_backend/internal/repository"
	"career_path_backend/internal/testutil"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/events"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc    *CareerSessionService
	repo   *repository.CareerSessionRepository
	events *events.Recorder
}

func newSessionFixture(t *testing.T, ai Completer) *sessionFixture {
	t.Helper()
	rules := testRules(t)
	policy := testPolicy()
	f := &sessionFixture{
		repo:   repository.NewCareerSessionRepository(testutil.DB(t)),
		events: &events.Recorder{},
	}
	f.svc = &CareerSessionService{
		Store:     f.repo,
		Rules:     rules,
		Finalizer: &RecommendationService{AI: ai, Rules: rules, Policy: policy},
		Policy:    policy,
		Events:    f.events,
	}
	return f
}

func submitAll(t *testing.T, svc *CareerSessionService, userID uint, sessionID string, answers []model.CareerAnswer) *AnswerOutcome {
	t.Helper()
	var out *AnswerOutcome
	for _, a := range answers {
		var err error
		out, err = svc.SubmitAnswer(context.Background(), userID, sessionID, a.QuestionID, a.SelectedOption)
		require.NoError(t, err, "question %d", a.QuestionID)
	}
	return out
}

func TestCareerSession_ReinforceThenPivot(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.UndecidedCareer, started.CurrentCareer)
	require.NotNil(t, started.NextQuestion)
	assert.Equal(t, 1, started.NextQuestion.ID)

	out := submitAll(t, f.svc, 1, started.SessionID, dataScientistAnswers()[:4])
	assert.Equal(t, "Data Scientist", out.CurrentCareer)
	assert.Equal(t, 55, out.Confidence)
	assert.Equal(t, model.SessionActive, out.Status)
	assert.False(t, out.Completed)
	assert.Equal(t, 5, out.NextQuestion.ID)

	out, err = f.svc.SubmitAnswer(ctx, 1, started.SessionID, 5, "Media studies")
	require.NoError(t, err)
	assert.Equal(t, TransitionPivot, out.Transition)
	assert.Equal(t, "Web Developer", out.CurrentCareer)
	assert.Equal(t, 20, out.Confidence)
	assert.Equal(t, 55, out.CareerHistory["Data Scientist"])

	persisted, err := f.repo.FindSession(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 5, persisted.AnswerCount)
	assert.Equal(t, "Web Developer", persisted.CurrentCareer)
	assert.Equal(t, 20, persisted.Confidence())

	current, err := f.svc.GetActiveSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 20, current.Confidence)
	assert.Equal(t, 6, current.NextQuestion.ID)
}

func TestCareerSession_TerminatesAtConfidenceThreshold(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, 7)
	require.NoError(t, err)

	// 第 8 题后 Data Scientist 达到 100
	out := submitAll(t, f.svc, 7, started.SessionID, dataScientistAnswers())
	require.True(t, out.Completed)
	assert.Equal(t, TerminatedByConfidence, out.TerminationReason)
	assert.Equal(t, model.SessionTerminated, out.Status)
	assert.Nil(t, out.NextQuestion)
	require.NotNil(t, out.Result)
	assert.Equal(t, "Data Scientist", out.Result.TopCareer)
	assert.Equal(t, 100.0, out.Result.TopScore)
	assert.Equal(t, model.SourceFallback, out.Result.Source)

	_, err = f.svc.SubmitAnswer(ctx, 7, started.SessionID, 9, "Machine learning papers")
	assert.ErrorIs(t, err, util.ErrSessionInvalidated)

	result, err := f.svc.GetResult(ctx, 7, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Data Scientist", result.TopCareer)

	_, err = f.svc.GetActiveSession(ctx, 7)
	assert.ErrorIs(t, err, util.ErrSessionNotFound)
	assert.Equal(t, []string{events.CareerSessionCompleted}, f.events.Types())
}

func TestCareerSession_TerminatesAtMaxQuestions(t *testing.T) {
	ai := replying(`{"careers": [{"career": "Software Engineer", "score": 64, "reason": "mixed interests"}]}`)
	f := newSessionFixture(t, ai)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, 3)
	require.NoError(t, err)

	// 每题都换方向，置信度始终达不到阈值
	answers := []model.CareerAnswer{
		{QuestionID: 1, SelectedOption: "Building software applications"},
		{QuestionID: 2, SelectedOption: "Sketching ideas visually"},
		{QuestionID: 3, SelectedOption: "Selenium and Cypress"},
		{QuestionID: 4, SelectedOption: "A fast, responsive website"},
		{QuestionID: 5, SelectedOption: "Computer science"},
		{QuestionID: 6, SelectedOption: "Exploring open questions with data"},
		{QuestionID: 7, SelectedOption: "Your design looks stunning"},
		{QuestionID: 8, SelectedOption: "Breaking an application on purpose"},
		{QuestionID: 9, SelectedOption: "Web framework release notes"},
	}
	out := submitAll(t, f.svc, 3, started.SessionID, answers)
	require.False(t, out.Completed)
	assert.Equal(t, 0, ai.Calls())

	out, err = f.svc.SubmitAnswer(ctx, 3, started.SessionID, 10, "Leading an engineering team")
	require.NoError(t, err)
	require.True(t, out.Completed)
	assert.Equal(t, TerminatedByMaxQuestions, out.TerminationReason)
	assert.Equal(t, model.SourceAI, out.Result.Source)
	assert.Equal(t, "Software Engineer", out.Result.TopCareer)
	assert.Equal(t, 64.0, out.Result.TopScore)
	assert.Equal(t, 1, ai.Calls())
	assert.Contains(t, ai.requests[0].Prompt, "Leading an engineering team", "the final answer is part of the history")
}

func TestCareerSession_Validation(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	started, err := f.svc.StartSession(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, 1, started.SessionID, 2, "Statistics")
	assert.ErrorIs(t, err, util.ErrAnswerOutOfOrder)

	_, err = f.svc.SubmitAnswer(ctx, 1, started.SessionID, 1, "  ")
	assert.ErrorIs(t, err, util.ErrOptionRequired)

	_, err = f.svc.SubmitAnswer(ctx, 2, started.SessionID, 1, "Creating visual designs")
	assert.ErrorIs(t, err, util.ErrSessionNotFound, "sessions of other users are invisible")

	_, err = f.svc.SubmitAnswer(ctx, 1, "missing", 1, "Creating visual designs")
	assert.ErrorIs(t, err, util.ErrSessionNotFound)

	_, err = f.svc.GetResult(ctx, 1, started.SessionID)
	assert.ErrorIs(t, err, util.ErrResultNotReady)
}

func TestCareerSession_RestartInvalidatesPrevious(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.StartSession(ctx, 5)
	require.NoError(t, err)
	_, err = f.svc.SubmitAnswer(ctx, 5, first.SessionID, 1, "Creating visual designs")
	require.NoError(t, err)

	second, err := f.svc.StartSession(ctx, 5)
	require.NoError(t, err)

	_, err = f.svc.SubmitAnswer(ctx, 5, first.SessionID, 2, "Sketching ideas visually")
	assert.ErrorIs(t, err, util.ErrSessionInvalidated)

	answers, err := f.repo.ListAnswers(ctx, first.SessionID)
	require.NoError(t, err)
	assert.Len(t, answers, 1, "recorded answers survive invalidation")

	active, err := f.svc.GetActiveSession(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, second.SessionID, active.SessionID)
}

// failingCompletion 结束会话的事务失败
type failingCompletion struct {
	*repository.CareerSessionRepository
}

func (failingCompletion) CompleteSession(ctx context.Context, s *model.CareerSession, v int, a *model.CareerAnswer, r *model.CareerResult) error {
	return errors.New("database unavailable")
}

func TestCareerSession_FailedTerminationLeavesSessionActive(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	f.svc.Store = failingCompletion{f.repo}

	started, err := f.svc.StartSession(ctx, 9)
	require.NoError(t, err)
	submitAll(t, f.svc, 9, started.SessionID, dataScientistAnswers()[:7])

	_, err = f.svc.SubmitAnswer(ctx, 9, started.SessionID, 8, "Cleaning a messy dataset")
	require.Error(t, err)

	persisted, err := f.repo.FindSession(ctx, started.SessionID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionActive, persisted.Status)
	assert.Equal(t, 7, persisted.AnswerCount)
	assert.Equal(t, 85, persisted.Confidence())
	assert.Empty(t, f.events.Types())

	// 恢复后可以重新提交同一题
	f.svc.Store = f.repo
	out, err := f.svc.SubmitAnswer(ctx, 9, started.SessionID, 8, "Cleaning a messy dataset")
	require.NoError(t, err)
	assert.True(t, out.Completed)
}
