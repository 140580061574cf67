package repository

import (
	"career_path_backend/internal/model"
	"career_path_backend/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCareerSessionRepository_StartInvalidatesPrevious(t *testing.T) {
	ctx := context.Background()
	repo := NewCareerSessionRepository(testutil.DB(t))

	first := &model.CareerSession{UserID: 1, CurrentCareer: model.UndecidedCareer}
	require.NoError(t, repo.StartSession(ctx, first))

	second := &model.CareerSession{UserID: 1, CurrentCareer: model.UndecidedCareer}
	require.NoError(t, repo.StartSession(ctx, second))

	old, err := repo.FindSession(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInvalidated, old.Status)
	assert.Nil(t, old.ActiveUserID)

	active, err := repo.FindActiveSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	_, err = repo.FindActiveSession(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCareerSessionRepository_RecordAnswerVersioning(t *testing.T) {
	ctx := context.Background()
	repo := NewCareerSessionRepository(testutil.DB(t))

	s := &model.CareerSession{UserID: 3, CurrentCareer: model.UndecidedCareer}
	require.NoError(t, repo.StartSession(ctx, s))

	s.CurrentCareer = "Data Scientist"
	s.CareerHistory = datatypes.NewJSONType(map[string]int{"Data Scientist": 10})
	s.AnswerCount = 1
	require.NoError(t, repo.RecordAnswer(ctx, s, 0, &model.CareerAnswer{SessionID: s.ID, QuestionID: 1, SelectedOption: "x"}))
	assert.Equal(t, 1, s.Version)

	// stale version
	err := repo.RecordAnswer(ctx, s, 0, &model.CareerAnswer{SessionID: s.ID, QuestionID: 2, SelectedOption: "y"})
	assert.ErrorIs(t, err, ErrConflict)

	answers, err := repo.ListAnswers(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, answers, 1, "stale write must roll back the answer insert")

	// duplicate question id
	err = repo.RecordAnswer(ctx, s, 1, &model.CareerAnswer{SessionID: s.ID, QuestionID: 1, SelectedOption: "z"})
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := repo.FindSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stored.Confidence())
}

func TestCareerSessionRepository_CompleteSession(t *testing.T) {
	ctx := context.Background()
	repo := NewCareerSessionRepository(testutil.DB(t))

	s := &model.CareerSession{UserID: 5, CurrentCareer: model.UndecidedCareer}
	require.NoError(t, repo.StartSession(ctx, s))

	s.CurrentCareer = "Web Developer"
	s.CareerHistory = datatypes.NewJSONType(map[string]int{"Web Developer": 95})
	s.AnswerCount = 1
	result := &model.CareerResult{
		SessionID:        s.ID,
		UserID:           5,
		CareerSuggestion: "Web Developer",
		Score:            88,
		Recommendations:  datatypes.NewJSONType([]model.RankedCareer{{Career: "Web Developer", Score: 88}}),
		Source:           model.SourceAI,
	}
	require.NoError(t, repo.CompleteSession(ctx, s, 0, &model.CareerAnswer{SessionID: s.ID, QuestionID: 1, SelectedOption: "x"}, result))

	stored, err := repo.FindSession(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionTerminated, stored.Status)
	assert.NotNil(t, stored.TerminatedAt)

	_, err = repo.FindActiveSession(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := repo.FindResult(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Web Developer", got.CareerSuggestion)
	assert.Equal(t, []model.RankedCareer{{Career: "Web Developer", Score: 88}}, got.Recommendations.Data())
}

func TestRoadmapAssessmentRepository_CreateConflict(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewRoadmapAssessmentRepository(db)
	roadmaps := NewRoadmapRepository(db)

	roadmap, err := roadmaps.FindRoadmapByCareer(ctx, "Data Scientist")
	require.NoError(t, err)

	a := &model.RoadmapAssessment{RoadmapID: roadmap.ID, StepNumber: 1, Title: "first", Questions: datatypes.JSON(`[]`), IsActive: true}
	require.NoError(t, repo.CreateAssessment(ctx, a))

	dup := &model.RoadmapAssessment{RoadmapID: roadmap.ID, StepNumber: 1, Title: "second", Questions: datatypes.JSON(`[]`), IsActive: true}
	assert.ErrorIs(t, repo.CreateAssessment(ctx, dup), ErrConflict)

	stored, err := repo.FindAssessment(ctx, roadmap.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Title)

	require.NoError(t, repo.SetAssessmentActive(ctx, stored.ID, false))
	stored, err = repo.FindAssessmentByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, repo.SetAssessmentActive(ctx, 9999, false), ErrNotFound)
}

func TestRoadmapAssessmentRepository_RecordAttemptMarksStep(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	repo := NewRoadmapAssessmentRepository(db)
	roadmaps := NewRoadmapRepository(db)

	a := &model.RoadmapAssessment{RoadmapID: 1, StepNumber: 1, Title: "t", Questions: datatypes.JSON(`[]`), IsActive: true}
	require.NoError(t, repo.CreateAssessment(ctx, a))

	now := time.Now()
	fail := &model.AssessmentAttempt{UserID: 9, RoadmapAssessmentID: a.ID, AttemptNumber: 1, Score: 40, Status: model.AttemptFail, StartedAt: now}
	require.NoError(t, repo.RecordAttempt(ctx, fail, nil))

	pass := &model.AssessmentAttempt{UserID: 9, RoadmapAssessmentID: a.ID, AttemptNumber: 2, Score: 80, Status: model.AttemptPass, StartedAt: now}
	done := &model.RoadmapStepState{RoadmapID: 1, UserID: 9, StepNumber: 1, IsDone: true, CompletedAt: &now}
	require.NoError(t, repo.RecordAttempt(ctx, pass, done))

	dupNumber := &model.AssessmentAttempt{UserID: 9, RoadmapAssessmentID: a.ID, AttemptNumber: 2, Score: 10, Status: model.AttemptFail, StartedAt: now}
	assert.ErrorIs(t, repo.RecordAttempt(ctx, dupNumber, nil), ErrConflict)

	count, err := repo.CountAttempts(ctx, 9, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	passing, err := repo.FindPassingAttempt(ctx, 9, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, passing.AttemptNumber)

	passed, err := repo.PassedAssessmentIDs(ctx, 9, []uint{a.ID, 12345})
	require.NoError(t, err)
	assert.Equal(t, map[uint]bool{a.ID: true}, passed)

	state, err := roadmaps.FindStepState(ctx, 1, 9, 1)
	require.NoError(t, err)
	assert.True(t, state.IsDone)
	require.NotNil(t, state.CompletedAt)

	// 手动撤销完成状态
	require.NoError(t, roadmaps.UpsertStepState(ctx, &model.RoadmapStepState{RoadmapID: 1, UserID: 9, StepNumber: 1}))
	state, err = roadmaps.FindStepState(ctx, 1, 9, 1)
	require.NoError(t, err)
	assert.False(t, state.IsDone)
	assert.Nil(t, state.CompletedAt)
}
