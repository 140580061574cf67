package service

import (
	"career_path_backend/internal/model"
	"career_path_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func modelQuiz(n int) []model.QuizQuestion {
	questions := make([]model.QuizQuestion, n)
	for i, item := range quizItems(n) {
		questions[i] = model.QuizQuestion{
			QuestionID:    i + 1,
			Question:      item.Question,
			Options:       item.Options,
			CorrectAnswer: item.CorrectAnswer,
			Explanation:   item.Explanation,
		}
	}
	return questions
}

func TestScoreAttempt_PassBoundary(t *testing.T) {
	res, err := ScoreAttempt(modelQuiz(10), answersWithCorrect(10, 7), 70)
	require.NoError(t, err)
	assert.Equal(t, 70.0, res.Score)
	assert.True(t, res.Passed)
	assert.Equal(t, 7, res.CorrectCount)

	// 6999/10000 = 69.99
	res, err = ScoreAttempt(modelQuiz(10000), answersWithCorrect(10000, 6999), 70)
	require.NoError(t, err)
	assert.Equal(t, 69.99, res.Score)
	assert.False(t, res.Passed)
}

func TestScoreAttempt_RoundsToTwoDecimals(t *testing.T) {
	res, err := ScoreAttempt(modelQuiz(3), answersWithCorrect(3, 2), 70)
	require.NoError(t, err)
	assert.Equal(t, 66.67, res.Score)
	assert.False(t, res.Passed)
}

func TestScoreAttempt_Deterministic(t *testing.T) {
	quiz := modelQuiz(10)
	answers := answersWithCorrect(10, 4)

	first, err := ScoreAttempt(quiz, answers, 70)
	require.NoError(t, err)
	second, err := ScoreAttempt(quiz, answers, 70)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreAttempt_DetailIncludesExplanation(t *testing.T) {
	res, err := ScoreAttempt(modelQuiz(2), []SubmittedAnswer{{SelectedAnswer: 0}, {SelectedAnswer: 3}}, 50)
	require.NoError(t, err)

	require.Len(t, res.Results, 2)
	assert.True(t, res.Results[0].IsCorrect)
	assert.False(t, res.Results[1].IsCorrect)
	assert.Equal(t, 1, res.Results[1].CorrectAnswer)
	assert.Equal(t, "because 2", res.Results[1].Explanation)
}

func TestScoreAttempt_MatchByQuestionID(t *testing.T) {
	// 乱序提交，按题号对应
	answers := []SubmittedAnswer{
		{QuestionID: 3, SelectedAnswer: 2},
		{QuestionID: 1, SelectedAnswer: 0},
		{QuestionID: 2, SelectedAnswer: 0},
	}
	res, err := ScoreAttempt(modelQuiz(3), answers, 70)
	require.NoError(t, err)
	assert.Equal(t, 2, res.CorrectCount)
	assert.Equal(t, 0, res.Results[1].SelectedAnswer)
}

func TestScoreAttempt_ValidationErrors(t *testing.T) {
	quiz := modelQuiz(3)

	_, err := ScoreAttempt(quiz, answersWithCorrect(2, 2), 70)
	assert.ErrorIs(t, err, util.ErrAnswerCountMismatch)

	_, err = ScoreAttempt(quiz, []SubmittedAnswer{{SelectedAnswer: 0}, {SelectedAnswer: 4}, {SelectedAnswer: 0}}, 70)
	assert.ErrorIs(t, err, util.ErrInvalidAnswer)

	_, err = ScoreAttempt(quiz, []SubmittedAnswer{{QuestionID: 1}, {QuestionID: 1}, {QuestionID: 2}}, 70)
	assert.ErrorIs(t, err, util.ErrInvalidAnswer)

	_, err = ScoreAttempt(quiz, []SubmittedAnswer{{QuestionID: 1}, {SelectedAnswer: 1}, {QuestionID: 3}}, 70)
	assert.ErrorIs(t, err, util.ErrInvalidAnswer)

	_, err = ScoreAttempt(quiz, []SubmittedAnswer{{QuestionID: 1}, {QuestionID: 2}, {QuestionID: 9}}, 70)
	assert.ErrorIs(t, err, util.ErrInvalidAnswer)
}
