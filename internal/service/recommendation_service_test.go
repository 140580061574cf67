package service

import (
	"career_path_backend/internal/model"
	"career_path_backend/internal/util"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dataScientistAnswers() []model.CareerAnswer {
	return []model.CareerAnswer{
		{QuestionID: 1, SelectedOption: "Analyzing data to find patterns"},
		{QuestionID: 2, SelectedOption: "Running experiments and reading the numbers"},
		{QuestionID: 3, SelectedOption: "Python notebooks and pandas"},
		{QuestionID: 4, SelectedOption: "A model that predicts outcomes"},
		{QuestionID: 5, SelectedOption: "Statistics"},
		{QuestionID: 6, SelectedOption: "Exploring open questions with data"},
		{QuestionID: 7, SelectedOption: "Your insight changed our strategy"},
		{QuestionID: 8, SelectedOption: "Cleaning a messy dataset"},
	}
}

func newRecommendationService(t *testing.T, ai Completer) *RecommendationService {
	return &RecommendationService{AI: ai, Rules: testRules(t), Policy: testPolicy(), MaxTokens: 600, Temperature: 0.2}
}

func TestFinalize_AIRankingIsClampedSortedAndTruncated(t *testing.T) {
	ai := replying("```json\n" + `{"careers": [
		{"career": "Web Developer", "score": 40, "reason": "likes the web"},
		{"career": "Data Scientist", "score": 130, "reason": "numbers"},
		{"career": "Graphic Designer", "score": -5},
		{"career": "Software Engineer", "score": 72.5},
		{"career": "Software Tester/QA", "score": 10},
		{"career": "Product Manager", "score": 55}
	]}` + "\n```")
	s := newRecommendationService(t, ai)

	rec := s.Finalize(context.Background(), dataScientistAnswers())
	assert.Equal(t, model.SourceAI, rec.Source)
	require.Len(t, rec.Careers, 5)

	assert.Equal(t, "Data Scientist", rec.Top().Career)
	assert.Equal(t, 100.0, rec.Top().Score)
	assert.Equal(t, []string{"Data Scientist", "Software Engineer", "Product Manager", "Web Developer", "Software Tester/QA"},
		careerNames(rec.Careers))

	require.Equal(t, 1, ai.Calls())
	assert.Equal(t, PurposeRecommendation, ai.requests[0].Purpose)
	assert.Contains(t, ai.requests[0].Prompt, "Python notebooks and pandas")
	assert.Equal(t, 600, ai.requests[0].MaxTokens)
}

func TestFinalize_FallsBackOnFailure(t *testing.T) {
	cases := map[string]Completer{
		"call error":     failing(util.ErrAIUnavailable),
		"not json":       replying("I think you should be a data scientist."),
		"wrong shape":    replying(`{"suggestedCareer": "Data Scientist", "score": 90}`),
		"empty list":     replying(`{"careers": []}`),
		"non-numeric":    replying(`{"careers": [{"career": "Data Scientist", "score": "high"}]}`),
		"no ai provider": nil,
	}
	for name, ai := range cases {
		t.Run(name, func(t *testing.T) {
			rec := newRecommendationService(t, ai).Finalize(context.Background(), dataScientistAnswers())
			assert.Equal(t, model.SourceFallback, rec.Source)
			assert.Equal(t, "Data Scientist", rec.Top().Career)
			// 8 个匹配：10+15+15+15+10+10+10+15 = 100，比例 8/8
			assert.Equal(t, 100.0, rec.Top().Score)
		})
	}
}

func TestFallbackRanking_ScalesByMatchRatio(t *testing.T) {
	s := newRecommendationService(t, nil)
	answers := []model.CareerAnswer{
		{QuestionID: 1, SelectedOption: "Analyzing data to find patterns"},
		{QuestionID: 2, SelectedOption: "Designing systems and writing code"},
		{QuestionID: 3, SelectedOption: "Python notebooks and pandas"},
		{QuestionID: 4, SelectedOption: "A reliable backend service"},
	}

	ranked := s.FallbackRanking(answers, 5)
	require.Len(t, ranked, 2)
	// 并列时保持规则表顺序
	assert.Equal(t, "Software Engineer", ranked[0].Career)
	assert.Equal(t, 12.5, ranked[0].Score)
	assert.Equal(t, "Data Scientist", ranked[1].Career)
	assert.Equal(t, 12.5, ranked[1].Score)
}

func TestFallbackRanking_NoMatchesIsUndecided(t *testing.T) {
	s := newRecommendationService(t, nil)

	ranked := s.FallbackRanking([]model.CareerAnswer{{QuestionID: 2, SelectedOption: "none of these"}}, 5)
	assert.Equal(t, []model.RankedCareer{{Career: model.UndecidedCareer, Score: 0}}, ranked)

	ranked = s.FallbackRanking(nil, 5)
	assert.Equal(t, model.UndecidedCareer, ranked[0].Career)
}

func TestParseRanking_ExtractsEmbeddedObject(t *testing.T) {
	ranked, err := ParseRanking(`Here you go: {"careers": [{"career": " Data Scientist ", "score": 88.456}]} Good luck!`, 5)
	require.NoError(t, err)
	assert.Equal(t, "Data Scientist", ranked[0].Career)
	assert.Equal(t, 88.46, ranked[0].Score)
}

func careerNames(ranked []model.RankedCareer) []string {
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.Career
	}
	return names
}
