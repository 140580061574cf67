package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/model"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/logger"
	"career_path_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var rankingSchema = &jsonSchema{
	Name: "career_ranking",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"careers"},
		"properties": map[string]any{
			"careers": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":     "object",
					"required": []any{"career", "score"},
					"properties": map[string]any{
						"career": map[string]any{"type": "string", "minLength": 1},
						"score":  map[string]any{"type": "number"},
						"reason": map[string]any{"type": "string"},
					},
				},
			},
		},
	},
}

const recommendationSystemPrompt = "You are an AI career advisor. You ONLY respond with valid JSON objects, never with explanatory text."

// Recommendation 会话结束时的排序结果，Careers 至少包含一项
type Recommendation struct {
	Careers []model.RankedCareer
	Source  model.RecommendationSource
}

func (r Recommendation) Top() model.RankedCareer {
	return r.Careers[0]
}

// RecommendationService 根据完整作答记录给出职业排序。AI 调用失败或输出不合法时
// 退回到规则表的模式匹配，Finalize 永远不会返回错误
type RecommendationService struct {
	AI          Completer
	Rules       *catalog.Rules
	Policy      PolicyReader
	MaxTokens   int
	Temperature float64
}

func (s *RecommendationService) Finalize(ctx context.Context, answers []model.CareerAnswer) Recommendation {
	limit := s.Policy.Get().MaxRankedCareers

	if s.AI != nil && len(answers) > 0 {
		ranked, err := s.rankWithAI(ctx, answers, limit)
		if err == nil {
			monitoring.RecommendationSource.WithLabelValues(string(model.SourceAI)).Inc()
			return Recommendation{Careers: ranked, Source: model.SourceAI}
		}
		logger.Log.Warn("AI career ranking failed, using rule-based fallback",
			zap.Int("answers", len(answers)), zap.Error(err))
	}

	monitoring.RecommendationSource.WithLabelValues(string(model.SourceFallback)).Inc()
	return Recommendation{Careers: s.FallbackRanking(answers, limit), Source: model.SourceFallback}
}

func (s *RecommendationService) rankWithAI(ctx context.Context, answers []model.CareerAnswer, limit int) ([]model.RankedCareer, error) {
	raw, err := s.AI.Complete(ctx, CompletionRequest{
		Purpose:     PurposeRecommendation,
		System:      recommendationSystemPrompt,
		Prompt:      s.buildPrompt(answers, limit),
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return ParseRanking(raw, limit)
}

func (s *RecommendationService) buildPrompt(answers []model.CareerAnswer, limit int) string {
	var b strings.Builder
	b.WriteString("Based on the following answers to a career-discovery questionnaire, rank the most likely career paths for this user.\n\n")
	b.WriteString("Answers:\n")
	for _, a := range answers {
		text := fmt.Sprintf("Question %d", a.QuestionID)
		if q, ok := s.Rules.Question(a.QuestionID); ok {
			text = q.Text
		}
		fmt.Fprintf(&b, "- %s: %s\n", text, a.SelectedOption)
	}

	names := make([]string, 0, len(s.Rules.Careers))
	for _, c := range s.Rules.Careers {
		names = append(names, c.Name)
	}
	fmt.Fprintf(&b, "\nPrefer these careers: %s.\n", strings.Join(names, ", "))
	fmt.Fprintf(&b, "Return up to %d careers, each with a compatibility score from 0 to 100 and a one-sentence reason.\n", limit)
	b.WriteString("Return ONLY a valid JSON object in this exact format:\n")
	b.WriteString(`{"careers": [{"career": "Software Engineer", "score": 85, "reason": "..."}]}`)
	return b.String()
}

// ParseRanking 解析 AI 返回的排序：分数截断到 [0,100]，按分数重新降序排列，最多保留 limit 项
func ParseRanking(raw string, limit int) ([]model.RankedCareer, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}
	if err := rankingSchema.validate(body); err != nil {
		return nil, err
	}

	var parsed struct {
		Careers []model.RankedCareer `json:"careers"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAIInvalidResponse, err)
	}

	ranked := make([]model.RankedCareer, 0, len(parsed.Careers))
	for _, c := range parsed.Careers {
		c.Career = strings.TrimSpace(c.Career)
		if c.Career == "" {
			return nil, fmt.Errorf("%w: empty career name", util.ErrAIInvalidResponse)
		}
		c.Score = util.Round2(clampScore(c.Score))
		ranked = append(ranked, c)
	}
	return rankAndTruncate(ranked, limit), nil
}

// FallbackRanking 按规则表中各职业的典型作答模式打分：每个匹配题目计该题增量（未定义时 10 分），
// 再乘以匹配比例。没有任何匹配时返回 Undecided
func (s *RecommendationService) FallbackRanking(answers []model.CareerAnswer, limit int) []model.RankedCareer {
	var ranked []model.RankedCareer
	if len(answers) > 0 {
		for _, c := range s.Rules.Careers {
			matches, raw := 0, 0
			for _, a := range answers {
				expected, ok := c.AnswerPattern[a.QuestionID]
				if !ok || expected != a.SelectedOption {
					continue
				}
				matches++
				if inc, ok := c.ConfidenceIncrements[a.QuestionID]; ok {
					raw += inc
				} else {
					raw += 10
				}
			}
			if matches == 0 {
				continue
			}
			score := float64(raw) * float64(matches) / float64(len(answers))
			ranked = append(ranked, model.RankedCareer{
				Career: c.Name,
				Score:  util.Round2(clampScore(score)),
				Reason: fmt.Sprintf("%d of %d answers match the typical %s profile", matches, len(answers), c.Name),
			})
		}
	}

	ranked = rankAndTruncate(ranked, limit)
	if len(ranked) == 0 || ranked[0].Score == 0 {
		return []model.RankedCareer{{Career: model.UndecidedCareer, Score: 0}}
	}
	return ranked
}

func rankAndTruncate(ranked []model.RankedCareer, limit int) []model.RankedCareer {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
