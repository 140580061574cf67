package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/model"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var quizQuestionsSchema = &jsonSchema{
	Name: "quiz_questions",
	Definition: map[string]any{
		"type": "array",
		"items": map[string]any{
			"type":     "object",
			"required": []any{"question", "options", "correct_answer"},
			"properties": map[string]any{
				"question": map[string]any{"type": "string", "minLength": 1},
				"options": map[string]any{
					"type":     "array",
					"minItems": 4,
					"maxItems": 4,
					"items":    map[string]any{"type": "string"},
				},
				"correct_answer": map[string]any{"type": "integer", "minimum": 0, "maximum": 3},
				"explanation":    map[string]any{"type": "string"},
			},
		},
	},
}

const generationSystemPrompt = "You are a technical assessment generator. You ONLY respond with valid JSON objects, never with explanatory text."

// 提示词中最多列出的子主题数
const maxPromptSubtopics = 15

// StepContent 生成测验所需的步骤静态内容
type StepContent struct {
	Career      string
	Step        int
	Title       string
	Description string
	Duration    string
	Topics      []string
	Subtopics   []string
}

func NewStepContent(career string, s *catalog.Step) StepContent {
	return StepContent{
		Career:      career,
		Step:        s.Number,
		Title:       s.Title,
		Description: s.Description,
		Duration:    s.Duration,
		Topics:      s.Topics(),
		Subtopics:   s.Subtopics(),
	}
}

// GeneratedAssessment 校验通过、等待落库的测验
type GeneratedAssessment struct {
	Title            string
	Description      string
	Questions        []model.QuizQuestion
	PassingScore     int
	TimeLimitMinutes int
	GeneratedBy      string
}

// QuizGenerator 测验生成能力，缓存层只依赖这个接口
type QuizGenerator interface {
	Generate(ctx context.Context, content StepContent) (*GeneratedAssessment, error)
}

type AssessmentGenerationService struct {
	AI          Completer
	Policy      PolicyReader
	ModelName   string
	MaxTokens   int
	Temperature float64
}

// Generate 调用 AI 生成一组选择题并校验结构，失败时返回 *util.GenerationError，不在本次请求内重试
func (s *AssessmentGenerationService) Generate(ctx context.Context, content StepContent) (*GeneratedAssessment, error) {
	policy := s.Policy.Get()

	raw, err := s.AI.Complete(ctx, CompletionRequest{
		Purpose:     PurposeGeneration,
		System:      generationSystemPrompt,
		Prompt:      buildGenerationPrompt(content, policy.QuestionsPerQuiz),
		MaxTokens:   s.MaxTokens,
		Temperature: s.Temperature,
	})
	if err != nil {
		return nil, &util.GenerationError{Step: content.Step, Retryable: true, Err: err}
	}

	questions, err := ParseGeneratedQuestions(raw, policy.MinGeneratedQuestions, policy.QuestionsPerQuiz)
	if err != nil {
		logger.Log.Warn("Generated assessment rejected",
			zap.String("career", content.Career),
			zap.Int("step", content.Step),
			zap.String("preview", preview(raw, 200)),
			zap.Error(err))
		return nil, &util.GenerationError{Step: content.Step, Retryable: true, Err: err}
	}

	logger.Log.Info("Assessment generated",
		zap.String("career", content.Career),
		zap.Int("step", content.Step),
		zap.Int("questions", len(questions)))

	return &GeneratedAssessment{
		Title:            content.Title + " Assessment",
		Description:      "Test your understanding of: " + content.Description,
		Questions:        questions,
		PassingScore:     policy.PassingScore,
		TimeLimitMinutes: policy.TimeLimitMinutes,
		GeneratedBy:      s.ModelName,
	}, nil
}

func buildGenerationPrompt(c StepContent, count int) string {
	var b strings.Builder
	b.WriteString("You are an expert technical instructor creating an assessment for a professional career development roadmap.\n\n")
	fmt.Fprintf(&b, "Career Path: %s\n", c.Career)
	fmt.Fprintf(&b, "Step %d: %s\n", c.Step, c.Title)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	if c.Duration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", c.Duration)
	}

	if len(c.Topics) > 0 {
		b.WriteString("\nKey Topics Covered:\n")
		for i, t := range c.Topics {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t)
		}
	}
	if len(c.Subtopics) > 0 {
		b.WriteString("\nDetailed Subtopics:\n")
		subtopics := c.Subtopics
		if len(subtopics) > maxPromptSubtopics {
			subtopics = subtopics[:maxPromptSubtopics]
		}
		for _, t := range subtopics {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}

	fmt.Fprintf(&b, "\nTASK: Generate %d multiple-choice questions to assess understanding of this step's content.\n\n", count)
	b.WriteString("REQUIREMENTS:\n")
	b.WriteString("1. Questions must be practical and test real understanding, not memorization\n")
	b.WriteString("2. Cover diverse topics from the step\n")
	b.WriteString("3. Mix beginner and intermediate difficulty\n")
	b.WriteString("4. Each question has exactly 4 options\n")
	b.WriteString("5. correct_answer is the 0-3 index of the correct option\n")
	b.WriteString("6. Provide a brief explanation for the correct answer\n\n")
	b.WriteString("OUTPUT FORMAT (valid JSON only):\n")
	b.WriteString(`{"questions": [{"question_id": 1, "question": "...", "options": ["...", "...", "...", "..."], "correct_answer": 1, "explanation": "..."}]}`)
	b.WriteString("\n\nReturn ONLY the JSON object. No markdown, no extra text.")
	return b.String()
}

// ParseGeneratedQuestions 校验生成结果：至少 min 道题，保留前 max 道，任一题目结构不合法则整体拒绝，
// 题号重新编为 1..n
func ParseGeneratedQuestions(raw string, min, max int) ([]model.QuizQuestion, error) {
	body, err := extractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Questions []json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAIInvalidResponse, err)
	}
	if len(envelope.Questions) < min {
		return nil, fmt.Errorf("%w: expected at least %d questions, got %d", util.ErrAIInvalidResponse, min, len(envelope.Questions))
	}
	if max > 0 && len(envelope.Questions) > max {
		envelope.Questions = envelope.Questions[:max]
	}

	kept, err := json.Marshal(envelope.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAIInvalidResponse, err)
	}
	if err := quizQuestionsSchema.validate(kept); err != nil {
		return nil, err
	}

	// 生成器给出的 question_id 不可信，不参与解码
	var generated []struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer int      `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
	}
	if err := json.Unmarshal(kept, &generated); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrAIInvalidResponse, err)
	}

	questions := make([]model.QuizQuestion, 0, len(generated))
	for i, g := range generated {
		if strings.TrimSpace(g.Question) == "" {
			return nil, fmt.Errorf("%w: question %d is blank", util.ErrAIInvalidResponse, i+1)
		}
		questions = append(questions, model.QuizQuestion{
			QuestionID:    i + 1,
			Question:      strings.TrimSpace(g.Question),
			Options:       g.Options,
			CorrectAnswer: g.CorrectAnswer,
			Explanation:   g.Explanation,
		})
	}
	return questions, nil
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
