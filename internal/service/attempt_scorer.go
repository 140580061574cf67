package service

import (
	"career_path_backend/internal/model"
	"career_path_backend/internal/util"
	"fmt"
)

// SubmittedAnswer 用户对一道题的选择。QuestionID 为 0 时按提交顺序对应题目
type SubmittedAnswer struct {
	QuestionID     int `json:"questionId,omitempty"`
	SelectedAnswer int `json:"selectedAnswer"`
}

type QuestionResult struct {
	QuestionID     int    `json:"questionId"`
	Question       string `json:"question"`
	SelectedAnswer int    `json:"selectedAnswer"`
	CorrectAnswer  int    `json:"correctAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	Explanation    string `json:"explanation,omitempty"`
}

type ScoreResult struct {
	Score          float64          `json:"score"`
	Passed         bool             `json:"passed"`
	CorrectCount   int              `json:"correctCount"`
	TotalQuestions int              `json:"totalQuestions"`
	Results        []QuestionResult `json:"results"`
}

// ScoreAttempt 按题目评分，得分保留两位小数，不低于 passingScore 即通过
func ScoreAttempt(questions []model.QuizQuestion, answers []SubmittedAnswer, passingScore int) (*ScoreResult, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: assessment has no questions", util.ErrInvalidAnswer)
	}
	if len(answers) != len(questions) {
		return nil, fmt.Errorf("%w: got %d answers for %d questions", util.ErrAnswerCountMismatch, len(answers), len(questions))
	}

	selected, err := alignAnswers(questions, answers)
	if err != nil {
		return nil, err
	}

	res := &ScoreResult{TotalQuestions: len(questions), Results: make([]QuestionResult, 0, len(questions))}
	for i, q := range questions {
		choice := selected[i]
		if choice < 0 || choice >= len(q.Options) {
			return nil, fmt.Errorf("%w: answer %d out of range for question %d", util.ErrInvalidAnswer, choice, q.QuestionID)
		}
		correct := choice == q.CorrectAnswer
		if correct {
			res.CorrectCount++
		}
		res.Results = append(res.Results, QuestionResult{
			QuestionID:     q.QuestionID,
			Question:       q.Question,
			SelectedAnswer: choice,
			CorrectAnswer:  q.CorrectAnswer,
			IsCorrect:      correct,
			Explanation:    q.Explanation,
		})
	}

	res.Score = util.Round2(100 * float64(res.CorrectCount) / float64(res.TotalQuestions))
	res.Passed = res.Score >= float64(passingScore)
	return res, nil
}

// alignAnswers 返回与 questions 顺序一致的选择。要么全部带题号，要么全部按位置
func alignAnswers(questions []model.QuizQuestion, answers []SubmittedAnswer) ([]int, error) {
	byID := 0
	for _, a := range answers {
		if a.QuestionID != 0 {
			byID++
		}
	}

	selected := make([]int, len(questions))
	if byID == 0 {
		for i, a := range answers {
			selected[i] = a.SelectedAnswer
		}
		return selected, nil
	}
	if byID != len(answers) {
		return nil, fmt.Errorf("%w: mix of positional and question-id answers", util.ErrInvalidAnswer)
	}

	index := make(map[int]int, len(questions))
	for i, q := range questions {
		index[q.QuestionID] = i
	}
	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		i, ok := index[a.QuestionID]
		if !ok {
			return nil, fmt.Errorf("%w: unknown question %d", util.ErrInvalidAnswer, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("%w: duplicate answer for question %d", util.ErrInvalidAnswer, a.QuestionID)
		}
		seen[a.QuestionID] = true
		selected[i] = a.SelectedAnswer
	}
	return selected, nil
}
