package service

import (
	"career_path_backend/internal/catalog"
	"career_path_backend/internal/config"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCompleter 可编程的补全后端
type fakeCompleter struct {
	mu       sync.Mutex
	requests []CompletionRequest
	fn       func(req CompletionRequest) (string, error)
}

func (f *fakeCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return f.fn(req)
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func replying(text string) *fakeCompleter {
	return &fakeCompleter{fn: func(CompletionRequest) (string, error) { return text, nil }}
}

func failing(err error) *fakeCompleter {
	return &fakeCompleter{fn: func(CompletionRequest) (string, error) { return "", err }}
}

func testPolicy() *PolicyStore {
	p := config.DefaultAssessmentPolicy()
	p.BatchDelayMs = 0
	return NewPolicyStore(p)
}

func testRules(t *testing.T) *catalog.Rules {
	t.Helper()
	rules, err := catalog.LoadRules()
	require.NoError(t, err)
	return rules
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.LoadRoadmaps()
	require.NoError(t, err)
	return c
}

type quizItem struct {
	QuestionID    int      `json:"question_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// quizItems n 道合法题目，第 i 题的正确答案为 i%4
func quizItems(n int) []quizItem {
	items := make([]quizItem, n)
	for i := range items {
		items[i] = quizItem{
			QuestionID:    100 + i,
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
			Explanation:   fmt.Sprintf("because %d", i+1),
		}
	}
	return items
}

func quizJSON(t *testing.T, items []quizItem) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"questions": items})
	require.NoError(t, err)
	return string(data)
}

// answersWithCorrect 前 correct 题答对，其余答错
func answersWithCorrect(total, correct int) []SubmittedAnswer {
	answers := make([]SubmittedAnswer, total)
	for i := range answers {
		choice := i % 4
		if i >= correct {
			choice = (choice + 1) % 4
		}
		answers[i] = SubmittedAnswer{SelectedAnswer: choice}
	}
	return answers
}
