package app

import (
	"bytes"
	"career_path_backend/internal/config"
	"career_path_backend/internal/model"
	"career_path_backend/internal/repository"
	"career_path_backend/internal/service"
	"career_path_backend/internal/testutil"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/events"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret-with-32-characters"

// scriptedAI 按用途返回固定的合法输出
type scriptedAI struct{}

func (scriptedAI) Complete(ctx context.Context, req service.CompletionRequest) (string, error) {
	if req.Purpose == service.PurposeRecommendation {
		return `{"careers":[{"career":"Data Scientist","score":91.5,"reason":"analytical"},{"career":"Software Engineer","score":40}]}`, nil
	}

	items := make([]map[string]any, 10)
	for i := range items {
		items[i] = map[string]any{
			"question":       fmt.Sprintf("Question %d?", i+1),
			"options":        []string{"a", "b", "c", "d"},
			"correct_answer": i % 4,
			"explanation":    "see the step material",
		}
	}
	data, _ := json.Marshal(map[string]any{"questions": items})
	return string(data), nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testApp struct {
	*App
	recorder *events.Recorder
	roadmap  *model.Roadmap
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	policy := config.DefaultAssessmentPolicy()
	policy.BatchDelayMs = 0
	cfg := &config.Config{
		Server:     config.ServerConfig{Port: "0", Mode: "test"},
		JWT:        config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Assessment: policy,
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit:  config.RateLimitConfig{MaxRequests: 10000, WindowMinutes: 1},
	}

	db := testutil.DB(t)
	rec := &events.Recorder{}
	a, err := New(cfg, Deps{DB: db, AI: scriptedAI{}, ModelName: "test/scripted", Events: rec})
	require.NoError(t, err)

	r, err := repository.NewRoadmapRepository(db).FindRoadmapByCareer(context.Background(), "Data Scientist")
	require.NoError(t, err)

	return &testApp{App: a, recorder: rec, roadmap: r}
}

func token(t *testing.T, userID uint, role model.UserRole) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (a *testApp) do(t *testing.T, method, path, tok string, body any) (int, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}

func (a *testApp) stepPath(step int, suffix string) string {
	return fmt.Sprintf("/api/roadmaps/%d/steps/%d%s", a.roadmap.ID, step, suffix)
}

func TestRoutes_RequireToken(t *testing.T) {
	a := newTestApp(t)

	code, _ := a.do(t, http.MethodGet, "/api/career-assessments/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = a.do(t, http.MethodGet, "/api/career-assessments/current", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestHealth(t *testing.T) {
	a := newTestApp(t)

	code, env := a.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"up"`)
}

func TestCareerAssessmentFlow(t *testing.T) {
	a := newTestApp(t)
	tok := token(t, 7, model.Student)

	code, env := a.do(t, http.MethodPost, "/api/career-assessments", tok, nil)
	require.Equal(t, http.StatusCreated, code)
	view := decode[service.SessionView](t, env)
	require.NotEmpty(t, view.SessionID)
	require.NotNil(t, view.NextQuestion)
	assert.Equal(t, 1, view.NextQuestion.ID)

	code, env = a.do(t, http.MethodGet, "/api/career-assessments/current", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, view.SessionID, decode[service.SessionView](t, env).SessionID)

	answerPath := "/api/career-assessments/" + view.SessionID + "/answers"

	code, _ = a.do(t, http.MethodPost, answerPath, tok, map[string]any{"questionId": 2, "selectedOption": "x"})
	assert.Equal(t, http.StatusBadRequest, code, "questions are answered in order")

	code, _ = a.do(t, http.MethodPost, answerPath, tok, map[string]any{"questionId": 1})
	assert.Equal(t, http.StatusBadRequest, code, "missing option fails binding")

	code, _ = a.do(t, http.MethodPost, answerPath, token(t, 8, model.Student), map[string]any{
		"questionId": 1, "selectedOption": view.NextQuestion.Options[1],
	})
	assert.Equal(t, http.StatusNotFound, code, "other users cannot see the session")

	next := view.NextQuestion
	var outcome service.AnswerOutcome
	for i := 0; i < 12 && !outcome.Completed; i++ {
		require.NotNil(t, next)
		code, env = a.do(t, http.MethodPost, answerPath, tok, map[string]any{
			"questionId":     next.ID,
			"selectedOption": next.Options[1],
		})
		require.Equal(t, http.StatusOK, code, env.Message)
		outcome = decode[service.AnswerOutcome](t, env)
		next = outcome.NextQuestion
	}

	require.True(t, outcome.Completed)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "Data Scientist", outcome.Result.TopCareer)
	assert.Equal(t, model.SourceAI, outcome.Result.Source)
	assert.Contains(t, a.recorder.Types(), events.CareerSessionCompleted)

	code, env = a.do(t, http.MethodGet, "/api/career-assessments/"+view.SessionID+"/result", tok, nil)
	require.Equal(t, http.StatusOK, code)
	result := decode[service.CareerResultView](t, env)
	assert.Equal(t, 91.5, result.TopScore)

	code, _ = a.do(t, http.MethodPost, answerPath, tok, map[string]any{
		"questionId": outcome.AnswerCount + 1, "selectedOption": "late",
	})
	assert.Equal(t, http.StatusConflict, code, "finished sessions reject answers")

	code, _ = a.do(t, http.MethodGet, "/api/career-assessments/current", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRoadmapGateFlow(t *testing.T) {
	a := newTestApp(t)
	tok := token(t, 3, model.Student)

	code, env := a.do(t, http.MethodGet, a.stepPath(2, "/assessment"), tok, nil)
	require.Equal(t, http.StatusForbidden, code)
	locked := decode[map[string]any](t, env)
	assert.Equal(t, true, locked["locked"])
	assert.Equal(t, float64(1), locked["requiredStep"])

	code, env = a.do(t, http.MethodGet, a.stepPath(1, "/assessment"), tok, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	quiz := decode[service.StepAssessmentView](t, env)
	require.Len(t, quiz.Questions, 10)
	assert.True(t, quiz.JustGenerated)
	assert.NotContains(t, string(env.Data), "correct")

	code, _ = a.do(t, http.MethodPost, a.stepPath(1, "/assessment/submit"), tok, map[string]any{"answers": []any{}})
	assert.Equal(t, http.StatusBadRequest, code)

	answers := make([]map[string]int, len(quiz.Questions))
	for i := range answers {
		answers[i] = map[string]int{"selectedAnswer": i % 4}
	}
	code, env = a.do(t, http.MethodPost, a.stepPath(1, "/assessment/submit"), tok, map[string]any{"answers": answers})
	require.Equal(t, http.StatusOK, code, env.Message)
	res := decode[service.SubmissionResult](t, env)
	assert.True(t, res.Passed)
	assert.True(t, res.StepCompleted)
	assert.Equal(t, 100.0, res.Score)
	assert.Contains(t, a.recorder.Types(), events.RoadmapStepCompleted)

	code, env = a.do(t, http.MethodGet, a.stepPath(1, "/assessment/history"), tok, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[service.AssessmentHistory](t, env)
	assert.Equal(t, 1, history.TotalAttempts)
	assert.True(t, history.HasPassed)

	code, _ = a.do(t, http.MethodGet, a.stepPath(2, "/assessment"), tok, nil)
	assert.Equal(t, http.StatusOK, code, "passing step 1 unlocks step 2")

	code, _ = a.do(t, http.MethodPatch, a.stepPath(3, ""), tok, map[string]any{"done": true})
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = a.do(t, http.MethodPatch, a.stepPath(2, ""), tok, map[string]any{"done": true})
	assert.Equal(t, http.StatusForbidden, code, "step 2 has a quiz that must be passed first")

	code, _ = a.do(t, http.MethodPatch, a.stepPath(1, ""), tok, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = a.do(t, http.MethodGet, fmt.Sprintf("/api/roadmaps/%d/progress", a.roadmap.ID), tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"stepNumber":1`)

	code, _ = a.do(t, http.MethodGet, "/api/roadmaps/abc/progress", tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = a.do(t, http.MethodGet, a.stepPath(0, "/assessment"), tok, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestAdminRoutes(t *testing.T) {
	a := newTestApp(t)
	admin := token(t, 1, model.Admin)
	student := token(t, 2, model.Student)

	code, _ := a.do(t, http.MethodPost, "/api/admin/roadmap-assessments/generate", student, map[string]any{"career": "Data Scientist"})
	assert.Equal(t, http.StatusForbidden, code)

	code, env := a.do(t, http.MethodPost, "/api/admin/roadmap-assessments/generate", admin, map[string]any{"career": "Data Scientist"})
	require.Equal(t, http.StatusOK, code, env.Message)
	summary := decode[service.BatchSummary](t, env)
	assert.Len(t, summary.Generated, a.roadmap.TotalSteps)
	assert.Empty(t, summary.Failed)

	code, env = a.do(t, http.MethodPost, "/api/admin/roadmap-assessments/generate", admin, map[string]any{"career": "Data Scientist"})
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, decode[service.BatchSummary](t, env).Skipped, a.roadmap.TotalSteps)

	code, _ = a.do(t, http.MethodPost, "/api/admin/roadmap-assessments/generate", admin, map[string]any{"career": "Astronaut"})
	assert.Equal(t, http.StatusNotFound, code)

	code, env = a.do(t, http.MethodGet, a.stepPath(1, "/assessment"), student, nil)
	require.Equal(t, http.StatusOK, code)
	quiz := decode[service.StepAssessmentView](t, env)
	assert.False(t, quiz.JustGenerated)

	code, _ = a.do(t, http.MethodPatch, fmt.Sprintf("/api/admin/roadmap-assessments/%d/deactivate", quiz.AssessmentID), admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(t, http.MethodGet, a.stepPath(1, "/assessment"), student, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = a.do(t, http.MethodPatch, "/api/admin/roadmap-assessments/99999/deactivate", admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestConfigCallbackReloadsPolicy(t *testing.T) {
	a := newTestApp(t)
	require.Equal(t, 70, a.Policy.Get().PassingScore)

	newCfg := *a.Config
	newCfg.Assessment.PassingScore = 80
	newCfg.Assessment.ConfidenceThreshold = 75
	for _, cb := range a.configCallbacks {
		cb(&newCfg)
	}

	assert.Equal(t, 80, a.Policy.Get().PassingScore)
	assert.Equal(t, 75, a.Services.CareerSession.Policy.Get().ConfidenceThreshold)
}
