package service

import (
	"career_path_backend/internal/config"
	"career_path_backend/internal/util"
	"career_path_backend/pkg/logger"
	"career_path_backend/pkg/monitoring"
	"career_path_backend/pkg/tracing"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// 补全用途，用于日志和指标
const (
	PurposeRecommendation = "recommendation"
	PurposeGeneration     = "generation"
)

// CompletionRequest 一次单轮补全
type CompletionRequest struct {
	Purpose     string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completer 文本补全能力，测评推荐和题目生成都只依赖这个接口
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AIService 包装具体的模型后端：统一超时、日志、指标和链路追踪
type AIService struct {
	backend  Completer
	provider string
	model    string
	timeout  time.Duration
}

// NewAIService 根据配置创建对应的模型后端
func NewAIService(ctx context.Context, cfg config.AIConfig) (*AIService, error) {
	var (
		backend Completer
		err     error
	)
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		backend, err = NewOpenAICompleter(cfg)
	case "anthropic":
		backend, err = NewAnthropicCompleter(cfg)
	case "gemini":
		backend, err = NewGeminiCompleter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return NewAIServiceWithBackend(cfg.Provider, cfg.Model, backend, cfg.Timeout()), nil
}

func NewAIServiceWithBackend(provider, model string, backend Completer, timeout time.Duration) *AIService {
	if provider == "" {
		provider = "openai"
	}
	return &AIService{backend: backend, provider: provider, model: model, timeout: timeout}
}

// Model 生成内容时记录的模型标识
func (s *AIService) Model() string {
	return s.provider + "/" + s.model
}

func (s *AIService) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := tracing.Tracer.Start(ctx, "ai.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("ai.provider", s.provider),
		attribute.String("ai.purpose", req.Purpose),
		attribute.Int("ai.max_tokens", req.MaxTokens),
	)

	start := time.Now()
	text, err := s.backend.Complete(ctx, req)
	elapsed := time.Since(start)
	monitoring.AIDuration.WithLabelValues(s.provider, req.Purpose).Observe(elapsed.Seconds())

	if err == nil && strings.TrimSpace(text) == "" {
		err = fmt.Errorf("%w: empty completion", util.ErrAIInvalidResponse)
	}
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, util.ErrAIUnavailable) {
			err = fmt.Errorf("%w: timed out after %s: %v", util.ErrAIUnavailable, s.timeout, err)
		}
		monitoring.AIRequests.WithLabelValues(s.provider, req.Purpose, outcomeLabel(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Warn("AI completion failed",
			zap.String("provider", s.provider),
			zap.String("purpose", req.Purpose),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", err
	}

	monitoring.AIRequests.WithLabelValues(s.provider, req.Purpose, "ok").Inc()
	logger.Log.Debug("AI completion finished",
		zap.String("provider", s.provider),
		zap.String("purpose", req.Purpose),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(text)))
	return text, nil
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, util.ErrAIRateLimited):
		return "rate_limited"
	case errors.Is(err, util.ErrAIInvalidResponse):
		return "invalid"
	default:
		return "unavailable"
	}
}

// UnavailableCompleter 未配置 AI 时使用，所有调用直接返回 ErrAIUnavailable
type UnavailableCompleter struct {
	Reason error
}

func (u UnavailableCompleter) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	return "", fmt.Errorf("%w: %v", util.ErrAIUnavailable, u.Reason)
}
