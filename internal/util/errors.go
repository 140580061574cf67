package util

import (
	"errors"
	"fmt"
)

// 校验类错误，400
var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrOptionRequired      = errors.New("selected option is required")
	ErrAnswerOutOfOrder    = errors.New("answer does not match the next expected question")
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	ErrInvalidAnswer       = errors.New("invalid answer")
	ErrInvalidStep         = errors.New("step number out of range")
)

// 状态类错误，403 / 404 / 409
var (
	ErrSessionNotFound    = errors.New("assessment session not found")
	ErrSessionInvalidated = errors.New("assessment session is no longer active")
	ErrResultNotReady     = errors.New("assessment result not available")
	ErrRoadmapNotFound    = errors.New("roadmap not found")
	ErrStepLocked         = errors.New("roadmap step is locked")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrAssessmentInactive = errors.New("assessment is inactive")
	ErrPassRequired       = errors.New("step assessment must be passed before completing the step")
	ErrConcurrentUpdate   = errors.New("resource was modified concurrently, retry")
)

// 上游错误，502
var (
	ErrGenerationFailed  = errors.New("assessment generation failed")
	ErrAIUnavailable     = errors.New("ai provider unavailable")
	ErrAIRateLimited     = errors.New("ai provider rate limited")
	ErrAIInvalidResponse = errors.New("ai provider returned an invalid response")
)

// StepLockedError 前置步骤未完成
type StepLockedError struct {
	Step         int
	RequiredStep int
}

func (e *StepLockedError) Error() string {
	return fmt.Sprintf("step %d is locked: complete step %d first", e.Step, e.RequiredStep)
}

func (e *StepLockedError) Is(target error) bool {
	return target == ErrStepLocked
}

// GenerationError 测验生成失败，Retryable 表示调用方可稍后重试
type GenerationError struct {
	Step      int
	Retryable bool
	Err       error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate assessment for step %d: %v", e.Step, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}
