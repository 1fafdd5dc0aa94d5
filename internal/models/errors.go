package models

import (
	"errors"
	"fmt"
)

// FailureKind 管线失败类型
// EmptyContext不是失败：检索为空时管线继续执行，由Prompt层声明无文档内容
type FailureKind string

const (
	// FailureRetrievalUnavailable 向量检索重试后仍失败
	FailureRetrievalUnavailable FailureKind = "retrieval_unavailable"
	// FailureGenerationUnavailable 所有候选模型都生成失败
	FailureGenerationUnavailable FailureKind = "generation_unavailable"
	// FailureInvalidMode 决策模式不在固定集合内，属于调用方编程错误
	FailureInvalidMode FailureKind = "invalid_mode"
)

// PipelineError 管线失败，携带失败类型供调用方区分处理
type PipelineError struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewRetrievalUnavailable 创建检索不可用错误
func NewRetrievalUnavailable(cause error) *PipelineError {
	return &PipelineError{
		Kind:    FailureRetrievalUnavailable,
		Message: "向量检索失败且重试已用尽",
		Cause:   cause,
	}
}

// NewGenerationUnavailable 创建生成不可用错误
func NewGenerationUnavailable(cause error) *PipelineError {
	return &PipelineError{
		Kind:    FailureGenerationUnavailable,
		Message: "所有候选模型生成失败",
		Cause:   cause,
	}
}

// NewInvalidMode 创建非法决策模式错误
func NewInvalidMode(mode DecisionMode) *PipelineError {
	return &PipelineError{
		Kind:    FailureInvalidMode,
		Message: fmt.Sprintf("不支持的决策模式: %s", mode),
	}
}

// IsFailureKind 判断错误是否属于指定失败类型
func IsFailureKind(err error, kind FailureKind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}
