package llm

import (
	"context"
	"time"
)

// =============================================================================
// 核心类型定义
// =============================================================================

// LLMProvider LLM提供商类型
type LLMProvider string

const (
	ProviderGroq   LLMProvider = "groq"
	ProviderGemini LLMProvider = "gemini"
)

// LLMRequest 统一的LLM请求结构
type LLMRequest struct {
	Prompt       string  `json:"prompt"`
	SystemPrompt string  `json:"system_prompt,omitempty"`
	MaxTokens    int     `json:"max_tokens"`
	Temperature  float64 `json:"temperature"`
	Model        string  `json:"model,omitempty"` // 为空时使用客户端默认模型
}

// LLMResponse 统一的LLM响应结构
type LLMResponse struct {
	Content    string        `json:"content"`
	TokensUsed int           `json:"tokens_used"`
	Model      string        `json:"model"`
	Provider   LLMProvider   `json:"provider"`
	Duration   time.Duration `json:"duration"`
}

// LLMConfig LLM配置
type LLMConfig struct {
	Provider  LLMProvider   `json:"provider"`
	APIKey    string        `json:"api_key"`
	BaseURL   string        `json:"base_url"`
	Model     string        `json:"model"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per minute
}

// LLMError LLM错误类型
type LLMError struct {
	Provider  LLMProvider `json:"provider"`
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Retryable bool        `json:"retryable"`
}

func (e *LLMError) Error() string {
	return e.Message
}

// LLMClient 核心LLM客户端接口 - 策略模式的Strategy接口
type LLMClient interface {
	// Complete 单次完成
	Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error)

	// HealthCheck 健康检查
	HealthCheck(ctx context.Context) error

	// GetProvider 获取提供商信息
	GetProvider() LLMProvider

	// GetModel 获取默认模型名称
	GetModel() string

	// Close 关闭客户端
	Close() error
}
