package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// Groq客户端实现 (OpenAI兼容协议)
// =============================================================================

// GroqClient Groq客户端 - 策略模式的具体策略
type GroqClient struct {
	*BaseAdapter
	apiKey  string
	baseURL string
	model   string
}

// NewGroqClient 创建Groq客户端
func NewGroqClient(config *LLMConfig) (LLMClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Groq API key不能为空")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.groq.com/openai/v1"
	}

	model := config.Model
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}

	return &GroqClient{
		BaseAdapter: NewBaseAdapter(ProviderGroq, config),
		apiKey:      config.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
	}, nil
}

// groqRequest OpenAI兼容的请求格式
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// groqResponse OpenAI兼容的响应格式
type groqResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	Model string `json:"model"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// Complete 单次完成
func (gc *GroqClient) Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	if err := gc.CheckRateLimit(ctx); err != nil {
		return nil, err
	}
	if err := gc.CheckCircuitBreaker(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	model := req.Model
	if model == "" {
		model = gc.model
	}

	groqReq := gc.convertRequest(req, model)
	groqResp, err := gc.sendRequest(ctx, groqReq)
	if err != nil {
		gc.RecordFailure()
		return nil, err
	}

	gc.RecordSuccess()
	return gc.convertResponse(groqResp, model, time.Since(startTime)), nil
}

// convertRequest 转换为OpenAI兼容格式
func (gc *GroqClient) convertRequest(req *LLMRequest, model string) *groqRequest {
	var messages []groqMessage

	if req.SystemPrompt != "" {
		messages = append(messages, groqMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, groqMessage{Role: "user", Content: req.Prompt})

	return &groqRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

// sendRequest 发送HTTP请求
func (gc *GroqClient) sendRequest(ctx context.Context, groqReq *groqRequest) (*groqResponse, error) {
	reqBody, err := json.Marshal(groqReq)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST",
		gc.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+gc.apiKey)

	resp, err := gc.httpClient.Do(httpReq)
	if err != nil {
		return nil, &LLMError{
			Provider:  ProviderGroq,
			Code:      "REQUEST_FAILED",
			Message:   fmt.Sprintf("请求失败: %v", err),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	var groqResp groqResponse
	if err := json.Unmarshal(body, &groqResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if groqResp.Error != nil {
			message = groqResp.Error.Message
		}
		return nil, &LLMError{
			Provider:  ProviderGroq,
			Code:      fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:   message,
			Retryable: resp.StatusCode == 429 || resp.StatusCode >= 500,
		}
	}

	if len(groqResp.Choices) == 0 {
		return nil, &LLMError{
			Provider:  ProviderGroq,
			Code:      "EMPTY_RESPONSE",
			Message:   "响应中没有choices",
			Retryable: false,
		}
	}

	return &groqResp, nil
}

// convertResponse 转换为统一响应格式
func (gc *GroqClient) convertResponse(resp *groqResponse, model string, duration time.Duration) *LLMResponse {
	respModel := resp.Model
	if respModel == "" {
		respModel = model
	}

	return &LLMResponse{
		Content:    strings.TrimSpace(resp.Choices[0].Message.Content),
		TokensUsed: resp.Usage.TotalTokens,
		Model:      respModel,
		Provider:   ProviderGroq,
		Duration:   duration,
	}
}

// HealthCheck 健康检查
func (gc *GroqClient) HealthCheck(ctx context.Context) error {
	req := &LLMRequest{
		Prompt:      "ping",
		MaxTokens:   5,
		Temperature: 0,
	}

	_, err := gc.Complete(ctx, req)
	return err
}

// GetModel 获取默认模型
func (gc *GroqClient) GetModel() string {
	return gc.model
}
