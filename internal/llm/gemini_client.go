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
// Gemini客户端实现
// =============================================================================

// GeminiClient Google Gemini客户端 - 策略模式的具体策略
type GeminiClient struct {
	*BaseAdapter
	apiKey  string
	baseURL string
	model   string
}

// NewGeminiClient 创建Gemini客户端
func NewGeminiClient(config *LLMConfig) (LLMClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key不能为空")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := config.Model
	if model == "" {
		model = "gemini-pro"
	}

	return &GeminiClient{
		BaseAdapter: NewBaseAdapter(ProviderGemini, config),
		apiKey:      config.APIKey,
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		model:       model,
	}, nil
}

// geminiRequest Gemini API请求格式
type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
}

// geminiResponse Gemini API响应格式
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete 单次完成
func (gc *GeminiClient) Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
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

	geminiReq := gc.convertRequest(req)
	geminiResp, err := gc.sendRequest(ctx, geminiReq, model)
	if err != nil {
		gc.RecordFailure()
		return nil, err
	}

	gc.RecordSuccess()
	return gc.convertResponse(geminiResp, model, time.Since(startTime)), nil
}

// convertRequest 转换为Gemini请求格式
func (gc *GeminiClient) convertRequest(req *LLMRequest) *geminiRequest {
	geminiReq := &geminiRequest{
		Contents: []geminiContent{
			{
				Role:  "user",
				Parts: []geminiPart{{Text: req.Prompt}},
			},
		},
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: req.MaxTokens,
			Temperature:     req.Temperature,
		},
	}

	if req.SystemPrompt != "" {
		geminiReq.SystemInstruction = &geminiContent{
			Parts: []geminiPart{{Text: req.SystemPrompt}},
		}
	}

	return geminiReq
}

// sendRequest 发送HTTP请求
func (gc *GeminiClient) sendRequest(ctx context.Context, geminiReq *geminiRequest, model string) (*geminiResponse, error) {
	reqBody, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", gc.baseURL, model, gc.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := gc.httpClient.Do(httpReq)
	if err != nil {
		return nil, &LLMError{
			Provider:  ProviderGemini,
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

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := fmt.Sprintf("HTTP %d", resp.StatusCode)
		if geminiResp.Error != nil {
			message = geminiResp.Error.Message
		}
		return nil, &LLMError{
			Provider:  ProviderGemini,
			Code:      fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:   message,
			Retryable: resp.StatusCode == 429 || resp.StatusCode >= 500,
		}
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, &LLMError{
			Provider:  ProviderGemini,
			Code:      "EMPTY_RESPONSE",
			Message:   "响应中没有candidates",
			Retryable: false,
		}
	}

	return &geminiResp, nil
}

// convertResponse 转换为统一响应格式
func (gc *GeminiClient) convertResponse(resp *geminiResponse, model string, duration time.Duration) *LLMResponse {
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}

	return &LLMResponse{
		Content:    strings.TrimSpace(sb.String()),
		TokensUsed: resp.UsageMetadata.TotalTokenCount,
		Model:      model,
		Provider:   ProviderGemini,
		Duration:   duration,
	}
}

// HealthCheck 健康检查
func (gc *GeminiClient) HealthCheck(ctx context.Context) error {
	req := &LLMRequest{
		Prompt:      "ping",
		MaxTokens:   5,
		Temperature: 0,
	}

	_, err := gc.Complete(ctx, req)
	return err
}

// GetModel 获取默认模型
func (gc *GeminiClient) GetModel() string {
	return gc.model
}
