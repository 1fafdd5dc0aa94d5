package embedding

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Client 嵌入服务客户端 (OpenAI兼容的/v1/embeddings协议)
// 同一模型版本下相同输入产生相同向量，由服务端保证
type Client struct {
	APIURL     string
	APIKey     string
	Model      string
	Dimension  int
	httpClient *http.Client
}

// NewClient 创建嵌入服务客户端
func NewClient(apiURL, apiKey, model string, dimension int) *Client {
	return &Client{
		APIURL:    apiURL,
		APIKey:    apiKey,
		Model:     model,
		Dimension: dimension,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GenerateEmbedding 生成文本的向量表示
func (c *Client) GenerateEmbedding(text string) ([]float32, error) {
	reqBody, err := json.Marshal(map[string]interface{}{
		"model":           c.Model,
		"input":           []string{text},
		"encoding_format": "float",
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequest("POST", c.APIURL, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("[嵌入服务] 错误: API请求失败: %v", err)
		return nil, fmt.Errorf("嵌入API请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[嵌入服务] 错误: API返回状态码 %d: %s", resp.StatusCode, string(respBody))
		return nil, fmt.Errorf("嵌入API返回错误状态码: %d", resp.StatusCode)
	}

	var result struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("未返回有效的嵌入向量")
	}

	return result.Data[0].Embedding, nil
}

// GetEmbeddingDimension 获取向量维度
func (c *Client) GetEmbeddingDimension() int {
	return c.Dimension
}
