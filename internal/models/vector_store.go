package models

import (
	"context"
	"time"
)

// VectorStoreType 向量存储提供商类型
type VectorStoreType string

const (
	VectorStoreTypeChroma VectorStoreType = "chroma"
	VectorStoreTypeMemory VectorStoreType = "memory"
)

// VectorStore 向量存储抽象接口
// 提供统一的向量数据库操作接口，支持多厂商实现
// 查询路径只读；写入仅发生在文档入库路径
type VectorStore interface {
	// EmbeddingProvider 文本转向量能力
	EmbeddingProvider
	// VectorSearcher 向量搜索能力
	VectorSearcher
	// ChunkStorage 切片存储能力
	ChunkStorage

	// GetProvider 获取向量存储提供商类型
	GetProvider() VectorStoreType
}

// EmbeddingProvider 文本转向量接口
// 同一模型版本下相同输入必须产生相同向量
type EmbeddingProvider interface {
	// GenerateEmbedding 将文本转换为向量表示
	GenerateEmbedding(text string) ([]float32, error)

	// GetEmbeddingDimension 获取向量维度
	GetEmbeddingDimension() int
}

// VectorSearcher 向量搜索接口
// 租户隔离是硬性约束：任何搜索都不得返回其他用户的切片
type VectorSearcher interface {
	// SearchByText 使用文本进行相似度搜索（内部转换为向量）
	// 评分归一化到[0,1]，结果按评分降序
	SearchByText(ctx context.Context, query string, options *SearchOptions) ([]SearchResult, error)
}

// ChunkStorage 切片存储接口，文档入库与管理
type ChunkStorage interface {
	// StoreChunks 存储切片及其向量，带用户租户标记
	StoreChunks(ctx context.Context, chunks []Chunk, userID string) error

	// DeleteDocument 删除指定文档的全部切片
	DeleteDocument(ctx context.Context, documentID, userID string) error

	// ListDocuments 列出用户的全部文档
	ListDocuments(ctx context.Context, userID string) ([]DocumentInfo, error)
}

// SearchOptions 搜索选项配置
type SearchOptions struct {
	// TopK 结果数量限制
	TopK int `json:"topK,omitempty"`

	// UserID 用户租户过滤，必填
	UserID string `json:"userId,omitempty"`

	// Timeout 单次搜索超时
	Timeout time.Duration `json:"-"`
}

// SearchResult 向量搜索结果
type SearchResult struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// VectorStoreConfig 向量存储配置
type VectorStoreConfig struct {
	StoreType  VectorStoreType `json:"storeType"`
	Endpoint   string          `json:"endpoint"`
	APIKey     string          `json:"apiKey"`
	Collection string          `json:"collection"`
	Dimension  int             `json:"dimension"`
	Metric     string          `json:"metric"`
}
