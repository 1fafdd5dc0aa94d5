package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/docmind/service/internal/models"
)

// MemoryStore 内存向量存储
// 用于本地开发和测试；嵌入能力由注入的EmbeddingProvider提供
type MemoryStore struct {
	embedder models.EmbeddingProvider

	mutex   sync.RWMutex
	entries []memoryEntry
}

type memoryEntry struct {
	chunk      models.Chunk
	vector     []float32
	userID     string
	uploadedAt time.Time
}

// NewMemoryStore 创建内存向量存储
func NewMemoryStore(embedder models.EmbeddingProvider) *MemoryStore {
	return &MemoryStore{embedder: embedder}
}

// GenerateEmbedding 生成文本向量
func (m *MemoryStore) GenerateEmbedding(text string) ([]float32, error) {
	return m.embedder.GenerateEmbedding(text)
}

// GetEmbeddingDimension 获取向量维度
func (m *MemoryStore) GetEmbeddingDimension() int {
	return m.embedder.GetEmbeddingDimension()
}

// GetProvider 获取提供商类型
func (m *MemoryStore) GetProvider() models.VectorStoreType {
	return models.VectorStoreTypeMemory
}

// StoreChunks 存储切片及向量
func (m *MemoryStore) StoreChunks(ctx context.Context, chunks []models.Chunk, userID string) error {
	now := time.Now()
	entries := make([]memoryEntry, 0, len(chunks))

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		vector, err := m.embedder.GenerateEmbedding(chunk.Text)
		if err != nil {
			return fmt.Errorf("生成切片向量失败: %w", err)
		}
		entries = append(entries, memoryEntry{
			chunk:      chunk,
			vector:     vector,
			userID:     userID,
			uploadedAt: now,
		})
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = append(m.entries, entries...)
	return nil
}

// SearchByText 文本相似度搜索
// 评分为余弦相似度归一化到[0,1]；严格按userID过滤
func (m *MemoryStore) SearchByText(ctx context.Context, query string, options *models.SearchOptions) ([]models.SearchResult, error) {
	if options == nil {
		options = &models.SearchOptions{TopK: 10}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	queryVector, err := m.embedder.GenerateEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("生成查询向量失败: %w", err)
	}

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	var results []models.SearchResult
	for _, entry := range m.entries {
		if options.UserID != "" && entry.userID != options.UserID {
			continue
		}
		score := normalizedCosine(queryVector, entry.vector)
		results = append(results, models.SearchResult{Chunk: entry.chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})

	if options.TopK > 0 && len(results) > options.TopK {
		results = results[:options.TopK]
	}
	return results, nil
}

// DeleteDocument 删除指定文档的全部切片
func (m *MemoryStore) DeleteDocument(ctx context.Context, documentID, userID string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	kept := m.entries[:0]
	for _, entry := range m.entries {
		if entry.chunk.DocumentID == documentID && entry.userID == userID {
			continue
		}
		kept = append(kept, entry)
	}
	m.entries = kept
	return nil
}

// ListDocuments 列出用户的全部文档
func (m *MemoryStore) ListDocuments(ctx context.Context, userID string) ([]models.DocumentInfo, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	byDoc := make(map[string]*models.DocumentInfo)
	var order []string

	for _, entry := range m.entries {
		if entry.userID != userID {
			continue
		}
		info, exists := byDoc[entry.chunk.DocumentID]
		if !exists {
			info = &models.DocumentInfo{
				DocumentID: entry.chunk.DocumentID,
				Filename:   entry.chunk.Filename,
				UserID:     userID,
				UploadedAt: entry.uploadedAt,
			}
			byDoc[entry.chunk.DocumentID] = info
			order = append(order, entry.chunk.DocumentID)
		}
		info.ChunkCount++
	}

	docs := make([]models.DocumentInfo, 0, len(order))
	for _, id := range order {
		docs = append(docs, *byDoc[id])
	}
	return docs, nil
}

// normalizedCosine 余弦相似度归一化到[0,1]: (cos+1)/2
func normalizedCosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	score := (cos + 1) / 2
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
