package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/docmind/service/internal/models"
)

// ChromaStore Chroma向量数据库存储
// 通过REST API操作集合；嵌入能力由注入的EmbeddingProvider提供
type ChromaStore struct {
	baseURL    string
	apiKey     string
	collection string
	metric     string
	embedder   models.EmbeddingProvider
	httpClient *http.Client

	initOnce     sync.Once
	initErr      error
	collectionID string
}

// NewChromaStore 创建Chroma存储客户端，集合在首次使用时懒初始化
func NewChromaStore(baseURL, apiKey, collection, metric string, embedder models.EmbeddingProvider) *ChromaStore {
	return &ChromaStore{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		collection: collection,
		metric:     metric,
		embedder:   embedder,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        50,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GenerateEmbedding 生成文本向量
func (c *ChromaStore) GenerateEmbedding(text string) ([]float32, error) {
	return c.embedder.GenerateEmbedding(text)
}

// GetEmbeddingDimension 获取向量维度
func (c *ChromaStore) GetEmbeddingDimension() int {
	return c.embedder.GetEmbeddingDimension()
}

// GetProvider 获取提供商类型
func (c *ChromaStore) GetProvider() models.VectorStoreType {
	return models.VectorStoreTypeChroma
}

// ensureCollection 获取或创建集合，只执行一次
func (c *ChromaStore) ensureCollection(ctx context.Context) error {
	c.initOnce.Do(func() {
		body := map[string]interface{}{
			"name":          c.collection,
			"get_or_create": true,
			"metadata":      map[string]interface{}{"hnsw:space": c.metric},
		}

		var resp struct {
			ID string `json:"id"`
		}
		if err := c.doRequest(ctx, "POST", "/api/v1/collections", body, &resp); err != nil {
			c.initErr = fmt.Errorf("初始化Chroma集合失败: %w", err)
			return
		}
		c.collectionID = resp.ID
		log.Printf("[Chroma存储] 集合就绪: %s (%s)", c.collection, c.collectionID)
	})
	return c.initErr
}

// StoreChunks 存储切片及向量
func (c *ChromaStore) StoreChunks(ctx context.Context, chunks []models.Chunk, userID string) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	ids := make([]string, 0, len(chunks))
	embeddings := make([][]float32, 0, len(chunks))
	documents := make([]string, 0, len(chunks))
	metadatas := make([]map[string]interface{}, 0, len(chunks))

	for _, chunk := range chunks {
		vector, err := c.embedder.GenerateEmbedding(chunk.Text)
		if err != nil {
			return fmt.Errorf("生成切片向量失败: %w", err)
		}
		ids = append(ids, chunk.ID)
		embeddings = append(embeddings, vector)
		documents = append(documents, chunk.Text)
		metadatas = append(metadatas, map[string]interface{}{
			"document_id":    chunk.DocumentID,
			"filename":       chunk.Filename,
			"sequence_index": chunk.SequenceIndex,
			"start_char":     chunk.StartChar,
			"end_char":       chunk.EndChar,
			"user_id":        userID,
			"uploaded_at":    time.Now().Unix(),
		})
	}

	body := map[string]interface{}{
		"ids":        ids,
		"embeddings": embeddings,
		"documents":  documents,
		"metadatas":  metadatas,
	}
	path := fmt.Sprintf("/api/v1/collections/%s/add", c.collectionID)
	return c.doRequest(ctx, "POST", path, body, nil)
}

// chromaQueryResponse Chroma查询响应
type chromaQueryResponse struct {
	IDs       [][]string                 `json:"ids"`
	Documents [][]string                 `json:"documents"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Distances [][]float64                `json:"distances"`
}

// SearchByText 文本相似度搜索
// 评分为1-distance并钳制到[0,1]；where条件强制user_id过滤
func (c *ChromaStore) SearchByText(ctx context.Context, query string, options *models.SearchOptions) ([]models.SearchResult, error) {
	if options == nil {
		options = &models.SearchOptions{TopK: 10}
	}
	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	queryVector, err := c.embedder.GenerateEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("生成查询向量失败: %w", err)
	}

	topK := options.TopK
	if topK <= 0 {
		topK = 10
	}

	body := map[string]interface{}{
		"query_embeddings": [][]float32{queryVector},
		"n_results":        topK,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if options.UserID != "" {
		body["where"] = map[string]interface{}{"user_id": options.UserID}
	}

	var resp chromaQueryResponse
	path := fmt.Sprintf("/api/v1/collections/%s/query", c.collectionID)
	if err := c.doRequest(ctx, "POST", path, body, &resp); err != nil {
		return nil, err
	}

	if len(resp.IDs) == 0 {
		return nil, nil
	}

	results := make([]models.SearchResult, 0, len(resp.IDs[0]))
	for i, id := range resp.IDs[0] {
		chunk := models.Chunk{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			chunk.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			meta := resp.Metadatas[0][i]
			chunk.DocumentID = metaString(meta, "document_id")
			chunk.Filename = metaString(meta, "filename")
			chunk.SequenceIndex = metaInt(meta, "sequence_index")
			chunk.StartChar = metaInt(meta, "start_char")
			chunk.EndChar = metaInt(meta, "end_char")
		}

		score := 0.0
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			score = 1 - resp.Distances[0][i]
			if score < 0 {
				score = 0
			}
			if score > 1 {
				score = 1
			}
		}

		results = append(results, models.SearchResult{Chunk: chunk, Score: score})
	}

	return results, nil
}

// DeleteDocument 删除指定文档的全部切片
func (c *ChromaStore) DeleteDocument(ctx context.Context, documentID, userID string) error {
	if err := c.ensureCollection(ctx); err != nil {
		return err
	}

	body := map[string]interface{}{
		"where": map[string]interface{}{
			"$and": []map[string]interface{}{
				{"document_id": documentID},
				{"user_id": userID},
			},
		},
	}
	path := fmt.Sprintf("/api/v1/collections/%s/delete", c.collectionID)
	return c.doRequest(ctx, "POST", path, body, nil)
}

// ListDocuments 列出用户的全部文档
// Chroma没有聚合接口，用get拉取元数据后在客户端聚合
func (c *ChromaStore) ListDocuments(ctx context.Context, userID string) ([]models.DocumentInfo, error) {
	if err := c.ensureCollection(ctx); err != nil {
		return nil, err
	}

	body := map[string]interface{}{
		"where":   map[string]interface{}{"user_id": userID},
		"include": []string{"metadatas"},
	}

	var resp struct {
		IDs       []string                 `json:"ids"`
		Metadatas []map[string]interface{} `json:"metadatas"`
	}
	path := fmt.Sprintf("/api/v1/collections/%s/get", c.collectionID)
	if err := c.doRequest(ctx, "POST", path, body, &resp); err != nil {
		return nil, err
	}

	byDoc := make(map[string]*models.DocumentInfo)
	var order []string
	for _, meta := range resp.Metadatas {
		docID := metaString(meta, "document_id")
		if docID == "" {
			continue
		}
		info, exists := byDoc[docID]
		if !exists {
			info = &models.DocumentInfo{
				DocumentID: docID,
				Filename:   metaString(meta, "filename"),
				UserID:     userID,
				UploadedAt: time.Unix(int64(metaInt(meta, "uploaded_at")), 0),
			}
			byDoc[docID] = info
			order = append(order, docID)
		}
		info.ChunkCount++
	}

	docs := make([]models.DocumentInfo, 0, len(order))
	for _, id := range order {
		docs = append(docs, *byDoc[id])
	}
	return docs, nil
}

// doRequest 执行Chroma REST请求
func (c *ChromaStore) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("创建HTTP请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Chroma请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("Chroma返回错误状态码 %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("解析响应失败: %w", err)
		}
	}
	return nil
}

func metaString(meta map[string]interface{}, key string) string {
	if v, ok := meta[key].(string); ok {
		return v
	}
	return ""
}

func metaInt(meta map[string]interface{}, key string) int {
	switch v := meta[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}
