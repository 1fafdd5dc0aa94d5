package rag

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/models"
)

// =============================================================================
// 检索计划与执行
// =============================================================================

// Planner 检索计划器
// 由查询分析结果确定性推导检索参数，不做任何IO
type Planner struct {
	topK                    int
	topKComplex             int
	complexityWordThreshold int
}

// NewPlanner 创建检索计划器
func NewPlanner(topK, topKComplex, complexityWordThreshold int) *Planner {
	if topK <= 0 {
		topK = 8
	}
	if topKComplex <= 0 {
		topKComplex = 12
	}
	if complexityWordThreshold <= 0 {
		complexityWordThreshold = 12
	}
	return &Planner{
		topK:                    topK,
		topKComplex:             topKComplex,
		complexityWordThreshold: complexityWordThreshold,
	}
}

// Plan 推导检索计划
// 推理类意图或长问题使用更大的TopK；扩展词存在时启用多词检索
func (p *Planner) Plan(analysis models.QueryAnalysis) models.RetrievalPlan {
	topK := p.topK

	complexIntent := analysis.Intent == models.IntentExplanatory ||
		analysis.Intent == models.IntentAnalytical ||
		analysis.Intent == models.IntentCalculative
	wordCount := len(strings.Fields(analysis.RawQuestion))

	if complexIntent || wordCount > p.complexityWordThreshold {
		topK = p.topKComplex
	}

	return models.RetrievalPlan{
		TopK:         topK,
		UseExpansion: len(analysis.ExpandedTerms) > 0,
	}
}

// Retriever 检索执行器
// 对向量存储执行多词检索并合并去重结果
type Retriever struct {
	searcher      models.VectorSearcher
	searchTimeout time.Duration
	retryBackoff  time.Duration
	logger        *logrus.Logger
}

// NewRetriever 创建检索执行器
func NewRetriever(searcher models.VectorSearcher, searchTimeout, retryBackoff time.Duration, logger *logrus.Logger) *Retriever {
	if searchTimeout <= 0 {
		searchTimeout = 5 * time.Second
	}
	if retryBackoff <= 0 {
		retryBackoff = 200 * time.Millisecond
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Retriever{
		searcher:      searcher,
		searchTimeout: searchTimeout,
		retryBackoff:  retryBackoff,
		logger:        logger,
	}
}

// Retrieve 执行检索计划
// 原始问题始终作为首个查询词；扩展启用时追加一次合并扩展词的查询
// 多次查询结果按切片ID去重取最高分，按评分降序截断到TopK
func (r *Retriever) Retrieve(ctx context.Context, analysis models.QueryAnalysis, plan models.RetrievalPlan, userID string) ([]models.RetrievedChunk, error) {
	queries := []string{analysis.RawQuestion}
	if plan.UseExpansion && len(analysis.ExpandedTerms) > 0 {
		expansion := strings.Join(analysis.ExpandedTerms, " ")
		if expansion != analysis.RawQuestion {
			queries = append(queries, expansion)
		}
	}

	merged := make(map[string]models.RetrievedChunk)

	for _, query := range queries {
		results, err := r.searchWithRetry(ctx, query, plan.TopK, userID)
		if err != nil {
			return nil, models.NewRetrievalUnavailable(err)
		}

		for _, result := range results {
			existing, seen := merged[result.Chunk.ID]
			if !seen || result.Score > existing.Score {
				merged[result.Chunk.ID] = models.RetrievedChunk{
					Chunk: result.Chunk,
					Score: result.Score,
				}
			}
		}
	}

	ranked := make([]models.RetrievedChunk, 0, len(merged))
	for _, rc := range merged {
		ranked = append(ranked, rc)
	}

	// 评分相同时按切片ID排序，保证结果确定性
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Chunk.ID < ranked[j].Chunk.ID
	})

	if len(ranked) > plan.TopK {
		ranked = ranked[:plan.TopK]
	}

	return ranked, nil
}

// searchWithRetry 执行单次检索，失败后退避重试一次
func (r *Retriever) searchWithRetry(ctx context.Context, query string, topK int, userID string) ([]models.SearchResult, error) {
	options := &models.SearchOptions{
		TopK:    topK,
		UserID:  userID,
		Timeout: r.searchTimeout,
	}

	results, err := r.searcher.SearchByText(ctx, query, options)
	if err == nil {
		return results, nil
	}

	r.logger.Warnf("[检索] 向量搜索失败，退避后重试: %v", err)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(r.retryBackoff):
	}

	results, err = r.searcher.SearchByText(ctx, query, options)
	if err != nil {
		r.logger.Errorf("[检索] 重试后仍然失败: %v", err)
		return nil, err
	}
	return results, nil
}
