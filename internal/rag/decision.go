package rag

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
)

// =============================================================================
// 决策模式编排 - 固定模板的商业分析路径
// =============================================================================

// DecisionService 决策模式服务
// 复用检索/组装/生成组件，但使用固定检索参数和模式专属模板，不经过查询分析
type DecisionService struct {
	retriever   *Retriever
	assembler   *Assembler
	composer    *Composer
	synthesizer *Synthesizer
	logger      *logrus.Logger

	topK              int
	generationTimeout time.Duration
}

// NewDecisionService 创建决策模式服务
func NewDecisionService(cfg *config.Config, store models.VectorStore, chain *llm.FallbackChain, logger *logrus.Logger) *DecisionService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &DecisionService{
		retriever:         NewRetriever(store, cfg.SearchTimeout, cfg.RetrievalRetryBackoff, logger),
		assembler:         NewAssembler(cfg.ContextCharBudget),
		composer:          NewComposer(),
		synthesizer:       NewSynthesizer(chain, cfg.PreviewLength, logger),
		logger:            logger,
		topK:              cfg.TopKComplex,
		generationTimeout: cfg.GenerationTimeout,
	}
}

// ProcessDecisionQuery 处理决策模式查询
// mode非法时在任何检索发生前拒绝；检索为空返回固定提示文本而非错误
func (ds *DecisionService) ProcessDecisionQuery(ctx context.Context, query string, mode models.DecisionMode, userID string) (*models.DecisionResult, error) {
	if !models.ValidDecisionMode(mode) {
		return nil, models.NewInvalidMode(mode)
	}

	ds.logger.Infof("[决策模式] 开始分析 mode=%s user=%s", mode, userID)

	// 固定检索参数：大TopK、不做扩展
	analysis := models.QueryAnalysis{RawQuestion: query}
	plan := models.RetrievalPlan{TopK: ds.topK, UseExpansion: false}

	ranked, err := ds.retriever.Retrieve(ctx, analysis, plan, userID)
	if err != nil {
		return nil, err
	}

	block := ds.assembler.Assemble(ranked)
	if block.IsEmpty() {
		return &models.DecisionResult{
			Mode:   mode,
			Result: "No relevant information found in documents.",
			StructuredData: models.DecisionData{
				Sources:        []string{},
				ChunksAnalyzed: 0,
			},
			Metadata: map[string]interface{}{
				"mode":          string(mode),
				"sources_count": 0,
			},
		}, nil
	}

	prompt := ds.composer.ComposeDecision(mode, query, block)

	genCtx, cancel := context.WithTimeout(ctx, ds.generationTimeout)
	defer cancel()

	resp, err := ds.synthesizer.chain.Complete(genCtx, &llm.LLMRequest{
		Prompt:      prompt,
		Temperature: 0.2,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, models.NewGenerationUnavailable(err)
	}

	sources := ds.collectSources(block)

	return &models.DecisionResult{
		Mode:   mode,
		Result: resp.Content,
		StructuredData: models.DecisionData{
			Sources:        sources,
			ChunksAnalyzed: block.ChunkCount(),
		},
		Metadata: map[string]interface{}{
			"mode":          string(mode),
			"sources_count": len(sources),
			"model":         resp.Model,
		},
	}, nil
}

// collectSources 按分组顺序收集去重后的文件名
func (ds *DecisionService) collectSources(block models.ContextBlock) []string {
	seen := make(map[string]bool)
	sources := make([]string, 0, len(block.Groups))
	for _, group := range block.Groups {
		if !seen[group.Filename] {
			seen[group.Filename] = true
			sources = append(sources, group.Filename)
		}
	}
	return sources
}
