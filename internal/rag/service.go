package rag

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/nlp"
)

// =============================================================================
// RAG服务 - 查询管线编排
// =============================================================================

// ProgressStage 管线进度阶段
type ProgressStage string

const (
	StageAnalyzing  ProgressStage = "analyzing"
	StagePlanning   ProgressStage = "planning"
	StageRetrieving ProgressStage = "retrieving"
	StageAssembling ProgressStage = "assembling"
	StageGenerating ProgressStage = "generating"
	StageDone       ProgressStage = "done"
)

// ProgressFunc 进度回调，用于流式推送管线阶段
type ProgressFunc func(stage ProgressStage, detail map[string]interface{})

// Service RAG查询服务
// 编排 分析→计划→检索→组装→Prompt→生成 的完整管线
type Service struct {
	analyzer    *nlp.Analyzer
	planner     *Planner
	retriever   *Retriever
	assembler   *Assembler
	composer    *Composer
	synthesizer *Synthesizer
	logger      *logrus.Logger

	topKComplex       int
	generationTimeout time.Duration
}

// NewService 创建RAG查询服务
func NewService(cfg *config.Config, store models.VectorStore, chain *llm.FallbackChain, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	thesaurus := nlp.DefaultThesaurus()
	analyzer := nlp.NewAnalyzer(nil, thesaurus, cfg.MaxExpandedTerms, cfg.MaxSynonymsPerTerm)

	return &Service{
		analyzer:          analyzer,
		planner:           NewPlanner(cfg.TopKResults, cfg.TopKComplex, cfg.ComplexityWordThreshold),
		retriever:         NewRetriever(store, cfg.SearchTimeout, cfg.RetrievalRetryBackoff, logger),
		assembler:         NewAssembler(cfg.ContextCharBudget),
		composer:          NewComposer(),
		synthesizer:       NewSynthesizer(chain, cfg.PreviewLength, logger),
		logger:            logger,
		topKComplex:       cfg.TopKComplex,
		generationTimeout: cfg.GenerationTimeout,
	}
}

// ProcessQuery 处理常规查询
func (s *Service) ProcessQuery(ctx context.Context, question, userID string) (*models.Answer, error) {
	return s.ProcessQueryWithProgress(ctx, question, userID, nil)
}

// ProcessQueryWithProgress 处理常规查询并通过回调推送阶段进度
// 检索为空不是错误：继续走无文档分支，由模型给出明确标注的常识回答
func (s *Service) ProcessQueryWithProgress(ctx context.Context, question, userID string, progress ProgressFunc) (*models.Answer, error) {
	notify := func(stage ProgressStage, detail map[string]interface{}) {
		if progress != nil {
			progress(stage, detail)
		}
	}

	notify(StageAnalyzing, nil)
	analysis := s.analyzer.Analyze(question)
	s.logger.Infof("[查询] 分析完成 intent=%s type=%s level=%s confused=%v terms=%d",
		analysis.Intent, analysis.QuestionType, analysis.UserLevel, analysis.IsConfused, len(analysis.KeyTerms))

	notify(StagePlanning, map[string]interface{}{"intent": string(analysis.Intent)})
	plan := s.planner.Plan(analysis)

	notify(StageRetrieving, map[string]interface{}{"top_k": plan.TopK})
	ranked, err := s.retriever.Retrieve(ctx, analysis, plan, userID)
	if err != nil {
		return nil, err
	}

	notify(StageAssembling, map[string]interface{}{"chunks": len(ranked)})
	block := s.assembler.Assemble(ranked)
	if block.IsEmpty() {
		s.logger.Infof("[查询] 未命中任何文档内容，切换到无文档分支")
	}

	prompt := s.composer.Compose(analysis, block)
	params := s.generationParams(plan)

	notify(StageGenerating, map[string]interface{}{"sources": len(block.Groups)})
	genCtx, cancel := context.WithTimeout(ctx, s.generationTimeout)
	defer cancel()

	answer, err := s.synthesizer.Synthesize(genCtx, prompt, s.composer.SystemPrompt(), params, block)
	if err != nil {
		return nil, err
	}

	answer.Metadata["question"] = question
	answer.Metadata["intent"] = string(analysis.Intent)
	answer.Metadata["user_level"] = string(analysis.UserLevel)

	notify(StageDone, map[string]interface{}{"sources": len(answer.Sources)})
	return answer, nil
}

// Analyze 暴露查询分析能力，供诊断接口使用
func (s *Service) Analyze(question string) models.QueryAnalysis {
	return s.analyzer.Analyze(question)
}

// generationParams 根据检索计划推导生成参数
// 复杂问题用更低温度和更大输出空间，保证推理稳定
func (s *Service) generationParams(plan models.RetrievalPlan) GenerationParams {
	if plan.TopK >= s.topKComplex {
		return GenerationParams{Temperature: 0.2, MaxTokens: 2000}
	}
	return GenerationParams{Temperature: 0.3, MaxTokens: 1500}
}
