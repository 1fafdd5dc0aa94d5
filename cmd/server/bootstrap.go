package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/chunker"
	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
	"github.com/docmind/service/internal/utils"
	"github.com/docmind/service/pkg/vectorstore"
)

// serviceDeps 两种运行模式共享的服务依赖
type serviceDeps struct {
	Config          *config.Config
	Store           models.VectorStore
	Chunker         *chunker.Chunker
	RAGService      *rag.Service
	DecisionService *rag.DecisionService
	Logger          *logrus.Logger

	llmFactory *llm.Factory
}

// initializeServices 初始化共享服务组件
func initializeServices() (*serviceDeps, error) {
	cfg := config.Load()
	log.Printf("加载配置: %s", cfg.String())

	utils.InitLogging(cfg.Debug)
	logger := logrus.StandardLogger()

	// 向量存储
	store, err := vectorstore.InitializeFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("初始化向量存储失败: %w", err)
	}

	// LLM工厂与降级链
	factory := llm.NewFactory()
	var candidates []llm.ModelCandidate

	if cfg.GroqAPIKey != "" {
		factory.SetConfig(llm.ProviderGroq, &llm.LLMConfig{
			Provider:  llm.ProviderGroq,
			APIKey:    cfg.GroqAPIKey,
			BaseURL:   cfg.GroqBaseURL,
			Timeout:   cfg.GenerationTimeout,
			RateLimit: cfg.LLMRateLimit,
		})
		for _, model := range cfg.GroqModels {
			candidates = append(candidates, llm.ModelCandidate{Provider: llm.ProviderGroq, Model: model})
		}
	}
	if cfg.GeminiAPIKey != "" {
		factory.SetConfig(llm.ProviderGemini, &llm.LLMConfig{
			Provider:  llm.ProviderGemini,
			APIKey:    cfg.GeminiAPIKey,
			Timeout:   cfg.GenerationTimeout,
			RateLimit: cfg.LLMRateLimit,
		})
		candidates = append(candidates, llm.ModelCandidate{Provider: llm.ProviderGemini, Model: cfg.GeminiModel})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("未配置任何LLM提供商，请设置GROQ_API_KEY或GEMINI_API_KEY")
	}

	chain, err := llm.NewFallbackChain(factory, candidates, logger)
	if err != nil {
		return nil, fmt.Errorf("初始化模型降级链失败: %w", err)
	}
	logger.Infof("[启动] 模型降级链就绪，候选数: %d", len(candidates))

	return &serviceDeps{
		Config:          cfg,
		Store:           store,
		Chunker:         chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		RAGService:      rag.NewService(cfg, store, chain, logger),
		DecisionService: rag.NewDecisionService(cfg, store, chain, logger),
		Logger:          logger,
		llmFactory:      factory,
	}, nil
}

// IngestDocument 文档入库：切片并写入向量存储
func (d *serviceDeps) IngestDocument(ctx context.Context, filename, text, userID string) (*models.UploadResponse, error) {
	documentID := uuid.New().String()
	chunks := d.Chunker.Split(documentID, filename, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("文档内容为空")
	}

	if err := d.Store.StoreChunks(ctx, chunks, userID); err != nil {
		return nil, err
	}

	d.Logger.Infof("[入库] 文档索引完成 file=%s chunks=%d user=%s", filename, len(chunks), userID)
	return &models.UploadResponse{
		DocumentID: documentID,
		Filename:   filename,
		ChunkCount: len(chunks),
		Status:     "indexed",
	}, nil
}

// Close 释放共享资源
func (d *serviceDeps) Close() {
	if d.llmFactory != nil {
		d.llmFactory.Close()
	}
}
