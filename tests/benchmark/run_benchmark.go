package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/schollz/progressbar/v3"

	"github.com/docmind/service/internal/chunker"
	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
	"github.com/docmind/service/pkg/vectorstore"
)

// Result 存储单项基准测试结果
type Result struct {
	Name        string        `json:"name"`
	Operations  int           `json:"operations"`
	TotalTime   time.Duration `json:"total_time"`
	AverageTime time.Duration `json:"average_time"`
	MinTime     time.Duration `json:"min_time"`
	MaxTime     time.Duration `json:"max_time"`
	SuccessRate float64       `json:"success_rate"`
}

// Suite 存储完整基准测试结果
type Suite struct {
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Environment  string    `json:"environment"`
	Results      []Result  `json:"results"`
	TestDataSize int       `json:"test_data_size"`
}

// bagEmbedder 确定性词袋嵌入，离线基准不依赖外部嵌入服务
type bagEmbedder struct {
	dimension int
}

func (b *bagEmbedder) GenerateEmbedding(text string) ([]float32, error) {
	vector := make([]float32, b.dimension)
	for _, r := range text {
		vector[int(r)%b.dimension]++
	}
	return vector, nil
}

func (b *bagEmbedder) GetEmbeddingDimension() int { return b.dimension }

// stubLLM 固定延迟的LLM桩，模拟真实生成耗时
type stubLLM struct{}

func (s *stubLLM) Complete(ctx context.Context, req *llm.LLMRequest) (*llm.LLMResponse, error) {
	time.Sleep(time.Duration(30+rand.Intn(30)) * time.Millisecond)
	return &llm.LLMResponse{
		Content:  "Simple Summary: benchmark answer [Source 1].",
		Model:    req.Model,
		Provider: llm.ProviderGroq,
	}, nil
}

func (s *stubLLM) HealthCheck(ctx context.Context) error { return nil }

func (s *stubLLM) GetProvider() llm.LLMProvider { return llm.ProviderGroq }

func (s *stubLLM) GetModel() string { return "stub-model" }

func (s *stubLLM) Close() error { return nil }

// fakeDocument 生成的测试文档
type fakeDocument struct {
	filename string
	text     string
}

// generateTestData 生成随机文档和查询样本
func generateTestData(count int) ([]fakeDocument, []string) {
	gofakeit.Seed(time.Now().UnixNano())

	docs := make([]fakeDocument, count)
	queries := make([]string, count)

	for i := 0; i < count; i++ {
		docs[i] = fakeDocument{
			filename: fmt.Sprintf("%s-%d.txt", gofakeit.BuzzWord(), i),
			text: fmt.Sprintf("%s\n\n%s\n\nRevenue for %s was %d crores with a margin of %d percent.\n\n%s",
				gofakeit.Paragraph(4, 8, 120, " "),
				gofakeit.Paragraph(3, 6, 100, " "),
				gofakeit.Company(),
				100+rand.Intn(900),
				5+rand.Intn(30),
				gofakeit.Paragraph(2, 5, 80, " ")),
		}
		queries[i] = gofakeit.Question()
	}

	return docs, queries
}

func benchConfig() *config.Config {
	return &config.Config{
		ChunkSize:               1000,
		ChunkOverlap:            200,
		TopKResults:             8,
		TopKComplex:             12,
		ComplexityWordThreshold: 12,
		MaxExpandedTerms:        12,
		MaxSynonymsPerTerm:      2,
		ContextCharBudget:       12000,
		PreviewLength:           200,
		SearchTimeout:           5 * time.Second,
		GenerationTimeout:       45 * time.Second,
		RetrievalRetryBackoff:   200 * time.Millisecond,
	}
}

// runTimed 执行count次操作并统计耗时分布
func runTimed(name, barLabel string, count int, op func(i int) error) Result {
	bar := progressbar.Default(int64(count), barLabel)

	var total, min, max time.Duration
	successes := 0

	for i := 0; i < count; i++ {
		start := time.Now()
		err := op(i)
		elapsed := time.Since(start)

		total += elapsed
		if i == 0 || elapsed < min {
			min = elapsed
		}
		if elapsed > max {
			max = elapsed
		}
		if err == nil {
			successes++
		}
		bar.Add(1)
	}

	avg := time.Duration(0)
	if count > 0 {
		avg = total / time.Duration(count)
	}

	return Result{
		Name:        name,
		Operations:  count,
		TotalTime:   total,
		AverageTime: avg,
		MinTime:     min,
		MaxTime:     max,
		SuccessRate: float64(successes) / float64(count) * 100,
	}
}

func main() {
	count := 50
	log.Printf("开始DocMind查询管线基准测试，样本数: %d", count)

	cfg := benchConfig()
	store := vectorstore.NewMemoryStore(&bagEmbedder{dimension: 64})
	docChunker := chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	factory := llm.NewFactory()
	factory.RegisterProvider(llm.ProviderGroq, func(config *llm.LLMConfig) (llm.LLMClient, error) {
		return &stubLLM{}, nil
	})
	factory.SetConfig(llm.ProviderGroq, &llm.LLMConfig{Provider: llm.ProviderGroq, APIKey: "bench", Model: "stub-model"})
	chain, err := llm.NewFallbackChain(factory, []llm.ModelCandidate{
		{Provider: llm.ProviderGroq, Model: "stub-model"},
	}, nil)
	if err != nil {
		log.Fatalf("初始化降级链失败: %v", err)
	}

	ragService := rag.NewService(cfg, store, chain, nil)
	decisionService := rag.NewDecisionService(cfg, store, chain, nil)

	docs, queries := generateTestData(count)
	ctx := context.Background()

	suite := Suite{
		StartTime:    time.Now(),
		Environment:  fmt.Sprintf("go/%s %s", runtime.Version(), runtime.GOARCH),
		TestDataSize: count,
	}

	// 文档入库
	suite.Results = append(suite.Results, runTimed("document_ingestion", "文档入库测试", count, func(i int) error {
		chunks := docChunker.Split(fmt.Sprintf("doc-%d", i), docs[i].filename, docs[i].text)
		return store.StoreChunks(ctx, chunks, "bench-user")
	}))

	// 向量检索
	suite.Results = append(suite.Results, runTimed("vector_search", "向量检索测试", count, func(i int) error {
		_, err := store.SearchByText(ctx, queries[i], &models.SearchOptions{TopK: 8, UserID: "bench-user"})
		return err
	}))

	// 完整问答管线
	suite.Results = append(suite.Results, runTimed("query_pipeline", "问答管线测试", count, func(i int) error {
		_, err := ragService.ProcessQuery(ctx, queries[i], "bench-user")
		return err
	}))

	// 决策模式管线
	modes := []models.DecisionMode{models.ModeSummary, models.ModeRiskAnalysis, models.ModeRevenueAnalysis, models.ModeClauseExtraction}
	suite.Results = append(suite.Results, runTimed("decision_pipeline", "决策模式测试", count, func(i int) error {
		_, err := decisionService.ProcessDecisionQuery(ctx, queries[i], modes[i%len(modes)], "bench-user")
		return err
	}))

	suite.EndTime = time.Now()

	// 输出结果
	output, err := json.MarshalIndent(suite, "", "  ")
	if err != nil {
		log.Fatalf("序列化结果失败: %v", err)
	}

	resultPath := "benchmark_results.json"
	if err := os.WriteFile(resultPath, output, 0644); err != nil {
		log.Fatalf("写入结果文件失败: %v", err)
	}

	fmt.Printf("\n基准测试完成，结果已写入 %s\n", resultPath)
	for _, r := range suite.Results {
		fmt.Printf("  %-20s avg=%-12v success=%.1f%%\n", r.Name, r.AverageTime, r.SuccessRate)
	}
}
