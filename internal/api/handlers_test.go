package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docmind/service/internal/chunker"
	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/internal/rag"
	"github.com/docmind/service/pkg/vectorstore"
)

// wordEmbedder 确定性嵌入桩
type wordEmbedder struct{}

func (w *wordEmbedder) GenerateEmbedding(text string) ([]float32, error) {
	vector := make([]float32, 32)
	for _, r := range text {
		vector[int(r)%32]++
	}
	return vector, nil
}

func (w *wordEmbedder) GetEmbeddingDimension() int { return 32 }

// fixedLLM 固定回复的LLM桩
type fixedLLM struct{}

func (f *fixedLLM) Complete(ctx context.Context, req *llm.LLMRequest) (*llm.LLMResponse, error) {
	return &llm.LLMResponse{Content: "Simple Summary: test answer [Source 1].", Model: req.Model, Provider: llm.ProviderGroq}, nil
}
func (f *fixedLLM) HealthCheck(ctx context.Context) error { return nil }

func (f *fixedLLM) GetProvider() llm.LLMProvider { return llm.ProviderGroq }

func (f *fixedLLM) GetModel() string { return "stub" }

func (f *fixedLLM) Close() error { return nil }

// brokenStore 检索永远失败的存储桩
type brokenStore struct {
	*vectorstore.MemoryStore
}

func (b *brokenStore) SearchByText(ctx context.Context, query string, options *models.SearchOptions) ([]models.SearchResult, error) {
	return nil, errors.New("vector db down")
}

func apiConfig() *config.Config {
	return &config.Config{
		GinMode:                 gin.TestMode,
		TopKResults:             8,
		TopKComplex:             12,
		ComplexityWordThreshold: 12,
		MaxExpandedTerms:        12,
		MaxSynonymsPerTerm:      2,
		ContextCharBudget:       12000,
		PreviewLength:           200,
		ChunkSize:               200,
		ChunkOverlap:            40,
		SearchTimeout:           time.Second,
		GenerationTimeout:       5 * time.Second,
		RetrievalRetryBackoff:   time.Millisecond,
	}
}

func newTestRouter(t *testing.T, store models.VectorStore) *gin.Engine {
	t.Helper()
	cfg := apiConfig()

	factory := llm.NewFactory()
	factory.RegisterProvider(llm.ProviderGroq, func(config *llm.LLMConfig) (llm.LLMClient, error) {
		return &fixedLLM{}, nil
	})
	factory.SetConfig(llm.ProviderGroq, &llm.LLMConfig{Provider: llm.ProviderGroq, APIKey: "test", Model: "stub"})
	chain, err := llm.NewFallbackChain(factory, []llm.ModelCandidate{{Provider: llm.ProviderGroq, Model: "stub"}}, nil)
	if err != nil {
		t.Fatalf("NewFallbackChain failed: %v", err)
	}

	handler := NewHandler(
		rag.NewService(cfg, store, chain, nil),
		rag.NewDecisionService(cfg, store, chain, nil),
		store,
		chunker.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		nil,
	)
	return handler.SetupRouter(gin.TestMode)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request failed: %v", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAPI_UploadQueryDeleteFlow(t *testing.T) {
	store := vectorstore.NewMemoryStore(&wordEmbedder{})
	router := newTestRouter(t, store)

	// 上传
	upload := doJSON(t, router, "POST", "/api/v1/documents", models.UploadRequest{
		Filename: "contract.pdf",
		Text:     "Payment terms: the customer shall pay within thirty days. Termination requires ninety days written notice.",
		UserID:   "user-1",
	})
	if upload.Code != http.StatusOK {
		t.Fatalf("Upload: expected 200, got %d: %s", upload.Code, upload.Body.String())
	}
	var uploadResp models.UploadResponse
	if err := json.Unmarshal(upload.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("Unmarshal upload response failed: %v", err)
	}
	if uploadResp.ChunkCount == 0 || uploadResp.DocumentID == "" {
		t.Errorf("Unexpected upload response: %+v", uploadResp)
	}

	// 查询
	query := doJSON(t, router, "POST", "/api/v1/query", models.QueryRequest{
		Question: "What are the payment terms?",
		UserID:   "user-1",
	})
	if query.Code != http.StatusOK {
		t.Fatalf("Query: expected 200, got %d: %s", query.Code, query.Body.String())
	}
	var queryResp models.QueryResponse
	if err := json.Unmarshal(query.Body.Bytes(), &queryResp); err != nil {
		t.Fatalf("Unmarshal query response failed: %v", err)
	}
	if queryResp.Answer == "" || len(queryResp.Sources) == 0 {
		t.Errorf("Expected answer with sources, got %+v", queryResp)
	}

	// 列表
	list := doJSON(t, router, "GET", "/api/v1/documents?userId=user-1", nil)
	if list.Code != http.StatusOK {
		t.Fatalf("List: expected 200, got %d", list.Code)
	}

	// 删除
	del := doJSON(t, router, "DELETE", "/api/v1/documents/"+uploadResp.DocumentID+"?userId=user-1", nil)
	if del.Code != http.StatusOK {
		t.Fatalf("Delete: expected 200, got %d", del.Code)
	}

	docs, err := store.ListDocuments(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected no documents after delete, got %d", len(docs))
	}
}

func TestAPI_QueryMissingQuestion(t *testing.T) {
	router := newTestRouter(t, vectorstore.NewMemoryStore(&wordEmbedder{}))

	resp := doJSON(t, router, "POST", "/api/v1/query", map[string]string{"userId": "u"})
	if resp.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing question, got %d", resp.Code)
	}
}

func TestAPI_RetrievalFailureMapsTo503(t *testing.T) {
	store := &brokenStore{MemoryStore: vectorstore.NewMemoryStore(&wordEmbedder{})}
	router := newTestRouter(t, store)

	resp := doJSON(t, router, "POST", "/api/v1/query", models.QueryRequest{Question: "anything"})
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503, got %d: %s", resp.Code, resp.Body.String())
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Unmarshal error response failed: %v", err)
	}
	if errResp.Kind != string(models.FailureRetrievalUnavailable) {
		t.Errorf("Expected retrieval_unavailable kind, got %q", errResp.Kind)
	}
}

func TestAPI_InvalidDecisionModeMapsTo400(t *testing.T) {
	router := newTestRouter(t, vectorstore.NewMemoryStore(&wordEmbedder{}))

	resp := doJSON(t, router, "POST", "/api/v1/decision", models.DecisionRequest{
		Query: "analyze",
		Mode:  "bogus",
	})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", resp.Code, resp.Body.String())
	}

	var errResp models.ErrorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("Unmarshal error response failed: %v", err)
	}
	if errResp.Kind != string(models.FailureInvalidMode) {
		t.Errorf("Expected invalid_mode kind, got %q", errResp.Kind)
	}
}

func TestAPI_Health(t *testing.T) {
	router := newTestRouter(t, vectorstore.NewMemoryStore(&wordEmbedder{}))

	resp := doJSON(t, router, "GET", "/health", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.Code)
	}
}
