package vectorstore

import (
	"context"
	"strings"
	"testing"

	"github.com/docmind/service/internal/models"
)

// hashEmbedder 确定性词袋嵌入桩，让相似文本产生相近向量
type hashEmbedder struct{}

func (h *hashEmbedder) GenerateEmbedding(text string) ([]float32, error) {
	vector := make([]float32, 16)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		sum := 0
		for _, r := range word {
			sum += int(r)
		}
		vector[sum%16]++
	}
	return vector, nil
}

func (h *hashEmbedder) GetEmbeddingDimension() int { return 16 }

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(&hashEmbedder{})

	chunks := []models.Chunk{
		models.NewChunk("doc-1", "contract.pdf", "payment terms due in thirty days", 0, 0, 32),
		models.NewChunk("doc-1", "contract.pdf", "termination clause with notice period", 1, 32, 70),
		models.NewChunk("doc-2", "report.pdf", "quarterly revenue grew twelve percent", 0, 0, 37),
	}
	if err := store.StoreChunks(context.Background(), chunks, "user-1"); err != nil {
		t.Fatalf("StoreChunks failed: %v", err)
	}

	other := []models.Chunk{
		models.NewChunk("doc-3", "secret.pdf", "payment secrets of another tenant", 0, 0, 33),
	}
	if err := store.StoreChunks(context.Background(), other, "user-2"); err != nil {
		t.Fatalf("StoreChunks failed: %v", err)
	}
	return store
}

func TestMemoryStore_SearchScopedToUser(t *testing.T) {
	store := seedStore(t)

	results, err := store.SearchByText(context.Background(), "payment terms",
		&models.SearchOptions{TopK: 10, UserID: "user-1"})
	if err != nil {
		t.Fatalf("SearchByText failed: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Expected 3 results for user-1, got %d", len(results))
	}
	for _, r := range results {
		if r.Chunk.Filename == "secret.pdf" {
			t.Error("Tenant isolation violated: got another user's chunk")
		}
	}
}

func TestMemoryStore_ScoresNormalizedAndOrdered(t *testing.T) {
	store := seedStore(t)

	results, err := store.SearchByText(context.Background(), "payment terms due",
		&models.SearchOptions{TopK: 10, UserID: "user-1"})
	if err != nil {
		t.Fatalf("SearchByText failed: %v", err)
	}

	for i, r := range results {
		if r.Score < 0 || r.Score > 1 {
			t.Errorf("Score out of [0,1]: %f", r.Score)
		}
		if i > 0 && results[i-1].Score < r.Score {
			t.Error("Results not in descending score order")
		}
	}
	// 最相关的应该是payment切片
	if !strings.Contains(results[0].Chunk.Text, "payment terms") {
		t.Errorf("Expected payment chunk first, got %q", results[0].Chunk.Text)
	}
}

func TestMemoryStore_TopKLimit(t *testing.T) {
	store := seedStore(t)

	results, err := store.SearchByText(context.Background(), "anything",
		&models.SearchOptions{TopK: 2, UserID: "user-1"})
	if err != nil {
		t.Fatalf("SearchByText failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Expected TopK=2 results, got %d", len(results))
	}
}

func TestMemoryStore_DeleteDocument(t *testing.T) {
	store := seedStore(t)

	if err := store.DeleteDocument(context.Background(), "doc-1", "user-1"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	docs, err := store.ListDocuments(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 1 || docs[0].DocumentID != "doc-2" {
		t.Errorf("Expected only doc-2 to remain, got %+v", docs)
	}
}

func TestMemoryStore_DeleteScopedToUser(t *testing.T) {
	store := seedStore(t)

	// user-1尝试删除user-2的文档必须无效
	if err := store.DeleteDocument(context.Background(), "doc-3", "user-1"); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	docs, err := store.ListDocuments(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}
	if len(docs) != 1 {
		t.Errorf("Expected user-2 document untouched, got %d docs", len(docs))
	}
}

func TestMemoryStore_ListDocumentsAggregates(t *testing.T) {
	store := seedStore(t)

	docs, err := store.ListDocuments(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListDocuments failed: %v", err)
	}

	if len(docs) != 2 {
		t.Fatalf("Expected 2 documents, got %d", len(docs))
	}
	if docs[0].DocumentID != "doc-1" || docs[0].ChunkCount != 2 {
		t.Errorf("Expected doc-1 with 2 chunks first, got %+v", docs[0])
	}
}

func TestFactory_CreatesAndCaches(t *testing.T) {
	factory := NewVectorStoreFactory(&hashEmbedder{})
	factory.RegisterConfig(models.VectorStoreTypeMemory, &models.VectorStoreConfig{
		StoreType: models.VectorStoreTypeMemory,
	})

	first, err := factory.CreateVectorStore(models.VectorStoreTypeMemory)
	if err != nil {
		t.Fatalf("CreateVectorStore failed: %v", err)
	}
	second, err := factory.CreateVectorStore(models.VectorStoreTypeMemory)
	if err != nil {
		t.Fatalf("CreateVectorStore failed: %v", err)
	}
	if first != second {
		t.Error("Expected cached instance on second call")
	}
	if first.GetProvider() != models.VectorStoreTypeMemory {
		t.Errorf("Unexpected provider: %s", first.GetProvider())
	}
}

func TestFactory_UnregisteredType(t *testing.T) {
	factory := NewVectorStoreFactory(&hashEmbedder{})
	if _, err := factory.CreateVectorStore(models.VectorStoreTypeChroma); err == nil {
		t.Error("Expected error for unregistered type")
	}
}

func TestValidateVectorStoreType(t *testing.T) {
	if !ValidateVectorStoreType(models.VectorStoreTypeChroma) || !ValidateVectorStoreType(models.VectorStoreTypeMemory) {
		t.Error("Expected built-in types to validate")
	}
	if ValidateVectorStoreType("pinecone") {
		t.Error("Expected unknown type to fail validation")
	}
}
