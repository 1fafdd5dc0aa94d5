package vectorstore

import (
	"fmt"
	"log"
	"sync"

	"github.com/docmind/service/internal/config"
	"github.com/docmind/service/internal/models"
	"github.com/docmind/service/pkg/embedding"
)

// VectorStoreFactory 向量存储工厂
// 按类型注册配置，实例创建后缓存复用
type VectorStoreFactory struct {
	configs   map[models.VectorStoreType]*models.VectorStoreConfig
	instances map[models.VectorStoreType]models.VectorStore
	embedder  models.EmbeddingProvider
	mutex     sync.Mutex
}

// NewVectorStoreFactory 创建向量存储工厂
// embedder供所有存储实现复用
func NewVectorStoreFactory(embedder models.EmbeddingProvider) *VectorStoreFactory {
	return &VectorStoreFactory{
		configs:   make(map[models.VectorStoreType]*models.VectorStoreConfig),
		instances: make(map[models.VectorStoreType]models.VectorStore),
		embedder:  embedder,
	}
}

// RegisterConfig 注册厂商配置
func (f *VectorStoreFactory) RegisterConfig(storeType models.VectorStoreType, cfg *models.VectorStoreConfig) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.configs[storeType] = cfg
	log.Printf("[向量存储工厂] 注册配置: %s", storeType)
}

// CreateVectorStore 创建或获取缓存的向量存储实例
func (f *VectorStoreFactory) CreateVectorStore(storeType models.VectorStoreType) (models.VectorStore, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if instance, exists := f.instances[storeType]; exists {
		return instance, nil
	}

	instance, err := f.createInstance(storeType)
	if err != nil {
		return nil, err
	}
	f.instances[storeType] = instance
	log.Printf("[向量存储工厂] ✅ %s 实例初始化完成", storeType)
	return instance, nil
}

// createInstance 创建向量存储实例的内部方法
func (f *VectorStoreFactory) createInstance(storeType models.VectorStoreType) (models.VectorStore, error) {
	cfg, exists := f.configs[storeType]
	if !exists {
		return nil, fmt.Errorf("未找到向量存储配置: %s", storeType)
	}

	switch storeType {
	case models.VectorStoreTypeChroma:
		return NewChromaStore(cfg.Endpoint, cfg.APIKey, cfg.Collection, cfg.Metric, f.embedder), nil
	case models.VectorStoreTypeMemory:
		return NewMemoryStore(f.embedder), nil
	default:
		return nil, fmt.Errorf("不支持的向量存储类型: %s", storeType)
	}
}

// InitializeFromConfig 根据应用配置构建工厂并返回选定的向量存储
func InitializeFromConfig(cfg *config.Config) (models.VectorStore, error) {
	embedder := embedding.NewClient(cfg.EmbeddingAPIURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, cfg.Dimension)
	factory := NewVectorStoreFactory(embedder)

	factory.RegisterConfig(models.VectorStoreTypeChroma, &models.VectorStoreConfig{
		StoreType:  models.VectorStoreTypeChroma,
		Endpoint:   cfg.ChromaURL,
		APIKey:     cfg.ChromaAPIKey,
		Collection: cfg.Collection,
		Dimension:  cfg.Dimension,
		Metric:     cfg.Metric,
	})
	factory.RegisterConfig(models.VectorStoreTypeMemory, &models.VectorStoreConfig{
		StoreType: models.VectorStoreTypeMemory,
		Dimension: cfg.Dimension,
	})

	storeType := models.VectorStoreType(cfg.VectorStoreType)
	if !ValidateVectorStoreType(storeType) {
		log.Printf("[向量存储工厂] 未知类型 %q，回退到 chroma", cfg.VectorStoreType)
		storeType = models.VectorStoreTypeChroma
	}

	return factory.CreateVectorStore(storeType)
}

// GetAvailableVectorStoreTypes 返回支持的向量存储类型
func GetAvailableVectorStoreTypes() []models.VectorStoreType {
	return []models.VectorStoreType{
		models.VectorStoreTypeChroma,
		models.VectorStoreTypeMemory,
	}
}

// ValidateVectorStoreType 校验向量存储类型是否受支持
func ValidateVectorStoreType(storeType models.VectorStoreType) bool {
	for _, t := range GetAvailableVectorStoreTypes() {
		if t == storeType {
			return true
		}
	}
	return false
}
