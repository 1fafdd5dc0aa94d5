package llm

import (
	"fmt"
	"sync"
)

// =============================================================================
// 工厂模式 - LLM客户端的创建与缓存
// =============================================================================

// ClientCreator 客户端创建函数类型
type ClientCreator func(config *LLMConfig) (LLMClient, error)

// Factory LLM客户端工厂
type Factory struct {
	creators map[LLMProvider]ClientCreator
	configs  map[LLMProvider]*LLMConfig
	clients  map[LLMProvider]LLMClient
	mutex    sync.RWMutex
}

// NewFactory 创建工厂并注册内置提供商
func NewFactory() *Factory {
	factory := &Factory{
		creators: make(map[LLMProvider]ClientCreator),
		configs:  make(map[LLMProvider]*LLMConfig),
		clients:  make(map[LLMProvider]LLMClient),
	}

	factory.RegisterProvider(ProviderGroq, NewGroqClient)
	factory.RegisterProvider(ProviderGemini, NewGeminiClient)

	return factory
}

// RegisterProvider 注册提供商创建函数
func (f *Factory) RegisterProvider(provider LLMProvider, creator ClientCreator) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.creators[provider] = creator
}

// SetConfig 设置提供商配置
func (f *Factory) SetConfig(provider LLMProvider, config *LLMConfig) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.configs[provider] = config
	// 配置变更后失效缓存的客户端
	if client, exists := f.clients[provider]; exists {
		client.Close()
		delete(f.clients, provider)
	}
}

// CreateClient 创建或获取缓存的客户端
func (f *Factory) CreateClient(provider LLMProvider) (LLMClient, error) {
	f.mutex.RLock()
	if client, exists := f.clients[provider]; exists {
		f.mutex.RUnlock()
		return client, nil
	}
	f.mutex.RUnlock()

	f.mutex.Lock()
	defer f.mutex.Unlock()

	// 双重检查
	if client, exists := f.clients[provider]; exists {
		return client, nil
	}

	creator, exists := f.creators[provider]
	if !exists {
		return nil, fmt.Errorf("未注册的LLM提供商: %s", provider)
	}

	config, exists := f.configs[provider]
	if !exists {
		return nil, fmt.Errorf("提供商 %s 缺少配置", provider)
	}

	client, err := creator(config)
	if err != nil {
		return nil, fmt.Errorf("创建 %s 客户端失败: %w", provider, err)
	}

	f.clients[provider] = client
	return client, nil
}

// HasConfig 是否存在该提供商的配置
func (f *Factory) HasConfig(provider LLMProvider) bool {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	_, exists := f.configs[provider]
	return exists
}

// Close 关闭所有缓存的客户端
func (f *Factory) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var lastErr error
	for provider, client := range f.clients {
		if err := client.Close(); err != nil {
			lastErr = err
		}
		delete(f.clients, provider)
	}
	return lastErr
}
