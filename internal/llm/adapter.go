package llm

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// 适配器模式 - 统一不同LLM API的差异
// =============================================================================

// BaseAdapter 基础适配器 - 适配器模式的Adapter
type BaseAdapter struct {
	provider       LLMProvider
	config         *LLMConfig
	httpClient     *http.Client
	rateLimiter    *rate.Limiter
	circuitBreaker *CircuitBreaker
}

// NewBaseAdapter 创建基础适配器
func NewBaseAdapter(provider LLMProvider, config *LLMConfig) *BaseAdapter {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	// 限流器 (requests per minute -> requests per second)
	rpm := config.RateLimit
	if rpm <= 0 {
		rpm = 60
	}
	rateLimiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm)

	circuitBreaker := NewCircuitBreaker(&CircuitBreakerConfig{
		MaxFailures:  5,
		ResetTimeout: 30 * time.Second,
	})

	return &BaseAdapter{
		provider:       provider,
		config:         config,
		httpClient:     httpClient,
		rateLimiter:    rateLimiter,
		circuitBreaker: circuitBreaker,
	}
}

// GetProvider 获取提供商
func (ba *BaseAdapter) GetProvider() LLMProvider {
	return ba.provider
}

// CheckRateLimit 检查限流
func (ba *BaseAdapter) CheckRateLimit(ctx context.Context) error {
	if err := ba.rateLimiter.Wait(ctx); err != nil {
		return &LLMError{
			Provider:  ba.provider,
			Code:      "RATE_LIMIT_EXCEEDED",
			Message:   "请求频率超限",
			Retryable: true,
		}
	}
	return nil
}

// CheckCircuitBreaker 检查熔断器
func (ba *BaseAdapter) CheckCircuitBreaker() error {
	if !ba.circuitBreaker.AllowRequest() {
		return &LLMError{
			Provider:  ba.provider,
			Code:      "CIRCUIT_BREAKER_OPEN",
			Message:   "熔断器开启，拒绝请求",
			Retryable: true,
		}
	}
	return nil
}

// RecordSuccess 记录成功
func (ba *BaseAdapter) RecordSuccess() {
	ba.circuitBreaker.RecordSuccess()
}

// RecordFailure 记录失败
func (ba *BaseAdapter) RecordFailure() {
	ba.circuitBreaker.RecordFailure()
}

// Close 关闭适配器
func (ba *BaseAdapter) Close() error {
	ba.httpClient.CloseIdleConnections()
	return nil
}

// =============================================================================
// 熔断器实现
// =============================================================================

// CircuitBreakerState 熔断器状态
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

// CircuitBreakerConfig 熔断器配置
type CircuitBreakerConfig struct {
	MaxFailures  int           // 连续失败次数阈值
	ResetTimeout time.Duration // 开启后尝试半开的等待时间
}

// CircuitBreaker 简单熔断器：连续失败达到阈值后开启，超时后半开放行一次
type CircuitBreaker struct {
	config      *CircuitBreakerConfig
	state       CircuitBreakerState
	failures    int
	lastFailure time.Time
	mutex       sync.Mutex
}

// NewCircuitBreaker 创建熔断器
func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		config: config,
		state:  StateClosed,
	}
}

// AllowRequest 是否允许请求通过
func (cb *CircuitBreaker) AllowRequest() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.config.ResetTimeout {
			cb.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	}
	return true
}

// RecordSuccess 记录成功，恢复闭合状态
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.state = StateClosed
}

// RecordFailure 记录失败，达到阈值后开启熔断
func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen || cb.failures >= cb.config.MaxFailures {
		cb.state = StateOpen
	}
}
