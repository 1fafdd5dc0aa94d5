package llm

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// 模型降级链 - 按固定顺序尝试多个模型，首个成功即返回
// =============================================================================

// ModelCandidate 降级链中的一个候选模型
type ModelCandidate struct {
	Provider LLMProvider
	Model    string
}

// FallbackChain 有序模型降级链
// 调用按候选顺序逐个尝试，成功即停；全部失败时返回最后一个错误
type FallbackChain struct {
	factory    *Factory
	candidates []ModelCandidate
	logger     *logrus.Logger
}

// NewFallbackChain 创建降级链
func NewFallbackChain(factory *Factory, candidates []ModelCandidate, logger *logrus.Logger) (*FallbackChain, error) {
	if factory == nil {
		return nil, fmt.Errorf("factory不能为空")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("降级链至少需要一个候选模型")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &FallbackChain{
		factory:    factory,
		candidates: candidates,
		logger:     logger,
	}, nil
}

// Candidates 返回候选模型列表的副本
func (fc *FallbackChain) Candidates() []ModelCandidate {
	out := make([]ModelCandidate, len(fc.candidates))
	copy(out, fc.candidates)
	return out
}

// Complete 按顺序尝试候选模型直到成功
func (fc *FallbackChain) Complete(ctx context.Context, req *LLMRequest) (*LLMResponse, error) {
	var lastErr error

	for i, candidate := range fc.candidates {
		// 未配置的提供商直接跳过，不计为失败
		if !fc.factory.HasConfig(candidate.Provider) {
			continue
		}

		client, err := fc.factory.CreateClient(candidate.Provider)
		if err != nil {
			lastErr = err
			fc.logger.Warnf("[降级链] 创建客户端失败 provider=%s: %v", candidate.Provider, err)
			continue
		}

		attempt := *req
		attempt.Model = candidate.Model

		resp, err := client.Complete(ctx, &attempt)
		if err != nil {
			lastErr = err
			fc.logger.Warnf("[降级链] 模型调用失败 provider=%s model=%s (%d/%d): %v",
				candidate.Provider, candidate.Model, i+1, len(fc.candidates), err)
			// 上下文取消时不再尝试后续模型
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		if i > 0 {
			fc.logger.Infof("[降级链] 降级成功 provider=%s model=%s", candidate.Provider, candidate.Model)
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("降级链中没有可用的已配置模型")
	}
	return nil, lastErr
}
