package rag

import (
	"context"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/docmind/service/internal/llm"
	"github.com/docmind/service/internal/models"
)

// =============================================================================
// 答案合成 - LLM生成与引用装配
// =============================================================================

// GenerationParams 单次生成参数
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
}

// Synthesizer 答案合成器
// 通过降级链调用LLM，并将上下文块装配为带编号的引用列表
type Synthesizer struct {
	chain         *llm.FallbackChain
	previewLength int
	logger        *logrus.Logger

	citationPattern *regexp.Regexp
}

// NewSynthesizer 创建答案合成器
func NewSynthesizer(chain *llm.FallbackChain, previewLength int, logger *logrus.Logger) *Synthesizer {
	if previewLength <= 0 {
		previewLength = 200
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Synthesizer{
		chain:           chain,
		previewLength:   previewLength,
		logger:          logger,
		citationPattern: regexp.MustCompile(`\[Source (\d+)`),
	}
}

// Synthesize 生成带引用的答案
// 降级链全部失败时返回generation_unavailable；引用编号越界只告警不失败
func (s *Synthesizer) Synthesize(ctx context.Context, prompt, sysPrompt string, params GenerationParams, block models.ContextBlock) (*models.Answer, error) {
	resp, err := s.chain.Complete(ctx, &llm.LLMRequest{
		Prompt:       prompt,
		SystemPrompt: sysPrompt,
		Temperature:  params.Temperature,
		MaxTokens:    params.MaxTokens,
	})
	if err != nil {
		return nil, models.NewGenerationUnavailable(err)
	}

	sources := s.BuildCitations(block)
	s.checkCitations(resp.Content, len(sources))

	return &models.Answer{
		Text:    resp.Content,
		Sources: sources,
		Metadata: map[string]interface{}{
			"chunks_retrieved": block.ChunkCount(),
			"model":            resp.Model,
			"provider":         string(resp.Provider),
			"tokens_used":      resp.TokensUsed,
		},
	}, nil
}

// BuildCitations 按文档分组装配引用
// source_id从1开始，顺序与FormatContext渲染的编号一致
// 每个分组取最高分作为相关度，取最高分切片的文本截断作为预览
func (s *Synthesizer) BuildCitations(block models.ContextBlock) []models.SourceCitation {
	citations := make([]models.SourceCitation, 0, len(block.Groups))

	for i, group := range block.Groups {
		if len(group.Chunks) == 0 {
			continue
		}
		// 组内已按评分降序
		top := group.Chunks[0]

		citations = append(citations, models.SourceCitation{
			SourceID:       i + 1,
			Filename:       group.Filename,
			ChunkID:        top.Chunk.ID,
			TextPreview:    s.preview(top.Chunk.Text),
			RelevanceScore: top.Score,
		})
	}

	return citations
}

// preview 生成截断预览
func (s *Synthesizer) preview(text string) string {
	if len(text) <= s.previewLength {
		return text
	}
	return text[:s.previewLength] + "..."
}

// checkCitations 扫描答案文本中的引用编号，越界时告警
func (s *Synthesizer) checkCitations(answer string, sourceCount int) {
	matches := s.citationPattern.FindAllStringSubmatch(answer, -1)
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if id < 1 || id > sourceCount {
			s.logger.Warnf("[合成] 答案引用了不存在的来源编号 %d (共%d个来源)", id, sourceCount)
		}
	}
}
