package models

import (
	"time"

	"github.com/google/uuid"
)

// 查询分析枚举 ---------------------------------

// IntentType 问题意图类型
type IntentType string

const (
	IntentFactual     IntentType = "factual"     // 简单事实查询
	IntentExplanatory IntentType = "explanatory" // 需要解释说明
	IntentAnalytical  IntentType = "analytical"  // 需要分析推理
	IntentCalculative IntentType = "calculative" // 需要数值计算
	IntentComparative IntentType = "comparative" // 需要对比
)

// QuestionType 疑问词类型
type QuestionType string

const (
	QuestionWhat  QuestionType = "what"
	QuestionWhy   QuestionType = "why"
	QuestionHow   QuestionType = "how"
	QuestionWhen  QuestionType = "when"
	QuestionWhere QuestionType = "where"
	QuestionWho   QuestionType = "who"
	QuestionOther QuestionType = "other"
)

// UserLevel 用户知识水平
type UserLevel string

const (
	LevelBeginner     UserLevel = "beginner"
	LevelIntermediate UserLevel = "intermediate"
	LevelExpert       UserLevel = "expert"
)

// DecisionMode 决策模式类型
type DecisionMode string

const (
	ModeSummary          DecisionMode = "summary"
	ModeRiskAnalysis     DecisionMode = "risk_analysis"
	ModeRevenueAnalysis  DecisionMode = "revenue_analysis"
	ModeClauseExtraction DecisionMode = "clause_extraction"
)

// ValidDecisionMode 检查决策模式是否在固定集合内
func ValidDecisionMode(mode DecisionMode) bool {
	switch mode {
	case ModeSummary, ModeRiskAnalysis, ModeRevenueAnalysis, ModeClauseExtraction:
		return true
	}
	return false
}

// 核心数据模型 ---------------------------------

// Chunk 文档切片，检索的基本单元
// 入库时创建，入库后不可变；随源文档删除而销毁
type Chunk struct {
	ID            string `json:"id"`
	DocumentID    string `json:"documentId"`
	Filename      string `json:"filename"`
	Text          string `json:"text"`
	SequenceIndex int    `json:"sequenceIndex"`
	StartChar     int    `json:"startChar"`
	EndChar       int    `json:"endChar"`
}

// NewChunk 创建新的文档切片
func NewChunk(documentID, filename, text string, sequenceIndex, startChar, endChar int) Chunk {
	return Chunk{
		ID:            uuid.New().String(),
		DocumentID:    documentID,
		Filename:      filename,
		Text:          text,
		SequenceIndex: sequenceIndex,
		StartChar:     startChar,
		EndChar:       endChar,
	}
}

// QueryAnalysis 单次查询的分析结果
// 每次请求生成，请求结束即丢弃，不做持久化
type QueryAnalysis struct {
	RawQuestion   string       `json:"rawQuestion"`
	Intent        IntentType   `json:"intent"`
	QuestionType  QuestionType `json:"questionType"`
	UserLevel     UserLevel    `json:"userLevel"`
	IsConfused    bool         `json:"isConfused"`
	KeyTerms      []string     `json:"keyTerms"`      // 去重后保持首次出现顺序
	ExpandedTerms []string     `json:"expandedTerms"` // 关键词+同义词，有上限
}

// RetrievalPlan 检索计划，由QueryAnalysis确定性推导
type RetrievalPlan struct {
	TopK         int  `json:"topK"`
	UseExpansion bool `json:"useExpansion"`
}

// RetrievedChunk 带相似度评分的检索结果，评分归一化到[0,1]
type RetrievedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// DocumentGroup 同一文档的切片分组，组内按评分降序
type DocumentGroup struct {
	Filename string           `json:"filename"`
	Chunks   []RetrievedChunk `json:"chunks"`
}

// ContextBlock 组装后的上下文块
// 分组顺序为评分排序输入中文档首次出现的顺序，该顺序决定引用编号
type ContextBlock struct {
	Groups     []DocumentGroup `json:"groups"`
	TotalChars int             `json:"totalChars"`
}

// ChunkCount 统计上下文块中保留的切片总数
func (b *ContextBlock) ChunkCount() int {
	count := 0
	for _, g := range b.Groups {
		count += len(g.Chunks)
	}
	return count
}

// IsEmpty 上下文块是否为空
func (b *ContextBlock) IsEmpty() bool {
	return len(b.Groups) == 0
}

// SourceCitation 答案的引用来源
// SourceID从1开始，按文档在ContextBlock中首次出现的顺序分配
type SourceCitation struct {
	SourceID       int     `json:"source_id"`
	Filename       string  `json:"filename"`
	ChunkID        string  `json:"chunk_id"`
	TextPreview    string  `json:"text_preview"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer 带引用的结构化答案
type Answer struct {
	Text     string                 `json:"answer"`
	Sources  []SourceCitation       `json:"sources"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// DecisionData 决策模式的结构化数据
type DecisionData struct {
	Sources        []string `json:"sources"`
	ChunksAnalyzed int      `json:"chunks_analyzed"`
}

// DecisionResult 决策模式的分析结果
type DecisionResult struct {
	Mode           DecisionMode           `json:"mode"`
	Result         string                 `json:"result"`
	StructuredData DecisionData           `json:"structured_data"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// DocumentInfo 用户文档的概要信息
type DocumentInfo struct {
	DocumentID string    `json:"documentId"`
	Filename   string    `json:"filename"`
	UserID     string    `json:"userId"`
	ChunkCount int       `json:"chunkCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}
