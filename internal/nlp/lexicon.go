package nlp

import "github.com/docmind/service/internal/models"

// Lexicon 查询分析词表
// 以注入配置的形式提供，便于测试替换；不做包级全局常量
type Lexicon struct {
	// IntentKeywords 各意图类型的触发关键词
	IntentKeywords map[models.IntentType][]string

	// IntentPriority 意图平票时的固定优先级，靠前者胜出
	IntentPriority []models.IntentType

	// QuestionWords 疑问词到问题类型的映射
	QuestionWords map[string]models.QuestionType

	// ConfusionPhrases 困惑信号短语集合，命中则强制beginner
	ConfusionPhrases []string

	// BeginnerMarkers 简化表达标记
	BeginnerMarkers []string

	// ExpertMarkers 专业术语/深度要求标记
	ExpertMarkers []string

	// StopWords 关键词提取时过滤的停用词
	StopWords map[string]bool

	// ShortQuestionWords 词数不超过该值且无专业标记的问题视为beginner
	ShortQuestionWords int

	// MaxKeyTerms 关键词数量上限
	MaxKeyTerms int
}

// DefaultLexicon 创建默认词表
// 具体词条属于启发式配置而非行为规范，调用方可整体替换
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		IntentKeywords: map[models.IntentType][]string{
			models.IntentExplanatory: {
				"explain", "explanation", "understand", "meaning", "means",
				"define", "definition", "what is", "what does", "tell me about",
				"help me understand", "clarify",
			},
			models.IntentAnalytical: {
				"analyze", "analysis", "compare", "comparison", "relationship",
				"correlation", "impact", "effect", "influence", "trend", "pattern", "risk",
			},
			models.IntentCalculative: {
				"calculate", "compute", "ratio", "percentage", "margin",
				"profit", "revenue", "divide", "multiply", "sum", "total", "average",
			},
			models.IntentComparative: {
				"compare", "comparison", "versus", "vs", "difference",
				"similar", "better", "worse", "more than", "less than",
			},
			models.IntentFactual: {
				"what", "who", "when", "where", "which", "list", "name", "show",
			},
		},
		IntentPriority: []models.IntentType{
			models.IntentCalculative,
			models.IntentComparative,
			models.IntentAnalytical,
			models.IntentExplanatory,
			models.IntentFactual,
		},
		QuestionWords: map[string]models.QuestionType{
			"what":   models.QuestionWhat,
			"why":    models.QuestionWhy,
			"how":    models.QuestionHow,
			"when":   models.QuestionWhen,
			"where":  models.QuestionWhere,
			"who":    models.QuestionWho,
			"what's": models.QuestionWhat,
		},
		ConfusionPhrases: []string{
			"confused", "confusing", "don't understand", "dont understand",
			"don't know", "not clear", "unclear", "can't understand",
			"doesn't make sense", "clarify", "simplify",
		},
		BeginnerMarkers: []string{
			"in simple terms", "explain like", "basic", "basics", "simple",
			"easy", "beginner", "introduction", "overview", "layman",
		},
		ExpertMarkers: []string{
			"detailed", "technical", "implementation", "architecture",
			"methodology", "framework", "optimization", "algorithm",
		},
		StopWords: map[string]bool{
			"the": true, "a": true, "an": true, "is": true, "are": true,
			"was": true, "were": true, "be": true, "been": true, "being": true,
			"have": true, "has": true, "had": true, "do": true, "does": true,
			"did": true, "will": true, "would": true, "should": true,
			"could": true, "may": true, "might": true, "must": true, "can": true,
			"this": true, "that": true, "these": true, "those": true,
			"i": true, "you": true, "he": true, "she": true, "it": true,
			"we": true, "they": true, "what": true, "which": true, "who": true,
			"when": true, "where": true, "why": true, "how": true,
			"and": true, "or": true, "but": true, "if": true, "then": true,
			"else": true, "for": true, "not": true, "with": true,
		},
		ShortQuestionWords: 6,
		MaxKeyTerms:        5,
	}
}
