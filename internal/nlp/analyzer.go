package nlp

import (
	"regexp"
	"strings"

	"github.com/docmind/service/internal/models"
)

// Analyzer 查询分析器
// 纯启发式规则分析：意图分类、疑问词识别、用户水平判断、困惑检测、关键词扩展
// 同一问题的分析结果完全确定，不依赖任何共享可变状态
type Analyzer struct {
	lex                *Lexicon
	thesaurus          Thesaurus
	maxExpandedTerms   int
	maxSynonymsPerTerm int

	wordPattern     *regexp.Regexp
	confusionSuffix *regexp.Regexp
}

// NewAnalyzer 创建查询分析器
// lexicon或thesaurus为nil时使用内置默认值
func NewAnalyzer(lex *Lexicon, thesaurus Thesaurus, maxExpandedTerms, maxSynonymsPerTerm int) *Analyzer {
	if lex == nil {
		lex = DefaultLexicon()
	}
	if thesaurus == nil {
		thesaurus = DefaultThesaurus()
	}
	if maxExpandedTerms <= 0 {
		maxExpandedTerms = 12
	}
	if maxSynonymsPerTerm <= 0 {
		maxSynonymsPerTerm = 2
	}
	return &Analyzer{
		lex:                lex,
		thesaurus:          thesaurus,
		maxExpandedTerms:   maxExpandedTerms,
		maxSynonymsPerTerm: maxSynonymsPerTerm,
		wordPattern:        regexp.MustCompile(`[a-zA-Z0-9']+`),
		// "what does ... mean" 形式的困惑表达
		confusionSuffix: regexp.MustCompile(`what\s+does\s+.+\s+means?\b`),
	}
}

// Analyze 分析问题，永不失败
// 无法分类时回退为 factual/other/intermediate/非困惑
func (a *Analyzer) Analyze(question string) models.QueryAnalysis {
	analysis := models.QueryAnalysis{
		RawQuestion:  question,
		Intent:       models.IntentFactual,
		QuestionType: models.QuestionOther,
		UserLevel:    models.LevelIntermediate,
	}

	lower := strings.ToLower(strings.TrimSpace(question))
	if lower == "" {
		return analysis
	}
	words := a.wordPattern.FindAllString(lower, -1)

	analysis.Intent = a.detectIntent(lower)
	analysis.QuestionType = a.detectQuestionType(words)
	analysis.IsConfused = a.detectConfusion(lower)
	analysis.UserLevel = a.detectUserLevel(lower, words)

	// 困惑信号强制beginner，优先于专业标记判断
	if analysis.IsConfused {
		analysis.UserLevel = models.LevelBeginner
	}

	analysis.KeyTerms = a.extractKeyTerms(words)
	analysis.ExpandedTerms = a.expandTerms(analysis.KeyTerms)

	return analysis
}

// detectIntent 意图分类：按关键词命中数打分
// 平票按固定优先级 calculative > comparative > analytical > explanatory > factual
func (a *Analyzer) detectIntent(question string) models.IntentType {
	best := models.IntentFactual
	bestScore := 0

	for _, intent := range a.lex.IntentPriority {
		score := 0
		for _, keyword := range a.lex.IntentKeywords[intent] {
			if containsKeyword(question, keyword) {
				score++
			}
		}
		// 按优先级顺序遍历，只有严格更高的分数才能取代先到者
		if score > bestScore {
			best = intent
			bestScore = score
		}
	}

	if bestScore == 0 {
		return models.IntentFactual
	}
	return best
}

// detectQuestionType 识别第一个命中的疑问词
func (a *Analyzer) detectQuestionType(words []string) models.QuestionType {
	for _, w := range words {
		if qt, ok := a.lex.QuestionWords[w]; ok {
			return qt
		}
	}
	return models.QuestionOther
}

// detectConfusion 检测困惑信号
func (a *Analyzer) detectConfusion(question string) bool {
	for _, phrase := range a.lex.ConfusionPhrases {
		if strings.Contains(question, phrase) {
			return true
		}
	}
	return a.confusionSuffix.MatchString(question)
}

// detectUserLevel 判断用户知识水平
func (a *Analyzer) detectUserLevel(question string, words []string) models.UserLevel {
	for _, marker := range a.lex.BeginnerMarkers {
		if containsKeyword(question, marker) {
			return models.LevelBeginner
		}
	}

	for _, marker := range a.lex.ExpertMarkers {
		if containsKeyword(question, marker) {
			return models.LevelExpert
		}
	}

	// 短问题且用词平实，按beginner处理
	if len(words) <= a.lex.ShortQuestionWords && a.allCommonVocabulary(words) {
		return models.LevelBeginner
	}

	return models.LevelIntermediate
}

// allCommonVocabulary 判断是否全部为日常词汇（无长词/术语形态）
func (a *Analyzer) allCommonVocabulary(words []string) bool {
	for _, w := range words {
		if len(w) > 8 && !a.lex.StopWords[w] {
			return false
		}
	}
	return true
}

// extractKeyTerms 提取关键词：过滤停用词和过短词，去重保序，限量
func (a *Analyzer) extractKeyTerms(words []string) []string {
	seen := make(map[string]bool)
	var terms []string

	for _, w := range words {
		w = strings.Trim(w, "'")
		if len(w) <= 2 || a.lex.StopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, w)
		if len(terms) >= a.lex.MaxKeyTerms {
			break
		}
	}

	return terms
}

// expandTerms 扩展词集合 = 关键词 ∪ 同义词，上限maxExpandedTerms
// 用于限制下游多次检索的开销
func (a *Analyzer) expandTerms(keyTerms []string) []string {
	seen := make(map[string]bool)
	var expanded []string

	add := func(term string) bool {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			return true
		}
		if len(expanded) >= a.maxExpandedTerms {
			return false
		}
		seen[term] = true
		expanded = append(expanded, term)
		return true
	}

	for _, t := range keyTerms {
		if !add(t) {
			return expanded
		}
	}

	for _, t := range keyTerms {
		syns := a.thesaurus.Synonyms(t)
		if len(syns) > a.maxSynonymsPerTerm {
			syns = syns[:a.maxSynonymsPerTerm]
		}
		for _, s := range syns {
			if !add(s) {
				return expanded
			}
		}
	}

	return expanded
}

// containsKeyword 单词边界敏感的关键词匹配
// 多词短语直接子串匹配；单词要求完整词边界，避免"vs"误中"versus"之类
func containsKeyword(text, keyword string) bool {
	if strings.ContainsRune(keyword, ' ') {
		return strings.Contains(text, keyword)
	}

	idx := 0
	for {
		pos := strings.Index(text[idx:], keyword)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(keyword)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end == len(text) || !isWordChar(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
