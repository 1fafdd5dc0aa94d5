package nlp

import "strings"

// Thesaurus 同义词查询能力
// 外部NLP能力的抽象，要求是输入文本的纯函数
type Thesaurus interface {
	// Synonyms 返回词项的同义词，调用方负责截断数量
	Synonyms(term string) []string
}

// StaticThesaurus 内置静态同义词表
// 覆盖财务/商务文档的高频词项，查不到返回空
type StaticThesaurus struct {
	entries map[string][]string
}

// NewStaticThesaurus 创建静态同义词表
func NewStaticThesaurus(entries map[string][]string) *StaticThesaurus {
	if entries == nil {
		entries = map[string][]string{}
	}
	return &StaticThesaurus{entries: entries}
}

// DefaultThesaurus 创建默认的商务文档同义词表
func DefaultThesaurus() *StaticThesaurus {
	return NewStaticThesaurus(map[string][]string{
		"revenue":     {"income", "sales", "turnover"},
		"profit":      {"earnings", "margin", "surplus"},
		"cost":        {"expense", "expenditure", "spending"},
		"risk":        {"liability", "exposure", "threat"},
		"contract":    {"agreement", "clause", "terms"},
		"deadline":    {"due date", "timeline"},
		"payment":     {"remittance", "settlement"},
		"growth":      {"increase", "expansion"},
		"decline":     {"decrease", "drop", "reduction"},
		"customer":    {"client", "buyer"},
		"employee":    {"staff", "personnel"},
		"termination": {"cancellation", "expiry"},
		"obligation":  {"duty", "requirement"},
		"forecast":    {"projection", "outlook"},
		"asset":       {"holding", "property"},
		"debt":        {"liability", "borrowing"},
		"ebitda":      {"operating profit", "earnings"},
		"summary":     {"overview", "abstract"},
	})
}

// Synonyms 返回词项的同义词副本
func (t *StaticThesaurus) Synonyms(term string) []string {
	syns, ok := t.entries[strings.ToLower(term)]
	if !ok {
		return nil
	}
	out := make([]string, len(syns))
	copy(out, syns)
	return out
}
