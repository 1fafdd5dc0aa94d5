package nlp

import (
	"reflect"
	"testing"

	"github.com/docmind/service/internal/models"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(nil, nil, 12, 2)
}

func TestAnalyze_ConfusedQuestion(t *testing.T) {
	analyzer := newTestAnalyzer()

	// 场景：困惑表达必须强制beginner并识别为explanatory
	analysis := analyzer.Analyze("I don't understand what EBITDA means")

	if !analysis.IsConfused {
		t.Error("Expected IsConfused to be true")
	}
	if analysis.UserLevel != models.LevelBeginner {
		t.Errorf("Expected user level beginner, got %s", analysis.UserLevel)
	}
	if analysis.Intent != models.IntentExplanatory {
		t.Errorf("Expected intent explanatory, got %s", analysis.Intent)
	}
}

func TestAnalyze_ConfusionOverridesExpertMarkers(t *testing.T) {
	analyzer := newTestAnalyzer()

	// 困惑信号优先于专业标记：即使出现"technical"也必须是beginner
	analysis := analyzer.Analyze("I'm confused about the technical architecture of this framework, clarify please")

	if !analysis.IsConfused {
		t.Fatal("Expected IsConfused to be true")
	}
	if analysis.UserLevel != models.LevelBeginner {
		t.Errorf("Expected beginner despite expert markers, got %s", analysis.UserLevel)
	}
}

func TestAnalyze_CalculativeQuestion(t *testing.T) {
	analyzer := newTestAnalyzer()

	analysis := analyzer.Analyze("What is the profit margin if revenue is 100 and cost is 60?")

	if analysis.Intent != models.IntentCalculative {
		t.Errorf("Expected intent calculative, got %s", analysis.Intent)
	}
	if analysis.QuestionType != models.QuestionWhat {
		t.Errorf("Expected question type what, got %s", analysis.QuestionType)
	}
}

func TestAnalyze_IntentTieBreaking(t *testing.T) {
	analyzer := newTestAnalyzer()

	// "compare"同时出现在analytical和comparative词表的语义域
	// 平票时必须按固定优先级：comparative > analytical
	analysis := analyzer.Analyze("please compare the liability terms")

	if analysis.Intent != models.IntentComparative {
		t.Errorf("Expected intent comparative on tie, got %s", analysis.Intent)
	}
}

func TestAnalyze_QuestionTypes(t *testing.T) {
	analyzer := newTestAnalyzer()

	cases := []struct {
		question string
		expected models.QuestionType
	}{
		{"What is the payment schedule?", models.QuestionWhat},
		{"Why did revenue decline last quarter?", models.QuestionWhy},
		{"How does the termination clause work?", models.QuestionHow},
		{"When is the contract deadline?", models.QuestionWhen},
		{"Where are the offices located?", models.QuestionWhere},
		{"Who signed the agreement?", models.QuestionWho},
		{"List the payment obligations", models.QuestionOther},
	}

	for _, tc := range cases {
		analysis := analyzer.Analyze(tc.question)
		if analysis.QuestionType != tc.expected {
			t.Errorf("Question %q: expected type %s, got %s", tc.question, tc.expected, analysis.QuestionType)
		}
	}
}

func TestAnalyze_UserLevels(t *testing.T) {
	analyzer := newTestAnalyzer()

	cases := []struct {
		question string
		expected models.UserLevel
	}{
		{"Explain the contract in simple terms", models.LevelBeginner},
		{"Give me a detailed technical breakdown of the revenue recognition methodology", models.LevelExpert},
		{"What were the quarterly revenue figures reported for each regional segment?", models.LevelIntermediate},
		{"What is EBITDA?", models.LevelBeginner}, // 短问题+日常词汇
	}

	for _, tc := range cases {
		analysis := analyzer.Analyze(tc.question)
		if analysis.UserLevel != tc.expected {
			t.Errorf("Question %q: expected level %s, got %s", tc.question, tc.expected, analysis.UserLevel)
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	analyzer := newTestAnalyzer()
	question := "Compare the revenue growth and risk exposure across both contracts"

	first := analyzer.Analyze(question)
	second := analyzer.Analyze(question)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Analyze is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAnalyze_EmptyQuestionFallback(t *testing.T) {
	analyzer := newTestAnalyzer()

	analysis := analyzer.Analyze("   ")

	if analysis.Intent != models.IntentFactual {
		t.Errorf("Expected fallback intent factual, got %s", analysis.Intent)
	}
	if analysis.QuestionType != models.QuestionOther {
		t.Errorf("Expected fallback question type other, got %s", analysis.QuestionType)
	}
	if analysis.UserLevel != models.LevelIntermediate {
		t.Errorf("Expected fallback level intermediate, got %s", analysis.UserLevel)
	}
	if analysis.IsConfused {
		t.Error("Expected IsConfused false on empty question")
	}
}

func TestAnalyze_KeyTermExtraction(t *testing.T) {
	analyzer := newTestAnalyzer()

	analysis := analyzer.Analyze("What are the payment obligations in the vendor contract?")

	expected := []string{"payment", "obligations", "vendor", "contract"}
	if !reflect.DeepEqual(analysis.KeyTerms, expected) {
		t.Errorf("Expected key terms %v, got %v", expected, analysis.KeyTerms)
	}
}

func TestAnalyze_KeyTermCap(t *testing.T) {
	lex := DefaultLexicon()
	lex.MaxKeyTerms = 3
	analyzer := NewAnalyzer(lex, DefaultThesaurus(), 12, 2)

	analysis := analyzer.Analyze("revenue profit margin liability exposure termination clause obligations")

	if len(analysis.KeyTerms) != 3 {
		t.Errorf("Expected 3 key terms after cap, got %d: %v", len(analysis.KeyTerms), analysis.KeyTerms)
	}
}

func TestAnalyze_ExpandedTermsCapped(t *testing.T) {
	// 扩展词上限必须约束下游检索开销
	analyzer := NewAnalyzer(nil, nil, 4, 3)

	analysis := analyzer.Analyze("revenue profit risk contract payment growth")

	if len(analysis.ExpandedTerms) > 4 {
		t.Errorf("Expected at most 4 expanded terms, got %d: %v", len(analysis.ExpandedTerms), analysis.ExpandedTerms)
	}
}

func TestAnalyze_ExpansionIncludesSynonyms(t *testing.T) {
	analyzer := newTestAnalyzer()

	analysis := analyzer.Analyze("What is the revenue this year?")

	hasSynonym := false
	for _, term := range analysis.ExpandedTerms {
		if term == "income" || term == "sales" {
			hasSynonym = true
			break
		}
	}
	if !hasSynonym {
		t.Errorf("Expected expanded terms to include a synonym of revenue, got %v", analysis.ExpandedTerms)
	}
}

func TestAnalyze_InjectedLexicon(t *testing.T) {
	// 词表可整体替换，便于测试与配置化
	lex := DefaultLexicon()
	lex.ConfusionPhrases = []string{"totally lost"}
	analyzer := NewAnalyzer(lex, DefaultThesaurus(), 12, 2)

	if analyzer.Analyze("I am totally lost here").IsConfused != true {
		t.Error("Expected custom confusion phrase to trigger")
	}
	if analyzer.Analyze("I am confused").IsConfused {
		t.Error("Expected default phrase to be inactive with custom lexicon")
	}
}
