package rag

import (
	"strings"
	"testing"

	"github.com/docmind/service/internal/models"
)

func sampleBlock() models.ContextBlock {
	return models.ContextBlock{
		Groups: []models.DocumentGroup{
			{
				Filename: "contract.pdf",
				Chunks: []models.RetrievedChunk{
					retrieved("c1", "contract.pdf", "Payment is due within 30 days.", 0.9),
					retrieved("c2", "contract.pdf", "Late payment incurs 2% interest.", 0.7),
				},
			},
			{
				Filename: "report.pdf",
				Chunks: []models.RetrievedChunk{
					retrieved("c3", "report.pdf", "Revenue grew 12% year over year.", 0.8),
				},
			},
		},
		TotalChars: 95,
	}
}

func TestComposer_FormatContextNumbersGroupsInOrder(t *testing.T) {
	composer := NewComposer()

	context := composer.FormatContext(sampleBlock())

	if !strings.Contains(context, "[Source 1 - contract.pdf]") {
		t.Error("Expected first group labeled Source 1")
	}
	if !strings.Contains(context, "[Source 2 - report.pdf]") {
		t.Error("Expected second group labeled Source 2")
	}
	// 同组两个切片共享同一编号
	if strings.Count(context, "[Source 1 - contract.pdf]") != 2 {
		t.Errorf("Expected both contract.pdf chunks under Source 1, context:\n%s", context)
	}
	if strings.Contains(context, "[Source 3") {
		t.Error("Unexpected Source 3 label")
	}
}

func TestComposer_FourFixedSections(t *testing.T) {
	composer := NewComposer()

	prompt := composer.Compose(models.QueryAnalysis{
		RawQuestion: "What are the payment terms?",
		Intent:      models.IntentFactual,
		UserLevel:   models.LevelIntermediate,
	}, sampleBlock())

	sections := []string{"Simple Summary", "Detailed Explanation", "From Documents", "Why It Matters"}
	lastIdx := -1
	for _, section := range sections {
		idx := strings.Index(prompt, section)
		if idx < 0 {
			t.Errorf("Expected section %q in prompt", section)
			continue
		}
		if idx < lastIdx {
			t.Errorf("Section %q out of order", section)
		}
		lastIdx = idx
	}

	if !strings.Contains(prompt, "What are the payment terms?") {
		t.Error("Expected question embedded in prompt")
	}
}

func TestComposer_CalculativeRequiresStepByStep(t *testing.T) {
	composer := NewComposer()

	prompt := composer.Compose(models.QueryAnalysis{
		RawQuestion: "What is the profit margin?",
		Intent:      models.IntentCalculative,
		UserLevel:   models.LevelIntermediate,
	}, sampleBlock())

	if !strings.Contains(prompt, "step-by-step") {
		t.Error("Expected calculative template to demand step-by-step derivation")
	}
	if !strings.Contains(prompt, "FOR CALCULATIONS") {
		t.Error("Expected calculation instruction block")
	}
}

func TestComposer_ConfusionOverridesExpertLevel(t *testing.T) {
	composer := NewComposer()

	prompt := composer.Compose(models.QueryAnalysis{
		RawQuestion: "I don't understand the technical amortization methodology",
		Intent:      models.IntentExplanatory,
		UserLevel:   models.LevelExpert, // 困惑信号必须覆盖专家级指令
		IsConfused:  true,
	}, sampleBlock())

	if !strings.Contains(prompt, "CONFUSED") {
		t.Error("Expected confusion scaffolding in prompt")
	}
	if !strings.Contains(prompt, "beginner-friendly") {
		t.Error("Expected beginner vocabulary instruction")
	}
	if strings.Contains(prompt, "The reader is technical") {
		t.Error("Expert instruction must not appear when confused")
	}
}

func TestComposer_EmptyContextBranch(t *testing.T) {
	composer := NewComposer()

	prompt := composer.Compose(models.QueryAnalysis{
		RawQuestion: "What is EBITDA?",
		Intent:      models.IntentExplanatory,
		UserLevel:   models.LevelBeginner,
	}, models.ContextBlock{})

	if !strings.Contains(prompt, "No relevant content was found") {
		t.Error("Expected no-documents branch")
	}
	if !strings.Contains(prompt, "general knowledge") {
		t.Error("Expected general-knowledge labeling instruction")
	}
	if strings.Contains(prompt, "Simple Summary") {
		t.Error("Four-section structure not expected without document context")
	}
}

func TestComposer_DecisionTemplates(t *testing.T) {
	composer := NewComposer()
	block := sampleBlock()

	cases := []struct {
		mode     models.DecisionMode
		required string
	}{
		{models.ModeSummary, "executive summary"},
		{models.ModeRiskAnalysis, "Mitigation"},
		{models.ModeRevenueAnalysis, "Revenue trends"},
		{models.ModeClauseExtraction, "Clause type"},
	}

	for _, tc := range cases {
		prompt := composer.ComposeDecision(tc.mode, "analyze this", block)
		if !strings.Contains(prompt, tc.required) {
			t.Errorf("Mode %s: expected %q in template", tc.mode, tc.required)
		}
		if !strings.Contains(prompt, "analyze this") {
			t.Errorf("Mode %s: expected query embedded", tc.mode)
		}
		// 决策模式不带引用编号
		if strings.Contains(prompt, "[Source") {
			t.Errorf("Mode %s: decision context must not carry citation labels", tc.mode)
		}
	}
}

func TestComposer_DecisionContextCarriesFilenames(t *testing.T) {
	composer := NewComposer()

	prompt := composer.ComposeDecision(models.ModeSummary, "summarize", sampleBlock())

	if !strings.Contains(prompt, "[contract.pdf]") || !strings.Contains(prompt, "[report.pdf]") {
		t.Error("Expected filename markers in decision context")
	}
}
