package rag

import (
	"fmt"
	"strings"

	"github.com/docmind/service/internal/models"
)

// =============================================================================
// Prompt组装 - 按意图/用户水平/困惑信号选择指令模板
// =============================================================================

// Composer Prompt组装器，纯函数，不做任何IO
type Composer struct{}

// NewComposer 创建Prompt组装器
func NewComposer() *Composer {
	return &Composer{}
}

// systemPrompt 常规问答的系统提示
const systemPrompt = "You are a helpful assistant that answers questions based on the provided document context."

// SystemPrompt 返回常规模式的系统提示
func (c *Composer) SystemPrompt() string {
	return systemPrompt
}

// FormatContext 将上下文块渲染为文档分组文本
// 引用编号按文档分组顺序分配，从1开始；组内全部切片共享同一编号
func (c *Composer) FormatContext(block models.ContextBlock) string {
	var sb strings.Builder

	for i, group := range block.Groups {
		sourceID := i + 1
		sb.WriteString(fmt.Sprintf("\n=== Document: %s ===\n", group.Filename))
		for _, rc := range group.Chunks {
			sb.WriteString(fmt.Sprintf("[Source %d - %s]\n%s\n\n", sourceID, group.Filename, rc.Chunk.Text))
		}
	}

	return sb.String()
}

// Compose 组装常规模式的Prompt
// 模板由(intent, is_confused)决定；上下文为空时切换到无文档分支
func (c *Composer) Compose(analysis models.QueryAnalysis, block models.ContextBlock) string {
	if block.IsEmpty() {
		return c.composeWithoutContext(analysis)
	}

	var sb strings.Builder

	sb.WriteString("Context from documents:\n")
	sb.WriteString(c.FormatContext(block))
	sb.WriteString("\nQuestion: ")
	sb.WriteString(analysis.RawQuestion)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("1. Answer the question using ONLY the information from the context above.\n")
	sb.WriteString("2. If the context doesn't contain enough information, say so clearly.\n")
	sb.WriteString("3. Be specific and cite which source (Source 1, Source 2, etc.) you're using.\n")
	sb.WriteString("4. If you're not sure, say \"I'm not certain, but based on the documents...\"\n")

	sb.WriteString(c.intentInstructions(analysis))
	sb.WriteString(c.audienceInstructions(analysis))
	sb.WriteString(c.sectionInstructions())

	sb.WriteString("\nAnswer:")
	return sb.String()
}

// intentInstructions 意图相关的附加指令
func (c *Composer) intentInstructions(analysis models.QueryAnalysis) string {
	switch analysis.Intent {
	case models.IntentCalculative:
		return `5. FOR CALCULATIONS:
   - First, identify ALL relevant numbers from the context
   - Extract the numbers clearly and name the source each number came from
   - Perform the calculation step-by-step
   - Show your work: "Calculation: (Y / X) x 100 = Z%"
   - If numbers come from different sources, combine them and cite every source used
   - Verify the calculation before answering
`
	case models.IntentAnalytical, models.IntentComparative:
		return `5. FOR ANALYSIS AND COMPARISON:
   - Read through ALL provided sources carefully
   - Look for relationships between different pieces of information
   - Connect information from multiple sources if needed
   - Provide reasoning for your answer and cite each source you draw on
`
	case models.IntentExplanatory:
		return `5. FOR EXPLANATIONS:
   - Define the concept before elaborating on it
   - Build from the general idea to the document-specific details
`
	}
	return ""
}

// audienceInstructions 受众相关的附加指令
// 困惑信号优先：无论user_level如何都注入初学者措辞要求
func (c *Composer) audienceInstructions(analysis models.QueryAnalysis) string {
	if analysis.IsConfused {
		return `6. THE READER IS CONFUSED about this topic:
   - Use beginner-friendly vocabulary, no jargon without a one-line definition
   - Use a short everyday analogy if it helps
   - Break the explanation into small steps
`
	}

	switch analysis.UserLevel {
	case models.LevelBeginner:
		return "6. Use simple, beginner-friendly language and define any technical terms.\n"
	case models.LevelExpert:
		return "6. The reader is technical; keep precision and include specific figures and terms from the documents.\n"
	}
	return ""
}

// sectionInstructions 固定的四段式输出结构
func (c *Composer) sectionInstructions() string {
	return `
Structure your answer with exactly these four labeled sections, in this order:
1. Simple Summary - a two or three sentence plain-language answer
2. Detailed Explanation - the full reasoning and relevant details
3. From Documents - the supporting evidence, each point citing its source as [Source N]
4. Why It Matters - the practical significance of the answer
`
}

// composeWithoutContext 无文档内容时的模板分支
// 不是错误路径：提示模型基于常识作答，并明确声明答案不来自用户文档
func (c *Composer) composeWithoutContext(analysis models.QueryAnalysis) string {
	var sb strings.Builder

	sb.WriteString("No relevant content was found in the user's uploaded documents for this question.\n\n")
	sb.WriteString("Question: ")
	sb.WriteString(analysis.RawQuestion)
	sb.WriteString("\n\nInstructions:\n")
	sb.WriteString("1. State clearly at the start that the uploaded documents contain no relevant information for this question.\n")
	sb.WriteString("2. Answer from general knowledge only, and label the answer as general knowledge, not document content.\n")
	sb.WriteString("3. Do not fabricate citations or refer to any document source.\n")

	if analysis.IsConfused || analysis.UserLevel == models.LevelBeginner {
		sb.WriteString("4. Use simple, beginner-friendly language and define any technical terms.\n")
	}

	sb.WriteString("\nAnswer:")
	return sb.String()
}

// =============================================================================
// 决策模式模板 - 固定模板，不做意图/用户水平适配
// =============================================================================

// ComposeDecision 组装决策模式的Prompt
// 模板由mode唯一确定；调用方必须先校验mode合法性
func (c *Composer) ComposeDecision(mode models.DecisionMode, query string, block models.ContextBlock) string {
	context := c.formatDecisionContext(block)

	switch mode {
	case models.ModeRiskAnalysis:
		return fmt.Sprintf(`Analyze the following document context and identify all risks, liabilities, and potential issues.

Context:
%s
Query: %s

Provide a structured analysis with:
1. List of identified risks (with severity: High/Medium/Low)
2. Description of each risk
3. Affected parties or areas
4. Potential impact
5. Mitigation recommendations for each risk

Format your response clearly with numbered items.`, context, query)

	case models.ModeRevenueAnalysis:
		return fmt.Sprintf(`Analyze the following document context for revenue trends, financial performance, and business metrics.

Context:
%s
Query: %s

Provide a structured analysis with:
1. Revenue trends (increasing/decreasing/stable)
2. Key factors affecting revenue
3. Specific numbers or percentages mentioned
4. Time periods covered
5. Recommendations or insights

Format your response clearly with numbered items.`, context, query)

	case models.ModeClauseExtraction:
		return fmt.Sprintf(`Extract all legal clauses, obligations, deadlines, and important terms from the following document context.

Context:
%s
Query: %s

Provide a structured extraction with:
1. Clause type (e.g., Payment Terms, Termination, Liability, etc.)
2. Description of the clause
3. Parties involved
4. Deadlines or dates (if any)
5. Key obligations or requirements

Format your response clearly with numbered items.`, context, query)

	default: // ModeSummary
		return fmt.Sprintf(`Provide a comprehensive executive summary of the following document context.

Context:
%s
Query: %s

Create a summary that includes:
1. Main topics and themes
2. Key points and findings
3. Important numbers or statistics
4. Conclusions or recommendations
5. Action items (if any)

Format your response clearly with numbered sections.`, context, query)
	}
}

// formatDecisionContext 决策模式的上下文渲染：仅标注文件名，不带引用编号
func (c *Composer) formatDecisionContext(block models.ContextBlock) string {
	var sb strings.Builder
	for _, group := range block.Groups {
		for _, rc := range group.Chunks {
			sb.WriteString(fmt.Sprintf("[%s]\n%s\n\n", group.Filename, rc.Chunk.Text))
		}
	}
	return sb.String()
}
