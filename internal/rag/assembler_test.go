package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/docmind/service/internal/models"
)

func retrieved(id, filename, text string, score float64) models.RetrievedChunk {
	return models.RetrievedChunk{
		Chunk: models.Chunk{ID: id, DocumentID: "doc-" + filename, Filename: filename, Text: text},
		Score: score,
	}
}

func TestAssembler_GroupsByFirstAppearance(t *testing.T) {
	assembler := NewAssembler(12000)

	// 输入已按评分降序：b.pdf首个出现，分组顺序必须是 b.pdf, a.pdf
	block := assembler.Assemble([]models.RetrievedChunk{
		retrieved("c1", "b.pdf", "text1", 0.9),
		retrieved("c2", "a.pdf", "text2", 0.8),
		retrieved("c3", "b.pdf", "text3", 0.7),
	})

	if len(block.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(block.Groups))
	}
	if block.Groups[0].Filename != "b.pdf" || block.Groups[1].Filename != "a.pdf" {
		t.Errorf("Expected group order [b.pdf a.pdf], got [%s %s]",
			block.Groups[0].Filename, block.Groups[1].Filename)
	}
	if len(block.Groups[0].Chunks) != 2 {
		t.Errorf("Expected 2 chunks in b.pdf group, got %d", len(block.Groups[0].Chunks))
	}
}

func TestAssembler_DeduplicatesByChunkID(t *testing.T) {
	assembler := NewAssembler(12000)

	block := assembler.Assemble([]models.RetrievedChunk{
		retrieved("c1", "a.pdf", "text", 0.9),
		retrieved("c1", "a.pdf", "text", 0.5),
	})

	if block.ChunkCount() != 1 {
		t.Errorf("Expected duplicate chunk to be dropped, got %d chunks", block.ChunkCount())
	}
}

func TestAssembler_InGroupScoreOrder(t *testing.T) {
	assembler := NewAssembler(12000)

	block := assembler.Assemble([]models.RetrievedChunk{
		retrieved("c1", "a.pdf", "low", 0.3),
		retrieved("c2", "a.pdf", "high", 0.9),
		retrieved("c3", "a.pdf", "mid", 0.6),
	})

	chunks := block.Groups[0].Chunks
	if chunks[0].Score != 0.9 || chunks[1].Score != 0.6 || chunks[2].Score != 0.3 {
		t.Errorf("Expected in-group descending scores, got %f %f %f",
			chunks[0].Score, chunks[1].Score, chunks[2].Score)
	}
}

func TestAssembler_TotalChars(t *testing.T) {
	assembler := NewAssembler(12000)

	block := assembler.Assemble([]models.RetrievedChunk{
		retrieved("c1", "a.pdf", "12345", 0.9),
		retrieved("c2", "b.pdf", "123", 0.8),
	})

	if block.TotalChars != 8 {
		t.Errorf("Expected TotalChars 8, got %d", block.TotalChars)
	}
}

func TestAssembler_BudgetEvictsLowestScoredFromMultiChunkGroups(t *testing.T) {
	// 预算只够3个切片：必须先从多切片分组淘汰最低分，而不是清空某个文档
	assembler := NewAssembler(30)

	block := assembler.Assemble([]models.RetrievedChunk{
		retrieved("a1", "a.pdf", strings.Repeat("x", 10), 0.9),
		retrieved("a2", "a.pdf", strings.Repeat("x", 10), 0.5),
		retrieved("a3", "a.pdf", strings.Repeat("x", 10), 0.2),
		retrieved("b1", "b.pdf", strings.Repeat("y", 10), 0.8),
	})

	if block.TotalChars > 30 {
		t.Errorf("Expected budget respected, got %d chars", block.TotalChars)
	}
	if len(block.Groups) != 2 {
		t.Fatalf("Expected both documents retained, got %d groups", len(block.Groups))
	}
	// a.pdf淘汰了最低分的a3
	for _, rc := range block.Groups[0].Chunks {
		if rc.Chunk.ID == "a3" {
			t.Error("Expected lowest-scored chunk a3 to be evicted")
		}
	}
	if len(block.Groups[1].Chunks) != 1 {
		t.Errorf("Expected single-chunk group b.pdf untouched, got %d chunks", len(block.Groups[1].Chunks))
	}
}

func TestAssembler_FairnessAcrossSkewedScores(t *testing.T) {
	// 性质检验：1~5个文档、评分偏斜，只要预算允许每个文档至少保留一个切片，
	// 任何命中文档都不得被完全挤出
	for docs := 1; docs <= 5; docs++ {
		var ranked []models.RetrievedChunk
		for d := 0; d < docs; d++ {
			filename := fmt.Sprintf("doc%d.pdf", d)
			// 第一个文档评分远高于其余文档
			base := 0.9 - float64(d)*0.15
			for c := 0; c < 4; c++ {
				id := fmt.Sprintf("d%dc%d", d, c)
				ranked = append(ranked, retrieved(id, filename, strings.Repeat("x", 100), base-float64(c)*0.01))
			}
		}

		budget := docs * 150 // 每个文档能放下1个切片，放不下4个
		block := NewAssembler(budget).Assemble(ranked)

		if len(block.Groups) != docs {
			t.Errorf("docs=%d: expected all %d documents represented, got %d groups",
				docs, docs, len(block.Groups))
		}
		if block.TotalChars > budget {
			t.Errorf("docs=%d: budget exceeded: %d > %d", docs, block.TotalChars, budget)
		}
		for _, g := range block.Groups {
			if len(g.Chunks) == 0 {
				t.Errorf("docs=%d: group %s left empty", docs, g.Filename)
			}
		}
	}
}

func TestAssembler_EmptyInput(t *testing.T) {
	block := NewAssembler(12000).Assemble(nil)

	if !block.IsEmpty() {
		t.Error("Expected empty block for nil input")
	}
	if block.TotalChars != 0 {
		t.Errorf("Expected 0 chars, got %d", block.TotalChars)
	}
}
