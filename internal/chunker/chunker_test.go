package chunker

import (
	"strings"
	"testing"
)

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	chunker := NewChunker(1000, 200)

	chunks := chunker.Split("doc-1", "a.txt", "short document text")

	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].StartChar != 0 || chunks[0].EndChar != 19 {
		t.Errorf("Unexpected offsets: %d-%d", chunks[0].StartChar, chunks[0].EndChar)
	}
	if chunks[0].Filename != "a.txt" || chunks[0].DocumentID != "doc-1" {
		t.Error("Expected document identity carried into chunk")
	}
}

func TestSplit_OverlapBetweenChunks(t *testing.T) {
	chunker := NewChunker(100, 20)
	text := strings.Repeat("x", 250)

	chunks := chunker.Split("doc-1", "a.txt", text)

	if len(chunks) < 3 {
		t.Fatalf("Expected at least 3 chunks, got %d", len(chunks))
	}
	// 相邻切片必须重叠20个字符
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartChar != chunks[i-1].EndChar-20 {
			t.Errorf("Chunk %d: expected start %d, got %d", i, chunks[i-1].EndChar-20, chunks[i].StartChar)
		}
	}
	if chunks[len(chunks)-1].EndChar != 250 {
		t.Errorf("Expected last chunk to end at 250, got %d", chunks[len(chunks)-1].EndChar)
	}
}

func TestSplit_SequenceIndexesIncrement(t *testing.T) {
	chunker := NewChunker(50, 10)
	chunks := chunker.Split("doc-1", "a.txt", strings.Repeat("y", 200))

	for i, chunk := range chunks {
		if chunk.SequenceIndex != i {
			t.Errorf("Chunk %d: expected sequence index %d, got %d", i, i, chunk.SequenceIndex)
		}
		if chunk.ID == "" {
			t.Errorf("Chunk %d: expected generated ID", i)
		}
	}
}

func TestSplit_EmptyText(t *testing.T) {
	chunker := NewChunker(1000, 200)

	if chunks := chunker.Split("doc-1", "a.txt", "   \n  "); chunks != nil {
		t.Errorf("Expected nil for blank text, got %d chunks", len(chunks))
	}
}

func TestNewChunker_InvalidOverlapFallsBack(t *testing.T) {
	// overlap >= size 会导致死循环，必须回退
	chunker := NewChunker(100, 100)
	chunks := chunker.Split("doc-1", "a.txt", strings.Repeat("z", 300))

	if len(chunks) == 0 || len(chunks) > 10 {
		t.Errorf("Expected sane chunk count with corrected overlap, got %d", len(chunks))
	}
}
