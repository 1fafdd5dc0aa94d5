package chunker

import (
	"strings"

	"github.com/docmind/service/internal/models"
)

// Chunker 文档切片器
// 固定窗口+重叠的切片策略，保证相邻切片共享边界内容
type Chunker struct {
	size    int // 单个切片的最大字符数
	overlap int // 相邻切片的重叠字符数
}

// NewChunker 创建切片器，overlap必须小于size
func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split 将文档文本切分为带偏移量的切片序列
// 空白文本返回nil；切片按SequenceIndex递增，StartChar/EndChar为原文偏移
func (c *Chunker) Split(documentID, filename, text string) []models.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []models.Chunk
	start := 0
	index := 0

	for start < len(text) {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, models.NewChunk(documentID, filename, text[start:end], index, start, end))
		index++

		if end == len(text) {
			break
		}
		start = end - c.overlap
	}

	return chunks
}
