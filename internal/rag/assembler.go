package rag

import (
	"sort"

	"github.com/docmind/service/internal/models"
)

// =============================================================================
// 上下文组装
// =============================================================================

// Assembler 上下文组装器
// 将排序后的检索结果去重、按文档分组并裁剪到字符预算内，纯内存计算
type Assembler struct {
	charBudget int
}

// NewAssembler 创建上下文组装器
func NewAssembler(charBudget int) *Assembler {
	if charBudget <= 0 {
		charBudget = 12000
	}
	return &Assembler{charBudget: charBudget}
}

// Assemble 组装上下文块
// 分组顺序为输入中文档首次出现的顺序（输入已按评分降序），该顺序决定引用编号
// 超出预算时从多切片分组中逐个淘汰最低分切片；所有分组只剩一个切片后
// 才允许淘汰整个分组，保证每个命中文档尽量保留至少一个切片
func (a *Assembler) Assemble(ranked []models.RetrievedChunk) models.ContextBlock {
	seen := make(map[string]bool)
	groupIndex := make(map[string]int)
	var groups []models.DocumentGroup

	for _, rc := range ranked {
		if rc.Chunk.ID == "" || seen[rc.Chunk.ID] {
			continue
		}
		seen[rc.Chunk.ID] = true

		idx, exists := groupIndex[rc.Chunk.Filename]
		if !exists {
			idx = len(groups)
			groupIndex[rc.Chunk.Filename] = idx
			groups = append(groups, models.DocumentGroup{Filename: rc.Chunk.Filename})
		}
		groups[idx].Chunks = append(groups[idx].Chunks, rc)
	}

	// 组内按评分降序，平分时按切片ID保证确定性
	for i := range groups {
		chunks := groups[i].Chunks
		sort.Slice(chunks, func(x, y int) bool {
			if chunks[x].Score != chunks[y].Score {
				return chunks[x].Score > chunks[y].Score
			}
			return chunks[x].Chunk.ID < chunks[y].Chunk.ID
		})
	}

	groups = a.trimToBudget(groups)

	block := models.ContextBlock{Groups: groups}
	for _, g := range groups {
		for _, rc := range g.Chunks {
			block.TotalChars += len(rc.Chunk.Text)
		}
	}
	return block
}

// trimToBudget 裁剪到字符预算
func (a *Assembler) trimToBudget(groups []models.DocumentGroup) []models.DocumentGroup {
	total := 0
	for _, g := range groups {
		for _, rc := range g.Chunks {
			total += len(rc.Chunk.Text)
		}
	}

	for total > a.charBudget {
		victim := a.pickVictim(groups, true)
		if victim < 0 {
			// 所有分组都只剩一个切片，退化为淘汰最低分的单切片分组
			victim = a.pickVictim(groups, false)
		}
		if victim < 0 {
			break
		}

		g := &groups[victim]
		last := len(g.Chunks) - 1
		total -= len(g.Chunks[last].Chunk.Text)
		g.Chunks = g.Chunks[:last]

		if len(g.Chunks) == 0 {
			groups = append(groups[:victim], groups[victim+1:]...)
		}
	}

	return groups
}

// pickVictim 选择待淘汰切片所在的分组
// multiOnly为true时只考虑多切片分组；候选为各分组末尾（最低分）切片中评分最低者
func (a *Assembler) pickVictim(groups []models.DocumentGroup, multiOnly bool) int {
	victim := -1
	victimScore := 0.0

	for i, g := range groups {
		if len(g.Chunks) == 0 {
			continue
		}
		if multiOnly && len(g.Chunks) < 2 {
			continue
		}
		tail := g.Chunks[len(g.Chunks)-1]
		if victim < 0 || tail.Score < victimScore {
			victim = i
			victimScore = tail.Score
		}
	}

	return victim
}
