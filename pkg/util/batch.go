package util

import (
	"iter"
	"slices"
)

// Batch 按 size 切分写入批次；size <= 0 时整体作为一批，空切片不产生批次。
// 返回的子切片与 items 共享底层数组，调用方不应修改。
func Batch[T any](items []T, size int) iter.Seq[[]T] {
	if size <= 0 {
		size = max(len(items), 1)
	}
	return slices.Chunk(items, size)
}
