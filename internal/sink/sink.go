// Package sink persists tabular datasets produced by an export run.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
)

// Dataset 描述一份表格输出：文件名（不含扩展名）与固定列。
type Dataset struct {
	Name    string
	Columns []string
}

var (
	PolicyConditions    = Dataset{Name: domain.DatasetPolicyConditions, Columns: domain.PolicyConditionColumns}
	ChannelDestinations = Dataset{Name: domain.DatasetChannelDestination, Columns: domain.ChannelColumns}
	WorkflowEnrichment  = Dataset{Name: domain.DatasetWorkflowEnrichment, Columns: domain.OutputColumns}
)

// RecordSink 接收一份完整的数据集，实现需要保证写入要么完整成功要么不留下半成品。
type RecordSink interface {
	Name() string
	WriteRecords(ctx context.Context, ds Dataset, records [][]string) error
}

func checkWidth(ds Dataset, records [][]string) error {
	for i, rec := range records {
		if len(rec) != len(ds.Columns) {
			return fmt.Errorf("dataset %s row %d: expected %d fields, got %d", ds.Name, i+1, len(ds.Columns), len(rec))
		}
	}
	return nil
}

// MemorySink 将数据集保存在内存中，用于测试与 dry-run。
type MemorySink struct {
	mu       sync.Mutex
	datasets map[string][][]string
}

// NewMemorySink 创建空的 MemorySink。
func NewMemorySink() *MemorySink {
	return &MemorySink{datasets: make(map[string][][]string)}
}

func (s *MemorySink) Name() string { return "memory" }

// WriteRecords 保存记录副本，同名数据集会被覆盖。
func (s *MemorySink) WriteRecords(ctx context.Context, ds Dataset, records [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkWidth(ds, records); err != nil {
		return err
	}
	cp := make([][]string, len(records))
	for i, rec := range records {
		cp[i] = append([]string(nil), rec...)
	}
	s.mu.Lock()
	s.datasets[ds.Name] = cp
	s.mu.Unlock()
	return nil
}

// Records 返回已写入的数据集，不存在时 ok 为 false。
func (s *MemorySink) Records(name string) ([][]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, ok := s.datasets[name]
	return recs, ok
}
