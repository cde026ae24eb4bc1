package loader

import (
	"context"
	"fmt"
	"sync"

	"github.com/ksumesh431/new-relic-graphql/internal/cypher"
)

// RawRunner 执行自动提交语句。
type RawRunner interface {
	RunRaw(ctx context.Context, query string, params map[string]any) error
}

// SchemaManager 负责初始化约束和索引，每个进程只成功执行一次。
type SchemaManager struct {
	client RawRunner

	mu   sync.Mutex
	done bool
}

func NewSchemaManager(client RawRunner) *SchemaManager {
	return &SchemaManager{client: client}
}

func (m *SchemaManager) Ensure(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.done {
		return nil
	}
	for _, query := range cypher.Statements("init_schema.cql") {
		if err := m.client.RunRaw(ctx, query, nil); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	m.done = true
	return nil
}
