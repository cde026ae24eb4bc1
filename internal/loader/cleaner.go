package loader

import (
	"context"
	"fmt"

	"github.com/ksumesh431/new-relic-graphql/internal/cypher"
)

// Cleaner 删除本轮未出现的关系和节点。
type Cleaner struct {
	client Writer
}

func NewCleaner(client Writer) *Cleaner {
	return &Cleaner{client: client}
}

// DeleteStale 删除 last_seen_run_id 早于 runID 的关系，再删除节点。
// run id 为 UTC 时间戳格式，字典序即时间序。
func (c *Cleaner) DeleteStale(ctx context.Context, runID string) error {
	for _, query := range cypher.Statements("delete_stale.cql") {
		if err := c.client.RunWrite(ctx, query, map[string]any{"run_id": runID}); err != nil {
			return fmt.Errorf("delete stale graph objects: %w", err)
		}
	}
	return nil
}
