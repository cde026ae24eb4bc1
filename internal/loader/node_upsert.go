package loader

import (
	"context"
	"fmt"
	"sort"

	"github.com/ksumesh431/new-relic-graphql/internal/cypher"
	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/pkg/util"
)

// Writer 是 Client 的写接口，便于测试替换。
type Writer interface {
	RunWrite(ctx context.Context, query string, params map[string]any) error
}

// NodeUpserter 负责批量写入节点，同一组标签共用一条 MERGE 语句。
type NodeUpserter struct {
	client    Writer
	batchSize int
}

// NewNodeUpserter 创建节点 upsert 器，batchSize 默认 100。
func NewNodeUpserter(client Writer, batchSize int) *NodeUpserter {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &NodeUpserter{client: client, batchSize: batchSize}
}

// UpsertNodes 按标签分组后分批 MERGE。
func (u *NodeUpserter) UpsertNodes(ctx context.Context, rows []domain.NodeRow) error {
	if len(rows) == 0 {
		return nil
	}
	grouped := make(map[string][]domain.NodeRow)
	patterns := make(map[string]string)
	for _, row := range rows {
		key := domain.JoinLabels(row.Labels)
		grouped[key] = append(grouped[key], row)
		if _, ok := patterns[key]; !ok {
			patterns[key] = domain.LabelPattern(row.Labels)
		}
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		query := cypher.MustTemplate("upsert_nodes.cql", map[string]string{"LabelPattern": patterns[key]})
		for chunk := range util.Batch(grouped[key], u.batchSize) {
			params := map[string]any{"rows": toNodeParameters(chunk)}
			if err := u.client.RunWrite(ctx, query, params); err != nil {
				return fmt.Errorf("upsert nodes labels=%s: %w", key, err)
			}
		}
	}
	return nil
}

func toNodeParameters(rows []domain.NodeRow) []map[string]any {
	res := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		res = append(res, map[string]any{
			"nr_key":     row.Key,
			"properties": row.Properties,
			"run_id":     row.RunID,
			"updated_at": row.UpdatedAt,
		})
	}
	return res
}
