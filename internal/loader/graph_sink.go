package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
)

// Store 为 GraphSink 需要的 Neo4j 能力。
type Store interface {
	Writer
	RawRunner
}

// GraphSink 组合 schema、节点、关系与清理，一次 Load 对应一次导出。
type GraphSink struct {
	schema  *SchemaManager
	nodes   *NodeUpserter
	rels    *RelUpserter
	cleaner *Cleaner
	logger  *zap.Logger
}

// NewGraphSink 创建 GraphSink。
func NewGraphSink(store Store, batchSize int, logger *zap.Logger) *GraphSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphSink{
		schema:  NewSchemaManager(store),
		nodes:   NewNodeUpserter(store, batchSize),
		rels:    NewRelUpserter(store, batchSize),
		cleaner: NewCleaner(store),
		logger:  logger,
	}
}

// Load 写入节点和关系，之后删除 runID 之前遗留的对象。
func (s *GraphSink) Load(ctx context.Context, runID string, nodes []domain.NodeRow, rels []domain.RelRow) error {
	if err := s.schema.Ensure(ctx); err != nil {
		return err
	}
	if err := s.nodes.UpsertNodes(ctx, nodes); err != nil {
		return err
	}
	if err := s.rels.UpsertRels(ctx, rels); err != nil {
		return err
	}
	if err := s.cleaner.DeleteStale(ctx, runID); err != nil {
		return fmt.Errorf("cleanup run %s: %w", runID, err)
	}
	s.logger.Info("graph loaded",
		zap.String("run_id", runID),
		zap.Int("nodes", len(nodes)),
		zap.Int("relationships", len(rels)))
	return nil
}
