package nerdgraph

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/paginate"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

// Snapshot 保存一次导出拉取到的全部原始条目。
type Snapshot struct {
	Policies     []json.RawMessage
	Conditions   []json.RawMessage
	Workflows    []json.RawMessage
	Channels     []json.RawMessage
	Destinations []json.RawMessage
}

// Items 返回 entity 对应的条目。
func (s *Snapshot) Items(entity EntityType) []json.RawMessage {
	switch entity {
	case EntityPolicies:
		return s.Policies
	case EntityConditions:
		return s.Conditions
	case EntityWorkflows:
		return s.Workflows
	case EntityChannels:
		return s.Channels
	case EntityDestinations:
		return s.Destinations
	}
	return nil
}

func (s *Snapshot) set(entity EntityType, items []json.RawMessage) {
	switch entity {
	case EntityPolicies:
		s.Policies = items
	case EntityConditions:
		s.Conditions = items
	case EntityWorkflows:
		s.Workflows = items
	case EntityChannels:
		s.Channels = items
	case EntityDestinations:
		s.Destinations = items
	}
}

// Collect 分页拉取单个实体的全部条目。
func Collect(ctx context.Context, c Client, entity EntityType, opts paginate.Options) ([]json.RawMessage, error) {
	return paginate.All(ctx, string(entity), func(ctx context.Context, cursor *string) (Page, error) {
		return c.FetchPage(ctx, entity, cursor)
	}, opts)
}

// FetchSnapshot 拉取 entities 中的每个实体。parallel 为 true 时并发拉取，
// 结果按实体归位而不是按完成顺序。任一实体失败即整体失败。
func FetchSnapshot(ctx context.Context, c Client, entities []EntityType, opts paginate.Options, parallel bool) (Snapshot, error) {
	results := make([][]json.RawMessage, len(entities))
	if parallel {
		g, gctx := errgroup.WithContext(ctx)
		for i, entity := range entities {
			g.Go(func() error {
				items, err := Collect(gctx, c, entity, opts)
				if err != nil {
					return fmt.Errorf("entity %s: %w", entity, err)
				}
				results[i] = items
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Snapshot{}, err
		}
	} else {
		for i, entity := range entities {
			items, err := Collect(ctx, c, entity, opts)
			if err != nil {
				return Snapshot{}, fmt.Errorf("entity %s: %w", entity, err)
			}
			results[i] = items
		}
	}

	var snap Snapshot
	for i, entity := range entities {
		snap.set(entity, results[i])
	}
	return snap, nil
}

// Entities 为规范化后的领域对象。
type Entities struct {
	Policies     []domain.Policy
	Conditions   []domain.Condition
	Workflows    []domain.Workflow
	Channels     []domain.Channel
	Destinations []domain.Destination
}

// Normalize 将快照转换为领域对象，问题条目记入 diag。
func (s *Snapshot) Normalize(diag *report.Diagnostics) Entities {
	return Entities{
		Policies:     MapPolicies(s.Policies, diag),
		Conditions:   MapConditions(s.Conditions, diag),
		Workflows:    MapWorkflows(s.Workflows, diag),
		Channels:     MapChannels(s.Channels, diag),
		Destinations: MapDestinations(s.Destinations, diag),
	}
}
