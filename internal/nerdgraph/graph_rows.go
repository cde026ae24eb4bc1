package nerdgraph

import (
	"time"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
)

// graphBuilder 按 key 去重，保持首次出现的顺序，属性以后出现者为准。
type graphBuilder struct {
	runID string
	now   time.Time

	nodes   []domain.NodeRow
	nodeIdx map[string]int
	rels    []domain.RelRow
	relSeen map[string]struct{}
}

func (b *graphBuilder) node(label, prefix, id string, props map[string]any) string {
	key := domain.MakeKey(prefix, id)
	props["nr_id"] = id
	row := domain.NodeRow{
		Key:        key,
		Labels:     []string{domain.LabelObject, label},
		Properties: props,
		RunID:      b.runID,
		UpdatedAt:  b.now,
	}
	if i, ok := b.nodeIdx[key]; ok {
		b.nodes[i] = row
		return key
	}
	b.nodeIdx[key] = len(b.nodes)
	b.nodes = append(b.nodes, row)
	return key
}

func (b *graphBuilder) rel(start, end, relType string) {
	if _, ok := b.nodeIdx[start]; !ok {
		return
	}
	if _, ok := b.nodeIdx[end]; !ok {
		return
	}
	id := start + "|" + relType + "|" + end
	if _, ok := b.relSeen[id]; ok {
		return
	}
	b.relSeen[id] = struct{}{}
	b.rels = append(b.rels, domain.RelRow{
		StartKey:   start,
		EndKey:     end,
		Type:       relType,
		Properties: map[string]any{},
		RunID:      b.runID,
	})
}

// BuildGraphRows 根据规范化后的实体生成告警拓扑的节点和关系。
// 关系只在两端节点都存在时生成，缺少 id 的实体不会入图。
func BuildGraphRows(runID string, ents Entities) ([]domain.NodeRow, []domain.RelRow) {
	if runID == "" {
		runID = time.Now().UTC().Format("20060102T150405Z")
	}
	b := &graphBuilder{
		runID:   runID,
		now:     time.Now().UTC(),
		nodeIdx: make(map[string]int),
		relSeen: make(map[string]struct{}),
	}

	for _, d := range ents.Destinations {
		props := map[string]any{"name": d.Name}
		for _, k := range domain.RecognizedDestinationKeys {
			if v, ok := d.Properties[k]; ok {
				props[k] = v
			}
		}
		b.node(domain.LabelDestination, domain.PrefixDestination, d.ID, props)
	}
	for _, c := range ents.Channels {
		b.node(domain.LabelChannel, domain.PrefixChannel, c.ID, map[string]any{
			"name": c.Name,
			"type": c.Type,
		})
	}

	conditions := make([]domain.Condition, 0, len(ents.Conditions))
	for _, p := range ents.Policies {
		if p.ID == "" {
			continue
		}
		b.node(domain.LabelPolicy, domain.PrefixPolicy, p.ID, map[string]any{
			"name":                p.Name,
			"incident_preference": p.IncidentPreference,
		})
		conditions = append(conditions, p.Conditions...)
	}
	conditions = append(conditions, ents.Conditions...)
	for _, c := range conditions {
		if c.ID == "" {
			continue
		}
		b.node(domain.LabelCondition, domain.PrefixCondition, c.ID, map[string]any{
			"name":       c.Name,
			"type":       c.Type,
			"nrql_query": c.NRQLQuery,
			"policy_id":  c.PolicyID,
		})
	}

	for _, w := range ents.Workflows {
		if w.ID == "" || w.Name == "" {
			continue
		}
		props := map[string]any{
			"name":            w.Name,
			"filter_operator": w.FilterOperator,
			"filter_values":   append([]string{}, w.FilterValues...),
		}
		if w.Enrichment != nil {
			props["accumulated_policy_name"] = w.Enrichment.PolicyName
		}
		b.node(domain.LabelWorkflow, domain.PrefixWorkflow, w.ID, props)
	}

	for _, c := range ents.Channels {
		if c.DestinationID != "" {
			b.rel(domain.MakeKey(domain.PrefixChannel, c.ID), domain.MakeKey(domain.PrefixDestination, c.DestinationID), domain.RelDeliversTo)
		}
	}
	for _, c := range conditions {
		if c.ID != "" && c.PolicyID != "" {
			b.rel(domain.MakeKey(domain.PrefixPolicy, c.PolicyID), domain.MakeKey(domain.PrefixCondition, c.ID), domain.RelHasCondition)
		}
	}
	for _, w := range ents.Workflows {
		if w.ID == "" || w.Name == "" {
			continue
		}
		wfKey := domain.MakeKey(domain.PrefixWorkflow, w.ID)
		for _, ch := range w.ChannelIDs {
			b.rel(wfKey, domain.MakeKey(domain.PrefixChannel, ch), domain.RelNotifiesVia)
		}
		if w.Enrichment != nil {
			for _, p := range w.Enrichment.PolicyIDs {
				b.rel(wfKey, domain.MakeKey(domain.PrefixPolicy, p), domain.RelFiltersPolicy)
			}
		}
	}
	return b.nodes, b.rels
}
