package join

import (
	"strings"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

// ListDelimiter 连接 workflow 级别的 id/值 列表。
const ListDelimiter = ","

const entityWorkflows = "workflows"

// 未匹配时使用的哨兵行，所有字段为空。
var (
	emptyChannelMatch = []domain.FlatChannelRow{{}}
	emptyPolicyMatch  = []domain.FlatPolicyConditionRow{{}}
)

// Enricher 用两个中间行集合补全 workflow。
type Enricher struct {
	channels map[string][]domain.FlatChannelRow
	policies map[string][]domain.FlatPolicyConditionRow
	diag     *report.Diagnostics
}

// NewEnricher 按 id 建立一对多索引，行序与输入一致。
func NewEnricher(channelRows []domain.FlatChannelRow, policyRows []domain.FlatPolicyConditionRow, diag *report.Diagnostics) *Enricher {
	e := &Enricher{
		channels: make(map[string][]domain.FlatChannelRow),
		policies: make(map[string][]domain.FlatPolicyConditionRow),
		diag:     diag,
	}
	for _, r := range channelRows {
		e.channels[r.ChannelID] = append(e.channels[r.ChannelID], r)
	}
	for _, r := range policyRows {
		e.policies[r.PolicyID] = append(e.policies[r.PolicyID], r)
	}
	return e
}

// Enrich 为每个 workflow 输出 渠道匹配 × 策略匹配 的笛卡尔积，渠道在外层、策略在内层。
// 每个合法 workflow 至少输出一行；缺少 id 或 name 的 workflow 被跳过并记录告警。
func (e *Enricher) Enrich(workflows []domain.Workflow) []domain.OutputRow {
	rows := make([]domain.OutputRow, 0, len(workflows))
	for _, w := range workflows {
		if w.ID == "" || w.Name == "" {
			reason := "missing id"
			if w.ID != "" {
				reason = "missing name"
			}
			e.diag.Malformed(entityWorkflows, w.ID, reason)
			continue
		}
		rows = append(rows, e.enrichOne(w)...)
	}
	return rows
}

func (e *Enricher) enrichOne(w domain.Workflow) []domain.OutputRow {
	channelIDs := domain.OrderedSet(w.ChannelIDs)
	channelMatches := e.matchChannels(channelIDs)
	policyMatches := e.matchPolicies(w.Enrichment)

	template := domain.OutputRow{
		WorkflowName:          w.Name,
		WorkflowID:            w.ID,
		DestinationChannelIDs: strings.Join(channelIDs, ListDelimiter),
		FilterOperator:        w.FilterOperator,
		FilterValues:          strings.Join(w.FilterValues, ListDelimiter),
	}
	var allPolicyIDs string
	if w.Enrichment != nil {
		template.AccumulatedPolicyName = w.Enrichment.PolicyName
		allPolicyIDs = strings.Join(domain.OrderedSet(w.Enrichment.PolicyIDs), ListDelimiter)
	}

	out := make([]domain.OutputRow, 0, len(channelMatches)*len(policyMatches))
	for _, ch := range channelMatches {
		for _, pol := range policyMatches {
			row := template
			row.Channel = ch
			row.Policy = pol
			row.LabelPolicyIDs = pol.PolicyID
			if pol.IsPlaceholder() {
				row.LabelPolicyIDs = allPolicyIDs
			}
			out = append(out, row)
		}
	}
	return out
}

func (e *Enricher) matchChannels(ids []string) []domain.FlatChannelRow {
	var matches []domain.FlatChannelRow
	for _, id := range ids {
		matches = append(matches, e.channels[id]...)
	}
	if len(matches) == 0 {
		return emptyChannelMatch
	}
	return matches
}

func (e *Enricher) matchPolicies(enrichment *domain.Enrichment) []domain.FlatPolicyConditionRow {
	if enrichment == nil {
		return emptyPolicyMatch
	}
	var matches []domain.FlatPolicyConditionRow
	for _, id := range domain.OrderedSet(enrichment.PolicyIDs) {
		matches = append(matches, e.policies[id]...)
	}
	if len(matches) == 0 {
		return emptyPolicyMatch
	}
	return matches
}

// Workflows 是 NewEnricher(...).Enrich(...) 的简写。
func Workflows(workflows []domain.Workflow, channelRows []domain.FlatChannelRow, policyRows []domain.FlatPolicyConditionRow, diag *report.Diagnostics) []domain.OutputRow {
	return NewEnricher(channelRows, policyRows, diag).Enrich(workflows)
}
