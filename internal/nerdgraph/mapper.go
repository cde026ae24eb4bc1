package nerdgraph

import (
	"encoding/json"
	"strings"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

const (
	attrPolicyIDs  = "labels.policyIds"
	attrPolicyName = "accumulations.policyName"
)

// decodeEach 逐条解码，失败的条目记为 MalformedEntityWarning 并跳过。
func decodeEach[T any](entity EntityType, items []json.RawMessage, diag *report.Diagnostics) []T {
	out := make([]T, 0, len(items))
	for _, raw := range items {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			diag.Malformed(string(entity), "", "decode: "+err.Error())
			continue
		}
		out = append(out, v)
	}
	return out
}

// MapPolicies 转换策略。缺少 id 的策略交由连接阶段处理。
func MapPolicies(items []json.RawMessage, diag *report.Diagnostics) []domain.Policy {
	raws := decodeEach[RawPolicy](EntityPolicies, items, diag)
	out := make([]domain.Policy, 0, len(raws))
	for _, r := range raws {
		out = append(out, domain.Policy{
			ID:                 string(r.ID),
			Name:               r.Name,
			IncidentPreference: r.IncidentPreference,
		})
	}
	return out
}

// MapConditions 转换 NRQL 条件，缺少 id 或 policyId 的条件被跳过。
func MapConditions(items []json.RawMessage, diag *report.Diagnostics) []domain.Condition {
	raws := decodeEach[RawCondition](EntityConditions, items, diag)
	out := make([]domain.Condition, 0, len(raws))
	for _, r := range raws {
		switch {
		case r.ID == "":
			diag.Malformed(string(EntityConditions), "", "missing id")
			continue
		case r.PolicyID == "":
			diag.Malformed(string(EntityConditions), string(r.ID), "missing policyId")
			continue
		}
		c := domain.Condition{
			ID:       string(r.ID),
			PolicyID: string(r.PolicyID),
			Name:     r.Name,
			Type:     r.Type,
		}
		if r.NRQL != nil {
			c.NRQLQuery = r.NRQL.Query
		}
		for _, t := range r.Terms {
			c.Terms = append(c.Terms, domain.Term{
				Operator:             t.Operator,
				Priority:             t.Priority,
				Threshold:            t.Threshold,
				ThresholdDuration:    t.ThresholdDuration,
				ThresholdOccurrences: t.ThresholdOccurrences,
			})
		}
		out = append(out, c)
	}
	return out
}

// MapWorkflows 转换 workflow，缺少 id/name 的由 Enricher 跳过。
func MapWorkflows(items []json.RawMessage, diag *report.Diagnostics) []domain.Workflow {
	raws := decodeEach[RawWorkflow](EntityWorkflows, items, diag)
	out := make([]domain.Workflow, 0, len(raws))
	for _, r := range raws {
		out = append(out, mapWorkflow(r))
	}
	return out
}

func mapWorkflow(r RawWorkflow) domain.Workflow {
	w := domain.Workflow{ID: string(r.ID), Name: r.Name}

	channelIDs := make([]string, 0, len(r.DestinationConfigurations))
	for _, dc := range r.DestinationConfigurations {
		channelIDs = append(channelIDs, string(dc.ChannelID))
	}
	w.ChannelIDs = domain.OrderedSet(channelIDs)

	if r.IssuesFilter == nil || len(r.IssuesFilter.Predicates) == 0 {
		return w
	}
	preds := r.IssuesFilter.Predicates

	var idsPred, namePred *RawPredicate
	for i := range preds {
		switch preds[i].Attribute {
		case attrPolicyIDs:
			if idsPred == nil {
				idsPred = &preds[i]
			}
		case attrPolicyName:
			if namePred == nil {
				namePred = &preds[i]
			}
		}
	}
	if idsPred != nil || namePred != nil {
		e := &domain.Enrichment{}
		if idsPred != nil {
			e.PolicyIDs = domain.OrderedSet(idsPred.Values)
		}
		if namePred != nil {
			e.PolicyName = strings.Join(namePred.Values, ",")
		}
		w.Enrichment = e
	}

	filter := &preds[0]
	switch {
	case idsPred != nil:
		filter = idsPred
	case namePred != nil:
		filter = namePred
	}
	w.FilterOperator = filter.Operator
	w.FilterValues = append([]string(nil), filter.Values...)
	return w
}

// MapChannels 转换通知渠道，缺少 id 的渠道被跳过。
func MapChannels(items []json.RawMessage, diag *report.Diagnostics) []domain.Channel {
	raws := decodeEach[RawChannel](EntityChannels, items, diag)
	out := make([]domain.Channel, 0, len(raws))
	for _, r := range raws {
		if r.ID == "" {
			diag.Malformed(string(EntityChannels), "", "missing id")
			continue
		}
		out = append(out, domain.Channel{
			ID:            string(r.ID),
			Name:          r.Name,
			Type:          r.Type,
			DestinationID: string(r.DestinationID),
		})
	}
	return out
}

// MapDestinations 转换目的地，属性列表中重复的 key 以后出现者为准。
func MapDestinations(items []json.RawMessage, diag *report.Diagnostics) []domain.Destination {
	raws := decodeEach[RawDestination](EntityDestinations, items, diag)
	out := make([]domain.Destination, 0, len(raws))
	for _, r := range raws {
		if r.ID == "" {
			diag.Malformed(string(EntityDestinations), "", "missing id")
			continue
		}
		props := make(map[string]string, len(r.Properties))
		for _, p := range r.Properties {
			props[p.Key] = p.Value
		}
		out = append(out, domain.Destination{
			ID:         string(r.ID),
			Name:       r.Name,
			Properties: props,
		})
	}
	return out
}
