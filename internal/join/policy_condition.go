// Package join flattens policies, channels and workflows into denormalized rows.
package join

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

// TermDelimiter 连接同一条件下的多个 term。
const TermDelimiter = "; "

const (
	entityPolicies   = "policies"
	entityConditions = "nrqlConditions"
)

// PolicyConditions 把策略与其 NRQL 条件展开为每个条件一行。
// 条件既可以嵌在 Policy.Conditions 中，也可以通过 siblings 按 PolicyID 关联，两者同时存在时嵌套的在前。
// 没有任何条件的策略仍然输出一行，条件字段为空。
func PolicyConditions(policies []domain.Policy, siblings []domain.Condition, diag *report.Diagnostics) []domain.FlatPolicyConditionRow {
	policies = dedupePolicies(policies, diag)

	known := make(map[string]struct{}, len(policies))
	for _, p := range policies {
		known[p.ID] = struct{}{}
	}
	byPolicy := make(map[string][]domain.Condition)
	for _, c := range siblings {
		if _, ok := known[c.PolicyID]; !ok {
			diag.Orphan(entityConditions, c.ID, fmt.Sprintf("policy %q not found", c.PolicyID))
			continue
		}
		byPolicy[c.PolicyID] = append(byPolicy[c.PolicyID], c)
	}

	rows := make([]domain.FlatPolicyConditionRow, 0, len(policies)+len(siblings))
	for _, p := range policies {
		conditions := append(append([]domain.Condition(nil), p.Conditions...), byPolicy[p.ID]...)
		if len(conditions) == 0 {
			rows = append(rows, domain.FlatPolicyConditionRow{PolicyID: p.ID, PolicyName: p.Name})
			continue
		}
		for _, c := range conditions {
			rows = append(rows, domain.FlatPolicyConditionRow{
				PolicyID:      p.ID,
				PolicyName:    p.Name,
				ConditionID:   c.ID,
				ConditionName: c.Name,
				NRQLQuery:     c.NRQLQuery,
				TermSummary:   SummarizeTerms(c.Terms),
			})
		}
	}
	return rows
}

// dedupePolicies 重复 id 时保留最后一次出现的策略（位置也取最后一次）。
func dedupePolicies(policies []domain.Policy, diag *report.Diagnostics) []domain.Policy {
	last := make(map[string]int, len(policies))
	for i, p := range policies {
		last[p.ID] = i
	}
	out := make([]domain.Policy, 0, len(last))
	for i, p := range policies {
		if p.ID == "" {
			diag.Malformed(entityPolicies, "", "missing id")
			continue
		}
		if last[p.ID] != i {
			diag.Ambiguous(entityPolicies, p.ID, "duplicate policy id, later entity wins")
			continue
		}
		out = append(out, p)
	}
	return out
}

// SummarizeTerms 按原始顺序渲染 term，缺失的数值输出 null。
func SummarizeTerms(terms []domain.Term) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		parts = append(parts, fmt.Sprintf("%s %s for %ss (priority=%s, occurrences=%s)",
			t.Operator, formatFloat(t.Threshold), formatInt(t.ThresholdDuration), t.Priority, t.ThresholdOccurrences))
	}
	return strings.Join(parts, TermDelimiter)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "null"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return "null"
	}
	return strconv.Itoa(*v)
}
