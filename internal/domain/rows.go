package domain

import "fmt"

// 行中的空字符串即为 null，写出时为空单元格。

// FlatPolicyConditionRow 每个条件一行，策略字段重复；无条件的策略保留一行且条件字段为空。
type FlatPolicyConditionRow struct {
	PolicyID      string
	PolicyName    string
	ConditionID   string
	ConditionName string
	NRQLQuery     string
	TermSummary   string
}

// IsPlaceholder 表示这是 workflow 未匹配到任何策略时使用的哨兵行。
func (r FlatPolicyConditionRow) IsPlaceholder() bool {
	return r == FlatPolicyConditionRow{}
}

// Record 按 PolicyConditionColumns 的顺序输出。
func (r FlatPolicyConditionRow) Record() []string {
	return []string{r.PolicyID, r.PolicyName, r.ConditionID, r.ConditionName, r.NRQLQuery, r.TermSummary}
}

// ParsePolicyConditionRecord 是 Record 的逆操作。
func ParsePolicyConditionRecord(rec []string) (FlatPolicyConditionRow, error) {
	if len(rec) != len(PolicyConditionColumns) {
		return FlatPolicyConditionRow{}, fmt.Errorf("policy/condition record: expected %d fields, got %d", len(PolicyConditionColumns), len(rec))
	}
	return FlatPolicyConditionRow{
		PolicyID:      rec[0],
		PolicyName:    rec[1],
		ConditionID:   rec[2],
		ConditionName: rec[3],
		NRQLQuery:     rec[4],
		TermSummary:   rec[5],
	}, nil
}

// FlatChannelRow 每个（渠道 × 保留下来的目的地属性）一行。
type FlatChannelRow struct {
	ChannelID        string
	ChannelName      string
	ChannelType      string
	DestinationID    string
	DestinationKey   string
	DestinationValue string
}

// IsPlaceholder 表示这是 workflow 未匹配到任何渠道时使用的哨兵行。
func (r FlatChannelRow) IsPlaceholder() bool {
	return r == FlatChannelRow{}
}

// Record 按 ChannelColumns 的顺序输出。
func (r FlatChannelRow) Record() []string {
	return []string{r.ChannelID, r.ChannelName, r.ChannelType, r.DestinationID, r.DestinationKey, r.DestinationValue}
}

// ParseChannelRecord 是 Record 的逆操作。
func ParseChannelRecord(rec []string) (FlatChannelRow, error) {
	if len(rec) != len(ChannelColumns) {
		return FlatChannelRow{}, fmt.Errorf("channel record: expected %d fields, got %d", len(ChannelColumns), len(rec))
	}
	return FlatChannelRow{
		ChannelID:        rec[0],
		ChannelName:      rec[1],
		ChannelType:      rec[2],
		DestinationID:    rec[3],
		DestinationKey:   rec[4],
		DestinationValue: rec[5],
	}, nil
}

// OutputRow 是一个 workflow、一条渠道匹配与一条策略匹配的组合。
type OutputRow struct {
	WorkflowName          string
	WorkflowID            string
	DestinationChannelIDs string
	Policy                FlatPolicyConditionRow
	AccumulatedPolicyName string
	LabelPolicyIDs        string
	FilterOperator        string
	FilterValues          string
	Channel               FlatChannelRow
}

// Record 按 OutputColumns 的顺序输出。
func (r OutputRow) Record() []string {
	return []string{
		r.WorkflowName,
		r.WorkflowID,
		r.DestinationChannelIDs,
		r.Policy.PolicyName,
		r.Policy.PolicyID,
		r.Policy.ConditionID,
		r.Policy.ConditionName,
		r.Policy.NRQLQuery,
		r.Policy.TermSummary,
		r.AccumulatedPolicyName,
		r.LabelPolicyIDs,
		r.FilterOperator,
		r.FilterValues,
		r.Channel.ChannelID,
		r.Channel.ChannelName,
		r.Channel.ChannelType,
		r.Channel.DestinationID,
		r.Channel.DestinationKey,
		r.Channel.DestinationValue,
	}
}
