package domain

import "fmt"

// 识别的目的地属性键，顺序即输出顺序。
var RecognizedDestinationKeys = []string{"email", "url"}

const (
	DatasetPolicyConditions   = "policies_and_conditions"
	DatasetChannelDestination = "channels_and_destinations"
	DatasetWorkflowEnrichment = "workflows_with_channels"
)

// PolicyConditionColumns 为策略/条件中间文件的列。
var PolicyConditionColumns = []string{
	"policy_id",
	"policy_name",
	"condition_id",
	"condition_name",
	"nrql_query",
	"nrql_condition",
}

// ChannelColumns 为渠道/目的地中间文件的列。
var ChannelColumns = []string{
	"channel_id",
	"channel_name",
	"channel_type",
	"destination_id",
	"destination_key",
	"destination_value",
}

// OutputColumns 为最终输出的列，顺序固定。
var OutputColumns = []string{
	"workflow_name",
	"workflow_id",
	"destination_channel_ids",
	"alert_policy_name",
	"alert_policy_id",
	"nrql_condition_id",
	"alert_condition_name",
	"nrql_query",
	"nrql_condition",
	"attribute.accumulations.policyName",
	"attribute.labels.policyIds",
	"policy.operator",
	"policy.values",
	"channel_id",
	"destination_channel_name",
	"destination_channel_type",
	"destination_id",
	"destination_key",
	"destination_value",
}

// IsRecognizedDestinationKey 判断属性键是否会进入输出。
func IsRecognizedDestinationKey(key string) bool {
	for _, k := range RecognizedDestinationKeys {
		if k == key {
			return true
		}
	}
	return false
}

// CheckHeader 校验表头与 schema 完全一致。
func CheckHeader(header, columns []string) error {
	if len(header) != len(columns) {
		return fmt.Errorf("expected %d columns, got %d", len(columns), len(header))
	}
	for i, col := range columns {
		if header[i] != col {
			return fmt.Errorf("column %d: expected %q, got %q", i, col, header[i])
		}
	}
	return nil
}
