package domain

// Term 描述 NRQL 条件中的一条阈值子句。
type Term struct {
	Operator             string
	Priority             string
	Threshold            *float64
	ThresholdDuration    *int
	ThresholdOccurrences string
}

// Condition 表示 NRQL 告警条件，PolicyID 仅为反向引用。
type Condition struct {
	ID        string
	PolicyID  string
	Name      string
	Type      string
	NRQLQuery string
	Terms     []Term
}

// Policy 表示告警策略，拥有零到多个条件。
type Policy struct {
	ID                 string
	Name               string
	IncidentPreference string
	Conditions         []Condition
}

// Enrichment 是 workflow 过滤器中与策略相关的部分。
type Enrichment struct {
	PolicyName string
	PolicyIDs  []string
}

// Workflow 连接告警条件与通知渠道。ChannelIDs 与 Enrichment.PolicyIDs 均为保序去重集合。
type Workflow struct {
	ID             string
	Name           string
	ChannelIDs     []string
	Enrichment     *Enrichment
	FilterOperator string
	FilterValues   []string
}

// Channel 是 workflow 引用的通知端点。
type Channel struct {
	ID            string
	Name          string
	Type          string
	DestinationID string
}

// Destination 保存渠道背后的投递元数据。
type Destination struct {
	ID         string
	Name       string
	Properties map[string]string
}

// OrderedSet 保序去重，忽略空字符串。
func OrderedSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
