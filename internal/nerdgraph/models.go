package nerdgraph

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FlexID 兼容 NerdGraph 中以字符串或数字返回的 id。
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be string or number: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

// RawPolicy 对应 policiesSearch.policies 中的一项。
type RawPolicy struct {
	ID                 FlexID `json:"id"`
	Name               string `json:"name"`
	IncidentPreference string `json:"incidentPreference"`
}

// RawTerm 为条件的阈值子句。
type RawTerm struct {
	Operator             string   `json:"operator"`
	Priority             string   `json:"priority"`
	Threshold            *float64 `json:"threshold"`
	ThresholdDuration    *int     `json:"thresholdDuration"`
	ThresholdOccurrences string   `json:"thresholdOccurrences"`
}

// RawCondition 对应 nrqlConditionsSearch.nrqlConditions 中的一项。
type RawCondition struct {
	ID       FlexID `json:"id"`
	PolicyID FlexID `json:"policyId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	NRQL     *struct {
		Query string `json:"query"`
	} `json:"nrql"`
	Terms []RawTerm `json:"terms"`
}

// RawDestinationConfiguration 为 workflow 指向的渠道。
type RawDestinationConfiguration struct {
	ChannelID FlexID `json:"channelId"`
	Name      string `json:"name"`
	Type      string `json:"type"`
}

// RawPredicate 为 issuesFilter 中的一条谓词。
type RawPredicate struct {
	Attribute string   `json:"attribute"`
	Operator  string   `json:"operator"`
	Values    []string `json:"values"`
}

// RawWorkflow 对应 aiWorkflows.workflows.entities 中的一项。
type RawWorkflow struct {
	ID                        FlexID                        `json:"id"`
	Name                      string                        `json:"name"`
	DestinationConfigurations []RawDestinationConfiguration `json:"destinationConfigurations"`
	IssuesFilter              *struct {
		Predicates []RawPredicate `json:"predicates"`
	} `json:"issuesFilter"`
}

// RawChannel 对应 aiNotifications.channels.entities 中的一项。
type RawChannel struct {
	ID            FlexID `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	DestinationID FlexID `json:"destinationId"`
	Product       string `json:"product"`
}

// RawProperty 为目的地的键值属性。
type RawProperty struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RawDestination 对应 aiNotifications.destinations.entities 中的一项。
type RawDestination struct {
	ID         FlexID        `json:"id"`
	Name       string        `json:"name"`
	Properties []RawProperty `json:"properties"`
}
