package nerdgraph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksumesh431/new-relic-graphql/internal/report"
)

func raws(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, json.RawMessage(d))
	}
	return out
}

func TestFlexIDAcceptsStringsAndNumbers(t *testing.T) {
	var v struct {
		A FlexID `json:"a"`
		B FlexID `json:"b"`
		C FlexID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"x1","b":12345678901,"c":null}`), &v))
	assert.Equal(t, FlexID("x1"), v.A)
	assert.Equal(t, FlexID("12345678901"), v.B)
	assert.Equal(t, FlexID(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a":{}}`), &v))
}

func TestMapConditions(t *testing.T) {
	diag := report.NewDiagnostics(nil)
	conds := MapConditions(raws(
		`{"id":"k1","policyId":"p1","name":"High CPU","type":"STATIC","nrql":{"query":"SELECT 1"},
		  "terms":[{"operator":"ABOVE","priority":"CRITICAL","threshold":90.5,"thresholdDuration":300,"thresholdOccurrences":"ALL"}]}`,
		`{"id":"k2","name":"no policy"}`,
		`{"policyId":"p1"}`,
		`not json`,
	), diag)

	require.Len(t, conds, 1)
	c := conds[0]
	assert.Equal(t, "k1", c.ID)
	assert.Equal(t, "p1", c.PolicyID)
	assert.Equal(t, "SELECT 1", c.NRQLQuery)
	require.Len(t, c.Terms, 1)
	assert.Equal(t, 90.5, *c.Terms[0].Threshold)
	assert.Equal(t, 300, *c.Terms[0].ThresholdDuration)
	assert.Equal(t, 3, diag.Count(report.MalformedEntity))
}

func TestMapWorkflowPredicates(t *testing.T) {
	workflows := MapWorkflows(raws(
		`{"id":"w1","name":"Both","destinationConfigurations":[{"channelId":"c1"},{"channelId":"c2"},{"channelId":"c1"}],
		  "issuesFilter":{"predicates":[
		    {"attribute":"priority","operator":"EQUAL","values":["CRITICAL"]},
		    {"attribute":"accumulations.policyName","operator":"CONTAINS","values":["Prod","Web"]},
		    {"attribute":"labels.policyIds","operator":"EXACTLY_MATCHES","values":["p1","p2","p1"]}]}}`,
		`{"id":"w2","name":"NameOnly","issuesFilter":{"predicates":[
		    {"attribute":"accumulations.policyName","operator":"CONTAINS","values":["Prod","Web"]}]}}`,
		`{"id":"w3","name":"Other","issuesFilter":{"predicates":[
		    {"attribute":"priority","operator":"EQUAL","values":["CRITICAL","HIGH"]}]}}`,
		`{"id":"w4","name":"Bare","issuesFilter":null}`,
	), nil)
	require.Len(t, workflows, 4)

	w1 := workflows[0]
	assert.Equal(t, []string{"c1", "c2"}, w1.ChannelIDs)
	require.NotNil(t, w1.Enrichment)
	assert.Equal(t, []string{"p1", "p2"}, w1.Enrichment.PolicyIDs)
	assert.Equal(t, "Prod,Web", w1.Enrichment.PolicyName)
	assert.Equal(t, "EXACTLY_MATCHES", w1.FilterOperator)
	assert.Equal(t, []string{"p1", "p2", "p1"}, w1.FilterValues)

	w2 := workflows[1]
	require.NotNil(t, w2.Enrichment)
	assert.Nil(t, w2.Enrichment.PolicyIDs)
	assert.Equal(t, "Prod,Web", w2.Enrichment.PolicyName)
	assert.Equal(t, "CONTAINS", w2.FilterOperator)

	w3 := workflows[2]
	assert.Nil(t, w3.Enrichment)
	assert.Equal(t, "EQUAL", w3.FilterOperator)
	assert.Equal(t, []string{"CRITICAL", "HIGH"}, w3.FilterValues)

	w4 := workflows[3]
	assert.Nil(t, w4.Enrichment)
	assert.Nil(t, w4.ChannelIDs)
	assert.Empty(t, w4.FilterOperator)
}

func TestMapChannelsAndDestinations(t *testing.T) {
	diag := report.NewDiagnostics(nil)
	channels := MapChannels(raws(
		`{"id":"c1","name":"Ops","type":"EMAIL","destinationId":"d1","product":"IINT"}`,
		`{"name":"anonymous"}`,
	), diag)
	require.Len(t, channels, 1)
	assert.Equal(t, "d1", channels[0].DestinationID)

	dests := MapDestinations(raws(
		`{"id":"d1","name":"Mail","properties":[{"key":"email","value":"a@x"},{"key":"email","value":"b@x"},{"key":"url","value":"u"}]}`,
		`{"id":"","properties":[]}`,
	), diag)
	require.Len(t, dests, 1)
	assert.Equal(t, map[string]string{"email": "b@x", "url": "u"}, dests[0].Properties)

	skipped := diag.SkippedByEntity()
	assert.Equal(t, 1, skipped["channels"])
	assert.Equal(t, 1, skipped["destinations"])
}
