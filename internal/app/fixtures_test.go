package app

import (
	"encoding/json"
	"time"

	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
)

func rawItems(docs ...string) []json.RawMessage {
	out := make([]json.RawMessage, 0, len(docs))
	for _, d := range docs {
		out = append(out, json.RawMessage(d))
	}
	return out
}

// fixtureClient 提供一个小而完整的账号：两个策略、两个渠道、两个 workflow。
func fixtureClient() *nerdgraph.StaticClient {
	next := "page2"
	c := nerdgraph.NewStaticClient(map[nerdgraph.EntityType][]json.RawMessage{
		nerdgraph.EntityPolicies: rawItems(
			`{"id":"p1","name":"P1","incidentPreference":"PER_POLICY"}`,
			`{"id":"p2","name":"P2"}`,
		),
		nerdgraph.EntityConditions: rawItems(
			`{"id":"k1","policyId":"p1","name":"K1","nrql":{"query":"SELECT 1"},
			  "terms":[{"operator":"ABOVE","priority":"CRITICAL","threshold":90,"thresholdDuration":300,"thresholdOccurrences":"ALL"}]}`,
			`{"id":"k2","policyId":"p1","name":"K2","nrql":{"query":"SELECT 2"},"terms":[]}`,
			`{"id":"k9","policyId":"p404","name":"orphan"}`,
		),
		nerdgraph.EntityWorkflows: rawItems(
			`{"id":"w1","name":"Ops","destinationConfigurations":[{"channelId":"c1"},{"channelId":"c2"}],
			  "issuesFilter":{"predicates":[{"attribute":"labels.policyIds","operator":"EXACTLY_MATCHES","values":["p1"]}]}}`,
			`{"id":"w2","name":"Bare"}`,
		),
		nerdgraph.EntityDestinations: rawItems(
			`{"id":"d1","name":"Mail","properties":[{"key":"email","value":"ops@x"}]}`,
			`{"id":"d2","name":"Hook","properties":[{"key":"url","value":"https://hook"},{"key":"email","value":"dev@x"},{"key":"token","value":"t"}]}`,
		),
	})
	c.Pages[nerdgraph.EntityChannels] = map[string]nerdgraph.Page{
		"":      {Items: rawItems(`{"id":"c1","name":"Email ops","type":"EMAIL","destinationId":"d1"}`), NextCursor: &next},
		"page2": {Items: rawItems(`{"id":"c2","name":"Webhook","type":"WEBHOOK","destinationId":"d2"}`)},
	}
	return c
}

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}
