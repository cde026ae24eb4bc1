package loader

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
)

type call struct {
	query  string
	params map[string]any
	raw    bool
}

type fakeStore struct {
	calls  []call
	failOn string
}

func (f *fakeStore) RunWrite(_ context.Context, query string, params map[string]any) error {
	f.calls = append(f.calls, call{query: query, params: params})
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return errors.New("boom")
	}
	return nil
}

func (f *fakeStore) RunRaw(_ context.Context, query string, params map[string]any) error {
	f.calls = append(f.calls, call{query: query, params: params, raw: true})
	return nil
}

func nodeRows(n int, label, prefix string) []domain.NodeRow {
	rows := make([]domain.NodeRow, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, domain.NodeRow{
			Key:        domain.MakeKey(prefix, i),
			Labels:     []string{domain.LabelObject, label},
			Properties: map[string]any{"name": label},
			RunID:      "r1",
			UpdatedAt:  time.Unix(0, 0).UTC(),
		})
	}
	return rows
}

func TestNodeUpserterBatchesPerLabelSet(t *testing.T) {
	store := &fakeStore{}
	rows := append(nodeRows(3, domain.LabelWorkflow, domain.PrefixWorkflow), nodeRows(1, domain.LabelChannel, domain.PrefixChannel)...)

	require.NoError(t, NewNodeUpserter(store, 2).UpsertNodes(context.Background(), rows))
	require.Len(t, store.calls, 3)

	assert.Contains(t, store.calls[0].query, "MERGE (n:Channel:NRObject {nr_key: row.nr_key})")
	assert.Contains(t, store.calls[1].query, "MERGE (n:NRObject:Workflow {nr_key: row.nr_key})")

	batch := store.calls[1].params["rows"].([]map[string]any)
	require.Len(t, batch, 2)
	assert.Equal(t, "WF_0", batch[0]["nr_key"])
	assert.Equal(t, "r1", batch[0]["run_id"])
	assert.Len(t, store.calls[2].params["rows"], 1)
}

func TestRelUpserterGroupsByType(t *testing.T) {
	store := &fakeStore{}
	rels := []domain.RelRow{
		{StartKey: "WF_1", EndKey: "CH_1", Type: domain.RelNotifiesVia, RunID: "r1"},
		{StartKey: "CH_1", EndKey: "DST_1", Type: domain.RelDeliversTo, RunID: "r1"},
	}
	require.NoError(t, NewRelUpserter(store, 0).UpsertRels(context.Background(), rels))
	require.Len(t, store.calls, 2)
	assert.Contains(t, store.calls[0].query, "[r:DELIVERS_TO]")
	assert.Contains(t, store.calls[1].query, "[r:NOTIFIES_VIA]")

	row := store.calls[0].params["rows"].([]map[string]any)[0]
	assert.Equal(t, map[string]any{}, row["properties"])
}

func TestUpsertersSkipEmptyInput(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, NewNodeUpserter(store, 10).UpsertNodes(context.Background(), nil))
	require.NoError(t, NewRelUpserter(store, 10).UpsertRels(context.Background(), nil))
	assert.Empty(t, store.calls)
}

func TestGraphSinkLoadOrder(t *testing.T) {
	store := &fakeStore{}
	sink := NewGraphSink(store, 100, nil)
	nodes := nodeRows(1, domain.LabelPolicy, domain.PrefixPolicy)
	rels := []domain.RelRow{{StartKey: "POL_0", EndKey: "COND_0", Type: domain.RelHasCondition, RunID: "r2"}}

	require.NoError(t, sink.Load(context.Background(), "r2", nodes, rels))
	require.NoError(t, sink.Load(context.Background(), "r3", nil, nil))

	var raw, writes int
	for _, c := range store.calls {
		if c.raw {
			raw++
		} else {
			writes++
		}
	}
	assert.Equal(t, 7, raw, "schema is applied once")
	assert.Equal(t, 6, writes)

	last := store.calls[len(store.calls)-1]
	assert.Contains(t, last.query, "DETACH DELETE n")
	assert.Equal(t, "r3", last.params["run_id"])
}

func TestGraphSinkStopsOnWriteError(t *testing.T) {
	store := &fakeStore{failOn: "MERGE (n"}
	err := NewGraphSink(store, 100, nil).Load(context.Background(), "r1", nodeRows(1, domain.LabelPolicy, domain.PrefixPolicy), nil)
	require.Error(t, err)
	for _, c := range store.calls {
		assert.NotContains(t, c.query, "DELETE")
	}
}

func TestNeo4jIntegration(t *testing.T) {
	uri := os.Getenv("NEO4J_TEST_URI")
	if testing.Short() || uri == "" {
		t.Skip("set NEO4J_TEST_URI to run against a live Neo4j")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := NewClient(ctx, Config{
		URI:      uri,
		Username: os.Getenv("NEO4J_TEST_USER"),
		Password: os.Getenv("NEO4J_TEST_PASSWORD"),
	})
	require.NoError(t, err)
	defer client.Close(ctx)

	sink := NewGraphSink(client, 50, nil)
	require.NoError(t, sink.Load(ctx, "29990101T000000Z", nodeRows(3, domain.LabelDestination, domain.PrefixDestination), nil))
	n, err := client.CountNodes(ctx, domain.LabelDestination)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(3))

	require.NoError(t, sink.Load(ctx, "29990101T000001Z", nil, nil))
	n, err = client.CountNodes(ctx, domain.LabelDestination)
	require.NoError(t, err)
	assert.Zero(t, n)
}
