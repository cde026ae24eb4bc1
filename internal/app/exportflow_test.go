package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
	"github.com/ksumesh431/new-relic-graphql/internal/paginate"
	"github.com/ksumesh431/new-relic-graphql/internal/sink"
)

type recordingGraph struct {
	runID string
	nodes []domain.NodeRow
	rels  []domain.RelRow
	err   error
}

func (g *recordingGraph) Load(_ context.Context, runID string, nodes []domain.NodeRow, rels []domain.RelRow) error {
	g.runID, g.nodes, g.rels = runID, nodes, rels
	return g.err
}

func TestExportFlowWritesAllDatasets(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	mem := sink.NewMemorySink()
	graph := &recordingGraph{}
	rec := metrics.NewRecorder(false)
	flow := &ExportFlow{
		Client:   fixtureClient(),
		Sink:     mem,
		Graph:    graph,
		Metrics:  rec,
		Parallel: true,
		Logger:   zap.New(core),
		Now:      fixedClock(),
	}

	summary, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "20260301T070000Z", summary.RunID)
	assert.Equal(t, 2, summary.Fetched["channels"])
	assert.Equal(t, 3, summary.Fetched["nrqlConditions"])
	assert.Equal(t, 1, summary.OrphanConditions)
	assert.Equal(t, map[string]int{
		domain.DatasetPolicyConditions:   3,
		domain.DatasetChannelDestination: 3,
		domain.DatasetWorkflowEnrichment: 7,
	}, summary.Rows)
	assert.Len(t, summary.Fingerprints[domain.DatasetWorkflowEnrichment], 64)

	policies, ok := mem.Records(domain.DatasetPolicyConditions)
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{"p1", "P1", "k1", "K1", "SELECT 1", "ABOVE 90 for 300s (priority=CRITICAL, occurrences=ALL)"},
		{"p1", "P1", "k2", "K2", "SELECT 2", ""},
		{"p2", "P2", "", "", "", ""},
	}, policies)

	channels, _ := mem.Records(domain.DatasetChannelDestination)
	assert.Equal(t, [][]string{
		{"c1", "Email ops", "EMAIL", "d1", "email", "ops@x"},
		{"c2", "Webhook", "WEBHOOK", "d2", "email", "dev@x"},
		{"c2", "Webhook", "WEBHOOK", "d2", "url", "https://hook"},
	}, channels)

	out, _ := mem.Records(domain.DatasetWorkflowEnrichment)
	require.Len(t, out, 7)
	assert.Equal(t, []string{
		"Ops", "w1", "c1,c2",
		"P1", "p1", "k1", "K1", "SELECT 1", "ABOVE 90 for 300s (priority=CRITICAL, occurrences=ALL)",
		"", "p1", "EXACTLY_MATCHES", "p1",
		"c1", "Email ops", "EMAIL", "d1", "email", "ops@x",
	}, out[0])
	// 渠道在外层：c1/k1, c1/k2, c2(email)/k1 ...
	assert.Equal(t, "k2", out[1][5])
	assert.Equal(t, "c2", out[2][13])
	assert.Equal(t, "k1", out[2][5])
	assert.Equal(t, []string{
		"Bare", "w2", "",
		"", "", "", "", "", "",
		"", "", "", "",
		"", "", "", "", "", "",
	}, out[6])

	assert.Equal(t, summary.RunID, graph.runID)
	assert.NotEmpty(t, graph.nodes)
	assert.NotEmpty(t, graph.rels)

	assert.Equal(t, 1, logs.FilterMessage("OrphanConditionWarning").Len())
	require.Equal(t, 1, logs.FilterMessage("export finished").Len())

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.PagesFetched.WithLabelValues("channels")))
	assert.Equal(t, 7.0, testutil.ToFloat64(rec.RowsWritten.WithLabelValues(domain.DatasetWorkflowEnrichment)))
}

func TestExportFlowFetchFailureWritesNothing(t *testing.T) {
	client := fixtureClient()
	loop := "loop"
	client.Pages[nerdgraph.EntityWorkflows] = map[string]nerdgraph.Page{
		"":     {NextCursor: &loop},
		"loop": {NextCursor: &loop},
	}
	mem := sink.NewMemorySink()
	rec := metrics.NewRecorder(false)
	flow := &ExportFlow{Client: client, Sink: mem, Metrics: rec, Parallel: true, Now: fixedClock()}

	_, err := flow.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageFetch, StageOf(err))
	var pe *paginate.PaginationError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, paginate.ReasonCursorCycle, pe.Reason)
	assert.Contains(t, err.Error(), "fetch stage: entity workflows")

	for _, name := range []string{domain.DatasetPolicyConditions, domain.DatasetChannelDestination, domain.DatasetWorkflowEnrichment} {
		_, ok := mem.Records(name)
		assert.False(t, ok, name)
	}
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.RunErrors.WithLabelValues(StageFetch)))
}

func TestExportFlowGraphFailure(t *testing.T) {
	flow := &ExportFlow{
		Client: fixtureClient(),
		Sink:   sink.NewMemorySink(),
		Graph:  &recordingGraph{err: errors.New("neo4j down")},
	}
	_, err := flow.Run(context.Background())
	assert.Equal(t, StageGraph, StageOf(err))
}

func TestExportFlowIsDeterministic(t *testing.T) {
	run := func(parallel bool) map[string][]byte {
		dir := t.TempDir()
		flow := &ExportFlow{
			Client:   fixtureClient(),
			Sink:     sink.NewCSVSink(dir, nil),
			Parallel: parallel,
			Now:      fixedClock(),
		}
		_, err := flow.Run(context.Background())
		require.NoError(t, err)

		files := make(map[string][]byte)
		for _, ds := range []sink.Dataset{sink.PolicyConditions, sink.ChannelDestinations, sink.WorkflowEnrichment} {
			b, err := os.ReadFile(filepath.Join(dir, ds.Name+".csv"))
			require.NoError(t, err)
			files[ds.Name] = b
		}
		return files
	}

	first := run(true)
	assert.Equal(t, first, run(true))
	assert.Equal(t, first, run(false))
}

func TestExportFlowRequiresDependencies(t *testing.T) {
	_, err := (&ExportFlow{}).Run(context.Background())
	assert.Error(t, err)
}
