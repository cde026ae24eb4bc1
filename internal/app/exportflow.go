package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ksumesh431/new-relic-graphql/internal/domain"
	"github.com/ksumesh431/new-relic-graphql/internal/join"
	"github.com/ksumesh431/new-relic-graphql/internal/metrics"
	"github.com/ksumesh431/new-relic-graphql/internal/nerdgraph"
	"github.com/ksumesh431/new-relic-graphql/internal/paginate"
	"github.com/ksumesh431/new-relic-graphql/internal/report"
	"github.com/ksumesh431/new-relic-graphql/internal/sink"
	"github.com/ksumesh431/new-relic-graphql/pkg/util"
)

// RunIDLayout 为 run id 的时间格式，字典序即时间序。
const RunIDLayout = "20060102T150405Z"

// GraphLoader 接收一次导出的拓扑。
type GraphLoader interface {
	Load(ctx context.Context, runID string, nodes []domain.NodeRow, rels []domain.RelRow) error
}

// ExportFlow 负责完整导出：拉取 -> 规范化 -> 连接 -> 补全 -> 写出三个数据集 -> 可选入图。
type ExportFlow struct {
	Client   nerdgraph.Client
	Sink     sink.RecordSink
	Graph    GraphLoader
	Metrics  *metrics.Recorder
	Paging   paginate.Options
	Parallel bool
	Logger   *zap.Logger
	Now      func() time.Time
}

type datasetOutput struct {
	ds      sink.Dataset
	records [][]string
}

// Run 执行一次导出。任一实体拉取失败时不写任何文件。
func (f *ExportFlow) Run(ctx context.Context) (report.Summary, error) {
	if f == nil || f.Client == nil || f.Sink == nil {
		return report.Summary{}, fmt.Errorf("export flow dependencies are not wired")
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	start := now().UTC()
	summary := report.NewSummary(start.Format(RunIDLayout), start)
	fail := func(stage string, err error) (report.Summary, error) {
		f.Metrics.RunFailed(stage, now().Sub(start))
		return summary, &StageError{Stage: stage, Err: err}
	}

	paging := f.Paging
	if f.Metrics != nil {
		paging.OnPage = f.Metrics.ObservePage
	}
	snap, err := nerdgraph.FetchSnapshot(ctx, f.Client, nerdgraph.AllEntities, paging, f.Parallel)
	if err != nil {
		return fail(StageFetch, err)
	}
	for _, entity := range nerdgraph.AllEntities {
		summary.Fetched[string(entity)] = len(snap.Items(entity))
	}
	logger.Info("nerdgraph snapshot fetched",
		zap.String("run_id", summary.RunID),
		zap.Int("policies", len(snap.Policies)),
		zap.Int("conditions", len(snap.Conditions)),
		zap.Int("workflows", len(snap.Workflows)),
		zap.Int("channels", len(snap.Channels)),
		zap.Int("destinations", len(snap.Destinations)))

	diag := report.NewDiagnostics(logger)
	ents := snap.Normalize(diag)
	policyRows := join.PolicyConditions(ents.Policies, ents.Conditions, diag)
	channelRows := join.ChannelDestinations(ents.Channels, ents.Destinations, diag)
	outRows := join.Workflows(ents.Workflows, channelRows, policyRows, diag)

	outputs := []datasetOutput{
		{ds: sink.PolicyConditions, records: policyRecords(policyRows)},
		{ds: sink.ChannelDestinations, records: channelRecords(channelRows)},
		{ds: sink.WorkflowEnrichment, records: outputRecords(outRows)},
	}
	for _, out := range outputs {
		if err := f.Sink.WriteRecords(ctx, out.ds, out.records); err != nil {
			return fail(StageWrite, fmt.Errorf("dataset %s: %w", out.ds.Name, err))
		}
		summary.Rows[out.ds.Name] = len(out.records)
		summary.Fingerprints[out.ds.Name] = util.HashRecords(out.ds.Columns, out.records)
	}

	if f.Graph != nil {
		nodes, rels := nerdgraph.BuildGraphRows(summary.RunID, ents)
		if err := f.Graph.Load(ctx, summary.RunID, nodes, rels); err != nil {
			return fail(StageGraph, err)
		}
	}

	summary.Absorb(diag)
	summary.Duration = now().Sub(start)
	f.Metrics.RunSucceeded(summary.Duration, summary.Fetched, summary.Rows, summary.Skipped, summary.Ambiguities)
	summary.Log(logger)
	return summary, nil
}

func policyRecords(rows []domain.FlatPolicyConditionRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func channelRecords(rows []domain.FlatChannelRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}

func outputRecords(rows []domain.OutputRow) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Record())
	}
	return out
}
