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

// EnrichFlow 只重新拉取 workflow，复用已写出的两个中间数据集生成最终输出。
type EnrichFlow struct {
	Client   nerdgraph.Client
	InputDir string
	Sink     sink.RecordSink
	Metrics  *metrics.Recorder
	Paging   paginate.Options
	Logger   *zap.Logger
	Now      func() time.Time
}

func (f *EnrichFlow) Run(ctx context.Context) (report.Summary, error) {
	if f == nil || f.Client == nil || f.Sink == nil {
		return report.Summary{}, fmt.Errorf("enrich flow dependencies are not wired")
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

	policyRows, err := readPolicyRows(f.InputDir)
	if err != nil {
		return fail(StageRead, err)
	}
	channelRows, err := readChannelRows(f.InputDir)
	if err != nil {
		return fail(StageRead, err)
	}

	paging := f.Paging
	if f.Metrics != nil {
		paging.OnPage = f.Metrics.ObservePage
	}
	items, err := nerdgraph.Collect(ctx, f.Client, nerdgraph.EntityWorkflows, paging)
	if err != nil {
		return fail(StageFetch, fmt.Errorf("entity %s: %w", nerdgraph.EntityWorkflows, err))
	}
	summary.Fetched[string(nerdgraph.EntityWorkflows)] = len(items)

	diag := report.NewDiagnostics(logger)
	workflows := nerdgraph.MapWorkflows(items, diag)
	records := outputRecords(join.Workflows(workflows, channelRows, policyRows, diag))

	ds := sink.WorkflowEnrichment
	if err := f.Sink.WriteRecords(ctx, ds, records); err != nil {
		return fail(StageWrite, fmt.Errorf("dataset %s: %w", ds.Name, err))
	}
	summary.Rows[ds.Name] = len(records)
	summary.Fingerprints[ds.Name] = util.HashRecords(ds.Columns, records)

	summary.Absorb(diag)
	summary.Duration = now().Sub(start)
	f.Metrics.RunSucceeded(summary.Duration, summary.Fetched, summary.Rows, summary.Skipped, summary.Ambiguities)
	summary.Log(logger)
	return summary, nil
}

func readPolicyRows(dir string) ([]domain.FlatPolicyConditionRow, error) {
	records, err := sink.ReadDataset(dir, sink.PolicyConditions)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.FlatPolicyConditionRow, 0, len(records))
	for _, rec := range records {
		row, err := domain.ParsePolicyConditionRecord(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func readChannelRows(dir string) ([]domain.FlatChannelRow, error) {
	records, err := sink.ReadDataset(dir, sink.ChannelDestinations)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.FlatChannelRow, 0, len(records))
	for _, rec := range records {
		row, err := domain.ParseChannelRecord(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}
