package report

import (
	"time"

	"go.uber.org/zap"
)

// Summary 是一次运行结束时的汇总。
type Summary struct {
	RunID            string            `json:"run_id"`
	StartedAt        time.Time         `json:"started_at"`
	Duration         time.Duration     `json:"duration"`
	Fetched          map[string]int    `json:"fetched"`
	Rows             map[string]int    `json:"rows"`
	Fingerprints     map[string]string `json:"fingerprints"`
	Skipped          map[string]int    `json:"skipped"`
	OrphanConditions int               `json:"orphan_conditions"`
	Ambiguities      int               `json:"ambiguities"`
}

// NewSummary 初始化各个 map。
func NewSummary(runID string, startedAt time.Time) Summary {
	return Summary{
		RunID:        runID,
		StartedAt:    startedAt,
		Fetched:      make(map[string]int),
		Rows:         make(map[string]int),
		Fingerprints: make(map[string]string),
		Skipped:      make(map[string]int),
	}
}

// Absorb 把告警计数合并进汇总。
func (s *Summary) Absorb(d *Diagnostics) {
	for entity, n := range d.SkippedByEntity() {
		s.Skipped[entity] += n
	}
	s.OrphanConditions += d.Count(OrphanCondition)
	s.Ambiguities += d.Count(JoinAmbiguity)
}

// TotalSkipped 返回被跳过记录的总数。
func (s Summary) TotalSkipped() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// Log 以一行结构化日志输出汇总。
func (s Summary) Log(logger *zap.Logger) {
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("run_id", s.RunID),
		zap.Duration("duration", s.Duration),
		zap.Int("skipped_records", s.TotalSkipped()),
		zap.Int("orphan_conditions", s.OrphanConditions),
		zap.Int("join_ambiguities", s.Ambiguities),
	}
	for _, entity := range SortedKeys(s.Fetched) {
		fields = append(fields, zap.Int("fetched."+entity, s.Fetched[entity]))
	}
	for _, entity := range SortedKeys(s.Skipped) {
		fields = append(fields, zap.Int("skipped."+entity, s.Skipped[entity]))
	}
	for _, ds := range SortedKeys(s.Rows) {
		fields = append(fields, zap.Int("rows."+ds, s.Rows[ds]), zap.String("sha256."+ds, s.Fingerprints[ds]))
	}
	logger.Info("export finished", fields...)
}
