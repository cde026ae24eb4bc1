// Package report aggregates row level warnings and the end-of-run summary.
package report

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// WarningKind 区分可恢复的数据问题。
type WarningKind string

const (
	// MalformedEntity 表示记录缺少必需的标识字段，已被跳过。
	MalformedEntity WarningKind = "MalformedEntityWarning"
	// JoinAmbiguity 表示出现重复 id，按后写入者为准。
	JoinAmbiguity WarningKind = "JoinAmbiguityWarning"
	// OrphanCondition 表示条件引用的策略不存在。
	OrphanCondition WarningKind = "OrphanConditionWarning"
)

// Warning 是一条被记录的告警。
type Warning struct {
	Kind   WarningKind
	Entity string
	ID     string
	Reason string
}

// Diagnostics 记录并汇总运行过程中的告警，可并发使用。
type Diagnostics struct {
	logger *zap.Logger

	mu       sync.Mutex
	warnings []Warning
}

// NewDiagnostics 创建 Diagnostics，logger 为 nil 时不输出日志。
func NewDiagnostics(logger *zap.Logger) *Diagnostics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Diagnostics{logger: logger}
}

// Malformed 记录一条被跳过的记录。
func (d *Diagnostics) Malformed(entity, id, reason string) {
	d.add(Warning{Kind: MalformedEntity, Entity: entity, ID: id, Reason: reason})
}

// Ambiguous 记录重复 id。
func (d *Diagnostics) Ambiguous(entity, id, reason string) {
	d.add(Warning{Kind: JoinAmbiguity, Entity: entity, ID: id, Reason: reason})
}

// Orphan 记录找不到父实体的条件。
func (d *Diagnostics) Orphan(entity, id, reason string) {
	d.add(Warning{Kind: OrphanCondition, Entity: entity, ID: id, Reason: reason})
}

func (d *Diagnostics) add(w Warning) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.warnings = append(d.warnings, w)
	d.mu.Unlock()
	d.logger.Warn(string(w.Kind),
		zap.String("entity", w.Entity),
		zap.String("id", w.ID),
		zap.String("reason", w.Reason))
}

// Warnings 返回记录的副本。
func (d *Diagnostics) Warnings() []Warning {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Warning(nil), d.warnings...)
}

// Count 返回指定类型的告警数量。
func (d *Diagnostics) Count(kind WarningKind) int {
	n := 0
	for _, w := range d.Warnings() {
		if w.Kind == kind {
			n++
		}
	}
	return n
}

// SkippedByEntity 按实体统计被跳过的记录数。
func (d *Diagnostics) SkippedByEntity() map[string]int {
	out := make(map[string]int)
	for _, w := range d.Warnings() {
		if w.Kind == MalformedEntity {
			out[w.Entity]++
		}
	}
	return out
}

// SortedKeys 返回 map 的有序 key，便于稳定输出。
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
