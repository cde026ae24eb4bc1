package app

import (
	"errors"
	"fmt"
)

// 导出流程的阶段，用于错误信息与失败指标。
const (
	StageFetch = "fetch"
	StageRead  = "read"
	StageWrite = "write"
	StageGraph = "graph"
)

// ErrExportRunning 表示已有导出在执行。
var ErrExportRunning = errors.New("export already running")

// StageError 标记失败发生在哪个阶段。
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf 返回 err 所属阶段，未标记时返回空串。
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
