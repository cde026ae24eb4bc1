package paginate

import "fmt"

// FetchError 表示单页请求失败（网络、HTTP 状态或 API 错误载荷）。
type FetchError struct {
	Entity     string
	Cursor     string
	StatusCode int
	Retryable  bool
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s page", e.Entity)
	if e.Cursor != "" {
		msg += fmt.Sprintf(" (cursor %q)", e.Cursor)
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Reason 说明分页为何中止。
type Reason string

const (
	ReasonCursorCycle    Reason = "cursor repeated"
	ReasonPageLimit      Reason = "page ceiling exceeded"
	ReasonFetchExhausted Reason = "page fetch failed"
)

// PaginationError 为致命错误：游标循环、超出页数上限或重试耗尽。
type PaginationError struct {
	Entity string
	Reason Reason
	Pages  int
	Cursor string
	Err    error
}

func (e *PaginationError) Error() string {
	msg := fmt.Sprintf("paginate %s: %s after %d page(s)", e.Entity, e.Reason, e.Pages)
	if e.Cursor != "" {
		msg += fmt.Sprintf(" at cursor %q", e.Cursor)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *PaginationError) Unwrap() error { return e.Err }
