// Package paginate drives cursor based retrieval of one entity collection to exhaustion.
package paginate

import (
	"context"
	"errors"
	"time"

	"github.com/ksumesh431/new-relic-graphql/internal/util"
)

const (
	DefaultMaxPages = 1000
	DefaultAttempts = 3
	DefaultBackoff  = time.Second
)

// Page 为一次请求的结果，NextCursor 为 nil 或空串时表示没有下一页。
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// FetchFunc 获取 cursor 指向的那一页，首页 cursor 为 nil。
type FetchFunc[T any] func(ctx context.Context, cursor *string) (Page[T], error)

// Options 控制页数上限与单页重试。
type Options struct {
	MaxPages int
	Attempts int
	Backoff  time.Duration
	// OnPage 在每页成功后调用，用于计数。
	OnPage func(entity string, page, items int)
}

func (o Options) withDefaults() Options {
	if o.MaxPages <= 0 {
		o.MaxPages = DefaultMaxPages
	}
	if o.Attempts <= 0 {
		o.Attempts = DefaultAttempts
	}
	if o.Backoff <= 0 {
		o.Backoff = DefaultBackoff
	}
	return o
}

// All 从空游标开始逐页拉取直到没有下一页，按页序累积全部条目，不做去重。
func All[T any](ctx context.Context, entity string, fetch FetchFunc[T], opts Options) ([]T, error) {
	opts = opts.withDefaults()

	var (
		items  []T
		cursor *string
		seen   = make(map[string]struct{})
	)
	for page := 1; ; page++ {
		var result Page[T]
		err := util.Retry(ctx, opts.Attempts, opts.Backoff, func() error {
			p, err := fetch(ctx, cursor)
			if err != nil {
				var fe *FetchError
				if errors.As(err, &fe) && !fe.Retryable {
					return util.Permanent(err)
				}
				return err
			}
			result = p
			return nil
		})
		if err != nil {
			return nil, &PaginationError{Entity: entity, Reason: ReasonFetchExhausted, Pages: page - 1, Cursor: deref(cursor), Err: err}
		}

		items = append(items, result.Items...)
		if opts.OnPage != nil {
			opts.OnPage(entity, page, len(result.Items))
		}

		next := deref(result.NextCursor)
		if next == "" {
			return items, nil
		}
		if _, dup := seen[next]; dup {
			return nil, &PaginationError{Entity: entity, Reason: ReasonCursorCycle, Pages: page, Cursor: next}
		}
		if page >= opts.MaxPages {
			return nil, &PaginationError{Entity: entity, Reason: ReasonPageLimit, Pages: page, Cursor: next}
		}
		seen[next] = struct{}{}
		cursor = &next
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
