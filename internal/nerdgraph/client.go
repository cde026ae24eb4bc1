// Package nerdgraph talks to the New Relic NerdGraph GraphQL API and turns its
// paginated responses into domain entities.
package nerdgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ksumesh431/new-relic-graphql/internal/paginate"
)

const (
	DefaultEndpoint       = "https://api.newrelic.com/graphql"
	DefaultAuthHeaderName = "API-Key"
)

// Page 为一次分页请求返回的原始条目。
type Page = paginate.Page[json.RawMessage]

// Client 抽象 NerdGraph 数据源，每次调用获取一个实体集合的一页。
type Client interface {
	FetchPage(ctx context.Context, entity EntityType, cursor *string) (Page, error)
}

// TokenSource 用于提供调用 NerdGraph 所需的 User API Key。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource 返回固定 Key。
type StaticTokenSource struct {
	Value string
}

// Token 返回固定值。
func (s *StaticTokenSource) Token(context.Context) (string, error) {
	return s.Value, nil
}

// HTTPConfig 配置 HTTP 客户端。
type HTTPConfig struct {
	Endpoint          string
	AccountID         int
	TokenSource       TokenSource
	Timeout           time.Duration
	CustomClient      *http.Client
	AuthHeaderName    string
	RequestsPerSecond float64
	Logger            *zap.Logger
}

// HTTPClient 实现 Client，通过 HTTP POST GraphQL 请求。
type HTTPClient struct {
	endpoint    string
	accountID   int
	httpClient  *http.Client
	tokenSource TokenSource
	authHeader  string
	limiter     *rate.Limiter
	logger      *zap.Logger
}

// NewHTTPClient 根据配置创建 NerdGraph HTTP 客户端。
func NewHTTPClient(cfg HTTPConfig) (*HTTPClient, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if cfg.AccountID <= 0 {
		return nil, errors.New("nerdgraph account id must be positive")
	}
	if cfg.TokenSource == nil {
		return nil, errors.New("nerdgraph token source is required")
	}
	client := cfg.CustomClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	authHeader := cfg.AuthHeaderName
	if strings.TrimSpace(authHeader) == "" {
		authHeader = DefaultAuthHeaderName
	}
	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &HTTPClient{
		endpoint:    endpoint,
		accountID:   cfg.AccountID,
		httpClient:  client,
		tokenSource: cfg.TokenSource,
		authHeader:  authHeader,
		limiter:     rate.NewLimiter(limit, burst),
		logger:      logger,
	}, nil
}

type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type gqlError struct {
	Message string `json:"message"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []gqlError      `json:"errors"`
}

// FetchPage 请求 entity 的一页。网络错误、429 和 5xx 可重试；其余 4xx、
// GraphQL errors 载荷以及结果路径缺失不可重试。
func (c *HTTPClient) FetchPage(ctx context.Context, entity EntityType, cursor *string) (Page, error) {
	if c == nil {
		return Page{}, errors.New("nerdgraph http client is not initialised")
	}
	fail := func(status int, retryable bool, err error) (Page, error) {
		fe := &paginate.FetchError{Entity: string(entity), StatusCode: status, Retryable: retryable, Err: err}
		if cursor != nil {
			fe.Cursor = *cursor
		}
		return Page{}, fe
	}

	spec, ok := querySpecs[entity]
	if !ok {
		return fail(0, false, fmt.Errorf("unknown entity type %q", entity))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return Page{}, err
	}

	var cursorVar any
	if cursor != nil && *cursor != "" {
		cursorVar = *cursor
	}
	payload, err := json.Marshal(gqlRequest{
		Query:     spec.Query,
		Variables: map[string]any{"accountId": c.accountID, "cursor": cursorVar},
	})
	if err != nil {
		return fail(0, false, fmt.Errorf("encode request: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fail(0, false, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return fail(0, false, fmt.Errorf("get api key: %w", err))
	}
	if token != "" {
		req.Header.Set(c.authHeader, token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Page{}, ctx.Err()
		}
		return fail(0, true, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.logger.Debug("nerdgraph request",
		zap.String("entity", string(entity)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	if err != nil {
		return fail(resp.StatusCode, true, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return fail(resp.StatusCode, retryable, fmt.Errorf("unexpected status: %s", snippet(body)))
	}

	var out gqlResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return fail(resp.StatusCode, true, fmt.Errorf("decode response: %w", err))
	}
	if len(out.Errors) > 0 {
		msgs := make([]string, 0, len(out.Errors))
		for _, e := range out.Errors {
			msgs = append(msgs, e.Message)
		}
		return fail(resp.StatusCode, false, fmt.Errorf("graphql errors: %s", strings.Join(msgs, "; ")))
	}

	page, err := extractPage(out.Data, spec)
	if err != nil {
		return fail(resp.StatusCode, false, err)
	}
	return page, nil
}

// extractPage 沿 spec.Path 找到分页对象，取出条目数组与 nextCursor。
func extractPage(data json.RawMessage, spec querySpec) (Page, error) {
	node := data
	for _, key := range spec.Path {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(node, &obj); err != nil || obj == nil {
			return Page{}, fmt.Errorf("response path %s: missing %q", strings.Join(spec.Path, "."), key)
		}
		next, ok := obj[key]
		if !ok || isNull(next) {
			return Page{}, fmt.Errorf("response path %s: missing %q", strings.Join(spec.Path, "."), key)
		}
		node = next
	}

	var container map[string]json.RawMessage
	if err := json.Unmarshal(node, &container); err != nil {
		return Page{}, fmt.Errorf("decode page container: %w", err)
	}
	var page Page
	if raw, ok := container[spec.ItemsField]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return Page{}, fmt.Errorf("decode %s: %w", spec.ItemsField, err)
		}
	}
	if raw, ok := container["nextCursor"]; ok && !isNull(raw) {
		var next string
		if err := json.Unmarshal(raw, &next); err != nil {
			return Page{}, fmt.Errorf("decode nextCursor: %w", err)
		}
		page.NextCursor = &next
	}
	return page, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func snippet(body []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		s = s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}

// StaticClient 用于测试或离线运行，按游标返回预设页面。
// 首页的键为空串。
type StaticClient struct {
	Pages map[EntityType]map[string]Page
}

// NewStaticClient 将每个实体的条目放入单页。
func NewStaticClient(items map[EntityType][]json.RawMessage) *StaticClient {
	c := &StaticClient{Pages: make(map[EntityType]map[string]Page, len(items))}
	for entity, list := range items {
		c.Pages[entity] = map[string]Page{"": {Items: list}}
	}
	return c
}

// FetchPage 返回预设页面，未配置的实体视为空集合。
func (c *StaticClient) FetchPage(_ context.Context, entity EntityType, cursor *string) (Page, error) {
	key := ""
	if cursor != nil {
		key = *cursor
	}
	pages, ok := c.Pages[entity]
	if !ok {
		return Page{}, nil
	}
	page, ok := pages[key]
	if !ok {
		return Page{}, &paginate.FetchError{Entity: string(entity), Cursor: key, Err: errors.New("no fixture page for cursor")}
	}
	return page, nil
}
