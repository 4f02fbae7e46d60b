package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	// DefaultGVizBaseURL 表格查询地址
	DefaultGVizBaseURL = "https://docs.google.com/spreadsheets/d"

	// 表格中的固定工作表
	TabData      = ""
	TabApprovals = "approvals"
	TabEmployee  = "employee"
	TabProgram   = "program"
)

var gvizEnvelope = regexp.MustCompile(`(?s)google\.visualization\.Query\.setResponse\((.*)\)`)

// Table 表格数据
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// TableQuery 查询参数，Sheet 与 GID 均可为空（默认第一个工作表）
type TableQuery struct {
	Sheet string
	GID   string
}

func (q TableQuery) cacheKey() string {
	return q.Sheet + "#" + q.GID
}

// TableReader 表格读取接口
type TableReader interface {
	FetchTable(ctx context.Context, q TableQuery) (*Table, error)
	Invalidate()
}

// GVizClient 通过 GViz 接口读取公开表格
type GVizClient struct {
	baseURL       string
	spreadsheetID string
	httpClient    *http.Client
	cache         *cache.Cache
}

// NewGVizClient 创建表格读取客户端，ttl 为 0 时不缓存
func NewGVizClient(baseURL, spreadsheetID string, ttl time.Duration, httpClient *http.Client) *GVizClient {
	if baseURL == "" {
		baseURL = DefaultGVizBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &GVizClient{
		baseURL:       baseURL,
		spreadsheetID: spreadsheetID,
		httpClient:    httpClient,
	}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// URL 构造查询地址
func (c *GVizClient) URL(q TableQuery) string {
	u := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json", c.baseURL, c.spreadsheetID)
	if q.Sheet != "" {
		u += "&sheet=" + url.QueryEscape(q.Sheet)
	}
	if q.GID != "" {
		u += "&gid=" + url.QueryEscape(q.GID)
	}
	return u
}

// FetchTable 读取工作表
func (c *GVizClient) FetchTable(ctx context.Context, q TableQuery) (*Table, error) {
	const action = "gviz"
	if c.spreadsheetID == "" {
		return nil, newError(KindConfig, action, "spreadsheet id is not configured", nil)
	}
	if c.cache != nil {
		if cached, ok := c.cache.Get(q.cacheKey()); ok {
			return cached.(*Table), nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(q), nil)
	if err != nil {
		return nil, newError(KindConfig, action, "invalid request", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindTransport, action, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindTransport, action, fmt.Sprintf("HTTP Error %d", resp.StatusCode), nil)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newError(KindTransport, action, "failed to read body", err)
	}

	table, err := ParseGViz(body)
	if err != nil {
		return nil, newError(KindFormat, action, "unexpected gviz response", err)
	}
	if c.cache != nil {
		c.cache.SetDefault(q.cacheKey(), table)
	}
	return table, nil
}

// Invalidate 清空缓存，写入后调用
func (c *GVizClient) Invalidate() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

type gvizResponse struct {
	Table *struct {
		Cols []struct {
			ID    string `json:"id"`
			Label string `json:"label"`
		} `json:"cols"`
		Rows []struct {
			C []*gvizCell `json:"c"`
		} `json:"rows"`
	} `json:"table"`
}

type gvizCell struct {
	V interface{} `json:"v"`
	F *string     `json:"f"`
}

// text 单元格文本：优先格式化值，其次原始值
func (c *gvizCell) text() string {
	if c == nil {
		return ""
	}
	if c.F != nil {
		return *c.F
	}
	switch v := c.V.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}

// ParseGViz 去掉 JSONP 包装并解析为表格
func ParseGViz(body []byte) (*Table, error) {
	m := gvizEnvelope.FindSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("setResponse envelope not found")
	}

	var resp gvizResponse
	if err := json.Unmarshal(m[1], &resp); err != nil {
		return nil, fmt.Errorf("decode gviz payload: %w", err)
	}
	if resp.Table == nil {
		return nil, fmt.Errorf("gviz payload has no table")
	}

	table := &Table{
		Headers: make([]string, 0, len(resp.Table.Cols)),
		Rows:    make([][]string, 0, len(resp.Table.Rows)),
	}
	for _, col := range resp.Table.Cols {
		header := col.Label
		if header == "" {
			header = col.ID
		}
		table.Headers = append(table.Headers, header)
	}
	for _, row := range resp.Table.Rows {
		cells := make([]string, len(row.C))
		for i, c := range row.C {
			cells[i] = c.text()
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}
