package sheet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// 脚本支持的操作
const (
	ActionTest              = "test"
	ActionTestDriveFolder   = "test_drive_folder"
	ActionExportData        = "export_data"
	ActionSaveBackup        = "save_backup"
	ActionLoadBackup        = "load_backup"
	ActionSaveApproval      = "save_approval"
	ActionSaveApprovalBatch = "save_approval_batch"
	ActionGetEmployees      = "get_employees"
	ActionSaveEmployees     = "save_employees"
	ActionUploadImage       = "upload_image"
	ActionSavePDF           = "save_pdf"
)

const maxResponseBody = 32 << 20

// Response 脚本响应
type Response struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	URL     string          `json:"url,omitempty"`
}

// EndpointFunc 返回当前脚本地址，地址保存在可修改的设置中
type EndpointFunc func() string

// ScriptExecutor 脚本调用接口
type ScriptExecutor interface {
	Execute(ctx context.Context, action string, fields map[string]interface{}) (*Response, error)
}

// ScriptClient 远程脚本客户端
type ScriptClient struct {
	endpoint   EndpointFunc
	httpClient *http.Client
}

// NewScriptClient 创建脚本客户端
func NewScriptClient(endpoint EndpointFunc, httpClient *http.Client) *ScriptClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &ScriptClient{endpoint: endpoint, httpClient: httpClient}
}

// Execute 调用脚本：POST text/plain，body 为 {action, ...fields}
func (c *ScriptClient) Execute(ctx context.Context, action string, fields map[string]interface{}) (*Response, error) {
	// 1. 检查配置
	endpoint := ""
	if c.endpoint != nil {
		endpoint = strings.TrimSpace(c.endpoint())
	}
	if endpoint == "" {
		return nil, newError(KindConfig, action, "script url is not configured", nil)
	}

	// 2. 构造请求体
	body := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["action"] = action
	data, err := json.Marshal(body)
	if err != nil {
		return nil, newError(KindFormat, action, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindConfig, action, "invalid script url", err)
	}
	req.Header.Set("Content-Type", "text/plain")

	// 3. 发送请求
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindTransport, action, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindTransport, action, fmt.Sprintf("HTTP Error %d", resp.StatusCode), nil)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, newError(KindTransport, action, "failed to read body", err)
	}

	// 4. 非 JSON 响应通常是登录页
	if !isJSONContentType(resp.Header.Get("Content-Type")) {
		if looksLikeSignInPage(raw) {
			return nil, newError(KindPermission, action, "script returned an HTML page; deploy it with access set to Anyone", nil)
		}
		return nil, newError(KindFormat, action, "script returned an unexpected response format", nil)
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, newError(KindFormat, action, "failed to decode response", err)
	}

	// 5. 脚本自身报错
	if out.Status != "success" {
		return &out, classifyRemote(action, out.Message)
	}
	return &out, nil
}

func isJSONContentType(value string) bool {
	if value == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		return strings.Contains(value, "application/json")
	}
	return mediaType == "application/json"
}

// looksLikeSignInPage 判断响应是否为 HTML 页面
func looksLikeSignInPage(body []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			text := string(body)
			return strings.Contains(text, "Google") || strings.Contains(text, "Sign in")
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body, atom.Title, atom.Meta, atom.Form:
				return true
			}
		}
	}
}

// classifyRemote 根据脚本返回的消息判断错误类型
func classifyRemote(action, message string) *Error {
	if message == "" {
		message = "script reported an error"
	}
	switch {
	case strings.Contains(message, "Action not found"),
		strings.Contains(message, "0건 저장 완료"),
		strings.Contains(message, "저장할 데이터 없음"):
		return newError(KindUnsupported, action, message, nil)
	case strings.Contains(message, "DriveApp"),
		strings.Contains(message, "액세스"),
		strings.Contains(message, "Access denied"):
		return newError(KindPermission, action, message, nil)
	case strings.Contains(message, "폴더 ID"):
		return newError(KindConfig, action, message, nil)
	default:
		return newError(KindRemote, action, message, nil)
	}
}
