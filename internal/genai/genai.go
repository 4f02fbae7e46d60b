package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL Gemini REST 地址
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	// DefaultModel 默认模型
	DefaultModel = "gemini-2.5-flash"
)

// ErrMissingAPIKey 未配置 API Key
var ErrMissingAPIKey = errors.New("genai api key missing")

// ErrEmptyResponse 模型未返回文本
var ErrEmptyResponse = errors.New("genai response empty")

// Completer 文本生成接口
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config 客户端配置
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Client Gemini generateContent 客户端
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config, httpClient *http.Client) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: Config{BaseURL: strings.TrimRight(base, "/"), APIKey: cfg.APIKey, Model: model}, client: httpClient}
}

// Complete 生成文本
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Model), url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("genai request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr errorResponse
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("genai http %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("genai http %d", resp.StatusCode)
	}

	var body generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode genai response: %w", err)
	}

	var sb strings.Builder
	if len(body.Candidates) > 0 {
		for _, p := range body.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
