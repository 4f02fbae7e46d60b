package sheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ExportRow 导出到表格的一行（一条评价）
type ExportRow struct {
	Date       string `json:"date"`
	Weather    string `json:"weather"`
	Job        string `json:"job"`
	Instructor string `json:"instructor"`
	Trainee    string `json:"trainee"`
	Score      int    `json:"score"`
	Note       string `json:"note"`
	Summary    string `json:"summary"`
	Images     string `json:"images"`
}

// ApprovalRecord 审批结果记录
type ApprovalRecord struct {
	LogID        string `json:"logId"`
	Role         string `json:"role"`
	Status       string `json:"status"`
	ApproverName string `json:"approverName"`
	SignatureURL string `json:"signatureUrl,omitempty"`
	ApprovedAt   string `json:"approvedAt"`
	Comment      string `json:"comment,omitempty"`
	RejectReason string `json:"rejectReason,omitempty"`
}

// Fields 转换为脚本请求字段
func (r ApprovalRecord) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"logId":        r.LogID,
		"role":         r.Role,
		"status":       r.Status,
		"approverName": r.ApproverName,
		"approvedAt":   r.ApprovedAt,
	}
	if r.SignatureURL != "" {
		fields["signatureUrl"] = r.SignatureURL
	}
	if r.Comment != "" {
		fields["comment"] = r.Comment
	}
	if r.RejectReason != "" {
		fields["rejectReason"] = r.RejectReason
	}
	return fields
}

// Script 脚本操作集合
type Script interface {
	Test(ctx context.Context) (string, error)
	TestDriveFolder(ctx context.Context, folderID string) (string, error)
	ExportRows(ctx context.Context, rows []ExportRow) error
	SaveBackup(ctx context.Context, payload []byte) error
	LoadBackup(ctx context.Context) ([]byte, error)
	SaveApproval(ctx context.Context, record ApprovalRecord) error
	SaveApprovalBatch(ctx context.Context, records []ApprovalRecord) error
	GetEmployees(ctx context.Context) ([][]string, error)
	SaveEmployees(ctx context.Context, rows []map[string]string) error
	UploadImage(ctx context.Context, folderID, dataURI, filename string) (string, error)
	SavePDF(ctx context.Context, folderID, html, filename string) (string, error)
}

var _ Script = (*ScriptClient)(nil)

// Test 测试脚本连接
func (c *ScriptClient) Test(ctx context.Context) (string, error) {
	resp, err := c.Execute(ctx, ActionTest, nil)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// TestDriveFolder 测试云盘文件夹访问
func (c *ScriptClient) TestDriveFolder(ctx context.Context, folderID string) (string, error) {
	if strings.TrimSpace(folderID) == "" {
		return "", newError(KindConfig, ActionTestDriveFolder, "drive folder id is not configured", nil)
	}
	resp, err := c.Execute(ctx, ActionTestDriveFolder, map[string]interface{}{"folderId": folderID})
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}

// ExportRows 导出日志行
func (c *ScriptClient) ExportRows(ctx context.Context, rows []ExportRow) error {
	_, err := c.Execute(ctx, ActionExportData, map[string]interface{}{"payload": rows})
	return err
}

// SaveBackup 保存全量备份，payload 为 JSON 字符串
func (c *ScriptClient) SaveBackup(ctx context.Context, payload []byte) error {
	_, err := c.Execute(ctx, ActionSaveBackup, map[string]interface{}{"payload": string(payload)})
	return err
}

// LoadBackup 读取全量备份，返回 JSON；没有备份时返回 nil
func (c *ScriptClient) LoadBackup(ctx context.Context) ([]byte, error) {
	resp, err := c.Execute(ctx, ActionLoadBackup, nil)
	if err != nil {
		return nil, err
	}
	if len(resp.Payload) == 0 || string(resp.Payload) == "null" {
		return nil, nil
	}
	// 备份以 JSON 字符串形式保存
	var text string
	if err := json.Unmarshal(resp.Payload, &text); err == nil {
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []byte(text), nil
	}
	return resp.Payload, nil
}

// SaveApproval 保存单条审批结果
func (c *ScriptClient) SaveApproval(ctx context.Context, record ApprovalRecord) error {
	_, err := c.Execute(ctx, ActionSaveApproval, record.Fields())
	return err
}

// SaveApprovalBatch 一次保存多条审批结果
func (c *ScriptClient) SaveApprovalBatch(ctx context.Context, records []ApprovalRecord) error {
	_, err := c.Execute(ctx, ActionSaveApprovalBatch, map[string]interface{}{"payload": records})
	return err
}

// GetEmployees 读取员工表原始行
func (c *ScriptClient) GetEmployees(ctx context.Context) ([][]string, error) {
	resp, err := c.Execute(ctx, ActionGetEmployees, nil)
	if err != nil {
		return nil, err
	}
	var raw [][]interface{}
	if err := json.Unmarshal(resp.Data, &raw); err != nil {
		return nil, newError(KindFormat, ActionGetEmployees, "employee data is not a table", err)
	}
	rows := make([][]string, len(raw))
	for i, r := range raw {
		rows[i] = make([]string, len(r))
		for j, v := range r {
			rows[i][j] = cellString(v)
		}
	}
	return rows, nil
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}

// SaveEmployees 覆盖员工表
func (c *ScriptClient) SaveEmployees(ctx context.Context, rows []map[string]string) error {
	_, err := c.Execute(ctx, ActionSaveEmployees, map[string]interface{}{"payload": rows})
	return err
}

// UploadImage 上传图片到云盘，返回图片地址
func (c *ScriptClient) UploadImage(ctx context.Context, folderID, dataURI, filename string) (string, error) {
	if strings.TrimSpace(folderID) == "" {
		return "", newError(KindConfig, ActionUploadImage, "drive folder id is not configured", nil)
	}
	mimeType, payload := SplitDataURI(dataURI)
	resp, err := c.Execute(ctx, ActionUploadImage, map[string]interface{}{
		"folderId":   folderID,
		"imageBytes": payload,
		"mimeType":   mimeType,
		"filename":   filename,
	})
	if err != nil {
		return "", err
	}
	if resp.URL == "" {
		return "", newError(KindFormat, ActionUploadImage, "upload response has no url", nil)
	}
	return resp.URL, nil
}

// SavePDF 将 HTML 文档保存为云盘 PDF
func (c *ScriptClient) SavePDF(ctx context.Context, folderID, html, filename string) (string, error) {
	if strings.TrimSpace(folderID) == "" {
		return "", newError(KindConfig, ActionSavePDF, "drive folder id is not configured", nil)
	}
	resp, err := c.Execute(ctx, ActionSavePDF, map[string]interface{}{
		"folderId": folderID,
		"html":     html,
		"filename": filename,
	})
	if err != nil {
		return "", err
	}
	if resp.URL != "" {
		return resp.URL, nil
	}
	return resp.Message, nil
}

// SplitDataURI 拆分 data URI，返回 MIME 类型与 base64 内容
func SplitDataURI(dataURI string) (string, string) {
	mimeType := "image/jpeg"
	idx := strings.Index(dataURI, "base64,")
	if idx < 0 {
		return mimeType, dataURI
	}
	prefix := strings.TrimPrefix(dataURI[:idx], "data:")
	prefix = strings.TrimSuffix(prefix, ";")
	if prefix != "" {
		mimeType = prefix
	}
	return mimeType, dataURI[idx+len("base64,"):]
}
