package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jswork01-cmyk/trainning1/internal/outbox"
	"github.com/jswork01-cmyk/trainning1/internal/sheet"
)

// ExportPayload export_data 队列内容
type ExportPayload struct {
	LogID string            `json:"logId"`
	Rows  []sheet.ExportRow `json:"rows"`
}

type syncExecutor struct {
	script      sheet.Script
	reader      sheet.TableReader
	afterExport func(ctx context.Context)
}

// NewSyncExecutor 将队列中的操作映射到脚本调用
//
// 配置错误、权限错误和脚本不支持的操作重试也不会成功，标记为永久失败。
func NewSyncExecutor(script sheet.Script, reader sheet.TableReader, afterExport func(ctx context.Context)) outbox.Executor {
	return &syncExecutor{script: script, reader: reader, afterExport: afterExport}
}

// Execute 执行一条队列操作
func (e *syncExecutor) Execute(ctx context.Context, action string, payload json.RawMessage) error {
	var err error
	switch action {
	case sheet.ActionExportData:
		var p ExportPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return outbox.Permanent(fmt.Errorf("decode %s payload: %w", action, err))
		}
		err = e.script.ExportRows(ctx, p.Rows)
		if err == nil {
			// 新数据写入后刷新远程读取
			if e.reader != nil {
				e.reader.Invalidate()
			}
			if e.afterExport != nil {
				e.afterExport(ctx)
			}
		}
	case sheet.ActionSaveApproval:
		var record sheet.ApprovalRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return outbox.Permanent(fmt.Errorf("decode %s payload: %w", action, err))
		}
		err = e.script.SaveApproval(ctx, record)
	case sheet.ActionSaveApprovalBatch:
		var records []sheet.ApprovalRecord
		if err := json.Unmarshal(payload, &records); err != nil {
			return outbox.Permanent(fmt.Errorf("decode %s payload: %w", action, err))
		}
		err = e.script.SaveApprovalBatch(ctx, records)
	default:
		return outbox.Permanent(fmt.Errorf("unsupported outbox action: %s", action))
	}

	if err == nil {
		return nil
	}
	switch sheet.KindOf(err) {
	case sheet.KindConfig, sheet.KindPermission, sheet.KindUnsupported:
		return outbox.Permanent(err)
	}
	return err
}
