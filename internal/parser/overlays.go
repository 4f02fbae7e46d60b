package parser

import (
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

// ParseApprovalOverlays 解析审批表：日志 ID、角色、状态、审批人、签名、时间、意见、驳回原因
func (p *Parser) ParseApprovalOverlays(rows [][]string) map[string]domain.ApprovalOverlay {
	overlays := make(map[string]domain.ApprovalOverlay)
	for _, row := range rows {
		logID := cleanLogID(cell(row, 0))
		if logID == "" {
			continue
		}
		overlay := overlays[logID]

		role, ok := domain.ParseApprovalRole(cell(row, 1))
		if ok {
			overlay.SetStep(role.Index(), domain.ApprovalStep{
				Role:         role,
				Label:        role.Label(),
				Status:       domain.StepStatus(strings.ToLower(cell(row, 2))),
				ApproverName: cell(row, 3),
				SignatureURL: cell(row, 4),
				ApprovedAt:   cell(row, 5),
				Comment:      cell(row, 6),
				RejectReason: cell(row, 7),
			})
		}
		overlays[logID] = overlay
	}
	return overlays
}

// cleanLogID 去掉表格写入时加入的逗号与前导单引号
func cleanLogID(raw string) string {
	id := strings.ReplaceAll(raw, ",", "")
	id = strings.TrimPrefix(id, "'")
	return strings.TrimSpace(id)
}
