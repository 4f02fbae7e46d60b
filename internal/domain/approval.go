package domain

import (
	"encoding/json"
	"strings"
)

// ApprovalRole 审批角色
type ApprovalRole string

const (
	RoleInstructor ApprovalRole = "instructor"
	RoleManager    ApprovalRole = "manager"
	RoleDirector   ApprovalRole = "director"
)

// ApprovalRoles 审批顺序，固定为 负责人 -> 事务局长 -> 院长
var ApprovalRoles = [3]ApprovalRole{RoleInstructor, RoleManager, RoleDirector}

var roleLabels = map[ApprovalRole]string{
	RoleInstructor: "담당자",
	RoleManager:    "사무국장",
	RoleDirector:   "원장",
}

// Index 返回角色在审批链中的位置，未知角色返回 -1
func (r ApprovalRole) Index() int {
	for i, role := range ApprovalRoles {
		if role == r {
			return i
		}
	}
	return -1
}

// Label 返回角色的显示名称
func (r ApprovalRole) Label() string {
	return roleLabels[r]
}

// Valid 判断角色是否合法
func (r ApprovalRole) Valid() bool {
	return r.Index() >= 0
}

// ParseApprovalRole 解析角色字符串
func ParseApprovalRole(s string) (ApprovalRole, bool) {
	role := ApprovalRole(strings.ToLower(strings.TrimSpace(s)))
	return role, role.Valid()
}

// RoleFromPosition 根据职位文本推导审批角色
func RoleFromPosition(position string) ApprovalRole {
	switch {
	case strings.Contains(position, "원장"), strings.Contains(position, "시설장"):
		return RoleDirector
	case strings.Contains(position, "사무국장"), strings.Contains(position, "팀장"):
		return RoleManager
	default:
		return RoleInstructor
	}
}

// StepStatus 审批步骤状态
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepApproved StepStatus = "approved"
	StepRejected StepStatus = "rejected"
)

// IsTerminal 判断步骤是否已结束
func (s StepStatus) IsTerminal() bool {
	return s == StepApproved || s == StepRejected
}

// LogStatus 日志整体状态
type LogStatus string

const (
	LogInProgress LogStatus = "in-progress"
	LogApproved   LogStatus = "approved"
	LogRejected   LogStatus = "rejected"
)

// ApprovalStep 审批步骤
type ApprovalStep struct {
	Role         ApprovalRole `json:"role"`
	Label        string       `json:"label"`
	Status       StepStatus   `json:"status"`
	ApproverName string       `json:"approverName,omitempty"`
	SignatureURL string       `json:"signatureUrl,omitempty"`
	ApprovedAt   string       `json:"approvedAt,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	RejectReason string       `json:"rejectReason,omitempty"`
}

// ApprovalChain 三步审批链，下标与 ApprovalRoles 对应
type ApprovalChain [3]ApprovalStep

// NewApprovalChain 创建新的审批链，第一步由作者自动批准
func NewApprovalChain(instructor, signatureURL, approvedAt string) ApprovalChain {
	var chain ApprovalChain
	chain.normalize()
	chain[0].Status = StepApproved
	chain[0].ApproverName = instructor
	chain[0].SignatureURL = signatureURL
	chain[0].ApprovedAt = approvedAt
	return chain
}

// Step 返回指定角色的步骤
func (c *ApprovalChain) Step(role ApprovalRole) *ApprovalStep {
	idx := role.Index()
	if idx < 0 {
		return nil
	}
	return &c[idx]
}

// HasRejection 判断链中是否存在驳回
func (c ApprovalChain) HasRejection() bool {
	for _, step := range c {
		if step.Status == StepRejected {
			return true
		}
	}
	return false
}

// Status 推导整体状态
func (c ApprovalChain) Status() LogStatus {
	if c.HasRejection() {
		return LogRejected
	}
	for _, step := range c {
		if step.Status != StepApproved {
			return LogInProgress
		}
	}
	return LogApproved
}

func (c *ApprovalChain) normalize() {
	for i := range c {
		c[i].Role = ApprovalRoles[i]
		c[i].Label = ApprovalRoles[i].Label()
		if c[i].Status == "" {
			c[i].Status = StepPending
		}
	}
}

// UnmarshalJSON 解码任意长度的步骤数组，并按位置修正角色
func (c *ApprovalChain) UnmarshalJSON(data []byte) error {
	var steps []ApprovalStep
	if err := json.Unmarshal(data, &steps); err != nil {
		return err
	}
	*c = ApprovalChain{}
	for i := 0; i < len(steps) && i < len(c); i++ {
		c[i] = steps[i]
	}
	c.normalize()
	return nil
}

// ApprovalOverlay 远程审批结果覆盖层，nil 表示该步骤无覆盖
type ApprovalOverlay struct {
	Approvals []*ApprovalStep `json:"approvals"`
}

// StepAt 返回指定下标的覆盖步骤
func (o ApprovalOverlay) StepAt(idx int) *ApprovalStep {
	if idx < 0 || idx >= len(o.Approvals) {
		return nil
	}
	return o.Approvals[idx]
}

// SetStep 写入指定下标的覆盖步骤
func (o *ApprovalOverlay) SetStep(idx int, step ApprovalStep) {
	for len(o.Approvals) < len(ApprovalRoles) {
		o.Approvals = append(o.Approvals, nil)
	}
	s := step
	o.Approvals[idx] = &s
}

// MergeStep 将 patch 中的非空字段合并到 base，角色与标签保持不变
func MergeStep(base ApprovalStep, patch ApprovalStep) ApprovalStep {
	if patch.Status != "" {
		base.Status = patch.Status
	}
	if patch.ApproverName != "" {
		base.ApproverName = patch.ApproverName
	}
	if patch.SignatureURL != "" {
		base.SignatureURL = patch.SignatureURL
	}
	if patch.ApprovedAt != "" {
		base.ApprovedAt = patch.ApprovedAt
	}
	if patch.Comment != "" {
		base.Comment = patch.Comment
	}
	if patch.RejectReason != "" {
		base.RejectReason = patch.RejectReason
	}
	return base
}
