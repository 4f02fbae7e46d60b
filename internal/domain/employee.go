package domain

import "strings"

const (
	// DefaultPosition 表格员工缺省职位
	DefaultPosition = "직업훈련교사"
	// DefaultPassword 表格员工缺省密码
	DefaultPassword = "1234"
	// DefaultFacilityName 默认机构名
	DefaultFacilityName = "정심작업장"
)

// Employee 员工
type Employee struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Position     string `json:"position"`
	Email        string `json:"email"`
	Password     string `json:"password,omitempty"`
	Phone        string `json:"phone"`
	SignatureURL string `json:"signatureUrl"`
}

// Role 根据职位推导审批角色
func (e Employee) Role() ApprovalRole {
	return RoleFromPosition(e.Position)
}

// Public 返回去除密码的副本
func (e Employee) Public() Employee {
	e.Password = ""
	return e
}

// FindEmployeeByName 按姓名查找员工
func FindEmployeeByName(employees []Employee, name string) (Employee, bool) {
	for _, e := range employees {
		if e.Name == name {
			return e, true
		}
	}
	return Employee{}, false
}

// FindEmployeeByEmail 按邮箱查找员工（忽略大小写与空白）
func FindEmployeeByEmail(employees []Employee, email string) (Employee, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range employees {
		if strings.ToLower(strings.TrimSpace(e.Email)) == email {
			return e, true
		}
	}
	return Employee{}, false
}

// Actor 执行审批操作的用户
type Actor struct {
	EmployeeID   string
	Name         string
	Role         ApprovalRole
	SignatureURL string
}

// ActorFromEmployee 由员工信息创建操作者
func ActorFromEmployee(e Employee) Actor {
	return Actor{
		EmployeeID:   e.ID,
		Name:         e.Name,
		Role:         e.Role(),
		SignatureURL: e.SignatureURL,
	}
}

// Settings 本地设置
type Settings struct {
	FacilityName  string `json:"facilityName"`
	DriveFolderID string `json:"googleDriveFolderId"`
	ScriptURL     string `json:"scriptUrl"`
	AutoSync      bool   `json:"autoSync"`
}
