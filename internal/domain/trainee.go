package domain

import "strings"

const (
	// SheetTraineeIDPrefix 表格派生学员 ID 前缀
	SheetTraineeIDPrefix = "sheet-trainee-"
	// DefaultDisabilityType 未知学员的障碍类型
	DefaultDisabilityType = "기타"
	// DefaultWorkLocation 默认工作地点
	DefaultWorkLocation = "1층"
	// SheetTraineeMemo 表格派生学员的备注
	SheetTraineeMemo = "From Google Sheet"
)

// Trainee 学员
type Trainee struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	BirthDate      string `json:"birthDate"`
	DisabilityType string `json:"disabilityType"`
	JobRole        string `json:"jobRole"`
	WorkLocation   string `json:"workLocation"`
	ResidenceType  string `json:"residenceType"`
	EmploymentType string `json:"employmentType"`
	Phone          string `json:"phone"`
	TrainingGoal   string `json:"trainingGoal"`
	TargetScore    int    `json:"targetScore"`
	Memo           string `json:"memo"`
}

// JobRoles 拆分 jobRole 字段
func (t Trainee) JobRoles() []string {
	var roles []string
	for _, part := range strings.Split(t.JobRole, ",") {
		if p := strings.TrimSpace(part); p != "" {
			roles = append(roles, p)
		}
	}
	return roles
}

// NewSheetTrainee 为表格中出现但名册中不存在的学员生成占位记录
func NewSheetTrainee(name string) Trainee {
	return Trainee{
		ID:             SheetTraineeIDPrefix + name,
		Name:           name,
		DisabilityType: DefaultDisabilityType,
		WorkLocation:   DefaultWorkLocation,
		TargetScore:    DefaultScore,
		Memo:           SheetTraineeMemo,
	}
}

// FindTraineeByName 按姓名精确查找
func FindTraineeByName(trainees []Trainee, name string) (Trainee, bool) {
	for _, t := range trainees {
		if t.Name == name {
			return t, true
		}
	}
	return Trainee{}, false
}

// TraineeName 根据 ID 返回姓名，找不到时返回 ID
func TraineeName(trainees []Trainee, id string) string {
	for _, t := range trainees {
		if t.ID == id {
			return t.Name
		}
	}
	return id
}
