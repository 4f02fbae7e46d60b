package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	jobIDPrefix  = "shared-job-"
	unknownJobID = "unknown-job"

	// JobCategoryOther 来自表格或学员数据的职务分类
	JobCategoryOther = "other"
	// SheetJobDescription 表格派生职务的描述
	SheetJobDescription = "From Google Sheet"
	// TraineeJobDescription 学员 jobRole 派生职务的描述
	TraineeJobDescription = "From Trainee Data"
)

// JobTask 训练职务
type JobTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

// NormalizeTitle 规范化职务名：NFC、去首尾空白、空白串替换为 "-"
func NormalizeTitle(title string) string {
	s := strings.TrimSpace(norm.NFC.String(title))
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('-')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// JobID 根据职务名生成稳定 ID
func JobID(title string) string {
	slug := NormalizeTitle(title)
	if slug == "" {
		return unknownJobID
	}
	return jobIDPrefix + slug
}

// NewSheetJob 创建表格派生职务
func NewSheetJob(title string) JobTask {
	title = strings.TrimSpace(title)
	return JobTask{
		ID:          JobID(title),
		Title:       title,
		Category:    JobCategoryOther,
		Description: SheetJobDescription,
	}
}

// FindJob 按 ID 查找职务
func FindJob(jobs []JobTask, id string) (JobTask, bool) {
	for _, j := range jobs {
		if j.ID == id {
			return j, true
		}
	}
	return JobTask{}, false
}

// JobTitle 返回职务名，找不到时返回 ID 本身
func JobTitle(jobs []JobTask, id string) string {
	if j, ok := FindJob(jobs, id); ok {
		return j.Title
	}
	return id
}
