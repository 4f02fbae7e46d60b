// Package document 生成可打印的训练日志 HTML
package document

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
)

//go:embed templates/training_log.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/training_log.html"))

const (
	unknownName = "Unknown"
	sealRunes   = 3
)

// Stamp 审批栏中的一格
type Stamp struct {
	Label        string
	Status       domain.StepStatus
	Name         string
	Seal         string
	SignatureURL template.URL
}

// Row 评价表中的一行
type Row struct {
	Name  string
	Score int
	Note  string
}

// Comment 审批意见
type Comment struct {
	Label string
	Name  string
	Text  string
}

// Data 模板数据
type Data struct {
	Facility   string
	Date       string
	Weather    string
	JobTitle   string
	Instructor string
	Summary    string
	Stamps     []Stamp
	Rows       []Row
	Photos     []template.URL
	Comments   []Comment
}

// Input 生成文档所需的数据
type Input struct {
	Facility  string
	Log       domain.TrainingLog
	Jobs      []domain.JobTask
	Trainees  []domain.Trainee
	Employees []domain.Employee
}

// Build 组装模板数据
//
// 步骤没有签名时取员工名册中同名员工的签名，仍没有时显示姓名印章。
func Build(in Input) Data {
	log := in.Log
	facility := strings.TrimSpace(in.Facility)
	if facility == "" {
		facility = domain.DefaultFacilityName
	}

	data := Data{
		Facility:   facility,
		Date:       log.Date,
		Weather:    log.Weather,
		JobTitle:   domain.JobTitle(in.Jobs, log.TaskID),
		Instructor: log.InstructorName,
		Summary:    log.Summary,
	}

	for _, step := range log.Approvals {
		signature := step.SignatureURL
		if signature == "" && step.ApproverName != "" {
			if emp, ok := domain.FindEmployeeByName(in.Employees, step.ApproverName); ok {
				signature = emp.SignatureURL
			}
		}
		data.Stamps = append(data.Stamps, Stamp{
			Label:        step.Label,
			Status:       step.Status,
			Name:         step.ApproverName,
			Seal:         seal(step.ApproverName),
			SignatureURL: safeImageURL(signature),
		})

		text := step.Comment
		if step.Status == domain.StepRejected {
			text = step.RejectReason
		}
		if step.Status != domain.StepPending && text != "" {
			data.Comments = append(data.Comments, Comment{Label: step.Label, Name: step.ApproverName, Text: text})
		}
	}

	for _, ev := range log.Evaluations {
		name := unknownName
		for _, t := range in.Trainees {
			if t.ID == ev.TraineeID {
				name = t.Name
				break
			}
		}
		data.Rows = append(data.Rows, Row{Name: name, Score: ev.Score, Note: ev.Note})
	}

	for _, img := range log.Images {
		if u := safeImageURL(img); u != "" {
			data.Photos = append(data.Photos, u)
		}
	}
	return data
}

// Render 输出 HTML
func Render(w io.Writer, data Data) error {
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render document: %w", err)
	}
	return nil
}

// RenderString 输出 HTML 字符串
func RenderString(data Data) (string, error) {
	var buf bytes.Buffer
	if err := Render(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Filename 保存到云盘的文件名
func Filename(log domain.TrainingLog) string {
	return fmt.Sprintf("%s_%s_훈련일지.pdf", log.Date, log.InstructorName)
}

func seal(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > sealRunes {
		runes = runes[:sealRunes]
	}
	return string(runes)
}

// safeImageURL 只放行 http(s) 与内嵌图片地址
func safeImageURL(raw string) template.URL {
	u := domain.NormalizeImageURL(raw)
	switch {
	case strings.HasPrefix(u, "https://"), strings.HasPrefix(u, "http://"), strings.HasPrefix(u, "data:image/"):
		return template.URL(u)
	default:
		return ""
	}
}
