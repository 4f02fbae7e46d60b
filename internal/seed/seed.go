package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/service"
	"gopkg.in/yaml.v3"
)

// File 初始名册文件
type File struct {
	Employees []Employee `yaml:"employees"`
	Trainees  []Trainee  `yaml:"trainees"`
	Jobs      []Job      `yaml:"jobs"`
}

// Employee 员工条目
type Employee struct {
	Name         string `yaml:"name"`
	Position     string `yaml:"position"`
	Email        string `yaml:"email"`
	Password     string `yaml:"password"`
	Phone        string `yaml:"phone"`
	SignatureURL string `yaml:"signature_url"`
}

// Trainee 学员条目
type Trainee struct {
	Name           string `yaml:"name"`
	BirthDate      string `yaml:"birth_date"`
	DisabilityType string `yaml:"disability_type"`
	JobRole        string `yaml:"job_role"`
	WorkLocation   string `yaml:"work_location"`
	TrainingGoal   string `yaml:"training_goal"`
	TargetScore    int    `yaml:"target_score"`
}

// Job 职务条目
type Job struct {
	Title       string `yaml:"title"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Result 导入结果
type Result struct {
	Employees int
	Trainees  int
	Jobs      int
}

// Load 读取 YAML 文件
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &f, nil
}

// Apply 写入名册，已存在的员工（按邮箱）、学员与职务（按名称）跳过
func Apply(ctx context.Context, roster service.RosterService, f *File) (*Result, error) {
	result := &Result{}

	// 1. 员工
	employees, err := roster.ListEmployees(ctx)
	if err != nil {
		return nil, err
	}
	emails := make(map[string]bool, len(employees))
	for _, e := range employees {
		emails[strings.ToLower(e.Email)] = true
	}
	for _, e := range f.Employees {
		if emails[strings.ToLower(e.Email)] {
			continue
		}
		if _, err := roster.CreateEmployee(ctx, &service.EmployeeRequest{
			Name:         e.Name,
			Position:     e.Position,
			Email:        e.Email,
			Password:     e.Password,
			Phone:        e.Phone,
			SignatureURL: e.SignatureURL,
		}); err != nil {
			return result, fmt.Errorf("employee %q: %w", e.Name, err)
		}
		emails[strings.ToLower(e.Email)] = true
		result.Employees++
	}

	// 2. 学员
	trainees, err := roster.ListTrainees(ctx)
	if err != nil {
		return result, err
	}
	names := make(map[string]bool, len(trainees))
	for _, t := range trainees {
		names[t.Name] = true
	}
	for _, t := range f.Trainees {
		if names[strings.TrimSpace(t.Name)] {
			continue
		}
		if _, err := roster.CreateTrainee(ctx, &service.TraineeRequest{
			Name:           t.Name,
			BirthDate:      t.BirthDate,
			DisabilityType: t.DisabilityType,
			JobRole:        t.JobRole,
			WorkLocation:   t.WorkLocation,
			TrainingGoal:   t.TrainingGoal,
			TargetScore:    t.TargetScore,
		}); err != nil {
			return result, fmt.Errorf("trainee %q: %w", t.Name, err)
		}
		names[strings.TrimSpace(t.Name)] = true
		result.Trainees++
	}

	// 3. 职务
	jobs, err := roster.ListJobs(ctx)
	if err != nil {
		return result, err
	}
	titles := make(map[string]bool, len(jobs))
	for _, j := range jobs {
		titles[j.Title] = true
	}
	for _, j := range f.Jobs {
		if titles[strings.TrimSpace(j.Title)] {
			continue
		}
		if _, err := roster.CreateJob(ctx, &service.JobRequest{
			Title:       j.Title,
			Category:    j.Category,
			Description: j.Description,
		}); err != nil {
			return result, fmt.Errorf("job %q: %w", j.Title, err)
		}
		titles[strings.TrimSpace(j.Title)] = true
		result.Jobs++
	}
	return result, nil
}
