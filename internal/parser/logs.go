package parser

import (
	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/sirupsen/logrus"
)

// Result 表格解析结果
type Result struct {
	Logs     []domain.TrainingLog `json:"logs"`
	Jobs     []domain.JobTask     `json:"jobs"`
	Trainees []domain.Trainee     `json:"trainees"`
}

// Parser 表格数据解析器
type Parser struct {
	logger logrus.FieldLogger
}

// New 创建解析器
func New(logger logrus.FieldLogger) *Parser {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Parser{logger: logger}
}

// ParseLogs 将日志表的行转换为训练日志、职务和学员
func (p *Parser) ParseLogs(headers []string, rows [][]string, known []domain.Trainee) Result {
	var result Result
	if len(rows) == 0 {
		return result
	}

	cols := discoverLogColumns(headers)
	if !cols.hasRequired() {
		p.logger.WithField("headers", headers).Warn("required columns (date, job, trainee) not found in sheet")
		return result
	}

	// 1. 按身份分组，保持首次出现的顺序
	logIndex := make(map[domain.LogKey]int)
	seenEval := make(map[domain.LogKey]map[string]bool)
	jobSeen := make(map[string]bool)
	traineeSeen := make(map[string]bool)
	skipped := 0

	for _, row := range rows {
		date := cell(row, cols.date)
		jobTitle := cell(row, cols.job)
		traineeName := cell(row, cols.trainee)
		if date == "" || jobTitle == "" || traineeName == "" {
			skipped++
			continue
		}

		// 2. 职务
		job := domain.NewSheetJob(jobTitle)
		if !jobSeen[job.ID] {
			jobSeen[job.ID] = true
			result.Jobs = append(result.Jobs, job)
		}

		// 3. 学员，名册中不存在时生成占位记录
		traineeID := ""
		if t, ok := domain.FindTraineeByName(known, traineeName); ok {
			traineeID = t.ID
		} else {
			synthetic := domain.NewSheetTrainee(traineeName)
			traineeID = synthetic.ID
			if !traineeSeen[traineeID] {
				traineeSeen[traineeID] = true
				result.Trainees = append(result.Trainees, synthetic)
			}
		}

		// 4. 日志
		key := domain.NewLogKey(date, jobTitle, cell(row, cols.instructor))
		idx, ok := logIndex[key]
		if !ok {
			weather := cell(row, cols.weather)
			if weather == "" {
				weather = domain.DefaultWeather
			}
			log := domain.TrainingLog{
				ID:             key.String(),
				Date:           key.Date,
				TaskID:         job.ID,
				Weather:        weather,
				InstructorName: key.Instructor,
				Summary:        cell(row, cols.summary),
				Images:         DecodePhotos(cell(row, cols.photo)),
				Approvals:      domain.NewApprovalChain(key.Instructor, "", key.Date),
			}
			result.Logs = append(result.Logs, log)
			idx = len(result.Logs) - 1
			logIndex[key] = idx
			seenEval[key] = make(map[string]bool)
		}

		// 5. 评价，同一日志中学员首次出现的行有效
		if seenEval[key][traineeID] {
			continue
		}
		seenEval[key][traineeID] = true
		result.Logs[idx].Evaluations = append(result.Logs[idx].Evaluations, domain.Evaluation{
			TraineeID: traineeID,
			Score:     domain.CoerceScore(cell(row, cols.score)),
			Note:      cell(row, cols.note),
		})
	}

	domain.SortLogsByDateDesc(result.Logs)

	if skipped > 0 {
		p.logger.WithField("skipped", skipped).Debug("skipped incomplete sheet rows")
	}
	return result
}
