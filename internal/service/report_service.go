package service

import (
	"context"
	"strings"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/genai"
	"github.com/sirupsen/logrus"
)

// ReportService 训练总评生成服务
type ReportService interface {
	Summarize(ctx context.Context, req *SummaryRequest) (*SummaryResult, error)
}

// SummaryRequest 总评生成请求，指定 LogID 时使用已保存日志的内容
type SummaryRequest struct {
	LogID       string            `json:"logId"`
	Date        string            `json:"date"`
	Weather     string            `json:"weather"`
	TaskID      string            `json:"taskId"`
	Evaluations []EvaluationInput `json:"evaluations"`
}

// SummaryResult 总评生成结果
type SummaryResult struct {
	Summary string `json:"summary"`
}

type reportService struct {
	views     ViewService
	completer genai.Completer
	logger    logrus.FieldLogger
}

// NewReportService 创建总评生成服务
func NewReportService(views ViewService, completer genai.Completer, logger logrus.FieldLogger) ReportService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &reportService{views: views, completer: completer, logger: logger.WithField("service", "report")}
}

// Summarize 生成总评
func (s *reportService) Summarize(ctx context.Context, req *SummaryRequest) (*SummaryResult, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	// 1. 确定输入
	date, weather, taskID := req.Date, req.Weather, req.TaskID
	evaluations := make([]domain.Evaluation, 0, len(req.Evaluations))
	for _, ev := range req.Evaluations {
		evaluations = append(evaluations, domain.Evaluation{TraineeID: ev.TraineeID, Score: ev.Score, Note: ev.Note})
	}
	if req.LogID != "" {
		log, _, err := s.views.FindLog(ctx, req.LogID)
		if err != nil {
			return nil, err
		}
		date, weather, taskID, evaluations = log.Date, log.Weather, log.TaskID, log.Evaluations
	}
	if weather == "" {
		weather = domain.DefaultWeather
	}

	// 2. 构建提示词
	in := genai.ReportInput{
		Date:     date,
		Weather:  weather,
		JobTitle: domain.JobTitle(view.Jobs, taskID),
	}
	if job, ok := domain.FindJob(view.Jobs, taskID); ok {
		in.JobDescription = job.Description
	}
	for _, ev := range evaluations {
		line := genai.EvaluationLine{
			TraineeName:    unknownName,
			DisabilityType: domain.DefaultDisabilityType,
			Score:          ev.Score,
			Note:           ev.Note,
		}
		for _, t := range view.Trainees {
			if t.ID == ev.TraineeID {
				line.TraineeName = t.Name
				line.DisabilityType = t.DisabilityType
				break
			}
		}
		in.Evaluations = append(in.Evaluations, line)
	}

	// 3. 调用模型
	text, err := s.completer.Complete(ctx, genai.BuildDailyReportPrompt(in))
	if err != nil {
		s.logger.WithError(err).Warn("summary generation failed")
		return nil, err
	}
	return &SummaryResult{Summary: strings.TrimSpace(text)}, nil
}
