package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/jswork01-cmyk/trainning1/internal/domain"
	"github.com/jswork01-cmyk/trainning1/internal/statemachine"
)

// StatisticsService 统计服务接口
type StatisticsService interface {
	Daily(ctx context.Context) ([]*DailyStatistics, error)
	ByJob(ctx context.Context) ([]*JobStatistics, error)
	Trainee(ctx context.Context, traineeID string) (*TraineeStatistics, error)
	Approvals(ctx context.Context) (*ApprovalStatistics, error)
}

// DailyStatistics 按日期统计
type DailyStatistics struct {
	Date         string  `json:"date"`
	Logs         int     `json:"logs"`
	Evaluations  int     `json:"evaluations"`
	AverageScore float64 `json:"averageScore"`
}

// JobStatistics 按职务统计
type JobStatistics struct {
	JobID        string  `json:"jobId"`
	JobTitle     string  `json:"jobTitle"`
	Logs         int     `json:"logs"`
	Evaluations  int     `json:"evaluations"`
	AverageScore float64 `json:"averageScore"`
}

// TraineeHistoryEntry 学员的一次评价
type TraineeHistoryEntry struct {
	LogID    string `json:"logId"`
	Date     string `json:"date"`
	JobTitle string `json:"jobTitle"`
	Score    int    `json:"score"`
	Note     string `json:"note"`
}

// TraineeJobScore 学员在某职务上的平均分
type TraineeJobScore struct {
	JobTitle     string  `json:"jobTitle"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

// TraineeStatistics 学员统计
type TraineeStatistics struct {
	TraineeID    string                `json:"traineeId"`
	Name         string                `json:"name"`
	Count        int                   `json:"count"`
	AverageScore float64               `json:"averageScore"`
	MaxScore     int                   `json:"maxScore"`
	History      []TraineeHistoryEntry `json:"history"`
	ByJob        []TraineeJobScore     `json:"byJob"`
}

// ApprovalStatistics 审批统计
type ApprovalStatistics struct {
	Total         int            `json:"total"`
	InProgress    int            `json:"inProgress"`
	Approved      int            `json:"approved"`
	Rejected      int            `json:"rejected"`
	ApprovalRate  float64        `json:"approvalRate"`
	PendingByRole map[string]int `json:"pendingByRole"`
}

// statisticsService 统计服务实现，基于展示视图计算
type statisticsService struct {
	views ViewService
	sm    statemachine.StateMachine
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(views ViewService, sm statemachine.StateMachine) StatisticsService {
	return &statisticsService{views: views, sm: sm}
}

type scoreAcc struct {
	logs, count, total int
}

func (a *scoreAcc) add(evs []domain.Evaluation) {
	a.logs++
	for _, ev := range evs {
		a.count++
		a.total += ev.Score
	}
}

func (a scoreAcc) average() float64 {
	return average(a.total, a.count)
}

func average(total, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*100) / 100
}

// Daily 按日期统计，日期升序
func (s *statisticsService) Daily(ctx context.Context) ([]*DailyStatistics, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*scoreAcc)
	for _, log := range view.Logs {
		date := domain.NormalizeDate(log.Date)
		acc, ok := byDate[date]
		if !ok {
			acc = &scoreAcc{}
			byDate[date] = acc
		}
		acc.add(log.Evaluations)
	}

	stats := make([]*DailyStatistics, 0, len(byDate))
	for date, acc := range byDate {
		stats = append(stats, &DailyStatistics{
			Date:         date,
			Logs:         acc.logs,
			Evaluations:  acc.count,
			AverageScore: acc.average(),
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats, nil
}

// ByJob 按职务统计，日志数降序
func (s *statisticsService) ByJob(ctx context.Context) ([]*JobStatistics, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	byJob := make(map[string]*scoreAcc)
	for _, log := range view.Logs {
		acc, ok := byJob[log.TaskID]
		if !ok {
			acc = &scoreAcc{}
			byJob[log.TaskID] = acc
		}
		acc.add(log.Evaluations)
	}

	stats := make([]*JobStatistics, 0, len(byJob))
	for id, acc := range byJob {
		stats = append(stats, &JobStatistics{
			JobID:        id,
			JobTitle:     domain.JobTitle(view.Jobs, id),
			Logs:         acc.logs,
			Evaluations:  acc.count,
			AverageScore: acc.average(),
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Logs != stats[j].Logs {
			return stats[i].Logs > stats[j].Logs
		}
		return stats[i].JobTitle < stats[j].JobTitle
	})
	return stats, nil
}

// Trainee 学员评价历史，日期升序
func (s *statisticsService) Trainee(ctx context.Context, traineeID string) (*TraineeStatistics, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	stats := &TraineeStatistics{TraineeID: traineeID, History: []TraineeHistoryEntry{}, ByJob: []TraineeJobScore{}}
	known := false
	for _, t := range view.Trainees {
		if t.ID == traineeID {
			stats.Name = t.Name
			known = true
			break
		}
	}

	total := 0
	jobs := make(map[string]*scoreAcc)
	var jobOrder []string
	for _, log := range view.Logs {
		for _, ev := range log.Evaluations {
			if ev.TraineeID != traineeID {
				continue
			}
			title := domain.JobTitle(view.Jobs, log.TaskID)
			stats.History = append(stats.History, TraineeHistoryEntry{
				LogID:    log.ID,
				Date:     domain.NormalizeDate(log.Date),
				JobTitle: title,
				Score:    ev.Score,
				Note:     ev.Note,
			})
			total += ev.Score
			if ev.Score > stats.MaxScore {
				stats.MaxScore = ev.Score
			}
			acc, ok := jobs[title]
			if !ok {
				acc = &scoreAcc{}
				jobs[title] = acc
				jobOrder = append(jobOrder, title)
			}
			acc.count++
			acc.total += ev.Score
		}
	}
	if !known && len(stats.History) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTraineeNotFound, traineeID)
	}

	sort.SliceStable(stats.History, func(i, j int) bool { return stats.History[i].Date < stats.History[j].Date })
	stats.Count = len(stats.History)
	stats.AverageScore = average(total, stats.Count)
	for _, title := range jobOrder {
		acc := jobs[title]
		stats.ByJob = append(stats.ByJob, TraineeJobScore{JobTitle: title, Count: acc.count, AverageScore: acc.average()})
	}
	return stats, nil
}

// Approvals 审批状态统计，PendingByRole 为各角色当前可处理的日志数
func (s *statisticsService) Approvals(ctx context.Context) (*ApprovalStatistics, error) {
	view, err := s.views.Build(ctx)
	if err != nil {
		return nil, err
	}

	stats := &ApprovalStatistics{Total: len(view.Logs), PendingByRole: make(map[string]int)}
	for _, log := range view.Logs {
		switch log.Status() {
		case domain.LogApproved:
			stats.Approved++
		case domain.LogRejected:
			stats.Rejected++
		default:
			stats.InProgress++
		}
	}
	for _, role := range domain.ApprovalRoles {
		stats.PendingByRole[string(role)] = len(statemachine.BuildQueues(s.sm, view.Logs, role).Pending)
	}
	if stats.Total > 0 {
		stats.ApprovalRate = math.Round(float64(stats.Approved)/float64(stats.Total)*10000) / 100
	}
	return stats, nil
}
